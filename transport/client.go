// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/sunyihoo/walletcore/event"
)

// DefaultRequestTimeout bounds a provider call. It is longer than the
// broker's approval timeout so the wallet answers first.
const DefaultRequestTimeout = 6 * time.Minute

var (
	ErrClientQuit     = errors.New("client is closed")
	ErrRequestTimeout = errors.New("request timed out")
)

// ClientConfig configures a Client.
type ClientConfig struct {
	Clock          clock.Clock
	RequestTimeout time.Duration
}

// Client is the page side of the provider relay. It correlates responses to
// requests by envelope id.
type Client struct {
	conn    *wsConn
	clock   clock.Clock
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan *ResponsePayload

	events   event.FeedOf[EventPayload]
	readDone chan struct{}
}

// Dial connects to the provider endpoint of a wallet, presenting origin as
// the page origin.
func Dial(ctx context.Context, endpoint, origin string, config ClientConfig) (*Client, error) {
	header := make(http.Header)
	header.Set("Origin", origin)
	dialer := websocket.Dialer{
		ReadBufferSize:  wsReadBuffer,
		WriteBufferSize: wsWriteBuffer,
		WriteBufferPool: wsBufferPool,
		Proxy:           http.ProxyFromEnvironment,
	}
	conn, resp, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			return nil, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, err: err}
		}
		return nil, err
	}
	return newClient(newWSConn(conn), config), nil
}

func newClient(conn *wsConn, config ClientConfig) *Client {
	if config.Clock == nil {
		config.Clock = clock.NewDefaultClock()
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	c := &Client{
		conn:     conn,
		clock:    config.Clock,
		timeout:  config.RequestTimeout,
		pending:  make(map[string]chan *ResponsePayload),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// HTTPError is returned when the websocket handshake is refused.
type HTTPError struct {
	StatusCode int
	Status     string
	err        error
}

func (e *HTTPError) Error() string { return e.Status + ": " + e.err.Error() }
func (e *HTTPError) Unwrap() error { return e.err }

// Request sends a provider call and waits for its response. Provider errors
// are returned as *ErrorPayload.
func (c *Client) Request(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	id := uuid.NewString()
	env, err := newRequestEnvelope(id, method, params)
	if err != nil {
		return nil, err
	}
	ch := make(chan *ResponsePayload, 1)
	c.mu.Lock()
	select {
	case <-c.readDone:
		c.mu.Unlock()
		return nil, ErrClientQuit
	default:
	}
	c.pending[id] = ch
	c.mu.Unlock()
	defer c.forget(id)

	if err := c.conn.writeJSON(env); err != nil {
		return nil, err
	}
	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp.Result, nil
	case <-c.clock.TickAfter(c.timeout):
		return nil, ErrRequestTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.readDone:
		return nil, ErrClientQuit
	}
}

// Call performs a provider call with positional arguments and decodes the
// result into result, which may be nil.
func (c *Client) Call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	var params json.RawMessage
	if len(args) > 0 {
		var err error
		if params, err = json.Marshal(args); err != nil {
			return err
		}
	}
	raw, err := c.Request(ctx, method, params)
	if err != nil {
		return err
	}
	if result == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, result)
}

// SubscribeEvents delivers provider events pushed by the wallet.
func (c *Client) SubscribeEvents(ch chan<- EventPayload) event.Subscription {
	return c.events.Subscribe(ch)
}

// Close disconnects from the wallet.
func (c *Client) Close() {
	c.conn.close()
	<-c.readDone
}

func (c *Client) forget(id string) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	for {
		var env Envelope
		if err := c.conn.readJSON(&env); err != nil {
			return
		}
		if env.Target != TargetPage {
			continue
		}
		switch env.Type {
		case TypeResponse:
			var resp ResponsePayload
			if err := json.Unmarshal(env.Payload, &resp); err != nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[env.ID]
			delete(c.pending, env.ID)
			c.mu.Unlock()
			// Late answers to calls that already timed out are dropped.
			if ok {
				ch <- &resp
			}
		case TypeEvent:
			var ev EventPayload
			if err := json.Unmarshal(env.Payload, &ev); err == nil {
				c.events.Send(ev)
			}
		}
	}
}
