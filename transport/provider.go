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
	"net/http"
	"sync"

	"github.com/sunyihoo/walletcore/broker"
	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/event"
)

const errcodeInvalidRequest = -32600

// serveProvider relays one page's provider calls to the broker. Each request
// runs on its own goroutine so a call waiting for approval does not hold up
// read-only calls. Closing the socket cancels every call still in flight.
func (s *Server) serveProvider(w http.ResponseWriter, r *http.Request) {
	conn, err := s.providerUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("WebSocket upgrade failed", "err", err)
		return
	}
	origin := r.Header.Get("Origin")
	c := newWSConn(conn)
	if !s.trackProvider(c) {
		c.close()
		return
	}
	log := s.log.New("origin", origin)
	log.Debug("Provider connected")

	// Subscribe before serving so no change after the first response is missed.
	var (
		chainCh = make(chan uint64, 4)
		lockCh  = make(chan bool, 4)
		subs    event.SubscriptionScope
	)
	subs.Track(s.wallet.Networks().SubscribeChainChanged(chainCh))
	subs.Track(s.wallet.SubscribeLockState(lockCh))
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer subs.Close()
		s.providerEvents(ctx, c, origin, chainCh, lockCh)
	}()

	for {
		var env Envelope
		if err := c.readJSON(&env); err != nil {
			break
		}
		req, err := decodeRequest(&env)
		if err != nil {
			log.Debug("Ignoring provider message", "err", err)
			if env.Type == TypeRequest && env.ID != "" {
				c.writeJSON(newResponseEnvelope(env.ID, nil, &broker.ProviderError{Code: errcodeInvalidRequest, Message: err.Error()}))
			}
			continue
		}
		wg.Add(1)
		go func(id string, req *RequestPayload) {
			defer wg.Done()
			result, err := s.wallet.Broker().Request(ctx, origin, req.Method, req.Params)
			if err := c.writeJSON(newResponseEnvelope(id, result, err)); err != nil {
				log.Debug("Failed to write provider response", "method", req.Method, "err", err)
			}
		}(env.ID, req)
	}
	cancel()
	c.close()
	wg.Wait()
	s.untrackProvider(c)
	log.Debug("Provider disconnected")
}

// providerEvents pushes chainChanged and accountsChanged to the page.
func (s *Server) providerEvents(ctx context.Context, c *wsConn, origin string, chainCh <-chan uint64, lockCh <-chan bool) {
	send := func(name string, data interface{}) {
		env, err := newEventEnvelope(name, data)
		if err == nil {
			err = c.writeJSON(env)
		}
		if err != nil {
			s.log.Debug("Failed to push provider event", "event", name, "err", err)
		}
	}
	for {
		select {
		case id := <-chainCh:
			send(EventChainChanged, hexutil.EncodeUint64(id))
		case <-lockCh:
			send(EventAccountsChanged, s.wallet.Broker().Accounts(origin))
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) trackProvider(c *wsConn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.quit:
		return false
	default:
	}
	s.providers[c] = struct{}{}
	return true
}

func (s *Server) untrackProvider(c *wsConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.providers, c)
}
