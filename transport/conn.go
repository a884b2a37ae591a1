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
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsReadBuffer       = 1024
	wsWriteBuffer      = 1024
	wsPingInterval     = 30 * time.Second
	wsPingWriteTimeout = 5 * time.Second
	wsPongTimeout      = 30 * time.Second
	wsWriteTimeout     = 10 * time.Second
	wsReadLimit        = 4 * 1024 * 1024
)

var wsBufferPool = new(sync.Pool)

// wsConn serializes writes to a websocket and keeps it alive with pings while
// idle.
type wsConn struct {
	conn *websocket.Conn

	encMu     sync.Mutex // guards writes
	closeOnce sync.Once
	closeCh   chan struct{}
	wg        sync.WaitGroup

	pingReset    chan struct{}
	pongReceived chan struct{}
}

func newWSConn(conn *websocket.Conn) *wsConn {
	conn.SetReadLimit(wsReadLimit)
	c := &wsConn{
		conn:         conn,
		closeCh:      make(chan struct{}),
		pingReset:    make(chan struct{}, 1),
		pongReceived: make(chan struct{}),
	}
	conn.SetPongHandler(func(string) error {
		select {
		case c.pongReceived <- struct{}{}:
		case <-c.closeCh:
		}
		return nil
	})
	c.wg.Add(1)
	go c.pingLoop()
	return c
}

func (c *wsConn) readJSON(v interface{}) error {
	return c.conn.ReadJSON(v)
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.encMu.Lock()
	defer c.encMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	err := c.conn.WriteJSON(v)
	if err == nil {
		select {
		case c.pingReset <- struct{}{}:
		default:
		}
	}
	return err
}

func (c *wsConn) closed() <-chan struct{} { return c.closeCh }

func (c *wsConn) close() {
	c.closeOnce.Do(func() {
		close(c.closeCh)
		c.conn.Close()
	})
	c.wg.Wait()
}

// pingLoop sends periodic ping frames when the connection is idle.
func (c *wsConn) pingLoop() {
	var pingTimer = time.NewTimer(wsPingInterval)
	defer c.wg.Done()
	defer pingTimer.Stop()

	for {
		select {
		case <-c.closeCh:
			return

		case <-c.pingReset:
			// A tick already queued only causes one early ping.
			pingTimer.Reset(wsPingInterval)

		case <-pingTimer.C:
			c.encMu.Lock()
			c.conn.SetWriteDeadline(time.Now().Add(wsPingWriteTimeout))
			c.conn.WriteMessage(websocket.PingMessage, nil)
			c.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
			c.encMu.Unlock()
			pingTimer.Reset(wsPingInterval)

		case <-c.pongReceived:
			c.conn.SetReadDeadline(time.Time{})
		}
	}
}
