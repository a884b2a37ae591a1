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

	"github.com/sunyihoo/walletcore/broker"
	"github.com/sunyihoo/walletcore/log"
)

// UI event types sent on /events.
const (
	UIEventSnapshot = "snapshot"
	UIEventAdded    = "added"
	UIEventResolved = "resolved"
	UIEventLocked   = "locked"
	UIEventUnlocked = "unlocked"
)

// UIEvent is a message on the /events stream.
type UIEvent struct {
	Type     string            `json:"type"`
	Request  *broker.Request   `json:"request,omitempty"`
	Approved bool              `json:"approved,omitempty"`
	Pending  []*broker.Request `json:"pending,omitempty"`
}

// Hub tracks the approval surfaces connected to /events. It implements
// broker.UI: the surface is reachable while at least one is connected.
type Hub struct {
	mu    sync.Mutex
	conns map[*wsConn]struct{}
	log   log.Logger
}

var _ broker.UI = (*Hub)(nil)

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*wsConn]struct{}),
		log:   log.New("module", "hub"),
	}
}

// Reachable reports whether an approval surface is connected.
func (h *Hub) Reachable() bool {
	return h.Len() > 0
}

// Len returns the number of connected surfaces.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) add(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.conns[c] = struct{}{}
	h.log.Debug("Approval surface connected", "count", len(h.conns))
}

func (h *Hub) remove(c *wsConn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.conns[c]; ok {
		delete(h.conns, c)
		h.log.Debug("Approval surface disconnected", "count", len(h.conns))
	}
}

// broadcast writes ev to every surface. Surfaces failing the write are
// dropped.
func (h *Hub) broadcast(ev UIEvent) {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		if err := c.writeJSON(ev); err != nil {
			h.log.Debug("Dropping approval surface", "err", err)
			h.remove(c)
			go c.close()
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[*wsConn]struct{})
	h.mu.Unlock()

	for c := range conns {
		c.close()
	}
}
