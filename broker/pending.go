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

package broker

import (
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/event"
	"github.com/sunyihoo/walletcore/params"
	"github.com/sunyihoo/walletcore/signer/siwe"
	"github.com/sunyihoo/walletcore/signer/typeddata"
)

// Kind identifies the operation a pending request asks the user to approve.
type Kind string

const (
	KindConnect       Kind = "connect"
	KindPersonalSign  Kind = "personal_sign"
	KindSignTypedData Kind = "eth_signTypedData_v4"
	KindAddChain      Kind = "wallet_addEthereumChain"
)

// Params is the kind specific payload of a pending request. The set of
// implementations is closed.
type Params interface {
	Kind() Kind
	params()
}

// ConnectParams asks to expose the wallet's accounts to the origin.
type ConnectParams struct{}

// PersonalSignParams asks for an EIP-191 signature.
type PersonalSignParams struct {
	Address common.Address `json:"address"`
	Message hexutil.Bytes  `json:"message"`
	// Text is the message as UTF-8 when it decodes as such.
	Text string `json:"text,omitempty"`
	// SIWE is set when the message is an EIP-4361 sign-in request.
	SIWE         *siwe.Message `json:"siwe,omitempty"`
	SIWEWarnings []string      `json:"siweWarnings,omitempty"`
}

// TypedDataParams asks for an EIP-712 signature.
type TypedDataParams struct {
	Address   common.Address             `json:"address"`
	TypedData *typeddata.TypedData       `json:"typedData"`
	Display   []*typeddata.NameValueType `json:"display,omitempty"`
}

// AddChainParams asks to register a network.
type AddChainParams struct {
	Network params.Network `json:"network"`
}

func (ConnectParams) Kind() Kind { return KindConnect }
func (PersonalSignParams) Kind() Kind { return KindPersonalSign }
func (TypedDataParams) Kind() Kind { return KindSignTypedData }
func (AddChainParams) Kind() Kind { return KindAddChain }
func (ConnectParams) params() {}
func (PersonalSignParams) params() {}
func (TypedDataParams) params() {}
func (AddChainParams) params() {}

// Request is a gated operation waiting for the user.
type Request struct {
	ID        string    `json:"id"`
	Origin    string    `json:"origin"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"createdAt"`
	Params    Params    `json:"params"`
}

// Kind returns the kind of the request payload.
func (r *Request) Kind() Kind { return r.Params.Kind() }

// MarshalJSON adds the kind discriminator.
func (r *Request) MarshalJSON() ([]byte, error) {
	type request Request
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		*request
	}{r.Kind(), (*request)(r)})
}

// Decision is the terminal outcome of a pending request.
type Decision struct {
	Approved bool
	Reason   string // optional, rejections only
}

// PendingEventType distinguishes pending table notifications.
type PendingEventType string

const (
	PendingAdded    PendingEventType = "added"
	PendingResolved PendingEventType = "resolved"
)

// PendingEvent is published on every change of the pending table.
type PendingEvent struct {
	Type     PendingEventType `json:"type"`
	Request  *Request         `json:"request"`
	Approved bool             `json:"approved,omitempty"`
}

var ErrDuplicateRequest = errors.New("duplicate request id")

type pendingEntry struct {
	req  *Request
	seq  uint64
	done chan Decision // buffered, receives exactly one Decision
}

// PendingTable holds the requests awaiting a decision. Every entry is resolved
// at most once; resolving an id that is no longer present is a no-op.
type PendingTable struct {
	mu      sync.Mutex
	entries map[string]*pendingEntry
	seq     uint64

	notifyMu sync.Mutex // keeps feed order equal to mutation order
	feed     event.FeedOf[PendingEvent]
}

// NewPendingTable creates an empty table.
func NewPendingTable() *PendingTable {
	return &PendingTable{entries: make(map[string]*pendingEntry)}
}

// Insert adds req and returns the channel its decision is delivered on.
func (t *PendingTable) Insert(req *Request) (<-chan Decision, error) {
	t.mu.Lock()
	if _, ok := t.entries[req.ID]; ok {
		t.mu.Unlock()
		return nil, ErrDuplicateRequest
	}
	t.seq++
	e := &pendingEntry{req: req, seq: t.seq, done: make(chan Decision, 1)}
	t.entries[req.ID] = e
	t.publish(PendingEvent{Type: PendingAdded, Request: req})
	return e.done, nil
}

// Get looks up a pending request.
func (t *PendingTable) Get(id string) (*Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return nil, false
	}
	return e.req, true
}

// Oldest returns the request with the earliest creation time. Requests created
// at the same instant are ordered by insertion.
func (t *PendingTable) Oldest() (*Request, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var oldest *pendingEntry
	for _, e := range t.entries {
		if oldest == nil || before(e, oldest) {
			oldest = e
		}
	}
	if oldest == nil {
		return nil, false
	}
	return oldest.req, true
}

// List returns all pending requests, oldest first.
func (t *PendingTable) List() []*Request {
	t.mu.Lock()
	entries := make([]*pendingEntry, 0, len(t.entries))
	for _, e := range t.entries {
		entries = append(entries, e)
	}
	t.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool { return before(entries[i], entries[j]) })
	list := make([]*Request, len(entries))
	for i, e := range entries {
		list[i] = e.req
	}
	return list
}

// Len returns the number of pending requests.
func (t *PendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// HasPending reports whether any request is waiting.
func (t *PendingTable) HasPending() bool {
	return t.Len() > 0
}

// Resolve delivers d to the waiter of id and removes the entry. It reports
// false if id is not pending.
func (t *PendingTable) Resolve(id string, d Decision) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, id)
	e.done <- d
	t.publish(PendingEvent{Type: PendingResolved, Request: e.req, Approved: d.Approved})
	return true
}

// Remove drops id without delivering a decision. It reports false if id is
// not pending.
func (t *PendingTable) Remove(id string) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return false
	}
	delete(t.entries, id)
	t.publish(PendingEvent{Type: PendingResolved, Request: e.req})
	return true
}

// Subscribe registers ch for table changes.
func (t *PendingTable) Subscribe(ch chan<- PendingEvent) event.Subscription {
	return t.feed.Subscribe(ch)
}

// publish releases t.mu and sends ev. Callers hold t.mu.
func (t *PendingTable) publish(ev PendingEvent) {
	t.notifyMu.Lock()
	t.mu.Unlock()
	defer t.notifyMu.Unlock()

	t.feed.Send(ev)
}

func before(a, b *pendingEntry) bool {
	if !a.req.CreatedAt.Equal(b.req.CreatedAt) {
		return a.req.CreatedAt.Before(b.req.CreatedAt)
	}
	return a.seq < b.seq
}
