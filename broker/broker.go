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

// Package broker mediates provider requests from untrusted sites. Read-only
// methods are answered from wallet state, signing and connection requests
// wait in a pending table until the user approves or rejects them, and
// transaction methods are refused outright.
//
// broker 负责处理来自不可信站点的 provider 请求：只读方法直接应答，签名和连接
// 请求进入待审批队列等待用户决定，交易类方法一律拒绝。
package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/event"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/params"
	"github.com/sunyihoo/walletcore/signer/typeddata"
	"github.com/sunyihoo/walletcore/storage"
	"golang.org/x/time/rate"
)

const (
	// DefaultApprovalTimeout bounds how long a request waits for the user.
	DefaultApprovalTimeout = 5 * time.Minute

	// DefaultRequestsPerSecond is the sustained per-origin request rate.
	DefaultRequestsPerSecond = 20

	// DefaultBurst is the per-origin request burst.
	DefaultBurst = 40
)

// Backend performs the privileged operations once a request is approved.
type Backend interface {
	// IsUnlocked reports whether keys are available.
	IsUnlocked() bool

	// Accounts lists the addresses exposed to connected sites. It is empty
	// while locked.
	Accounts() []common.Address

	// SignPersonal returns the EIP-191 signature of message by account.
	SignPersonal(account common.Address, message []byte) ([]byte, error)

	// SignTypedData returns the EIP-712 signature of td by account.
	SignTypedData(account common.Address, td *typeddata.TypedData) ([]byte, error)
}

// Networks is the network collaborator.
type Networks interface {
	ChainID() uint64
	ChainIDHex() string
	NetVersion() string
	Get(chainID uint64) (params.Network, bool)
	Switch(chainID uint64) error
	Add(n params.Network) error
}

// UI is the approval surface. Requests that need approval are refused while
// it is not reachable.
type UI interface {
	Reachable() bool
}

// Config tunes a Broker. The zero value selects the defaults.
type Config struct {
	Clock clock.Clock

	// ApprovalTimeout bounds the wait for a decision.
	ApprovalTimeout time.Duration

	// RequestsPerSecond limits each origin. Negative disables limiting.
	RequestsPerSecond float64
	Burst             int
}

// Broker answers provider requests.
type Broker struct {
	backend  Backend
	networks Networks
	ui       UI
	sites    *ConnectedSites
	pending  *PendingTable
	clock    clock.Clock
	timeout  time.Duration
	log      log.Logger

	limit    rate.Limit
	burst    int
	limitMu  sync.Mutex
	limiters map[string]*rate.Limiter
}

// New creates a broker. Connected sites are loaded from db.
func New(db storage.Storage, backend Backend, networks Networks, ui UI, config Config) (*Broker, error) {
	sites, err := LoadConnectedSites(db)
	if err != nil {
		return nil, fmt.Errorf("loading connected sites: %w", err)
	}
	if config.Clock == nil {
		config.Clock = clock.NewDefaultClock()
	}
	if config.ApprovalTimeout <= 0 {
		config.ApprovalTimeout = DefaultApprovalTimeout
	}
	limit := rate.Inf
	switch {
	case config.RequestsPerSecond == 0:
		limit = DefaultRequestsPerSecond
	case config.RequestsPerSecond > 0:
		limit = rate.Limit(config.RequestsPerSecond)
	}
	if config.Burst <= 0 {
		config.Burst = DefaultBurst
	}
	return &Broker{
		backend:  backend,
		networks: networks,
		ui:       ui,
		sites:    sites,
		pending:  NewPendingTable(),
		clock:    config.Clock,
		timeout:  config.ApprovalTimeout,
		log:      log.New("module", "broker"),
		limit:    limit,
		burst:    config.Burst,
		limiters: make(map[string]*rate.Limiter),
	}, nil
}

// Request handles one provider call from origin. Gated methods block until
// the request is decided, ctx is done or the approval timeout passes. Failures
// are returned as *ProviderError.
func (b *Broker) Request(ctx context.Context, origin, method string, args json.RawMessage) (interface{}, error) {
	if origin == "" {
		return nil, unauthorizedError("request without origin")
	}
	if !b.allow(origin) {
		b.log.Debug("Rate limited provider request", "origin", origin, "method", method)
		return nil, ErrLimitExceeded
	}
	tier := MethodTier(method)
	b.log.Trace("Provider request", "origin", origin, "method", method, "tier", tier)

	switch tier {
	case TierBlocked:
		b.log.Info("Refused blocked method", "origin", origin, "method", method)
		return nil, blockedError(method)
	case TierUnsupported:
		return nil, unsupportedError(method)
	}
	switch method {
	case "eth_accounts":
		return b.accounts(origin), nil
	case "eth_coinbase":
		if accs := b.accounts(origin); len(accs) > 0 {
			return accs[0], nil
		}
		return nil, nil
	case "eth_chainId":
		return b.networks.ChainIDHex(), nil
	case "net_version":
		return b.networks.NetVersion(), nil
	case "personal_ecRecover":
		return b.ecRecover(args)
	case "wallet_getPermissions":
		return b.permissions(origin), nil
	case "wallet_revokePermissions":
		return nil, b.revokePermissions(origin)
	case "wallet_switchEthereumChain":
		return nil, b.switchChain(args)
	case "eth_requestAccounts":
		return b.requestAccounts(ctx, origin, method)
	case "wallet_requestPermissions":
		if _, err := b.requestAccounts(ctx, origin, method); err != nil {
			return nil, err
		}
		return b.permissions(origin), nil
	case "personal_sign":
		return b.personalSign(ctx, origin, method, args)
	case "eth_signTypedData", "eth_signTypedData_v3", "eth_signTypedData_v4":
		return b.signTypedData(ctx, origin, method, args)
	case "wallet_addEthereumChain":
		return nil, b.addChain(ctx, origin, method, args)
	}
	return nil, unsupportedError(method)
}

// Approve resolves id as approved. It reports false if id is not pending.
func (b *Broker) Approve(id string) bool {
	ok := b.pending.Resolve(id, Decision{Approved: true})
	if ok {
		b.log.Info("Request approved", "id", id)
	}
	return ok
}

// Reject resolves id as rejected. An empty reason uses the standard message.
// It reports false if id is not pending.
func (b *Broker) Reject(id, reason string) bool {
	ok := b.pending.Resolve(id, Decision{Reason: reason})
	if ok {
		b.log.Info("Request rejected", "id", id)
	}
	return ok
}

// Get returns the pending request id.
func (b *Broker) Get(id string) (*Request, bool) { return b.pending.Get(id) }

// Oldest returns the request the approval surface should show next.
func (b *Broker) Oldest() (*Request, bool) { return b.pending.Oldest() }

// Pending lists the pending requests, oldest first.
func (b *Broker) Pending() []*Request { return b.pending.List() }

// HasPending reports whether any request awaits a decision.
func (b *Broker) HasPending() bool { return b.pending.HasPending() }

// SubscribePending delivers pending table changes to ch.
func (b *Broker) SubscribePending(ch chan<- PendingEvent) event.Subscription {
	return b.pending.Subscribe(ch)
}

// ConnectedSites lists the connected origins.
func (b *Broker) ConnectedSites() []string { return b.sites.List() }

// Accounts returns what eth_accounts would answer for origin.
func (b *Broker) Accounts(origin string) []common.Address { return b.accounts(origin) }

// IsConnected reports whether origin is connected.
func (b *Broker) IsConnected(origin string) bool { return b.sites.Has(origin) }

// Disconnect forgets origin. Subsequent account queries from it return
// nothing until it connects again.
func (b *Broker) Disconnect(origin string) error {
	if err := b.sites.Remove(origin); err != nil {
		return err
	}
	b.log.Info("Site disconnected", "origin", origin)
	return nil
}

// DisconnectAll forgets every origin.
func (b *Broker) DisconnectAll() error {
	return b.sites.Clear()
}

// await parks a gated request until it is decided. The returned request is
// the approved one.
func (b *Broker) await(ctx context.Context, origin, method string, p Params) (*Request, error) {
	if b.ui == nil || !b.ui.Reachable() {
		b.log.Warn("No approval surface, refusing request", "origin", origin, "method", method)
		return nil, rejectedError(errMsgNoApprover)
	}
	req := &Request{
		ID:        uuid.NewString(),
		Origin:    origin,
		Method:    method,
		CreatedAt: b.clock.Now(),
		Params:    p,
	}
	done, err := b.pending.Insert(req)
	if err != nil {
		return nil, internalError(err)
	}
	b.log.Debug("Awaiting approval", "id", req.ID, "origin", origin, "kind", p.Kind())

	timeout := b.clock.TickAfter(b.timeout)
	select {
	case d := <-done:
		return decide(req, d)
	case <-timeout:
		if b.pending.Remove(req.ID) {
			b.log.Info("Request timed out", "id", req.ID, "after", b.timeout)
			return nil, rejectedError(errMsgTimeout)
		}
	case <-ctx.Done():
		if b.pending.Remove(req.ID) {
			b.log.Debug("Request abandoned", "id", req.ID, "err", ctx.Err())
			return nil, rejectedError("request cancelled")
		}
	}
	// Resolved concurrently with the timeout or cancellation, the decision
	// is already buffered.
	return decide(req, <-done)
}

func decide(req *Request, d Decision) (*Request, error) {
	if !d.Approved {
		return nil, rejectedError(d.Reason)
	}
	return req, nil
}

func (b *Broker) allow(origin string) bool {
	if b.limit == rate.Inf {
		return true
	}
	b.limitMu.Lock()
	lim, ok := b.limiters[origin]
	if !ok {
		lim = rate.NewLimiter(b.limit, b.burst)
		b.limiters[origin] = lim
	}
	b.limitMu.Unlock()
	return lim.AllowN(b.clock.Now(), 1)
}
