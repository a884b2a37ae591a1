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

// Package session tracks whether the wallet is unlocked and locks it again
// after a period without user activity.
//
// session 记录钱包的解锁状态，并在用户无操作一段时间后自动锁定。
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
)

const (
	// StateKey holds the persisted session State.
	StateKey = "session"

	// TimeoutKey holds the auto-lock timeout in minutes.
	TimeoutKey = "autoLockTimeout"

	// DefaultAutoLockMinutes applies until the user picks a timeout.
	DefaultAutoLockMinutes = 15
)

var ErrInvalidTimeout = errors.New("auto-lock timeout must not be negative")

// State is the persisted session record.
type State struct {
	ActiveAddress    string    `json:"activeAddress,omitempty"`
	IsUnlocked       bool      `json:"isUnlocked"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
	SessionStartedAt time.Time `json:"sessionStartedAt"`
}

// Config tunes a Guard.
type Config struct {
	Clock clock.Clock
}

// Guard owns the session state and the auto-lock timer.
type Guard struct {
	db    storage.Storage
	clock clock.Clock
	log   log.Logger

	mu      sync.Mutex
	state   State
	timer   *lockTimer // nil while no timer is pending
	timeout time.Duration
	onLock  func()
}

type lockTimer struct {
	cancel chan struct{}
}

// New loads the persisted session. Secrets never survive a restart, so a
// session that was unlocked when persisted is loaded as locked.
func New(db storage.Storage, config Config) (*Guard, error) {
	if config.Clock == nil {
		config.Clock = clock.NewDefaultClock()
	}
	g := &Guard{
		db:    db,
		clock: config.Clock,
		log:   log.New("module", "session"),
	}
	state, _, err := storage.GetJSON[State](db, StateKey)
	if err != nil {
		return nil, err
	}
	state.IsUnlocked = false
	g.state = state
	return g, nil
}

// State returns a copy of the session record.
func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// IsUnlocked reports whether a session is active.
func (g *Guard) IsUnlocked() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state.IsUnlocked
}

// Start begins a session. An empty defaultAddress keeps the previously active
// address.
func (g *Guard) Start(defaultAddress string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	g.state.IsUnlocked = true
	g.state.SessionStartedAt = now
	g.state.LastActivityAt = now
	if defaultAddress != "" {
		g.state.ActiveAddress = defaultAddress
	}
	g.log.Debug("Session started", "address", g.state.ActiveAddress)
	return g.persist()
}

// End clears the session and cancels any pending auto-lock.
func (g *Guard) End() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopTimer()
	g.state = State{}
	g.log.Debug("Session ended")
	return g.persist()
}

// SetActiveAddress records the account the wallet presents to sites.
func (g *Guard) SetActiveAddress(address common.Address) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.ActiveAddress = address.Hex()
	return g.persist()
}

// UpdateActivity restamps the last activity and restarts a pending auto-lock
// with the current timeout.
func (g *Guard) UpdateActivity() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.state.LastActivityAt = g.clock.Now()
	if g.timer != nil {
		g.schedule(g.timeout)
	}
	return g.persist()
}

// StartAutoLock arranges for onLock to run after minutes without activity. A
// timeout of zero or less disables auto-lock. onLock only runs if the session
// is still unlocked when the timer fires.
func (g *Guard) StartAutoLock(minutes int, onLock func()) {
	if minutes <= 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.onLock = onLock
	g.timeout = time.Duration(minutes) * time.Minute
	g.schedule(g.timeout)
}

// AutoLockTimeout returns the persisted timeout in minutes.
func (g *Guard) AutoLockTimeout() (int, error) {
	minutes, ok, err := storage.GetJSON[int](g.db, TimeoutKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultAutoLockMinutes, nil
	}
	return minutes, nil
}

// SetAutoLockTimeout persists minutes and, if a timer is pending, restarts it
// under the new duration. Zero disables auto-lock.
func (g *Guard) SetAutoLockTimeout(minutes int) error {
	if minutes < 0 {
		return ErrInvalidTimeout
	}
	if err := storage.SetJSON(g.db, TimeoutKey, minutes); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	g.timeout = time.Duration(minutes) * time.Minute
	if g.timer != nil {
		if minutes == 0 {
			g.stopTimer()
		} else {
			g.schedule(g.timeout)
		}
	}
	return nil
}

// schedule replaces any pending timer. Callers hold g.mu.
func (g *Guard) schedule(d time.Duration) {
	g.stopTimer()
	t := &lockTimer{cancel: make(chan struct{})}
	g.timer = t

	tick := g.clock.TickAfter(d)
	go func() {
		select {
		case <-tick:
			g.fire(t)
		case <-t.cancel:
		}
	}()
}

func (g *Guard) stopTimer() {
	if g.timer != nil {
		close(g.timer.cancel)
		g.timer = nil
	}
}

func (g *Guard) fire(t *lockTimer) {
	g.mu.Lock()
	if g.timer != t {
		// Replaced or cancelled while the tick was in flight.
		g.mu.Unlock()
		return
	}
	g.timer = nil
	unlocked, onLock := g.state.IsUnlocked, g.onLock
	g.mu.Unlock()

	if !unlocked || onLock == nil {
		return
	}
	g.log.Info("Auto-lock timer fired", "idle", g.clock.Now().Sub(g.State().LastActivityAt))
	onLock()
}

func (g *Guard) persist() error {
	return storage.SetJSON(g.db, StateKey, g.state)
}
