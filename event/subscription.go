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

package event

import "sync"

// Subscription is a live registration on a feed. Err delivers at most one
// value, sent when the feed shuts down underneath the subscriber, and is
// closed by Unsubscribe. Unsubscribe is idempotent.
// Subscription 表示一个事件流。必须调用 Unsubscribe 以释放资源，可以重复调用。
type Subscription interface {
	Err() <-chan error
	Unsubscribe()
}

// SubscriptionScope unsubscribes a group of subscriptions together. A
// connection handler tracks every feed it listens on and closes the scope
// on disconnect. The zero value is ready to use.
type SubscriptionScope struct {
	mu     sync.Mutex
	subs   map[*scopedSub]struct{}
	closed bool
}

type scopedSub struct {
	Subscription
	scope *SubscriptionScope
}

// Track adds s to the scope. Once the scope is closed s is unsubscribed
// immediately and Track returns nil. Unsubscribing the returned wrapper also
// removes it from the scope.
func (sc *SubscriptionScope) Track(s Subscription) Subscription {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		s.Unsubscribe()
		return nil
	}
	if sc.subs == nil {
		sc.subs = make(map[*scopedSub]struct{})
	}
	ss := &scopedSub{Subscription: s, scope: sc}
	sc.subs[ss] = struct{}{}
	sc.mu.Unlock()
	return ss
}

// Close unsubscribes everything tracked so far. Later Track calls are refused.
func (sc *SubscriptionScope) Close() {
	sc.mu.Lock()
	if sc.closed {
		sc.mu.Unlock()
		return
	}
	sc.closed = true
	subs := sc.subs
	sc.subs = nil
	sc.mu.Unlock()

	for ss := range subs {
		ss.Subscription.Unsubscribe()
	}
}

// Count returns the number of live tracked subscriptions.
func (sc *SubscriptionScope) Count() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.subs)
}

func (ss *scopedSub) Unsubscribe() {
	ss.Subscription.Unsubscribe()
	ss.scope.mu.Lock()
	delete(ss.scope.subs, ss)
	ss.scope.mu.Unlock()
}
