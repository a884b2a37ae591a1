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

// Package event implements typed one-to-many notification feeds.
package event

import (
	"errors"
	"sync"
)

// ErrFeedClosed is reported on the Err channel of subscriptions that were
// still active when the feed was closed.
var ErrFeedClosed = errors.New("event: feed closed")

// FeedOf implements one-to-many subscriptions where the carrier of events is a channel.
// Values sent to a Feed are delivered to every subscribed channel in subscription
// order.
//
// The zero value is ready to use.
// FeedOf 实现一对多订阅，事件通过 channel 传递。零值即可直接使用。
type FeedOf[T any] struct {
	mu     sync.Mutex
	subs   []*feedOfSub[T]
	closed bool
}

// Subscribe adds a channel to the feed. Future sends will be delivered on the channel
// until the subscription is canceled.
//
// The channel should have ample buffer space to avoid blocking other subscribers. Slow
// subscribers are not dropped.
func (f *FeedOf[T]) Subscribe(channel chan<- T) Subscription {
	sub := &feedOfSub[T]{
		feed:    f,
		channel: channel,
		quit:    make(chan struct{}),
		err:     make(chan error, 1),
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		sub.once.Do(func() {
			sub.err <- ErrFeedClosed
			sub.stop()
		})
		return sub
	}
	f.subs = append(f.subs, sub)
	return sub
}

// Send delivers value to all subscribed channels. It blocks until every
// subscriber has received the value or unsubscribed, and returns the number of
// subscribers that the value was sent to.
func (f *FeedOf[T]) Send(value T) (nsent int) {
	f.mu.Lock()
	subs := append([]*feedOfSub[T](nil), f.subs...)
	f.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.channel <- value:
			nsent++
		case <-sub.quit:
		}
	}
	return nsent
}

// Len returns the number of active subscriptions.
func (f *FeedOf[T]) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Close ends every subscription with ErrFeedClosed. Later subscriptions fail
// immediately.
func (f *FeedOf[T]) Close() {
	f.mu.Lock()
	subs := f.subs
	f.subs = nil
	f.closed = true
	f.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() {
			sub.err <- ErrFeedClosed
			sub.stop()
		})
	}
}

func (f *FeedOf[T]) remove(sub *feedOfSub[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, s := range f.subs {
		if s == sub {
			f.subs = append(f.subs[:i:i], f.subs[i+1:]...)
			return
		}
	}
}

type feedOfSub[T any] struct {
	feed    *FeedOf[T]
	channel chan<- T
	once    sync.Once
	quit    chan struct{}
	err     chan error
}

func (sub *feedOfSub[T]) stop() {
	close(sub.quit)
	close(sub.err)
}

func (sub *feedOfSub[T]) Unsubscribe() {
	sub.once.Do(func() {
		sub.feed.remove(sub)
		sub.stop()
	})
}

func (sub *feedOfSub[T]) Err() <-chan error {
	return sub.err
}
