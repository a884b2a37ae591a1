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

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedSend(t *testing.T) {
	var feed FeedOf[int]
	a, b := make(chan int, 1), make(chan int, 1)
	subA := feed.Subscribe(a)
	subB := feed.Subscribe(b)
	defer subB.Unsubscribe()

	assert.Equal(t, 2, feed.Send(7))
	assert.Equal(t, 7, <-a)
	assert.Equal(t, 7, <-b)

	subA.Unsubscribe()
	subA.Unsubscribe()
	_, open := <-subA.Err()
	assert.False(t, open)

	assert.Equal(t, 1, feed.Send(8))
	assert.Equal(t, 1, feed.Len())
}

func TestFeedUnsubscribeUnblocksSend(t *testing.T) {
	var feed FeedOf[string]
	blocked := make(chan string) // never read
	sub := feed.Subscribe(blocked)

	done := make(chan int)
	go func() { done <- feed.Send("x") }()

	time.Sleep(20 * time.Millisecond)
	sub.Unsubscribe()

	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(time.Second):
		t.Fatal("Send did not return after Unsubscribe")
	}
}

func TestFeedClose(t *testing.T) {
	var feed FeedOf[int]
	sub := feed.Subscribe(make(chan int, 1))
	feed.Close()

	err, ok := <-sub.Err()
	require.True(t, ok)
	assert.ErrorIs(t, err, ErrFeedClosed)
	sub.Unsubscribe()

	late := feed.Subscribe(make(chan int, 1))
	assert.ErrorIs(t, <-late.Err(), ErrFeedClosed)
	late.Unsubscribe()
	assert.Equal(t, 0, feed.Send(1))
}

func TestFeedConcurrentSubscribers(t *testing.T) {
	var (
		feed FeedOf[int]
		wg   sync.WaitGroup
	)
	const n = 10
	chans := make([]chan int, n)
	for i := range chans {
		chans[i] = make(chan int, 3)
		sub := feed.Subscribe(chans[i])
		defer sub.Unsubscribe()
	}
	wg.Add(3)
	for v := 0; v < 3; v++ {
		go func(v int) {
			defer wg.Done()
			feed.Send(v)
		}(v)
	}
	wg.Wait()
	for _, ch := range chans {
		assert.Len(t, ch, 3)
	}
}

func TestSubscriptionScope(t *testing.T) {
	var (
		feed  FeedOf[int]
		scope SubscriptionScope
	)
	s1 := scope.Track(feed.Subscribe(make(chan int, 1)))
	scope.Track(feed.Subscribe(make(chan int, 1)))
	assert.Equal(t, 2, scope.Count())

	s1.Unsubscribe()
	assert.Equal(t, 1, scope.Count())
	assert.Equal(t, 1, feed.Len())

	scope.Close()
	assert.Equal(t, 0, scope.Count())
	assert.Equal(t, 0, feed.Len())
	assert.Nil(t, scope.Track(feed.Subscribe(make(chan int))))
	assert.Equal(t, 0, feed.Len(), "late subscription must be released")
}
