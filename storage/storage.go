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

// Package storage defines the narrow key-value interface every wallet
// component persists through, plus typed JSON helpers on top of it.
//
// storage 定义了钱包各组件持久化所依赖的简单键值接口。
package storage

import (
	"errors"
	"io"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by any operation on a closed store.
	ErrClosed = errors.New("storage closed")
)

// Reader wraps the read side of a backing data store.
type Reader interface {
	// Has retrieves if a key is present in the key-value data store.
	Has(key string) (bool, error)

	// Get retrieves the given key if it's present in the key-value data store.
	// Get 返回键对应的值，不存在时返回 ErrNotFound。
	Get(key string) ([]byte, error)

	// Keys lists every key in the store in ascending byte order.
	Keys() ([]string, error)
}

// Writer wraps the write side of a backing data store.
type Writer interface {
	// Set inserts the given value into the key-value data store.
	Set(key string, value []byte) error

	// Remove removes the key from the key-value data store. Removing an absent
	// key is not an error.
	Remove(key string) error

	// Clear drops every key.
	Clear() error
}

// Batch is a write-only store that commits its changes atomically when Write
// is called. A batch cannot be used concurrently.
type Batch interface {
	Set(key string, value []byte) error
	Remove(key string) error

	// Write flushes any accumulated data to the store.
	Write() error

	// Reset resets the batch for reuse.
	Reset()
}

// Batcher wraps the NewBatch method of a backing data store.
type Batcher interface {
	// NewBatch creates a write-only store that buffers changes to its host
	// database until a final write is called.
	NewBatch() Batch
}

// Storage contains all the methods required by the wallet components.
type Storage interface {
	Reader
	Writer
	Batcher
	io.Closer
}
