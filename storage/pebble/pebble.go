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

// Package pebble implements the key-value store layer based on pebble.
package pebble

import (
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to pebble
	// read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the open
	// database files.
	minHandles = 16
)

// Database is a persistent key-value store based on the pebble storage engine.
// Apart from basic data storage functionality it also supports batch writes.
// Database 是基于 pebble 的持久化键值存储。
type Database struct {
	fn string     // filename for reporting
	db *pebble.DB // Underlying pebble storage engine

	quitLock sync.RWMutex // Mutex protecting the closed flag
	closed   bool         // keep track of whether we're Closed

	log log.Logger // Contextual logger tracking the database path

	writeOptions *pebble.WriteOptions
}

// panicLogger is just a noop logger to disable Pebble's internal logger.
type panicLogger struct{}

func (l panicLogger) Infof(format string, args ...interface{}) {
}

func (l panicLogger) Errorf(format string, args ...interface{}) {
}

func (l panicLogger) Fatalf(format string, args ...interface{}) {
	panic(fmt.Errorf("fatal: "+format, args...))
}

// New returns a wrapped pebble DB object. Cache is in megabytes. An ephemeral
// database lives in an in-memory filesystem and file is only used for logging.
func New(file string, cache int, handles int, readonly bool, ephemeral bool) (*Database, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	logger := log.New("database", file)
	logger.Info("Allocated cache and file handles", "cache", cache, "handles", handles, "ephemeral", ephemeral)

	db := &Database{
		fn:  file,
		log: logger,
		// Wallet records are tiny and rarely written; every write is synced.
		writeOptions: pebble.Sync,
	}
	opt := &pebble.Options{
		Cache:        pebble.NewCache(int64(cache * 1024 * 1024)),
		MaxOpenFiles: handles,
		ReadOnly:     readonly,
		Logger:       panicLogger{},
	}
	if ephemeral {
		opt.FS = vfs.NewMem()
		db.writeOptions = pebble.NoSync
	}
	innerDB, err := pebble.Open(file, opt)
	if err != nil {
		return nil, err
	}
	db.db = innerDB
	return db, nil
}

// Close stops the database.
func (d *Database) Close() error {
	d.quitLock.Lock()
	defer d.quitLock.Unlock()

	// Allow double closing, simplifies things
	if d.closed {
		return nil
	}
	d.closed = true
	return d.db.Close()
}

// Has retrieves if a key is present in the key-value store.
func (d *Database) Has(key string) (bool, error) {
	d.quitLock.RLock()
	defer d.quitLock.RUnlock()
	if d.closed {
		return false, storage.ErrClosed
	}
	_, closer, err := d.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return false, nil
	} else if err != nil {
		return false, err
	}
	if err = closer.Close(); err != nil {
		return false, err
	}
	return true, nil
}

// Get retrieves the given key if it's present in the key-value store.
func (d *Database) Get(key string) ([]byte, error) {
	d.quitLock.RLock()
	defer d.quitLock.RUnlock()
	if d.closed {
		return nil, storage.ErrClosed
	}
	dat, closer, err := d.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return nil, storage.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	ret := make([]byte, len(dat))
	copy(ret, dat)
	if err = closer.Close(); err != nil {
		return nil, err
	}
	return ret, nil
}

// Set inserts the given value into the key-value store.
func (d *Database) Set(key string, value []byte) error {
	d.quitLock.RLock()
	defer d.quitLock.RUnlock()
	if d.closed {
		return storage.ErrClosed
	}
	return d.db.Set([]byte(key), value, d.writeOptions)
}

// Remove removes the key from the key-value store.
func (d *Database) Remove(key string) error {
	d.quitLock.RLock()
	defer d.quitLock.RUnlock()
	if d.closed {
		return storage.ErrClosed
	}
	return d.db.Delete([]byte(key), d.writeOptions)
}

// Keys returns every key in ascending order.
func (d *Database) Keys() ([]string, error) {
	d.quitLock.RLock()
	defer d.quitLock.RUnlock()
	if d.closed {
		return nil, storage.ErrClosed
	}
	iter, err := d.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return nil, err
	}
	return keys, iter.Close()
}

// Clear deletes every key atomically.
func (d *Database) Clear() error {
	keys, err := d.Keys()
	if err != nil {
		return err
	}
	b := d.NewBatch()
	for _, k := range keys {
		if err := b.Remove(k); err != nil {
			return err
		}
	}
	return b.Write()
}

// NewBatch creates a write-only key-value store that buffers changes to its host
// database until a final write is called.
func (d *Database) NewBatch() storage.Batch {
	return &batch{
		b:  d.db.NewBatch(),
		db: d,
	}
}

// batch is a write-only batch that commits changes to its host database
// when Write is called. A batch cannot be used concurrently.
type batch struct {
	b  *pebble.Batch
	db *Database
}

func (b *batch) Set(key string, value []byte) error {
	return b.b.Set([]byte(key), value, nil)
}

func (b *batch) Remove(key string) error {
	return b.b.Delete([]byte(key), nil)
}

// Write flushes any accumulated data to disk.
func (b *batch) Write() error {
	b.db.quitLock.RLock()
	defer b.db.quitLock.RUnlock()
	if b.db.closed {
		return storage.ErrClosed
	}
	return b.b.Commit(b.db.writeOptions)
}

// Reset resets the batch for reuse.
func (b *batch) Reset() {
	b.b.Reset()
}
