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

// Package leveldb implements the key-value store layer based on LevelDB.
package leveldb

import (
	"sync"

	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	lstorage "github.com/syndtr/goleveldb/leveldb/storage"
)

const (
	// minCache is the minimum amount of memory in megabytes to allocate to leveldb
	// read and write caching, split half and half.
	minCache = 16

	// minHandles is the minimum number of files handles to allocate to the open
	// database files.
	minHandles = 16
)

// Database is a persistent key-value store. Apart from basic data storage
// functionality it also supports batch writes.
// Database 是基于 LevelDB 的持久化键值存储。
type Database struct {
	fn string      // filename for reporting
	db *leveldb.DB // LevelDB instance

	closeOnce sync.Once
	log       log.Logger // Contextual logger tracking the database path
}

// New returns a wrapped LevelDB object. Cache is in megabytes.
func New(file string, cache int, handles int, readonly bool) (*Database, error) {
	if cache < minCache {
		cache = minCache
	}
	if handles < minHandles {
		handles = minHandles
	}
	options := &opt.Options{
		Filter:                 filter.NewBloomFilter(10),
		DisableSeeksCompaction: true,
		OpenFilesCacheCapacity: handles,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // Two of these are used internally
		ReadOnly:               readonly,
	}
	logger := log.New("database", file)
	logger.Info("Allocated cache and file handles", "cache", cache, "handles", handles, "readonly", readonly)

	// Open the db and recover any potential corruptions
	db, err := leveldb.OpenFile(file, options)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(file, nil)
	}
	if err != nil {
		return nil, err
	}
	return &Database{fn: file, db: db, log: logger}, nil
}

// NewMemory opens a LevelDB instance backed by goleveldb's in-memory storage.
func NewMemory() (*Database, error) {
	db, err := leveldb.Open(lstorage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &Database{fn: "<memory>", db: db, log: log.New("database", "<memory>")}, nil
}

// Close stops the database. Subsequent calls are no-ops.
func (db *Database) Close() error {
	var err error
	db.closeOnce.Do(func() {
		err = db.db.Close()
	})
	return err
}

// Has retrieves if a key is present in the key-value store.
func (db *Database) Has(key string) (bool, error) {
	ok, err := db.db.Has([]byte(key), nil)
	return ok, convertError(err)
}

// Get retrieves the given key if it's present in the key-value store.
func (db *Database) Get(key string) ([]byte, error) {
	dat, err := db.db.Get([]byte(key), nil)
	if err != nil {
		return nil, convertError(err)
	}
	return dat, nil
}

// Set inserts the given value into the key-value store.
func (db *Database) Set(key string, value []byte) error {
	return convertError(db.db.Put([]byte(key), value, nil))
}

// Remove removes the key from the key-value store.
func (db *Database) Remove(key string) error {
	return convertError(db.db.Delete([]byte(key), nil))
}

// Keys iterates the whole keyspace.
func (db *Database) Keys() ([]string, error) {
	it := db.db.NewIterator(nil, nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(it.Key()))
	}
	return keys, convertError(it.Error())
}

// Clear deletes every key in a single batch.
func (db *Database) Clear() error {
	it := db.db.NewIterator(nil, nil)
	defer it.Release()

	b := new(leveldb.Batch)
	for it.Next() {
		b.Delete(append([]byte{}, it.Key()...))
	}
	if err := it.Error(); err != nil {
		return convertError(err)
	}
	db.log.Debug("Clearing database", "keys", b.Len())
	return convertError(db.db.Write(b, nil))
}

// NewBatch creates a write-only key-value store that buffers changes to its host
// database until a final write is called.
func (db *Database) NewBatch() storage.Batch {
	return &batch{db: db.db, b: new(leveldb.Batch)}
}

// Path returns the path to the database directory.
func (db *Database) Path() string {
	return db.fn
}

// batch is a write-only leveldb batch that commits changes to its host database
// when Write is called. A batch cannot be used concurrently.
type batch struct {
	db *leveldb.DB
	b  *leveldb.Batch
}

func (b *batch) Set(key string, value []byte) error {
	b.b.Put([]byte(key), value)
	return nil
}

func (b *batch) Remove(key string) error {
	b.b.Delete([]byte(key))
	return nil
}

func (b *batch) Write() error {
	return convertError(b.db.Write(b.b, nil))
}

func (b *batch) Reset() {
	b.b.Reset()
}

func convertError(err error) error {
	switch err {
	case nil:
		return nil
	case leveldb.ErrNotFound:
		return storage.ErrNotFound
	case leveldb.ErrClosed:
		return storage.ErrClosed
	}
	return err
}
