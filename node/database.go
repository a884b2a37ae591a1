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

package node

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
	"github.com/sunyihoo/walletcore/storage/leveldb"
	"github.com/sunyihoo/walletcore/storage/memorydb"
	"github.com/sunyihoo/walletcore/storage/pebble"
)

// Wallet records are small. These are the floors of both engines.
const (
	dbCache   = 16
	dbHandles = 16
)

// openStorage opens the wallet database in directory.
//
//	                      type == ""            type != ""
//	                   +----------------------------------------
//	db is non-existent |  pebble default  |  specified type
//	db is existent     |  from db         |  specified type (if compatible)
func openStorage(engine, directory string) (storage.Storage, error) {
	if engine == DBMemory {
		return memorydb.New(), nil
	}
	existing := preexistingDatabase(directory)
	if engine != "" && existing != "" && engine != existing {
		return nil, fmt.Errorf("db.engine choice was %v but found pre-existing %v database in specified data directory", engine, existing)
	}
	if engine == "" {
		engine = existing
	}
	switch engine {
	case DBLeveldb:
		log.Info("Using leveldb as the backing database")
		return leveldb.New(directory, dbCache, dbHandles, false)
	case DBPebble, "":
		log.Info("Using pebble as the backing database")
		return pebble.New(directory, dbCache, dbHandles, false, false)
	default:
		return nil, fmt.Errorf("unknown db.engine %v", engine)
	}
}

// preexistingDatabase reports the engine of the database in directory, or ""
// if there is none. Pebble writes OPTIONS files, leveldb only CURRENT.
func preexistingDatabase(directory string) string {
	if _, err := os.Stat(filepath.Join(directory, "CURRENT")); err != nil {
		return ""
	}
	if matches, err := filepath.Glob(filepath.Join(directory, "OPTIONS*")); err == nil && len(matches) > 0 {
		return DBPebble
	}
	return DBLeveldb
}
