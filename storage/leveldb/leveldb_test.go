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

package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/storage"
	"github.com/sunyihoo/walletcore/storage/storagetest"
)

func TestLevelDB(t *testing.T) {
	t.Run("DatabaseSuite", func(t *testing.T) {
		storagetest.TestStorageSuite(t, func() storage.Storage {
			db, err := NewMemory()
			if err != nil {
				t.Fatal(err)
			}
			return db
		})
	})
}

func TestLevelDBReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "wallet")
	db, err := New(dir, 0, 0, false)
	require.NoError(t, err)
	require.NoError(t, db.Set("vault", []byte("sealed")))
	require.NoError(t, db.Close())
	require.NoError(t, db.Close())

	db, err = New(dir, 0, 0, true)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get("vault")
	require.NoError(t, err)
	assert.Equal(t, []byte("sealed"), got)
	assert.Equal(t, dir, db.Path())
}
