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

// Package storagetest holds the conformance suite every storage backend runs.
package storagetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/storage"
)

// TestStorageSuite runs a suite of tests against a storage.Storage
// implementation. New must return an empty store.
func TestStorageSuite(t *testing.T, New func() storage.Storage) {
	t.Run("GetSetRemove", func(t *testing.T) {
		db := New()
		defer db.Close()

		_, err := db.Get("vault")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		has, err := db.Has("vault")
		require.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Set("vault", []byte("record")))
		got, err := db.Get("vault")
		require.NoError(t, err)
		assert.Equal(t, []byte("record"), got)

		// returned slices must not alias the store
		got[0] = 'X'
		again, err := db.Get("vault")
		require.NoError(t, err)
		assert.Equal(t, []byte("record"), again)

		require.NoError(t, db.Set("vault", []byte("replaced")))
		got, err = db.Get("vault")
		require.NoError(t, err)
		assert.Equal(t, []byte("replaced"), got)

		require.NoError(t, db.Remove("vault"))
		_, err = db.Get("vault")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		require.NoError(t, db.Remove("vault"))
	})

	t.Run("KeysAndClear", func(t *testing.T) {
		db := New()
		defer db.Close()

		for _, k := range []string{"session", "accounts", "vault"} {
			require.NoError(t, db.Set(k, []byte(k)))
		}
		keys, err := db.Keys()
		require.NoError(t, err)
		assert.Equal(t, []string{"accounts", "session", "vault"}, keys)

		require.NoError(t, db.Clear())
		keys, err = db.Keys()
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("Batch", func(t *testing.T) {
		db := New()
		defer db.Close()

		require.NoError(t, db.Set("importedKeys", []byte("old")))
		b := db.NewBatch()
		require.NoError(t, b.Set("accounts", []byte("a")))
		require.NoError(t, b.Remove("importedKeys"))

		// nothing visible before Write
		_, err := db.Get("accounts")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		require.NoError(t, b.Write())
		got, err := db.Get("accounts")
		require.NoError(t, err)
		assert.Equal(t, []byte("a"), got)
		_, err = db.Get("importedKeys")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		b.Reset()
		require.NoError(t, b.Write())
	})

	t.Run("JSON", func(t *testing.T) {
		db := New()
		defer db.Close()

		type record struct {
			Name  string `json:"name"`
			Index int    `json:"index"`
		}
		_, ok, err := storage.GetJSON[record](db, "accounts")
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, storage.SetJSON(db, "accounts", record{"Account 1", 0}))
		got, ok, err := storage.GetJSON[record](db, "accounts")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, record{"Account 1", 0}, got)
	})
}
