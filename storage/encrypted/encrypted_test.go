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

package encrypted

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/crypto/pbe"
	"github.com/sunyihoo/walletcore/storage"
	"github.com/sunyihoo/walletcore/storage/memorydb"
)

func TestEncryptedStorage(t *testing.T) {
	db := memorydb.New()
	key := bytes.Repeat([]byte{0x42}, 32)
	s := New(db, key)

	require.NoError(t, s.Set("importedKeys", []byte(`{"0xabc":"secret"}`)))

	raw, err := db.Get("importedKeys")
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")

	got, err := s.Get("importedKeys")
	require.NoError(t, err)
	assert.Equal(t, `{"0xabc":"secret"}`, string(got))

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.Set("", nil), ErrZeroKey)
}

func TestSwappedEntries(t *testing.T) {
	db := memorydb.New()
	s := New(db, bytes.Repeat([]byte{1}, 32))
	require.NoError(t, s.Set("a", []byte("A")))
	require.NoError(t, s.Set("b", []byte("B")))

	// Swap the sealed values; authentication must fail.
	rawA, _ := db.Get("a")
	rawB, _ := db.Get("b")
	require.NoError(t, db.Set("a", rawB))
	require.NoError(t, db.Set("b", rawA))

	_, err := s.Get("a")
	assert.ErrorIs(t, err, pbe.ErrDecryption)
}

func TestWrongKey(t *testing.T) {
	db := memorydb.New()
	require.NoError(t, New(db, bytes.Repeat([]byte{1}, 32)).Set("k", []byte("v")))

	_, err := New(db, bytes.Repeat([]byte{2}, 32)).Get("k")
	assert.ErrorIs(t, err, pbe.ErrDecryption)

	require.NoError(t, db.Set("k", []byte("not json")))
	_, err = New(db, bytes.Repeat([]byte{1}, 32)).Get("k")
	assert.ErrorIs(t, err, pbe.ErrDecryption)
}
