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

package pbe

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDeriveKeyDeterministic(t *testing.T) {
	key, salt, err := DeriveKey([]byte("correct horse"), nil, 1000)
	require.NoError(t, err)
	require.Len(t, key, KeyLength)
	require.Len(t, salt, SaltLength)

	again, salt2, err := DeriveKey([]byte("correct horse"), salt, 1000)
	require.NoError(t, err)
	assert.Equal(t, key, again)
	assert.Equal(t, salt, salt2)

	other, _, err := DeriveKey([]byte("correct horse"), salt, 1001)
	require.NoError(t, err)
	assert.NotEqual(t, key, other)

	_, fresh, err := DeriveKey([]byte("correct horse"), nil, 1000)
	require.NoError(t, err)
	assert.NotEqual(t, salt, fresh)
}

// RFC 6070 style vector for PBKDF2-HMAC-SHA256.
func TestDeriveKeyVector(t *testing.T) {
	key, _, err := DeriveKey([]byte("password"), []byte("salt"), 1)
	require.NoError(t, err)
	assert.Equal(t,
		"120fb6cffcf8b32c43e7225256c4f837a86548c92ccc35480805987cb70be17b",
		hex.EncodeToString(key))
}

func TestEncryptFreshIV(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeyLength)
	a, err := Encrypt([]byte("same plaintext"), key)
	require.NoError(t, err)
	b, err := Encrypt([]byte("same plaintext"), key)
	require.NoError(t, err)

	assert.Equal(t, Version, a.Version)
	assert.Len(t, a.IV, NonceLength)
	assert.NotEqual(t, a.IV, b.IV)
	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestDecryptFailuresAreUniform(t *testing.T) {
	key := bytes.Repeat([]byte{1}, KeyLength)
	enc, err := Encrypt([]byte("secret"), key)
	require.NoError(t, err)

	wrongKey := bytes.Repeat([]byte{2}, KeyLength)
	_, errWrong := Decrypt(enc, wrongKey)

	tampered := *enc
	tampered.Ciphertext = append([]byte{}, enc.Ciphertext...)
	tampered.Ciphertext[0] ^= 0xff
	_, errTampered := Decrypt(&tampered, key)

	badVersion := *enc
	badVersion.Version = 2
	_, errVersion := Decrypt(&badVersion, key)

	_, errShortKey := Decrypt(enc, key[:16])

	for _, err := range []error{errWrong, errTampered, errVersion, errShortKey} {
		assert.True(t, errors.Is(err, ErrDecryption))
		assert.Equal(t, ErrDecryption.Error(), err.Error())
	}
}

func TestAdditionalDataBinding(t *testing.T) {
	key := bytes.Repeat([]byte{3}, KeyLength)
	enc, err := EncryptWithAD([]byte("v"), key, []byte("k1"))
	require.NoError(t, err)

	_, err = DecryptWithAD(enc, key, []byte("k2"))
	assert.ErrorIs(t, err, ErrDecryption)

	pt, err := DecryptWithAD(enc, key, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), pt)
}

func TestEncryptDecryptProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		plaintext := rapid.SliceOf(rapid.Byte()).Draw(t, "plaintext")
		key := rapid.SliceOfN(rapid.Byte(), KeyLength, KeyLength).Draw(t, "key")

		enc, err := Encrypt(plaintext, key)
		require.NoError(t, err)
		dec, err := Decrypt(enc, key)
		require.NoError(t, err)
		require.True(t, bytes.Equal(plaintext, dec))
	})
}
