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

// Package encrypted wraps a storage.Storage so that every value is sealed with
// AES-256-GCM. The plaintext key is bound as additional data, which prevents
// swapping two entries with each other.
//
// encrypted 对存储值使用 AES-256-GCM 加密，并把明文键作为附加认证数据，防止条目互换。
package encrypted

import (
	"encoding/json"
	"errors"

	"github.com/sunyihoo/walletcore/crypto/pbe"
	"github.com/sunyihoo/walletcore/internal/secret"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
)

// ErrZeroKey is returned if an attempt was made to write an empty key.
var ErrZeroKey = errors.New("0-length key")

type storedCredential struct {
	// The iv
	Iv []byte `json:"iv"`
	// The ciphertext
	CipherText []byte `json:"c"`
	// Envelope version
	Version int `json:"v"`
}

// Storage is a storage.Reader/Writer for sealed values. Keys stay in the clear.
type Storage struct {
	db  storage.Storage
	key *secret.Bytes
	log log.Logger
}

// New wraps db; key must be 32 bytes and is copied.
func New(db storage.Storage, key []byte) *Storage {
	return &Storage{
		db:  db,
		key: secret.New(key),
		log: log.New("module", "encrypted-storage"),
	}
}

// Set encrypts value and stores it under key.
func (s *Storage) Set(key string, value []byte) error {
	if len(key) == 0 {
		return ErrZeroKey
	}
	enc, err := pbe.EncryptWithAD(value, s.key.Bytes(), []byte(key))
	if err != nil {
		s.log.Warn("Failed to encrypt entry", "err", err)
		return err
	}
	raw, err := json.Marshal(storedCredential{Iv: enc.IV, CipherText: enc.Ciphertext, Version: enc.Version})
	if err != nil {
		return err
	}
	return s.db.Set(key, raw)
}

// Get returns the previously stored value, or storage.ErrNotFound if the key
// does not exist. A value that fails authentication yields pbe.ErrDecryption.
func (s *Storage) Get(key string) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrZeroKey
	}
	raw, err := s.db.Get(key)
	if err != nil {
		return nil, err
	}
	var cred storedCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		s.log.Warn("Failed to decode encrypted entry", "key", key, "err", err)
		return nil, pbe.ErrDecryption
	}
	enc := &pbe.EncryptedData{Ciphertext: cred.CipherText, IV: cred.Iv, Version: cred.Version}
	return pbe.DecryptWithAD(enc, s.key.Bytes(), []byte(key))
}

// Has reports whether key exists without decrypting it.
func (s *Storage) Has(key string) (bool, error) {
	return s.db.Has(key)
}

// Remove removes a key from the underlying store.
func (s *Storage) Remove(key string) error {
	return s.db.Remove(key)
}

// Close wipes the encryption key. The wrapped store is left open.
func (s *Storage) Close() {
	s.key.Destroy()
}
