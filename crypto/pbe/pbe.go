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

// Package pbe implements password based encryption: PBKDF2-HMAC-SHA256 key
// derivation and AES-256-GCM authenticated encryption.
//
// pbe 实现基于口令的加密：PBKDF2-HMAC-SHA256 派生密钥，AES-256-GCM 认证加密。
package pbe

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Version tags the envelope layout produced by Encrypt.
	Version = 1

	// DefaultIterations is the PBKDF2 work factor for new vault records.
	DefaultIterations = 100000

	KeyLength   = 32 // AES-256
	SaltLength  = 16
	NonceLength = 12 // GCM standard nonce
)

var (
	// ErrDecryption is returned for every failure of Decrypt. Wrong key and
	// tampered ciphertext are deliberately indistinguishable.
	// ErrDecryption 对所有解密失败统一返回，不区分错误密钥与被篡改的密文。
	ErrDecryption = errors.New("decryption failed")

	errKeyLength = fmt.Errorf("key must be %d bytes", KeyLength)
)

// randReader is swapped in tests that need to observe a failing entropy source.
var randReader io.Reader = rand.Reader

// EncryptedData is the envelope produced by Encrypt. The GCM tag is appended
// to Ciphertext.
type EncryptedData struct {
	Ciphertext []byte `json:"ciphertext"`
	IV         []byte `json:"iv"`
	Version    int    `json:"version"`
}

// DeriveKey stretches password into a 32 byte AES key. A nil salt makes
// DeriveKey draw a fresh random 16 byte salt; non-positive iterations select
// DefaultIterations. The salt that was used is always returned.
func DeriveKey(password, salt []byte, iterations int) (key []byte, usedSalt []byte, err error) {
	if salt == nil {
		salt = make([]byte, SaltLength)
		if _, err := io.ReadFull(randReader, salt); err != nil {
			return nil, nil, fmt.Errorf("reading salt: %w", err)
		}
	}
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	key = pbkdf2.Key(password, salt, iterations, KeyLength, sha256.New)
	return key, salt, nil
}

// Encrypt seals plaintext under key with a fresh random IV.
func Encrypt(plaintext, key []byte) (*EncryptedData, error) {
	return EncryptWithAD(plaintext, key, nil)
}

// EncryptWithAD is Encrypt with additional authenticated data bound into the tag.
// The additional data is not stored; the same value must be presented to DecryptWithAD.
func EncryptWithAD(plaintext, key, additionalData []byte) (*EncryptedData, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(randReader, nonce); err != nil {
		return nil, fmt.Errorf("reading nonce: %w", err)
	}
	return &EncryptedData{
		Ciphertext: aead.Seal(nil, nonce, plaintext, additionalData),
		IV:         nonce,
		Version:    Version,
	}, nil
}

// Decrypt opens an envelope produced by Encrypt. Any failure yields ErrDecryption.
func Decrypt(enc *EncryptedData, key []byte) ([]byte, error) {
	return DecryptWithAD(enc, key, nil)
}

// DecryptWithAD opens an envelope produced by EncryptWithAD.
func DecryptWithAD(enc *EncryptedData, key, additionalData []byte) ([]byte, error) {
	if enc == nil || enc.Version != Version || len(enc.IV) != NonceLength {
		return nil, ErrDecryption
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, ErrDecryption
	}
	plaintext, err := aead.Open(nil, enc.IV, enc.Ciphertext, additionalData)
	if err != nil {
		return nil, ErrDecryption
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLength {
		return nil, errKeyLength
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
