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

// Package mnemonic wraps BIP-39 recovery phrase handling.
package mnemonic

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"
)

// MinWords is the shortest phrase accepted (128 bits of entropy).
const MinWords = 12

var (
	// ErrInvalid is returned for phrases that fail the word list or checksum test.
	ErrInvalid = errors.New("invalid recovery phrase")

	// ErrTooShort is returned for phrases with fewer than MinWords words.
	ErrTooShort = fmt.Errorf("recovery phrase must have at least %d words", MinWords)

	errEntropyBits = errors.New("entropy must be 128, 160, 192, 224 or 256 bits")
)

// Normalize applies NFKD, lowercases and collapses whitespace so that the same
// phrase typed differently yields the same seed.
// Normalize 对助记词做 NFKD 规范化、小写化并合并空白。
func Normalize(phrase string) string {
	phrase = norm.NFKD.String(phrase)
	return strings.Join(strings.Fields(strings.ToLower(phrase)), " ")
}

// Validate checks word count, word list membership and checksum.
func Validate(phrase string) error {
	phrase = Normalize(phrase)
	if phrase == "" {
		return errors.New("recovery phrase required")
	}
	if len(strings.Fields(phrase)) < MinWords {
		return ErrTooShort
	}
	if !bip39.IsMnemonicValid(phrase) {
		return ErrInvalid
	}
	return nil
}

// New generates a fresh phrase from bits of entropy (128 gives 12 words, 256
// gives 24 words).
func New(bits int) (string, error) {
	if bits < 128 || bits > 256 || bits%32 != 0 {
		return "", errEntropyBits
	}
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	defer clear(entropy)
	return bip39.NewMnemonic(entropy)
}

// Seed validates phrase and returns the 64 byte BIP-39 seed. The caller owns
// the returned slice and must wipe it.
func Seed(phrase, passphrase string) ([]byte, error) {
	if err := Validate(phrase); err != nil {
		return nil, err
	}
	return bip39.NewSeed(Normalize(phrase), norm.NFKD.String(passphrase)), nil
}
