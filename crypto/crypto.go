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

// Package crypto wraps the secp256k1 curve operations and Keccak-256 hashing
// used for Ethereum account keys and signatures.
package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sunyihoo/walletcore/common"
	"golang.org/x/crypto/sha3"
)

// Signature layout: r (32) || s (32) || v (1).
const (
	SignatureLength  = 64 + 1
	RecoveryIDOffset = 64 // index of v
)

// DigestLength is the size of the hashes that get signed.
const DigestLength = 32

// PrivateKeyLength is the size of a raw secp256k1 scalar.
const PrivateKeyLength = 32

var errInvalidPrivateKey = errors.New("invalid private key")

// keccak feeds data into a legacy Keccak-256 state (not NIST SHA3) and reads
// the digest into out.
// 以太坊使用原始 Keccak-256，而非标准 SHA3。
func keccak(out []byte, data [][]byte) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.(io.Reader).Read(out)
}

// Keccak256 hashes the concatenation of data.
func Keccak256(data ...[]byte) []byte {
	out := make([]byte, DigestLength)
	keccak(out, data)
	return out
}

// Keccak256Hash is Keccak256 returning a common.Hash.
func Keccak256Hash(data ...[]byte) (h common.Hash) {
	keccak(h[:], data)
	return h
}

// ToPrivateKey turns a raw scalar into a private key. d must be exactly 32
// bytes, non-zero and below the curve order. d is not retained.
// ToPrivateKey 使用给定的 D 值创建私钥，D 必须为 32 字节、非零且小于曲线阶。
func ToPrivateKey(d []byte) (*secp256k1.PrivateKey, error) {
	if len(d) != PrivateKeyLength {
		return nil, fmt.Errorf("invalid length, need %d bits", PrivateKeyLength*8)
	}
	var k secp256k1.ModNScalar
	if overflow := k.SetByteSlice(d); overflow || k.IsZero() {
		k.Zero()
		return nil, errInvalidPrivateKey
	}
	return secp256k1.NewPrivateKey(&k), nil
}

// HexToPrivateKey parses a hex encoded private key, with or without 0x.
func HexToPrivateKey(hexkey string) (*secp256k1.PrivateKey, error) {
	if len(hexkey) >= 2 && hexkey[0] == '0' && (hexkey[1] == 'x' || hexkey[1] == 'X') {
		hexkey = hexkey[2:]
	}
	b, err := hex.DecodeString(hexkey)
	defer func() { clear(b) }()

	var byteErr hex.InvalidByteError
	switch {
	case errors.As(err, &byteErr):
		return nil, fmt.Errorf("invalid hex character %q in private key", byte(byteErr))
	case err != nil:
		return nil, errors.New("invalid hex data for private key")
	}
	return ToPrivateKey(b)
}

// FromPrivateKey returns the 32 byte big-endian scalar. The caller owns the
// copy and should wipe it.
func FromPrivateKey(priv *secp256k1.PrivateKey) []byte {
	if priv == nil {
		return nil
	}
	b := priv.Key.Bytes()
	return b[:]
}

// PubkeyToAddress takes the Keccak-256 of the 64 byte (x,y) encoding and keeps
// the last 20 bytes.
// PubkeyToAddress 对 64 字节 (x,y) 编码做 Keccak-256，取后 20 字节作为地址。
func PubkeyToAddress(p *secp256k1.PublicKey) common.Address {
	pubBytes := p.SerializeUncompressed()
	return common.BytesToAddress(Keccak256(pubBytes[1:])[12:])
}
