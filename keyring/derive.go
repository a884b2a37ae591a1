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

package keyring

import (
	"crypto/sha256"
	"io"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/sunyihoo/walletcore/accounts"
	"golang.org/x/crypto/hkdf"
)

// importedKeysInfo domain-separates the imported key storage key from any
// other use of the seed.
var importedKeysInfo = []byte("walletcore/imported-keys")

// deriveKey walks m/44'/60'/0'/0/{index} from seed. Intermediate extended keys
// are zeroed as soon as their child is computed.
func deriveKey(seed []byte, index uint32) (*secp256k1.PrivateKey, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, err
	}
	key := master
	for _, n := range accounts.DerivationPathAt(index) {
		child, err := key.Derive(n)
		key.Zero()
		if err != nil {
			return nil, err
		}
		key = child
	}
	defer key.Zero()
	return key.ECPrivKey()
}

// storageKey derives the symmetric key imported private keys are sealed with.
func storageKey(seed []byte) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, seed, nil, importedKeysInfo), key); err != nil {
		return nil, err
	}
	return key, nil
}
