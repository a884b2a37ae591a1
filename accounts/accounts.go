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

// Package accounts defines the wallet's account model.
package accounts

import (
	"fmt"
	"time"

	"github.com/sunyihoo/walletcore/common"
	"golang.org/x/crypto/sha3"
)

// ImportedIndex is the derivation index carried by accounts whose key was
// imported rather than derived from the seed.
const ImportedIndex = -1

// ChainEthereum is the only chain type derived by the keyring.
const ChainEthereum = "ethereum"

const (
	MimetypeTypedData = "data/typed"
	MimetypeTextPlain = "text/plain"
)

// Account is a single address managed by the keyring.
// Account 表示由密钥环管理的单个地址。
type Account struct {
	Address   common.Address `json:"address"`
	Name      string         `json:"name"`
	Index     int            `json:"index"` // derivation index, ImportedIndex for imported keys
	ChainType string         `json:"chainType"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Imported reports whether the account key is held outside the seed.
func (a Account) Imported() bool { return a.Index == ImportedIndex }

// Path returns the derivation path of a derived account. Imported accounts
// have none.
func (a Account) Path() (DerivationPath, bool) {
	if a.Imported() {
		return nil, false
	}
	return DerivationPathAt(uint32(a.Index)), true
}

func (a Account) String() string {
	if a.Imported() {
		return fmt.Sprintf("%s (%s, imported)", a.Name, a.Address.Hex())
	}
	return fmt.Sprintf("%s (%s, #%d)", a.Name, a.Address.Hex(), a.Index)
}

// TextHash is a helper function that calculates a hash for the given message that can be
// safely used to calculate a signature from.
//
// The hash is calculated as
//
//	keccak256("\x19Ethereum Signed Message:\n"${message length}${message}).
//
// This gives context to the signed message and prevents signing of transactions.
// 这为签名消息提供了上下文，并防止签署交易。
func TextHash(data []byte) []byte {
	hash, _ := TextAndHash(data)
	return hash
}

// TextAndHash is TextHash that also returns the prefixed message.
func TextAndHash(data []byte) ([]byte, string) {
	msg := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(data), data)
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write([]byte(msg))
	return hasher.Sum(nil), msg
}
