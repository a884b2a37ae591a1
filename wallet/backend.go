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

package wallet

import (
	"github.com/sunyihoo/walletcore/broker"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/signer"
	"github.com/sunyihoo/walletcore/signer/typeddata"
)

var _ broker.Backend = (*backend)(nil)

// backend gives the broker access to the keyring once a request has been
// approved. Private keys live only for the duration of one signature.
type backend struct {
	w *Wallet
}

func (b *backend) IsUnlocked() bool { return b.w.IsUnlocked() }

// Accounts exposes only the active account to sites.
func (b *backend) Accounts() []common.Address {
	if !b.w.IsUnlocked() {
		return nil
	}
	addr, ok := b.w.activeAddress()
	if !ok {
		return nil
	}
	return []common.Address{addr}
}

func (b *backend) SignPersonal(account common.Address, message []byte) ([]byte, error) {
	key, err := b.w.keyring.PrivateKey(account)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	b.w.touch()
	return signer.PersonalSign(key.Bytes(), message)
}

func (b *backend) SignTypedData(account common.Address, td *typeddata.TypedData) ([]byte, error) {
	key, err := b.w.keyring.PrivateKey(account)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()

	b.w.touch()
	return signer.SignTypedData(key.Bytes(), td)
}
