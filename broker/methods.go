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

package broker

import mapset "github.com/deckarep/golang-set/v2"

// Tier is the handling class of a provider method.
type Tier int

const (
	// TierUnsupported methods are unknown to the wallet.
	TierUnsupported Tier = iota
	// TierReadOnly methods answer immediately from wallet state.
	TierReadOnly
	// TierGated methods need the user's approval.
	TierGated
	// TierBlocked methods are always refused.
	TierBlocked
)

func (t Tier) String() string {
	switch t {
	case TierReadOnly:
		return "read-only"
	case TierGated:
		return "gated"
	case TierBlocked:
		return "blocked"
	}
	return "unsupported"
}

var (
	readOnlyMethods = mapset.NewSet(
		"eth_accounts",
		"eth_coinbase",
		"eth_chainId",
		"net_version",
		"personal_ecRecover",
		"wallet_getPermissions",
		"wallet_revokePermissions",
		"wallet_switchEthereumChain",
	)
	gatedMethods = mapset.NewSet(
		"eth_requestAccounts",
		"wallet_requestPermissions",
		"personal_sign",
		"eth_signTypedData",
		"eth_signTypedData_v3",
		"eth_signTypedData_v4",
		"wallet_addEthereumChain",
	)
	// Transactions are out of reach for a signing-only wallet. eth_sign signs
	// arbitrary hashes, which may be transactions.
	blockedMethods = mapset.NewSet(
		"eth_sendTransaction",
		"eth_signTransaction",
		"eth_sendRawTransaction",
		"eth_sign",
	)
)

// MethodTier classifies method.
func MethodTier(method string) Tier {
	switch {
	case readOnlyMethods.Contains(method):
		return TierReadOnly
	case gatedMethods.Contains(method):
		return TierGated
	case blockedMethods.Contains(method):
		return TierBlocked
	}
	return TierUnsupported
}
