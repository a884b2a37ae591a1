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

// Package signer produces and verifies EIP-191 personal messages and EIP-712
// typed data signatures. All functions are pure; private keys are supplied by
// the caller and wiped before returning.
//
// signer 实现 EIP-191 个人消息签名与 EIP-712 结构化数据签名，签名格式为 r ‖ s ‖ v，v = 27 + recid。
package signer

import (
	"errors"
	"fmt"

	"github.com/sunyihoo/walletcore/accounts"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/crypto"
	"github.com/sunyihoo/walletcore/signer/typeddata"
)

var (
	ErrSignatureLength = fmt.Errorf("signature must be %d bytes", crypto.SignatureLength)
	ErrRecoveryID      = errors.New("invalid signature recovery id")
	ErrHighS           = errors.New("signature s value is not in the lower half of the curve order")
)

// PersonalMessage decodes a personal_sign payload: a 0x-prefixed hex string is
// taken as raw bytes, anything else as UTF-8 text.
func PersonalMessage(message string) []byte {
	if hexutil.Has0xPrefix(message) {
		if b, err := hexutil.Decode(message); err == nil {
			return b
		}
	}
	return []byte(message)
}

// PersonalHash is keccak256("\x19Ethereum Signed Message:\n" ‖ len(message) ‖ message).
func PersonalHash(message []byte) common.Hash {
	return common.BytesToHash(accounts.TextHash(message))
}

// PersonalSign signs message under the EIP-191 prefix.
func PersonalSign(key []byte, message []byte) (hexutil.Bytes, error) {
	hash := PersonalHash(message)
	return SignHash(key, hash[:])
}

// SignTypedData signs the EIP-712 digest of td.
func SignTypedData(key []byte, td *typeddata.TypedData) (hexutil.Bytes, error) {
	hash, _, err := typeddata.TypedDataAndHash(td)
	if err != nil {
		return nil, err
	}
	return SignHash(key, hash)
}

// SignHash signs a 32 byte digest and returns r ‖ s ‖ v with v in {27, 28}.
func SignHash(key []byte, hash []byte) (hexutil.Bytes, error) {
	priv, err := crypto.ToPrivateKey(key)
	if err != nil {
		return nil, err
	}
	defer priv.Zero()

	sig, err := crypto.Sign(hash, priv)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27 // Transform V from 0/1 to 27/28 according to the yellow paper
	return sig, nil
}

// Recover returns the address that produced sig over hash. v may be given as
// 0/1 or 27/28; high-S signatures are rejected.
func Recover(hash []byte, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, ErrSignatureLength
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	switch v := normalized[crypto.RecoveryIDOffset]; v {
	case 27, 28:
		normalized[crypto.RecoveryIDOffset] = v - 27
	case 0, 1:
	default:
		return common.Address{}, ErrRecoveryID
	}
	if !crypto.IsLowS(normalized) {
		return common.Address{}, ErrHighS
	}
	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(pub), nil
}

// RecoverPersonal recovers the signer of an EIP-191 personal message.
func RecoverPersonal(message []byte, sig []byte) (common.Address, error) {
	hash := PersonalHash(message)
	return Recover(hash[:], sig)
}

// RecoverTypedData recovers the signer of EIP-712 typed data.
func RecoverTypedData(td *typeddata.TypedData, sig []byte) (common.Address, error) {
	hash, _, err := typeddata.TypedDataAndHash(td)
	if err != nil {
		return common.Address{}, err
	}
	return Recover(hash, sig)
}

// VerifyResult reports the outcome of a verification without failing the
// caller. Error is set when the signature could not be recovered at all.
type VerifyResult struct {
	Valid            bool            `json:"valid"`
	RecoveredAddress *common.Address `json:"recoveredAddress,omitempty"`
	Error            string          `json:"error,omitempty"`
}

func verifyResult(recovered common.Address, err error, expected string) VerifyResult {
	if err != nil {
		return VerifyResult{Error: err.Error()}
	}
	return VerifyResult{
		Valid:            common.SameAddress(recovered.Hex(), expected),
		RecoveredAddress: &recovered,
	}
}

// VerifyPersonal checks that expected signed message. Addresses are compared
// case-insensitively.
func VerifyPersonal(message []byte, sig []byte, expected string) VerifyResult {
	recovered, err := RecoverPersonal(message, sig)
	return verifyResult(recovered, err, expected)
}

// VerifyTypedData checks that expected signed td.
func VerifyTypedData(td *typeddata.TypedData, sig []byte, expected string) VerifyResult {
	recovered, err := RecoverTypedData(td, sig)
	return verifyResult(recovered, err, expected)
}
