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

package accounts

import "errors"

var (
	// ErrUnknownAccount is returned for any requested operation on an address
	// the keyring does not hold.
	ErrUnknownAccount = errors.New("account not found")

	// ErrAccountExists is returned when adding an address that is already held,
	// compared case-insensitively.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidKeyLength is returned for private keys that are not 32 bytes.
	ErrInvalidKeyLength = errors.New("invalid private key length: expected 32 bytes")

	// ErrCannotRemoveDerived is returned when removing a seed-derived account.
	ErrCannotRemoveDerived = errors.New("cannot remove derived account")

	// ErrNotInitialized is returned when keys are requested while the seed is
	// not loaded.
	ErrNotInitialized = errors.New("keyring not initialized")
)
