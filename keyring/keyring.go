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

// Package keyring derives and manages the wallet's accounts. Derived accounts
// are recomputed from the in-memory seed on every private key lookup; imported
// keys are sealed in storage under a key derived from the same seed.
//
// keyring 管理钱包账户：派生账户的私钥每次都从内存中的种子重新派生，导入的私钥加密存储。
package keyring

import (
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/sunyihoo/walletcore/accounts"
	"github.com/sunyihoo/walletcore/accounts/mnemonic"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/crypto"
	"github.com/sunyihoo/walletcore/internal/secret"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
	"github.com/sunyihoo/walletcore/storage/encrypted"
)

const (
	// AccountsKey holds the JSON encoded account list.
	AccountsKey = "accounts"

	// importedKeyPrefix prefixes the sealed private key of each imported account.
	importedKeyPrefix = "importedKey:"
)

// NewMnemonic generates a recovery phrase from bits of entropy.
func NewMnemonic(bits int) (string, error) { return mnemonic.New(bits) }

// ValidateMnemonic checks word count, word list and checksum of phrase.
func ValidateMnemonic(phrase string) error { return mnemonic.Validate(phrase) }

// Config tunes a Keyring.
type Config struct {
	Clock clock.Clock
}

// Keyring holds the seed while the wallet is unlocked.
type Keyring struct {
	db    storage.Storage
	clock clock.Clock
	log   log.Logger

	mu       sync.Mutex
	seed     *secret.Bytes      // nil until Initialize
	imported *encrypted.Storage // sealed imported keys, nil until Initialize
	accounts []accounts.Account // in-memory copy of AccountsKey
}

// New creates a keyring persisting through db.
func New(db storage.Storage, config Config) *Keyring {
	if config.Clock == nil {
		config.Clock = clock.NewDefaultClock()
	}
	return &Keyring{
		db:    db,
		clock: config.Clock,
		log:   log.New("module", "keyring"),
	}
}

// Initialize loads the seed derived from phrase and the persisted accounts.
// The first account is created only when none are persisted, so initializing
// again with the same phrase reloads rather than duplicates.
func (k *Keyring) Initialize(phrase []byte) error {
	seed, err := mnemonic.Seed(string(phrase), "")
	if err != nil {
		return err
	}
	defer secret.Wipe(seed)

	key, err := storageKey(seed)
	if err != nil {
		return err
	}
	defer secret.Wipe(key)

	list, _, err := storage.GetJSON[[]accounts.Account](k.db, AccountsKey)
	if err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.clear()
	k.seed = secret.New(seed)
	k.imported = encrypted.New(k.db, key)
	k.accounts = list

	if len(k.accounts) == 0 {
		if _, err := k.createAccount("Account 1"); err != nil {
			k.clear()
			return err
		}
	}
	k.log.Info("Keyring initialized", "accounts", len(k.accounts))
	return nil
}

// IsInitialized reports whether the seed is loaded.
func (k *Keyring) IsInitialized() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.seed != nil
}

// CreateAccount derives the account following the highest derived index. An
// empty name defaults to "Account N".
func (k *Keyring) CreateAccount(name string) (accounts.Account, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.seed == nil {
		return accounts.Account{}, accounts.ErrNotInitialized
	}
	return k.createAccount(strings.TrimSpace(name))
}

func (k *Keyring) createAccount(name string) (accounts.Account, error) {
	index := 0
	for _, a := range k.accounts {
		if !a.Imported() && a.Index >= index {
			index = a.Index + 1
		}
	}
	priv, err := deriveKey(k.seed.Bytes(), uint32(index))
	if err != nil {
		return accounts.Account{}, fmt.Errorf("derive account %d: %w", index, err)
	}
	address := crypto.PubkeyToAddress(priv.PubKey())
	priv.Zero()

	if k.find(address) >= 0 {
		return accounts.Account{}, accounts.ErrAccountExists
	}
	if name == "" {
		name = fmt.Sprintf("Account %d", index+1)
	}
	account := accounts.Account{
		Address:   address,
		Name:      name,
		Index:     index,
		ChainType: accounts.ChainEthereum,
		CreatedAt: k.clock.Now(),
	}
	if err := k.save(append(k.accounts, account)); err != nil {
		return accounts.Account{}, err
	}
	k.log.Info("Derived new account", "address", address, "index", index)
	return account, nil
}

// ImportAccount adds an externally generated private key. The key may carry a
// 0x prefix and must be exactly 32 bytes. An empty name defaults to
// "Imported N".
func (k *Keyring) ImportAccount(privateKey, name string) (accounts.Account, error) {
	raw, err := decodePrivateKey(privateKey)
	if err != nil {
		return accounts.Account{}, err
	}
	defer secret.Wipe(raw)

	priv, err := crypto.ToPrivateKey(raw)
	if err != nil {
		return accounts.Account{}, err
	}
	address := crypto.PubkeyToAddress(priv.PubKey())
	priv.Zero()

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.seed == nil {
		return accounts.Account{}, accounts.ErrNotInitialized
	}
	if k.find(address) >= 0 {
		return accounts.Account{}, accounts.ErrAccountExists
	}
	if name = strings.TrimSpace(name); name == "" {
		imported := 0
		for _, a := range k.accounts {
			if a.Imported() {
				imported++
			}
		}
		name = fmt.Sprintf("Imported %d", imported+1)
	}
	account := accounts.Account{
		Address:   address,
		Name:      name,
		Index:     accounts.ImportedIndex,
		ChainType: accounts.ChainEthereum,
		CreatedAt: k.clock.Now(),
	}
	if err := k.imported.Set(importedKeyName(address), raw); err != nil {
		return accounts.Account{}, err
	}
	if err := k.save(append(k.accounts, account)); err != nil {
		k.imported.Remove(importedKeyName(address))
		return accounts.Account{}, err
	}
	k.log.Info("Imported account", "address", address)
	return account, nil
}

// PrivateKey returns the 32 byte private key of address. Derived keys are
// re-derived on every call. The caller must Destroy the result.
func (k *Keyring) PrivateKey(address common.Address) (*secret.Bytes, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.seed == nil {
		return nil, accounts.ErrNotInitialized
	}
	i := k.find(address)
	if i < 0 {
		return nil, accounts.ErrUnknownAccount
	}
	account := k.accounts[i]
	if account.Imported() {
		raw, err := k.imported.Get(importedKeyName(address))
		if errors.Is(err, storage.ErrNotFound) {
			return nil, accounts.ErrUnknownAccount
		}
		if err != nil {
			return nil, fmt.Errorf("imported key for %s: %w", address.Hex(), err)
		}
		defer secret.Wipe(raw)
		return secret.New(raw), nil
	}
	priv, err := deriveKey(k.seed.Bytes(), uint32(account.Index))
	if err != nil {
		return nil, err
	}
	defer priv.Zero()
	raw := crypto.FromPrivateKey(priv)
	defer secret.Wipe(raw)
	return secret.New(raw), nil
}

// RemoveAccount deletes an imported account and its key. Derived accounts
// cannot be removed.
func (k *Keyring) RemoveAccount(address common.Address) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.seed == nil {
		return accounts.ErrNotInitialized
	}
	i := k.find(address)
	if i < 0 {
		return accounts.ErrUnknownAccount
	}
	if !k.accounts[i].Imported() {
		return accounts.ErrCannotRemoveDerived
	}
	list := make([]accounts.Account, 0, len(k.accounts)-1)
	list = append(list, k.accounts[:i]...)
	list = append(list, k.accounts[i+1:]...)
	if err := k.save(list); err != nil {
		return err
	}
	if err := k.imported.Remove(importedKeyName(address)); err != nil {
		k.log.Warn("Failed to remove imported key", "address", address, "err", err)
	}
	k.log.Info("Removed account", "address", address)
	return nil
}

// RenameAccount changes the display name of address.
func (k *Keyring) RenameAccount(address common.Address, name string) (accounts.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return accounts.Account{}, errors.New("account name required")
	}
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.seed == nil {
		return accounts.Account{}, accounts.ErrNotInitialized
	}
	i := k.find(address)
	if i < 0 {
		return accounts.Account{}, accounts.ErrUnknownAccount
	}
	list := append([]accounts.Account(nil), k.accounts...)
	list[i].Name = name
	if err := k.save(list); err != nil {
		return accounts.Account{}, err
	}
	return list[i], nil
}

// Accounts returns the loaded accounts, derived first in index order. It is
// empty while the keyring is locked.
func (k *Keyring) Accounts() []accounts.Account {
	k.mu.Lock()
	defer k.mu.Unlock()

	list := append([]accounts.Account(nil), k.accounts...)
	sort.Sort(accounts.AccountsByIndex(list))
	return list
}

// Account looks up a single loaded account.
func (k *Keyring) Account(address common.Address) (accounts.Account, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if i := k.find(address); i >= 0 {
		return k.accounts[i], nil
	}
	return accounts.Account{}, accounts.ErrUnknownAccount
}

// Lock wipes the seed and drops the in-memory account list. Persisted data is
// kept.
func (k *Keyring) Lock() {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.seed != nil {
		k.clear()
		k.log.Info("Keyring locked")
	}
}

// Reset locks the keyring and deletes every persisted account and imported
// key.
func (k *Keyring) Reset() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.seed != nil {
		k.clear()
	}
	keys, err := k.db.Keys()
	if err != nil {
		return err
	}
	batch := k.db.NewBatch()
	for _, key := range keys {
		if key == AccountsKey || strings.HasPrefix(key, importedKeyPrefix) {
			if err := batch.Remove(key); err != nil {
				return err
			}
		}
	}
	if err := batch.Write(); err != nil {
		return err
	}
	k.log.Warn("Keyring reset")
	return nil
}

func (k *Keyring) clear() {
	k.seed.Destroy()
	k.seed = nil
	if k.imported != nil {
		k.imported.Close()
		k.imported = nil
	}
	k.accounts = nil
}

// find returns the position of address in the account list or -1. Addresses
// are compared as bytes, which is case-insensitive on their hex form.
func (k *Keyring) find(address common.Address) int {
	for i, a := range k.accounts {
		if a.Address == address {
			return i
		}
	}
	return -1
}

func (k *Keyring) save(list []accounts.Account) error {
	if err := storage.SetJSON(k.db, AccountsKey, list); err != nil {
		return err
	}
	k.accounts = list
	return nil
}

func importedKeyName(address common.Address) string {
	return importedKeyPrefix + strings.ToLower(address.Hex())
}

func decodePrivateKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s) != 2*crypto.PrivateKeyLength {
		return nil, accounts.ErrInvalidKeyLength
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, errors.New("invalid hex character in private key")
	}
	return raw, nil
}
