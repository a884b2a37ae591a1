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

// Package wallet wires the vault, keyring, session guard, network registry and
// request broker into one object. It is the only place these components are
// constructed.
//
// wallet 是组合根：在这里构造并连接 vault、keyring、session、network 和 broker。
package wallet

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/sunyihoo/walletcore/accounts"
	"github.com/sunyihoo/walletcore/broker"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/event"
	"github.com/sunyihoo/walletcore/keyring"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/network"
	"github.com/sunyihoo/walletcore/params"
	"github.com/sunyihoo/walletcore/session"
	"github.com/sunyihoo/walletcore/storage"
	"github.com/sunyihoo/walletcore/vault"
)

// SelectedAccountKey remembers the account exposed to sites across locks.
const SelectedAccountKey = "selectedAccount"

var ErrLocked = errors.New("wallet is locked")

// Config collects the tunables of every component.
type Config struct {
	Clock clock.Clock

	// Iterations is the PBKDF2 work factor of the vault.
	Iterations int

	// AutoLockMinutes, when positive, replaces the persisted auto-lock
	// timeout on startup.
	AutoLockMinutes int

	ApprovalTimeout   time.Duration
	RequestsPerSecond float64

	// Networks overrides the built-in network list.
	Networks []params.Network
}

// Status summarizes the wallet for the approval surface.
type Status struct {
	Initialized   bool           `json:"initialized"`
	Unlocked      bool           `json:"unlocked"`
	ActiveAddress common.Address `json:"activeAddress"`
	ChainID       string         `json:"chainId"`
	Pending       int            `json:"pending"`
}

// Wallet is the composition root.
type Wallet struct {
	db       storage.Storage
	vault    *vault.Vault
	keyring  *keyring.Keyring
	session  *session.Guard
	networks *network.Registry
	broker   *broker.Broker
	log      log.Logger

	mu       sync.Mutex // serializes unlock and lock
	lockFeed event.FeedOf[bool]
}

// New builds the component graph on db. ui is the approval surface handed to
// the broker.
func New(db storage.Storage, ui broker.UI, config Config) (*Wallet, error) {
	if config.Clock == nil {
		config.Clock = clock.NewDefaultClock()
	}
	guard, err := session.New(db, session.Config{Clock: config.Clock})
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if config.AutoLockMinutes > 0 {
		if err := guard.SetAutoLockTimeout(config.AutoLockMinutes); err != nil {
			return nil, err
		}
	}
	networks, err := network.New(db, config.Networks)
	if err != nil {
		return nil, err
	}
	w := &Wallet{
		db:       db,
		vault:    vault.New(db, vault.Config{Iterations: config.Iterations, Clock: config.Clock}),
		keyring:  keyring.New(db, keyring.Config{Clock: config.Clock}),
		session:  guard,
		networks: networks,
		log:      log.New("module", "wallet"),
	}
	w.broker, err = broker.New(db, &backend{w}, networks, ui, broker.Config{
		Clock:             config.Clock,
		ApprovalTimeout:   config.ApprovalTimeout,
		RequestsPerSecond: config.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Broker returns the request broker.
func (w *Wallet) Broker() *broker.Broker { return w.broker }

// Networks returns the network registry.
func (w *Wallet) Networks() *network.Registry { return w.networks }

// Session returns the session guard.
func (w *Wallet) Session() *session.Guard { return w.session }

// Status reports the wallet state.
func (w *Wallet) Status() (Status, error) {
	exists, err := w.vault.Exists()
	if err != nil {
		return Status{}, err
	}
	st := Status{
		Initialized: exists,
		Unlocked:    w.IsUnlocked(),
		ChainID:     w.networks.ChainIDHex(),
		Pending:     len(w.broker.Pending()),
	}
	if st.Unlocked {
		st.ActiveAddress, _ = w.activeAddress()
	}
	return st, nil
}

// IsUnlocked reports whether keys are available.
func (w *Wallet) IsUnlocked() bool {
	return w.session.IsUnlocked() && w.keyring.IsInitialized()
}

// Create stores a new vault for phrase and unlocks the wallet.
func (w *Wallet) Create(password, phrase string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.vault.Create(password, phrase); err != nil {
		return err
	}
	return w.unlock(password)
}

// Unlock opens the vault and starts a session.
func (w *Wallet) Unlock(password string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.unlock(password)
}

func (w *Wallet) unlock(password string) error {
	phrase, err := w.vault.Unlock(password)
	if err != nil {
		return err
	}
	defer phrase.Destroy()

	if err := w.keyring.Initialize(phrase.Bytes()); err != nil {
		w.vault.Lock()
		return err
	}
	active := w.keyring.Accounts()[0].Address
	selected, ok, err := storage.GetJSON[common.Address](w.db, SelectedAccountKey)
	if err != nil {
		w.log.Warn("Failed to read selected account", "err", err)
	}
	if ok && w.hasAccount(selected) {
		active = selected
	}
	if err := w.session.Start(active.Hex()); err != nil {
		w.keyring.Lock()
		w.vault.Lock()
		return err
	}
	minutes, err := w.session.AutoLockTimeout()
	if err != nil {
		w.log.Warn("Failed to read auto-lock timeout", "err", err)
		minutes = session.DefaultAutoLockMinutes
	}
	w.session.StartAutoLock(minutes, w.autoLock)
	w.log.Info("Wallet unlocked", "active", active)
	w.lockFeed.Send(true)
	return nil
}

// Lock discards all secrets and ends the session.
func (w *Wallet) Lock() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.lock()
}

func (w *Wallet) lock() error {
	w.keyring.Lock()
	w.vault.Lock()
	if err := w.session.End(); err != nil {
		return err
	}
	w.log.Info("Wallet locked")
	w.lockFeed.Send(false)
	return nil
}

func (w *Wallet) autoLock() {
	if err := w.Lock(); err != nil {
		w.log.Error("Auto-lock failed", "err", err)
	}
}

// Reset wipes the vault, the accounts and the connected sites. Networks and
// the auto-lock preference are kept.
func (w *Wallet) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.lock(); err != nil {
		return err
	}
	if err := w.broker.DisconnectAll(); err != nil {
		return err
	}
	if err := w.keyring.Reset(); err != nil {
		return err
	}
	if err := w.db.Remove(SelectedAccountKey); err != nil {
		return err
	}
	return w.vault.Reset()
}

// ChangePassword re-seals the vault. It does not change the lock state.
func (w *Wallet) ChangePassword(oldPassword, newPassword string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.vault.ChangePassword(oldPassword, newPassword); err != nil {
		return err
	}
	if !w.IsUnlocked() {
		w.vault.Lock()
	}
	w.touch()
	return nil
}

// Export returns the sealed vault record.
func (w *Wallet) Export() ([]byte, error) { return w.vault.Export() }

// Import replaces the vault with an exported record once password is shown to
// open it. The accounts, imported keys and connected sites of the replaced
// phrase are dropped and the wallet is left locked.
func (w *Wallet) Import(record []byte, password string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.vault.Import(record, password); err != nil {
		return err
	}
	if err := w.lock(); err != nil {
		return err
	}
	if err := w.broker.DisconnectAll(); err != nil {
		return err
	}
	if err := w.keyring.Reset(); err != nil {
		return err
	}
	if err := w.db.Remove(SelectedAccountKey); err != nil {
		return err
	}
	w.log.Info("Vault imported, wallet locked")
	return nil
}

// SetAutoLockTimeout persists the auto-lock timeout. While unlocked the timer
// restarts under the new value; zero disables it.
func (w *Wallet) SetAutoLockTimeout(minutes int) error {
	if err := w.session.SetAutoLockTimeout(minutes); err != nil {
		return err
	}
	if minutes > 0 && w.session.IsUnlocked() {
		w.session.StartAutoLock(minutes, w.autoLock)
	}
	return nil
}

// Accounts lists the keyring accounts. It is empty while locked.
func (w *Wallet) Accounts() []accounts.Account { return w.keyring.Accounts() }

// CreateAccount derives the next account.
func (w *Wallet) CreateAccount(name string) (accounts.Account, error) {
	w.touch()
	return w.keyring.CreateAccount(name)
}

// ImportAccount adds a raw private key.
func (w *Wallet) ImportAccount(privateKey, name string) (accounts.Account, error) {
	w.touch()
	return w.keyring.ImportAccount(privateKey, name)
}

// RemoveAccount deletes an imported account. If it was active, the first
// account becomes active.
func (w *Wallet) RemoveAccount(address common.Address) error {
	w.touch()
	if err := w.keyring.RemoveAccount(address); err != nil {
		return err
	}
	if active, ok := w.activeAddress(); ok && active == address {
		return w.selectFirst()
	}
	return nil
}

// RenameAccount changes an account's display name.
func (w *Wallet) RenameAccount(address common.Address, name string) (accounts.Account, error) {
	w.touch()
	return w.keyring.RenameAccount(address, name)
}

// SelectAccount makes address the account exposed to sites.
func (w *Wallet) SelectAccount(address common.Address) error {
	if !w.IsUnlocked() {
		return ErrLocked
	}
	if !w.hasAccount(address) {
		return accounts.ErrUnknownAccount
	}
	w.touch()
	return w.selectAccount(address)
}

func (w *Wallet) selectAccount(address common.Address) error {
	if err := storage.SetJSON(w.db, SelectedAccountKey, address); err != nil {
		return err
	}
	return w.session.SetActiveAddress(address)
}

// Approve resolves a pending request as approved.
func (w *Wallet) Approve(id string) bool {
	w.touch()
	return w.broker.Approve(id)
}

// Reject resolves a pending request as rejected.
func (w *Wallet) Reject(id, reason string) bool {
	w.touch()
	return w.broker.Reject(id, reason)
}

// SubscribeLockState delivers true on unlock and false on lock.
func (w *Wallet) SubscribeLockState(ch chan<- bool) event.Subscription {
	return w.lockFeed.Subscribe(ch)
}

// touch records user activity, postponing auto-lock.
func (w *Wallet) touch() {
	if !w.session.IsUnlocked() {
		return
	}
	if err := w.session.UpdateActivity(); err != nil {
		w.log.Warn("Failed to record activity", "err", err)
	}
}

func (w *Wallet) hasAccount(address common.Address) bool {
	_, err := w.keyring.Account(address)
	return err == nil
}

// activeAddress returns the session's account, falling back to the first
// keyring account.
func (w *Wallet) activeAddress() (common.Address, bool) {
	if active := w.session.State().ActiveAddress; active != "" {
		if addr := common.HexToAddress(active); w.hasAccount(addr) {
			return addr, true
		}
	}
	list := w.keyring.Accounts()
	if len(list) == 0 {
		return common.Address{}, false
	}
	return list[0].Address, true
}

func (w *Wallet) selectFirst() error {
	list := w.keyring.Accounts()
	if len(list) == 0 {
		return nil
	}
	return w.selectAccount(list[0].Address)
}
