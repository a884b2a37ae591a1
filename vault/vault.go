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

// Package vault keeps the wallet's recovery phrase encrypted at rest under a
// password derived key, and in memory only while unlocked.
//
// vault 以口令派生的密钥加密保存助记词，仅在解锁期间将明文保存在内存中。
package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/sunyihoo/walletcore/accounts/mnemonic"
	"github.com/sunyihoo/walletcore/crypto/pbe"
	"github.com/sunyihoo/walletcore/internal/secret"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/storage"
	"golang.org/x/text/unicode/norm"
)

const (
	// StorageKey is the key the vault record lives under.
	StorageKey = "vault"

	// MinPasswordLength is counted in characters, not bytes.
	MinPasswordLength = 8

	// KDFVersion 1 is PBKDF2-HMAC-SHA256 with AES-256-GCM.
	KDFVersion = 1

	// MaxIterations bounds the work factor accepted from a stored or imported
	// record.
	MaxIterations = 10 * pbe.DefaultIterations
)

var (
	ErrVaultExists      = errors.New("vault already exists")
	ErrVaultNotFound    = errors.New("vault not found")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrInvalidPassword  = errors.New("invalid password")
	ErrLocked           = errors.New("vault is locked")
)

// State is the lifecycle position of the vault.
type State int

const (
	NonExistent State = iota
	Locked
	Unlocked
)

func (s State) String() string {
	switch s {
	case NonExistent:
		return "nonexistent"
	case Locked:
		return "locked"
	case Unlocked:
		return "unlocked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Record is the persisted form of the vault. Only the sealed phrase and the
// KDF parameters are stored.
type Record struct {
	Ciphertext []byte    `json:"ciphertext"`
	IV         []byte    `json:"iv"`
	Salt       []byte    `json:"salt"`
	KDFVersion int       `json:"kdf_version"`
	Iterations int       `json:"iterations"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Config tunes a Vault. The zero value selects production defaults.
type Config struct {
	// Iterations is the PBKDF2 work factor for newly sealed records.
	Iterations int

	// Clock stamps the record timestamps.
	Clock clock.Clock
}

// Vault owns the encrypted recovery phrase.
type Vault struct {
	db         storage.Storage
	clock      clock.Clock
	iterations int
	log        log.Logger

	mu     sync.Mutex
	phrase *secret.Bytes // nil while locked
}

// New creates a vault on top of db.
func New(db storage.Storage, config Config) *Vault {
	if config.Iterations <= 0 {
		config.Iterations = pbe.DefaultIterations
	}
	if config.Clock == nil {
		config.Clock = clock.NewDefaultClock()
	}
	return &Vault{
		db:         db,
		clock:      config.Clock,
		iterations: config.Iterations,
		log:        log.New("module", "vault"),
	}
}

// ValidatePassword enforces the minimum length, counted after NFKD
// normalization.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(norm.NFKD.String(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func passwordBytes(password string) []byte {
	return []byte(norm.NFKD.String(password))
}

// State reports where the vault is in its lifecycle.
func (v *Vault) State() (State, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phrase != nil {
		return Unlocked, nil
	}
	ok, err := v.db.Has(StorageKey)
	if err != nil {
		return NonExistent, err
	}
	if !ok {
		return NonExistent, nil
	}
	return Locked, nil
}

// Exists reports whether a record has been persisted.
func (v *Vault) Exists() (bool, error) {
	return v.db.Has(StorageKey)
}

// IsUnlocked reports whether the phrase is held in memory.
func (v *Vault) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.phrase != nil
}

// Create seals phrase under password and leaves the vault unlocked.
func (v *Vault) Create(password, phrase string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if err := mnemonic.Validate(phrase); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	exists, err := v.db.Has(StorageKey)
	if err != nil {
		return err
	}
	if exists {
		return ErrVaultExists
	}
	normalized := secret.FromString(mnemonic.Normalize(phrase))
	now := v.clock.Now()
	record, err := v.seal(password, normalized.Bytes(), now, now)
	if err != nil {
		normalized.Destroy()
		return err
	}
	if err := v.store(record); err != nil {
		normalized.Destroy()
		return err
	}
	v.replacePhrase(normalized)
	v.log.Info("Vault created", "kdf", KDFVersion, "iterations", record.Iterations)
	return nil
}

// Unlock returns a copy of the recovery phrase the caller must Destroy. If the
// vault is already unlocked the cached phrase is returned without touching
// storage.
func (v *Vault) Unlock(password string) (*secret.Bytes, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phrase != nil {
		return secret.New(v.phrase.Bytes()), nil
	}
	record, err := v.load()
	if err != nil {
		return nil, err
	}
	plain, err := v.open(record, password)
	if err != nil {
		v.log.Debug("Vault unlock rejected")
		return nil, err
	}
	v.replacePhrase(secret.New(plain))
	secret.Wipe(plain)
	v.log.Info("Vault unlocked")
	return secret.New(v.phrase.Bytes()), nil
}

// Lock discards the in-memory phrase. Storage is left untouched.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.phrase != nil {
		v.replacePhrase(nil)
		v.log.Info("Vault locked")
	}
}

// ChangePassword re-seals the phrase under a freshly derived key and salt.
// The old password is verified against the stored record even if the vault is
// already unlocked. A locked vault stays locked.
func (v *Vault) ChangePassword(oldPassword, newPassword string) error {
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	record, err := v.load()
	if err != nil {
		return err
	}
	plain, err := v.open(record, oldPassword)
	if err != nil {
		return err
	}
	phrase := secret.New(plain)
	secret.Wipe(plain)

	fresh, err := v.seal(newPassword, phrase.Bytes(), record.CreatedAt, v.clock.Now())
	if err != nil {
		phrase.Destroy()
		return err
	}
	if err := v.store(fresh); err != nil {
		phrase.Destroy()
		return err
	}
	if v.phrase != nil {
		v.replacePhrase(phrase)
	} else {
		phrase.Destroy()
	}
	v.log.Info("Vault password changed")
	return nil
}

// Export returns the persisted record byte for byte.
func (v *Vault) Export() ([]byte, error) {
	blob, err := v.db.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrVaultNotFound
	}
	return blob, err
}

// Import replaces the stored record with blob after proving password opens it.
// Nothing is written when verification fails. The vault is left locked.
func (v *Vault) Import(blob []byte, password string) error {
	var record Record
	if err := json.Unmarshal(blob, &record); err != nil {
		return ErrInvalidPassword
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	plain, err := v.open(&record, password)
	if err != nil {
		return err
	}
	valid := mnemonic.Validate(string(plain))
	secret.Wipe(plain)
	if valid != nil {
		return valid
	}
	if err := v.db.Set(StorageKey, blob); err != nil {
		return err
	}
	v.replacePhrase(nil)
	v.log.Info("Vault imported")
	return nil
}

// Reset deletes the record and locks. The vault returns to NonExistent.
func (v *Vault) Reset() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.replacePhrase(nil)
	if err := v.db.Remove(StorageKey); err != nil {
		return err
	}
	v.log.Warn("Vault reset")
	return nil
}

func (v *Vault) seal(password string, phrase []byte, created, updated time.Time) (*Record, error) {
	pw := passwordBytes(password)
	defer secret.Wipe(pw)

	key, salt, err := pbe.DeriveKey(pw, nil, v.iterations)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(key)

	enc, err := pbe.Encrypt(phrase, key)
	if err != nil {
		return nil, err
	}
	return &Record{
		Ciphertext: enc.Ciphertext,
		IV:         enc.IV,
		Salt:       salt,
		KDFVersion: KDFVersion,
		Iterations: v.iterations,
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}

// open decrypts record. Every cryptographic or format failure is reported as
// ErrInvalidPassword.
func (v *Vault) open(record *Record, password string) ([]byte, error) {
	if record.KDFVersion != KDFVersion || len(record.Salt) == 0 {
		return nil, ErrInvalidPassword
	}
	if record.Iterations <= 0 || record.Iterations > max(MaxIterations, v.iterations) {
		return nil, ErrInvalidPassword
	}
	pw := passwordBytes(password)
	defer secret.Wipe(pw)

	key, _, err := pbe.DeriveKey(pw, record.Salt, record.Iterations)
	if err != nil {
		return nil, err
	}
	defer secret.Wipe(key)

	plain, err := pbe.Decrypt(&pbe.EncryptedData{
		Ciphertext: record.Ciphertext,
		IV:         record.IV,
		Version:    pbe.Version,
	}, key)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plain, nil
}

func (v *Vault) load() (*Record, error) {
	blob, err := v.db.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrVaultNotFound
	}
	if err != nil {
		return nil, err
	}
	// An undecodable record is indistinguishable from a wrong password.
	var record Record
	if err := json.Unmarshal(blob, &record); err != nil {
		return nil, ErrInvalidPassword
	}
	return &record, nil
}

func (v *Vault) store(record *Record) error {
	return storage.SetJSON(v.db, StorageKey, record)
}

func (v *Vault) replacePhrase(phrase *secret.Bytes) {
	if v.phrase != nil {
		v.phrase.Destroy()
	}
	v.phrase = phrase
}
