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

package vault

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/accounts/mnemonic"
	"github.com/sunyihoo/walletcore/storage/memorydb"
	"github.com/tyler-smith/go-bip39"
	"pgregory.net/rapid"
)

const (
	testPhrase   = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testPassword = "correct horse battery"
)

var testTime = time.Date(2025, time.October, 19, 12, 0, 0, 0, time.UTC)

func newTestVault(t testing.TB) (*Vault, *memorydb.Database, *clock.TestClock) {
	db := memorydb.New()
	c := clock.NewTestClock(testTime)
	return New(db, Config{Iterations: 1000, Clock: c}), db, c
}

func TestCreateUnlock(t *testing.T) {
	v, db, _ := newTestVault(t)

	state, err := v.State()
	require.NoError(t, err)
	assert.Equal(t, NonExistent, state)

	require.NoError(t, v.Create(testPassword, testPhrase))
	assert.True(t, v.IsUnlocked())

	raw, err := db.Get(StorageKey)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "abandon")

	var rec Record
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.Len(t, rec.Salt, 16)
	assert.Len(t, rec.IV, 12)
	assert.Equal(t, KDFVersion, rec.KDFVersion)
	assert.True(t, rec.CreatedAt.Equal(testTime))

	v.Lock()
	state, err = v.State()
	require.NoError(t, err)
	assert.Equal(t, Locked, state)

	phrase, err := v.Unlock(testPassword)
	require.NoError(t, err)
	defer phrase.Destroy()
	assert.Equal(t, testPhrase, string(phrase.Bytes()))
}

func TestCreateValidation(t *testing.T) {
	v, _, _ := newTestVault(t)

	assert.ErrorIs(t, v.Create("short", testPhrase), ErrPasswordTooShort)
	assert.ErrorIs(t, v.Create(testPassword, "abandon abandon"), mnemonic.ErrTooShort)
	assert.ErrorIs(t, v.Create(testPassword, strings.Repeat("abandon ", 12)), mnemonic.ErrInvalid)

	exists, err := v.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, v.Create(testPassword, testPhrase))
	assert.ErrorIs(t, v.Create(testPassword, testPhrase), ErrVaultExists)
}

func TestPasswordLengthCountsCharacters(t *testing.T) {
	// 4 characters, 12 bytes
	assert.ErrorIs(t, ValidatePassword("密码密码"), ErrPasswordTooShort)
	assert.NoError(t, ValidatePassword("密码密码密码密码"))

	// U+FB01 decomposes to "fi" under NFKD: 4 characters become 8.
	assert.NoError(t, ValidatePassword("\ufb01\ufb01\ufb01\ufb01"))
}

func TestUnlockFastPath(t *testing.T) {
	v, db, _ := newTestVault(t)
	require.NoError(t, v.Create(testPassword, testPhrase))

	// Once unlocked, storage is not consulted.
	require.NoError(t, db.Remove(StorageKey))
	phrase, err := v.Unlock(testPassword)
	require.NoError(t, err)
	assert.Equal(t, testPhrase, string(phrase.Bytes()))

	// The returned copy is independent of the cached phrase.
	phrase.Destroy()
	again, err := v.Unlock(testPassword)
	require.NoError(t, err)
	assert.Equal(t, testPhrase, string(again.Bytes()))
}

func TestUnlockNoOracle(t *testing.T) {
	v, db, _ := newTestVault(t)
	require.NoError(t, v.Create(testPassword, testPhrase))
	v.Lock()

	_, errWrong := v.Unlock("wrong password!")

	raw, err := db.Get(StorageKey)
	require.NoError(t, err)
	var rec Record
	require.NoError(t, json.Unmarshal(raw, &rec))
	rec.Ciphertext[0] ^= 0x01
	tampered, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, db.Set(StorageKey, tampered))
	_, errCorrupt := v.Unlock(testPassword)

	require.NoError(t, db.Set(StorageKey, []byte("{garbage")))
	_, errGarbage := v.Unlock(testPassword)

	for _, err := range []error{errWrong, errCorrupt, errGarbage} {
		assert.ErrorIs(t, err, ErrInvalidPassword)
	}
	assert.False(t, v.IsUnlocked())
}

func TestUnlockMissing(t *testing.T) {
	v, _, _ := newTestVault(t)
	_, err := v.Unlock(testPassword)
	assert.ErrorIs(t, err, ErrVaultNotFound)
}

func TestLockLeavesStorage(t *testing.T) {
	v, db, _ := newTestVault(t)
	require.NoError(t, v.Create(testPassword, testPhrase))
	before, err := db.Get(StorageKey)
	require.NoError(t, err)

	v.Lock()
	v.Lock()

	after, err := db.Get(StorageKey)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestChangePassword(t *testing.T) {
	v, db, c := newTestVault(t)
	require.NoError(t, v.Create(testPassword, testPhrase))
	before, _ := db.Get(StorageKey)

	c.SetTime(testTime.Add(time.Hour))
	assert.ErrorIs(t, v.ChangePassword(testPassword, "short"), ErrPasswordTooShort)
	assert.ErrorIs(t, v.ChangePassword("not the password", "new password 123"), ErrInvalidPassword)

	unchanged, _ := db.Get(StorageKey)
	assert.Equal(t, before, unchanged)

	require.NoError(t, v.ChangePassword(testPassword, "new password 123"))

	var rec, old Record
	after, _ := db.Get(StorageKey)
	require.NoError(t, json.Unmarshal(after, &rec))
	require.NoError(t, json.Unmarshal(before, &old))
	assert.NotEqual(t, old.Salt, rec.Salt)
	assert.True(t, rec.CreatedAt.Equal(testTime))
	assert.True(t, rec.UpdatedAt.Equal(testTime.Add(time.Hour)))

	v.Lock()
	_, err := v.Unlock(testPassword)
	assert.ErrorIs(t, err, ErrInvalidPassword)
	phrase, err := v.Unlock("new password 123")
	require.NoError(t, err)
	assert.Equal(t, testPhrase, string(phrase.Bytes()))
}

func TestChangePasswordWhileLocked(t *testing.T) {
	v, _, _ := newTestVault(t)
	require.NoError(t, v.Create(testPassword, testPhrase))
	v.Lock()

	require.NoError(t, v.ChangePassword(testPassword, "new password 123"))
	assert.False(t, v.IsUnlocked())

	_, err := v.Unlock("some other password")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = v.Unlock(testPassword)
	assert.ErrorIs(t, err, ErrInvalidPassword)
	phrase, err := v.Unlock("new password 123")
	require.NoError(t, err)
	assert.Equal(t, testPhrase, string(phrase.Bytes()))
}

func TestImportRejectsExcessiveIterations(t *testing.T) {
	src, _, _ := newTestVault(t)
	require.NoError(t, src.Create(testPassword, testPhrase))
	blob, err := src.Export()
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(blob, &rec))
	rec.Iterations = 1 << 40
	crafted, err := json.Marshal(rec)
	require.NoError(t, err)

	dst, dstDB, _ := newTestVault(t)
	assert.ErrorIs(t, dst.Import(crafted, testPassword), ErrInvalidPassword)
	keys, err := dstDB.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestExportImport(t *testing.T) {
	src, _, _ := newTestVault(t)
	require.NoError(t, src.Create(testPassword, testPhrase))
	blob, err := src.Export()
	require.NoError(t, err)

	dst, dstDB, _ := newTestVault(t)

	// wrong password leaves no partial state
	assert.ErrorIs(t, dst.Import(blob, "wrong password"), ErrInvalidPassword)
	assert.ErrorIs(t, dst.Import([]byte("nonsense"), testPassword), ErrInvalidPassword)
	keys, err := dstDB.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, dst.Import(blob, testPassword))
	exported, err := dst.Export()
	require.NoError(t, err)
	assert.Equal(t, blob, exported)
	assert.False(t, dst.IsUnlocked())

	phrase, err := dst.Unlock(testPassword)
	require.NoError(t, err)
	assert.Equal(t, testPhrase, string(phrase.Bytes()))
}

func TestReset(t *testing.T) {
	v, _, _ := newTestVault(t)
	_, err := v.Export()
	assert.ErrorIs(t, err, ErrVaultNotFound)

	require.NoError(t, v.Create(testPassword, testPhrase))
	require.NoError(t, v.Reset())

	state, err := v.State()
	require.NoError(t, err)
	assert.Equal(t, NonExistent, state)
	require.NoError(t, v.Create("another password", testPhrase))
}

// For every valid password and phrase, unlock after create returns the phrase.
func TestCreateUnlockProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		entropy := rapid.SliceOfN(rapid.Byte(), 16, 16).Draw(rt, "entropy")
		password := rapid.StringMatching(`[a-zA-Z0-9 !@#]{8,24}`).Draw(rt, "password")

		phrase, err := entropyPhrase(entropy)
		require.NoError(rt, err)

		v := New(memorydb.New(), Config{Iterations: 10})
		require.NoError(rt, v.Create(password, phrase))
		v.Lock()
		got, err := v.Unlock(password)
		require.NoError(rt, err)
		require.Equal(rt, phrase, string(got.Bytes()))
	})
}

func entropyPhrase(entropy []byte) (string, error) {
	return bip39.NewMnemonic(entropy)
}
