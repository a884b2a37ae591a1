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

package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/params"
	"github.com/sunyihoo/walletcore/storage/memorydb"
)

var testNetwork = params.Network{
	ChainID:  31337,
	Name:     "Local",
	RPCURL:   "http://127.0.0.1:8545",
	Symbol:   "ETH",
	Decimals: 18,
}

func TestDefaults(t *testing.T) {
	r, err := New(memorydb.New(), nil)
	require.NoError(t, err)

	assert.Equal(t, params.MainnetChainID, r.ChainID())
	assert.Equal(t, "0x1", r.ChainIDHex())
	assert.Equal(t, "1", r.NetVersion())
	assert.Equal(t, params.MainnetNetwork, r.Current())
	assert.Len(t, r.Networks(), 3)

	n, ok := r.Get(params.HoleskyChainID)
	require.True(t, ok)
	assert.Equal(t, "Holesky", n.Name)
}

func TestSwitchPersists(t *testing.T) {
	db := memorydb.New()
	r, err := New(db, nil)
	require.NoError(t, err)

	require.NoError(t, r.Switch(params.SepoliaChainID))
	assert.Equal(t, "0xaa36a7", r.ChainIDHex())
	assert.Equal(t, "11155111", r.NetVersion())

	reloaded, err := New(db, nil)
	require.NoError(t, err)
	assert.Equal(t, params.SepoliaChainID, reloaded.ChainID())
}

func TestSwitchUnknown(t *testing.T) {
	r, err := New(memorydb.New(), nil)
	require.NoError(t, err)

	err = r.Switch(999)
	assert.ErrorIs(t, err, ErrUnknownChain)
	assert.Equal(t, params.MainnetChainID, r.ChainID())
}

func TestSwitchNotifies(t *testing.T) {
	r, err := New(memorydb.New(), nil)
	require.NoError(t, err)

	ch := make(chan uint64, 1)
	sub := r.SubscribeChainChanged(ch)
	defer sub.Unsubscribe()

	require.NoError(t, r.Switch(params.HoleskyChainID))
	select {
	case id := <-ch:
		assert.Equal(t, params.HoleskyChainID, id)
	case <-time.After(time.Second):
		t.Fatal("no chain change notification")
	}

	// Re-selecting the current network does not notify.
	require.NoError(t, r.Switch(params.HoleskyChainID))
	select {
	case id := <-ch:
		t.Fatalf("unexpected notification %d", id)
	default:
	}
}

func TestAddRemove(t *testing.T) {
	db := memorydb.New()
	r, err := New(db, nil)
	require.NoError(t, err)

	require.NoError(t, r.Add(testNetwork))
	assert.ErrorIs(t, r.Add(testNetwork), ErrNetworkExists)
	assert.ErrorIs(t, r.Add(params.MainnetNetwork), ErrNetworkExists)

	reloaded, err := New(db, nil)
	require.NoError(t, err)
	n, ok := reloaded.Get(31337)
	require.True(t, ok)
	assert.Equal(t, testNetwork, n)

	require.NoError(t, r.Switch(31337))
	require.NoError(t, r.Remove(31337))
	assert.Equal(t, params.MainnetChainID, r.ChainID())
	_, ok = r.Get(31337)
	assert.False(t, ok)

	assert.ErrorIs(t, r.Remove(params.MainnetChainID), ErrBuiltinNetwork)
	assert.ErrorIs(t, r.Remove(31337), ErrUnknownChain)
}

func TestAddValidation(t *testing.T) {
	r, err := New(memorydb.New(), nil)
	require.NoError(t, err)

	bad := []params.Network{
		{Name: "zero", RPCURL: "https://x.example"},
		{ChainID: 5, RPCURL: "https://x.example"},
		{ChainID: 5, Name: "ftp", RPCURL: "ftp://x.example"},
		{ChainID: 5, Name: "nohost", RPCURL: "https://"},
		{ChainID: 5, Name: "explorer", RPCURL: "https://x.example", ExplorerURL: "http://scan.example"},
	}
	for _, n := range bad {
		assert.ErrorIs(t, r.Add(n), ErrInvalidNetwork, n.Name)
	}
}

func TestParseChainID(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		ok   bool
	}{
		{"0x1", 1, true},
		{"0xaa36a7", 11155111, true},
		{"17000", 17000, true},
		{"0x0", 0, false},
		{"0", 0, false},
		{"0x", 0, false},
		{"abc", 0, false},
		{"0x01", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseChainID(tt.in)
		if !tt.ok {
			assert.ErrorIs(t, err, ErrInvalidChainID, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestUnknownPersistedFallsBack(t *testing.T) {
	db := memorydb.New()
	require.NoError(t, db.Set(CurrentKey, []byte("424242")))

	r, err := New(db, nil)
	require.NoError(t, err)
	assert.Equal(t, params.MainnetChainID, r.ChainID())
}
