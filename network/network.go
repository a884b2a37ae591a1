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

// Package network keeps the list of chains the wallet can present to sites
// and which of them is currently selected.
package network

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/event"
	"github.com/sunyihoo/walletcore/log"
	"github.com/sunyihoo/walletcore/params"
	"github.com/sunyihoo/walletcore/storage"
)

const (
	// NetworksKey holds the user added networks.
	NetworksKey = "networks"

	// CurrentKey holds the selected chain id.
	CurrentKey = "currentChainId"
)

var (
	ErrUnknownChain   = errors.New("unrecognized chain id")
	ErrNetworkExists  = errors.New("network already exists")
	ErrBuiltinNetwork = errors.New("built-in networks cannot be removed")
	ErrInvalidChainID = errors.New("invalid chain id")
	ErrInvalidNetwork = errors.New("invalid network")
)

// Registry tracks the known networks and the selected one.
type Registry struct {
	db  storage.Storage
	log log.Logger

	mu      sync.RWMutex
	builtin []params.Network
	custom  []params.Network
	current uint64

	chainFeed event.FeedOf[uint64]
}

// New loads the registry. builtin defaults to params.Networks(); its first
// entry is selected when nothing valid is persisted.
func New(db storage.Storage, builtin []params.Network) (*Registry, error) {
	if len(builtin) == 0 {
		builtin = params.Networks()
	}
	r := &Registry{
		db:      db,
		log:     log.New("module", "network"),
		builtin: append([]params.Network(nil), builtin...),
	}
	custom, _, err := storage.GetJSON[[]params.Network](db, NetworksKey)
	if err != nil {
		return nil, fmt.Errorf("loading networks: %w", err)
	}
	r.custom = custom

	current, ok, err := storage.GetJSON[uint64](db, CurrentKey)
	if err != nil {
		return nil, fmt.Errorf("loading current network: %w", err)
	}
	if _, known := r.get(current); !ok || !known {
		current = r.builtin[0].ChainID
	}
	r.current = current
	return r, nil
}

// ParseChainID accepts a 0x prefixed hex quantity or a decimal string.
func ParseChainID(s string) (uint64, error) {
	var (
		id  uint64
		err error
	)
	if hexutil.Has0xPrefix(s) {
		id, err = hexutil.DecodeUint64(s)
	} else {
		id, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChainID, s)
	}
	return id, nil
}

// Current returns the selected network.
func (r *Registry) Current() params.Network {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, _ := r.get(r.current)
	return n
}

// ChainID returns the selected chain id.
func (r *Registry) ChainID() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// ChainIDHex returns the selected chain id as eth_chainId reports it.
func (r *Registry) ChainIDHex() string {
	return hexutil.EncodeUint64(r.ChainID())
}

// NetVersion returns the selected chain id as net_version reports it.
func (r *Registry) NetVersion() string {
	return strconv.FormatUint(r.ChainID(), 10)
}

// Get looks up a network by chain id.
func (r *Registry) Get(chainID uint64) (params.Network, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(chainID)
}

// Networks lists the built-in networks followed by the user added ones.
func (r *Registry) Networks() []params.Network {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]params.Network, 0, len(r.builtin)+len(r.custom))
	list = append(list, r.builtin...)
	return append(list, r.custom...)
}

// Switch selects a known network. Switching to the current one is a no-op.
func (r *Registry) Switch(chainID uint64) error {
	r.mu.Lock()
	if _, ok := r.get(chainID); !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownChain, hexutil.EncodeUint64(chainID))
	}
	if r.current == chainID {
		r.mu.Unlock()
		return nil
	}
	if err := storage.SetJSON(r.db, CurrentKey, chainID); err != nil {
		r.mu.Unlock()
		return err
	}
	r.current = chainID
	r.mu.Unlock()

	r.log.Info("Switched network", "chainid", chainID)
	r.chainFeed.Send(chainID)
	return nil
}

// Add registers a user supplied network.
func (r *Registry) Add(n params.Network) error {
	if err := validate(n); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.get(n.ChainID); ok {
		return fmt.Errorf("%w: %s", ErrNetworkExists, hexutil.EncodeUint64(n.ChainID))
	}
	custom := append(append([]params.Network(nil), r.custom...), n)
	if err := storage.SetJSON(r.db, NetworksKey, custom); err != nil {
		return err
	}
	r.custom = custom
	r.log.Info("Added network", "chainid", n.ChainID, "name", n.Name)
	return nil
}

// Remove deletes a user added network. Removing the selected network falls
// back to the first built-in one.
func (r *Registry) Remove(chainID uint64) error {
	r.mu.Lock()
	for _, n := range r.builtin {
		if n.ChainID == chainID {
			r.mu.Unlock()
			return ErrBuiltinNetwork
		}
	}
	idx := -1
	for i, n := range r.custom {
		if n.ChainID == chainID {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownChain, hexutil.EncodeUint64(chainID))
	}
	custom := append(append([]params.Network(nil), r.custom[:idx]...), r.custom[idx+1:]...)
	if err := storage.SetJSON(r.db, NetworksKey, custom); err != nil {
		r.mu.Unlock()
		return err
	}
	r.custom = custom
	wasCurrent := r.current == chainID
	r.mu.Unlock()

	if wasCurrent {
		return r.Switch(r.builtin[0].ChainID)
	}
	return nil
}

// SubscribeChainChanged delivers the new chain id after every switch.
func (r *Registry) SubscribeChainChanged(ch chan<- uint64) event.Subscription {
	return r.chainFeed.Subscribe(ch)
}

func (r *Registry) get(chainID uint64) (params.Network, bool) {
	for _, n := range r.builtin {
		if n.ChainID == chainID {
			return n, true
		}
	}
	for _, n := range r.custom {
		if n.ChainID == chainID {
			return n, true
		}
	}
	return params.Network{}, false
}

func validate(n params.Network) error {
	if n.ChainID == 0 {
		return fmt.Errorf("%w: chain id must be positive", ErrInvalidNetwork)
	}
	if strings.TrimSpace(n.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidNetwork)
	}
	u, err := url.Parse(n.RPCURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return fmt.Errorf("%w: rpc url %q", ErrInvalidNetwork, n.RPCURL)
	}
	if n.ExplorerURL != "" {
		if u, err := url.Parse(n.ExplorerURL); err != nil || u.Scheme != "https" {
			return fmt.Errorf("%w: explorer url %q", ErrInvalidNetwork, n.ExplorerURL)
		}
	}
	return nil
}
