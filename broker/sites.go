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

import (
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/sunyihoo/walletcore/storage"
)

// SitesKey holds the connected origins.
const SitesKey = "connectedSites"

// ConnectedSites is the persisted set of origins the user connected.
type ConnectedSites struct {
	db storage.Storage

	mu  sync.Mutex // serializes mutation and persistence
	set mapset.Set[string]
}

// LoadConnectedSites reads the set from db.
func LoadConnectedSites(db storage.Storage) (*ConnectedSites, error) {
	list, _, err := storage.GetJSON[[]string](db, SitesKey)
	if err != nil {
		return nil, err
	}
	return &ConnectedSites{db: db, set: mapset.NewSet(list...)}, nil
}

// Has reports whether origin is connected.
func (s *ConnectedSites) Has(origin string) bool {
	return s.set.Contains(origin)
}

// Add connects origin.
func (s *ConnectedSites) Add(origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set.Add(origin) {
		return nil
	}
	if err := s.persist(); err != nil {
		s.set.Remove(origin)
		return err
	}
	return nil
}

// Remove disconnects origin. Removing an unknown origin is a no-op.
func (s *ConnectedSites) Remove(origin string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set.Contains(origin) {
		return nil
	}
	s.set.Remove(origin)
	if err := s.persist(); err != nil {
		s.set.Add(origin)
		return err
	}
	return nil
}

// Clear disconnects every origin.
func (s *ConnectedSites) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.set.Clear()
	return s.db.Remove(SitesKey)
}

// List returns the connected origins in sorted order.
func (s *ConnectedSites) List() []string {
	list := s.set.ToSlice()
	sort.Strings(list)
	return list
}

func (s *ConnectedSites) persist() error {
	return storage.SetJSON(s.db, SitesKey, s.List())
}
