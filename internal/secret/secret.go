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

// Package secret holds key material that must be wiped when no longer needed.
package secret

import (
	"log/slog"
	"sync"
)

const redacted = "<redacted>"

// Bytes owns a private copy of sensitive data. The backing array is overwritten
// with zeroes on Destroy; after that Bytes returns nil.
//
// Bytes 持有敏感数据的私有副本，Destroy 时用零覆盖底层数组。
type Bytes struct {
	mu   sync.Mutex
	data []byte
}

// New copies b into a fresh secret. The caller remains responsible for wiping b.
func New(b []byte) *Bytes {
	data := make([]byte, len(b))
	copy(data, b)
	return &Bytes{data: data}
}

// FromString copies s into a fresh secret.
func FromString(s string) *Bytes {
	return New([]byte(s))
}

// Bytes returns the underlying slice without copying. The slice is only valid
// until Destroy is called.
func (s *Bytes) Bytes() []byte {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

// Copy returns a copy of the secret the caller must wipe itself.
func (s *Bytes) Copy() []byte {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil
	}
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// Len returns the size of the secret in bytes.
func (s *Bytes) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Destroyed reports whether the secret has been wiped.
func (s *Bytes) Destroyed() bool {
	if s == nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data == nil
}

// Destroy zeroes the secret. It is safe to call more than once.
func (s *Bytes) Destroy() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	Wipe(s.data)
	s.data = nil
}

// String never reveals the content.
func (s *Bytes) String() string { return redacted }

// GoString keeps %#v from dumping the content.
func (s *Bytes) GoString() string { return redacted }

// LogValue implements slog.LogValuer.
func (s *Bytes) LogValue() slog.Value { return slog.StringValue(redacted) }

// MarshalText refuses to serialise key material by accident.
func (s *Bytes) MarshalText() ([]byte, error) { return []byte(redacted), nil }

// Wipe overwrites b with zeroes.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
