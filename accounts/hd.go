// Copyright 2017 The go-ethereum Authors
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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// HardenedOffset is added to a path component to request hardened derivation.
// 加上该偏移量的路径分量表示强化派生。
const HardenedOffset uint32 = 0x80000000

// DefaultRootDerivationPath is m/44'/60'/0'/0. Relative paths are appended to it.
var DefaultRootDerivationPath = DerivationPath{HardenedOffset + 44, HardenedOffset + 60, HardenedOffset + 0, 0}

// DefaultBaseDerivationPath is the path of the first derived account,
// m/44'/60'/0'/0/0. Later accounts only change the address index.
var DefaultBaseDerivationPath = DerivationPath{HardenedOffset + 44, HardenedOffset + 60, HardenedOffset + 0, 0, 0}

// DerivationPath is a BIP-32 path in binary form. The wallet only derives
// BIP-44 Ethereum paths
//
//	m / 44' / 60' / 0' / 0 / address_index
//
// and increments address_index for each new account.
type DerivationPath []uint32

var (
	errEmptyPath     = errors.New("empty derivation path")
	errAmbiguousPath = errors.New("ambiguous path: use 'm/' prefix for absolute paths, or no leading '/' for relative ones")
)

// ParseDerivationPath parses either an absolute path starting at "m" or a
// path relative to DefaultRootDerivationPath. A trailing ' marks a hardened
// component. Whitespace around components is ignored.
func ParseDerivationPath(s string) (DerivationPath, error) {
	parts := strings.Split(s, "/")
	var path DerivationPath

	switch head := strings.TrimSpace(parts[0]); head {
	case "m":
		parts = parts[1:]
	case "":
		if len(parts) == 1 {
			return nil, errEmptyPath
		}
		return nil, errAmbiguousPath
	default:
		path = append(path, DefaultRootDerivationPath...)
	}
	if len(parts) == 0 {
		return nil, errEmptyPath
	}
	for _, part := range parts {
		n, err := parseComponent(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		path = append(path, n)
	}
	return path, nil
}

func parseComponent(s string) (uint32, error) {
	limit := uint64(^uint32(0))
	var offset uint32
	if trimmed, ok := strings.CutSuffix(s, "'"); ok {
		s = strings.TrimSpace(trimmed)
		offset = HardenedOffset
		limit = uint64(HardenedOffset - 1)
	}
	n, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid component %q", s)
	}
	if n > limit {
		return 0, fmt.Errorf("component %d out of range [0, %d]", n, limit)
	}
	return offset + uint32(n), nil
}

// String renders the path with hardened components marked by '.
func (path DerivationPath) String() string {
	var b strings.Builder
	b.WriteByte('m')
	for _, n := range path {
		b.WriteByte('/')
		if n >= HardenedOffset {
			b.WriteString(strconv.FormatUint(uint64(n-HardenedOffset), 10))
			b.WriteByte('\'')
		} else {
			b.WriteString(strconv.FormatUint(uint64(n), 10))
		}
	}
	return b.String()
}

// MarshalText encodes the path in its string form, which is also what JSON
// carries.
func (path DerivationPath) MarshalText() ([]byte, error) {
	return []byte(path.String()), nil
}

// UnmarshalText parses a path produced by MarshalText.
func (path *DerivationPath) UnmarshalText(text []byte) error {
	p, err := ParseDerivationPath(string(text))
	if err != nil {
		return err
	}
	*path = p
	return nil
}

// DerivationPathAt returns m/44'/60'/0'/0/{index}.
func DerivationPathAt(index uint32) DerivationPath {
	path := append(DerivationPath(nil), DefaultBaseDerivationPath...)
	path[len(path)-1] = index
	return path
}
