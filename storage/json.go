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

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// GetJSON loads the value stored under key and decodes it into T. The boolean
// result is false when the key does not exist.
// GetJSON 读取键并解码为 T；键不存在时返回 false 而不是错误。
func GetJSON[T any](db Reader, key string) (T, bool, error) {
	var v T
	blob, err := db.Get(key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(blob, &v); err != nil {
		return v, false, fmt.Errorf("decoding %q: %w", key, err)
	}
	return v, true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON[T any](db interface{ Set(string, []byte) error }, key string, v T) error {
	blob, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %q: %w", key, err)
	}
	return db.Set(key, blob)
}
