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

// Package version holds the walletd release number. It has no dependencies
// so release tooling can bump it without touching anything else.
package version

// Release components, rendered as Major.Minor.Patch-Meta.
// 发布版本号：主版本.次版本.补丁版本-元数据。
const (
	Major = 0
	Minor = 3
	Patch = 0
	Meta  = "unstable" // "stable" for tagged releases
)
