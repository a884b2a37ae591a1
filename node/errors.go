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

package node

import (
	"errors"
	"syscall"
)

var (
	// ErrDatadirUsed is returned by New when another walletd holds the
	// data directory lock. 数据目录已被其他进程使用。
	ErrDatadirUsed = errors.New("datadir already used by another process")

	ErrNodeStopped = errors.New("node not started")
	ErrNodeRunning = errors.New("node already running")
)

// convertFileLockError maps the errno a contended lock reports on the various
// platforms to ErrDatadirUsed. Errno 32 is ERROR_SHARING_VIOLATION on Windows.
func convertFileLockError(err error) error {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return err
	}
	switch {
	case errno == syscall.EAGAIN, errno == syscall.EWOULDBLOCK, errno == 32:
		return ErrDatadirUsed
	}
	return err
}
