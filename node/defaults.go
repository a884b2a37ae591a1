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
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sunyihoo/walletcore/broker"
	"github.com/sunyihoo/walletcore/internal/flags"
)

// The relay and approval API listen on loopback by default. 8555 avoids the
// ports commonly taken by local Ethereum nodes.
const (
	DefaultHTTPHost = "localhost"
	DefaultHTTPPort = 8555
)

// DefaultConfig is the configuration walletd starts from before the config
// file and flags are applied. An empty DBEngine keeps whatever engine the
// data directory already uses, or pebble for a new one.
var DefaultConfig = Config{
	DataDir:           DefaultDataDir(),
	HTTPHost:          DefaultHTTPHost,
	HTTPPort:          DefaultHTTPPort,
	UIOrigins:         []string{"http://localhost"},
	ApprovalTimeout:   broker.DefaultApprovalTimeout,
	RequestsPerSecond: broker.DefaultRequestsPerSecond,
}

// Server timeouts. Websocket connections are hijacked and not subject to them.
const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// DefaultDataDir picks the per-user application data location of the host
// OS. On Linux $XDG_DATA_HOME wins over ~/.walletcore. It returns "" when no
// home directory can be found; New then requires an explicit one.
// DefaultDataDir 返回当前系统下的默认数据目录，找不到主目录时返回空字符串。
func DefaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if appdata := os.Getenv("LOCALAPPDATA"); appdata != "" {
			return filepath.Join(appdata, "Walletcore")
		}
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "walletcore")
		}
	}
	home := flags.HomeDir()
	if home == "" {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Walletcore")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Walletcore")
	}
	return filepath.Join(home, ".walletcore")
}
