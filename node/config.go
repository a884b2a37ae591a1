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
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"time"
)

const (
	datadirJWTKey  = "jwtsecret" // Path within the datadir to the approval API jwt secret
	datadirWallet  = "wallet"    // Path within the datadir to the wallet database
	datadirLockKey = "LOCK"      // Path within the datadir to the instance lock
)

// Storage engines.
const (
	DBMemory  = "memory"
	DBLeveldb = "leveldb"
	DBPebble  = "pebble"
)

// Config collects the settings of a wallet daemon. It is loaded from TOML and
// overridden by command line flags.
// Config 汇集钱包守护进程的设置，从 TOML 加载并可被命令行参数覆盖。
type Config struct {
	// DataDir is the file system folder for the wallet database and the jwt
	// secret. It must be set unless DBEngine is "memory".
	DataDir string

	// DBEngine selects the storage engine: "memory", "leveldb" or "pebble".
	// Empty uses whatever exists in DataDir and defaults to pebble.
	// 存储引擎，留空时沿用数据目录中已有的引擎，默认 pebble。
	DBEngine string `toml:",omitempty"`

	// HTTPHost is the interface the provider relay and the approval API listen
	// on. Anything but loopback exposes the wallet to the network.
	HTTPHost string

	// HTTPPort is the TCP port of the server. Zero picks a free port.
	HTTPPort int `toml:",omitempty"`

	// ProviderOrigins lists the page origins allowed to open the provider
	// relay. "*" allows any origin.
	ProviderOrigins []string `toml:",omitempty"`

	// UIOrigins lists the origins allowed to call the approval API from a
	// browser.
	UIOrigins []string `toml:",omitempty"`

	// JWTSecret is the path to the hex-encoded jwt secret. Empty uses
	// <datadir>/jwtsecret, generated on first start.
	// JWTSecret 是十六进制编码的 JWT 秘密的路径。
	JWTSecret string `toml:",omitempty"`

	// AutoLockMinutes overrides the stored auto-lock timeout when positive.
	AutoLockMinutes int `toml:",omitempty"`

	// ApprovalTimeout bounds how long a request waits for a decision.
	ApprovalTimeout time.Duration `toml:",omitempty"`

	// RequestsPerSecond limits provider requests per origin. Negative values
	// disable limiting.
	RequestsPerSecond float64 `toml:",omitempty"`

	// ChainID selects the active network at startup when set.
	ChainID uint64 `toml:",omitempty"`

	// KDFIterations overrides the vault PBKDF2 iteration count. Only tests
	// lower it.
	KDFIterations int `toml:"-"`
}

// HTTPEndpoint resolves the listen address of the server.
func (c *Config) HTTPEndpoint() string {
	return net.JoinHostPort(c.HTTPHost, strconv.Itoa(c.HTTPPort))
}

// ResolvePath resolves path in the data directory. Absolute paths are
// returned unchanged.
// ResolvePath 将路径解析为数据目录中的路径，绝对路径原样返回。
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if c.DataDir == "" {
		return ""
	}
	return filepath.Join(c.DataDir, path)
}

// JWTSecretPath returns the configured jwt secret location.
func (c *Config) JWTSecretPath() string {
	if c.JWTSecret != "" {
		return c.ResolvePath(c.JWTSecret)
	}
	return c.ResolvePath(datadirJWTKey)
}

func (c *Config) validate() error {
	switch c.DBEngine {
	case "", DBMemory, DBLeveldb, DBPebble:
	default:
		return fmt.Errorf("unknown db.engine %v", c.DBEngine)
	}
	if c.DataDir == "" && c.DBEngine != DBMemory {
		return fmt.Errorf("datadir is required for db.engine %q", c.DBEngine)
	}
	if c.HTTPPort < 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http port %d", c.HTTPPort)
	}
	return nil
}
