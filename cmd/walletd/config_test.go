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

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/node"
)

func TestConfigRoundTrip(t *testing.T) {
	cfg := walletdConfig{Node: node.DefaultConfig}
	cfg.Node.DataDir = "/var/lib/walletd"
	cfg.Node.ProviderOrigins = []string{"https://app.example"}
	cfg.Node.ApprovalTimeout = 2 * time.Minute
	cfg.Node.ChainID = 11155111

	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)
	file := filepath.Join(t.TempDir(), "walletd.toml")
	require.NoError(t, os.WriteFile(file, out, 0600))

	var loaded walletdConfig
	require.NoError(t, loadConfig(file, &loaded))
	assert.Equal(t, cfg.Node.DataDir, loaded.Node.DataDir)
	assert.Equal(t, cfg.Node.ProviderOrigins, loaded.Node.ProviderOrigins)
	assert.Equal(t, cfg.Node.ApprovalTimeout, loaded.Node.ApprovalTimeout)
	assert.Equal(t, cfg.Node.ChainID, loaded.Node.ChainID)
	assert.Equal(t, cfg.Node.HTTPPort, loaded.Node.HTTPPort)
}

func TestConfigUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "walletd.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Node]\nHTTPPrt = 1\n"), 0600))

	var cfg walletdConfig
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTPPrt")
}
