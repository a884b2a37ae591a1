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

package utils

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/node"
	"github.com/sunyihoo/walletcore/params"
	"github.com/urfave/cli/v2"
)

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"https://a.example", []string{"https://a.example"}},
		{" https://a.example , http://localhost:3000,", []string{"https://a.example", "http://localhost:3000"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitAndTrim(tt.input), "input %q", tt.input)
	}
}

func testContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range NodeFlags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetNodeConfig(t *testing.T) {
	cfg := node.DefaultConfig
	ctx := testContext(t,
		"--datadir", "/tmp/walletd",
		"--http.port", "9000",
		"--provider.origins", "https://app.example, https://dapp.example",
		"--sepolia",
		"--autolock", "5",
	)
	SetNodeConfig(ctx, &cfg)

	assert.Equal(t, "/tmp/walletd", cfg.DataDir)
	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, node.DefaultHTTPHost, cfg.HTTPHost)
	assert.Equal(t, []string{"https://app.example", "https://dapp.example"}, cfg.ProviderOrigins)
	assert.Equal(t, uint64(params.SepoliaChainID), cfg.ChainID)
	assert.Equal(t, 5, cfg.AutoLockMinutes)
}

func TestMemoryEngineDropsDefaultDatadir(t *testing.T) {
	cfg := node.DefaultConfig
	SetNodeConfig(testContext(t, "--db.engine", "memory"), &cfg)
	assert.Equal(t, "", cfg.DataDir)
	assert.Equal(t, node.DBMemory, cfg.DBEngine)
}
