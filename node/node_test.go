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
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/transport"
)

const testPhrase = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func testConfig(t *testing.T) *Config {
	return &Config{
		DataDir:       t.TempDir(),
		HTTPHost:      "127.0.0.1",
		HTTPPort:      0,
		KDFIterations: 1000,
	}
}

func TestDatadirLocked(t *testing.T) {
	conf := testConfig(t)
	n, err := New(conf)
	require.NoError(t, err)

	_, err = New(conf)
	assert.ErrorIs(t, err, ErrDatadirUsed)

	require.NoError(t, n.Close())
	assert.ErrorIs(t, n.Close(), ErrNodeStopped)

	// The directory is free again.
	n, err = New(conf)
	require.NoError(t, err)
	require.NoError(t, n.Close())
}

func TestConfigValidation(t *testing.T) {
	_, err := New(&Config{DBEngine: "rocksdb", DataDir: t.TempDir()})
	assert.Error(t, err)
	_, err = New(&Config{DBEngine: DBPebble})
	assert.Error(t, err)

	n, err := New(&Config{DBEngine: DBMemory, HTTPHost: "127.0.0.1"})
	require.NoError(t, err)
	assert.Len(t, n.JWTSecret(), transport.JWTSecretLength)
	require.NoError(t, n.Close())
}

func TestJWTSecretPersists(t *testing.T) {
	conf := testConfig(t)
	n, err := New(conf)
	require.NoError(t, err)
	secret := n.JWTSecret()
	require.NoError(t, n.Close())

	data, err := os.ReadFile(filepath.Join(conf.DataDir, datadirJWTKey))
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(secret), string(data))

	n, err = New(conf)
	require.NoError(t, err)
	defer n.Close()
	assert.Equal(t, secret, n.JWTSecret())
}

func TestInvalidJWTSecret(t *testing.T) {
	conf := testConfig(t)
	conf.JWTSecret = filepath.Join(conf.DataDir, "bad")
	require.NoError(t, os.WriteFile(conf.JWTSecret, []byte("0x1234"), 0600))
	_, err := New(conf)
	assert.Error(t, err)
}

func TestWalletSurvivesRestart(t *testing.T) {
	for _, engine := range []string{DBLeveldb, DBPebble} {
		t.Run(engine, func(t *testing.T) {
			conf := testConfig(t)
			conf.DBEngine = engine
			n, err := New(conf)
			require.NoError(t, err)
			require.NoError(t, n.Wallet().Create("correct horse", testPhrase))
			require.NoError(t, n.Wallet().Networks().Switch(11155111))
			require.NoError(t, n.Close())

			// The engine is detected from the directory.
			conf.DBEngine = ""
			n, err = New(conf)
			require.NoError(t, err)
			defer n.Close()
			assert.Equal(t, engine, preexistingDatabase(conf.ResolvePath(datadirWallet)))

			st, err := n.Wallet().Status()
			require.NoError(t, err)
			assert.True(t, st.Initialized)
			assert.False(t, st.Unlocked)
			assert.Equal(t, "0xaa36a7", st.ChainID)
			require.NoError(t, n.Wallet().Unlock("correct horse"))
		})
	}
}

func TestEngineMismatch(t *testing.T) {
	conf := testConfig(t)
	conf.DBEngine = DBLeveldb
	n, err := New(conf)
	require.NoError(t, err)
	require.NoError(t, n.Close())

	conf.DBEngine = DBPebble
	_, err = New(conf)
	assert.Error(t, err)
}

func TestChainIDSelection(t *testing.T) {
	conf := testConfig(t)
	conf.ChainID = 17000
	n, err := New(conf)
	require.NoError(t, err)
	assert.Equal(t, uint64(17000), n.Wallet().Networks().ChainID())
	require.NoError(t, n.Close())

	conf.ChainID = 99999
	_, err = New(conf)
	assert.Error(t, err)
}

func TestStartServes(t *testing.T) {
	n, err := New(testConfig(t))
	require.NoError(t, err)
	require.NoError(t, n.Start())
	assert.ErrorIs(t, n.Start(), ErrNodeRunning)
	assert.False(t, strings.HasSuffix(n.HTTPEndpoint(), ":0"))

	token, err := transport.NewToken(n.JWTSecret())
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, "http://"+n.HTTPEndpoint()+"/status", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, n.Close())
	_, err = http.Get("http://" + n.HTTPEndpoint() + "/status")
	assert.Error(t, err)
	assert.ErrorIs(t, n.Start(), ErrNodeStopped)
}
