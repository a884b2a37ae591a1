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

package flags

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	tests := map[string]string{
		"/home/someuser/tmp": "/home/someuser/tmp",
		"~/tmp":              home + "/tmp",
		"~thisOtherUser/b/":  "~thisOtherUser/b",
		"$DDDXXX/a/b":        "/tmp/a/b",
		"/a/b/":              "/a/b",
	}
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	os.Setenv("DDDXXX", "/tmp")
	defer os.Unsetenv("DDDXXX")
	for test, expected := range tests {
		assert.Equal(t, expected, expandPath(test), "path %s", test)
	}
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, []string{"WALLETD_HTTP_PORT"}, EnvVar("http.port"))
	assert.Equal(t, []string{"WALLETD_DATADIR"}, EnvVar("datadir"))
}

func TestDirectoryFlag(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	t.Setenv("HOME", "/home/wallet")
	t.Setenv("WALLETD_TEST_DIR", "")

	f := &DirectoryFlag{StringFlag: cli.StringFlag{Name: "dir", Value: "~/default"}}
	var got string
	app := &cli.App{
		Flags: []cli.Flag{f},
		Action: func(ctx *cli.Context) error {
			got = ctx.String("dir")
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"app"}))
	assert.Equal(t, "/home/wallet/default", got)

	require.NoError(t, app.Run([]string{"app", "--dir", "~/data/../keys/"}))
	assert.Equal(t, "/home/wallet/keys", got)
}
