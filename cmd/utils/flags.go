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

// Package utils contains internal helper functions for walletcore commands.
package utils

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sunyihoo/walletcore/internal/flags"
	"github.com/sunyihoo/walletcore/node"
	"github.com/sunyihoo/walletcore/params"
	"github.com/urfave/cli/v2"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &flags.DirectoryFlag{StringFlag: cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the wallet database and the jwt secret",
		Value:    node.DefaultDataDir(),
		EnvVars:  flags.EnvVar("datadir"),
		Category: flags.WalletCategory,
	}}
	ChainIDFlag = &cli.Uint64Flag{
		Name:     "chainid",
		Usage:    "Select the active network by chain id (For built-in networks: use --mainnet, --sepolia, --holesky instead)",
		EnvVars:  flags.EnvVar("chainid"),
		Category: flags.WalletCategory,
	}
	MainnetFlag = &cli.BoolFlag{
		Name:     "mainnet",
		Usage:    "Ethereum mainnet",
		Category: flags.WalletCategory,
	}
	SepoliaFlag = &cli.BoolFlag{
		Name:     "sepolia",
		Usage:    "Sepolia network: pre-configured proof-of-stake test network",
		Category: flags.WalletCategory,
	}
	HoleskyFlag = &cli.BoolFlag{
		Name:     "holesky",
		Usage:    "Holesky network: pre-configured proof-of-stake test network",
		Category: flags.WalletCategory,
	}
	AutoLockFlag = &cli.IntFlag{
		Name:     "autolock",
		Usage:    "Minutes of inactivity before the wallet locks itself (0 keeps the stored setting)",
		EnvVars:  flags.EnvVar("autolock"),
		Category: flags.WalletCategory,
	}

	// Storage settings
	DBEngineFlag = &cli.StringFlag{
		Name:     "db.engine",
		Usage:    "Backing database implementation to use ('memory', 'pebble' or 'leveldb')",
		Value:    node.DefaultConfig.DBEngine,
		EnvVars:  flags.EnvVar("db.engine"),
		Category: flags.StorageCategory,
	}

	// API settings
	HTTPHostFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "Listening interface of the provider relay and the approval API",
		Value:    node.DefaultHTTPHost,
		EnvVars:  flags.EnvVar("http.addr"),
		Category: flags.APICategory,
	}
	HTTPPortFlag = &cli.IntFlag{
		Name:     "http.port",
		Usage:    "Listening port of the provider relay and the approval API",
		Value:    node.DefaultHTTPPort,
		EnvVars:  flags.EnvVar("http.port"),
		Category: flags.APICategory,
	}
	ProviderOriginsFlag = &cli.StringFlag{
		Name:     "provider.origins",
		Usage:    "Comma separated list of page origins allowed to connect to the provider relay (* = any)",
		EnvVars:  flags.EnvVar("provider.origins"),
		Category: flags.APICategory,
	}
	UIOriginsFlag = &cli.StringFlag{
		Name:     "ui.origins",
		Usage:    "Comma separated list of origins allowed to use the approval API from a browser",
		EnvVars:  flags.EnvVar("ui.origins"),
		Category: flags.APICategory,
	}
	JWTSecretFlag = &flags.DirectoryFlag{StringFlag: cli.StringFlag{
		Name:     "authrpc.jwtsecret",
		Usage:    "Path to a JWT secret to use for the approval API",
		EnvVars:  flags.EnvVar("authrpc.jwtsecret"),
		Category: flags.APICategory,
	}}
	ApprovalTimeoutFlag = &cli.DurationFlag{
		Name:     "approval.timeout",
		Usage:    "How long a request waits for the user's decision",
		Value:    node.DefaultConfig.ApprovalTimeout,
		Category: flags.APICategory,
	}
	RateLimitFlag = &cli.Float64Flag{
		Name:     "ratelimit",
		Usage:    "Provider requests per second allowed per origin (negative disables limiting)",
		Value:    node.DefaultConfig.RequestsPerSecond,
		Category: flags.APICategory,
	}
)

// NodeFlags are the flags shared by every command that opens the wallet.
var NodeFlags = []cli.Flag{
	DataDirFlag,
	ChainIDFlag,
	MainnetFlag,
	SepoliaFlag,
	HoleskyFlag,
	AutoLockFlag,
	DBEngineFlag,
	HTTPHostFlag,
	HTTPPortFlag,
	ProviderOriginsFlag,
	UIOriginsFlag,
	JWTSecretFlag,
	ApprovalTimeoutFlag,
	RateLimitFlag,
}

// SetNodeConfig applies node-related command line flags to the config.
func SetNodeConfig(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = ctx.String(DataDirFlag.Name)
	}
	if ctx.IsSet(DBEngineFlag.Name) {
		cfg.DBEngine = ctx.String(DBEngineFlag.Name)
	}
	if cfg.DBEngine == node.DBMemory && !ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = ""
	}
	if ctx.IsSet(HTTPHostFlag.Name) {
		cfg.HTTPHost = ctx.String(HTTPHostFlag.Name)
	}
	if ctx.IsSet(HTTPPortFlag.Name) {
		cfg.HTTPPort = ctx.Int(HTTPPortFlag.Name)
	}
	if ctx.IsSet(ProviderOriginsFlag.Name) {
		cfg.ProviderOrigins = SplitAndTrim(ctx.String(ProviderOriginsFlag.Name))
	}
	if ctx.IsSet(UIOriginsFlag.Name) {
		cfg.UIOrigins = SplitAndTrim(ctx.String(UIOriginsFlag.Name))
	}
	if ctx.IsSet(JWTSecretFlag.Name) {
		cfg.JWTSecret = ctx.String(JWTSecretFlag.Name)
	}
	if ctx.IsSet(AutoLockFlag.Name) {
		cfg.AutoLockMinutes = ctx.Int(AutoLockFlag.Name)
	}
	if ctx.IsSet(ApprovalTimeoutFlag.Name) {
		cfg.ApprovalTimeout = ctx.Duration(ApprovalTimeoutFlag.Name)
	}
	if ctx.IsSet(RateLimitFlag.Name) {
		cfg.RequestsPerSecond = ctx.Float64(RateLimitFlag.Name)
	}
	setChainID(ctx, cfg)
}

func setChainID(ctx *cli.Context, cfg *node.Config) {
	if err := flags.CheckExclusive(ctx, MainnetFlag, SepoliaFlag, HoleskyFlag, ChainIDFlag); err != nil {
		Fatalf("%v", err)
	}
	switch {
	case ctx.Bool(MainnetFlag.Name):
		cfg.ChainID = params.MainnetChainID
	case ctx.Bool(SepoliaFlag.Name):
		cfg.ChainID = params.SepoliaChainID
	case ctx.Bool(HoleskyFlag.Name):
		cfg.ChainID = params.HoleskyChainID
	case ctx.IsSet(ChainIDFlag.Name):
		cfg.ChainID = ctx.Uint64(ChainIDFlag.Name)
	}
}

// SplitAndTrim splits input separated by a comma
// and trims excessive white space from the substrings.
func SplitAndTrim(input string) (ret []string) {
	l := strings.Split(input, ",")
	for _, r := range l {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := os.Stderr
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}
