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

// walletd is the wallet daemon: it keeps the vault and the keys, relays
// provider calls from pages and waits for the user's approval.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sunyihoo/walletcore/cmd/utils"
	"github.com/sunyihoo/walletcore/internal/debug"
	"github.com/sunyihoo/walletcore/internal/flags"
	"github.com/sunyihoo/walletcore/internal/version"
	"github.com/sunyihoo/walletcore/log"
	"github.com/urfave/cli/v2"
)

const (
	clientIdentifier = "walletd" // Client identifier used in version output
)

var app = flags.NewApp("the walletcore signing daemon")

var versionCommand = &cli.Command{
	Action:    printVersion,
	Name:      "version",
	Usage:     "Print version numbers",
	ArgsUsage: " ",
	Description: `
The output of this command is supposed to be machine-readable.
`,
}

func init() {
	// Initialize the CLI app and start walletd
	app.Action = walletd
	app.Commands = []*cli.Command{
		initCommand,
		dumpConfigCommand,
		versionCommand,
	}
	app.Flags = append([]cli.Flag{configFileFlag}, utils.NodeFlags...)
	app.Flags = append(app.Flags, debug.Flags...)

	app.Before = func(ctx *cli.Context) error {
		flags.MigrateGlobalFlags(ctx)
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// walletd is the main entry point into the system if no special subcommand is
// run. It creates a node based on the command line arguments and runs it until
// it is interrupted.
func walletd(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %s", args[0])
	}
	stack, cfg := makeConfigNode(ctx)
	defer stack.Close()

	if err := stack.Start(); err != nil {
		return err
	}
	st, err := stack.Wallet().Status()
	if err != nil {
		return err
	}
	if !st.Initialized {
		log.Warn("No vault found, create one with 'walletd init' or through the approval API")
	}
	log.Info("Approval API secret", "path", cfg.Node.JWTSecretPath())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	<-sigc
	log.Info("Got interrupt, shutting down...")
	return nil
}

func printVersion(ctx *cli.Context) error {
	for _, line := range version.Info(clientIdentifier) {
		fmt.Println(line)
	}
	return nil
}
