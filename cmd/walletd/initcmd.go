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
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/sunyihoo/walletcore/cmd/utils"
	"github.com/sunyihoo/walletcore/internal/flags"
	"github.com/sunyihoo/walletcore/keyring"
	"github.com/urfave/cli/v2"
	"golang.org/x/term"
)

var (
	mnemonicFlag = &cli.BoolFlag{
		Name:     "mnemonic",
		Usage:    "Prompt for an existing recovery phrase instead of generating one",
		Category: flags.WalletCategory,
	}
	wordsFlag = &cli.IntFlag{
		Name:     "words",
		Usage:    "Number of words of a generated recovery phrase (12 or 24)",
		Value:    12,
		Category: flags.WalletCategory,
	}
	passwordFileFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "Password file to use for non-interactive password input",
		Category: flags.WalletCategory,
	}

	initCommand = &cli.Command{
		Action:    initWallet,
		Name:      "init",
		Usage:     "Create the wallet vault",
		ArgsUsage: " ",
		Flags:     append([]cli.Flag{configFileFlag, mnemonicFlag, wordsFlag, passwordFileFlag}, utils.NodeFlags...),
		Description: `
The init command creates the encrypted vault holding the recovery phrase and
derives the first account. Without --mnemonic a new phrase is generated and
printed once: write it down, it is the only way to restore the wallet.`,
	}
)

// initWallet is the init command.
func initWallet(ctx *cli.Context) error {
	var bits int
	switch ctx.Int(wordsFlag.Name) {
	case 12:
		bits = 128
	case 24:
		bits = 256
	default:
		return errors.New("--words must be 12 or 24")
	}
	stack, _ := makeConfigNode(ctx)
	defer stack.Close()

	var (
		phrase    string
		generated bool
		err       error
	)
	if ctx.Bool(mnemonicFlag.Name) {
		if phrase, err = readSecret("Recovery phrase: "); err != nil {
			return err
		}
		if err := keyring.ValidateMnemonic(phrase); err != nil {
			return err
		}
	} else {
		if phrase, err = keyring.NewMnemonic(bits); err != nil {
			return err
		}
		generated = true
	}
	password, err := getPassword(ctx)
	if err != nil {
		return err
	}
	w := stack.Wallet()
	if err := w.Create(password, phrase); err != nil {
		return err
	}
	if generated {
		fmt.Printf("\nYour recovery phrase:\n\n\t%s\n\nWrite it down and keep it safe.\n\n", phrase)
	}
	for _, account := range w.Accounts() {
		fmt.Println("Account:", account.Address.Hex())
	}
	return w.Lock()
}

// getPassword reads the password from --password, or prompts for it twice.
func getPassword(ctx *cli.Context) (string, error) {
	if file := ctx.String(passwordFileFlag.Name); file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read password file: %w", err)
		}
		return strings.TrimRight(string(data), "\r\n"), nil
	}
	password, err := readSecret("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := readSecret("Repeat password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}

var stdin = bufio.NewReader(os.Stdin)

// readSecret reads a line without echo from a terminal, or a plain line when
// stdin is not one.
func readSecret(prompt string) (string, error) {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		line, err := stdin.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Print(prompt)

	// The variable syscall.Stdin is of a different type in the Windows API
	// that's why we need the explicit cast.
	pw, err := term.ReadPassword(int(syscall.Stdin)) // nolint:unconvert
	fmt.Println()
	return string(pw), err
}
