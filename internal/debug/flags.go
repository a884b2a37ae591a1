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

// Package debug configures logging and profiling from command line flags.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/sunyihoo/walletcore/internal/flags"
	"github.com/sunyihoo/walletcore/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage:    "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value:    3,
		EnvVars:  flags.EnvVar("verbosity"),
		Category: flags.LoggingCategory,
	}
	logFormatFlag = &cli.StringFlag{
		Name:     "log.format",
		Usage:    "Log format to use (json|logfmt|terminal)",
		EnvVars:  flags.EnvVar("log.format"),
		Category: flags.LoggingCategory,
	}
	logFileFlag = &cli.StringFlag{
		Name:     "log.file",
		Usage:    "Also write logs to a file (created with mode 0600)",
		Category: flags.LoggingCategory,
	}
	logRotateFlag = &cli.BoolFlag{
		Name:     "log.rotate",
		Usage:    "Enables log file rotation",
		Category: flags.LoggingCategory,
	}
	logMaxSizeMBsFlag = &cli.IntFlag{
		Name:     "log.maxsize",
		Usage:    "Maximum size in MBs of a single log file",
		Value:    100,
		Category: flags.LoggingCategory,
	}
	logMaxBackupsFlag = &cli.IntFlag{
		Name:     "log.maxbackups",
		Usage:    "Maximum number of log files to retain",
		Value:    10,
		Category: flags.LoggingCategory,
	}
	logMaxAgeFlag = &cli.IntFlag{
		Name:     "log.maxage",
		Usage:    "Maximum number of days to retain a log file",
		Value:    30,
		Category: flags.LoggingCategory,
	}
	logCompressFlag = &cli.BoolFlag{
		Name:     "log.compress",
		Usage:    "Compress the log files",
		Category: flags.LoggingCategory,
	}
	pprofFlag = &cli.BoolFlag{
		Name:     "pprof",
		Usage:    "Enable the pprof HTTP server",
		Category: flags.LoggingCategory,
	}
	pprofPortFlag = &cli.IntFlag{
		Name:     "pprof.port",
		Usage:    "pprof HTTP server listening port",
		Value:    6060,
		Category: flags.LoggingCategory,
	}
	pprofAddrFlag = &cli.StringFlag{
		Name:     "pprof.addr",
		Usage:    "pprof HTTP server listening interface",
		Value:    "127.0.0.1",
		Category: flags.LoggingCategory,
	}
)

// Flags are the logging and profiling flags shared by every walletd command.
var Flags = []cli.Flag{
	verbosityFlag,
	logFormatFlag,
	logFileFlag,
	logRotateFlag,
	logMaxSizeMBsFlag,
	logMaxBackupsFlag,
	logMaxAgeFlag,
	logCompressFlag,
	pprofFlag,
	pprofAddrFlag,
	pprofPortFlag,
}

// logOutputFile is the file sink opened by Setup, closed again by Exit.
var logOutputFile io.WriteCloser

// Setup installs the root logger described by the logging flags and starts
// pprof when requested. It runs in the app's Before hook, ahead of any
// command.
// Setup 根据命令行标志配置日志与 pprof，应尽早调用。
func Setup(ctx *cli.Context) error {
	format := ctx.String(logFormatFlag.Name)
	if format == "" {
		format = "terminal"
	}
	useColor := format == "terminal" && stderrIsTerminal()

	var terminal io.Writer = os.Stderr
	if useColor {
		terminal = colorable.NewColorableStderr()
	}
	output, location, err := openLogOutput(ctx, terminal)
	if err != nil {
		return err
	}
	handler, err := newHandler(format, output, log.FromLegacyLevel(ctx.Int(verbosityFlag.Name)), useColor)
	if err != nil {
		return err
	}
	log.SetDefault(log.NewLogger(handler))

	if location != "" {
		log.Info("Logging configured", "format", format, "rotate", ctx.Bool(logRotateFlag.Name), "location", location)
	}
	if ctx.Bool(pprofFlag.Name) {
		StartPProf(net.JoinHostPort(ctx.String(pprofAddrFlag.Name), strconv.Itoa(ctx.Int(pprofPortFlag.Name))))
	}
	return nil
}

// openLogOutput returns the writer records go to: the terminal, plus a plain
// or rotated file when configured. location names the file, if any.
func openLogOutput(ctx *cli.Context, terminal io.Writer) (out io.Writer, location string, err error) {
	file := ctx.String(logFileFlag.Name)
	if file != "" {
		if err := validateLogLocation(filepath.Dir(file)); err != nil {
			return nil, "", fmt.Errorf("failed to initialize file logger: %v", err)
		}
	}
	switch {
	case ctx.Bool(logRotateFlag.Name):
		// Lumberjack picks <processname>-lumberjack.log in the temp dir when
		// no file is given.
		location = file
		if location == "" {
			location = filepath.Join(os.TempDir(), "walletd-lumberjack.log")
		}
		logOutputFile = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    ctx.Int(logMaxSizeMBsFlag.Name),
			MaxBackups: ctx.Int(logMaxBackupsFlag.Name),
			MaxAge:     ctx.Int(logMaxAgeFlag.Name),
			Compress:   ctx.Bool(logCompressFlag.Name),
		}
	case file != "":
		// Logs carry addresses and site origins, keep them private.
		f, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, "", err
		}
		logOutputFile, location = f, file
	default:
		return terminal, "", nil
	}
	return io.MultiWriter(terminal, logOutputFile), location, nil
}

// newHandler builds the slog handler for one of the supported formats.
func newHandler(format string, out io.Writer, level slog.Level, useColor bool) (slog.Handler, error) {
	switch format {
	case "json":
		return log.JSONHandlerWithLevel(out, level), nil
	case "logfmt":
		return log.LogfmtHandlerWithLevel(out, level), nil
	case "terminal":
		return log.NewTerminalHandlerWithLevel(out, level, useColor), nil
	}
	return nil, fmt.Errorf("unknown log format: %v", format)
}

func stderrIsTerminal() bool {
	fd := os.Stderr.Fd()
	return (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("TERM") != "dumb"
}

// StartPProf serves net/http/pprof on address in the background. The daemon
// holds decrypted keys in memory, so a non-loopback address is warned about.
func StartPProf(address string) {
	if host, _, err := net.SplitHostPort(address); err == nil {
		if ip := net.ParseIP(host); host != "localhost" && (ip == nil || !ip.IsLoopback()) {
			log.Warn("pprof server reachable from the network", "addr", address)
		}
	}
	log.Info("Starting pprof server", "addr", fmt.Sprintf("http://%s/debug/pprof", address))
	go func() {
		if err := http.ListenAndServe(address, nil); err != nil {
			log.Error("Failure in running pprof server", "err", err)
		}
	}()
}

// Exit closes the log file opened by Setup.
func Exit() {
	if logOutputFile != nil {
		logOutputFile.Close()
		logOutputFile = nil
	}
}

// validateLogLocation creates dir if needed and probes that it is writable.
func validateLogLocation(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("error creating the directory: %w", err)
	}
	probe, err := os.CreateTemp(dir, ".walletd-probe-*")
	if err != nil {
		return err
	}
	probe.Close()
	return os.Remove(probe.Name())
}
