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
	"flag"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
)

// DirectoryFlag is a string flag holding a filesystem path. A leading ~ and
// embedded environment variables are expanded when the value is set, from
// the command line or from the environment, so consumers always see a clean
// path. ~otheruser is left alone.
//
// 目录标志：在设置值时展开 ~ 与环境变量。
type DirectoryFlag struct {
	cli.StringFlag
}

// directoryValue is the flag.Value installed for every name of the flag. It
// writes through to the embedded StringFlag's Value.
type directoryValue string

func (v *directoryValue) String() string { return string(*v) }

func (v *directoryValue) Set(s string) error {
	*v = directoryValue(expandPath(s))
	return nil
}

// Apply registers the flag on set. It replaces StringFlag.Apply, which would
// store the raw argument.
func (f *DirectoryFlag) Apply(set *flag.FlagSet) error {
	if f.Value != "" {
		f.Value = expandPath(f.Value)
	}
	for _, env := range f.EnvVars {
		if v, ok := os.LookupEnv(strings.TrimSpace(env)); ok {
			f.Value = expandPath(v)
			f.HasBeenSet = true
			break
		}
	}
	value := (*directoryValue)(&f.Value)
	for _, name := range f.Names() {
		set.Var(value, strings.TrimSpace(name), f.Usage)
	}
	return nil
}

// expandPath resolves ~/ to the home directory, substitutes $VARS and cleans
// the result.
func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home := HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

// HomeDir returns $HOME, falling back to the account database.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
