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

import "github.com/urfave/cli/v2"

// Help output groups flags under these headings.
// 帮助信息中的标志分组。
const (
	WalletCategory  = "WALLET"                // vault, accounts and networks
	APICategory     = "API"                   // provider relay and approval API
	StorageCategory = "STORAGE"               // database engine
	LoggingCategory = "LOGGING AND DEBUGGING" // log sinks and pprof
	MiscCategory    = "MISC"
)

func init() {
	for _, f := range []cli.Flag{cli.HelpFlag, cli.VersionFlag} {
		if bf, ok := f.(*cli.BoolFlag); ok {
			bf.Category = MiscCategory
		}
	}
}
