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

package accounts

// AccountsByIndex implements sort.Interface for []Account. Derived accounts
// come first in index order, followed by imported accounts in creation order.
// AccountsByIndex 按派生索引排序，导入账户按创建时间排在最后。
type AccountsByIndex []Account

func (a AccountsByIndex) Len() int      { return len(a) }
func (a AccountsByIndex) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

func (a AccountsByIndex) Less(i, j int) bool {
	x, y := a[i], a[j]
	if x.Imported() != y.Imported() {
		return !x.Imported()
	}
	if x.Index != y.Index {
		return x.Index < y.Index
	}
	if !x.CreatedAt.Equal(y.CreatedAt) {
		return x.CreatedAt.Before(y.CreatedAt)
	}
	return x.Address.Cmp(y.Address) < 0
}
