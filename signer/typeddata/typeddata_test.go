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

package typeddata

import (
	"bytes"
	"encoding/hex"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/common"
)

const mailJSON = `{
	"types": {
		"EIP712Domain": [
			{"name": "name", "type": "string"},
			{"name": "version", "type": "string"},
			{"name": "chainId", "type": "uint256"},
			{"name": "verifyingContract", "type": "address"}
		],
		"Person": [
			{"name": "name", "type": "string"},
			{"name": "wallet", "type": "address"}
		],
		"Mail": [
			{"name": "from", "type": "Person"},
			{"name": "to", "type": "Person"},
			{"name": "contents", "type": "string"}
		]
	},
	"primaryType": "Mail",
	"domain": {
		"name": "Ether Mail",
		"version": "1",
		"chainId": 1,
		"verifyingContract": "0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"
	},
	"message": {
		"from": {"name": "Cow", "wallet": "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},
		"to": {"name": "Bob", "wallet": "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},
		"contents": "Hello, Bob!"
	}
}`

func mustParse(t *testing.T, input string) *TypedData {
	t.Helper()
	td, err := Parse([]byte(input))
	require.NoError(t, err)
	return td
}

func TestMailExample(t *testing.T) {
	td := mustParse(t, mailJSON)

	assert.Equal(t, "Mail(Person from,Person to,string contents)Person(string name,address wallet)", string(td.EncodeType("Mail")))
	assert.Equal(t, "a0cedeb2dc280ba39b857546d74f5549c3a1d7bdc2dd96bf881f76108e23dac2", hex.EncodeToString(td.TypeHash("Mail")))

	mailHash, err := td.HashStruct("Mail", td.Message)
	require.NoError(t, err)
	assert.Equal(t, "c52c0ee5d84264471806290a3f2c4cecfc5490626bf912d01f240d7a274b371e", hex.EncodeToString(mailHash))

	sep, err := td.DomainSeparator()
	require.NoError(t, err)
	assert.Equal(t, "f2cee375fa42b42143804025fc449deafd50cc031ca257e0b194a650a912090f", hex.EncodeToString(sep))

	hash, raw, err := TypedDataAndHash(td)
	require.NoError(t, err)
	assert.Equal(t, "be609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2", hex.EncodeToString(hash))
	assert.True(t, strings.HasPrefix(raw, "\x19\x01"))
	assert.Len(t, raw, 66)
}

func TestParseStringWrapped(t *testing.T) {
	quoted := `"` + strings.NewReplacer(`"`, `\"`, "\n", "", "\t", "").Replace(mailJSON) + `"`
	td := mustParse(t, quoted)
	hash, _, err := TypedDataAndHash(td)
	require.NoError(t, err)
	assert.Equal(t, "be609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2", hex.EncodeToString(hash))
}

func TestInferredDomainType(t *testing.T) {
	td := mustParse(t, mailJSON)
	delete(td.Types, DomainType)

	hash, _, err := TypedDataAndHash(td)
	require.NoError(t, err)
	assert.Equal(t, "be609aee343fb3c4b28e1df9e632fca64fcfaede20f02e86244efddf30957bd2", hex.EncodeToString(hash))

	// The caller's types are left alone.
	_, ok := td.Types[DomainType]
	assert.False(t, ok)
}

func TestDependenciesSorted(t *testing.T) {
	td := &TypedData{Types: Types{
		"Top":   {{Name: "z", Type: "Zeta"}, {Name: "a", Type: "Alpha[]"}},
		"Zeta":  {{Name: "m", Type: "Mid"}},
		"Mid":   {{Name: "v", Type: "uint8"}},
		"Alpha": {{Name: "v", Type: "bool"}},
	}}
	assert.Equal(t, "Top(Zeta z,Alpha[] a)Alpha(bool v)Mid(uint8 v)Zeta(Mid m)", string(td.EncodeType("Top")))
	assert.Equal(t, []string{"Top", "Zeta", "Mid", "Alpha"}, td.Dependencies("Top", nil))
}

func TestEncodePrimitive(t *testing.T) {
	word := func(s string) []byte {
		b, err := hex.DecodeString(s)
		require.NoError(t, err)
		return b
	}
	ones := bytes.Repeat([]byte{0xff}, 32)

	tests := []struct {
		typ   string
		value interface{}
		want  []byte
		err   bool
	}{
		{typ: "uint8", value: "255", want: word("00000000000000000000000000000000000000000000000000000000000000ff")},
		{typ: "uint8", value: "256", err: true},
		{typ: "uint256", value: "-1", err: true},
		{typ: "uint256", value: "0x0100", want: word("0000000000000000000000000000000000000000000000000000000000000100")},
		{typ: "uint256", value: float64(42), want: word("000000000000000000000000000000000000000000000000000000000000002a")},
		{typ: "uint256", value: 1.5, err: true},
		{typ: "uint256", value: "1e3", want: word("00000000000000000000000000000000000000000000000000000000000003e8")},
		{typ: "uint256", value: "1e600000000", err: true},
		{typ: "int256", value: "-1e600000000", err: true},
		{typ: "int8", value: "-128", want: word("ffffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff80")},
		{typ: "int8", value: "-129", err: true},
		{typ: "int8", value: "128", err: true},
		{typ: "int256", value: "-1", want: ones},
		{typ: "int7", value: "1", err: true},
		{typ: "bool", value: true, want: word("0000000000000000000000000000000000000000000000000000000000000001")},
		{typ: "bool", value: "true", err: true},
		{typ: "address", value: "0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826", want: word("000000000000000000000000cd2a3d9f938e13cd947ec05abc7fe734df8dd826")},
		{typ: "address", value: "0x1234", err: true},
		{typ: "bytes4", value: "0xdeadbeef", want: word("deadbeef00000000000000000000000000000000000000000000000000000000")},
		{typ: "bytes2", value: "0xde", want: word("de00000000000000000000000000000000000000000000000000000000000000")},
		{typ: "bytes1", value: "0xdead", err: true},
		{typ: "bytes33", value: "0x00", err: true},
		{typ: "string", value: "", want: word("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")},
		{typ: "bytes", value: "0x", want: word("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")},
		{typ: "float", value: "1", err: true},
	}
	for _, tt := range tests {
		got, err := EncodePrimitiveValue(tt.typ, tt.value)
		if tt.err {
			assert.Error(t, err, "%s %v", tt.typ, tt.value)
			continue
		}
		require.NoError(t, err, "%s %v", tt.typ, tt.value)
		assert.Equal(t, tt.want, got, "%s %v", tt.typ, tt.value)
	}
}

func TestHugeExponentStaysCheap(t *testing.T) {
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := EncodePrimitiveValue("uint256", "1e600000000")
	runtime.ReadMemStats(&after)

	assert.ErrorContains(t, err, "invalid integer value")
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestArrays(t *testing.T) {
	td := mustParse(t, `{
		"types": {
			"Group": [{"name": "members", "type": "address[2]"}, {"name": "scores", "type": "uint8[][]"}]
		},
		"primaryType": "Group",
		"domain": {"name": "G"},
		"message": {
			"members": ["0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826", "0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"],
			"scores": [[1, 2], [3]]
		}
	}`)
	_, _, err := TypedDataAndHash(td)
	require.NoError(t, err)

	td.Message["members"] = []interface{}{"0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"}
	_, _, err = TypedDataAndHash(td)
	assert.Error(t, err)
}

func TestValidation(t *testing.T) {
	tests := map[string]string{
		"undefined reference": `{"types":{"A":[{"name":"b","type":"B"}]},"primaryType":"A","domain":{"name":"x"},"message":{}}`,
		"self reference":      `{"types":{"A":[{"name":"a","type":"A[]"}]},"primaryType":"A","domain":{"name":"x"},"message":{}}`,
		"empty domain":        `{"types":{"A":[{"name":"a","type":"uint8"}]},"primaryType":"A","domain":{},"message":{"a":1}}`,
		"unknown primary":     `{"types":{"A":[{"name":"a","type":"uint8"}]},"primaryType":"B","domain":{"name":"x"},"message":{}}`,
		"extra data":          `{"types":{"A":[{"name":"a","type":"uint8"}]},"primaryType":"A","domain":{"name":"x"},"message":{"a":1,"b":2}}`,
		"missing field":       `{"types":{"A":[{"name":"a","type":"uint8"}]},"primaryType":"A","domain":{"name":"x"},"message":{}}`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			td, err := Parse([]byte(input))
			require.NoError(t, err)
			_, _, err = TypedDataAndHash(td)
			assert.Error(t, err)
		})
	}

	_, err := Parse([]byte(`{"types":{}}`))
	assert.Error(t, err)
	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	td := mustParse(t, mailJSON)
	nvts, err := td.Format()
	require.NoError(t, err)
	require.Len(t, nvts, 2)

	assert.Equal(t, DomainType, nvts[0].Name)
	mail := nvts[1].Value.([]*NameValueType)
	require.Len(t, mail, 3)
	from := mail[0].Value.([]*NameValueType)
	assert.Equal(t, "Cow", from[0].Value)
	assert.Equal(t, common.HexToAddress("0xcd2a3d9f938e13cd947ec05abc7fe734df8dd826").Hex(), from[1].Value)

	out := nvts[1].Pprint(0)
	assert.Contains(t, out, "contents [string]: \"Hello, Bob!\"")

	domain := nvts[0].Value.([]*NameValueType)
	assert.Equal(t, "1 (0x1)", domain[2].Value)
}
