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

package siwe

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const example = `service.invalid wants you to sign in with your Ethereum account:
0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2

I accept the ServiceOrg Terms of Service: https://service.invalid/tos

URI: https://service.invalid/login
Version: 1
Chain ID: 1
Nonce: 32891756
Issued At: 2021-09-30T16:25:24Z
Resources:
- ipfs://bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq/
- https://example.com/my-web2-claim.json`

func TestParse(t *testing.T) {
	msg, err := Parse(example)
	require.NoError(t, err)

	assert.Equal(t, "service.invalid", msg.Domain)
	assert.Equal(t, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", msg.Address.Hex())
	assert.Equal(t, "I accept the ServiceOrg Terms of Service: https://service.invalid/tos", msg.Statement)
	assert.Equal(t, "https://service.invalid/login", msg.URI)
	assert.Equal(t, "1", msg.Version)
	assert.Equal(t, uint64(1), msg.ChainID)
	assert.Equal(t, "32891756", msg.Nonce)
	assert.Equal(t, "2021-09-30T16:25:24Z", msg.IssuedAt)
	assert.Empty(t, msg.ExpirationTime)
	assert.Equal(t, []string{
		"ipfs://bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq/",
		"https://example.com/my-web2-claim.json",
	}, msg.Resources)

	assert.Equal(t, example, msg.String())
	assert.True(t, IsMessage(example))
}

func TestParseMissingFields(t *testing.T) {
	tests := map[string]string{
		"URI: https://service.invalid/login\n": "URI not found",
		"Version: 1\n":                         "Version not found",
		"Chain ID: 1\n":                        "Chain ID not found",
		"Nonce: 32891756\n":                    "Nonce not found",
		"Issued At: 2021-09-30T16:25:24Z\n":    "Issued At not found",
	}
	for line, want := range tests {
		_, err := Parse(strings.Replace(example, line, "", 1))
		assert.EqualError(t, err, want)
	}

	_, err := Parse("hello world")
	assert.ErrorIs(t, err, ErrNotSIWE)
	assert.False(t, IsMessage("hello world"))

	_, err = Parse(strings.Replace(example, "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "not-an-address", 1))
	assert.EqualError(t, err, "address not found")

	_, err = Parse(strings.Replace(example, "Chain ID: 1", "Chain ID: one", 1))
	assert.Error(t, err)
}

func TestParseHeaderVariant(t *testing.T) {
	text := strings.Replace(example, "with your Ethereum account:", "with your account:", 1)
	require.True(t, IsMessage(text))

	msg, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "service.invalid", msg.Domain)
	assert.Equal(t, "32891756", msg.Nonce)
	assert.Equal(t, example, msg.String())
}

func TestParseOptionalFields(t *testing.T) {
	text := strings.Replace(example, "Issued At: 2021-09-30T16:25:24Z",
		"Issued At: 2021-09-30T16:25:24Z\nExpiration Time: 2021-10-01T00:00:00Z\nNot Before: 2021-09-30T17:00:00Z\nRequest ID: req-7", 1)
	text = strings.Replace(text, "\nI accept the ServiceOrg Terms of Service: https://service.invalid/tos\n", "", 1)

	msg, err := Parse(text)
	require.NoError(t, err)
	assert.Empty(t, msg.Statement)
	assert.Equal(t, "2021-10-01T00:00:00Z", msg.ExpirationTime)
	assert.Equal(t, "2021-09-30T17:00:00Z", msg.NotBefore)
	assert.Equal(t, "req-7", msg.RequestID)
	assert.Len(t, msg.Resources, 2)
}

func TestValidate(t *testing.T) {
	msg := &Message{
		Domain:         "service.invalid",
		ExpirationTime: "2021-10-01T00:00:00Z",
		NotBefore:      "2021-09-30T17:00:00Z",
	}
	inside := time.Date(2021, 9, 30, 18, 0, 0, 0, time.UTC)

	assert.NoError(t, msg.Validate(inside, "service.invalid"))
	assert.NoError(t, msg.Validate(inside, "SERVICE.invalid"))
	assert.NoError(t, msg.Validate(inside, ""))
	assert.ErrorIs(t, msg.Validate(inside, "evil.invalid"), ErrDomainMismatch)
	assert.ErrorIs(t, msg.Validate(inside.Add(-2*time.Hour), ""), ErrNotYetValid)
	assert.ErrorIs(t, msg.Validate(time.Date(2021, 10, 1, 0, 0, 0, 0, time.UTC), ""), ErrExpired)
}
