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

// Package siwe parses and renders EIP-4361 "Sign-In with Ethereum" messages.
package siwe

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sunyihoo/walletcore/common"
)

const (
	// headerMarker ends the domain on the first line. The rest of the line
	// varies between wallets; String writes headerSuffix.
	headerMarker  = " wants you to sign in"
	headerSuffix  = headerMarker + " with your Ethereum account:"
	uriTag        = "URI: "
	versionTag    = "Version: "
	chainIDTag    = "Chain ID: "
	nonceTag      = "Nonce: "
	issuedAtTag   = "Issued At: "
	expirationTag = "Expiration Time: "
	notBeforeTag  = "Not Before: "
	requestIDTag  = "Request ID: "
	resourcesTag  = "Resources:"
)

var addressRegexp = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

var (
	ErrNotSIWE        = errors.New("not a sign-in message")
	ErrExpired        = errors.New("sign-in message expired")
	ErrNotYetValid    = errors.New("sign-in message not yet valid")
	ErrDomainMismatch = errors.New("sign-in domain does not match requesting origin")
)

// Message is a parsed EIP-4361 message. Timestamps are kept verbatim so that
// String reproduces the signed text.
type Message struct {
	Domain         string         `json:"domain"`
	Address        common.Address `json:"address"`
	Statement      string         `json:"statement,omitempty"`
	URI            string         `json:"uri"`
	Version        string         `json:"version"`
	ChainID        uint64         `json:"chainId"`
	Nonce          string         `json:"nonce"`
	IssuedAt       string         `json:"issuedAt"`
	ExpirationTime string         `json:"expirationTime,omitempty"`
	NotBefore      string         `json:"notBefore,omitempty"`
	RequestID      string         `json:"requestId,omitempty"`
	Resources      []string       `json:"resources,omitempty"`
}

// Parse extracts the fields of a sign-in message. Each missing required field
// fails with an error naming it, e.g. "URI not found".
func Parse(text string) (*Message, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	domain, _, found := strings.Cut(lines[0], headerMarker)
	if !found {
		return nil, ErrNotSIWE
	}
	msg := &Message{Domain: domain}
	if msg.Domain == "" {
		return nil, errors.New("domain not found")
	}

	addrLine := -1
	for i := 1; i < len(lines); i++ {
		if addressRegexp.MatchString(strings.TrimSpace(lines[i])) {
			addrLine = i
			break
		}
	}
	if addrLine < 0 {
		return nil, errors.New("address not found")
	}
	msg.Address = common.HexToAddress(strings.TrimSpace(lines[addrLine]))

	uriLine := -1
	for i := addrLine + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], uriTag) {
			uriLine = i
			break
		}
	}
	if uriLine < 0 {
		return nil, errors.New("URI not found")
	}
	var statement []string
	for _, line := range lines[addrLine+1 : uriLine] {
		if line = strings.TrimSpace(line); line != "" {
			statement = append(statement, line)
		}
	}
	msg.Statement = strings.Join(statement, "\n")

	fields := lines[uriLine:]
	msg.URI, _ = lookup(fields, uriTag)

	var ok bool
	if msg.Version, ok = lookup(fields, versionTag); !ok {
		return nil, errors.New("Version not found")
	}
	chainID, ok := lookup(fields, chainIDTag)
	if !ok {
		return nil, errors.New("Chain ID not found")
	}
	id, err := strconv.ParseUint(chainID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid Chain ID %q", chainID)
	}
	msg.ChainID = id
	if msg.Nonce, ok = lookup(fields, nonceTag); !ok {
		return nil, errors.New("Nonce not found")
	}
	if msg.IssuedAt, ok = lookup(fields, issuedAtTag); !ok {
		return nil, errors.New("Issued At not found")
	}
	msg.ExpirationTime, _ = lookup(fields, expirationTag)
	msg.NotBefore, _ = lookup(fields, notBeforeTag)
	msg.RequestID, _ = lookup(fields, requestIDTag)

	for i, line := range fields {
		if strings.TrimSpace(line) != resourcesTag {
			continue
		}
		for _, res := range fields[i+1:] {
			if !strings.HasPrefix(res, "- ") {
				break
			}
			msg.Resources = append(msg.Resources, strings.TrimSpace(strings.TrimPrefix(res, "- ")))
		}
		break
	}
	return msg, nil
}

// IsMessage reports whether text looks like a sign-in message.
func IsMessage(text string) bool {
	first, _, _ := strings.Cut(text, "\n")
	return strings.Contains(first, headerMarker)
}

func lookup(lines []string, tag string) (string, bool) {
	for _, line := range lines {
		if strings.HasPrefix(line, tag) {
			return strings.TrimSpace(strings.TrimPrefix(line, tag)), true
		}
	}
	return "", false
}

// String renders the message in the EIP-4361 layout.
func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(m.Domain + headerSuffix + "\n")
	b.WriteString(m.Address.Hex() + "\n\n")
	if m.Statement != "" {
		b.WriteString(m.Statement + "\n\n")
	}
	b.WriteString(uriTag + m.URI + "\n")
	b.WriteString(versionTag + m.Version + "\n")
	b.WriteString(chainIDTag + strconv.FormatUint(m.ChainID, 10) + "\n")
	b.WriteString(nonceTag + m.Nonce + "\n")
	b.WriteString(issuedAtTag + m.IssuedAt)
	if m.ExpirationTime != "" {
		b.WriteString("\n" + expirationTag + m.ExpirationTime)
	}
	if m.NotBefore != "" {
		b.WriteString("\n" + notBeforeTag + m.NotBefore)
	}
	if m.RequestID != "" {
		b.WriteString("\n" + requestIDTag + m.RequestID)
	}
	if len(m.Resources) > 0 {
		b.WriteString("\n" + resourcesTag)
		for _, r := range m.Resources {
			b.WriteString("\n- " + r)
		}
	}
	return b.String()
}

// Validate checks the time window at now and, when domain is not empty, that
// the message was issued for it.
func (m *Message) Validate(now time.Time, domain string) error {
	if m.ExpirationTime != "" {
		exp, err := time.Parse(time.RFC3339, m.ExpirationTime)
		if err != nil {
			return fmt.Errorf("invalid Expiration Time: %w", err)
		}
		if !now.Before(exp) {
			return ErrExpired
		}
	}
	if m.NotBefore != "" {
		nbf, err := time.Parse(time.RFC3339, m.NotBefore)
		if err != nil {
			return fmt.Errorf("invalid Not Before: %w", err)
		}
		if now.Before(nbf) {
			return ErrNotYetValid
		}
	}
	if domain != "" && !strings.EqualFold(domain, m.Domain) {
		return ErrDomainMismatch
	}
	return nil
}
