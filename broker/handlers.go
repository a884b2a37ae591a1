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

package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/params"
	"github.com/sunyihoo/walletcore/signer"
	"github.com/sunyihoo/walletcore/signer/siwe"
	"github.com/sunyihoo/walletcore/signer/typeddata"
)

// Permission is the EIP-2255 description of a granted capability.
type Permission struct {
	Invoker          string `json:"invoker"`
	ParentCapability string `json:"parentCapability"`
}

// accounts is the eth_accounts answer: empty for a disconnected origin or a
// locked wallet.
func (b *Broker) accounts(origin string) []common.Address {
	if !b.sites.Has(origin) || !b.backend.IsUnlocked() {
		return []common.Address{}
	}
	accs := b.backend.Accounts()
	if accs == nil {
		return []common.Address{}
	}
	return accs
}

func (b *Broker) permissions(origin string) []Permission {
	if !b.sites.Has(origin) {
		return []Permission{}
	}
	return []Permission{{Invoker: origin, ParentCapability: "eth_accounts"}}
}

func (b *Broker) revokePermissions(origin string) error {
	if err := b.Disconnect(origin); err != nil {
		return internalError(err)
	}
	return nil
}

func (b *Broker) requestAccounts(ctx context.Context, origin, method string) ([]common.Address, error) {
	if b.sites.Has(origin) && b.backend.IsUnlocked() {
		return b.accounts(origin), nil
	}
	if _, err := b.await(ctx, origin, method, ConnectParams{}); err != nil {
		return nil, err
	}
	// The wallet may have been locked while the request waited.
	if !b.backend.IsUnlocked() {
		return nil, rejectedError("wallet is locked")
	}
	if err := b.sites.Add(origin); err != nil {
		return nil, rejectedError(fmt.Sprintf("connecting site: %v", err))
	}
	b.log.Info("Site connected", "origin", origin)
	return b.accounts(origin), nil
}

func (b *Broker) personalSign(ctx context.Context, origin, method string, raw json.RawMessage) (interface{}, error) {
	args, err := stringArgs(raw, 2, 3)
	if err != nil {
		return nil, err
	}
	// The canonical order is [message, address]; some sites send the
	// reverse.
	msg, addr := args[0], args[1]
	if !common.IsHexAddress(addr) {
		if !common.IsHexAddress(msg) {
			return nil, invalidParamsError("%s requires an account address", method)
		}
		msg, addr = addr, msg
	}
	p := PersonalSignParams{
		Address: common.HexToAddress(addr),
		Message: signer.PersonalMessage(msg),
	}
	if utf8.Valid(p.Message) {
		p.Text = string(p.Message)
	}
	if err := b.authorize(origin, p.Address); err != nil {
		return nil, err
	}
	b.checkSignIn(&p, origin)

	if _, err := b.await(ctx, origin, method, p); err != nil {
		return nil, err
	}
	if err := b.available(p.Address); err != nil {
		return nil, err
	}
	sig, err := b.backend.SignPersonal(p.Address, p.Message)
	if err != nil {
		b.log.Warn("Signing failed after approval", "address", p.Address, "err", err)
		return nil, rejectedError(fmt.Sprintf("signing failed: %v", err))
	}
	return hexutil.Bytes(sig), nil
}

func (b *Broker) signTypedData(ctx context.Context, origin, method string, raw json.RawMessage) (interface{}, error) {
	args, err := positional(raw, 2, 2)
	if err != nil {
		return nil, err
	}
	// [address, data] for v3 and v4, [data, address] for the legacy form.
	addrRaw, dataRaw := args[0], args[1]
	addr, ok := addressArg(addrRaw)
	if !ok {
		if addr, ok = addressArg(dataRaw); !ok {
			return nil, invalidParamsError("%s requires an account address", method)
		}
		dataRaw = addrRaw
	}
	// Untrusted typed data is only parsed and hashed for authorized callers.
	if err := b.authorize(origin, addr); err != nil {
		return nil, err
	}
	td, err := typeddata.Parse(dataRaw)
	if err != nil {
		return nil, invalidParamsError("invalid typed data: %v", err)
	}
	if _, _, err := typeddata.TypedDataAndHash(td); err != nil {
		return nil, invalidParamsError("invalid typed data: %v", err)
	}
	if td.Domain.ChainID != nil {
		id, active := td.Domain.ChainID.Int(), b.networks.ChainID()
		if !id.IsUint64() || id.Uint64() != active {
			return nil, invalidParamsError("provided chainId %s must match the active chainId %d", id.Dec(), active)
		}
	}
	display, err := td.Format()
	if err != nil {
		return nil, invalidParamsError("invalid typed data: %v", err)
	}
	p := TypedDataParams{Address: addr, TypedData: td, Display: display}
	if _, err := b.await(ctx, origin, method, p); err != nil {
		return nil, err
	}
	if err := b.available(addr); err != nil {
		return nil, err
	}
	sig, err := b.backend.SignTypedData(addr, td)
	if err != nil {
		b.log.Warn("Signing failed after approval", "address", addr, "err", err)
		return nil, rejectedError(fmt.Sprintf("signing failed: %v", err))
	}
	return hexutil.Bytes(sig), nil
}

func (b *Broker) ecRecover(raw json.RawMessage) (interface{}, error) {
	args, err := stringArgs(raw, 2, 2)
	if err != nil {
		return nil, err
	}
	sig, err := hexutil.Decode(args[1])
	if err != nil {
		return nil, invalidParamsError("invalid signature: %v", err)
	}
	addr, err := signer.RecoverPersonal(signer.PersonalMessage(args[0]), sig)
	if err != nil {
		return nil, invalidParamsError("%v", err)
	}
	return addr, nil
}

type switchChainArgs struct {
	ChainID string `json:"chainId"`
}

func (b *Broker) switchChain(raw json.RawMessage) error {
	args, err := positional(raw, 1, 1)
	if err != nil {
		return err
	}
	var sw switchChainArgs
	if err := json.Unmarshal(args[0], &sw); err != nil {
		return invalidParamsError("invalid chain switch parameters")
	}
	id, err := hexutil.DecodeUint64(sw.ChainID)
	if err != nil || id == 0 {
		return invalidParamsError("invalid chainId %q", sw.ChainID)
	}
	if _, ok := b.networks.Get(id); !ok {
		return unrecognizedChainError(sw.ChainID)
	}
	if err := b.networks.Switch(id); err != nil {
		return internalError(err)
	}
	return nil
}

type addChainArgs struct {
	ChainID        string   `json:"chainId"`
	ChainName      string   `json:"chainName"`
	RPCURLs        []string `json:"rpcUrls"`
	NativeCurrency *struct {
		Name     string `json:"name"`
		Symbol   string `json:"symbol"`
		Decimals uint8  `json:"decimals"`
	} `json:"nativeCurrency"`
	BlockExplorerURLs []string `json:"blockExplorerUrls"`
}

func (b *Broker) addChain(ctx context.Context, origin, method string, raw json.RawMessage) error {
	args, err := positional(raw, 1, 1)
	if err != nil {
		return err
	}
	var add addChainArgs
	if err := json.Unmarshal(args[0], &add); err != nil {
		return invalidParamsError("invalid chain parameters")
	}
	id, err := hexutil.DecodeUint64(add.ChainID)
	if err != nil || id == 0 {
		return invalidParamsError("invalid chainId %q", add.ChainID)
	}
	if _, ok := b.networks.Get(id); ok {
		return nil
	}
	if strings.TrimSpace(add.ChainName) == "" || len(add.RPCURLs) == 0 || add.NativeCurrency == nil {
		return invalidParamsError("chainName, rpcUrls and nativeCurrency are required")
	}
	n := params.Network{
		ChainID:  id,
		Name:     add.ChainName,
		RPCURL:   add.RPCURLs[0],
		Symbol:   add.NativeCurrency.Symbol,
		Decimals: add.NativeCurrency.Decimals,
	}
	if len(add.BlockExplorerURLs) > 0 {
		n.ExplorerURL = add.BlockExplorerURLs[0]
	}
	if _, err := b.await(ctx, origin, method, AddChainParams{Network: n}); err != nil {
		return err
	}
	if err := b.networks.Add(n); err != nil {
		return rejectedError(fmt.Sprintf("adding network: %v", err))
	}
	return nil
}

// authorize checks, before a signing request is queued, that origin is
// connected and, when unlocked, that address is one of the exposed accounts.
func (b *Broker) authorize(origin string, address common.Address) error {
	if !b.sites.Has(origin) {
		return unauthorizedError("origin %s is not connected", origin)
	}
	if b.backend.IsUnlocked() && !b.exposed(address) {
		return unauthorizedError("account %s has not been authorized", address.Hex())
	}
	return nil
}

// available re-checks the signing preconditions after approval.
func (b *Broker) available(address common.Address) error {
	if !b.backend.IsUnlocked() {
		return rejectedError("wallet is locked")
	}
	if !b.exposed(address) {
		return rejectedError(fmt.Sprintf("account %s is not available", address.Hex()))
	}
	return nil
}

func (b *Broker) exposed(address common.Address) bool {
	for _, a := range b.backend.Accounts() {
		if a == address {
			return true
		}
	}
	return false
}

// checkSignIn tags EIP-4361 messages and records anything the user should be
// warned about before signing in.
func (b *Broker) checkSignIn(p *PersonalSignParams, origin string) {
	if p.Text == "" || !siwe.IsMessage(p.Text) {
		return
	}
	m, err := siwe.Parse(p.Text)
	if err != nil {
		p.SIWEWarnings = append(p.SIWEWarnings, fmt.Sprintf("malformed sign-in message: %v", err))
		return
	}
	p.SIWE = m
	if err := m.Validate(b.clock.Now(), ""); err != nil {
		p.SIWEWarnings = append(p.SIWEWarnings, err.Error())
	}
	if host := originHost(origin); !strings.EqualFold(m.Domain, host) {
		p.SIWEWarnings = append(p.SIWEWarnings, fmt.Sprintf("%v: message is for %s, request came from %s", siwe.ErrDomainMismatch, m.Domain, host))
	}
	if m.Address != p.Address {
		p.SIWEWarnings = append(p.SIWEWarnings, fmt.Sprintf("message names account %s", m.Address.Hex()))
	}
	if active := b.networks.ChainID(); m.ChainID != active {
		p.SIWEWarnings = append(p.SIWEWarnings, fmt.Sprintf("message is for chain %d, active chain is %d", m.ChainID, active))
	}
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

// positional decodes a JSON array of between min and max parameters. A
// missing or null params value is an empty array.
func positional(raw json.RawMessage, min, max int) ([]json.RawMessage, error) {
	var args []json.RawMessage
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &args); err != nil {
			return nil, invalidParamsError("params must be an array")
		}
	}
	if len(args) < min || len(args) > max {
		if min == max {
			return nil, invalidParamsError("expected %d params, got %d", min, len(args))
		}
		return nil, invalidParamsError("expected %d to %d params, got %d", min, max, len(args))
	}
	return args, nil
}

func stringArgs(raw json.RawMessage, min, max int) ([]string, error) {
	args, err := positional(raw, min, max)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(args))
	for i, arg := range args {
		if err := json.Unmarshal(arg, &out[i]); err != nil {
			return nil, invalidParamsError("param %d must be a string", i)
		}
	}
	return out, nil
}

func addressArg(raw json.RawMessage) (common.Address, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil || !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}
