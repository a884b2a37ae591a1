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
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/common"
	"github.com/sunyihoo/walletcore/common/hexutil"
	"github.com/sunyihoo/walletcore/network"
	"github.com/sunyihoo/walletcore/params"
	"github.com/sunyihoo/walletcore/signer"
	"github.com/sunyihoo/walletcore/signer/typeddata"
	"github.com/sunyihoo/walletcore/storage/memorydb"
)

const (
	testOrigin = "https://app.example"
	testKey    = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testAddr   = "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23"

	someDataSig = "0xb91467e570a6466aa9e9876cbcd013baba02900b8979d43fe208a4a4f339f5fd6007e74cd82e037b800186422fc2da167c747ef045e5d18a5f5d4300f8e1a0291c"
	mailJSON    = `{"types":{"EIP712Domain":[{"name":"name","type":"string"},{"name":"version","type":"string"},{"name":"chainId","type":"uint256"},{"name":"verifyingContract","type":"address"}],"Person":[{"name":"name","type":"string"},{"name":"wallet","type":"address"}],"Mail":[{"name":"from","type":"Person"},{"name":"to","type":"Person"},{"name":"contents","type":"string"}]},"primaryType":"Mail","domain":{"name":"Ether Mail","version":"1","chainId":1,"verifyingContract":"0xCcCCccccCCCCcCCCCCCcCcCccCcCCCcCcccccccC"},"message":{"from":{"name":"Cow","wallet":"0xCD2a3d9F938E13CD947Ec05AbC7FE734Df8DD826"},"to":{"name":"Bob","wallet":"0xbBbBBBBbbBBBbbbBbbBbbbbBBbBbbbbBbBbbBBbB"},"contents":"Hello, Bob!"}}`
)

var startTime = time.Date(2025, 10, 19, 9, 0, 0, 0, time.UTC)

type testBackend struct {
	mu       sync.Mutex
	unlocked bool
	key      []byte
	address  common.Address
}

func (b *testBackend) IsUnlocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unlocked
}

func (b *testBackend) setUnlocked(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unlocked = v
}

func (b *testBackend) Accounts() []common.Address {
	if !b.IsUnlocked() {
		return nil
	}
	return []common.Address{b.address}
}

func (b *testBackend) SignPersonal(account common.Address, message []byte) ([]byte, error) {
	if account != b.address {
		return nil, errors.New("unknown account")
	}
	return signer.PersonalSign(b.key, message)
}

func (b *testBackend) SignTypedData(account common.Address, td *typeddata.TypedData) ([]byte, error) {
	if account != b.address {
		return nil, errors.New("unknown account")
	}
	return signer.SignTypedData(b.key, td)
}

type testUI struct {
	mu        sync.Mutex
	reachable bool
}

func (u *testUI) Reachable() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.reachable
}

type result struct {
	val interface{}
	err error
}

type harness struct {
	broker  *Broker
	backend *testBackend
	ui      *testUI
	nets    *network.Registry
	clock   *clock.TestClock
	ticks   chan time.Duration
	events  chan PendingEvent
}

func newHarness(t *testing.T, config Config) *harness {
	t.Helper()
	key, err := hex.DecodeString(testKey)
	require.NoError(t, err)

	db := memorydb.New()
	nets, err := network.New(db, nil)
	require.NoError(t, err)

	h := &harness{
		backend: &testBackend{unlocked: true, key: key, address: common.HexToAddress(testAddr)},
		ui:      &testUI{reachable: true},
		nets:    nets,
		ticks:   make(chan time.Duration, 16),
		events:  make(chan PendingEvent, 16),
	}
	h.clock = clock.NewTestClockWithTickSignal(startTime, h.ticks)
	config.Clock = h.clock
	h.broker, err = New(db, h.backend, nets, h.ui, config)
	require.NoError(t, err)

	sub := h.broker.SubscribePending(h.events)
	t.Cleanup(sub.Unsubscribe)
	return h
}

func (h *harness) connect(t *testing.T) {
	t.Helper()
	require.NoError(t, h.broker.sites.Add(testOrigin))
}

// call issues a request in the background.
func (h *harness) call(method string, args ...interface{}) <-chan result {
	ch := make(chan result, 1)
	raw, _ := json.Marshal(args)
	go func() {
		v, err := h.broker.Request(context.Background(), testOrigin, method, raw)
		ch <- result{v, err}
	}()
	return ch
}

// do issues a request that must not wait for approval.
func (h *harness) do(t *testing.T, method string, args ...interface{}) (interface{}, error) {
	t.Helper()
	select {
	case r := <-h.call(method, args...):
		return r.val, r.err
	case <-time.After(time.Second):
		t.Fatalf("%s did not return", method)
		return nil, nil
	}
}

// waitPending returns the next request added to the pending table.
func (h *harness) waitPending(t *testing.T) *Request {
	t.Helper()
	for {
		select {
		case ev := <-h.events:
			if ev.Type == PendingAdded {
				return ev.Request
			}
		case <-time.After(time.Second):
			t.Fatal("no pending request")
		}
	}
}

func wait(t *testing.T, ch <-chan result) result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("request not resolved")
		return result{}
	}
}

func requireCode(t *testing.T, err error, code int) *ProviderError {
	t.Helper()
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, code, perr.ErrorCode(), perr.Message)
	return perr
}

func TestBlockedMethods(t *testing.T) {
	h := newHarness(t, Config{})
	h.connect(t)

	for _, method := range []string{"eth_sendTransaction", "eth_signTransaction", "eth_sendRawTransaction", "eth_sign"} {
		_, err := h.do(t, method, testAddr, "0x00")
		perr := requireCode(t, err, CodeUnsupportedMethod)
		assert.Equal(t, errMsgBlocked, perr.Message)
	}
	h.backend.setUnlocked(false)
	_, err := h.do(t, "eth_sendTransaction")
	requireCode(t, err, CodeUnsupportedMethod)
	assert.False(t, h.broker.HasPending())
}

func TestUnsupportedMethod(t *testing.T) {
	h := newHarness(t, Config{})
	_, err := h.do(t, "eth_getBalance", testAddr, "latest")
	requireCode(t, err, CodeUnsupportedMethod)
	assert.ErrorIs(t, err, ErrUnsupportedMethod)
}

func TestMissingOrigin(t *testing.T) {
	h := newHarness(t, Config{})
	_, err := h.broker.Request(context.Background(), "", "eth_chainId", nil)
	requireCode(t, err, CodeUnauthorized)
}

func TestChainMethods(t *testing.T) {
	h := newHarness(t, Config{})

	v, err := h.do(t, "eth_chainId")
	require.NoError(t, err)
	assert.Equal(t, "0x1", v)
	v, err = h.do(t, "net_version")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	_, err = h.do(t, "wallet_switchEthereumChain", map[string]string{"chainId": "0xaa36a7"})
	require.NoError(t, err)
	v, _ = h.do(t, "eth_chainId")
	assert.Equal(t, "0xaa36a7", v)

	_, err = h.do(t, "wallet_switchEthereumChain", map[string]string{"chainId": "0x999"})
	requireCode(t, err, CodeUnrecognizedChain)
	_, err = h.do(t, "wallet_switchEthereumChain", map[string]string{"chainId": "1"})
	requireCode(t, err, CodeInvalidParams)
	_, err = h.do(t, "wallet_switchEthereumChain")
	requireCode(t, err, CodeInvalidParams)
}

func TestAccountsRequireConnection(t *testing.T) {
	h := newHarness(t, Config{})

	v, err := h.do(t, "eth_accounts")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{}, v)
	v, err = h.do(t, "eth_coinbase")
	require.NoError(t, err)
	assert.Nil(t, v)

	h.connect(t)
	v, err = h.do(t, "eth_accounts")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(testAddr)}, v)
	v, err = h.do(t, "eth_coinbase")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddr), v)

	// Locked wallets answer with an empty list rather than an error.
	h.backend.setUnlocked(false)
	v, err = h.do(t, "eth_accounts")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{}, v)
}

func TestConnectApproved(t *testing.T) {
	h := newHarness(t, Config{})

	res := h.call("eth_requestAccounts")
	req := h.waitPending(t)
	assert.Equal(t, KindConnect, req.Kind())
	assert.Equal(t, testOrigin, req.Origin)
	assert.True(t, req.CreatedAt.Equal(startTime))

	oldest, ok := h.broker.Oldest()
	require.True(t, ok)
	assert.Equal(t, req.ID, oldest.ID)

	require.True(t, h.broker.Approve(req.ID))
	r := wait(t, res)
	require.NoError(t, r.err)
	assert.Equal(t, []common.Address{common.HexToAddress(testAddr)}, r.val)
	assert.True(t, h.broker.IsConnected(testOrigin))
	assert.Equal(t, []string{testOrigin}, h.broker.ConnectedSites())
	assert.False(t, h.broker.Approve(req.ID))

	// Connected and unlocked origins are not asked again.
	v, err := h.do(t, "eth_requestAccounts")
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(testAddr)}, v)

	v, err = h.do(t, "wallet_getPermissions")
	require.NoError(t, err)
	assert.Equal(t, []Permission{{Invoker: testOrigin, ParentCapability: "eth_accounts"}}, v)

	_, err = h.do(t, "wallet_revokePermissions", map[string]interface{}{"eth_accounts": struct{}{}})
	require.NoError(t, err)
	v, _ = h.do(t, "eth_accounts")
	assert.Equal(t, []common.Address{}, v)
	v, _ = h.do(t, "wallet_getPermissions")
	assert.Equal(t, []Permission{}, v)
}

func TestConnectPersists(t *testing.T) {
	db := memorydb.New()
	sites, err := LoadConnectedSites(db)
	require.NoError(t, err)
	require.NoError(t, sites.Add("https://b.example"))
	require.NoError(t, sites.Add("https://a.example"))
	require.NoError(t, sites.Add("https://a.example"))

	reloaded, err := LoadConnectedSites(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, reloaded.List())

	require.NoError(t, reloaded.Remove("https://a.example"))
	require.NoError(t, reloaded.Remove("https://unknown.example"))
	reloaded, err = LoadConnectedSites(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://b.example"}, reloaded.List())

	require.NoError(t, reloaded.Clear())
	assert.Empty(t, reloaded.List())
}

func TestConnectRejected(t *testing.T) {
	h := newHarness(t, Config{})

	res := h.call("wallet_requestPermissions", map[string]interface{}{"eth_accounts": struct{}{}})
	req := h.waitPending(t)
	require.True(t, h.broker.Reject(req.ID, ""))
	assert.False(t, h.broker.Reject(req.ID, ""))

	r := wait(t, res)
	perr := requireCode(t, r.err, CodeUserRejected)
	assert.Equal(t, errMsgUserRejected, perr.Message)
	assert.ErrorIs(t, r.err, ErrUserRejected)
	assert.False(t, h.broker.IsConnected(testOrigin))
	assert.False(t, h.broker.HasPending())
}

func TestConnectLockedDuringApproval(t *testing.T) {
	h := newHarness(t, Config{})
	h.backend.setUnlocked(false)

	res := h.call("eth_requestAccounts")
	req := h.waitPending(t)
	require.True(t, h.broker.Approve(req.ID))

	r := wait(t, res)
	requireCode(t, r.err, CodeUserRejected)
	assert.False(t, h.broker.IsConnected(testOrigin))
}

func TestNoApprovalSurface(t *testing.T) {
	h := newHarness(t, Config{})
	h.ui.mu.Lock()
	h.ui.reachable = false
	h.ui.mu.Unlock()

	_, err := h.do(t, "eth_requestAccounts")
	perr := requireCode(t, err, CodeUserRejected)
	assert.Equal(t, errMsgNoApprover, perr.Message)
	assert.False(t, h.broker.HasPending())
}

func TestApprovalTimeout(t *testing.T) {
	h := newHarness(t, Config{ApprovalTimeout: time.Minute})

	res := h.call("eth_requestAccounts")
	req := h.waitPending(t)
	select {
	case d := <-h.ticks:
		assert.Equal(t, time.Minute, d)
	case <-time.After(time.Second):
		t.Fatal("timeout not scheduled")
	}
	h.clock.SetTime(startTime.Add(time.Minute))

	r := wait(t, res)
	perr := requireCode(t, r.err, CodeUserRejected)
	assert.Equal(t, errMsgTimeout, perr.Message)
	assert.False(t, h.broker.HasPending())
	assert.False(t, h.broker.Approve(req.ID))
}

func TestContextCancelled(t *testing.T) {
	h := newHarness(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())

	res := make(chan result, 1)
	go func() {
		v, err := h.broker.Request(ctx, testOrigin, "eth_requestAccounts", nil)
		res <- result{v, err}
	}()
	h.waitPending(t)
	cancel()

	r := wait(t, res)
	requireCode(t, r.err, CodeUserRejected)
	assert.False(t, h.broker.HasPending())
}

func TestOldestFirst(t *testing.T) {
	h := newHarness(t, Config{})

	first := h.call("eth_requestAccounts")
	req1 := h.waitPending(t)
	h.clock.SetTime(startTime.Add(time.Second))
	second := h.call("wallet_requestPermissions", map[string]interface{}{})
	req2 := h.waitPending(t)

	oldest, _ := h.broker.Oldest()
	assert.Equal(t, req1.ID, oldest.ID)
	pending := h.broker.Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, req2.ID, pending[1].ID)

	// Requests resolve independently of submission order.
	require.True(t, h.broker.Reject(req2.ID, "not now"))
	perr := requireCode(t, wait(t, second).err, CodeUserRejected)
	assert.Equal(t, "not now", perr.Message)

	oldest, _ = h.broker.Oldest()
	assert.Equal(t, req1.ID, oldest.ID)
	require.True(t, h.broker.Approve(req1.ID))
	require.NoError(t, wait(t, first).err)
}

func TestPersonalSign(t *testing.T) {
	h := newHarness(t, Config{})
	h.connect(t)

	for _, args := range [][]interface{}{
		{"Some data", testAddr},
		{testAddr, "Some data"},
		{hexutil.Encode([]byte("Some data")), testAddr},
	} {
		res := h.call("personal_sign", args...)
		req := h.waitPending(t)
		require.Equal(t, KindPersonalSign, req.Kind())
		p := req.Params.(PersonalSignParams)
		assert.Equal(t, common.HexToAddress(testAddr), p.Address)
		assert.Equal(t, "Some data", p.Text)
		assert.Nil(t, p.SIWE)

		require.True(t, h.broker.Approve(req.ID))
		r := wait(t, res)
		require.NoError(t, r.err)
		addr, err := signer.RecoverPersonal([]byte("Some data"), r.val.(hexutil.Bytes))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(testAddr), addr)
	}
}

func TestPersonalSignPreconditions(t *testing.T) {
	h := newHarness(t, Config{})

	_, err := h.do(t, "personal_sign", "Some data", testAddr)
	requireCode(t, err, CodeUnauthorized)

	h.connect(t)
	_, err = h.do(t, "personal_sign", "Some data", "0x0000000000000000000000000000000000000001")
	requireCode(t, err, CodeUnauthorized)
	_, err = h.do(t, "personal_sign", "Some data", "not an address")
	requireCode(t, err, CodeInvalidParams)
	_, err = h.do(t, "personal_sign", "Some data")
	requireCode(t, err, CodeInvalidParams)
	assert.False(t, h.broker.HasPending())
}

func TestSigningLockedDuringApproval(t *testing.T) {
	h := newHarness(t, Config{})
	h.connect(t)

	res := h.call("personal_sign", "Some data", testAddr)
	req := h.waitPending(t)
	h.backend.setUnlocked(false)
	require.True(t, h.broker.Approve(req.ID))

	perr := requireCode(t, wait(t, res).err, CodeUserRejected)
	assert.Equal(t, "wallet is locked", perr.Message)
}

func TestSignInTagging(t *testing.T) {
	h := newHarness(t, Config{})
	h.connect(t)

	msg := "evil.example wants you to sign in with your Ethereum account:\n" +
		testAddr + "\n\n" +
		"Sign in\n\n" +
		"URI: https://evil.example/login\n" +
		"Version: 1\n" +
		"Chain ID: 1\n" +
		"Nonce: 32891756\n" +
		"Issued At: 2025-10-19T08:00:00Z"
	res := h.call("personal_sign", msg, testAddr)
	req := h.waitPending(t)
	p := req.Params.(PersonalSignParams)
	require.NotNil(t, p.SIWE)
	assert.Equal(t, "evil.example", p.SIWE.Domain)
	assert.Equal(t, "32891756", p.SIWE.Nonce)
	require.Len(t, p.SIWEWarnings, 1)
	assert.Contains(t, p.SIWEWarnings[0], "app.example")

	require.True(t, h.broker.Reject(req.ID, ""))
	requireCode(t, wait(t, res).err, CodeUserRejected)
}

func TestSignTypedData(t *testing.T) {
	h := newHarness(t, Config{})
	h.connect(t)

	for _, method := range []string{"eth_signTypedData_v4", "eth_signTypedData_v3"} {
		res := h.call(method, testAddr, mailJSON)
		req := h.waitPending(t)
		require.Equal(t, KindSignTypedData, req.Kind())
		p := req.Params.(TypedDataParams)
		assert.Equal(t, "Mail", p.TypedData.PrimaryType)
		assert.NotEmpty(t, p.Display)

		require.True(t, h.broker.Approve(req.ID))
		r := wait(t, res)
		require.NoError(t, r.err)

		td, err := typeddata.Parse([]byte(mailJSON))
		require.NoError(t, err)
		addr, err := signer.RecoverTypedData(td, r.val.(hexutil.Bytes))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(testAddr), addr)
	}

	// Legacy parameter order with the data as an object.
	res := h.call("eth_signTypedData", json.RawMessage(mailJSON), testAddr)
	req := h.waitPending(t)
	require.True(t, h.broker.Approve(req.ID))
	require.NoError(t, wait(t, res).err)
}

func TestSignTypedDataValidation(t *testing.T) {
	h := newHarness(t, Config{})

	// Unconnected origins are refused before the data is looked at.
	huge := `{"types":{"T":[{"name":"v","type":"uint256"}]},"primaryType":"T","domain":{},"message":{"v":"1e600000000"}}`
	_, err := h.do(t, "eth_signTypedData_v4", testAddr, huge)
	requireCode(t, err, CodeUnauthorized)

	h.connect(t)
	_, err = h.do(t, "eth_signTypedData_v4", testAddr, huge)
	requireCode(t, err, CodeInvalidParams)

	_, err = h.do(t, "eth_signTypedData_v4", testAddr, `{"types":{}}`)
	requireCode(t, err, CodeInvalidParams)

	require.NoError(t, h.nets.Switch(params.SepoliaChainID))
	_, err = h.do(t, "eth_signTypedData_v4", testAddr, mailJSON)
	perr := requireCode(t, err, CodeInvalidParams)
	assert.Contains(t, perr.Message, "chainId")
	assert.False(t, h.broker.HasPending())
}

func TestEcRecover(t *testing.T) {
	h := newHarness(t, Config{})

	v, err := h.do(t, "personal_ecRecover", "Some data", someDataSig)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAddr), v)

	_, err = h.do(t, "personal_ecRecover", "Some data", "0x1234")
	requireCode(t, err, CodeInvalidParams)
}

func TestAddChain(t *testing.T) {
	h := newHarness(t, Config{})
	add := map[string]interface{}{
		"chainId":           "0x7a69",
		"chainName":         "Local",
		"rpcUrls":           []string{"http://127.0.0.1:8545"},
		"nativeCurrency":    map[string]interface{}{"name": "Ether", "symbol": "ETH", "decimals": 18},
		"blockExplorerUrls": []string{},
	}

	res := h.call("wallet_addEthereumChain", add)
	req := h.waitPending(t)
	require.Equal(t, KindAddChain, req.Kind())
	assert.Equal(t, uint64(31337), req.Params.(AddChainParams).Network.ChainID)
	require.True(t, h.broker.Approve(req.ID))
	require.NoError(t, wait(t, res).err)

	n, ok := h.nets.Get(31337)
	require.True(t, ok)
	assert.Equal(t, "Local", n.Name)

	// Known chains are accepted without asking.
	_, err := h.do(t, "wallet_addEthereumChain", add)
	require.NoError(t, err)

	_, err = h.do(t, "wallet_addEthereumChain", map[string]interface{}{"chainId": "0x10"})
	requireCode(t, err, CodeInvalidParams)
}

func TestAddChainFailsAfterApproval(t *testing.T) {
	h := newHarness(t, Config{})
	add := map[string]interface{}{
		"chainId":        "0x10",
		"chainName":      "Bad",
		"rpcUrls":        []string{"ftp://bad.example"},
		"nativeCurrency": map[string]interface{}{"symbol": "BAD", "decimals": 18},
	}
	res := h.call("wallet_addEthereumChain", add)
	req := h.waitPending(t)
	require.True(t, h.broker.Approve(req.ID))

	requireCode(t, wait(t, res).err, CodeUserRejected)
	_, ok := h.nets.Get(0x10)
	assert.False(t, ok)
}

func TestRateLimit(t *testing.T) {
	h := newHarness(t, Config{RequestsPerSecond: 1, Burst: 2})

	for i := 0; i < 2; i++ {
		_, err := h.do(t, "eth_chainId")
		require.NoError(t, err)
	}
	_, err := h.do(t, "eth_chainId")
	requireCode(t, err, CodeLimitExceeded)

	// Other origins have their own budget.
	_, err = h.broker.Request(context.Background(), "https://other.example", "eth_chainId", nil)
	require.NoError(t, err)

	h.clock.SetTime(startTime.Add(time.Second))
	_, err = h.do(t, "eth_chainId")
	require.NoError(t, err)
}

func TestMethodTier(t *testing.T) {
	assert.Equal(t, TierReadOnly, MethodTier("eth_accounts"))
	assert.Equal(t, TierGated, MethodTier("personal_sign"))
	assert.Equal(t, TierGated, MethodTier("eth_signTypedData_v3"))
	assert.Equal(t, TierBlocked, MethodTier("eth_sign"))
	assert.Equal(t, TierUnsupported, MethodTier("eth_getBalance"))
	assert.Equal(t, "blocked", TierBlocked.String())
}
