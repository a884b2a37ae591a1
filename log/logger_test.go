package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunyihoo/walletcore/internal/secret"
)

func TestWriteTimeTermFormat(t *testing.T) {
	b := new(bytes.Buffer)
	writeTimeTermFormat(b, time.Date(2025, time.March, 7, 9, 4, 5, 6_000_000, time.UTC))
	assert.Equal(t, "03-07|09:04:05.006", b.String())
}

func TestTerminalHandler(t *testing.T) {
	out := new(bytes.Buffer)
	h := NewTerminalHandler(out, false)
	r := slog.NewRecord(time.Date(2025, time.October, 19, 14, 2, 11, 0, time.UTC), slog.LevelInfo, "Vault unlocked", 0)
	r.Add("accounts", 2, "fee", uint256.NewInt(21000))
	require.NoError(t, h.Handle(context.Background(), r))

	want := "INFO [10-19|14:02:11.000] Vault unlocked                           accounts=2 fee=21000\n"
	assert.Equal(t, want, out.String())
}

func TestSecretsRedacted(t *testing.T) {
	key := secret.FromString("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")

	term := new(bytes.Buffer)
	NewLogger(NewTerminalHandler(term, false)).Info("Derived key", "key", key)
	assert.Contains(t, term.String(), "key=<redacted>")
	assert.NotContains(t, term.String(), "4c0883")

	js := new(bytes.Buffer)
	NewLogger(JSONHandler(js)).Info("Derived key", "key", key)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(js.Bytes(), &rec))
	assert.Equal(t, "<redacted>", rec["key"])
	assert.Equal(t, "info", rec["lvl"])
}

func TestLevelFilter(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(NewTerminalHandlerWithLevel(out, FromLegacyLevel(3), false))
	l.Debug("hidden")
	l.Warn("shown")
	assert.False(t, strings.Contains(out.String(), "hidden"))
	assert.True(t, strings.HasPrefix(out.String(), "WARN "))
	assert.Equal(t, LevelTrace, FromLegacyLevel(9))
}

func TestOddArguments(t *testing.T) {
	out := new(bytes.Buffer)
	NewLogger(LogfmtHandler(out)).Info("odd", "key")
	assert.Contains(t, out.String(), errorKey)
}

func TestSensitiveKeysRedacted(t *testing.T) {
	out := new(bytes.Buffer)
	l := NewLogger(LogfmtHandler(out)).New("Password", "hunter2")
	l.Info("Vault created", "mnemonic", "abandon abandon about", slog.String("seed", "00ff"), "accounts", 1)

	s := out.String()
	assert.NotContains(t, s, "hunter2")
	assert.NotContains(t, s, "abandon")
	assert.NotContains(t, s, "00ff")
	assert.Contains(t, s, "Password="+Redacted)
	assert.Contains(t, s, "accounts=1")
}

func TestRedactPairsLeavesInputAlone(t *testing.T) {
	in := []any{"phrase", "secret words", "n", 1}
	out := redactPairs(in)
	assert.Equal(t, "secret words", in[1])
	assert.Equal(t, Redacted, out[1])

	clean := []any{"n", 1}
	assert.Equal(t, clean, redactPairs(clean))
}
