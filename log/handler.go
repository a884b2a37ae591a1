package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"reflect"
	"sync"
	"time"

	"github.com/holiman/uint256"
)

type discardHandler struct{}

// DiscardHandler drops every record. It backs the root logger until the
// daemon configures one.
func DiscardHandler() slog.Handler { return discardHandler{} }

func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }

// TerminalHandler writes aligned, optionally colored lines meant for a human
// watching the daemon:
//
//	INFO [10-19|14:02:11.127] Vault unlocked                           accounts=2
//
// Groups are not supported and are flattened into the top level.
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      slog.Level
	useColor bool
	attrs    []slog.Attr

	// fieldPadding remembers the widest value seen per key (up to
	// termCtxMaxPadding) so consecutive lines line up.
	fieldPadding map[string]int
	buf          []byte
}

// NewTerminalHandler returns a terminal handler emitting every level.
func NewTerminalHandler(wr io.Writer, useColor bool) *TerminalHandler {
	return NewTerminalHandlerWithLevel(wr, levelAll, useColor)
}

// NewTerminalHandlerWithLevel returns a terminal handler that drops records
// below lvl.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:           wr,
		lvl:          lvl,
		useColor:     useColor,
		fieldPadding: make(map[string]int),
	}
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.buf = h.format(h.buf[:0], r)
	_, err := h.wr.Write(h.buf)
	return err
}

func (h *TerminalHandler) WithGroup(string) slog.Handler { return h }

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &TerminalHandler{
		wr:           h.wr,
		lvl:          h.lvl,
		useColor:     h.useColor,
		attrs:        merged,
		fieldPadding: make(map[string]int),
	}
}

// JSONHandler emits one JSON object per record at every level.
func JSONHandler(wr io.Writer) slog.Handler {
	return JSONHandlerWithLevel(wr, levelAll)
}

// JSONHandlerWithLevel emits one JSON object per record at level and above.
func JSONHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(wr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr(false),
	})
}

// LogfmtHandler emits key=value lines at every level.
func LogfmtHandler(wr io.Writer) slog.Handler {
	return LogfmtHandlerWithLevel(wr, levelAll)
}

// LogfmtHandlerWithLevel emits key=value lines at level and above.
func LogfmtHandlerWithLevel(wr io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(wr, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr(true),
	})
}

// replaceAttr renames the builtin time and level keys to "t" and "lvl" and
// renders big numbers and stringers as plain strings. Logfmt output also
// gets a fixed timestamp layout.
func replaceAttr(logfmt bool) func([]string, slog.Attr) slog.Attr {
	return func(_ []string, attr slog.Attr) slog.Attr {
		switch attr.Key {
		case slog.TimeKey:
			if attr.Value.Kind() == slog.KindTime {
				if logfmt {
					return slog.String("t", attr.Value.Time().Format(timeFormat))
				}
				return slog.Attr{Key: "t", Value: attr.Value}
			}
		case slog.LevelKey:
			if l, ok := attr.Value.Any().(slog.Level); ok {
				return slog.String("lvl", LevelString(l))
			}
		}
		switch v := attr.Value.Any().(type) {
		case time.Time:
			if logfmt {
				attr.Value = slog.StringValue(v.Format(timeFormat))
			}
		case *big.Int:
			attr.Value = slog.StringValue(nilOr(v == nil, v.String))
		case *uint256.Int:
			attr.Value = slog.StringValue(nilOr(v == nil, v.Dec))
		case fmt.Stringer:
			isNil := v == nil || (reflect.ValueOf(v).Kind() == reflect.Pointer && reflect.ValueOf(v).IsNil())
			attr.Value = slog.StringValue(nilOr(isNil, v.String))
		}
		return attr
	}
}

func nilOr(isNil bool, str func() string) string {
	if isNil {
		return "<nil>"
	}
	return str()
}
