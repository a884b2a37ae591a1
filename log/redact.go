package log

import (
	"log/slog"
	"strings"
)

// Redacted is printed in place of any value that must never reach a log sink.
const Redacted = "<redacted>"

// sensitiveKeys are context keys whose values are dropped regardless of type.
// Matching ignores case so "privateKey" and "privatekey" are treated alike.
// 敏感字段：无论值是什么类型都不会写入日志。
var sensitiveKeys = map[string]struct{}{
	"password":   {},
	"passphrase": {},
	"mnemonic":   {},
	"phrase":     {},
	"seed":       {},
	"privatekey": {},
	"secret":     {},
	"token":      {},
}

func isSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// redactPairs returns ctx with the value of every sensitive key replaced. The
// input slice is copied only when something needs to change.
func redactPairs(ctx []any) []any {
	var out []any
	set := func(i int, v any) {
		if out == nil {
			out = append([]any(nil), ctx...)
		}
		out[i] = v
	}
	for i := 0; i < len(ctx); {
		switch k := ctx[i].(type) {
		case slog.Attr:
			// A slog.Attr occupies a single slot.
			if isSensitive(k.Key) {
				set(i, slog.String(k.Key, Redacted))
			}
			i++
		case string:
			if i+1 < len(ctx) && isSensitive(k) {
				set(i+1, Redacted)
			}
			i += 2
		default:
			i += 2
		}
	}
	if out == nil {
		return ctx
	}
	return out
}
