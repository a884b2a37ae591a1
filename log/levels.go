package log

import (
	"log/slog"
	"math"
)

// Levels above the slog defaults. Trace sits below debug and is only enabled
// by --verbosity 5, crit is reserved for unrecoverable startup failures.
const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12

	levelAll slog.Level = math.MinInt
)

// verbosityLevels is indexed by the --verbosity value.
var verbosityLevels = [...]slog.Level{LevelCrit, LevelError, LevelWarn, LevelInfo, LevelDebug, LevelTrace}

// FromLegacyLevel maps a 0 (crit) .. 5 (trace) verbosity to a slog level.
// Out-of-range values clamp to the nearest end.
// FromLegacyLevel 将 0..5 的 verbosity 转换为 slog 级别，越界值取最近的端点。
func FromLegacyLevel(lvl int) slog.Level {
	switch {
	case lvl < 0:
		return LevelCrit
	case lvl >= len(verbosityLevels):
		return LevelTrace
	}
	return verbosityLevels[lvl]
}

type levelName struct {
	short, padded string
}

var levelNames = map[slog.Level]levelName{
	LevelTrace: {"trace", "TRACE"},
	LevelDebug: {"debug", "DEBUG"},
	LevelInfo:  {"info", "INFO "},
	LevelWarn:  {"warn", "WARN "},
	LevelError: {"error", "ERROR"},
	LevelCrit:  {"crit", "CRIT "},
}

// LevelString returns the lower-case name used by the structured handlers.
func LevelString(l slog.Level) string {
	if n, ok := levelNames[l]; ok {
		return n.short
	}
	return "unknown"
}

// levelPadded returns the five column upper-case name used on the terminal.
func levelPadded(l slog.Level) string {
	if n, ok := levelNames[l]; ok {
		return n.padded
	}
	return "?????"
}

// levelColor is the ANSI escape for a level on a colored terminal.
func levelColor(l slog.Level) string {
	switch l {
	case LevelCrit:
		return "\x1b[35m"
	case LevelError:
		return "\x1b[31m"
	case LevelWarn:
		return "\x1b[33m"
	case LevelInfo:
		return "\x1b[32m"
	case LevelDebug:
		return "\x1b[36m"
	case LevelTrace:
		return "\x1b[34m"
	}
	return ""
}
