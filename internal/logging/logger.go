// Package logging provides leveled logging and pulse tracing for pulsenet.
// It offers two complementary outputs:
//   - A leveled slog.Logger for stderr (operational output)
//   - A PulseLog writing every delivered pulse as JSON lines
package logging

import (
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// LevelTrace is a custom slog level below Debug for per-press logging.
const LevelTrace = slog.LevelDebug - 4

// ParseLevel maps a string level name to a slog.Level.
// Supported values: "error", "warn", "info", "debug", "trace"
// (case-insensitive). Unknown values default to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "error":
		return slog.LevelError
	case "warn":
		return slog.LevelWarn
	case "debug":
		return slog.LevelDebug
	case "trace":
		return LevelTrace
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a leveled slog.Logger writing to w.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Label the custom trace level
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok && lvl == LevelTrace {
					a.Value = slog.StringValue("TRACE")
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// PulseEvent is one line of a pulse log.
type PulseEvent struct {
	Press uint64 `json:"press"`
	From  string `json:"from"`
	To    string `json:"to"`
	Level string `json:"level"`
}

// PulseLog writes pulse events as JSON lines. A nil PulseLog is safe to use;
// all methods are no-ops on nil receiver.
type PulseLog struct {
	enc *json.Encoder
	err error
}

// NewPulseLog returns a PulseLog writing to w. It returns nil if w is nil.
func NewPulseLog(w io.Writer) *PulseLog {
	if w == nil {
		return nil
	}
	return &PulseLog{enc: json.NewEncoder(w)}
}

// Log writes ev. After the first write error, Log does nothing.
func (pl *PulseLog) Log(ev PulseEvent) {
	if pl == nil || pl.err != nil {
		return
	}
	pl.err = pl.enc.Encode(ev)
}

// Err returns the first write error. Safe to call on nil receiver.
func (pl *PulseLog) Err() error {
	if pl == nil {
		return nil
	}
	return errors.Wrap(pl.err, "write pulse log")
}
