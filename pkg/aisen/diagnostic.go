// diagnostic.go defines the SDK's own diagnostic logging.

package aisen

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
)

// DiagnosticLogger receives the SDK's own log entries: failures to deliver,
// misuse of the scope stack and similar conditions worth surfacing.
// Implementations must be safe for concurrent use.
type DiagnosticLogger interface {
	// IsEnabled reports whether entries at level are recorded.
	IsEnabled(level Level) bool

	// Log records an entry. message is a template with positional
	// placeholders ({0}, {1}, ...) matched by args in order.
	Log(level Level, err error, message string, args ...any)
}

// LogEntry is a single diagnostic entry.
type LogEntry struct {
	Level   Level
	Message string
	Args    []any
	Err     error
}

// Format renders the message template with its arguments.
func (e LogEntry) Format() string {
	return FormatTemplate(e.Message, e.Args...)
}

// FormatTemplate replaces {n} placeholders in template with args[n].
// Placeholders without a matching argument are left as is.
func FormatTemplate(template string, args ...any) string {
	if len(args) == 0 || !strings.Contains(template, "{") {
		return template
	}

	pairs := make([]string, 0, len(args)*2)
	for i, arg := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", fmt.Sprint(arg))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// levelRank orders levels for minimum-level filtering.
func levelRank(level Level) int {
	switch level {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarning:
		return 2
	case LevelError:
		return 3
	case LevelFatal:
		return 4
	default:
		return 1
	}
}

// NopLogger discards all entries.
type NopLogger struct{}

func (NopLogger) IsEnabled(Level) bool             { return false }
func (NopLogger) Log(Level, error, string, ...any) {}

// RecordingLogger accumulates entries in memory. It is meant for tests and for
// applications that want to inspect SDK diagnostics programmatically.
type RecordingLogger struct {
	// MinLevel is the lowest recorded level. Empty records everything.
	MinLevel Level

	mu      sync.Mutex
	entries []LogEntry
}

// IsEnabled reports whether level is at or above MinLevel.
func (l *RecordingLogger) IsEnabled(level Level) bool {
	if l.MinLevel == "" {
		return true
	}
	return levelRank(level) >= levelRank(l.MinLevel)
}

// Log records the entry if its level is enabled.
func (l *RecordingLogger) Log(level Level, err error, message string, args ...any) {
	if !l.IsEnabled(level) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{
		Level:   level,
		Message: message,
		Args:    append([]any(nil), args...),
		Err:     err,
	})
}

// Entries returns a copy of the recorded entries.
func (l *RecordingLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make([]LogEntry, len(l.entries))
	copy(result, l.entries)
	return result
}

// slogLogger adapts a *slog.Logger.
type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger returns a DiagnosticLogger writing to logger. The rendered
// message is the record message; the template, raw arguments and error are
// attached as attributes.
func NewSlogLogger(logger *slog.Logger) DiagnosticLogger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &slogLogger{logger: logger}
}

func (l *slogLogger) IsEnabled(level Level) bool {
	return l.logger.Enabled(context.Background(), slogLevel(level))
}

func (l *slogLogger) Log(level Level, err error, message string, args ...any) {
	ctx := context.Background()
	sl := slogLevel(level)
	if !l.logger.Enabled(ctx, sl) {
		return
	}

	attrs := []slog.Attr{slog.String("template", message)}
	if len(args) > 0 {
		attrs = append(attrs, slog.Any("args", args))
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.logger.LogAttrs(ctx, sl, FormatTemplate(message, args...), attrs...)
}

func slogLevel(level Level) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarning:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	case LevelFatal:
		return slog.LevelError + 4
	default:
		return slog.LevelInfo
	}
}
