// Package logger is a small leveled logger writing one line per entry,
// either human-readable or JSON.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log entry.
type Level int

const (
	TraceLevel Level = iota
	DebugLevel
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case TraceLevel:
		return "TRACE"
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a case-insensitive level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level '%s' — must be one of: trace, debug, info, warn, error", s)
	}
}

// Config controls a Logger.
type Config struct {
	Level     Level
	JSON      bool
	Component string
	Output    io.Writer
}

// Field is a structured key/value attached to an entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Err attaches err under the "error" key.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Logger writes leveled entries. The zero value is not usable; use New.
type Logger struct {
	mu     sync.Mutex
	config Config
	now    func() time.Time
}

type entry struct {
	Time      string         `json:"time"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// New creates a Logger. A nil Output means stderr.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{config: cfg, now: time.Now}
}

// With returns a logger sharing the output and level under another component.
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	cfg := l.config
	cfg.Component = component
	return &Logger{config: cfg, now: l.now}
}

func (l *Logger) Trace(msg string, fields ...Field) { l.log(TraceLevel, msg, fields) }
func (l *Logger) Debug(msg string, fields ...Field) { l.log(DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(ErrorLevel, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if l == nil || level < l.config.Level {
		return
	}

	e := entry{
		Time:      l.now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Component: l.config.Component,
		Message:   msg,
	}
	if len(fields) > 0 {
		e.Fields = make(map[string]any, len(fields))
		for _, f := range fields {
			e.Fields[f.Key] = f.Value
		}
	}

	var line string
	if l.config.JSON {
		data, err := json.Marshal(e)
		if err != nil {
			line = fmt.Sprintf(`{"level":"ERROR","message":"marshal log entry: %s"}`, err)
		} else {
			line = string(data)
		}
	} else {
		line = formatPretty(e)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.config.Output, line)
}

func formatPretty(e entry) string {
	var b strings.Builder
	b.WriteString(e.Time)
	b.WriteString(" [")
	b.WriteString(e.Level)
	b.WriteString("]")
	if e.Component != "" {
		b.WriteString(" ")
		b.WriteString(e.Component)
		b.WriteString(":")
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Fields[k])
		}
		b.WriteString("}")
	}
	return b.String()
}

var (
	defaultMu     sync.RWMutex
	defaultLogger = New(Config{Level: WarnLevel})
)

// Initialize replaces the package-level default logger.
func Initialize(cfg Config) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = New(cfg)
}

// Default returns the package-level logger.
func Default() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Discard returns a logger that writes nothing.
func Discard() *Logger {
	return New(Config{Level: ErrorLevel + 1, Output: io.Discard})
}
