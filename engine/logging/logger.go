package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Level orders log severities.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts debug/info/warn/error in any case. Unknown names map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Logger writes leveled lines to the console and, when opened with a file,
// to that file as well. The file receives every level; the console only
// receives lines at or above the configured level.
type Logger struct {
	console *log.Logger
	file    *log.Logger
	closer  io.Closer
	level   Level
	prefix  string
}

// New returns a console-only logger.
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		console: log.New(w, "", log.LstdFlags),
		level:   level,
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *Logger {
	return New(io.Discard, ERROR+1)
}

// OpenFile adds a log file sink, creating parent directories as needed.
func (l *Logger) OpenFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	l.file = log.New(f, "", log.LstdFlags)
	l.closer = f
	return nil
}

// Close releases the file sink if one was opened.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	l.file = nil
	return err
}

// With returns a logger sharing the same sinks whose lines carry an extra tag,
// e.g. the run id.
func (l *Logger) With(tag string) *Logger {
	if l == nil {
		return nil
	}
	c := *l
	if c.prefix == "" {
		c.prefix = "[" + tag + "] "
	} else {
		c.prefix += "[" + tag + "] "
	}
	c.closer = nil
	return &c
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(INFO, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(WARN, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(ERROR, format, args...) }

func (l *Logger) logf(level Level, format string, args ...any) {
	if l == nil {
		return
	}
	msg := fmt.Sprintf("[%s] %s%s", level, l.prefix, fmt.Sprintf(format, args...))
	if l.file != nil {
		l.file.Println(msg)
	}
	if level >= l.level && l.console != nil {
		l.console.Println(msg)
	}
}
