// Package logging provides file-based logging for agentdeck.
// Entries go to the global log (<home>/logs/deck.log) and, when scoped to a
// task, to that task's log (<home>/logs/task-N.log).
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/runoshun/agentdeck/internal/domain"
)

// Ensure Logger implements domain.Logger interface.
var _ domain.Logger = (*Logger)(nil)

// Logger is safe for concurrent use by the control loop, pollers and
// socket connections.
// Fields are ordered to minimize memory padding.
type Logger struct {
	mirror     io.Writer // Optional copy of every entry (e.g. stderr for deck serve)
	globalFile *os.File
	taskFiles  map[int64]*os.File
	now        func() time.Time
	home       string
	mu         sync.Mutex
	level      slog.Level
}

// New creates a new Logger that writes below home.
// If home is empty, file output is disabled.
func New(home string, level slog.Level) *Logger {
	return &Logger{
		home:      home,
		level:     level,
		taskFiles: make(map[int64]*os.File),
		now:       time.Now,
	}
}

// WithMirror copies every entry to w as well.
func (l *Logger) WithMirror(w io.Writer) *Logger {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.mirror = w
	return l
}

// ParseLevel parses a log level string into slog.Level.
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Close closes all open log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lastErr error
	if l.globalFile != nil {
		if err := l.globalFile.Close(); err != nil {
			lastErr = err
		}
		l.globalFile = nil
	}
	for id, f := range l.taskFiles {
		if err := f.Close(); err != nil {
			lastErr = err
		}
		delete(l.taskFiles, id)
	}
	return lastErr
}

// Info logs an info message.
func (l *Logger) Info(taskID int64, category, msg string) {
	l.log(slog.LevelInfo, taskID, category, msg)
}

// Debug logs a debug message.
func (l *Logger) Debug(taskID int64, category, msg string) {
	l.log(slog.LevelDebug, taskID, category, msg)
}

// Warn logs a warning message.
func (l *Logger) Warn(taskID int64, category, msg string) {
	l.log(slog.LevelWarn, taskID, category, msg)
}

// Error logs an error message.
func (l *Logger) Error(taskID int64, category, msg string) {
	l.log(slog.LevelError, taskID, category, msg)
}

func (l *Logger) log(level slog.Level, taskID int64, category, msg string) {
	if level < l.level {
		return
	}
	entry := formatLog(l.now(), level, taskID, category, msg)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mirror != nil {
		_, _ = io.WriteString(l.mirror, entry)
	}
	if l.home == "" {
		return
	}
	if f, err := l.openLocked(&l.globalFile, domain.GlobalLogPath(l.home)); err == nil {
		_, _ = io.WriteString(f, entry)
	}
	if taskID > 0 {
		tf := l.taskFiles[taskID]
		if f, err := l.openLocked(&tf, domain.TaskLogPath(l.home, taskID)); err == nil {
			l.taskFiles[taskID] = f
			_, _ = io.WriteString(f, entry)
		}
	}
}

// openLocked returns *slot, opening path into it first if needed.
// l.mu must be held.
func (l *Logger) openLocked(slot **os.File, path string) (*os.File, error) {
	if *slot != nil {
		return *slot, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640) //nolint:gosec // Log file readable by owner and group
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	*slot = f
	return f, nil
}

// formatLog formats a log entry.
// Format: [2026-03-01 09:32:51] [INFO] [task-1] [category] message
func formatLog(t time.Time, level slog.Level, taskID int64, category, msg string) string {
	scope := "global"
	if taskID > 0 {
		scope = fmt.Sprintf("task-%d", taskID)
	}
	return fmt.Sprintf("[%s] [%s] [%s] [%s] %s\n",
		t.Format("2006-01-02 15:04:05"),
		levelToString(level),
		scope,
		category,
		msg,
	)
}

func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
