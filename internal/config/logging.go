package config

import (
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// NewLogger builds the process logger from the loaded config: text on
// stderr for the plain commands, JSON appended to LogFile. The chat TUI
// owns the terminal while it runs, so during a consultation the file is
// the record that matters. The returned closer releases the file handle.
func (c Config) NewLogger() (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}

	closer := func() error { return nil }
	if file := c.openLogFile(); file != nil {
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
		closer = file.Close
	}
	return slog.New(slogmulti.Fanout(handlers...)), closer
}

// openLogFile creates the log directory and opens the file for append.
// A logger without the file handler is still serviceable, so failures
// are reported and swallowed.
func (c Config) openLogFile() *os.File {
	if c.LogFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o755); err != nil {
		slog.Warn("cannot create log directory, stderr only", "error", err, "dir", filepath.Dir(c.LogFile))
		return nil
	}
	file, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		slog.Warn("cannot open log file, stderr only", "error", err, "file", c.LogFile)
		return nil
	}
	return file
}
