// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package logging provides structured logging for the client.
//
// The logger is built on Go's standard library slog package with two
// destinations:
//
//   - stderr, human-readable text by default (the terminal tracker
//     owns stdout, so logs stay on stderr)
//   - an optional per-day log file in JSON format for post-session
//     debugging
//
// The minimum level is held in a slog.LevelVar so the config watcher
// can raise or lower verbosity on a running session without touching
// any handler.
//
// # Basic Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:   "debug",
//	    LogDir:  "~/.mkwii-client/logs",
//	    Service: "mkwii",
//	})
//	defer logger.Close()
//	logger.Info("attached", "slot", 0)
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config configures the Logger. A zero-value Config writes Info and
// above to stderr as text.
type Config struct {
	// Level is the minimum level to emit: "debug", "info", "warn",
	// or "error". Empty means "info".
	Level string

	// LogDir enables file logging to the given directory. The file
	// is named "{Service}_{YYYY-MM-DD}.log" and always holds JSON
	// lines. Supports ~ expansion. Empty disables file logging.
	LogDir string

	// Service is attached to every entry as the "service" attribute.
	Service string

	// JSON switches stderr output to JSON lines.
	JSON bool

	// Quiet disables stderr output entirely. Logs still reach the
	// file when LogDir is set.
	Quiet bool
}

// Logger wraps slog.Logger with a runtime-adjustable level and an
// optional log file. Safe for concurrent use.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
	file  *os.File
}

// ParseLevel converts a config level string into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// New creates a Logger from config. Call Close when done so the log
// file is flushed.
func New(cfg Config) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	opts := &slog.HandlerOptions{Level: lvl}

	var handlers []slog.Handler
	if !cfg.Quiet {
		if cfg.JSON {
			handlers = append(handlers, slog.NewJSONHandler(os.Stderr, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(os.Stderr, opts))
		}
	}

	var file *os.File
	if cfg.LogDir != "" {
		dir, err := expandHome(cfg.LogDir)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		name := fmt.Sprintf("%s_%s.log", serviceOrDefault(cfg.Service), time.Now().Format("2006-01-02"))
		file, err = os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(file, opts))
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = multiHandler(handlers)
	}

	logger := slog.New(handler)
	if cfg.Service != "" {
		logger = logger.With("service", cfg.Service)
	}
	return &Logger{Logger: logger, level: lvl, file: file}, nil
}

// Default returns a stderr-only Logger at Info level.
func Default() *Logger {
	logger, _ := New(Config{})
	return logger
}

// SetLevel changes the minimum level on the fly.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Close flushes and closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// multiHandler fans one record out to every destination. A failure on
// one destination does not stop the others.
type multiHandler []slog.Handler

func (m multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandler) WithGroup(name string) slog.Handler {
	out := make(multiHandler, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}

// expandHome resolves a leading ~ to the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %q: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func serviceOrDefault(service string) string {
	if service == "" {
		return "client"
	}
	return service
}
