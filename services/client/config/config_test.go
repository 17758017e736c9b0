// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
server:
  address: ws://localhost:38281
  slot_name: Player1
game:
  save_slot: 1
  poll_interval: 250ms
storage:
  path: /tmp/mkwii-test
logging:
  level: debug
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:38281", cfg.Server.Address)
	assert.Equal(t, "Player1", cfg.Server.SlotName)
	assert.Equal(t, 1, cfg.Game.SaveSlot)
	assert.Equal(t, 250*time.Millisecond, cfg.Game.PollInterval)
	assert.Equal(t, 30, cfg.Game.RehookAttempts, "default survives overlay")
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing address", "server:\n  slot_name: P1\nstorage:\n  path: /tmp/x\n"},
		{"save slot out of range", validYAML + "\ngame:\n  save_slot: 4\n"},
		{"bad log level", validYAML + "\nlogging:\n  level: loud\n"},
		{"not yaml", "{{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestWatch_ReloadsOnEdit(t *testing.T) {
	path := writeConfig(t, validYAML)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded := make(chan Config, 1)
	go func() {
		_ = Watch(ctx, path, log, func(cfg Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher a moment to arm before editing.
	time.Sleep(200 * time.Millisecond)
	edited := validYAML + "\nmetrics:\n  addr: 127.0.0.1:9190\n"
	require.NoError(t, os.WriteFile(path, []byte(edited), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "127.0.0.1:9190", cfg.Metrics.Addr)
	case <-ctx.Done():
		t.Fatal("config reload never fired")
	}
}

func TestWatch_SkipsInvalidEdit(t *testing.T) {
	path := writeConfig(t, validYAML)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	go func() {
		_ = Watch(ctx, path, log, func(cfg Config) { reloaded <- cfg })
	}()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("invalid edit must not trigger onChange")
	case <-time.After(700 * time.Millisecond):
	}
}
