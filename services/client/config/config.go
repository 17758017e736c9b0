// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads and validates the client's YAML configuration
// and watches it for edits while a session is running.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Server configures the multiworld connection.
type Server struct {
	// Address is the websocket URL of the Archipelago server,
	// e.g. "ws://archipelago.gg:38281".
	Address string `yaml:"address" validate:"required"`

	// SlotName is the player slot to claim.
	SlotName string `yaml:"slot_name" validate:"required"`

	// Password is the room password, if any.
	Password string `yaml:"password"`
}

// Game configures the emulator attachment.
type Game struct {
	// SaveSlot is the 0-based license the seed was generated for.
	SaveSlot int `yaml:"save_slot" validate:"min=0,max=3"`

	// PollInterval is the enforcement cycle period.
	PollInterval time.Duration `yaml:"poll_interval" validate:"min=100ms,max=10s"`

	// RehookAttempts bounds a forced reattach before giving up.
	RehookAttempts int `yaml:"rehook_attempts" validate:"min=1,max=300"`
}

// Storage configures local persistence.
type Storage struct {
	// Path is the session database directory.
	Path string `yaml:"path" validate:"required"`
}

// Logging configures log output.
type Logging struct {
	// Level is the minimum level to emit.
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Dir is the log file directory. Empty logs to stderr only.
	Dir string `yaml:"dir"`

	// JSON switches file output to JSON lines.
	JSON bool `yaml:"json"`
}

// Metrics configures the optional Prometheus endpoint.
type Metrics struct {
	// Addr is the listen address, e.g. "127.0.0.1:9190". Empty
	// disables the endpoint.
	Addr string `yaml:"addr"`
}

// Config is the full client configuration.
type Config struct {
	Server  Server  `yaml:"server"`
	Game    Game    `yaml:"game"`
	Storage Storage `yaml:"storage"`
	Logging Logging `yaml:"logging"`
	Metrics Metrics `yaml:"metrics"`
}

// Default returns the configuration used when a field is omitted.
func Default() Config {
	return Config{
		Game: Game{
			SaveSlot:       0,
			PollInterval:   500 * time.Millisecond,
			RehookAttempts: 30,
		},
		Storage: Storage{Path: "mkwii-client-data"},
		Logging: Logging{Level: "info"},
	}
}

// Load reads, overlays onto defaults, and validates a config file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Storage.Path, err = expandHome(cfg.Storage.Path); err != nil {
		return Config{}, err
	}
	if cfg.Logging.Dir, err = expandHome(cfg.Logging.Dir); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// expandHome resolves a leading ~ so paths in the config file can use
// the conventional home shorthand.
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

// Validate checks field constraints.
func (c Config) Validate() error {
	return validator.New().Struct(c)
}
