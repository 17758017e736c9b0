// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store persists per-session client state in an embedded
// BadgerDB database so progress survives client restarts: which
// locations have been reported to the server and which achievement
// tiers have been observed locally.
//
// Keys are namespaced by seed name and slot number, so one database
// can serve any number of rooms and licenses:
//
//	check/<seed>/<slot>/<locationID>  -> present
//	gp/<seed>/<slot>/<cup>/<class>    -> Entry JSON
package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/toent/mkwii-client/services/client/gamedata"
	"github.com/toent/mkwii-client/services/client/tracker"
)

// Config holds configuration for the session store.
type Config struct {
	// Path is the directory for database files. Required unless
	// InMemory is true.
	Path string

	// InMemory disables disk persistence. Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool

	// Logger receives BadgerDB's internal logging. If nil, internal
	// logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns production defaults: persistent, synchronous.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Store is a session state database. Safe for concurrent use.
type Store struct {
	db *badger.DB
}

// Open creates and opens the store. Caller must Close when done.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("path is required for persistent store")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Session scopes store access to one (seed, slot) pair.
type Session struct {
	store *Store
	seed  string
	slot  int
}

// Session returns a view of the store scoped to one room and license.
func (s *Store) Session(seed string, slot int) *Session {
	return &Session{store: s, seed: seed, slot: slot}
}

func (s *Session) checkKey(location int64) []byte {
	key := fmt.Sprintf("check/%s/%d/", s.seed, s.slot)
	buf := make([]byte, len(key)+8)
	copy(buf, key)
	binary.BigEndian.PutUint64(buf[len(key):], uint64(location))
	return buf
}

func (s *Session) gpKey(key tracker.Key) []byte {
	return []byte(fmt.Sprintf("gp/%s/%d/%s/%s", s.seed, s.slot, key.Cup, key.Class))
}

// MarkChecked records locations as reported to the server.
func (s *Session) MarkChecked(locations []int64) error {
	return s.store.db.Update(func(txn *badger.Txn) error {
		for _, loc := range locations {
			if err := txn.Set(s.checkKey(loc), nil); err != nil {
				return err
			}
		}
		return nil
	})
}

// CheckedLocations returns every location previously marked checked.
func (s *Session) CheckedLocations() ([]int64, error) {
	prefix := []byte(fmt.Sprintf("check/%s/%d/", s.seed, s.slot))
	var out []int64
	err := s.store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			k := it.Item().Key()
			if len(k) != len(prefix)+8 {
				continue
			}
			out = append(out, int64(binary.BigEndian.Uint64(k[len(prefix):])))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing checked locations: %w", err)
	}
	return out, nil
}

// SaveEntry persists one GP's accumulated state.
func (s *Session) SaveEntry(key tracker.Key, entry tracker.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding gp entry: %w", err)
	}
	return s.store.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.gpKey(key), data)
	})
}

// LoadEntries returns every persisted GP entry for the session.
func (s *Session) LoadEntries() (map[tracker.Key]tracker.Entry, error) {
	prefix := []byte(fmt.Sprintf("gp/%s/%d/", s.seed, s.slot))
	out := make(map[tracker.Key]tracker.Entry)
	err := s.store.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			rest := strings.TrimPrefix(string(item.Key()), string(prefix))
			cup, class, ok := splitGPKey(rest)
			if !ok {
				continue
			}
			var entry tracker.Entry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			out[tracker.Key{Cup: cup, Class: class}] = entry
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing gp entries: %w", err)
	}
	return out, nil
}

// splitGPKey parses "<cup>/<class>"; cup names contain no slashes.
func splitGPKey(rest string) (string, gamedata.Class, bool) {
	i := strings.LastIndexByte(rest, '/')
	if i < 0 {
		return "", 0, false
	}
	class, err := gamedata.ParseClass(rest[i+1:])
	if err != nil {
		return "", 0, false
	}
	return rest[:i], class, true
}
