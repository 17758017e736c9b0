// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package client

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/toent/mkwii-client/services/client/dolphin"
	"github.com/toent/mkwii-client/services/client/save"
)

// State is the emulator attachment lifecycle.
type State int32

const (
	// StateDetached means no usable layout is held.
	StateDetached State = iota

	// StateAttaching means the process is hooked but the pointer
	// chain has not resolved yet.
	StateAttaching

	// StateAttached means a layout resolved and is presumed valid.
	StateAttached
)

func (s State) String() string {
	switch s {
	case StateAttached:
		return "attached"
	case StateAttaching:
		return "attaching"
	default:
		return "detached"
	}
}

// Session tracks one emulator attachment: the hook, the resolved
// layout, and the store/decoder bound to it. All three are replaced
// together on every attach and discarded together on every detach.
type Session struct {
	acc  dolphin.Accessor
	slot int
	log  *slog.Logger

	state atomic.Int32

	// suspended pauses enforcement without detaching, used while the
	// game is known to be mid-load and its heap is shifting.
	suspended atomic.Bool

	mu      sync.Mutex
	layout  dolphin.Layout
	store   *save.Store
	decoder *save.Decoder
}

// NewSession returns a detached session for one save slot.
func NewSession(acc dolphin.Accessor, slot int, log *slog.Logger) *Session {
	return &Session{acc: acc, slot: slot, log: log}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Suspend pauses enforcement until Resume.
func (s *Session) Suspend() { s.suspended.Store(true) }

// Resume re-enables enforcement.
func (s *Session) Resume() { s.suspended.Store(false) }

// Suspended reports whether enforcement is paused.
func (s *Session) Suspended() bool { return s.suspended.Load() }

// Attach hooks the emulator if needed and resolves the pointer chain.
// On success the session holds a fresh layout with store and decoder
// bound to it. Failures leave the session in StateAttaching when the
// hook held but the chain did not resolve, StateDetached otherwise.
func (s *Session) Attach() error {
	if !s.acc.Hooked() {
		if err := s.acc.Hook(); err != nil {
			s.state.Store(int32(StateDetached))
			return err
		}
	}
	s.state.Store(int32(StateAttaching))

	layout, err := dolphin.NewResolver(s.acc, s.slot).Resolve()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.layout = layout
	s.store = save.NewStore(s.acc, layout, s.log)
	s.decoder = save.NewDecoder(s.acc, layout)
	s.mu.Unlock()
	s.state.Store(int32(StateAttached))

	s.log.Info("attached to game",
		"manager", hex32(layout.Manager),
		"save_buffer", hex32(layout.SaveBuffer),
		"slot", layout.Slot)
	return nil
}

// Detach invalidates the layout. The next cycle starts from resolve.
// The process hook is kept; Unhook drops that too.
func (s *Session) Detach(reason error) {
	if s.State() == StateDetached {
		return
	}
	s.mu.Lock()
	s.store = nil
	s.decoder = nil
	s.mu.Unlock()
	s.state.Store(int32(StateDetached))
	s.log.Warn("detached from game", "reason", reason)
}

// Unhook fully releases the emulator process.
func (s *Session) Unhook() {
	s.Detach(nil)
	s.acc.Unhook()
}

// Store returns the unlock store for the current layout, or nil when
// detached.
func (s *Session) Store() *save.Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store
}

// Decoder returns the GP decoder for the current layout, or nil when
// detached.
func (s *Session) Decoder() *save.Decoder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.decoder
}

func hex32(v uint32) string {
	return fmt.Sprintf("0x%08X", v)
}
