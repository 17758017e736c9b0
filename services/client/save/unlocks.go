// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package save reads and writes MKWii save state in two places: the
// live unlock mirrors inside an attached Dolphin process (Store,
// Decoder) and rksys.dat seed-save files on disk (File).
package save

import (
	"fmt"
	"log/slog"
	"math/bits"

	"github.com/toent/mkwii-client/services/client/dolphin"
	"github.com/toent/mkwii-client/services/client/gamedata"
)

// saveSlotStride separates consecutive save licenses inside the
// in-memory rksys buffer.
const saveSlotStride uint32 = 0x8CC0

// Store performs dual-mirror unlock flag access against a resolved
// layout. The runtime mirror is the operation of record; the persisted
// mirror is best-effort because the game relocates and rewrites that
// buffer on its own schedule.
type Store struct {
	acc    dolphin.Accessor
	layout dolphin.Layout
	log    *slog.Logger
}

// NewStore returns a store bound to one resolved layout. The store
// must be discarded together with the layout on any read failure.
func NewStore(acc dolphin.Accessor, layout dolphin.Layout, log *slog.Logger) *Store {
	return &Store{acc: acc, layout: layout, log: log}
}

func (s *Store) runtimeAddr(ref gamedata.BitRef) uint32 {
	return s.layout.RuntimeUnlocks + uint32(ref.Offset) - gamedata.UnlockRegionStart
}

func (s *Store) persistedAddr(ref gamedata.BitRef) uint32 {
	return s.layout.SaveBuffer + uint32(ref.Offset) + uint32(s.layout.Slot)*saveSlotStride
}

// ReadFlag reports whether the named entity is unlocked on the device.
// Entities without a save bit are always unlocked.
func (s *Store) ReadFlag(name string) (bool, error) {
	ref, ok := gamedata.UnlockBits[name]
	if !ok {
		return true, nil
	}
	b, err := dolphin.ReadByte(s.acc, s.runtimeAddr(ref))
	if err != nil {
		return false, fmt.Errorf("reading unlock flag %q: %w", name, err)
	}
	return b&(1<<ref.Bit) != 0, nil
}

// WriteFlag sets or clears the entity's unlock bit in both mirrors.
// The returned changed flag reflects only the runtime-mirror delta.
// A runtime write failure fails the whole call without touching the
// persisted mirror; a persisted write failure is logged and swallowed.
func (s *Store) WriteFlag(name string, value bool) (bool, error) {
	ref, ok := gamedata.UnlockBits[name]
	if !ok {
		return false, nil
	}

	rtAddr := s.runtimeAddr(ref)
	old, err := dolphin.ReadByte(s.acc, rtAddr)
	if err != nil {
		return false, fmt.Errorf("reading runtime unlock byte for %q: %w", name, err)
	}
	updated := setBit(old, ref.Bit, value)
	if err := dolphin.WriteByte(s.acc, rtAddr, updated); err != nil {
		return false, fmt.Errorf("writing runtime unlock byte for %q: %w", name, err)
	}

	s.mirrorToPersisted(name, ref, value)
	return old != updated, nil
}

// mirrorToPersisted applies the same bit change to the save buffer.
// Failures only risk a save-reload discrepancy, never gameplay effect,
// so they are logged at Warn and not escalated.
func (s *Store) mirrorToPersisted(name string, ref gamedata.BitRef, value bool) {
	addr := s.persistedAddr(ref)
	old, err := dolphin.ReadByte(s.acc, addr)
	if err == nil {
		err = dolphin.WriteByte(s.acc, addr, setBit(old, ref.Bit, value))
	}
	if err != nil {
		s.log.Warn("persisted unlock mirror write failed",
			"entity", name, "addr", fmt.Sprintf("0x%08X", addr), "error", err)
	}
}

// LockAll clears every mapped unlock bit in both mirrors, leaving the
// unmapped bits that share those bytes untouched. Persisted-mirror
// failures are tolerated per byte.
func (s *Store) LockAll() error {
	for i := uint32(0); i < gamedata.UnlockRegionSize; i++ {
		mask := gamedata.UnlockMask[i]
		if mask == 0 {
			continue
		}
		off := gamedata.UnlockRegionStart + uint16(i)
		ref := gamedata.BitRef{Offset: off}

		rtAddr := s.runtimeAddr(ref)
		old, err := dolphin.ReadByte(s.acc, rtAddr)
		if err == nil {
			err = dolphin.WriteByte(s.acc, rtAddr, old&^mask)
		}
		if err != nil {
			return fmt.Errorf("locking runtime unlock byte 0x%04X: %w", off, err)
		}

		pAddr := s.persistedAddr(ref)
		pOld, perr := dolphin.ReadByte(s.acc, pAddr)
		if perr == nil {
			perr = dolphin.WriteByte(s.acc, pAddr, pOld&^mask)
		}
		if perr != nil {
			s.log.Warn("persisted unlock byte lock failed", "offset", fmt.Sprintf("0x%04X", off), "error", perr)
		}
	}
	return nil
}

// ReadRegion reads the full runtime unlock region. The enforcement
// loop uses it as its per-cycle liveness probe.
func (s *Store) ReadRegion() ([]byte, error) {
	buf := make([]byte, gamedata.UnlockRegionSize)
	if err := s.acc.Read(s.layout.RuntimeUnlocks, buf); err != nil {
		return nil, fmt.Errorf("reading unlock region: %w", err)
	}
	return buf, nil
}

// ApplyRegion rewrites every mapped unlock bit that differs from
// desired, in both mirrors, and returns the number of corrected bits.
// Bits outside gamedata.UnlockMask belong to other game state and are
// never written. current must be a fresh ReadRegion result.
func (s *Store) ApplyRegion(current []byte, desired [gamedata.UnlockRegionSize]byte) (int, error) {
	corrected := 0
	for i := range desired {
		mask := gamedata.UnlockMask[i]
		diff := (current[i] ^ desired[i]) & mask
		if diff == 0 {
			continue
		}
		corrected += bits.OnesCount8(diff)
		off := gamedata.UnlockRegionStart + uint16(i)
		ref := gamedata.BitRef{Offset: off}

		updated := current[i]&^mask | desired[i]&mask
		if err := dolphin.WriteByte(s.acc, s.runtimeAddr(ref), updated); err != nil {
			return corrected, fmt.Errorf("correcting unlock byte 0x%04X: %w", off, err)
		}

		// The persisted byte carries its own unmapped bits; merge
		// rather than copying the runtime byte over.
		pAddr := s.persistedAddr(ref)
		pOld, perr := dolphin.ReadByte(s.acc, pAddr)
		if perr == nil {
			perr = dolphin.WriteByte(s.acc, pAddr, pOld&^mask|desired[i]&mask)
		}
		if perr != nil {
			s.log.Warn("persisted unlock correction failed", "offset", fmt.Sprintf("0x%04X", off), "error", perr)
		}
	}
	return corrected, nil
}

func setBit(b byte, bit uint8, value bool) byte {
	if value {
		return b | 1<<bit
	}
	return b &^ (1 << bit)
}
