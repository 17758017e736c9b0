// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dolphin

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// GameID identifies the PAL release of Mario Kart Wii. Other regions
// use different save layouts and are not supported.
const GameID = "RMCP01"

// MKWii pointer chain (PAL). All offsets were verified against
// progressive save snapshots and hold for RMCP01 only.
const (
	addrGameID     uint32 = 0x80000000
	addrManagerPtr uint32 = 0x809BD748

	// heapFloor is the lowest address a real heap pointer can hold.
	// Values below it mean the game has not allocated the structure yet.
	heapFloor uint32 = 0x80000000

	offSaveBufferPtr  uint32 = 0x14
	offRuntimeUnlocks uint32 = 0x9034
	runtimeSlotStride uint32 = 0x93F0
)

// saveMagic starts the rksys.dat working buffer once initialized.
var saveMagic = []byte("RKSD")

// Transient resolution failures. All of them are expected during boot
// and mean "retry later", never "give up".
var (
	// ErrWrongGame means the loaded title is not PAL MKWii (yet).
	ErrWrongGame = errors.New("wrong game id")

	// ErrNotLoaded means the system manager pointer is not populated,
	// which happens until the game passes its title sequence.
	ErrNotLoaded = errors.New("game not loaded past title screen")

	// ErrSaveLoading means the manager exists but the save buffer
	// pointer is not valid yet.
	ErrSaveLoading = errors.New("save system still loading")

	// ErrBufferNotReady means the save buffer exists but its RKSD
	// header has not been written yet.
	ErrBufferNotReady = errors.New("save buffer not initialized")
)

// Layout holds the three resolved base addresses plus the save slot
// they were resolved for. A Layout is valid only while the attachment
// that produced it is alive; any read failure against it invalidates
// all three addresses together.
type Layout struct {
	// Manager is the game's system manager structure.
	Manager uint32

	// RuntimeUnlocks is the 8-byte unlock region the game reads for
	// immediate gameplay effect.
	RuntimeUnlocks uint32

	// SaveBuffer is the in-memory rksys.dat image (RKSD header at
	// offset 0) that the game writes back to storage on auto-save.
	SaveBuffer uint32

	// Slot is the 0-based save license index the layout addresses.
	Slot int
}

// Resolver walks the MKWii pointer chain for one save slot.
type Resolver struct {
	acc  Accessor
	slot int
}

// NewResolver returns a resolver for the given 0-based save slot.
func NewResolver(acc Accessor, slot int) *Resolver {
	return &Resolver{acc: acc, slot: slot}
}

// Resolve validates the full pointer chain and returns the resulting
// Layout. Each stage gates the next; every failure is transient and
// carries a distinguishable cause for logging. Read errors during boot
// are folded into the stage's cause, since unmapped memory and
// unpopulated pointers are indistinguishable from outside.
func (r *Resolver) Resolve() (Layout, error) {
	var id [6]byte
	if err := r.acc.Read(addrGameID, id[:]); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrWrongGame, err)
	}
	if string(id[:]) != GameID {
		return Layout{}, fmt.Errorf("%w: got %q, want %q", ErrWrongGame, printable(id[:]), GameID)
	}

	manager, err := r.readPointer(addrManagerPtr)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrNotLoaded, err)
	}
	if manager < heapFloor {
		return Layout{}, fmt.Errorf("%w: manager pointer 0x%08X", ErrNotLoaded, manager)
	}

	saveBuffer, err := r.readPointer(manager + offSaveBufferPtr)
	if err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrSaveLoading, err)
	}
	if saveBuffer < heapFloor {
		return Layout{}, fmt.Errorf("%w: buffer pointer 0x%08X", ErrSaveLoading, saveBuffer)
	}

	var magic [4]byte
	if err := r.acc.Read(saveBuffer, magic[:]); err != nil {
		return Layout{}, fmt.Errorf("%w: %v", ErrBufferNotReady, err)
	}
	if !bytes.Equal(magic[:], saveMagic) {
		return Layout{}, fmt.Errorf("%w: magic %x", ErrBufferNotReady, magic)
	}

	return Layout{
		Manager:        manager,
		RuntimeUnlocks: manager + offRuntimeUnlocks + uint32(r.slot)*runtimeSlotStride,
		SaveBuffer:     saveBuffer,
		Slot:           r.slot,
	}, nil
}

func (r *Resolver) readPointer(addr uint32) (uint32, error) {
	var buf [4]byte
	if err := r.acc.Read(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// printable renders raw identity bytes safely for log output.
func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c > 0x7E {
			c = '.'
		}
		out[i] = c
	}
	return string(out)
}
