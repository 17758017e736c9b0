// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package dolphin attaches to a running Dolphin emulator process and
// exposes the emulated GameCube/Wii address space for reading and
// writing. It also resolves the Mario Kart Wii save-system pointer
// chain into a Layout of base addresses.
//
// Guest addresses are the console's: MEM1 starts at 0x80000000 and MEM2
// at 0x90000000. The accessor translates them into host addresses inside
// Dolphin's shared-memory arena and transfers bytes with
// process_vm_readv/process_vm_writev, so no ptrace attachment is needed.
package dolphin

import "errors"

// Emulated memory regions. MKWii keeps its system manager in MEM1 and
// the rksys.dat working buffer in MEM2.
const (
	Mem1Start uint32 = 0x80000000
	Mem1Size  uint32 = 0x01800000

	Mem2Start uint32 = 0x90000000
	Mem2Size  uint32 = 0x04000000
)

var (
	// ErrNotHooked is returned by memory operations before a successful
	// Hook call or after the hook has been dropped.
	ErrNotHooked = errors.New("not hooked to dolphin")

	// ErrNoProcess indicates no running Dolphin process with an emulation
	// arena was found.
	ErrNoProcess = errors.New("no dolphin process with emulated memory found")

	// ErrUnmapped indicates a guest address outside MEM1 and MEM2.
	ErrUnmapped = errors.New("guest address not in emulated memory")
)

// Accessor reads and writes bytes in the emulated address space. Any
// call may fail once the emulator exits or the emulated memory is torn
// down; callers treat failures as a signal to unhook and re-resolve.
type Accessor interface {
	// Hook locates the emulator process and maps its memory arena.
	// Calling Hook while hooked is a no-op.
	Hook() error

	// Unhook drops the attachment. Safe to call repeatedly.
	Unhook()

	// Hooked reports whether the accessor currently has an attachment.
	Hooked() bool

	// Read fills buf with len(buf) bytes starting at the guest address.
	Read(addr uint32, buf []byte) error

	// Write copies buf into guest memory starting at the guest address.
	Write(addr uint32, buf []byte) error
}

// ReadByte is a convenience wrapper for single-byte reads.
func ReadByte(acc Accessor, addr uint32) (byte, error) {
	var b [1]byte
	if err := acc.Read(addr, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// WriteByte is a convenience wrapper for single-byte writes.
func WriteByte(acc Accessor, addr uint32, value byte) error {
	b := [1]byte{value}
	return acc.Write(addr, b[:])
}
