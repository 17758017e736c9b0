// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dolphin

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// FakeAccessor is an in-memory Accessor used by tests across the
// client packages. Unset addresses read as zero; address ranges can be
// marked as failing to simulate unmapped or torn-down memory.
type FakeAccessor struct {
	mu         sync.Mutex
	mem        map[uint32]byte
	hooked     bool
	hookErr    error
	failRanges []addrRange
}

type addrRange struct{ start, end uint32 }

// NewFakeAccessor returns an empty fake in the unhooked state.
func NewFakeAccessor() *FakeAccessor {
	return &FakeAccessor{mem: make(map[uint32]byte)}
}

func (f *FakeAccessor) Hook() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hookErr != nil {
		return f.hookErr
	}
	f.hooked = true
	return nil
}

func (f *FakeAccessor) Unhook() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooked = false
}

func (f *FakeAccessor) Hooked() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hooked
}

// SetHookError makes subsequent Hook calls fail with err.
func (f *FakeAccessor) SetHookError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hookErr = err
}

// FailRange makes reads and writes touching [start, end) fail.
func (f *FakeAccessor) FailRange(start, end uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRanges = append(f.failRanges, addrRange{start, end})
}

// ClearFailures removes all failing ranges.
func (f *FakeAccessor) ClearFailures() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failRanges = nil
}

// SetBytes seeds guest memory without hook or failure checks.
func (f *FakeAccessor) SetBytes(addr uint32, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, b := range data {
		f.mem[addr+uint32(i)] = b
	}
}

// SetU32 seeds a big-endian 32-bit value.
func (f *FakeAccessor) SetU32(addr uint32, value uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], value)
	f.SetBytes(addr, buf[:])
}

// Peek returns n bytes of guest memory without failure checks.
func (f *FakeAccessor) Peek(addr uint32, n int) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]byte, n)
	for i := range out {
		out[i] = f.mem[addr+uint32(i)]
	}
	return out
}

func (f *FakeAccessor) Read(addr uint32, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hooked {
		return ErrNotHooked
	}
	if err := f.checkRange(addr, len(buf)); err != nil {
		return err
	}
	for i := range buf {
		buf[i] = f.mem[addr+uint32(i)]
	}
	return nil
}

func (f *FakeAccessor) Write(addr uint32, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.hooked {
		return ErrNotHooked
	}
	if err := f.checkRange(addr, len(buf)); err != nil {
		return err
	}
	for i, b := range buf {
		f.mem[addr+uint32(i)] = b
	}
	return nil
}

func (f *FakeAccessor) checkRange(addr uint32, size int) error {
	for _, r := range f.failRanges {
		if addr < r.end && addr+uint32(size) > r.start {
			return fmt.Errorf("0x%08X: %w", addr, ErrUnmapped)
		}
	}
	return nil
}
