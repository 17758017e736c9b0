// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build !linux

package dolphin

import (
	"errors"
	"runtime"
)

// ProcessAccessor is only implemented for Linux, where Dolphin exposes
// its emulation arena as a /dev/shm file readable via process_vm_readv.
type ProcessAccessor struct{}

func NewProcessAccessor() *ProcessAccessor { return &ProcessAccessor{} }

func (a *ProcessAccessor) Hook() error {
	return errors.New("dolphin memory access not supported on " + runtime.GOOS)
}

func (a *ProcessAccessor) Unhook()                            {}
func (a *ProcessAccessor) Hooked() bool                       { return false }
func (a *ProcessAccessor) Read(addr uint32, buf []byte) error { return ErrNotHooked }
func (a *ProcessAccessor) Write(addr uint32, buf []byte) error {
	return ErrNotHooked
}
