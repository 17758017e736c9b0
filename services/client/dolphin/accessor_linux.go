// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

//go:build linux

package dolphin

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// Dolphin backs emulated RAM with a /dev/shm/dolphin-emu.<pid> file.
// MEM1 is the mapping at file offset 0 and MEM2 the mapping at file
// offset 0x10000000, mirroring how dolphin-memory-engine locates them.
const mem2FileOffset = 0x10000000

type hostRegion struct {
	guestStart uint32
	guestSize  uint32
	hostStart  uintptr
}

// ProcessAccessor implements Accessor against a live Dolphin process
// using process_vm_readv/process_vm_writev. It requires either the same
// UID as the emulator or CAP_SYS_PTRACE.
type ProcessAccessor struct {
	mu      sync.Mutex
	pid     int
	regions []hostRegion
}

// NewProcessAccessor returns an unhooked accessor. Call Hook to attach.
func NewProcessAccessor() *ProcessAccessor {
	return &ProcessAccessor{pid: -1}
}

func (a *ProcessAccessor) Hook() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pid >= 0 {
		return nil
	}

	pids, err := findDolphinPIDs()
	if err != nil {
		return err
	}
	for _, pid := range pids {
		regions, err := emulatedRegions(pid)
		if err != nil || len(regions) == 0 {
			continue
		}
		a.pid = pid
		a.regions = regions
		return nil
	}
	return ErrNoProcess
}

func (a *ProcessAccessor) Unhook() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pid = -1
	a.regions = nil
}

func (a *ProcessAccessor) Hooked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pid >= 0
}

func (a *ProcessAccessor) Read(addr uint32, buf []byte) error {
	a.mu.Lock()
	pid, host, err := a.translate(addr, len(buf))
	a.mu.Unlock()
	if err != nil {
		return err
	}

	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.RemoteIovec{{Base: host, Len: len(buf)}}
	n, err := unix.ProcessVMReadv(pid, local, remote, 0)
	if err != nil {
		return fmt.Errorf("process_vm_readv pid %d addr 0x%08X: %w", pid, addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("short read at 0x%08X: %d of %d bytes", addr, n, len(buf))
	}
	return nil
}

func (a *ProcessAccessor) Write(addr uint32, buf []byte) error {
	a.mu.Lock()
	pid, host, err := a.translate(addr, len(buf))
	a.mu.Unlock()
	if err != nil {
		return err
	}

	local := []unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}}
	remote := []unix.RemoteIovec{{Base: host, Len: len(buf)}}
	n, err := unix.ProcessVMWritev(pid, local, remote, 0)
	if err != nil {
		return fmt.Errorf("process_vm_writev pid %d addr 0x%08X: %w", pid, addr, err)
	}
	if n != len(buf) {
		return fmt.Errorf("short write at 0x%08X: %d of %d bytes", addr, n, len(buf))
	}
	return nil
}

// translate maps a guest address range to a host pointer. The range must
// lie entirely within one emulated region.
func (a *ProcessAccessor) translate(addr uint32, size int) (int, uintptr, error) {
	if a.pid < 0 {
		return 0, 0, ErrNotHooked
	}
	for _, r := range a.regions {
		if addr >= r.guestStart && addr+uint32(size) <= r.guestStart+r.guestSize {
			return a.pid, r.hostStart + uintptr(addr-r.guestStart), nil
		}
	}
	return 0, 0, fmt.Errorf("0x%08X: %w", addr, ErrUnmapped)
}

// findDolphinPIDs scans /proc for processes whose comm starts with
// "dolphin-emu".
func findDolphinPIDs() ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("scanning /proc: %w", err)
	}

	var pids []int
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "comm"))
		if err != nil {
			continue
		}
		if strings.HasPrefix(strings.TrimSpace(string(comm)), "dolphin-emu") {
			pids = append(pids, pid)
		}
	}
	if len(pids) == 0 {
		return nil, ErrNoProcess
	}
	return pids, nil
}

// emulatedRegions parses /proc/<pid>/maps for mappings of the process's
// shared-memory arena and returns the MEM1 and MEM2 host regions.
func emulatedRegions(pid int) ([]hostRegion, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	arena := fmt.Sprintf("/dev/shm/dolphin-emu.%d", pid)
	var regions []hostRegion

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, arena) {
			continue
		}
		// addr-range perms offset dev inode path
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		bounds := strings.SplitN(fields[0], "-", 2)
		if len(bounds) != 2 {
			continue
		}
		start, err := strconv.ParseUint(bounds[0], 16, 64)
		if err != nil {
			continue
		}
		end, err := strconv.ParseUint(bounds[1], 16, 64)
		if err != nil {
			continue
		}
		fileOff, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			continue
		}

		size := uint32(end - start)
		switch {
		case fileOff == 0 && size >= Mem1Size:
			regions = append(regions, hostRegion{Mem1Start, Mem1Size, uintptr(start)})
		case fileOff == mem2FileOffset && size >= Mem2Size:
			regions = append(regions, hostRegion{Mem2Start, Mem2Size, uintptr(start)})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// MEM1 is mandatory; a Wii title without MEM2 mapped is still booting.
	for _, r := range regions {
		if r.guestStart == Mem1Start {
			return regions, nil
		}
	}
	return nil, nil
}
