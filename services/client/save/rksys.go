// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package save

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"sort"

	"github.com/toent/mkwii-client/services/client/gamedata"
)

// On-disk rksys.dat seed-save layout. This is the compact template
// layout written into generated seeds, not the full game save: each
// license carries only unlock bitfields and per-cup GP summaries.
const (
	FileSize = 0x8000

	fileLicenseSize uint32 = 0x1C00

	fileOffCharacters uint32 = 0x20
	fileOffVehicles   uint32 = 0x24
	fileOffCups       uint32 = 0x28
	fileOffModes      uint32 = 0x2C
	fileOffGP50       uint32 = 0x30

	fileGPClassStride uint32 = 0x40
	fileChecksumOff   uint32 = 0x7FF8

	// fileCupMirrorBit shares the cup bitfield with the mirror-mode
	// unlock. Cup bits 0-6 cover Flower through Lightning; Mushroom is
	// always available and has no bit.
	fileCupMirrorBit = 7
)

var fileLicenseBases = [4]uint32{0x0008, 0x1C08, 0x3808, 0x5408}

// fileCharacterBits maps unlockable characters to their bit position
// in the license's character bitfield.
var fileCharacterBits = map[string]uint{
	"Baby Daisy": 0, "Baby Luigi": 1, "Birdo": 2, "Bowser Jr.": 3,
	"Daisy": 4, "Diddy Kong": 5, "Dry Bones": 6, "Dry Bowser": 7,
	"Funky Kong": 8, "King Boo": 9, "Mii Outfit B": 10, "Rosalina": 11,
	"Toadette": 12, "Mii Outfit A": 13,
}

// fileVehicleBits maps unlockable vehicles to their bit position in
// the license's vehicle bitfield.
var fileVehicleBits = map[string]uint{
	"Blue Falcon": 0, "Cheep Charger": 1, "Rally Romper": 2,
	"B. Dasher Mk 2": 3, "Royal Racer": 4, "Turbo Blooper": 5,
	"Aero Glider": 6, "Honeycoupe": 7, "Dragonetti": 8,
	"Piranha Prowler": 9, "Sneakster": 10, "Dolphin Dasher": 11,
	"Magikruiser": 12, "Bubble Bike": 13, "Quacker": 14,
	"Rapide": 15, "Nitrocycle": 16, "Torpedo": 17,
	"Jetsetter": 18, "Shooting Star": 19, "Twinkle Star": 20,
	"Phantom": 21, "Tiny Titan": 22, "Bit Bike": 23,
	"Zip Zip": 24, "Jet Bubble": 25, "Wario Bike": 26,
	"Mini Beast": 27, "Super Blooper": 28, "Daytripper": 29,
}

// fileCupBits maps unlockable cups to their bit position in the
// license's cup bitfield.
var fileCupBits = map[string]uint{
	"Flower Cup": 0, "Star Cup": 1, "Special Cup": 2,
	"Shell Cup": 3, "Banana Cup": 4, "Leaf Cup": 5, "Lightning Cup": 6,
}

// FileCharacterNames lists every character with a file unlock bit,
// sorted for stable output.
func FileCharacterNames() []string {
	return sortedNames(fileCharacterBits)
}

// FileVehicleNames lists every vehicle with a file unlock bit, sorted
// for stable output.
func FileVehicleNames() []string {
	return sortedNames(fileVehicleBits)
}

func sortedNames(m map[string]uint) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var (
	// ErrBadFileSize means the file is not the expected 32 KiB.
	ErrBadFileSize = errors.New("save file has wrong size")

	// ErrBadMagic means the file does not start with the RKSD header.
	ErrBadMagic = errors.New("save file missing RKSD header")

	// ErrBadChecksum means the trailing CRC does not cover the content.
	ErrBadChecksum = errors.New("save file checksum mismatch")
)

// File is an in-memory rksys.dat seed save. Mutating methods operate
// on one license at a time and leave the checksum stale until Save.
type File struct {
	data []byte
}

// LoadFile reads and validates a seed save from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading save file: %w", err)
	}
	f := &File{data: data}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// NewFileFrom wraps an existing save image, validating it first.
func NewFileFrom(data []byte) (*File, error) {
	f := &File{data: data}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) validate() error {
	if len(f.data) != FileSize {
		return fmt.Errorf("%w: %d bytes", ErrBadFileSize, len(f.data))
	}
	if string(f.data[:4]) != "RKSD" {
		return ErrBadMagic
	}
	stored := binary.BigEndian.Uint32(f.data[fileChecksumOff:])
	if computed := crc32.ChecksumIEEE(f.data[:fileChecksumOff]); stored != computed {
		return fmt.Errorf("%w: stored %08X, computed %08X", ErrBadChecksum, stored, computed)
	}
	return nil
}

// Save recomputes the checksum and writes the image to disk.
func (f *File) Save(path string) error {
	f.UpdateChecksum()
	if err := os.WriteFile(path, f.data, 0o644); err != nil {
		return fmt.Errorf("writing save file: %w", err)
	}
	return nil
}

// UpdateChecksum recomputes the trailing CRC32 over the file content.
func (f *File) UpdateChecksum() {
	binary.BigEndian.PutUint32(f.data[fileChecksumOff:],
		crc32.ChecksumIEEE(f.data[:fileChecksumOff]))
}

func (f *File) bitfield(slot int, off uint32) uint32 {
	return binary.BigEndian.Uint32(f.data[fileLicenseBases[slot]+off:])
}

func (f *File) setBitfield(slot int, off uint32, v uint32) {
	binary.BigEndian.PutUint32(f.data[fileLicenseBases[slot]+off:], v)
}

func (f *File) setBitIn(slot int, off uint32, bit uint, value bool) {
	v := f.bitfield(slot, off)
	if value {
		v |= 1 << bit
	} else {
		v &^= 1 << bit
	}
	f.setBitfield(slot, off, v)
}

// CharacterUnlocked reports whether the named character is unlocked in
// the slot's license. Characters without a bit are always unlocked.
func (f *File) CharacterUnlocked(slot int, name string) bool {
	bit, ok := fileCharacterBits[name]
	if !ok {
		return true
	}
	return f.bitfield(slot, fileOffCharacters)&(1<<bit) != 0
}

// SetCharacter sets or clears a character unlock.
func (f *File) SetCharacter(slot int, name string, unlocked bool) error {
	bit, ok := fileCharacterBits[name]
	if !ok {
		return fmt.Errorf("character %q has no unlock bit", name)
	}
	f.setBitIn(slot, fileOffCharacters, bit, unlocked)
	return nil
}

// VehicleUnlocked reports whether the named vehicle is unlocked in the
// slot's license. Vehicles without a bit are always unlocked.
func (f *File) VehicleUnlocked(slot int, name string) bool {
	bit, ok := fileVehicleBits[name]
	if !ok {
		return true
	}
	return f.bitfield(slot, fileOffVehicles)&(1<<bit) != 0
}

// SetVehicle sets or clears a vehicle unlock.
func (f *File) SetVehicle(slot int, name string, unlocked bool) error {
	bit, ok := fileVehicleBits[name]
	if !ok {
		return fmt.Errorf("vehicle %q has no unlock bit", name)
	}
	f.setBitIn(slot, fileOffVehicles, bit, unlocked)
	return nil
}

// CupUnlocked reports whether the named cup is unlocked in the slot's
// license. Mushroom Cup has no bit and is always unlocked.
func (f *File) CupUnlocked(slot int, name string) bool {
	bit, ok := fileCupBits[name]
	if !ok {
		return true
	}
	return f.bitfield(slot, fileOffCups)&(1<<bit) != 0
}

// SetCup sets or clears a cup unlock.
func (f *File) SetCup(slot int, name string, unlocked bool) error {
	bit, ok := fileCupBits[name]
	if !ok {
		return fmt.Errorf("cup %q has no unlock bit", name)
	}
	f.setBitIn(slot, fileOffCups, bit, unlocked)
	return nil
}

// MirrorUnlocked reports whether Mirror mode is unlocked.
func (f *File) MirrorUnlocked(slot int) bool {
	return f.bitfield(slot, fileOffCups)&(1<<fileCupMirrorBit) != 0
}

// SetMirror sets or clears the Mirror mode unlock.
func (f *File) SetMirror(slot int, unlocked bool) {
	f.setBitIn(slot, fileOffCups, fileCupMirrorBit, unlocked)
}

func (f *File) gpEntry(slot int, class gamedata.Class, cup int) uint32 {
	classIdx := uint32(0)
	for i, c := range gamedata.Classes {
		if c == class {
			classIdx = uint32(i)
		}
	}
	return fileLicenseBases[slot] + fileOffGP50 + classIdx*fileGPClassStride + uint32(cup)*2
}

// GPResult returns the stored result for one (class, cup) pair. The
// on-disk encoding counts upward: trophy none=0..gold=3, rank D=0..
// three stars=6. Values outside either range decode to the zero
// result.
func (f *File) GPResult(slot int, class gamedata.Class, cup int) gamedata.GPResult {
	off := f.gpEntry(slot, class, cup)
	trophy, rank := f.data[off], f.data[off+1]

	var res gamedata.GPResult
	switch trophy {
	case 1:
		res.Trophy = gamedata.TrophyBronze
	case 2:
		res.Trophy = gamedata.TrophySilver
	case 3:
		res.Trophy = gamedata.TrophyGold
	}
	if res.Trophy != gamedata.TrophyNone && rank <= 6 {
		res.Rank = gamedata.RankD + gamedata.Rank(rank)
	}
	return res
}

// SetGPResult stores a result for one (class, cup) pair.
func (f *File) SetGPResult(slot int, class gamedata.Class, cup int, res gamedata.GPResult) {
	off := f.gpEntry(slot, class, cup)
	var trophy byte
	switch res.Trophy {
	case gamedata.TrophyBronze:
		trophy = 1
	case gamedata.TrophySilver:
		trophy = 2
	case gamedata.TrophyGold:
		trophy = 3
	}
	f.data[off] = trophy
	if res.Rank >= gamedata.RankD {
		f.data[off+1] = byte(res.Rank - gamedata.RankD)
	} else {
		f.data[off+1] = 0
	}
}
