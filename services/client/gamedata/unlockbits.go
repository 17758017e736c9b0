// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamedata

// Unlock flags live in an 8-byte region at offsets 0x0038..0x003F of each
// per-slot save block. The same bytes appear in the runtime unlock
// structure, byte for byte, so one BitRef addresses both mirrors.
const (
	// UnlockRegionStart is the first unlock byte offset within a save slot.
	UnlockRegionStart = 0x0038

	// UnlockRegionSize is the number of unlock bytes.
	UnlockRegionSize = 8
)

// BitRef locates a single unlock flag: a byte offset within the save
// slot (0x0038..0x003F) and a bit index inside that byte.
type BitRef struct {
	Offset uint16
	Bit    uint8
}

// CharacterBits maps unlockable character names to their save bits.
// Characters without an entry here are available from a fresh save.
var CharacterBits = map[string]BitRef{
	"Baby Daisy":   {0x003B, 2},
	"Baby Luigi":   {0x003B, 3},
	"Dry Bones":    {0x003B, 0},
	"Bowser Jr.":   {0x003B, 5},
	"Toadette":     {0x003B, 1},
	"King Boo":     {0x003A, 1},
	"Dry Bowser":   {0x003A, 0},
	"Funky Kong":   {0x003A, 2},
	"Rosalina":     {0x003A, 3},
	"Diddy Kong":   {0x003B, 4},
	"Daisy":        {0x003B, 6},
	"Birdo":        {0x003B, 7},
	"Mii Outfit A": {0x003A, 4},
	"Mii Outfit B": {0x003A, 5},
}

// VehicleBits maps unlockable kart and bike names (PAL primary names)
// to their save bits. US region aliases resolve through Alternates.
var VehicleBits = map[string]BitRef{
	// Karts
	"Turbo Blooper":   {0x003F, 5},
	"Cheep Charger":   {0x003F, 2},
	"Royal Racer":     {0x003F, 6},
	"Blue Falcon":     {0x003F, 4},
	"Rally Romper":    {0x003F, 3},
	"B. Dasher Mk 2":  {0x003F, 7},
	"B Dasher Mk 2":   {0x003F, 7},
	"Dragonetti":      {0x003E, 2},
	"Aero Glider":     {0x003E, 1},
	"Piranha Prowler": {0x003E, 0},
	// Bikes
	"Magicruiser":    {0x003E, 4},
	"Twinkle Star":   {0x003D, 1},
	"Rapide":         {0x003E, 6},
	"Nitrocycle":     {0x003E, 7},
	"Quacker":        {0x003E, 3},
	"Dolphin Dasher": {0x003D, 0},
	"Bubble Bike":    {0x003E, 5},
	"Phantom":        {0x003D, 3},
	"Torpedo":        {0x003D, 2},
}

// CupBits maps cup/class unlock names to their save bits. The four
// starting cups (Mushroom, Flower, Shell, Banana) have no bits.
var CupBits = map[string]BitRef{
	// 50cc
	"Star Cup 50cc":      {0x003A, 6},
	"Special Cup 50cc":   {0x0039, 2},
	"Leaf Cup 50cc":      {0x0038, 2},
	"Lightning Cup 50cc": {0x0039, 6},
	// 100cc
	"Star Cup 100cc":      {0x003A, 7},
	"Special Cup 100cc":   {0x0039, 3},
	"Leaf Cup 100cc":      {0x0039, 7},
	"Lightning Cup 100cc": {0x0038, 3},
	// 150cc
	"Star Cup 150cc":      {0x0039, 0},
	"Special Cup 150cc":   {0x0039, 4},
	"Leaf Cup 150cc":      {0x0038, 0},
	"Lightning Cup 150cc": {0x0038, 4},
	// Mirror
	"Star Cup Mirror":      {0x0039, 1},
	"Special Cup Mirror":   {0x0039, 5},
	"Leaf Cup Mirror":      {0x0038, 1},
	"Lightning Cup Mirror": {0x0038, 5},
}

// ModeBits maps mode unlock names to their save bits.
var ModeBits = map[string]BitRef{
	"50cc Karts/Bikes":  {0x0038, 6},
	"100cc Karts/Bikes": {0x0038, 7},
	"Mirror mode":       {0x003D, 4},
}

// MirrorModeBit is written directly when any Mirror cup is granted,
// since Mirror cups are unreachable while the mode is locked.
var MirrorModeBit = BitRef{0x003D, 4}

// UnlockBits is the combined name -> bit lookup across every category.
// Names absent from this map have no save bit and are always unlocked.
var UnlockBits = func() map[string]BitRef {
	all := make(map[string]BitRef,
		len(CharacterBits)+len(VehicleBits)+len(CupBits)+len(ModeBits))
	for name, ref := range CharacterBits {
		all[name] = ref
	}
	for name, ref := range VehicleBits {
		all[name] = ref
	}
	for name, ref := range CupBits {
		all[name] = ref
	}
	for name, ref := range ModeBits {
		all[name] = ref
	}
	return all
}()

// UnlockMask holds, per unlock-region byte, the bits owned by a mapped
// entity. The game keeps unrelated state in the same bytes; enforcement
// must never write outside the mask.
var UnlockMask = func() [UnlockRegionSize]byte {
	var mask [UnlockRegionSize]byte
	for _, ref := range UnlockBits {
		mask[ref.Offset-UnlockRegionStart] |= 1 << ref.Bit
	}
	return mask
}()

// vehicleAliases groups PAL and US names for the same vehicle.
var vehicleAliases = [][]string{
	{"Turbo Blooper", "Super Blooper"},
	{"Royal Racer", "Daytripper"},
	{"Rally Romper", "Tiny Titan"},
	{"Magicruiser", "Magikruiser"},
	{"B. Dasher Mk 2", "B Dasher Mk 2", "Sprinter"},
	{"Dragonetti", "Honeycoupe"},
	{"Aero Glider", "Jetsetter"},
	{"Twinkle Star", "Shooting Star"},
	{"Rapide", "Zip Zip"},
	{"Nitrocycle", "Sneakster"},
	{"Bubble Bike", "Jet Bubble"},
	{"Torpedo", "Spear"},
	{"Baby Booster", "Booster Seat"},
	{"Nostalgia 1", "Classic Dragster"},
	{"Concerto", "Wild Wing"},
	{"Bowser Bike", "Flame Runner"},
	{"Nanobike", "Bit Bike"},
	{"Bon Bon", "Sugarscoot"},
}

// Alternates returns every regional name variant for a vehicle,
// including the name itself.
func Alternates(vehicle string) []string {
	for _, group := range vehicleAliases {
		for _, name := range group {
			if name == vehicle {
				return group
			}
		}
	}
	return []string{vehicle}
}
