// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamedata

// LocationBaseID is the first Archipelago location code.
const LocationBaseID int64 = 0x4D4B1000

// TierSlugs names the six achievement tiers in ascending strength order.
// The index into this slice is the tier value used across the client.
var TierSlugs = []string{
	"3rd_place", "2nd_place", "1st_place", "1_star", "2_star", "3_star",
}

var tierTitles = []string{
	"3rd Place", "2nd Place", "1st Place", "1 Star", "2 Star", "3 Star",
}

// TierTitle returns the display form of a tier index ("1 Star").
func TierTitle(tier int) string {
	if tier < 0 || tier >= len(tierTitles) {
		return "none"
	}
	return tierTitles[tier]
}

// Tracks maps each cup to its four tracks in race order.
var Tracks = map[string][]string{
	"Mushroom Cup":  {"Luigi Circuit", "Moo Moo Meadows", "Mushroom Gorge", "Toad's Factory"},
	"Flower Cup":    {"Mario Circuit", "Coconut Mall", "DK Summit", "Wario's Gold Mine"},
	"Star Cup":      {"Daisy Circuit", "Koopa Cape", "Maple Treeway", "Grumble Volcano"},
	"Special Cup":   {"Dry Dry Ruins", "Moonview Highway", "Bowser's Castle", "Rainbow Road"},
	"Shell Cup":     {"GCN Peach Beach", "DS Yoshi Falls", "SNES Ghost Valley 2", "N64 Mario Raceway"},
	"Banana Cup":    {"N64 Sherbet Land", "GBA Shy Guy Beach", "DS Delfino Square", "GCN Waluigi Stadium"},
	"Leaf Cup":      {"DS Desert Hills", "GCN Bowser's Castle", "N64 DK's Jungle Parkway", "GC Mario Circuit"},
	"Lightning Cup": {"SNES Mario Circuit 3", "DS Peach Gardens", "GCN DK Mountain", "N64 Bowser's Castle"},
}

type cupTierKey struct {
	cup   string
	class Class
	tier  int
}

var (
	cupTierLocations map[cupTierKey]int64
	locationNames    map[int64]string
)

// The location ID sequence mirrors the world definition exactly: first
// every cup x class x tier combination, then every track x class pair.
// IDs are assigned in iteration order starting at LocationBaseID. The
// per-track race checks only get names here; this client has no
// memory-side reader for individual race results.
func init() {
	cupTierLocations = make(map[cupTierKey]int64, len(Cups)*len(Classes)*len(TierSlugs))
	locationNames = make(map[int64]string)

	id := LocationBaseID
	for _, cup := range Cups {
		for _, class := range Classes {
			for tier := range TierSlugs {
				cupTierLocations[cupTierKey{cup, class, tier}] = id
				locationNames[id] = cup + " " + class.String() + " - " + tierTitles[tier]
				id++
			}
		}
	}
	for _, cup := range Cups {
		for _, track := range Tracks[cup] {
			for _, class := range Classes {
				locationNames[id] = track + " " + class.String() + " - 1st Place"
				id++
			}
		}
	}
}

// CupTierLocationID returns the location code for achieving the given
// tier index on (cup, class).
func CupTierLocationID(cup string, class Class, tier int) (int64, bool) {
	id, ok := cupTierLocations[cupTierKey{cup, class, tier}]
	return id, ok
}

// CupTierFromLocationID is the inverse of CupTierLocationID, used to
// rebuild completion state from previously checked location codes.
func CupTierFromLocationID(id int64) (cup string, class Class, tier int, ok bool) {
	for key, locID := range cupTierLocations {
		if locID == id {
			return key.cup, key.class, key.tier, true
		}
	}
	return "", 0, 0, false
}

// LocationName returns the human-readable name of a location code.
func LocationName(id int64) (string, bool) {
	name, ok := locationNames[id]
	return name, ok
}
