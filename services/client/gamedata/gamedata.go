// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package gamedata holds the immutable Mario Kart Wii (PAL) lookup tables:
// engine classes, cups, trophy/rank vocabulary, unlock bit positions,
// Archipelago item and location identifiers, and vehicle name aliases.
//
// Everything in this package is constructed once at init time and never
// mutated. Offsets and bit positions were verified against progressive
// PAL save snapshots; they are only valid for game ID RMCP01.
package gamedata

import "fmt"

// Class is a Grand Prix engine class.
type Class int

const (
	Class50 Class = iota
	Class100
	Class150
	ClassMirror
)

var classNames = [...]string{"50cc", "100cc", "150cc", "Mirror"}

// Classes lists every engine class in save-file order.
var Classes = []Class{Class50, Class100, Class150, ClassMirror}

func (c Class) String() string {
	if c < 0 || int(c) >= len(classNames) {
		return fmt.Sprintf("Class(%d)", int(c))
	}
	return classNames[c]
}

// ParseClass converts a class name ("50cc", "100cc", "150cc", "Mirror")
// into a Class. Matching is exact; the save layout has no other classes.
func ParseClass(s string) (Class, error) {
	for i, name := range classNames {
		if s == name {
			return Class(i), nil
		}
	}
	return 0, fmt.Errorf("unknown engine class %q", s)
}

// Cups lists the eight cups in their internal cup ID order (0..7).
var Cups = []string{
	"Mushroom Cup", "Flower Cup", "Star Cup", "Special Cup",
	"Shell Cup", "Banana Cup", "Leaf Cup", "Lightning Cup",
}

// CupID returns the internal cup ID for a cup name.
func CupID(cup string) (int, bool) {
	for i, name := range Cups {
		if name == cup {
			return i, true
		}
	}
	return 0, false
}

// Trophy is the trophy awarded for a completed Grand Prix.
// The numeric order matters: it is the comparison order used by the
// stale-result filter (none < bronze < silver < gold).
type Trophy int

const (
	TrophyNone Trophy = iota
	TrophyBronze
	TrophySilver
	TrophyGold
)

func (t Trophy) String() string {
	switch t {
	case TrophyGold:
		return "gold"
	case TrophySilver:
		return "silver"
	case TrophyBronze:
		return "bronze"
	default:
		return "none"
	}
}

// Rank is the letter or star rating for a completed Grand Prix.
type Rank int

const (
	RankF Rank = iota
	RankE
	RankD
	RankC
	RankB
	RankA
	Rank1Star
	Rank2Star
	Rank3Star
)

var rankNames = [...]string{"F", "E", "D", "C", "B", "A", "1_star", "2_star", "3_star"}

func (r Rank) String() string {
	if r < 0 || int(r) >= len(rankNames) {
		return "D"
	}
	return rankNames[r]
}

// Strength returns the rank's comparison value for the stale-result
// filter. D and below count as zero, matching the reference save layout
// where only C..A and the star ranks break a trophy tie.
func (r Rank) Strength() int {
	switch r {
	case RankC:
		return 1
	case RankB:
		return 2
	case RankA:
		return 3
	case Rank1Star:
		return 4
	case Rank2Star:
		return 5
	case Rank3Star:
		return 6
	default:
		return 0
	}
}

// GPResult is the decoded outcome of one (cup, class) Grand Prix record.
type GPResult struct {
	Trophy Trophy
	Rank   Rank
}

// Better reports whether g is strictly greater than other under the
// combined (trophy, rank strength) order.
func (g GPResult) Better(other GPResult) bool {
	if g.Trophy != other.Trophy {
		return g.Trophy > other.Trophy
	}
	return g.Rank.Strength() > other.Rank.Strength()
}

func (g GPResult) String() string {
	return g.Trophy.String() + "/" + g.Rank.String()
}
