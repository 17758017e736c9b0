// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tracker derives achievement tiers from decoded Grand Prix
// results and accumulates them monotonically across a session. It also
// filters out the fake trophies the seed save ships with to keep cups
// selectable, and evaluates the session goal.
package tracker

import (
	"fmt"
	"sync"

	"github.com/toent/mkwii-client/services/client/gamedata"
)

// Tier is an index into gamedata.TierSlugs: 0 is 3rd place, 5 is the
// three-star rank tier.
type Tier int

const (
	Tier3rdPlace Tier = iota
	Tier2ndPlace
	Tier1stPlace
	Tier1Star
	Tier2Star
	Tier3Star
)

func (t Tier) String() string {
	if t < 0 || int(t) >= len(gamedata.TierSlugs) {
		return "none"
	}
	return gamedata.TierSlugs[t]
}

// ParseTier converts a tier slug ("1st_place") into a Tier.
func ParseTier(slug string) (Tier, error) {
	for i, s := range gamedata.TierSlugs {
		if s == slug {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tier %q", slug)
}

// TierSequence expands a decoded result into every tier it satisfies.
// A bronze trophy covers 3rd place; silver and gold stack the placement
// tiers below them. Star ranks stack the same way on top, but only on
// a completed run, so a result without a trophy has no tiers at all.
func TierSequence(res gamedata.GPResult) []Tier {
	if res.Trophy == gamedata.TrophyNone {
		return nil
	}
	var tiers []Tier
	switch res.Trophy {
	case gamedata.TrophyGold:
		tiers = append(tiers, Tier3rdPlace, Tier2ndPlace, Tier1stPlace)
	case gamedata.TrophySilver:
		tiers = append(tiers, Tier3rdPlace, Tier2ndPlace)
	case gamedata.TrophyBronze:
		tiers = append(tiers, Tier3rdPlace)
	}
	switch res.Rank {
	case gamedata.Rank3Star:
		tiers = append(tiers, Tier1Star, Tier2Star, Tier3Star)
	case gamedata.Rank2Star:
		tiers = append(tiers, Tier1Star, Tier2Star)
	case gamedata.Rank1Star:
		tiers = append(tiers, Tier1Star)
	}
	return tiers
}

// TierMask packs a tier set into a bitmask for compact persistence.
func TierMask(tiers []Tier) uint8 {
	var mask uint8
	for _, t := range tiers {
		mask |= 1 << uint(t)
	}
	return mask
}

// HasTier reports whether the mask includes the tier.
func HasTier(mask uint8, tier Tier) bool {
	return mask&(1<<uint(tier)) != 0
}

// Key identifies one (cup, class) Grand Prix.
type Key struct {
	Cup   string
	Class gamedata.Class
}

// Entry is the accumulated state for one Grand Prix: the best result
// observed this session and the union of all tiers ever reached,
// including tiers restored from the multiworld server.
type Entry struct {
	Best  gamedata.GPResult
	Tiers uint8
}

// CompletionMap accumulates per-GP achievement monotonically. Results
// only ever improve it; the game clearing or regressing a record never
// removes a recorded tier.
type CompletionMap struct {
	mu      sync.Mutex
	entries map[Key]Entry

	// baselines holds the fake results pre-seeded into the save to
	// force cup selectability. An observed result that exactly matches
	// its baseline is noise, not play.
	baselines map[Key]gamedata.GPResult
}

// NewCompletionMap returns an empty map with no baselines.
func NewCompletionMap() *CompletionMap {
	return &CompletionMap{
		entries:   make(map[Key]Entry),
		baselines: make(map[Key]gamedata.GPResult),
	}
}

// SetBaseline records the fake pre-seeded result for one GP.
func (m *CompletionMap) SetBaseline(key Key, res gamedata.GPResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baselines[key] = res
}

// IsReal reports whether an observed result represents actual play.
// A result equal to its recorded baseline is the seed's fake trophy; a
// result strictly better clears the baseline for good, since the
// player has now genuinely raced that GP.
func (m *CompletionMap) IsReal(key Key, res gamedata.GPResult) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	base, ok := m.baselines[key]
	if !ok {
		return res.Trophy != gamedata.TrophyNone
	}
	if res.Better(base) {
		delete(m.baselines, key)
		return true
	}
	return false
}

// Update merges an observed real result. It returns the tiers newly
// reached by this observation, empty when the result adds nothing.
func (m *CompletionMap) Update(key Key, res gamedata.GPResult) []Tier {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := m.entries[key]
	if res.Better(entry.Best) {
		entry.Best = res
	}

	var added []Tier
	for _, tier := range TierSequence(res) {
		if !HasTier(entry.Tiers, tier) {
			entry.Tiers |= 1 << uint(tier)
			added = append(added, tier)
		}
	}
	m.entries[key] = entry
	return added
}

// RestoreTier replays a tier already checked on the multiworld server,
// with no best-result information attached.
func (m *CompletionMap) RestoreTier(key Key, tier Tier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := m.entries[key]
	entry.Tiers |= 1 << uint(tier)
	m.entries[key] = entry
}

// Entry returns the accumulated state for one GP.
func (m *CompletionMap) Entry(key Key) Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key]
}

// Snapshot copies the full map for persistence and display.
func (m *CompletionMap) Snapshot() map[Key]Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[Key]Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out
}
