// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toent/mkwii-client/services/client/gamedata"
)

func result(trophy gamedata.Trophy, rank gamedata.Rank) gamedata.GPResult {
	return gamedata.GPResult{Trophy: trophy, Rank: rank}
}

func TestTierSequence(t *testing.T) {
	tests := []struct {
		name string
		res  gamedata.GPResult
		want []Tier
	}{
		{"no trophy", result(gamedata.TrophyNone, gamedata.Rank3Star), nil},
		{"bronze", result(gamedata.TrophyBronze, gamedata.RankD), []Tier{Tier3rdPlace}},
		{"silver rank A", result(gamedata.TrophySilver, gamedata.RankA), []Tier{Tier3rdPlace, Tier2ndPlace}},
		{"gold no stars", result(gamedata.TrophyGold, gamedata.RankB), []Tier{Tier3rdPlace, Tier2ndPlace, Tier1stPlace}},
		{
			"gold two star",
			result(gamedata.TrophyGold, gamedata.Rank2Star),
			[]Tier{Tier3rdPlace, Tier2ndPlace, Tier1stPlace, Tier1Star, Tier2Star},
		},
		{
			"gold three star",
			result(gamedata.TrophyGold, gamedata.Rank3Star),
			[]Tier{Tier3rdPlace, Tier2ndPlace, Tier1stPlace, Tier1Star, Tier2Star, Tier3Star},
		},
		{"bronze one star", result(gamedata.TrophyBronze, gamedata.Rank1Star), []Tier{Tier3rdPlace, Tier1Star}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TierSequence(tt.res))
		})
	}
}

func TestCompletionMap_UpdateIsMonotonic(t *testing.T) {
	m := NewCompletionMap()
	key := Key{Cup: "Star Cup", Class: gamedata.Class150}

	added := m.Update(key, result(gamedata.TrophyGold, gamedata.Rank1Star))
	assert.Equal(t, []Tier{Tier3rdPlace, Tier2ndPlace, Tier1stPlace, Tier1Star}, added)

	// A worse later observation adds nothing and does not regress.
	added = m.Update(key, result(gamedata.TrophyBronze, gamedata.RankD))
	assert.Empty(t, added)
	entry := m.Entry(key)
	assert.Equal(t, result(gamedata.TrophyGold, gamedata.Rank1Star), entry.Best)

	// Improving only yields the new tiers.
	added = m.Update(key, result(gamedata.TrophyGold, gamedata.Rank3Star))
	assert.Equal(t, []Tier{Tier2Star, Tier3Star}, added)
}

func TestCompletionMap_BaselineFilter(t *testing.T) {
	m := NewCompletionMap()
	key := Key{Cup: "Mushroom Cup", Class: gamedata.Class50}
	m.SetBaseline(key, result(gamedata.TrophyBronze, gamedata.RankD))

	// Exact baseline match is the seed's fake trophy.
	assert.False(t, m.IsReal(key, result(gamedata.TrophyBronze, gamedata.RankD)))

	// Equal-or-worse results keep being filtered.
	assert.False(t, m.IsReal(key, result(gamedata.TrophyNone, gamedata.RankF)))

	// A strictly better result is real and clears the baseline, so the
	// same result observed again stays real.
	better := result(gamedata.TrophyBronze, gamedata.RankC)
	assert.True(t, m.IsReal(key, better))
	assert.True(t, m.IsReal(key, better))
}

func TestCompletionMap_NoBaseline(t *testing.T) {
	m := NewCompletionMap()
	key := Key{Cup: "Leaf Cup", Class: gamedata.Class100}

	assert.False(t, m.IsReal(key, result(gamedata.TrophyNone, gamedata.RankF)))
	assert.True(t, m.IsReal(key, result(gamedata.TrophyBronze, gamedata.RankD)))
}

func TestCompletionMap_RestoreTier(t *testing.T) {
	m := NewCompletionMap()
	key := Key{Cup: "Shell Cup", Class: gamedata.ClassMirror}
	m.RestoreTier(key, Tier1stPlace)

	entry := m.Entry(key)
	assert.True(t, HasTier(entry.Tiers, Tier1stPlace))
	assert.Equal(t, gamedata.GPResult{}, entry.Best, "restore carries no best result")

	// A later live observation of the same tier is not re-reported.
	added := m.Update(key, result(gamedata.TrophyGold, gamedata.RankA))
	assert.Equal(t, []Tier{Tier3rdPlace, Tier2ndPlace}, added)
}

func TestGoalChecker_LatchesOnce(t *testing.T) {
	m := NewCompletionMap()
	goal := Goal{Class: gamedata.Class150, Tier: Tier1stPlace, Cups: 2}
	checker := NewGoalChecker(goal)

	m.Update(Key{Cup: "Mushroom Cup", Class: gamedata.Class150}, result(gamedata.TrophyGold, gamedata.RankA))
	satisfied, fired := checker.Check(m)
	assert.False(t, satisfied)
	assert.False(t, fired)

	// Gold at the wrong class does not count.
	m.Update(Key{Cup: "Flower Cup", Class: gamedata.Class50}, result(gamedata.TrophyGold, gamedata.RankA))
	satisfied, _ = checker.Check(m)
	assert.False(t, satisfied)

	m.Update(Key{Cup: "Flower Cup", Class: gamedata.Class150}, result(gamedata.TrophyGold, gamedata.RankB))
	satisfied, fired = checker.Check(m)
	require.True(t, satisfied)
	assert.True(t, fired, "first satisfying check fires")

	satisfied, fired = checker.Check(m)
	assert.True(t, satisfied)
	assert.False(t, fired, "latched checker never fires again")
	assert.True(t, checker.Complete())
}

func TestGoalChecker_GapDoesNotCount(t *testing.T) {
	m := NewCompletionMap()
	checker := NewGoalChecker(Goal{Class: gamedata.Class50, Tier: Tier1stPlace, Cups: 1})
	key := Key{Cup: "Star Cup", Class: gamedata.Class50}

	// An isolated 2-star tier with nothing under it means the lower
	// thresholds were never recorded; the cup is not trusted yet.
	m.RestoreTier(key, Tier2Star)
	satisfied, _ := checker.Check(m)
	assert.False(t, satisfied)

	met, required := checker.Progress(m)
	assert.Equal(t, 0, met)
	assert.Equal(t, 1, required)

	// Filling in the chain up through the goal tier makes it count.
	m.RestoreTier(key, Tier3rdPlace)
	m.RestoreTier(key, Tier2ndPlace)
	m.RestoreTier(key, Tier1stPlace)
	satisfied, fired := checker.Check(m)
	assert.True(t, satisfied)
	assert.True(t, fired)
}
