// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toent/mkwii-client/services/client/gamedata"
	"github.com/toent/mkwii-client/services/client/tracker"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSession_CheckedLocations(t *testing.T) {
	s := openTestStore(t)
	sess := s.Session("seed1", 0)

	got, err := sess.CheckedLocations()
	require.NoError(t, err)
	assert.Empty(t, got)

	require.NoError(t, sess.MarkChecked([]int64{0x4D4B1000, 0x4D4B1005}))
	require.NoError(t, sess.MarkChecked([]int64{0x4D4B1005})) // idempotent

	got, err = sess.CheckedLocations()
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{0x4D4B1000, 0x4D4B1005}, got)
}

func TestSession_Isolation(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Session("seed1", 0).MarkChecked([]int64{1}))
	require.NoError(t, s.Session("seed1", 1).MarkChecked([]int64{2}))
	require.NoError(t, s.Session("seed2", 0).MarkChecked([]int64{3}))

	got, err := s.Session("seed1", 0).CheckedLocations()
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, got)

	got, err = s.Session("seed2", 0).CheckedLocations()
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, got)
}

func TestSession_EntryRoundTrip(t *testing.T) {
	s := openTestStore(t)
	sess := s.Session("seed1", 2)

	key := tracker.Key{Cup: "Star Cup", Class: gamedata.Class150}
	entry := tracker.Entry{
		Best:  gamedata.GPResult{Trophy: gamedata.TrophyGold, Rank: gamedata.Rank1Star},
		Tiers: tracker.TierMask([]tracker.Tier{tracker.Tier3rdPlace, tracker.Tier1Star}),
	}
	require.NoError(t, sess.SaveEntry(key, entry))

	loaded, err := sess.LoadEntries()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, entry, loaded[key])

	other, err := s.Session("seed1", 0).LoadEntries()
	require.NoError(t, err)
	assert.Empty(t, other)
}
