// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package client ties the emulator attachment, the multiworld
// connection, and the local session state together into the
// enforcement loop that keeps the game's unlock state equal to what
// the server has granted.
package client

import (
	"strings"
	"sync"

	"github.com/toent/mkwii-client/services/client/gamedata"
)

// Grants is the session's authoritative set of unlocked entities,
// accumulated from received items. Names are unlock-table keys; a
// granted vehicle expands to every regional alias so the same grant
// works against either name set.
type Grants struct {
	mu    sync.Mutex
	names map[string]bool
}

// NewGrants returns an empty grant set.
func NewGrants() *Grants {
	return &Grants{names: make(map[string]bool)}
}

// Add records an item grant and returns the unlock-table names it
// newly enables. Items without unlock bits return nothing.
func (g *Grants) Add(item gamedata.Item) []string {
	var names []string
	switch item.Kind {
	case gamedata.ItemCharacter, gamedata.ItemMode:
		names = []string{item.Name}
	case gamedata.ItemKart, gamedata.ItemBike:
		names = gamedata.Alternates(item.Name)
	case gamedata.ItemCupUnlock:
		names = []string{item.Name}
		// A Mirror cup is unreachable while Mirror mode is locked, so
		// the mode rides along with the first Mirror cup grant.
		if strings.HasSuffix(item.Name, " Mirror") {
			names = append(names, "Mirror mode")
		}
	default:
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	var added []string
	for _, name := range names {
		if !g.names[name] {
			g.names[name] = true
			added = append(added, name)
		}
	}
	return added
}

// Has reports whether an unlock-table name has been granted.
func (g *Grants) Has(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.names[name]
}

// Names returns every granted unlock-table name.
func (g *Grants) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]string, 0, len(g.names))
	for name := range g.names {
		out = append(out, name)
	}
	return out
}

// Len returns the number of granted names.
func (g *Grants) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.names)
}

// DesiredRegion renders the grant set as the exact 8-byte unlock
// region image the game should hold: granted bits set, all other
// known bits clear. The enforcement loop compares this image against
// live memory every cycle.
func (g *Grants) DesiredRegion() [gamedata.UnlockRegionSize]byte {
	g.mu.Lock()
	defer g.mu.Unlock()
	var region [gamedata.UnlockRegionSize]byte
	for name, ref := range gamedata.UnlockBits {
		if g.names[name] {
			region[ref.Offset-gamedata.UnlockRegionStart] |= 1 << ref.Bit
		}
	}
	return region
}
