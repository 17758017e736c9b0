// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamedata

import "testing"

func TestParseClass(t *testing.T) {
	tests := []struct {
		in      string
		want    Class
		wantErr bool
	}{
		{"50cc", Class50, false},
		{"100cc", Class100, false},
		{"150cc", Class150, false},
		{"Mirror", ClassMirror, false},
		{"mirror", 0, true},
		{"200cc", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClass(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClass(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseClass(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestUnlockBits_WithinRegion(t *testing.T) {
	for name, ref := range UnlockBits {
		if ref.Offset < UnlockRegionStart || ref.Offset >= UnlockRegionStart+UnlockRegionSize {
			t.Errorf("%s: offset 0x%04X outside unlock region", name, ref.Offset)
		}
		if ref.Bit > 7 {
			t.Errorf("%s: bit index %d out of range", name, ref.Bit)
		}
	}
}

func TestUnlockBits_CombinesAllCategories(t *testing.T) {
	want := len(CharacterBits) + len(VehicleBits) + len(CupBits) + len(ModeBits)
	if len(UnlockBits) != want {
		t.Errorf("UnlockBits has %d entries, want %d", len(UnlockBits), want)
	}
}

func TestItemByCode(t *testing.T) {
	tests := []struct {
		name     string
		code     int64
		wantKind ItemKind
		wantName string
		wantOK   bool
	}{
		{"star cup 150cc", ItemBaseID + 22, ItemCupUnlock, "Star Cup 150cc", true},
		{"mirror cup", ItemBaseID + 32, ItemCupUnlock, "Star Cup Mirror", true},
		{"mode", ItemBaseID + 40, ItemMode, "50cc Karts/Bikes", true},
		{"character", ItemBaseID + 105, ItemCharacter, "King Boo", true},
		{"kart", ItemBaseID + 200, ItemKart, "Turbo Blooper", true},
		{"bike", ItemBaseID + 304, ItemBike, "Quacker", true},
		{"powerup", ItemBaseID + 400, ItemPowerup, "Red Shell", true},
		{"trap", ItemBaseID + 500, ItemTrap, "Brake Trap", true},
		{"filler", ItemBaseID + 600, ItemFiller, "Random Item", true},
		{"unknown", ItemBaseID + 9999, ItemUnknown, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, ok := ItemByCode(tt.code)
			if ok != tt.wantOK {
				t.Fatalf("ItemByCode(0x%X) ok = %v, want %v", tt.code, ok, tt.wantOK)
			}
			if item.Kind != tt.wantKind || item.Name != tt.wantName {
				t.Errorf("ItemByCode(0x%X) = %v/%q, want %v/%q",
					tt.code, item.Kind, item.Name, tt.wantKind, tt.wantName)
			}
		})
	}
}

func TestItemByCode_UnlockableItemsHaveBits(t *testing.T) {
	// Every cup, mode, character, and vehicle item must resolve to a
	// save bit, otherwise the enforcement loop could never apply it.
	for code, item := range itemsByCode {
		switch item.Kind {
		case ItemCupUnlock, ItemMode, ItemCharacter, ItemKart, ItemBike:
			if _, ok := UnlockBits[item.Name]; !ok {
				t.Errorf("item 0x%X (%s %q) has no unlock bit", code, item.Kind, item.Name)
			}
		}
	}
}

func TestLocationIDs_UniqueAndSequential(t *testing.T) {
	seen := make(map[int64]string, len(locationNames))
	for id, name := range locationNames {
		if prev, dup := seen[id]; dup {
			t.Fatalf("location ID 0x%X assigned to both %q and %q", id, prev, name)
		}
		seen[id] = name
	}

	wantCount := len(Cups)*len(Classes)*len(TierSlugs) + len(Cups)*4*len(Classes)
	if len(locationNames) != wantCount {
		t.Errorf("location table has %d entries, want %d", len(locationNames), wantCount)
	}

	// First ID in generation order is the base.
	if id, ok := CupTierLocationID("Mushroom Cup", Class50, 0); !ok || id != LocationBaseID {
		t.Errorf("first location ID = 0x%X, want 0x%X", id, LocationBaseID)
	}
}

func TestCupTierFromLocationID_RoundTrip(t *testing.T) {
	id, ok := CupTierLocationID("Leaf Cup", Class150, 3)
	if !ok {
		t.Fatal("CupTierLocationID returned !ok")
	}
	cup, class, tier, ok := CupTierFromLocationID(id)
	if !ok || cup != "Leaf Cup" || class != Class150 || tier != 3 {
		t.Errorf("round trip = (%q, %v, %d, %v), want (Leaf Cup, 150cc, 3, true)",
			cup, class, tier, ok)
	}

	if _, _, _, ok := CupTierFromLocationID(LocationBaseID - 1); ok {
		t.Error("CupTierFromLocationID accepted an ID below the base")
	}
}

func TestAlternates(t *testing.T) {
	got := Alternates("Magicruiser")
	if len(got) != 2 {
		t.Fatalf("Alternates(Magicruiser) = %v, want 2 names", got)
	}
	// US alias resolves to the same group.
	if us := Alternates("Magikruiser"); len(us) != 2 {
		t.Errorf("Alternates(Magikruiser) = %v, want 2 names", us)
	}
	// A vehicle with no aliases returns itself.
	if solo := Alternates("Quacker"); len(solo) != 1 || solo[0] != "Quacker" {
		t.Errorf("Alternates(Quacker) = %v, want [Quacker]", solo)
	}
}

func TestGPResult_Better(t *testing.T) {
	tests := []struct {
		name  string
		a, b  GPResult
		want  bool
	}{
		{"gold beats silver", GPResult{TrophyGold, RankD}, GPResult{TrophySilver, Rank3Star}, true},
		{"same trophy higher rank", GPResult{TrophyGold, Rank2Star}, GPResult{TrophyGold, Rank1Star}, true},
		{"identical", GPResult{TrophyGold, Rank3Star}, GPResult{TrophyGold, Rank3Star}, false},
		{"worse trophy", GPResult{TrophyBronze, RankA}, GPResult{TrophySilver, RankD}, false},
		{"D vs F tie at zero", GPResult{TrophyGold, RankD}, GPResult{TrophyGold, RankF}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Better(tt.b); got != tt.want {
				t.Errorf("%v.Better(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
