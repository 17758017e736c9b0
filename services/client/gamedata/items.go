// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamedata

// ItemBaseID is the first Archipelago item code ("MKW" in hex plus offset).
const ItemBaseID int64 = 0x4D4B0000

// ItemKind tags what a received Archipelago item unlocks.
type ItemKind int

const (
	ItemUnknown ItemKind = iota
	ItemCharacter
	ItemKart
	ItemBike
	ItemCupUnlock
	ItemMode
	ItemPowerup
	ItemTrap
	ItemFiller
)

var itemKindNames = [...]string{
	"unknown", "character", "kart", "bike", "cup", "mode",
	"powerup", "trap", "filler",
}

func (k ItemKind) String() string {
	if k < 0 || int(k) >= len(itemKindNames) {
		return "unknown"
	}
	return itemKindNames[k]
}

// Item is the tagged descriptor produced once at the network boundary
// from a raw item code. Name carries the entity name without any
// category prefix; for cup unlocks it is the full "Star Cup 150cc" form
// used directly as the unlock-bit key.
type Item struct {
	Kind ItemKind
	Name string
}

type itemDef struct {
	code int64
	kind ItemKind
	name string // unlock-table name, prefix stripped
}

var itemDefs = []itemDef{
	// Cup/class unlocks. The four starting cups have no items.
	{ItemBaseID + 0, ItemCupUnlock, "Star Cup 50cc"},
	{ItemBaseID + 1, ItemCupUnlock, "Special Cup 50cc"},
	{ItemBaseID + 3, ItemCupUnlock, "Leaf Cup 50cc"},
	{ItemBaseID + 2, ItemCupUnlock, "Lightning Cup 50cc"},
	{ItemBaseID + 12, ItemCupUnlock, "Star Cup 100cc"},
	{ItemBaseID + 13, ItemCupUnlock, "Special Cup 100cc"},
	{ItemBaseID + 16, ItemCupUnlock, "Leaf Cup 100cc"},
	{ItemBaseID + 17, ItemCupUnlock, "Lightning Cup 100cc"},
	{ItemBaseID + 22, ItemCupUnlock, "Star Cup 150cc"},
	{ItemBaseID + 23, ItemCupUnlock, "Special Cup 150cc"},
	{ItemBaseID + 26, ItemCupUnlock, "Leaf Cup 150cc"},
	{ItemBaseID + 27, ItemCupUnlock, "Lightning Cup 150cc"},
	{ItemBaseID + 32, ItemCupUnlock, "Star Cup Mirror"},
	{ItemBaseID + 33, ItemCupUnlock, "Special Cup Mirror"},
	{ItemBaseID + 36, ItemCupUnlock, "Leaf Cup Mirror"},
	{ItemBaseID + 37, ItemCupUnlock, "Lightning Cup Mirror"},

	// Modes.
	{ItemBaseID + 40, ItemMode, "50cc Karts/Bikes"},
	{ItemBaseID + 41, ItemMode, "100cc Karts/Bikes"},

	// Characters.
	{ItemBaseID + 100, ItemCharacter, "Baby Daisy"},
	{ItemBaseID + 101, ItemCharacter, "Baby Luigi"},
	{ItemBaseID + 102, ItemCharacter, "Dry Bones"},
	{ItemBaseID + 103, ItemCharacter, "Bowser Jr."},
	{ItemBaseID + 104, ItemCharacter, "Toadette"},
	{ItemBaseID + 105, ItemCharacter, "King Boo"},
	{ItemBaseID + 106, ItemCharacter, "Dry Bowser"},
	{ItemBaseID + 107, ItemCharacter, "Funky Kong"},
	{ItemBaseID + 108, ItemCharacter, "Rosalina"},
	{ItemBaseID + 109, ItemCharacter, "Diddy Kong"},
	{ItemBaseID + 110, ItemCharacter, "Daisy"},
	{ItemBaseID + 111, ItemCharacter, "Birdo"},
	{ItemBaseID + 112, ItemCharacter, "Mii Outfit A"},
	{ItemBaseID + 113, ItemCharacter, "Mii Outfit B"},

	// Karts (PAL names).
	{ItemBaseID + 200, ItemKart, "Turbo Blooper"},
	{ItemBaseID + 201, ItemKart, "Cheep Charger"},
	{ItemBaseID + 202, ItemKart, "Royal Racer"},
	{ItemBaseID + 203, ItemKart, "Blue Falcon"},
	{ItemBaseID + 204, ItemKart, "Rally Romper"},
	{ItemBaseID + 205, ItemKart, "B. Dasher Mk 2"},
	{ItemBaseID + 206, ItemKart, "Dragonetti"},
	{ItemBaseID + 207, ItemKart, "Aero Glider"},
	{ItemBaseID + 208, ItemKart, "Piranha Prowler"},

	// Bikes (PAL names).
	{ItemBaseID + 300, ItemBike, "Magicruiser"},
	{ItemBaseID + 301, ItemBike, "Twinkle Star"},
	{ItemBaseID + 302, ItemBike, "Rapide"},
	{ItemBaseID + 303, ItemBike, "Nitrocycle"},
	{ItemBaseID + 304, ItemBike, "Quacker"},
	{ItemBaseID + 305, ItemBike, "Dolphin Dasher"},
	{ItemBaseID + 306, ItemBike, "Bubble Bike"},
	{ItemBaseID + 307, ItemBike, "Phantom"},
	{ItemBaseID + 308, ItemBike, "Torpedo"},
}

// Powerup, trap, and filler items occupy contiguous code blocks. They
// carry no unlock bits; the loop only needs their kind for logging.
var powerupNames = []string{
	"Red Shell", "Triple Bananas", "Triple Green Shells", "Triple Red Shells",
	"Bob-omb", "Blue Shell", "Fake Item Box", "Star", "Golden Mushroom",
	"Mega Mushroom", "Blooper", "POW Block", "Lightning", "Triple Mushrooms",
	"Bullet Bill",
}

var trapNames = []string{
	"Brake Trap", "Gas Trap", "Boost Trap", "Cloud Trap", "POW Trap",
	"Lightning Trap",
}

var fillerNames = []string{
	"Random Item", "Mushroom", "Triple Mushroom", "Golden Mushroom", "Star",
	"Bullet Bill", "Mega Mushroom", "Blue Shell", "Red Shell",
	"Triple Red Shell", "Bob-omb", "Lightning", "Blooper", "POW Block",
}

var itemsByCode = func() map[int64]Item {
	byCode := make(map[int64]Item, len(itemDefs)+len(powerupNames)+len(trapNames)+len(fillerNames))
	for _, def := range itemDefs {
		byCode[def.code] = Item{Kind: def.kind, Name: def.name}
	}
	for i, name := range powerupNames {
		byCode[ItemBaseID+400+int64(i)] = Item{Kind: ItemPowerup, Name: name}
	}
	for i, name := range trapNames {
		byCode[ItemBaseID+500+int64(i)] = Item{Kind: ItemTrap, Name: name}
	}
	for i, name := range fillerNames {
		byCode[ItemBaseID+600+int64(i)] = Item{Kind: ItemFiller, Name: name}
	}
	return byCode
}()

// ItemByCode resolves a raw Archipelago item code into its descriptor.
// Unknown codes return an ItemUnknown descriptor and false.
func ItemByCode(code int64) (Item, bool) {
	item, ok := itemsByCode[code]
	if !ok {
		return Item{Kind: ItemUnknown}, false
	}
	return item, true
}
