// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/toent/mkwii-client/services/client/archipelago"
	"github.com/toent/mkwii-client/services/client/gamedata"
	"github.com/toent/mkwii-client/services/client/tracker"
)

// HandlePackets consumes the server packet stream until it closes.
// A non-nil return is fatal to the session.
func (e *Engine) HandlePackets(packets <-chan any) error {
	for pkt := range packets {
		if err := e.handlePacket(pkt); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) handlePacket(pkt any) error {
	switch p := pkt.(type) {
	case *archipelago.RoomInfo:
		return e.handleRoomInfo(p)
	case *archipelago.Connected:
		return e.handleConnected(p)
	case *archipelago.ConnectionRefused:
		return fmt.Errorf("server refused connection: %s", strings.Join(p.Errors, "; "))
	case *archipelago.ReceivedItems:
		e.handleReceivedItems(p)
	case *archipelago.RoomUpdate:
		e.restoreChecked(p.CheckedLocations)
	case *archipelago.PrintJSON:
		if text := p.Text(); text != "" {
			e.log.Info("server message", "text", text)
		}
	}
	return nil
}

func (e *Engine) handleRoomInfo(p *archipelago.RoomInfo) error {
	e.mu.Lock()
	e.persist = e.baseStore.Session(p.SeedName, e.cfg.Game.SaveSlot)
	e.mu.Unlock()
	e.log.Info("room info received", "seed", p.SeedName)
	return e.ap.SendConnect()
}

// handleConnected installs the goal from slot data and replays state
// the server and the local store remember: checked locations become
// restored tiers and suppressed re-sends, persisted entries rebuild
// the completion map.
func (e *Engine) handleConnected(p *archipelago.Connected) error {
	var sd archipelago.SlotData
	if len(p.SlotData) > 0 {
		if err := json.Unmarshal(p.SlotData, &sd); err != nil {
			return fmt.Errorf("decoding slot data: %w", err)
		}
	}
	goal, err := goalFromSlotData(sd)
	if err != nil {
		return err
	}
	classes, tiers, err := scanScopeFromSlotData(sd)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.goal = tracker.NewGoalChecker(goal)
	e.scanClasses = classes
	e.scanTiers = tiers
	persist := e.persist
	e.mu.Unlock()

	if persist != nil {
		entries, err := persist.LoadEntries()
		if err != nil {
			e.log.Warn("loading persisted progress failed", "error", err)
		}
		for key, entry := range entries {
			for tier := range gamedata.TierSlugs {
				if tracker.HasTier(entry.Tiers, tracker.Tier(tier)) {
					e.completion.RestoreTier(key, tracker.Tier(tier))
				}
			}
		}
		local, err := persist.CheckedLocations()
		if err != nil {
			e.log.Warn("loading persisted checks failed", "error", err)
		}
		e.markSent(local)
	}
	e.restoreChecked(p.CheckedLocations)

	e.log.Info("slot connected",
		"slot", p.Slot,
		"goal", goal.String(),
		"checked_locations", len(p.CheckedLocations))
	e.publishStatus()
	return nil
}

// goalFromSlotData translates the generator's goal options into a
// Goal. The class and tier arrive as indexes into the generator's
// option order, which matches gamedata.Classes and the tier order.
// Absent fields use the generator defaults: one star at 150cc in six
// cups.
func goalFromSlotData(sd archipelago.SlotData) (tracker.Goal, error) {
	goal := tracker.Goal{
		Class: gamedata.Class150,
		Tier:  tracker.Tier1Star,
		Cups:  6,
	}
	if sd.GoalClass != nil {
		if *sd.GoalClass < 0 || *sd.GoalClass >= len(gamedata.Classes) {
			return tracker.Goal{}, fmt.Errorf("slot data: goal class index %d out of range", *sd.GoalClass)
		}
		goal.Class = gamedata.Classes[*sd.GoalClass]
	}
	if sd.GoalTier != nil {
		tier := *sd.GoalTier
		if tier < 0 {
			tier = 0
		}
		if tier > int(tracker.Tier3Star) {
			tier = int(tracker.Tier3Star)
		}
		goal.Tier = tracker.Tier(tier)
	}
	if sd.GoalCups >= 1 && sd.GoalCups <= len(gamedata.Cups) {
		goal.Cups = sd.GoalCups
	}
	return goal, nil
}

// scanScopeFromSlotData translates the enabled class and tier lists
// into the scope the result scan is allowed to report on. Absent
// lists use the generator defaults, which exclude Mirror and the
// three-star tier.
func scanScopeFromSlotData(sd archipelago.SlotData) (map[gamedata.Class]bool, uint8, error) {
	classes := defaultScanClasses()
	if sd.EnabledClasses != nil {
		classes = make(map[gamedata.Class]bool, len(sd.EnabledClasses))
		for _, name := range sd.EnabledClasses {
			class, err := gamedata.ParseClass(name)
			if err != nil {
				return nil, 0, fmt.Errorf("slot data: %w", err)
			}
			classes[class] = true
		}
	}
	tiers := defaultScanTiers
	if sd.EnabledTiers != nil {
		tiers = 0
		for _, slug := range sd.EnabledTiers {
			tier, err := tracker.ParseTier(slug)
			if err != nil {
				return nil, 0, fmt.Errorf("slot data: %w", err)
			}
			tiers |= tracker.TierMask([]tracker.Tier{tier})
		}
	}
	return classes, tiers, nil
}

// handleReceivedItems applies a run of item grants. The server resends
// the full sequence on reconnect; the index dedupes replays.
func (e *Engine) handleReceivedItems(p *archipelago.ReceivedItems) {
	e.mu.Lock()
	skip := e.itemIndex - p.Index
	if skip < 0 {
		// A gap means we missed items; the server state is
		// authoritative, so accept the run as-is from its index.
		skip = 0
	}
	if skip >= len(p.Items) {
		e.mu.Unlock()
		return
	}
	items := p.Items[skip:]
	e.itemIndex = p.Index + len(p.Items)
	e.mu.Unlock()

	for _, ni := range items {
		e.metrics.ItemsReceived.Inc()
		item, ok := gamedata.ItemByCode(ni.Item)
		if !ok {
			e.log.Warn("unknown item code", "code", ni.Item)
			continue
		}
		e.applyItem(item)
	}
	e.publishStatus()
}

// applyItem records a grant and pushes it into the game immediately
// when attached. When detached the grant applies on next attach.
func (e *Engine) applyItem(item gamedata.Item) {
	added := e.grants.Add(item)
	e.log.Info("item received", "kind", item.Kind.String(), "name", item.Name)
	if len(added) == 0 {
		return
	}

	st := e.session.Store()
	if st == nil || e.session.Suspended() {
		return
	}
	for _, name := range added {
		if _, err := st.WriteFlag(name, true); err != nil {
			e.session.Detach(err)
			e.metrics.Attached.Set(0)
			return
		}
	}
}

// restoreChecked folds server-side checked locations into local state:
// they are never re-sent, and cup tier checks rebuild completion.
func (e *Engine) restoreChecked(locations []int64) {
	e.markSent(locations)
	for _, id := range locations {
		cup, class, tier, ok := gamedata.CupTierFromLocationID(id)
		if !ok {
			continue
		}
		e.completion.RestoreTier(tracker.Key{Cup: cup, Class: class}, tracker.Tier(tier))
	}
}

func (e *Engine) markSent(locations []int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, id := range locations {
		e.sent[id] = true
	}
}
