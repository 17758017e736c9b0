// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package archipelago implements the subset of the Archipelago
// multiworld protocol the client needs: session handshake, item
// receipt, location checks, and goal completion. Packets travel as
// JSON arrays of command objects over one websocket.
package archipelago

import (
	"encoding/json"
	"fmt"
)

// Client status values for StatusUpdate.
const (
	StatusConnected = 5
	StatusReady     = 10
	StatusPlaying   = 20
	StatusGoal      = 30
)

// ItemsHandlingFull asks the server to send every item: remote items,
// own items, and starting inventory.
const ItemsHandlingFull = 7

// NetworkItem is one granted item as the server reports it.
type NetworkItem struct {
	Item     int64 `json:"item"`
	Location int64 `json:"location"`
	Player   int   `json:"player"`
	Flags    int   `json:"flags"`
}

// NetworkVersion identifies a protocol version in the handshake.
type NetworkVersion struct {
	Major int    `json:"major"`
	Minor int    `json:"minor"`
	Build int    `json:"build"`
	Class string `json:"class"`
}

// SupportedVersion is the protocol generation this client speaks.
var SupportedVersion = NetworkVersion{Major: 0, Minor: 5, Build: 0, Class: "Version"}

// RoomInfo is the server's greeting after the socket opens.
type RoomInfo struct {
	Cmd           string         `json:"cmd"`
	Version       NetworkVersion `json:"version"`
	SeedName      string         `json:"seed_name"`
	Password      bool           `json:"password"`
	HintCost      int            `json:"hint_cost"`
	LocationCheck int            `json:"location_check_points"`
}

// Connect requests a slot in the room.
type Connect struct {
	Cmd           string         `json:"cmd"`
	Game          string         `json:"game"`
	Name          string         `json:"name"`
	Password      string         `json:"password"`
	UUID          string         `json:"uuid"`
	Version       NetworkVersion `json:"version"`
	ItemsHandling int            `json:"items_handling"`
	Tags          []string       `json:"tags"`
	SlotData      bool           `json:"slot_data"`
}

// Connected confirms the slot and carries session state.
type Connected struct {
	Cmd              string          `json:"cmd"`
	Team             int             `json:"team"`
	Slot             int             `json:"slot"`
	SlotData         json.RawMessage `json:"slot_data"`
	CheckedLocations []int64         `json:"checked_locations"`
	MissingLocations []int64         `json:"missing_locations"`
}

// ConnectionRefused reports why a Connect was rejected.
type ConnectionRefused struct {
	Cmd    string   `json:"cmd"`
	Errors []string `json:"errors"`
}

// ReceivedItems delivers a run of granted items starting at Index in
// the session's full item sequence.
type ReceivedItems struct {
	Cmd   string        `json:"cmd"`
	Index int           `json:"index"`
	Items []NetworkItem `json:"items"`
}

// RoomUpdate pushes incremental room state, including locations other
// clients of the same slot have checked.
type RoomUpdate struct {
	Cmd              string  `json:"cmd"`
	CheckedLocations []int64 `json:"checked_locations"`
}

// LocationChecks reports newly completed locations to the server.
type LocationChecks struct {
	Cmd       string  `json:"cmd"`
	Locations []int64 `json:"locations"`
}

// StatusUpdate advances the client's session status.
type StatusUpdate struct {
	Cmd    string `json:"cmd"`
	Status int    `json:"status"`
}

// PrintJSON is the server's chat and event stream.
type PrintJSON struct {
	Cmd  string `json:"cmd"`
	Type string `json:"type"`
	Data []struct {
		Text string `json:"text"`
	} `json:"data"`
}

// Text flattens a PrintJSON message into one line.
func (p PrintJSON) Text() string {
	var out string
	for _, d := range p.Data {
		out += d.Text
	}
	return out
}

// Bounced carries broadcast payloads between clients.
type Bounced struct {
	Cmd  string          `json:"cmd"`
	Data json.RawMessage `json:"data"`
}

// SlotData is the per-slot world configuration embedded in Connected.
// Keys and encodings follow the world generator's fill_slot_data:
// class and tier scopes arrive as name lists, the goal class and tier
// as indexes into the generator's option order. GoalClass and GoalTier
// are pointers because index 0 (50cc, 3rd place) is a valid value.
type SlotData struct {
	EnabledClasses []string `json:"enabled_ccs"`
	EnabledTiers   []string `json:"enabled_cup_check_tiers"`

	IncludeRaceChecks bool `json:"include_race_checks"`

	GoalCups  int  `json:"cups_required_for_goal"`
	GoalTier  *int `json:"goal_difficulty"`
	GoalClass *int `json:"goal_cc"`
}

// DecodePackets splits one websocket frame into typed packets. The
// wire format is a JSON array of objects discriminated by "cmd";
// commands this client does not handle decode to nil and are skipped
// by the caller.
func DecodePackets(frame []byte) ([]any, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(frame, &raws); err != nil {
		return nil, fmt.Errorf("decoding packet frame: %w", err)
	}

	packets := make([]any, 0, len(raws))
	for _, raw := range raws {
		var head struct {
			Cmd string `json:"cmd"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, fmt.Errorf("decoding packet header: %w", err)
		}

		var pkt any
		switch head.Cmd {
		case "RoomInfo":
			pkt = &RoomInfo{}
		case "Connected":
			pkt = &Connected{}
		case "ConnectionRefused":
			pkt = &ConnectionRefused{}
		case "ReceivedItems":
			pkt = &ReceivedItems{}
		case "RoomUpdate":
			pkt = &RoomUpdate{}
		case "PrintJSON":
			pkt = &PrintJSON{}
		case "Bounced":
			pkt = &Bounced{}
		default:
			continue
		}
		if err := json.Unmarshal(raw, pkt); err != nil {
			return nil, fmt.Errorf("decoding %s packet: %w", head.Cmd, err)
		}
		packets = append(packets, pkt)
	}
	return packets, nil
}
