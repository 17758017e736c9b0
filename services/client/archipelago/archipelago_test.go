// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package archipelago

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePackets(t *testing.T) {
	frame := []byte(`[
		{"cmd": "RoomInfo", "seed_name": "abc123", "version": {"major": 0, "minor": 5, "build": 0}},
		{"cmd": "ReceivedItems", "index": 0, "items": [{"item": 1296957696, "location": 1, "player": 2, "flags": 1}]},
		{"cmd": "SetReply", "key": "ignored"},
		{"cmd": "PrintJSON", "type": "ItemSend", "data": [{"text": "got "}, {"text": "an item"}]}
	]`)

	pkts, err := DecodePackets(frame)
	require.NoError(t, err)
	require.Len(t, pkts, 3, "unhandled commands are skipped")

	room, ok := pkts[0].(*RoomInfo)
	require.True(t, ok)
	assert.Equal(t, "abc123", room.SeedName)

	items, ok := pkts[1].(*ReceivedItems)
	require.True(t, ok)
	require.Len(t, items.Items, 1)
	assert.Equal(t, int64(1296957696), items.Items[0].Item)

	msg, ok := pkts[2].(*PrintJSON)
	require.True(t, ok)
	assert.Equal(t, "got an item", msg.Text())
}

func TestDecodePackets_BadFrame(t *testing.T) {
	_, err := DecodePackets([]byte(`{"cmd": "RoomInfo"}`))
	assert.Error(t, err, "frames must be arrays")
}

func TestSlotDataDecode(t *testing.T) {
	raw := json.RawMessage(`{
		"enabled_ccs": ["50cc", "100cc", "150cc"],
		"enabled_cup_check_tiers": ["3rd_place", "2nd_place", "1st_place", "1_star", "2_star"],
		"include_race_checks": false,
		"cups_required_for_goal": 6,
		"goal_difficulty": 0,
		"goal_cc": 0,
		"starting_characters": ["Mario"],
		"starting_cups": ["Mushroom Cup 50cc"]
	}`)
	var sd SlotData
	require.NoError(t, json.Unmarshal(raw, &sd))
	assert.Equal(t, []string{"50cc", "100cc", "150cc"}, sd.EnabledClasses)
	assert.Len(t, sd.EnabledTiers, 5)
	assert.Equal(t, 6, sd.GoalCups)
	require.NotNil(t, sd.GoalClass)
	assert.Equal(t, 0, *sd.GoalClass, "index zero survives decoding")
	require.NotNil(t, sd.GoalTier)
	assert.Equal(t, 0, *sd.GoalTier)

	var empty SlotData
	require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
	assert.Nil(t, empty.GoalClass, "absent goal fields stay nil")
	assert.Nil(t, empty.EnabledClasses)
}

// wsEcho runs a one-connection server that records inbound frames and
// plays the scripted frames back.
func wsEcho(t *testing.T, script []string, got chan<- []byte) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		for _, frame := range script {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
		}
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			got <- frame
		}
	}))
}

func TestClient_SessionFlow(t *testing.T) {
	inbound := make(chan []byte, 8)
	srv := wsEcho(t, []string{
		`[{"cmd": "RoomInfo", "seed_name": "seed1"}]`,
		`[{"cmd": "Connected", "slot": 3, "checked_locations": [1296961537]}]`,
	}, inbound)
	defer srv.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(Credentials{
		Address:  "ws" + strings.TrimPrefix(srv.URL, "http"),
		SlotName: "Player1",
	}, log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Dial(ctx))

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	pkt := <-client.Packets()
	room, ok := pkt.(*RoomInfo)
	require.True(t, ok)
	assert.Equal(t, "seed1", room.SeedName)

	require.NoError(t, client.SendConnect())
	frame := <-inbound
	var sent []Connect
	require.NoError(t, json.Unmarshal(frame, &sent))
	require.Len(t, sent, 1)
	assert.Equal(t, GameName, sent[0].Game)
	assert.Equal(t, "Player1", sent[0].Name)
	assert.Equal(t, ItemsHandlingFull, sent[0].ItemsHandling)
	assert.NotEmpty(t, sent[0].UUID)

	pkt = <-client.Packets()
	connected, ok := pkt.(*Connected)
	require.True(t, ok)
	assert.Equal(t, 3, connected.Slot)
	assert.Equal(t, []int64{1296961537}, connected.CheckedLocations)

	require.NoError(t, client.SendLocationChecks([]int64{1, 2}))
	frame = <-inbound
	var checks []LocationChecks
	require.NoError(t, json.Unmarshal(frame, &checks))
	assert.Equal(t, []int64{1, 2}, checks[0].Locations)

	require.NoError(t, client.SendGoalComplete())
	frame = <-inbound
	var status []StatusUpdate
	require.NoError(t, json.Unmarshal(frame, &status))
	assert.Equal(t, StatusGoal, status[0].Status)

	cancel()
	<-done
	_, open := <-client.Packets()
	assert.False(t, open, "packet stream closes after Run returns")
}

func TestClient_SendLocationChecksEmpty(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := NewClient(Credentials{}, log)
	assert.NoError(t, client.SendLocationChecks(nil), "empty check list is a no-op before connect")
}
