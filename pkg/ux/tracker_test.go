// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/toent/mkwii-client/services/client"
	"github.com/toent/mkwii-client/services/client/gamedata"
	"github.com/toent/mkwii-client/services/client/tracker"
)

func sampleStatus() client.Status {
	return client.Status{
		State:        client.StateAttached,
		ServerSlot:   "Player1",
		Goal:         "1st Place or better at 150cc in 8 cups",
		GoalMet:      1,
		GoalRequired: 8,
		Grants:       5,
		ChecksSent:   3,
		Completion: map[tracker.Key]tracker.Entry{
			{Cup: "Mushroom Cup", Class: gamedata.Class150}: {
				Tiers: tracker.TierMask([]tracker.Tier{
					tracker.Tier3rdPlace, tracker.Tier2ndPlace, tracker.Tier1stPlace,
				}),
			},
		},
	}
}

func TestTracker_RenderPlain(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, false)
	tr.Update(sampleStatus())
	tr.Render()

	out := buf.String()
	if !strings.Contains(out, "attached | slot Player1 | 5 items | 3 checks sent") {
		t.Errorf("status line missing:\n%s", out)
	}
	if !strings.Contains(out, "goal: 1st Place or better at 150cc in 8 cups (1/8)") {
		t.Errorf("goal line missing:\n%s", out)
	}
	if !strings.Contains(out, "Mushroom") {
		t.Errorf("grid missing cup row:\n%s", out)
	}
	if !strings.Contains(out, "321---") {
		t.Errorf("grid missing tier cell:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("plain mode produced ANSI escapes")
	}
}

func TestTracker_RenderBeforeUpdate(t *testing.T) {
	var buf bytes.Buffer
	NewTracker(&buf, false).Render()
	if !strings.Contains(buf.String(), "no status yet") {
		t.Errorf("got %q", buf.String())
	}
}

func TestTracker_SuspendedMarker(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, false)
	s := sampleStatus()
	s.Suspended = true
	tr.Update(s)
	tr.RenderStatus()
	if !strings.Contains(buf.String(), "(suspended)") {
		t.Errorf("got %q", buf.String())
	}
}

func TestTracker_GoalComplete(t *testing.T) {
	var buf bytes.Buffer
	tr := NewTracker(&buf, false)
	s := sampleStatus()
	s.GoalDone = true
	tr.Update(s)
	tr.Render()
	if !strings.Contains(buf.String(), "COMPLETE") {
		t.Errorf("goal completion marker missing:\n%s", buf.String())
	}
}
