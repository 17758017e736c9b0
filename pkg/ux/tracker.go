// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/toent/mkwii-client/services/client"
	"github.com/toent/mkwii-client/services/client/gamedata"
	"github.com/toent/mkwii-client/services/client/tracker"
)

// tierGlyphs renders one GP cell, lowest tier first.
var tierGlyphs = []struct {
	tier  tracker.Tier
	glyph string
}{
	{tracker.Tier3rdPlace, "3"},
	{tracker.Tier2ndPlace, "2"},
	{tracker.Tier1stPlace, "1"},
	{tracker.Tier1Star, "*"},
	{tracker.Tier2Star, "*"},
	{tracker.Tier3Star, "*"},
}

// Tracker implements client.Display by rewriting a status block on
// demand. It never renders on its own schedule; Render is invoked
// from the command console so the grid does not fight the log stream
// for the terminal.
type Tracker struct {
	mu     sync.Mutex
	out    io.Writer
	color  bool
	status client.Status
	seen   bool
}

// NewTracker returns a tracker writing to out. color selects styled
// output; pass IsInteractive() for terminal detection.
func NewTracker(out io.Writer, color bool) *Tracker {
	return &Tracker{out: out, color: color}
}

// Update stores the latest engine status.
func (t *Tracker) Update(s client.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	t.seen = true
}

// Render writes the full tracker block: status line, goal line, and
// the cup-by-class tier grid.
func (t *Tracker) Render() {
	t.mu.Lock()
	s := t.status
	seen := t.seen
	t.mu.Unlock()

	if !seen {
		fmt.Fprintln(t.out, "no status yet")
		return
	}
	fmt.Fprintln(t.out, t.statusLine(s))
	if s.Goal != "" {
		fmt.Fprintln(t.out, t.goalLine(s))
	}
	fmt.Fprintln(t.out, t.grid(s))
}

// RenderStatus writes just the one-line status.
func (t *Tracker) RenderStatus() {
	t.mu.Lock()
	s := t.status
	seen := t.seen
	t.mu.Unlock()
	if !seen {
		fmt.Fprintln(t.out, "no status yet")
		return
	}
	fmt.Fprintln(t.out, t.statusLine(s))
}

func (t *Tracker) statusLine(s client.Status) string {
	state := s.State.String()
	if s.Suspended {
		state += " (suspended)"
	}
	line := fmt.Sprintf("%s | slot %s | %d items | %d checks sent",
		state, s.ServerSlot, s.Grants, s.ChecksSent)
	if !t.color {
		return line
	}
	style := Styles.Waiting
	if s.State == client.StateAttached && !s.Suspended {
		style = Styles.Attached
	}
	return style.Render(line)
}

func (t *Tracker) goalLine(s client.Status) string {
	line := fmt.Sprintf("goal: %s (%d/%d)", s.Goal, s.GoalMet, s.GoalRequired)
	if s.GoalDone {
		line += "  COMPLETE"
		if t.color {
			return Styles.GoalDone.Render(line)
		}
	} else if t.color {
		return Styles.Header.Render(line)
	}
	return line
}

// grid renders one row per cup, one tier-cell per class.
func (t *Tracker) grid(s client.Status) string {
	var b strings.Builder

	head := fmt.Sprintf("%-14s", "")
	for _, class := range gamedata.Classes {
		head += fmt.Sprintf(" %-8s", class.String())
	}
	b.WriteString(t.styled(Styles.Header, head))
	b.WriteByte('\n')

	for _, cup := range gamedata.Cups {
		row := fmt.Sprintf("%-14s", strings.TrimSuffix(cup, " Cup"))
		for _, class := range gamedata.Classes {
			entry := s.Completion[tracker.Key{Cup: cup, Class: class}]
			row += " " + t.cell(entry)
		}
		b.WriteString(row)
		b.WriteByte('\n')
	}
	out := strings.TrimRight(b.String(), "\n")
	if t.color {
		return Styles.Grid.Render(out)
	}
	return out
}

// cell renders one GP's tiers as a fixed-width glyph run, styled by
// the best trophy held.
func (t *Tracker) cell(entry tracker.Entry) string {
	var glyphs string
	for _, g := range tierGlyphs {
		if tracker.HasTier(entry.Tiers, g.tier) {
			glyphs += g.glyph
		} else {
			glyphs += "-"
		}
	}
	padded := fmt.Sprintf("%-8s", glyphs)
	if !t.color {
		return padded
	}
	switch {
	case tracker.HasTier(entry.Tiers, tracker.Tier1Star):
		return Styles.Star.Render(padded)
	case tracker.HasTier(entry.Tiers, tracker.Tier1stPlace):
		return Styles.Gold.Render(padded)
	case tracker.HasTier(entry.Tiers, tracker.Tier2ndPlace):
		return Styles.Silver.Render(padded)
	case tracker.HasTier(entry.Tiers, tracker.Tier3rdPlace):
		return Styles.Bronze.Render(padded)
	default:
		return Styles.Muted.Render(padded)
	}
}

func (t *Tracker) styled(style lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return style.Render(s)
}
