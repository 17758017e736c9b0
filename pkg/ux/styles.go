// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux renders the in-terminal progress tracker: a cup-by-class
// grid of achievement tiers plus a one-line session status.
package ux

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Racing palette - circuit reds and podium golds
var (
	ColorRed    = lipgloss.Color("#E23D28") // shell red - brand, headers
	ColorGold   = lipgloss.Color("#F4C430") // gold trophy
	ColorSilver = lipgloss.Color("#C0C0C8") // silver trophy
	ColorBronze = lipgloss.Color("#CD7F32") // bronze trophy
	ColorStar   = lipgloss.Color("#7FDBFF") // star ranks
	ColorTrack  = lipgloss.Color("#4A4A52") // asphalt - muted text
	ColorGreen  = lipgloss.Color("#2ECC71") // attached, goal done
	ColorAmber  = lipgloss.Color("#F39C12") // attaching, suspended
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Muted    lipgloss.Style
	Gold     lipgloss.Style
	Silver   lipgloss.Style
	Bronze   lipgloss.Style
	Star     lipgloss.Style
	Attached lipgloss.Style
	Waiting  lipgloss.Style
	GoalDone lipgloss.Style
	Grid     lipgloss.Style
}{
	Title:    lipgloss.NewStyle().Bold(true).Foreground(ColorRed),
	Header:   lipgloss.NewStyle().Bold(true),
	Muted:    lipgloss.NewStyle().Foreground(ColorTrack),
	Gold:     lipgloss.NewStyle().Foreground(ColorGold),
	Silver:   lipgloss.NewStyle().Foreground(ColorSilver),
	Bronze:   lipgloss.NewStyle().Foreground(ColorBronze),
	Star:     lipgloss.NewStyle().Foreground(ColorStar),
	Attached: lipgloss.NewStyle().Foreground(ColorGreen),
	Waiting:  lipgloss.NewStyle().Foreground(ColorAmber),
	GoalDone: lipgloss.NewStyle().Bold(true).Foreground(ColorGold),
	Grid: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTrack).
		Padding(0, 1),
}

// IsInteractive reports whether stdout is a terminal. Plain output is
// used when it is not, so piped output stays grep-friendly.
func IsInteractive() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}
