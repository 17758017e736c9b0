// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tracker

import (
	"fmt"

	"github.com/toent/mkwii-client/services/client/gamedata"
)

// Goal is the session's win condition from slot data: reach at least
// the target tier on the target class in a required number of cups.
type Goal struct {
	Class gamedata.Class
	Tier  Tier
	Cups  int
}

func (g Goal) String() string {
	return fmt.Sprintf("%s or better at %s in %d cups",
		gamedata.TierTitle(int(g.Tier)), g.Class, g.Cups)
}

// GoalChecker evaluates the goal against a completion map and latches
// on first success, so the completion announcement fires exactly once
// per session even though evaluation runs every cycle.
type GoalChecker struct {
	goal     Goal
	complete bool
}

// NewGoalChecker returns an unlatched checker for the goal.
func NewGoalChecker(goal Goal) *GoalChecker {
	return &GoalChecker{goal: goal}
}

// Goal returns the configured win condition.
func (c *GoalChecker) Goal() Goal { return c.goal }

// Complete reports whether the goal has ever evaluated true.
func (c *GoalChecker) Complete() bool { return c.complete }

// Check counts cups that satisfy the goal tier. The first call that
// meets the required count latches and returns fired=true; every later
// call returns fired=false.
func (c *GoalChecker) Check(m *CompletionMap) (satisfied, fired bool) {
	met, _ := c.Progress(m)
	if met < c.goal.Cups {
		return false, false
	}
	if c.complete {
		return true, false
	}
	c.complete = true
	return true, true
}

// Progress returns how many cups currently satisfy the goal tier. A
// cup counts only when its tier chain is contiguous from the bottom
// through the goal tier: an isolated high tier with missing lower
// tiers means a threshold went unrecorded and the cup is not trusted
// until the chain fills in.
func (c *GoalChecker) Progress(m *CompletionMap) (met, required int) {
	required = c.goal.Cups
	for _, cup := range gamedata.Cups {
		entry := m.Entry(Key{Cup: cup, Class: c.goal.Class})
		if chainLength(entry.Tiers) > int(c.goal.Tier) {
			met++
		}
	}
	return met, required
}

// chainLength is the number of consecutive tiers present starting from
// the lowest.
func chainLength(tiers uint8) int {
	n := 0
	for Tier(n) <= Tier3Star && HasTier(tiers, Tier(n)) {
		n++
	}
	return n
}
