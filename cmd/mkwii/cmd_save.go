// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toent/mkwii-client/services/client/gamedata"
	"github.com/toent/mkwii-client/services/client/save"
)

func runSaveInspect(cmd *cobra.Command, args []string) error {
	if inspectSlot < 0 || inspectSlot > 3 {
		return fmt.Errorf("license must be 0-3, got %d", inspectSlot)
	}
	f, err := save.LoadFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s, license %d\n\n", args[0], inspectSlot)

	fmt.Println("Unlocked characters:")
	for _, name := range save.FileCharacterNames() {
		if f.CharacterUnlocked(inspectSlot, name) {
			fmt.Printf("  %s\n", name)
		}
	}
	fmt.Println("Unlocked vehicles:")
	for _, name := range save.FileVehicleNames() {
		if f.VehicleUnlocked(inspectSlot, name) {
			fmt.Printf("  %s\n", name)
		}
	}
	fmt.Println("Unlocked cups:")
	for _, cup := range gamedata.Cups {
		if f.CupUnlocked(inspectSlot, cup) {
			fmt.Printf("  %s\n", cup)
		}
	}
	if f.MirrorUnlocked(inspectSlot) {
		fmt.Println("  Mirror mode")
	}

	fmt.Println("\nGrand Prix results:")
	for _, class := range gamedata.Classes {
		for cup := range gamedata.Cups {
			res := f.GPResult(inspectSlot, class, cup)
			if res.Trophy == gamedata.TrophyNone {
				continue
			}
			fmt.Printf("  %-14s %-7s %s\n", gamedata.Cups[cup], class.String(), res.String())
		}
	}
	return nil
}

func runSaveBackup(cmd *cobra.Command, args []string) error {
	f, err := save.LoadFile(args[0])
	if err != nil {
		return err
	}
	out := backupOut
	if out == "" {
		out = args[0] + ".bak"
	}
	if err := f.Save(out); err != nil {
		return err
	}
	fmt.Printf("backed up %s to %s\n", args[0], out)
	return nil
}
