// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	configPath string
	serverAddr string
	slotName   string
	password   string
	saveSlot   int
	quiet      bool

	inspectSlot int
	backupOut   string

	rootCmd = &cobra.Command{
		Use:   "mkwii",
		Short: "Archipelago multiworld client for Mario Kart Wii (PAL) on Dolphin",
		Long: `mkwii attaches to a running Dolphin emulator, keeps the game's
unlock state in sync with an Archipelago multiworld session, and
reports Grand Prix achievements back to the server as location checks.`,
	}

	// --- Session ---
	connectCmd = &cobra.Command{
		Use:   "connect",
		Short: "Connect to a multiworld server and start enforcing",
		RunE:  runConnect, // Defined in cmd_connect.go
	}

	// --- Save files ---
	saveCmd = &cobra.Command{
		Use:   "save",
		Short: "Inspect and back up rksys.dat seed saves",
	}
	saveInspectCmd = &cobra.Command{
		Use:   "inspect [file]",
		Short: "Print unlocks and Grand Prix results from a seed save",
		Args:  cobra.ExactArgs(1),
		RunE:  runSaveInspect, // Defined in cmd_save.go
	}
	saveBackupCmd = &cobra.Command{
		Use:   "backup [file]",
		Short: "Validate a seed save and write a checksummed copy",
		Args:  cobra.ExactArgs(1),
		RunE:  runSaveBackup, // Defined in cmd_save.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the client config file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output on stderr")

	connectCmd.Flags().StringVar(&serverAddr, "server", "", "Override server.address from the config")
	connectCmd.Flags().StringVar(&slotName, "slot", "", "Override server.slot_name from the config")
	connectCmd.Flags().StringVar(&password, "password", "", "Override server.password from the config")
	connectCmd.Flags().IntVar(&saveSlot, "save-slot", -1, "Override game.save_slot from the config (0-3)")

	saveInspectCmd.Flags().IntVar(&inspectSlot, "license", 0, "License index to inspect (0-3)")
	saveBackupCmd.Flags().StringVarP(&backupOut, "out", "o", "", "Backup destination (default: <file>.bak)")

	saveCmd.AddCommand(saveInspectCmd, saveBackupCmd)
	rootCmd.AddCommand(connectCmd, saveCmd)
}
