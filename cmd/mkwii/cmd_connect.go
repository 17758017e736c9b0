// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/toent/mkwii-client/pkg/logging"
	"github.com/toent/mkwii-client/pkg/ux"
	"github.com/toent/mkwii-client/services/client"
	"github.com/toent/mkwii-client/services/client/archipelago"
	"github.com/toent/mkwii-client/services/client/config"
	"github.com/toent/mkwii-client/services/client/dolphin"
	"github.com/toent/mkwii-client/services/client/store"
	"github.com/toent/mkwii-client/services/client/telemetry"
)

// crashLog is written on panic so a crash mid-session leaves evidence.
const crashLog = "crash.log"

func runConnect(cmd *cobra.Command, args []string) error {
	defer capturePanic()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(&cfg)

	logger, err := logging.New(logging.Config{
		Level:   cfg.Logging.Level,
		LogDir:  cfg.Logging.Dir,
		Service: "mkwii",
		JSON:    cfg.Logging.JSON,
		Quiet:   quiet,
	})
	if err != nil {
		return err
	}
	defer logger.Close()

	st, err := store.Open(store.DefaultConfig(cfg.Storage.Path))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session := client.NewSession(dolphin.NewProcessAccessor(), cfg.Game.SaveSlot, logger.Logger)
	apc := archipelago.NewClient(archipelago.Credentials{
		Address:  cfg.Server.Address,
		SlotName: cfg.Server.SlotName,
		Password: cfg.Server.Password,
	}, logger.Logger)
	if err := apc.Dial(ctx); err != nil {
		return err
	}

	display := ux.NewTracker(os.Stdout, ux.IsInteractive())
	metrics := telemetry.NewMetrics()
	engine := client.NewEngine(cfg, session, apc, st, metrics, display, logger.Logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(ctx) })
	g.Go(func() error { return apc.Run(ctx) })
	g.Go(func() error { return engine.HandlePackets(apc.Packets()) })
	g.Go(func() error { return metrics.Serve(ctx, cfg.Metrics.Addr, logger.Logger) })
	g.Go(func() error {
		return runConsole(ctx, engine, display, logger.Logger)
	})
	g.Go(func() error {
		err := config.Watch(ctx, configPath, logger.Logger, func(next config.Config) {
			if level, err := logging.ParseLevel(next.Logging.Level); err == nil {
				logger.SetLevel(level)
			}
			engine.SetPollInterval(next.Game.PollInterval)
		})
		if err != nil && ctx.Err() == nil {
			// A dead watcher degrades hot reload, nothing else.
			logger.Warn("config watcher stopped", "error", err)
		}
		return nil
	})

	logger.Info("client started",
		"server", cfg.Server.Address,
		"slot_name", cfg.Server.SlotName,
		"save_slot", cfg.Game.SaveSlot)

	err = g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func applyFlagOverrides(cfg *config.Config) {
	if serverAddr != "" {
		cfg.Server.Address = serverAddr
	}
	if slotName != "" {
		cfg.Server.SlotName = slotName
	}
	if password != "" {
		cfg.Server.Password = password
	}
	if saveSlot >= 0 {
		cfg.Game.SaveSlot = saveSlot
	}
}

// capturePanic writes panic details to crash.log before re-raising,
// since the interesting state is usually gone by the time a user
// reports a crash.
func capturePanic() {
	r := recover()
	if r == nil {
		return
	}
	report := fmt.Sprintf("%s\npanic: %v\n\n%s\n",
		time.Now().Format(time.RFC3339), r, debug.Stack())
	_ = os.WriteFile(crashLog, []byte(report), 0o644)
	fmt.Fprintf(os.Stderr, "fatal error, details written to %s\n", crashLog)
	panic(r)
}
