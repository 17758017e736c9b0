// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/toent/mkwii-client/pkg/ux"
	"github.com/toent/mkwii-client/services/client"
)

// runConsole reads slash commands from stdin until EOF or /quit.
// Unknown input prints help rather than erroring, since this is the
// only interactive surface of a long-running session.
func runConsole(ctx context.Context, engine *client.Engine, display *ux.Tracker, log *slog.Logger) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				// stdin closed (piped input, detached terminal):
				// keep the session alive without a console.
				<-ctx.Done()
				return ctx.Err()
			}
			switch cmd := strings.TrimSpace(line); cmd {
			case "":
			case "/status":
				display.RenderStatus()
			case "/check":
				engine.CheckNow()
				display.Render()
			case "/hook":
				go func() {
					if err := engine.ForceRehook(ctx); err != nil && ctx.Err() == nil {
						log.Error("reattach failed", "error", err)
					}
				}()
			case "/quit", "/exit":
				return context.Canceled
			default:
				fmt.Println("commands: /status  /check  /hook  /quit")
			}
		}
	}
}
