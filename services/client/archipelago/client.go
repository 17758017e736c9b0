// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package archipelago

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// GameName is the world name registered with the multiworld server.
const GameName = "Mario Kart Wii"

const (
	dialTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
)

// Credentials identify one slot in one room.
type Credentials struct {
	Address  string
	SlotName string
	Password string
}

// Client owns one websocket session with an Archipelago server. Reads
// are pumped onto the Packets channel by Run; writes are serialized
// through an internal mutex so the enforcement loop and the command
// console can send concurrently.
type Client struct {
	creds Credentials
	log   *slog.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	// packets carries every decoded inbound packet in arrival order.
	packets chan any
}

// NewClient returns an unconnected client for the given credentials.
func NewClient(creds Credentials, log *slog.Logger) *Client {
	return &Client{
		creds:   creds,
		log:     log,
		packets: make(chan any, 64),
	}
}

// Packets returns the inbound packet stream. The channel closes when
// Run returns.
func (c *Client) Packets() <-chan any { return c.packets }

// Dial opens the websocket. The server speaks first with RoomInfo,
// which arrives through the packet stream once Run starts.
func (c *Client) Dial(ctx context.Context) error {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, c.creds.Address, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", c.creds.Address, err)
	}
	c.conn = conn
	c.log.Info("connected to multiworld server", "address", c.creds.Address)
	return nil
}

// Run pumps inbound frames until the connection drops or ctx ends.
// It always closes the packet stream and the socket on the way out.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.packets)
	defer c.conn.Close()

	go func() {
		<-ctx.Done()
		c.conn.Close()
	}()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading from server: %w", err)
		}
		pkts, err := DecodePackets(frame)
		if err != nil {
			c.log.Warn("dropping undecodable frame", "error", err)
			continue
		}
		for _, pkt := range pkts {
			select {
			case c.packets <- pkt:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// send writes one packet as a single-element command array.
func (c *Client) send(pkt any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	if err := c.conn.WriteJSON([]any{pkt}); err != nil {
		return fmt.Errorf("writing to server: %w", err)
	}
	return nil
}

// SendConnect requests the configured slot with full items handling.
func (c *Client) SendConnect() error {
	return c.send(Connect{
		Cmd:           "Connect",
		Game:          GameName,
		Name:          c.creds.SlotName,
		Password:      c.creds.Password,
		UUID:          uuid.New().String(),
		Version:       SupportedVersion,
		ItemsHandling: ItemsHandlingFull,
		Tags:          []string{},
		SlotData:      true,
	})
}

// SendLocationChecks reports completed locations.
func (c *Client) SendLocationChecks(locations []int64) error {
	if len(locations) == 0 {
		return nil
	}
	return c.send(LocationChecks{Cmd: "LocationChecks", Locations: locations})
}

// SendGoalComplete announces that the session goal has been reached.
func (c *Client) SendGoalComplete() error {
	return c.send(StatusUpdate{Cmd: "StatusUpdate", Status: StatusGoal})
}
