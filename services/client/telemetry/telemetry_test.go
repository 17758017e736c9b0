// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RegisterAndGather(t *testing.T) {
	m := NewMetrics()
	m.Attached.Set(1)
	m.Cycles.WithLabelValues("ok").Inc()
	m.Cycles.WithLabelValues("detached").Inc()
	m.Corrections.Add(3)
	m.ResolveFailures.WithLabelValues("wrong game id").Inc()

	families, err := m.registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["mkwii_attached"])
	assert.True(t, names["mkwii_enforcement_cycles_total"])
	assert.True(t, names["mkwii_unlock_corrections_total"])
	assert.True(t, names["mkwii_resolve_failures_total"])
}

func TestMetrics_ServeDisabled(t *testing.T) {
	m := NewMetrics()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NoError(t, m.Serve(context.Background(), "", log))
}
