// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package telemetry exposes the client's operational counters over a
// Prometheus endpoint. The endpoint is optional; with no listen
// address configured the metrics still accumulate and cost nothing.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the client records.
type Metrics struct {
	registry *prometheus.Registry

	// Attached is 1 while the client holds a valid layout.
	Attached prometheus.Gauge

	// Cycles counts enforcement loop passes by outcome.
	Cycles *prometheus.CounterVec

	// Corrections counts unlock flags rewritten after drift.
	Corrections prometheus.Counter

	// ChecksSent counts location checks reported to the server.
	ChecksSent prometheus.Counter

	// ItemsReceived counts items granted by the server.
	ItemsReceived prometheus.Counter

	// ResolveFailures counts failed attach attempts by cause.
	ResolveFailures *prometheus.CounterVec
}

// NewMetrics builds and registers the client's instruments on a fresh
// registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Attached: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mkwii",
			Name:      "attached",
			Help:      "Whether the client is attached to a running game (0 or 1).",
		}),
		Cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mkwii",
			Name:      "enforcement_cycles_total",
			Help:      "Enforcement loop passes by outcome.",
		}, []string{"outcome"}),
		Corrections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mkwii",
			Name:      "unlock_corrections_total",
			Help:      "Unlock flags rewritten after in-memory drift.",
		}),
		ChecksSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mkwii",
			Name:      "location_checks_sent_total",
			Help:      "Location checks reported to the multiworld server.",
		}),
		ItemsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mkwii",
			Name:      "items_received_total",
			Help:      "Items granted by the multiworld server.",
		}),
		ResolveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mkwii",
			Name:      "resolve_failures_total",
			Help:      "Failed pointer chain resolutions by cause.",
		}, []string{"cause"}),
	}
	reg.MustRegister(m.Attached, m.Cycles, m.Corrections, m.ChecksSent,
		m.ItemsReceived, m.ResolveFailures)
	return m
}

// Serve blocks serving /metrics on addr until ctx ends. An empty addr
// disables the endpoint and returns immediately.
func (m *Metrics) Serve(ctx context.Context, addr string, log *slog.Logger) error {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("metrics endpoint listening", "addr", addr)
	err := srv.ListenAndServe()
	<-done
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
