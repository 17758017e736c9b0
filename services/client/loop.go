// Copyright (C) 2026 toent
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/toent/mkwii-client/services/client/config"
	"github.com/toent/mkwii-client/services/client/dolphin"
	"github.com/toent/mkwii-client/services/client/gamedata"
	"github.com/toent/mkwii-client/services/client/store"
	"github.com/toent/mkwii-client/services/client/telemetry"
	"github.com/toent/mkwii-client/services/client/tracker"
)

// ErrRehookFailed means a forced reattach exhausted its attempts
// without ever resolving a layout.
var ErrRehookFailed = errors.New("could not reattach to a running game")

// Status is a point-in-time view of the engine for display.
type Status struct {
	State        State
	Suspended    bool
	ServerSlot   string
	Goal         string
	GoalMet      int
	GoalRequired int
	GoalDone     bool
	Grants       int
	ChecksSent   int
	Completion   map[tracker.Key]tracker.Entry
}

// Display receives engine status after every cycle that changes it.
type Display interface {
	Update(Status)
}

// ServerLink is the outbound half of the multiworld connection the
// engine needs. *archipelago.Client implements it.
type ServerLink interface {
	SendConnect() error
	SendLocationChecks(locations []int64) error
	SendGoalComplete() error
}

// WindowFocuser raises the emulator window while the client is trying
// to attach, so the game keeps advancing to a hookable state. The
// default implementation does nothing; platforms with window
// automation plug their own in.
type WindowFocuser interface {
	FocusGameWindow()
}

type noopFocuser struct{}

func (noopFocuser) FocusGameWindow() {}

// defaultScanClasses and defaultScanTiers mirror the world generator's
// option defaults, used until slot data arrives or when it omits the
// lists: no Mirror class and no three-star tier.
func defaultScanClasses() map[gamedata.Class]bool {
	return map[gamedata.Class]bool{
		gamedata.Class50:  true,
		gamedata.Class100: true,
		gamedata.Class150: true,
	}
}

var defaultScanTiers = tracker.TierMask([]tracker.Tier{
	tracker.Tier3rdPlace, tracker.Tier2ndPlace, tracker.Tier1stPlace,
	tracker.Tier1Star, tracker.Tier2Star,
})

// Engine is the heart of the client: it owns the attachment session,
// applies grants, watches Grand Prix results, and reports checks and
// goal completion to the multiworld server.
type Engine struct {
	cfg     config.Config
	session *Session
	grants  *Grants
	ap      ServerLink
	metrics *telemetry.Metrics
	log     *slog.Logger
	display Display

	completion *tracker.CompletionMap
	baseStore  *store.Store

	// cycleMu serializes enforcement passes: the timer-driven loop
	// and a console-requested pass must never interleave.
	cycleMu sync.Mutex

	mu      sync.Mutex
	goal    *tracker.GoalChecker
	persist *store.Session
	pending []int64
	sent    map[int64]bool

	// scanClasses and scanTiers restrict which GP results become
	// location checks; the session's slot data defines them.
	scanClasses map[gamedata.Class]bool
	scanTiers   uint8

	focuser WindowFocuser

	// itemIndex is the next expected ReceivedItems index; runs at or
	// below it were already applied.
	itemIndex int

	// resolveLog rate-limits per-cause attach failure logging so a
	// closed emulator does not flood the log twice a second.
	resolveLog map[string]*rate.Limiter
}

// NewEngine wires an engine from its parts. display may be nil.
func NewEngine(cfg config.Config, session *Session, ap ServerLink,
	st *store.Store, metrics *telemetry.Metrics, display Display, log *slog.Logger) *Engine {
	e := &Engine{
		cfg:         cfg,
		session:     session,
		grants:      NewGrants(),
		ap:          ap,
		metrics:     metrics,
		log:         log,
		display:     display,
		completion:  tracker.NewCompletionMap(),
		sent:        make(map[int64]bool),
		resolveLog:  make(map[string]*rate.Limiter),
		baseStore:   st,
		scanClasses: defaultScanClasses(),
		scanTiers:   defaultScanTiers,
		focuser:     noopFocuser{},
	}
	return e
}

// SetWindowFocuser replaces the no-op attach-time focus collaborator.
func (e *Engine) SetWindowFocuser(f WindowFocuser) {
	if f != nil {
		e.focuser = f
	}
}

// SetPollInterval adjusts the cycle period for subsequent cycles.
// Called from the config watcher.
func (e *Engine) SetPollInterval(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Game.PollInterval = d
}

func (e *Engine) pollInterval() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Game.PollInterval
}

// Run drives enforcement cycles until ctx ends. Each pass is
// independent; any failure detaches and the next pass starts over
// from resolve.
func (e *Engine) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			e.session.Unhook()
			return ctx.Err()
		case <-time.After(e.pollInterval()):
			e.cycle()
		}
	}
}

// CheckNow runs one enforcement pass immediately, outside the timer.
// Used by the console's manual scan command.
func (e *Engine) CheckNow() {
	e.cycle()
}

// cycle is one enforcement pass.
func (e *Engine) cycle() {
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	if e.session.Suspended() {
		e.metrics.Cycles.WithLabelValues("suspended").Inc()
		return
	}

	if e.session.State() != StateAttached {
		if err := e.attach(); err != nil {
			e.metrics.Cycles.WithLabelValues("detached").Inc()
			return
		}
	}

	if err := e.enforce(); err != nil {
		e.session.Detach(err)
		e.metrics.Attached.Set(0)
		e.metrics.Cycles.WithLabelValues("lost").Inc()
		e.publishStatus()
		return
	}

	e.observe()
	e.flushChecks()
	e.checkGoal()
	e.metrics.Cycles.WithLabelValues("ok").Inc()
	e.publishStatus()
}

// attach resolves a fresh layout and replays session state onto it:
// lock everything, re-apply every grant, and baseline whatever
// results the save already claims.
func (e *Engine) attach() error {
	if err := e.session.Attach(); err != nil {
		cause := rootCause(err)
		e.metrics.ResolveFailures.WithLabelValues(cause).Inc()
		if e.limiterFor(cause).Allow() {
			e.log.Info("waiting for game", "cause", cause)
		}
		e.focuser.FocusGameWindow()
		return err
	}
	e.metrics.Attached.Set(1)

	if err := e.applyAllGrants(); err != nil {
		e.session.Detach(err)
		e.metrics.Attached.Set(0)
		return err
	}
	if err := e.captureBaselines(); err != nil {
		e.session.Detach(err)
		e.metrics.Attached.Set(0)
		return err
	}
	e.publishStatus()
	return nil
}

// applyAllGrants resets the unlock region to exactly the grant set.
func (e *Engine) applyAllGrants() error {
	st := e.session.Store()
	if st == nil {
		return errors.New("no layout")
	}
	if err := st.LockAll(); err != nil {
		return fmt.Errorf("locking baseline state: %w", err)
	}
	for _, name := range e.grants.Names() {
		if _, err := st.WriteFlag(name, true); err != nil {
			return fmt.Errorf("applying grant %q: %w", name, err)
		}
	}
	e.log.Info("unlock state applied", "grants", e.grants.Len())
	return nil
}

// captureBaselines records pre-existing results for GPs this session
// has never seen real play on. The seed save ships fake trophies to
// keep cups selectable; anything already present at attach that we
// have no tier history for is treated as such a fake.
func (e *Engine) captureBaselines() error {
	dec := e.session.Decoder()
	if dec == nil {
		return errors.New("no layout")
	}
	all, err := dec.DecodeAll()
	if err != nil {
		return fmt.Errorf("reading baseline results: %w", err)
	}
	for class, results := range all {
		for cup, res := range results {
			if res.Trophy == gamedata.TrophyNone {
				continue
			}
			key := tracker.Key{Cup: gamedata.Cups[cup], Class: class}
			if e.completion.Entry(key).Tiers == 0 {
				e.completion.SetBaseline(key, res)
			}
		}
	}
	return nil
}

// enforce is the per-cycle drift correction: read the live unlock
// region and rewrite any byte that disagrees with the grant set. The
// read doubles as the liveness probe for the layout.
func (e *Engine) enforce() error {
	st := e.session.Store()
	if st == nil {
		return errors.New("no layout")
	}
	region, err := st.ReadRegion()
	if err != nil {
		return err
	}

	corrected, err := st.ApplyRegion(region, e.grants.DesiredRegion())
	if corrected > 0 {
		e.metrics.Corrections.Add(float64(corrected))
		e.log.Debug("corrected unlock drift", "bits", corrected)
	}
	return err
}

// observe decodes GP records for the session's enabled classes,
// filters stale and fake results, and turns newly reached tiers into
// pending location checks.
func (e *Engine) observe() {
	dec := e.session.Decoder()
	if dec == nil {
		return
	}
	all, err := dec.DecodeAll()
	if err != nil {
		e.session.Detach(err)
		e.metrics.Attached.Set(0)
		return
	}

	e.mu.Lock()
	classes := e.scanClasses
	tiers := e.scanTiers
	e.mu.Unlock()

	for class, results := range all {
		if !classes[class] {
			continue
		}
		for cup, res := range results {
			key := tracker.Key{Cup: gamedata.Cups[cup], Class: class}
			if !e.completion.IsReal(key, res) {
				continue
			}
			added := e.completion.Update(key, res)
			if len(added) == 0 {
				continue
			}
			e.log.Info("grand prix result", "cup", key.Cup, "class", class.String(), "result", res.String())
			e.recordTiers(key, added, tiers)
		}
	}
}

// recordTiers queues location checks for newly reached tiers inside
// the enabled tier set and persists the updated entry. Tiers outside
// the set still land in the completion map; the session just has no
// location for them.
func (e *Engine) recordTiers(key tracker.Key, added []tracker.Tier, enabled uint8) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, tier := range added {
		if !tracker.HasTier(enabled, tier) {
			continue
		}
		id, ok := gamedata.CupTierLocationID(key.Cup, key.Class, int(tier))
		if !ok {
			continue
		}
		if !e.sent[id] {
			e.pending = append(e.pending, id)
		}
	}
	if e.persist != nil {
		if err := e.persist.SaveEntry(key, e.completion.Entry(key)); err != nil {
			e.log.Warn("persisting gp entry failed", "cup", key.Cup, "error", err)
		}
	}
}

// flushChecks reports pending locations. Checks confirmed by the
// server in the meantime are dropped from the queue first. Failures
// keep the batch queued; checks are only marked sent once the write
// succeeded.
func (e *Engine) flushChecks() {
	e.mu.Lock()
	kept := e.pending[:0]
	for _, id := range e.pending {
		if !e.sent[id] {
			kept = append(kept, id)
		}
	}
	e.pending = kept
	batch := e.pending
	e.mu.Unlock()
	if len(batch) == 0 {
		return
	}

	if err := e.ap.SendLocationChecks(batch); err != nil {
		e.log.Warn("sending location checks failed", "count", len(batch), "error", err)
		return
	}

	e.mu.Lock()
	for _, id := range batch {
		e.sent[id] = true
	}
	e.pending = e.pending[len(batch):]
	persist := e.persist
	e.mu.Unlock()

	e.metrics.ChecksSent.Add(float64(len(batch)))
	for _, id := range batch {
		if name, ok := gamedata.LocationName(id); ok {
			e.log.Info("location checked", "location", name)
		}
	}
	if persist != nil {
		if err := persist.MarkChecked(batch); err != nil {
			e.log.Warn("persisting checks failed", "error", err)
		}
	}
}

// checkGoal latches goal completion and announces it once.
func (e *Engine) checkGoal() {
	e.mu.Lock()
	checker := e.goal
	e.mu.Unlock()
	if checker == nil {
		return
	}
	_, fired := checker.Check(e.completion)
	if !fired {
		return
	}
	e.log.Info("goal complete", "goal", checker.Goal().String())
	if err := e.ap.SendGoalComplete(); err != nil {
		e.log.Warn("announcing goal completion failed", "error", err)
	}
}

// ForceRehook drops the current attachment and retries until a layout
// resolves or the configured attempt budget runs out. Enforcement is
// suspended for the duration so half-valid layouts are never written
// through.
func (e *Engine) ForceRehook(ctx context.Context) error {
	e.session.Suspend()
	defer e.session.Resume()

	e.session.Unhook()
	e.metrics.Attached.Set(0)
	e.log.Info("reattach requested", "attempts", e.cfg.Game.RehookAttempts)

	for attempt := 1; attempt <= e.cfg.Game.RehookAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.pollInterval()):
		}
		if err := e.attach(); err == nil {
			e.log.Info("reattached", "attempt", attempt)
			return nil
		}
	}
	return ErrRehookFailed
}

// Snapshot builds the current display status.
func (e *Engine) Snapshot() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Status{
		State:      e.session.State(),
		Suspended:  e.session.Suspended(),
		ServerSlot: e.cfg.Server.SlotName,
		Grants:     e.grants.Len(),
		ChecksSent: len(e.sent),
		Completion: e.completion.Snapshot(),
	}
	if e.goal != nil {
		s.Goal = e.goal.Goal().String()
		s.GoalMet, s.GoalRequired = e.goal.Progress(e.completion)
		s.GoalDone = e.goal.Complete()
	}
	return s
}

func (e *Engine) publishStatus() {
	if e.display == nil {
		return
	}
	e.display.Update(e.Snapshot())
}

func (e *Engine) limiterFor(cause string) *rate.Limiter {
	e.mu.Lock()
	defer e.mu.Unlock()
	lim, ok := e.resolveLog[cause]
	if !ok {
		lim = rate.NewLimiter(rate.Every(15*time.Second), 1)
		e.resolveLog[cause] = lim
	}
	return lim
}

// rootCause reduces a wrapped resolve error to its sentinel text for
// metric labels and log dedup.
func rootCause(err error) string {
	for _, sentinel := range []error{
		dolphin.ErrNoProcess,
		dolphin.ErrNotHooked,
		dolphin.ErrWrongGame,
		dolphin.ErrNotLoaded,
		dolphin.ErrSaveLoading,
		dolphin.ErrBufferNotReady,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "other"
}
