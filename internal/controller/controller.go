// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package controller

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/geochat-tui/internal/backend"
	"github.com/jeranaias/geochat-tui/internal/mapview"
	"github.com/jeranaias/geochat-tui/internal/model"
	"github.com/jeranaias/geochat-tui/internal/session"
	"github.com/jeranaias/geochat-tui/internal/storage"
	"github.com/jeranaias/geochat-tui/internal/util"
)

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the part of backend.Client the controller uses.
type Backend interface {
	SaveToCache(ctx context.Context, entries []model.Entry, mode model.Mode) (*backend.CacheResponse, error)
	CommitToStore(ctx context.Context, chatID *string) (*backend.CommitResult, error)
	FetchHistory(ctx context.Context, sessionID string) ([]model.Entry, error)
	ListSessions(ctx context.Context) ([]model.SessionSummary, error)
}

// Archive stores committed transcripts locally.
type Archive interface {
	Put(ctx context.Context, t storage.Transcript) (string, error)
}

// Options configures a Controller.
type Options struct {
	// Mode is the initial mode (default: generation).
	Mode model.Mode

	// Greeting opens every new session when non-empty.
	Greeting string

	// Timeout bounds each backend operation. Zero means no extra bound.
	Timeout time.Duration

	// Renderer draws mapping answers (default: mapview defaults).
	Renderer *mapview.Renderer

	// Archive, when set, receives every committed transcript.
	Archive Archive

	Logger *zap.Logger
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the session state and connects it to the backend and the
// map renderer.
//
// State changes only through Dispatch, which is meant to be called from one
// goroutine (the UI loop). The effect methods (Exchange, StartNewSession,
// OpenSession, RefreshSessions, Save) only read the snapshot they are given
// and return events, so they can run on any goroutine.
type Controller struct {
	backend  Backend
	renderer *mapview.Renderer
	archive  Archive
	log      *zap.Logger
	greeting string
	timeout  time.Duration

	// record holds the rendered map; attached surfaces replay it so they
	// all show the same center.
	record *mapview.MemorySurface

	mu       sync.Mutex
	state    session.State
	surfaces []mapview.Surface
	report   mapview.Report
}

// New creates a controller in a fresh session.
func New(b Backend, opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Renderer == nil {
		ro := mapview.DefaultOptions()
		ro.Logger = opts.Logger
		opts.Renderer = mapview.NewRenderer(ro)
	}
	c := &Controller{
		backend:  b,
		renderer: opts.Renderer,
		archive:  opts.Archive,
		log:      opts.Logger.Named("controller"),
		greeting: opts.Greeting,
		timeout:  opts.Timeout,
		record:   mapview.NewMemorySurface(),
	}
	c.state = session.Initial(opts.Mode, c.greetingMessage())
	return c
}

// State returns the current state.
func (c *Controller) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Renderer returns the map renderer.
func (c *Controller) Renderer() *mapview.Renderer {
	return c.renderer
}

// LastRender returns the report of the most recent map render.
func (c *Controller) LastRender() mapview.Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Attach registers a surface that shows the session map. The current map,
// if any, is drawn on it immediately.
func (c *Controller) Attach(s mapview.Surface) {
	c.mu.Lock()
	c.surfaces = append(c.surfaces, s)
	c.mu.Unlock()

	if m := c.record.Current(); m != nil {
		if err := m.Replay(s); err != nil {
			c.log.Warn("replay map on attached surface", zap.Error(err))
		}
	}
}

// CurrentMap returns the rendered map of this session, or nil when the
// session has no mapping answer.
func (c *Controller) CurrentMap() *mapview.MemoryMap {
	return c.record.Current()
}

// Detach unregisters a surface without touching its contents.
func (c *Controller) Detach(s mapview.Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.surfaces {
		if existing == s {
			c.surfaces = append(c.surfaces[:i:i], c.surfaces[i+1:]...)
			return
		}
	}
}

// Dispatch applies ev and returns the new state. A mapping answer is drawn
// on every attached surface; starting or opening a session clears them.
func (c *Controller) Dispatch(ev session.Event) session.State {
	c.mu.Lock()
	c.state = session.Reduce(c.state, ev)
	st := c.state
	surfaces := append([]mapview.Surface(nil), c.surfaces...)
	c.mu.Unlock()

	switch e := ev.(type) {
	case session.AnswerReceived:
		if e.HasMap {
			c.renderAll(surfaces, st)
		}
	case session.NewSessionStarted, session.HistoryLoaded:
		c.record.Reset()
		for _, s := range surfaces {
			s.Reset()
		}
	}
	return st
}

// DispatchAll applies events in order.
func (c *Controller) DispatchAll(events ...session.Event) session.State {
	st := c.State()
	for _, ev := range events {
		st = c.Dispatch(ev)
	}
	return st
}

func (c *Controller) renderAll(surfaces []mapview.Surface, st session.State) {
	rep := c.renderer.Render(c.record, st.Features)
	c.mu.Lock()
	c.report = rep
	c.mu.Unlock()
	c.log.Info("map rendered", zap.Stringer("report", rep))

	m := c.record.Current()
	if m == nil {
		return
	}
	for _, s := range surfaces {
		if err := m.Replay(s); err != nil {
			c.log.Warn("replay map", zap.Error(err))
		}
	}
}

// =============================================================================
// INPUT
// =============================================================================

// SetInput records the input text.
func (c *Controller) SetInput(text string) session.State {
	return c.Dispatch(session.InputChanged{Text: text})
}

// SelectMode changes the mode for the next message.
func (c *Controller) SelectMode(mode model.Mode) session.State {
	return c.Dispatch(session.ModeSelected{Mode: mode})
}

// CycleMode advances to the next mode.
func (c *Controller) CycleMode() session.State {
	return c.SelectMode(c.State().Mode.Next())
}

// AcceptSuggestion moves the pending similar question into the input.
func (c *Controller) AcceptSuggestion() session.State {
	return c.Dispatch(session.SuggestionAccepted{})
}

// Submit appends text as a user message in the current mode. ok is false
// for blank input, which is ignored; otherwise the returned state is the
// snapshot to pass to Exchange.
func (c *Controller) Submit(text string) (st session.State, ok bool) {
	text = util.NormalizeInput(text)
	if text == "" {
		return c.State(), false
	}
	mode := c.State().Mode
	return c.Dispatch(session.Submitted{Message: model.NewUserMessage(text, mode)}), true
}

func (c *Controller) greetingMessage() *model.Message {
	if c.greeting == "" {
		return nil
	}
	m := model.NewNotice(c.greeting)
	return &m
}

func (c *Controller) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}
