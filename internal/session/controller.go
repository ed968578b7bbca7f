// Package session drives one launcher conversation: it ranks the record
// store for each query, remembers the view it showed, and activates results
// from that view by position.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/runger/histlaunch/internal/history"
	"github.com/runger/histlaunch/internal/launcher"
	"github.com/runger/histlaunch/internal/rank"
	"github.com/runger/histlaunch/internal/sanitize"
)

// State is the controller's position in a query/activate cycle.
type State int

// Controller states.
const (
	StateIdle State = iota
	StateSearching
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSearching:
		return "searching"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome reports what an activation did.
type Outcome int

// Activation outcomes.
const (
	// OutcomeNone means the activation was abandoned by a transport failure.
	OutcomeNone Outcome = iota
	// OutcomeOpened means the target was handed to the opener.
	OutcomeOpened
	// OutcomeNotFound means the id did not resolve against the current view.
	OutcomeNotFound
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOpened:
		return "opened"
	case OutcomeNotFound:
		return "not_found"
	default:
		return "none"
	}
}

// Emitter delivers outbound events to the launcher. Emit returns once the
// event has been written.
type Emitter interface {
	Emit(ctx context.Context, resp launcher.Response) error
}

// Opener hands a target to an external program without waiting for it.
type Opener interface {
	Open(target string) error
}

// Options configures a Controller.
type Options struct {
	Trigger          string
	MaxResults       int
	IncludeUnmatched bool
}

// Controller answers Search, Activate and Complete requests. It handles one
// request at a time and is not safe for concurrent use.
type Controller struct {
	store   *history.Store
	engine  *rank.Engine
	emitter Emitter
	opener  Opener
	logger  *slog.Logger

	trigger string
	limit   int

	state     State
	view      *rank.View
	sessionID string
}

// New creates a Controller over store. A nil logger discards logs.
func New(store *history.Store, emitter Emitter, opener Opener, logger *slog.Logger, opts Options) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	trigger := opts.Trigger
	if trigger == "" {
		trigger = DefaultTrigger
	}
	limit := opts.MaxResults
	if limit <= 0 {
		limit = rank.DefaultLimit
	}
	return &Controller{
		store:   store,
		engine:  rank.NewEngine(opts.IncludeUnmatched),
		emitter: emitter,
		opener:  opener,
		logger:  logger,
		trigger: trigger,
		limit:   limit,
		state:   StateIdle,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// SessionID returns the id of the current search session, or "" when idle.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Search ranks the store for raw launcher input. Triggering input emits one
// Append per result followed by Finished; any other input emits Finished
// alone. The new view replaces the previous one.
func (c *Controller) Search(ctx context.Context, raw string) error {
	if c.state == StateIdle {
		c.sessionID = uuid.NewString()
	}
	c.state = StateSearching
	c.view = nil
	logger := c.logger.With("session_id", c.sessionID)

	text, ok := MatchText(raw, c.trigger)
	if !ok {
		logger.Debug("query not triggered", "query_len", len(raw))
		c.state = StateTerminated
		return c.emitter.Emit(ctx, launcher.Finished())
	}

	start := time.Now()
	view := c.engine.Rank(c.store, text, c.limit)

	// The view only becomes activatable once the host has all of it.
	for id, hit := range view.All() {
		err := c.emitter.Emit(ctx, launcher.Append(launcher.SearchResult{
			ID:          id,
			Name:        hit.Record.Title,
			Description: hit.Record.Target,
		}))
		if err != nil {
			c.state = StateTerminated
			return fmt.Errorf("emit result %d: %w", id, err)
		}
	}
	if err := c.emitter.Emit(ctx, launcher.Finished()); err != nil {
		c.state = StateTerminated
		return fmt.Errorf("emit finished: %w", err)
	}
	c.view = view

	logger.Debug("query ranked",
		"query_len", len(text),
		"results", view.Len(),
		"records", c.store.Len(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.state = StateTerminated
	return nil
}

// Activate opens the result with the given id in the most recent view. An id
// that does not resolve is logged and emits nothing. On success the launcher
// is told to close before the opener runs, and the controller returns to
// idle. The returned error is always a transport failure.
func (c *Controller) Activate(ctx context.Context, id uint32) (Outcome, error) {
	logger := c.logger.With("session_id", c.sessionID)

	hit, ok := c.view.Hit(id)
	if !ok {
		logger.Error("result not found", "id", id, "results", c.view.Len())
		return OutcomeNotFound, nil
	}

	if err := c.emitter.Emit(ctx, launcher.Close()); err != nil {
		return OutcomeNone, fmt.Errorf("emit close: %w", err)
	}

	if err := c.opener.Open(hit.Record.Target); err != nil {
		logger.Error("open target failed", "id", id, "target", sanitize.URL(hit.Record.Target), "error", err)
	} else {
		logger.Info("target opened", "id", id, "record", hit.Record.ID, "target", sanitize.URL(hit.Record.Target))
	}

	c.view = nil
	c.state = StateIdle
	c.sessionID = ""
	return OutcomeOpened, nil
}

// Complete fills the launcher input with the trigger and the title of the
// result with the given id.
func (c *Controller) Complete(ctx context.Context, id uint32) error {
	hit, ok := c.view.Hit(id)
	if !ok {
		c.logger.Error("result not found", "session_id", c.sessionID, "id", id, "results", c.view.Len())
		return nil
	}
	return c.emitter.Emit(ctx, launcher.Fill(c.trigger+" "+hit.Record.Title))
}
