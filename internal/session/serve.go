package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/runger/histlaunch/internal/launcher"
)

// ServeOptions configures Serve.
type ServeOptions struct {
	// ExitOnActivate stops the loop after an activation opens a target.
	ExitOnActivate bool
}

type decoded struct {
	req launcher.Request
	err error
}

// Serve reads launcher requests from in and dispatches them to c until the
// input ends, an Exit request arrives, or ctx is cancelled. It returns nil in
// those cases and the error of the first failed emit otherwise.
func Serve(ctx context.Context, c *Controller, in io.Reader, opts ServeOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The reader goroutine may stay blocked on in after Serve returns; the
	// process exits shortly after in every caller.
	reqs := make(chan decoded)
	go func() {
		defer close(reqs)
		dec := launcher.NewDecoder(in)
		for {
			req, err := dec.Next()
			select {
			case reqs <- decoded{req: req, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil && !errors.Is(err, launcher.ErrMalformed) {
				return
			}
		}
	}()

	c.logger.Info("serving launcher requests", "trigger", c.trigger, "records", c.store.Len())

	for {
		var next decoded
		var ok bool
		select {
		case <-ctx.Done():
			c.logger.Info("serve stopped", "reason", "context cancelled")
			return nil
		case next, ok = <-reqs:
		}
		if !ok {
			return nil
		}

		if next.err != nil {
			if errors.Is(next.err, io.EOF) {
				c.logger.Info("serve stopped", "reason", "input closed")
				return nil
			}
			if errors.Is(next.err, launcher.ErrMalformed) {
				c.logger.Warn("skipping request", "error", next.err)
				continue
			}
			return next.err
		}

		stop, err := dispatch(ctx, c, next.req, opts)
		if err != nil {
			return fmt.Errorf("%s request: %w", next.req.Kind, err)
		}
		if stop {
			return nil
		}
	}
}

// dispatch handles one request and reports whether the loop should stop.
func dispatch(ctx context.Context, c *Controller, req launcher.Request, opts ServeOptions) (bool, error) {
	switch req.Kind {
	case launcher.RequestSearch:
		return false, c.Search(ctx, req.Query)

	case launcher.RequestActivate:
		outcome, err := c.Activate(ctx, req.ID)
		if err != nil {
			return false, err
		}
		if outcome == OutcomeOpened && opts.ExitOnActivate {
			c.logger.Info("serve stopped", "reason", "activated")
			return true, nil
		}
		return false, nil

	case launcher.RequestComplete:
		return false, c.Complete(ctx, req.ID)

	case launcher.RequestExit:
		c.logger.Info("serve stopped", "reason", "exit requested")
		return true, nil

	default:
		// Context menus and interrupts have nothing to act on.
		c.logger.Debug("request ignored", "kind", string(req.Kind), "id", req.ID)
		return false, nil
	}
}
