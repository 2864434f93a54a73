package testdb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phrazzld/pgfixture/internal/platform/logger"
	"github.com/phrazzld/pgfixture/internal/platform/postgres"
)

// step is one unit of a lifecycle phase. kind classifies its failures.
type step struct {
	name string
	kind error
	run  func(ctx context.Context) error
}

// lifecycle describes a phase run by runIsolated.
type lifecycle struct {
	phase    string
	database string
	timeout  time.Duration
	logger   *slog.Logger
	// finally runs on the worker after the steps, whether or not they succeeded.
	finally func(ctx context.Context)
}

// runIsolated runs steps strictly in order on a dedicated goroutine with its own
// context, which carries the phase logger, and blocks until it finishes. The
// first failing step stops the phase and is reported as an *Error; a panic in
// a step is reported the same way.
func runIsolated(lc lifecycle, steps ...step) error {
	log := lc.logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("phase", lc.phase)

	var g errgroup.Group
	g.Go(func() (err error) {
		ctx := logger.WithLogger(context.Background(), log)
		if lc.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, lc.timeout)
			defer cancel()
		}
		if lc.finally != nil {
			defer lc.finally(ctx)
		}

		var current step
		defer func() {
			if r := recover(); r != nil {
				err = lc.fail(current, fmt.Errorf("panic: %v", r))
			}
		}()

		for _, s := range steps {
			current = s
			start := time.Now()
			if stepErr := s.run(ctx); stepErr != nil {
				return lc.fail(s, stepErr)
			}
			log.Debug("lifecycle step complete",
				"step", s.name,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		}
		return nil
	})
	return g.Wait()
}

// fail builds the *Error for a failed step. While constructing, failures to
// reach the server are connectivity errors whatever the step.
func (lc lifecycle) fail(s step, err error) *Error {
	kind := s.kind
	if lc.phase == PhaseConstruct {
		kind = classify(err, s.kind)
	}
	return &Error{
		Phase:    lc.phase,
		Step:     s.name,
		Database: lc.database,
		Kind:     kind,
		Err:      err,
	}
}

// classify returns ErrConnectivity for failures to reach the server and
// fallback for everything the server itself rejected.
func classify(err, fallback error) error {
	if postgres.IsConnectionError(err) {
		return ErrConnectivity
	}
	return fallback
}
