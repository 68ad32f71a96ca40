// Package gate holds a session's startup decision: wake the backend once,
// let callers wait for it, and never keep them waiting past the probe.
package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"clanwake/internal/wakeup"
)

// Prober is the subset of *wakeup.Prober the gate needs.
type Prober interface {
	Probe(ctx context.Context, url string, opts wakeup.Options) (wakeup.Result, error)
}

// Outcome is what the gate learned about the backend.
type Outcome struct {
	Ready     bool
	Abandoned bool
	Result    wakeup.Result
	Err       error
	Attempts  int
	Elapsed   time.Duration
}

// Gate runs the wake-up probe at most once.
type Gate struct {
	prober Prober
	url    string
	opts   wakeup.Options
	log    *zap.Logger

	start   sync.Once
	done    chan struct{}
	outcome Outcome
	ready   atomic.Bool
}

// New creates a gate for url. A nil logger discards output.
func New(prober Prober, url string, opts wakeup.Options, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		prober: prober,
		url:    url,
		opts:   opts,
		log:    log.With(zap.String("url", url)),
		done:   make(chan struct{}),
	}
}

// Start launches the probe in the background; later calls are no-ops.
// Cancelling ctx abandons the probe.
func (g *Gate) Start(ctx context.Context) {
	g.start.Do(func() {
		go g.run(ctx)
	})
}

// Wait starts the probe if needed and blocks until it resolves or ctx ends.
// When ctx ends first the returned outcome is marked Abandoned and the probe
// keeps running for other waiters.
func (g *Gate) Wait(ctx context.Context) Outcome {
	g.Start(context.WithoutCancel(ctx))

	select {
	case <-g.done:
		return g.outcome
	case <-ctx.Done():
		return Outcome{Abandoned: true, Err: ctx.Err()}
	}
}

// Done is closed once the probe resolved.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Ready reports whether the backend answered.
func (g *Gate) Ready() bool {
	return g.ready.Load()
}

// Outcome returns the resolved outcome, if any.
func (g *Gate) Outcome() (Outcome, bool) {
	select {
	case <-g.done:
		return g.outcome, true
	default:
		return Outcome{}, false
	}
}

func (g *Gate) run(ctx context.Context) {
	defer close(g.done)

	var attempts int
	opts := g.opts
	userHook := opts.OnAttempt
	opts.OnAttempt = func(attempt int, err error) {
		attempts = attempt + 1
		if err != nil {
			g.log.Debug("wake-up attempt failed", zap.Int("attempt", attempts), zap.Error(err))
		}
		if userHook != nil {
			userHook(attempt, err)
		}
	}

	started := time.Now()
	res, err := g.prober.Probe(ctx, g.url, opts)
	out := Outcome{
		Ready:    err == nil,
		Result:   res,
		Err:      err,
		Attempts: attempts,
		Elapsed:  time.Since(started),
	}

	switch {
	case err == nil:
		g.ready.Store(true)
		g.log.Info("backend is ready",
			zap.Int("attempts", out.Attempts),
			zap.Duration("elapsed", out.Elapsed),
			zap.String("kind", string(res.Kind)))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Abandoned = true
		g.log.Info("wake-up abandoned", zap.Duration("elapsed", out.Elapsed))
	case errors.Is(err, wakeup.ErrInvalidURL):
		g.log.Error("wake-up skipped, ping url is misconfigured", zap.Error(err))
	default:
		g.log.Warn("backend did not wake up, continuing in degraded mode",
			zap.Int("attempts", out.Attempts),
			zap.Duration("elapsed", out.Elapsed),
			zap.Error(err))
	}
	g.outcome = out
}
