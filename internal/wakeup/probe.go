// Package wakeup pings a health endpoint of a backend that may be asleep
// (serverless cold start) until it answers or the attempt budget runs out.
package wakeup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultMaxAttempts is the attempt budget used by DefaultOptions.
	DefaultMaxAttempts = 5
	// DefaultDelay is the fixed pause between a failed attempt and the next one.
	DefaultDelay = time.Second
	// DefaultAttemptTimeout bounds every single attempt independently.
	DefaultAttemptTimeout = 5 * time.Second
	// MaxBodyBytes caps how much of a response body is kept.
	MaxBodyBytes = 1 << 20
)

// Options control a single Probe call.
type Options struct {
	// MaxAttempts is the retry budget. Values below 1 make Probe fail with
	// ErrExhausted without touching the network.
	MaxAttempts int
	// Delay is inserted between attempts, never after the last one.
	Delay time.Duration
	// AttemptTimeout overrides DefaultAttemptTimeout when positive.
	AttemptTimeout time.Duration
	// OnAttempt, if set, is called after every attempt with its 0-based index
	// and its failure (nil on success).
	OnAttempt func(attempt int, err error)
}

// DefaultOptions returns five attempts one second apart.
func DefaultOptions() Options {
	return Options{
		MaxAttempts:    DefaultMaxAttempts,
		Delay:          DefaultDelay,
		AttemptTimeout: DefaultAttemptTimeout,
	}
}

// Prober issues wake-up pings.
type Prober struct {
	client *http.Client
}

// NewProber wraps the given client. A nil client gets a dedicated transport;
// timeouts are always applied per attempt through the request context.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		transport := &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DefaultAttemptTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   DefaultAttemptTimeout,
			ExpectContinueTimeout: time.Second,
		}
		client = &http.Client{Transport: transport}
	}
	return &Prober{client: client}
}

// Probe pings rawURL until it answers with a 2xx status. Attempts are strictly
// sequential. When all of them fail the error matches ErrExhausted. Cancelling
// ctx aborts the in-flight attempt or the pause and returns ctx.Err() wrapped.
func (p *Prober) Probe(ctx context.Context, rawURL string, opts Options) (Result, error) {
	if err := validateURL(rawURL); err != nil {
		probesTotal.WithLabelValues("invalid").Inc()
		return Result{}, err
	}

	timeout := opts.AttemptTimeout
	if timeout <= 0 {
		timeout = DefaultAttemptTimeout
	}

	started := time.Now()
	defer func() { probeDuration.Observe(time.Since(started).Seconds()) }()

	var lastErr error
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				probesTotal.WithLabelValues("cancelled").Inc()
				return Result{}, fmt.Errorf("wake %s: %w", rawURL, err)
			}
		}

		res, err := p.attempt(ctx, rawURL, attempt, timeout)
		attemptsTotal.WithLabelValues(attemptOutcome(err)).Inc()
		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt, err)
		}
		if err == nil {
			probesTotal.WithLabelValues("ready").Inc()
			return res, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			probesTotal.WithLabelValues("cancelled").Inc()
			return Result{}, fmt.Errorf("wake %s: %w", rawURL, ctxErr)
		}
		lastErr = err
	}

	probesTotal.WithLabelValues("exhausted").Inc()
	attempts := opts.MaxAttempts
	if attempts < 0 {
		attempts = 0
	}
	return Result{}, &ExhaustedError{Attempts: attempts, Last: lastErr}
}

func (p *Prober) attempt(ctx context.Context, rawURL string, attempt int, timeout time.Duration) (Result, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, &AttemptError{Attempt: attempt, Cause: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Result{}, &AttemptError{Attempt: attempt, Cause: classify(ctx, attemptCtx, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxBodyBytes))
		return Result{}, &AttemptError{
			Attempt:    attempt,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("unexpected status %q", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes+1))
	if err != nil {
		return Result{}, &AttemptError{Attempt: attempt, Cause: classify(ctx, attemptCtx, err)}
	}
	return decodeResult(body), nil
}

// classify tags errors caused by the attempt's own deadline, as opposed to
// the caller cancelling ctx.
func classify(parent, attemptCtx context.Context, err error) error {
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrAttemptTimeout, err)
	}
	return err
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidURL)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
