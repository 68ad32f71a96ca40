package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"clanwake/internal/models"
	"clanwake/internal/wakeup"
)

// MinInterval is the shortest keep-warm period accepted by New.
const MinInterval = 30 * time.Second

// Prober wakes a single endpoint.
type Prober interface {
	Probe(ctx context.Context, url string, opts wakeup.Options) (wakeup.Result, error)
}

// Store persists keep-warm rounds.
type Store interface {
	Append(models.WakeEntry) error
}

// Monitor periodically wakes targets so they never fall asleep, and records
// every round.
type Monitor struct {
	interval time.Duration
	targets  []models.Target
	defaults wakeup.Options
	prober   Prober
	storage  Store
	log      *zap.Logger

	ready <-chan struct{}

	subMu sync.RWMutex
	subs  map[chan models.WakeEntry]struct{}

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a monitor for the given targets and interval. defaults supplies
// the attempt budget for targets that do not set their own.
func New(interval time.Duration, targets []models.Target, defaults wakeup.Options, prober Prober, storage Store, log *zap.Logger) *Monitor {
	if interval < MinInterval {
		interval = MinInterval
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Monitor{
		interval: interval,
		targets:  targets,
		defaults: defaults,
		prober:   prober,
		storage:  storage,
		log:      log,
		subs:     make(map[chan models.WakeEntry]struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the keep-warm loop in a goroutine.
func (m *Monitor) Start() {
	go m.run()
}

// StartAfter launches the keep-warm loop but holds the first round until
// ready is closed, so it does not race a startup wake of the same backend.
func (m *Monitor) StartAfter(ready <-chan struct{}) {
	m.ready = ready
	go m.run()
}

// Stop requests graceful loop termination and waits until it is done.
func (m *Monitor) Stop() {
	select {
	case <-m.doneCh:
		return
	default:
	}
	close(m.stopCh)
	<-m.doneCh
}

// Subscribe returns a channel receiving every recorded round and a function
// that cancels the subscription. Slow subscribers miss rounds.
func (m *Monitor) Subscribe() (<-chan models.WakeEntry, func()) {
	ch := make(chan models.WakeEntry, 4)
	m.subMu.Lock()
	m.subs[ch] = struct{}{}
	m.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subs, ch)
			m.subMu.Unlock()
			close(ch)
		})
	}
}

// RunOnce wakes every target in order, persists the round and publishes it.
// A round interrupted by ctx is neither persisted nor published.
func (m *Monitor) RunOnce(ctx context.Context) (models.WakeEntry, error) {
	entry := models.WakeEntry{
		Timestamp: time.Now().UTC(),
		Checks:    make([]models.WakeCheck, 0, len(m.targets)),
	}

	for _, t := range m.targets {
		check := m.wakeTarget(ctx, t)
		if err := ctx.Err(); err != nil {
			return entry, fmt.Errorf("keep-warm round interrupted: %w", err)
		}
		entry.Checks = append(entry.Checks, check)
	}

	if err := m.storage.Append(entry); err != nil {
		return entry, err
	}
	m.publish(entry)
	return entry, nil
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-m.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if m.ready != nil {
		select {
		case <-m.ready:
		case <-m.stopCh:
			return
		}
	}

	if _, err := m.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
		m.log.Error("initial keep-warm round failed", zap.Error(err))
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := m.RunOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				m.log.Error("keep-warm round failed", zap.Error(err))
			}
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) wakeTarget(ctx context.Context, target models.Target) models.WakeCheck {
	opts := m.defaults
	if target.MaxAttempts > 0 {
		opts.MaxAttempts = target.MaxAttempts
	}
	if target.DelayMS > 0 {
		opts.Delay = time.Duration(target.DelayMS) * time.Millisecond
	}

	res := models.WakeCheck{
		ID:   target.ID,
		Name: target.Name,
		URL:  target.URL,
	}
	opts.OnAttempt = func(attempt int, _ error) {
		res.Attempts = attempt + 1
	}

	start := time.Now()
	result, err := m.prober.Probe(ctx, target.URL, opts)
	res.LatencyMS = float64(time.Since(start).Milliseconds())
	if err != nil {
		msg := err.Error()
		res.Error = &msg
		if ctx.Err() != nil {
			return res
		}
		m.log.Warn("target did not wake up",
			zap.String("target", target.ID),
			zap.Int("attempts", res.Attempts),
			zap.Error(err))
		return res
	}

	res.OK = true
	res.Kind = string(result.Kind)
	m.log.Debug("target awake",
		zap.String("target", target.ID),
		zap.Int("attempts", res.Attempts),
		zap.Float64("latency_ms", res.LatencyMS))
	return res
}

func (m *Monitor) publish(entry models.WakeEntry) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subs {
		select {
		case ch <- entry:
		default:
		}
	}
}
