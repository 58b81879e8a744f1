package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"radio-nowplaying/scraper"
	"radio-nowplaying/storage"
)

const (
	DefaultInterval     = 30 * time.Second
	DefaultBackoff      = 60 * time.Second
	DefaultStoreTimeout = 15 * time.Second

	maxLogMessage = 300
)

type Stage string

const (
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
	StagePersist Stage = "persist"
)

// Persist outcomes reported in Result.
const (
	PersistNone    = "none"
	PersistWritten = "written"
	PersistSkipped = "skipped"
	PersistFailed  = "failed"
)

// CycleError is any failure that escaped a cycle. It sends the loop into backoff.
type CycleError struct {
	Stage Stage
	Err   error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }

// Result describes one completed cycle.
type Result struct {
	Candidate scraper.Candidate
	Changed   bool
	Persist   string
	At        time.Time
}

// Recorder observes the loop. utils.Metrics implements it.
type Recorder interface {
	RecordCycle(Result)
	RecordFailure(stage Stage)
}

type Options struct {
	Interval time.Duration
	Backoff  time.Duration
	// StoreTimeout bounds every Write and Load on the storage.
	StoreTimeout time.Duration
	SeedState    bool
	Recorder     Recorder
}

// Monitor polls a scraper and persists every distinct track it sees.
// A nil storage runs the loop in monitor-only mode.
type Monitor struct {
	interval     time.Duration
	backoff      time.Duration
	storeTimeout time.Duration
	seedState    bool

	source   scraper.Scraper
	store    storage.Storage
	logger   *logrus.Logger
	recorder Recorder

	last  *storage.TrackState
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

func New(logger *logrus.Logger, source scraper.Scraper, store storage.Storage, opts Options) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	return &Monitor{
		interval:     opts.Interval,
		backoff:      opts.Backoff,
		storeTimeout: opts.StoreTimeout,
		seedState:    opts.SeedState,
		source:       source,
		store:        store,
		logger:       logger,
		recorder:     opts.Recorder,
		now:          time.Now,
		after:        time.After,
	}
}

// Last returns a copy of the last known state, or nil.
func (m *Monitor) Last() *storage.TrackState {
	if m.last == nil {
		return nil
	}
	state := *m.last
	return &state
}

// Run polls until ctx is cancelled. It returns nil on cancellation; cycle failures are
// logged and followed by the backoff sleep, never returned.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Infof("Starting monitor with interval %v, backoff %v", m.interval, m.backoff)
	if m.seedState {
		m.seed(ctx)
	}

	for {
		wait := m.interval
		if _, err := m.Cycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			m.logger.Errorf("Cycle failed, backing off for %v: %s", m.backoff, bounded(err.Error()))
			wait = m.backoff
		}

		select {
		case <-ctx.Done():
			m.logger.Info("Stopping monitor")
			return nil
		case <-m.after(wait):
		}
	}

	m.logger.Info("Stopping monitor")
	return nil
}

// Cycle runs fetch, extract, compare and persist once.
func (m *Monitor) Cycle(ctx context.Context) (res Result, err error) {
	stage := StageFetch
	defer func() {
		if r := recover(); r != nil {
			err = &CycleError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil && m.recorder != nil && ctx.Err() == nil {
			var cycleErr *CycleError
			if errors.As(err, &cycleErr) {
				m.recorder.RecordFailure(cycleErr.Stage)
			}
		}
	}()

	candidate, err := m.source.GetNowPlaying(ctx)
	if err != nil {
		return res, &CycleError{Stage: StageFetch, Err: err}
	}
	stage = StageExtract

	res = Result{
		Candidate: candidate,
		Changed:   HasChanged(m.last, candidate),
		Persist:   PersistNone,
		At:        m.now(),
	}

	fields := logrus.Fields{"track": candidate.Text, "rule": candidate.Rule}
	if !res.Changed {
		m.logger.WithFields(fields).Info("Track unchanged")
		m.record(res)
		return res, nil
	}

	state := storage.NewTrackState(candidate.Text, string(candidate.Rule), res.At)
	if m.store == nil {
		m.last = &state
		m.logger.WithFields(fields).Info("Track changed")
		m.record(res)
		return res, nil
	}

	stage = StagePersist
	writeCtx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	err = m.store.Write(writeCtx, state)
	cancel()
	switch {
	case err == nil:
		m.last = &state
		res.Persist = PersistWritten
		m.logger.WithFields(fields).Infof("Track changed, stored via %s", m.store.Name())
	case errors.Is(err, storage.ErrSkipped):
		m.last = &state
		res.Persist = PersistSkipped
		m.logger.WithFields(fields).Info("Track changed, store skipped")
	default:
		res.Persist = PersistFailed
		return res, &CycleError{Stage: StagePersist, Err: err}
	}

	m.record(res)
	return res, nil
}

func (m *Monitor) seed(ctx context.Context) {
	if m.store == nil {
		return
	}
	loadCtx, cancel := context.WithTimeout(ctx, m.storeTimeout)
	defer cancel()
	state, err := m.store.Load(loadCtx)
	if err != nil {
		m.logger.Warnf("Could not load stored state from %s: %s", m.store.Name(), bounded(err.Error()))
		return
	}
	if state != nil {
		m.last = state
		m.logger.Infof("Seeded last known track from %s: %s", m.store.Name(), state.Track)
	}
}

func (m *Monitor) record(res Result) {
	if m.recorder != nil {
		m.recorder.RecordCycle(res)
	}
}

func bounded(msg string) string {
	r := []rune(msg)
	if len(r) <= maxLogMessage {
		return msg
	}
	return string(r[:maxLogMessage]) + "..."
}
