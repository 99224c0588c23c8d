package store

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	rcron "github.com/robfig/cron/v3"

	"github.com/goliatone/go-formflow/internal/logging"
)

// Sweeper purges stale records on a cron schedule.
type Sweeper struct {
	purger    Purger
	retention time.Duration
	cron      *rcron.Cron
	now       func() time.Time
	logger    logging.Logger
	timeout   time.Duration
}

// SweeperOption customises a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperLogger sets the sweeper logger.
func WithSweeperLogger(logger logging.Logger) SweeperOption {
	return func(s *Sweeper) { s.logger = logging.Normalize(logger) }
}

// WithSweeperClock sets the clock used to compute the retention cutoff.
func WithSweeperClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSweeperLocation evaluates the schedule in loc.
func WithSweeperLocation(loc *time.Location) SweeperOption {
	return func(s *Sweeper) {
		if loc != nil {
			s.cron = rcron.New(rcron.WithLocation(loc))
		}
	}
}

// NewSweeper schedules purges of records older than retention. expression
// uses the standard five field cron syntax or descriptors such as @hourly.
func NewSweeper(purger Purger, expression string, retention time.Duration, opts ...SweeperOption) (*Sweeper, error) {
	if purger == nil {
		return nil, errors.New("store: sweeper needs a purger", errors.CategoryBadInput)
	}
	if retention <= 0 {
		return nil, errors.New("store: sweeper retention must be positive", errors.CategoryBadInput)
	}
	s := &Sweeper{
		purger:    purger,
		retention: retention,
		cron:      rcron.New(),
		now:       time.Now,
		logger:    logging.Nop(),
		timeout:   time.Minute,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if _, err := s.cron.AddFunc(expression, func() { _, _ = s.Sweep(context.Background()) }); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "store: invalid sweep schedule").
			WithMetadata(map[string]any{"expression": expression})
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running sweep.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep purges once immediately.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	n, err := s.purger.Purge(ctx, cutoff)
	if err != nil {
		s.logger.Error("store: sweep failed: %v", err)
		return n, err
	}
	if n > 0 {
		s.logger.Info("store: swept %d records older than %s", n, cutoff.Format(time.RFC3339))
	}
	return n, nil
}
