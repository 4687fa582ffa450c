// Package pipeline runs one reconcile batch: load tables, resolve every
// impact record, then hand the results to the configured sinks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-impact-etl/internal/domain"
	"github.com/couchcryptid/storm-impact-etl/internal/observability"
	"github.com/google/uuid"
)

// TableSource loads the input tables of a run.
type TableSource interface {
	Tracks(ctx context.Context) ([]domain.StormTrack, error)
	Triggers(ctx context.Context) ([]domain.TriggerFact, error)
	Impacts(ctx context.Context) ([]domain.ImpactRecord, error)
}

// BatchLoader writes resolved impacts to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, batch []domain.ResolvedImpact) error
}

// Committer is implemented by loaders that publish their output only once
// every batch has been written.
type Committer interface {
	Commit(ctx context.Context) error
}

// Sink is a named destination. Name labels metrics and logs.
type Sink struct {
	Name   string
	Loader BatchLoader
}

// Options tune a run.
type Options struct {
	// Threshold selects the trigger pair. Nil picks the lenient pair of the
	// trigger table.
	Threshold        *domain.Threshold
	PatternCacheSize int
	BatchSize        int
	// SinkAttempts bounds retries of a failing batch write.
	SinkAttempts int
}

// Summary describes a completed run.
type Summary struct {
	RunID    string
	Records  int
	Outcomes map[domain.Outcome]int
	Duration time.Duration
}

// Phase is the stage a run is in.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseLoading     Phase = "loading"
	PhaseReconciling Phase = "reconciling"
	PhaseWriting     Phase = "writing"
	PhaseDone        Phase = "done"
	PhaseFailed      Phase = "failed"
)

// Progress is a point-in-time view of the current run.
type Progress struct {
	RunID    string `json:"run_id,omitempty"`
	Phase    Phase  `json:"phase"`
	Records  int    `json:"records"`
	Resolved int    `json:"resolved"`
	Error    string `json:"error,omitempty"`
}

// Pipeline orchestrates the load-reconcile-write run.
type Pipeline struct {
	source    TableSource
	overrides *domain.Overrides
	sinks     []Sink
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool

	mu       sync.Mutex
	progress Progress
}

const (
	initialBackoff      = 200 * time.Millisecond
	maxBackoff          = 5 * time.Second
	defaultSinkAttempts = 5
)

// New creates a Pipeline. A nil overrides is treated as empty.
func New(source TableSource, overrides *domain.Overrides, sinks []Sink, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 1
	}
	if opts.SinkAttempts <= 0 {
		opts.SinkAttempts = defaultSinkAttempts
	}
	return &Pipeline{
		source:    source,
		overrides: overrides,
		sinks:     sinks,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
		progress:  Progress{Phase: PhaseIdle},
	}
}

// Progress reports the state of the current or last run.
func (p *Pipeline) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.progress
}

func (p *Pipeline) update(fn func(*Progress)) {
	p.mu.Lock()
	fn(&p.progress)
	p.mu.Unlock()
}

func (p *Pipeline) setPhase(phase Phase) {
	p.update(func(pr *Progress) { pr.Phase = phase })
}

// CheckReadiness returns nil once the input tables are loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("input tables are not loaded yet")
	}
	return nil
}

// Run executes one batch. Any unresolvable record aborts the run before a
// single row is written.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	p.metrics.RunActive.Set(1)
	defer p.metrics.RunActive.Set(0)
	p.update(func(pr *Progress) { *pr = Progress{RunID: runID, Phase: PhaseLoading} })

	summary, err := p.run(ctx, logger, runID, start)
	if err != nil {
		p.update(func(pr *Progress) {
			pr.Phase = PhaseFailed
			pr.Error = err.Error()
		})
		return nil, err
	}
	p.setPhase(PhaseDone)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, runID string, start time.Time) (*Summary, error) {
	reconciler, impacts, err := p.load(ctx, logger)
	if err != nil {
		return nil, err
	}
	p.ready.Store(true)
	p.update(func(pr *Progress) {
		pr.Phase = PhaseReconciling
		pr.Records = len(impacts)
	})

	resolved, err := p.reconcile(ctx, logger, reconciler, impacts, runID)
	if err != nil {
		return nil, err
	}

	p.setPhase(PhaseWriting)
	if err := p.write(ctx, logger, resolved); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:    runID,
		Records:  len(resolved),
		Outcomes: make(map[domain.Outcome]int),
		Duration: time.Since(start),
	}
	for _, ri := range resolved {
		summary.Outcomes[ri.Outcome]++
	}
	p.metrics.RunDuration.Observe(summary.Duration.Seconds())
	logger.Info("run complete", "records", summary.Records, "duration", summary.Duration)
	return summary, nil
}

func (p *Pipeline) load(ctx context.Context, logger *slog.Logger) (*domain.Reconciler, []domain.ImpactRecord, error) {
	tracks, err := p.source.Tracks(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load tracks: %w", err)
	}
	triggers, err := p.source.Triggers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load triggers: %w", err)
	}
	impacts, err := p.source.Impacts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load impacts: %w", err)
	}
	p.metrics.RecordsRead.Add(float64(len(impacts)))

	th, ok := p.threshold(triggers)
	if !ok {
		logger.Warn("trigger table is empty, candidates can only pass the soft threshold fallback")
	}
	filtered := domain.FilterTriggers(triggers, th)

	r := domain.NewReconciler(tracks, filtered, p.overrides, p.opts.PatternCacheSize)
	logger.Info("tables loaded",
		"tracks", len(tracks),
		"latest_track_year", r.LatestYear(),
		"triggers", len(filtered),
		"d_thresh", th.DistanceKm,
		"s_thresh", th.WindSpeed,
		"impacts", len(impacts),
	)
	return r, impacts, nil
}

func (p *Pipeline) threshold(triggers []domain.TriggerFact) (domain.Threshold, bool) {
	if p.opts.Threshold != nil {
		return *p.opts.Threshold, true
	}
	return domain.LenientThreshold(triggers)
}

func (p *Pipeline) reconcile(ctx context.Context, logger *slog.Logger, r *domain.Reconciler, impacts []domain.ImpactRecord, runID string) ([]domain.ResolvedImpact, error) {
	out := make([]domain.ResolvedImpact, 0, len(impacts))
	for i, rec := range impacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := r.Resolve(rec)
		if err != nil {
			p.metrics.ReconcileFailures.WithLabelValues(failureKind(err)).Inc()
			logger.Error("reconcile failed",
				"error", err,
				"row", i,
				"event_name", rec.EventName,
				"start_year", rec.StartYear,
				"asap0_id", rec.Asap0ID,
			)
			return nil, fmt.Errorf("reconcile row %d: %w", i, err)
		}

		p.metrics.RecordsResolved.WithLabelValues(string(res.Outcome)).Inc()
		if res.Outcome == domain.OutcomeFutureYear {
			logger.Info("event is newer than the track data",
				"event_name", rec.EventName,
				"start_year", rec.StartYear,
				"asap0_id", rec.Asap0ID,
				"latest_track_year", r.LatestYear(),
			)
		} else {
			logger.Debug("record resolved",
				"event_name", rec.EventName,
				"start_year", rec.StartYear,
				"asap0_id", rec.Asap0ID,
				"sid", res.SID,
				"outcome", res.Outcome,
			)
		}
		out = append(out, domain.NewResolvedImpact(rec, res, runID))
		p.update(func(pr *Progress) { pr.Resolved++ })
	}
	return out, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoMatch):
		return "no_match"
	case errors.Is(err, domain.ErrAmbiguous):
		return "ambiguous"
	default:
		return "other"
	}
}

func (p *Pipeline) write(ctx context.Context, logger *slog.Logger, resolved []domain.ResolvedImpact) error {
	for _, s := range p.sinks {
		for start := 0; start < len(resolved); start += p.opts.BatchSize {
			end := min(start+p.opts.BatchSize, len(resolved))
			if err := p.loadWithRetry(ctx, logger, s, resolved[start:end]); err != nil {
				return err
			}
		}
		if c, ok := s.Loader.(Committer); ok {
			if err := c.Commit(ctx); err != nil {
				p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
				return fmt.Errorf("commit %s sink: %w", s.Name, err)
			}
		}
		logger.Info("sink written", "sink", s.Name, "records", len(resolved))
	}
	return nil
}

// loadWithRetry writes one batch, backing off exponentially between failed
// attempts (200ms doubling, capped at 5s).
func (p *Pipeline) loadWithRetry(ctx context.Context, logger *slog.Logger, s Sink, batch []domain.ResolvedImpact) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= p.opts.SinkAttempts; attempt++ {
		if err = s.Loader.LoadBatch(ctx, batch); err == nil {
			p.metrics.SinkWrites.WithLabelValues(s.Name).Add(float64(len(batch)))
			return nil
		}
		p.metrics.SinkErrors.WithLabelValues(s.Name).Inc()
		logger.Error("load batch failed", "sink", s.Name, "error", err, "batch_size", len(batch), "attempt", attempt)

		if attempt == p.opts.SinkAttempts {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("load %s sink after %d attempts: %w", s.Name, p.opts.SinkAttempts, err)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
