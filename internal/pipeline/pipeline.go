// Package pipeline turns a free-text disaster idea into geocoded news
// commentary: discovery, then geocoding, then one agent run per location.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mr1hm/disaster-scout/internal/geocode"
	"github.com/mr1hm/disaster-scout/internal/metrics"
	"github.com/mr1hm/disaster-scout/internal/models"
	"github.com/mr1hm/disaster-scout/internal/repository"
)

// Runner is the reasoning agent as seen by the stages.
type Runner interface {
	Run(ctx context.Context, instruction string) (string, error)
}

type Options struct {
	// Workers bounds per-location parallelism. 1 runs locations in order.
	Workers int
	// RequestTimeout caps a whole Run. Zero means no deadline.
	RequestTimeout time.Duration
	Logger         *slog.Logger
}

// Pipeline is built once at startup and shared read-only across requests.
type Pipeline struct {
	agent     Runner
	geocoder  geocode.Geocoder
	snapshots repository.SnapshotStore
	workers   int
	timeout   time.Duration
	logger    *slog.Logger
}

// New wires the stages together. snapshots may be nil.
func New(agent Runner, geocoder geocode.Geocoder, snapshots repository.SnapshotStore, opts Options) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pipeline{
		agent:     agent,
		geocoder:  geocoder,
		snapshots: snapshots,
		workers:   opts.Workers,
		timeout:   opts.RequestTimeout,
		logger:    opts.Logger,
	}
}

// Run executes all stages for idea. Only a discovery failure is returned as
// an error; per-location failures just shorten the result.
func (p *Pipeline) Run(ctx context.Context, idea string) ([]models.CommentaryRecord, error) {
	start := time.Now()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("pipeline started", "idea", idea)

	names, err := p.discover(ctx, logger, idea)
	if err != nil {
		metrics.PipelineDuration.WithLabelValues("failed").Observe(time.Since(start).Seconds())
		logger.Error("pipeline failed", "error", err)
		return nil, err
	}
	p.snapshot(ctx, logger, func(ctx context.Context, s repository.SnapshotStore) error {
		return s.SaveLocations(ctx, runID, idea, names)
	})

	located := p.geocode(ctx, logger, names)
	records := p.enrich(ctx, logger, located)

	p.snapshot(ctx, logger, func(ctx context.Context, s repository.SnapshotStore) error {
		return s.SaveRecords(ctx, runID, records)
	})

	metrics.PipelineDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	logger.Info("pipeline finished",
		"discovered", len(names),
		"geocoded", len(located),
		"records", len(records),
		"duration", time.Since(start))
	return records, nil
}

// snapshot writes even after the request deadline so failed runs can still
// be inspected.
func (p *Pipeline) snapshot(ctx context.Context, logger *slog.Logger, save func(context.Context, repository.SnapshotStore) error) {
	if p.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := save(ctx, p.snapshots); err != nil {
		logger.Warn("snapshot failed", "error", err)
	}
}
