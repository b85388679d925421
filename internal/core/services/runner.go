package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure Runner implements the interface.
var _ driving.IngestionRunner = (*Runner)(nil)

// TickFunc observes each tick. Returning an error stops the run.
type TickFunc = driving.TickFunc

// Runner drives an ingestion state machine from outside: one tick per
// interval, reconciling the queue with the live upload set before each.
type Runner struct {
	interval time.Duration
}

// NewRunner creates a runner ticking at the given interval.
func NewRunner(interval time.Duration) *Runner {
	if interval <= 0 {
		interval = domain.DefaultTickInterval
	}
	return &Runner{interval: interval}
}

// Run ticks until the run finishes or ctx is cancelled, and returns the
// final state.
func (r *Runner) Run(
	ctx context.Context,
	ingestion driving.IngestionService,
	source driven.UploadSource,
	onTick driving.TickFunc,
) (domain.ProcessingState, error) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		live, err := source.Uploads(ctx)
		if err != nil {
			return domain.ProcessingState{}, fmt.Errorf("list uploads: %w", err)
		}

		removed, err := ingestion.UpdateFiles(ctx, live)
		if err != nil {
			return domain.ProcessingState{}, err
		}
		if len(removed) > 0 {
			logger.Debug("Uploads removed during run: %v", removed)
		}

		res, err := ingestion.ProcessNext(ctx, live)
		if err != nil {
			return res.State, err
		}
		if onTick != nil {
			if err := onTick(res); err != nil {
				return res.State, err
			}
		}
		if res.Done() || res.State.Status == domain.StatusCancelled {
			return res.State, nil
		}

		select {
		case <-ctx.Done():
			return res.State, ctx.Err()
		case <-ticker.C:
		}
	}
}
