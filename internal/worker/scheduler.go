package worker

import (
	"context"

	"go.uber.org/zap"
)

// Scheduler runs a slice of units in fixed-size batches. Units inside a batch
// run concurrently (each one acquires the shared Limiter before calling out);
// the next batch is not submitted until the whole previous batch returns.
type Scheduler struct {
	batchSize int
	log       *zap.Logger
}

// NewScheduler builds a scheduler. A non-positive batch size falls back to
// running everything as one batch.
func NewScheduler(batchSize int, log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{batchSize: batchSize, log: log}
}

// Run processes every unit, batch by batch. Unit failures are logged and
// collected, not fatal: one bad paper must not sink the run. The returned
// slice holds the errors of failed units, empty when all succeeded. Run stops
// early only when the context is cancelled.
func (s *Scheduler) Run(ctx context.Context, units []string, process func(ctx context.Context, unit string) error) []error {
	size := s.batchSize
	if size <= 0 {
		size = len(units)
	}

	var failures []error
	for start := 0; start < len(units); start += size {
		end := start + size
		if end > len(units) {
			end = len(units)
		}
		batch := units[start:end]

		s.log.Info("submitting batch",
			zap.Int("batch_start", start),
			zap.Int("batch_size", len(batch)),
			zap.Int("total", len(units)))

		results := make(chan error, len(batch))
		for _, unit := range batch {
			go func(unit string) {
				results <- process(ctx, unit)
			}(unit)
		}

		for range batch {
			if err := <-results; err != nil {
				failures = append(failures, err)
				s.log.Warn("unit failed", zap.Error(err))
			}
		}

		if ctx.Err() != nil {
			return append(failures, ctx.Err())
		}
	}
	return failures
}
