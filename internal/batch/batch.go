package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qmarchand/rs-mpn-lookup/internal/models"
	"github.com/qmarchand/rs-mpn-lookup/internal/queue"
	"github.com/qmarchand/rs-mpn-lookup/internal/ratelimit"
	"github.com/qmarchand/rs-mpn-lookup/internal/report"
	"github.com/qmarchand/rs-mpn-lookup/internal/resume"
)

// Looker resolves a single part number.
type Looker interface {
	Lookup(ctx context.Context, rsPN string) *models.LookupResult
}

// RecordFunc mirrors a finished row into a secondary sink. Nil disables it.
type RecordFunc func(ctx context.Context, res *models.LookupResult) error

type Stats struct {
	Processed     int
	Skipped       int
	WithoutFields int
}

// Runner drives the sequential batch loop: parts already in the seen set are
// skipped, every processed part gets exactly one output row, and a part only
// enters the seen set after its row was written. Rerunning over the same
// input and output therefore never duplicates rows.
type Runner struct {
	looker  Looker
	writer  *report.Writer
	seen    resume.Set
	limiter ratelimit.RateLimiter
	record  RecordFunc
	logger  *slog.Logger
}

func New(looker Looker, writer *report.Writer, seen resume.Set, limiter ratelimit.RateLimiter, record RecordFunc, logger *slog.Logger) *Runner {
	return &Runner{
		looker:  looker,
		writer:  writer,
		seen:    seen,
		limiter: limiter,
		record:  record,
		logger:  logger.With("component", "batch"),
	}
}

// Run processes parts in input order. Blank part numbers are dropped. Row
// failures never abort the batch; only context cancellation stops it early.
func (r *Runner) Run(ctx context.Context, parts []string) Stats {
	tasks := queue.NewInMemoryQueue()
	total := 0
	for i, pn := range parts {
		if pn == "" {
			continue
		}
		total++
		if err := tasks.Push(&queue.Task{
			ID:         fmt.Sprintf("task-%d", i),
			PartNumber: pn,
			Position:   total,
			CreatedAt:  time.Now(),
		}); err != nil {
			r.logger.Warn("failed to enqueue part", "rs_pn", pn, "error", err)
		}
	}
	tasks.Close()

	var stats Stats
	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("batch interrupted", "error", err)
			break
		}

		task, err := tasks.Pop(ctx)
		if err != nil {
			if !errors.Is(err, queue.ErrQueueClosed) && !errors.Is(err, queue.ErrQueueEmpty) {
				r.logger.Info("batch interrupted", "error", err)
			}
			break
		}

		pn := task.PartNumber
		progress := fmt.Sprintf("%d/%d", task.Position, total)

		alreadyDone, err := r.seen.Contains(ctx, pn)
		if err != nil {
			r.logger.Warn("resume check failed, processing anyway", "rs_pn", pn, "error", err)
		}
		if alreadyDone {
			stats.Skipped++
			r.logger.Info("skipping, already done", "progress", progress, "rs_pn", pn)
			continue
		}

		r.logger.Info("looking up", "progress", progress, "rs_pn", pn)

		res := r.safeLookup(ctx, pn)
		r.logger.Info("lookup finished",
			"progress", progress,
			"rs_pn", pn,
			"status", res.Status,
			"mpn", orNA(res.ManufacturerPN),
			"brand", orNA(res.Brand),
		)

		if err := r.writer.Append(res); err != nil {
			r.logger.Error("failed to write output row", "rs_pn", pn, "error", err)
		} else if err := r.seen.Add(ctx, pn); err != nil {
			r.logger.Warn("failed to record in resume set", "rs_pn", pn, "error", err)
		}

		if r.record != nil {
			if err := r.record(ctx, res); err != nil {
				r.logger.Error("failed to record lookup row", "rs_pn", pn, "error", err)
			}
		}

		stats.Processed++
		if !res.Found() {
			stats.WithoutFields++
		}

		if err := r.limiter.Wait(ctx); err != nil {
			r.logger.Info("batch interrupted", "error", err)
			break
		}
	}

	return stats
}

// safeLookup converts any panic from a single lookup into a row status so one
// bad identifier can never halt the batch.
func (r *Runner) safeLookup(ctx context.Context, pn string) (res *models.LookupResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = models.NewLookupResult(pn)
			res.Status = models.StatusException(fmt.Errorf("%v", rec))
		}
	}()
	return r.looker.Lookup(ctx, pn)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
