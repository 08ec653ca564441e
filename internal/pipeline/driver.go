// Package pipeline implements the checkpointed fetch-and-persist loop that
// drives a scrape run end to end.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bhargavak04/Book-My-Player-Scrape/internal/scrape"
)

// Config controls Driver behavior.
type Config struct {
	InputFile        string
	URLColumn        string
	AutoSaveInterval int
	StartFrom        int
}

// Exporter writes a convenience rendering of the outcomes on each flush.
// Export failures are logged, never fatal: the checkpoint files are the
// durable record.
type Exporter interface {
	Export(outcomes []scrape.Outcome) error
}

// rowCounter is implemented by stores that remember the input row count, so
// a resumed run can detect that the input file changed underneath it.
type rowCounter interface {
	TotalRows() int
	SetTotalRows(n int)
}

// Driver pulls rows from the loader starting at the resume offset, gates
// each fetch through the rate limiter, records outcomes in the store, and
// flushes on the auto-save cadence. Per-row failures become data; only
// loader- or store-level faults end the run.
type Driver struct {
	loader    scrape.Loader
	store     scrape.Store
	limiter   scrape.Limiter
	fetcher   scrape.Fetcher
	extractor scrape.Extractor
	exporter  Exporter
	clock     scrape.Clock
	logger    *zap.Logger
	cfg       Config
}

// New constructs a Driver. The exporter may be nil.
func New(
	loader scrape.Loader,
	store scrape.Store,
	limiter scrape.Limiter,
	fetcher scrape.Fetcher,
	extractor scrape.Extractor,
	exporter Exporter,
	clock scrape.Clock,
	cfg Config,
	logger *zap.Logger,
) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = 1000
	}
	return &Driver{
		loader:    loader,
		store:     store,
		limiter:   limiter,
		fetcher:   fetcher,
		extractor: extractor,
		exporter:  exporter,
		clock:     clock,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run executes the pipeline until the input is exhausted, the context is
// canceled, or an infrastructure fault occurs. The returned summary counts
// every recorded outcome, including those loaded from a prior run. A nil
// error means a clean finish; per-row failures alone never produce an
// error.
func (d *Driver) Run(ctx context.Context) (scrape.Summary, error) {
	startedAt := d.clock.Now()

	rows, err := d.loader.Load(d.cfg.InputFile, d.cfg.URLColumn)
	if err != nil {
		return scrape.Summary{}, fmt.Errorf("load input: %w", err)
	}
	total := len(rows)

	if err := d.validateResume(total); err != nil {
		return scrape.Summary{}, err
	}

	start := d.store.NextIndex()
	if d.cfg.StartFrom > start {
		start = d.cfg.StartFrom
	}
	d.logger.Info("run starting",
		zap.Int("total_rows", total),
		zap.Int("start_index", start),
		zap.Int("auto_save_interval", d.cfg.AutoSaveInterval),
	)

	sinceFlush := 0
	var runErr error
	for i := start; i < total; i++ {
		outcome, err := d.processRow(ctx, rows[i])
		if err != nil {
			// Context-level interruption: the in-flight row is excluded
			// from the watermark so a resume picks it up again.
			runErr = err
			break
		}
		if err := d.store.Record(i, outcome); err != nil {
			runErr = fmt.Errorf("record outcome: %w", err)
			break
		}
		d.store.Advance(i + 1)

		sinceFlush++
		if sinceFlush >= d.cfg.AutoSaveInterval {
			if err := d.flush(startedAt, total); err != nil {
				runErr = err
				break
			}
			sinceFlush = 0
		}
	}

	// Mandatory final flush, also the best-effort flush on abort.
	if err := d.flush(startedAt, total); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			d.logger.Error("best-effort flush failed", zap.Error(err))
		}
	}

	summary := d.summarize(startedAt)
	if runErr != nil {
		d.logger.Error("run aborted",
			zap.Int("next_index", d.store.NextIndex()),
			zap.Int("total_rows", total),
			zap.Error(runErr),
		)
		return summary, runErr
	}
	d.logger.Info("run finished",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary, nil
}

// validateResume fails fast when a checkpoint refers to an input file whose
// row count changed: indices would silently misalign otherwise.
func (d *Driver) validateResume(total int) error {
	counter, ok := d.store.(rowCounter)
	if !ok {
		return nil
	}
	if recorded := counter.TotalRows(); recorded > 0 && recorded != total {
		return &scrape.InputError{
			Path: d.cfg.InputFile,
			Reason: fmt.Sprintf(
				"row count %d does not match checkpointed count %d; clear the checkpoint to rescrape",
				total, recorded,
			),
		}
	}
	counter.SetTotalRows(total)
	return nil
}

// processRow turns one row into exactly one outcome. A returned error means
// the row was not processed at all and the run should stop.
func (d *Driver) processRow(ctx context.Context, row scrape.Row) (scrape.Outcome, error) {
	if row.URL == "" {
		return scrape.Failure(row, "empty_url", false, d.clock.Now()), nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return scrape.Outcome{}, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := d.fetcher.Fetch(ctx, row.URL)
	if err != nil {
		if ctx.Err() != nil {
			return scrape.Outcome{}, fmt.Errorf("fetch interrupted: %w", ctx.Err())
		}
		var netErr *scrape.NetworkError
		if errors.As(err, &netErr) {
			d.logger.Warn("fetch failed",
				zap.Int("index", row.Index),
				zap.String("url", row.URL),
				zap.String("reason", netErr.Reason),
				zap.Bool("retryable", netErr.Retryable),
			)
			return scrape.Failure(row, netErr.Reason, netErr.Retryable, d.clock.Now()), nil
		}
		d.logger.Warn("fetch failed",
			zap.Int("index", row.Index),
			zap.String("url", row.URL),
			zap.Error(err),
		)
		return scrape.Failure(row, "network_error", false, d.clock.Now()), nil
	}

	record, err := d.extractor.Extract(payload, row.URL)
	if err != nil {
		d.logger.Warn("extract failed",
			zap.Int("index", row.Index),
			zap.String("url", row.URL),
			zap.Error(err),
		)
		return scrape.Failure(row, "extract_error", false, d.clock.Now()), nil
	}

	// Input columns ride along unless the extractor produced the same key.
	for key, value := range row.Extra {
		if _, exists := record[key]; !exists {
			record[key] = value
		}
	}
	return scrape.Success(row, record, d.clock.Now()), nil
}

// flush durably persists the store and emits the progress line. A store
// flush failure is an infrastructure fault; an export failure is not.
func (d *Driver) flush(startedAt time.Time, total int) error {
	if err := d.store.Flush(); err != nil {
		return fmt.Errorf("flush checkpoint: %w", err)
	}

	summary := d.summarize(startedAt)
	rate := 0.0
	if secs := summary.Elapsed.Seconds(); secs > 0 {
		rate = float64(summary.Processed) / secs * 60
	}
	d.logger.Info("progress",
		zap.Int("index", d.store.NextIndex()),
		zap.Int("total", total),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed),
		zap.Float64("rate_per_minute", rate),
	)

	if d.exporter != nil {
		if err := d.exporter.Export(d.store.Outcomes()); err != nil {
			d.logger.Warn("excel export failed", zap.Error(err))
		}
	}
	return nil
}

func (d *Driver) summarize(startedAt time.Time) scrape.Summary {
	summary := scrape.Summary{Elapsed: d.clock.Now().Sub(startedAt)}
	for _, outcome := range d.store.Outcomes() {
		summary.Processed++
		switch outcome.Status {
		case scrape.StatusSuccess:
			summary.Succeeded++
		case scrape.StatusFailure:
			summary.Failed++
		case scrape.StatusSkipped:
			summary.Skipped++
		}
	}
	return summary
}
