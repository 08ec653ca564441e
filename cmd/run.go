package cmd

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bhargavak04/Book-My-Player-Scrape/internal/checkpoint"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/clock/system"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/config"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/extract/bookmyplayer"
	collyfetcher "github.com/bhargavak04/Book-My-Player-Scrape/internal/fetcher/colly"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/input"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/logging"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/pipeline"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/ratelimit"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/report"
	"github.com/bhargavak04/Book-My-Player-Scrape/internal/scrape"
)

// newRunCmd creates the 'run' subcommand, which executes one scrape run
// from the configured start offset to the end of the input.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Starts or resumes a scrape run",
		Long: `Reads target URLs from the configured input file and processes every row
at or beyond the resume point. Progress is checkpointed on the auto-save
cadence; an interrupted run resumes where the last flush left off.`,

		RunE: runScrapeCommand,
	}
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Development, cfg.LogDir)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lock, err := checkpoint.AcquireLock(cfg.OutputDir)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logger.Warn("failed to release checkpoint lock", zap.Error(rerr))
		}
	}()

	store, err := checkpoint.Open(cfg.OutputDir, logger.Named("checkpoint"))
	if err != nil {
		return fmt.Errorf("open checkpoint: %w", err)
	}

	fetcher := collyfetcher.New(
		collyfetcher.Config{
			UserAgent: cfg.UserAgent,
			Timeout:   cfg.Timeout(),
		},
		// The floor keeps retry attempts from undercutting the configured
		// inter-request delay.
		scrape.NewRetryPolicy(cfg.MaxRetries, cfg.Delay()),
		logger.Named("fetcher"),
	)
	clock := system.New()

	driver := pipeline.New(
		input.NewLoader(),
		store,
		ratelimit.New(cfg.Delay()),
		fetcher,
		bookmyplayer.New(clock),
		report.NewExporter(filepath.Join(cfg.OutputDir, "bookmyplayer_results.xlsx")),
		clock,
		pipeline.Config{
			InputFile:        cfg.InputFile,
			URLColumn:        cfg.URLColumn,
			AutoSaveInterval: cfg.AutoSaveInterval,
			StartFrom:        cfg.StartFrom,
		},
		logger.Named("pipeline"),
	)

	summary, err := driver.Run(ctx)
	if err != nil {
		return fmt.Errorf("run scraper: %w", err)
	}

	logger.Info("scrape completed",
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return nil
}
