package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/qmarchand/rs-mpn-lookup/internal/batch"
	"github.com/qmarchand/rs-mpn-lookup/internal/config"
	"github.com/qmarchand/rs-mpn-lookup/internal/database"
	"github.com/qmarchand/rs-mpn-lookup/internal/diagnostics"
	"github.com/qmarchand/rs-mpn-lookup/internal/fetcher"
	"github.com/qmarchand/rs-mpn-lookup/internal/lookup"
	"github.com/qmarchand/rs-mpn-lookup/internal/models"
	"github.com/qmarchand/rs-mpn-lookup/internal/parser"
	"github.com/qmarchand/rs-mpn-lookup/internal/ratelimit"
	"github.com/qmarchand/rs-mpn-lookup/internal/report"
	"github.com/qmarchand/rs-mpn-lookup/internal/resume"
	"github.com/qmarchand/rs-mpn-lookup/pkg/logger"
)

func main() {
	var (
		inputFlag  = flag.String("input", "", "Input CSV with an RS_PN column (default: discovered next to the binary)")
		outputFlag = flag.String("output", "", "Output CSV path (default from config)")
		failedDir  = flag.String("failed-dir", "", "Directory for failed-page HTML dumps (default from config, empty string after -failed-dir= disables)")
		useDB      = flag.Bool("database", false, "Mirror results into Postgres (DB_* env vars)")
		useRedis   = flag.Bool("redis", false, "Share the resume set through Redis (REDIS_* env vars)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if *outputFlag != "" {
		cfg.Paths.OutputFile = *outputFlag
	}
	if flagWasSet("failed-dir") {
		cfg.Paths.FailedPageDir = *failedDir
	}
	if *useDB {
		cfg.Database.Enabled = true
	}
	if *useRedis {
		cfg.Redis.Enabled = true
	}

	logg := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	runID := uuid.New().String()
	logg.Info("starting RS MPN lookup", "run_id", runID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logg.Info("shutdown signal received")
		cancel()
	}()

	inputPath, err := resolveInput(*inputFlag, cfg)
	if err != nil {
		logg.Error("no input file", "error", err)
		os.Exit(1)
	}
	logg.Info("reading input", "path", inputPath)

	parts, err := report.ReadPartNumbers(inputPath)
	if err != nil {
		logg.Error("failed to read input", "error", err)
		os.Exit(1)
	}

	total := 0
	for _, pn := range parts {
		if pn != "" {
			total++
		}
	}
	if total == 0 {
		logg.Error("input contains no part numbers", "path", inputPath)
		os.Exit(1)
	}

	writer := report.NewWriter(cfg.Paths.OutputFile)

	seen := buildResumeSet(ctx, cfg, logg)

	var record batch.RecordFunc
	if cfg.Database.Enabled {
		store, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logg.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			logg.Error("failed to ensure schema", "error", err)
			os.Exit(1)
		}
		if done, err := store.DonePartNumbers(ctx); err != nil {
			logg.Warn("could not seed resume set from database", "error", err)
		} else {
			for _, pn := range done {
				_ = seen.Add(ctx, pn)
			}
		}

		record = func(ctx context.Context, res *models.LookupResult) error {
			return store.UpsertLookup(ctx, database.FromResult(res, runID))
		}
	}

	rsParser, err := parser.NewRSParser(cfg.Lookup.BaseURL)
	if err != nil {
		logg.Error("failed to build parser", "error", err)
		os.Exit(1)
	}

	client := fetcher.New(fetcher.Options{
		UserAgent:    cfg.Lookup.UserAgent,
		Timeout:      cfg.Lookup.Timeout,
		MaxRetries:   cfg.Lookup.MaxRetries,
		RetryDelay:   cfg.Lookup.RetryDelay,
		RetryBackoff: cfg.Lookup.RetryBackoff,
	})

	saver := diagnostics.NewSaver(cfg.Paths.FailedPageDir, logg)

	lk := lookup.New(client, rsParser, saver, logg, lookup.Options{
		BaseURL:    cfg.Lookup.BaseURL,
		SearchPath: cfg.Lookup.SearchPath,
		ShortDelay: cfg.Lookup.ShortDelay,
	})

	runner := batch.New(lk, writer, seen,
		ratelimit.NewFixedRateLimiter(cfg.Lookup.Delay), record, logg)

	logg.Info("starting batch", "parts", total)
	stats := runner.Run(ctx, parts)

	logg.Info("batch done",
		"run_id", runID,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"without_fields", stats.WithoutFields,
		"output", cfg.Paths.OutputFile,
		"failed_pages", cfg.Paths.FailedPageDir,
	)
}

// resolveInput finds the input CSV: explicit flag first, then the configured
// name in the working directory, then the alternate subdirectories.
func resolveInput(explicit string, cfg *config.Config) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("input file %s: %w", explicit, err)
		}
		return explicit, nil
	}

	candidates := []string{cfg.Paths.InputFile}
	for _, dir := range cfg.Paths.InputAltDirs {
		candidates = append(candidates, filepath.Join(dir, cfg.Paths.InputFile))
	}

	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no %s found in %v", cfg.Paths.InputFile, candidates)
}

func buildResumeSet(ctx context.Context, cfg *config.Config, logg *slog.Logger) resume.Set {
	done, err := report.DonePartNumbers(cfg.Paths.OutputFile)
	if err != nil {
		logg.Warn("could not read existing output, starting fresh", "path", cfg.Paths.OutputFile, "error", err)
		done = map[string]struct{}{}
	}
	if len(done) > 0 {
		logg.Info("resuming", "already_done", len(done), "output", cfg.Paths.OutputFile)
	}

	memory := resume.NewMemorySet(done)
	if !cfg.Redis.Enabled {
		return memory
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logg.Warn("redis unreachable, falling back to local resume set", "addr", cfg.Redis.Addr, "error", err)
		return memory
	}

	logg.Info("sharing resume set via redis", "addr", cfg.Redis.Addr, "key", cfg.Redis.SeenKey)
	return resume.Multi(memory, resume.NewRedisSet(rdb, cfg.Redis.SeenKey))
}

func flagWasSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
