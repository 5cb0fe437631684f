package simulator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lapvn/timecard/internal/config"
	"github.com/lapvn/timecard/internal/domain/clock"
	"github.com/lapvn/timecard/internal/domain/scoring"
	"github.com/lapvn/timecard/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete attendance simulation.
func Run(ctx context.Context, cfg *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting timecard simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("employees", cfg.NumEmployees),
		logger.Int("days", cfg.NumDays),
		logger.Int("workers", cfg.Workers),
		logger.String("timeout", cfg.Timeout.String()),
		logger.String("strategy", cfg.Strategy),
		logger.String("logFile", cfg.LogFile),
		logger.Any("verbose", cfg.Verbose))

	// The simulation scores against the service defaults, so a service
	// running with a custom schedule or zone will report mismatches.
	defaults := config.New()
	week, err := defaults.WeekSchedule()
	if err != nil {
		return fmt.Errorf("failed to build default schedule: %w", err)
	}
	norm, err := clock.NewNormalizer(defaults.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}
	loc, err := time.LoadLocation(defaults.Timezone)
	if err != nil {
		return fmt.Errorf("failed to load timezone: %w", err)
	}
	scorer := scoring.New(week)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, cfg); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate punches around the shift windows
	punches, err := generatePunches(ctx, cfg, week, loc, stats)
	if err != nil {
		return fmt.Errorf("punch generation failed: %w", err)
	}

	// Step 3: Submit punches concurrently through the live ingest path
	if err := submitPunches(ctx, cfg, punches, stats); err != nil {
		return fmt.Errorf("punch submission failed: %w", err)
	}

	// Step 4: Wait for the async workers to drain
	logger.Get().Info(ctx, "waiting for punches to be processed")
	time.Sleep(SettleDelay)

	// Step 5: Sync the full batch so stored records are deterministic
	client := newHTTPClient(cfg.Timeout)
	first, err := syncBatch(ctx, cfg, client, punches)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	stats.BatchCreated = first.Created
	stats.BatchUpdated = first.Updated
	logger.Get().Info(ctx, "sync completed",
		logger.String("batchID", first.BatchID),
		logger.Int("created", first.Created),
		logger.Int("updated", first.Updated),
		logger.Int("skipped", first.Skipped),
		logger.Int("failed", first.Failed))

	// Step 6: Rescore in-process and verify every served record
	expected, err := computeExpected(punches, norm, scorer)
	if err != nil {
		return fmt.Errorf("in-process rescore failed: %w", err)
	}
	if err := verifyRecords(ctx, cfg, expected, stats); err != nil {
		return fmt.Errorf("record verification failed: %w", err)
	}

	// Step 7: Replay the batch and verify idempotence
	second, err := syncBatch(ctx, cfg, client, punches)
	if err != nil {
		return fmt.Errorf("replay sync failed: %w", err)
	}
	if err := verifyIdempotence(first, second, cfg.Strategy); err != nil {
		return fmt.Errorf("idempotence verification failed: %w", err)
	}
	logger.Get().Info(ctx, "replay is idempotent",
		logger.Int("created", second.Created),
		logger.Int("updated", second.Updated),
		logger.Int("skipped", second.Skipped))

	// Step 8: Save punches to file
	if err := savePunchesToFile(ctx, cfg, punches); err != nil {
		logger.Get().Warn(ctx, "failed to save punches to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "simulation completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, cfg *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(cfg.Timeout)
	url := cfg.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the endpoint serves Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// savePunchesToFile saves the generated punches to a JSON file.
func savePunchesToFile(ctx context.Context, cfg *Config, punches []Punch) error {
	if len(punches) == 0 {
		return fmt.Errorf("no punches to save")
	}

	// Determine output filename
	filename := cfg.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_punches_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, punch := range punches {
		line := fmt.Sprintf("  {\"employee_id\": %q, \"timestamp\": %q}", punch.EmployeeID, punch.Timestamp)
		if i < len(punches)-1 {
			line += ","
		}
		if _, err := file.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write punch %d: %w", i, err)
		}
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "punches saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final simulation statistics.
func displayFinalStats(stats *Stats) {
	var successRate, punchesPerSecond float64

	if stats.PunchesSubmitted > 0 {
		successRate = float64(stats.PunchesSuccessful) / float64(stats.PunchesSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		punchesPerSecond = float64(stats.PunchesSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("punchesGenerated", stats.PunchesGenerated),
		logger.Int("punchesSubmitted", stats.PunchesSubmitted),
		logger.Int("punchesSuccessful", stats.PunchesSuccessful),
		logger.Int("punchesDuplicate", stats.PunchesDuplicate),
		logger.Int("punchesFailed", stats.PunchesFailed),
		logger.Int("recordsCreated", stats.BatchCreated),
		logger.Int("recordsUpdated", stats.BatchUpdated),
		logger.Int("recordsVerified", stats.RecordsVerified),
		logger.Int("recordsMismatched", stats.RecordsMismatched),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("punchesPerSecond", punchesPerSecond))
}
