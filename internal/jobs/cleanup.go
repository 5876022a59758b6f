// Package jobs runs the background housekeeping: purging old export files
// and sweeping leftover reports off the report service.
package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	"semantist/internal/wordstat"
)

// Housekeeper owns the scheduled maintenance jobs.
type Housekeeper struct {
	scheduler gocron.Scheduler
	outputDir string
	retention time.Duration
	sweeper   *wordstat.Collector
}

// NewHousekeeper creates the housekeeping scheduler. sweeper may be nil when
// the report service is not configured.
func NewHousekeeper(outputDir string, retention time.Duration, sweeper *wordstat.Collector) (*Housekeeper, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Housekeeper{
		scheduler: scheduler,
		outputDir: outputDir,
		retention: retention,
		sweeper:   sweeper,
	}, nil
}

// Start registers and launches the jobs: export purge daily at 02:00 UTC,
// report sweep hourly.
func (h *Housekeeper) Start() error {
	_, err := h.scheduler.NewJob(
		gocron.CronJob("0 2 * * *", false),
		gocron.NewTask(func() {
			if err := h.PurgeOldExports(); err != nil {
				log.Printf("❌ [JOBS] Export purge failed: %v", err)
			}
		}),
		gocron.WithName("export_purge"),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule export purge: %w", err)
	}

	if h.sweeper != nil {
		_, err = h.scheduler.NewJob(
			gocron.DurationJob(1*time.Hour),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
				defer cancel()
				if err := h.sweeper.SweepLeftovers(ctx); err != nil {
					log.Printf("❌ [JOBS] Report sweep failed: %v", err)
				}
			}),
			gocron.WithName("report_sweep"),
		)
		if err != nil {
			return fmt.Errorf("failed to schedule report sweep: %w", err)
		}
	}

	h.scheduler.Start()
	log.Printf("⏰ [JOBS] Housekeeping started: export purge daily 02:00 UTC, report sweep hourly")
	return nil
}

// Stop shuts the scheduler down, waiting for running jobs.
func (h *Housekeeper) Stop() {
	if err := h.scheduler.Shutdown(); err != nil {
		log.Printf("⚠️ [JOBS] Scheduler shutdown error: %v", err)
	}
}

// PurgeOldExports deletes campaign files older than the retention window.
func (h *Housekeeper) PurgeOldExports() error {
	cutoff := time.Now().Add(-h.retention)
	removed := 0

	entries, err := os.ReadDir(h.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read output dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".xlsx") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			path := filepath.Join(h.outputDir, entry.Name())
			if err := os.Remove(path); err != nil {
				log.Printf("⚠️ [JOBS] Failed to remove %s: %v", path, err)
				continue
			}
			removed++
		}
	}

	log.Printf("🧹 [JOBS] Export purge done: removed %d file(s) older than %s", removed, h.retention)
	return nil
}
