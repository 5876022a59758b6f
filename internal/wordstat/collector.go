package wordstat

import (
	"context"
	"log"
	"time"

	"semantist/internal/models"
)

// Source is anything that can expand seed phrases into a keyword universe.
// The real collector and the mock source satisfy it; the conversation engine
// falls back from one to the other.
type Source interface {
	CollectSemantics(ctx context.Context, seeds []string) ([]models.PhraseStat, error)
}

// Collector drives the full report lifecycle: create, poll until ready,
// fetch, delete. One Collector is shared by all sessions; each call is
// self-contained.
type Collector struct {
	client   *Client
	interval time.Duration
	attempts int
}

// NewCollector creates a collector polling every interval up to attempts
// times (the defaults, 5s × 20, give a ~100 second ceiling).
func NewCollector(client *Client, interval time.Duration, attempts int) *Collector {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if attempts <= 0 {
		attempts = 20
	}
	return &Collector{client: client, interval: interval, attempts: attempts}
}

// CollectSemantics expands the seed phrases via the report service.
//
// Transport and API-logic failures return an error so the caller can fall
// back to mock data. Vanished, failed and timed-out reports return an empty
// slice with nil error: the report service worked, there is just no usable
// data. Callers must treat an empty result as "nothing collected" whatever
// the cause; the distinction lives in the logs, not the return shape.
func (c *Collector) CollectSemantics(ctx context.Context, seeds []string) ([]models.PhraseStat, error) {
	reportID, err := c.client.CreateReport(ctx, seeds, nil)
	if err != nil {
		return nil, err
	}

	log.Printf("⏳ [WORDSTAT] Report %d created, waiting for readiness...", reportID)

	for attempt := 1; attempt <= c.attempts; attempt++ {
		select {
		case <-ctx.Done():
			c.cleanup(reportID)
			return nil, ctx.Err()
		case <-time.After(c.interval):
		}

		reports, err := c.client.ListReports(ctx)
		if err != nil {
			// A cancellation surfacing through the HTTP call still owns a
			// live report; release it before bailing.
			if ctx.Err() != nil {
				c.cleanup(reportID)
				return nil, ctx.Err()
			}
			return nil, err
		}

		var status string
		found := false
		for _, r := range reports {
			if r.ReportID == reportID {
				status = r.StatusReport
				found = true
				break
			}
		}

		// Vanished: the service dropped the report. Do not keep polling.
		if !found {
			log.Printf("⚠️ [WORDSTAT] Report %d vanished from listing (attempt %d)", reportID, attempt)
			return []models.PhraseStat{}, nil
		}

		switch status {
		case "Done":
			log.Printf("✅ [WORDSTAT] Report %d ready after %d attempt(s), downloading...", reportID, attempt)
			entries, err := c.client.GetReport(ctx, reportID)
			if err != nil {
				if ctx.Err() != nil {
					c.cleanup(reportID)
					return nil, ctx.Err()
				}
				return nil, err
			}
			c.cleanup(reportID)

			var results []models.PhraseStat
			for _, entry := range entries {
				for _, item := range entry.SearchedWith {
					results = append(results, models.PhraseStat{Phrase: item.Phrase, Shows: item.Shows})
				}
			}
			log.Printf("✅ [WORDSTAT] Report %d yielded %d phrases", reportID, len(results))
			return results, nil

		case "Failed", "Error":
			log.Printf("❌ [WORDSTAT] Report %d generation failed (status %s)", reportID, status)
			c.cleanup(reportID)
			return []models.PhraseStat{}, nil
		}
		// Anything else is still pending.
	}

	log.Printf("❌ [WORDSTAT] Timeout waiting for report %d after %d attempts", reportID, c.attempts)
	c.cleanup(reportID)
	return []models.PhraseStat{}, nil
}

// cleanup deletes a report best-effort. A fresh short-lived context is used
// so cleanup still fires when the run's context is already cancelled; the
// hourly sweep catches anything this misses.
func (c *Collector) cleanup(reportID int) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.client.DeleteReport(ctx, reportID); err != nil {
		log.Printf("⚠️ [WORDSTAT] Failed to delete report %d: %v", reportID, err)
	}
}

// SweepLeftovers deletes every report still present on the service. Run
// periodically: abandoned or crashed pipelines can leak reports, and the
// service caps how many may exist per account.
func (c *Collector) SweepLeftovers(ctx context.Context) error {
	reports, err := c.client.ListReports(ctx)
	if err != nil {
		return err
	}
	for _, r := range reports {
		if err := c.client.DeleteReport(ctx, r.ReportID); err != nil {
			log.Printf("⚠️ [WORDSTAT] Leftover sweep failed to delete report %d: %v", r.ReportID, err)
			continue
		}
		log.Printf("🧹 [WORDSTAT] Deleted leftover report %d (status %s)", r.ReportID, r.StatusReport)
	}
	return nil
}
