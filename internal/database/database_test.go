package database

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"semantist/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}
	return db
}

func TestCampaignRun_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	run := &models.CampaignRun{
		ID:       "run-1",
		Campaign: "купить слона",
		Source:   "collect",
		Phrases:  11,
		Groups:   3,
		Rows:     11,
		FilePath: "/output/купить_слона_campaign.xlsx",
		SheetURL: "https://sheets.example/1",
		MockData: true,
	}
	if err := db.InsertCampaignRun(ctx, run); err != nil {
		t.Fatalf("InsertCampaignRun failed: %v", err)
	}

	runs, err := db.ListCampaignRuns(ctx, 10)
	if err != nil {
		t.Fatalf("ListCampaignRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}

	got := runs[0]
	if got.ID != "run-1" || got.Campaign != "купить слона" || got.Source != "collect" {
		t.Errorf("Identity fields mis-stored: %+v", got)
	}
	if got.Phrases != 11 || got.Groups != 3 || got.Rows != 11 {
		t.Errorf("Counters mis-stored: %+v", got)
	}
	if !got.MockData {
		t.Error("Mock flag lost on round trip")
	}
	if got.CreatedAt == "" {
		t.Error("CreatedAt must be populated")
	}
}

func TestListCampaignRuns_OrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		run := &models.CampaignRun{
			ID:       fmt.Sprintf("run-%d", i),
			Campaign: fmt.Sprintf("кампания %d", i),
			Source:   "list",
		}
		if err := db.InsertCampaignRun(ctx, run); err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	runs, err := db.ListCampaignRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListCampaignRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("Expected limit of 3, got %d", len(runs))
	}

	runs, err = db.ListCampaignRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListCampaignRuns with zero limit failed: %v", err)
	}
	if len(runs) != 5 {
		t.Errorf("Zero limit must clamp to the default, got %d runs", len(runs))
	}
}
