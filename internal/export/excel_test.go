package export

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"semantist/internal/models"
)

func TestWriteCampaign_RowLayout(t *testing.T) {
	dir := t.TempDir()
	writer, err := NewExcelWriter(dir)
	if err != nil {
		t.Fatalf("NewExcelWriter failed: %v", err)
	}

	bundle := models.CampaignBundle{
		Name: "купить слона",
		Groups: []models.AdGroup{
			{
				Name:     "Группа 0",
				Keywords: []models.PhraseStat{{Phrase: "купить слона", Shows: 100}, {Phrase: "слон цена", Shows: 50}},
				Ads:      []models.AdCopy{{Headline1: "Слоны в продаже", Headline2: "Выбор большой", Text: "Звоните!", Path: ""}},
			},
			{
				Name:     "пустая",
				Keywords: []models.PhraseStat{{Phrase: "без объявлений"}},
			},
		},
	}

	path, err := writer.WriteCampaign(bundle)
	if err != nil {
		t.Fatalf("WriteCampaign failed: %v", err)
	}
	if filepath.Base(path) != "купить_слона_campaign.xlsx" {
		t.Errorf("Unexpected filename: %s", filepath.Base(path))
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("Failed to reopen file: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	if err != nil {
		t.Fatalf("Failed to read rows: %v", err)
	}

	// Header plus 2 keyword rows; the ad-less group is skipped.
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0][0] != "Campaign Name" || rows[0][2] != "Phrase" {
		t.Errorf("Unexpected header: %v", rows[0])
	}

	// Both data rows broadcast the group's first ad.
	for i := 1; i <= 2; i++ {
		if rows[i][3] != "Слоны в продаже" {
			t.Errorf("Row %d must carry the first ad headline, got %q", i, rows[i][3])
		}
	}
	if rows[1][2] == rows[2][2] {
		t.Error("Data rows must differ by phrase")
	}
}

func TestWriteCampaign_EmptyBundleIsError(t *testing.T) {
	writer, err := NewExcelWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewExcelWriter failed: %v", err)
	}

	bundle := models.CampaignBundle{
		Name:   "пусто",
		Groups: []models.AdGroup{{Name: "без ключей", Ads: []models.AdCopy{{Headline1: "x"}}}},
	}

	if _, err := writer.WriteCampaign(bundle); err == nil {
		t.Fatal("Bundle flattening to zero rows must be an error")
	}
}
