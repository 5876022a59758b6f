package export

import (
	"context"
	"fmt"
	"testing"

	"semantist/internal/models"
)

type fakeFileSink struct {
	path string
	err  error
}

func (f *fakeFileSink) WriteCampaign(bundle models.CampaignBundle) (string, error) {
	return f.path, f.err
}

type fakeSheetSink struct {
	url string
	err error
}

func (f *fakeSheetSink) CreateCampaignSheet(ctx context.Context, bundle models.CampaignBundle) (string, error) {
	return f.url, f.err
}

func testBundle() models.CampaignBundle {
	return models.CampaignBundle{
		Name: "окна",
		Groups: []models.AdGroup{{
			Name:     "Покупка",
			Keywords: []models.PhraseStat{{Phrase: "купить окна", Shows: 100}},
			Ads:      []models.AdCopy{{Headline1: "А", Headline2: "Б", Text: "В", Path: "g"}},
		}},
		HasStats: true,
	}
}

func TestExport_SinkFailureMatrix(t *testing.T) {
	sinkErr := fmt.Errorf("sink down")

	cases := []struct {
		name     string
		fileErr  error
		sheetErr error
		wantErr  bool
		wantFile bool
		wantURL  bool
	}{
		{"both succeed", nil, nil, false, true, true},
		{"file fails, sheet carries", sinkErr, nil, false, false, true},
		{"sheet fails, file carries", nil, sinkErr, false, true, false},
		{"both fail", sinkErr, sinkErr, true, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exporter := NewExporter(
				&fakeFileSink{path: "/tmp/out.xlsx", err: tc.fileErr},
				&fakeSheetSink{url: "https://sheets.example/1", err: tc.sheetErr},
			)

			result, err := exporter.Export(context.Background(), testBundle())
			if tc.wantErr != (err != nil) {
				t.Fatalf("wantErr=%v, got err=%v", tc.wantErr, err)
			}
			if tc.wantFile != (result.FilePath != "") {
				t.Errorf("wantFile=%v, got %q", tc.wantFile, result.FilePath)
			}
			if tc.wantURL != (result.SheetURL != "") {
				t.Errorf("wantURL=%v, got %q", tc.wantURL, result.SheetURL)
			}
		})
	}
}

func TestExport_NoSheetSinkConfigured(t *testing.T) {
	exporter := NewExporter(&fakeFileSink{path: "/tmp/out.xlsx"}, nil)

	result, err := exporter.Export(context.Background(), testBundle())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if result.FilePath == "" || result.SheetURL != "" {
		t.Errorf("Expected file-only result, got %+v", result)
	}
}

func TestRowCount_SkipsIncompleteGroups(t *testing.T) {
	bundle := models.CampaignBundle{
		Groups: []models.AdGroup{
			{
				Name:     "полная",
				Keywords: []models.PhraseStat{{Phrase: "а"}, {Phrase: "б"}},
				Ads:      []models.AdCopy{{Headline1: "x"}},
			},
			{
				Name:     "без объявлений",
				Keywords: []models.PhraseStat{{Phrase: "в"}},
			},
			{
				Name: "без ключей",
				Ads:  []models.AdCopy{{Headline1: "y"}},
			},
		},
	}

	if got := RowCount(bundle); got != 2 {
		t.Errorf("Expected 2 rows, got %d", got)
	}
}

func TestBuildSheetRows_FrequencyColumnOnlyWithStats(t *testing.T) {
	bundle := testBundle()

	rows := buildSheetRows(bundle)
	if len(rows) != 2 {
		t.Fatalf("Expected header + 1 data row, got %d", len(rows))
	}
	if len(rows[0]) != 7 {
		t.Fatalf("Expected 7 columns with stats, got %d: %v", len(rows[0]), rows[0])
	}
	if rows[0][2] != "Частотность" {
		t.Errorf("Expected frequency column third, got %q", rows[0][2])
	}
	if rows[1][2] != "100" {
		t.Errorf("Expected frequency value 100, got %q", rows[1][2])
	}

	bundle.HasStats = false
	rows = buildSheetRows(bundle)
	if len(rows[0]) != 6 {
		t.Fatalf("Expected 6 columns without stats, got %d: %v", len(rows[0]), rows[0])
	}
	for _, cell := range rows[0] {
		if cell == "Частотность" {
			t.Error("Frequency column must be absent without stats")
		}
	}
}

func TestBuildSheetRows_FirstAdBroadcast(t *testing.T) {
	bundle := models.CampaignBundle{
		Name: "слоны",
		Groups: []models.AdGroup{{
			Name:     "Группа 0",
			Keywords: []models.PhraseStat{{Phrase: "купить слона"}, {Phrase: "слон цена"}},
			Ads: []models.AdCopy{
				{Headline1: "Слоны в продаже", Headline2: "Выбор большой", Text: "Звоните!"},
				{Headline1: "Второй вариант"},
			},
		}},
	}

	rows := buildSheetRows(bundle)
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}

	// Both rows carry the first ad; only the phrase differs.
	for i := 1; i <= 2; i++ {
		if rows[i][2] != "Слоны в продаже" {
			t.Errorf("Row %d must carry the first ad, got %q", i, rows[i][2])
		}
	}
	if rows[1][1] == rows[2][1] {
		t.Error("Rows must differ by phrase")
	}
}
