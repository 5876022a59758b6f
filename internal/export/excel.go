package export

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"semantist/internal/models"
)

// placeholderLink fills the Link column until real landing URLs are wired
// into ad generation.
const placeholderLink = "https://example.com"

// excelHeaders is the flat Direct-Commander-style layout.
var excelHeaders = []interface{}{
	"Campaign Name", "Group Name", "Phrase",
	"Headline 1", "Headline 2", "Text", "Path", "Link",
}

// ExcelWriter writes campaign bundles as .xlsx files.
type ExcelWriter struct {
	outputDir string
}

// NewExcelWriter creates a writer storing files under outputDir, creating it
// if needed.
func NewExcelWriter(outputDir string) (*ExcelWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &ExcelWriter{outputDir: outputDir}, nil
}

// WriteCampaign writes one row per keyword, each carrying the group's first
// ad. Groups without keywords or without ads are skipped. Returns the file
// path; a bundle that flattens to zero rows is an error.
func (w *ExcelWriter) WriteCampaign(bundle models.CampaignBundle) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	if err := f.SetSheetRow(sheet, "A1", &excelHeaders); err != nil {
		return "", fmt.Errorf("failed to write headers: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "H1", headerStyle)
	}

	rowIdx := 2
	for _, group := range bundle.Groups {
		if len(group.Keywords) == 0 || len(group.Ads) == 0 {
			continue
		}
		ad := group.Ads[0]
		for _, kw := range group.Keywords {
			row := []interface{}{
				bundle.Name, group.Name, kw.Phrase,
				ad.Headline1, ad.Headline2, ad.Text, ad.Path, placeholderLink,
			}
			cell, _ := excelize.CoordinatesToCellName(1, rowIdx)
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return "", fmt.Errorf("failed to write row %d: %w", rowIdx, err)
			}
			rowIdx++
		}
	}

	if rowIdx == 2 {
		return "", fmt.Errorf("no data to write: every group is missing keywords or ads")
	}

	filename := strings.ReplaceAll(bundle.Name, " ", "_") + "_campaign.xlsx"
	path := filepath.Join(w.outputDir, filename)

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}

	log.Printf("✅ [EXPORT] Campaign saved to %s (%d rows)", path, rowIdx-2)
	return path, nil
}
