// Package export turns a finished campaign bundle into user-facing
// deliverables: an .xlsx file and a remote spreadsheet. Both sinks always
// run; the pipeline fails only when neither produces a handle.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"

	"semantist/internal/models"
)

// FileSink produces a local campaign file.
type FileSink interface {
	WriteCampaign(bundle models.CampaignBundle) (string, error)
}

// SheetSink produces a remote spreadsheet.
type SheetSink interface {
	CreateCampaignSheet(ctx context.Context, bundle models.CampaignBundle) (string, error)
}

// Exporter fans a bundle out to both sinks. sheets may be nil when the
// bridge is not configured; the file sink is always present.
type Exporter struct {
	file   FileSink
	sheets SheetSink
}

// NewExporter creates the dual-sink exporter.
func NewExporter(file FileSink, sheets SheetSink) *Exporter {
	return &Exporter{file: file, sheets: sheets}
}

// Export runs both sinks independently. Sink failures are logged, not
// short-circuited; the result is an error only when no sink produced a
// handle.
func (e *Exporter) Export(ctx context.Context, bundle models.CampaignBundle) (models.ExportResult, error) {
	var result models.ExportResult
	var errs []error

	filePath, err := e.file.WriteCampaign(bundle)
	if err != nil {
		log.Printf("❌ [EXPORT] File sink failed: %v", err)
		errs = append(errs, fmt.Errorf("file sink: %w", err))
	} else {
		result.FilePath = filePath
	}

	if e.sheets != nil {
		sheetURL, err := e.sheets.CreateCampaignSheet(ctx, bundle)
		if err != nil {
			log.Printf("❌ [EXPORT] Sheet sink failed: %v", err)
			errs = append(errs, fmt.Errorf("sheet sink: %w", err))
		} else {
			result.SheetURL = sheetURL
		}
	}

	if result.Empty() {
		return result, fmt.Errorf("all export sinks failed: %w", errors.Join(errs...))
	}
	return result, nil
}

// RowCount reports how many export rows the bundle flattens to, using the
// same skip rules as the sinks.
func RowCount(bundle models.CampaignBundle) int {
	n := 0
	for _, group := range bundle.Groups {
		if len(group.Keywords) == 0 || len(group.Ads) == 0 {
			continue
		}
		n += len(group.Keywords)
	}
	return n
}
