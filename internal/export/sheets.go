package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"semantist/internal/models"
)

// maxTabTitle keeps worksheet tab names within the remote service's limit.
const maxTabTitle = 30

// SheetsClient talks to the spreadsheet bridge API. With a master spreadsheet
// configured, each campaign becomes a new worksheet tab in it; otherwise a
// standalone spreadsheet is created and shared link-readable.
type SheetsClient struct {
	baseURL    string
	apiKey     string
	masterID   string
	httpClient *http.Client
}

// NewSheetsClient creates a bridge client.
func NewSheetsClient(baseURL, apiKey, masterID string) *SheetsClient {
	return &SheetsClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		masterID:   masterID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// sheetResponse is the bridge's envelope for create/update calls.
type sheetResponse struct {
	SpreadsheetID string `json:"spreadsheet_id"`
	URL           string `json:"url"`
	Error         string `json:"error,omitempty"`
}

// CreateCampaignSheet uploads the bundle and returns the spreadsheet URL.
// A title collision on the master sheet is retried once with a unix-time
// suffix.
func (c *SheetsClient) CreateCampaignSheet(ctx context.Context, bundle models.CampaignBundle) (string, error) {
	rows := buildSheetRows(bundle)
	if len(rows) <= 1 {
		return "", fmt.Errorf("no data to upload: every group is missing keywords or ads")
	}

	tabTitle := truncateTitle(bundle.Name, maxTabTitle)

	var (
		sheetID, sheetURL string
		err               error
	)
	if c.masterID != "" {
		sheetID = c.masterID
		sheetURL, err = c.addWorksheet(ctx, tabTitle)
		if isConflict(err) {
			tabTitle = fmt.Sprintf("%s_%d", tabTitle, time.Now().Unix())
			sheetURL, err = c.addWorksheet(ctx, tabTitle)
		}
	} else {
		tabTitle = "Семантика"
		sheetID, sheetURL, err = c.createSpreadsheet(ctx, bundle.Name)
	}
	if err != nil {
		return "", err
	}

	if err := c.updateValues(ctx, sheetID, tabTitle, rows); err != nil {
		return "", err
	}
	if err := c.formatHeaderBold(ctx, sheetID, tabTitle, len(rows[0])); err != nil {
		// Formatting is cosmetic, the data is already up.
		log.Printf("⚠️ [EXPORT] Failed to bold sheet header: %v", err)
	}

	log.Printf("✅ [EXPORT] Sheet ready: %s (%d rows)", sheetURL, len(rows)-1)
	return sheetURL, nil
}

// truncateTitle caps a tab title at limit characters. Campaign names are
// normally Cyrillic, so the cut must land on a rune boundary.
func truncateTitle(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// buildSheetRows flattens the bundle using the first ad of each group. The
// frequency column appears only when the bundle carries real scores.
func buildSheetRows(bundle models.CampaignBundle) [][]string {
	header := []string{"Группа", "Ключевая фраза"}
	if bundle.HasStats {
		header = append(header, "Частотность")
	}
	header = append(header, "Заголовок 1", "Заголовок 2", "Текст", "Ссылка")
	rows := [][]string{header}

	for _, group := range bundle.Groups {
		if len(group.Keywords) == 0 || len(group.Ads) == 0 {
			continue
		}
		ad := group.Ads[0]
		for _, kw := range group.Keywords {
			row := []string{group.Name, kw.Phrase}
			if bundle.HasStats {
				row = append(row, fmt.Sprintf("%d", kw.Shows))
			}
			row = append(row, ad.Headline1, ad.Headline2, ad.Text, ad.Path)
			rows = append(rows, row)
		}
	}
	return rows
}

func (c *SheetsClient) addWorksheet(ctx context.Context, title string) (string, error) {
	resp, err := c.request(ctx, "POST", fmt.Sprintf("/spreadsheets/%s/worksheets", c.masterID), map[string]interface{}{
		"title": title,
		"rows":  1000,
		"cols":  10,
	})
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *SheetsClient) createSpreadsheet(ctx context.Context, title string) (string, string, error) {
	resp, err := c.request(ctx, "POST", "/spreadsheets", map[string]interface{}{
		"title": "Report_" + title,
	})
	if err != nil {
		return "", "", err
	}

	// Link-readable so the chat user can open it without an account grant.
	_, err = c.request(ctx, "POST", fmt.Sprintf("/spreadsheets/%s/permissions", resp.SpreadsheetID), map[string]interface{}{
		"type": "anyone",
		"role": "reader",
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to share spreadsheet: %w", err)
	}
	return resp.SpreadsheetID, resp.URL, nil
}

func (c *SheetsClient) updateValues(ctx context.Context, sheetID, sheetName string, values [][]string) error {
	_, err := c.request(ctx, "PUT", fmt.Sprintf("/spreadsheets/%s/values", sheetID), map[string]interface{}{
		"sheet_name": sheetName,
		"values":     values,
	})
	return err
}

func (c *SheetsClient) formatHeaderBold(ctx context.Context, sheetID, sheetName string, cols int) error {
	endCell, _ := columnName(cols)
	_, err := c.request(ctx, "POST", fmt.Sprintf("/spreadsheets/%s/format", sheetID), map[string]interface{}{
		"sheet_name": sheetName,
		"range":      "A1:" + endCell + "1",
		"bold":       true,
	})
	return err
}

// statusError carries the HTTP status for conflict detection.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("sheets bridge error (status %d): %s", e.status, e.body)
}

func isConflict(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusConflict
}

func (c *SheetsClient) request(ctx context.Context, method, path string, payload map[string]interface{}) (*sheetResponse, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		log.Printf("❌ [EXPORT] Sheets bridge error (status %d) for %s %s", resp.StatusCode, method, path)
		return nil, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(body))}
	}

	var parsed sheetResponse
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse bridge response: %w", err)
		}
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("sheets bridge error: %s", parsed.Error)
	}
	return &parsed, nil
}

// columnName converts a 1-based column index to its A1-notation letter(s).
func columnName(col int) (string, error) {
	name := ""
	for col > 0 {
		col--
		name = string(rune('A'+col%26)) + name
		col /= 26
	}
	if name == "" {
		return "", fmt.Errorf("invalid column index")
	}
	return name, nil
}
