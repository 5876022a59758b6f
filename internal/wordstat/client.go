// Package wordstat talks to the Wordstat report API: a single JSON-over-HTTP
// endpoint where reports are created, polled for readiness, fetched and
// deleted. The protocol is asynchronous: a created report takes up to a
// couple of minutes to become ready.
package wordstat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// APIError is a logic-level error returned inside a 200 response envelope.
// These must never crash the poll loop; they surface as failed outcomes.
type APIError struct {
	Code   int    `json:"error_code"`
	Detail string `json:"error_detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wordstat API error %d: %s", e.Code, e.Detail)
}

// ReportStatus is one entry of the live-report listing.
type ReportStatus struct {
	ReportID     int    `json:"ReportID"`
	StatusReport string `json:"StatusReport"`
}

// Client is the low-level Wordstat protocol client. It is stateless and safe
// for concurrent use.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Wordstat client for the given endpoint and OAuth token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// request sends one protocol envelope and returns the raw "data" payload.
func (c *Client) request(ctx context.Context, method string, params interface{}) (json.RawMessage, error) {
	payload := map[string]interface{}{
		"method": method,
		"token":  c.token,
		"param":  params,
		"locale": "ru",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ [WORDSTAT] HTTP %d from %s: %s", resp.StatusCode, method, string(respBody))
		return nil, fmt.Errorf("wordstat HTTP error %d", resp.StatusCode)
	}

	var envelope struct {
		Data        json.RawMessage `json:"data"`
		ErrorCode   int             `json:"error_code"`
		ErrorDetail string          `json:"error_detail"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse response envelope: %w", err)
	}

	if envelope.ErrorCode != 0 {
		apiErr := &APIError{Code: envelope.ErrorCode, Detail: envelope.ErrorDetail}
		log.Printf("❌ [WORDSTAT] %s: %v", method, apiErr)
		return nil, apiErr
	}

	return envelope.Data, nil
}

// CreateReport submits a new report for the given seed phrases and returns
// its report ID. GeoID 0 means worldwide.
func (c *Client) CreateReport(ctx context.Context, phrases []string, geoIDs []int) (int, error) {
	if len(geoIDs) == 0 {
		geoIDs = []int{0}
	}

	log.Printf("📤 [WORDSTAT] Requesting report for %d phrase(s)", len(phrases))

	data, err := c.request(ctx, "CreateNewWordstatReport", map[string]interface{}{
		"Phrases": phrases,
		"GeoID":   geoIDs,
	})
	if err != nil {
		return 0, err
	}

	var reportID int
	if err := json.Unmarshal(data, &reportID); err != nil {
		return 0, fmt.Errorf("unexpected CreateNewWordstatReport payload: %w", err)
	}
	if reportID == 0 {
		return 0, fmt.Errorf("report service returned no report ID")
	}
	return reportID, nil
}

// ListReports returns the service's live-report listing.
func (c *Client) ListReports(ctx context.Context) ([]ReportStatus, error) {
	data, err := c.request(ctx, "GetWordstatReportList", map[string]interface{}{})
	if err != nil {
		return nil, err
	}

	var reports []ReportStatus
	if err := json.Unmarshal(data, &reports); err != nil {
		return nil, fmt.Errorf("unexpected GetWordstatReportList payload: %w", err)
	}
	return reports, nil
}

// reportEntry is one seed's section of a completed report. SearchedWith
// carries the expanded keyword universe.
type reportEntry struct {
	Phrase       string `json:"Phrase"`
	SearchedWith []struct {
		Phrase string `json:"Phrase"`
		Shows  int    `json:"Shows"`
	} `json:"SearchedWith"`
}

// GetReport fetches a completed report's contents.
func (c *Client) GetReport(ctx context.Context, reportID int) ([]reportEntry, error) {
	data, err := c.request(ctx, "GetWordstatReport", reportID)
	if err != nil {
		return nil, err
	}

	var entries []reportEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("unexpected GetWordstatReport payload: %w", err)
	}
	return entries, nil
}

// DeleteReport removes a report from the service. Callers treat this as
// best-effort cleanup; failures are logged, not propagated into outcomes.
func (c *Client) DeleteReport(ctx context.Context, reportID int) error {
	_, err := c.request(ctx, "DeleteWordstatReport", reportID)
	return err
}
