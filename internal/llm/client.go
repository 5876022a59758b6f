// Package llm is the generation capability: an OpenAI-compatible
// chat-completions client plus the prompt builders and strict response
// parsers the pipeline stages share.
package llm

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

	"semantist/internal/config"
)

const defaultTemperature = 0.7

// Client calls an OpenAI-compatible /chat/completions endpoint. Stateless,
// safe for concurrent use; one instance is shared by all stages.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
}

// NewClient creates an LLM client. Temperature can be retuned via the
// overrides file.
func NewClient(baseURL, apiKey, model string, overrides *config.Overrides) *Client {
	temperature := defaultTemperature
	if overrides != nil && overrides.Temperature != nil {
		temperature = *overrides.Temperature
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

// Complete sends one system+user exchange and returns the raw content of the
// first choice. JSON mode is requested; markdown code fences are stripped
// because some models wrap JSON in them regardless.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	requestBody := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"stream":      false,
		"temperature": c.temperature,
		"response_format": map[string]string{
			"type": "json_object",
		},
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [LLM] API error: %s", string(body))
		return "", fmt.Errorf("LLM API error (status %d)", resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return "", fmt.Errorf("failed to parse API response: %w", err)
	}

	if len(apiResponse.Choices) == 0 {
		return "", fmt.Errorf("no choices in LLM response")
	}

	content := strings.TrimSpace(apiResponse.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("empty content from LLM")
	}

	return stripMarkdownCodeBlock(content), nil
}

// stripMarkdownCodeBlock removes a surrounding ```json ... ``` fence.
func stripMarkdownCodeBlock(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}
