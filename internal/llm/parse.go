package llm

import (
	"encoding/json"
	"log"

	"semantist/internal/models"
)

// Strict contract validation at the capability boundary: each parser expects
// one documented top-level shape and returns the empty result on any
// mismatch. Malformed model output degrades a single stage, never the
// pipeline.

// ParseAds extracts the {"ads": [...]} response shape.
func ParseAds(content string) []models.AdCopy {
	var response struct {
		Ads []models.AdCopy `json:"ads"`
	}
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		log.Printf("⚠️ [LLM] Unexpected ads response shape: %v", err)
		return nil
	}
	if response.Ads == nil {
		log.Printf("⚠️ [LLM] Ads response missing \"ads\" key")
		return nil
	}
	return response.Ads
}

// ParsePhrases extracts the {"phrases": [...]} response shape.
func ParsePhrases(content string) []string {
	var response struct {
		Phrases []string `json:"phrases"`
	}
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		log.Printf("⚠️ [LLM] Unexpected phrases response shape: %v", err)
		return nil
	}
	if response.Phrases == nil {
		log.Printf("⚠️ [LLM] Phrases response missing \"phrases\" key")
		return nil
	}
	return response.Phrases
}

// ParseGroups extracts the name→keywords mapping response shape used by
// clustering.
func ParseGroups(content string) map[string][]string {
	var groups map[string][]string
	if err := json.Unmarshal([]byte(content), &groups); err != nil {
		log.Printf("⚠️ [LLM] Unexpected groups response shape: %v", err)
		return nil
	}
	return groups
}
