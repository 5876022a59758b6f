// Package scraper fetches landing pages and extracts their readable text for
// seed suggestion and ad-copy context. Plain HTTP first, headless Chrome when
// the page comes back blocked or too thin to use.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/markusmobius/go-trafilatura"
	cache "github.com/patrickmn/go-cache"
)

const (
	defaultUserAgent  = "SemantistBot/1.0 (+https://semantist.example.com/bot)"
	defaultMaxBody    = 10 * 1024 * 1024
	defaultGlobalRate = 10.0

	// minUsefulContent separates a real landing page from an anti-bot stub.
	minUsefulContent = 200
)

// blockMarkers in a page title indicate an anti-bot interstitial rather than
// real content.
var blockMarkers = []string{"captcha", "access denied", "robot", "security check"}

// Service fetches a page and returns its readable text.
type Service struct {
	client        *Client
	rateLimiter   *RateLimiter
	robotsChecker *RobotsChecker
	contentCache  *cache.Cache
}

// NewService creates the scraper service.
func NewService() *Service {
	s := &Service{
		client:        NewClient(),
		rateLimiter:   NewRateLimiter(defaultGlobalRate),
		robotsChecker: NewRobotsChecker(defaultUserAgent),
		contentCache:  cache.New(1*time.Hour, 10*time.Minute),
	}
	log.Printf("✅ [SCRAPER] Service initialized: global_rate=%.1f req/s", defaultGlobalRate)
	return s
}

// FetchText returns the main readable text of the page at urlStr. Results are
// cached for an hour. Blocked or near-empty plain fetches are retried once
// through headless Chrome before giving up.
func (s *Service) FetchText(ctx context.Context, urlStr string) (string, error) {
	startTime := time.Now()

	if err := ValidateURL(urlStr); err != nil {
		return "", err
	}
	parsedURL, _ := url.Parse(urlStr)
	domain := parsedURL.Host

	if cached, found := s.contentCache.Get(urlStr); found {
		log.Printf("✅ [SCRAPER] Cache hit for %s", urlStr)
		return cached.(string), nil
	}

	allowed, crawlDelay, err := s.robotsChecker.CanFetch(ctx, urlStr)
	if err != nil {
		log.Printf("⚠️ [SCRAPER] Failed to check robots.txt for %s: %v", urlStr, err)
		crawlDelay = 1 * time.Second
	}
	if !allowed {
		return "", fmt.Errorf("access blocked by robots.txt for: %s", urlStr)
	}

	if err := s.rateLimiter.Wait(ctx, domain, crawlDelay); err != nil {
		return "", fmt.Errorf("rate limit error: %w", err)
	}

	html, err := s.fetchPlain(ctx, urlStr)
	title, text := "", ""
	if err == nil {
		title, text = extractText(html, parsedURL)
	}

	if err != nil || looksBlocked(title, text) {
		if err != nil {
			log.Printf("⚠️ [SCRAPER] Plain fetch failed for %s, trying headless: %v", urlStr, err)
		} else {
			log.Printf("⚠️ [SCRAPER] Page looks blocked or empty (%s), trying headless", urlStr)
		}
		html, err = FetchRendered(ctx, urlStr)
		if err != nil {
			return "", fmt.Errorf("failed to fetch page: %w", err)
		}
		title, text = extractText(html, parsedURL)
	}

	if looksBlocked(title, text) {
		return "", fmt.Errorf("no usable content extracted from %s", urlStr)
	}

	s.contentCache.Set(urlStr, text, cache.DefaultExpiration)
	log.Printf("✅ [SCRAPER] Fetched %s (latency: %dms, length: %d chars)",
		urlStr, time.Since(startTime).Milliseconds(), len(text))
	return text, nil
}

func (s *Service) fetchPlain(ctx context.Context, urlStr string) (string, error) {
	resp, err := s.client.Get(ctx, urlStr)
	if err != nil {
		return "", fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("HTTP error %d: %s", resp.StatusCode, resp.Status)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") &&
		!strings.Contains(contentType, "application/xhtml+xml") &&
		!strings.Contains(contentType, "text/plain") {
		return "", fmt.Errorf("unsupported content type: %s", contentType)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBody))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(body), nil
}

// extractText runs readability extraction over raw HTML.
func extractText(html string, pageURL *url.URL) (title, text string) {
	result, err := trafilatura.Extract(bytes.NewReader([]byte(html)), trafilatura.Options{
		OriginalURL: pageURL,
	})
	if err != nil || result == nil {
		return "", ""
	}
	return result.Metadata.Title, strings.TrimSpace(result.ContentText)
}

// looksBlocked applies the anti-bot heuristics: a marker in the title or
// too little extracted text.
func looksBlocked(title, text string) bool {
	lower := strings.ToLower(title)
	for _, marker := range blockMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return len(text) < minUsefulContent
}

// ValidateURL checks the URL is http(s) and not pointed at internal hosts.
func ValidateURL(urlStr string) error {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("only HTTP/HTTPS URLs are supported, got: %q", parsedURL.Scheme)
	}

	hostname := strings.ToLower(parsedURL.Hostname())
	if hostname == "" {
		return fmt.Errorf("URL has no host")
	}
	if hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return fmt.Errorf("localhost URLs are not allowed")
	}

	privateRanges := []string{
		"192.168.", "10.", "172.16.", "172.17.", "172.18.", "172.19.",
		"172.20.", "172.21.", "172.22.", "172.23.", "172.24.", "172.25.",
		"172.26.", "172.27.", "172.28.", "172.29.", "172.30.", "172.31.",
		"169.254.",
		"fd",
	}
	for _, prefix := range privateRanges {
		if strings.HasPrefix(hostname, prefix) {
			return fmt.Errorf("private IP addresses are not allowed")
		}
	}
	return nil
}
