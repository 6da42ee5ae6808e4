package textextract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/ledgerlens/backend/internal/domain"
)

// HTTPExtractor fetches extracted document text from an OCR service. It
// implements domain.TextExtractor.
type HTTPExtractor struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
}

// textResponse is the OCR service's response envelope
type textResponse struct {
	Text string `json:"text"`
}

// NewHTTPExtractor creates an OCR service client
func NewHTTPExtractor(apiKey, baseURL string) *HTTPExtractor {
	// The OCR service allows 1000 requests per hour
	// rate.Limit is requests per second, so 1000/3600 ≈ 0.278 requests/sec
	limiter := rate.NewLimiter(rate.Limit(0.278), 10) // burst of 10 requests

	return &HTTPExtractor{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (e *HTTPExtractor) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "LedgerLens/1.0")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnreadableDocument, err)
	}

	return resp, nil
}

// ExtractText fetches the extracted text for a document handle. Transient
// failures are retried up to 3 times with backoff; a missing document or an
// empty extraction maps to ErrUnreadableDocument.
func (e *HTTPExtractor) ExtractText(ctx context.Context, handle string) (string, error) {
	log.Printf("[OCR] ExtractText called for handle: %q", handle)

	endpoint := fmt.Sprintf("%s/v1/documents/%s/text", e.baseURL, url.PathEscape(handle))
	params := url.Values{}
	params.Add("api_key", e.apiKey)

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	// Retry up to 3 times for transient failures
	var lastErr error
	for attempt := 1; attempt <= 3; attempt++ {
		// Wait for rate limiter
		if err := e.rateLimiter.Wait(ctx); err != nil {
			log.Printf("[OCR] Rate limiter error: %v", err)
			return "", fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := e.doRequest(ctx, reqURL)
		if err != nil {
			log.Printf("[OCR] Request error (attempt %d): %v", attempt, err)
			lastErr = err
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		// Retry on upstream errors; a 404 is a hard miss
		if resp.StatusCode != http.StatusOK {
			log.Printf("[OCR] Service error (attempt %d) - Status: %d, Body: %s", attempt, resp.StatusCode, string(body))
			if resp.StatusCode == http.StatusNotFound {
				return "", fmt.Errorf("%w: document %s not found", domain.ErrUnreadableDocument, handle)
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUnreadableDocument, resp.StatusCode)
			time.Sleep(time.Duration(attempt*500) * time.Millisecond)
			continue
		}

		var extracted textResponse
		if err := json.Unmarshal(body, &extracted); err != nil {
			log.Printf("[OCR] JSON decode error: %v", err)
			return "", fmt.Errorf("failed to decode response: %w", err)
		}

		if extracted.Text == "" {
			log.Printf("[OCR] Empty extraction for handle: %q", handle)
			return "", fmt.Errorf("%w: empty extraction for %s", domain.ErrUnreadableDocument, handle)
		}

		log.Printf("[OCR] Extracted %d bytes for handle: %q", len(extracted.Text), handle)
		return extracted.Text, nil
	}

	log.Printf("[OCR] All retries failed for handle: %q", handle)
	return "", lastErr
}
