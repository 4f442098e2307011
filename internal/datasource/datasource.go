// Package datasource fetches raw company statements. The screener.in
// scraper is the live source; the file source replays a snapshot written
// by the fetch command.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/seenimoa/fundalens/pkg/models"
)

// Source produces the raw statements for one company.
type Source interface {
	// Name returns the human-readable name of this source.
	Name() string

	// FetchCompany returns every statement the source has for ticker.
	FetchCompany(ctx context.Context, ticker string, opts FetchOptions) (*models.CompanyData, error)
}

// FetchOptions tune a single fetch.
type FetchOptions struct {
	// Standalone skips the consolidated statements.
	Standalone bool
}

// ════════════════════════════════════════════════════════════════════
// Errors
// ════════════════════════════════════════════════════════════════════

// ErrTickerNotFound is returned when a ticker cannot be resolved.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrRateLimited is returned when the source keeps rate-limiting after
// every retry.
var ErrRateLimited = errors.New("rate limited by data source")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// ════════════════════════════════════════════════════════════════════
// HTTP helpers
// ════════════════════════════════════════════════════════════════════

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single page request.
const DefaultTimeout = 30 * time.Second

// response is a fetched body with the URL it was finally served from.
type response struct {
	Body       []byte
	FinalURL   string
	StatusCode int
}

// doGet performs a GET request and reads the whole body. Any status of
// 400 or above is returned as *ErrHTTP together with the status code.
func doGet(ctx context.Context, client *http.Client, url, userAgent string, headers map[string]string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html, application/json, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &response{StatusCode: resp.StatusCode}, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return &response{Body: body, FinalURL: resp.Request.URL.String(), StatusCode: resp.StatusCode}, nil
}

// statusOf returns the HTTP status carried by err, or 0.
func statusOf(err error) int {
	var httpErr *ErrHTTP
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}
