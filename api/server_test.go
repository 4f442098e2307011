package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/seenimoa/fundalens/internal/config"
	"github.com/seenimoa/fundalens/internal/datasource"
	"github.com/seenimoa/fundalens/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

// fakeSource serves canned companies and records the options it saw.
type fakeSource struct {
	mu        sync.Mutex
	companies map[string]*models.CompanyData
	errs      map[string]error
	opts      []datasource.FetchOptions
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchCompany(_ context.Context, ticker string, opts datasource.FetchOptions) (*models.CompanyData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opts = append(f.opts, opts)
	if err, ok := f.errs[ticker]; ok {
		return nil, err
	}
	d, ok := f.companies[ticker]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ticker, datasource.ErrTickerNotFound)
	}
	return d, nil
}

func (f *fakeSource) lastOpts() datasource.FetchOptions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opts[len(f.opts)-1]
}

func acme() *models.CompanyData {
	pl := models.NewTableSection("Mar 2023", "Mar 2024")
	pl.AddRow("Sales +", "900", "1,000")
	pl.AddRow("Expenses +", "650", "700")
	pl.AddRow("Operating Profit", "250", "300")
	pl.AddRow("OPM %", "28%", "30%")
	pl.AddRow("Other Income +", "15", "20")
	pl.AddRow("Interest", "10", "20")
	pl.AddRow("Depreciation", "40", "50")
	pl.AddRow("Profit before tax", "215", "250")
	pl.AddRow("Tax %", "25%", "25%")
	pl.AddRow("Net Profit +", "160", "180")

	return &models.CompanyData{
		Ticker:       "ACME",
		Name:         "Acme Industries Ltd",
		Consolidated: true,
		TopRatios: map[string]string{
			"Market Cap":    "12,000",
			"Current Price": "1,200",
			"Stock P/E":     "18.5",
		},
		ProfitLoss: pl,
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Scraper:  config.ScraperConfig{Consolidated: true},
		Analysis: config.AnalysisConfig{Concurrency: 2},
		API:      config.APIConfig{Host: "127.0.0.1", Port: 0, RequestTimeout: 5 * time.Second},
		Logging:  config.LoggingConfig{Level: "info", Format: "text"},
	}
}

func testServer(t *testing.T) (*Server, *fakeSource) {
	t.Helper()
	src := &fakeSource{
		companies: map[string]*models.CompanyData{"ACME": acme()},
		errs: map[string]error{
			"BUSY": datasource.ErrRateLimited,
			"DOWN": &datasource.ErrHTTP{StatusCode: 503, Status: "Service Unavailable"},
		},
	}
	return NewServer(testConfig(), src, nil), src
}

type rawResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func do(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) rawResponse {
	t.Helper()
	var resp rawResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// ════════════════════════════════════════════════════════════════════
// Health / Config
// ════════════════════════════════════════════════════════════════════

func TestHandleHealth(t *testing.T) {
	srv, _ := testServer(t)
	for _, path := range []string{"/health", "/api/v1/health"} {
		t.Run(path, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			resp := decodeResponse(t, rec)
			var data map[string]string
			if err := json.Unmarshal(resp.Data, &data); err != nil {
				t.Fatalf("decode data: %v", err)
			}
			if data["status"] != "ok" || data["source"] != "fake" {
				t.Errorf("health data = %v", data)
			}
		})
	}
}

func TestHandleGetConfig(t *testing.T) {
	srv, _ := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/config", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var cfg ConfigResponse
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &cfg); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if cfg.Concurrency != 2 || cfg.RequestTimeout != "5s" || cfg.EnvPrefix != "FUNDALENS" {
		t.Errorf("config = %+v", cfg)
	}
}

// ════════════════════════════════════════════════════════════════════
// Analysis
// ════════════════════════════════════════════════════════════════════

func TestHandleAnalysis(t *testing.T) {
	srv, src := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/analysis/acme", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	resp := decodeResponse(t, rec)
	if !resp.Success {
		t.Fatalf("success = false: %s", resp.Error)
	}

	var got struct {
		Source string `json:"source"`
		Result struct {
			Ticker string        `json:"ticker"`
			Schema models.Schema `json:"schema"`
		} `json:"result"`
	}
	if err := json.Unmarshal(resp.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.Source != "fake" || got.Result.Ticker != "ACME" || got.Result.Schema != models.SchemaOrdinary {
		t.Errorf("analysis = %+v", got)
	}
	if src.lastOpts().Standalone {
		t.Error("consolidated config should fetch consolidated statements")
	}
}

func TestHandleAnalysis_Standalone(t *testing.T) {
	srv, src := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/analysis/ACME?standalone=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !src.lastOpts().Standalone {
		t.Error("standalone=true not passed to the source")
	}

	rec = do(t, srv, http.MethodGet, "/api/v1/analysis/ACME?standalone=maybe", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid flag: status = %d, want 400", rec.Code)
	}
}

func TestHandleAnalysis_Errors(t *testing.T) {
	tests := []struct {
		ticker string
		want   int
	}{
		{"NOPE", http.StatusNotFound},
		{"BUSY", http.StatusTooManyRequests},
		{"DOWN", http.StatusBadGateway},
	}
	srv, _ := testServer(t)
	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/v1/analysis/"+tt.ticker, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			resp := decodeResponse(t, rec)
			if resp.Success || resp.Error == "" {
				t.Errorf("error envelope = %+v", resp)
			}
		})
	}
}

func TestHandleBatch(t *testing.T) {
	srv, _ := testServer(t)
	rec := do(t, srv, http.MethodPost, "/api/v1/analysis", `{"tickers":["acme","NOPE","ACME",""]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var got BatchResponse
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	tickers := make([]string, len(got.Items))
	for i, it := range got.Items {
		tickers[i] = it.Ticker
	}
	if diff := cmp.Diff([]string{"ACME", "NOPE"}, tickers); diff != "" {
		t.Errorf("tickers mismatch (-want +got):\n%s", diff)
	}
	if got.Failed != 1 {
		t.Errorf("failed = %d, want 1", got.Failed)
	}
	if got.Items[0].Result == nil || got.Items[1].Error == "" {
		t.Errorf("items = %+v", got.Items)
	}
}

func TestHandleBatch_BadRequests(t *testing.T) {
	many := make([]string, MaxBatch+1)
	for i := range many {
		many[i] = fmt.Sprintf("T%d", i)
	}
	tooMany, _ := json.Marshal(BatchRequest{Tickers: many})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"tickers":`},
		{"empty", `{"tickers":[]}`},
		{"blank tickers", `{"tickers":[" ",""]}`},
		{"too many", string(tooMany)},
	}
	srv, _ := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPost, "/api/v1/analysis", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

// ════════════════════════════════════════════════════════════════════
// Report / Flow
// ════════════════════════════════════════════════════════════════════

func TestHandleReport(t *testing.T) {
	tests := []struct {
		query       string
		contentType string
		contains    string
	}{
		{"", "text/html", "<!DOCTYPE html>"},
		{"?format=text", "text/plain", "SCORECARD"},
		{"?format=text&brief=true", "text/plain", "Acme Industries Ltd"},
	}
	srv, _ := testServer(t)
	for _, tt := range tests {
		t.Run("format"+tt.query, func(t *testing.T) {
			rec := do(t, srv, http.MethodGet, "/api/v1/report/ACME"+tt.query, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
				t.Errorf("Content-Type = %q, want %s", ct, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("body missing %q", tt.contains)
			}
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/v1/report/ACME?format=pdf", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown format: status = %d, want 400", rec.Code)
	}
}

func TestHandleFlow(t *testing.T) {
	srv, _ := testServer(t)
	rec := do(t, srv, http.MethodGet, "/api/v1/flow/ACME?period=2023", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Period string            `json:"period"`
		Nodes  []models.FlowNode `json:"nodes"`
		Links  []models.FlowLink `json:"links"`
	}
	if err := json.Unmarshal(decodeResponse(t, rec).Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if got.Period != "Mar 2023" {
		t.Errorf("period = %q, want Mar 2023", got.Period)
	}
	if len(got.Nodes) == 0 || len(got.Links) == 0 {
		t.Errorf("empty diagram: %d nodes, %d links", len(got.Nodes), len(got.Links))
	}
}

func TestHandleFlow_Errors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"unknown period", "/api/v1/flow/ACME?period=Jun 2001", http.StatusNotFound},
		{"no quarterly statement", "/api/v1/flow/ACME?quarterly=true", http.StatusUnprocessableEntity},
		{"bad quarterly flag", "/api/v1/flow/ACME?quarterly=yes", http.StatusBadRequest},
		{"unknown ticker", "/api/v1/flow/NOPE", http.StatusNotFound},
	}
	srv, _ := testServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := strings.ReplaceAll(tt.target, " ", "%20")
			rec := do(t, srv, http.MethodGet, target, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := testServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/analysis", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestListenAndServe_Shutdown(t *testing.T) {
	srv, _ := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ListenAndServe() = %v, want nil after cancel", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
