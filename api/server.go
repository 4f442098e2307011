// Package api provides the HTTP REST API server for fundalens.
//
// It exposes endpoints for single and batch analysis, rendered reports
// and revenue flow diagrams.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/seenimoa/fundalens/internal/analyzer"
	"github.com/seenimoa/fundalens/internal/config"
	"github.com/seenimoa/fundalens/internal/datasource"
	"github.com/seenimoa/fundalens/internal/report"
	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// MaxBatch caps the tickers accepted by one batch request.
const MaxBatch = 50

// Version is reported by the health endpoint. Overridden at build time.
var Version = "dev"

// Server is the HTTP API server.
type Server struct {
	router chi.Router
	cfg    *config.Config
	src    datasource.Source
	runner *analyzer.Runner
	log    *zap.Logger
}

// NewServer creates a configured API server with all routes and
// middleware. A nil logger discards output.
func NewServer(cfg *config.Config, src datasource.Source, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("api")
	srv := &Server{
		cfg:    cfg,
		src:    src,
		runner: analyzer.NewRunner(src, cfg.Analysis.Concurrency, log),
		log:    log,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:         s.cfg.API.Addr(),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: s.cfg.API.RequestTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	if s.cfg.API.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.API.RequestTimeout))
	}

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/config", s.handleGetConfig)

		r.Get("/analysis/{ticker}", s.handleAnalysis)
		r.Post("/analysis", s.handleBatch)
		r.Get("/report/{ticker}", s.handleReport)
		r.Get("/flow/{ticker}", s.handleFlow)
	})

	return r
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("elapsed", time.Since(start)),
					zap.String("request_id", middleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// BatchRequest is the body for POST /api/v1/analysis.
type BatchRequest struct {
	Tickers    []string `json:"tickers"`
	Standalone *bool    `json:"standalone,omitempty"`
}

// AnalysisResponse pairs a result with the source it came from.
type AnalysisResponse struct {
	Source string                 `json:"source"`
	Result *models.AnalysisResult `json:"result"`
}

// BatchResponse is the payload of POST /api/v1/analysis.
type BatchResponse struct {
	Items  []models.BatchItem `json:"items"`
	Failed int                `json:"failed"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":   "ok",
			"version":  Version,
			"source":   s.src.Name(),
			"time_ist": utils.FormatDateTimeIST(utils.NowIST()),
		},
	})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	opts, err := s.fetchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.runner.One(r.Context(), ticker, opts)
	if err != nil {
		s.fail(w, ticker, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    AnalysisResponse{Source: s.src.Name(), Result: res},
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tickers := make([]string, 0, len(req.Tickers))
	seen := make(map[string]bool)
	for _, t := range req.Tickers {
		t = utils.NormalizeTicker(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	switch {
	case len(tickers) == 0:
		writeError(w, http.StatusBadRequest, "tickers are required")
		return
	case len(tickers) > MaxBatch:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d tickers per request", MaxBatch))
		return
	}

	opts := datasource.FetchOptions{Standalone: !s.cfg.Scraper.Consolidated}
	if req.Standalone != nil {
		opts.Standalone = *req.Standalone
	}

	items := s.runner.Batch(r.Context(), tickers, opts)
	failed := 0
	for _, it := range items {
		if it.Error != "" {
			failed++
		}
	}
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    BatchResponse{Items: items, Failed: failed},
	})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	opts, err := s.fetchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.src.FetchCompany(r.Context(), ticker, opts)
	if err != nil {
		s.fail(w, ticker, err)
		return
	}
	res := analyzer.Analyze(data)

	cfg := report.DefaultReportConfig()
	cfg.Brief = r.URL.Query().Get("brief") == "true"

	var (
		body        string
		contentType string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "html":
		body, err = report.GenerateHTML(res, data, cfg)
		contentType = "text/html; charset=utf-8"
	case "text":
		body, err = report.GenerateText(res, data, cfg)
		contentType = "text/plain; charset=utf-8"
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q; use html or text", format))
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	ticker := utils.NormalizeTicker(chi.URLParam(r, "ticker"))
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	opts, err := s.fetchOptions(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	quarterly, err := boolParam(r, "quarterly", false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.src.FetchCompany(r.Context(), ticker, opts)
	if err != nil {
		s.fail(w, ticker, err)
		return
	}
	diagram, err := report.BuildFlow(data, r.URL.Query().Get("period"), quarterly)
	if err != nil {
		s.fail(w, ticker, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: diagram})
}

// ============================================================
// Helpers
// ============================================================

// fetchOptions reads ?standalone=, defaulting to the configured basis.
func (s *Server) fetchOptions(r *http.Request) (datasource.FetchOptions, error) {
	standalone, err := boolParam(r, "standalone", !s.cfg.Scraper.Consolidated)
	if err != nil {
		return datasource.FetchOptions{}, err
	}
	return datasource.FetchOptions{Standalone: standalone}, nil
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q", name, raw)
	}
	return v, nil
}

// fail logs err and writes it with the status that matches its cause.
func (s *Server) fail(w http.ResponseWriter, ticker string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("ticker", ticker), zap.Error(err))
	} else {
		s.log.Debug("request rejected", zap.String("ticker", ticker), zap.Int("status", status), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, datasource.ErrTickerNotFound), errors.Is(err, report.ErrPeriodNotFound):
		return http.StatusNotFound
	case errors.Is(err, report.ErrNoStatement):
		return http.StatusUnprocessableEntity
	case errors.Is(err, datasource.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
