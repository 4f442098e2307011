package api

import (
	"net/http"

	"github.com/seenimoa/fundalens/internal/config"
)

// ConfigResponse is the JSON payload of GET /api/v1/config.
type ConfigResponse struct {
	Source            string   `json:"source"`
	BaseURL           string   `json:"base_url"`
	RequestsPerSecond float64  `json:"requests_per_second"`
	CacheTTL          string   `json:"cache_ttl"`
	Consolidated      bool     `json:"consolidated"`
	Concurrency       int      `json:"concurrency"`
	RequestTimeout    string   `json:"request_timeout"`
	CORSOrigins       []string `json:"cors_origins"`
	EnvPrefix         string   `json:"env_prefix"`
}

// handleGetConfig returns the settings the running server was started
// with. The server holds no secrets, so nothing is masked.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Source:            s.src.Name(),
			BaseURL:           s.cfg.Scraper.BaseURL,
			RequestsPerSecond: s.cfg.Scraper.RequestsPerSecond,
			CacheTTL:          s.cfg.Scraper.CacheTTL.String(),
			Consolidated:      s.cfg.Scraper.Consolidated,
			Concurrency:       s.cfg.Analysis.Concurrency,
			RequestTimeout:    s.cfg.API.RequestTimeout.String(),
			CORSOrigins:       s.cfg.API.CORSOrigins,
			EnvPrefix:         config.EnvPrefix,
		},
	})
}
