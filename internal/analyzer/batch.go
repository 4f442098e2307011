package analyzer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fundalens/internal/datasource"
	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// DefaultConcurrency bounds parallel fetches when none is configured.
const DefaultConcurrency = 4

// Runner fetches and analyses companies from one source.
type Runner struct {
	Source      datasource.Source
	Concurrency int
	Log         *zap.Logger
}

// NewRunner creates a runner. A nil logger discards output.
func NewRunner(src datasource.Source, concurrency int, log *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Source: src, Concurrency: concurrency, Log: log}
}

// One fetches and analyses a single ticker.
func (r *Runner) One(ctx context.Context, ticker string, opts datasource.FetchOptions) (*models.AnalysisResult, error) {
	data, err := r.Source.FetchCompany(ctx, ticker, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", ticker, err)
	}
	return Analyze(data), nil
}

// Batch analyses every ticker with at most Concurrency fetches in
// flight. Items keep the input order; a failing ticker records its
// error and never stops the others.
func (r *Runner) Batch(ctx context.Context, tickers []string, opts datasource.FetchOptions) []models.BatchItem {
	items := make([]models.BatchItem, len(tickers))

	var g errgroup.Group
	g.SetLimit(r.Concurrency)
	for i, ticker := range tickers {
		items[i].Ticker = utils.NormalizeTicker(ticker)
		g.Go(func() error {
			res, err := r.One(ctx, ticker, opts)
			if err != nil {
				r.Log.Warn("analysis failed", zap.String("ticker", items[i].Ticker), zap.Error(err))
				items[i].Error = err.Error()
				return nil
			}
			items[i].Result = res
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// LoadWatchlist reads tickers one per line. Blank lines and lines
// starting with "#" are ignored, and so is anything after a "#".
func LoadWatchlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open watchlist: %w", err)
	}
	defer f.Close()

	var tickers []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		t := utils.NormalizeTicker(line)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		tickers = append(tickers, t)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}
	return tickers, nil
}
