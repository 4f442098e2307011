package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/seenimoa/fundalens/internal/infra"
	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// DefaultScreenerURL is the public screener.in site.
const DefaultScreenerURL = "https://www.screener.in"

const (
	maxAttempts         = 3
	defaultRetryBackoff = 3 * time.Second
)

var companyIDPattern = regexp.MustCompile(`/api/company/(\d+)/`)

// Segment rows that are reconciliation lines rather than businesses.
var segmentSkip = map[string]bool{
	"Sales":               true,
	"Less: Intersegment":  true,
	"Unallocated":         true,
	"Reconciling Items":   true,
	"Reconciline Items":   true,
	"Segment Adjustments": true,
}

// ScreenerConfig configures the screener.in scraper.
type ScreenerConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
	// RetryBackoff is the first wait after a 429; the n-th retry waits
	// n times as long.
	RetryBackoff time.Duration
}

// Screener implements Source by scraping screener.in company pages.
type Screener struct {
	cfg     ScreenerConfig
	client  *http.Client
	cache   *infra.Cache[*models.CompanyData]
	limiter *infra.RateLimiter
	log     *zap.Logger
}

// NewScreener creates a screener.in source. Zero config fields take
// their defaults; a nil logger discards output.
func NewScreener(cfg ScreenerConfig, log *zap.Logger) *Screener {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultScreenerURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Screener{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		cache:   infra.NewCache[*models.CompanyData](cfg.CacheTTL),
		limiter: infra.NewRateLimiter(cfg.RequestsPerSecond),
		log:     log.Named("screener"),
	}
}

// Name returns the data source name.
func (s *Screener) Name() string { return "Screener.in" }

// FetchCompany scrapes the company page and its expense and segment
// schedules. Consolidated statements are preferred; the standalone page
// is used when the consolidated one is missing or has no annual P&L.
func (s *Screener) FetchCompany(ctx context.Context, ticker string, opts FetchOptions) (*models.CompanyData, error) {
	symbol := utils.ScreenerSymbol(ticker)
	if symbol == "" {
		return nil, fmt.Errorf("empty ticker: %w", ErrTickerNotFound)
	}
	if utils.IsIndex(symbol) {
		return nil, fmt.Errorf("%s is an index: %w", symbol, ErrTickerNotFound)
	}

	cacheKey := symbol + ":consolidated"
	if opts.Standalone {
		cacheKey = symbol + ":standalone"
	}
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached, nil
	}

	page, doc, err := s.companyPage(ctx, symbol, !opts.Standalone)
	if err != nil {
		return nil, err
	}

	data := parseCompany(doc, page.Body)
	data.Ticker = utils.NormalizeTicker(ticker)
	data.URL = page.FinalURL
	data.Consolidated = strings.Contains(page.FinalURL, "consolidated")
	data.FetchedAt = utils.NowIST()

	if data.CompanyID != "" {
		data.ExpenseBreakdown = s.fetchExpenses(ctx, data.CompanyID, data.Consolidated)
		data.Segments = s.fetchSegments(ctx, data.CompanyID, data.Consolidated)
	}

	s.log.Info("fetched company",
		zap.String("ticker", data.Ticker),
		zap.Bool("consolidated", data.Consolidated),
		zap.Int("annual_periods", len(data.ProfitLoss.Periods)),
		zap.Int("segments", len(data.Segments)),
	)
	s.cache.Set(cacheKey, data)
	return data, nil
}

// companyPage fetches the company page, falling back from consolidated
// to standalone.
func (s *Screener) companyPage(ctx context.Context, symbol string, consolidated bool) (*response, *goquery.Document, error) {
	standaloneURL := fmt.Sprintf("%s/company/%s/", s.cfg.BaseURL, symbol)
	if !consolidated {
		return s.page(ctx, standaloneURL, symbol)
	}

	page, doc, err := s.page(ctx, standaloneURL+"consolidated/", symbol)
	switch {
	case errors.Is(err, ErrTickerNotFound):
		s.log.Debug("no consolidated page, trying standalone", zap.String("symbol", symbol))
		return s.page(ctx, standaloneURL, symbol)
	case err != nil:
		return nil, nil, err
	}

	if len(parseTable(doc, "profit-loss").Periods) == 0 {
		s.log.Debug("consolidated P&L empty, trying standalone", zap.String("symbol", symbol))
		if p, d, err := s.page(ctx, standaloneURL, symbol); err == nil {
			return p, d, nil
		}
	}
	return page, doc, nil
}

// page fetches and parses one HTML page. A 404 maps to
// ErrTickerNotFound.
func (s *Screener) page(ctx context.Context, url, symbol string) (*response, *goquery.Document, error) {
	resp, err := s.get(ctx, url, nil)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return nil, nil, fmt.Errorf("screener.in %s: %w", symbol, ErrTickerNotFound)
		}
		return nil, nil, fmt.Errorf("screener.in %s: %w", symbol, err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse screener HTML: %w", err)
	}
	return resp, doc, nil
}

// get performs a rate-limited GET, retrying 429 responses with a
// linearly growing backoff.
func (s *Screener) get(ctx context.Context, url string, headers map[string]string) (*response, error) {
	for attempt := 1; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := doGet(ctx, s.client, url, s.cfg.UserAgent, headers)
		if statusOf(err) != http.StatusTooManyRequests {
			return resp, err
		}
		if attempt == maxAttempts {
			return nil, fmt.Errorf("%s after %d attempts: %w", url, attempt, ErrRateLimited)
		}

		wait := s.cfg.RetryBackoff * time.Duration(attempt)
		s.log.Warn("rate limited, backing off", zap.String("url", url), zap.Duration("wait", wait))
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

var xhrHeaders = map[string]string{"X-Requested-With": "XMLHttpRequest"}

// fetchExpenses reads the latest period of the expense schedule. The
// schedule is optional; failures only log.
func (s *Screener) fetchExpenses(ctx context.Context, companyID string, consolidated bool) map[string]string {
	url := fmt.Sprintf("%s/api/company/%s/schedules/?parent=Expenses&section=profit-loss", s.cfg.BaseURL, companyID)
	if consolidated {
		url += "&consolidated"
	}
	resp, err := s.get(ctx, url, xhrHeaders)
	if err != nil {
		s.log.Warn("expense schedule unavailable", zap.String("company_id", companyID), zap.Error(err))
		return nil
	}
	out, err := parseExpenseSchedule(resp.Body)
	if err != nil {
		s.log.Warn("expense schedule unreadable", zap.String("company_id", companyID), zap.Error(err))
		return nil
	}
	return out
}

// fetchSegments lists business segment names. Failures only log.
func (s *Screener) fetchSegments(ctx context.Context, companyID string, consolidated bool) []string {
	url := fmt.Sprintf("%s/api/segments/%s/profit-loss/1/", s.cfg.BaseURL, companyID)
	if consolidated {
		url += "?consolidated=true"
	}
	resp, err := s.get(ctx, url, xhrHeaders)
	if err != nil {
		s.log.Warn("segments unavailable", zap.String("company_id", companyID), zap.Error(err))
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil
	}
	return parseSegments(doc)
}

// ════════════════════════════════════════════════════════════════════
// Page parsing
// ════════════════════════════════════════════════════════════════════

func parseCompany(doc *goquery.Document, html []byte) *models.CompanyData {
	data := &models.CompanyData{
		Name:             cleanText(doc.Find("h1").First()),
		TopRatios:        parseTopRatios(doc),
		CompoundedGrowth: parseCompoundedGrowth(doc),
		ProfitLoss:       parseTable(doc, "profit-loss"),
		Quarterly:        parseTable(doc, "quarters"),
		BalanceSheet:     parseTable(doc, "balance-sheet"),
		CashFlow:         parseTable(doc, "cash-flow"),
		Ratios:           parseTable(doc, "ratios"),
		Shareholding:     parseTable(doc, "shareholding"),
		Pros:             listItems(doc, ".pros li"),
		Cons:             listItems(doc, ".cons li"),
		Peers:            parsePeers(doc),
	}
	if m := companyIDPattern.FindSubmatch(html); m != nil {
		data.CompanyID = string(m[1])
	}
	return data
}

func cleanText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// parseTopRatios reads the headline ratio list. Items with several
// numbers, like "High / Low", are joined with "/".
func parseTopRatios(doc *goquery.Document) map[string]string {
	ratios := make(map[string]string)
	doc.Find("#top-ratios li").Each(func(_ int, li *goquery.Selection) {
		name := cleanText(li.Find(".name"))
		if name == "" {
			return
		}
		var numbers []string
		li.Find(".number").Each(func(_ int, n *goquery.Selection) {
			numbers = append(numbers, cleanText(n))
		})
		ratios[name] = strings.Join(numbers, "/")
	})
	return ratios
}

// parseCompoundedGrowth reads the "Compounded Sales Growth" style range
// tables: a category header row, then "3 Years:" / "18%" rows.
func parseCompoundedGrowth(doc *goquery.Document) map[string]map[string]string {
	growth := make(map[string]map[string]string)
	doc.Find("table.ranges-table").Each(func(_ int, tbl *goquery.Selection) {
		rows := tbl.Find("tr")
		category := cleanText(rows.First().Find("th, td").First())
		if category == "" {
			return
		}
		values := make(map[string]string)
		rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
			cells := tr.Find("th, td")
			if cells.Length() < 2 {
				return
			}
			key := strings.TrimSuffix(cleanText(cells.Eq(0)), ":")
			values[key] = cleanText(cells.Eq(1))
		})
		if len(values) > 0 {
			growth[category] = values
		}
	})
	return growth
}

// parseTable reads a statement table: the first row holds the period
// headers, every other row a label and its cells. Trailing "+" expander
// markers are dropped from labels.
func parseTable(doc *goquery.Document, sectionID string) *models.TableSection {
	section := models.NewTableSection()
	rows := doc.Find("section#" + sectionID + " table").First().Find("tr")
	if rows.Length() == 0 {
		return section
	}

	rows.First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
		if i == 0 {
			return
		}
		if text := cleanText(cell); text != "" {
			section.Periods = append(section.Periods, text)
		}
	})

	rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
		cells := tr.Find("th, td")
		if cells.Length() == 0 {
			return
		}
		label := strings.TrimSpace(strings.TrimSuffix(cleanText(cells.First()), "+"))
		if label == "" {
			return
		}
		values := make([]string, 0, cells.Length()-1)
		cells.Slice(1, cells.Length()).Each(func(_ int, c *goquery.Selection) {
			values = append(values, cleanText(c))
		})
		section.AddRow(label, values...)
	})
	return section
}

func listItems(doc *goquery.Document, selector string) []string {
	var items []string
	doc.Find(selector).Each(func(_ int, li *goquery.Selection) {
		if text := cleanText(li); text != "" {
			items = append(items, text)
		}
	})
	return items
}

// parsePeers reads the peer comparison table by header name.
func parsePeers(doc *goquery.Document) []models.Peer {
	rows := doc.Find("section#peers table tr")
	if rows.Length() < 2 {
		return nil
	}
	var headers []string
	rows.First().Find("th, td").Each(func(_ int, c *goquery.Selection) {
		headers = append(headers, strings.ToLower(cleanText(c)))
	})

	var peers []models.Peer
	rows.Slice(1, rows.Length()).Each(func(_ int, tr *goquery.Selection) {
		var p models.Peer
		tr.Find("th, td").Each(func(i int, c *goquery.Selection) {
			if i >= len(headers) {
				return
			}
			text := cleanText(c)
			switch h := headers[i]; {
			case h == "name":
				p.Name = text
			case strings.HasPrefix(h, "cmp"):
				p.Price = utils.ParseNumber(text)
			case h == "p/e":
				p.PE = utils.ParseNumber(text)
			case strings.HasPrefix(h, "mar cap"):
				p.MarketCap = utils.ParseNumber(text)
			case strings.HasPrefix(h, "roce"):
				p.ROCE = utils.ParseNumber(text)
			}
		})
		if p.Name != "" {
			peers = append(peers, p)
		}
	})
	return peers
}

// parseExpenseSchedule picks the latest period of each expense line.
// The schedule maps "Employee Cost %" to a period -> value object that
// may also carry an "isExpandable" flag.
func parseExpenseSchedule(body []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode expense schedule: %w", err)
	}
	out := make(map[string]string)
	for line, msg := range raw {
		var periods map[string]any
		if err := json.Unmarshal(msg, &periods); err != nil {
			continue
		}
		var latest time.Time
		var value string
		for period, v := range periods {
			t, ok := utils.ParsePeriod(period)
			s, isString := v.(string)
			if !ok || !isString {
				continue
			}
			if t.After(latest) {
				latest, value = t, s
			}
		}
		name := strings.TrimSpace(strings.TrimSuffix(line, "%"))
		if value != "" && utils.ParseNumber(value) > 0 {
			out[name] = value
		}
	}
	return out, nil
}

func parseSegments(doc *goquery.Document) []string {
	var segments []string
	doc.Find(`tbody[data-segment-line="Sales"] table tr`).Each(func(_ int, tr *goquery.Selection) {
		name := cleanText(tr.Find("td").First())
		if name != "" && !segmentSkip[name] {
			segments = append(segments, name)
		}
	})
	return segments
}
