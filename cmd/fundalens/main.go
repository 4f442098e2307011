// fundalens normalises screener.in financial statements and scores
// listed Indian companies.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seenimoa/fundalens/api"
	"github.com/seenimoa/fundalens/internal/analyzer"
	"github.com/seenimoa/fundalens/internal/config"
	"github.com/seenimoa/fundalens/internal/datasource"
	"github.com/seenimoa/fundalens/internal/report"
	"github.com/seenimoa/fundalens/pkg/models"
	"github.com/seenimoa/fundalens/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger, set by the root command.
var (
	cfg    *config.Config
	logger *zap.Logger
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fundalens",
	Short: "fundalens: financial statement scorecards for NSE companies",
	Long: `fundalens fetches a company's statements from screener.in, normalises
ordinary and banking layouts into one record per period, derives trends
and scores quality, valuation and price position.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		logger, err = newLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(flowCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
}

// newLogger builds a zap logger writing to stderr so reports on stdout
// stay clean.
func newLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lc.Format != "json" {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zc.DisableStacktrace = true
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// sourceFor returns the snapshot source when path is set, the live
// scraper otherwise.
func sourceFor(path string) datasource.Source {
	if path != "" {
		return datasource.NewFileSource(path)
	}
	return datasource.NewScreener(cfg.Scraper.Screener(), logger)
}

// fetchOptions honours --standalone and falls back to the configured
// basis.
func fetchOptions(cmd *cobra.Command) datasource.FetchOptions {
	standalone := !cfg.Scraper.Consolidated
	if cmd.Flags().Changed("standalone") {
		standalone, _ = cmd.Flags().GetBool("standalone")
	}
	return datasource.FetchOptions{Standalone: standalone}
}

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("standalone", false, "use standalone instead of consolidated statements")
	cmd.Flags().String("from-file", "", "read statements from a snapshot written by 'fetch'")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fundalens %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker...]",
	Short: "Score one or more companies",
	Long: `Fetch, normalise and score companies. One ticker prints the full
report; several tickers (or --watchlist) print a summary table.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		tickers := args
		if path, _ := cmd.Flags().GetString("watchlist"); path != "" {
			listed, err := analyzer.LoadWatchlist(path)
			if err != nil {
				return err
			}
			tickers = append(tickers, listed...)
		}
		if len(tickers) == 0 {
			return errors.New("provide at least one ticker or --watchlist")
		}

		fromFile, _ := cmd.Flags().GetString("from-file")
		src := sourceFor(fromFile)
		opts := fetchOptions(cmd)
		asJSON, _ := cmd.Flags().GetBool("json")

		if len(tickers) > 1 {
			return analyzeBatch(cmd.Context(), src, tickers, opts, asJSON)
		}

		ticker := utils.NormalizeTicker(tickers[0])
		data, err := src.FetchCompany(cmd.Context(), ticker, opts)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ticker, err)
		}
		res := analyzer.Analyze(data)

		rcfg := report.DefaultReportConfig()
		rcfg.Brief, _ = cmd.Flags().GetBool("brief")

		if htmlPath, _ := cmd.Flags().GetString("html"); htmlPath != "" {
			html, err := report.GenerateHTML(res, data, rcfg)
			if err != nil {
				return err
			}
			if err := os.WriteFile(htmlPath, []byte(html), 0o644); err != nil {
				return fmt.Errorf("write html report: %w", err)
			}
			logger.Info("html report written", zap.String("path", htmlPath))
		}

		if asJSON {
			return printJSON(res)
		}
		text, err := report.GenerateText(res, data, rcfg)
		if err != nil {
			return err
		}
		fmt.Print(text)
		return nil
	},
}

func analyzeBatch(ctx context.Context, src datasource.Source, tickers []string, opts datasource.FetchOptions, asJSON bool) error {
	runner := analyzer.NewRunner(src, cfg.Analysis.Concurrency, logger)
	items := runner.Batch(ctx, tickers, opts)

	if asJSON {
		if err := printJSON(items); err != nil {
			return err
		}
	} else {
		fmt.Print(report.SummaryTable(items))
	}

	for _, it := range items {
		if it.Error == "" {
			return nil
		}
	}
	return fmt.Errorf("all %d tickers failed", len(items))
}

func init() {
	addSourceFlags(analyzeCmd)
	analyzeCmd.Flags().String("watchlist", "", "file with one ticker per line")
	analyzeCmd.Flags().Bool("json", false, "print the analysis as JSON")
	analyzeCmd.Flags().Bool("brief", false, "print only the scorecard, key metrics and flags")
	analyzeCmd.Flags().String("html", "", "also write an HTML report to this path")
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [ticker]",
	Short: "Download raw statements to a snapshot file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		src := datasource.NewScreener(cfg.Scraper.Screener(), logger)
		data, err := src.FetchCompany(cmd.Context(), ticker, fetchOptions(cmd))
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ticker, err)
		}

		out, _ := cmd.Flags().GetString("output")
		if out == "" {
			return printJSON(data)
		}
		if err := datasource.WriteSnapshot(out, data); err != nil {
			return err
		}
		logger.Info("snapshot written", zap.String("ticker", ticker), zap.String("path", out))
		return nil
	},
}

func init() {
	fetchCmd.Flags().Bool("standalone", false, "use standalone instead of consolidated statements")
	fetchCmd.Flags().StringP("output", "o", "", "snapshot path (default: stdout)")
}

// --- Flow Command ---

var flowCmd = &cobra.Command{
	Use:   "flow [ticker]",
	Short: "Show how revenue flows down to net profit for one period",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := utils.NormalizeTicker(args[0])
		fromFile, _ := cmd.Flags().GetString("from-file")
		data, err := sourceFor(fromFile).FetchCompany(cmd.Context(), ticker, fetchOptions(cmd))
		if err != nil {
			return fmt.Errorf("fetch %s: %w", ticker, err)
		}

		period, _ := cmd.Flags().GetString("period")
		quarterly, _ := cmd.Flags().GetBool("quarterly")
		d, err := report.BuildFlow(data, period, quarterly)
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(d)
		}
		printFlow(d)
		return nil
	},
}

func printFlow(d *models.FlowDiagram) {
	period := d.Period
	if t, ok := utils.ParsePeriod(d.Period); ok && d.Kind == models.PeriodAnnual {
		period += " (" + utils.FiscalYear(t) + ")"
	}
	fmt.Printf("%s (%s) | %s %s | %s\n", d.Name, d.Ticker, d.Kind, period, d.Schema)
	fmt.Println(strings.Repeat("─", 56))
	for _, r := range d.Waterfall {
		label := "  " + r.Label
		if r.Total {
			label = r.Label
		}
		fmt.Printf("%-32s %14s %7.1f%%\n", label, utils.FormatCrores(r.Value), r.PctOfRevenue)
	}
	fmt.Println()
	fmt.Println("Flows:")
	labels := make(map[string]string, len(d.Nodes))
	for _, n := range d.Nodes {
		labels[n.ID] = n.Label
	}
	for _, l := range d.Links {
		fmt.Printf("  %-22s → %-22s %12s\n", labels[l.Source], labels[l.Target], utils.FormatCrores(l.Value))
	}
}

func init() {
	addSourceFlags(flowCmd)
	flowCmd.Flags().String("period", "", "period label or year, e.g. \"Mar 2023\" or 2023 (default: latest)")
	flowCmd.Flags().Bool("quarterly", false, "use the quarterly results table")
	flowCmd.Flags().Bool("json", false, "print the diagram as JSON")
}

// --- Serve Command (API Server) ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.API.Port, _ = cmd.Flags().GetInt("port")
		}
		fromFile, _ := cmd.Flags().GetString("from-file")

		api.Version = version
		srv := api.NewServer(cfg, sourceFor(fromFile), logger)
		return srv.ListenAndServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default from config)")
	serveCmd.Flags().String("from-file", "", "serve a snapshot instead of live data")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		basis := "consolidated"
		if !cfg.Scraper.Consolidated {
			basis = "standalone"
		}
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  fundalens status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (IST):    %s\n", utils.FormatDateTimeIST(utils.NowIST()))
		fmt.Println()
		fmt.Println("  Configuration:")
		fmt.Printf("    Source:        %s (%s)\n", cfg.Scraper.BaseURL, basis)
		fmt.Printf("    Rate limit:    %.2f req/s, cache %s\n", cfg.Scraper.RequestsPerSecond, cfg.Scraper.CacheTTL)
		fmt.Printf("    Concurrency:   %d\n", cfg.Analysis.Concurrency)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Printf("    Logging:       %s (%s)\n", cfg.Logging.Level, cfg.Logging.Format)
		fmt.Printf("    Env prefix:    %s_\n", config.EnvPrefix)
		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}
