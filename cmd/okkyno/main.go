package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/fetcher"
	"github.com/rehmanul/okkyno.com-sub000/internal/observability"
	"github.com/rehmanul/okkyno.com-sub000/internal/store"
)

var (
	cfgFile     string
	verbose     bool
	baseURL     string
	storeType   string
	fetcherType string
	delay       string
	seed        int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "okkyno",
		Short: "okkyno: storefront catalog importer",
		Long: `okkyno populates a gardening storefront catalog from a remote site.

It discovers category, product and article URLs from robots.txt, sitemaps
and homepage navigation, extracts a record from each page, fills the fields
source pages rarely expose, and creates the records in a store (memory,
MongoDB or PostgreSQL). Existing slugs are skipped, never overwritten.
When nothing can be scraped it can generate a look-alike catalog instead.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "storefront to import from (overrides import.base_url)")
	rootCmd.PersistentFlags().StringVar(&storeType, "store", "", "store backend: memory, mongo, postgres")
	rootCmd.PersistentFlags().StringVar(&fetcherType, "fetcher", "", "fetcher: http or browser")
	rootCmd.PersistentFlags().StringVar(&delay, "delay", "", "politeness delay between requests")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "seed for synthesized fields (0 = time based)")

	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(discoverCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// app bundles the collaborators every command needs.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	fetcher fetcher.Fetcher
	store   store.Store
	closers []io.Closer
}

// loadConfig reads, overrides and validates the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applyCLIOverrides(cmd, cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp loads config and opens the fetcher and store. withFetcher is false
// for commands that never touch the network.
func newApp(ctx context.Context, cmd *cobra.Command, withFetcher bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := setupLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}
	if closeLog != nil {
		a.closers = append(a.closers, closeLog)
	}
	if cfg.Metrics.Enabled {
		a.metrics = observability.NewMetrics(logger)
	}

	if withFetcher {
		f, err := fetcher.New(cfg, logger, a.metrics)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create fetcher: %w", err)
		}
		a.fetcher = f
		a.closers = append(a.closers, f)
	}

	s, err := store.New(ctx, cfg.Store, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = s
	a.closers = append(a.closers, s)

	return a, nil
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("okkyno %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			fmt.Printf("Fetcher:\n")
			fmt.Printf("  Type:              %s\n", cfg.Fetcher.Type)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Politeness Delay:  %s\n", cfg.Fetcher.Delay)
			fmt.Printf("  Max Retries:       %d\n", cfg.Fetcher.MaxRetries)
			fmt.Printf("  Retry Delay:       %s\n", cfg.Fetcher.RetryDelay)
			fmt.Printf("  User Agents:       %d configured\n", len(cfg.Fetcher.UserAgents))
			fmt.Printf("\nDiscovery:\n")
			fmt.Printf("  Sitemaps:          %s\n", strings.Join(cfg.Discovery.SitemapPaths, ", "))
			fmt.Printf("  Max Sitemap Depth: %d\n", cfg.Discovery.MaxSitemapDepth)
			fmt.Printf("  Use robots.txt:    %v\n", cfg.Discovery.UseRobotsTxt)
			fmt.Printf("  Crawl Homepage:    %v\n", cfg.Discovery.CrawlHomepage)
			fmt.Printf("\nImport:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Import.BaseURL)
			fmt.Printf("  Caps:              %d categories, %d products, %d articles\n",
				cfg.Import.MaxCategories, cfg.Import.MaxProducts, cfg.Import.MaxArticles)
			fmt.Printf("  Featured:          first %d products\n", cfg.Import.FeaturedCount)
			fmt.Printf("  Fallback Category: %d\n", cfg.Import.FallbackCategoryID)
			fmt.Printf("  Synthesize Empty:  %v (%d products, %d articles)\n",
				cfg.Import.SynthesizeWhenEmpty, cfg.Import.SyntheticProducts, cfg.Import.SyntheticArticles)
			fmt.Printf("\nStore:\n")
			fmt.Printf("  Type:              %s\n", cfg.Store.Type)
			fmt.Printf("  Database:          %s\n", cfg.Store.Database)
			fmt.Printf("\nAPI:\n")
			fmt.Printf("  Addr:              %s\n", cfg.API.Addr)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Path:              %s\n", cfg.Metrics.Path)
			return nil
		},
	}
	return cmd
}

// setupLogger creates a structured logger from the logging config. The
// returned closer is non-nil when logs go to a file.
func setupLogger(lc config.LoggingConfig) (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	switch lc.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer
	)
	switch lc.Output {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	default:
		f, err := os.OpenFile(lc.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler), closer, nil
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) error {
	if baseURL != "" {
		cfg.Import.BaseURL = baseURL
	}
	if storeType != "" {
		cfg.Store.Type = strings.ToLower(storeType)
	}
	if fetcherType != "" {
		cfg.Fetcher.Type = strings.ToLower(fetcherType)
	}
	if delay != "" {
		d, err := time.ParseDuration(delay)
		if err != nil {
			return fmt.Errorf("invalid --delay %q: %w", delay, err)
		}
		cfg.Fetcher.Delay = d
	}
	if cmd.Flags().Changed("seed") {
		cfg.Import.Seed = seed
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return applyCommandOverrides(cmd, cfg)
}

// applyCommandOverrides copies per-command flags that were set explicitly.
func applyCommandOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	ints := map[string]*int{
		"max-categories":     &cfg.Import.MaxCategories,
		"max-products":       &cfg.Import.MaxProducts,
		"max-articles":       &cfg.Import.MaxArticles,
		"synthetic-products": &cfg.Import.SyntheticProducts,
		"synthetic-articles": &cfg.Import.SyntheticArticles,
	}
	for name, dst := range ints {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	if flags.Lookup("synthesize") != nil && flags.Changed("synthesize") {
		v, err := flags.GetBool("synthesize")
		if err != nil {
			return err
		}
		cfg.Import.SynthesizeWhenEmpty = v
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		v, err := flags.GetString("addr")
		if err != nil {
			return err
		}
		cfg.API.Addr = v
	}
	return nil
}
