package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rehmanul/okkyno.com-sub000/internal/discovery"
	"github.com/rehmanul/okkyno.com-sub000/internal/importer"
	"github.com/rehmanul/okkyno.com-sub000/internal/store"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

var (
	exportPath  string
	discoverOut string
)

// importCmd creates the "import" subcommand.
func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Run a full discover → extract → import pass in the foreground",
		RunE:  runImport,
	}

	cmd.Flags().Int("max-categories", 0, "cap on category URLs per run")
	cmd.Flags().Int("max-products", 0, "cap on product URLs per run")
	cmd.Flags().Int("max-articles", 0, "cap on article URLs per run")
	cmd.Flags().Bool("synthesize", false, "import a synthetic catalog when nothing is discovered")
	cmd.Flags().Int("synthetic-products", 0, "synthetic products to generate on fallback")
	cmd.Flags().Int("synthetic-articles", 0, "synthetic articles to generate on fallback")
	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "write the resulting catalog to a .json or .jsonl file")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("starting import",
		"base_url", a.cfg.Import.BaseURL,
		"store", a.store.Name(),
		"fetcher", a.fetcher.Type(),
	)

	im := importer.New(a.fetcher, a.store, a.cfg, a.logger, a.metrics)
	sum, err := im.Run(ctx)
	printSummary(sum)
	if err != nil && !errors.Is(err, types.ErrHostUnreachable) {
		return fmt.Errorf("import: %w", err)
	}

	if exportPath != "" {
		if err := store.Export(ctx, a.store, exportPath, a.logger); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("   Output:    %s\n", exportPath)
	}
	return err
}

// discoverCmd creates the "discover" subcommand.
func discoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover [url]",
		Short: "List the category, product and article URLs a run would import",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDiscover,
	}
	cmd.Flags().StringVarP(&discoverOut, "output", "o", "", "write buckets as JSON to this file")
	return cmd
}

func runDiscover(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) == 1 {
		baseURL = args[0]
	}
	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	d := discovery.New(a.fetcher, a.cfg.Discovery, a.logger, a.metrics)
	buckets, err := d.Discover(ctx, a.cfg.Import.BaseURL)
	if err != nil && !errors.Is(err, types.ErrHostUnreachable) {
		return err
	}

	if discoverOut != "" {
		data, merr := json.MarshalIndent(buckets, "", "  ")
		if merr != nil {
			return merr
		}
		if werr := os.WriteFile(discoverOut, data, 0o644); werr != nil {
			return fmt.Errorf("write %s: %w", discoverOut, werr)
		}
	}

	printBucket("Categories", buckets.CategoryURLs, a.cfg.Import.MaxCategories)
	printBucket("Products", buckets.ProductURLs, a.cfg.Import.MaxProducts)
	printBucket("Articles", buckets.ArticleURLs, a.cfg.Import.MaxArticles)
	return err
}

// generateCmd creates the "generate" subcommand.
func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Import a synthetic catalog without touching the network",
		RunE:  runGenerate,
	}
	cmd.Flags().Int("synthetic-products", 0, "products to generate")
	cmd.Flags().Int("synthetic-articles", 0, "articles to generate")
	cmd.Flags().StringVarP(&exportPath, "export", "o", "", "write the resulting catalog to a .json or .jsonl file")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	im := importer.New(nil, a.store, a.cfg, a.logger, a.metrics)
	sum, err := im.RunSynthetic(ctx)
	printSummary(sum)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if exportPath != "" {
		if err := store.Export(ctx, a.store, exportPath, a.logger); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("   Output:    %s\n", exportPath)
	}
	return nil
}

func printSummary(sum *importer.Summary) {
	if sum == nil {
		return
	}
	fmt.Printf("\n✅ Import (%s) finished in %s\n", sum.Source, sum.Duration().Round(time.Millisecond))
	if sum.HostUnreachable {
		fmt.Printf("   ⚠ base host unreachable: every discovery fetch failed\n")
	}
	row := func(label string, c importer.Counts) {
		fmt.Printf("   %-11s %d discovered, %d created, %d duplicate, %d invalid, %d failed\n",
			label+":", c.Discovered, c.Created, c.Duplicate, c.Invalid, c.Failed)
	}
	row("Categories", sum.Categories)
	row("Products", sum.Products)
	row("Articles", sum.Articles)
	if len(sum.Featured) > 0 {
		fmt.Printf("   Featured:   %v\n", sum.Featured)
	}
	for _, r := range sum.Failures() {
		fmt.Printf("   ✗ %s %s: %v\n", r.Kind, r.URL, r.Err)
	}
}

func printBucket(label string, urls []string, limit int) {
	fmt.Printf("%s (%d, cap %d):\n", label, len(urls), limit)
	for _, u := range urls {
		fmt.Printf("  %s\n", u)
	}
}
