package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Fetcher.Type != "http" && cfg.Fetcher.Type != "browser" {
		return fmt.Errorf("fetcher.type must be 'http' or 'browser', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.RequestTimeout <= 0 {
		return fmt.Errorf("fetcher.request_timeout must be > 0")
	}
	if cfg.Fetcher.Delay < 0 {
		return fmt.Errorf("fetcher.delay must be >= 0")
	}
	if cfg.Fetcher.MaxRetries < 1 {
		return fmt.Errorf("fetcher.max_retries must be >= 1, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryDelay < 0 {
		return fmt.Errorf("fetcher.retry_delay must be >= 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}

	if cfg.Discovery.MaxSitemapDepth < 0 {
		return fmt.Errorf("discovery.max_sitemap_depth must be >= 0, got %d", cfg.Discovery.MaxSitemapDepth)
	}

	if err := ValidateURL(cfg.Import.BaseURL); err != nil {
		return fmt.Errorf("import.base_url: %w", err)
	}
	caps := map[string]int{
		"import.max_categories":     cfg.Import.MaxCategories,
		"import.max_products":       cfg.Import.MaxProducts,
		"import.max_articles":       cfg.Import.MaxArticles,
		"import.featured_count":     cfg.Import.FeaturedCount,
		"import.synthetic_products": cfg.Import.SyntheticProducts,
		"import.synthetic_articles": cfg.Import.SyntheticArticles,
	}
	for key, val := range caps {
		if val < 0 {
			return fmt.Errorf("%s must be >= 0, got %d", key, val)
		}
	}
	if cfg.Import.FallbackCategoryID < 1 {
		return fmt.Errorf("import.fallback_category_id must be >= 1")
	}

	switch cfg.Store.Type {
	case "memory":
	case "mongo":
		if cfg.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required for the mongo store")
		}
	case "postgres":
		if cfg.Store.PostgresDSN == "" {
			return fmt.Errorf("store.postgres_dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("store.type %q is not supported (valid: memory, mongo, postgres)", cfg.Store.Type)
	}

	if cfg.API.Mode != "debug" && cfg.API.Mode != "release" && cfg.API.Mode != "test" {
		return fmt.Errorf("api.mode must be debug/release/test, got %q", cfg.API.Mode)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

// ValidateURL checks if a URL string is usable as an import source.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
