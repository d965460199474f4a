package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from .env, file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied on top by the caller.
func Load(configPath string) (*Config, error) {
	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("OKKYNO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("okkyno")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".okkyno"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.delay", cfg.Fetcher.Delay)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_delay", cfg.Fetcher.RetryDelay)
	v.SetDefault("fetcher.max_retry_after", cfg.Fetcher.MaxRetryAfter)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)

	v.SetDefault("discovery.sitemap_paths", cfg.Discovery.SitemapPaths)
	v.SetDefault("discovery.max_sitemap_depth", cfg.Discovery.MaxSitemapDepth)
	v.SetDefault("discovery.use_robots_txt", cfg.Discovery.UseRobotsTxt)
	v.SetDefault("discovery.crawl_homepage", cfg.Discovery.CrawlHomepage)

	v.SetDefault("import.base_url", cfg.Import.BaseURL)
	v.SetDefault("import.max_categories", cfg.Import.MaxCategories)
	v.SetDefault("import.max_products", cfg.Import.MaxProducts)
	v.SetDefault("import.max_articles", cfg.Import.MaxArticles)
	v.SetDefault("import.featured_count", cfg.Import.FeaturedCount)
	v.SetDefault("import.fallback_category_id", cfg.Import.FallbackCategoryID)
	v.SetDefault("import.default_author_id", cfg.Import.DefaultAuthorID)
	v.SetDefault("import.synthesize_when_empty", cfg.Import.SynthesizeWhenEmpty)
	v.SetDefault("import.synthetic_products", cfg.Import.SyntheticProducts)
	v.SetDefault("import.synthetic_articles", cfg.Import.SyntheticArticles)
	v.SetDefault("import.seed", cfg.Import.Seed)

	v.SetDefault("store.type", cfg.Store.Type)
	v.SetDefault("store.mongo_uri", cfg.Store.MongoURI)
	v.SetDefault("store.database", cfg.Store.Database)
	v.SetDefault("store.postgres_dsn", cfg.Store.PostgresDSN)
	v.SetDefault("store.timeout", cfg.Store.Timeout)

	v.SetDefault("api.addr", cfg.API.Addr)
	v.SetDefault("api.mode", cfg.API.Mode)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
