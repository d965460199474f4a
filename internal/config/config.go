package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for the okkyno importer.
type Config struct {
	Fetcher   FetcherConfig   `mapstructure:"fetcher"   yaml:"fetcher"`
	Discovery DiscoveryConfig `mapstructure:"discovery" yaml:"discovery"`
	Import    ImportConfig    `mapstructure:"import"    yaml:"import"`
	Store     StoreConfig     `mapstructure:"store"     yaml:"store"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// FetcherConfig controls page retrieval.
type FetcherConfig struct {
	Type            string        `mapstructure:"type"              yaml:"type"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"   yaml:"request_timeout"`
	Delay           time.Duration `mapstructure:"delay"             yaml:"delay"`
	MaxRetries      int           `mapstructure:"max_retries"       yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"       yaml:"retry_delay"`
	MaxRetryAfter   time.Duration `mapstructure:"max_retry_after"   yaml:"max_retry_after"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	TLSInsecure     bool          `mapstructure:"tls_insecure"      yaml:"tls_insecure"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`
	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	Stealth         bool          `mapstructure:"stealth"           yaml:"stealth"`
}

// DiscoveryConfig controls sitemap and homepage URL discovery.
type DiscoveryConfig struct {
	SitemapPaths    []string `mapstructure:"sitemap_paths"     yaml:"sitemap_paths"`
	MaxSitemapDepth int      `mapstructure:"max_sitemap_depth" yaml:"max_sitemap_depth"`
	UseRobotsTxt    bool     `mapstructure:"use_robots_txt"    yaml:"use_robots_txt"`
	CrawlHomepage   bool     `mapstructure:"crawl_homepage"    yaml:"crawl_homepage"`
}

// ImportConfig controls a single import run.
type ImportConfig struct {
	BaseURL             string `mapstructure:"base_url"              yaml:"base_url"`
	MaxCategories       int    `mapstructure:"max_categories"        yaml:"max_categories"`
	MaxProducts         int    `mapstructure:"max_products"          yaml:"max_products"`
	MaxArticles         int    `mapstructure:"max_articles"          yaml:"max_articles"`
	FeaturedCount       int    `mapstructure:"featured_count"        yaml:"featured_count"`
	FallbackCategoryID  int64  `mapstructure:"fallback_category_id"  yaml:"fallback_category_id"`
	DefaultAuthorID     int64  `mapstructure:"default_author_id"     yaml:"default_author_id"`
	SynthesizeWhenEmpty bool   `mapstructure:"synthesize_when_empty" yaml:"synthesize_when_empty"`
	SyntheticProducts   int    `mapstructure:"synthetic_products"    yaml:"synthetic_products"`
	SyntheticArticles   int    `mapstructure:"synthetic_articles"    yaml:"synthetic_articles"`
	Seed                int64  `mapstructure:"seed"                  yaml:"seed"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Type        string        `mapstructure:"type"         yaml:"type"`
	MongoURI    string        `mapstructure:"mongo_uri"    yaml:"mongo_uri"`
	Database    string        `mapstructure:"database"     yaml:"database"`
	PostgresDSN string        `mapstructure:"postgres_dsn" yaml:"postgres_dsn"`
	Timeout     time.Duration `mapstructure:"timeout"      yaml:"timeout"`
}

// APIConfig controls the HTTP trigger server.
type APIConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	Mode string `mapstructure:"mode" yaml:"mode"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Type:            "http",
			RequestTimeout:  25 * time.Second,
			Delay:           2 * time.Second,
			MaxRetries:      3,
			RetryDelay:      2 * time.Second,
			MaxRetryAfter:   2 * time.Minute,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    20,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
			},
		},
		Discovery: DiscoveryConfig{
			SitemapPaths: []string{
				"/sitemap.xml",
				"/sitemap_index.xml",
				"/wp-sitemap.xml",
				"/product-sitemap.xml",
				"/post-sitemap.xml",
			},
			MaxSitemapDepth: 3,
			UseRobotsTxt:    true,
			CrawlHomepage:   true,
		},
		Import: ImportConfig{
			BaseURL:             "https://okkyno.com",
			MaxCategories:       20,
			MaxProducts:         200,
			MaxArticles:         100,
			FeaturedCount:       8,
			FallbackCategoryID:  1,
			DefaultAuthorID:     1,
			SynthesizeWhenEmpty: false,
			SyntheticProducts:   50,
			SyntheticArticles:   20,
		},
		Store: StoreConfig{
			Type:     "memory",
			MongoURI: "mongodb://localhost:27017",
			Database: "okkyno",
			Timeout:  10 * time.Second,
		},
		API: APIConfig{
			Addr: ":8080",
			Mode: "release",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
