package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

const postgresSchema = `
CREATE TABLE IF NOT EXISTS categories (
    id          BIGSERIAL PRIMARY KEY,
    name        TEXT NOT NULL,
    slug        TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    image_url   TEXT NOT NULL,
    source_url  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS products (
    id                BIGSERIAL PRIMARY KEY,
    name              TEXT NOT NULL,
    slug              TEXT NOT NULL UNIQUE,
    description       TEXT NOT NULL DEFAULT '',
    short_description TEXT NOT NULL DEFAULT '',
    price             NUMERIC(10,2) NOT NULL CHECK (price > 0),
    compare_price     NUMERIC(10,2),
    sale_price        NUMERIC(10,2),
    image_url         TEXT NOT NULL,
    image_urls        TEXT[] NOT NULL DEFAULT '{}',
    video_url         TEXT NOT NULL DEFAULT '',
    video_urls        TEXT[] NOT NULL DEFAULT '{}',
    category_id       BIGINT NOT NULL,
    sku               TEXT NOT NULL,
    stock             INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
    featured          BOOLEAN NOT NULL DEFAULT false,
    rating            NUMERIC(2,1) NOT NULL,
    review_count      INTEGER NOT NULL DEFAULT 0,
    tags              TEXT[] NOT NULL DEFAULT '{}',
    botanical_name    TEXT NOT NULL DEFAULT '',
    difficulty        TEXT NOT NULL DEFAULT '',
    dimensions        TEXT NOT NULL DEFAULT '',
    weight            TEXT NOT NULL DEFAULT '',
    source_url        TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS blog_posts (
    id          BIGSERIAL PRIMARY KEY,
    title       TEXT NOT NULL,
    slug        TEXT NOT NULL UNIQUE,
    content     TEXT NOT NULL,
    excerpt     TEXT NOT NULL,
    image_url   TEXT NOT NULL,
    author_id   BIGINT NOT NULL,
    published   BOOLEAN NOT NULL DEFAULT true,
    category    TEXT NOT NULL DEFAULT '',
    tags        TEXT[] NOT NULL DEFAULT '{}',
    source_url  TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresStore writes the catalog to PostgreSQL through a pgx pool.
// Slug uniqueness is enforced by the schema.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
	logger  *slog.Logger
}

// NewPostgresStore connects, pings and applies the schema.
func NewPostgresStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*PostgresStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresDSN)
	if err != nil {
		return nil, &types.StorageError{Backend: "postgres", Op: "parse dsn", Err: err}
	}
	poolCfg.ConnConfig.ConnectTimeout = timeout

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(cctx, poolCfg)
	if err != nil {
		return nil, &types.StorageError{Backend: "postgres", Op: "connect", Err: err}
	}
	if err := pool.Ping(cctx); err != nil {
		pool.Close()
		return nil, &types.StorageError{Backend: "postgres", Op: "ping", Err: err}
	}
	if _, err := pool.Exec(cctx, postgresSchema); err != nil {
		pool.Close()
		return nil, &types.StorageError{Backend: "postgres", Op: "migrate", Err: err}
	}

	s := &PostgresStore{
		pool:    pool,
		timeout: timeout,
		logger:  logger.With("component", "postgres_store"),
	}
	s.logger.Info("postgres store ready", "database", poolCfg.ConnConfig.Database)
	return s, nil
}

func (s *PostgresStore) Name() string { return "postgres" }

func (s *PostgresStore) CreateCategory(ctx context.Context, in catalog.NewCategory) (*catalog.Category, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c := in.Build(0, time.Time{})
	err := s.pool.QueryRow(ctx, `
        INSERT INTO categories (name, slug, description, image_url, source_url)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (slug) DO NOTHING
        RETURNING id, created_at`,
		c.Name, c.Slug, c.Description, c.ImageURL, c.SourceURL,
	).Scan(&c.ID, &c.CreatedAt)
	if outcome, err := s.insertOutcome("insert category", err); outcome != catalog.Created || err != nil {
		return nil, outcome, err
	}
	return c, catalog.Created, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p := in.Build(0, time.Time{})
	err := s.pool.QueryRow(ctx, `
        INSERT INTO products (
            name, slug, description, short_description, price, compare_price, sale_price,
            image_url, image_urls, video_url, video_urls, category_id, sku, stock, featured,
            rating, review_count, tags, botanical_name, difficulty, dimensions, weight, source_url
        ) VALUES (
            $1, $2, $3, $4, $5::numeric, $6::numeric, $7::numeric,
            $8, $9, $10, $11, $12, $13, $14, $15,
            $16::numeric, $17, $18, $19, $20, $21, $22, $23
        )
        ON CONFLICT (slug) DO NOTHING
        RETURNING id, created_at`,
		p.Name, p.Slug, p.Description, p.ShortDescription,
		p.Price.String(), decimalString(p.ComparePrice), decimalString(p.SalePrice),
		p.ImageURL, nonNil(p.ImageURLs), p.VideoURL, nonNil(p.VideoURLs),
		p.CategoryID, p.SKU, p.Stock, p.Featured,
		p.Rating.String(), p.ReviewCount, nonNil(p.Tags),
		p.BotanicalName, p.Difficulty, p.Dimensions, p.Weight, p.SourceURL,
	).Scan(&p.ID, &p.CreatedAt)
	if outcome, err := s.insertOutcome("insert product", err); outcome != catalog.Created || err != nil {
		return nil, outcome, err
	}
	return p, catalog.Created, nil
}

func (s *PostgresStore) CreateBlogPost(ctx context.Context, in catalog.NewBlogPost) (*catalog.BlogPost, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	b := in.Build(0, time.Time{})
	err := s.pool.QueryRow(ctx, `
        INSERT INTO blog_posts (title, slug, content, excerpt, image_url, author_id, published, category, tags, source_url)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        ON CONFLICT (slug) DO NOTHING
        RETURNING id, created_at`,
		b.Title, b.Slug, b.Content, b.Excerpt, b.ImageURL, b.AuthorID, b.Published,
		b.Category, nonNil(b.Tags), b.SourceURL,
	).Scan(&b.ID, &b.CreatedAt)
	if outcome, err := s.insertOutcome("insert blog post", err); outcome != catalog.Created || err != nil {
		return nil, outcome, err
	}
	return b, catalog.Created, nil
}

// insertOutcome maps an INSERT ... ON CONFLICT DO NOTHING RETURNING result.
// No row back means the slug was taken.
func (s *PostgresStore) insertOutcome(op string, err error) (catalog.Outcome, error) {
	if err == nil {
		return catalog.Created, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.AlreadyExists, nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return catalog.AlreadyExists, nil
	}
	return catalog.Created, &types.StorageError{Backend: s.Name(), Op: op, Err: err}
}

func (s *PostgresStore) GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var c catalog.Category
	err := s.pool.QueryRow(ctx, `
        SELECT id, name, slug, description, image_url, source_url, created_at
        FROM categories WHERE slug = $1`, slug,
	).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.SourceURL, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "get category", Err: err}
	}
	return &c, nil
}

func (s *PostgresStore) ExistsBySlug(ctx context.Context, kind catalog.Kind, slug string) (bool, error) {
	table, err := collectionFor(kind)
	if err != nil {
		return false, &types.StorageError{Backend: s.Name(), Op: "exists", Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var exists bool
	// table comes from collectionFor, never from input.
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE slug = $1)`, table)
	if err := s.pool.QueryRow(ctx, query, slug).Scan(&exists); err != nil {
		return false, &types.StorageError{Backend: s.Name(), Op: "exists " + table, Err: err}
	}
	return exists, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
        SELECT id, name, slug, description, image_url, source_url, created_at
        FROM categories ORDER BY id`)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list categories", Err: err}
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Category, error) {
		var c catalog.Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.ImageURL, &c.SourceURL, &c.CreatedAt)
		return &c, err
	})
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list categories", Err: err}
	}
	return out, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
        SELECT id, name, slug, description, short_description,
               price::text, compare_price::text, sale_price::text,
               image_url, image_urls, video_url, video_urls, category_id, sku, stock, featured,
               rating::text, review_count, tags, botanical_name, difficulty, dimensions, weight,
               source_url, created_at
        FROM products ORDER BY id`)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list products", Err: err}
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.Product, error) {
		var (
			p                       catalog.Product
			price, rating           string
			comparePrice, salePrice *string
		)
		if err := row.Scan(
			&p.ID, &p.Name, &p.Slug, &p.Description, &p.ShortDescription,
			&price, &comparePrice, &salePrice,
			&p.ImageURL, &p.ImageURLs, &p.VideoURL, &p.VideoURLs, &p.CategoryID, &p.SKU, &p.Stock, &p.Featured,
			&rating, &p.ReviewCount, &p.Tags, &p.BotanicalName, &p.Difficulty, &p.Dimensions, &p.Weight,
			&p.SourceURL, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		var err error
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("product %d price: %w", p.ID, err)
		}
		if p.Rating, err = decimal.NewFromString(rating); err != nil {
			return nil, fmt.Errorf("product %d rating: %w", p.ID, err)
		}
		if p.ComparePrice, err = parseDecimalPtr(comparePrice); err != nil {
			return nil, fmt.Errorf("product %d compare price: %w", p.ID, err)
		}
		if p.SalePrice, err = parseDecimalPtr(salePrice); err != nil {
			return nil, fmt.Errorf("product %d sale price: %w", p.ID, err)
		}
		return &p, nil
	})
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list products", Err: err}
	}
	return out, nil
}

func (s *PostgresStore) ListBlogPosts(ctx context.Context) ([]*catalog.BlogPost, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
        SELECT id, title, slug, content, excerpt, image_url, author_id, published, category, tags, source_url, created_at
        FROM blog_posts ORDER BY id`)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list blog posts", Err: err}
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*catalog.BlogPost, error) {
		var b catalog.BlogPost
		err := row.Scan(&b.ID, &b.Title, &b.Slug, &b.Content, &b.Excerpt, &b.ImageURL, &b.AuthorID,
			&b.Published, &b.Category, &b.Tags, &b.SourceURL, &b.CreatedAt)
		return &b, err
	})
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list blog posts", Err: err}
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.logger.Info("postgres store closing")
	s.pool.Close()
	return nil
}

// nonNil keeps NOT NULL array columns happy.
func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
