// Package store provides catalog persistence backends: an in-process
// memory store, MongoDB and PostgreSQL.
//
// Creates never update. A taken slug yields catalog.AlreadyExists with a
// nil record and nil error; input that fails validation yields
// catalog.Invalid with the validation error. Any other error is a backend
// failure wrapped in *types.StorageError.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/config"
)

// Store is the full backend contract used by the importer and the API.
type Store interface {
	CreateCategory(ctx context.Context, in catalog.NewCategory) (*catalog.Category, catalog.Outcome, error)
	CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, catalog.Outcome, error)
	CreateBlogPost(ctx context.Context, in catalog.NewBlogPost) (*catalog.BlogPost, catalog.Outcome, error)

	// GetCategoryBySlug returns types.ErrNotFound when no category has slug.
	GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error)
	ExistsBySlug(ctx context.Context, kind catalog.Kind, slug string) (bool, error)

	ListCategories(ctx context.Context) ([]*catalog.Category, error)
	ListProducts(ctx context.Context) ([]*catalog.Product, error)
	ListBlogPosts(ctx context.Context) ([]*catalog.BlogPost, error)

	// Name returns the backend identifier.
	Name() string

	// Close releases connections.
	Close() error
}

// New opens the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryStore(), nil
	case "mongo":
		return NewMongoStore(ctx, cfg, logger)
	case "postgres":
		return NewPostgresStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.Type)
	}
}

func errUnknownKind(kind catalog.Kind) error {
	return fmt.Errorf("unknown entity kind %q", kind)
}
