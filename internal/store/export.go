package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
)

// Snapshot is a point-in-time copy of a store's catalog.
type Snapshot struct {
	ExportedAt time.Time           `json:"exported_at"`
	Backend    string              `json:"backend"`
	Categories []*catalog.Category `json:"categories"`
	Products   []*catalog.Product  `json:"products"`
	BlogPosts  []*catalog.BlogPost `json:"blog_posts"`
}

// TakeSnapshot lists every collection of s.
func TakeSnapshot(ctx context.Context, s Store) (*Snapshot, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := s.ListBlogPosts(ctx)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		ExportedAt: time.Now().UTC(),
		Backend:    s.Name(),
		Categories: categories,
		Products:   products,
		BlogPosts:  posts,
	}, nil
}

// Export writes a snapshot of s to path. A .jsonl extension writes one
// {"kind": ..., "record": ...} object per line; anything else writes a
// single indented JSON document.
func Export(ctx context.Context, s Store, path string, logger *slog.Logger) error {
	snap, err := TakeSnapshot(ctx, s)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		err = writeJSONL(enc, snap)
	} else {
		enc.SetIndent("", "  ")
		err = enc.Encode(snap)
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	logger.Info("catalog exported",
		"path", path,
		"categories", len(snap.Categories),
		"products", len(snap.Products),
		"blog_posts", len(snap.BlogPosts),
	)
	return f.Close()
}

type jsonlRecord struct {
	Kind   catalog.Kind `json:"kind"`
	Record any          `json:"record"`
}

func writeJSONL(enc *json.Encoder, snap *Snapshot) error {
	for _, c := range snap.Categories {
		if err := enc.Encode(jsonlRecord{catalog.KindCategory, c}); err != nil {
			return err
		}
	}
	for _, p := range snap.Products {
		if err := enc.Encode(jsonlRecord{catalog.KindProduct, p}); err != nil {
			return err
		}
	}
	for _, b := range snap.BlogPosts {
		if err := enc.Encode(jsonlRecord{catalog.KindArticle, b}); err != nil {
			return err
		}
	}
	return nil
}
