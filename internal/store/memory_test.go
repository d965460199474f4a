package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

func newCategory(name, slug string) catalog.NewCategory {
	return catalog.NewCategory{
		Name:     name,
		Slug:     slug,
		ImageURL: catalog.PlaceholderCategoryImage,
	}
}

func newProduct(name, slug string) catalog.NewProduct {
	return catalog.NewProduct{
		Name:       name,
		Slug:       slug,
		Price:      decimal.RequireFromString("19.99"),
		ImageURL:   catalog.PlaceholderProductImage,
		ImageURLs:  []string{catalog.PlaceholderProductImage},
		CategoryID: 1,
		SKU:        "OKK-1-ABCDE",
		Stock:      12,
		Rating:     decimal.RequireFromString("4.5"),
	}
}

func newPost(title, slug string) catalog.NewBlogPost {
	return catalog.NewBlogPost{
		Title:     title,
		Slug:      slug,
		Content:   "<p>Body</p>",
		Excerpt:   "Body",
		ImageURL:  catalog.PlaceholderArticleImage,
		AuthorID:  1,
		Published: true,
	}
}

func TestMemoryCreateAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	c, outcome, err := s.CreateCategory(ctx, newCategory("Raised Beds", "raised-beds"))
	require.NoError(t, err)
	assert.Equal(t, catalog.Created, outcome)
	assert.Equal(t, int64(1), c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	dup, outcome, err := s.CreateCategory(ctx, newCategory("Raised beds!", "raised-beds"))
	require.NoError(t, err)
	assert.Equal(t, catalog.AlreadyExists, outcome)
	assert.Nil(t, dup)

	c2, _, err := s.CreateCategory(ctx, newCategory("Seeds", "seeds"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), c2.ID)

	got, err := s.GetCategoryBySlug(ctx, "raised-beds")
	require.NoError(t, err)
	assert.Equal(t, "Raised Beds", got.Name)

	_, err = s.GetCategoryBySlug(ctx, "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestMemoryInvalidInput(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	bad := newProduct("Trowel", "trowel")
	bad.Price = decimal.Zero
	p, outcome, err := s.CreateProduct(ctx, bad)
	assert.Error(t, err)
	assert.Equal(t, catalog.Invalid, outcome)
	assert.Nil(t, p)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestMemoryExistsBySlug(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, _, err := s.CreateProduct(ctx, newProduct("Trowel", "trowel"))
	require.NoError(t, err)
	_, _, err = s.CreateBlogPost(ctx, newPost("Winter Checklist", "winter-checklist"))
	require.NoError(t, err)

	tests := []struct {
		kind catalog.Kind
		slug string
		want bool
	}{
		{catalog.KindProduct, "trowel", true},
		{catalog.KindArticle, "winter-checklist", true},
		{catalog.KindCategory, "trowel", false},
		{catalog.KindArticle, "trowel", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind)+"/"+tt.slug, func(t *testing.T) {
			ok, err := s.ExistsBySlug(ctx, tt.kind, tt.slug)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err = s.ExistsBySlug(ctx, catalog.Kind("review"), "x")
	var se *types.StorageError
	assert.True(t, errors.As(err, &se))
}

func TestMemoryListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _, err := s.CreateCategory(ctx, newCategory("Seeds", "seeds"))
	require.NoError(t, err)

	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	list[0].Name = "mutated"

	got, err := s.GetCategoryBySlug(ctx, "seeds")
	require.NoError(t, err)
	assert.Equal(t, "Seeds", got.Name)
}

func TestMemoryConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, outcome, err := s.CreateProduct(ctx, newProduct("Trowel", "trowel"))
			assert.NoError(t, err)
			if outcome == catalog.Created {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, created)
}

func TestNewSelectsBackend(t *testing.T) {
	s, err := New(context.Background(), config.StoreConfig{Type: "memory"}, testLogger)
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())

	_, err = New(context.Background(), config.StoreConfig{Type: "redis"}, testLogger)
	assert.Error(t, err)
}

func TestExportJSONAndJSONL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, _, err := s.CreateCategory(ctx, newCategory("Seeds", "seeds"))
	require.NoError(t, err)
	_, _, err = s.CreateProduct(ctx, newProduct("Trowel", "trowel"))
	require.NoError(t, err)
	_, _, err = s.CreateBlogPost(ctx, newPost("Winter Checklist", "winter-checklist"))
	require.NoError(t, err)

	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "out", "catalog.json")
	require.NoError(t, Export(ctx, s, jsonPath, testLogger))
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, "memory", snap.Backend)
	assert.Len(t, snap.Categories, 1)
	require.Len(t, snap.Products, 1)
	assert.True(t, decimal.RequireFromString("19.99").Equal(snap.Products[0].Price))
	assert.Len(t, snap.BlogPosts, 1)

	jsonlPath := filepath.Join(dir, "catalog.jsonl")
	require.NoError(t, Export(ctx, s, jsonlPath, testLogger))
	f, err := os.Open(jsonlPath)
	require.NoError(t, err)
	defer f.Close()

	var kinds []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var line struct {
			Kind string `json:"kind"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		kinds = append(kinds, line.Kind)
	}
	assert.Equal(t, []string{"category", "product", "article"}, kinds)
}
