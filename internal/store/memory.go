package store

import (
	"context"
	"sync"
	"time"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

// MemoryStore keeps the catalog in maps keyed by slug. Ids are assigned
// sequentially per collection starting at 1.
type MemoryStore struct {
	mu  sync.RWMutex
	now func() time.Time

	categories []*catalog.Category
	products   []*catalog.Product
	posts      []*catalog.BlogPost

	categoryBySlug map[string]*catalog.Category
	productBySlug  map[string]*catalog.Product
	postBySlug     map[string]*catalog.BlogPost
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		now:            time.Now,
		categoryBySlug: make(map[string]*catalog.Category),
		productBySlug:  make(map[string]*catalog.Product),
		postBySlug:     make(map[string]*catalog.BlogPost),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) CreateCategory(_ context.Context, in catalog.NewCategory) (*catalog.Category, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categoryBySlug[in.Slug]; ok {
		return nil, catalog.AlreadyExists, nil
	}
	c := in.Build(int64(len(s.categories)+1), s.now())
	s.categories = append(s.categories, c)
	s.categoryBySlug[c.Slug] = c
	copied := *c
	return &copied, catalog.Created, nil
}

func (s *MemoryStore) CreateProduct(_ context.Context, in catalog.NewProduct) (*catalog.Product, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.productBySlug[in.Slug]; ok {
		return nil, catalog.AlreadyExists, nil
	}
	p := in.Build(int64(len(s.products)+1), s.now())
	s.products = append(s.products, p)
	s.productBySlug[p.Slug] = p
	copied := *p
	return &copied, catalog.Created, nil
}

func (s *MemoryStore) CreateBlogPost(_ context.Context, in catalog.NewBlogPost) (*catalog.BlogPost, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.postBySlug[in.Slug]; ok {
		return nil, catalog.AlreadyExists, nil
	}
	b := in.Build(int64(len(s.posts)+1), s.now())
	s.posts = append(s.posts, b)
	s.postBySlug[b.Slug] = b
	copied := *b
	return &copied, catalog.Created, nil
}

func (s *MemoryStore) GetCategoryBySlug(_ context.Context, slug string) (*catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categoryBySlug[slug]
	if !ok {
		return nil, types.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *MemoryStore) ExistsBySlug(_ context.Context, kind catalog.Kind, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch kind {
	case catalog.KindCategory:
		_, ok := s.categoryBySlug[slug]
		return ok, nil
	case catalog.KindProduct:
		_, ok := s.productBySlug[slug]
		return ok, nil
	case catalog.KindArticle:
		_, ok := s.postBySlug[slug]
		return ok, nil
	default:
		return false, &types.StorageError{Backend: s.Name(), Op: "exists", Err: errUnknownKind(kind)}
	}
}

func (s *MemoryStore) ListCategories(_ context.Context) ([]*catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.Category, len(s.categories))
	for i, c := range s.categories {
		copied := *c
		out[i] = &copied
	}
	return out, nil
}

func (s *MemoryStore) ListProducts(_ context.Context) ([]*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.Product, len(s.products))
	for i, p := range s.products {
		copied := *p
		out[i] = &copied
	}
	return out, nil
}

func (s *MemoryStore) ListBlogPosts(_ context.Context) ([]*catalog.BlogPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*catalog.BlogPost, len(s.posts))
	for i, b := range s.posts {
		copied := *b
		out[i] = &copied
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
