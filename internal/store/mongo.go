package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/config"
	"github.com/rehmanul/okkyno.com-sub000/internal/types"
)

const (
	categoriesCollection = "categories"
	productsCollection   = "products"
	postsCollection      = "blog_posts"
	countersCollection   = "counters"
)

// MongoStore writes the catalog to one MongoDB database, one collection
// per kind, with a unique index on slug. Numeric ids come from a counters
// collection.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
	logger  *slog.Logger
}

// NewMongoStore connects, pings and ensures the slug indexes.
func NewMongoStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, &types.StorageError{Backend: "mongodb", Op: "connect", Err: err}
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, &types.StorageError{Backend: "mongodb", Op: "ping", Err: err}
	}

	s := &MongoStore{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: timeout,
		logger:  logger.With("component", "mongo_store"),
	}

	for _, name := range []string{categoriesCollection, productsCollection, postsCollection} {
		_, err := s.db.Collection(name).Indexes().CreateOne(cctx, mongo.IndexModel{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("slug_unique"),
		})
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, &types.StorageError{Backend: "mongodb", Op: "create index " + name, Err: err}
		}
	}

	s.logger.Info("mongodb store ready", "database", cfg.Database)
	return s, nil
}

func (s *MongoStore) Name() string { return "mongodb" }

type categoryDoc struct {
	ID          int64     `bson:"_id"`
	Name        string    `bson:"name"`
	Slug        string    `bson:"slug"`
	Description string    `bson:"description"`
	ImageURL    string    `bson:"image_url"`
	SourceURL   string    `bson:"source_url,omitempty"`
	CreatedAt   time.Time `bson:"created_at"`
}

// productDoc stores decimals as strings; the driver has no codec for them.
type productDoc struct {
	ID               int64     `bson:"_id"`
	Name             string    `bson:"name"`
	Slug             string    `bson:"slug"`
	Description      string    `bson:"description"`
	ShortDescription string    `bson:"short_description"`
	Price            string    `bson:"price"`
	ComparePrice     *string   `bson:"compare_price,omitempty"`
	SalePrice        *string   `bson:"sale_price,omitempty"`
	ImageURL         string    `bson:"image_url"`
	ImageURLs        []string  `bson:"image_urls"`
	VideoURL         string    `bson:"video_url,omitempty"`
	VideoURLs        []string  `bson:"video_urls,omitempty"`
	CategoryID       int64     `bson:"category_id"`
	SKU              string    `bson:"sku"`
	Stock            int       `bson:"stock"`
	Featured         bool      `bson:"featured"`
	Rating           string    `bson:"rating"`
	ReviewCount      int       `bson:"review_count"`
	Tags             []string  `bson:"tags"`
	BotanicalName    string    `bson:"botanical_name,omitempty"`
	Difficulty       string    `bson:"difficulty,omitempty"`
	Dimensions       string    `bson:"dimensions,omitempty"`
	Weight           string    `bson:"weight,omitempty"`
	SourceURL        string    `bson:"source_url,omitempty"`
	CreatedAt        time.Time `bson:"created_at"`
}

type postDoc struct {
	ID        int64     `bson:"_id"`
	Title     string    `bson:"title"`
	Slug      string    `bson:"slug"`
	Content   string    `bson:"content"`
	Excerpt   string    `bson:"excerpt"`
	ImageURL  string    `bson:"image_url"`
	AuthorID  int64     `bson:"author_id"`
	Published bool      `bson:"published"`
	Category  string    `bson:"category,omitempty"`
	Tags      []string  `bson:"tags,omitempty"`
	SourceURL string    `bson:"source_url,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func (s *MongoStore) CreateCategory(ctx context.Context, in catalog.NewCategory) (*catalog.Category, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	var built *catalog.Category
	_, outcome, err := s.insert(ctx, categoriesCollection, in.Slug, func(id int64) any {
		built = in.Build(id, time.Now().UTC())
		return categoryDoc{
			ID: built.ID, Name: built.Name, Slug: built.Slug, Description: built.Description,
			ImageURL: built.ImageURL, SourceURL: built.SourceURL, CreatedAt: built.CreatedAt,
		}
	})
	if err != nil || outcome != catalog.Created {
		return nil, outcome, err
	}
	return built, outcome, nil
}

func (s *MongoStore) CreateProduct(ctx context.Context, in catalog.NewProduct) (*catalog.Product, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	var built *catalog.Product
	_, outcome, err := s.insert(ctx, productsCollection, in.Slug, func(id int64) any {
		built = in.Build(id, time.Now().UTC())
		return newProductDoc(built)
	})
	if err != nil || outcome != catalog.Created {
		return nil, outcome, err
	}
	return built, outcome, nil
}

func (s *MongoStore) CreateBlogPost(ctx context.Context, in catalog.NewBlogPost) (*catalog.BlogPost, catalog.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, catalog.Invalid, err
	}
	var built *catalog.BlogPost
	_, outcome, err := s.insert(ctx, postsCollection, in.Slug, func(id int64) any {
		built = in.Build(id, time.Now().UTC())
		return postDoc{
			ID: built.ID, Title: built.Title, Slug: built.Slug, Content: built.Content,
			Excerpt: built.Excerpt, ImageURL: built.ImageURL, AuthorID: built.AuthorID,
			Published: built.Published, Category: built.Category, Tags: built.Tags,
			SourceURL: built.SourceURL, CreatedAt: built.CreatedAt,
		}
	})
	if err != nil || outcome != catalog.Created {
		return nil, outcome, err
	}
	return built, outcome, nil
}

// insert checks the slug, allocates an id and inserts the document. A
// duplicate key from a concurrent writer maps to AlreadyExists.
func (s *MongoStore) insert(ctx context.Context, collection, slug string, build func(id int64) any) (int64, catalog.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	coll := s.db.Collection(collection)
	n, err := coll.CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return 0, catalog.Created, &types.StorageError{Backend: s.Name(), Op: "exists " + collection, Err: err}
	}
	if n > 0 {
		return 0, catalog.AlreadyExists, nil
	}

	id, err := s.nextID(ctx, collection)
	if err != nil {
		return 0, catalog.Created, err
	}

	if _, err := coll.InsertOne(ctx, build(id)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.Debug("slug taken concurrently", "collection", collection, "slug", slug)
			return 0, catalog.AlreadyExists, nil
		}
		return 0, catalog.Created, &types.StorageError{Backend: s.Name(), Op: "insert " + collection, Err: err}
	}
	return id, catalog.Created, nil
}

func (s *MongoStore) nextID(ctx context.Context, collection string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": collection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "next id " + collection, Err: err}
	}
	return counter.Seq, nil
}

func (s *MongoStore) GetCategoryBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc categoryDoc
	err := s.db.Collection(categoriesCollection).FindOne(ctx, bson.M{"slug": slug}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "get category", Err: err}
	}
	return doc.category(), nil
}

func (s *MongoStore) ExistsBySlug(ctx context.Context, kind catalog.Kind, slug string) (bool, error) {
	collection, err := collectionFor(kind)
	if err != nil {
		return false, &types.StorageError{Backend: s.Name(), Op: "exists", Err: err}
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{"slug": slug}, options.Count().SetLimit(1))
	if err != nil {
		return false, &types.StorageError{Backend: s.Name(), Op: "exists " + collection, Err: err}
	}
	return n > 0, nil
}

func (s *MongoStore) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	var docs []categoryDoc
	if err := s.findAll(ctx, categoriesCollection, &docs); err != nil {
		return nil, err
	}
	out := make([]*catalog.Category, len(docs))
	for i := range docs {
		out[i] = docs[i].category()
	}
	return out, nil
}

func (s *MongoStore) ListProducts(ctx context.Context) ([]*catalog.Product, error) {
	var docs []productDoc
	if err := s.findAll(ctx, productsCollection, &docs); err != nil {
		return nil, err
	}
	out := make([]*catalog.Product, 0, len(docs))
	for i := range docs {
		p, err := docs[i].product()
		if err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "decode product", Err: err}
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MongoStore) ListBlogPosts(ctx context.Context) ([]*catalog.BlogPost, error) {
	var docs []postDoc
	if err := s.findAll(ctx, postsCollection, &docs); err != nil {
		return nil, err
	}
	out := make([]*catalog.BlogPost, len(docs))
	for i, d := range docs {
		out[i] = &catalog.BlogPost{
			ID: d.ID, Title: d.Title, Slug: d.Slug, Content: d.Content, Excerpt: d.Excerpt,
			ImageURL: d.ImageURL, AuthorID: d.AuthorID, Published: d.Published,
			Category: d.Category, Tags: d.Tags, SourceURL: d.SourceURL, CreatedAt: d.CreatedAt,
		}
	}
	return out, nil
}

func (s *MongoStore) findAll(ctx context.Context, collection string, into any) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "list " + collection, Err: err}
	}
	if err := cur.All(ctx, into); err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "list " + collection, Err: err}
	}
	return nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb store closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func collectionFor(kind catalog.Kind) (string, error) {
	switch kind {
	case catalog.KindCategory:
		return categoriesCollection, nil
	case catalog.KindProduct:
		return productsCollection, nil
	case catalog.KindArticle:
		return postsCollection, nil
	default:
		return "", errUnknownKind(kind)
	}
}

func (d categoryDoc) category() *catalog.Category {
	return &catalog.Category{
		ID: d.ID, Name: d.Name, Slug: d.Slug, Description: d.Description,
		ImageURL: d.ImageURL, SourceURL: d.SourceURL, CreatedAt: d.CreatedAt,
	}
}

func newProductDoc(p *catalog.Product) productDoc {
	return productDoc{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price.String(),
		ComparePrice:     decimalString(p.ComparePrice),
		SalePrice:        decimalString(p.SalePrice),
		ImageURL:         p.ImageURL,
		ImageURLs:        p.ImageURLs,
		VideoURL:         p.VideoURL,
		VideoURLs:        p.VideoURLs,
		CategoryID:       p.CategoryID,
		SKU:              p.SKU,
		Stock:            p.Stock,
		Featured:         p.Featured,
		Rating:           p.Rating.String(),
		ReviewCount:      p.ReviewCount,
		Tags:             p.Tags,
		BotanicalName:    p.BotanicalName,
		Difficulty:       p.Difficulty,
		Dimensions:       p.Dimensions,
		Weight:           p.Weight,
		SourceURL:        p.SourceURL,
		CreatedAt:        p.CreatedAt,
	}
}

func (d productDoc) product() (*catalog.Product, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return nil, fmt.Errorf("product %d price: %w", d.ID, err)
	}
	rating, err := decimal.NewFromString(d.Rating)
	if err != nil {
		return nil, fmt.Errorf("product %d rating: %w", d.ID, err)
	}
	compare, err := parseDecimalPtr(d.ComparePrice)
	if err != nil {
		return nil, fmt.Errorf("product %d compare price: %w", d.ID, err)
	}
	sale, err := parseDecimalPtr(d.SalePrice)
	if err != nil {
		return nil, fmt.Errorf("product %d sale price: %w", d.ID, err)
	}
	return &catalog.Product{
		ID:               d.ID,
		Name:             d.Name,
		Slug:             d.Slug,
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
		Price:            price,
		ComparePrice:     compare,
		SalePrice:        sale,
		ImageURL:         d.ImageURL,
		ImageURLs:        d.ImageURLs,
		VideoURL:         d.VideoURL,
		VideoURLs:        d.VideoURLs,
		CategoryID:       d.CategoryID,
		SKU:              d.SKU,
		Stock:            d.Stock,
		Featured:         d.Featured,
		Rating:           rating,
		ReviewCount:      d.ReviewCount,
		Tags:             d.Tags,
		BotanicalName:    d.BotanicalName,
		Difficulty:       d.Difficulty,
		Dimensions:       d.Dimensions,
		Weight:           d.Weight,
		SourceURL:        d.SourceURL,
		CreatedAt:        d.CreatedAt,
	}, nil
}

func decimalString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimalPtr(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
