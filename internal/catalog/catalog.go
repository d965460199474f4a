// Package catalog defines the storefront entities produced by the import
// pipeline and the create inputs handed to a Store.
package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder images used when a page exposes nothing usable.
const (
	PlaceholderCategoryImage = "https://images.unsplash.com/photo-1416879595882-3373a0480b5b?w=800"
	PlaceholderProductImage  = "https://images.unsplash.com/photo-1485955900006-10f4d324d411?w=800"
	PlaceholderArticleImage  = "https://images.unsplash.com/photo-1523348837708-15d4a09cfac2?w=800"
)

// Difficulty levels for plant products.
const (
	DifficultyBeginner     = "Beginner"
	DifficultyIntermediate = "Intermediate"
	DifficultyAdvanced     = "Advanced"
)

// Kind names one entity collection.
type Kind string

const (
	KindCategory Kind = "category"
	KindProduct  Kind = "product"
	KindArticle  Kind = "article"
)

// Category is a stored product category.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	SourceURL   string    `json:"source_url"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is a stored catalog product.
type Product struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	Slug             string           `json:"slug"`
	Description      string           `json:"description"`
	ShortDescription string           `json:"short_description"`
	Price            decimal.Decimal  `json:"price"`
	ComparePrice     *decimal.Decimal `json:"compare_price,omitempty"`
	SalePrice        *decimal.Decimal `json:"sale_price,omitempty"`
	ImageURL         string           `json:"image_url"`
	ImageURLs        []string         `json:"image_urls"`
	VideoURL         string           `json:"video_url,omitempty"`
	VideoURLs        []string         `json:"video_urls,omitempty"`
	CategoryID       int64            `json:"category_id"`
	SKU              string           `json:"sku"`
	Stock            int              `json:"stock"`
	Featured         bool             `json:"featured"`
	Rating           decimal.Decimal  `json:"rating"`
	ReviewCount      int              `json:"review_count"`
	Tags             []string         `json:"tags"`
	BotanicalName    string           `json:"botanical_name,omitempty"`
	Difficulty       string           `json:"difficulty,omitempty"`
	Dimensions       string           `json:"dimensions,omitempty"`
	Weight           string           `json:"weight,omitempty"`
	SourceURL        string           `json:"source_url,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// BlogPost is a stored article.
type BlogPost struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	ImageURL  string    `json:"image_url"`
	AuthorID  int64     `json:"author_id"`
	Published bool      `json:"published"`
	Category  string    `json:"category,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	SourceURL string    `json:"source_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Outcome is the tagged result of a create attempt.
type Outcome int

const (
	// Created means a new record was written.
	Created Outcome = iota
	// AlreadyExists means the slug was taken; nothing was written.
	AlreadyExists
	// Invalid means the input failed validation; nothing was written.
	Invalid
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case AlreadyExists:
		return "already_exists"
	case Invalid:
		return "invalid"
	default:
		return "unknown"
	}
}
