package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

var (
	minRating = decimal.RequireFromString("3.5")
	maxRating = decimal.NewFromInt(5)
)

// NewCategory is the create input for a Category.
type NewCategory struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	SourceURL   string `json:"source_url,omitempty"`
}

// Validate checks required fields before the store is touched.
func (c NewCategory) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required, validation.Length(2, 255)),
		validation.Field(&c.Slug, validation.Required),
		validation.Field(&c.ImageURL, validation.Required, validation.By(absoluteURL)),
	)
}

// Build converts the input into a Category with the given id.
func (c NewCategory) Build(id int64, now time.Time) *Category {
	return &Category{
		ID:          id,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		SourceURL:   c.SourceURL,
		CreatedAt:   now,
	}
}

// NewProduct is the create input for a Product.
type NewProduct struct {
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
	CategoryHint     string           `json:"-"`
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
}

// Validate checks required fields and value bounds.
func (p NewProduct) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.Length(2, 255)),
		validation.Field(&p.Slug, validation.Required),
		validation.Field(&p.ShortDescription, validation.RuneLength(0, 150)),
		validation.Field(&p.Price, validation.By(positiveDecimal)),
		validation.Field(&p.ImageURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&p.ImageURLs, validation.Length(0, 5), validation.Each(validation.By(absoluteURL))),
		validation.Field(&p.CategoryID, validation.Required, validation.Min(int64(1))),
		validation.Field(&p.SKU, validation.Required),
		validation.Field(&p.Stock, validation.Min(0)),
		validation.Field(&p.Rating, validation.By(ratingInRange)),
		validation.Field(&p.ReviewCount, validation.Min(0)),
		validation.Field(&p.Difficulty, validation.In(DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced)),
	)
}

// Build converts the input into a Product with the given id.
func (p NewProduct) Build(id int64, now time.Time) *Product {
	return &Product{
		ID:               id,
		Name:             p.Name,
		Slug:             p.Slug,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		Price:            p.Price,
		ComparePrice:     p.ComparePrice,
		SalePrice:        p.SalePrice,
		ImageURL:         p.ImageURL,
		ImageURLs:        append([]string(nil), p.ImageURLs...),
		VideoURL:         p.VideoURL,
		VideoURLs:        append([]string(nil), p.VideoURLs...),
		CategoryID:       p.CategoryID,
		SKU:              p.SKU,
		Stock:            p.Stock,
		Featured:         p.Featured,
		Rating:           p.Rating,
		ReviewCount:      p.ReviewCount,
		Tags:             append([]string(nil), p.Tags...),
		BotanicalName:    p.BotanicalName,
		Difficulty:       p.Difficulty,
		Dimensions:       p.Dimensions,
		Weight:           p.Weight,
		SourceURL:        p.SourceURL,
		CreatedAt:        now,
	}
}

// NewBlogPost is the create input for a BlogPost.
type NewBlogPost struct {
	Title     string   `json:"title"`
	Slug      string   `json:"slug"`
	Content   string   `json:"content"`
	Excerpt   string   `json:"excerpt"`
	ImageURL  string   `json:"image_url"`
	AuthorID  int64    `json:"author_id"`
	Published bool     `json:"published"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
}

// Validate checks required fields.
func (b NewBlogPost) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Title, validation.Required, validation.RuneLength(5, 500)),
		validation.Field(&b.Slug, validation.Required),
		validation.Field(&b.Content, validation.Required),
		validation.Field(&b.Excerpt, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&b.ImageURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&b.AuthorID, validation.Required, validation.Min(int64(1))),
	)
}

// Build converts the input into a BlogPost with the given id.
func (b NewBlogPost) Build(id int64, now time.Time) *BlogPost {
	return &BlogPost{
		ID:        id,
		Title:     b.Title,
		Slug:      b.Slug,
		Content:   b.Content,
		Excerpt:   b.Excerpt,
		ImageURL:  b.ImageURL,
		AuthorID:  b.AuthorID,
		Published: b.Published,
		Category:  b.Category,
		Tags:      append([]string(nil), b.Tags...),
		SourceURL: b.SourceURL,
		CreatedAt: now,
	}
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("must be an absolute URL")
	}
	return nil
}

func positiveDecimal(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal")
	}
	if !d.IsPositive() {
		return errors.New("must be greater than zero")
	}
	return nil
}

func ratingInRange(value any) error {
	d, ok := value.(decimal.Decimal)
	if !ok {
		return errors.New("must be a decimal")
	}
	if d.LessThan(minRating) || d.GreaterThan(maxRating) {
		return fmt.Errorf("must be between %s and %s", minRating, maxRating)
	}
	return nil
}
