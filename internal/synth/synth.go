// Package synth fabricates gardening catalog records without touching the
// network. Output follows the same field rules as scraped records.
package synth

import (
	"fmt"
	"html"
	"strings"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/extract"
	"github.com/rehmanul/okkyno.com-sub000/internal/slug"
)

type categorySeed struct {
	name        string
	description string
	items       []string
}

var categorySeeds = []categorySeed{
	{"Seeds", "Heirloom and hybrid seeds for vegetables, herbs and flowers.",
		[]string{"Tomato Seeds", "Basil Seeds", "Zinnia Seeds", "Carrot Seeds", "Pepper Seeds", "Lettuce Seeds", "Sunflower Seeds", "Bean Seeds"}},
	{"Raised Beds", "Cedar, metal and fabric raised beds for every yard and patio.",
		[]string{"Cedar Raised Bed", "Metal Raised Bed", "Fabric Grow Bed", "Elevated Planter", "Corner Raised Bed", "Tiered Garden Bed"}},
	{"Garden Tools", "Hand tools and long-handled tools built to last.",
		[]string{"Hand Trowel", "Pruning Shears", "Garden Hoe", "Soil Knife", "Hori Hori", "Bypass Loppers", "Transplanting Spade"}},
	{"Soil & Amendments", "Potting mixes, compost and fertilizers for healthy soil.",
		[]string{"Potting Mix", "Worm Castings", "Bone Meal", "Kelp Meal", "Compost Blend", "Perlite", "Coco Coir"}},
	{"Pest Control", "Organic ways to protect plants from pests and disease.",
		[]string{"Neem Oil", "Insect Netting", "Diatomaceous Earth", "Sticky Traps", "Copper Tape", "Insecticidal Soap"}},
	{"Watering", "Hoses, cans and drip irrigation for efficient watering.",
		[]string{"Watering Can", "Soaker Hose", "Drip Irrigation Kit", "Hose Nozzle", "Rain Gauge", "Self-Watering Pot"}},
	{"Seed Starting", "Trays, lights and heat mats for starting seeds indoors.",
		[]string{"Seed Starting Tray", "Grow Light", "Heat Mat", "Humidity Dome", "Soil Blocker", "Peat Pots"}},
	{"Plants", "Live plants and perennials shipped ready to grow.",
		[]string{"Lavender Plant", "Blueberry Bush", "Strawberry Crowns", "Rosemary Plant", "Fig Tree", "Hosta Plant"}},
}

var productVariants = []string{"Classic", "Premium", "Organic", "Heirloom", "Pro", "Compact", "Deluxe", "Essential"}

var botanicalNames = map[string]string{
	"Tomato Seeds":      "Solanum lycopersicum",
	"Basil Seeds":       "Ocimum basilicum",
	"Zinnia Seeds":      "Zinnia elegans",
	"Carrot Seeds":      "Daucus carota",
	"Pepper Seeds":      "Capsicum annuum",
	"Lettuce Seeds":     "Lactuca sativa",
	"Sunflower Seeds":   "Helianthus annuus",
	"Bean Seeds":        "Phaseolus vulgaris",
	"Lavender Plant":    "Lavandula angustifolia",
	"Blueberry Bush":    "Vaccinium corymbosum",
	"Rosemary Plant":    "Salvia rosmarinus",
	"Fig Tree":          "Ficus carica",
	"Hosta Plant":       "Hosta plantaginea",
	"Strawberry Crowns": "Fragaria ananassa",
}

var articleTopics = []string{
	"Tomatoes", "Raised Bed Gardens", "Composting", "Container Herbs", "Seed Starting",
	"Garlic", "Cover Crops", "Pollinator Gardens", "Blueberries", "Drip Irrigation",
	"Fall Lettuce", "Pruning Roses", "Worm Bins", "Peppers", "Mulching",
}

var articleTemplates = []struct {
	title    string
	category string
}{
	{"How to Grow %s", "Growing Guides"},
	{"A Beginner's Guide to %s", "Gardening Tips"},
	{"7 Common Mistakes with %s", "Gardening Tips"},
	{"%s: Everything You Need to Know", "Growing Guides"},
	{"Seasonal Care Calendar for %s", "Seasonal"},
}

// Generator builds synthetic categories, products and articles. It draws
// all randomness from its Synthesizer, so a seeded Synthesizer gives the
// same catalog on every call sequence.
type Generator struct {
	synth    *extract.Synthesizer
	authorID int64
}

// New creates a Generator. authorID is stamped on every article.
func New(synth *extract.Synthesizer, authorID int64) *Generator {
	if authorID < 1 {
		authorID = 1
	}
	return &Generator{synth: synth, authorID: authorID}
}

// Categories returns the fixed category set.
func (g *Generator) Categories() []catalog.NewCategory {
	out := make([]catalog.NewCategory, 0, len(categorySeeds))
	for _, c := range categorySeeds {
		out = append(out, catalog.NewCategory{
			Name:        c.name,
			Slug:        slug.Make(c.name),
			Description: c.description,
			ImageURL:    catalog.PlaceholderCategoryImage,
		})
	}
	return out
}

type productName struct {
	category string
	item     string
	variant  string
}

// Products returns n products with distinct slugs. Each carries its
// category name as CategoryHint; CategoryID is left for the importer.
func (g *Generator) Products(n int) []catalog.NewProduct {
	var pool []productName
	for _, c := range categorySeeds {
		for _, item := range c.items {
			for _, v := range productVariants {
				pool = append(pool, productName{c.name, item, v})
			}
		}
	}
	g.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]catalog.NewProduct, 0, n)
	for i := 0; i < n; i++ {
		pn := pool[i%len(pool)]
		name := pn.variant + " " + pn.item
		if round := i / len(pool); round > 0 {
			name = fmt.Sprintf("%s No. %d", name, round+1)
		}
		out = append(out, g.product(pn, name))
	}
	return out
}

func (g *Generator) product(pn productName, name string) catalog.NewProduct {
	price := g.synth.Price()
	description := fmt.Sprintf("The %s is a %s favorite for home gardeners. %s",
		name, strings.ToLower(pn.category), careNote(pn.item))

	var difficulty, botanical string
	if b, ok := botanicalNames[pn.item]; ok {
		botanical = b
		difficulty = g.synth.Difficulty()
	}

	return catalog.NewProduct{
		Name:             name,
		Slug:             slug.Make(name),
		Description:      description,
		ShortDescription: extract.Truncate(description, extract.MaxShortDescription),
		Price:            price,
		ComparePrice:     g.synth.ComparePrice(price),
		ImageURL:         catalog.PlaceholderProductImage,
		ImageURLs:        []string{catalog.PlaceholderProductImage},
		CategoryHint:     pn.category,
		SKU:              g.synth.SKU(),
		Stock:            g.synth.Stock(),
		Rating:           g.synth.Rating(),
		ReviewCount:      g.synth.ReviewCount(),
		Tags:             extract.Tags(name),
		BotanicalName:    botanical,
		Difficulty:       difficulty,
	}
}

func careNote(item string) string {
	switch {
	case strings.HasSuffix(item, "Seeds"):
		return "Sow after the last frost in well-drained soil and keep evenly moist until germination."
	case strings.HasSuffix(item, "Plant"), strings.Contains(item, "Bush"), strings.Contains(item, "Tree"), strings.Contains(item, "Crowns"):
		return "Plant in full sun, water deeply once a week and mulch to hold moisture."
	default:
		return "Built for years of seasonal use and backed by our satisfaction guarantee."
	}
}

// Articles returns n articles with distinct slugs.
func (g *Generator) Articles(n int) []catalog.NewBlogPost {
	type pick struct{ topic, tmpl int }
	var pool []pick
	for t := range articleTopics {
		for m := range articleTemplates {
			pool = append(pool, pick{t, m})
		}
	}
	g.shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	out := make([]catalog.NewBlogPost, 0, n)
	for i := 0; i < n; i++ {
		p := pool[i%len(pool)]
		topic := articleTopics[p.topic]
		tmpl := articleTemplates[p.tmpl]
		title := fmt.Sprintf(tmpl.title, topic)
		if round := i / len(pool); round > 0 {
			title = fmt.Sprintf("%s (Part %d)", title, round+1)
		}
		content := articleBody(topic)
		out = append(out, catalog.NewBlogPost{
			Title:     title,
			Slug:      slug.Make(title),
			Content:   content,
			Excerpt:   extract.Truncate(extract.TextFromHTML(content), extract.MaxExcerpt),
			ImageURL:  catalog.PlaceholderArticleImage,
			AuthorID:  g.authorID,
			Published: true,
			Category:  tmpl.category,
			Tags:      extract.Tags(topic),
		})
	}
	return out
}

func articleBody(topic string) string {
	t := html.EscapeString(topic)
	lower := strings.ToLower(t)
	return strings.Join([]string{
		fmt.Sprintf("<p>Getting great results with %s starts long before planting day. Good soil, the right site and steady watering do most of the work.</p>", lower),
		"<h2>Start with the soil</h2>",
		"<p>Work in two inches of finished compost and test the pH. Most garden crops do best between 6.0 and 7.0.</p>",
		"<h2>Water deeply, not often</h2>",
		"<p>One deep soak a week encourages roots to grow down instead of staying near the surface. Mulch holds that moisture in.</p>",
		fmt.Sprintf("<h2>Keep an eye on %s through the season</h2>", lower),
		"<p>Check leaves weekly for pests, pull weeds while they are small and keep notes so next year goes even better.</p>",
	}, "\n")
}

// shuffle is a Fisher-Yates shuffle driven by the Synthesizer.
func (g *Generator) shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		swap(i, g.synth.Intn(i+1))
	}
}
