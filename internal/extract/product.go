package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/rehmanul/okkyno.com-sub000/internal/catalog"
	"github.com/rehmanul/okkyno.com-sub000/internal/parser"
	"github.com/rehmanul/okkyno.com-sub000/internal/slug"
)

// MaxShortDescription bounds Product.ShortDescription.
const MaxShortDescription = 150

var (
	productNameChain = []parser.Selector{
		parser.CSS("h1.product-title"),
		parser.CSS("h1.product_title"),
		parser.CSS(".product-single__title"),
		parser.CSS(".product__title h1"),
		parser.CSS("h1"),
		parser.Meta("og:title"),
	}

	productDescriptionChain = []parser.Selector{
		parser.CSS(".product-description"),
		parser.CSS(".product__description"),
		parser.CSS(".product-single__description"),
		parser.CSS(".woocommerce-product-details__short-description"),
		parser.CSS("#tab-description"),
		parser.CSS("[itemprop=description]"),
	}

	productShortDescriptionChain = []parser.Selector{
		parser.CSS(".product-short-description"),
		parser.CSS(".product__subtitle"),
	}

	// Machine-readable amounts, parsed with ParseAmount.
	productAmountChain = []parser.Selector{
		parser.Meta("product:price:amount"),
		parser.Meta("og:price:amount"),
		parser.CSSAttr("[itemprop=price]", "content"),
	}

	productPriceChain = []parser.Selector{
		parser.CSS(".price ins .amount"),
		parser.CSS(".price .amount"),
		parser.CSS(".product__price"),
		parser.CSS(".product-price"),
		parser.CSS(".price-item--sale"),
		parser.CSS(".price-item--regular"),
		parser.CSS(".price"),
	}

	productComparePriceChain = []parser.Selector{
		parser.CSS(".price del .amount"),
		parser.CSS(".compare-at-price"),
		parser.CSS(".price-item--regular s"),
		parser.CSS(".price--compare"),
		parser.CSS("s.price-item"),
	}

	breadcrumbChain = []string{
		".breadcrumb a",
		".breadcrumbs a",
		"nav.breadcrumb a",
		".woocommerce-breadcrumb a",
		"[itemtype*=BreadcrumbList] a",
	}

	botanicalChain = []parser.Selector{
		parser.CSS(".botanical-name"),
		parser.CSS(".product__botanical"),
		parser.CSS("[itemprop=alternateName]"),
	}

	// Rows of a product specification table or definition list whose
	// label contains %s. Labels are compared lowercase.
	specTableXPath = `//tr/*[1][contains(translate(normalize-space(.),'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'%s')]/following-sibling::*[1]`
	specListXPath  = `//dt[contains(translate(normalize-space(.),'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),'%s')]/following-sibling::dd[1]`

	binomialRe   = regexp.MustCompile(`^[A-Z][a-z]+ [a-z]+(?: ['"‘’][^'"‘’]+['"‘’]| [a-z]+)?$`)
	dimensionsRe = regexp.MustCompile(`(?i)\b(?:dimensions?|size)\s*:\s*([0-9]+(?:\.[0-9]+)?\s*[x×]\s*[0-9]+(?:\.[0-9]+)?(?:\s*[x×]\s*[0-9]+(?:\.[0-9]+)?)?(?:\s*(?:inches|in|cm|mm|feet|ft)\b)?)`)
	weightRe     = regexp.MustCompile(`(?i)\bweight\s*:\s*([0-9]+(?:\.[0-9]+)?\s*(?:lbs?|pounds?|oz|ounces?|kg|g))\b`)

	breadcrumbSkip = map[string]bool{"home": true, "shop": true, "products": true, "all products": true, "store": true}

	difficultyKeywords = []struct {
		level    string
		keywords []string
	}{
		{catalog.DifficultyAdvanced, []string{"advanced", "challenging", "difficult to grow", "expert"}},
		{catalog.DifficultyIntermediate, []string{"intermediate", "moderate care", "moderately easy"}},
		{catalog.DifficultyBeginner, []string{"beginner", "easy to grow", "low maintenance", "low-maintenance", "easy care"}},
	}
)

// Product extracts a product from a product detail page.
func (x *Extractor) Product(doc *parser.Document) (*catalog.NewProduct, bool) {
	sd := parser.Structured(doc)
	ld := sd.FindType("Product", "ProductGroup")

	name := doc.First(productNameChain...)
	if name == "" && ld != nil {
		name = parser.Lookup(ld, "name")
	}
	if name == "" {
		name = doc.Title()
	}
	name = StripSiteSuffix(name)
	if utf8.RuneCountInString(name) < 2 {
		return nil, false
	}
	s := slug.Make(name)
	if s == "" {
		return nil, false
	}

	description := doc.First(productDescriptionChain...)
	if description == "" && ld != nil {
		description = TextFromHTML(parser.Lookup(ld, "description"))
	}
	if description == "" {
		description = doc.First(parser.Meta("og:description"), parser.Meta("description"))
	}
	if description == "" {
		description = fmt.Sprintf("%s, selected for home gardeners.", name)
	}

	short := doc.First(productShortDescriptionChain...)
	if short == "" {
		short = description
	}
	short = Truncate(short, MaxShortDescription)

	price := x.productPrice(doc, ld)

	compare := x.synth.ComparePrice(price)
	if cp, ok := ParsePrice(doc.First(productComparePriceChain...)); ok && cp.GreaterThan(price) {
		compare = &cp
	}

	var preferred []string
	if og := doc.Meta("og:image"); og != "" {
		preferred = append(preferred, og)
	}
	if ld != nil {
		preferred = append(preferred, parser.Strings(ld, "image")...)
	}
	images := collectImages(doc, preferred, MaxImages)
	primary := catalog.PlaceholderProductImage
	if len(images) > 0 {
		primary = images[0]
	} else {
		images = []string{primary}
	}

	var ldVideos []string
	if ld != nil {
		ldVideos = append(ldVideos, parser.Strings(ld, "video")...)
		ldVideos = append(ldVideos, parser.Lookup(ld, "video.embedUrl"), parser.Lookup(ld, "video.contentUrl"))
	}
	videos := collectVideos(doc, ldVideos)
	var videoURL string
	if len(videos) > 0 {
		videoURL = videos[0]
	}

	stock := x.synth.Stock()
	if ld != nil && strings.Contains(strings.ToLower(parser.Lookup(ld, "offers.availability")), "outofstock") {
		stock = 0
	}

	rating, reviews := x.productRating(ld)

	bodyText := doc.First(parser.CSS("body"))
	difficulty := detectDifficulty(strings.ToLower(name + " " + description))

	return &catalog.NewProduct{
		Name:             name,
		Slug:             s,
		Description:      description,
		ShortDescription: short,
		Price:            price,
		ComparePrice:     compare,
		ImageURL:         primary,
		ImageURLs:        images,
		VideoURL:         videoURL,
		VideoURLs:        videos,
		CategoryHint:     categoryHint(doc, ld, name),
		SKU:              x.synth.SKU(),
		Stock:            stock,
		Rating:           rating,
		ReviewCount:      reviews,
		Tags:             Tags(name),
		BotanicalName:    botanicalName(doc),
		Difficulty:       difficulty,
		Dimensions:       firstNonEmpty(firstGroup(dimensionsRe, bodyText), specValue(doc, "dimension")),
		Weight:           firstNonEmpty(firstGroup(weightRe, bodyText), specValue(doc, "weight")),
		SourceURL:        doc.URL(),
	}, true
}

// productPrice tries structured offers and price meta, then falls back to
// ExtractPrice over the best visible price text.
func (x *Extractor) productPrice(doc *parser.Document, ld map[string]any) decimal.Decimal {
	if ld != nil {
		for _, path := range []string{"offers.price", "offers.lowPrice", "offers.priceSpecification.price"} {
			if p, ok := ParseAmount(parser.Lookup(ld, path)); ok {
				return p
			}
		}
	}
	for _, sel := range productAmountChain {
		if p, ok := ParseAmount(doc.First(sel)); ok {
			return p
		}
	}
	return x.synth.ExtractPrice(doc.First(productPriceChain...))
}

// productRating uses aggregateRating when it falls inside the storefront's
// displayed range, otherwise synthesizes both values.
func (x *Extractor) productRating(ld map[string]any) (decimal.Decimal, int) {
	if ld != nil {
		value, err := decimal.NewFromString(parser.Lookup(ld, "aggregateRating.ratingValue"))
		count, cerr := strconv.Atoi(parser.Lookup(ld, "aggregateRating.reviewCount"))
		if err == nil && cerr == nil && count >= 0 &&
			!value.LessThan(MinRating) && !value.GreaterThan(MaxRating) {
			return value.Round(1), count
		}
	}
	return x.synth.Rating(), x.synth.ReviewCount()
}

// categoryHint names the product's category from structured data or the
// breadcrumb trail.
func categoryHint(doc *parser.Document, ld map[string]any, productName string) string {
	if ld != nil {
		if c := parser.Lookup(ld, "category"); c != "" {
			parts := strings.Split(c, ">")
			return strings.TrimSpace(parts[len(parts)-1])
		}
	}
	for _, css := range breadcrumbChain {
		crumbs := doc.Select(css)
		for i := len(crumbs) - 1; i >= 0; i-- {
			text := crumbs[i].Text()
			if text == "" || breadcrumbSkip[strings.ToLower(text)] || strings.EqualFold(text, productName) {
				continue
			}
			return text
		}
	}
	return ""
}

func botanicalName(doc *parser.Document) string {
	if v := doc.First(botanicalChain...); v != "" {
		return v
	}
	if v := specValue(doc, "botanical"); v != "" {
		return v
	}
	for _, el := range doc.Select(".product-description em, .product__description em, .product-single__description em, [itemprop=description] em") {
		if t := el.Text(); binomialRe.MatchString(t) {
			return t
		}
	}
	return ""
}

func detectDifficulty(text string) string {
	for _, d := range difficultyKeywords {
		for _, kw := range d.keywords {
			if strings.Contains(text, kw) {
				return d.level
			}
		}
	}
	return ""
}

// specValue reads the value next to a label in a specification table or
// definition list.
func specValue(doc *parser.Document, label string) string {
	return doc.First(
		parser.XPath(fmt.Sprintf(specTableXPath, label)),
		parser.XPath(fmt.Sprintf(specListXPath, label)),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstGroup(re *regexp.Regexp, text string) string {
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}
