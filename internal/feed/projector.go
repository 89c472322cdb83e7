package feed

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"stockfeed/internal/model"
	"stockfeed/internal/observability"
)

// Canonical keys of the columns read from the stock feed.
const (
	KeyProductID       = "id_du_produit"
	KeyName            = "nom"
	KeyCategory        = "nom_de_la_categorie_par_dfaut"
	KeyPrice           = "prix_de_vente_ht"
	KeyStock           = "quantite"
	KeyImageURL        = "url_de_limage_par_dfaut"
	KeyDescription     = "description_sans_html"
	KeyHTMLDescription = "description"
	KeyBrand           = "fabriquant"
	KeyColor           = "couleur"
	KeySize            = "tailles"
	KeyReference       = "reference"
)

// DefaultCategories are the feed categories imported into the catalog.
var DefaultCategories = []string{
	"Lingerie",
	"Sexy Christmas",
	"Bas",
	"String, Culotte, Tanga & Shorty",
	"Bas jarretlles",
	"Babydoll",
	"Gants & Mitaines",
	"Guêpière, Corset & Serre-Taille",
	"Nuisette",
	"Bas autofixants",
	"Body",
	"Bodystocking",
	"Collants",
	"Ensemble de lingerie",
	"Soutien-Gorge",
	"Porte-jarretelles",
}

// CategorySet is an exact, case-sensitive allow-list.
type CategorySet map[string]struct{}

func NewCategorySet(names ...string) CategorySet {
	set := make(CategorySet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func (s CategorySet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Projector filters feed rows by category and maps them to product variants.
type Projector struct {
	Categories CategorySet
	Logger     *zap.Logger
}

func NewProjector(categories CategorySet, logger *zap.Logger) *Projector {
	if categories == nil {
		categories = NewCategorySet(DefaultCategories...)
	}
	return &Projector{Categories: categories, Logger: observability.OrNop(logger)}
}

func (p *Projector) Keep(row Row) bool {
	return p.Categories.Contains(row[KeyCategory])
}

// Project maps a row to a variant. Unparsable price or stock values become 0.
func (p *Projector) Project(row Row, line int) model.ProductVariant {
	price, ok := ParsePrice(row[KeyPrice])
	if !ok {
		p.logger().Debug("price coerced to zero", zap.Int("line", line), zap.String("value", row[KeyPrice]))
	}
	stock, ok := ParseStock(row[KeyStock])
	if !ok {
		p.logger().Debug("stock coerced to zero", zap.Int("line", line), zap.String("value", row[KeyStock]))
	}

	description := row[KeyDescription]
	if strings.TrimSpace(description) == "" && row[KeyHTMLDescription] != "" {
		description = PlainText(row[KeyHTMLDescription])
	}

	return model.ProductVariant{
		ProductID:   row[KeyProductID],
		Name:        row[KeyName],
		Category:    row[KeyCategory],
		Price:       price,
		Stock:       stock,
		ImageURL:    row[KeyImageURL],
		Description: description,
		Brand:       row[KeyBrand],
		Color:       row[KeyColor],
		Size:        row[KeySize],
		Reference:   row[KeyReference],
	}
}

func (p *Projector) logger() *zap.Logger {
	return observability.OrNop(p.Logger)
}

var (
	floatPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)
	intPrefix   = regexp.MustCompile(`^[+-]?\d+`)
)

// ParsePrice reads a decimal written either as "1 234,56" or "1,234.56".
// Like a permissive float parse it keeps the leading numeric part of the
// input; ok is false when there is none, in which case the value is 0.
func ParsePrice(raw string) (float64, bool) {
	s := stripSpaces(raw)
	lastComma, lastDot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	}

	prefix := floatPrefix.FindString(s)
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseStock reads the leading integer of raw; ok is false when there is none.
func ParseStock(raw string) (int, bool) {
	prefix := intPrefix.FindString(stripSpaces(raw))
	if prefix == "" {
		return 0, false
	}
	v, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return v, true
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// PlainText returns the visible text of an HTML fragment.
func PlainText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
