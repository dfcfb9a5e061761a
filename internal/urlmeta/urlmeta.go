// Package urlmeta holds the pure, offline half of product resolution:
// validating retailer URLs and guessing weight / meat category from URL
// or name text. Nothing here touches the network.
package urlmeta

import (
	"regexp"
	"strings"

	"github.com/spf13/cast"

	"macrotrack/pkg/models"
)

// Supported retailer product-page shape.
const (
	RetailerPrefix = "https://www.makro.plazavea.com.pe/"
	productSuffix  = "/p"
)

// Metadata is what can be inferred from URL/name text alone. Fields are
// nil/empty when no pattern matched; nothing is ever guessed.
type Metadata struct {
	WeightGr *float64
	Type     models.MeatType
}

var weightPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+)\s*(?:kg|g)\b`),
	regexp.MustCompile(`(?i)x\s*(\d+)\s*(?:kg|g)`),
	regexp.MustCompile(`(?i)bolsa\s*(\d+)\s*(?:kg|g)`),
}

// meatKeywords maps each category to the words that imply it. Order
// matters: the first category with any matching keyword wins.
var meatKeywords = []struct {
	Type     models.MeatType
	Keywords []string
}{
	{models.MeatChicken, []string{"pollo", "pechuga", "pierna", "encuentro"}},
	{models.MeatTurkey, []string{"pavo"}},
	{models.MeatBeef, []string{"res", "carne", "bistec", "lomo"}},
	{models.MeatPork, []string{"cerdo", "chuleta"}},
}

// boilerplate tokens stripped when deriving a display name from a URL.
var nameStopWords = map[string]struct{}{
	"makro": {}, "plazavea": {}, "com": {}, "pe": {}, "p": {},
}

var nameNoise = regexp.MustCompile(`(?i)\b(Bolsa|Paquete|x\d+|Congelado|Fresco)\b`)

// Validate reports whether url is a supported retailer product page.
// Callers must not attempt extraction or resolution on anything else.
func Validate(url string) bool {
	return strings.HasPrefix(url, RetailerPrefix) && strings.HasSuffix(url, productSuffix)
}

// Weight scans s for a weight pattern and returns it in grams.
func Weight(s string) (float64, bool) {
	for _, re := range weightPatterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		w := cast.ToFloat64(m[1])
		if w <= 0 {
			continue
		}
		if strings.Contains(strings.ToLower(m[0]), "kg") {
			w *= 1000
		}
		return w, true
	}
	return 0, false
}

// Category scans the given texts for meat-category keywords and returns
// the first matching category.
func Category(texts ...string) (models.MeatType, bool) {
	for _, entry := range meatKeywords {
		for _, kw := range entry.Keywords {
			for _, t := range texts {
				if t != "" && strings.Contains(strings.ToLower(t), kw) {
					return entry.Type, true
				}
			}
		}
	}
	return "", false
}

// Extract infers weight and category from the URL and, when available,
// the product name.
func Extract(url, name string) Metadata {
	var md Metadata
	if w, ok := Weight(url); ok {
		md.WeightGr = &w
	}
	if t, ok := Category(url, name); ok {
		md.Type = t
	}
	return md
}

// NameFromURL derives a readable product name from the URL path when
// the page itself gives us nothing: second-to-last segment, dashes to
// spaces, boilerplate tokens removed, title case.
func NameFromURL(url string) string {
	parts := strings.Split(strings.TrimSuffix(url, "/"), "/")
	if len(parts) < 2 {
		return ""
	}
	slug := parts[len(parts)-2]
	raw := strings.ReplaceAll(slug, "-", " ")

	var words []string
	for _, w := range strings.Fields(raw) {
		if _, skip := nameStopWords[strings.ToLower(w)]; skip {
			continue
		}
		words = append(words, titleWord(w))
	}
	return strings.Join(words, " ")
}

// PreprocessName strips packaging noise (Bolsa, Paquete, xN, ...) so
// the remaining words work as a nutrition search query.
func PreprocessName(name string) string {
	name = nameNoise.ReplaceAllString(name, "")
	return strings.Join(strings.Fields(name), " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
}
