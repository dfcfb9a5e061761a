package nutrition

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cast"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"macrotrack/pkg/models"
)

const (
	firstResultSel  = "li.group a"
	nutrientSection = "div.mt-8"
	nutrientCardSel = "div.flex.flex-col.items-center.space-y-1.rounded-xl.p-3.shadow-uniform"
	valueSel        = "span.title-3.font-bold"
	labelSel        = "span.subtitle-3"
)

var leadingNumber = regexp.MustCompile(`^([\d.]+)`)

// accentStripper decomposes characters and drops combining marks, so
// "proteínas" compares equal to "proteinas".
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// RemoveAccents returns s with diacritics stripped.
func RemoveAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// parseFirstResult extracts the href of the first search hit.
func parseFirstResult(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse search html: %w", err)
	}

	href, ok := doc.Find(firstResultSel).First().Attr("href")
	if !ok || href == "" {
		return "", ErrNoResult
	}
	return href, nil
}

// parseNutrients walks the fixed nutrient-card layout of a detail page
// and maps the Spanish labels onto the four macro fields. Cards with
// unreadable values are skipped rather than failing the parse.
func parseNutrients(html string) (*models.Nutrition, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse detail html: %w", err)
	}

	section := doc.Find(nutrientSection).First()
	if section.Length() == 0 {
		return nil, ErrNoNutrients
	}

	var n models.Nutrition
	found := false
	section.Find(nutrientCardSel).Each(func(_ int, card *goquery.Selection) {
		valueText := strings.TrimSpace(card.Find(valueSel).First().Text())
		label := RemoveAccents(strings.ToLower(strings.TrimSpace(card.Find(labelSel).First().Text())))
		if valueText == "" || label == "" {
			return
		}

		m := leadingNumber.FindStringSubmatch(valueText)
		if m == nil {
			return
		}
		value, err := cast.ToFloat64E(m[1])
		if err != nil {
			return
		}

		switch {
		case strings.Contains(label, "calorias"):
			n.Calories = &value
		case strings.Contains(label, "grasas"):
			n.Fat = &value
		case strings.Contains(label, "carbohidratos"):
			n.Carbs = &value
		case strings.Contains(label, "proteinas"):
			n.Protein = &value
		default:
			return
		}
		found = true
	})

	if !found {
		return nil, ErrNoNutrients
	}
	return &n, nil
}
