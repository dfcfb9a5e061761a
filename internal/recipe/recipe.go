// Package recipe asks an external text-generation API for a recipe
// suggestion built from the user's daily ingredient amounts. The API
// is an opaque collaborator: one POST, one text answer, no retries.
package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/guonaihong/gout"
)

const defaultTimeout = 30 * time.Second

var ErrEmptyAnswer = errors.New("recipe: empty answer from generator")

// Generator holds the generative-API endpoint and key.
type Generator struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

func NewGenerator(endpoint, apiKey string) *Generator {
	return &Generator{Endpoint: endpoint, APIKey: apiKey, Timeout: defaultTimeout}
}

// Ingredient is one product and its daily grams.
type Ingredient struct {
	Name  string
	Grams float64
}

// BuildPrompt assembles the natural-language request. Ingredients are
// sorted by name so the same selection always produces the same
// prompt.
func BuildPrompt(ingredients []Ingredient) string {
	sorted := make([]Ingredient, len(ingredients))
	copy(sorted, ingredients)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	for _, ing := range sorted {
		fmt.Fprintf(&b, "- %s: %.1fg\n", ing.Name, ing.Grams)
	}

	return fmt.Sprintf(`Dame una receta peruana para desayuno, almuerzo y cena usando estos ingredientes:
%s
Por favor incluye:
- Nombre de cada plato
- Ingredientes con cantidades
- Pasos de preparación
- Valor nutricional aproximado`, b.String())
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends the prompt and returns the generated text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	timeout := g.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var (
		code int
		resp generateResponse
	)
	err := gout.POST(g.Endpoint).
		WithContext(ctx).
		SetTimeout(timeout).
		SetQuery(gout.H{"key": g.APIKey}).
		SetJSON(generateRequest{
			Contents: []content{{Parts: []part{{Text: prompt}}}},
		}).
		Code(&code).
		BindJSON(&resp).
		Do()
	if err != nil {
		return "", fmt.Errorf("recipe generate: %w", err)
	}
	if code != 200 {
		return "", fmt.Errorf("recipe generate: status %d", code)
	}

	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if strings.TrimSpace(p.Text) != "" {
				return p.Text, nil
			}
		}
	}
	return "", ErrEmptyAnswer
}
