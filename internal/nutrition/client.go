// Package nutrition resolves macro values for a product name against
// the fitia food database: one proxied fetch of a search-results page,
// one proxied fetch of the first result's detail page, both parsed from
// HTML. Everything here is best-effort; callers treat any error as
// "nutrition absent".
package nutrition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"macrotrack/pkg/models"
)

const (
	fitiaBase     = "https://fitia.app"
	searchPath    = "/es/buscar/alimentos-y-recetas/"
	servingSuffix = "?serving=gramos-100-g"
)

var (
	ErrNoResult    = errors.New("nutrition: no search result")
	ErrNoNutrients = errors.New("nutrition: nutrient section not found")
)

// Fetcher fetches a page through the anti-bot proxy. Implemented by
// fetchproxy.Client; faked in tests.
type Fetcher interface {
	Get(ctx context.Context, url string) (status int, body string, err error)
}

// Client drives the two-fetch lookup.
type Client struct {
	fetch Fetcher
}

func NewClient(fetch Fetcher) *Client {
	return &Client{fetch: fetch}
}

// Lookup searches fitia for the product name (optionally biased by the
// meat category) and parses the first result's nutrient card. Returns
// the parsed values and the detail URL they came from.
func (c *Client) Lookup(ctx context.Context, name string, category models.MeatType) (*models.Nutrition, string, error) {
	detailURL, err := c.search(ctx, name, category)
	if err != nil {
		return nil, "", err
	}

	status, body, err := c.fetch.Get(ctx, detailURL)
	if err != nil {
		return nil, detailURL, fmt.Errorf("fetch detail page: %w", err)
	}
	if status != 200 {
		return nil, detailURL, fmt.Errorf("detail page status %d", status)
	}

	n, err := parseNutrients(body)
	if err != nil {
		return nil, detailURL, err
	}
	return n, detailURL, nil
}

// search fetches the search-results page and returns the absolute
// detail URL of the first hit, serving parameter appended.
func (c *Client) search(ctx context.Context, name string, category models.MeatType) (string, error) {
	terms := strings.Join(strings.Fields(strings.ToLower(name)), "+")
	if category != "" {
		terms += "+" + string(category)
	}

	// terms are already +-separated words; the literal plus is the
	// separator fitia expects
	searchURL := fmt.Sprintf("%s%s?search=%s&country=pe", fitiaBase, searchPath, terms)

	status, body, err := c.fetch.Get(ctx, searchURL)
	if err != nil {
		return "", fmt.Errorf("fetch search page: %w", err)
	}
	if status != 200 {
		return "", fmt.Errorf("search page status %d", status)
	}

	href, err := parseFirstResult(body)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(href, fitiaBase) {
		href = fitiaBase + href
	}

	zap.S().Debugw("nutrition search hit", "name", name, "url", href)
	return href + servingSuffix, nil
}
