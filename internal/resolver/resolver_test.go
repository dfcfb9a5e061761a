package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrotrack/internal/browser"
	"macrotrack/pkg/models"
)

const (
	pageURL = "https://www.makro.plazavea.com.pe/pechuga-de-pollo-bolsa-2kg/p"
)

// fakePage scripts what each selector returns on one retailer page.
type fakePage struct {
	waitText map[string]string
	text     map[string]string
	attrs    map[string]string // "sel src" -> value
}

type fakeSession struct {
	pages   map[string]fakePage
	navErr  map[string]error
	current fakePage
	visited []string
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	s.visited = append(s.visited, url)
	if err := s.navErr[url]; err != nil {
		return err
	}
	s.current = s.pages[url]
	return nil
}

func (s *fakeSession) WaitText(_ context.Context, sel string, _ time.Duration) (string, error) {
	if v, ok := s.current.waitText[sel]; ok {
		return v, nil
	}
	return "", browser.ErrTimeout
}

func (s *fakeSession) WaitAttr(_ context.Context, sel, attr string, _ time.Duration) (string, error) {
	if v, ok := s.current.attrs[sel+" "+attr]; ok {
		return v, nil
	}
	return "", browser.ErrTimeout
}

func (s *fakeSession) Text(_ context.Context, sel string) (string, error) {
	if v, ok := s.current.text[sel]; ok {
		return v, nil
	}
	return "", browser.ErrNotFound
}

func (s *fakeSession) Close() error { return nil }

type fakeNutrition struct {
	n   *models.Nutrition
	url string
	err error

	gotName     string
	gotCategory models.MeatType
}

func (f *fakeNutrition) Lookup(_ context.Context, name string, category models.MeatType) (*models.Nutrition, string, error) {
	f.gotName = name
	f.gotCategory = category
	return f.n, f.url, f.err
}

func fullPage() fakePage {
	return fakePage{
		waitText: map[string]string{namePrimarySel: "Pechuga de Pollo Bolsa 2kg"},
		text: map[string]string{
			regularPriceSel: "S/ 25,90",
			promoUnitsSel:   "3 unidades",
			promoPriceSel:   "S/ 21,50",
		},
		attrs: map[string]string{imageSel + " src": "https://img.example/pechuga.jpg"},
	}
}

func newTestResolver(s browser.Session, n NutritionLookup) *Resolver {
	r := New(s, n)
	r.now = func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) }
	return r
}

func TestResolveFullPage(t *testing.T) {
	protein := 22.5
	nut := &fakeNutrition{
		n:   &models.Nutrition{Protein: &protein},
		url: "https://fitia.app/es/alimentos/pechuga?serving=gramos-100-g",
	}
	session := &fakeSession{pages: map[string]fakePage{pageURL: fullPage()}}

	p, err := newTestResolver(session, nut).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)

	assert.Equal(t, "Pechuga de Pollo Bolsa 2kg", p.Name)
	assert.Equal(t, "https://img.example/pechuga.jpg", p.ImageURL)
	require.NotNil(t, p.Price.RegularPrice)
	assert.Equal(t, 25.9, *p.Price.RegularPrice)
	require.NotNil(t, p.Price.Promotion)
	assert.Equal(t, 3, p.Price.Promotion.Units)
	assert.Equal(t, 21.5, p.Price.Promotion.Price)
	assert.Equal(t, 2000.0, p.WeightGr) // from the URL pattern
	assert.Equal(t, models.MeatChicken, p.Type)
	require.NotNil(t, p.Nutrition)
	assert.Equal(t, 22.5, *p.Nutrition.Protein)
	assert.Equal(t, nut.url, p.NutritionURL)
	// packaging noise stripped from the search query
	assert.Equal(t, "Pechuga de Pollo 2kg", nut.gotName)
	assert.Equal(t, models.MeatChicken, nut.gotCategory)
}

func TestResolveNameFallbackSelector(t *testing.T) {
	page := fullPage()
	delete(page.waitText, namePrimarySel)
	page.text[nameFallbackSel] = "Pechuga Especial"
	session := &fakeSession{pages: map[string]fakePage{pageURL: page}}

	p, err := newTestResolver(session, nil).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	assert.Equal(t, "Pechuga Especial", p.Name)
}

func TestResolveNameFromURLWhenSelectorsFail(t *testing.T) {
	page := fullPage()
	delete(page.waitText, namePrimarySel)
	session := &fakeSession{pages: map[string]fakePage{pageURL: page}}

	p, err := newTestResolver(session, nil).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	assert.Equal(t, "Pechuga De Pollo Bolsa 2kg", p.Name)
}

func TestResolveImageTimeoutFails(t *testing.T) {
	page := fullPage()
	delete(page.attrs, imageSel+" src")
	session := &fakeSession{pages: map[string]fakePage{pageURL: page}}

	_, err := newTestResolver(session, nil).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageImage, se.Stage)
	assert.ErrorIs(t, err, browser.ErrTimeout)
}

func TestResolveUnparseablePriceDegrades(t *testing.T) {
	page := fullPage()
	page.text[regularPriceSel] = "consultar precio"
	session := &fakeSession{pages: map[string]fakePage{pageURL: page}}

	p, err := newTestResolver(session, nil).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	assert.Nil(t, p.Price.RegularPrice)
	assert.Nil(t, p.Price.Promotion)
}

func TestResolvePromoAbsent(t *testing.T) {
	page := fullPage()
	delete(page.text, promoUnitsSel)
	delete(page.text, promoPriceSel)
	session := &fakeSession{pages: map[string]fakePage{pageURL: page}}

	p, err := newTestResolver(session, nil).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	require.NotNil(t, p.Price.RegularPrice)
	assert.Nil(t, p.Price.Promotion)
}

func TestResolvePromoMalformedSwallowed(t *testing.T) {
	page := fullPage()
	page.text[promoUnitsSel] = "lleva más"
	session := &fakeSession{pages: map[string]fakePage{pageURL: page}}

	p, err := newTestResolver(session, nil).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	assert.Nil(t, p.Price.Promotion)
}

func TestResolveWeightPrecedence(t *testing.T) {
	session := &fakeSession{pages: map[string]fakePage{pageURL: fullPage()}}
	r := newTestResolver(session, nil)

	// explicit registration weight wins over the URL's 2kg
	w := 500.0
	p, err := r.Resolve(context.Background(), models.ProductURL{URL: pageURL, WeightGr: &w})
	require.NoError(t, err)
	assert.Equal(t, 500.0, p.WeightGr)

	// no explicit weight, no URL/name pattern: 1kg default
	plainURL := "https://www.makro.plazavea.com.pe/producto-generico/p"
	page := fullPage()
	page.waitText[namePrimarySel] = "Producto Generico"
	session.pages[plainURL] = page
	p, err = r.Resolve(context.Background(), models.ProductURL{URL: plainURL})
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p.WeightGr)

	// name pattern used when the URL has none
	page.waitText[namePrimarySel] = "Producto Generico 750g"
	session.pages[plainURL] = page
	p, err = r.Resolve(context.Background(), models.ProductURL{URL: plainURL})
	require.NoError(t, err)
	assert.Equal(t, 750.0, p.WeightGr)
}

func TestResolveNutritionFailureNonFatal(t *testing.T) {
	nut := &fakeNutrition{err: errors.New("no result"), url: "https://fitia.app/x"}
	session := &fakeSession{pages: map[string]fakePage{pageURL: fullPage()}}

	p, err := newTestResolver(session, nut).Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	assert.Nil(t, p.Nutrition)
	assert.Equal(t, "https://fitia.app/x", p.NutritionURL)
}

func TestResolveIdempotent(t *testing.T) {
	session := &fakeSession{pages: map[string]fakePage{pageURL: fullPage()}}
	r := newTestResolver(session, nil)

	p1, err := r.Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	p2, err := r.Resolve(context.Background(), models.ProductURL{URL: pageURL})
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
