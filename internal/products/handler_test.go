package products

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrotrack/internal/browser"
	"macrotrack/internal/recipe"
	"macrotrack/internal/store"
	"macrotrack/pkg/models"
)

const (
	chickenURL = "https://www.makro.plazavea.com.pe/pechuga-de-pollo-1kg/p"
	beefURL    = "https://www.makro.plazavea.com.pe/lomo-de-res-500-g/p"
)

func ptr(v float64) *float64 { return &v }

func seedStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, st.AddProductURL(models.ProductURL{URL: chickenURL}))
	require.NoError(t, st.AddProductURL(models.ProductURL{URL: beefURL}))

	require.NoError(t, st.UpdateProducts(map[string]models.Product{
		chickenURL: {
			URL:      chickenURL,
			Name:     "Pechuga De Pollo",
			WeightGr: 1000,
			Type:     models.MeatChicken,
			Price: models.Price{
				RegularPrice: ptr(10.0),
				Promotion:    &models.Promotion{Units: 3, Price: 8.0},
			},
			Nutrition: &models.Nutrition{
				Calories: ptr(120),
				Fat:      ptr(2.5),
				Carbs:    ptr(0),
				Protein:  ptr(27),
			},
			LastUpdate: time.Now(),
		},
		beefURL: {
			URL:      beefURL,
			Name:     "Lomo De Res",
			WeightGr: 500,
			Type:     models.MeatBeef,
			Price:    models.Price{RegularPrice: ptr(18.0)},
			// nutrition lookup failed for this one
			LastUpdate: time.Now(),
		},
	}))
	return st
}

func newTestRouter(t *testing.T, h *Handler) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var buf *bytes.Buffer
	if body == "" {
		buf = bytes.NewBuffer(nil)
	} else {
		buf = bytes.NewBufferString(body)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, buf)
	r.ServeHTTP(w, req)
	return w
}

func TestURLRegistration(t *testing.T) {
	st := seedStore(t)
	r := newTestRouter(t, NewHandler(st, nil, nil, nil, nil))

	t.Run("list", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/api/products/urls", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), chickenURL)
		assert.Contains(t, w.Body.String(), `"total":2`)
	})

	t.Run("add", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/products/urls",
			`{"url":"https://www.makro.plazavea.com.pe/pierna-de-pollo/p"}`)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("add invalid", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/products/urls",
			`{"url":"https://example.com/whatever"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("add duplicate", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/products/urls",
			`{"url":"`+chickenURL+`"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/products/urls?url="+beefURL, "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, r, http.MethodDelete, "/api/products/urls?url="+beefURL, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete without url", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/api/products/urls", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListAndSearchProducts(t *testing.T) {
	st := seedStore(t)
	r := newTestRouter(t, NewHandler(st, nil, nil, nil, nil))

	w := doJSON(t, r, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Pechuga De Pollo")
	assert.Contains(t, w.Body.String(), "Lomo De Res")

	w = doJSON(t, r, http.MethodGet, "/api/products/search?q=lomo", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Lomo De Res")
	assert.NotContains(t, w.Body.String(), "Pechuga")

	w = doJSON(t, r, http.MethodGet, "/api/products/search", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsumptionEndpoint(t *testing.T) {
	st := seedStore(t)
	r := newTestRouter(t, NewHandler(st, nil, nil, nil, nil))

	t.Run("ok", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/calc/consumption",
			`{"url":"`+chickenURL+`","protein_needed":54}`)
		require.Equal(t, http.StatusOK, w.Code)

		var got models.Consumption
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.InDelta(t, 200, got.Grams, 0.01)
		assert.InDelta(t, 0.2, got.Units, 0.001)
	})

	t.Run("no nutrition", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/calc/consumption",
			`{"url":"`+beefURL+`","protein_needed":54}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/calc/consumption",
			`{"url":"https://www.makro.plazavea.com.pe/nope/p","protein_needed":54}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid target", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/calc/consumption",
			`{"url":"`+chickenURL+`","protein_needed":-1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPurchaseEndpoint(t *testing.T) {
	st := seedStore(t)
	r := newTestRouter(t, NewHandler(st, nil, nil, nil, nil))

	t.Run("promo plan", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/calc/purchase",
			`{"url":"`+chickenURL+`","units_daily":2.0,"days":30}`)
		require.Equal(t, http.StatusOK, w.Code)

		var plan models.PurchasePlan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
		assert.Equal(t, models.StrategyMixed, plan.Strategy)
		assert.Equal(t, 20, plan.PromoSets)
		assert.InDelta(t, 480, plan.TotalCost, 0.01)
		assert.InDelta(t, 20, plan.SavingsPercentage, 0.01)
	})

	t.Run("regular only", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/calc/purchase",
			`{"url":"`+beefURL+`","units_daily":1.0,"days":30}`)
		require.Equal(t, http.StatusOK, w.Code)

		var plan models.PurchasePlan
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
		assert.Equal(t, models.StrategyRegular, plan.Strategy)
		assert.Equal(t, 30, plan.Units)
	})

	t.Run("bad days", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/api/calc/purchase",
			`{"url":"`+chickenURL+`","units_daily":1.0,"days":-5}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestBalanceEndpoint(t *testing.T) {
	st := seedStore(t)
	r := newTestRouter(t, NewHandler(st, nil, nil, nil, nil))

	body := `{"urls":["` + chickenURL + `"],"goals":{"daily_protein":270,"daily_carbs":10,"daily_fat":25}}`
	w := doJSON(t, r, http.MethodPost, "/api/calc/balance", body)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.MacroBalance
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	// 1000 g of chicken = 10x the per-100g values
	assert.InDelta(t, 270, got.Current.Protein, 0.01)
	assert.Equal(t, models.MacroBalanced, got.Macros["protein"].Status)

	w = doJSON(t, r, http.MethodPost, "/api/calc/balance",
		`{"urls":["https://www.makro.plazavea.com.pe/nope/p"],"goals":{}}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecipeEndpoint(t *testing.T) {
	st := seedStore(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Arroz con pollo"}]}}]}`))
	}))
	defer upstream.Close()

	gen := recipe.NewGenerator(upstream.URL, "test-key")
	r := newTestRouter(t, NewHandler(st, nil, nil, nil, gen))

	w := doJSON(t, r, http.MethodPost, "/api/recipe", `{"urls":["`+chickenURL+`"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Arroz con pollo")

	w = doJSON(t, r, http.MethodPost, "/api/recipe", `{"urls":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// stubSession serves the same canned product page for every URL.
type stubSession struct {
	closed bool
}

func (s *stubSession) Navigate(ctx context.Context, url string) error { return nil }

func (s *stubSession) WaitText(ctx context.Context, sel string, timeout time.Duration) (string, error) {
	if sel == "h1.ProductCard__name .productName" {
		return "Pechuga De Pollo Fresca", nil
	}
	return "", browser.ErrTimeout
}

func (s *stubSession) WaitAttr(ctx context.Context, sel, attr string, timeout time.Duration) (string, error) {
	return "https://cdn.example.com/pollo.jpg", nil
}

func (s *stubSession) Text(ctx context.Context, sel string) (string, error) {
	if sel == ".MakroPrice_Regular .pricebox span" {
		return "S/ 12.50", nil
	}
	return "", browser.ErrNotFound
}

func (s *stubSession) Close() error {
	s.closed = true
	return nil
}

func TestRefreshEndpoint(t *testing.T) {
	st := seedStore(t)

	session := &stubSession{}
	factory := func(ctx context.Context) (browser.Session, error) { return session, nil }
	r := newTestRouter(t, NewHandler(st, nil, factory, nil, nil))

	w := doJSON(t, r, http.MethodPost, "/api/products/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, session.closed)

	var resp struct {
		Report models.BatchReport `json:"report"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Report.Total)
	assert.Equal(t, 2, resp.Report.Resolved)
	assert.Zero(t, resp.Report.Failed)
	assert.NotEmpty(t, resp.Report.RunID)

	refreshed := st.Product(chickenURL)
	require.NotNil(t, refreshed)
	assert.Equal(t, "Pechuga De Pollo Fresca", refreshed.Name)
	require.NotNil(t, refreshed.Price.RegularPrice)
	assert.InDelta(t, 12.50, *refreshed.Price.RegularPrice, 0.001)
	// nutrition client absent for this run: previous data replaced
	assert.Nil(t, refreshed.Nutrition)
}

func TestRefreshSessionFailure(t *testing.T) {
	st := seedStore(t)
	factory := func(ctx context.Context) (browser.Session, error) {
		return nil, assert.AnError
	}
	r := newTestRouter(t, NewHandler(st, nil, factory, nil, nil))

	w := doJSON(t, r, http.MethodPost, "/api/products/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestBackupEndpoint(t *testing.T) {
	st := seedStore(t)
	r := newTestRouter(t, NewHandler(st, nil, nil, nil, nil))

	w := doJSON(t, r, http.MethodPost, "/api/products/backup", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "products_urls_backup_")
}
