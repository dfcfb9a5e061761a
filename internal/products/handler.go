// Package products exposes the HTTP surface over the store, the
// resolver and the calculators. Handlers stay thin: parse, delegate,
// map errors to status codes.
package products

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"macrotrack/internal/browser"
	"macrotrack/internal/calc"
	"macrotrack/internal/recipe"
	"macrotrack/internal/resolver"
	"macrotrack/internal/store"
	"macrotrack/pkg/models"
)

// SessionFactory opens a fresh browser session for one refresh batch.
// The handler closes the session when the batch is done.
type SessionFactory func(ctx context.Context) (browser.Session, error)

type Handler struct {
	Store     *store.Store
	Nutrition resolver.NutritionLookup
	Sessions  SessionFactory
	Sink      resolver.EventSink
	Recipes   *recipe.Generator

	refreshMu sync.Mutex
}

func NewHandler(st *store.Store, nutrition resolver.NutritionLookup, sessions SessionFactory, sink resolver.EventSink, recipes *recipe.Generator) *Handler {
	return &Handler{
		Store:     st,
		Nutrition: nutrition,
		Sessions:  sessions,
		Sink:      sink,
		Recipes:   recipes,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/products/urls", h.listURLs)
	rg.POST("/products/urls", h.addURL)
	rg.DELETE("/products/urls", h.deleteURL)

	rg.GET("/products", h.listProducts)
	rg.GET("/products/search", h.searchProducts)
	rg.POST("/products/refresh", h.refresh)
	rg.POST("/products/backup", h.backup)

	rg.POST("/calc/consumption", h.consumption)
	rg.POST("/calc/purchase", h.purchase)
	rg.POST("/calc/balance", h.balance)

	rg.POST("/recipe", h.suggestRecipe)
}

func (h *Handler) listURLs(c *gin.Context) {
	urls := h.Store.ProductURLs()
	c.JSON(http.StatusOK, gin.H{
		"total": len(urls),
		"items": urls,
	})
}

func (h *Handler) addURL(c *gin.Context) {
	var reg models.ProductURL
	if err := c.ShouldBindJSON(&reg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	reg.URL = strings.TrimSpace(reg.URL)

	switch err := h.Store.AddProductURL(reg); {
	case errors.Is(err, store.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, gin.H{"error": "not a retailer product URL"})
	case errors.Is(err, store.ErrDuplicateURL):
		c.JSON(http.StatusConflict, gin.H{"error": "URL already registered"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "add failed"})
	default:
		c.JSON(http.StatusCreated, gin.H{"url": reg.URL})
	}
}

func (h *Handler) deleteURL(c *gin.Context) {
	url := strings.TrimSpace(c.Query("url"))
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url parameter"})
		return
	}

	removed, err := h.Store.DeleteProductURL(url)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "URL not registered"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": url})
}

func (h *Handler) listProducts(c *gin.Context) {
	products := h.Store.Products()
	c.JSON(http.StatusOK, gin.H{
		"total": len(products),
		"items": products,
	})
}

func (h *Handler) searchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}
	items := h.Store.SearchProducts(q)
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

// Refresh sentinels, mapped to status codes by the HTTP handler and
// logged as-is by the scheduler.
var (
	ErrRefreshRunning = errors.New("products: refresh already running")
	ErrNoSession      = errors.New("products: browser session unavailable")
)

// RunRefresh executes one batch resolution over every registered URL
// and merges the successes into the store. One batch at a time: the
// browser session is too heavy to share and merge order would be
// unclear with overlapping runs. Shared by the HTTP endpoint and the
// cron scheduler.
func (h *Handler) RunRefresh(ctx context.Context) (models.BatchReport, error) {
	if !h.refreshMu.TryLock() {
		return models.BatchReport{}, ErrRefreshRunning
	}
	defer h.refreshMu.Unlock()

	urls := h.Store.ProductURLs()
	if len(urls) == 0 {
		return models.BatchReport{}, nil
	}

	session, err := h.Sessions(ctx)
	if err != nil {
		zap.S().Errorw("browser session start failed", "err", err)
		return models.BatchReport{}, ErrNoSession
	}
	defer session.Close()

	resolved, report := resolver.New(session, h.Nutrition).ResolveAll(ctx, urls, h.Sink)
	if err := h.Store.UpdateProducts(resolved); err != nil {
		zap.S().Errorw("store update failed", "run_id", report.RunID, "err", err)
		return report, err
	}
	return report, nil
}

func (h *Handler) refresh(c *gin.Context) {
	report, err := h.RunRefresh(c.Request.Context())
	switch {
	case errors.Is(err, ErrRefreshRunning):
		c.JSON(http.StatusConflict, gin.H{"error": "refresh already running"})
	case errors.Is(err, ErrNoSession):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "browser unavailable"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store update failed"})
	default:
		c.JSON(http.StatusOK, gin.H{"report": report})
	}
}

func (h *Handler) backup(c *gin.Context) {
	files, err := h.Store.Backup()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "backup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

type consumptionReq struct {
	URL           string  `json:"url"`
	ProteinNeeded float64 `json:"protein_needed"`
}

func (h *Handler) consumption(c *gin.Context) {
	var req consumptionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	product, ok := h.product(c, req.URL)
	if !ok {
		return
	}
	if !product.HasProtein() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "product has no nutrition data"})
		return
	}

	result, err := calc.DailyConsumption(req.ProteinNeeded, *product.Nutrition.Protein, product.WeightGr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type purchaseReq struct {
	URL        string  `json:"url"`
	UnitsDaily float64 `json:"units_daily"`
	Days       int     `json:"days"`
}

func (h *Handler) purchase(c *gin.Context) {
	var req purchaseReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	product, ok := h.product(c, req.URL)
	if !ok {
		return
	}
	if product.Price.RegularPrice == nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "product has no price data"})
		return
	}

	days := req.Days
	if days == 0 {
		now := time.Now()
		days = calc.DaysInMonth(now.Year(), now.Month())
	}

	plan, err := calc.OptimalPurchase(req.UnitsDaily, *product.Price.RegularPrice, product.Price.Promotion, days)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

type balanceReq struct {
	URLs  []string          `json:"urls"`
	Goals models.MacroGoals `json:"goals"`
}

func (h *Handler) balance(c *gin.Context) {
	var req balanceReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	products, missing := h.selectProducts(req.URLs)
	if len(missing) > 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown products", "urls": missing})
		return
	}

	c.JSON(http.StatusOK, calc.MacroBalance(products, req.Goals))
}

type recipeReq struct {
	URLs []string `json:"urls"`
}

func (h *Handler) suggestRecipe(c *gin.Context) {
	var req recipeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(req.URLs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no products selected"})
		return
	}

	products, missing := h.selectProducts(req.URLs)
	if len(missing) > 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown products", "urls": missing})
		return
	}

	ingredients := make([]recipe.Ingredient, 0, len(products))
	for _, p := range products {
		ingredients = append(ingredients, recipe.Ingredient{Name: p.Name, Grams: p.WeightGr})
	}

	answer, err := h.Recipes.Generate(c.Request.Context(), recipe.BuildPrompt(ingredients))
	if err != nil {
		zap.S().Errorw("recipe generation failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "recipe generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": answer})
}

// product fetches one resolved product and writes the error response
// itself when it is missing.
func (h *Handler) product(c *gin.Context, url string) (*models.Product, bool) {
	url = strings.TrimSpace(url)
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing url"})
		return nil, false
	}
	product := h.Store.Product(url)
	if product == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not resolved"})
		return nil, false
	}
	return product, true
}

// selectProducts maps URLs to resolved products; empty URLs selects
// everything in the store.
func (h *Handler) selectProducts(urls []string) ([]models.Product, []string) {
	all := h.Store.Products()
	if len(urls) == 0 {
		products := make([]models.Product, 0, len(all))
		for _, p := range all {
			products = append(products, p)
		}
		return products, nil
	}

	var products []models.Product
	var missing []string
	for _, url := range urls {
		p, ok := all[strings.TrimSpace(url)]
		if !ok {
			missing = append(missing, url)
			continue
		}
		products = append(products, p)
	}
	return products, missing
}
