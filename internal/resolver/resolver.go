// Package resolver turns a registered product URL into a resolved
// Product record: it drives the browser session over the retailer page
// for name/image/price, applies the weight precedence rules, and asks
// the nutrition client for macro values. One resolution either yields
// a complete immutable Product or a stage-tagged error; partial
// products are never emitted.
package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"macrotrack/internal/browser"
	"macrotrack/internal/urlmeta"
	"macrotrack/pkg/models"
)

// Retailer page selectors. These chase the retailer's markup and are
// the first thing to revisit after a page redesign.
const (
	namePrimarySel  = "h1.ProductCard__name .productName"
	nameFallbackSel = "h1.ProductCard__name"
	imageSel        = ".slick-slide.slick-active.slick-current img"
	regularPriceSel = ".MakroPrice_Regular .pricebox span"
	promoUnitsSel   = ".MakroPrice_BiPriceMakro .units span"
	promoPriceSel   = ".MakroPrice_BiPriceMakro .pricebox span"
)

const defaultWaitTimeout = 3 * time.Second

// defaultWeightGr applies when neither the registration nor any text
// pattern gives a weight.
const defaultWeightGr = 1000.0

// Stage names used in errors, logs and feed events.
const (
	StageNavigate  = "navigate"
	StageImage     = "image"
	StageNutrition = "nutrition"
)

// StageError tags a resolution failure with the stage it died in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// NutritionLookup is implemented by nutrition.Client.
type NutritionLookup interface {
	Lookup(ctx context.Context, name string, category models.MeatType) (*models.Nutrition, string, error)
}

// Resolver resolves one URL at a time over a shared browser session.
// The session is owned by the caller; the resolver never closes it.
type Resolver struct {
	session     browser.Session
	nutrition   NutritionLookup
	waitTimeout time.Duration
	now         func() time.Time
}

func New(session browser.Session, nutrition NutritionLookup) *Resolver {
	return &Resolver{
		session:     session,
		nutrition:   nutrition,
		waitTimeout: defaultWaitTimeout,
		now:         time.Now,
	}
}

// Resolve runs the full per-URL state machine. A nil error means the
// returned Product is complete (nutrition may still be absent, which
// is a degraded field, not a failure).
func (r *Resolver) Resolve(ctx context.Context, reg models.ProductURL) (*models.Product, error) {
	log := zap.S().With("url", reg.URL)

	if err := r.session.Navigate(ctx, reg.URL); err != nil {
		return nil, &StageError{Stage: StageNavigate, Err: err}
	}

	name := r.extractName(ctx, reg.URL)

	imageURL, err := r.session.WaitAttr(ctx, imageSel, "src", r.waitTimeout)
	if err != nil {
		return nil, &StageError{Stage: StageImage, Err: err}
	}

	price := r.extractPrice(ctx, log)
	weight := r.resolveWeight(reg, name)

	category := reg.Type
	if category == "" {
		if t, ok := urlmeta.Category(reg.URL, name); ok {
			category = t
		}
	}

	var nutritionInfo *models.Nutrition
	nutritionURL := ""
	if r.nutrition != nil {
		n, detailURL, err := r.nutrition.Lookup(ctx, urlmeta.PreprocessName(name), category)
		nutritionURL = detailURL
		if err != nil {
			log.Warnw("nutrition lookup failed", "stage", StageNutrition, "err", err)
		} else {
			nutritionInfo = n
		}
	}

	return &models.Product{
		URL:          reg.URL,
		Name:         name,
		ImageURL:     imageURL,
		Price:        price,
		WeightGr:     weight,
		Type:         category,
		NutritionURL: nutritionURL,
		Nutrition:    nutritionInfo,
		LastUpdate:   r.now(),
	}, nil
}

// extractName walks an ordered list of strategies until one yields a
// non-empty name: the specific selector, a broader fallback, then a
// readable name derived from the URL path.
func (r *Resolver) extractName(ctx context.Context, url string) string {
	if name, err := r.session.WaitText(ctx, namePrimarySel, r.waitTimeout); err == nil && name != "" {
		return name
	}
	if name, err := r.session.Text(ctx, nameFallbackSel); err == nil && name != "" {
		return name
	}
	return urlmeta.NameFromURL(url)
}

// resolveWeight applies the precedence order: explicit registration
// weight, URL pattern, name pattern, then the 1 kg default.
func (r *Resolver) resolveWeight(reg models.ProductURL, name string) float64 {
	if reg.WeightGr != nil && *reg.WeightGr > 0 {
		return *reg.WeightGr
	}
	if w, ok := urlmeta.Weight(reg.URL); ok {
		return w
	}
	if w, ok := urlmeta.Weight(name); ok {
		return w
	}
	return defaultWeightGr
}
