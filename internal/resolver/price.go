package resolver

import (
	"context"
	"regexp"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"

	"macrotrack/pkg/models"
)

var firstInt = regexp.MustCompile(`\d+`)

// extractPrice reads the regular price and, independently, the bulk
// promo block. A missing or unreadable promo degrades to "no
// promotion"; an unreadable regular price degrades the whole price to
// {nil, nil}. Price extraction never aborts a resolution.
func (r *Resolver) extractPrice(ctx context.Context, log *zap.SugaredLogger) models.Price {
	text, err := r.session.Text(ctx, regularPriceSel)
	if err != nil {
		log.Warnw("regular price element missing", "err", err)
		return models.Price{}
	}
	regular, err := parseAmount(text)
	if err != nil {
		log.Warnw("regular price not parseable", "text", text, "err", err)
		return models.Price{}
	}

	return models.Price{
		RegularPrice: &regular,
		Promotion:    r.extractPromotion(ctx),
	}
}

// extractPromotion returns nil whenever any part of the promo block is
// absent or malformed.
func (r *Resolver) extractPromotion(ctx context.Context) *models.Promotion {
	unitsText, err := r.session.Text(ctx, promoUnitsSel)
	if err != nil {
		return nil
	}
	priceText, err := r.session.Text(ctx, promoPriceSel)
	if err != nil {
		return nil
	}

	unitsMatch := firstInt.FindString(unitsText)
	if unitsMatch == "" {
		return nil
	}
	units := cast.ToInt(unitsMatch)
	if units < 1 {
		return nil
	}

	price, err := parseAmount(priceText)
	if err != nil || price <= 0 {
		return nil
	}

	return &models.Promotion{Units: units, Price: price}
}

// parseAmount turns a retailer price label ("S/ 12,90") into a number:
// currency prefix stripped, comma decimal separator normalized.
func parseAmount(text string) (float64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "S/", ""))
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	return cast.ToFloat64E(cleaned)
}
