package calc

import (
	"math"

	"macrotrack/pkg/models"
)

// OptimalPurchase computes the cheapest way to buy enough units of a
// product for days of consumption at unitsDaily units per day.
//
// When a promotion applies, promo.Price is read as the per-unit price
// inside a promo set, so a full set of promo.Units costs
// promo.Units*promo.Price. Whole sets cover as much of the demand as
// possible; the real-valued remainder is rounded up and bought at the
// regular price.
func OptimalPurchase(unitsDaily, regularPrice float64, promo *models.Promotion, days int) (models.PurchasePlan, error) {
	if days < 1 {
		return models.PurchasePlan{}, ErrInvalidDays
	}
	if regularPrice <= 0 {
		return models.PurchasePlan{}, ErrNonPositivePrice
	}

	totalUnitsNeeded := unitsDaily * float64(days)
	totalUnitsRounded := int(math.Ceil(totalUnitsNeeded))

	if promo == nil || promo.Units < 1 || promo.Price <= 0 {
		total := float64(totalUnitsRounded) * regularPrice
		return models.PurchasePlan{
			Units:     totalUnitsRounded,
			TotalCost: total,
			DailyCost: total / float64(days),
			Strategy:  models.StrategyRegular,
		}, nil
	}

	promoSets := int(totalUnitsNeeded / float64(promo.Units))
	remaining := math.Mod(totalUnitsNeeded, float64(promo.Units))
	remainingRounded := int(math.Ceil(remaining))

	promoCost := float64(promoSets) * promo.Price * float64(promo.Units)
	regularCost := float64(remainingRounded) * regularPrice
	total := promoCost + regularCost

	baseline := float64(totalUnitsRounded) * regularPrice
	return models.PurchasePlan{
		Units:             totalUnitsRounded,
		PromoSets:         promoSets,
		PromoUnits:        promo.Units,
		RemainingUnits:    remainingRounded,
		TotalCost:         total,
		DailyCost:         total / float64(days),
		Strategy:          models.StrategyMixed,
		SavingsPercentage: savingsPercentage(baseline, total),
	}, nil
}

// savingsPercentage is the relative saving of discounted vs original,
// rounded to two decimals and clamped to 0 when the baseline is not a
// positive amount.
func savingsPercentage(original, discounted float64) float64 {
	if original <= 0 {
		return 0
	}
	pct := (original - discounted) / original * 100
	return math.Round(pct*100) / 100
}
