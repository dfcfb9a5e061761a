package calc

import "macrotrack/pkg/models"

// MacroBalance aggregates what one full unit of each selected product
// contributes to the daily macro goals and classifies each macro.
// Values are per 100 g, so each product weighs in at weight_gr/100.
// Callers wanting intake-based totals must pre-scale consumption
// themselves before selecting products.
func MacroBalance(products []models.Product, goals models.MacroGoals) models.MacroBalance {
	var totals models.MacroTotals
	for _, p := range products {
		if p.Nutrition == nil {
			continue
		}
		factor := p.WeightGr / 100
		totals.Protein += deref(p.Nutrition.Protein) * factor
		totals.Carbs += deref(p.Nutrition.Carbs) * factor
		totals.Fat += deref(p.Nutrition.Fat) * factor
		totals.Calories += deref(p.Nutrition.Calories) * factor
	}

	return models.MacroBalance{
		Current: totals,
		Goals:   goals,
		Macros: map[string]models.MacroPercent{
			"protein": macroPercent(totals.Protein, goals.Protein),
			"carbs":   macroPercent(totals.Carbs, goals.Carbs),
			"fat":     macroPercent(totals.Fat, goals.Fat),
		},
	}
}

func macroPercent(total, goal float64) models.MacroPercent {
	if goal <= 0 {
		return models.MacroPercent{Percentage: 0, Status: models.MacroLow}
	}
	pct := total / goal * 100

	status := models.MacroBalanced
	switch {
	case pct < 80:
		status = models.MacroLow
	case pct > 120:
		status = models.MacroHigh
	}
	return models.MacroPercent{Percentage: pct, Status: status}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
