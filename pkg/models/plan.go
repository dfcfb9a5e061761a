package models

import "time"

// Purchase strategies.
const (
	StrategyRegular = "regular"
	StrategyMixed   = "mixed"
)

// Consumption is the daily amount of one product needed to hit a
// protein target.
type Consumption struct {
	Grams          float64 `json:"grams"`
	Units          float64 `json:"units"`
	ProteinNeeded  float64 `json:"protein_consumed"`
	ProteinPer100g float64 `json:"protein_per_100g"`
}

// PurchasePlan is the cheapest way to buy enough units of a product for
// a calendar month. PromoSets/PromoUnits/RemainingUnits are only set for
// the mixed strategy.
type PurchasePlan struct {
	Units             int     `json:"units"`
	PromoSets         int     `json:"promo_sets,omitempty"`
	PromoUnits        int     `json:"promo_units,omitempty"`
	RemainingUnits    int     `json:"remaining_units"`
	TotalCost         float64 `json:"total_cost"`
	DailyCost         float64 `json:"daily_cost"`
	Strategy          string  `json:"strategy"`
	SavingsPercentage float64 `json:"savings_percentage,omitempty"`
}

// MacroGoals are the user's daily macronutrient targets in grams.
type MacroGoals struct {
	Protein float64 `json:"daily_protein"`
	Carbs   float64 `json:"daily_carbs"`
	Fat     float64 `json:"daily_fat"`
}

// MacroTotals accumulates the macro content of one full unit of each
// selected product.
type MacroTotals struct {
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Calories float64 `json:"calories"`
}

// Macro balance classifications.
const (
	MacroLow      = "low"
	MacroBalanced = "balanced"
	MacroHigh     = "high"
)

// MacroPercent is coverage of one macro goal: percentage of the goal
// reached and its low/balanced/high classification.
type MacroPercent struct {
	Percentage float64 `json:"percentage"`
	Status     string  `json:"status"`
}

// MacroBalance aggregates selected products against daily goals.
type MacroBalance struct {
	Current MacroTotals             `json:"current"`
	Goals   MacroGoals              `json:"goals"`
	Macros  map[string]MacroPercent `json:"macros"`
}

// BatchFailure records why one URL was skipped during a batch refresh.
type BatchFailure struct {
	URL   string `json:"url"`
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// BatchReport summarizes one refresh run. Resolved+Failed == Total.
type BatchReport struct {
	RunID    string         `json:"run_id"`
	Started  time.Time      `json:"started"`
	Finished time.Time      `json:"finished"`
	Total    int            `json:"total"`
	Resolved int            `json:"resolved"`
	Failed   int            `json:"failed"`
	Failures []BatchFailure `json:"failures,omitempty"`
}
