// Package calc implements the pure arithmetic behind the dashboard:
// daily consumption targets, cost-optimal monthly purchases and macro
// balance evaluation. No I/O, no stored state.
package calc

import (
	"errors"
	"time"

	"macrotrack/pkg/models"
)

var (
	ErrNonPositiveProtein = errors.New("protein per 100g must be positive")
	ErrNonPositiveWeight  = errors.New("weight must be positive")
	ErrNonPositivePrice   = errors.New("regular price must be positive")
	ErrInvalidDays        = errors.New("days must be at least 1")
)

// DailyConsumption converts a daily protein target into grams and units
// of one specific product. Divisions are guarded: zero or negative
// inputs return an error instead of propagating Inf/NaN.
func DailyConsumption(proteinNeeded, proteinPer100g, weightGr float64) (models.Consumption, error) {
	if proteinPer100g <= 0 {
		return models.Consumption{}, ErrNonPositiveProtein
	}
	if weightGr <= 0 {
		return models.Consumption{}, ErrNonPositiveWeight
	}

	grams := proteinNeeded * 100 / proteinPer100g
	return models.Consumption{
		Grams:          grams,
		Units:          grams / weightGr,
		ProteinNeeded:  proteinNeeded,
		ProteinPer100g: proteinPer100g,
	}, nil
}

// DaysInMonth returns the day count of the given month, leap years
// included. Callers feed this into OptimalPurchase.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
