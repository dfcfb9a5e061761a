package models

import "time"

// MeatType is the fixed category set used to tag registered products.
type MeatType string

const (
	MeatChicken MeatType = "pollo"
	MeatTurkey  MeatType = "pavo"
	MeatBeef    MeatType = "res"
	MeatPork    MeatType = "cerdo"
)

// MeatTypes lists every valid category, in display order.
var MeatTypes = []MeatType{MeatChicken, MeatTurkey, MeatBeef, MeatPork}

// Valid reports whether t is one of the known categories.
func (t MeatType) Valid() bool {
	for _, m := range MeatTypes {
		if t == m {
			return true
		}
	}
	return false
}

// ProductURL is a user-registered reference to a retailer product page.
// WeightGr and Type are optional user-supplied overrides; an explicit
// weight always wins over anything extracted from the URL or page.
type ProductURL struct {
	URL      string   `json:"url"`
	WeightGr *float64 `json:"weight_gr,omitempty"`
	Type     MeatType `json:"type,omitempty"`
}

// Promotion is a bulk tier: buy Units of the product together, paying
// Price per unit inside the set.
type Promotion struct {
	Units int     `json:"units"`
	Price float64 `json:"price"`
}

// Price carries the regular per-unit price and an optional bulk promo.
// RegularPrice is nil only when price extraction failed outright.
type Price struct {
	RegularPrice *float64   `json:"regular_price"`
	Promotion    *Promotion `json:"promotion,omitempty"`
}

// Nutrition holds macro values per 100 g of product. Every field is
// optional: a nil pointer means the nutrition source did not report it.
type Nutrition struct {
	Calories *float64 `json:"calories,omitempty"`
	Fat      *float64 `json:"fat,omitempty"`
	Carbs    *float64 `json:"carbs,omitempty"`
	Protein  *float64 `json:"protein,omitempty"`
}

// Product is the resolved, immutable snapshot of a registered URL.
// Resolution always produces a whole record; the store replaces the
// previous entry for the same URL rather than merging fields.
type Product struct {
	URL          string     `json:"url"`
	Name         string     `json:"name"`
	ImageURL     string     `json:"image_url"`
	Price        Price      `json:"price"`
	WeightGr     float64    `json:"weight_gr"`
	Type         MeatType   `json:"type,omitempty"`
	NutritionURL string     `json:"nutrition_url,omitempty"`
	Nutrition    *Nutrition `json:"nutrition,omitempty"`
	LastUpdate   time.Time  `json:"last_update"`
}

// HasProtein reports whether the product can be used in consumption
// and purchase calculations.
func (p *Product) HasProtein() bool {
	return p.Nutrition != nil && p.Nutrition.Protein != nil && *p.Nutrition.Protein > 0
}
