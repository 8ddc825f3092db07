package bakery

import (
	"math"
	"strings"
)

// Custom cake pricing in USD.
const (
	BasePrice           = 30.0
	IncludedServings    = 8
	PricePerServing     = 2.5
	PricePerExtraTier   = 15.0
	DietarySurcharge    = 7.5
	DecorationSurcharge = 10.0
	MinNoticeHours      = 72
)

// CakeSpec describes a custom cake request.
type CakeSpec struct {
	Servings            int      `json:"servings" jsonschema:"description=Number of people the cake should serve" validate:"min=1,max=500"`
	Tiers               int      `json:"tiers" jsonschema:"description=Number of tiers" validate:"min=1,max=6"`
	DietaryRestrictions []string `json:"dietary_restrictions,omitempty" jsonschema:"description=Dietary requirements such as gluten-free or vegan"`
	CustomDecorations   bool     `json:"custom_decorations,omitempty" jsonschema:"description=Whether the cake has a custom theme or sugar work"`
}

// Quote is an itemized custom cake price.
type Quote struct {
	Base        float64            `json:"base"`
	Adjustments map[string]float64 `json:"adjustments"`
	Total       float64            `json:"total"`
	Currency    string             `json:"currency"`
	NoticeHours int                `json:"minimum_notice_hours"`
}

// PriceCustomCake quotes a custom cake. Every distinct dietary restriction
// adds a surcharge.
func PriceCustomCake(spec CakeSpec) Quote {
	q := Quote{
		Base:        BasePrice,
		Adjustments: map[string]float64{},
		Currency:    "USD",
		NoticeHours: MinNoticeHours,
	}

	if extra := spec.Servings - IncludedServings; extra > 0 {
		q.Adjustments["servings"] = float64(extra) * PricePerServing
	}

	if spec.Tiers > 1 {
		q.Adjustments["tiers"] = float64(spec.Tiers-1) * PricePerExtraTier
	}

	seen := map[string]struct{}{}
	for _, r := range spec.DietaryRestrictions {
		r = strings.ToLower(strings.TrimSpace(r))
		if r == "" || r == "none" {
			continue
		}
		seen[r] = struct{}{}
	}
	if len(seen) > 0 {
		q.Adjustments["dietary"] = float64(len(seen)) * DietarySurcharge
	}

	if spec.CustomDecorations {
		q.Adjustments["decorations"] = DecorationSurcharge
	}

	total := q.Base
	for _, v := range q.Adjustments {
		total += v
	}
	q.Total = math.Round(total*100) / 100

	return q
}
