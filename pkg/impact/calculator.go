package impact

import (
	"math"
	"strings"
)

// Calculator scores ingredients against the lookup tables. It is pure
// and safe for concurrent use.
type Calculator struct{}

// NewCalculator creates a Calculator.
func NewCalculator() *Calculator {
	return &Calculator{}
}

// CalculateIngredient scores a single ingredient.
func (c *Calculator) CalculateIngredient(in IngredientInput) IngredientImpact {
	info, found := lookupIngredient(in.Name)

	unit := in.Unit
	if unit == "" {
		unit = "piece"
	}

	weightKG := calculateWeight(in.Quantity, unit, info.WeightKG)
	costUSD := calculateCost(in.Quantity, unit, info.CostUSD, info.WeightKG)
	co2KG := round4(weightKG * info.CarbonPerKG)

	return IngredientImpact{
		Name:          in.Name,
		Quantity:      in.Quantity,
		Unit:          unit,
		WeightKG:      round4(weightKG),
		CostUSD:       round2(costUSD),
		CO2KG:         co2KG,
		FoundInLookup: found,
	}
}

// CalculateTotal scores a list of ingredients and sums their impact.
func (c *Calculator) CalculateTotal(ingredients []IngredientInput) (Totals, []IngredientImpact) {
	breakdown := make([]IngredientImpact, 0, len(ingredients))
	var waste, cost, co2 float64

	for _, in := range ingredients {
		item := c.CalculateIngredient(in)
		breakdown = append(breakdown, item)
		waste += item.WeightKG
		cost += item.CostUSD
		co2 += item.CO2KG
	}

	return Totals{
		WastePreventedKG: round4(waste),
		MoneySavedUSD:    round2(cost),
		CO2AvoidedKG:     round4(co2),
	}, breakdown
}

// EstimateFromRecipeName produces a rough estimate from a recipe title,
// used when no ingredient breakdown is available. Baseline is an average
// meal of about 400g, $8 and 3kg CO2e, adjusted by keywords.
func (c *Calculator) EstimateFromRecipeName(recipeName string) Totals {
	name := strings.ToLower(recipeName)

	waste := 0.4
	cost := 8.0
	co2 := 3.0

	switch {
	case containsAny(name, "salad", "vegetable", "vegan", "veggie"):
		co2 *= 0.5
		cost *= 0.7
	case containsAny(name, "beef", "steak", "burger"):
		co2 *= 2.5
		cost *= 1.5
	case containsAny(name, "chicken", "turkey"):
		co2 *= 1.2
	case containsAny(name, "fish", "salmon", "tuna", "shrimp"):
		cost *= 1.3
	}

	switch {
	case containsAny(name, "family", "large", "feast"):
		waste *= 2.0
		cost *= 2.0
		co2 *= 2.0
	case containsAny(name, "small", "mini", "snack"):
		waste *= 0.5
		cost *= 0.5
		co2 *= 0.5
	}

	return Totals{
		WastePreventedKG: round4(waste),
		MoneySavedUSD:    round2(cost),
		CO2AvoidedKG:     round4(co2),
	}
}

// calculateWeight converts a quantity in the given unit to kg. Weight and
// volume units convert directly; count units scale the ingredient's own
// unit weight.
func calculateWeight(quantity float64, unit string, baseWeightKG float64) float64 {
	normalized := strings.ToLower(strings.TrimSpace(unit))

	if weightUnits[normalized] {
		return quantity * conversionOr(normalized, 1.0)
	}
	if volumeUnits[normalized] {
		return quantity * conversionOr(normalized, 0.24)
	}
	return quantity * baseWeightKG * conversionOr(normalized, 1.0)
}

// calculateCost estimates cost: count units scale the per-unit price,
// weight and volume units scale the derived per-kg price.
func calculateCost(quantity float64, unit string, baseCostUSD, baseWeightKG float64) float64 {
	normalized := strings.ToLower(strings.TrimSpace(unit))

	if countCostUnits[normalized] {
		return quantity * baseCostUSD * conversionOr(normalized, 1.0)
	}

	weightKG := calculateWeight(quantity, unit, baseWeightKG)
	costPerKG := baseCostUSD
	if baseWeightKG > 0 {
		costPerKG = baseCostUSD / baseWeightKG
	}
	return weightKG * costPerKG
}

func conversionOr(unit string, fallback float64) float64 {
	if v, ok := unitConversions[unit]; ok {
		return v
	}
	return fallback
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
