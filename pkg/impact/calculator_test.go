package impact

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateIngredient_WeightUnits(t *testing.T) {
	calc := NewCalculator()

	got := calc.CalculateIngredient(IngredientInput{Name: "tomato", Quantity: 500, Unit: "g"})
	if !almostEqual(got.WeightKG, 0.5) {
		t.Errorf("weight = %v, want 0.5", got.WeightKG)
	}
	// 0.5kg at $0.75 per 0.15kg item
	if !almostEqual(got.CostUSD, 2.50) {
		t.Errorf("cost = %v, want 2.50", got.CostUSD)
	}
	if !almostEqual(got.CO2KG, 0.7) {
		t.Errorf("co2 = %v, want 0.7", got.CO2KG)
	}
	if !got.FoundInLookup {
		t.Error("tomato should be found in lookup")
	}
}

func TestCalculateIngredient_CountUnits(t *testing.T) {
	calc := NewCalculator()

	got := calc.CalculateIngredient(IngredientInput{Name: "egg", Quantity: 12, Unit: "pieces"})
	if !almostEqual(got.WeightKG, 0.72) {
		t.Errorf("weight = %v, want 0.72", got.WeightKG)
	}
	if !almostEqual(got.CostUSD, 4.20) {
		t.Errorf("cost = %v, want 4.20", got.CostUSD)
	}
}

func TestCalculateIngredient_ScaledCountUnits(t *testing.T) {
	calc := NewCalculator()

	// A clove is a tenth of a garlic head; cost follows weight for
	// units outside the count pricing set.
	got := calc.CalculateIngredient(IngredientInput{Name: "garlic", Quantity: 3, Unit: "cloves"})
	if !almostEqual(got.WeightKG, 0.015) {
		t.Errorf("weight = %v, want 0.015", got.WeightKG)
	}
	if !almostEqual(got.CostUSD, 0.15) {
		t.Errorf("cost = %v, want 0.15", got.CostUSD)
	}
}

func TestCalculateIngredient_DefaultUnitIsPiece(t *testing.T) {
	calc := NewCalculator()

	got := calc.CalculateIngredient(IngredientInput{Name: "banana", Quantity: 2})
	if got.Unit != "piece" {
		t.Errorf("unit = %q, want piece", got.Unit)
	}
	if !almostEqual(got.WeightKG, 0.24) {
		t.Errorf("weight = %v, want 0.24", got.WeightKG)
	}
}

func TestCalculateIngredient_UnknownFallsBackToDefaults(t *testing.T) {
	calc := NewCalculator()

	got := calc.CalculateIngredient(IngredientInput{Name: "dragonfruit syrup", Quantity: 1, Unit: "piece"})
	if got.FoundInLookup {
		t.Error("unknown ingredient should not report a lookup hit")
	}
	if !almostEqual(got.WeightKG, 0.15) || !almostEqual(got.CostUSD, 2.00) {
		t.Errorf("defaults not applied: weight=%v cost=%v", got.WeightKG, got.CostUSD)
	}
	if !almostEqual(got.CO2KG, 0.3) {
		t.Errorf("co2 = %v, want 0.3", got.CO2KG)
	}
}

func TestLookupIngredient_AliasAndFuzzy(t *testing.T) {
	cases := []struct {
		name     string
		wantCost float64
	}{
		{"Tomatoes", 0.75},       // alias
		{"cherry tomato", 0.75},  // alias
		{"ripe tomato", 0.75},    // substring
		{"aubergine", 1.50},      // alias for eggplant
		{"chicken breast", 3.50}, // exact before the shorter "chicken"
	}
	for _, tc := range cases {
		info, found := lookupIngredient(tc.name)
		if !found {
			t.Errorf("lookupIngredient(%q) not found", tc.name)
			continue
		}
		if !almostEqual(info.CostUSD, tc.wantCost) {
			t.Errorf("lookupIngredient(%q) cost = %v, want %v", tc.name, info.CostUSD, tc.wantCost)
		}
	}
}

func TestCalculateTotal_SumsAndRounds(t *testing.T) {
	calc := NewCalculator()

	totals, breakdown := calc.CalculateTotal([]IngredientInput{
		{Name: "tomato", Quantity: 2, Unit: "pieces"},
		{Name: "rice", Quantity: 1, Unit: "cup"},
	})

	if len(breakdown) != 2 {
		t.Fatalf("breakdown len = %d, want 2", len(breakdown))
	}
	wantWaste := breakdown[0].WeightKG + breakdown[1].WeightKG
	if !almostEqual(totals.WastePreventedKG, round4(wantWaste)) {
		t.Errorf("waste = %v, want %v", totals.WastePreventedKG, round4(wantWaste))
	}
	wantCost := breakdown[0].CostUSD + breakdown[1].CostUSD
	if !almostEqual(totals.MoneySavedUSD, round2(wantCost)) {
		t.Errorf("cost = %v, want %v", totals.MoneySavedUSD, round2(wantCost))
	}
}

func TestEstimateFromRecipeName(t *testing.T) {
	calc := NewCalculator()

	cases := []struct {
		name string
		want Totals
	}{
		{"Garden Salad", Totals{WastePreventedKG: 0.4, MoneySavedUSD: 5.60, CO2AvoidedKG: 1.5}},
		{"Beef Burger", Totals{WastePreventedKG: 0.4, MoneySavedUSD: 12.00, CO2AvoidedKG: 7.5}},
		{"Family Chicken Dinner", Totals{WastePreventedKG: 0.8, MoneySavedUSD: 16.00, CO2AvoidedKG: 7.2}},
		{"Mini Tuna Snack", Totals{WastePreventedKG: 0.2, MoneySavedUSD: 5.20, CO2AvoidedKG: 1.5}},
		{"Mystery Casserole", Totals{WastePreventedKG: 0.4, MoneySavedUSD: 8.00, CO2AvoidedKG: 3.0}},
	}
	for _, tc := range cases {
		got := calc.EstimateFromRecipeName(tc.name)
		if got != tc.want {
			t.Errorf("EstimateFromRecipeName(%q) = %+v, want %+v", tc.name, got, tc.want)
		}
	}
}
