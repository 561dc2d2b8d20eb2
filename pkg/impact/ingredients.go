package impact

import "strings"

// ingredientInfo holds the lookup data for one ingredient: typical unit
// weight, average US grocery price per unit, and carbon intensity per kg.
type ingredientInfo struct {
	WeightKG    float64
	CostUSD     float64
	CarbonPerKG float64
	Category    string
	Aliases     []string
}

// defaultIngredient is used when an ingredient is not in the table.
var defaultIngredient = ingredientInfo{
	WeightKG:    0.15,
	CostUSD:     2.00,
	CarbonPerKG: 2.0,
	Category:    "other",
}

// unitConversions maps unit names to their factor toward kg. Count units
// hold a scale applied to the ingredient's own unit weight instead.
var unitConversions = map[string]float64{
	"kg":     1.0,
	"g":      0.001,
	"gram":   0.001,
	"grams":  0.001,
	"lb":     0.453592,
	"lbs":    0.453592,
	"pound":  0.453592,
	"pounds": 0.453592,
	"oz":     0.0283495,
	"ounce":  0.0283495,
	"ounces": 0.0283495,

	"cup":         0.24,
	"cups":        0.24,
	"tbsp":        0.015,
	"tablespoon":  0.015,
	"tablespoons": 0.015,
	"tsp":         0.005,
	"teaspoon":    0.005,
	"teaspoons":   0.005,
	"ml":          0.001,
	"l":           1.0,
	"liter":       1.0,
	"liters":      1.0,

	"piece":    1.0,
	"pieces":   1.0,
	"item":     1.0,
	"items":    1.0,
	"whole":    1.0,
	"slice":    0.3,
	"slices":   0.3,
	"head":     1.0,
	"bunch":    1.0,
	"clove":    0.1,
	"cloves":   0.1,
	"can":      0.4,
	"cans":     0.4,
	"package":  0.5,
	"packages": 0.5,
	"bag":      0.5,
	"bags":     0.5,
	"box":      0.4,
	"boxes":    0.4,
	"bottle":   0.5,
	"bottles":  0.5,
	"jar":      0.3,
	"jars":     0.3,
}

var weightUnits = map[string]bool{
	"kg": true, "g": true, "gram": true, "grams": true,
	"lb": true, "lbs": true, "pound": true, "pounds": true,
	"oz": true, "ounce": true, "ounces": true,
}

var volumeUnits = map[string]bool{
	"cup": true, "cups": true,
	"tbsp": true, "tablespoon": true, "tablespoons": true,
	"tsp": true, "teaspoon": true, "teaspoons": true,
	"ml": true, "l": true, "liter": true, "liters": true,
}

// countCostUnits are the units whose cost scales with the count rather
// than the derived weight.
var countCostUnits = map[string]bool{
	"piece": true, "pieces": true, "item": true, "items": true,
	"whole": true, "head": true, "bunch": true,
	"can": true, "cans": true, "package": true, "packages": true,
	"bag": true, "bags": true, "box": true, "boxes": true,
	"bottle": true, "bottles": true, "jar": true, "jars": true,
}

type ingredientEntry struct {
	Name string
	Info ingredientInfo
}

// ingredientTable is ordered; fuzzy matching scans it in declaration
// order so overlapping names resolve deterministically.
var ingredientTable = []ingredientEntry{
	// Vegetables
	{"tomato", ingredientInfo{0.15, 0.75, 1.4, "produce", []string{"tomatoes", "roma tomato", "cherry tomato", "grape tomato"}}},
	{"onion", ingredientInfo{0.15, 0.50, 0.5, "produce", []string{"onions", "yellow onion", "white onion", "red onion"}}},
	{"garlic", ingredientInfo{0.05, 0.50, 0.5, "produce", []string{"garlic clove", "garlic cloves"}}},
	{"potato", ingredientInfo{0.20, 0.40, 0.5, "produce", []string{"potatoes", "russet potato", "red potato", "yukon gold"}}},
	{"carrot", ingredientInfo{0.10, 0.30, 0.4, "produce", []string{"carrots", "baby carrots"}}},
	{"broccoli", ingredientInfo{0.30, 1.75, 0.8, "produce", []string{"broccoli florets", "broccoli head"}}},
	{"spinach", ingredientInfo{0.15, 2.50, 0.5, "produce", []string{"baby spinach", "spinach leaves"}}},
	{"lettuce", ingredientInfo{0.25, 1.50, 0.7, "produce", []string{"romaine lettuce", "iceberg lettuce", "lettuce head"}}},
	{"bell pepper", ingredientInfo{0.15, 1.00, 1.1, "produce", []string{"bell peppers", "red pepper", "green pepper", "yellow pepper", "capsicum"}}},
	{"cucumber", ingredientInfo{0.20, 0.75, 0.7, "produce", []string{"cucumbers", "english cucumber"}}},
	{"celery", ingredientInfo{0.40, 1.50, 0.4, "produce", []string{"celery stalks", "celery sticks"}}},
	{"mushroom", ingredientInfo{0.10, 1.50, 0.8, "produce", []string{"mushrooms", "button mushrooms", "cremini", "portobello", "shiitake"}}},
	{"zucchini", ingredientInfo{0.20, 1.00, 0.6, "produce", []string{"zucchinis", "courgette"}}},
	{"asparagus", ingredientInfo{0.20, 3.00, 1.0, "produce", []string{"asparagus spears"}}},
	{"corn", ingredientInfo{0.20, 0.50, 1.0, "produce", []string{"corn on the cob", "sweet corn", "corn kernels"}}},
	{"cabbage", ingredientInfo{0.50, 1.50, 0.4, "produce", []string{"green cabbage", "red cabbage", "napa cabbage"}}},
	{"cauliflower", ingredientInfo{0.50, 2.50, 0.7, "produce", []string{"cauliflower head", "cauliflower florets"}}},
	{"green beans", ingredientInfo{0.15, 2.00, 0.8, "produce", []string{"string beans", "snap beans"}}},
	{"peas", ingredientInfo{0.15, 2.00, 0.8, "produce", []string{"green peas", "snow peas", "snap peas"}}},
	{"kale", ingredientInfo{0.15, 2.50, 0.5, "produce", []string{"kale leaves", "baby kale"}}},
	{"avocado", ingredientInfo{0.20, 1.50, 2.5, "produce", []string{"avocados"}}},
	{"eggplant", ingredientInfo{0.35, 1.50, 0.8, "produce", []string{"aubergine", "eggplants"}}},

	// Fruits
	{"apple", ingredientInfo{0.18, 0.75, 0.4, "produce", []string{"apples", "green apple", "red apple", "gala apple", "fuji apple"}}},
	{"banana", ingredientInfo{0.12, 0.25, 0.9, "produce", []string{"bananas"}}},
	{"orange", ingredientInfo{0.20, 0.75, 0.5, "produce", []string{"oranges", "navel orange"}}},
	{"lemon", ingredientInfo{0.10, 0.50, 0.5, "produce", []string{"lemons", "lemon juice"}}},
	{"lime", ingredientInfo{0.07, 0.35, 0.5, "produce", []string{"limes", "lime juice"}}},
	{"strawberry", ingredientInfo{0.20, 3.00, 0.5, "produce", []string{"strawberries"}}},
	{"blueberry", ingredientInfo{0.15, 3.50, 0.6, "produce", []string{"blueberries"}}},
	{"grape", ingredientInfo{0.25, 2.50, 0.7, "produce", []string{"grapes", "red grapes", "green grapes"}}},
	{"mango", ingredientInfo{0.30, 1.50, 1.5, "produce", []string{"mangos", "mangoes"}}},
	{"pineapple", ingredientInfo{1.0, 3.00, 1.0, "produce", []string{"pineapples"}}},
	{"watermelon", ingredientInfo{5.0, 6.00, 0.4, "produce", []string{"watermelons"}}},
	{"peach", ingredientInfo{0.15, 1.00, 0.5, "produce", []string{"peaches"}}},
	{"pear", ingredientInfo{0.18, 1.00, 0.4, "produce", []string{"pears"}}},

	// Meat
	{"chicken breast", ingredientInfo{0.17, 3.50, 6.9, "protein", []string{"chicken breasts", "boneless chicken", "skinless chicken breast"}}},
	{"chicken thigh", ingredientInfo{0.12, 2.50, 6.9, "protein", []string{"chicken thighs", "bone-in chicken thigh"}}},
	{"chicken", ingredientInfo{0.15, 3.00, 6.9, "protein", []string{"whole chicken", "chicken pieces"}}},
	{"ground beef", ingredientInfo{0.25, 5.00, 27.0, "protein", []string{"minced beef", "beef mince", "hamburger meat"}}},
	{"beef steak", ingredientInfo{0.22, 8.00, 27.0, "protein", []string{"steak", "ribeye", "sirloin", "filet mignon", "beef"}}},
	{"pork chop", ingredientInfo{0.18, 3.50, 12.1, "protein", []string{"pork chops", "pork loin"}}},
	{"ground pork", ingredientInfo{0.25, 4.00, 12.1, "protein", []string{"minced pork", "pork mince"}}},
	{"bacon", ingredientInfo{0.15, 5.00, 12.1, "protein", []string{"bacon strips", "streaky bacon"}}},
	{"sausage", ingredientInfo{0.10, 1.50, 12.1, "protein", []string{"sausages", "italian sausage", "breakfast sausage"}}},
	{"ham", ingredientInfo{0.10, 2.00, 12.1, "protein", []string{"sliced ham", "deli ham"}}},
	{"lamb", ingredientInfo{0.20, 10.00, 39.2, "protein", []string{"lamb chop", "lamb chops", "ground lamb"}}},
	{"turkey", ingredientInfo{0.15, 3.00, 10.9, "protein", []string{"turkey breast", "ground turkey", "deli turkey"}}},

	// Seafood
	{"salmon", ingredientInfo{0.17, 6.00, 5.4, "protein", []string{"salmon fillet", "salmon filet", "smoked salmon"}}},
	{"tuna", ingredientInfo{0.15, 2.50, 5.4, "protein", []string{"tuna steak", "canned tuna", "tuna fish"}}},
	{"shrimp", ingredientInfo{0.15, 6.00, 12.0, "protein", []string{"shrimps", "prawns", "jumbo shrimp"}}},
	{"cod", ingredientInfo{0.17, 5.00, 4.0, "protein", []string{"cod fillet", "atlantic cod"}}},
	{"tilapia", ingredientInfo{0.15, 4.00, 4.0, "protein", []string{"tilapia fillet"}}},
	{"crab", ingredientInfo{0.15, 12.00, 5.0, "protein", []string{"crab meat", "crab legs"}}},

	// Eggs and plant protein
	{"egg", ingredientInfo{0.06, 0.35, 4.8, "protein", []string{"eggs", "large egg", "large eggs"}}},
	{"tofu", ingredientInfo{0.20, 2.50, 2.0, "protein", []string{"firm tofu", "silken tofu", "extra firm tofu"}}},
	{"tempeh", ingredientInfo{0.20, 3.50, 1.0, "protein", nil}},
	{"black beans", ingredientInfo{0.25, 1.50, 0.8, "protein", []string{"canned black beans"}}},
	{"chickpeas", ingredientInfo{0.25, 1.50, 0.8, "protein", []string{"garbanzo beans", "canned chickpeas"}}},
	{"lentils", ingredientInfo{0.20, 2.00, 0.9, "protein", []string{"red lentils", "green lentils", "brown lentils"}}},

	// Dairy
	{"milk", ingredientInfo{0.24, 0.50, 3.2, "dairy", []string{"whole milk", "skim milk", "2% milk"}}},
	{"cheese", ingredientInfo{0.10, 2.00, 13.5, "dairy", []string{"cheddar", "cheddar cheese", "swiss cheese", "mozzarella"}}},
	{"parmesan", ingredientInfo{0.05, 1.50, 13.5, "dairy", []string{"parmesan cheese", "parmigiano reggiano", "grated parmesan"}}},
	{"butter", ingredientInfo{0.05, 0.75, 12.0, "dairy", []string{"unsalted butter", "salted butter"}}},
	{"cream", ingredientInfo{0.12, 1.50, 4.5, "dairy", []string{"heavy cream", "whipping cream", "half and half"}}},
	{"yogurt", ingredientInfo{0.17, 1.25, 2.5, "dairy", []string{"greek yogurt", "plain yogurt"}}},
	{"sour cream", ingredientInfo{0.12, 1.50, 3.0, "dairy", nil}},
	{"cream cheese", ingredientInfo{0.10, 2.00, 8.0, "dairy", []string{"philadelphia"}}},

	// Grains and starches
	{"rice", ingredientInfo{0.18, 0.50, 4.0, "grains", []string{"white rice", "brown rice", "jasmine rice", "basmati rice"}}},
	{"pasta", ingredientInfo{0.15, 0.75, 1.5, "grains", []string{"spaghetti", "penne", "linguine", "fettuccine", "macaroni"}}},
	{"bread", ingredientInfo{0.05, 0.30, 1.5, "grains", []string{"white bread", "whole wheat bread", "bread slice", "bread slices"}}},
	{"flour", ingredientInfo{0.12, 0.25, 0.7, "grains", []string{"all-purpose flour", "wheat flour", "whole wheat flour"}}},
	{"oats", ingredientInfo{0.08, 0.40, 1.0, "grains", []string{"rolled oats", "oatmeal", "steel cut oats"}}},
	{"quinoa", ingredientInfo{0.17, 2.00, 1.2, "grains", nil}},
	{"tortilla", ingredientInfo{0.04, 0.30, 1.2, "grains", []string{"tortillas", "flour tortilla", "corn tortilla", "wrap"}}},
	{"noodles", ingredientInfo{0.15, 1.00, 1.5, "grains", []string{"egg noodles", "rice noodles", "ramen noodles", "udon"}}},

	// Condiments and oils
	{"olive oil", ingredientInfo{0.015, 0.30, 3.5, "condiments", []string{"extra virgin olive oil", "evoo"}}},
	{"vegetable oil", ingredientInfo{0.015, 0.10, 3.0, "condiments", []string{"canola oil", "cooking oil"}}},
	{"soy sauce", ingredientInfo{0.015, 0.15, 1.0, "condiments", []string{"soya sauce", "tamari"}}},
	{"ketchup", ingredientInfo{0.02, 0.10, 1.5, "condiments", []string{"tomato ketchup", "catsup"}}},
	{"mustard", ingredientInfo{0.015, 0.10, 0.8, "condiments", []string{"dijon mustard", "yellow mustard"}}},
	{"mayonnaise", ingredientInfo{0.015, 0.15, 2.5, "condiments", []string{"mayo"}}},
	{"honey", ingredientInfo{0.02, 0.30, 0.5, "condiments", nil}},
	{"sugar", ingredientInfo{0.015, 0.05, 1.0, "condiments", []string{"white sugar", "brown sugar", "granulated sugar"}}},
	{"salt", ingredientInfo{0.005, 0.02, 0.1, "condiments", []string{"table salt", "sea salt", "kosher salt"}}},
	{"pepper", ingredientInfo{0.002, 0.05, 0.5, "condiments", []string{"black pepper", "ground pepper"}}},
	{"vinegar", ingredientInfo{0.015, 0.10, 0.5, "condiments", []string{"white vinegar", "apple cider vinegar", "balsamic vinegar", "rice vinegar"}}},
	{"tomato sauce", ingredientInfo{0.12, 1.00, 1.5, "condiments", []string{"marinara sauce", "pasta sauce", "tomato paste"}}},

	// Herbs
	{"basil", ingredientInfo{0.01, 0.50, 0.3, "produce", []string{"fresh basil", "basil leaves"}}},
	{"cilantro", ingredientInfo{0.03, 0.75, 0.3, "produce", []string{"fresh cilantro", "coriander"}}},
	{"parsley", ingredientInfo{0.03, 0.75, 0.3, "produce", []string{"fresh parsley", "italian parsley"}}},
	{"ginger", ingredientInfo{0.05, 0.50, 0.5, "produce", []string{"fresh ginger", "ginger root"}}},
	{"rosemary", ingredientInfo{0.01, 0.50, 0.3, "produce", []string{"fresh rosemary"}}},
	{"thyme", ingredientInfo{0.01, 0.50, 0.3, "produce", []string{"fresh thyme"}}},

	// Nuts
	{"almonds", ingredientInfo{0.03, 0.75, 2.3, "other", []string{"almond", "sliced almonds"}}},
	{"peanuts", ingredientInfo{0.03, 0.40, 1.2, "other", []string{"peanut", "roasted peanuts"}}},
	{"walnuts", ingredientInfo{0.03, 1.00, 1.0, "other", []string{"walnut", "walnut pieces"}}},
	{"peanut butter", ingredientInfo{0.03, 0.50, 1.2, "other", nil}},
}

var ingredientByName map[string]ingredientInfo

func init() {
	ingredientByName = make(map[string]ingredientInfo, len(ingredientTable))
	for _, e := range ingredientTable {
		ingredientByName[e.Name] = e.Info
	}
}

// lookupIngredient resolves an ingredient by exact name, then alias, then
// substring match in either direction. Reports whether the table matched.
func lookupIngredient(name string) (ingredientInfo, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	if info, ok := ingredientByName[normalized]; ok {
		return info, true
	}

	for _, e := range ingredientTable {
		for _, alias := range e.Info.Aliases {
			if normalized == strings.ToLower(alias) {
				return e.Info, true
			}
		}
	}

	for _, e := range ingredientTable {
		if strings.Contains(e.Name, normalized) || strings.Contains(normalized, e.Name) {
			return e.Info, true
		}
		for _, alias := range e.Info.Aliases {
			lower := strings.ToLower(alias)
			if strings.Contains(lower, normalized) || strings.Contains(normalized, lower) {
				return e.Info, true
			}
		}
	}

	return defaultIngredient, false
}
