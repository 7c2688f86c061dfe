package fooddata

import (
	"math"
	"strings"

	"github.com/macrolens/mealtracker/internal/domain"
)

// FoodData Central nutrient IDs. Values are reported per 100 g.
const (
	NutrientIDEnergy          = 1008 // kcal
	NutrientIDEnergyAtwaterG  = 2047 // kcal, general factors
	NutrientIDEnergyAtwaterS  = 2048 // kcal, specific factors
	NutrientIDEnergyKJ        = 1062
	NutrientIDProtein         = 1003
	NutrientIDTotalFat        = 1004
	NutrientIDCarbohydrate    = 1005
	NutrientIDAlcohol         = 1018
	NutrientIDCaffeine        = 1057 // mg
	NutrientIDFiber           = 1079
	NutrientIDSugars          = 2000
	NutrientIDSugarsNLEA      = 1063
	kilojoulesPerKilocalorie  = 4.184
)

// energyIDs in order of preference
var energyIDs = []int{NutrientIDEnergy, NutrientIDEnergyAtwaterS, NutrientIDEnergyAtwaterG}

// MapToProfile converts the FoodData Central nutrient list into a per-100g profile
func MapToProfile(food *domain.FDCFood) domain.NutrientProfile {
	if food == nil {
		return domain.NutrientProfile{}
	}
	n := food.Nutrients

	profile := domain.NutrientProfile{
		Calories: energyKcal(n),
		Protein:  FindNutrientValue(n, NutrientIDProtein),
		Fat:      FindNutrientValue(n, NutrientIDTotalFat),
		Carbs:    FindNutrientValue(n, NutrientIDCarbohydrate),
		Fiber:    FindNutrientValue(n, NutrientIDFiber),
		Alcohol:  FindNutrientValue(n, NutrientIDAlcohol),
		Caffeine: FindNutrientValue(n, NutrientIDCaffeine),
	}
	if sugar, ok := lookup(n, NutrientIDSugars); ok {
		profile.Sugar = sugar
	} else {
		profile.Sugar = FindNutrientValue(n, NutrientIDSugarsNLEA)
	}
	return clampProfile(profile)
}

// clampProfile replaces negative and NaN values with zero. Catalog nutrients
// are never negative.
func clampProfile(p domain.NutrientProfile) domain.NutrientProfile {
	for _, v := range []*float64{&p.Calories, &p.Protein, &p.Fat, &p.Carbs, &p.Fiber, &p.Sugar, &p.Alcohol, &p.Caffeine} {
		if *v < 0 || math.IsNaN(*v) {
			*v = 0
		}
	}
	return p
}

// MapToFoodItem builds a catalog food item named after the FoodData description
func MapToFoodItem(food *domain.FDCFood) domain.FoodItem {
	return domain.FoodItem{
		Name:    DisplayName(food),
		Per100g: MapToProfile(food),
	}
}

// DisplayName prefixes branded foods with their brand owner
func DisplayName(food *domain.FDCFood) string {
	name := strings.TrimSpace(food.Description)
	brand := strings.TrimSpace(food.BrandOwner)
	if brand != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(brand)) {
		return brand + " " + name
	}
	return name
}

// HasMacros reports whether the nutrient list carries energy or any macronutrient.
// Search results sometimes omit nutrients that the detail endpoint returns.
func HasMacros(food *domain.FDCFood) bool {
	if food == nil {
		return false
	}
	for _, id := range append([]int{NutrientIDEnergyKJ, NutrientIDProtein, NutrientIDTotalFat, NutrientIDCarbohydrate}, energyIDs...) {
		if _, ok := lookup(food.Nutrients, id); ok {
			return true
		}
	}
	return false
}

func energyKcal(n []domain.FDCNutrient) float64 {
	for _, id := range energyIDs {
		if v, ok := lookup(n, id); ok {
			return v
		}
	}
	if kj, ok := lookup(n, NutrientIDEnergyKJ); ok {
		return kj / kilojoulesPerKilocalorie
	}
	return 0
}

func lookup(nutrients []domain.FDCNutrient, nutrientID int) (float64, bool) {
	for _, nutrient := range nutrients {
		if nutrient.NutrientID == nutrientID {
			return nutrient.Value, true
		}
	}
	return 0, false
}

// FindNutrientValue finds a specific nutrient value by ID, 0 when absent
func FindNutrientValue(nutrients []domain.FDCNutrient, nutrientID int) float64 {
	v, _ := lookup(nutrients, nutrientID)
	return v
}
