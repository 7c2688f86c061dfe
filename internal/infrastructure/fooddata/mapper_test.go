package fooddata

import (
	"math"
	"testing"

	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMapToProfile(t *testing.T) {
	tests := []struct {
		name     string
		food     *domain.FDCFood
		expected domain.NutrientProfile
	}{
		{
			name:     "nil food",
			food:     nil,
			expected: domain.NutrientProfile{},
		},
		{
			name: "full nutrient list",
			food: &domain.FDCFood{
				FdcID:       171287,
				Description: "Beer, regular",
				Nutrients: []domain.FDCNutrient{
					{NutrientID: NutrientIDEnergy, Value: 43},
					{NutrientID: NutrientIDProtein, Value: 0.46},
					{NutrientID: NutrientIDTotalFat, Value: 0},
					{NutrientID: NutrientIDCarbohydrate, Value: 3.55},
					{NutrientID: NutrientIDFiber, Value: 0},
					{NutrientID: NutrientIDSugars, Value: 0.1},
					{NutrientID: NutrientIDAlcohol, Value: 3.9},
					{NutrientID: NutrientIDCaffeine, Value: 0},
				},
			},
			expected: domain.NutrientProfile{Calories: 43, Protein: 0.46, Carbs: 3.55, Sugar: 0.1, Alcohol: 3.9},
		},
		{
			name: "atwater energy when 1008 missing",
			food: &domain.FDCFood{
				Nutrients: []domain.FDCNutrient{
					{NutrientID: NutrientIDEnergyAtwaterG, Value: 120},
					{NutrientID: NutrientIDEnergyAtwaterS, Value: 118},
				},
			},
			expected: domain.NutrientProfile{Calories: 118},
		},
		{
			name: "kilojoules converted",
			food: &domain.FDCFood{
				Nutrients: []domain.FDCNutrient{{NutrientID: NutrientIDEnergyKJ, Value: 418.4}},
			},
			expected: domain.NutrientProfile{Calories: 100},
		},
		{
			name: "NLEA sugars fallback and caffeine",
			food: &domain.FDCFood{
				Nutrients: []domain.FDCNutrient{
					{NutrientID: NutrientIDSugarsNLEA, Value: 10.6},
					{NutrientID: NutrientIDCaffeine, Value: 9.6},
				},
			},
			expected: domain.NutrientProfile{Sugar: 10.6, Caffeine: 9.6},
		},
		{
			name: "negative and NaN values clamp to zero",
			food: &domain.FDCFood{
				Nutrients: []domain.FDCNutrient{
					{NutrientID: NutrientIDEnergy, Value: -12},
					{NutrientID: NutrientIDProtein, Value: 5},
					{NutrientID: NutrientIDTotalFat, Value: -0.3},
					{NutrientID: NutrientIDCarbohydrate, Value: math.NaN()},
					{NutrientID: NutrientIDSugars, Value: -1},
				},
			},
			expected: domain.NutrientProfile{Protein: 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapToProfile(tt.food)
			assert.InDelta(t, tt.expected.Calories, got.Calories, 1e-9)
			assert.Equal(t, tt.expected.Protein, got.Protein)
			assert.Equal(t, tt.expected.Fat, got.Fat)
			assert.Equal(t, tt.expected.Carbs, got.Carbs)
			assert.Equal(t, tt.expected.Fiber, got.Fiber)
			assert.Equal(t, tt.expected.Sugar, got.Sugar)
			assert.Equal(t, tt.expected.Alcohol, got.Alcohol)
			assert.Equal(t, tt.expected.Caffeine, got.Caffeine)
		})
	}
}

func TestMapToFoodItem(t *testing.T) {
	item := MapToFoodItem(&domain.FDCFood{
		Description: "Greek Yogurt, Plain",
		BrandOwner:  "Fage",
		Nutrients:   []domain.FDCNutrient{{NutrientID: NutrientIDProtein, Value: 10}},
	})

	assert.Equal(t, "Fage Greek Yogurt, Plain", item.Name)
	assert.Equal(t, 10.0, item.Per100g.Protein)
	assert.Empty(t, item.ID)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Bananas, raw", DisplayName(&domain.FDCFood{Description: " Bananas, raw "}))
	assert.Equal(t, "CHOBANI Greek yogurt", DisplayName(&domain.FDCFood{Description: "CHOBANI Greek yogurt", BrandOwner: "Chobani"}))
}

func TestHasMacros(t *testing.T) {
	assert.False(t, HasMacros(nil))
	assert.False(t, HasMacros(&domain.FDCFood{}))
	assert.False(t, HasMacros(&domain.FDCFood{Nutrients: []domain.FDCNutrient{{NutrientID: NutrientIDCaffeine, Value: 5}}}))
	assert.True(t, HasMacros(&domain.FDCFood{Nutrients: []domain.FDCNutrient{{NutrientID: NutrientIDTotalFat, Value: 0}}}))
}

func TestFindNutrientValue(t *testing.T) {
	nutrients := []domain.FDCNutrient{
		{NutrientID: NutrientIDProtein, Value: 3.3},
		{NutrientID: NutrientIDTotalFat, Value: 1.2},
	}

	assert.Equal(t, 3.3, FindNutrientValue(nutrients, NutrientIDProtein))
	assert.Equal(t, 1.2, FindNutrientValue(nutrients, NutrientIDTotalFat))
	assert.Equal(t, 0.0, FindNutrientValue(nutrients, NutrientIDFiber))
	assert.Equal(t, 0.0, FindNutrientValue(nil, NutrientIDProtein))
}
