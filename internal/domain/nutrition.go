package domain

import "math"

// NutrientProfile is an absolute or per-100g amount of macro nutrients.
// The optional extras default to zero when a source does not report them.
type NutrientProfile struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`  // grams
	Fat      float64 `json:"fat"`      // grams
	Carbs    float64 `json:"carbs"`    // grams
	Fiber    float64 `json:"fiber"`    // grams
	Sugar    float64 `json:"sugar"`    // grams
	Alcohol  float64 `json:"alcohol"`  // grams
	Caffeine float64 `json:"caffeine"` // milligrams
}

// Scale returns the profile multiplied by k.
func (p NutrientProfile) Scale(k float64) NutrientProfile {
	return NutrientProfile{
		Calories: p.Calories * k,
		Protein:  p.Protein * k,
		Fat:      p.Fat * k,
		Carbs:    p.Carbs * k,
		Fiber:    p.Fiber * k,
		Sugar:    p.Sugar * k,
		Alcohol:  p.Alcohol * k,
		Caffeine: p.Caffeine * k,
	}
}

// Add returns the pairwise sum of p and o.
func (p NutrientProfile) Add(o NutrientProfile) NutrientProfile {
	return NutrientProfile{
		Calories: p.Calories + o.Calories,
		Protein:  p.Protein + o.Protein,
		Fat:      p.Fat + o.Fat,
		Carbs:    p.Carbs + o.Carbs,
		Fiber:    p.Fiber + o.Fiber,
		Sugar:    p.Sugar + o.Sugar,
		Alcohol:  p.Alcohol + o.Alcohol,
		Caffeine: p.Caffeine + o.Caffeine,
	}
}

// IsZero reports whether every field is zero.
func (p NutrientProfile) IsZero() bool {
	return p == NutrientProfile{}
}

// Round rounds every field to the given number of decimal places.
func (p NutrientProfile) Round(places int) NutrientProfile {
	f := math.Pow(10, float64(places))
	r := func(v float64) float64 { return math.Round(v*f) / f }
	return NutrientProfile{
		Calories: r(p.Calories),
		Protein:  r(p.Protein),
		Fat:      r(p.Fat),
		Carbs:    r(p.Carbs),
		Fiber:    r(p.Fiber),
		Sugar:    r(p.Sugar),
		Alcohol:  r(p.Alcohol),
		Caffeine: r(p.Caffeine),
	}
}

// SumProfiles folds the profiles left to right starting from zero.
func SumProfiles(profiles ...NutrientProfile) NutrientProfile {
	var total NutrientProfile
	for _, p := range profiles {
		total = total.Add(p)
	}
	return total
}

// WeightRatio converts a gram weight into a per-100g scaling factor.
// Non-positive and non-finite weights yield 0.
func WeightRatio(weightGrams float64) float64 {
	if !ValidWeight(weightGrams) {
		return 0
	}
	return weightGrams / 100
}

// ValidWeight reports whether w is a usable gram weight.
func ValidWeight(w float64) bool {
	return w > 0 && !math.IsInf(w, 0) && !math.IsNaN(w)
}
