package domain

import (
	"fmt"
	"strings"
	"time"
)

// MealType is the fixed set of meal slots.
type MealType string

const (
	MealBreakfast MealType = "breakfast"
	MealLunch     MealType = "lunch"
	MealDinner    MealType = "dinner"
	MealSnack     MealType = "snack"
)

// MealTypes lists every valid meal type in display order.
var MealTypes = []MealType{MealBreakfast, MealLunch, MealDinner, MealSnack}

// ParseMealType normalizes s and checks it against MealTypes.
func ParseMealType(s string) (MealType, error) {
	t := MealType(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range MealTypes {
		if t == valid {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown meal type %q", ErrInvalidRequest, s)
}

// EntrySource is what a log entry points at: a FoodItemRef or a DishRef.
type EntrySource interface {
	entrySource()
}

// FoodItemRef references a food item eaten in the given amount.
type FoodItemRef struct {
	FoodItemID  string  `json:"foodItemId"`
	WeightGrams float64 `json:"weightGrams"`
}

// DishRef references a whole dish. WeightGrams is recorded as entered and is
// only used when the aggregator runs with DishWeightScale.
type DishRef struct {
	DishID      string   `json:"dishId"`
	WeightGrams *float64 `json:"weightGrams,omitempty"`
}

func (FoodItemRef) entrySource() {}
func (DishRef) entrySource()     {}

// NewEntrySource builds the source for a stored or requested entry. Exactly one
// of foodItemID and dishID must be set; food references require a weight.
func NewEntrySource(foodItemID, dishID string, weightGrams *float64) (EntrySource, error) {
	switch {
	case foodItemID != "" && dishID != "":
		return nil, fmt.Errorf("%w: both food item %s and dish %s set", ErrInvalidEntryKind, foodItemID, dishID)
	case foodItemID != "":
		if weightGrams == nil {
			return nil, fmt.Errorf("%w: food item %s has no weight", ErrInvalidEntryKind, foodItemID)
		}
		return FoodItemRef{FoodItemID: foodItemID, WeightGrams: *weightGrams}, nil
	case dishID != "":
		return DishRef{DishID: dishID, WeightGrams: weightGrams}, nil
	default:
		return nil, fmt.Errorf("%w: neither food item nor dish set", ErrInvalidEntryKind)
	}
}

// LogEntry is one line of a meal. A nil Source marks a malformed stored row.
type LogEntry struct {
	ID     string      `json:"id"`
	MealID string      `json:"mealId"`
	Source EntrySource `json:"source"`
}

// Meal is a timestamped, typed group of entries.
type Meal struct {
	ID       string     `json:"id"`
	UserID   string     `json:"userId"`
	Type     MealType   `json:"mealType"`
	LoggedAt time.Time  `json:"loggedAt"`
	Entries  []LogEntry `json:"entries"`
}

// References collects the distinct food item and dish ids the meals point at.
func References(meals []Meal) (foodItemIDs, dishIDs []string) {
	seenFood := map[string]struct{}{}
	seenDish := map[string]struct{}{}
	for _, meal := range meals {
		for _, entry := range meal.Entries {
			switch src := entry.Source.(type) {
			case FoodItemRef:
				if _, ok := seenFood[src.FoodItemID]; !ok {
					seenFood[src.FoodItemID] = struct{}{}
					foodItemIDs = append(foodItemIDs, src.FoodItemID)
				}
			case DishRef:
				if _, ok := seenDish[src.DishID]; !ok {
					seenDish[src.DishID] = struct{}{}
					dishIDs = append(dishIDs, src.DishID)
				}
			}
		}
	}
	return foodItemIDs, dishIDs
}
