package usecase

import (
	"time"

	"github.com/macrolens/mealtracker/internal/domain"
)

// EntryLine is the resolved contribution of a single log entry.
type EntryLine struct {
	EntryID     string                 `json:"entryId"`
	Kind        string                 `json:"kind"`
	RefID       string                 `json:"refId,omitempty"`
	Name        string                 `json:"name,omitempty"`
	WeightGrams *float64               `json:"weightGrams,omitempty"`
	Totals      domain.NutrientProfile `json:"totals"`
	Missing     bool                   `json:"missing,omitempty"`
	Invalid     bool                   `json:"invalid,omitempty"`
}

// MealSummary is a meal with its total and per-entry breakdown.
type MealSummary struct {
	ID       string                 `json:"id"`
	Type     domain.MealType        `json:"mealType"`
	LoggedAt time.Time              `json:"loggedAt"`
	Totals   domain.NutrientProfile `json:"totals"`
	Entries  []EntryLine            `json:"entries"`
}

// DaySummary is the total for one calendar day with its meals.
type DaySummary struct {
	Date   domain.CalendarDate    `json:"date"`
	Totals domain.NutrientProfile `json:"totals"`
	Meals  []MealSummary          `json:"meals"`
}

// DishSummary is a dish with its derived total.
type DishSummary struct {
	Dish             domain.Dish            `json:"dish"`
	Totals           domain.NutrientProfile `json:"totals"`
	TotalWeightGrams float64                `json:"totalWeightGrams"`
}

// SummarizeMeal resolves every entry of the meal and keeps the per-entry
// lines. Totals equals AggregateMeal for the same inputs.
func (a Aggregator) SummarizeMeal(meal domain.Meal, foods domain.FoodItemLookup, dishes domain.DishLookup) MealSummary {
	summary := MealSummary{
		ID:       meal.ID,
		Type:     meal.Type,
		LoggedAt: meal.LoggedAt,
		Entries:  make([]EntryLine, 0, len(meal.Entries)),
	}

	for _, entry := range meal.Entries {
		line := EntryLine{EntryID: entry.ID}
		switch src := entry.Source.(type) {
		case domain.FoodItemRef:
			w := src.WeightGrams
			line.Kind = domain.CatalogKindFood
			line.RefID = src.FoodItemID
			line.WeightGrams = &w
			if item, ok := foods.FoodItem(src.FoodItemID); ok {
				line.Name = item.Name
			} else {
				line.Missing = true
			}
		case domain.DishRef:
			line.Kind = domain.CatalogKindDish
			line.RefID = src.DishID
			line.WeightGrams = src.WeightGrams
			if dish, ok := dishes.Dish(src.DishID); ok {
				line.Name = dish.Name
			} else {
				line.Missing = true
			}
		default:
			line.Invalid = true
		}

		// Malformed entries resolve to zero; the flag above carries the signal.
		line.Totals, _ = a.ResolveEntry(entry, foods, dishes)
		summary.Totals = summary.Totals.Add(line.Totals)
		summary.Entries = append(summary.Entries, line)
	}
	return summary
}

// SummarizeDish resolves a dish and reports its yield.
func (a Aggregator) SummarizeDish(dish domain.Dish, foods domain.FoodItemLookup) DishSummary {
	return DishSummary{
		Dish:             dish,
		Totals:           a.ResolveDish(dish, foods),
		TotalWeightGrams: dish.TotalWeightGrams(),
	}
}
