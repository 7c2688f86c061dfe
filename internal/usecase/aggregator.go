package usecase

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/macrolens/mealtracker/internal/domain"
)

// DishWeightPolicy decides what a weight recorded on a dish entry does.
type DishWeightPolicy string

const (
	// DishWeightIgnore resolves a dish entry to the whole dish total.
	DishWeightIgnore DishWeightPolicy = "ignore"
	// DishWeightScale treats the entry weight as a portion of the dish yield
	// (sum of ingredient weights) and scales the total accordingly.
	DishWeightScale DishWeightPolicy = "scale"
)

// ParseDishWeightPolicy maps a config value to a policy; empty means ignore.
func ParseDishWeightPolicy(s string) (DishWeightPolicy, error) {
	switch DishWeightPolicy(s) {
	case "", DishWeightIgnore:
		return DishWeightIgnore, nil
	case DishWeightScale:
		return DishWeightScale, nil
	}
	return "", fmt.Errorf("unknown dish weight policy %q", s)
}

// Aggregator resolves log entries into nutrient totals and rolls them up per
// meal, day and date range. It holds no state besides its policy, so a single
// value can be shared between goroutines.
type Aggregator struct {
	dishWeight DishWeightPolicy
}

// NewAggregator creates an aggregator with the given dish weight policy.
func NewAggregator(policy DishWeightPolicy) Aggregator {
	if policy == "" {
		policy = DishWeightIgnore
	}
	return Aggregator{dishWeight: policy}
}

// ResolveEntry returns the absolute contribution of one entry. Dangling
// references and unusable weights contribute zero; only a malformed entry
// produces an error.
func (a Aggregator) ResolveEntry(entry domain.LogEntry, foods domain.FoodItemLookup, dishes domain.DishLookup) (domain.NutrientProfile, error) {
	switch src := entry.Source.(type) {
	case domain.FoodItemRef:
		item, ok := foods.FoodItem(src.FoodItemID)
		if !ok {
			return domain.NutrientProfile{}, nil
		}
		return item.Per100g.Scale(domain.WeightRatio(src.WeightGrams)), nil

	case domain.DishRef:
		dish, ok := dishes.Dish(src.DishID)
		if !ok {
			return domain.NutrientProfile{}, nil
		}
		total := a.ResolveDish(dish, foods)
		if a.dishWeight == DishWeightScale {
			return total.Scale(portionFactor(dish, src.WeightGrams)), nil
		}
		return total, nil

	default:
		return domain.NutrientProfile{}, fmt.Errorf("entry %s: %w", entry.ID, domain.ErrInvalidEntryKind)
	}
}

// portionFactor is the share of the dish yield the entry weight represents.
// Without a usable weight or yield the whole dish counts.
func portionFactor(dish domain.Dish, weightGrams *float64) float64 {
	if weightGrams == nil || !domain.ValidWeight(*weightGrams) {
		return 1
	}
	yield := dish.TotalWeightGrams()
	if yield <= 0 {
		return 1
	}
	return *weightGrams / yield
}

// ResolveDish sums the weighted ingredients of a dish. Ingredients whose food
// item is gone contribute zero.
func (a Aggregator) ResolveDish(dish domain.Dish, foods domain.FoodItemLookup) domain.NutrientProfile {
	var total domain.NutrientProfile
	for _, ing := range dish.Ingredients {
		item, ok := foods.FoodItem(ing.FoodItemID)
		if !ok {
			continue
		}
		total = total.Add(item.Per100g.Scale(domain.WeightRatio(ing.WeightGrams)))
	}
	return total
}

// AggregateMeal sums every entry of the meal in entry order. Malformed entries
// contribute zero and are reported together in the returned error; the total
// of the remaining entries is still valid.
func (a Aggregator) AggregateMeal(meal domain.Meal, foods domain.FoodItemLookup, dishes domain.DishLookup) (domain.NutrientProfile, error) {
	var total domain.NutrientProfile
	var errs []error
	for _, entry := range meal.Entries {
		p, err := a.ResolveEntry(entry, foods, dishes)
		if err != nil {
			errs = append(errs, fmt.Errorf("meal %s: %w", meal.ID, err))
			continue
		}
		total = total.Add(p)
	}
	return total, errors.Join(errs...)
}

// AggregateDay sums the given meals. Callers are responsible for passing only
// meals that belong to the day.
func (a Aggregator) AggregateDay(meals []domain.Meal, foods domain.FoodItemLookup, dishes domain.DishLookup) (domain.NutrientProfile, error) {
	var total domain.NutrientProfile
	var errs []error
	for _, meal := range meals {
		p, err := a.AggregateMeal(meal, foods, dishes)
		if err != nil {
			errs = append(errs, err)
		}
		total = total.Add(p)
	}
	return total, errors.Join(errs...)
}

// DayBucket is the total for one calendar day of a series.
type DayBucket struct {
	Day    domain.CalendarDate    `json:"day"`
	Totals domain.NutrientProfile `json:"totals"`
	Meals  int                    `json:"meals"`
}

// Series is an ascending list of day buckets.
type Series []DayBucket

// Total sums every bucket.
func (s Series) Total() domain.NutrientProfile {
	var total domain.NutrientProfile
	for _, b := range s {
		total = total.Add(b.Totals)
	}
	return total
}

// ZeroFill returns a copy with an empty bucket for every day of [from, to)
// that has no activity.
func (s Series) ZeroFill(from, to domain.CalendarDate) Series {
	byDay := make(map[domain.CalendarDate]DayBucket, len(s))
	for _, b := range s {
		byDay[b.Day] = b
	}
	var dense Series
	for d := from; d.Before(to); d = d.AddDays(1) {
		if b, ok := byDay[d]; ok {
			dense = append(dense, b)
			continue
		}
		dense = append(dense, DayBucket{Day: d})
	}
	return dense
}

// BuildSeries buckets meals by the calendar date of LoggedAt in from's
// location and aggregates each bucket. Meals are expected to already lie in
// [from, to); days without meals are omitted.
func (a Aggregator) BuildSeries(meals []domain.Meal, from, to time.Time, foods domain.FoodItemLookup, dishes domain.DishLookup) (Series, error) {
	loc := from.Location()
	buckets := make(map[domain.CalendarDate][]domain.Meal)
	for _, meal := range meals {
		day := domain.DateOf(meal.LoggedAt.In(loc))
		buckets[day] = append(buckets[day], meal)
	}

	series := make(Series, 0, len(buckets))
	var errs []error
	for day, dayMeals := range buckets {
		totals, err := a.AggregateDay(dayMeals, foods, dishes)
		if err != nil {
			errs = append(errs, err)
		}
		series = append(series, DayBucket{Day: day, Totals: totals, Meals: len(dayMeals)})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Day.Before(series[j].Day)
	})
	return series, errors.Join(errs...)
}
