package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/macrolens/mealtracker/internal/domain"
)

const (
	minSearchQueryLength = 2

	// DefaultMaxSeriesDays bounds a series request when no limit is configured.
	DefaultMaxSeriesDays = 366
)

// TrackerServiceConfig holds configuration for the tracker service
type TrackerServiceConfig struct {
	DishWeightPolicy DishWeightPolicy
	Location         *time.Location   // default calendar for day boundaries
	MaxSeriesDays    int              // longest [from, to) accepted by Series
	Now              func() time.Time // clock, time.Now when nil
}

// TrackerService logs meals and computes nutrient summaries over a consistent
// snapshot of the catalog.
type TrackerService struct {
	catalog    domain.CatalogRepository
	meals      domain.MealRepository
	aggregator Aggregator
	location   *time.Location
	maxDays    int
	now        func() time.Time
}

// NewTrackerService creates a new tracker service with dependencies
func NewTrackerService(
	catalog domain.CatalogRepository,
	meals domain.MealRepository,
	config TrackerServiceConfig,
) *TrackerService {
	loc := config.Location
	if loc == nil {
		loc = time.Local
	}

	maxDays := config.MaxSeriesDays
	if maxDays <= 0 {
		maxDays = DefaultMaxSeriesDays
	}
	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &TrackerService{
		catalog:    catalog,
		meals:      meals,
		aggregator: NewAggregator(config.DishWeightPolicy),
		location:   loc,
		maxDays:    maxDays,
		now:        now,
	}
}

// Location returns the default calendar used when callers pass none.
func (s *TrackerService) Location() *time.Location {
	return s.location
}

// Today returns the current calendar date in loc, or in the default location
// when loc is nil.
func (s *TrackerService) Today(loc *time.Location) domain.CalendarDate {
	return domain.DateOf(s.now().In(s.loc(loc)))
}

// snapshot fetches every dish and food item referenced by the meals that
// userID may see. Dish ingredients are folded into the food item request so
// both lookups come from one round of reads. Items owned by other users are
// left out and resolve as missing.
func (s *TrackerService) snapshot(ctx context.Context, userID string, meals []domain.Meal) (domain.FoodItems, domain.Dishes, error) {
	foodIDs, dishIDs := domain.References(meals)

	dishes := domain.Dishes{}
	if len(dishIDs) > 0 {
		loaded, err := s.catalog.DishesWithIngredients(ctx, dishIDs)
		if err != nil {
			return nil, nil, fmt.Errorf("load dishes: %w", err)
		}
		dishes = loaded.VisibleTo(userID)
		for _, dish := range dishes {
			foodIDs = append(foodIDs, dish.FoodItemIDs()...)
		}
	}

	foods := domain.FoodItems{}
	if len(foodIDs) > 0 {
		loaded, err := s.catalog.FoodItems(ctx, dedupe(foodIDs))
		if err != nil {
			return nil, nil, fmt.Errorf("load food items: %w", err)
		}
		foods = loaded.VisibleTo(userID)
	}
	return foods, dishes, nil
}

// checkReferences rejects food items and dishes owned by another user. Ids
// that do not exist are accepted and resolve as missing.
func (s *TrackerService) checkReferences(ctx context.Context, userID string, foodIDs, dishIDs []string) error {
	if len(dishIDs) > 0 {
		dishes, err := s.catalog.DishesWithIngredients(ctx, dishIDs)
		if err != nil {
			return fmt.Errorf("load dishes: %w", err)
		}
		for _, id := range dishIDs {
			if dish, ok := dishes.Dish(id); ok && !dish.VisibleTo(userID) {
				return fmt.Errorf("%w: dish %s is not in your catalog", domain.ErrInvalidRequest, id)
			}
		}
	}
	if len(foodIDs) > 0 {
		foods, err := s.catalog.FoodItems(ctx, foodIDs)
		if err != nil {
			return fmt.Errorf("load food items: %w", err)
		}
		for _, id := range foodIDs {
			if item, ok := foods.FoodItem(id); ok && !item.VisibleTo(userID) {
				return fmt.Errorf("%w: food item %s is not in your catalog", domain.ErrInvalidRequest, id)
			}
		}
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func (s *TrackerService) loc(loc *time.Location) *time.Location {
	if loc == nil {
		return s.location
	}
	return loc
}

// logInvalidEntries reports malformed stored entries without failing the
// request: they already resolved to zero.
func logInvalidEntries(scope string, err error) {
	if err != nil {
		log.Printf("[tracker] %s: skipped malformed entries: %v", scope, err)
	}
}

// DailySummary returns totals and per-meal breakdowns for one calendar day.
func (s *TrackerService) DailySummary(ctx context.Context, userID string, day domain.CalendarDate, loc *time.Location) (*DaySummary, error) {
	if userID == "" {
		return nil, domain.ErrInvalidRequest
	}
	loc = s.loc(loc)
	start := day.Start(loc)
	end := day.AddDays(1).Start(loc)

	meals, err := s.meals.MealsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}
	foods, dishes, err := s.snapshot(ctx, userID, meals)
	if err != nil {
		return nil, err
	}

	totals, err := s.aggregator.AggregateDay(meals, foods, dishes)
	logInvalidEntries("day "+day.String(), err)

	summary := &DaySummary{Date: day, Totals: totals, Meals: make([]MealSummary, 0, len(meals))}
	for _, meal := range meals {
		summary.Meals = append(summary.Meals, s.aggregator.SummarizeMeal(meal, foods, dishes))
	}
	return summary, nil
}

// Series returns per-day totals over [from, to). With fill set, days without
// meals are included as zero buckets.
func (s *TrackerService) Series(ctx context.Context, userID string, from, to domain.CalendarDate, loc *time.Location, fill bool) (Series, error) {
	if userID == "" {
		return nil, domain.ErrInvalidRequest
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: range start %s must be before end %s", domain.ErrInvalidRequest, from, to)
	}
	if days := from.DaysUntil(to); days > s.maxDays {
		return nil, fmt.Errorf("%w: range of %d days exceeds the limit of %d", domain.ErrInvalidRequest, days, s.maxDays)
	}
	loc = s.loc(loc)
	start, end := from.Start(loc), to.Start(loc)

	meals, err := s.meals.MealsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load meals: %w", err)
	}
	foods, dishes, err := s.snapshot(ctx, userID, meals)
	if err != nil {
		return nil, err
	}

	series, err := s.aggregator.BuildSeries(meals, start, end, foods, dishes)
	logInvalidEntries(fmt.Sprintf("series %s..%s", from, to), err)

	if fill {
		series = series.ZeroFill(from, to)
	}
	return series, nil
}

// MealSummary returns a single meal with its breakdown.
func (s *TrackerService) MealSummary(ctx context.Context, userID, mealID string) (*MealSummary, error) {
	meal, err := s.meals.GetMeal(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	meals := []domain.Meal{*meal}
	foods, dishes, err := s.snapshot(ctx, userID, meals)
	if err != nil {
		return nil, err
	}
	summary := s.aggregator.SummarizeMeal(*meal, foods, dishes)
	return &summary, nil
}

// DishNutrition resolves the current total of a dish.
func (s *TrackerService) DishNutrition(ctx context.Context, userID, dishID string) (*DishSummary, error) {
	dishes, err := s.catalog.DishesWithIngredients(ctx, []string{dishID})
	if err != nil {
		return nil, fmt.Errorf("load dish: %w", err)
	}
	dish, ok := dishes.Dish(dishID)
	if !ok || !dish.VisibleTo(userID) {
		return nil, fmt.Errorf("dish %s: %w", dishID, domain.ErrNotFound)
	}

	foods, err := s.catalog.FoodItems(ctx, dish.FoodItemIDs())
	if err != nil {
		return nil, fmt.Errorf("load food items: %w", err)
	}
	summary := s.aggregator.SummarizeDish(dish, foods.VisibleTo(userID))
	return &summary, nil
}

// LogEntryRequest is one item of a meal being logged.
type LogEntryRequest struct {
	FoodItemID  string   `json:"foodItemId,omitempty"`
	DishID      string   `json:"dishId,omitempty"`
	WeightGrams *float64 `json:"weightGrams,omitempty"`
}

// LogMealRequest creates a meal with its initial entries.
type LogMealRequest struct {
	MealType string            `json:"mealType" binding:"required,mealtype"`
	LoggedAt *time.Time        `json:"loggedAt,omitempty"`
	Entries  []LogEntryRequest `json:"entries" binding:"required,min=1,dive"`
}

// LogMeal validates and stores a meal together with all of its entries.
func (s *TrackerService) LogMeal(ctx context.Context, userID string, req *LogMealRequest) (*domain.Meal, error) {
	if userID == "" || req == nil || len(req.Entries) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	mealType, err := domain.ParseMealType(req.MealType)
	if err != nil {
		return nil, err
	}

	loggedAt := s.now()
	if req.LoggedAt != nil {
		loggedAt = *req.LoggedAt
	}

	meal := &domain.Meal{
		ID:       uuid.NewString(),
		UserID:   userID,
		Type:     mealType,
		LoggedAt: loggedAt,
		Entries:  make([]domain.LogEntry, 0, len(req.Entries)),
	}
	for i, e := range req.Entries {
		src, err := domain.NewEntrySource(e.FoodItemID, e.DishID, e.WeightGrams)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if ref, ok := src.(domain.FoodItemRef); ok && !domain.ValidWeight(ref.WeightGrams) {
			return nil, fmt.Errorf("%w: entry %d weight must be positive", domain.ErrInvalidRequest, i)
		}
		meal.Entries = append(meal.Entries, domain.LogEntry{
			ID:     uuid.NewString(),
			MealID: meal.ID,
			Source: src,
		})
	}

	foodIDs, dishIDs := domain.References([]domain.Meal{*meal})
	if err := s.checkReferences(ctx, userID, foodIDs, dishIDs); err != nil {
		return nil, err
	}

	if err := s.meals.CreateMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("create meal: %w", err)
	}
	log.Printf("[tracker] logged %s meal %s with %d entries", meal.Type, meal.ID, len(meal.Entries))
	return meal, nil
}

// DeleteMeal removes a meal and its entries.
func (s *TrackerService) DeleteMeal(ctx context.Context, userID, mealID string) error {
	if userID == "" || mealID == "" {
		return domain.ErrInvalidRequest
	}
	return s.meals.DeleteMeal(ctx, userID, mealID)
}

// SearchCatalog finds food items and dishes by name.
func (s *TrackerService) SearchCatalog(ctx context.Context, userID, query string) ([]domain.CatalogMatch, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchQueryLength {
		return []domain.CatalogMatch{}, nil
	}
	return s.catalog.Search(ctx, userID, query)
}

// CreateFoodItemRequest adds a food item to the catalog.
type CreateFoodItemRequest struct {
	Name    string                 `json:"name" binding:"required,min=2"`
	Per100g domain.NutrientProfile `json:"per100g"`
}

// CreateFoodItem stores a new food item.
func (s *TrackerService) CreateFoodItem(ctx context.Context, userID string, req *CreateFoodItemRequest) (*domain.FoodItem, error) {
	if userID == "" || req == nil || len(strings.TrimSpace(req.Name)) < minSearchQueryLength {
		return nil, domain.ErrInvalidRequest
	}
	if hasNegative(req.Per100g) {
		return nil, fmt.Errorf("%w: nutrient values must not be negative", domain.ErrInvalidRequest)
	}
	item := &domain.FoodItem{
		ID:      uuid.NewString(),
		UserID:  userID,
		Name:    strings.TrimSpace(req.Name),
		Per100g: req.Per100g,
	}
	if err := s.catalog.CreateFoodItem(ctx, item); err != nil {
		return nil, fmt.Errorf("create food item: %w", err)
	}
	return item, nil
}

func hasNegative(p domain.NutrientProfile) bool {
	for _, v := range []float64{p.Calories, p.Protein, p.Fat, p.Carbs, p.Fiber, p.Sugar, p.Alcohol, p.Caffeine} {
		if v < 0 {
			return true
		}
	}
	return false
}

// CreateDishRequest adds a dish to the catalog.
type CreateDishRequest struct {
	Name        string              `json:"name" binding:"required,min=2"`
	Ingredients []domain.Ingredient `json:"ingredients"`
}

// CreateDish stores a new dish with its ingredients.
func (s *TrackerService) CreateDish(ctx context.Context, userID string, req *CreateDishRequest) (*domain.Dish, error) {
	if userID == "" || req == nil || len(strings.TrimSpace(req.Name)) < minSearchQueryLength {
		return nil, domain.ErrInvalidRequest
	}
	for i, ing := range req.Ingredients {
		if ing.FoodItemID == "" || !domain.ValidWeight(ing.WeightGrams) {
			return nil, fmt.Errorf("%w: ingredient %d needs a food item and a positive weight", domain.ErrInvalidRequest, i)
		}
	}
	if err := s.checkReferences(ctx, userID, domain.Dish{Ingredients: req.Ingredients}.FoodItemIDs(), nil); err != nil {
		return nil, err
	}

	dish := &domain.Dish{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		Ingredients: req.Ingredients,
	}
	if err := s.catalog.CreateDish(ctx, dish); err != nil {
		return nil, fmt.Errorf("create dish: %w", err)
	}
	return dish, nil
}

// IsInvalidEntry reports whether err carries a malformed entry condition.
func IsInvalidEntry(err error) bool {
	return errors.Is(err, domain.ErrInvalidEntryKind)
}
