package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations. Values are
// stored JSON encoded; Get returns them as json.RawMessage.
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// FoodDataClient defines the interface for interacting with the FoodData Central API
type FoodDataClient interface {
	SearchFoods(ctx context.Context, query string) (*FDCSearchResponse, error)
	GetFoodDetails(ctx context.Context, fdcID int) (*FDCFood, error)
}

// CatalogRepository is the read/write access to food items and dishes.
// Lookups return only the ids that exist; missing ids are not an error.
type CatalogRepository interface {
	FoodItems(ctx context.Context, ids []string) (FoodItems, error)
	DishesWithIngredients(ctx context.Context, ids []string) (Dishes, error)
	Search(ctx context.Context, userID, query string) ([]CatalogMatch, error)
	CreateFoodItem(ctx context.Context, item *FoodItem) error
	CreateDish(ctx context.Context, dish *Dish) error
}

// MealRepository stores meals together with their entries.
type MealRepository interface {
	// MealsInRange returns the user's meals with LoggedAt in [from, to),
	// ordered by LoggedAt, with entries populated.
	MealsInRange(ctx context.Context, userID string, from, to time.Time) ([]Meal, error)
	GetMeal(ctx context.Context, userID, mealID string) (*Meal, error)
	// CreateMeal persists the meal and all of its entries atomically.
	CreateMeal(ctx context.Context, meal *Meal) error
	DeleteMeal(ctx context.Context, userID, mealID string) error
}
