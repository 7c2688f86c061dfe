package domain

import "errors"

var (
	// ErrNotFound is returned when a requested meal, dish or food item does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrInvalidEntryKind is returned for a log entry that references neither
	// or both of a food item and a dish
	ErrInvalidEntryKind = errors.New("log entry must reference exactly one of food item or dish")

	// ErrProductNotFound is returned when a product cannot be found in FoodData Central
	ErrProductNotFound = errors.New("product not found in FoodData Central")

	// ErrLowConfidence is returned when the match confidence is below the threshold
	ErrLowConfidence = errors.New("match confidence below threshold")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFoodDataFailure is returned when a FoodData Central request fails
	ErrFoodDataFailure = errors.New("FoodData Central request failed")

	// ErrCacheUnavailable is returned when cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrImportDisabled is returned when no FoodData Central API key is configured
	ErrImportDisabled = errors.New("food import is not configured")
)
