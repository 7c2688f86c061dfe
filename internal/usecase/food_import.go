package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/macrolens/mealtracker/internal/infrastructure/fooddata"
)

const defaultImportCacheTTL = 720 * time.Hour

// FoodImportConfig holds configuration for the food import service
type FoodImportConfig struct {
	CacheTTL               time.Duration
	MinConfidenceThreshold float64
	EnableFuzzyMatching    bool
	Debug                  bool
}

// FoodImportService creates catalog food items from FoodData Central.
// Flow: cache -> search -> best match -> details if needed -> map per 100 g -> persist
type FoodImportService struct {
	cache        domain.CacheRepository
	client       domain.FoodDataClient
	catalog      domain.CatalogRepository
	matcher      *MatchingService
	preprocessor *QueryPreprocessor
	cacheTTL     time.Duration
}

// ImportResult is the stored food item with the match that produced it.
// Item is nil when the match was rejected.
type ImportResult struct {
	Item  *domain.FoodItem    `json:"item,omitempty"`
	Match *domain.MatchResult `json:"match,omitempty"`
	Query string              `json:"query"`
}

// NewFoodImportService creates a new import service. client may be nil when no
// API key is configured; Import then fails with ErrImportDisabled.
func NewFoodImportService(
	cache domain.CacheRepository,
	client domain.FoodDataClient,
	catalog domain.CatalogRepository,
	config FoodImportConfig,
) *FoodImportService {
	cacheTTL := config.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultImportCacheTTL
	}

	return &FoodImportService{
		cache:   cache,
		client:  client,
		catalog: catalog,
		matcher: NewMatchingService(MatchConfig{
			MinConfidenceThreshold: config.MinConfidenceThreshold,
			EnableFuzzyMatching:    config.EnableFuzzyMatching,
			EnableDebugLogging:     config.Debug,
		}),
		preprocessor: NewQueryPreprocessor(config.Debug),
		cacheTTL:     cacheTTL,
	}
}

// Import searches FoodData Central for the requested food and stores the best
// match as a new food item owned by userID.
func (s *FoodImportService) Import(ctx context.Context, userID string, request *domain.SearchRequest) (*ImportResult, error) {
	if userID == "" || request == nil || strings.TrimSpace(request.ProductName) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.client == nil {
		return nil, domain.ErrImportDisabled
	}

	query := s.preprocessor.PreprocessQuery(request.ProductName, request.Brand)
	if query == "" {
		return nil, fmt.Errorf("%w: nothing left to search in %q", domain.ErrInvalidRequest, request.ProductName)
	}
	result := &ImportResult{Query: query}

	search, err := s.search(ctx, query)
	if err != nil {
		return nil, err
	}

	// score against the cleaned name; the brand is matched separately
	matchRequest := &domain.SearchRequest{
		ProductName: s.preprocessor.PreprocessQuery(request.ProductName, ""),
		Brand:       request.Brand,
	}
	match, err := s.matcher.FindBestMatch(ctx, matchRequest, search.Foods)
	if err != nil {
		if errors.Is(err, domain.ErrLowConfidence) {
			result.Match = match
			return result, err
		}
		return nil, err
	}
	result.Match = match

	food, err := s.matchedFood(ctx, search.Foods, match.FdcID)
	if err != nil {
		return nil, err
	}

	item := fooddata.MapToFoodItem(food)
	item.ID = uuid.NewString()
	item.UserID = userID
	if err := s.catalog.CreateFoodItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("create food item: %w", err)
	}
	log.Printf("[import] %q -> fdc %d %q (confidence %.1f)", request.ProductName, food.FdcID, item.Name, match.MatchScore)

	result.Item = &item
	return result, nil
}

// search returns the cached response for query or asks FoodData Central.
// Cache failures never fail the import.
func (s *FoodImportService) search(ctx context.Context, query string) (*domain.FDCSearchResponse, error) {
	key := searchCacheKey(query)

	var cached domain.FDCSearchResponse
	if err := s.getFromCache(ctx, key, &cached); err == nil && len(cached.Foods) > 0 {
		return &cached, nil
	} else if err != nil && !errors.Is(err, domain.ErrCacheMiss) {
		log.Printf("[import] cache read %s: %v", key, err)
	}

	resp, err := s.client.SearchFoods(ctx, query)
	if err != nil {
		return nil, classifyFoodDataErr(err)
	}
	if len(resp.Foods) == 0 {
		return nil, domain.ErrProductNotFound
	}

	if err := s.cache.Set(ctx, key, resp, s.cacheTTL); err != nil {
		log.Printf("[import] cache write %s: %v", key, err)
	}
	return resp, nil
}

// classifyFoodDataErr keeps known conditions and reports anything else as an
// upstream failure.
func classifyFoodDataErr(err error) error {
	for _, known := range []error{
		domain.ErrProductNotFound, domain.ErrFoodDataFailure, domain.ErrRateLimited,
		context.Canceled, context.DeadlineExceeded,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrFoodDataFailure, err)
}

// matchedFood picks the matched food from the search results and fetches its
// details when the search entry carries no macronutrients.
func (s *FoodImportService) matchedFood(ctx context.Context, foods []domain.FDCFood, fdcID int) (*domain.FDCFood, error) {
	for i := range foods {
		if foods[i].FdcID != fdcID {
			continue
		}
		if fooddata.HasMacros(&foods[i]) {
			return &foods[i], nil
		}
		details, err := s.client.GetFoodDetails(ctx, fdcID)
		if err != nil {
			return nil, fmt.Errorf("food %d details: %w", fdcID, classifyFoodDataErr(err))
		}
		return details, nil
	}
	return nil, domain.ErrProductNotFound
}

// getFromCache decodes a cached value into out
func (s *FoodImportService) getFromCache(ctx context.Context, key string, out interface{}) error {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return err
	}

	var data []byte
	switch v := value.(type) {
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		if data, err = json.Marshal(v); err != nil {
			return domain.ErrCacheMiss
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return domain.ErrCacheMiss
	}
	return nil
}

// searchCacheKey format: "fooddata:search:{normalized query}"
func searchCacheKey(query string) string {
	return "fooddata:search:" + NormalizeQuery(query)
}
