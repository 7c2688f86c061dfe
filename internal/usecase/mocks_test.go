package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/macrolens/mealtracker/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string]json.RawMessage
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string]json.RawMessage)}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = data
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockFoodDataClient is a mock implementation of domain.FoodDataClient
type MockFoodDataClient struct {
	searchResult *domain.FDCSearchResponse
	searchError  error
	foodResult   *domain.FDCFood
	foodError    error
	searchCalls  int
	detailsCalls int
	lastQuery    string
}

func NewMockFoodDataClient() *MockFoodDataClient {
	return &MockFoodDataClient{}
}

func (m *MockFoodDataClient) SearchFoods(ctx context.Context, query string) (*domain.FDCSearchResponse, error) {
	m.searchCalls++
	m.lastQuery = query
	if m.searchError != nil {
		return nil, m.searchError
	}
	return m.searchResult, nil
}

func (m *MockFoodDataClient) GetFoodDetails(ctx context.Context, fdcID int) (*domain.FDCFood, error) {
	m.detailsCalls++
	if m.foodError != nil {
		return nil, m.foodError
	}
	return m.foodResult, nil
}

// MockCatalogRepository keeps food items and dishes in maps
type MockCatalogRepository struct {
	mu          sync.Mutex
	foods       domain.FoodItems
	dishes      domain.Dishes
	err         error
	foodLookups [][]string
	dishLookups [][]string
}

func NewMockCatalogRepository(foods domain.FoodItems, dishes domain.Dishes) *MockCatalogRepository {
	if foods == nil {
		foods = domain.FoodItems{}
	}
	if dishes == nil {
		dishes = domain.Dishes{}
	}
	return &MockCatalogRepository{foods: foods, dishes: dishes}
}

func (m *MockCatalogRepository) FoodItems(ctx context.Context, ids []string) (domain.FoodItems, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foodLookups = append(m.foodLookups, ids)
	if m.err != nil {
		return nil, m.err
	}
	out := domain.FoodItems{}
	for _, id := range ids {
		if item, ok := m.foods[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func (m *MockCatalogRepository) DishesWithIngredients(ctx context.Context, ids []string) (domain.Dishes, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dishLookups = append(m.dishLookups, ids)
	if m.err != nil {
		return nil, m.err
	}
	out := domain.Dishes{}
	for _, id := range ids {
		if dish, ok := m.dishes[id]; ok {
			out[id] = dish
		}
	}
	return out, nil
}

func (m *MockCatalogRepository) Search(ctx context.Context, userID, query string) ([]domain.CatalogMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	q := strings.ToLower(query)
	matches := []domain.CatalogMatch{}
	for _, item := range m.foods {
		if strings.Contains(strings.ToLower(item.Name), q) {
			matches = append(matches, domain.CatalogMatch{ID: item.ID, Name: item.Name, Kind: domain.CatalogKindFood})
		}
	}
	for _, dish := range m.dishes {
		if strings.Contains(strings.ToLower(dish.Name), q) {
			matches = append(matches, domain.CatalogMatch{ID: dish.ID, Name: dish.Name, Kind: domain.CatalogKindDish})
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })
	return matches, nil
}

func (m *MockCatalogRepository) CreateFoodItem(ctx context.Context, item *domain.FoodItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.foods[item.ID] = *item
	return nil
}

func (m *MockCatalogRepository) CreateDish(ctx context.Context, dish *domain.Dish) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.dishes[dish.ID] = *dish
	return nil
}

// MockMealRepository keeps meals in insertion order
type MockMealRepository struct {
	mu       sync.Mutex
	meals    []domain.Meal
	err      error
	lastFrom time.Time
	lastTo   time.Time
}

func NewMockMealRepository(meals ...domain.Meal) *MockMealRepository {
	return &MockMealRepository{meals: meals}
}

func (m *MockMealRepository) MealsInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFrom, m.lastTo = from, to
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Meal
	for _, meal := range m.meals {
		if meal.UserID == userID && !meal.LoggedAt.Before(from) && meal.LoggedAt.Before(to) {
			out = append(out, meal)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].LoggedAt.Before(out[j].LoggedAt) })
	return out, nil
}

func (m *MockMealRepository) GetMeal(ctx context.Context, userID, mealID string) (*domain.Meal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, meal := range m.meals {
		if meal.ID == mealID && meal.UserID == userID {
			meal := meal
			return &meal, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockMealRepository) CreateMeal(ctx context.Context, meal *domain.Meal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.meals = append(m.meals, *meal)
	return nil
}

func (m *MockMealRepository) DeleteMeal(ctx context.Context, userID, mealID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, meal := range m.meals {
		if meal.ID == mealID && meal.UserID == userID {
			m.meals = append(m.meals[:i], m.meals[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}
