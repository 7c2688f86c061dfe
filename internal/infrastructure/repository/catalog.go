package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/macrolens/mealtracker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const searchLimit = 25

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CatalogRepository implements domain.CatalogRepository with gorm
type CatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a catalog repository
func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// FoodItems loads the food items that exist among ids
func (r *CatalogRepository) FoodItems(ctx context.Context, ids []string) (domain.FoodItems, error) {
	items := domain.FoodItems{}
	if len(ids) == 0 {
		return items, nil
	}

	var rows []foodItemModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query food items: %w", err)
	}
	for _, row := range rows {
		items[row.ID] = row.toDomain()
	}
	return items, nil
}

// DishesWithIngredients loads the dishes that exist among ids with ordered ingredients
func (r *CatalogRepository) DishesWithIngredients(ctx context.Context, ids []string) (domain.Dishes, error) {
	dishes := domain.Dishes{}
	if len(ids) == 0 {
		return dishes, nil
	}

	var rows []dishModel
	err := r.db.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query dishes: %w", err)
	}
	for _, row := range rows {
		dishes[row.ID] = row.toDomain()
	}
	return dishes, nil
}

// Search returns food items and dishes visible to userID whose name contains
// query, case-insensitively. Shared entries have an empty user id.
func (r *CatalogRepository) Search(ctx context.Context, userID, query string) ([]domain.CatalogMatch, error) {
	like := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	scope := func(db *gorm.DB) *gorm.DB {
		return db.Where("(user_id = ? OR user_id = '')", userID).
			Where(`LOWER(name) LIKE ? ESCAPE '\'`, like).
			Order("name").
			Limit(searchLimit)
	}

	var foods []foodItemModel
	if err := r.db.WithContext(ctx).Scopes(scope).Find(&foods).Error; err != nil {
		return nil, fmt.Errorf("search food items: %w", err)
	}
	var dishes []dishModel
	if err := r.db.WithContext(ctx).Scopes(scope).Find(&dishes).Error; err != nil {
		return nil, fmt.Errorf("search dishes: %w", err)
	}

	matches := make([]domain.CatalogMatch, 0, len(foods)+len(dishes))
	for _, f := range foods {
		matches = append(matches, domain.CatalogMatch{ID: f.ID, Name: f.Name, Kind: domain.CatalogKindFood})
	}
	for _, d := range dishes {
		matches = append(matches, domain.CatalogMatch{ID: d.ID, Name: d.Name, Kind: domain.CatalogKindDish})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return strings.ToLower(matches[i].Name) < strings.ToLower(matches[j].Name)
	})
	return matches, nil
}

// CreateFoodItem stores a new food item
func (r *CatalogRepository) CreateFoodItem(ctx context.Context, item *domain.FoodItem) error {
	row := newFoodItemModel(item)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert food item: %w", err)
	}
	return nil
}

// CreateDish stores a dish and its ingredients in one transaction
func (r *CatalogRepository) CreateDish(ctx context.Context, dish *domain.Dish) error {
	row := newDishModel(dish)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("insert dish: %w", err)
		}
		if len(row.Ingredients) == 0 {
			return nil
		}
		if err := tx.Create(&row.Ingredients).Error; err != nil {
			return fmt.Errorf("insert dish ingredients: %w", err)
		}
		return nil
	})
}
