package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/macrolens/mealtracker/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MealRepository implements domain.MealRepository with gorm. Timestamps are
// stored in UTC.
type MealRepository struct {
	db *gorm.DB
}

// NewMealRepository creates a meal repository
func NewMealRepository(db *gorm.DB) *MealRepository {
	return &MealRepository{db: db}
}

func orderedEntries(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// MealsInRange returns the user's meals with LoggedAt in [from, to), oldest first
func (r *MealRepository) MealsInRange(ctx context.Context, userID string, from, to time.Time) ([]domain.Meal, error) {
	var rows []mealModel
	err := r.db.WithContext(ctx).
		Preload("Entries", orderedEntries).
		Where("user_id = ? AND logged_at >= ? AND logged_at < ?", userID, from.UTC(), to.UTC()).
		Order("logged_at").
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}

	meals := make([]domain.Meal, 0, len(rows))
	for _, row := range rows {
		meals = append(meals, row.toDomain())
	}
	return meals, nil
}

// GetMeal loads one meal of the user
func (r *MealRepository) GetMeal(ctx context.Context, userID, mealID string) (*domain.Meal, error) {
	var row mealModel
	err := r.db.WithContext(ctx).
		Preload("Entries", orderedEntries).
		Where("id = ? AND user_id = ?", mealID, userID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("meal %s: %w", mealID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query meal: %w", err)
	}

	meal := row.toDomain()
	return &meal, nil
}

// CreateMeal stores the meal and all of its entries in one transaction
func (r *MealRepository) CreateMeal(ctx context.Context, meal *domain.Meal) error {
	row := newMealModel(meal)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
			return fmt.Errorf("insert meal: %w", err)
		}
		if len(row.Entries) == 0 {
			return nil
		}
		if err := tx.Create(&row.Entries).Error; err != nil {
			return fmt.Errorf("insert log entries: %w", err)
		}
		return nil
	})
}

// DeleteMeal removes a meal of the user together with its entries
func (r *MealRepository) DeleteMeal(ctx context.Context, userID, mealID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", mealID, userID).Delete(&mealModel{})
		if res.Error != nil {
			return fmt.Errorf("delete meal: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("meal %s: %w", mealID, domain.ErrNotFound)
		}
		if err := tx.Where("meal_id = ?", mealID).Delete(&logEntryModel{}).Error; err != nil {
			return fmt.Errorf("delete log entries: %w", err)
		}
		return nil
	})
}
