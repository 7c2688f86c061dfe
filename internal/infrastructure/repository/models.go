package repository

import (
	"log"
	"time"

	"github.com/macrolens/mealtracker/internal/domain"
	"gorm.io/gorm"
)

type foodItemModel struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:64;index"`
	Name      string `gorm:"size:255;not null;index"`
	Calories  float64
	Protein   float64
	Fat       float64
	Carbs     float64
	Fiber     float64
	Sugar     float64
	Alcohol   float64
	Caffeine  float64
	CreatedAt time.Time
}

func (foodItemModel) TableName() string { return "food_items" }

type dishModel struct {
	ID          string            `gorm:"primaryKey;size:36"`
	UserID      string            `gorm:"size:64;index"`
	Name        string            `gorm:"size:255;not null;index"`
	Ingredients []ingredientModel `gorm:"foreignKey:DishID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
}

func (dishModel) TableName() string { return "dishes" }

// ingredientModel has no foreign key to food_items: a deleted food item leaves
// a dangling ingredient that resolves to zero.
type ingredientModel struct {
	ID          uint   `gorm:"primaryKey"`
	DishID      string `gorm:"size:36;not null;index"`
	FoodItemID  string `gorm:"size:36;not null"`
	WeightGrams float64
	Position    int
}

func (ingredientModel) TableName() string { return "dish_ingredients" }

type mealModel struct {
	ID        string          `gorm:"primaryKey;size:36"`
	UserID    string          `gorm:"size:64;not null;index:idx_meals_user_logged_at,priority:1"`
	Type      string          `gorm:"size:16;not null"`
	LoggedAt  time.Time       `gorm:"not null;index:idx_meals_user_logged_at,priority:2"`
	Entries   []logEntryModel `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (mealModel) TableName() string { return "meals" }

// logEntryModel keeps both references nullable; rows with neither or both set
// are loaded with a nil source.
type logEntryModel struct {
	ID          string   `gorm:"primaryKey;size:36"`
	MealID      string   `gorm:"size:36;not null;index"`
	FoodItemID  *string  `gorm:"size:36"`
	DishID      *string  `gorm:"size:36"`
	WeightGrams *float64
	Position    int
}

func (logEntryModel) TableName() string { return "log_entries" }

// Migrate creates or updates the schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&foodItemModel{},
		&dishModel{},
		&ingredientModel{},
		&mealModel{},
		&logEntryModel{},
	)
}

func newFoodItemModel(item *domain.FoodItem) foodItemModel {
	p := item.Per100g
	return foodItemModel{
		ID:       item.ID,
		UserID:   item.UserID,
		Name:     item.Name,
		Calories: p.Calories,
		Protein:  p.Protein,
		Fat:      p.Fat,
		Carbs:    p.Carbs,
		Fiber:    p.Fiber,
		Sugar:    p.Sugar,
		Alcohol:  p.Alcohol,
		Caffeine: p.Caffeine,
	}
}

func (m foodItemModel) toDomain() domain.FoodItem {
	return domain.FoodItem{
		ID:     m.ID,
		UserID: m.UserID,
		Name:   m.Name,
		Per100g: domain.NutrientProfile{
			Calories: m.Calories,
			Protein:  m.Protein,
			Fat:      m.Fat,
			Carbs:    m.Carbs,
			Fiber:    m.Fiber,
			Sugar:    m.Sugar,
			Alcohol:  m.Alcohol,
			Caffeine: m.Caffeine,
		},
	}
}

func newDishModel(dish *domain.Dish) dishModel {
	m := dishModel{
		ID:          dish.ID,
		UserID:      dish.UserID,
		Name:        dish.Name,
		Ingredients: make([]ingredientModel, 0, len(dish.Ingredients)),
	}
	for i, ing := range dish.Ingredients {
		m.Ingredients = append(m.Ingredients, ingredientModel{
			DishID:      dish.ID,
			FoodItemID:  ing.FoodItemID,
			WeightGrams: ing.WeightGrams,
			Position:    i,
		})
	}
	return m
}

func (m dishModel) toDomain() domain.Dish {
	dish := domain.Dish{
		ID:          m.ID,
		UserID:      m.UserID,
		Name:        m.Name,
		Ingredients: make([]domain.Ingredient, 0, len(m.Ingredients)),
	}
	for _, ing := range m.Ingredients {
		dish.Ingredients = append(dish.Ingredients, domain.Ingredient{
			FoodItemID:  ing.FoodItemID,
			WeightGrams: ing.WeightGrams,
		})
	}
	return dish
}

func newMealModel(meal *domain.Meal) mealModel {
	m := mealModel{
		ID:       meal.ID,
		UserID:   meal.UserID,
		Type:     string(meal.Type),
		LoggedAt: meal.LoggedAt.UTC(),
		Entries:  make([]logEntryModel, 0, len(meal.Entries)),
	}
	for i, entry := range meal.Entries {
		row := logEntryModel{ID: entry.ID, MealID: meal.ID, Position: i}
		switch src := entry.Source.(type) {
		case domain.FoodItemRef:
			id, w := src.FoodItemID, src.WeightGrams
			row.FoodItemID, row.WeightGrams = &id, &w
		case domain.DishRef:
			id := src.DishID
			row.DishID, row.WeightGrams = &id, src.WeightGrams
		}
		m.Entries = append(m.Entries, row)
	}
	return m
}

func (m mealModel) toDomain() domain.Meal {
	meal := domain.Meal{
		ID:       m.ID,
		UserID:   m.UserID,
		Type:     domain.MealType(m.Type),
		LoggedAt: m.LoggedAt,
		Entries:  make([]domain.LogEntry, 0, len(m.Entries)),
	}
	for _, row := range m.Entries {
		src, err := domain.NewEntrySource(deref(row.FoodItemID), deref(row.DishID), row.WeightGrams)
		if err != nil {
			log.Printf("[repository] meal %s entry %s: %v", m.ID, row.ID, err)
		}
		meal.Entries = append(meal.Entries, domain.LogEntry{ID: row.ID, MealID: m.ID, Source: src})
	}
	return meal
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
