package domain

// FoodItem is a catalog entry whose nutrients are defined per 100 grams.
type FoodItem struct {
	ID      string          `json:"id"`
	UserID  string          `json:"userId"`
	Name    string          `json:"name"`
	Per100g NutrientProfile `json:"per100g"`
}

// Ingredient is one weighted food item inside a dish.
type Ingredient struct {
	FoodItemID  string  `json:"foodItemId"`
	WeightGrams float64 `json:"weightGrams"`
}

// Dish is a named composition of food items. Its nutrient total is always
// derived from the current ingredients and is never persisted.
type Dish struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Name        string       `json:"name"`
	Ingredients []Ingredient `json:"ingredients"`
}

// VisibleTo reports whether userID may reference the item. Shared items have
// no owner.
func (f FoodItem) VisibleTo(userID string) bool {
	return f.UserID == "" || f.UserID == userID
}

// VisibleTo reports whether userID may reference the dish.
func (d Dish) VisibleTo(userID string) bool {
	return d.UserID == "" || d.UserID == userID
}

// TotalWeightGrams sums the valid ingredient weights.
func (d Dish) TotalWeightGrams() float64 {
	var total float64
	for _, ing := range d.Ingredients {
		if ValidWeight(ing.WeightGrams) {
			total += ing.WeightGrams
		}
	}
	return total
}

// FoodItemIDs returns the distinct food item ids referenced by the dish.
func (d Dish) FoodItemIDs() []string {
	seen := make(map[string]struct{}, len(d.Ingredients))
	ids := make([]string, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		if _, ok := seen[ing.FoodItemID]; ok {
			continue
		}
		seen[ing.FoodItemID] = struct{}{}
		ids = append(ids, ing.FoodItemID)
	}
	return ids
}

// FoodItemLookup resolves food items by id from a read-only snapshot.
type FoodItemLookup interface {
	FoodItem(id string) (FoodItem, bool)
}

// DishLookup resolves dishes by id from a read-only snapshot.
type DishLookup interface {
	Dish(id string) (Dish, bool)
}

// FoodItems is a map-backed FoodItemLookup.
type FoodItems map[string]FoodItem

// FoodItem implements FoodItemLookup.
func (m FoodItems) FoodItem(id string) (FoodItem, bool) {
	item, ok := m[id]
	return item, ok
}

// VisibleTo returns the items userID may reference.
func (m FoodItems) VisibleTo(userID string) FoodItems {
	out := make(FoodItems, len(m))
	for id, item := range m {
		if item.VisibleTo(userID) {
			out[id] = item
		}
	}
	return out
}

// NewFoodItems indexes items by id.
func NewFoodItems(items ...FoodItem) FoodItems {
	m := make(FoodItems, len(items))
	for _, item := range items {
		m[item.ID] = item
	}
	return m
}

// Dishes is a map-backed DishLookup.
type Dishes map[string]Dish

// Dish implements DishLookup.
func (m Dishes) Dish(id string) (Dish, bool) {
	dish, ok := m[id]
	return dish, ok
}

// VisibleTo returns the dishes userID may reference.
func (m Dishes) VisibleTo(userID string) Dishes {
	out := make(Dishes, len(m))
	for id, dish := range m {
		if dish.VisibleTo(userID) {
			out[id] = dish
		}
	}
	return out
}

// NewDishes indexes dishes by id.
func NewDishes(dishes ...Dish) Dishes {
	m := make(Dishes, len(dishes))
	for _, dish := range dishes {
		m[dish.ID] = dish
	}
	return m
}

// CatalogMatch is one search hit from the catalog, either a food item or a dish.
type CatalogMatch struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind string `json:"kind"` // "food" or "dish"
}

const (
	CatalogKindFood = "food"
	CatalogKindDish = "dish"
)
