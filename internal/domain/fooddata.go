package domain

// SearchRequest asks the importer to find a product in FoodData Central
type SearchRequest struct {
	ProductName string `json:"productName" binding:"required"`
	Brand       string `json:"brand,omitempty"`
}

// FDCFood represents a food item from the USDA FoodData Central API
type FDCFood struct {
	FdcID       int           `json:"fdcId"`
	Description string        `json:"description"`
	DataType    string        `json:"dataType"`
	BrandOwner  string        `json:"brandOwner,omitempty"`
	Nutrients   []FDCNutrient `json:"foodNutrients"`
}

// FDCNutrient represents a single nutrient value, reported per 100 g
type FDCNutrient struct {
	NutrientID     int     `json:"nutrientId"`
	NutrientName   string  `json:"nutrientName"`
	NutrientNumber string  `json:"nutrientNumber,omitempty"`
	UnitName       string  `json:"unitName"`
	Value          float64 `json:"value"`
}

// FDCSearchResponse represents the response from the FoodData Central search API
type FDCSearchResponse struct {
	Foods       []FDCFood `json:"foods"`
	TotalHits   int       `json:"totalHits"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
}

// MatchResult represents the result of a product matching operation
type MatchResult struct {
	FdcID         int      `json:"fdcId"`
	Description   string   `json:"description"`
	MatchScore    float64  `json:"matchScore"`
	MatchedTokens []string `json:"matchedTokens,omitempty"`
}
