package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/macrolens/mealtracker/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	tracker  *usecase.TrackerService
	importer *usecase.FoodImportService
	ping     func(ctx context.Context) error
}

// NewHandler creates a new HTTP handler. importer may be nil, in which case
// food import answers 503.
func NewHandler(tracker *usecase.TrackerService, importer *usecase.FoodImportService) *Handler {
	return &Handler{
		tracker:  tracker,
		importer: importer,
	}
}

// SetHealthCheck adds a dependency check to /health
func (h *Handler) SetHealthCheck(ping func(ctx context.Context) error) {
	h.ping = ping
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			log.Printf("[http] health check failed: %v", err)
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":  status,
		"service": "mealtracker",
		"version": "1.0.0",
	})
}

// SearchCatalog handles GET /catalog/search?q=
func (h *Handler) SearchCatalog(c *gin.Context) {
	matches, err := h.tracker.SearchCatalog(c.Request.Context(), currentUserID(c), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": matches})
}

// CreateFoodItem handles POST /foods
func (h *Handler) CreateFoodItem(c *gin.Context) {
	var req usecase.CreateFoodItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	item, err := h.tracker.CreateFoodItem(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// ImportFood handles POST /foods/import
func (h *Handler) ImportFood(c *gin.Context) {
	if h.importer == nil {
		respondError(c, domain.ErrImportDisabled)
		return
	}

	var req domain.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.importer.Import(c.Request.Context(), currentUserID(c), &req)
	if errors.Is(err, domain.ErrLowConfidence) && result != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Low confidence match - verify the product manually",
			"query": result.Query,
			"match": result.Match,
		})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// CreateDish handles POST /dishes
func (h *Handler) CreateDish(c *gin.Context) {
	var req usecase.CreateDishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	dish, err := h.tracker.CreateDish(c.Request.Context(), currentUserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dish)
}

// DishNutrition handles GET /dishes/:id/nutrition
func (h *Handler) DishNutrition(c *gin.Context) {
	summary, err := h.tracker.DishNutrition(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// LogMeal handles POST /meals and answers with the resolved meal
func (h *Handler) LogMeal(c *gin.Context) {
	var req usecase.LogMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ctx, userID := c.Request.Context(), currentUserID(c)
	meal, err := h.tracker.LogMeal(ctx, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	summary, err := h.tracker.MealSummary(ctx, userID, meal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, summary)
}

// GetMeal handles GET /meals/:id
func (h *Handler) GetMeal(c *gin.Context) {
	summary, err := h.tracker.MealSummary(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DeleteMeal handles DELETE /meals/:id
func (h *Handler) DeleteMeal(c *gin.Context) {
	if err := h.tracker.DeleteMeal(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DaySummary handles GET /summary/day?date=YYYY-MM-DD&tz=
func (h *Handler) DaySummary(c *gin.Context) {
	loc, err := h.location(c)
	if err != nil {
		respondError(c, err)
		return
	}

	day := h.tracker.Today(loc)
	if raw := c.Query("date"); raw != "" {
		if day, err = domain.ParseCalendarDate(raw); err != nil {
			respondError(c, err)
			return
		}
	}

	summary, err := h.tracker.DailySummary(c.Request.Context(), currentUserID(c), day, loc)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SeriesResponse is the body of GET /summary/series
type SeriesResponse struct {
	From   domain.CalendarDate    `json:"from"`
	To     domain.CalendarDate    `json:"to"`
	Days   usecase.Series         `json:"days"`
	Totals domain.NutrientProfile `json:"totals"`
}

// Series handles GET /summary/series?from=&to=&tz=&fill=
func (h *Handler) Series(c *gin.Context) {
	loc, err := h.location(c)
	if err != nil {
		respondError(c, err)
		return
	}

	from, err := domain.ParseCalendarDate(c.Query("from"))
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := domain.ParseCalendarDate(c.Query("to"))
	if err != nil {
		respondError(c, err)
		return
	}

	fill := false
	if raw := c.Query("fill"); raw != "" {
		if fill, err = strconv.ParseBool(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fill must be a boolean"})
			return
		}
	}

	series, err := h.tracker.Series(c.Request.Context(), currentUserID(c), from, to, loc, fill)
	if err != nil {
		respondError(c, err)
		return
	}
	if series == nil {
		series = usecase.Series{}
	}
	c.JSON(http.StatusOK, SeriesResponse{From: from, To: to, Days: series, Totals: series.Total()})
}

// location reads the tz query parameter, falling back to the service default
func (h *Handler) location(c *gin.Context) (*time.Location, error) {
	tz := c.Query("tz")
	if tz == "" {
		return h.tracker.Location(), nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errors.Join(domain.ErrInvalidRequest, err)
	}
	return loc, nil
}

// respondError maps domain errors to status codes
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidEntryKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No matching product found"})
	case errors.Is(err, domain.ErrLowConfidence):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Low confidence match - verify the product manually"})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "FoodData Central rate limit reached, try again later"})
	case errors.Is(err, domain.ErrFoodDataFailure):
		c.JSON(http.StatusBadGateway, gin.H{"error": "FoodData Central temporarily unavailable"})
	case errors.Is(err, domain.ErrImportDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Food import is not configured"})
	case errors.Is(err, domain.ErrCacheUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service temporarily unavailable"})
	default:
		log.Printf("[http] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// respondBindError reports request bodies that fail to decode or validate
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
