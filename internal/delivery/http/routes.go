package http

import (
	"log"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/macrolens/mealtracker/config"
	"github.com/macrolens/mealtracker/internal/domain"
)

var registerOnce sync.Once

// registerValidators adds the custom binding tags used by request types
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			log.Printf("[http] unexpected validator engine %T, custom tags not registered", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("mealtype", validateMealType); err != nil {
			log.Printf("[http] register mealtype validator: %v", err)
		}
	})
}

func validateMealType(fl validator.FieldLevel) bool {
	_, err := domain.ParseMealType(fl.Field().String())
	return err == nil
}

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	registerValidators()

	router := gin.New()

	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(NewIPRateLimiter(cfg.RateLimit.PerIP).Middleware())
	v1.Use(UserIDMiddleware())
	{
		v1.GET("/catalog/search", handler.SearchCatalog)

		foods := v1.Group("/foods")
		{
			foods.POST("", handler.CreateFoodItem)
			foods.POST("/import", handler.ImportFood)
		}

		dishes := v1.Group("/dishes")
		{
			dishes.POST("", handler.CreateDish)
			dishes.GET("/:id/nutrition", handler.DishNutrition)
		}

		meals := v1.Group("/meals")
		{
			meals.POST("", handler.LogMeal)
			meals.GET("/:id", handler.GetMeal)
			meals.DELETE("/:id", handler.DeleteMeal)
		}

		summary := v1.Group("/summary")
		{
			summary.GET("/day", handler.DaySummary)
			summary.GET("/series", handler.Series)
		}
	}

	return router
}
