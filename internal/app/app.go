// Package app wires configuration into the repositories and services shared
// by the server and the CLI.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/macrolens/mealtracker/config"
	"github.com/macrolens/mealtracker/internal/domain"
	"github.com/macrolens/mealtracker/internal/infrastructure/cache"
	"github.com/macrolens/mealtracker/internal/infrastructure/database"
	"github.com/macrolens/mealtracker/internal/infrastructure/fooddata"
	"github.com/macrolens/mealtracker/internal/infrastructure/repository"
	"github.com/macrolens/mealtracker/internal/usecase"
	"gorm.io/gorm"
)

// App holds the long-lived dependencies of a process
type App struct {
	DB       *gorm.DB
	Catalog  *repository.CatalogRepository
	Meals    *repository.MealRepository
	Cache    domain.CacheRepository
	Tracker  *usecase.TrackerService
	Importer *usecase.FoodImportService // nil without a FoodData Central API key

	closers []io.Closer
}

// New opens the database, migrates the schema and builds the services
func New(cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.Debug)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(db); err != nil {
		database.Close(db)
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	a := &App{
		DB:      db,
		Catalog: repository.NewCatalogRepository(db),
		Meals:   repository.NewMealRepository(db),
	}

	if err := a.initTracker(cfg); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.initCache(cfg); err != nil {
		a.Close()
		return nil, err
	}
	a.initImporter(cfg)

	return a, nil
}

func (a *App) initTracker(cfg *config.Config) error {
	policy, err := usecase.ParseDishWeightPolicy(cfg.Aggregation.DishWeightPolicy)
	if err != nil {
		return err
	}
	loc, err := cfg.Aggregation.Location()
	if err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	a.Tracker = usecase.NewTrackerService(a.Catalog, a.Meals, usecase.TrackerServiceConfig{
		DishWeightPolicy: policy,
		Location:         loc,
		MaxSeriesDays:    cfg.Aggregation.MaxSeriesDays,
	})
	log.Printf("[app] aggregation: dish weight policy=%s, timezone=%s", policy, loc)
	return nil
}

func (a *App) initCache(cfg *config.Config) error {
	switch cfg.Cache.Type {
	case "redis":
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			return err
		}
		a.Cache = redisCache
		a.closers = append(a.closers, redisCache)
	default:
		memoryCache := cache.NewMemoryCache()
		a.Cache = memoryCache
		a.closers = append(a.closers, memoryCache)
	}
	log.Printf("[app] cache: %s (ttl %s)", cfg.Cache.Type, cfg.Cache.TTL)
	return nil
}

func (a *App) initImporter(cfg *config.Config) {
	if cfg.FoodData.APIKey == "" {
		log.Printf("[app] WARNING: FoodData Central API key not configured, food import disabled")
		return
	}

	client := fooddata.NewClientWithLimit(
		cfg.FoodData.APIKey,
		cfg.FoodData.BaseURL,
		float64(cfg.RateLimit.FoodData)/3600.0,
		10,
	)
	client.SetDebug(cfg.FoodData.Debug)

	a.Importer = usecase.NewFoodImportService(a.Cache, client, a.Catalog, usecase.FoodImportConfig{
		CacheTTL:               cfg.Cache.TTL,
		MinConfidenceThreshold: cfg.Matching.MinConfidence,
		EnableFuzzyMatching:    cfg.Matching.Fuzzy,
		Debug:                  cfg.FoodData.Debug,
	})
	log.Printf("[app] FoodData Central: %s, %d requests/hour, min confidence %.0f%%",
		cfg.FoodData.BaseURL, cfg.RateLimit.FoodData, cfg.Matching.MinConfidence)
}

// Close releases the cache and the database
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if a.DB != nil {
		errs = append(errs, database.Close(a.DB))
	}
	return errors.Join(errs...)
}
