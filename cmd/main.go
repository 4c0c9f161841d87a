package main

import (
	"log"

	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/labstack/echo/v4"

	"homestock/internal/caching"
	"homestock/internal/config"
	"homestock/internal/handlers"
	"homestock/internal/jobs"
	"homestock/internal/middleware"
	"homestock/internal/services"
	"homestock/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	pool, err := database.NewPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	cacheSvc := caching.NewRedisCacheService(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	photoSvc, err := services.NewMinioPhotoService(cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("Failed to initialize photo storage: %v", err)
	}

	// Services
	categorySvc := services.NewCategoryService(pool, cacheSvc)
	cabinetSvc := services.NewCabinetService(pool, cacheSvc)
	itemSvc := services.NewItemService(pool, cacheSvc)
	recordSvc := services.NewRecordService(pool)

	// Handlers
	categoryHandlers := handlers.NewCategoryHandlers(categorySvc)
	cabinetHandlers := handlers.NewCabinetHandlers(cabinetSvc)
	itemHandlers := handlers.NewItemHandlers(itemSvc, photoSvc)
	recordHandlers := handlers.NewRecordHandlers(recordSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, photoSvc)

	// Background low-stock sweep
	alertSvc, err := jobs.NewStockAlertService(pool)
	if err != nil {
		log.Fatalf("Failed to create stock alert scheduler: %v", err)
	}
	if err := alertSvc.Register(cfg.LowStockSweepInterval); err != nil {
		log.Fatalf("Failed to register low-stock sweep: %v", err)
	}
	alertSvc.Start()
	defer alertSvc.Stop()

	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/health/live", healthHandlers.LivenessCheck)

	jwtMiddleware, err := middleware.JWTMiddleware(middleware.JWTConfig{
		Secret:  cfg.JWTSecret,
		JWKSURL: cfg.JWKSURL,
	})
	if err != nil {
		log.Fatalf("Failed to configure JWT middleware: %v", err)
	}

	v1 := e.Group("/v1")
	v1.Use(jwtMiddleware)
	v1.Use(middleware.RequireHousehold)

	// Category routes
	v1.GET("/categories", categoryHandlers.GetCategoryTree)
	v1.POST("/categories", categoryHandlers.CreateCategory)
	v1.GET("/categories/:id", categoryHandlers.GetCategory)
	v1.PUT("/categories/:id", categoryHandlers.UpdateCategory)
	v1.DELETE("/categories/:id", categoryHandlers.DeleteCategory)

	// Cabinet routes
	v1.GET("/cabinets", cabinetHandlers.ListCabinets)
	v1.POST("/cabinets", cabinetHandlers.CreateCabinet)
	v1.GET("/cabinets/:id", cabinetHandlers.GetCabinet)
	v1.PUT("/cabinets/:id", cabinetHandlers.UpdateCabinet)
	v1.DELETE("/cabinets/:id", cabinetHandlers.DeleteCabinet)

	// Item routes
	v1.GET("/items", itemHandlers.SearchItems)
	v1.POST("/items", itemHandlers.CreateItem)
	v1.GET("/items/:id", itemHandlers.GetItem)
	v1.PUT("/items/:id", itemHandlers.UpdateItem)
	v1.DELETE("/items/:id", itemHandlers.DeleteItem)
	v1.POST("/items/:id/stock", itemHandlers.AdjustStock)
	v1.POST("/items/:id/move", itemHandlers.MoveStock)
	v1.POST("/photos", itemHandlers.UploadPhoto)

	// Audit trail routes
	v1.GET("/records", recordHandlers.ListRecords)
	v1.DELETE("/records", recordHandlers.PruneRecords)

	log.Fatal(e.Start(":" + cfg.Port))
}
