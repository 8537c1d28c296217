package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"

	"shopshield-service/auth"
	"shopshield-service/config"
	"shopshield-service/database"
	"shopshield-service/detector"
	"shopshield-service/handlers"
	"shopshield-service/middleware"
	"shopshield-service/services"
)

func main() {
	// Load environment from .env if present
	if err := godotenv.Load(); err != nil {
		log.Warn(".env file not found, using system environment variables")
	}

	cfg := config.Load()

	log.Infof("Starting shopshield compliance service...")
	log.Infof("Configuration: SweepInterval=%v, MaxWorkers=%d, OcrServiceURL=%s, CvServiceURL=%s",
		cfg.SweepInterval, cfg.MaxWorkers, cfg.OcrServiceURL, cfg.CvServiceURL)

	db, err := setupDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Info("Initializing database schema and running migrations...")
	if err := database.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Wire services
	store := database.NewService(db)
	detectorClient := detector.NewClient(cfg.OcrServiceURL, cfg.CvServiceURL, cfg.ScanTimeout)
	scanner := services.NewScanService(store, detectorClient)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenExpiry)
	sweeper := services.NewComplianceSweeper(store, cfg.SweepInterval, cfg.MaxWorkers)

	router := setupRouter(handlers.NewHandlers(store, scanner, tokens), tokens)
	if len(cfg.TrustedProxies) > 0 {
		if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
			log.Fatalf("Failed to set trusted proxies: %v", err)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start the periodic compliance sweep
	sweeper.Start()

	go func() {
		log.Infof("Compliance service listening on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	sweeper.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}

func setupDatabase(cfg *config.Config) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func setupRouter(h *handlers.Handlers, tokens *auth.TokenManager) *gin.Engine {
	router := gin.Default()

	router.Use(middleware.CORSMiddleware())

	router.GET("/health", h.HealthCheck)

	// Public routes
	public := router.Group("/api/v1")
	{
		public.POST("/auth/signup", h.SignUp)
		public.POST("/auth/signin", h.SignIn)
		public.GET("/health", h.HealthCheck)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		// Scans
		protected.POST("/compliance/products/scan", h.ScanProduct)
		protected.POST("/scans/ocr", h.OcrScan)
		protected.POST("/scans/fake-product", h.FakeProductScan)

		// Violations
		protected.GET("/compliance/violations", h.GetViolations)
		protected.GET("/compliance/violations/:violationId", h.GetViolationByID)
		protected.POST("/compliance/violations/:violationId/resolve", h.ResolveViolation)
		protected.GET("/reports/violations", h.ListViolations)
		protected.GET("/reports/scans/history", h.GetScanHistory)

		// Products
		protected.POST("/products", h.CreateProduct)
		protected.GET("/products", h.GetProducts)
		protected.GET("/products/:productId", h.GetProductByID)
		protected.GET("/products/:productId/violations", h.GetViolationsByProduct)
	}

	return router
}
