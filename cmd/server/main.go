package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/ydkdan6/ocrtext/internal/config"
	"github.com/ydkdan6/ocrtext/internal/database"
	"github.com/ydkdan6/ocrtext/internal/handlers"
	"github.com/ydkdan6/ocrtext/internal/middleware"
	"github.com/ydkdan6/ocrtext/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.HistoryOnReadError == "propagate" {
		db.SetReadErrorPolicy(database.ReadErrorPropagate)
	}

	// Initialize storage for uploaded images
	storageService, err := services.NewStorageService(
		cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL, cfg.S3PublicURL,
	)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}
	if err := storageService.EnsureBucket(context.Background()); err != nil {
		log.Printf("Warning: Failed to ensure S3 bucket exists: %v", err)
	}

	// Pick the recognition provider
	var recognizer services.Recognizer
	switch cfg.OCRProvider {
	case "local":
		local, err := services.NewLocalRecognitionService(cfg.OCRLanguage)
		if err != nil {
			log.Fatalf("Failed to initialize local OCR engine: %v", err)
		}
		recognizer = local
		log.Println("Using local tesseract OCR engine")
	default:
		recognizer = services.NewRecognitionService(cfg.OCRAPIURL, cfg.OCRAPIKey, cfg.OCRLanguage)
	}

	extractionService := services.NewExtractionService(recognizer, storageService, db)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    12 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Create handlers with dependencies
	h := handlers.New(db, cfg)
	ocrHandler := handlers.NewOCRHandler(db, extractionService)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	api := app.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", h.Logout)
	auth.Get("/me", middleware.AuthRequired(cfg), h.GetCurrentUser)

	// OCR routes (authenticated)
	ocr := api.Group("/ocr", middleware.AuthRequired(cfg))
	ocr.Post("/url", ocrHandler.ExtractFromURL)
	ocr.Post("/upload", ocrHandler.UploadImage)
	ocr.Get("/results", ocrHandler.ListResults)
	ocr.Get("/results/:id", ocrHandler.GetResult)
	ocr.Get("/results/:id/download", ocrHandler.DownloadText)

	// Static files - serve the web/ directory
	app.Static("/", "./web", fiber.Static{
		Index:  "index.html",
		Browse: false,
	})

	// Fallback for SPA-style routing - serve index.html for unmatched routes
	app.Get("/*", func(c *fiber.Ctx) error {
		return c.SendFile("./web/index.html")
	})

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
