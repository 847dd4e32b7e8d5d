package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"skilllink/config"
	"skilllink/middleware"
	"skilllink/routes"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "SKILLLINK: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Serve stored uploads
	app.Static("/uploads", config.AppConfig.UploadDir)

	// Setup routes
	routes.SetupRoutes(app)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
