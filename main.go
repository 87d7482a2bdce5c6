package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"chalfim/internal/handlers"
	"chalfim/internal/models"
	"chalfim/internal/registry"
	"chalfim/internal/repositories"
	"chalfim/internal/services"
	"chalfim/internal/storage"
	"chalfim/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	// Set up Viper to read configuration from environment variables
	viper.SetDefault("APP_PORT", ":3000")
	viper.SetDefault("DB_FILE", "database.json")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("ADMIN_USERNAME", "marten")
	viper.SetDefault("ADMIN_PASSWORD", "0524273202")
	viper.SetDefault("REGISTRY_URL", "https://data.gov.il/api/3/action/datastore_search")
	viper.SetDefault("REGISTRY_RESOURCE_ID", "053cea08-09bc-40ec-8f7a-156f0677aff3")
	viper.SetDefault("REGISTRY_TIMEOUT", "10s")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")
	adminUsername := viper.GetString("ADMIN_USERNAME")

	// --- Initialize Event Publisher (optional) ---
	// The broker is auxiliary: without a configured URL, or when the
	// connection fails, workflow events are simply skipped.
	var events services.EventPublisher
	var closeEvents func() error
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Printf("Warning: RabbitMQ unavailable, events disabled: %v", err)
		} else {
			events = mqClient
			closeEvents = mqClient.Close
		}
	}
	if closeEvents != nil {
		defer closeEvents()
	}

	// --- Initialize Store ---
	adminHash, err := bcrypt.GenerateFromPassword([]byte(viper.GetString("ADMIN_PASSWORD")), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}
	store := storage.NewFileStore(afero.NewOsFs(), viper.GetString("DB_FILE"), models.User{
		Username: adminUsername,
		Password: string(adminHash),
		Role:     "admin",
	})

	// --- Initialize Repositories ---
	userRepo := repositories.NewFileUserRepository(store)
	partRepo := repositories.NewFilePartRepository(store)
	resetRepo := repositories.NewFileResetRepository(store)

	// --- Initialize Registry Client ---
	registryClient := registry.NewClient(
		viper.GetString("REGISTRY_URL"),
		viper.GetString("REGISTRY_RESOURCE_ID"),
		viper.GetDuration("REGISTRY_TIMEOUT"),
	)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, resetRepo, events, adminUsername, viper.GetString("JWT_SECRET"))
	partsService := services.NewPartsService(partRepo, events)
	searchService := services.NewSearchService(registryClient, partRepo)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	partsHandler := handlers.NewPartsHandler(partsService)
	searchHandler := handlers.NewSearchHandler(searchService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	// --- API Routes ---
	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	partsHandler.RegisterRoutes(api)
	searchHandler.RegisterRoutes(api)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
