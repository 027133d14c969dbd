package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"portfolio-backend/internal/chatbot"
	"portfolio-backend/internal/config"
	"portfolio-backend/internal/database/mongo"
	"portfolio-backend/internal/database/redis"
	"portfolio-backend/internal/events"
	"portfolio-backend/internal/handlers"
	"portfolio-backend/internal/middleware"
	"portfolio-backend/internal/resource"
	"portfolio-backend/internal/service"
	"portfolio-backend/internal/storage"
	"portfolio-backend/internal/store"
	"portfolio-backend/pkg/discovery"
	"portfolio-backend/pkg/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupLogging(logDir string) (*os.File, error) {
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := config.ServiceConfig

	logFile, err := setupLogging(cfg.Server.LogDir)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()

	if err := mongo.Connect(&cfg.MongoDB); err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	redis.Connect(&cfg.Redis)

	contentStore := store.NewMongoStore(mongo.Mongo_Database)

	var uploader storage.Uploader
	uploader, err = storage.NewMinioUploader(&cfg.MinIO)
	if err != nil {
		log.Printf("Warning: MinIO unavailable, uploads are kept in memory: %v", err)
		uploader = storage.NewMemoryUploader()
	}

	eventPublisher, err := events.NewEventPublisher(cfg.RabbitMQ.URI, cfg.RabbitMQ.Exchange)
	if err != nil {
		log.Printf("Warning: Failed to initialize event publisher: %v", err)
		eventPublisher, _ = events.NewEventPublisher("", cfg.RabbitMQ.Exchange)
	}

	jwtService := service.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	var locks service.LockRepo = service.NoopLockRepo{}
	if redis.Redis_Client != nil {
		locks = service.NewRedisLockRepo(redis.Redis_Client)
	}
	authService := service.NewAuthService(contentStore, jwtService, locks, cfg.Auth.DefaultAdminEmail, cfg.Auth.DefaultAdminPassword)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := authService.EnsureAdmin(bootCtx); err != nil {
		log.Printf("Warning: Failed to ensure admin credential: %v", err)
	}
	settingsHandler := handlers.NewSettingsHandler(contentStore, uploader)
	if _, err := settingsHandler.EnsureDefaults(bootCtx); err != nil {
		log.Printf("Warning: Failed to ensure default settings: %v", err)
	}
	bootCancel()

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    50 * 1024 * 1024,
	})

	app.Use(recoverer.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"*"},
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.Max,
		Expiration: cfg.RateLimit.Window,
		LimitReached: func(c fiber.Ctx) error {
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, "Too many requests, please try again later", nil)
		},
	}))

	app.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Portfolio backend is healthy")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authenticated := middleware.Authenticated(jwtService)
	adminOnly := middleware.AdminOnly()

	authHandler := handlers.NewAuthHandler(authService, jwtService, eventPublisher)
	authHandler.RegisterRoutes(app)

	settingsHandler.RegisterRoutes(app, authenticated, adminOnly)

	contactHandler := handlers.NewContactHandler(contentStore, eventPublisher)
	contactHandler.RegisterRoutes(app, authenticated, adminOnly)

	fileHandler := handlers.NewFileHandler(contentStore)
	fileHandler.RegisterRoutes(app, authenticated, adminOnly)

	responder := chatbot.NewResponder(contentStore, eventPublisher)
	chatHandler := handlers.NewChatHandler(responder)
	chatHandler.RegisterRoutes(app)

	for _, def := range resource.Definitions(contentStore, uploader) {
		resource.NewController(def, contentStore, uploader).RegisterRoutes(app, authenticated, adminOnly)
	}

	var registry *discovery.ServiceRegistry
	if cfg.Consul.Enabled {
		registry, err = discovery.NewServiceRegistry(cfg)
		if err != nil {
			log.Printf("Warning: Failed to create Consul client: %v", err)
		} else if err := registry.Register(); err != nil {
			log.Printf("Warning: Failed to register with Consul: %v", err)
			registry = nil
		}
	}

	shutdownChan := make(chan os.Signal, 1)
	doneChan := make(chan bool, 1)

	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := app.Listen(fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
		doneChan <- true
	}()

	<-shutdownChan
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("Error shutting down HTTP server: %v", err)
	}

	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Printf("Error deregistering from service discovery: %v", err)
		}
	}

	redis.Close()
	mongo.Disconnect()

	<-doneChan
	log.Println("Server shutdown complete")
}
