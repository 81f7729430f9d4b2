package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carematch/cache"
	"carematch/config"
	"carematch/database"
	"carematch/handlers"
	"carematch/middleware"
	"carematch/notifications"
	"carematch/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env before viper reads the environment
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using environment as is")
	}

	cfg := config.LoadConfig()

	// Initialize Redis (rate limits, gate cache, event pub/sub)
	cache.InitRedis(cfg.RedisURL)
	defer cache.Close()

	middleware.InitMiddleware(cfg)

	// Connect to database
	db := database.Connect(cfg)

	// Event stream: services publish, the hub fans out to websockets
	notifier := notifications.NewNotifier(cache.GetClient())
	hub := notifications.NewHub()
	if err := hub.StartWiring(context.Background(), notifier); err != nil {
		log.Printf("event hub wiring failed: %v", err)
	}

	handlers.Init(db, notifier)

	app := fiber.New(fiber.Config{
		AppName: "Carematch API",
	})

	app.Use(middleware.StructuredLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	routes.Setup(app, cache.GetClient(), hub)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s...", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
