package routes

import (
	"time"

	"carematch/handlers"
	"carematch/middleware"
	"carematch/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/redis/go-redis/v9"
)

func Setup(app *fiber.App, rdb *redis.Client, hub *notifications.Hub) {
	api := app.Group("/api")

	// Health check
	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "ok",
			"version": "1.0.0",
		})
	})

	// Post routes
	posts := api.Group("/posts")
	// Public post routes
	posts.Get("/", handlers.GetPosts)
	posts.Get("/:id", handlers.GetPost)
	// Protected post routes
	posts.Post("/", middleware.AuthRequired, handlers.CreatePost)
	posts.Post("/:id/bump", middleware.AuthRequired,
		middleware.RateLimit(rdb, 10, time.Hour, "bump"), handlers.BumpPost)
	posts.Post("/:id/transition", middleware.AuthRequired, handlers.TransitionPost)
	posts.Post("/:id/applications", middleware.AuthRequired,
		middleware.RateLimit(rdb, 20, time.Hour, "apply"), handlers.CreateApplication)
	posts.Get("/:id/applications", middleware.AuthRequired, handlers.GetApplications)

	// Application decision routes
	applications := api.Group("/applications", middleware.AuthRequired)
	applications.Post("/:id/approve", handlers.ApproveApplication)
	applications.Post("/:id/reject", handlers.RejectApplication)
	applications.Post("/:id/withdraw", handlers.WithdrawApplication)

	// Chat session routes
	chats := api.Group("/chats", middleware.AuthRequired)
	chats.Post("/", handlers.StartChat)
	chats.Get("/:id", handlers.GetChat)
	chats.Post("/:id/responded", handlers.ChatResponded)
	chats.Post("/:id/close", handlers.CloseChat)

	// Match recording
	api.Post("/matches", middleware.AuthRequired, handlers.RecordMatch)

	// Identity / entitlement reads
	users := api.Group("/users")
	users.Get("/me/entitlements", middleware.AuthRequired, handlers.GetMyEntitlements)
	users.Get("/:id", handlers.GetUser)

	// Websocket event stream
	if hub != nil {
		app.Use("/ws", middleware.AuthRequired, func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws", websocket.New(func(conn *websocket.Conn) {
			userID := conn.Locals("userID").(uint)
			hub.Register(userID, conn)
			defer hub.Unregister(userID, conn)
			defer conn.Close()
			// Drain reads until the client goes away; events flow the
			// other direction via the hub.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}))
	}
}
