package main

import (
	"log"
	"os"
	"time"

	"github.com/rajgit2024/Chatting-app/internal/database"
	"github.com/rajgit2024/Chatting-app/internal/logger"
	"github.com/rajgit2024/Chatting-app/internal/realtime"
	"github.com/rajgit2024/Chatting-app/internal/routes"
	"github.com/rajgit2024/Chatting-app/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env if present; real env vars win
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := logger.Init(getEnv("LOG_LEVEL", "info"), getEnv("APP_ENV", "development")); err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	// Init database
	database.InitDB()

	// Init the realtime hub over the persisted chat membership
	hub := realtime.Init(store.New(database.GetDB()), realtime.Options{
		TypingWindow:   getDurationEnv("TYPING_EXPIRY", realtime.DefaultTypingWindow),
		ReconcileRetry: getDurationEnv("RECONCILE_RETRY", realtime.DefaultReconcileRetry),
	})
	defer hub.Stop()

	// Setup the routes (public and protected routes)
	ginRoutes := routes.SetupRoutes()

	// Start server
	port := ":" + getEnv("PORT", "8008")
	log.Printf("Server starting on port %s", port)
	log.Println("API endpoints:")
	log.Println("  POST   /api/users/register")
	log.Println("  POST   /api/users/login")
	log.Println("  GET    /api/users")
	log.Println("  GET    /api/chats")
	log.Println("  POST   /api/chats/private")
	log.Println("  POST   /api/chats/group")
	log.Println("  POST   /api/messages")
	log.Println("  GET    /api/messages/:chatId")
	log.Println("  GET    /api/ws")
	log.Println("  GET    /health")

	if err := ginRoutes.Run(port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration for %s, using default %s", key, fallback)
	}
	return fallback
}
