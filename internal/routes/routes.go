package routes

import (
	"github.com/rajgit2024/Chatting-app/internal/handlers"
	"github.com/rajgit2024/Chatting-app/internal/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes() *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204) // This depends on the implementation of the frontend
			return
		}

		c.Next()
	})

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Chatting App API is running in Health Check Endpoint",
		})
	})

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		api.POST("/users/register", handlers.Register)
		api.POST("/users/login", handlers.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		// User endpoints
		protectedRoutes.GET("/users", handlers.GetAllUsers)
		protectedRoutes.GET("/users/profile", handlers.GetProfile)
		protectedRoutes.PUT("/users/profile", handlers.UpdateProfile)
		protectedRoutes.GET("/users/search", handlers.SearchUsers)
		// Chat endpoints
		protectedRoutes.POST("/chats/private", handlers.CreatePrivateChat)
		protectedRoutes.POST("/chats/group", handlers.CreateGroupChat)
		protectedRoutes.GET("/chats", handlers.GetUserChats)
		protectedRoutes.POST("/chats/:id/members", handlers.AddChatMember)
		protectedRoutes.DELETE("/chats/:id/members/:userId", handlers.RemoveChatMember)
		// Message endpoints
		protectedRoutes.POST("/messages", handlers.SendMessage)
		protectedRoutes.GET("/messages/:chatId", handlers.GetChatMessages)
		// WebSocket endpoint (token accepted via query param)
		protectedRoutes.GET("/ws", handlers.WebSocketHandler)
	}

	return ginRouter
}
