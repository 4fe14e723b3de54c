package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rajgit2024/Chatting-app/internal/database"
	"github.com/rajgit2024/Chatting-app/internal/realtime"
	"github.com/rajgit2024/Chatting-app/internal/store"

	"github.com/gin-gonic/gin"
)

// SendMessageRequest represents the payload for sending a message
type SendMessageRequest struct {
	ChatID  string `json:"chat_id" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SendMessage handles POST /api/messages
// Persists the message first, then routes the live event; the broadcast can
// only carry messages that were stored.
func SendMessage(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "chat_id and content are required"})
		return
	}

	s := store.New(database.GetDB())
	isMember, err := s.IsMember(req.ChatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Sender is not a member of this chat"})
		return
	}

	msg, err := s.AppendMessage(req.ChatID, userID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		} else {
			// The client marks the message failed; its connection and other
			// chats are unaffected.
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store message"})
		}
		return
	}

	if hub := realtime.GetHub(); hub != nil {
		hub.Router.Route(realtime.MessageCreated{ChatID: msg.ChatID, Message: msg})
	}

	c.JSON(http.StatusCreated, msg)
}

// GetChatMessages handles GET /api/messages/:chatId
// Returns a chat's history oldest first and marks it read. This fetch is also
// the recovery path for events missed while disconnected.
func GetChatMessages(c *gin.Context) {
	userID := c.GetString("user_id")
	chatID := c.Param("chatId")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	s := store.New(database.GetDB())
	isMember, err := s.IsMember(chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this chat"})
		return
	}

	messages, err := s.ListMessages(chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	if err := s.MarkMessagesRead(chatID); err != nil {
		// read-state is best effort; the history itself was fetched
		c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}
