package handlers

import (
	"errors"
	"net/http"

	"github.com/rajgit2024/Chatting-app/internal/database"
	"github.com/rajgit2024/Chatting-app/internal/models"
	"github.com/rajgit2024/Chatting-app/internal/realtime"
	"github.com/rajgit2024/Chatting-app/internal/store"

	"github.com/gin-gonic/gin"
)

// CreatePrivateChatRequest represents the payload for starting a private chat
type CreatePrivateChatRequest struct {
	UserID string `json:"user_id" binding:"required"` // the other participant
}

// CreateGroupChatRequest represents the payload for creating a group chat
type CreateGroupChatRequest struct {
	Name         string   `json:"name" binding:"required"`
	GroupIcon    string   `json:"group_icon"`
	Participants []string `json:"participants" binding:"required,min=1"`
}

// AddMemberRequest represents the payload for adding a group member
type AddMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// routeMembership pushes a membership change through the event router after
// it has been persisted. No-op when the hub is not running (unit tests that
// only exercise persistence).
func routeMembership(chat *models.Chat, userID string, action realtime.MembershipAction) {
	if hub := realtime.GetHub(); hub != nil {
		hub.Router.Route(realtime.MembershipChanged{
			ChatID: chat.ID,
			UserID: userID,
			Action: action,
			Chat:   chat,
		})
	}
}

// CreatePrivateChat handles POST /api/chats/private
// Finds the existing private chat between the two users or creates one.
func CreatePrivateChat(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req CreatePrivateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id of the other participant is required"})
		return
	}
	if req.UserID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot start a private chat with yourself"})
		return
	}

	s := store.New(database.GetDB())
	if _, err := s.GetUser(req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user"})
		}
		return
	}

	if chat, err := s.FindPrivateChat(userID, req.UserID); err == nil {
		c.JSON(http.StatusOK, chat)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up chat"})
		return
	}

	chat, err := s.CreateChat(models.ChatPrivate, "", "", userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat"})
		return
	}
	for _, member := range []string{userID, req.UserID} {
		if err := s.AddMember(chat.ID, member, models.RoleMember); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add chat members"})
			return
		}
	}

	// Persisted first; now both participants' live connections learn about it.
	routeMembership(chat, userID, realtime.MemberAdded)
	routeMembership(chat, req.UserID, realtime.MemberAdded)

	c.JSON(http.StatusCreated, chat)
}

// CreateGroupChat handles POST /api/chats/group
func CreateGroupChat(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req CreateGroupChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and participants are required"})
		return
	}

	s := store.New(database.GetDB())
	chat, err := s.CreateChat(models.ChatGroup, req.Name, req.GroupIcon, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat"})
		return
	}

	if err := s.AddMember(chat.ID, userID, models.RoleAdmin); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add chat members"})
		return
	}
	members := []string{userID}
	for _, participant := range req.Participants {
		if participant == userID {
			continue
		}
		if err := s.AddMember(chat.ID, participant, models.RoleMember); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add chat members"})
			return
		}
		members = append(members, participant)
	}

	for _, member := range members {
		routeMembership(chat, member, realtime.MemberAdded)
	}

	c.JSON(http.StatusCreated, chat)
}

// GetUserChats handles GET /api/chats
// Lists every chat the authenticated user belongs to, newest first.
func GetUserChats(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	chats, err := store.New(database.GetDB()).ListUserChats(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chats": chats,
		"count": len(chats),
	})
}

// AddChatMember handles POST /api/chats/:id/members
// Only existing members may add users to a group chat.
func AddChatMember(c *gin.Context) {
	userID := c.GetString("user_id")
	chatID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	s := store.New(database.GetDB())
	chat, err := s.GetChat(chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up chat"})
		}
		return
	}
	if chat.Type != models.ChatGroup {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Members can only be added to group chats"})
		return
	}

	isMember, err := s.IsMember(chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only chat members can add users"})
		return
	}

	if err := s.AddMember(chatID, req.UserID, models.RoleMember); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	routeMembership(chat, req.UserID, realtime.MemberAdded)

	c.JSON(http.StatusOK, gin.H{"message": "Member added", "chat_id": chatID, "user_id": req.UserID})
}

// RemoveChatMember handles DELETE /api/chats/:id/members/:userId
// A member may remove themself; only members may remove others.
func RemoveChatMember(c *gin.Context) {
	userID := c.GetString("user_id")
	chatID := c.Param("id")
	targetID := c.Param("userId")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in token"})
		return
	}

	s := store.New(database.GetDB())
	chat, err := s.GetChat(chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up chat"})
		}
		return
	}

	isMember, err := s.IsMember(chatID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only chat members can remove users"})
		return
	}

	if err := s.RemoveMember(chatID, targetID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	routeMembership(chat, targetID, realtime.MemberRemoved)

	c.JSON(http.StatusOK, gin.H{"message": "Member removed", "chat_id": chatID, "user_id": targetID})
}
