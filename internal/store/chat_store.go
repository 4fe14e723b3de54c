package store

import (
	"errors"
	"fmt"

	"github.com/rajgit2024/Chatting-app/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a chat, user or message does not exist.
var ErrNotFound = errors.New("not found")

// ChatStore is the gorm-backed persistence layer for users, chats, members
// and messages. The realtime hub consumes it through the ChatDirectory
// interface; the REST handlers use it directly.
type ChatStore struct {
	db *gorm.DB
}

// New creates a store over the given database handle.
func New(db *gorm.DB) *ChatStore {
	return &ChatStore{db: db}
}

// GetUser looks a user up by id.
func (s *ChatStore) GetUser(userID string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return &user, nil
}

// ListChatsForUser returns the ids of every chat the user is a member of.
// This is the authoritative membership view the session reconciler syncs
// room subscriptions against.
func (s *ChatStore) ListChatsForUser(userID string) ([]string, error) {
	var chatIDs []string
	err := s.db.Model(&models.ChatMember{}).
		Where("user_id = ?", userID).
		Pluck("chat_id", &chatIDs).Error
	if err != nil {
		return nil, fmt.Errorf("list chats for user %s: %w", userID, err)
	}
	return chatIDs, nil
}

// ListMembers returns the ids of every member of a chat.
func (s *ChatStore) ListMembers(chatID string) ([]string, error) {
	var userIDs []string
	err := s.db.Model(&models.ChatMember{}).
		Where("chat_id = ?", chatID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, fmt.Errorf("list members of chat %s: %w", chatID, err)
	}
	return userIDs, nil
}

// IsMember reports whether the user belongs to the chat.
func (s *ChatStore) IsMember(chatID, userID string) (bool, error) {
	var count int64
	err := s.db.Model(&models.ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check membership of %s in %s: %w", userID, chatID, err)
	}
	return count > 0, nil
}

// GetChat looks a chat up by id.
func (s *ChatStore) GetChat(chatID string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.db.First(&chat, "id = ?", chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get chat %s: %w", chatID, err)
	}
	return &chat, nil
}

// FindPrivateChat returns the existing private chat both users belong to, or
// ErrNotFound when they have none.
func (s *ChatStore) FindPrivateChat(user1, user2 string) (*models.Chat, error) {
	var chat models.Chat
	err := s.db.
		Where("type = ?", models.ChatPrivate).
		Where("id IN (?)", s.db.Model(&models.ChatMember{}).Select("chat_id").Where("user_id = ?", user1)).
		Where("id IN (?)", s.db.Model(&models.ChatMember{}).Select("chat_id").Where("user_id = ?", user2)).
		First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find private chat %s/%s: %w", user1, user2, err)
	}
	return &chat, nil
}

// CreateChat persists a new chat and returns it.
func (s *ChatStore) CreateChat(chatType models.ChatType, name, groupIcon, createdBy string) (*models.Chat, error) {
	chat := models.Chat{
		ID:        uuid.NewString(),
		Type:      chatType,
		Name:      name,
		GroupIcon: groupIcon,
		CreatedBy: createdBy,
	}
	if err := s.db.Create(&chat).Error; err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}
	return &chat, nil
}

// AddMember adds a user to a chat. Adding an existing member is a no-op.
func (s *ChatStore) AddMember(chatID, userID string, role models.MemberRole) error {
	member := models.ChatMember{ChatID: chatID, UserID: userID, Role: role}
	err := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		FirstOrCreate(&member).Error
	if err != nil {
		return fmt.Errorf("add member %s to chat %s: %w", userID, chatID, err)
	}
	return nil
}

// RemoveMember removes a user from a chat. Removing a non-member is a no-op.
func (s *ChatStore) RemoveMember(chatID, userID string) error {
	err := s.db.Where("chat_id = ? AND user_id = ?", chatID, userID).
		Delete(&models.ChatMember{}).Error
	if err != nil {
		return fmt.Errorf("remove member %s from chat %s: %w", userID, chatID, err)
	}
	return nil
}

// ListUserChats returns the full chat rows for a user, newest first. Used by
// the REST chat list.
func (s *ChatStore) ListUserChats(userID string) ([]models.Chat, error) {
	var chats []models.Chat
	err := s.db.
		Joins("JOIN chat_members ON chat_members.chat_id = chats.id").
		Where("chat_members.user_id = ?", userID).
		Order("chats.created_at DESC").
		Find(&chats).Error
	if err != nil {
		return nil, fmt.Errorf("list chats for user %s: %w", userID, err)
	}
	return chats, nil
}

// AppendMessage persists a new message in a chat. The caller routes the
// corresponding live event after this returns, never before, so a message
// that reached subscribers is always one that was stored.
func (s *ChatStore) AppendMessage(chatID, senderID, content string) (*models.Message, error) {
	if _, err := s.GetChat(chatID); err != nil {
		return nil, err
	}
	msg := models.Message{
		ID:       uuid.NewString(),
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("append message to chat %s: %w", chatID, err)
	}
	return &msg, nil
}

// ListMessages returns a chat's messages, oldest first.
func (s *ChatStore) ListMessages(chatID string) ([]models.Message, error) {
	var messages []models.Message
	err := s.db.Where("chat_id = ?", chatID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages of chat %s: %w", chatID, err)
	}
	return messages, nil
}

// MarkMessagesRead flags every message in a chat as read.
func (s *ChatStore) MarkMessagesRead(chatID string) error {
	err := s.db.Model(&models.Message{}).
		Where("chat_id = ?", chatID).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("mark messages read in chat %s: %w", chatID, err)
	}
	return nil
}
