package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatType represents the kind of a conversation
type ChatType string

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

// MemberRole represents a member's role inside a chat
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

// Chat represents a private or group conversation
type Chat struct {
	ID        string   `json:"id" gorm:"primaryKey"`
	Type      ChatType `json:"type" gorm:"not null;default:'private'"`
	Name      string   `json:"name"`
	GroupIcon string   `json:"group_icon" gorm:"column:group_icon"`
	CreatedBy string   `json:"created_by" gorm:"column:created_by;index"`
	gorm.Model
}

// TableName specifies the table name for Chat Model
func (Chat) TableName() string {
	return "chats"
}

// ChatMember links a user to a chat with a role
type ChatMember struct {
	ChatID    string     `json:"chat_id" gorm:"column:chat_id;primaryKey"`
	UserID    string     `json:"user_id" gorm:"column:user_id;primaryKey;index"`
	Role      MemberRole `json:"role" gorm:"default:'member'"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName specifies the table name for ChatMember Model
func (ChatMember) TableName() string {
	return "chat_members"
}
