package models

import (
	"gorm.io/gorm"
)

// Message represents a single text message inside a chat
type Message struct {
	ID       string `json:"id" gorm:"primaryKey"`
	ChatID   string `json:"chat_id" gorm:"column:chat_id;index;not null"`
	SenderID string `json:"sender_id" gorm:"column:sender_id;index;not null"`
	Content  string `json:"content" gorm:"not null"`
	IsRead   bool   `json:"is_read" gorm:"column:is_read;default:false"`
	gorm.Model
}

// TableName specifies the table name for Message Model
func (Message) TableName() string {
	return "messages"
}
