package models

import (
	"gorm.io/gorm"
)

// User represents a registered user in the system
type User struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Email       string `json:"email" gorm:"unique;not null"`
	Password    string `json:"-" gorm:"not null"`
	PhoneNumber string `json:"phone_number" gorm:"column:phone_number"`
	ProfilePic  string `json:"profile_pic" gorm:"column:profile_pic"`
	IsVerified  bool   `json:"is_verified" gorm:"column:is_verified;default:false"`
	gorm.Model
}

// TableName specifies the table name for User Model
func (User) TableName() string {
	return "users"
}
