// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole defines the privilege level of a user account.
type UserRole string

const (
	// RoleUser is the default role for registered guests.
	RoleUser UserRole = "user"
	// RoleManager marks accounts allowed to manage any listing.
	RoleManager UserRole = "manager"
)

// User represents a registered CozyStay account.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"unique;not null" json:"username"`
	Email     string         `gorm:"unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Role      UserRole       `gorm:"type:varchar(20);not null;default:'user'" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Listings  []Listing      `gorm:"foreignKey:OwnerID" json:"listings,omitempty"`
}

// IsManager reports whether the account may manage listings it does not own.
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}
