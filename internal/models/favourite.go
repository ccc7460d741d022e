package models

import "time"

// Favourite marks a listing as favourited by a user.
// The combination of UserID and ListingID must be unique.
type Favourite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_listing" json:"user_id"`
	ListingID uint      `gorm:"not null;uniqueIndex:idx_user_listing" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID" json:"user"`
	Listing Listing `gorm:"foreignKey:ListingID" json:"listing"`
}
