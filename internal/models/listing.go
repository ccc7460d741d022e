package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxListingImages is the maximum number of gallery images per listing,
// in addition to the required main image.
const MaxListingImages = 4

// ImageRef is a stored media object reference: the public URL plus the
// media-store identifier needed to delete it later.
type ImageRef struct {
	URL       string `gorm:"not null" json:"url"`
	StorageID string `gorm:"not null" json:"storage_id"`
}

// Listing represents a bookable property.
type Listing struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	Title     string   `gorm:"not null" json:"title"`
	Location  string   `gorm:"not null" json:"location"`
	Country   string   `gorm:"not null" json:"country"`
	Price     float64  `gorm:"not null" json:"price"`
	OwnerID   uint     `gorm:"not null;index" json:"owner_id"`
	Owner     User     `gorm:"foreignKey:OwnerID" json:"owner"`
	MainImage ImageRef `gorm:"embedded;embeddedPrefix:main_image_" json:"main_image"`

	Images  []ListingImage `gorm:"foreignKey:ListingID" json:"images"`
	Reviews []Review       `gorm:"foreignKey:ListingID" json:"reviews,omitempty"`

	// AverageRating is not persisted; computed at query time. Nil when the
	// listing has no reviews.
	AverageRating *float64 `gorm:"->" json:"average_rating"`
	// FavouritesCount is not persisted; computed at query time
	FavouritesCount int `gorm:"->" json:"favourites_count"`
	// Favourited indicates whether the current requesting user favourited
	// this listing (computed)
	Favourited bool `gorm:"->" json:"favourited"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ListingImage is one entry of a listing's ordered gallery.
type ListingImage struct {
	ID        uint     `gorm:"primaryKey" json:"id"`
	ListingID uint     `gorm:"not null;index" json:"listing_id"`
	Image     ImageRef `gorm:"embedded" json:"image"`
	Position  int      `gorm:"not null" json:"position"`
}

// StorageIDs returns the media-store identifiers of every object attached to
// the listing, main image first.
func (l *Listing) StorageIDs() []string {
	ids := make([]string, 0, len(l.Images)+1)
	if l.MainImage.StorageID != "" {
		ids = append(ids, l.MainImage.StorageID)
	}
	for _, img := range l.Images {
		ids = append(ids, img.Image.StorageID)
	}
	return ids
}
