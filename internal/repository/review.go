package repository

import (
	"context"

	"cozystay/internal/cache"
	"cozystay/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository defines the interface for review data operations.
// Reviews are append-only; there is no update or delete.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	GetByListingID(ctx context.Context, listingID uint) ([]models.Review, error)
}

// reviewRepository implements ReviewRepository
type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *models.Review) error {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return err
	}
	cache.InvalidateListing(ctx, review.ListingID)
	// Reload with the author so the created review renders complete.
	return r.db.WithContext(ctx).Preload("User").First(review, review.ID).Error
}

func (r *reviewRepository) GetByListingID(ctx context.Context, listingID uint) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("listing_id = ?", listingID).
		Order("created_at ASC, id ASC").
		Find(&reviews).Error
	return reviews, err
}
