// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"strings"

	"cozystay/internal/cache"
	"cozystay/internal/models"
	"cozystay/internal/search"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows and pages the listing collection.
type ListFilter struct {
	Query  string
	Tags   []string
	Limit  int
	Offset int
}

// ListingRepository defines the interface for listing data operations
type ListingRepository interface {
	Create(ctx context.Context, listing *models.Listing) error
	GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Listing, error)
	List(ctx context.Context, filter ListFilter, currentUserID uint) ([]*models.Listing, error)
	GetByOwnerID(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error)
	GetFavourites(ctx context.Context, userID uint) ([]*models.Listing, error)
	Update(ctx context.Context, listing *models.Listing) error
	Delete(ctx context.Context, id uint) error
	Favourite(ctx context.Context, userID, listingID uint) error
	Unfavourite(ctx context.Context, userID, listingID uint) error
	IsFavourited(ctx context.Context, userID, listingID uint) (bool, error)
}

// listingRepository implements ListingRepository
type listingRepository struct {
	db *gorm.DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, listing *models.Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *listingRepository) GetByID(ctx context.Context, id uint, currentUserID uint) (*models.Listing, error) {
	var listing models.Listing
	err := r.applyListingDetails(r.db.WithContext(ctx), currentUserID).
		Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Preload("Reviews", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Reviews.User").
		First(&listing, id).Error
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

func (r *listingRepository) List(ctx context.Context, filter ListFilter, currentUserID uint) ([]*models.Listing, error) {
	var listings []*models.Listing
	q := r.applyListingDetails(r.db.WithContext(ctx), currentUserID).
		Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		})

	q = applyQueryFilter(q, filter.Query)
	q = applyTagFilter(q, filter.Tags)

	err := q.Order("created_at DESC, id DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) GetByOwnerID(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.applyListingDetails(r.db.WithContext(ctx), ownerID).
		Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) GetFavourites(ctx context.Context, userID uint) ([]*models.Listing, error) {
	var listings []*models.Listing
	err := r.applyListingDetails(r.db.WithContext(ctx), userID).
		Preload("Owner").
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Joins("JOIN favourites ON favourites.listing_id = listings.id AND favourites.user_id = ?", userID).
		Order("favourites.created_at DESC, favourites.id DESC").
		Find(&listings).Error
	if err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *listingRepository) Update(ctx context.Context, listing *models.Listing) error {
	err := r.db.WithContext(ctx).Save(listing).Error
	if err == nil {
		cache.InvalidateListing(ctx, listing.ID)
	}
	return err
}

func (r *listingRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("listing_id = ?", id).Delete(&models.ListingImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("listing_id = ?", id).Delete(&models.Favourite{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Listing{}, id).Error
	})
	if err == nil {
		cache.InvalidateListing(ctx, id)
	}
	return err
}

func (r *listingRepository) Favourite(ctx context.Context, userID, listingID uint) error {
	// ON CONFLICT DO NOTHING keeps the operation idempotent under races
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Favourite{UserID: userID, ListingID: listingID}).Error
	if err == nil {
		cache.InvalidateListing(ctx, listingID)
	}
	return err
}

func (r *listingRepository) Unfavourite(ctx context.Context, userID, listingID uint) error {
	// Hard delete the favourite record (not soft delete); removing a
	// non-existent favourite is a no-op, not an error.
	err := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Delete(&models.Favourite{}).Error
	if err == nil {
		cache.InvalidateListing(ctx, listingID)
	}
	return err
}

func (r *listingRepository) IsFavourited(ctx context.Context, userID, listingID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Favourite{}).
		Where("user_id = ? AND listing_id = ?", userID, listingID).
		Count(&count).Error
	return count > 0, err
}

// applyListingDetails adds subqueries to fetch the average rating, favourite
// count and favourited status in a single query.
func (r *listingRepository) applyListingDetails(db *gorm.DB, currentUserID uint) *gorm.DB {
	selectQuery := "listings.*, " +
		"(SELECT AVG(rating) FROM reviews WHERE reviews.listing_id = listings.id) as average_rating, " +
		"(SELECT COUNT(*) FROM favourites WHERE favourites.listing_id = listings.id) as favourites_count"

	if currentUserID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM favourites WHERE favourites.listing_id = listings.id AND favourites.user_id = ?) as favourited", currentUserID)
	}

	return db.Select(selectQuery + ", false as favourited")
}

// likeEscaper neutralizes LIKE metacharacters so the query is matched as a
// literal substring, the same contract as search.MatchesQuery.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applyQueryFilter matches the free-text query against title, country and
// location, case-insensitively. LOWER(...) LIKE keeps the behavior identical
// on Postgres and SQLite; the in-memory equivalent is search.MatchesQuery.
func applyQueryFilter(db *gorm.DB, query string) *gorm.DB {
	if query == "" {
		return db
	}
	like := "%" + likeEscaper.Replace(query) + "%"
	return db.Where(
		`LOWER(title) LIKE LOWER(?) ESCAPE '\' OR LOWER(country) LIKE LOWER(?) ESCAPE '\' OR LOWER(location) LIKE LOWER(?) ESCAPE '\'`,
		like, like, like,
	)
}

// applyTagFilter ORs together the price rules of the selected tags. Tags
// without a wired rule contribute an always-false condition, so selecting
// only such tags returns no rows (see search.TagPriceRule).
func applyTagFilter(db *gorm.DB, tags []string) *gorm.DB {
	if len(tags) == 0 {
		return db
	}
	cond := db.Session(&gorm.Session{NewDB: true}).Where("1 = 0")
	for _, tag := range tags {
		rule, ok := search.TagPriceRule(tag)
		if !ok {
			continue
		}
		switch {
		case rule.Above > 0:
			cond = cond.Or("price > ?", rule.Above)
		case rule.Below > 0:
			cond = cond.Or("price < ?", rule.Below)
		}
	}
	return db.Where(cond)
}
