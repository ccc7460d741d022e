// Package service implements the business rules of the application on top of
// the repository and storage layers.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"cozystay/internal/cache"
	"cozystay/internal/middleware"
	"cozystay/internal/models"
	"cozystay/internal/repository"
	"cozystay/internal/search"
	"cozystay/internal/storage"

	"gorm.io/gorm"
)

// ListingService owns listing business rules: input validation, media
// orchestration on create/delete, ownership checks, review appends and
// favourite toggling.
type ListingService struct {
	listingRepo repository.ListingRepository
	reviewRepo  repository.ReviewRepository
	media       storage.MediaStore
	isManager   func(ctx context.Context, userID uint) (bool, error)
}

// ImageUpload is one file received by the upload layer.
type ImageUpload struct {
	Filename string
	Content  []byte
}

type CreateListingInput struct {
	OwnerID   uint
	Title     string
	Location  string
	Country   string
	Price     float64
	MainImage *ImageUpload
	Images    []ImageUpload
}

type ListListingsInput struct {
	Query         string
	Tags          []string
	Limit         int
	Offset        int
	CurrentUserID uint
}

type UpdateListingInput struct {
	UserID    uint
	ListingID uint
	Title     string
	Location  string
	Country   string
	Price     *float64
}

type AddReviewInput struct {
	UserID    uint
	ListingID uint
	Rating    int
	Comment   string
}

// NewListingService creates a new listing service.
func NewListingService(
	listingRepo repository.ListingRepository,
	reviewRepo repository.ReviewRepository,
	media storage.MediaStore,
	isManager func(ctx context.Context, userID uint) (bool, error),
) *ListingService {
	return &ListingService{
		listingRepo: listingRepo,
		reviewRepo:  reviewRepo,
		media:       media,
		isManager:   isManager,
	}
}

// CreateListing uploads the listing's images to the media store and persists
// the listing. When persistence fails after uploads succeeded, the uploaded
// objects are removed again on a best-effort basis so the media store is not
// left holding orphans.
func (s *ListingService) CreateListing(ctx context.Context, in CreateListingInput) (*models.Listing, error) {
	if in.OwnerID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Location) == "" || strings.TrimSpace(in.Country) == "" {
		return nil, models.NewValidationError("Title, location and country are required")
	}
	if in.Price < 0 {
		return nil, models.NewValidationError("Price must not be negative")
	}
	if in.MainImage == nil || len(in.MainImage.Content) == 0 {
		return nil, models.NewValidationError("Main image is required")
	}
	if len(in.Images) > models.MaxListingImages {
		return nil, models.NewValidationError("A listing can have at most 4 gallery images")
	}

	uploaded := make([]models.ImageRef, 0, len(in.Images)+1)

	mainRef, err := s.media.Upload(ctx, in.MainImage.Filename, in.MainImage.Content)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	uploaded = append(uploaded, mainRef)

	gallery := make([]models.ListingImage, 0, len(in.Images))
	for i, img := range in.Images {
		ref, uploadErr := s.media.Upload(ctx, img.Filename, img.Content)
		if uploadErr != nil {
			s.removeUploaded(ctx, uploaded)
			return nil, models.NewInternalError(uploadErr)
		}
		uploaded = append(uploaded, ref)
		gallery = append(gallery, models.ListingImage{Image: ref, Position: i})
	}

	listing := &models.Listing{
		Title:     strings.TrimSpace(in.Title),
		Location:  strings.TrimSpace(in.Location),
		Country:   strings.TrimSpace(in.Country),
		Price:     in.Price,
		OwnerID:   in.OwnerID,
		MainImage: mainRef,
		Images:    gallery,
	}

	if err := s.listingRepo.Create(ctx, listing); err != nil {
		s.removeUploaded(ctx, uploaded)
		return nil, models.NewInternalError(err)
	}

	return s.GetListing(ctx, listing.ID, in.OwnerID)
}

// GetListing returns the listing with owner, images and reviews. Anonymous
// reads are served through the Redis cache; authenticated reads bypass it
// because the favourited flag is caller-specific.
func (s *ListingService) GetListing(ctx context.Context, id uint, currentUserID uint) (*models.Listing, error) {
	if currentUserID == 0 {
		if cached := cache.GetListing(ctx, id); cached != nil {
			return cached, nil
		}
	}

	listing, err := s.listingRepo.GetByID(ctx, id, currentUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}

	// Reviews are loaded here, so the mean is computed from them directly.
	listing.AverageRating = search.AverageRating(listing.Reviews)

	if currentUserID == 0 {
		if cacheErr := cache.SetListing(ctx, listing); cacheErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to cache listing",
				slog.Any("listing_id", id), slog.String("error", cacheErr.Error()))
		}
	}
	return listing, nil
}

// ListListings returns a filtered, paginated page of listings.
func (s *ListingService) ListListings(ctx context.Context, in ListListingsInput) ([]*models.Listing, error) {
	filter := repository.ListFilter{
		Query:  strings.TrimSpace(in.Query),
		Tags:   normalizeTags(in.Tags),
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	listings, err := s.listingRepo.List(ctx, filter, in.CurrentUserID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

// GetMyListings returns the listings owned by the given user.
func (s *ListingService) GetMyListings(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error) {
	listings, err := s.listingRepo.GetByOwnerID(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

// GetFavourites returns the listings the user has favourited, most recently
// favourited first.
func (s *ListingService) GetFavourites(ctx context.Context, userID uint) ([]*models.Listing, error) {
	listings, err := s.listingRepo.GetFavourites(ctx, userID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return listings, nil
}

// UpdateListing applies a partial update. Only the owner or a manager may
// update a listing.
func (s *ListingService) UpdateListing(ctx context.Context, in UpdateListingInput) (*models.Listing, error) {
	listing, err := s.loadOwned(ctx, in.ListingID, in.UserID, "update")
	if err != nil {
		return nil, err
	}

	if in.Price != nil && *in.Price < 0 {
		return nil, models.NewValidationError("Price must not be negative")
	}

	if strings.TrimSpace(in.Title) != "" {
		listing.Title = strings.TrimSpace(in.Title)
	}
	if strings.TrimSpace(in.Location) != "" {
		listing.Location = strings.TrimSpace(in.Location)
	}
	if strings.TrimSpace(in.Country) != "" {
		listing.Country = strings.TrimSpace(in.Country)
	}
	if in.Price != nil {
		listing.Price = *in.Price
	}

	if err := s.listingRepo.Update(ctx, listing); err != nil {
		return nil, models.NewInternalError(err)
	}
	return listing, nil
}

// DeleteListing removes the listing and, best-effort, its stored media
// objects. Only the owner or a manager may delete a listing.
func (s *ListingService) DeleteListing(ctx context.Context, listingID, userID uint) error {
	listing, err := s.loadOwned(ctx, listingID, userID, "delete")
	if err != nil {
		return err
	}

	storageIDs := listing.StorageIDs()

	if err := s.listingRepo.Delete(ctx, listingID); err != nil {
		return models.NewInternalError(err)
	}

	for _, id := range storageIDs {
		if removeErr := s.media.Remove(ctx, id); removeErr != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove media object for deleted listing",
				slog.Any("listing_id", listingID),
				slog.String("storage_id", id),
				slog.String("error", removeErr.Error()))
		}
	}
	return nil
}

// AddReview appends a review with a server-assigned timestamp.
func (s *ListingService) AddReview(ctx context.Context, in AddReviewInput) (*models.Review, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, models.NewValidationError("Rating must be between 1 and 5")
	}

	if _, err := s.requireListing(ctx, in.ListingID); err != nil {
		return nil, err
	}

	review := &models.Review{
		ListingID: in.ListingID,
		UserID:    in.UserID,
		Rating:    in.Rating,
		Comment:   in.Comment,
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, models.NewInternalError(err)
	}
	return review, nil
}

// FavouriteListing marks the listing as a favourite of the user. Favouriting
// an already-favourited listing is a no-op.
func (s *ListingService) FavouriteListing(ctx context.Context, userID, listingID uint) error {
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return err
	}
	if err := s.listingRepo.Favourite(ctx, userID, listingID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// UnfavouriteListing removes the favourite mark. Removing a mark that does
// not exist is a no-op.
func (s *ListingService) UnfavouriteListing(ctx context.Context, userID, listingID uint) error {
	if _, err := s.requireListing(ctx, listingID); err != nil {
		return err
	}
	if err := s.listingRepo.Unfavourite(ctx, userID, listingID); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *ListingService) requireListing(ctx context.Context, id uint) (*models.Listing, error) {
	listing, err := s.listingRepo.GetByID(ctx, id, 0)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Listing", id)
		}
		return nil, models.NewInternalError(err)
	}
	return listing, nil
}

// loadOwned fetches the listing and verifies the caller may manage it.
func (s *ListingService) loadOwned(ctx context.Context, listingID, userID uint, action string) (*models.Listing, error) {
	listing, err := s.requireListing(ctx, listingID)
	if err != nil {
		return nil, err
	}

	if listing.OwnerID != userID {
		manager, mgrErr := s.isManager(ctx, userID)
		if mgrErr != nil {
			return nil, models.NewInternalError(mgrErr)
		}
		if !manager {
			return nil, models.NewForbiddenError("You can only " + action + " your own listings")
		}
	}
	return listing, nil
}

func (s *ListingService) removeUploaded(ctx context.Context, refs []models.ImageRef) {
	for _, ref := range refs {
		if err := s.media.Remove(ctx, ref.StorageID); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to remove orphaned media object",
				slog.String("storage_id", ref.StorageID),
				slog.String("error", err.Error()))
		}
	}
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
