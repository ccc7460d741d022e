package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cozystay/internal/models"
	"cozystay/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// listingRepoStub is a stub for repository.ListingRepository.
type listingRepoStub struct {
	createFn        func(context.Context, *models.Listing) error
	getByIDFn       func(context.Context, uint, uint) (*models.Listing, error)
	listFn          func(context.Context, repository.ListFilter, uint) ([]*models.Listing, error)
	getByOwnerIDFn  func(context.Context, uint, int, int) ([]*models.Listing, error)
	getFavouritesFn func(context.Context, uint) ([]*models.Listing, error)
	updateFn        func(context.Context, *models.Listing) error
	deleteFn        func(context.Context, uint) error
	favouriteFn     func(context.Context, uint, uint) error
	unfavouriteFn   func(context.Context, uint, uint) error
	isFavouritedFn  func(context.Context, uint, uint) (bool, error)
}

func (s *listingRepoStub) Create(ctx context.Context, listing *models.Listing) error {
	return s.createFn(ctx, listing)
}
func (s *listingRepoStub) GetByID(ctx context.Context, id, currentUserID uint) (*models.Listing, error) {
	return s.getByIDFn(ctx, id, currentUserID)
}
func (s *listingRepoStub) List(ctx context.Context, filter repository.ListFilter, currentUserID uint) ([]*models.Listing, error) {
	return s.listFn(ctx, filter, currentUserID)
}
func (s *listingRepoStub) GetByOwnerID(ctx context.Context, ownerID uint, limit, offset int) ([]*models.Listing, error) {
	return s.getByOwnerIDFn(ctx, ownerID, limit, offset)
}
func (s *listingRepoStub) GetFavourites(ctx context.Context, userID uint) ([]*models.Listing, error) {
	return s.getFavouritesFn(ctx, userID)
}
func (s *listingRepoStub) Update(ctx context.Context, listing *models.Listing) error {
	return s.updateFn(ctx, listing)
}
func (s *listingRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *listingRepoStub) Favourite(ctx context.Context, userID, listingID uint) error {
	return s.favouriteFn(ctx, userID, listingID)
}
func (s *listingRepoStub) Unfavourite(ctx context.Context, userID, listingID uint) error {
	return s.unfavouriteFn(ctx, userID, listingID)
}
func (s *listingRepoStub) IsFavourited(ctx context.Context, userID, listingID uint) (bool, error) {
	return s.isFavouritedFn(ctx, userID, listingID)
}

func noopListingRepo() *listingRepoStub {
	return &listingRepoStub{
		createFn: func(_ context.Context, l *models.Listing) error {
			l.ID = 1
			return nil
		},
		getByIDFn: func(_ context.Context, id, _ uint) (*models.Listing, error) {
			return &models.Listing{ID: id, OwnerID: 1}, nil
		},
		listFn:          func(_ context.Context, _ repository.ListFilter, _ uint) ([]*models.Listing, error) { return nil, nil },
		getByOwnerIDFn:  func(_ context.Context, _ uint, _, _ int) ([]*models.Listing, error) { return nil, nil },
		getFavouritesFn: func(_ context.Context, _ uint) ([]*models.Listing, error) { return nil, nil },
		updateFn:        func(_ context.Context, _ *models.Listing) error { return nil },
		deleteFn:        func(_ context.Context, _ uint) error { return nil },
		favouriteFn:     func(_ context.Context, _, _ uint) error { return nil },
		unfavouriteFn:   func(_ context.Context, _, _ uint) error { return nil },
		isFavouritedFn:  func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
	}
}

// reviewRepoStub is a stub for repository.ReviewRepository.
type reviewRepoStub struct {
	createFn         func(context.Context, *models.Review) error
	getByListingIDFn func(context.Context, uint) ([]models.Review, error)
}

func (s *reviewRepoStub) Create(ctx context.Context, review *models.Review) error {
	return s.createFn(ctx, review)
}
func (s *reviewRepoStub) GetByListingID(ctx context.Context, listingID uint) ([]models.Review, error) {
	return s.getByListingIDFn(ctx, listingID)
}

func noopReviewRepo() *reviewRepoStub {
	return &reviewRepoStub{
		createFn:         func(_ context.Context, _ *models.Review) error { return nil },
		getByListingIDFn: func(_ context.Context, _ uint) ([]models.Review, error) { return nil, nil },
	}
}

// mediaStoreStub records uploads and removals for assertion.
type mediaStoreStub struct {
	uploadFn func(context.Context, string, []byte) (models.ImageRef, error)
	removeFn func(context.Context, string) error
	uploads  []string
	removals []string
}

func (s *mediaStoreStub) Upload(ctx context.Context, filename string, data []byte) (models.ImageRef, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, filename, data)
	}
	id := fmt.Sprintf("listings/%d-%s", len(s.uploads), filename)
	s.uploads = append(s.uploads, id)
	return models.ImageRef{URL: "https://media.test/" + id, StorageID: id}, nil
}

func (s *mediaStoreStub) Remove(ctx context.Context, storageID string) error {
	if s.removeFn != nil {
		return s.removeFn(ctx, storageID)
	}
	s.removals = append(s.removals, storageID)
	return nil
}

func neverManager(_ context.Context, _ uint) (bool, error)  { return false, nil }
func alwaysManager(_ context.Context, _ uint) (bool, error) { return true, nil }

func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func validCreateInput() CreateListingInput {
	return CreateListingInput{
		OwnerID:   1,
		Title:     "Seaside Cottage",
		Location:  "Cornwall",
		Country:   "United Kingdom",
		Price:     120,
		MainImage: &ImageUpload{Filename: "main.jpg", Content: []byte("jpeg-bytes")},
		Images: []ImageUpload{
			{Filename: "one.jpg", Content: []byte("a")},
			{Filename: "two.jpg", Content: []byte("b")},
		},
	}
}

func TestListingService_CreateListing_Validation(t *testing.T) {
	t.Parallel()

	svc := NewListingService(noopListingRepo(), noopReviewRepo(), &mediaStoreStub{}, neverManager)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*CreateListingInput)
	}{
		{"missing title", func(in *CreateListingInput) { in.Title = "  " }},
		{"missing location", func(in *CreateListingInput) { in.Location = "" }},
		{"missing country", func(in *CreateListingInput) { in.Country = "" }},
		{"negative price", func(in *CreateListingInput) { in.Price = -1 }},
		{"missing main image", func(in *CreateListingInput) { in.MainImage = nil }},
		{"empty main image", func(in *CreateListingInput) { in.MainImage = &ImageUpload{Filename: "m.jpg"} }},
		{"too many gallery images", func(in *CreateListingInput) {
			in.Images = make([]ImageUpload, models.MaxListingImages+1)
			for i := range in.Images {
				in.Images[i] = ImageUpload{Filename: "x.jpg", Content: []byte("x")}
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput()
			tt.mutate(&in)
			_, err := svc.CreateListing(ctx, in)
			assertErrorCode(t, err, "VALIDATION_ERROR")
		})
	}

	t.Run("missing owner is unauthorized", func(t *testing.T) {
		in := validCreateInput()
		in.OwnerID = 0
		_, err := svc.CreateListing(ctx, in)
		assertErrorCode(t, err, "UNAUTHORIZED")
	})

	t.Run("zero price is allowed", func(t *testing.T) {
		in := validCreateInput()
		in.Price = 0
		_, err := svc.CreateListing(ctx, in)
		assert.NoError(t, err)
	})
}

func TestListingService_CreateListing_AssignsImagePositions(t *testing.T) {
	t.Parallel()

	var created *models.Listing
	repo := noopListingRepo()
	repo.createFn = func(_ context.Context, l *models.Listing) error {
		l.ID = 7
		created = l
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Listing, error) {
		return created, nil
	}

	svc := NewListingService(repo, noopReviewRepo(), &mediaStoreStub{}, neverManager)

	in := validCreateInput()
	in.Images = append(in.Images, ImageUpload{Filename: "three.jpg", Content: []byte("c")})
	listing, err := svc.CreateListing(context.Background(), in)
	require.NoError(t, err)
	require.NotNil(t, listing)

	require.Len(t, listing.Images, 3)
	for i, img := range listing.Images {
		assert.Equal(t, i, img.Position)
	}
	assert.NotEmpty(t, listing.MainImage.StorageID)
}

func TestListingService_CreateListing_UploadFailureCleansUp(t *testing.T) {
	t.Parallel()

	media := &mediaStoreStub{}
	calls := 0
	media.uploadFn = func(_ context.Context, filename string, _ []byte) (models.ImageRef, error) {
		calls++
		if calls == 3 {
			return models.ImageRef{}, errors.New("connection reset")
		}
		id := fmt.Sprintf("listings/%d.jpg", calls)
		media.uploads = append(media.uploads, id)
		return models.ImageRef{URL: "https://media.test/" + id, StorageID: id}, nil
	}

	repo := noopListingRepo()
	repo.createFn = func(_ context.Context, _ *models.Listing) error {
		t.Fatal("listing must not be persisted when an upload fails")
		return nil
	}

	svc := NewListingService(repo, noopReviewRepo(), media, neverManager)

	_, err := svc.CreateListing(context.Background(), validCreateInput())
	assertErrorCode(t, err, "INTERNAL_ERROR")
	// Both successfully uploaded objects were removed again.
	assert.ElementsMatch(t, media.uploads, media.removals)
	assert.Len(t, media.removals, 2)
}

func TestListingService_CreateListing_PersistFailureCleansUp(t *testing.T) {
	t.Parallel()

	media := &mediaStoreStub{}
	repo := noopListingRepo()
	repo.createFn = func(_ context.Context, _ *models.Listing) error {
		return errors.New("constraint violation")
	}

	svc := NewListingService(repo, noopReviewRepo(), media, neverManager)

	_, err := svc.CreateListing(context.Background(), validCreateInput())
	assertErrorCode(t, err, "INTERNAL_ERROR")
	// Main image plus two gallery images were uploaded, all removed again.
	assert.Len(t, media.removals, 3)
	assert.ElementsMatch(t, media.uploads, media.removals)
}

func TestListingService_UpdateListing_Ownership(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	repo := noopListingRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Listing, error) {
		return &models.Listing{ID: id, OwnerID: 1, Title: "Old", Price: 100}, nil
	}

	t.Run("stranger is forbidden", func(t *testing.T) {
		svc := NewListingService(repo, noopReviewRepo(), &mediaStoreStub{}, neverManager)
		_, err := svc.UpdateListing(ctx, UpdateListingInput{UserID: 2, ListingID: 5, Title: "New"})
		assertErrorCode(t, err, "FORBIDDEN")
	})

	t.Run("owner may update", func(t *testing.T) {
		svc := NewListingService(repo, noopReviewRepo(), &mediaStoreStub{}, neverManager)
		updated, err := svc.UpdateListing(ctx, UpdateListingInput{UserID: 1, ListingID: 5, Title: "New"})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
	})

	t.Run("manager may update", func(t *testing.T) {
		svc := NewListingService(repo, noopReviewRepo(), &mediaStoreStub{}, alwaysManager)
		updated, err := svc.UpdateListing(ctx, UpdateListingInput{UserID: 99, ListingID: 5, Title: "New"})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
	})

	t.Run("missing listing", func(t *testing.T) {
		missing := noopListingRepo()
		missing.getByIDFn = func(_ context.Context, _, _ uint) (*models.Listing, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := NewListingService(missing, noopReviewRepo(), &mediaStoreStub{}, neverManager)
		_, err := svc.UpdateListing(ctx, UpdateListingInput{UserID: 1, ListingID: 404, Title: "New"})
		assertErrorCode(t, err, "NOT_FOUND")
	})
}

func TestListingService_UpdateListing_PartialFields(t *testing.T) {
	t.Parallel()

	repo := noopListingRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Listing, error) {
		return &models.Listing{ID: id, OwnerID: 1, Title: "Old", Location: "Lisbon", Country: "Portugal", Price: 100}, nil
	}
	svc := NewListingService(repo, noopReviewRepo(), &mediaStoreStub{}, neverManager)

	price := 250.0
	updated, err := svc.UpdateListing(context.Background(), UpdateListingInput{
		UserID: 1, ListingID: 5, Price: &price,
	})
	require.NoError(t, err)
	assert.Equal(t, "Old", updated.Title)
	assert.Equal(t, "Lisbon", updated.Location)
	assert.Equal(t, 250.0, updated.Price)

	negative := -5.0
	_, err = svc.UpdateListing(context.Background(), UpdateListingInput{
		UserID: 1, ListingID: 5, Price: &negative,
	})
	assertErrorCode(t, err, "VALIDATION_ERROR")
}

func TestListingService_DeleteListing_RemovesMedia(t *testing.T) {
	t.Parallel()

	repo := noopListingRepo()
	repo.getByIDFn = func(_ context.Context, id, _ uint) (*models.Listing, error) {
		return &models.Listing{
			ID:        id,
			OwnerID:   1,
			MainImage: models.ImageRef{StorageID: "listings/main.jpg"},
			Images: []models.ListingImage{
				{Image: models.ImageRef{StorageID: "listings/a.jpg"}},
				{Image: models.ImageRef{StorageID: "listings/b.jpg"}},
			},
		}, nil
	}

	media := &mediaStoreStub{}
	svc := NewListingService(repo, noopReviewRepo(), media, neverManager)

	require.NoError(t, svc.DeleteListing(context.Background(), 5, 1))
	assert.Equal(t, []string{"listings/main.jpg", "listings/a.jpg", "listings/b.jpg"}, media.removals)
}

func TestListingService_DeleteListing_Forbidden(t *testing.T) {
	t.Parallel()

	repo := noopListingRepo()
	deleted := false
	repo.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	media := &mediaStoreStub{}
	svc := NewListingService(repo, noopReviewRepo(), media, neverManager)

	err := svc.DeleteListing(context.Background(), 5, 42)
	assertErrorCode(t, err, "FORBIDDEN")
	assert.False(t, deleted)
	assert.Empty(t, media.removals)
}

func TestListingService_AddReview(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rating out of range", func(t *testing.T) {
		svc := NewListingService(noopListingRepo(), noopReviewRepo(), &mediaStoreStub{}, neverManager)
		for _, rating := range []int{0, -1, 6} {
			_, err := svc.AddReview(ctx, AddReviewInput{UserID: 1, ListingID: 2, Rating: rating})
			assertErrorCode(t, err, "VALIDATION_ERROR")
		}
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		svc := NewListingService(noopListingRepo(), noopReviewRepo(), &mediaStoreStub{}, neverManager)
		_, err := svc.AddReview(ctx, AddReviewInput{UserID: 0, ListingID: 2, Rating: 4})
		assertErrorCode(t, err, "UNAUTHORIZED")
	})

	t.Run("missing listing", func(t *testing.T) {
		repo := noopListingRepo()
		repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Listing, error) {
			return nil, gorm.ErrRecordNotFound
		}
		svc := NewListingService(repo, noopReviewRepo(), &mediaStoreStub{}, neverManager)
		_, err := svc.AddReview(ctx, AddReviewInput{UserID: 1, ListingID: 404, Rating: 4})
		assertErrorCode(t, err, "NOT_FOUND")
	})

	t.Run("appends review", func(t *testing.T) {
		reviews := noopReviewRepo()
		var created *models.Review
		reviews.createFn = func(_ context.Context, r *models.Review) error {
			created = r
			return nil
		}
		svc := NewListingService(noopListingRepo(), reviews, &mediaStoreStub{}, neverManager)
		review, err := svc.AddReview(ctx, AddReviewInput{UserID: 3, ListingID: 2, Rating: 5, Comment: "Lovely stay"})
		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, uint(3), review.UserID)
		assert.Equal(t, uint(2), review.ListingID)
		assert.Equal(t, 5, review.Rating)
	})
}

func TestListingService_Favourite_MissingListing(t *testing.T) {
	t.Parallel()

	repo := noopListingRepo()
	repo.getByIDFn = func(_ context.Context, _, _ uint) (*models.Listing, error) {
		return nil, gorm.ErrRecordNotFound
	}
	svc := NewListingService(repo, noopReviewRepo(), &mediaStoreStub{}, neverManager)

	err := svc.FavouriteListing(context.Background(), 1, 404)
	assertErrorCode(t, err, "NOT_FOUND")

	err = svc.UnfavouriteListing(context.Background(), 1, 404)
	assertErrorCode(t, err, "NOT_FOUND")
}
