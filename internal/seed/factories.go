// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"cozystay/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by seed presets and tests.
type Factory struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	// seed gofakeit for richer content
	gofakeit.Seed(time.Now().UnixNano())
	//nolint:gosec // Weak random number generator is fine for seeding
	return &Factory{db: db, rand: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// CreateUser constructs and persists a sample `models.User`.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateManager persists a user holding the manager role.
func (f *Factory) CreateManager(overrides ...func(*models.User)) (*models.User, error) {
	withRole := func(u *models.User) { u.Role = models.RoleManager }
	return f.CreateUser(append([]func(*models.User){withRole}, overrides...)...)
}

// CreateListing constructs and persists a sample `models.Listing` owned by
// the given user, with a main image and a few gallery images.
func (f *Factory) CreateListing(owner *models.User, overrides ...func(*models.Listing)) (*models.Listing, error) {
	city := gofakeit.City()
	listing := &models.Listing{
		Title:     listingTitle(f.rand, city),
		Location:  city,
		Country:   gofakeit.Country(),
		Price:     float64(gofakeit.Number(40, 3500)),
		OwnerID:   owner.ID,
		MainImage: fakeImage(),
	}

	// realistic created_at spread
	daysBack := f.rand.Intn(90)
	hoursBack := f.rand.Intn(24)
	listing.CreatedAt = time.Now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour)

	galleryCount := f.rand.Intn(models.MaxListingImages + 1)
	for i := 0; i < galleryCount; i++ {
		listing.Images = append(listing.Images, models.ListingImage{
			Image:    fakeImage(),
			Position: i,
		})
	}

	for _, override := range overrides {
		override(listing)
	}

	if err := f.db.Create(listing).Error; err != nil {
		return nil, err
	}
	return listing, nil
}

// CreateReview constructs and persists a sample `models.Review` on the
// provided listing authored by the provided user.
func (f *Factory) CreateReview(user *models.User, listing *models.Listing, overrides ...func(*models.Review)) (*models.Review, error) {
	review := &models.Review{
		ListingID: listing.ID,
		UserID:    user.ID,
		Rating:    gofakeit.Number(1, 5),
		Comment:   gofakeit.Sentence(12),
	}

	for _, override := range overrides {
		override(review)
	}

	if err := f.db.Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

// CreateFavourite persists a favourite mark from `user` on `listing`.
func (f *Factory) CreateFavourite(user *models.User, listing *models.Listing) error {
	favourite := &models.Favourite{
		UserID:    user.ID,
		ListingID: listing.ID,
	}
	return f.db.Create(favourite).Error
}

var (
	listingStyles = []string{
		"Cozy", "Grand", "Seaside", "Rustic", "Boutique", "Historic",
		"Charming", "Sunny", "Hidden", "Royal", "Lakeside", "Alpine",
	}
	listingKinds = []string{
		"Villa", "Cottage", "Lodge", "Suite", "Retreat", "Guesthouse",
		"Apartment", "Cabin", "Manor", "Bungalow", "Inn", "Chalet",
	}
)

func listingTitle(r *rand.Rand, city string) string {
	style := listingStyles[r.Intn(len(listingStyles))]
	kind := listingKinds[r.Intn(len(listingKinds))]
	return fmt.Sprintf("%s %s %s", style, city, kind)
}

func fakeImage() models.ImageRef {
	id := gofakeit.UUID()
	return models.ImageRef{
		URL:       fmt.Sprintf("https://picsum.photos/seed/%s/1200/800", id),
		StorageID: fmt.Sprintf("listings/%s.jpg", id),
	}
}
