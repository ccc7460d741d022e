package seed

import (
	"fmt"
	"log"

	"cozystay/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumListings int
	ShouldClean bool
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d listings...", opts.NumUsers, opts.NumListings)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("✓ %d test users created", len(users))

	// One well-known manager account for exercising elevated operations.
	manager, err := f.CreateManager(func(u *models.User) {
		u.Username = "cozystay_manager"
		u.Email = "manager@cozystay.dev"
	})
	if err != nil {
		return fmt.Errorf("failed to create manager: %w", err)
	}
	users = append(users, manager)
	log.Printf("✓ manager account created (%s)", manager.Email)

	listings := make([]*models.Listing, 0, opts.NumListings)
	for i := 0; i < opts.NumListings; i++ {
		owner := users[f.rand.Intn(len(users))]
		listing, err := f.CreateListing(owner)
		if err != nil {
			return fmt.Errorf("failed to create listings: %w", err)
		}
		listings = append(listings, listing)
	}
	log.Printf("✓ %d listings created", len(listings))

	reviews := 0
	favourites := 0
	for _, listing := range listings {
		for _, user := range users {
			if user.ID == listing.OwnerID {
				continue
			}
			if f.rand.Intn(100) < 20 {
				if _, err := f.CreateReview(user, listing); err != nil {
					return fmt.Errorf("failed to create reviews: %w", err)
				}
				reviews++
			}
			if f.rand.Intn(100) < 15 {
				if err := f.CreateFavourite(user, listing); err != nil {
					return fmt.Errorf("failed to create favourites: %w", err)
				}
				favourites++
			}
		}
	}
	log.Printf("✓ %d reviews and %d favourites created", reviews, favourites)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	sql := `TRUNCATE TABLE reviews, favourites, listing_images, listings, users RESTART IDENTITY CASCADE;`
	return db.Exec(sql).Error
}
