package cache

import (
	"context"
	"encoding/json"
	"errors"

	"cozystay/internal/models"

	"github.com/redis/go-redis/v9"
)

// GetListing returns the cached listing, or nil on a cache miss. A nil Redis
// client and any deserialization failure are treated as misses so callers
// always fall through to the repository.
func GetListing(ctx context.Context, listingID uint) *models.Listing {
	if client == nil {
		return nil
	}
	data, err := client.Get(ctx, ListingKey(listingID)).Bytes()
	if err != nil {
		return nil
	}
	var listing models.Listing
	if err := json.Unmarshal(data, &listing); err != nil {
		// Stale or corrupt payload; drop it
		Invalidate(ctx, ListingKey(listingID))
		return nil
	}
	return &listing
}

// SetListing stores the listing detail payload with the standard TTL.
func SetListing(ctx context.Context, listing *models.Listing) error {
	if client == nil || listing == nil {
		return nil
	}
	data, err := json.Marshal(listing)
	if err != nil {
		return err
	}
	err = client.Set(ctx, ListingKey(listing.ID), data, ListingTTL).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}
