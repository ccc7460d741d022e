package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	ListingKeyPrefix = "listing:%d"
	UserKeyPrefix    = "user:%d"
)

const (
	ListingTTL = 30 * time.Minute
	UserTTL    = 5 * time.Minute
)

func ListingKey(listingID uint) string {
	return fmt.Sprintf(ListingKeyPrefix, listingID)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateListing(ctx context.Context, listingID uint) {
	Invalidate(ctx, ListingKey(listingID))
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}
