package repositories

import (
	"context"

	"houseofstone-client/internal/models"
)

// SavesRepository persists the local collections, always as whole records.
// Loading a collection that was never written yields an empty slice.
type SavesRepository interface {
	LoadSaved(ctx context.Context) ([]models.SavedProperty, error)
	StoreSaved(ctx context.Context, saved []models.SavedProperty) error
	DeleteSaved(ctx context.Context) error
	LoadRecentlyViewed(ctx context.Context) ([]models.RecentlyViewed, error)
	StoreRecentlyViewed(ctx context.Context, viewed []models.RecentlyViewed) error
	DeleteRecentlyViewed(ctx context.Context) error
}
