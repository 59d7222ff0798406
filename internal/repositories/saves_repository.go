package repositories

import (
	"context"
	"errors"

	"houseofstone-client/internal/models"
	"houseofstone-client/pkg/storage"
)

type savesRepository struct {
	store storage.Store
}

func NewSavesRepository(store storage.Store) SavesRepository {
	return &savesRepository{store: store}
}

func (r *savesRepository) LoadSaved(ctx context.Context) ([]models.SavedProperty, error) {
	saved := []models.SavedProperty{}
	if err := r.store.Get(ctx, storage.KeySavedProps, &saved); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.SavedProperty{}, nil
		}
		return []models.SavedProperty{}, err
	}
	if saved == nil {
		saved = []models.SavedProperty{}
	}
	return saved, nil
}

func (r *savesRepository) StoreSaved(ctx context.Context, saved []models.SavedProperty) error {
	if saved == nil {
		saved = []models.SavedProperty{}
	}
	return r.store.Set(ctx, storage.KeySavedProps, saved)
}

func (r *savesRepository) DeleteSaved(ctx context.Context) error {
	return r.store.Delete(ctx, storage.KeySavedProps)
}

func (r *savesRepository) LoadRecentlyViewed(ctx context.Context) ([]models.RecentlyViewed, error) {
	viewed := []models.RecentlyViewed{}
	if err := r.store.Get(ctx, storage.KeyRecentlyViewed, &viewed); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.RecentlyViewed{}, nil
		}
		return []models.RecentlyViewed{}, err
	}
	if viewed == nil {
		viewed = []models.RecentlyViewed{}
	}
	return viewed, nil
}

func (r *savesRepository) StoreRecentlyViewed(ctx context.Context, viewed []models.RecentlyViewed) error {
	if viewed == nil {
		viewed = []models.RecentlyViewed{}
	}
	return r.store.Set(ctx, storage.KeyRecentlyViewed, viewed)
}

func (r *savesRepository) DeleteRecentlyViewed(ctx context.Context) error {
	return r.store.Delete(ctx, storage.KeyRecentlyViewed)
}
