package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"houseofstone-client/internal/models"
	"houseofstone-client/internal/repositories"
	"houseofstone-client/internal/transformers"
	"houseofstone-client/internal/validators"
	"houseofstone-client/pkg/api"
	"houseofstone-client/pkg/logger"
)

const (
	MaxSavedProperties = 50
	MaxRecentlyViewed  = 20
)

// FavoritesSyncer adds a property to the signed-in account's favorites.
// *api.FavoritesAPI implements it.
type FavoritesSyncer interface {
	AddFavorite(ctx context.Context, propertyID int64) error
}

// MergeResult lists the ids the server acknowledged and those left in place.
type MergeResult struct {
	Synced []int64
	Failed []int64
}

// SavedPropertiesService keeps the saved and recently-viewed collections in
// memory and writes the whole collection back to storage after every
// mutation. Storage failures never fail the mutation; they are logged and
// reported through the persist-error hook.
type SavedPropertiesService struct {
	mu     sync.Mutex
	saved  []models.SavedProperty
	viewed []models.RecentlyViewed
	undo   *toggleUndo

	repo        repositories.SavesRepository
	validator   validators.PropertyValidator
	transformer transformers.PropertyTransformer
	now         func() time.Time
	log         *logger.Logger

	errMu          sync.Mutex
	lastPersistErr error
	onPersistError func(error)
}

// toggleUndo remembers the entry evicted by a toggle that hit the cap, so
// toggling the same property straight back restores the collection exactly.
type toggleUndo struct {
	id      int64
	evicted models.SavedProperty
}

type SavedOption func(*SavedPropertiesService)

func WithSavedClock(now func() time.Time) SavedOption {
	return func(s *SavedPropertiesService) { s.now = now }
}

func WithSavedLogger(l *logger.Logger) SavedOption {
	return func(s *SavedPropertiesService) { s.log = l }
}

// WithPersistErrorHook registers fn to receive every storage write failure.
func WithPersistErrorHook(fn func(error)) SavedOption {
	return func(s *SavedPropertiesService) { s.onPersistError = fn }
}

// NewSavedPropertiesService loads both collections from storage. Unreadable
// records are logged and treated as empty.
func NewSavedPropertiesService(ctx context.Context, repo repositories.SavesRepository, opts ...SavedOption) *SavedPropertiesService {
	s := &SavedPropertiesService{
		repo:        repo,
		validator:   validators.NewPropertyValidator(),
		transformer: transformers.NewPropertyTransformer(),
		now:         time.Now,
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load(ctx)
	return s
}

func (s *SavedPropertiesService) load(ctx context.Context) {
	saved, err := s.repo.LoadSaved(ctx)
	if err != nil {
		s.log.Errorf("Failed to load saved properties: error=%v", err)
	}
	viewed, err := s.repo.LoadRecentlyViewed(ctx)
	if err != nil {
		s.log.Errorf("Failed to load recently viewed properties: error=%v", err)
	}
	s.mu.Lock()
	s.saved = truncateSaved(saved)
	s.viewed = truncateViewed(viewed)
	s.undo = nil
	s.mu.Unlock()
}

// Reload re-reads both collections from storage, replacing the in-memory state.
func (s *SavedPropertiesService) Reload(ctx context.Context) {
	s.load(ctx)
}

// Toggle removes the property if saved, otherwise saves it at the front.
// It reports whether the property is saved afterwards. At the cap the oldest
// entry is evicted; toggling the same property again before any other change
// puts the evicted entry back.
func (s *SavedPropertiesService) Toggle(ctx context.Context, property *models.Property) (bool, error) {
	if err := s.validator.ValidateSummary(property); err != nil {
		return false, err
	}

	s.mu.Lock()
	saved := false
	undo := s.undo
	s.undo = nil
	if i := s.indexSaved(property.ID); i >= 0 {
		s.saved = removeSavedAt(s.saved, i)
		if undo != nil && undo.id == property.ID && i == 0 && len(s.saved) < MaxSavedProperties {
			s.saved = append(s.saved, undo.evicted)
		}
	} else {
		next := prependSaved(s.saved, s.transformer.ToSaved(property, s.now()))
		if len(next) > MaxSavedProperties {
			s.undo = &toggleUndo{id: property.ID, evicted: next[MaxSavedProperties]}
		}
		s.saved = truncateSaved(next)
		saved = true
	}
	err := s.repo.StoreSaved(ctx, s.saved)
	s.mu.Unlock()

	s.persisted("toggle", err)
	return saved, nil
}

// Save inserts the property at the front unless it is already saved.
// It reports whether anything changed.
func (s *SavedPropertiesService) Save(ctx context.Context, property *models.Property) (bool, error) {
	if err := s.validator.ValidateSummary(property); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.indexSaved(property.ID) >= 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.undo = nil
	s.saved = truncateSaved(prependSaved(s.saved, s.transformer.ToSaved(property, s.now())))
	err := s.repo.StoreSaved(ctx, s.saved)
	s.mu.Unlock()

	s.persisted("save", err)
	return true, nil
}

// Remove drops the property with id and reports whether it was saved.
func (s *SavedPropertiesService) Remove(ctx context.Context, id int64) bool {
	s.mu.Lock()
	s.undo = nil
	i := s.indexSaved(id)
	if i >= 0 {
		s.saved = removeSavedAt(s.saved, i)
	}
	err := s.repo.StoreSaved(ctx, s.saved)
	s.mu.Unlock()

	s.persisted("remove", err)
	return i >= 0
}

// RecordView moves the property to the front of recently viewed, inserting
// it if absent.
func (s *SavedPropertiesService) RecordView(ctx context.Context, property *models.Property) error {
	if err := s.validator.ValidateSummary(property); err != nil {
		return err
	}

	s.mu.Lock()
	entry := s.transformer.ToRecentlyViewed(property, s.now())
	viewed := make([]models.RecentlyViewed, 0, len(s.viewed)+1)
	viewed = append(viewed, entry)
	for _, v := range s.viewed {
		if v.ID != property.ID {
			viewed = append(viewed, v)
		}
	}
	s.viewed = truncateViewed(viewed)
	err := s.repo.StoreRecentlyViewed(ctx, s.viewed)
	s.mu.Unlock()

	s.persisted("record_view", err)
	return nil
}

func (s *SavedPropertiesService) ClearSaved(ctx context.Context) {
	s.mu.Lock()
	s.saved = []models.SavedProperty{}
	s.undo = nil
	err := s.repo.StoreSaved(ctx, s.saved)
	s.mu.Unlock()
	s.persisted("clear_saved", err)
}

func (s *SavedPropertiesService) ClearRecentlyViewed(ctx context.Context) {
	s.mu.Lock()
	s.viewed = []models.RecentlyViewed{}
	err := s.repo.StoreRecentlyViewed(ctx, s.viewed)
	s.mu.Unlock()
	s.persisted("clear_recently_viewed", err)
}

// ClearAll empties both collections and deletes their records.
func (s *SavedPropertiesService) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.saved = []models.SavedProperty{}
	s.viewed = []models.RecentlyViewed{}
	s.undo = nil
	err := errors.Join(s.repo.DeleteSaved(ctx), s.repo.DeleteRecentlyViewed(ctx))
	s.mu.Unlock()
	s.persisted("clear_all", err)
}

// MergeToAccount adds every locally saved property to the account through
// syncer. Only acknowledged ids are removed locally; the rest stay saved and
// the returned error describes why. A server reply saying the property is
// already a favorite counts as acknowledged.
func (s *SavedPropertiesService) MergeToAccount(ctx context.Context, syncer FavoritesSyncer) (MergeResult, error) {
	var result MergeResult
	s.mu.Lock()
	ids := make([]int64, len(s.saved))
	for i, p := range s.saved {
		ids[i] = p.ID
	}
	s.mu.Unlock()

	var errs []error
	acked := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			result.Failed = append(result.Failed, id)
			errs = append(errs, err)
			continue
		}
		if err := syncer.AddFavorite(ctx, id); err != nil && !alreadyFavorite(err) {
			s.log.Warnf("Failed to sync saved property: property_id=%d, error=%v", id, err)
			result.Failed = append(result.Failed, id)
			errs = append(errs, fmt.Errorf("property %d: %w", id, err))
			continue
		}
		acked[id] = true
		result.Synced = append(result.Synced, id)
	}

	if len(acked) > 0 {
		s.mu.Lock()
		kept := make([]models.SavedProperty, 0, len(s.saved))
		for _, p := range s.saved {
			if !acked[p.ID] {
				kept = append(kept, p)
			}
		}
		s.saved = kept
		s.undo = nil
		var err error
		if len(kept) == 0 {
			err = s.repo.DeleteSaved(ctx)
		} else {
			err = s.repo.StoreSaved(ctx, kept)
		}
		s.mu.Unlock()
		s.persisted("merge", err)
	}

	s.log.Printf("Merged saved properties into account: synced=%d, failed=%d", len(result.Synced), len(result.Failed))
	return result, errors.Join(errs...)
}

func alreadyFavorite(err error) bool {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Kind != api.KindValidation {
		return false
	}
	return strings.Contains(strings.ToLower(apiErr.Detail()), "already")
}

func (s *SavedPropertiesService) IsSaved(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexSaved(id) >= 0
}

// Saved returns a copy, most recently saved first.
func (s *SavedPropertiesService) Saved() []models.SavedProperty {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.SavedProperty, len(s.saved))
	copy(out, s.saved)
	return out
}

// RecentlyViewed returns a copy, most recently viewed first.
func (s *SavedPropertiesService) RecentlyViewed() []models.RecentlyViewed {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.RecentlyViewed, len(s.viewed))
	copy(out, s.viewed)
	return out
}

func (s *SavedPropertiesService) SavedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func (s *SavedPropertiesService) RecentlyViewedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewed)
}

// LastPersistError returns the most recent storage failure, or nil if the
// last write succeeded.
func (s *SavedPropertiesService) LastPersistError() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastPersistErr
}

func (s *SavedPropertiesService) persisted(op string, err error) {
	s.errMu.Lock()
	s.lastPersistErr = err
	hook := s.onPersistError
	s.errMu.Unlock()

	if err == nil {
		return
	}
	s.log.Errorf("Failed to persist local saves: operation=%s, error=%v", op, err)
	if hook != nil {
		hook(err)
	}
}

func (s *SavedPropertiesService) indexSaved(id int64) int {
	for i, p := range s.saved {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func prependSaved(list []models.SavedProperty, p models.SavedProperty) []models.SavedProperty {
	out := make([]models.SavedProperty, 0, len(list)+1)
	out = append(out, p)
	return append(out, list...)
}

func removeSavedAt(list []models.SavedProperty, i int) []models.SavedProperty {
	out := make([]models.SavedProperty, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func truncateSaved(list []models.SavedProperty) []models.SavedProperty {
	if list == nil {
		return []models.SavedProperty{}
	}
	if len(list) > MaxSavedProperties {
		return list[:MaxSavedProperties]
	}
	return list
}

func truncateViewed(list []models.RecentlyViewed) []models.RecentlyViewed {
	if list == nil {
		return []models.RecentlyViewed{}
	}
	if len(list) > MaxRecentlyViewed {
		return list[:MaxRecentlyViewed]
	}
	return list
}
