package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"houseofstone-client/internal/models"
	"houseofstone-client/internal/repositories"
	"houseofstone-client/pkg/api"
	"houseofstone-client/pkg/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newService(t *testing.T, store *storage.MemoryStore, opts ...SavedOption) *SavedPropertiesService {
	t.Helper()
	c := &clock{now: time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)}
	opts = append([]SavedOption{WithSavedClock(c.Now)}, opts...)
	return NewSavedPropertiesService(context.Background(), repositories.NewSavesRepository(store), opts...)
}

func property(id int64) *models.Property {
	return &models.Property{ID: id, Title: fmt.Sprintf("Property %d", id), Price: decimal.NewFromInt(id * 1000)}
}

func TestToggleVilla(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	villa := &models.Property{ID: 42, Title: "Villa", Price: decimal.NewFromInt(500000)}
	saved, err := svc.Toggle(ctx, villa)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.True(t, svc.IsSaved(42))
	assert.Equal(t, 1, svc.SavedCount())

	raw, ok := store.Raw(storage.KeySavedProps)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":42,"title":"Villa","price":500000,"location":"","beds":null,"baths":null,"sqft":null,"status":"","property_type":"","primaryImage":null,"savedAt":"2026-04-01T08:00:01Z"}]`, string(raw))

	saved, err = svc.Toggle(ctx, villa)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.False(t, svc.IsSaved(42))
	raw, _ = store.Raw(storage.KeySavedProps)
	assert.Equal(t, "[]", string(raw))
}

func TestToggleTwiceRestoresStoredBytes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	for _, id := range []int64{1, 2, 3} {
		_, err := svc.Toggle(ctx, property(id))
		require.NoError(t, err)
	}
	before, _ := store.Raw(storage.KeySavedProps)

	_, err := svc.Toggle(ctx, property(9))
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, property(9))
	require.NoError(t, err)

	after, _ := store.Raw(storage.KeySavedProps)
	assert.Equal(t, before, after)
}

func TestSavedCapDropsOldest(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	for id := int64(1); id <= 51; id++ {
		_, err := svc.Toggle(ctx, property(id))
		require.NoError(t, err)
	}
	saved := svc.Saved()
	require.Len(t, saved, MaxSavedProperties)
	assert.Equal(t, int64(51), saved[0].ID, "most recent first")
	assert.Equal(t, int64(2), saved[len(saved)-1].ID)
	assert.False(t, svc.IsSaved(1))

	reloaded := newService(t, store)
	assert.Equal(t, MaxSavedProperties, reloaded.SavedCount())
}

func TestToggleTwiceAtCapRestoresStoredBytes(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	for id := int64(1); id <= MaxSavedProperties; id++ {
		_, err := svc.Toggle(ctx, property(id))
		require.NoError(t, err)
	}
	before, _ := store.Raw(storage.KeySavedProps)

	saved, err := svc.Toggle(ctx, property(999))
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, MaxSavedProperties, svc.SavedCount())
	assert.False(t, svc.IsSaved(1), "oldest evicted while 999 is saved")

	saved, err = svc.Toggle(ctx, property(999))
	require.NoError(t, err)
	assert.False(t, saved)

	after, _ := store.Raw(storage.KeySavedProps)
	assert.Equal(t, string(before), string(after))
	assert.True(t, svc.IsSaved(1))
}

func TestToggleAtCapEvictionIsFinalAfterOtherChange(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, storage.NewMemoryStore())

	for id := int64(1); id <= MaxSavedProperties; id++ {
		_, err := svc.Toggle(ctx, property(id))
		require.NoError(t, err)
	}
	_, err := svc.Toggle(ctx, property(999))
	require.NoError(t, err)
	assert.True(t, svc.Remove(ctx, 50))

	_, err = svc.Toggle(ctx, property(999))
	require.NoError(t, err)
	assert.False(t, svc.IsSaved(1))
	assert.Equal(t, MaxSavedProperties-2, svc.SavedCount())
}

func TestSaveAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, storage.NewMemoryStore())

	changed, err := svc.Save(ctx, property(5))
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = svc.Save(ctx, property(5))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 1, svc.SavedCount())

	assert.True(t, svc.Remove(ctx, 5))
	assert.False(t, svc.Remove(ctx, 5))
	assert.Zero(t, svc.SavedCount())
}

func TestInvalidPropertyRejected(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)

	_, err := svc.Toggle(ctx, &models.Property{Title: "no id"})
	assert.Error(t, err)
	_, err = svc.Toggle(ctx, &models.Property{ID: 3})
	assert.Error(t, err)
	_, err = svc.Toggle(ctx, nil)
	assert.Error(t, err)
	assert.Error(t, svc.RecordView(ctx, &models.Property{ID: 3, Title: "neg", Price: decimal.NewFromInt(-1)}))

	_, ok := store.Raw(storage.KeySavedProps)
	assert.False(t, ok, "nothing persisted")
}

func TestRecordView(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, storage.NewMemoryStore())

	for id := int64(1); id <= 25; id++ {
		require.NoError(t, svc.RecordView(ctx, property(id)))
	}
	require.NoError(t, svc.RecordView(ctx, property(10)))

	viewed := svc.RecentlyViewed()
	require.Len(t, viewed, MaxRecentlyViewed)
	assert.Equal(t, int64(10), viewed[0].ID, "re-viewed moves to front")
	assert.Equal(t, int64(25), viewed[1].ID)

	seen := map[int64]bool{}
	for _, v := range viewed {
		assert.False(t, seen[v.ID], "no duplicates")
		seen[v.ID] = true
	}
	assert.Zero(t, svc.SavedCount(), "viewing does not save")
}

func TestClearOperations(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)
	_, _ = svc.Toggle(ctx, property(1))
	require.NoError(t, svc.RecordView(ctx, property(2)))

	svc.ClearRecentlyViewed(ctx)
	assert.Zero(t, svc.RecentlyViewedCount())
	assert.Equal(t, 1, svc.SavedCount())

	svc.ClearSaved(ctx)
	raw, _ := store.Raw(storage.KeySavedProps)
	assert.Equal(t, "[]", string(raw))

	_, _ = svc.Toggle(ctx, property(3))
	svc.ClearAll(ctx)
	assert.Zero(t, svc.SavedCount())
	_, ok := store.Raw(storage.KeySavedProps)
	assert.False(t, ok)
	_, ok = store.Raw(storage.KeyRecentlyViewed)
	assert.False(t, ok)
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	var hooked []error
	svc := newService(t, store, WithPersistErrorHook(func(err error) { hooked = append(hooked, err) }))

	store.FailWrites(errors.New("quota exceeded"))
	saved, err := svc.Toggle(ctx, property(8))
	require.NoError(t, err)
	assert.True(t, saved)
	assert.True(t, svc.IsSaved(8))

	var storeErr *storage.StoreError
	require.ErrorAs(t, svc.LastPersistError(), &storeErr)
	assert.Equal(t, "set", storeErr.Operation)
	require.Len(t, hooked, 1)

	store.FailWrites(nil)
	require.NoError(t, svc.RecordView(ctx, property(8)))
	assert.NoError(t, svc.LastPersistError())
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	first := newService(t, store)
	second := newService(t, store)

	_, _ = first.Toggle(ctx, property(1))
	assert.False(t, second.IsSaved(1))
	second.Reload(ctx)
	assert.True(t, second.IsSaved(1))
}

func TestCorruptStorageStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, storage.KeySavedProps, "garbage"))

	svc := newService(t, store)
	assert.Zero(t, svc.SavedCount())
	_, err := svc.Toggle(ctx, property(1))
	require.NoError(t, err)
	assert.Equal(t, 1, svc.SavedCount())
}

type fakeSyncer struct {
	mu     sync.Mutex
	calls  []int64
	failOn map[int64]error
}

func (f *fakeSyncer) AddFavorite(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, id)
	return f.failOn[id]
}

func TestMergeToAccountRemovesOnlyAcknowledged(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := newService(t, store)
	for _, id := range []int64{1, 2, 3, 4} {
		_, _ = svc.Toggle(ctx, property(id))
	}

	syncer := &fakeSyncer{failOn: map[int64]error{
		2: &api.Error{Kind: api.KindServer, Status: http.StatusInternalServerError},
		3: &api.Error{Kind: api.KindValidation, Status: http.StatusBadRequest, Body: []byte(`{"detail":"Property already in favorites"}`)},
	}}
	result, err := svc.MergeToAccount(ctx, syncer)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "property 2")

	assert.ElementsMatch(t, []int64{1, 3, 4}, result.Synced)
	assert.Equal(t, []int64{2}, result.Failed)
	assert.Equal(t, []int64{4, 3, 2, 1}, syncer.calls)

	saved := svc.Saved()
	require.Len(t, saved, 1)
	assert.Equal(t, int64(2), saved[0].ID)

	syncer.failOn = nil
	result, err = svc.MergeToAccount(ctx, syncer)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, result.Synced)
	assert.Zero(t, svc.SavedCount())
	_, ok := store.Raw(storage.KeySavedProps)
	assert.False(t, ok, "record removed once everything merged")
}

func TestMergeToAccountCanceled(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := newService(t, store)
	_, _ = svc.Toggle(context.Background(), property(1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := svc.MergeToAccount(ctx, &fakeSyncer{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{1}, result.Failed)
	assert.True(t, svc.IsSaved(1))
}

func TestConcurrentToggles(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, storage.NewMemoryStore())

	var wg sync.WaitGroup
	for id := int64(1); id <= 40; id++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _ = svc.Toggle(ctx, property(id))
		}(id)
	}
	wg.Wait()
	assert.Equal(t, 40, svc.SavedCount())
}
