package cache

import (
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestKeyIsOrderIndependent(t *testing.T) {
	a := NewKey("/properties/", url.Values{"page": {"1"}, "city": {"Harare"}})
	b := NewKey("properties/?city=Harare", url.Values{"page": {"1"}})
	assert.Equal(t, a, b)
	assert.Equal(t, "/properties/?city=Harare&page=1", a.String())
}

func TestKeyAvoidsConcatenationCollisions(t *testing.T) {
	a := NewKey("/properties/", url.Values{"q": {"a&b=c"}})
	b := NewKey("/properties/", url.Values{"q": {"a"}, "b": {"c"}})
	assert.NotEqual(t, a, b)
}

func TestTTLExpiry(t *testing.T) {
	clock := newClock()
	c := NewResponseCache(5*time.Minute, 10, WithClock(clock.Now))
	k := NewKey("/properties/", url.Values{"page": {"1"}})

	c.Set(k, []byte(`{"results":[]}`))
	clock.Advance(4*time.Minute + 59*time.Second)
	got, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, `{"results":[]}`, string(got))

	clock.Advance(time.Second)
	_, ok = c.Get(k)
	assert.False(t, ok, "entry is a miss once the TTL has elapsed")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
}

func TestSetRefreshesStoredAt(t *testing.T) {
	clock := newClock()
	c := NewResponseCache(time.Minute, 10, WithClock(clock.Now))
	k := NewKey("/agents/", nil)

	c.Set(k, []byte("v1"))
	clock.Advance(50 * time.Second)
	c.Set(k, []byte("v2"))
	clock.Advance(50 * time.Second)

	got, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, "v2", string(got))
}

func TestFIFOBound(t *testing.T) {
	c := NewResponseCache(time.Minute, 3)
	for i := 0; i < 4; i++ {
		c.Set(NewKey(fmt.Sprintf("/properties/%d/", i), nil), []byte("x"))
	}
	assert.Equal(t, 3, c.Len())
	_, ok := c.Get(NewKey("/properties/0/", nil))
	assert.False(t, ok, "oldest entry evicted first")
	_, ok = c.Get(NewKey("/properties/3/", nil))
	assert.True(t, ok)
}

func TestInvalidatePath(t *testing.T) {
	c := NewResponseCache(time.Minute, 100)
	detail := NewKey("/properties/5/", nil)
	stats := NewKey("/properties/5/stats/", nil)
	list := NewKey("/properties/", url.Values{"page": {"1"}})
	other := NewKey("/properties/7/", nil)
	similar := NewKey("/properties/50/", nil)
	unrelated := NewKey("/agents/", nil)
	for _, k := range []Key{detail, stats, list, other, similar, unrelated} {
		c.Set(k, []byte("x"))
	}

	removed := c.InvalidatePath("/properties/5/")
	assert.Equal(t, 3, removed)

	for _, k := range []Key{detail, stats, list} {
		_, ok := c.Get(k)
		assert.False(t, ok, k.String())
	}
	for _, k := range []Key{other, similar, unrelated} {
		_, ok := c.Get(k)
		assert.True(t, ok, k.String())
	}
}

func TestInvalidateCollection(t *testing.T) {
	c := NewResponseCache(time.Minute, 100)
	c.Set(NewKey("/properties/", url.Values{"page": {"2"}}), []byte("x"))
	c.Set(NewKey("/properties/9/", nil), []byte("x"))
	c.Set(NewKey("/favorites/", nil), []byte("x"))

	assert.Equal(t, 2, c.InvalidatePath("/properties/"))
	assert.Equal(t, 1, c.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	c := NewResponseCache(time.Minute, 10)
	k := NewKey("/x/", nil)
	c.Set(k, []byte("abc"))
	got, _ := c.Get(k)
	got[0] = 'z'
	again, _ := c.Get(k)
	assert.Equal(t, "abc", string(again))
}

func TestParentCollection(t *testing.T) {
	assert.Equal(t, "/properties/", ParentCollection("/properties/5/"))
	assert.Equal(t, "/properties/", ParentCollection("/properties/5"))
	assert.Equal(t, "/properties/5/", ParentCollection("/properties/5/stats/"))
	assert.Equal(t, "", ParentCollection("/properties/"))
}
