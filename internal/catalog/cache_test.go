package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
)

type fakeSource struct {
	mu        sync.Mutex
	items     []models.CatalogItem
	listErr   error
	block     chan struct{}
	listCalls atomic.Int32
	getCalls  atomic.Int32
	extra     map[string]models.CatalogItem
	// delay makes each remote call take this long unless ctx ends first.
	delay time.Duration
}

func (f *fakeSource) wait(ctx context.Context) error {
	if f.delay == 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeSource) ListCatalogItems(ctx context.Context) ([]models.CatalogItem, error) {
	n := f.listCalls.Add(1)
	if f.block != nil && n > 1 {
		<-f.block
	}
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.items, nil
}

func (f *fakeSource) RetrieveCatalogItem(ctx context.Context, variationID string) (*models.CatalogItem, error) {
	f.getCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if item, ok := f.extra[variationID]; ok {
		return &item, nil
	}
	return nil, models.ErrCatalogNotFound
}

func (f *fakeSource) setItems(items []models.CatalogItem) {
	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
}

func burger() models.CatalogItem {
	return models.CatalogItem{
		ID:   "I1",
		Name: "Burger",
		Variations: []models.CatalogVariation{
			{ID: "V1", ItemID: "I1", Name: "Regular", Price: &models.Money{Amount: 999, Currency: "USD"}},
		},
		ModifierLists: []models.ModifierList{
			{ID: "L1", Name: "Toppings", Modifiers: []models.CatalogModifier{{ID: "M1", Name: "no onions"}}},
		},
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestCache(src Source) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(src, time.Minute, time.Second, logger.Nop())
	c.now = clock.Now
	return c, clock
}

func TestCache_ColdLoadIsShared(t *testing.T) {
	src := &fakeSource{items: []models.CatalogItem{burger()}}
	c, _ := newTestCache(src)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			items, err := c.Items(context.Background())
			assert.NoError(t, err)
			assert.Len(t, items, 1)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, src.listCalls.Load(), int32(2))
}

func TestCache_ReadersDuringRefreshSeeOldSnapshot(t *testing.T) {
	src := &fakeSource{items: []models.CatalogItem{burger()}, block: make(chan struct{})}
	c, clock := newTestCache(src)
	require.NoError(t, c.Warm(context.Background()))

	old, err := c.Snapshot(context.Background())
	require.NoError(t, err)

	updated := burger()
	updated.Name = "Cheeseburger"
	src.setItems([]models.CatalogItem{updated})
	clock.Advance(2 * time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := c.Snapshot(context.Background())
			assert.NoError(t, err)
			assert.Same(t, old, snap)
		}()
	}
	wg.Wait()

	assert.Eventually(t, func() bool { return src.listCalls.Load() == 2 }, time.Second, 5*time.Millisecond)
	_, err = c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.listCalls.Load(), "exactly one refresh must be in flight")

	close(src.block)
	c.Wait()

	snap, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cheeseburger", snap.Items[0].Name)
}

func TestCache_FailedRefreshKeepsLastKnownGood(t *testing.T) {
	src := &fakeSource{items: []models.CatalogItem{burger()}}
	c, clock := newTestCache(src)
	require.NoError(t, c.Warm(context.Background()))

	src.mu.Lock()
	src.listErr = errors.New("square down")
	src.mu.Unlock()
	clock.Advance(2 * time.Minute)

	_, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	c.Wait()

	item, err := c.ItemForVariation(context.Background(), "V1")
	require.NoError(t, err)
	assert.Equal(t, "Burger", item.Name)
}

func TestCache_FailedRefreshWaitsForNextWindow(t *testing.T) {
	src := &fakeSource{items: []models.CatalogItem{burger()}}
	c, clock := newTestCache(src)
	require.NoError(t, c.Warm(context.Background()))

	src.mu.Lock()
	src.listErr = errors.New("square down")
	src.mu.Unlock()
	clock.Advance(2 * time.Minute)

	_, err := c.Snapshot(context.Background())
	require.NoError(t, err)
	c.Wait()
	require.Equal(t, int32(2), src.listCalls.Load())

	for i := 0; i < 10; i++ {
		snap, err := c.Snapshot(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "Burger", snap.Items[0].Name)
		c.Wait()
	}
	assert.Equal(t, int32(2), src.listCalls.Load(), "no refresh until a TTL has passed since the failed one")

	clock.Advance(time.Minute)
	_, err = c.Snapshot(context.Background())
	require.NoError(t, err)
	c.Wait()
	assert.Equal(t, int32(3), src.listCalls.Load())
}

func TestCache_SharedLoadOutlivesImpatientCaller(t *testing.T) {
	src := &fakeSource{items: []models.CatalogItem{burger()}, delay: 100 * time.Millisecond}
	c, _ := newTestCache(src)

	impatient, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, err := c.Items(impatient)
		errCh <- err
	}()
	time.Sleep(5 * time.Millisecond)

	items, err := c.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
	assert.Equal(t, int32(1), src.listCalls.Load())
}

func TestCache_SharedLiveLookupOutlivesImpatientCaller(t *testing.T) {
	fries := models.CatalogItem{
		ID:         "I2",
		Name:       "Fries",
		Variations: []models.CatalogVariation{{ID: "V2", ItemID: "I2", Name: "Large"}},
	}
	src := &fakeSource{
		items: []models.CatalogItem{burger()},
		extra: map[string]models.CatalogItem{"V2": fries},
	}
	c, _ := newTestCache(src)
	require.NoError(t, c.Warm(context.Background()))
	src.delay = 100 * time.Millisecond

	impatient, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, err := c.ItemForVariation(impatient, "V2")
		errCh <- err
	}()
	time.Sleep(5 * time.Millisecond)

	item, err := c.ItemForVariation(context.Background(), "V2")
	require.NoError(t, err)
	assert.Equal(t, "Fries", item.Name)
	assert.ErrorIs(t, <-errCh, context.DeadlineExceeded)
	assert.Equal(t, int32(1), src.getCalls.Load())
}

func TestCache_ColdLoadFailure(t *testing.T) {
	src := &fakeSource{listErr: errors.New("boom")}
	c, _ := newTestCache(src)

	_, err := c.Items(context.Background())
	assert.Error(t, err)
}

func TestCache_ItemForVariation_LiveMiss(t *testing.T) {
	fries := models.CatalogItem{
		ID:         "I2",
		Name:       "Fries",
		Variations: []models.CatalogVariation{{ID: "V2", ItemID: "I2", Name: "Large"}},
	}
	src := &fakeSource{
		items: []models.CatalogItem{burger()},
		extra: map[string]models.CatalogItem{"V2": fries},
	}
	c, _ := newTestCache(src)
	require.NoError(t, c.Warm(context.Background()))

	item, err := c.ItemForVariation(context.Background(), "V1")
	require.NoError(t, err)
	assert.Equal(t, "I1", item.ID)
	assert.Equal(t, int32(0), src.getCalls.Load())

	item, err = c.ItemForVariation(context.Background(), "V2")
	require.NoError(t, err)
	assert.Equal(t, "Fries", item.Name)

	_, err = c.ItemForVariation(context.Background(), "V2")
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.getCalls.Load(), "live hits are remembered until the next refresh")

	_, err = c.ItemForVariation(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrCatalogNotFound)
}

func TestCache_ModifierExists(t *testing.T) {
	src := &fakeSource{items: []models.CatalogItem{burger()}}
	c, _ := newTestCache(src)

	assert.True(t, c.ModifierExists(context.Background(), "M1"))
	assert.False(t, c.ModifierExists(context.Background(), "M404"))
}
