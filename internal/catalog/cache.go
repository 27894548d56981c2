// Package catalog keeps a read-through snapshot of the remote catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/isaac-anthony/mano/internal/logger"
	"github.com/isaac-anthony/mano/internal/models"
)

// Source is the remote catalog the cache reads through to.
type Source interface {
	ListCatalogItems(ctx context.Context) ([]models.CatalogItem, error)
	// RetrieveCatalogItem returns the item owning variationID, or an error
	// wrapping models.ErrCatalogNotFound.
	RetrieveCatalogItem(ctx context.Context, variationID string) (*models.CatalogItem, error)
}

// Snapshot is an immutable copy of the catalog at one point in time.
type Snapshot struct {
	Items       []models.CatalogItem
	FetchedAt   time.Time
	byVariation map[string]int
	modifiers   map[string]bool
}

func newSnapshot(items []models.CatalogItem, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		Items:       items,
		FetchedAt:   fetchedAt,
		byVariation: make(map[string]int),
		modifiers:   make(map[string]bool),
	}
	for i, item := range items {
		for _, v := range item.Variations {
			s.byVariation[v.ID] = i
		}
		for _, list := range item.ModifierLists {
			for _, m := range list.Modifiers {
				s.modifiers[m.ID] = true
			}
		}
	}
	return s
}

// HasModifier reports whether any item in the snapshot offers the modifier.
func (s *Snapshot) HasModifier(modifierID string) bool {
	return s != nil && s.modifiers[modifierID]
}

// ItemForVariation returns the item that owns the variation.
func (s *Snapshot) ItemForVariation(variationID string) (models.CatalogItem, bool) {
	if s == nil {
		return models.CatalogItem{}, false
	}
	i, ok := s.byVariation[variationID]
	if !ok {
		return models.CatalogItem{}, false
	}
	return s.Items[i], true
}

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

// Cache serves the last-known-good snapshot to any number of readers. When the
// snapshot is older than the TTL the first reader to notice starts a single
// background refresh; everyone keeps reading the old snapshot until it lands.
type Cache struct {
	source       Source
	ttl          time.Duration
	fetchTimeout time.Duration
	logger       *logger.Logger
	now          func() time.Time

	mu       sync.Mutex
	snapshot *Snapshot
	state    refreshState
	// attemptedAt is when the last refresh started, successful or not. The
	// next one waits a full TTL from here.
	attemptedAt time.Time
	// live holds items found by cache-miss lookups since the last refresh.
	live map[string]models.CatalogItem

	group singleflight.Group
	wg    sync.WaitGroup
}

// NewCache creates an empty cache. fetchTimeout bounds every remote call the
// cache makes on its own behalf.
func NewCache(source Source, ttl, fetchTimeout time.Duration, log *logger.Logger) *Cache {
	return &Cache{
		source:       source,
		ttl:          ttl,
		fetchTimeout: fetchTimeout,
		logger:       log,
		now:          time.Now,
		live:         make(map[string]models.CatalogItem),
	}
}

// Warm loads the first snapshot synchronously.
func (c *Cache) Warm(ctx context.Context) error {
	_, err := c.load(ctx)
	return err
}

// Snapshot returns the current snapshot, loading it on first use. A stale
// snapshot is returned as-is while a refresh runs in the background.
func (c *Cache) Snapshot(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	snap := c.snapshot
	now := c.now()
	if snap != nil && c.state == stateIdle &&
		now.Sub(snap.FetchedAt) >= c.ttl && now.Sub(c.attemptedAt) >= c.ttl {
		c.state = stateRefreshing
		c.attemptedAt = now
		c.wg.Add(1)
		go c.refresh()
	}
	c.mu.Unlock()

	if snap != nil {
		return snap, nil
	}
	return c.load(ctx)
}

// Items returns every catalog item in the current snapshot.
func (c *Cache) Items(ctx context.Context) ([]models.CatalogItem, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

// ModifierExists reports whether the modifier is offered by any item. It
// consults the snapshot only.
func (c *Cache) ModifierExists(ctx context.Context, modifierID string) bool {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return false
	}
	return snap.HasModifier(modifierID)
}

// ItemForVariation returns the item owning variationID. A miss in the
// snapshot falls through to a live lookup; concurrent misses for the same id
// share one remote call.
func (c *Cache) ItemForVariation(ctx context.Context, variationID string) (models.CatalogItem, error) {
	snap, err := c.Snapshot(ctx)
	if err != nil {
		c.logger.Warn("catalog_snapshot_unavailable", "Falling back to live lookup", "", map[string]interface{}{
			"variation_id": variationID,
			"error":        err.Error(),
		})
	}
	if item, ok := snap.ItemForVariation(variationID); ok {
		return item, nil
	}

	c.mu.Lock()
	item, ok := c.live[variationID]
	c.mu.Unlock()
	if ok {
		return item, nil
	}

	v, err := c.shared(ctx, "variation:"+variationID, func(fetchCtx context.Context) (interface{}, error) {
		return c.source.RetrieveCatalogItem(fetchCtx, variationID)
	})
	if err != nil {
		if errors.Is(err, models.ErrCatalogNotFound) {
			return models.CatalogItem{}, err
		}
		return models.CatalogItem{}, fmt.Errorf("live catalog lookup: %w", err)
	}

	found := *v.(*models.CatalogItem)
	c.mu.Lock()
	for _, variation := range found.Variations {
		c.live[variation.ID] = found
	}
	c.mu.Unlock()

	c.logger.Debug("catalog_live_hit", "Resolved variation by live lookup", "", map[string]interface{}{
		"variation_id": variationID,
		"item_id":      found.ID,
	})
	return found, nil
}

// load fetches the first snapshot. Concurrent cold callers share one fetch.
func (c *Cache) load(ctx context.Context) (*Snapshot, error) {
	v, err := c.shared(ctx, "snapshot", func(fetchCtx context.Context) (interface{}, error) {
		c.mu.Lock()
		if c.snapshot != nil {
			snap := c.snapshot
			c.mu.Unlock()
			return snap, nil
		}
		c.attemptedAt = c.now()
		c.mu.Unlock()

		return c.fetch(fetchCtx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// shared runs fn once for all concurrent callers of key. The remote call is
// bounded by fetchTimeout only, so a caller that gives up early does not fail
// the others; it just stops waiting.
func (c *Cache) shared(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := c.group.DoChan(key, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchTimeout)
		defer cancel()
		return fn(fetchCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) refresh() {
	defer c.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), c.fetchTimeout)
	defer cancel()

	_, err := c.fetch(ctx)

	c.mu.Lock()
	c.state = stateIdle
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("catalog_refresh_failed", "Keeping last-known-good catalog", "", err, nil)
	}
}

// fetch pulls the full catalog and installs it as the current snapshot.
func (c *Cache) fetch(ctx context.Context) (*Snapshot, error) {
	start := c.now()
	items, err := c.source.ListCatalogItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	snap := newSnapshot(items, c.now())

	c.mu.Lock()
	c.snapshot = snap
	c.live = make(map[string]models.CatalogItem)
	c.mu.Unlock()

	c.logger.Info("catalog_refreshed", fmt.Sprintf("Fetched %d catalog items", len(items)), "", map[string]interface{}{
		"items":       len(items),
		"duration_ms": c.now().Sub(start).Milliseconds(),
	})
	return snap, nil
}

// Wait blocks until any background refresh has finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}
