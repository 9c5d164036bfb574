package menu

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/dinein-kiosk/internal/obs"
)

// ErrNoFetcher is returned when Refresh is called without a menu source.
var ErrNoFetcher = errors.New("menu: fetcher not configured")

// Fetcher loads the current menu from the backend.
type Fetcher interface {
	FetchMenu(ctx context.Context) ([]Item, error)
}

// Catalog holds the last successfully loaded menu. Reads may run concurrently
// with a refresh.
type Catalog struct {
	mu       sync.RWMutex
	items    []Item
	index    map[string]int
	loadedAt time.Time
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCatalog constructs an empty catalog.
func NewCatalog(logger zerolog.Logger) *Catalog {
	return &Catalog{index: map[string]int{}, logger: logger, now: time.Now}
}

// Refresh replaces the catalog with a freshly fetched menu. On any failure the
// previously loaded items are kept and the error is returned for display.
func (c *Catalog) Refresh(ctx context.Context, f Fetcher) error {
	if f == nil {
		return ErrNoFetcher
	}
	items, err := f.FetchMenu(ctx)
	if err != nil {
		recordRefresh("error")
		c.logger.Warn().Err(err).Int("retained_items", c.Len()).Msg("menu_refresh_failed")
		return fmt.Errorf("refresh menu: %w", err)
	}
	c.Replace(items)
	recordRefresh("ok")
	c.logger.Info().Int("items", len(items)).Msg("menu_refreshed")
	return nil
}

// Replace installs items as the current menu. Later duplicates of an id are ignored.
func (c *Catalog) Replace(items []Item) {
	next := make([]Item, 0, len(items))
	index := make(map[string]int, len(items))
	for _, it := range items {
		if _, dup := index[it.ID]; dup {
			continue
		}
		index[it.ID] = len(next)
		next = append(next, it)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = next
	c.index = index
	c.loadedAt = c.now()
}

// Items returns a copy of the menu in backend order.
func (c *Catalog) Items() []Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Lookup finds an item by id.
func (c *Catalog) Lookup(id string) (Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Len returns the number of menu items.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// LoadedAt returns when the current menu was installed; zero if never.
func (c *Catalog) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

func recordRefresh(result string) {
	if obs.MenuRefreshTotal != nil {
		obs.MenuRefreshTotal.WithLabelValues(result).Inc()
	}
}
