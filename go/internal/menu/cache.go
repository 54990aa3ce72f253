package menu

import (
	"context"
	"sync"

	"github.com/mcdev12/buffet/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrLoadMessage is shown when the catalog cannot be fetched
const ErrLoadMessage = "ไม่สามารถโหลดเมนูได้"

// Fetcher is what the cache needs from the API client
type Fetcher interface {
	GetMenu(ctx context.Context) ([]models.MenuItem, error)
}

// Category is one group of the derived menu view
type Category struct {
	Name  string
	Items []models.MenuItem
}

// Cache keeps the last successfully fetched catalog.
type Cache struct {
	fetcher Fetcher

	mu      sync.RWMutex
	items   []models.MenuItem
	lastErr string

	// Refreshes may overlap; only a response newer than the last applied one
	// is kept.
	issued  uint64
	applied uint64
}

// NewCache creates an empty menu cache
func NewCache(fetcher Fetcher) *Cache {
	return &Cache{fetcher: fetcher}
}

// Refresh replaces the cached catalog. On failure the previous catalog stays
// in place and LastError is set. A response that finishes after a newer
// refresh has already landed is discarded.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	items, err := c.fetcher.GetMenu(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.applied {
		log.Debug().Uint64("seq", seq).Uint64("applied", c.applied).Msg("dropping stale menu response")
		return err
	}
	c.applied = seq

	if err != nil {
		log.Error().Err(err).Msg("failed to refresh menu")
		c.lastErr = ErrLoadMessage
		return err
	}

	c.items = append([]models.MenuItem(nil), items...)
	c.lastErr = ""
	log.Debug().Int("items", len(items)).Msg("menu refreshed")
	return nil
}

// Items returns a copy of the flat catalog
func (c *Cache) Items() []models.MenuItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.MenuItem(nil), c.items...)
}

// Lookup finds a cached item by id
func (c *Cache) Lookup(id models.ID) (models.MenuItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return models.MenuItem{}, false
}

// LastError is the user-facing message of the last failed refresh, if any
func (c *Cache) LastError() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Grouped recomputes the category view from the cached catalog
func (c *Cache) Grouped() []Category {
	return Group(c.Items())
}

// Group buckets items by category. Categories appear in first-seen order and
// items keep their relative order inside each category.
func Group(items []models.MenuItem) []Category {
	var groups []Category
	index := make(map[string]int)
	for _, item := range items {
		i, ok := index[item.Category]
		if !ok {
			i = len(groups)
			index[item.Category] = i
			groups = append(groups, Category{Name: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// Flatten concatenates grouped items back into one list
func Flatten(groups []Category) []models.MenuItem {
	var items []models.MenuItem
	for _, g := range groups {
		items = append(items, g.Items...)
	}
	return items
}
