package cli

import (
	"context"
	"sync"

	"github.com/ironsheep/trailscan/internal/archive"
	"github.com/ironsheep/trailscan/internal/survey"
)

// evictingCatalog serves catalogs from a Store and evicts each field's
// catalog once every planned filter of that field has asked for it.
type evictingCatalog struct {
	store *archive.Store

	mu        sync.Mutex
	remaining map[survey.FrameID]int
}

func newEvictingCatalog(store *archive.Store, frames []survey.FrameID) *evictingCatalog {
	c := &evictingCatalog{store: store, remaining: make(map[survey.FrameID]int)}
	for _, id := range frames {
		c.remaining[fieldKey(id)]++
	}
	return c
}

func fieldKey(id survey.FrameID) survey.FrameID {
	id.Filter = ""
	return id
}

func (c *evictingCatalog) Sources(ctx context.Context, id survey.FrameID) ([]survey.CatalogSource, error) {
	sources, err := c.store.Sources(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	key := fieldKey(id)
	c.remaining[key]--
	if c.remaining[key] <= 0 {
		delete(c.remaining, key)
		c.store.Evict(id)
	}
	return sources, err
}
