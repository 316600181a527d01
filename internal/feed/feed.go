// Package feed is the TTL-bounded, page-accumulating cache for the course
// feed. Pages come from the remote store via cursor pagination on the
// course creation time (descending); the accumulated result is snapshotted
// into the local cache so cold starts inside the TTL need no remote call.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dayhubapp/dayhub/internal/common"
	"github.com/dayhubapp/dayhub/internal/docstore"
	"github.com/dayhubapp/dayhub/internal/localstore"
	"github.com/dayhubapp/dayhub/internal/logging"
)

// Course is an immutable-once-published content record. CreatedAt (Unix
// milliseconds) doubles as the pagination cursor.
type Course struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
	Level       string `json:"level,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

// envelope is the local snapshot. HasMore is stored explicitly; envelopes
// written before that field existed fall back to the count heuristic.
type envelope struct {
	Items       []Course `json:"items"`
	LastFetched int64    `json:"lastFetched"`
	HasMore     *bool    `json:"hasMore,omitempty"`
}

type Cache struct {
	local  localstore.Store
	remote docstore.Store
	log    logging.Logger

	pageSize int
	ttl      time.Duration
	now      func() time.Time

	mu      sync.Mutex
	items   []Course
	hasMore bool
	loaded  bool
}

func NewCache(local localstore.Store, remote docstore.Store, log logging.Logger) *Cache {
	return &Cache{
		local:    local,
		remote:   remote,
		log:      log,
		pageSize: common.FeedPageSize,
		ttl:      common.FeedCacheTTL,
		now:      time.Now,
	}
}

// Load returns the feed. Without force, a local snapshot younger than the
// TTL is served directly; otherwise the first remote page is fetched and
// snapshotted. A failed remote fetch leaves previously held items
// untouched and returns them alongside the error.
func (c *Cache) Load(ctx context.Context, force bool) ([]Course, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if force {
		if err := c.local.Delete(ctx, common.LocalKey(common.KeyCoursesCache)); err != nil {
			c.log.Warn(ctx, "feed cache clear failed", "error", err)
		}
		c.items = nil
		c.hasMore = false
		c.loaded = false
	} else {
		if env, ok := c.readSnapshot(ctx); ok {
			c.items = env.Items
			c.hasMore = c.snapshotHasMore(env)
			c.loaded = true
			return append([]Course(nil), c.items...), c.hasMore, nil
		}
	}

	page, err := c.fetchPage(ctx, nil)
	if err != nil {
		return append([]Course(nil), c.items...), c.hasMore, err
	}

	c.items = page
	c.hasMore = len(page) == c.pageSize
	c.loaded = true
	c.writeSnapshot(ctx)

	return append([]Course(nil), c.items...), c.hasMore, nil
}

// LoadMore fetches the page strictly after the last held item and returns
// the appended delta. It always bypasses the TTL. When the feed is
// exhausted it is a no-op returning an empty delta.
func (c *Cache) LoadMore(ctx context.Context) ([]Course, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded && !c.hasMore {
		return nil, nil
	}

	var cursor any
	if len(c.items) > 0 {
		cursor = c.items[len(c.items)-1].CreatedAt
	}

	page, err := c.fetchPage(ctx, cursor)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(c.items))
	for _, item := range c.items {
		seen[item.ID] = struct{}{}
	}

	var delta []Course
	for _, item := range page {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		delta = append(delta, item)
	}

	c.items = append(c.items, delta...)
	c.hasMore = len(page) == c.pageSize
	c.loaded = true
	// Every successful page fetch extends the TTL.
	c.writeSnapshot(ctx)

	return delta, nil
}

// Refresh clears the snapshot and re-issues the initial load.
func (c *Cache) Refresh(ctx context.Context) ([]Course, bool, error) {
	return c.Load(ctx, true)
}

// Items returns the currently held list.
func (c *Cache) Items() []Course {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Course(nil), c.items...)
}

// HasMore reports whether the feed may hold further pages.
func (c *Cache) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

func (c *Cache) fetchPage(ctx context.Context, startAfter any) ([]Course, error) {
	docs, err := c.remote.Query(ctx, common.CollectionCourses, docstore.Query{
		OrderBy:    "createdAt",
		Descending: true,
		StartAfter: startAfter,
		Limit:      c.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("feed page fetch: %w", err)
	}

	page := make([]Course, 0, len(docs))
	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			continue
		}
		var course Course
		if err := json.Unmarshal(raw, &course); err != nil {
			c.log.Warn(ctx, "skipping malformed course document", "error", err)
			continue
		}
		page = append(page, course)
	}
	return page, nil
}

func (c *Cache) readSnapshot(ctx context.Context) (*envelope, bool) {
	var env envelope
	err := c.local.Get(ctx, common.LocalKey(common.KeyCoursesCache), &env)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			c.log.Warn(ctx, "feed snapshot read failed", "error", err)
		}
		return nil, false
	}

	age := c.now().Sub(time.UnixMilli(env.LastFetched))
	if age >= c.ttl {
		return nil, false
	}
	return &env, true
}

func (c *Cache) snapshotHasMore(env *envelope) bool {
	if env.HasMore != nil {
		return *env.HasMore
	}
	// Legacy envelopes: a count that is an exact multiple of the page
	// size is taken as "ended on a full page, likely more behind it".
	n := len(env.Items)
	return n > 0 && n%c.pageSize == 0
}

func (c *Cache) writeSnapshot(ctx context.Context) {
	hasMore := c.hasMore
	env := envelope{
		Items:       c.items,
		LastFetched: c.now().UnixMilli(),
		HasMore:     &hasMore,
	}
	if err := c.local.Set(ctx, common.LocalKey(common.KeyCoursesCache), env); err != nil {
		c.log.Warn(ctx, "feed snapshot write failed", "error", err)
	}
}
