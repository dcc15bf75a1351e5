package color

import (
	"context"
	"sync"
	"time"

	"commerce-assistant/internal/pkg/logger"
)

// Clock supplies the current time to the cache.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock is the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Source lists the colors present in the live catalog.
type Source interface {
	DistinctColors(ctx context.Context) ([]string, error)
}

const DefaultTTL = time.Hour

// Cache memoizes the catalog colors for a bounded TTL. A stale entry is served
// while one background refresh runs; a failed refresh keeps the stale entry.
type Cache struct {
	source  Source
	ttl     time.Duration
	clock   Clock
	log     logger.ILogger
	timeout time.Duration

	mu       sync.Mutex
	colors   []string
	loadedAt time.Time
	loaded   bool
	inflight chan struct{}
}

func NewCache(source Source, ttl time.Duration, clock Clock, log logger.ILogger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = SystemClock
	}
	return &Cache{
		source:  source,
		ttl:     ttl,
		clock:   clock,
		log:     log,
		timeout: 5 * time.Second,
	}
}

// Colors returns the cached catalog colors, loading them on first use.
func (c *Cache) Colors(ctx context.Context) []string {
	c.mu.Lock()
	if c.loaded && c.clock.Now().Sub(c.loadedAt) < c.ttl {
		colors := c.colors
		c.mu.Unlock()
		return colors
	}

	if c.loaded {
		// stale: serve it and revalidate once in the background
		colors := c.colors
		if c.inflight == nil {
			done := make(chan struct{})
			c.inflight = done
			go c.refresh(done)
		}
		c.mu.Unlock()
		return colors
	}

	// cold: wait for the single loader
	wait := c.inflight
	if wait == nil {
		done := make(chan struct{})
		c.inflight = done
		c.mu.Unlock()
		c.load(ctx, done)
	} else {
		c.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colors
}

// Refresh reloads synchronously.
func (c *Cache) Refresh(ctx context.Context) error {
	colors, err := c.source.DistinctColors(ctx)
	if err != nil {
		return err
	}
	c.store(colors)
	return nil
}

// Invalidate forgets the cached colors so the next call reloads them.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.colors = nil
	c.loaded = false
	c.loadedAt = time.Time{}
	c.mu.Unlock()
}

func (c *Cache) refresh(done chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	c.load(ctx, done)
}

func (c *Cache) load(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.inflight = nil
		c.mu.Unlock()
		close(done)
	}()

	if err := c.Refresh(ctx); err != nil {
		c.log.Warn("ColorCache", "refresh failed, keeping previous colors", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	c.log.Debug("ColorCache", "color cache refreshed", map[string]interface{}{"count": len(c.Snapshot())})
}

func (c *Cache) store(colors []string) {
	c.mu.Lock()
	c.colors = colors
	c.loaded = true
	c.loadedAt = c.clock.Now()
	c.mu.Unlock()
}

// Snapshot returns the current entry without loading.
func (c *Cache) Snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.colors
}
