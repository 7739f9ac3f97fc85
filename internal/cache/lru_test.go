package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache(size int, ttl time.Duration) (*LRUCache[int64, string], *clock) {
	clk := &clock{t: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int64, string](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set(1, "a")
	c.Set(2, "b")

	_, ok := c.Get(1)
	assert.True(t, ok)

	c.Set(3, "c")
	_, ok = c.Get(2)
	assert.False(t, ok, "2 was least recently used")
	v, ok := c.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 2, c.Size())
}

func TestLRUExpiresEntries(t *testing.T) {
	c, clk := newTestCache(10, time.Minute)
	c.Set(1, "a")
	c.Set(2, "b")

	clk.t = clk.t.Add(30 * time.Second)
	c.Set(2, "b2")

	clk.t = clk.t.Add(45 * time.Second)
	_, ok := c.Get(1)
	assert.False(t, ok)

	v, ok := c.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "b2", v)

	clk.t = clk.t.Add(time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUDelete(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set(1, "a")
	c.Delete(1)
	c.Delete(99)
	_, ok := c.Get(1)
	assert.False(t, ok)
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	a, clk := newTestCache(10, time.Minute)
	b, _ := newTestCache(10, time.Minute)
	b.now = clk.now
	a.Set(1, "x")
	b.Set(2, "y")
	b.Set(3, "z")

	m := NewManager(a)
	m.Register(b)
	clk.t = clk.t.Add(2 * time.Minute)
	assert.Equal(t, 3, m.CleanAll())

	ctx, cancel := context.WithCancel(context.Background())
	m.Start(ctx, time.Millisecond)
	cancel()
	m.Wait()
}
