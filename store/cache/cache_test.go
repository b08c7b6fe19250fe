package cache

import (
	"context"
	"testing"
	"time"
)

func TestCacheSetGet(t *testing.T) {
	ctx := context.Background()
	c := New(Config{DefaultTTL: time.Minute})
	defer c.Close()

	c.Set(ctx, "a", 1)
	value, ok := c.Get(ctx, "a")
	if !ok || value.(int) != 1 {
		t.Fatalf("Get(a) = %v, %v; want 1, true", value, ok)
	}

	if _, ok := c.Get(ctx, "missing"); ok {
		t.Error("missing key should not be found")
	}
}

func TestCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := New(Config{})
	defer c.Close()

	c.SetWithTTL(ctx, "a", "v", 10*time.Millisecond)
	if _, ok := c.Get(ctx, "a"); !ok {
		t.Fatal("item should be present before expiry")
	}
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("item should have expired")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after lazy eviction, want 0", c.Size())
	}
}

func TestCacheDelete(t *testing.T) {
	ctx := context.Background()
	evicted := map[string]any{}
	c := New(Config{OnEviction: func(key string, value any) { evicted[key] = value }})
	defer c.Close()

	c.Set(ctx, "a", "v")
	c.Delete(ctx, "a")
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("deleted key should be gone")
	}
	if evicted["a"] != "v" {
		t.Errorf("OnEviction not called for deleted key, got %v", evicted)
	}
}

func TestCacheClear(t *testing.T) {
	ctx := context.Background()
	c := New(Config{})
	defer c.Close()

	for _, key := range []string{"a", "b", "c"} {
		c.Set(ctx, key, key)
	}
	c.Clear(ctx)
	if c.Size() != 0 {
		t.Errorf("Size() = %d after Clear, want 0", c.Size())
	}
}

func TestCacheMaxItems(t *testing.T) {
	ctx := context.Background()
	c := New(Config{MaxItems: 5})
	defer c.Close()

	for i := 0; i < 20; i++ {
		c.Set(ctx, string(rune('a'+i)), i)
	}
	if c.Size() > 5 {
		t.Errorf("Size() = %d, want at most 5", c.Size())
	}
}

func TestCacheOverwriteKeepsSize(t *testing.T) {
	ctx := context.Background()
	c := New(Config{})
	defer c.Close()

	c.Set(ctx, "a", 1)
	c.Set(ctx, "a", 2)
	if c.Size() != 1 {
		t.Errorf("Size() = %d after overwrite, want 1", c.Size())
	}
	value, _ := c.Get(ctx, "a")
	if value.(int) != 2 {
		t.Errorf("Get(a) = %v, want 2", value)
	}
}
