package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"promptvault/internal/models"
)

func setupCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return New(client), mr
}

func TestCacheSetGet(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	in := models.Filters{
		Categories: []string{"development"},
		AIModels:   []string{"gpt-4o"},
		Tags:       []string{"draft"},
	}
	if err := c.Set(ctx, "filters", in, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out models.Filters
	if err := c.Get(ctx, "filters", &out); err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(out.Categories) != 1 || out.Categories[0] != "development" {
		t.Errorf("round trip changed value: %+v", out)
	}
}

func TestCacheMiss(t *testing.T) {
	c, _ := setupCache(t)

	var out models.Filters
	if err := c.Get(context.Background(), "absent", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestCacheExpiry(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "analytics:30d", map[string]int{"n": 1}, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}
	mr.FastForward(2 * time.Second)

	var out map[string]int
	if err := c.Get(ctx, "analytics:30d", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestCacheDelete(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	var out string
	if err := c.Get(ctx, "k", &out); err != ErrMiss {
		t.Fatalf("expected ErrMiss after delete, got %v", err)
	}
}
