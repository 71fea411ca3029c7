package cache_test

import (
	"context"
	"testing"
	"time"

	chatdomain "github.com/boddenberg/bepit-bfa-go/internal/chat/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/domain"
	"github.com/boddenberg/bepit-bfa-go/internal/infra/cache"

	"go.uber.org/zap"
)

func TestCache_SetAndGet(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	val, ok := c.Get("key1")
	if !ok {
		t.Fatal("expected key to exist")
	}
	if val != "value1" {
		t.Errorf("expected 'value1', got '%s'", val)
	}
}

func TestCache_GetMiss(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	_, ok := c.Get("nonexistent")
	if ok {
		t.Fatal("expected cache miss for nonexistent key")
	}
}

func TestCache_Expiration(t *testing.T) {
	c := cache.New[string](50 * time.Millisecond)

	c.Set("key1", "value1")
	time.Sleep(100 * time.Millisecond)

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected cache entry to be expired")
	}
}

func TestCache_ZeroTTLNeverExpires(t *testing.T) {
	c := cache.New[string](0)

	c.Set("key1", "value1")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("key1"); !ok {
		t.Fatal("expected entry to survive with ttl 0")
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}
}

func TestCache_Delete(t *testing.T) {
	c := cache.New[string](5 * time.Minute)

	c.Set("key1", "value1")
	c.Delete("key1")

	_, ok := c.Get("key1")
	if ok {
		t.Fatal("expected key to be deleted")
	}
}

func TestConversationCache_StoresCopies(t *testing.T) {
	ctx := context.Background()
	c := cache.NewConversationCache(0)

	state := &chatdomain.ConversationState{
		ConversationID: "c1",
		RegionID:       "r1",
		FocusedItem:    &domain.Item{ID: "i1", Name: "Pizzaria Bella"},
		SuggestedItems: []domain.Item{{ID: "i1"}, {ID: "i2"}},
	}
	c.Set(ctx, "c1", state)

	state.FocusedItem.Name = "mutated"
	state.SuggestedItems[0].ID = "mutated"

	got, ok := c.Get(ctx, "c1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.FocusedItem.Name != "Pizzaria Bella" {
		t.Errorf("focused item mutated through caller pointer: %q", got.FocusedItem.Name)
	}
	if got.SuggestedItems[0].ID != "i1" {
		t.Errorf("suggestions mutated through caller slice: %q", got.SuggestedItems[0].ID)
	}
}

func TestConversationCache_Miss(t *testing.T) {
	c := cache.NewConversationCache(0)
	if _, ok := c.Get(context.Background(), "unknown"); ok {
		t.Fatal("expected miss")
	}
}

func TestNewFallback_NoRedisURL(t *testing.T) {
	c, rc := cache.NewFallback(context.Background(), "", 0, zap.NewNop())

	if rc != nil {
		t.Error("expected no redis cache")
	}
	if _, ok := c.(*cache.ConversationCache); !ok {
		t.Fatalf("expected in-process cache, got %T", c)
	}
}

func TestNewFallback_UnreachableRedisDegrades(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for _, url := range []string{"redis://127.0.0.1:1/0", "not a redis url"} {
		c, rc := cache.NewFallback(ctx, url, time.Minute, zap.NewNop())
		if rc != nil {
			t.Errorf("%q: expected no redis cache", url)
		}
		if _, ok := c.(*cache.ConversationCache); !ok {
			t.Fatalf("%q: expected in-process cache, got %T", url, c)
		}
		c.Set(ctx, "conv-1", &chatdomain.ConversationState{ConversationID: "conv-1"})
		if _, ok := c.Get(ctx, "conv-1"); !ok {
			t.Errorf("%q: fallback cache should still work", url)
		}
	}
}
