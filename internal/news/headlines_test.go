package news

import (
	"context"
	"testing"
	"time"

	"growdash/internal/store"
	"growdash/internal/types"
)

func TestHeadlineCache(t *testing.T) {
	cache := newHeadlineCache(1 * time.Second)

	topic := "nifty"
	headlines := []types.Headline{
		{Source: "MoneyControl", Title: "Nifty ends flat", URL: "https://example.com/a"},
		{Source: "EconomicTimes", Title: "Bank Nifty rallies", URL: "https://example.com/b"},
	}

	// Test set and get
	cache.set(topic, headlines)

	retrieved, found := cache.get(topic)
	if !found {
		t.Fatal("Expected to find cached headlines")
	}

	if len(retrieved) != 2 {
		t.Fatalf("Expected 2 headlines, got %d", len(retrieved))
	}

	if retrieved[0].Title != "Nifty ends flat" {
		t.Errorf("Expected first title 'Nifty ends flat', got %s", retrieved[0].Title)
	}

	// Test expiration
	time.Sleep(2 * time.Second)
	_, found = cache.get(topic)
	if found {
		t.Error("Expected cache entry to be expired")
	}
}

func TestCacheCleanup(t *testing.T) {
	cache := newHeadlineCache(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		topic := "topic" + string(rune('a'+i))
		cache.set(topic, []types.Headline{{Source: "MoneyControl", Title: topic}})
	}

	// Wait for expiration
	time.Sleep(200 * time.Millisecond)

	// Trigger cleanup
	cache.cleanup()

	cache.mu.RLock()
	count := len(cache.data)
	cache.mu.RUnlock()

	if count != 0 {
		t.Errorf("Expected 0 cache entries after cleanup, got %d", count)
	}
}

func TestNewService(t *testing.T) {
	cfg := &store.Config{}
	cfg.News.Enabled = true
	cfg.News.CacheMinutes = 60

	svc := NewService(cfg)

	if svc == nil {
		t.Fatal("Expected service to be created")
	}

	if svc.cache == nil {
		t.Error("Expected cache to be initialized")
	}

	if len(svc.sources) == 0 {
		t.Error("Expected default sources to be configured")
	}

	if svc.cache.ttl != time.Hour {
		t.Errorf("Expected 1 hour TTL, got %v", svc.cache.ttl)
	}
}

func TestHeadlinesDisabled(t *testing.T) {
	cfg := &store.Config{}
	cfg.News.Enabled = false

	svc := NewService(cfg)
	ctx := context.Background()

	headlines, err := svc.Headlines(ctx, "nifty", 5)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if len(headlines) != 0 {
		t.Errorf("Expected no headlines when disabled, got %d", len(headlines))
	}
}

func TestHeadlinesServedFromCache(t *testing.T) {
	cfg := &store.Config{}
	cfg.News.Enabled = true
	cfg.News.CacheMinutes = 60

	svc := NewService(cfg)
	svc.cache.set("nifty", []types.Headline{
		{Source: "MoneyControl", Title: "Nifty opens higher", URL: "https://example.com/a"},
		{Source: "MoneyControl", Title: "FIIs turn buyers", URL: "https://example.com/b"},
		{Source: "EconomicTimes", Title: "Rupee steady", URL: "https://example.com/c"},
	})

	ctx := context.Background()

	headlines, err := svc.Headlines(ctx, "NIFTY", 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(headlines) != 2 {
		t.Errorf("Expected headlines capped at 2, got %d", len(headlines))
	}
}

func TestHeadlinesEmptyTopic(t *testing.T) {
	cfg := &store.Config{}
	cfg.News.Enabled = true

	svc := NewService(cfg)

	headlines, err := svc.Headlines(context.Background(), "  ", 5)
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}

	if len(headlines) != 0 {
		t.Errorf("Expected no headlines for empty topic, got %d", len(headlines))
	}
}
