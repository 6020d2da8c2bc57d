package redis

import (
	"context"
	"strings"
	"testing"

	"github.com/polysense/riskagent/pkg/config"
)

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}
}

func TestCache_Disabled(t *testing.T) {
	client := Disabled()
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}

	if err := cache.Set(context.Background(), "key", "value", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
}

func TestPromptKey(t *testing.T) {
	k1 := PromptKey("gpt-5.1", "analyze these markets")
	k2 := PromptKey("gpt-5.1", "analyze these markets")
	k3 := PromptKey("gpt-5.1", "analyze those markets")
	k4 := PromptKey("gpt-4o", "analyze these markets")

	if k1 != k2 {
		t.Error("Expected identical prompts to produce identical keys")
	}
	if k1 == k3 {
		t.Error("Expected different prompts to produce different keys")
	}
	if k1 == k4 {
		t.Error("Expected different models to produce different keys")
	}
	if !strings.HasPrefix(k1, "judgment:") {
		t.Errorf("Expected judgment: prefix, got %q", k1)
	}
}
