package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/polysense/riskagent/pkg/config"
	"github.com/polysense/riskagent/pkg/logger"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Env: "development",
		OpenAI: config.OpenAIConfig{
			APIKey:    "test-key",
			BaseURL:   baseURL,
			Model:     "gpt-5.1",
			RateLimit: 100,
			RateBurst: 100,
		},
		Pipeline: config.PipelineConfig{
			CacheTTL: time.Minute,
		},
	}
}

func TestClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("request body not JSON: %v", err)
		}
		if req["model"] != "gpt-5.1" {
			t.Errorf("expected model gpt-5.1, got %v", req["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": `{"signals": []}`}},
			},
		})
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.Nop(), nil)

	text, err := client.Complete(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if text != `{"signals": []}` {
		t.Errorf("Complete() = %q", text)
	}
}

func TestClient_CompleteEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.Nop(), nil)

	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Error("expected error on empty choices")
	}
}

func TestClient_CompleteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": {"message": "invalid model"}}`))
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), logger.Nop(), nil)

	_, err := client.Complete(context.Background(), "system", "user")
	if err == nil {
		t.Error("expected error on 400 response")
	}
}

func TestClient_WithModel(t *testing.T) {
	client := NewClient(testConfig("http://localhost"), logger.Nop(), nil)

	override := client.WithModel("gpt-4o")
	if override.Model() != "gpt-4o" {
		t.Errorf("override model = %s, want gpt-4o", override.Model())
	}
	if client.Model() != "gpt-5.1" {
		t.Errorf("original client mutated: %s", client.Model())
	}

	// Empty override keeps the same client
	if same := client.WithModel(""); same != client {
		t.Error("empty model override should return the same client")
	}
}
