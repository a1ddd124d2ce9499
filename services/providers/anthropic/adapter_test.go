package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chatbridge/chatbridge/services/providers"
)

func TestNewAdapter(t *testing.T) {
	adapter, err := NewAdapter(providers.ProviderConfig{APIKey: "sk-ant-test"})
	if err != nil {
		t.Fatalf("NewAdapter() error: %v", err)
	}

	if adapter.Name() != providers.ProviderAnthropic {
		t.Errorf("Name() = %s, want anthropic", adapter.Name())
	}
	if adapter.config.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", adapter.config.BaseURL, defaultBaseURL)
	}
	if len(adapter.AvailableModels()) == 0 {
		t.Error("Models not initialized")
	}
}

func TestNewAdapter_MissingKey(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
	}{
		{"empty key", ""},
		{"blank key", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewAdapter(providers.ProviderConfig{APIKey: tt.apiKey}); err == nil {
				t.Error("NewAdapter() accepted a missing API key")
			}
		})
	}
}

func TestAdapter_SupportsModel(t *testing.T) {
	adapter, _ := NewAdapter(providers.ProviderConfig{APIKey: "sk-ant-test"})

	if !adapter.SupportsModel("claude-3-5-sonnet-20241022") {
		t.Error("SupportsModel(claude-3-5-sonnet-20241022) = false")
	}
	if adapter.SupportsModel("gpt-4o") {
		t.Error("SupportsModel(gpt-4o) = true, want false")
	}
}

func TestAdapter_GenerateResponse(t *testing.T) {
	var captured messagesRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("path = %s, want /messages", r.URL.Path)
		}
		if got := r.Header.Get("x-api-key"); got != "sk-ant-test" {
			t.Errorf("x-api-key = %s, want sk-ant-test", got)
		}
		if got := r.Header.Get("anthropic-version"); got != apiVersion {
			t.Errorf("anthropic-version = %s, want %s", got, apiVersion)
		}
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected Authorization header %q", auth)
		}

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]string{{"type": "text", "text": "Hello there"}},
			"stop_reason": "end_turn",
			"usage":       map[string]int{"input_tokens": 12, "output_tokens": 5},
		})
	}))
	defer server.Close()

	adapter, err := NewAdapter(providers.ProviderConfig{APIKey: "sk-ant-test", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAdapter() error: %v", err)
	}

	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: "Be terse"},
		{Role: providers.RoleUser, Content: "Hi"},
		{Role: providers.RoleSystem, Content: "ignored second system"},
		{Role: providers.RoleAssistant, Content: "Hello"},
	}

	result := adapter.GenerateResponse(context.Background(), messages, "claude-3-5-sonnet-20241022", nil)

	if !result.Success {
		t.Fatalf("GenerateResponse() failed: %s", result.Error)
	}
	if result.Content != "Hello there" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 17 {
		t.Errorf("Usage = %+v, want total 17", result.Usage)
	}

	// First system message becomes the top-level system field and no system
	// messages remain in the turn sequence.
	if captured.System != "Be terse" {
		t.Errorf("system = %q, want %q", captured.System, "Be terse")
	}
	if len(captured.Messages) != 2 {
		t.Fatalf("wire messages = %d, want 2", len(captured.Messages))
	}
	for _, msg := range captured.Messages {
		if msg.Role == providers.RoleSystem {
			t.Error("system message leaked into the turn sequence")
		}
	}
	if captured.MaxTokens != providers.DefaultMaxTokens {
		t.Errorf("max_tokens = %d, want default %d", captured.MaxTokens, providers.DefaultMaxTokens)
	}
	if captured.Temperature != providers.DefaultTemperature {
		t.Errorf("temperature = %v, want default %v", captured.Temperature, providers.DefaultTemperature)
	}
}

func TestAdapter_GenerateResponse_UnsupportedModel(t *testing.T) {
	adapter, _ := NewAdapter(providers.ProviderConfig{APIKey: "sk-ant-test"})

	result := adapter.GenerateResponse(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "Hi"}}, "claude-99", nil)

	if result.Success {
		t.Fatal("unsupported model did not fail")
	}
	if !strings.Contains(result.Error, "claude-99") {
		t.Errorf("error = %q, want it to name the model", result.Error)
	}
}

func TestAdapter_GenerateResponse_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid x-api-key","type":"authentication_error"}}`))
	}))
	defer server.Close()

	adapter, _ := NewAdapter(providers.ProviderConfig{APIKey: "sk-ant-bad", BaseURL: server.URL})

	result := adapter.GenerateResponse(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "Hi"}}, "claude-3-5-haiku-20241022", nil)

	if result.Success {
		t.Fatal("upstream 401 did not fail")
	}
	if result.Error != "invalid x-api-key" {
		t.Errorf("error = %q, want the nested upstream message", result.Error)
	}
}

func TestAdapter_GenerateResponse_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]string{},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	adapter, _ := NewAdapter(providers.ProviderConfig{APIKey: "sk-ant-test", BaseURL: server.URL})

	result := adapter.GenerateResponse(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "Hi"}}, "claude-3-opus-20240229", nil)

	if result.Success {
		t.Fatal("empty content did not fail")
	}
	if !strings.Contains(result.Error, "max_tokens") {
		t.Errorf("error = %q, want it to carry the stop reason", result.Error)
	}
}
