package gemini

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
	adapter, err := NewAdapter(providers.ProviderConfig{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewAdapter() error: %v", err)
	}

	if adapter.Name() != providers.ProviderGemini {
		t.Errorf("Name() = %s, want gemini", adapter.Name())
	}
	if !adapter.SupportsModel("gemini-1.5-flash") {
		t.Error("SupportsModel(gemini-1.5-flash) = false")
	}
}

func TestNewAdapter_MissingKey(t *testing.T) {
	if _, err := NewAdapter(providers.ProviderConfig{}); err == nil {
		t.Error("NewAdapter() accepted a missing API key")
	}
}

func TestAdapter_GenerateResponse(t *testing.T) {
	var captured generateContentRequest
	var capturedURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedURL = r.URL.String()

		// The credential travels as a query parameter, never a header.
		if auth := r.Header.Get("Authorization"); auth != "" {
			t.Errorf("unexpected Authorization header %q", auth)
		}

		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{
				{
					"content":      map[string]interface{}{"parts": []map[string]string{{"text": "Bonjour"}}},
					"finishReason": "STOP",
				},
			},
			"usageMetadata": map[string]int{
				"promptTokenCount":     10,
				"candidatesTokenCount": 2,
				"totalTokenCount":      12,
			},
		})
	}))
	defer server.Close()

	adapter, err := NewAdapter(providers.ProviderConfig{APIKey: "secret key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewAdapter() error: %v", err)
	}

	messages := []providers.Message{
		{Role: providers.RoleSystem, Content: "Answer in French"},
		{Role: providers.RoleUser, Content: "Hello"},
		{Role: providers.RoleAssistant, Content: "Bonjour"},
		{Role: providers.RoleUser, Content: "Again"},
	}

	result := adapter.GenerateResponse(context.Background(), messages, "gemini-1.5-flash", nil)

	if !result.Success {
		t.Fatalf("GenerateResponse() failed: %s", result.Error)
	}
	if result.Content != "Bonjour" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 12 {
		t.Errorf("Usage = %+v", result.Usage)
	}

	if !strings.Contains(capturedURL, "/models/gemini-1.5-flash:generateContent") {
		t.Errorf("URL = %s, want the generateContent path", capturedURL)
	}
	if !strings.Contains(capturedURL, "key=secret+key") {
		t.Errorf("URL = %s, want the escaped key parameter", capturedURL)
	}

	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "Answer in French" {
		t.Errorf("systemInstruction = %+v", captured.SystemInstruction)
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("contents = %d entries, want 3 (system dropped)", len(captured.Contents))
	}
	if captured.Contents[1].Role != "model" {
		t.Errorf("assistant turn role = %s, want model", captured.Contents[1].Role)
	}
	if captured.Contents[0].Role != "user" || captured.Contents[2].Role != "user" {
		t.Error("user turns did not keep the user role")
	}
	if captured.GenerationConfig.MaxOutputTokens != providers.DefaultMaxTokens {
		t.Errorf("maxOutputTokens = %d, want default", captured.GenerationConfig.MaxOutputTokens)
	}
}

func TestAdapter_GenerateResponse_BlockedPrompt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates":     []interface{}{},
			"promptFeedback": map[string]string{"blockReason": "SAFETY"},
		})
	}))
	defer server.Close()

	adapter, _ := NewAdapter(providers.ProviderConfig{APIKey: "test-key", BaseURL: server.URL})

	result := adapter.GenerateResponse(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "Hi"}}, "gemini-1.5-pro", nil)

	if result.Success {
		t.Fatal("blocked prompt did not fail")
	}
	if !strings.Contains(result.Error, "SAFETY") {
		t.Errorf("error = %q, want it to carry the block reason", result.Error)
	}
}

func TestAdapter_GenerateResponse_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	adapter, _ := NewAdapter(providers.ProviderConfig{APIKey: "test-key", BaseURL: server.URL})

	result := adapter.GenerateResponse(context.Background(),
		[]providers.Message{{Role: providers.RoleUser, Content: "Hi"}}, "gemini-2.0-flash", nil)

	if result.Success {
		t.Fatal("empty candidates did not fail")
	}
	if !strings.Contains(result.Error, "no candidates") {
		t.Errorf("error = %q", result.Error)
	}
}
