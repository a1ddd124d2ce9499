package providers

import (
	"strings"
	"testing"
)

func TestGenerationOptions_Resolve(t *testing.T) {
	temp := 0.2
	tokens := 256
	topP := 0.5

	tests := []struct {
		name     string
		opts     *GenerationOptions
		wantTemp float64
		wantTok  int
		wantTopP float64
	}{
		{
			name:     "nil options use defaults",
			opts:     nil,
			wantTemp: DefaultTemperature,
			wantTok:  DefaultMaxTokens,
			wantTopP: DefaultTopP,
		},
		{
			name:     "empty options use defaults",
			opts:     &GenerationOptions{},
			wantTemp: DefaultTemperature,
			wantTok:  DefaultMaxTokens,
			wantTopP: DefaultTopP,
		},
		{
			name:     "explicit values win",
			opts:     &GenerationOptions{Temperature: &temp, MaxTokens: &tokens, TopP: &topP},
			wantTemp: 0.2,
			wantTok:  256,
			wantTopP: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.ResolveTemperature(); got != tt.wantTemp {
				t.Errorf("ResolveTemperature() = %v, want %v", got, tt.wantTemp)
			}
			if got := tt.opts.ResolveMaxTokens(); got != tt.wantTok {
				t.Errorf("ResolveMaxTokens() = %v, want %v", got, tt.wantTok)
			}
			if got := tt.opts.ResolveTopP(); got != tt.wantTopP {
				t.Errorf("ResolveTopP() = %v, want %v", got, tt.wantTopP)
			}
		})
	}
}

func TestExtractHTTPError(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		statusText string
		body       string
		want       string
	}{
		{
			name:       "nested error message",
			statusCode: 429,
			statusText: "Too Many Requests",
			body:       `{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`,
			want:       "rate limit exceeded",
		},
		{
			name:       "non-JSON body falls back to status line",
			statusCode: 502,
			statusText: "Bad Gateway",
			body:       "<html>upstream down</html>",
			want:       "HTTP 502: Bad Gateway",
		},
		{
			name:       "JSON without error envelope falls back",
			statusCode: 500,
			statusText: "Internal Server Error",
			body:       `{"detail":"boom"}`,
			want:       "HTTP 500: Internal Server Error",
		},
		{
			name:       "empty body falls back",
			statusCode: 404,
			statusText: "Not Found",
			body:       "",
			want:       "HTTP 404: Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractHTTPError(tt.statusCode, tt.statusText, []byte(tt.body))
			if got != tt.want {
				t.Errorf("ExtractHTTPError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFailure(t *testing.T) {
	result := Failure("openai", "gpt-4o", "model %q rejected", "gpt-4o")

	if result.Success {
		t.Error("Failure() produced a successful result")
	}
	if result.Provider != "openai" || result.Model != "gpt-4o" {
		t.Errorf("Failure() provider/model = %s/%s", result.Provider, result.Model)
	}
	if !strings.Contains(result.Error, "rejected") {
		t.Errorf("Failure() error = %q, want formatted message", result.Error)
	}
	if result.Content != "" {
		t.Errorf("Failure() content = %q, want empty", result.Content)
	}
}

func TestDefaultProviderConfig(t *testing.T) {
	cfg := DefaultProviderConfig()

	if cfg.Timeout.Seconds() != 30 {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
}
