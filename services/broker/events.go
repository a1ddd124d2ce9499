package broker

import (
	"time"

	"github.com/chatbridge/chatbridge/services/providers"
)

// Event types carried on the broadcast stream. Every serialized event has a
// type and a timestamp.
const (
	EventConnected = "connected"
	EventPing      = "ping"
	EventResponse  = "response"
)

// Event is a single frame delivered to subscribers
type Event struct {
	Type      string           `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
	ClientID  string           `json:"client_id,omitempty"`
	Filter    *Filter          `json:"filter,omitempty"`
	Payload   *ResponsePayload `json:"payload,omitempty"`
}

// ResponsePayload carries a completed generation result plus the matchkeys
// subscribers can filter on.
type ResponsePayload struct {
	SessionID string                      `json:"session_id,omitempty"`
	ChatID    string                      `json:"chat_id,omitempty"`
	UserID    string                      `json:"user_id,omitempty"`
	Provider  string                      `json:"provider,omitempty"`
	Model     string                      `json:"model,omitempty"`
	Result    *providers.GenerationResult `json:"result"`
}

// Filter is a subscriber's interest filter over response matchkeys. Empty
// fields are wildcards; set fields must match the payload exactly.
type Filter struct {
	SessionID string `json:"session_id,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Provider  string `json:"provider,omitempty"`
	Model     string `json:"model,omitempty"`
}

// Matches reports whether a payload satisfies the filter.
func (f Filter) Matches(p *ResponsePayload) bool {
	if p == nil {
		return false
	}
	if f.SessionID != "" && f.SessionID != p.SessionID {
		return false
	}
	if f.ChatID != "" && f.ChatID != p.ChatID {
		return false
	}
	if f.UserID != "" && f.UserID != p.UserID {
		return false
	}
	if f.Provider != "" && f.Provider != p.Provider {
		return false
	}
	if f.Model != "" && f.Model != p.Model {
		return false
	}
	return true
}

// Sink is the transport-side consumer of delivered events, e.g. an SSE
// connection writer. Send is called from a single per-subscriber goroutine;
// a Send error permanently closes the subscription.
type Sink interface {
	Send(event Event) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(event Event) error

// Send implements Sink
func (f SinkFunc) Send(event Event) error {
	return f(event)
}
