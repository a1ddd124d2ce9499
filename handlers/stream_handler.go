package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/chatbridge/chatbridge/app"
	"github.com/chatbridge/chatbridge/services/broker"
	"github.com/chatbridge/chatbridge/utils"
)

// StreamHandler serves the long-lived event feed over Server-Sent Events.
// The subscriber's interest filter comes from query parameters; every
// delivered event is one "data: <json>\n\n" frame. The subscription is
// removed when the client disconnects.
func StreamHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			_ = utils.WriteInternalServerError(w, "streaming is not supported by this connection")
			return
		}

		query := r.URL.Query()
		filter := broker.Filter{
			SessionID: query.Get("session_id"),
			ChatID:    query.Get("chat_id"),
			UserID:    query.Get("user_id"),
			Provider:  query.Get("provider"),
			Model:     query.Get("model"),
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ctx := r.Context()

		// The sink hands events to this handler goroutine so all writes to
		// the ResponseWriter happen here. Send blocks until the handler
		// picks the event up or the client is gone; that only stalls this
		// subscriber's drain goroutine, never the broker.
		events := make(chan broker.Event, 8)
		sink := broker.SinkFunc(func(event broker.Event) error {
			select {
			case events <- event:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		id := deps.Broker.Subscribe(filter, sink)
		defer deps.Broker.Unsubscribe(id)

		deps.Logger.Debug("stream client connected",
			zap.String("subscription_id", id))

		for {
			select {
			case <-ctx.Done():
				deps.Logger.Debug("stream client disconnected",
					zap.String("subscription_id", id))
				return
			case event := <-events:
				data, err := json.Marshal(event)
				if err != nil {
					deps.Logger.Error("failed to marshal event", zap.Error(err))
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
