package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PostJSON marshals payload and POSTs it to url, retrying transport failures
// and 5xx responses up to maxRetries times with a linearly growing delay.
// The request body is rebuilt per attempt. On success (any HTTP response,
// 2xx or not) it returns the status code, status text and full body; the
// caller decides how to interpret non-2xx statuses.
func PostJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, payload interface{}, maxRetries int) (int, string, []byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return 0, "", nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, "", nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
		if err != nil {
			return 0, "", nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode >= 500 && attempt < maxRetries {
			lastErr = fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			continue
		}

		return resp.StatusCode, http.StatusText(resp.StatusCode), body, nil
	}

	return 0, "", nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries+1, lastErr)
}
