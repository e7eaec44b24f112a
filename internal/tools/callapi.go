package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// CallAPI returns a tool that performs an HTTP request described by its
// arguments: url (required), method (default GET), headers and body
// (optional). The decoded JSON response is returned together with the
// status code; a non-2xx status is a failure.
func CallAPI(timeout time.Duration) Func {
	client := &http.Client{Timeout: timeout}

	return func(ctx context.Context, args map[string]any) (map[string]any, error) {
		url, _ := args["url"].(string)
		if url == "" {
			return nil, fmt.Errorf("url is required")
		}

		method, _ := args["method"].(string)
		if method == "" {
			method = http.MethodGet
		}

		var body *bytes.Reader
		if raw, ok := args["body"]; ok && raw != nil {
			encoded, err := json.Marshal(raw)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request body: %w", err)
			}
			body = bytes.NewReader(encoded)
		} else {
			body = bytes.NewReader(nil)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if headers, ok := args["headers"].(map[string]any); ok {
			for k, v := range headers {
				if s, ok := v.(string); ok {
					req.Header.Set(k, s)
				}
			}
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		var data any
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("request returned status %d", resp.StatusCode)
		}

		return map[string]any{
			"status": resp.StatusCode,
			"data":   data,
		}, nil
	}
}
