package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is a thin JSON-over-HTTP client shared by every jinshu
// service that calls another one (pusher -> comet, receiver -> queue
// is broker-direct so doesn't use this, comet -> authorizer). It wraps
// a base URL discovered through the registry.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client against baseURL (as returned by a registry
// Discover/Watch), with a bounded per-call timeout matching the
// original's tower timeout layer (5s, jinshu-rpc/src/registry.rs).
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 5 * time.Second}}
}

// Call POSTs reqBody as JSON to path and decodes the response into
// respBody. A non-2xx response is translated into a *Status via
// ReadError.
func (c *Client) Call(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("rpc: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("rpc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("rpc: call %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ReadError(resp)
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("rpc: decode response: %w", err)
	}
	return nil
}
