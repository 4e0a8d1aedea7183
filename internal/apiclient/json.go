package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GetJSON fetches path and decodes the JSON response into T.
func GetJSON[T any](ctx context.Context, c *Client, path string) (*T, error) {
	return doJSON[T](ctx, c, http.MethodGet, path, nil)
}

// PostJSON sends body as JSON to path and decodes the JSON response into T.
func PostJSON[T any](ctx context.Context, c *Client, path string, body any) (*T, error) {
	return doJSON[T](ctx, c, http.MethodPost, path, body)
}

func doJSON[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var reader io.Reader
	header := http.Header{}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
		header.Set("Content-Type", "application/json")
	}
	header.Set("Accept", "application/json")

	resp, err := c.Do(ctx, method, path, reader, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return &out, nil
}
