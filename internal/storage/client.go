package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"coachcast/internal/config"
)

const defaultHTTPTimeout = 60 * time.Second

// Client uploads objects to a bucket-style storage endpoint and resolves
// their stable public URLs (Supabase storage semantics).
type Client struct {
	baseURL    string
	bucket     string
	serviceKey string
	httpClient *http.Client
}

// Option customizes the storage client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a storage client from configuration.
func NewClient(cfg config.Storage, opts ...Option) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.URL), "/"),
		bucket:     strings.TrimSpace(cfg.Bucket),
		serviceKey: strings.TrimSpace(cfg.ServiceKey),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Upload stores data at objectPath inside the configured bucket, replacing
// any existing object at that path.
func (c *Client) Upload(ctx context.Context, objectPath, contentType string, data []byte) error {
	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if objectPath == "" {
		return errors.New("storage upload: object path required")
	}
	if c.baseURL == "" {
		return errors.New("storage upload: base url required")
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("storage upload: request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("x-upsert", "true")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage upload: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("storage upload: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

// PublicURL returns the stable public URL for an object previously uploaded
// to the configured bucket.
func (c *Client) PublicURL(objectPath string) string {
	objectPath = strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.baseURL, c.bucket, objectPath)
}
