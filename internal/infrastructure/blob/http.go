// Package blob uploads files to an HTTP object store (S3-compatible presigned
// endpoints or a plain PUT gateway).
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"garageflow/internal/core/id"
	"garageflow/internal/domain/repairorder"
)

const (
	defaultRetryMax     = 3
	defaultRetryWaitMax = 5 * time.Second
	defaultTimeout      = 30 * time.Second

	// MaxObjectSize bounds a single upload.
	MaxObjectSize = 15 << 20
)

// Config configures the HTTP store.
type Config struct {
	BaseURL  string
	Token    string
	RetryMax int
	Timeout  time.Duration
}

// HTTPStore implements repairorder.FileStore with idempotent PUTs.
type HTTPStore struct {
	client  *retryablehttp.Client
	baseURL string
	token   string
}

var _ repairorder.FileStore = (*HTTPStore)(nil)

// NewHTTPStore creates a store that retries transient failures.
func NewHTTPStore(cfg Config) *HTTPStore {
	client := retryablehttp.NewClient()
	client.RetryMax = defaultRetryMax
	if cfg.RetryMax > 0 {
		client.RetryMax = cfg.RetryMax
	}
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = defaultRetryWaitMax
	client.HTTPClient.Timeout = defaultTimeout
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	client.Logger = nil
	client.CheckRetry = retryablehttp.DefaultRetryPolicy

	return &HTTPStore{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
	}
}

// Upload PUTs body under garageID/key and returns the object URL.
func (s *HTTPStore) Upload(ctx context.Context, garageID id.ID, key string, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxObjectSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload body: %w", err)
	}
	if len(data) > MaxObjectSize {
		return "", fmt.Errorf("object %s exceeds %d bytes", key, MaxObjectSize)
	}

	objectURL, err := s.objectURL(garageID, key)
	if err != nil {
		return "", err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, objectURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload %s: unexpected status %d", key, resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "" {
		return loc, nil
	}
	return objectURL, nil
}

func (s *HTTPStore) objectURL(garageID id.ID, key string) (string, error) {
	if s.baseURL == "" {
		return "", fmt.Errorf("blob store base URL is not configured")
	}
	segments := strings.Split(strings.Trim(key, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + garageID.String() + "/" + strings.Join(segments, "/"), nil
}
