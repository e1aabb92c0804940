package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// MaxArtifactBytes caps how much of an artifact is read into memory.
const MaxArtifactBytes = 32 << 20

// ArtifactFetcher retrieves a model artifact by location. The meaning of
// location depends on the implementation: a URL, a file path, or a
// container/blob pair.
type ArtifactFetcher interface {
	Fetch(ctx context.Context, location string) ([]byte, error)
}

// HTTPArtifactFetcher downloads artifacts over HTTP(S) with retries
type HTTPArtifactFetcher struct {
	client     *http.Client
	retryDelay time.Duration
	attempts   int
}

// NewHTTPArtifactFetcher creates an HTTP fetcher whose requests are bounded by timeout
func NewHTTPArtifactFetcher(timeout time.Duration) *HTTPArtifactFetcher {
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPArtifactFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		retryDelay: time.Second,
		attempts:   3,
	}
}

// WithRetryDelay sets the base delay between attempts; attempt n waits n*delay
func (h *HTTPArtifactFetcher) WithRetryDelay(delay time.Duration) *HTTPArtifactFetcher {
	h.retryDelay = delay
	return h
}

// Fetch downloads the artifact at location. 4xx responses fail immediately;
// transport errors and 5xx responses are retried.
func (h *HTTPArtifactFetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < h.attempts; attempt++ {
		data, retryable, err := h.fetchOnce(ctx, location)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}

		if attempt < h.attempts-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt+1) * h.retryDelay):
			}
		}
	}

	return nil, fmt.Errorf("failed to fetch artifact after %d attempts: %w", h.attempts, lastErr)
}

func (h *HTTPArtifactFetcher) fetchOnce(ctx context.Context, location string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, false, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("Accept", "application/json, */*")
	req.Header.Set("User-Agent", "Go-Body-Analyzer/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxArtifactBytes+1))
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > MaxArtifactBytes {
		return nil, false, fmt.Errorf("artifact exceeds %d bytes", MaxArtifactBytes)
	}
	return data, false, nil
}
