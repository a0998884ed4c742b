package facegrab

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultMaxBytes = 16 << 20 // 16 MiB
	defaultTimeout  = 10 * time.Second
)

// Candidate is a fetched search hit before filtering.
type Candidate struct {
	URL         string
	Data        []byte
	ContentType string // MIME type without parameters
}

// HTTPFetcher downloads candidates over HTTP. StealthClient is tried first
// when set; Client is the fallback.
type HTTPFetcher struct {
	Client        *http.Client
	StealthClient *http.Client
	UserAgent     string
	Timeout       time.Duration // per-request timeout (default: 10s)
	MaxBytes      int64         // max response body size (default: 16 MiB)
	Metrics       *Metrics
}

// Fetch implements Fetcher. Non-image responses are returned with their
// content type and no body; rejecting them is the filter chain's job.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Candidate, error) {
	start := time.Now()
	defer func() { f.Metrics.ObserveFetch(time.Since(start)) }()

	if f.StealthClient != nil {
		if c, err := f.fetchWith(ctx, f.StealthClient, url); err == nil {
			return c, nil
		}
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	return f.fetchWith(ctx, client, url)
}

func (f *HTTPFetcher) fetchWith(ctx context.Context, client *http.Client, url string) (*Candidate, error) {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBytes := f.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := client.Do(req) //nolint:gosec // URL comes from the search source by design
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: url, Status: resp.StatusCode, Err: errors.New(http.StatusText(resp.StatusCode))}
	}

	ct := mediaType(resp.Header.Get("Content-Type"))
	if !isImageType(ct) {
		return &Candidate{URL: url, ContentType: ct}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, &FetchError{URL: url, Status: resp.StatusCode, Err: err}
	}
	if int64(len(data)) > maxBytes {
		return nil, &FetchError{URL: url, Status: resp.StatusCode, Err: fmt.Errorf("body exceeds %d bytes", maxBytes)}
	}

	return &Candidate{URL: url, Data: data, ContentType: ct}, nil
}

// mediaType strips MIME parameters: "image/jpeg; charset=utf-8" → "image/jpeg".
func mediaType(ct string) string {
	if idx := strings.IndexByte(ct, ';'); idx >= 0 {
		ct = ct[:idx]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func isImageType(ct string) bool {
	return strings.HasPrefix(ct, "image/")
}
