package facegrab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SearXNGSource queries a SearXNG instance's JSON API in the images category.
// SearXNG pages by page number, so offsets are mapped to pageno = offset/pageSize+1.
type SearXNGSource struct {
	URL        string       // instance base URL, e.g. http://localhost:8888
	Engines    []string     // default: all engines
	HTTPClient *http.Client // default: http.DefaultClient
	UserAgent  string
}

type searxngResponse struct {
	Results []struct {
		ImgSrc string `json:"img_src"`
		URL    string `json:"url"`
		Title  string `json:"title"`
	} `json:"results"`
}

// Name implements SearchSource.
func (s *SearXNGSource) Name() string { return "searxng" }

// Query implements SearchSource.
func (s *SearXNGSource) Query(ctx context.Context, text string, offset, pageSize int) ([]SearchResult, error) {
	if s.URL == "" {
		return nil, errors.New("searxng: instance URL is required")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	params := url.Values{
		"q":          {text},
		"format":     {"json"},
		"categories": {"images"},
		"pageno":     {strconv.Itoa(offset/pageSize + 1)},
	}
	if len(s.Engines) > 0 {
		params.Set("engines", strings.Join(s.Engines, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimRight(s.URL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searxng: unexpected status %d", resp.StatusCode)
	}

	var data searxngResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("searxng: decode response: %w", err)
	}

	results := make([]SearchResult, 0, len(data.Results))
	for _, r := range data.Results {
		if r.ImgSrc == "" {
			continue
		}
		results = append(results, SearchResult{URL: r.ImgSrc, PageURL: r.URL, Title: r.Title})
	}
	return results, nil
}
