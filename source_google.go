package facegrab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const (
	googleEndpoint = "https://www.googleapis.com/customsearch/v1"
	// googleMaxResults is the Custom Search API ceiling: start+num-1 ≤ 100.
	googleMaxResults = 100
	googleMaxNum     = 10
)

// GoogleSource queries the Google Custom Search JSON API in image mode.
type GoogleSource struct {
	APIKey     string
	EngineID   string       // programmable search engine id (cx)
	Endpoint   string       // default: Custom Search v1 endpoint
	HTTPClient *http.Client // default: http.DefaultClient

	// Image filters; empty fields use the defaults in brackets.
	ImgSize      string // [xlarge]
	ImgType      string // [photo]
	ImgColorType string // [color]
	FileType     string // [jpg]
	Safe         string // [off]
}

type googleResponse struct {
	Items []struct {
		Link  string `json:"link"`
		Title string `json:"title"`
		Image struct {
			ContextLink string `json:"contextLink"`
		} `json:"image"`
	} `json:"items"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Name implements SearchSource.
func (g *GoogleSource) Name() string { return "google" }

// Query implements SearchSource. offset is 0-based; the API's 1-based start
// is derived from it. The API returns at most ten results per request, so a
// larger page is assembled from consecutive requests covering
// [offset, offset+pageSize). Offsets past the API ceiling return an empty page.
func (g *GoogleSource) Query(ctx context.Context, text string, offset, pageSize int) ([]SearchResult, error) {
	if g.APIKey == "" || g.EngineID == "" {
		return nil, errors.New("google: API key and engine id are required")
	}
	end := min(offset+pageSize, googleMaxResults)

	var results []SearchResult
	for start := offset; start < end; {
		num := min(end-start, googleMaxNum)
		batch, err := g.queryRange(ctx, text, start, num)
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
		if len(batch) < num {
			break
		}
		start += num
	}
	return results, nil
}

// queryRange requests num results beginning at the 0-based offset start.
func (g *GoogleSource) queryRange(ctx context.Context, text string, start, num int) ([]SearchResult, error) {
	endpoint := g.Endpoint
	if endpoint == "" {
		endpoint = googleEndpoint
	}
	params := url.Values{
		"key":          {g.APIKey},
		"cx":           {g.EngineID},
		"q":            {text},
		"searchType":   {"image"},
		"num":          {strconv.Itoa(num)},
		"start":        {strconv.Itoa(start + 1)},
		"imgSize":      {orDefault(g.ImgSize, "xlarge")},
		"imgType":      {orDefault(g.ImgType, "photo")},
		"imgColorType": {orDefault(g.ImgColorType, "color")},
		"fileType":     {orDefault(g.FileType, "jpg")},
		"safe":         {orDefault(g.Safe, "off")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("google: read response: %w", err)
	}

	var data googleResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("google: decode response (status %d): %w", resp.StatusCode, err)
	}
	if data.Error != nil {
		return nil, fmt.Errorf("google: api error %d: %s", data.Error.Code, data.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: unexpected status %d", resp.StatusCode)
	}

	results := make([]SearchResult, 0, len(data.Items))
	for _, it := range data.Items {
		results = append(results, SearchResult{
			URL:     it.Link,
			PageURL: it.Image.ContextLink,
			Title:   it.Title,
		})
	}
	return results, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
