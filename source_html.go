package facegrab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

// HTMLSource scrapes image links from an HTML results page.
//
// URLTemplate may contain the placeholders {query} (URL-escaped), {offset},
// {page} (1-based) and {count}. Every element matching Selector contributes
// the value of Attr, resolved against the page URL.
type HTMLSource struct {
	URLTemplate string
	Selector    string            // default: "img"
	Attr        string            // default: "src"
	UserAgent   string            // default: DefaultUserAgent
	Timeout     time.Duration     // default: 15s
	Transport   http.RoundTripper // optional, replaces colly's transport
}

// Name implements SearchSource.
func (s *HTMLSource) Name() string { return "html" }

// Query implements SearchSource.
func (s *HTMLSource) Query(ctx context.Context, text string, offset, pageSize int) ([]SearchResult, error) {
	if s.URLTemplate == "" {
		return nil, errors.New("html: URL template is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	pageURL := strings.NewReplacer(
		"{query}", url.QueryEscape(text),
		"{offset}", strconv.Itoa(offset),
		"{page}", strconv.Itoa(offset/pageSize+1),
		"{count}", strconv.Itoa(pageSize),
	).Replace(s.URLTemplate)

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	c := colly.NewCollector(colly.UserAgent(orDefault(s.UserAgent, DefaultUserAgent)))
	c.SetRequestTimeout(timeout)
	if s.Transport != nil {
		c.WithTransport(s.Transport)
	}

	var (
		results  []SearchResult
		seen     = make(map[string]bool)
		visitErr error
	)

	c.OnHTML(orDefault(s.Selector, "img"), func(e *colly.HTMLElement) {
		if len(results) >= pageSize {
			return
		}
		link := e.Request.AbsoluteURL(strings.TrimSpace(e.Attr(orDefault(s.Attr, "src"))))
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			return
		}
		if seen[link] {
			return
		}
		seen[link] = true
		results = append(results, SearchResult{
			URL:     link,
			PageURL: e.Request.URL.String(),
			Title:   e.Attr("alt"),
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			visitErr = fmt.Errorf("html: status %d: %w", r.StatusCode, err)
			return
		}
		visitErr = fmt.Errorf("html: %w", err)
	})

	if err := c.Visit(pageURL); err != nil && visitErr == nil {
		visitErr = fmt.Errorf("html: visit %s: %w", pageURL, err)
	}
	c.Wait()

	if visitErr != nil {
		return nil, visitErr
	}
	return results, nil
}
