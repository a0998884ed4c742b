// Package facegrab acquires a bounded set of visually distinct,
// single-subject photographs for a text query.
//
// A run pages through a SearchSource, fetches every new candidate URL once,
// and pushes it through an ordered filter chain (content type, exact
// duplicate, decode, minimum size, subject count, near duplicate). Accepted
// images are written under a fresh directory derived from the query.
package facegrab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Defaults mirror the values the tool has always shipped with.
const (
	DefaultTargetCount         = 5
	DefaultMinDimension        = 800
	DefaultSimilarityThreshold = 5
	DefaultPageSize            = 10
	DefaultMaxPages            = 10
	DefaultOutputRoot          = "images"
	DefaultUserAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"
)

var (
	// ErrEmptyQuery is returned by Run when the query is blank.
	ErrEmptyQuery = errors.New("facegrab: empty query")
	// ErrNoSource is returned when Config.Source is nil.
	ErrNoSource = errors.New("facegrab: no search source configured")
	// ErrNoDetector is returned when Config.Detector is nil.
	ErrNoDetector = errors.New("facegrab: no subject detector configured")
)

// SearchResult is one image hit returned by a SearchSource.
type SearchResult struct {
	URL     string // direct image URL
	PageURL string // page the image was found on
	Title   string
}

// SearchSource is a paginated image search backend.
// An empty slice with a nil error means the source is exhausted.
type SearchSource interface {
	Name() string
	Query(ctx context.Context, text string, offset, pageSize int) ([]SearchResult, error)
}

// Fetcher downloads the raw bytes behind a candidate URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Candidate, error)
}

// Decoder turns raw bytes into pixels.
type Decoder interface {
	Decode(data []byte) (*DecodedImage, error)
}

// SubjectDetector counts subjects (faces) in a decoded image.
type SubjectDetector interface {
	DetectCount(ctx context.Context, img *DecodedImage) (int, error)
}

// Fingerprinter derives a perceptual fingerprint from a decoded image.
type Fingerprinter interface {
	Fingerprint(img *DecodedImage) (Fingerprint, error)
}

// Journal receives an audit trail of runs. Failures are logged, never fatal.
type Journal interface {
	RecordImage(ctx context.Context, runID, query string, img AcceptedImage) error
	FinishRun(ctx context.Context, res *Result) error
}

// Config holds tuning parameters and all dependencies injected by the consumer.
type Config struct {
	Source        SearchSource    // required
	Detector      SubjectDetector // required
	Fetcher       Fetcher         // optional: default HTTPFetcher built from the fields below
	Decoder       Decoder         // optional: default StdDecoder
	Fingerprinter Fingerprinter   // optional: default PHash
	Namer         *OutputNamer    // optional: default process-wide namer
	Journal       Journal         // optional
	Metrics       *Metrics        // optional

	StealthClient *http.Client // optional: TLS-fingerprinted client tried first for downloads
	HTTPClient    *http.Client // optional: default http.DefaultClient
	UserAgent     string       // default: DefaultUserAgent

	OutputRoot          string        // default: DefaultOutputRoot
	TargetCount         int           // default: DefaultTargetCount
	MinDimension        *int          // nil: DefaultMinDimension; 0 disables the size floor
	SimilarityThreshold *int          // inclusive distance; nil: DefaultSimilarityThreshold; 0 rejects only identical fingerprints
	PageSize            int           // default: DefaultPageSize
	MaxPages            int           // default: DefaultMaxPages
	FetchTimeout        time.Duration // default: 10s
	MaxBytes            int64         // default: 16 MiB

	// BlockStock rejects stock-agency URLs before fetch and stock-agency
	// metadata after decode.
	BlockStock bool
	// ExtraBlockedDomains are additional stock domains, used when BlockStock is set.
	ExtraBlockedDomains []string
	// SkipLogos rejects URLs that look like logos, icons or banners before fetch.
	SkipLogos bool

	// Optional callbacks for metrics/logging.
	OnAccept func(AcceptedImage)
	OnReject func(Rejection)
	OnPanic  func(tag string, r any)
}

// Int returns a pointer to v, for the optional integer fields of Config.
func Int(v int) *int { return &v }

// defaults fills zero-value fields with sensible defaults.
func (c *Config) defaults() {
	if c.TargetCount <= 0 {
		c.TargetCount = DefaultTargetCount
	}
	if c.MinDimension == nil {
		c.MinDimension = Int(DefaultMinDimension)
	}
	if c.SimilarityThreshold == nil {
		c.SimilarityThreshold = Int(DefaultSimilarityThreshold)
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	if c.OutputRoot == "" {
		c.OutputRoot = DefaultOutputRoot
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultTimeout
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = defaultMaxBytes
	}
	if c.Fetcher == nil {
		c.Fetcher = &HTTPFetcher{
			Client:        c.HTTPClient,
			StealthClient: c.StealthClient,
			UserAgent:     c.UserAgent,
			Timeout:       c.FetchTimeout,
			MaxBytes:      c.MaxBytes,
			Metrics:       c.Metrics,
		}
	}
	if c.Decoder == nil {
		c.Decoder = StdDecoder{}
	}
	if c.Fingerprinter == nil {
		c.Fingerprinter = PHash{}
	}
	if c.Namer == nil {
		c.Namer = defaultNamer
	}
}

// Validate reports configuration that cannot produce a run.
// It is called by Acquire after defaults are applied.
func (c *Config) Validate() error {
	if c.Source == nil {
		return ErrNoSource
	}
	if c.Detector == nil {
		return ErrNoDetector
	}
	if c.TargetCount <= 0 {
		return fmt.Errorf("facegrab: target count must be positive, got %d", c.TargetCount)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("facegrab: page size must be positive, got %d", c.PageSize)
	}
	if c.MinDimension != nil && *c.MinDimension < 0 {
		return fmt.Errorf("facegrab: min dimension cannot be negative, got %d", *c.MinDimension)
	}
	if c.SimilarityThreshold != nil && *c.SimilarityThreshold < 0 {
		return fmt.Errorf("facegrab: similarity threshold cannot be negative, got %d", *c.SimilarityThreshold)
	}
	if c.OutputRoot == "" {
		return errors.New("facegrab: output root cannot be empty")
	}
	return nil
}
