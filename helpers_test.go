package facegrab

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// makeJPEG returns a valid JPEG of the given dimensions filled with c.
func makeJPEG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		panic("makeJPEG: " + err.Error())
	}
	return buf.Bytes()
}

// makePNG returns a valid PNG of the given dimensions filled with c.
func makePNG(w, h int, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic("makePNG: " + err.Error())
	}
	return buf.Bytes()
}

// shade returns a distinct grey level for i.
func shade(i int) color.RGBA {
	v := uint8(20 + (i*37)%200)
	return color.RGBA{R: v, G: v, B: v, A: 255}
}

func newImageServer(t *testing.T, contentType string, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// fakeSource serves fixed pages keyed by offset. Offsets without a page are empty.
type fakeSource struct {
	mu      sync.Mutex
	pages   map[int][]SearchResult
	err     error
	offsets []int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Query(_ context.Context, _ string, offset, _ int) ([]SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offsets = append(s.offsets, offset)
	if s.err != nil {
		return nil, s.err
	}
	return s.pages[offset], nil
}

func (s *fakeSource) queried() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.offsets...)
}

// hits builds search results for the given URLs.
func hits(urls ...string) []SearchResult {
	out := make([]SearchResult, len(urls))
	for i, u := range urls {
		out[i] = SearchResult{URL: u}
	}
	return out
}

// fakeFetcher serves candidates from memory and counts fetches per URL.
type fakeFetcher struct {
	mu    sync.Mutex
	items map[string]*Candidate
	calls map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{items: make(map[string]*Candidate), calls: make(map[string]int)}
}

func (f *fakeFetcher) add(url, contentType string, data []byte) {
	f.items[url] = &Candidate{URL: url, ContentType: contentType, Data: data}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (*Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[url]++
	c, ok := f.items[url]
	if !ok {
		return nil, &FetchError{URL: url, Status: http.StatusNotFound, Err: errors.New("not found")}
	}
	cp := *c
	return &cp, nil
}

func (f *fakeFetcher) callCount(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

// countingDecoder wraps StdDecoder and counts invocations.
type countingDecoder struct {
	mu    sync.Mutex
	calls int
}

func (d *countingDecoder) Decode(data []byte) (*DecodedImage, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return StdDecoder{}.Decode(data)
}

func (d *countingDecoder) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// fakeDetector reports subject counts by digest; unknown digests get def.
type fakeDetector struct {
	mu       sync.Mutex
	byDigest map[string]int
	def      int
	err      error
	calls    int
}

func (d *fakeDetector) DetectCount(_ context.Context, img *DecodedImage) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return 0, d.err
	}
	if n, ok := d.byDigest[img.Digest]; ok {
		return n, nil
	}
	return d.def, nil
}

func (d *fakeDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// intFingerprint is a one-dimensional fingerprint with |a-b| distance.
type intFingerprint int

func (f intFingerprint) Distance(other Fingerprint) (int, error) {
	o, ok := other.(intFingerprint)
	if !ok {
		return 0, errIncomparable
	}
	d := int(f) - int(o)
	if d < 0 {
		d = -d
	}
	return d, nil
}

// fakeFingerprinter assigns fingerprints by digest. Unknown digests get
// values spaced far apart so they never collide.
type fakeFingerprinter struct {
	mu       sync.Mutex
	byDigest map[string]intFingerprint
	next     intFingerprint
	calls    int
}

func (f *fakeFingerprinter) Fingerprint(img *DecodedImage) (Fingerprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if fp, ok := f.byDigest[img.Digest]; ok {
		return fp, nil
	}
	f.next += 1000
	return f.next, nil
}

func (f *fakeFingerprinter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
