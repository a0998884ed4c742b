package facegrab

import (
	"context"
	"errors"
	"testing"
)

func newTestPaginator(src SearchSource, pageSize, maxPages int) *paginator {
	cfg := &Config{Source: src, PageSize: pageSize, MaxPages: maxPages}
	return newPaginator(cfg, "q", NewFingerprintStore())
}

func TestPaginator_WalksOffsetsUntilEmpty(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[int][]SearchResult{
		0: hits("a", "b", "c"),
		3: hits("d", "e", "f"),
		6: hits("g"),
	}}
	p := newTestPaginator(src, 3, 10)

	var seen []string
	stop, err := p.run(context.Background(), func(_ context.Context, hit SearchResult) (bool, error) {
		seen = append(seen, hit.URL)
		return false, nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stop != StopExhausted {
		t.Errorf("stop = %q, want exhausted", stop)
	}
	if len(seen) != 7 {
		t.Errorf("seen = %v, want 7 hits", seen)
	}
	if got := src.queried(); len(got) != 4 || got[3] != 9 {
		t.Errorf("offsets = %v, want [0 3 6 9]", got)
	}
	if p.pages != 4 {
		t.Errorf("pages = %d, want 4", p.pages)
	}
}

func TestPaginator_StopsMidPage(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[int][]SearchResult{0: hits("a", "b", "c")}}
	p := newTestPaginator(src, 3, 10)

	var seen []string
	stop, err := p.run(context.Background(), func(_ context.Context, hit SearchResult) (bool, error) {
		seen = append(seen, hit.URL)
		return hit.URL == "b", nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stop != StopTargetReached {
		t.Errorf("stop = %q, want target_reached", stop)
	}
	if len(seen) != 2 {
		t.Errorf("seen = %v, want [a b]", seen)
	}
	if p.offset != 0 {
		t.Errorf("offset = %d, want 0 when stopping inside the first page", p.offset)
	}
}

func TestPaginator_SkipsRepeatsAndEmptyURLs(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[int][]SearchResult{
		0: hits("a", "", "a"),
		3: hits("b", "a"),
	}}
	p := newTestPaginator(src, 3, 10)

	var seen []string
	if _, err := p.run(context.Background(), func(_ context.Context, hit SearchResult) (bool, error) {
		seen = append(seen, hit.URL)
		return false, nil
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Errorf("seen = %v, want [a b]", seen)
	}
}

func TestPaginator_SourceError(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: errors.New("quota exceeded")}
	p := newTestPaginator(src, 3, 10)

	stop, err := p.run(context.Background(), func(context.Context, SearchResult) (bool, error) {
		t.Fatal("handler called on failed page")
		return false, nil
	})
	if stop != StopFailed {
		t.Errorf("stop = %q, want failed", stop)
	}
	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want SourceError", err)
	}
	if se.Source != "fake" || se.Query != "q" || se.Offset != 0 {
		t.Errorf("SourceError = %+v", se)
	}
}

func TestPaginator_SourceErrorNotDoubleWrapped(t *testing.T) {
	t.Parallel()

	inner := &SourceError{Source: "inner", Offset: 42, Err: errors.New("x")}
	src := &fakeSource{err: inner}
	p := newTestPaginator(src, 3, 10)

	_, err := p.run(context.Background(), func(context.Context, SearchResult) (bool, error) { return false, nil })
	if err != inner {
		t.Errorf("err = %v, want the source's own SourceError", err)
	}
}

func TestPaginator_HandlerErrorAborts(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[int][]SearchResult{0: hits("a", "b")}}
	p := newTestPaginator(src, 3, 10)
	storageErr := &StorageError{Path: "/x", Err: errors.New("disk full")}

	stop, err := p.run(context.Background(), func(context.Context, SearchResult) (bool, error) {
		return false, storageErr
	})
	if stop != StopFailed || !errors.Is(err, storageErr) {
		t.Errorf("stop = %q err = %v, want failed with storage error", stop, err)
	}
}

func TestPaginator_PageLimit(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[int][]SearchResult{}}
	for off := 0; off < 50; off += 2 {
		src.pages[off] = hits(string(rune('a'+off/2)), string(rune('A'+off/2)))
	}
	p := newTestPaginator(src, 2, 3)

	stop, err := p.run(context.Background(), func(context.Context, SearchResult) (bool, error) { return false, nil })
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stop != StopPageLimit || p.pages != 3 {
		t.Errorf("stop = %q pages = %d, want page_limit after 3", stop, p.pages)
	}
}

func TestPaginator_CancelledBeforeFirstPage(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{pages: map[int][]SearchResult{0: hits("a")}}
	p := newTestPaginator(src, 3, 10)

	stop, err := p.run(ctx, func(context.Context, SearchResult) (bool, error) { return false, nil })
	if stop != StopCancelled || !errors.Is(err, context.Canceled) {
		t.Errorf("stop = %q err = %v, want cancelled", stop, err)
	}
	if len(src.queried()) != 0 {
		t.Error("source queried after cancellation")
	}
}
