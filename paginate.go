package facegrab

import (
	"context"
	"errors"
	"log/slog"
)

// StopReason records why a run ended.
type StopReason string

const (
	StopTargetReached StopReason = "target_reached"
	StopExhausted     StopReason = "exhausted"
	StopPageLimit     StopReason = "page_limit"
	StopCancelled     StopReason = "cancelled"
	StopFailed        StopReason = "failed"
)

// candidateHandler processes one new search hit. It returns done=true once
// the run's target is met; a non-nil error aborts pagination.
type candidateHandler func(ctx context.Context, hit SearchResult) (done bool, err error)

// paginator walks a SearchSource page by page in increasing offset order.
// States: fetching(offset) until a page comes back empty (exhausted), the
// handler reports the target met (stopping mid-page), the page limit is
// hit, or the context is cancelled between candidates.
type paginator struct {
	source   SearchSource
	query    string
	pageSize int
	maxPages int
	store    *FingerprintStore
	metrics  *Metrics

	offset int // offset of the page being processed
	pages  int // pages requested so far
}

func newPaginator(cfg *Config, query string, store *FingerprintStore) *paginator {
	return &paginator{
		source:   cfg.Source,
		query:    query,
		pageSize: cfg.PageSize,
		maxPages: cfg.MaxPages,
		store:    store,
		metrics:  cfg.Metrics,
	}
}

// run drives pagination until a terminal state. URLs already attempted in
// this run are skipped without being handed to handle.
func (p *paginator) run(ctx context.Context, handle candidateHandler) (StopReason, error) {
	for {
		if err := ctx.Err(); err != nil {
			return StopCancelled, err
		}
		if p.pages >= p.maxPages {
			slog.Info("facegrab: page limit reached", "query", p.query, "pages", p.pages)
			return StopPageLimit, nil
		}

		slog.Debug("facegrab: requesting page", "source", p.source.Name(), "query", p.query, "offset", p.offset)
		hits, err := p.source.Query(ctx, p.query, p.offset, p.pageSize)
		p.pages++
		p.metrics.IncPage()
		if err != nil {
			if ctx.Err() != nil {
				return StopCancelled, ctx.Err()
			}
			return StopFailed, p.sourceError(err)
		}
		if len(hits) == 0 {
			slog.Info("facegrab: no more results", "query", p.query, "offset", p.offset)
			return StopExhausted, nil
		}

		for _, hit := range hits {
			if err := ctx.Err(); err != nil {
				return StopCancelled, err
			}
			if hit.URL == "" || !p.store.MarkAttempted(hit.URL) {
				continue
			}
			done, err := handle(ctx, hit)
			if err != nil {
				return StopFailed, err
			}
			if done {
				return StopTargetReached, nil
			}
		}

		p.offset += p.pageSize
	}
}

func (p *paginator) sourceError(err error) error {
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{Source: p.source.Name(), Query: p.query, Offset: p.offset, Err: err}
}
