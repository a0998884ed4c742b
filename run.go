package facegrab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AcceptedImage is a candidate that passed every stage and was written to disk.
type AcceptedImage struct {
	Index       int // 1-based acceptance order
	URL         string
	PageURL     string
	Path        string
	Format      string
	Width       int
	Height      int
	Digest      string
	Fingerprint Fingerprint
	Metadata    *ImageMetadata // nil when the file carries no rights metadata
}

// Result reports a finished (or aborted) run.
type Result struct {
	RunID      string
	Query      string
	Dir        string
	URLs       []string // accepted source URLs in acceptance order
	Images     []AcceptedImage
	Rejected   map[Reason]int
	Pages      int
	LastOffset int
	Stop       StopReason
	StartedAt  time.Time
	FinishedAt time.Time
}

// Run acquires up to TargetCount images for query and returns their source
// URLs in acceptance order. On a fatal error the URLs accepted so far are
// returned together with the error; files already written stay on disk.
func (cfg *Config) Run(ctx context.Context, query string) ([]string, error) {
	res, err := cfg.Acquire(ctx, query)
	if res == nil {
		return nil, err
	}
	return res.URLs, err
}

// Acquire is like Run but returns the full run report.
// Each call gets its own state and output directory; cfg itself is not
// modified, so one Config may serve concurrent runs.
func (cfg *Config) Acquire(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	c := *cfg
	c.defaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dir, err := c.Namer.Create(c.OutputRoot, query)
	if err != nil {
		c.Metrics.IncError(err)
		return nil, err
	}

	store := NewFingerprintStore()
	r := &run{
		cfg:   &c,
		query: query,
		chain: newFilterChain(&c, store),
		res: &Result{
			RunID:     uuid.NewString(),
			Query:     query,
			Dir:       dir,
			Rejected:  make(map[Reason]int),
			StartedAt: time.Now(),
		},
	}

	slog.Info("facegrab: run started",
		"run_id", r.res.RunID,
		"query", query,
		"dir", dir,
		"target", c.TargetCount,
		"source", c.Source.Name(),
	)

	pg := newPaginator(&c, query, store)
	stop, err := pg.run(ctx, r.handle)

	r.res.Stop = stop
	r.res.Pages = pg.pages
	r.res.LastOffset = pg.offset
	r.res.FinishedAt = time.Now()
	r.finish(ctx, err)

	return r.res, err
}

// run owns the mutable state of one acquisition.
type run struct {
	cfg   *Config
	query string
	chain *filterChain
	res   *Result
}

func (r *run) handle(ctx context.Context, hit SearchResult) (done bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if r.cfg.OnPanic != nil {
				r.cfg.OnPanic("candidate", rec)
			}
			slog.Error("facegrab: candidate panicked", "url", hit.URL, "panic", fmt.Sprint(rec))
			done, err = false, nil
		}
	}()

	if rej := r.chain.prefilterURL(hit.URL); rej != nil {
		r.reject(rej)
		return false, nil
	}

	cand, err := r.cfg.Fetcher.Fetch(ctx, hit.URL)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: hit.URL, Err: err}
		}
		r.reject(&Rejection{URL: hit.URL, Stage: "fetch", Reason: ReasonFetchFailed, Err: err})
		return false, nil
	}

	ev, rej := r.chain.evaluate(ctx, cand)
	if rej != nil {
		r.reject(rej)
		return false, nil
	}

	img, err := r.persist(hit, ev)
	if err != nil {
		return false, err
	}
	r.accept(ctx, img)

	return len(r.res.URLs) >= r.cfg.TargetCount, nil
}

// persist writes the candidate bytes exactly once; an existing file is an error.
func (r *run) persist(hit SearchResult, ev *evaluation) (AcceptedImage, error) {
	index := len(r.res.URLs) + 1
	path := filepath.Join(r.res.Dir, imageFileName(r.query, index, ev.img.Ext()))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return AcceptedImage{}, &StorageError{Path: path, Err: err}
	}
	if _, err := f.Write(ev.cand.Data); err != nil {
		f.Close()
		return AcceptedImage{}, &StorageError{Path: path, Err: err}
	}
	if err := f.Close(); err != nil {
		return AcceptedImage{}, &StorageError{Path: path, Err: err}
	}

	return AcceptedImage{
		Index:       index,
		URL:         hit.URL,
		PageURL:     hit.PageURL,
		Path:        path,
		Format:      ev.img.Format,
		Width:       ev.img.Width,
		Height:      ev.img.Height,
		Digest:      ev.img.Digest,
		Fingerprint: ev.fp,
		Metadata:    ev.meta,
	}, nil
}

func (r *run) accept(ctx context.Context, img AcceptedImage) {
	r.res.URLs = append(r.res.URLs, img.URL)
	r.res.Images = append(r.res.Images, img)
	r.cfg.Metrics.IncAccepted()

	slog.Info("facegrab: image accepted",
		"index", img.Index,
		"url", img.URL,
		"path", img.Path,
		"size", fmt.Sprintf("%dx%d", img.Width, img.Height),
	)

	if r.cfg.OnAccept != nil {
		r.cfg.OnAccept(img)
	}
	if r.cfg.Journal != nil {
		if err := r.cfg.Journal.RecordImage(ctx, r.res.RunID, r.query, img); err != nil {
			slog.Warn("facegrab: journal record failed", "url", img.URL, "error", err.Error())
		}
	}
}

func (r *run) reject(rej *Rejection) {
	r.res.Rejected[rej.Reason]++
	r.cfg.Metrics.IncRejected(rej.Reason)

	if rej.Err != nil {
		r.cfg.Metrics.IncError(rej.Err)
		slog.Warn("facegrab: candidate skipped",
			"url", rej.URL,
			"stage", rej.Stage,
			"reason", string(rej.Reason),
			"error", rej.Err.Error(),
		)
	} else {
		slog.Debug("facegrab: candidate rejected",
			"url", rej.URL,
			"stage", rej.Stage,
			"reason", string(rej.Reason),
			"detail", rej.Detail,
		)
	}

	if r.cfg.OnReject != nil {
		r.cfg.OnReject(*rej)
	}
}

func (r *run) finish(ctx context.Context, err error) {
	r.cfg.Metrics.IncRun(r.res.Stop)

	if err != nil {
		r.cfg.Metrics.IncError(err)
		slog.Error("facegrab: run aborted",
			"run_id", r.res.RunID,
			"query", r.query,
			"offset", r.res.LastOffset,
			"accepted", len(r.res.URLs),
			"error", err.Error(),
		)
	} else {
		slog.Info("facegrab: run finished",
			"run_id", r.res.RunID,
			"query", r.query,
			"accepted", len(r.res.URLs),
			"dir", r.res.Dir,
			"stop", string(r.res.Stop),
		)
	}

	if r.cfg.Journal != nil {
		// The run context may already be cancelled; the journal still gets the summary.
		if jerr := r.cfg.Journal.FinishRun(context.WithoutCancel(ctx), r.res); jerr != nil {
			slog.Warn("facegrab: journal finish failed", "run_id", r.res.RunID, "error", jerr.Error())
		}
	}
}
