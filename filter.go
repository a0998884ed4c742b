package facegrab

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Reason classifies why a candidate was rejected.
type Reason string

const (
	ReasonBlockedURL        Reason = "blocked_url"
	ReasonFetchFailed       Reason = "fetch_failed"
	ReasonNotImage          Reason = "not_image"
	ReasonExactDuplicate    Reason = "exact_duplicate"
	ReasonDecodeFailed      Reason = "decode_failed"
	ReasonStockMetadata     Reason = "stock_metadata"
	ReasonTooSmall          Reason = "too_small"
	ReasonSubjectCount      Reason = "subject_count"
	ReasonDetectorFailed    Reason = "detector_failed"
	ReasonNearDuplicate     Reason = "near_duplicate"
	ReasonFingerprintFailed Reason = "fingerprint_failed"
)

// Rejection describes a candidate that did not pass the filter chain.
type Rejection struct {
	URL    string
	Stage  string
	Reason Reason
	Detail string
	Err    error // FetchError or DecodeError when applicable
}

// ExactHash returns the hex MD5 digest used for byte-identical duplicate detection.
func ExactHash(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

// evaluation carries one candidate through the stages.
type evaluation struct {
	cand *Candidate
	img  *DecodedImage
	fp   Fingerprint
	meta *ImageMetadata
}

type stage struct {
	name string
	run  func(ctx context.Context, ev *evaluation) *Rejection
}

// filterChain applies the acceptance stages in cost order: cheap checks on
// headers and hashes first, decoding and detection last.
type filterChain struct {
	cfg      *Config
	store    *FingerprintStore
	stages   []stage
	readMeta func([]byte) *ImageMetadata
}

func newFilterChain(cfg *Config, store *FingerprintStore) *filterChain {
	fc := &filterChain{cfg: cfg, store: store, readMeta: ExtractImageMetadata}
	fc.stages = []stage{
		{name: "content_type", run: fc.checkContentType},
		{name: "exact_duplicate", run: fc.checkExactDuplicate},
		{name: "decode", run: fc.decode},
	}
	if cfg.BlockStock {
		fc.stages = append(fc.stages, stage{name: "stock_metadata", run: fc.checkStockMetadata})
	}
	fc.stages = append(fc.stages,
		stage{name: "min_size", run: fc.checkMinSize},
		stage{name: "subject_count", run: fc.checkSubjectCount},
		stage{name: "near_duplicate", run: fc.checkNearDuplicate},
	)
	return fc
}

// stageNames lists the active stages in execution order.
func (fc *filterChain) stageNames() []string {
	names := make([]string, len(fc.stages))
	for i, s := range fc.stages {
		names[i] = s.name
	}
	return names
}

// prefilterURL runs the optional URL-only checks that need no download.
func (fc *filterChain) prefilterURL(url string) *Rejection {
	if fc.cfg.SkipLogos && IsGraphicURL(url) {
		return &Rejection{URL: url, Stage: "prefilter", Reason: ReasonBlockedURL, Detail: "logo or banner"}
	}
	if fc.cfg.BlockStock && IsStockURL(url, fc.cfg.ExtraBlockedDomains) {
		return &Rejection{URL: url, Stage: "prefilter", Reason: ReasonBlockedURL, Detail: "stock domain"}
	}
	return nil
}

// evaluate runs every stage in order and stops at the first rejection.
// near_duplicate is last and admits the fingerprint into the store, so no
// work may follow it.
func (fc *filterChain) evaluate(ctx context.Context, cand *Candidate) (*evaluation, *Rejection) {
	ev := &evaluation{cand: cand}
	for _, s := range fc.stages {
		if rej := s.run(ctx, ev); rej != nil {
			rej.URL = cand.URL
			rej.Stage = s.name
			return nil, rej
		}
	}
	return ev, nil
}

func (fc *filterChain) checkContentType(_ context.Context, ev *evaluation) *Rejection {
	if !isImageType(ev.cand.ContentType) {
		return &Rejection{Reason: ReasonNotImage, Detail: ev.cand.ContentType}
	}
	return nil
}

func (fc *filterChain) checkExactDuplicate(_ context.Context, ev *evaluation) *Rejection {
	digest := ExactHash(ev.cand.Data)
	if !fc.store.RecordExact(digest) {
		return &Rejection{Reason: ReasonExactDuplicate, Detail: digest}
	}
	ev.img = &DecodedImage{Digest: digest}
	return nil
}

func (fc *filterChain) decode(_ context.Context, ev *evaluation) *Rejection {
	img, err := fc.cfg.Decoder.Decode(ev.cand.Data)
	if err != nil {
		return &Rejection{Reason: ReasonDecodeFailed, Err: &DecodeError{URL: ev.cand.URL, Err: err}}
	}
	img.Digest = ev.img.Digest
	ev.img = img
	return nil
}

func (fc *filterChain) checkStockMetadata(_ context.Context, ev *evaluation) *Rejection {
	ev.meta = fc.readMeta(ev.cand.Data)
	if IsStockByMetadata(ev.meta) {
		return &Rejection{Reason: ReasonStockMetadata, Detail: metadataStockDetail(ev.meta)}
	}
	return nil
}

func (fc *filterChain) checkMinSize(_ context.Context, ev *evaluation) *Rejection {
	if max(ev.img.Width, ev.img.Height) < *fc.cfg.MinDimension {
		return &Rejection{
			Reason: ReasonTooSmall,
			Detail: fmt.Sprintf("%dx%d", ev.img.Width, ev.img.Height),
		}
	}
	return nil
}

func (fc *filterChain) checkSubjectCount(ctx context.Context, ev *evaluation) *Rejection {
	n, err := fc.cfg.Detector.DetectCount(ctx, ev.img)
	if err != nil {
		slog.Debug("facegrab: subject detection failed", "url", ev.cand.URL, "error", err.Error())
		return &Rejection{Reason: ReasonDetectorFailed, Err: err}
	}
	if n != 1 {
		return &Rejection{Reason: ReasonSubjectCount, Detail: fmt.Sprintf("found %d", n)}
	}
	return nil
}

func (fc *filterChain) checkNearDuplicate(_ context.Context, ev *evaluation) *Rejection {
	fp, err := fc.cfg.Fingerprinter.Fingerprint(ev.img)
	if err != nil {
		return &Rejection{Reason: ReasonFingerprintFailed, Err: err}
	}
	if ev.meta == nil {
		ev.meta = fc.readMeta(ev.cand.Data)
	}
	if !fc.store.AdmitFingerprint(fp, *fc.cfg.SimilarityThreshold) {
		return &Rejection{Reason: ReasonNearDuplicate}
	}
	ev.fp = fp
	return nil
}
