package facegrab

import "sync"

// FingerprintStore tracks what a run has already seen: exact content hashes,
// perceptual fingerprints of accepted images and attempted source URLs.
// It only grows and is discarded with the run. It is safe for concurrent use.
type FingerprintStore struct {
	mu           sync.Mutex
	exact        map[string]struct{}
	fingerprints []Fingerprint
	attempted    map[string]struct{}
}

// NewFingerprintStore returns an empty store.
func NewFingerprintStore() *FingerprintStore {
	return &FingerprintStore{
		exact:     make(map[string]struct{}),
		attempted: make(map[string]struct{}),
	}
}

// RecordExact inserts hash and returns true, or returns false if the hash
// was already present.
func (s *FingerprintStore) RecordExact(hash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.exact[hash]; ok {
		return false
	}
	s.exact[hash] = struct{}{}
	return true
}

// IsSimilar reports whether any recorded fingerprint lies within threshold
// (inclusive) of fp. Pairs whose distance cannot be computed are not similar.
func (s *FingerprintStore) IsSimilar(fp Fingerprint, threshold int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.similarLocked(fp, threshold)
}

// RecordFingerprint appends fp unconditionally.
func (s *FingerprintStore) RecordFingerprint(fp Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fingerprints = append(s.fingerprints, fp)
}

// AdmitFingerprint records fp and returns true unless it is similar to a
// recorded fingerprint. Check and insert happen under one lock, so two
// concurrent near-duplicates can never both be admitted.
func (s *FingerprintStore) AdmitFingerprint(fp Fingerprint, threshold int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.similarLocked(fp, threshold) {
		return false
	}
	s.fingerprints = append(s.fingerprints, fp)
	return true
}

func (s *FingerprintStore) similarLocked(fp Fingerprint, threshold int) bool {
	for _, seen := range s.fingerprints {
		dist, err := fp.Distance(seen)
		if err == nil && dist <= threshold {
			return true
		}
	}
	return false
}

// MarkAttempted records url and returns true, or returns false if the URL
// was attempted before in this run.
func (s *FingerprintStore) MarkAttempted(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.attempted[url]; ok {
		return false
	}
	s.attempted[url] = struct{}{}
	return true
}

// Fingerprints returns the number of recorded fingerprints.
func (s *FingerprintStore) Fingerprints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fingerprints)
}

// ExactHashes returns the number of recorded exact hashes.
func (s *FingerprintStore) ExactHashes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exact)
}
