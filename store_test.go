package facegrab

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestFingerprintStore_RecordExact(t *testing.T) {
	t.Parallel()

	s := NewFingerprintStore()
	if !s.RecordExact("abc") {
		t.Fatal("first RecordExact = false")
	}
	if s.RecordExact("abc") {
		t.Error("second RecordExact = true")
	}
	if !s.RecordExact("def") {
		t.Error("RecordExact(def) = false")
	}
	if n := s.ExactHashes(); n != 2 {
		t.Errorf("ExactHashes = %d, want 2", n)
	}
}

func TestFingerprintStore_IsSimilar(t *testing.T) {
	t.Parallel()

	s := NewFingerprintStore()
	if s.IsSimilar(intFingerprint(10), 5) {
		t.Error("empty store reported a match")
	}

	s.RecordFingerprint(intFingerprint(10))

	tests := []struct {
		fp   intFingerprint
		want bool
	}{
		{10, true},
		{15, true}, // boundary is inclusive
		{5, true},
		{16, false},
		{4, false},
	}
	for _, tt := range tests {
		if got := s.IsSimilar(tt.fp, 5); got != tt.want {
			t.Errorf("IsSimilar(%d) = %v, want %v", tt.fp, got, tt.want)
		}
	}
}

func TestFingerprintStore_ThresholdZero(t *testing.T) {
	t.Parallel()

	s := NewFingerprintStore()
	s.RecordFingerprint(intFingerprint(7))
	if !s.IsSimilar(intFingerprint(7), 0) {
		t.Error("identical fingerprint not similar at threshold 0")
	}
	if s.IsSimilar(intFingerprint(8), 0) {
		t.Error("distance 1 similar at threshold 0")
	}
}

type otherFingerprint struct{}

func (otherFingerprint) Distance(Fingerprint) (int, error) { return 0, errIncomparable }

func TestFingerprintStore_IncomparableIsNotSimilar(t *testing.T) {
	t.Parallel()

	s := NewFingerprintStore()
	s.RecordFingerprint(otherFingerprint{})
	if s.IsSimilar(intFingerprint(1), 100) {
		t.Error("incomparable fingerprints reported similar")
	}
}

func TestFingerprintStore_AdmitFingerprint(t *testing.T) {
	t.Parallel()

	s := NewFingerprintStore()
	if !s.AdmitFingerprint(intFingerprint(100), 5) {
		t.Fatal("first admit = false")
	}
	if s.AdmitFingerprint(intFingerprint(103), 5) {
		t.Error("near duplicate admitted")
	}
	if !s.AdmitFingerprint(intFingerprint(200), 5) {
		t.Error("distinct fingerprint rejected")
	}
	if n := s.Fingerprints(); n != 2 {
		t.Errorf("Fingerprints = %d, want 2", n)
	}
}

func TestFingerprintStore_ConcurrentAdmitOnlyOne(t *testing.T) {
	t.Parallel()

	s := NewFingerprintStore()
	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// All values lie within 3 of each other.
			if s.AdmitFingerprint(intFingerprint(1000+i%4), 3) {
				admitted.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := admitted.Load(); n != 1 {
		t.Errorf("admitted %d near-duplicates concurrently, want 1", n)
	}
}

func TestFingerprintStore_MarkAttempted(t *testing.T) {
	t.Parallel()

	s := NewFingerprintStore()
	if !s.MarkAttempted("https://a.test/1.jpg") {
		t.Fatal("first MarkAttempted = false")
	}
	if s.MarkAttempted("https://a.test/1.jpg") {
		t.Error("second MarkAttempted = true")
	}
}
