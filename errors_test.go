package facegrab

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestErrorTypeLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, "unknown"},
		{"source", &SourceError{Source: "google", Err: io.EOF}, "source"},
		{"fetch", &FetchError{URL: "u", Status: 500, Err: io.EOF}, "fetch"},
		{"decode", &DecodeError{URL: "u", Err: io.EOF}, "decode"},
		{"storage", &StorageError{Path: "p", Err: io.EOF}, "storage"},
		{"wrapped storage", fmt.Errorf("persist: %w", &StorageError{Path: "p", Err: io.EOF}), "storage"},
		{"plain", errors.New("x"), "other"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ErrorTypeLabel(tc.err); got != tc.want {
				t.Errorf("ErrorTypeLabel() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	t.Parallel()

	if !IsFatal(&SourceError{Err: io.EOF}) || !IsFatal(&StorageError{Err: io.EOF}) {
		t.Error("source and storage errors must be fatal")
	}
	if IsFatal(&FetchError{Err: io.EOF}) || IsFatal(&DecodeError{Err: io.EOF}) || IsFatal(nil) {
		t.Error("per-candidate errors must not be fatal")
	}
}

func TestErrorsUnwrap(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		&SourceError{Err: io.EOF},
		&FetchError{Err: io.EOF},
		&DecodeError{Err: io.EOF},
		&StorageError{Err: io.EOF},
	} {
		if !errors.Is(err, io.EOF) {
			t.Errorf("%T does not unwrap to its cause", err)
		}
	}
}

func TestFetchErrorMessage(t *testing.T) {
	t.Parallel()

	withStatus := &FetchError{URL: "https://a.test/x.jpg", Status: 404, Err: errors.New("Not Found")}
	if got := withStatus.Error(); got != "fetch https://a.test/x.jpg: status 404: Not Found" {
		t.Errorf("Error() = %q", got)
	}
	noStatus := &FetchError{URL: "https://a.test/x.jpg", Err: errors.New("timeout")}
	if got := noStatus.Error(); got != "fetch https://a.test/x.jpg: timeout" {
		t.Errorf("Error() = %q", got)
	}
}
