package facegrab

import (
	"errors"
	"fmt"
)

// SourceError indicates the search source could not be queried or returned
// a malformed page. It aborts the run.
type SourceError struct {
	Source string
	Query  string
	Offset int
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source %s: query %q at offset %d: %v", e.Source, e.Query, e.Offset, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// FetchError indicates a single candidate could not be downloaded.
// The candidate is skipped; the run continues.
type FetchError struct {
	URL    string
	Status int // HTTP status, 0 when the request never completed
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// DecodeError indicates candidate bytes are corrupt or in an unknown format.
// The candidate is skipped; the run continues.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// StorageError indicates the output directory or an image file could not be
// written. It aborts the run; files already written stay on disk.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorTypeLabel maps err to a short label suitable for metrics.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var sourceErr *SourceError
	if errors.As(err, &sourceErr) {
		return "source"
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return "fetch"
	}
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return "decode"
	}
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return "storage"
	}
	return "other"
}

// IsFatal reports whether err must abort a run.
func IsFatal(err error) bool {
	var sourceErr *SourceError
	var storageErr *StorageError
	return errors.As(err, &sourceErr) || errors.As(err, &storageErr)
}
