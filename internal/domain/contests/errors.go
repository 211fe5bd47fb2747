package contests

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("contest not found")
	ErrInvalidStatus   = errors.New("invalid contest status")
	ErrInvalidPlatform = errors.New("invalid platform")
	ErrInvalidLink     = errors.New("invalid solution link")
)

// FetchError reports a network, timeout, or HTTP status failure talking to
// an upstream source.
type FetchError struct {
	Platform Platform
	URL      string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s (%s): %v", e.Platform, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports an upstream payload that is not valid structured data.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StructureError reports valid structured data that lacks an expected path,
// usually because the upstream layout changed.
type StructureError struct {
	Source string
	Path   string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("%s: expected path %q not found", e.Source, e.Path)
}

// ExtractionError reports that an embedded data marker was absent from a page.
type ExtractionError struct {
	Source string
	Marker string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: marker %q not found in page body", e.Source, e.Marker)
}

// NormalizationError names the raw field that could not be mapped onto the
// canonical Contest.
type NormalizationError struct {
	Field  string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalize contest: %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a store failure with the operation and contest key.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
