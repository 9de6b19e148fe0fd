package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFetch represents upstream API retrieval errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeNormalize represents input malformation errors
	ErrorTypeNormalize ErrorType = "normalize"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeScrape represents web scraping errors
	ErrorTypeScrape ErrorType = "scrape"
	// ErrorTypeEmbed represents embedding service errors
	ErrorTypeEmbed ErrorType = "embed"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Category returns the error's category. Promoted through every typed
// error that embeds *BaseError.
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Config Errors

// ErrInvalidConfig is returned when a required configuration value is
// missing or out of range
type ErrInvalidConfig struct {
	*BaseError
	Field string
}

func NewInvalidConfig(field, reason string) *ErrInvalidConfig {
	return &ErrInvalidConfig{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("%s %s", field, reason), nil),
		Field:     field,
	}
}

// Fetch Errors

// ErrFetchFailed is returned when the upstream submissions API cannot be reached
// or answers with a non-success status
type ErrFetchFailed struct {
	*BaseError
	URL        string
	StatusCode int
}

func NewFetchFailed(url string, statusCode int, err error) *ErrFetchFailed {
	return &ErrFetchFailed{
		BaseError:  NewBaseError(ErrorTypeFetch, fmt.Sprintf("failed to fetch submissions: %s", url), err),
		URL:        url,
		StatusCode: statusCode,
	}
}

// Normalize Errors

// ErrMalformedRecord is returned when a raw submission record is missing a
// required field or carries an invalid value. It fails the whole normalization,
// no partial results are emitted.
type ErrMalformedRecord struct {
	*BaseError
	Index int    // position of the offending record in the raw payload
	Field string // offending field
}

func NewMalformedRecord(index int, field, reason string) *ErrMalformedRecord {
	return &ErrMalformedRecord{
		BaseError: NewBaseError(ErrorTypeNormalize, fmt.Sprintf("record %d: field %q %s", index, field, reason), nil),
		Index:     index,
		Field:     field,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when the Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphMergeFailed is returned when a merge transaction cannot complete
type ErrGraphMergeFailed struct {
	*BaseError
	SubmissionID string
}

func NewGraphMergeFailed(submissionID string, err error) *ErrGraphMergeFailed {
	return &ErrGraphMergeFailed{
		BaseError:    NewBaseError(ErrorTypeGraph, fmt.Sprintf("merge failed for submission %s", submissionID), err),
		SubmissionID: submissionID,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Query string
}

func NewGraphQueryFailed(query string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, "query failed", err),
		Query:     query,
	}
}

// Scrape Errors

// ErrScrapeFailed is returned when a website cannot be scraped
type ErrScrapeFailed struct {
	*BaseError
	URL string
}

func NewScrapeFailed(url string, err error) *ErrScrapeFailed {
	return &ErrScrapeFailed{
		BaseError: NewBaseError(ErrorTypeScrape, fmt.Sprintf("failed to scrape: %s", url), err),
		URL:       url,
	}
}

// Embed Errors

// ErrEmbedFailed is returned when the embedding service cannot produce a vector
type ErrEmbedFailed struct {
	*BaseError
	Model string
}

func NewEmbedFailed(model string, err error) *ErrEmbedFailed {
	return &ErrEmbedFailed{
		BaseError: NewBaseError(ErrorTypeEmbed, fmt.Sprintf("failed to embed with model %s", model), err),
		Model:     model,
	}
}

// Helper functions

// IsErrorType checks if an error (or anything it wraps) is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(interface{ Category() ErrorType }); ok {
			return typed.Category() == errType
		}
		wrapped, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = wrapped.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is worth retrying. Graph and fetch failures
// are transient; malformed input never fixes itself on retry.
func IsRetryable(err error) bool {
	if IsErrorType(err, ErrorTypeNormalize) {
		return false
	}
	if IsErrorType(err, ErrorTypeGraph) {
		return true
	}
	if IsErrorType(err, ErrorTypeFetch) {
		return true
	}
	return false
}
