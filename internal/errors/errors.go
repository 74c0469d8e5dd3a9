// Package errors provides the error taxonomy and logging helpers shared
// across the transformer, loader, and pipeline driver.
package errors

import (
	"errors"
	"fmt"
	"log"
	"strings"
)

// Op represents an operation name for error context.
type Op string

// Error represents an application error with context.
type Error struct {
	Op   Op     // Operation that failed
	Kind Kind   // Category of error
	Err  error  // Underlying error
	Msg  string // Additional context message
}

// Kind represents the category of error.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindConfig       // invalid mode/dataset, missing config file, missing source file
	KindParse        // malformed XML, unparseable integers in a worker
	KindInvariant    // duplicate primary accession in source
	KindVersion      // delta with a source version older than the database's
	KindLoad         // backend error during COPY/upsert/rename
	KindIO
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindParse:
		return "parse"
	case KindInvariant:
		return "invariant"
	case KindVersion:
		return "version"
	case KindLoad:
		return "load"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(string(e.Op))
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
		if e.Err != nil {
			b.WriteString(": ")
		}
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error with the given arguments.
// Arguments can be: Op, Kind, error, string (message).
func E(args ...interface{}) *Error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case error:
			e.Err = a
		case string:
			e.Msg = a
		}
	}
	return e
}

// Wrap wraps an error with an operation name for context.
func Wrap(op Op, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapMsg wraps an error with an operation name and message.
func WrapMsg(op Op, msg string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Msg: msg, Err: err}
}

// LoadError is the distinguished error type bulk_load, finalize, and the
// other Loader operations return on any backend failure, so the pipeline
// driver can tell a load-transaction failure apart from a config or parse
// failure without inspecting message text.
type LoadError struct {
	*loadErrorBase
	Table string // empty for operations not scoped to a single table
}

// loadErrorBase names the embedded *Error so its field name does not clash
// with LoadError's own Error method.
type loadErrorBase = Error

// NewLoadError wraps a backend error as a LoadError for the named table.
func NewLoadError(op Op, table string, err error) *LoadError {
	return &LoadError{loadErrorBase: &Error{Op: op, Kind: KindLoad, Err: err}, Table: table}
}

func (e *LoadError) Error() string {
	if e.Table == "" {
		return e.loadErrorBase.Error()
	}
	return fmt.Sprintf("%s [table=%s]", e.loadErrorBase.Error(), e.Table)
}

// SkipCounter tracks how many times operations have been skipped.
// Use this to provide visibility into silent error patterns.
type SkipCounter struct {
	Op         string
	Count      int
	LastErr    error
	LastDetail string
}

// NewSkipCounter creates a new skip counter for the given operation.
func NewSkipCounter(op string) *SkipCounter {
	return &SkipCounter{Op: op}
}

// Skip records a skipped operation due to an error.
func (s *SkipCounter) Skip(err error, detail string) {
	s.Count++
	s.LastErr = err
	s.LastDetail = detail
}

// Report logs a summary if any operations were skipped.
func (s *SkipCounter) Report() {
	if s.Count > 0 {
		log.Printf("Warning: %s skipped %d items (last error: %v, detail: %s)",
			s.Op, s.Count, s.LastErr, s.LastDetail)
	}
}

// ReportIfAny logs a summary only if the count is at least threshold.
func (s *SkipCounter) ReportIfAny(threshold int) {
	if s.Count >= threshold {
		s.Report()
	}
}

// IgnoreError explicitly ignores an error with a reason.
// This documents that the error is intentionally ignored.
//
// Example:
//
//	errors.IgnoreError(file.Close(), "cleanup during error recovery")
func IgnoreError(err error, reason string) {
	if err != nil {
		log.Printf("Debug: ignoring error (%s): %v", reason, err)
	}
}

// IsKind reports whether err, or anything it wraps, is an *Error or
// *LoadError of kind.
func IsKind(err error, kind Kind) bool {
	return GetKind(err) == kind
}

// GetKind unwraps err looking for a *LoadError or *Error and returns its
// Kind, or KindUnknown if neither is found. Used at the CLI boundary to
// annotate a failing command's error line with its kind, without the caller
// needing to know how deeply the error was wrapped. *LoadError is checked first since it doesn't forward
// its own Kind through Unwrap (Unwrap yields the backend error it wraps,
// not the embedded *Error).
func GetKind(err error) Kind {
	var le *LoadError
	if errors.As(err, &le) {
		return le.Kind
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// RowScanner tallies successes and skips across a batch of row-shaped work,
// such as the transformer counting entries it drops for lacking a primary
// accession.
type RowScanner struct {
	skipped *SkipCounter
	scanned int
}

// NewRowScanner creates a new row scanner with error tracking.
func NewRowScanner(operation string) *RowScanner {
	return &RowScanner{
		skipped: NewSkipCounter(operation),
	}
}

// RecordScan records a successful scan.
func (r *RowScanner) RecordScan() {
	r.scanned++
}

// RecordSkip records a skipped row due to scan error.
func (r *RowScanner) RecordSkip(err error, identifier string) {
	r.skipped.Skip(err, identifier)
}

// Report logs statistics about the scanning operation.
func (r *RowScanner) Report() {
	if r.skipped.Count > 0 {
		log.Printf("Row scan complete: %d scanned, %d skipped (%.1f%% success rate)",
			r.scanned, r.skipped.Count,
			float64(r.scanned)/float64(r.scanned+r.skipped.Count)*100)
		r.skipped.Report()
	}
}

// SkippedCount returns the number of skipped rows.
func (r *RowScanner) SkippedCount() int {
	return r.skipped.Count
}

// ScannedCount returns the number of successfully scanned rows.
func (r *RowScanner) ScannedCount() int {
	return r.scanned
}
