package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestErrorCreation(t *testing.T) {
	err := E(Op("test.operation"), KindLoad, "something failed")

	if err.Op != "test.operation" {
		t.Errorf("expected Op 'test.operation', got %q", err.Op)
	}
	if err.Kind != KindLoad {
		t.Errorf("expected Kind KindLoad, got %v", err.Kind)
	}
	if err.Msg != "something failed" {
		t.Errorf("expected Msg 'something failed', got %q", err.Msg)
	}
}

func TestErrorWithWrappedError(t *testing.T) {
	underlying := fmt.Errorf("connection refused")
	err := E(Op("loader.bulkLoad"), KindLoad, underlying, "failed to connect")

	if err.Err != underlying {
		t.Error("expected underlying error to be set")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "loader.bulkLoad") {
		t.Errorf("error string should contain operation, got %q", errStr)
	}
	if !strings.Contains(errStr, "failed to connect") {
		t.Errorf("error string should contain message, got %q", errStr)
	}
	if !strings.Contains(errStr, "connection refused") {
		t.Errorf("error string should contain underlying error, got %q", errStr)
	}
}

func TestErrorUnwrap(t *testing.T) {
	underlying := fmt.Errorf("root cause")
	err := E(Op("test"), underlying)

	unwrapped := err.Unwrap()
	if unwrapped != underlying {
		t.Error("Unwrap should return the underlying error")
	}
}

func TestErrorStringFormats(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "op only",
			err:      &Error{Op: "test"},
			expected: "test: ",
		},
		{
			name:     "msg only",
			err:      &Error{Msg: "failed"},
			expected: "failed",
		},
		{
			name:     "err only",
			err:      &Error{Err: fmt.Errorf("root")},
			expected: "root",
		},
		{
			name:     "op and msg",
			err:      &Error{Op: "test", Msg: "failed"},
			expected: "test: failed",
		},
		{
			name:     "all fields",
			err:      &Error{Op: "test", Msg: "failed", Err: fmt.Errorf("root")},
			expected: "test: failed: root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindUnknown, "unknown"},
		{KindConfig, "config"},
		{KindParse, "parse"},
		{KindInvariant, "invariant"},
		{KindVersion, "version"},
		{KindLoad, "load"},
		{KindIO, "io"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := tt.kind.String()
			if got != tt.expected {
				t.Errorf("Kind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	wrapped := Wrap("test", nil)
	if wrapped != nil {
		t.Error("Wrap(nil) should return nil")
	}

	underlying := fmt.Errorf("test error")
	wrapped = Wrap("loader.finalize", underlying)
	if wrapped == nil {
		t.Fatal("Wrap should return non-nil for non-nil error")
	}

	appErr, ok := wrapped.(*Error)
	if !ok {
		t.Fatal("Wrap should return *Error")
	}
	if appErr.Op != "loader.finalize" {
		t.Errorf("expected Op 'loader.finalize', got %q", appErr.Op)
	}
}

func TestWrapMsg(t *testing.T) {
	wrapped := WrapMsg("test", "msg", nil)
	if wrapped != nil {
		t.Error("WrapMsg(nil) should return nil")
	}

	underlying := fmt.Errorf("test error")
	wrapped = WrapMsg("loader.bulkLoad", "copy failed", underlying)
	if wrapped == nil {
		t.Fatal("WrapMsg should return non-nil for non-nil error")
	}

	errStr := wrapped.Error()
	if !strings.Contains(errStr, "copy failed") {
		t.Errorf("error should contain message, got %q", errStr)
	}
}

func TestLoadError(t *testing.T) {
	underlying := fmt.Errorf("duplicate key value")
	err := NewLoadError("loader.bulkLoad", "proteins", underlying)

	if err.Kind != KindLoad {
		t.Errorf("expected Kind KindLoad, got %v", err.Kind)
	}
	if !strings.Contains(err.Error(), "proteins") {
		t.Errorf("error should mention the table, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "duplicate key value") {
		t.Errorf("error should wrap the underlying message, got %q", err.Error())
	}
}

func TestLoadErrorWithoutTable(t *testing.T) {
	err := NewLoadError("loader.initializeSchema", "", fmt.Errorf("permission denied"))
	if strings.Contains(err.Error(), "table=") {
		t.Errorf("error should not mention a table when none is set, got %q", err.Error())
	}
}

func TestIsKind(t *testing.T) {
	err := E(KindInvariant, "test")
	if !IsKind(err, KindInvariant) {
		t.Error("expected IsKind to return true for matching kind")
	}
	if IsKind(err, KindVersion) {
		t.Error("expected IsKind to return false for non-matching kind")
	}

	stdErr := fmt.Errorf("standard error")
	if IsKind(stdErr, KindInvariant) {
		t.Error("expected IsKind to return false for non-Error type")
	}
}

func TestGetKind(t *testing.T) {
	err := E(KindVersion, "test")
	kind := GetKind(err)
	if kind != KindVersion {
		t.Errorf("expected KindVersion, got %v", kind)
	}

	stdErr := fmt.Errorf("standard error")
	kind = GetKind(stdErr)
	if kind != KindUnknown {
		t.Errorf("expected KindUnknown for non-Error, got %v", kind)
	}
}

func TestSkipCounter(t *testing.T) {
	sc := NewSkipCounter("test_operation")

	if sc.Count != 0 {
		t.Errorf("initial count should be 0, got %d", sc.Count)
	}

	sc.Skip(fmt.Errorf("error 1"), "item1")
	sc.Skip(fmt.Errorf("error 2"), "item2")
	sc.Skip(fmt.Errorf("error 3"), "item3")

	if sc.Count != 3 {
		t.Errorf("expected count 3, got %d", sc.Count)
	}

	if sc.LastErr == nil || sc.LastErr.Error() != "error 3" {
		t.Errorf("LastErr should be last error, got %v", sc.LastErr)
	}

	if sc.LastDetail != "item3" {
		t.Errorf("LastDetail should be 'item3', got %q", sc.LastDetail)
	}
}

func TestSkipCounterReport(t *testing.T) {
	sc := NewSkipCounter("test")

	sc.Report()

	sc.Skip(fmt.Errorf("err"), "detail")
	sc.Report()
}

func TestSkipCounterReportIfAny(t *testing.T) {
	sc := NewSkipCounter("test")

	sc.Skip(fmt.Errorf("err"), "detail")
	sc.ReportIfAny(5)

	for i := 0; i < 4; i++ {
		sc.Skip(fmt.Errorf("err %d", i), fmt.Sprintf("detail%d", i))
	}
	sc.ReportIfAny(5)
}

func TestRowScanner(t *testing.T) {
	rs := NewRowScanner("test_scan")

	rs.RecordScan()
	rs.RecordScan()
	rs.RecordScan()
	rs.RecordSkip(fmt.Errorf("scan error"), "row1")

	if rs.ScannedCount() != 3 {
		t.Errorf("expected 3 scanned, got %d", rs.ScannedCount())
	}
	if rs.SkippedCount() != 1 {
		t.Errorf("expected 1 skipped, got %d", rs.SkippedCount())
	}

	rs.Report()
}

func TestRowScannerNoSkips(t *testing.T) {
	rs := NewRowScanner("test_scan")
	rs.RecordScan()
	rs.RecordScan()

	rs.Report()

	if rs.SkippedCount() != 0 {
		t.Errorf("expected 0 skipped, got %d", rs.SkippedCount())
	}
}

func TestIgnoreError(t *testing.T) {
	IgnoreError(nil, "test")
	IgnoreError(fmt.Errorf("test"), "test reason")
}

func TestIsKindLoadError(t *testing.T) {
	err := NewLoadError("loader.bulkLoad", "proteins", fmt.Errorf("duplicate key"))
	if !IsKind(err, KindLoad) {
		t.Error("expected IsKind to find KindLoad on a *LoadError directly")
	}
}

func TestGetKindLoadErrorWrapped(t *testing.T) {
	// LoadError.Unwrap is promoted from the embedded *Error, which returns
	// the wrapped backend error, not the *Error itself — GetKind must check
	// *LoadError before falling through to an errors.As(*Error) search that
	// would never reach it through that chain.
	err := NewLoadError("loader.bulkLoad", "proteins", fmt.Errorf("duplicate key"))
	wrapped := fmt.Errorf("transformAndLoad: %w", err)

	if GetKind(wrapped) != KindLoad {
		t.Errorf("expected KindLoad for a wrapped *LoadError, got %v", GetKind(wrapped))
	}
}
