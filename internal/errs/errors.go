// Package errs defines the error kinds shared by every cuimp component.
//
// Each kind is a sentinel that callers match with errors.Is. Components return
// the structured types below, which carry diagnostic detail and unwrap to
// their sentinel, so callers can branch on the kind (retry on ErrTimeout or
// ErrDownloadFailed, never on ErrUnsupportedDescriptor) and still inspect the
// detail with errors.As.
package errs

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnsupportedDescriptor = errors.New("unsupported descriptor")
	ErrDownloadFailed        = errors.New("download failed")
	ErrVerificationFailed    = errors.New("verification failed")
	ErrInvalidProxyURL       = errors.New("invalid proxy url")
	ErrProcessFailed         = errors.New("process failed")
	ErrTimeout               = errors.New("timeout")
	ErrMalformedOutput       = errors.New("malformed output")
	ErrDecodeFailed          = errors.New("decode failed")
	ErrInvalidRequest        = errors.New("invalid request")
)

// UnsupportedError reports the descriptor axis that has no entry in the
// support matrix.
type UnsupportedError struct {
	Axis      string // "browser", "version", "platform" or "architecture"
	Value     string
	Supported []string
}

func (e *UnsupportedError) Error() string {
	if len(e.Supported) == 0 {
		return fmt.Sprintf("%v: %s %q", ErrUnsupportedDescriptor, e.Axis, e.Value)
	}
	return fmt.Sprintf("%v: %s %q (supported: %s)",
		ErrUnsupportedDescriptor, e.Axis, e.Value, strings.Join(e.Supported, ", "))
}

func (e *UnsupportedError) Unwrap() error {
	return ErrUnsupportedDescriptor
}

// DownloadError describes a failed archive or signature download.
// StatusCode is zero when no response was received.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%v: %s: unexpected status code %d", ErrDownloadFailed, e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", ErrDownloadFailed, e.URL, e.Err)
	default:
		return fmt.Sprintf("%v: %s", ErrDownloadFailed, e.URL)
	}
}

func (e *DownloadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDownloadFailed}
	}
	return []error{ErrDownloadFailed, e.Err}
}

// VerificationError is returned when an extracted binary fails any of the
// readiness checks. The partial artifact has already been removed.
type VerificationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *VerificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %s: %v", ErrVerificationFailed, e.Key, e.Reason, e.Err)
	}
	return fmt.Sprintf("%v: %s: %s", ErrVerificationFailed, e.Key, e.Reason)
}

func (e *VerificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrVerificationFailed}
	}
	return []error{ErrVerificationFailed, e.Err}
}

// ProxyError reports an unparseable or unsupported proxy specification.
type ProxyError struct {
	Proxy  string
	Reason string
}

func (e *ProxyError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidProxyURL, Redact(e.Proxy), e.Reason)
}

func (e *ProxyError) Unwrap() error {
	return ErrInvalidProxyURL
}

// ProcessError is a non-zero exit of the impersonation binary that produced no
// parseable response. A binary that could not be started at all has ExitCode
// -1 and the cause in Err.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", ErrProcessFailed, e.Err)
	case e.Stderr == "":
		return fmt.Sprintf("%v: exit code %d", ErrProcessFailed, e.ExitCode)
	default:
		return fmt.Sprintf("%v: exit code %d: %s", ErrProcessFailed, e.ExitCode, e.Stderr)
	}
}

func (e *ProcessError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrProcessFailed}
	}
	return []error{ErrProcessFailed, e.Err}
}

// TimeoutError is returned when the child process outlived its deadline and
// was terminated, or when curl itself gave up (exit code 28).
type TimeoutError struct {
	After time.Duration
	PID   int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%v: request exceeded %s", ErrTimeout, e.After)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

// MalformedError is returned when the captured output does not follow the
// header-dump framing.
type MalformedError struct {
	Reason  string
	Excerpt string
}

func (e *MalformedError) Error() string {
	if e.Excerpt == "" {
		return fmt.Sprintf("%v: %s", ErrMalformedOutput, e.Reason)
	}
	return fmt.Sprintf("%v: %s: %q", ErrMalformedOutput, e.Reason, e.Excerpt)
}

func (e *MalformedError) Unwrap() error {
	return ErrMalformedOutput
}

// DecodeError records a failed typed-payload decode. It never fails a request;
// it is attached to the response instead.
type DecodeError struct {
	ContentType string
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrDecodeFailed, e.ContentType, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecodeFailed, e.Err}
}

// InvalidRequest wraps a request validation message.
func InvalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
