// Package muerr defines the observable error kinds of a muton campaign, per
// the error handling design: per-mutant/per-target errors are logged and the
// scheduler continues; baseline and I/O errors abort.
package muerr

import "errors"

// Kind classifies an error for propagation decisions upstream. Most callers
// should prefer errors.Is against the sentinels below rather than comparing
// Kind directly.
type Kind int

const (
	KindIO Kind = iota
	KindStore
	KindInvalidInput
	KindTargetNotFound
	KindBaselineFailed
	KindTimeout
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindStore:
		return "store"
	case KindInvalidInput:
		return "invalid_input"
	case KindTargetNotFound:
		return "target_not_found"
	case KindBaselineFailed:
		return "baseline_failed"
	case KindTimeout:
		return "timeout"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks. Wrap with fmt.Errorf("...: %w", ErrX) to
// attach context while keeping the sentinel matchable.
var (
	ErrIO             = errors.New("io error")
	ErrStore          = errors.New("store error")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTargetNotFound = errors.New("target not found")
	ErrBaselineFailed = errors.New("baseline test failed")
	ErrTimeout        = errors.New("timeout")
	ErrCancelled      = errors.New("cancelled")
)

// Error is a muton error carrying a Kind alongside the wrapped cause, so
// callers that need the kind (e.g. to decide fatal vs. continue) don't have
// to re-derive it from sentinel comparisons.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// IsFatal reports whether an error of this kind must abort the whole
// campaign rather than being logged and skipped.
func IsFatal(err error) bool {
	var me *Error
	if errors.As(err, &me) {
		switch me.Kind {
		case KindBaselineFailed, KindIO:
			return true
		default:
			return false
		}
	}
	return false
}
