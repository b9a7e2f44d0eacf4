package llm

import (
	"errors"
	"fmt"
)

// Class is the coarse result of a provider call.
type Class int

const (
	ClassSuccess Class = iota
	ClassRetryable
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "success"
	case ClassRetryable:
		return "retryable"
	case ClassFatal:
		return "fatal"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Kind is the error category of a failed call.
type Kind string

const (
	KindAuth             Kind = "auth"
	KindNotFound         Kind = "not-found"
	KindRateLimited      Kind = "rate-limited"
	KindLoading          Kind = "loading"
	KindServerError      Kind = "server-error"
	KindConnection       Kind = "connection"
	KindTimeout          Kind = "timeout"
	KindParseError       Kind = "parse-error"
	KindEmptyResponse    Kind = "empty-response"
	KindUnexpectedShape  Kind = "unexpected-shape"
	KindUnexpectedStatus Kind = "unexpected-status"
)

// Kinds returns every error kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindAuth, KindNotFound, KindRateLimited, KindLoading, KindServerError,
		KindConnection, KindTimeout, KindParseError, KindEmptyResponse,
		KindUnexpectedShape, KindUnexpectedStatus,
	}
}

// Retryable reports whether a failure of this kind is transient.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindLoading, KindServerError, KindConnection, KindTimeout:
		return true
	default:
		return false
	}
}

// Class maps the kind to ClassRetryable or ClassFatal.
func (k Kind) Class() Class {
	if k.Retryable() {
		return ClassRetryable
	}
	return ClassFatal
}

// CallError is a classified provider call failure.
type CallError struct {
	Kind       Kind
	StatusCode int
	Detail     string
	Cause      error
}

// NewCallError creates a CallError of the given kind.
func NewCallError(kind Kind, detail string) *CallError {
	return &CallError{Kind: kind, Detail: detail}
}

func (e *CallError) Error() string {
	msg := string(e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.StatusCode)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return "llm " + e.Kind.Class().String() + ": " + msg
}

func (e *CallError) Unwrap() error { return e.Cause }

// Class returns the retryable/fatal class of the error.
func (e *CallError) Class() Class { return e.Kind.Class() }

// AsCallError extracts a *CallError from err.
func AsCallError(err error) (*CallError, bool) {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	ce, ok := AsCallError(err)
	return ok && ce.Kind.Retryable()
}

// Outcome is the tagged result of one provider call. A successful outcome
// carries Reply and a nil Err; a failed one carries Err and an empty Reply.
type Outcome struct {
	Reply string
	Err   *CallError
}

// Success creates a successful outcome.
func Success(reply string) Outcome {
	return Outcome{Reply: reply}
}

// Failure creates a failed outcome. The class is derived from the kind.
func Failure(kind Kind, detail string) Outcome {
	return Outcome{Err: NewCallError(kind, detail)}
}

// FailureFrom wraps an existing error. Errors that are not a *CallError
// are treated as connection failures.
func FailureFrom(err error) Outcome {
	if ce, ok := AsCallError(err); ok {
		return Outcome{Err: ce}
	}
	return Outcome{Err: &CallError{Kind: KindConnection, Detail: err.Error(), Cause: err}}
}

// Class returns the outcome class.
func (o Outcome) Class() Class {
	if o.Err == nil {
		return ClassSuccess
	}
	return o.Err.Class()
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.Err == nil }

// Kind returns the failure kind or "" on success.
func (o Outcome) Kind() Kind {
	if o.Err == nil {
		return ""
	}
	return o.Err.Kind
}
