package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the request-handler boundary
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindUnauthenticated
	KindNotFound
	KindQuotaExceeded
	KindRateLimited
	KindStoreUnavailable
	KindMissingPlanData
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "INVALID_INPUT"
	case KindUnauthenticated:
		return "UNAUTHENTICATED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindQuotaExceeded:
		return "QUOTA_EXCEEDED"
	case KindRateLimited:
		return "RATE_LIMITED"
	case KindStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case KindMissingPlanData:
		return "MISSING_PLAN_DATA"
	default:
		return "INTERNAL"
	}
}

var (
	ErrUnauthenticated = New(KindUnauthenticated, "", "authentication required", nil)
	ErrMissingPlanData = New(KindMissingPlanData, "", "no plan configured, including the free fallback", nil)
	ErrNotFound        = New(KindNotFound, "", "resource not found", nil)
)

// Error wraps an underlying error with its kind and the operation that failed
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func New(kind Kind, op, message string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Err: err}
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on kind so callers can use errors.Is against the sentinels
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func InvalidInput(op, message string) *Error {
	return New(KindInvalidInput, op, message, nil)
}

func QuotaExceeded(op, message string) *Error {
	return New(KindQuotaExceeded, op, message, nil)
}

func NotFound(op, message string) *Error {
	return New(KindNotFound, op, message, nil)
}

// Store marks a durable store failure. Returns nil for a nil err.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return New(KindStoreUnavailable, op, "store unavailable", err)
}

// Returns the kind of err, KindInternal for anything unclassified
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// Reports whether the caller may retry the failed operation
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindRateLimited, KindStoreUnavailable:
		return true
	default:
		return false
	}
}

// Reports whether err indicates a deployment problem rather than a runtime condition
func IsFatal(err error) bool {
	return KindOf(err) == KindMissingPlanData
}

// Machine-readable error code for response bodies
func Code(err error) string {
	return KindOf(err).String()
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindQuotaExceeded:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindStoreUnavailable, KindMissingPlanData:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Returns the user-facing message for err. Internal details are not exposed.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		switch appErr.Kind {
		case KindStoreUnavailable:
			return "Storage is temporarily unavailable, please retry"
		case KindMissingPlanData, KindInternal:
			return "Internal server error"
		}
		if appErr.Message != "" {
			return appErr.Message
		}
		return appErr.Kind.String()
	}
	return "Internal server error"
}
