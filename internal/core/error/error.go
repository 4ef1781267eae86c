package errx

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Kind classifies a failure by how the caller should react to it.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindTransport    Kind = "transport"
	KindMalformed    Kind = "malformed_response"
	KindCapability   Kind = "capability_error"
	KindPrecondition Kind = "precondition"
	KindNotFound     Kind = "not_found"
)

// Error wraps an underlying error with a kind, an HTTP status and a safe message.
// Capability names the external feature area the failure belongs to
// (for example "product search" or "knowledge base").
type Error struct {
	Err        error
	Kind       Kind
	Status     int
	Message    string
	Capability string
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := e.Message
	if e.Capability != "" {
		prefix = e.Capability + ": " + e.Message
	}
	if e.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, status int, message string) *Error {
	return &Error{
		Err:     err,
		Kind:    KindUnknown,
		Status:  status,
		Message: message,
	}
}

// Transport reports a failure to reach a capability, including timeouts.
func Transport(capability string, err error) *Error {
	return &Error{
		Err:        err,
		Kind:       KindTransport,
		Status:     http.StatusBadGateway,
		Message:    "transport failure",
		Capability: capability,
	}
}

// Malformed reports a response that could not be parsed into the expected shape.
func Malformed(capability string, err error) *Error {
	return &Error{
		Err:        err,
		Kind:       KindMalformed,
		Status:     http.StatusBadGateway,
		Message:    "malformed response",
		Capability: capability,
	}
}

// Capability reports an error the remote capability returned about the request itself.
func Capability(capability, message string) *Error {
	return &Error{
		Kind:       KindCapability,
		Status:     http.StatusUnprocessableEntity,
		Message:    message,
		Capability: capability,
	}
}

// Precondition reports a violated local precondition, such as a vector dimension mismatch.
func Precondition(capability, message string) *Error {
	return &Error{
		Kind:       KindPrecondition,
		Status:     http.StatusInternalServerError,
		Message:    message,
		Capability: capability,
	}
}

// WrapRedis maps Redis errors to the unified Error type with appropriate status codes.
func WrapRedis(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.Nil) {
		return &Error{Err: err, Kind: KindNotFound, Status: http.StatusNotFound, Message: RedisNotFoundMessage}
	}
	return &Error{Err: err, Kind: KindTransport, Status: http.StatusBadGateway, Message: RedisErrorMessage}
}

// KindOf classifies any error. Context deadlines and cancellations count as transport failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind != "" && e.Kind != KindUnknown {
		return e.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransport
	}
	return KindUnknown
}

// CapabilityOf returns the capability recorded on err, if any.
func CapabilityOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Capability
	}
	return ""
}

// MessageOf returns the safe message recorded on err, or SystemErrorMessage.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return SystemErrorMessage
}
