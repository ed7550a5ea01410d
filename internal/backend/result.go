package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrTransport marks failures where no response envelope was produced:
// network errors, timeouts, unreadable bodies.
var ErrTransport = errors.New("backend: transport failure")

// Result is the success/error envelope every store call resolves to.
type Result[T any] struct {
	Success bool
	Data    T
	Error   string
	Status  int
}

// Error is the error form of a failed envelope.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: status %d", e.Status)
	}
	return fmt.Sprintf("backend: status %d: %s", e.Status, e.Message)
}

// NotFound reports whether the backend answered 404.
func (e *Error) NotFound() bool {
	return e.Status == http.StatusNotFound
}

// Err returns nil for a successful envelope and an *Error otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{Status: r.Status, Message: r.Error}
}

func succeed[T any](data T, status int) Result[T] {
	return Result[T]{Success: true, Data: data, Status: status}
}

func fail[T any](status int, message string) Result[T] {
	return Result[T]{Status: status, Error: message}
}

func mapResult[T, U any](r Result[T], fn func(T) U) Result[U] {
	if !r.Success {
		return fail[U](r.Status, r.Error)
	}
	return succeed(fn(r.Data), r.Status)
}
