package repository

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors returned by backends. They are matched with errors.Is
// through the *Error wrapper.
var (
	ErrNotFound    = errors.New("task not found")
	ErrInvalid     = errors.New("invalid task")
	ErrUnavailable = errors.New("store unavailable")
	ErrPermission  = errors.New("permission denied")
)

// Kind classifies a failed bridge operation.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnavailable
	KindNotFound
	KindInvalid
	KindPermission
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindNotFound:
		return "not_found"
	case KindInvalid:
		return "invalid"
	case KindPermission:
		return "permission"
	default:
		return "unknown"
	}
}

// Error is the failure variant of every TaskRepository operation.
type Error struct {
	Op   string
	ID   string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s task %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s tasks: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a bridge error, or KindUnknown for anything else.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Kind
	}
	return classify(err)
}

func wrap(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return err
	}
	return &Error{Op: op, ID: id, Kind: classify(err), Err: err}
}

func classify(err error) Kind {
	var netErr net.Error
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvalid):
		return KindInvalid
	case errors.Is(err, ErrPermission):
		return KindPermission
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.As(err, &netErr):
		return KindUnavailable
	default:
		return KindUnknown
	}
}
