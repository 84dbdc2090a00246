package profile

import "errors"

// Kind classifies a failed query.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindFetch
)

// Message returns the user-visible text for the kind.
func (k Kind) Message() string {
	switch k {
	case KindValidation:
		return "Please enter a GitHub username"
	case KindNotFound:
		return "User not found"
	case KindFetch:
		return "Error fetching repositories"
	default:
		return "Unknown error"
	}
}

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindFetch:
		return "fetch"
	default:
		return "unknown"
	}
}

// Error is a failed query. Err holds the transport or status cause, if any.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.Message() + ": " + e.Err.Error()
	}
	return e.Kind.Message()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrFetch      = &Error{Kind: KindFetch}

	// ErrSuperseded is returned by Run when a newer query started before
	// this one finished. Its result was discarded.
	ErrSuperseded = errors.New("query superseded by a newer submission")
)

// Message returns the user-visible message carried by err, or "" when err
// is nil or not a query error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.Message()
	}
	return ""
}
