// ABOUTME: Typed error kinds shared by the query, index and persistence layers
// ABOUTME: Ordinary misuse is reported as an *Error value, never as a panic

package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error
type Kind uint8

const (
	Unknown Kind = iota
	InvalidOperator
	InvalidIndexName
	ReservedName
	MissingCollaborator
	MalformedQuery
	StorageFailure
	InvalidComparator
	InvalidTag
	InvalidArgument
)

var kindNames = [...]string{
	Unknown:             "unknown",
	InvalidOperator:     "invalid operator",
	InvalidIndexName:    "invalid index name",
	ReservedName:        "reserved name",
	MissingCollaborator: "missing collaborator",
	MalformedQuery:      "malformed query",
	StorageFailure:      "storage failure",
	InvalidComparator:   "invalid comparator",
	InvalidTag:          "invalid tag",
	InvalidArgument:     "invalid argument",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Error carries the kind of failure, the operation that produced it and an
// optional cause
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op) && t.Err == nil
}

// Sentinels for errors.Is
var (
	ErrInvalidOperator     = &Error{Kind: InvalidOperator}
	ErrInvalidIndexName    = &Error{Kind: InvalidIndexName}
	ErrReservedName        = &Error{Kind: ReservedName}
	ErrMissingCollaborator = &Error{Kind: MissingCollaborator}
	ErrMalformedQuery      = &Error{Kind: MalformedQuery}
	ErrStorageFailure      = &Error{Kind: StorageFailure}
	ErrInvalidComparator   = &Error{Kind: InvalidComparator}
	ErrInvalidTag          = &Error{Kind: InvalidTag}
	ErrInvalidArgument     = &Error{Kind: InvalidArgument}
)

// E builds an *Error with a formatted cause
func E(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind to an existing error. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}
