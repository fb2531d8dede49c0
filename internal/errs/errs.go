// Package errs defines the error kinds shared across the installer,
// value engine, and FFI layers, and a small typed error that carries
// a kind, an operation name, a one-line user-facing description, and
// a chained cause.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that branch on failure category.
type Kind int

const (
	// Other is the zero value; used when no more specific kind applies.
	Other Kind = iota
	IO
	Network
	Verify
	Verifier
	Extract
	UTF8
	CircularDependency
	OptionalNotInObject
	EmptyAlternatives
	IndexOutOfRange
	NoDefaultInBatchMode
	Native
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "io"
	case Network:
		return "network"
	case Verify:
		return "verify"
	case Verifier:
		return "verifier"
	case Extract:
		return "extract"
	case UTF8:
		return "utf8"
	case CircularDependency:
		return "circular_dependency"
	case OptionalNotInObject:
		return "optional_not_in_object"
	case EmptyAlternatives:
		return "empty_alternatives"
	case IndexOutOfRange:
		return "index_out_of_range"
	case NoDefaultInBatchMode:
		return "no_default_in_batch_mode"
	case Native:
		return "native"
	default:
		return "other"
	}
}

// E is the error type used across the module. Op names the failing
// operation (e.g. "value.resolve", "download.Download"); Desc is a short,
// user-displayable description; Err, when set, is chained via Unwrap.
type E struct {
	Kind Kind
	Op   string
	Desc string
	Err  error
}

func (e *E) Error() string {
	switch {
	case e.Desc != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Desc, e.Err)
	case e.Desc != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Desc)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *E) Unwrap() error { return e.Err }

// Is reports whether target is an *E with the same Kind, letting callers
// write errors.Is(err, &errs.E{Kind: errs.Verify}).
func (e *E) Is(target error) bool {
	var t *E
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// New builds an *E, suitable for errors.Is(err, errs.New(Kind, "", "")).
func New(kind Kind, op, desc string) *E {
	return &E{Kind: kind, Op: op, Desc: desc}
}

// Wrap builds an *E that chains an underlying error.
func Wrap(kind Kind, op, desc string, err error) *E {
	return &E{Kind: kind, Op: op, Desc: desc, Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) an *E, else Other.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return Other
}
