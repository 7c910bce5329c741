package binder

import (
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/parambind/schema"
)

var (
	ErrUnboundParameter   = errors.New("unbound parameter")
	ErrAmbiguousParameter = errors.New("ambiguous parameter")
	ErrTypeMismatch       = errors.New("parameter type mismatch")
	ErrUnsupportedType    = schema.ErrUnsupportedType
)

type Kind uint8

const (
	KindUnboundParameter Kind = iota + 1
	KindAmbiguousParameter
	KindTypeMismatch
	KindUnsupportedType
)

var kindNames = map[Kind]string{
	KindUnboundParameter:   "UnboundParameter",
	KindAmbiguousParameter: "AmbiguousParameter",
	KindTypeMismatch:       "TypeMismatch",
	KindUnsupportedType:    "UnsupportedType",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

func (k Kind) sentinel() error {
	switch k {
	case KindUnboundParameter:
		return ErrUnboundParameter
	case KindAmbiguousParameter:
		return ErrAmbiguousParameter
	case KindTypeMismatch:
		return ErrTypeMismatch
	case KindUnsupportedType:
		return ErrUnsupportedType
	}
	return nil
}

// Error describes why a placeholder could not be bound. Match the kind with
// errors.Is against the Err* sentinels, or use errors.As for the details.
type Error struct {
	Kind Kind
	Name string

	// TypeMismatch only.
	Expected schema.Type
	Actual   schema.Type

	// UnsupportedType only.
	GoType string

	// AmbiguousParameter only: the bag entries the name matched.
	Candidates []string

	err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnboundParameter:
		return fmt.Sprintf("unbound parameter @%s: no value supplied", e.Name)
	case KindAmbiguousParameter:
		return fmt.Sprintf("ambiguous parameter @%s: matches %d supplied values %q", e.Name, len(e.Candidates), e.Candidates)
	case KindTypeMismatch:
		return fmt.Sprintf("parameter @%s: value of type %s is not compatible with %s", e.Name, e.Actual, e.Expected)
	case KindUnsupportedType:
		if e.err != nil {
			return fmt.Sprintf("parameter @%s: %v", e.Name, e.err)
		}
		return fmt.Sprintf("parameter @%s: unsupported parameter type %s", e.Name, e.GoType)
	}
	return fmt.Sprintf("parameter @%s: %s", e.Name, e.Kind)
}

func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

func (e *Error) Unwrap() error {
	return e.err
}

func unbound(name string) *Error {
	return &Error{Kind: KindUnboundParameter, Name: name}
}

func ambiguous(name string, candidates []string) *Error {
	return &Error{Kind: KindAmbiguousParameter, Name: name, Candidates: candidates}
}

func mismatch(name string, expected, actual schema.Type) *Error {
	return &Error{Kind: KindTypeMismatch, Name: name, Expected: expected, Actual: actual}
}

func unsupported(name string, v any, err error) *Error {
	return &Error{Kind: KindUnsupportedType, Name: name, GoType: fmt.Sprintf("%T", v), err: err}
}
