package dict

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failed dictionary operation
type Kind string

// Error kinds returned by the service
const (
	ValidationError         Kind = "ValidationError"
	RootNameConflict        Kind = "RootNameConflict"
	FieldNameConflict       Kind = "FieldNameConflict"
	ModelNameConflict       Kind = "ModelNameConflict"
	RootNotFound            Kind = "RootNotFound"
	FieldNotFound           Kind = "FieldNotFound"
	ModelNotFound           Kind = "ModelNotFound"
	RootInUse               Kind = "RootInUse"
	FieldInUse              Kind = "FieldInUse"
	RootCombinationRequired Kind = "RootCombinationRequired"
	MissingRoots            Kind = "MissingRoots"
	FieldNameInvalid        Kind = "FieldNameInvalid"
	FieldAlreadyBound       Kind = "FieldAlreadyBound"
	FieldNotBound           Kind = "FieldNotBound"
	InternalError           Kind = "InternalError"
)

var kindCodes = map[Kind]string{
	ValidationError:         "1000",
	InternalError:           "1005",
	RootNameConflict:        "2000",
	RootNotFound:            "2001",
	RootInUse:               "2002",
	FieldNameConflict:       "3000",
	FieldNotFound:           "3001",
	FieldInUse:              "3002",
	FieldNameInvalid:        "3003",
	RootCombinationRequired: "3004",
	MissingRoots:            "3005",
	ModelNameConflict:       "4000",
	ModelNotFound:           "4001",
	FieldAlreadyBound:       "4002",
	FieldNotBound:           "4003",
}

// Code returns the stable numeric error code of the kind
func (k Kind) Code() string {
	if code, ok := kindCodes[k]; ok {
		return code
	}
	return kindCodes[InternalError]
}

// IsNotFound reports whether the kind is a missing-entity failure
func (k Kind) IsNotFound() bool {
	return k == RootNotFound || k == FieldNotFound || k == ModelNotFound
}

// IsConflict reports whether the kind is a state conflict with existing data
func (k Kind) IsConflict() bool {
	switch k {
	case RootNameConflict, FieldNameConflict, ModelNameConflict,
		RootInUse, FieldInUse, FieldAlreadyBound:
		return true
	}
	return false
}

// Error is a typed dictionary failure. Expected business-rule violations are
// always reported as *Error; anything else is wrapped as InternalError.
type Error struct {
	Kind         Kind
	Message      string
	Details      []string
	ConflictID   int64
	Alternatives []string
	Impact       *Impact
	Missing      []string // MissingRoots only, in input order
	Err          error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Errors returns the message followed by the details, without duplicates
func (e *Error) Errors() []string {
	out := make([]string, 0, len(e.Details)+1)
	out = append(out, e.Message)
	for _, d := range e.Details {
		if d != e.Message {
			out = append(out, d)
		}
	}
	return out
}

// KindOf returns the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return InternalError
}

// IsKind reports whether err is a dictionary error of the given kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// AsError extracts the *Error carried by err
func AsError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func internalError(err error) *Error {
	return &Error{Kind: InternalError, Message: "internal error", Details: []string{err.Error()}, Err: err}
}

func notFound(kind Kind, id int64) *Error {
	var what string
	switch kind {
	case RootNotFound:
		what = "root"
	case FieldNotFound:
		what = "field"
	default:
		what = "model"
	}
	return newError(kind, "%s not found: %d", what, id)
}

func missingRoots(names []string) *Error {
	e := newError(MissingRoots, "roots do not exist: %s", strings.Join(names, ", "))
	e.Details = []string{"create the missing roots first"}
	e.Missing = names
	return e
}
