// Package dpferr defines the error taxonomy shared by every package in
// this module: invalid-argument, unimplemented, internal, and
// failed-precondition, matching the signal table of the distributed
// point function specification's error handling design.
package dpferr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap one of these with fmt.Errorf("...: %w", Kind)
// so callers can branch with errors.Is.
var (
	// ErrInvalidArgument covers bad parameters, bad alpha/beta, bad
	// keys, bad contexts, unsupported value types, and prefixes that
	// are not extensions of a previously evaluated prefix.
	ErrInvalidArgument = errors.New("dpf: invalid argument")

	// ErrUnimplemented covers value types without a registered
	// value-correction function.
	ErrUnimplemented = errors.New("dpf: unimplemented")

	// ErrInternal covers PRG/hash failures, proto/wire parsing
	// failures, and broken mathematical invariants that should be
	// impossible in correct code.
	ErrInternal = errors.New("dpf: internal error")

	// ErrFailedPrecondition covers operations attempted on a context
	// that can no longer accept them, e.g. one already fully evaluated.
	ErrFailedPrecondition = errors.New("dpf: failed precondition")
)

// InvalidArgument wraps msg as an ErrInvalidArgument.
func InvalidArgument(msg string) error {
	return &wrapped{kind: ErrInvalidArgument, msg: msg}
}

// InvalidArgumentf wraps a formatted message as an ErrInvalidArgument.
func InvalidArgumentf(format string, args ...any) error {
	return &wrapped{kind: ErrInvalidArgument, msg: fmt.Sprintf(format, args...)}
}

// Unimplemented wraps msg as an ErrUnimplemented.
func Unimplemented(msg string) error {
	return &wrapped{kind: ErrUnimplemented, msg: msg}
}

// Internal wraps msg as an ErrInternal.
func Internal(msg string) error {
	return &wrapped{kind: ErrInternal, msg: msg}
}

// Internalf wraps a formatted message as an ErrInternal.
func Internalf(format string, args ...any) error {
	return &wrapped{kind: ErrInternal, msg: fmt.Sprintf(format, args...)}
}

// FailedPrecondition wraps msg as an ErrFailedPrecondition.
func FailedPrecondition(msg string) error {
	return &wrapped{kind: ErrFailedPrecondition, msg: msg}
}

type wrapped struct {
	kind error
	msg  string
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.kind }
