// Package errors is the structured error taxonomy spec §7 describes:
// kinds, not classes, each errors.Error carrying the phase it occurred
// in, a kind, and human detail, with golang-idiomatic Unwrap/Is support
// for errors.Is/errors.As chains.
package errors

import (
	"fmt"
	"strings"
)

// Phase indicates which component raised the error.
type Phase string

const (
	PhaseDecode Phase = "decode" // marshal reader
	PhaseLayout Phase = "layout" // layout DAG
	PhaseGC     Phase = "gc"     // heap / scavenger
	PhaseInterp Phase = "interp" // reference bytecode interpreter
	PhaseMachine Phase = "machine" // handler-threaded interpreter
	PhaseImport Phase = "import" // module import / init
)

// Kind categorizes the error, independent of phase.
type Kind string

const (
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindAllocation     Kind = "allocation"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindOverflow       Kind = "overflow"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInvalidInput   Kind = "invalid_input"
	KindRecursion      Kind = "recursion"
	KindUnhandled      Kind = "unhandled_exception"
)

// Error is the structured error type used throughout the runtime.
type Error struct {
	Phase  Phase
	Kind   Kind
	Detail string
	Cause  error
	Path   []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction, mirroring the
// teacher's phase/kind/detail builder shape.
type Builder struct {
	err Error
}

// New starts building an error for phase/kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

func (b *Builder) Build() *Error { return &b.err }

// Convenience constructors for common patterns.

func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{Phase: phase, Kind: KindInvalidData, Path: path, Detail: detail}
}

func OutOfBounds(phase Phase, path []string, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
	}
}

func NotFound(phase Phase, what, name string) *Error {
	return &Error{Phase: phase, Kind: KindNotFound, Detail: fmt.Sprintf("%s %q not found", what, name)}
}

func NotInitialized(phase Phase, component string) *Error {
	return &Error{Phase: phase, Kind: KindNotInitialized, Detail: fmt.Sprintf("%s not initialized", component)}
}

func Unsupported(phase Phase, what string) *Error {
	return &Error{Phase: phase, Kind: KindUnsupported, Detail: what}
}

func AllocationFailed(phase Phase, requested, capacity int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("requested %d bytes exceeds capacity %d", requested, capacity),
	}
}

func Overflow(phase Phase, detail string) *Error {
	return &Error{Phase: phase, Kind: KindOverflow, Detail: detail}
}

func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: detail, Cause: cause}
}

func Unhandled(phase Phase, detail string) *Error {
	return &Error{Phase: phase, Kind: KindUnhandled, Detail: detail}
}
