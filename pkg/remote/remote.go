// Package remote defines the contract forgehub requires from the remote
// hub: a single-owner, single-flight batch of opaque multicall descriptors
// that resolves as a group, plus the two error categories the processor
// needs to distinguish (read failures vs. apply failures). The concrete
// wire protocol is an external collaborator (SPEC_FULL.md §4.6); this
// package defines the contract the rest of forgehub is coded against and
// ships two implementations, FakeSession (tests) and
// HTTPSession (a minimal XML-RPC-flavored client).
package remote

import (
	"context"
	"fmt"
)

// CallDescriptor is one opaque remote call: a method name plus positional
// and named arguments, following the multicall shape described in §6.
type CallDescriptor struct {
	Method    string
	Args      []any
	NamedArgs map[string]any
}

func (c CallDescriptor) String() string {
	return fmt.Sprintf("%s(%v, %v)", c.Method, c.Args, c.NamedArgs)
}

// Promise is a handle to the eventual result of one call submitted to a
// Batch. It is resolved once, when the batch that produced it closes.
// Entities hold promises, not proxies: a promise is read only after the
// phase transition that settles its batch (SPEC_FULL.md / spec §9).
type Promise interface {
	// Result returns the call's result and error once the owning batch has
	// closed. Calling Result before the batch closes panics: that would
	// violate the single-suspension-point contract in §5.
	Result() (any, error)
}

// ErrorCategory distinguishes the two remote failure modes the processor
// must map onto ChangeReadError / ChangeApplyError (§7).
type ErrorCategory int

const (
	// CategoryNone indicates success.
	CategoryNone ErrorCategory = iota
	// CategoryRemoteGeneric indicates a generic remote-side failure for one
	// call in a batch (the descriptor is attached to the resulting error).
	CategoryRemoteGeneric
)

// CallError wraps a remote generic error with the descriptor that caused
// it, so the change-report layer can build ChangeReadError/ChangeApplyError
// with full context.
type CallError struct {
	Descriptor CallDescriptor
	Category   ErrorCategory
	Cause      error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("remote call %s failed: %v", e.Descriptor, e.Cause)
}

func (e *CallError) Unwrap() error { return e.Cause }

// Batch accumulates call descriptors submitted by entities during one
// phase (READY_READ or READY_APPLY) and resolves them together when
// closed. A session permits only one open batch at a time (§5: "single-
// owner, single-flight at the batch boundary").
type Batch interface {
	// Submit appends a call descriptor to the open batch and returns a
	// promise for its eventual result.
	Submit(d CallDescriptor) Promise
}

// Session is the remote collaborator the processor drives. Exactly one
// batch may be open at a time.
type Session interface {
	// OpenBatch begins a new batch. It is an error to call OpenBatch again
	// before the previous batch has been closed.
	OpenBatch(ctx context.Context) (Batch, error)
	// CloseBatch executes the batch as a single multicall against the
	// remote hub and resolves every promise it produced, in submission
	// order. It respects ctx for cancellation/deadline (§4.5, §5): if ctx
	// is done before the multicall completes, every unresolved promise in
	// the batch resolves with a CallError wrapping ctx.Err().
	CloseBatch(ctx context.Context, b Batch) error
}
