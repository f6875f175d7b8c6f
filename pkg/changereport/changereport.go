// Package changereport implements the per-entity state machine that takes
// an entity from read through compare to apply (spec §4.4).
package changereport

import (
	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/remote"
)

// State names one point in the bounded lifecycle
// INIT -> READING -> COMPARED -> APPLYING -> {APPLIED | FAILED}.
type State int

const (
	Init State = iota
	Reading
	Compared
	Applying
	Applied
	Failed
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case Reading:
		return "READING"
	case Compared:
		return "COMPARED"
	case Applying:
		return "APPLYING"
	case Applied:
		return "APPLIED"
	case Failed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Report tracks one entity through the state machine, accumulating its
// change list, its read/write promises, and its failure reason if any.
type Report struct {
	Entity object.Entity
	State  State

	Changes []object.Change

	// FailReason is set when State transitions to Failed: "upstream
	// failure" for a cross-tier cascade (§4.5), or the underlying error's
	// message for a direct read/apply failure.
	FailReason string
	Err        error

	readPromises  []remote.Promise
	writePromises []remote.Promise
}

// New creates a Report in the INIT state.
func New(e object.Entity) *Report {
	return &Report{Entity: e, State: Init}
}

// MarkUpstreamFailed short-circuits the report straight to FAILED without
// issuing any remote call, per the cross-tier failure policy (§4.5).
func (r *Report) MarkUpstreamFailed() {
	r.State = Failed
	r.FailReason = "upstream failure"
}

// EnqueueRead transitions INIT -> READING, submitting the entity's read
// probes to b.
func (r *Report) EnqueueRead(b remote.Batch) {
	if r.State != Init {
		return
	}
	r.readPromises = r.Entity.EnqueueRead(b)
	r.State = Reading
}

// Compare transitions READING -> COMPARED once the batch that carried
// r.readPromises has closed. An empty diff moves straight to APPLIED with
// zero operations, matching §4.4's "empty diff" rule.
func (r *Report) Compare() {
	if r.State != Reading {
		return
	}
	changes, err := r.Entity.Diff(r.readPromises)
	if err != nil {
		r.State = Failed
		r.Err = &ferr.ChangeReadError{Key: r.Entity.Key(), Cause: err}
		r.FailReason = r.Err.Error()
		return
	}
	r.Changes = changes
	r.State = Compared
	if len(r.Changes) == 0 {
		r.State = Applied
	}
}

// HasChanges reports whether this report carries any pending write.
func (r *Report) HasChanges() bool { return r.State == Compared && len(r.Changes) > 0 }

// EnqueueWrites transitions COMPARED -> APPLYING, submitting one call per
// Change to b.
func (r *Report) EnqueueWrites(b remote.Batch) {
	if r.State != Compared {
		return
	}
	r.writePromises = r.Entity.EnqueueWrites(b, r.Changes)
	r.State = Applying
}

// MarkDryRun transitions COMPARED -> APPLIED without issuing any remote
// call, used by the compare-only processor variant (§4.5 "no-op that marks
// every change as would apply").
func (r *Report) MarkDryRun() {
	if r.State != Compared {
		return
	}
	r.State = Applied
}

// ResolveWrites transitions APPLYING -> APPLIED or FAILED once the batch
// carrying r.writePromises has closed, recording per-Change failure.
func (r *Report) ResolveWrites() {
	if r.State != Applying {
		return
	}
	anyFailed := false
	for i, p := range r.writePromises {
		_, err := p.Result()
		if err != nil {
			r.Changes[i].Failed = true
			r.Changes[i].Err = err
			anyFailed = true
		}
	}
	if anyFailed {
		r.State = Failed
		r.Err = &ferr.ChangeApplyError{Key: r.Entity.Key(), Description: firstFailedDescription(r.Changes), Cause: firstFailedErr(r.Changes)}
		r.FailReason = r.Err.Error()
		return
	}
	r.State = Applied
}

func firstFailedDescription(changes []object.Change) string {
	for _, c := range changes {
		if c.Failed {
			return c.Description
		}
	}
	return ""
}

func firstFailedErr(changes []object.Change) error {
	for _, c := range changes {
		if c.Failed {
			return c.Err
		}
	}
	return nil
}
