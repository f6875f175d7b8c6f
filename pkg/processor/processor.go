// Package processor drives the solver-to-remote pipeline: chunked
// READY_CHUNK -> READY_READ -> READY_COMPARE -> READY_APPLY phases against
// a multicall-capable remote session (spec §4.5).
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/forgehub/forgehub/pkg/changereport"
	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/object"
	"github.com/forgehub/forgehub/pkg/remote"
	"github.com/forgehub/forgehub/pkg/resolver"
	"github.com/forgehub/forgehub/pkg/solver"
)

// Options configures one processor run.
type Options struct {
	// ChunkSize bounds how many entities from a tier are drawn into one
	// READY_CHUNK. Zero means "the whole tier in one chunk".
	ChunkSize int
	// BatchDeadline bounds how long a single read or write multicall may
	// take; zero means no per-batch deadline beyond ctx itself.
	BatchDeadline time.Duration
	// CompareOnly replaces READY_APPLY with a no-op that marks every change
	// "would apply" and never opens a write batch (§4.5, P6).
	CompareOnly bool
	// SkipPhantoms, when true, drops from the stream any entity whose
	// dependency closure contains a phantom, instead of refusing to enter
	// APPLY (§4.2).
	SkipPhantoms bool
	// PromoteDiscovered, when true, probes every phantom reference against
	// the remote before a run starts and promotes any that resolve to a
	// real object from Phantom to Discovered, unblocking their dependents
	// (§9 open question: promotion is a policy flag, never automatic).
	PromoteDiscovered bool
}

// Result collects every report produced by a run plus any non-fatal
// diagnostics (phantom references, cancellation notices, dropped entities).
type Result struct {
	Reports     []*changereport.Report
	Diagnostics []string
}

// Processor owns the remote session and resolver for one run.
type Processor struct {
	Session  remote.Session
	Resolver *resolver.Resolver
	Registry *object.Registry // needed only when Options.PromoteDiscovered is set
	Options  Options
}

// Run drives every tier to completion (or until ctx is cancelled between
// phase transitions) and returns the accumulated reports.
func (p *Processor) Run(ctx context.Context, tiers []solver.Tier) (*Result, error) {
	res := &Result{}
	res.Diagnostics = append(res.Diagnostics, p.promoteDiscovered(ctx)...)

	if !p.Options.CompareOnly && !p.Options.SkipPhantoms {
		if bad, ref := firstPhantomEntity(tiers, p.Resolver); bad != nil {
			return nil, &ferr.PhantomError{Key: ref, ReferencedBy: bad.Key(), Origin: bad.Origin()}
		}
	}

	reportByKey := map[object.K]*changereport.Report{}
	phantomMemo := map[object.K]bool{}

	for tierIdx, tier := range tiers {
		if err := ctx.Err(); err != nil {
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("cancelled (%v): discarding %d remaining tier(s)", err, len(tiers)-tierIdx))
			break
		}
		p.runTier(ctx, tier, reportByKey, phantomMemo, res)
	}

	return res, nil
}

func (p *Processor) runTier(ctx context.Context, tier solver.Tier, reportByKey map[object.K]*changereport.Report, phantomMemo map[object.K]bool, res *Result) {
	chunkSize := p.Options.ChunkSize
	if chunkSize <= 0 {
		chunkSize = len(tier)
	}
	if chunkSize == 0 {
		return
	}

	for start := 0; start < len(tier); start += chunkSize {
		end := start + chunkSize
		if end > len(tier) {
			end = len(tier)
		}
		p.runChunk(ctx, tier[start:end], reportByKey, phantomMemo, res)
	}
}

func (p *Processor) runChunk(ctx context.Context, chunk []object.Entity, reportByKey map[object.K]*changereport.Report, phantomMemo map[object.K]bool, res *Result) {
	var active []object.Entity
	for _, e := range chunk {
		if failedDep, ok := firstFailedDependency(e, reportByKey); ok {
			r := changereport.New(e)
			r.MarkUpstreamFailed()
			_ = failedDep
			reportByKey[e.Key()] = r
			res.Reports = append(res.Reports, r)
			continue
		}
		if k, found := firstPhantomDependency(e, p.Resolver, phantomMemo); found {
			if p.Options.SkipPhantoms {
				res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s dropped: dependency closure contains a phantom on %s", e.Key(), k))
				continue
			}
			res.Diagnostics = append(res.Diagnostics, fmt.Sprintf("%s has a phantom dependency on %s", e.Key(), k))
		}
		active = append(active, e)
	}
	if len(active) == 0 {
		return
	}

	reports := make([]*changereport.Report, len(active))
	for i, e := range active {
		reports[i] = changereport.New(e)
	}

	// READY_READ
	readBatch, err := p.Session.OpenBatch(ctx)
	if err != nil {
		failAllReads(reports, err)
	} else {
		for _, r := range reports {
			r.EnqueueRead(readBatch)
		}
		readCtx, cancel := p.withDeadline(ctx)
		closeErr := p.Session.CloseBatch(readCtx, readBatch)
		cancel()
		if closeErr != nil {
			failAllReads(reports, closeErr)
		}
	}

	// READY_COMPARE
	for _, r := range reports {
		r.Compare()
	}

	// READY_APPLY
	var toApply []*changereport.Report
	for _, r := range reports {
		if r.HasChanges() {
			toApply = append(toApply, r)
		}
	}
	if p.Options.CompareOnly {
		for _, r := range toApply {
			r.MarkDryRun()
		}
	} else if len(toApply) > 0 {
		writeBatch, err := p.Session.OpenBatch(ctx)
		if err != nil {
			for _, r := range toApply {
				r.State = changereport.Failed
				r.Err = err
				r.FailReason = err.Error()
			}
		} else {
			for _, r := range toApply {
				r.EnqueueWrites(writeBatch)
			}
			writeCtx, cancel := p.withDeadline(ctx)
			_ = p.Session.CloseBatch(writeCtx, writeBatch)
			cancel()
			for _, r := range toApply {
				r.ResolveWrites()
			}
		}
	}

	for _, r := range reports {
		reportByKey[r.Entity.Key()] = r
		res.Reports = append(res.Reports, r)
	}
}

// promoteDiscovered probes every phantom recorded so far against the remote
// in one batch and promotes the ones that resolve to a real object, so their
// dependents no longer see a blocking phantom (§9). It is a no-op unless
// Options.PromoteDiscovered and Registry are both set.
func (p *Processor) promoteDiscovered(ctx context.Context) []string {
	if !p.Options.PromoteDiscovered || p.Registry == nil {
		return nil
	}
	phantoms := p.Resolver.Phantoms()
	if len(phantoms) == 0 {
		return nil
	}

	probes := make([]object.Entity, 0, len(phantoms))
	for _, ph := range phantoms {
		e, err := p.Registry.New(ph.Key())
		if err != nil {
			continue
		}
		probes = append(probes, e)
	}
	if len(probes) == 0 {
		return nil
	}

	batch, err := p.Session.OpenBatch(ctx)
	if err != nil {
		return nil
	}
	reads := make([][]remote.Promise, len(probes))
	for i, e := range probes {
		reads[i] = e.EnqueueRead(batch)
	}
	if err := p.Session.CloseBatch(ctx, batch); err != nil {
		return nil
	}

	var notes []string
	for i, e := range probes {
		found := false
		for _, pr := range reads[i] {
			v, err := pr.Result()
			if err == nil && v != nil {
				found = true
			}
		}
		if !found {
			continue
		}
		p.Resolver.Promote(e.Key())
		notes = append(notes, fmt.Sprintf("%s: phantom reference confirmed present on remote, promoted to discovered", e.Key()))
	}
	return notes
}

func (p *Processor) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Options.BatchDeadline <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.Options.BatchDeadline)
}

func failAllReads(reports []*changereport.Report, err error) {
	for _, r := range reports {
		r.State = changereport.Failed
		r.Err = &ferr.ChangeReadError{Key: r.Entity.Key(), Cause: err}
		r.FailReason = r.Err.Error()
	}
}

// firstFailedDependency reports whether e directly depends on an entity
// whose report already settled to FAILED; failure propagates tier-by-tier
// so a direct check is sufficient to detect a transitive upstream failure
// (§4.5).
func firstFailedDependency(e object.Entity, reportByKey map[object.K]*changereport.Report) (object.K, bool) {
	for _, edge := range e.DependencyKeys() {
		if r, ok := reportByKey[edge.Target]; ok && r.State == changereport.Failed {
			return edge.Target, true
		}
	}
	return object.K{}, false
}

// firstPhantomDependency walks e's transitive dependency closure looking
// for a phantom reference, memoizing per key (§4.2), and returns the
// offending key if found.
func firstPhantomDependency(e object.Entity, res *resolver.Resolver, memo map[object.K]bool) (object.K, bool) {
	for _, edge := range e.DependencyKeys() {
		if v, ok := memo[edge.Target]; ok {
			if v {
				return edge.Target, true
			}
			continue
		}
		memo[edge.Target] = false // break cycles defensively before recursing
		if res.Lookup(edge.Target, e.Origin()) == resolver.Phantom {
			memo[edge.Target] = true
			return edge.Target, true
		}
		target := res.Entity(edge.Target)
		if target == nil {
			continue
		}
		if k, found := firstPhantomDependency(target, res, memo); found {
			memo[edge.Target] = true
			return k, true
		}
	}
	return object.K{}, false
}

// firstPhantomEntity scans every entity across every tier for a phantom
// dependency closure, used to refuse entering APPLY entirely (§4.2, §6
// "non-zero if any Phantom reaches a tier in apply mode without
// skip-phantoms").
func firstPhantomEntity(tiers []solver.Tier, res *resolver.Resolver) (object.Entity, object.K) {
	memo := map[object.K]bool{}
	for _, tier := range tiers {
		for _, e := range tier {
			if k, found := firstPhantomDependency(e, res, memo); found {
				return e, k
			}
		}
	}
	return nil, object.K{}
}
