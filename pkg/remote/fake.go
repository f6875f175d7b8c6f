package remote

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Handler answers one call descriptor against whatever in-memory state a
// test wants to simulate.
type Handler func(d CallDescriptor) (any, error)

// FakeSession is an in-memory Session for tests; the CLI's compare and
// apply commands both use HTTPSession. It is not safe for concurrent use
// by more than one open batch at a time, matching the real contract.
type FakeSession struct {
	mu      sync.Mutex
	handler Handler
	open    *fakeBatch
	// MaxConcurrency bounds how many calls in a batch are dispatched to
	// Handler at once, simulating the remote transport's own pipelining
	// (§5: "the remote transport may internally pipeline the batch").
	MaxConcurrency int
}

// NewFakeSession builds a FakeSession that answers every call with handler.
func NewFakeSession(handler Handler) *FakeSession {
	return &FakeSession{handler: handler, MaxConcurrency: 8}
}

type fakePromise struct {
	mu       sync.Mutex
	resolved bool
	value    any
	err      error
}

func (p *fakePromise) Result() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.resolved {
		panic("remote: Result() called before batch closed")
	}
	return p.value, p.err
}

func (p *fakePromise) resolve(v any, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved = true
	p.value = v
	p.err = err
}

type fakeBatch struct {
	descriptors []CallDescriptor
	promises    []*fakePromise
}

func (b *fakeBatch) Submit(d CallDescriptor) Promise {
	b.descriptors = append(b.descriptors, d)
	p := &fakePromise{}
	b.promises = append(b.promises, p)
	return p
}

func (s *FakeSession) OpenBatch(_ context.Context) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open != nil {
		return nil, fmt.Errorf("remote: a batch is already open on this session")
	}
	b := &fakeBatch{}
	s.open = b
	return b, nil
}

func (s *FakeSession) CloseBatch(ctx context.Context, b Batch) error {
	fb, ok := b.(*fakeBatch)
	if !ok {
		return fmt.Errorf("remote: batch not owned by this session")
	}

	concurrency := s.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i := range fb.descriptors {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				fb.promises[i].resolve(nil, &CallError{Descriptor: fb.descriptors[i], Category: CategoryRemoteGeneric, Cause: err})
				return nil
			}
			v, err := s.handler(fb.descriptors[i])
			if err != nil {
				err = &CallError{Descriptor: fb.descriptors[i], Category: CategoryRemoteGeneric, Cause: err}
			}
			fb.promises[i].resolve(v, err)
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	s.open = nil
	s.mu.Unlock()
	return nil
}
