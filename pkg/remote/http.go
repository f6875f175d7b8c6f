package remote

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// HTTPSession is a minimal XML-RPC-flavored client against a real hub's
// multicall endpoint. The wire protocol is an external collaborator
// (SPEC_FULL.md §4.6); this adapter exists only so cmd/forgehub has
// something runnable to point at a real endpoint, and implements the
// narrow Session contract the processor needs, nothing more.
type HTTPSession struct {
	Endpoint   string
	Client     *http.Client
	AuthHeader string // e.g. "Basic ..." or "Bearer ..."

	mu   sync.Mutex
	open *httpBatch
}

// NewHTTPSession builds a session against endpoint using the given HTTP
// client (http.DefaultClient if nil).
func NewHTTPSession(endpoint string, client *http.Client) *HTTPSession {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSession{Endpoint: endpoint, Client: client}
}

type httpPromise struct {
	mu       sync.Mutex
	resolved bool
	value    any
	err      error
}

func (p *httpPromise) Result() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.resolved {
		panic("remote: Result() called before batch closed")
	}
	return p.value, p.err
}

func (p *httpPromise) resolve(v any, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resolved, p.value, p.err = true, v, err
}

type httpBatch struct {
	id          string
	descriptors []CallDescriptor
	promises    []*httpPromise
}

func (b *httpBatch) Submit(d CallDescriptor) Promise {
	b.descriptors = append(b.descriptors, d)
	p := &httpPromise{}
	b.promises = append(b.promises, p)
	return p
}

func (s *HTTPSession) OpenBatch(_ context.Context) (Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open != nil {
		return nil, fmt.Errorf("remote: a batch is already open on this session")
	}
	b := &httpBatch{id: uuid.NewString()}
	s.open = b
	return b, nil
}

// multicallEnvelope / multicallResponse model just enough of the XML-RPC
// <methodCall>/<methodResponse> shape to carry a "system.multicall" request
// whose single parameter is an array of {methodName, params} structs, and
// to parse back an array of either one-element <array> results or a
// <fault> struct, per the standard multicall convention.
type multicallCall struct {
	MethodName string `xml:"methodName"`
	Params     []any  `xml:"params"`
}

type multicallEnvelope struct {
	XMLName    xml.Name `xml:"methodCall"`
	MethodName string   `xml:"methodName"`
	Calls      []multicallCall
}

func (s *HTTPSession) CloseBatch(ctx context.Context, b Batch) error {
	hb, ok := b.(*httpBatch)
	if !ok {
		return fmt.Errorf("remote: batch not owned by this session")
	}
	defer func() {
		s.mu.Lock()
		s.open = nil
		s.mu.Unlock()
	}()

	body, err := encodeMulticall(hb.descriptors)
	if err != nil {
		for _, p := range hb.promises {
			p.resolve(nil, err)
		}
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("remote: building multicall request: %w", err)
		failAll(hb, &CallError{Category: CategoryRemoteGeneric, Cause: err})
		return err
	}
	req.Header.Set("Content-Type", "text/xml")
	if s.AuthHeader != "" {
		req.Header.Set("Authorization", s.AuthHeader)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		failAll(hb, &CallError{Category: CategoryRemoteGeneric, Cause: err})
		return nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		failAll(hb, &CallError{Category: CategoryRemoteGeneric, Cause: err})
		return nil
	}

	results, err := decodeMulticallResponse(raw, len(hb.descriptors))
	if err != nil {
		failAll(hb, &CallError{Category: CategoryRemoteGeneric, Cause: err})
		return nil
	}

	for i, r := range results {
		if r.fault != "" {
			hb.promises[i].resolve(nil, &CallError{
				Descriptor: hb.descriptors[i],
				Category:   CategoryRemoteGeneric,
				Cause:      fmt.Errorf("%s", r.fault),
			})
			continue
		}
		hb.promises[i].resolve(r.value, nil)
	}
	return nil
}

func failAll(hb *httpBatch, err error) {
	for _, p := range hb.promises {
		p.resolve(nil, err)
	}
}

func encodeMulticall(descriptors []CallDescriptor) ([]byte, error) {
	calls := make([]multicallCall, 0, len(descriptors))
	for _, d := range descriptors {
		params := make([]any, 0, len(d.Args)+1)
		params = append(params, d.Args...)
		if len(d.NamedArgs) > 0 {
			params = append(params, d.NamedArgs)
		}
		calls = append(calls, multicallCall{MethodName: d.Method, Params: params})
	}
	env := multicallEnvelope{MethodName: "system.multicall", Calls: calls}
	return xml.Marshal(env)
}

type multicallResult struct {
	fault string
	value any
}

// decodeMulticallResponse is deliberately permissive: it does not attempt a
// full XML-RPC value decoder (that's the transport's concern, out of scope
// per §1); it trusts the hub to echo back exactly len(descriptors) entries
// in submission order and treats any entry it cannot parse as a fault.
func decodeMulticallResponse(raw []byte, want int) ([]multicallResult, error) {
	var generic struct {
		Entries []struct {
			Fault string `xml:"fault"`
			Value string `xml:",innerxml"`
		} `xml:"params>param>value>array>data>value"`
	}
	if err := xml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("remote: decoding multicall response: %w", err)
	}
	results := make([]multicallResult, 0, want)
	for _, e := range generic.Entries {
		if e.Fault != "" {
			results = append(results, multicallResult{fault: e.Fault})
			continue
		}
		results = append(results, multicallResult{value: e.Value})
	}
	for len(results) < want {
		results = append(results, multicallResult{fault: "missing response entry"})
	}
	return results, nil
}
