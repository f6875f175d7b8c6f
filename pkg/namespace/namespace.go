// Package namespace holds templates and pre/post-expansion entities and
// drives recursive template expansion (spec §4.1).
package namespace

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/forgehub/forgehub/pkg/document"
	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/object"
)

// RedefinePolicy governs what happens when (kind, name) is ingested twice.
type RedefinePolicy string

const (
	PolicyError   RedefinePolicy = "error"
	PolicyReplace RedefinePolicy = "replace"
	PolicyWarn    RedefinePolicy = "warn"
	PolicySkip    RedefinePolicy = "skip"
)

const defaultMaxExpansionDepth = 64

// pendingEntry is either a core entity awaiting installation, or an
// unresolved template-call awaiting expansion.
type pendingEntry struct {
	entity object.Entity
	call   *object.TemplateCall
}

// Namespace is the single mutable owner of all declared entities from
// ingest through expand (spec §3 "Ownership and lifecycle"); it becomes
// read-only once Expand returns.
type Namespace struct {
	Registry *object.Registry
	Renderer Renderer
	Redefine RedefinePolicy
	MaxDepth int

	templates   map[string]object.Template
	templateOrg map[string]object.Origin
	pending     []pendingEntry
	expanded    map[object.K]object.Entity
	Diagnostics []string
}

// New builds a Namespace with the default text/template renderer and the
// "error" redefine policy.
func New(registry *object.Registry) *Namespace {
	return &Namespace{
		Registry:    registry,
		Renderer:    TextTemplateRenderer{},
		Redefine:    PolicyError,
		MaxDepth:    defaultMaxExpansionDepth,
		templates:   map[string]object.Template{},
		templateOrg: map[string]object.Origin{},
		expanded:    map[object.K]object.Entity{},
	}
}

// Ingest dispatches one loaded document (spec §4.1 "ingest(raw-doc,
// origin)"): a template registers under the template map; a known kind
// builds an entity and is queued; an unknown kind becomes a queued
// template-call.
func (ns *Namespace) Ingest(raw document.Raw) error {
	return ns.dispatch(raw.Type, raw.Data, raw.Origin)
}

func (ns *Namespace) dispatch(typeName string, data map[string]any, origin object.Origin) error {
	if typeName == string(object.KindTemplate) {
		return ns.ingestTemplate(data, origin)
	}

	name, _ := data["name"].(string)

	if ctor, ok := ns.Registry.Lookup(object.Kind(typeName)); ok {
		entity, err := ctor(name, data, origin)
		if err != nil {
			return &ferr.ValidationError{Origin: origin, FieldPath: typeName, Cause: err}
		}
		ns.pending = append(ns.pending, pendingEntry{entity: entity})
		return nil
	}

	ns.pending = append(ns.pending, pendingEntry{call: &object.TemplateCall{
		TemplateName: typeName,
		Data:         data,
		Pos:          origin,
	}})
	return nil
}

func (ns *Namespace) ingestTemplate(data map[string]any, origin object.Origin) error {
	name, _ := data["name"].(string)
	tmpl := object.Template{
		Name:     name,
		Pos:      origin,
		Body:     stringField(data, "body"),
		BodyFile: stringField(data, "body-file"),
		Defaults: mapField(data, "defaults"),
		Schema:   mapField(data, "schema"),
	}

	existing, ok := ns.templates[name]
	if !ok {
		ns.templates[name] = tmpl
		ns.templateOrg[name] = origin
		return nil
	}

	switch ns.Redefine {
	case PolicyError:
		return &ferr.RedefineError{
			Key:        object.K{Kind: object.KindTemplate, Name: name},
			FirstSeen:  ns.templateOrg[name],
			SecondSeen: origin,
		}
	case PolicySkip:
		_ = existing
		return nil
	case PolicyWarn:
		ns.Diagnostics = append(ns.Diagnostics, fmt.Sprintf("template %q redefined at %s (first declared at %s)", name, origin, ns.templateOrg[name]))
		fallthrough
	case PolicyReplace:
		ns.templates[name] = tmpl
		ns.templateOrg[name] = origin
		return nil
	default:
		return fmt.Errorf("namespace: unknown redefine policy %q", ns.Redefine)
	}
}

// Expand consumes pending in insertion order, installing core entities and
// recursively expanding template-calls (spec §4.1 "expand()"). It returns
// the final (kind,name) -> entity map once no pending entries remain.
func (ns *Namespace) Expand() (map[object.K]object.Entity, error) {
	ns.Registry.MarkStarted()

	for i := 0; i < len(ns.pending); i++ {
		entry := ns.pending[i]

		if entry.entity != nil {
			if err := ns.install(entry.entity); err != nil {
				return nil, err
			}
			continue
		}

		if err := ns.expandCall(entry.call); err != nil {
			return nil, err
		}
	}

	return ns.expanded, nil
}

func (ns *Namespace) install(entity object.Entity) error {
	k := entity.Key()
	existing, ok := ns.expanded[k]
	if !ok {
		ns.expanded[k] = entity
		return nil
	}

	switch ns.Redefine {
	case PolicyError:
		return &ferr.RedefineError{Key: k, FirstSeen: existing.Origin(), SecondSeen: entity.Origin()}
	case PolicySkip:
		return nil
	case PolicyWarn:
		ns.Diagnostics = append(ns.Diagnostics, fmt.Sprintf("%s redefined at %s (first declared at %s)", k, entity.Origin(), existing.Origin()))
		fallthrough
	case PolicyReplace:
		ns.expanded[k] = entity
		return nil
	default:
		return fmt.Errorf("namespace: unknown redefine policy %q", ns.Redefine)
	}
}

func (ns *Namespace) expandCall(call *object.TemplateCall) error {
	docs, err := ns.renderCall(call)
	if err != nil {
		return err
	}

	frame := object.TraceEntry{TemplateName: call.TemplateName, File: ns.templates[call.TemplateName].Pos.File, Line: ns.templates[call.TemplateName].Pos.Line}
	childTrace := make([]object.TraceEntry, len(call.Pos.Trace), len(call.Pos.Trace)+1)
	copy(childTrace, call.Pos.Trace)
	childTrace = append(childTrace, frame)

	for _, doc := range docs {
		origin := object.Origin{File: doc.Origin.File, Line: doc.Origin.Line, Trace: childTrace}
		if err := ns.dispatch(doc.Type, doc.Data, origin); err != nil {
			return err
		}
	}
	return nil
}

// renderCall validates and renders call against its template, returning the
// produced document stream without installing or dispatching any of it.
// Shared by expandCall (which then dispatches the result) and
// ExpandCallForTest (which a suite uses to assert on the raw output).
func (ns *Namespace) renderCall(call *object.TemplateCall) ([]document.Raw, error) {
	if call.Pos.Depth() >= ns.MaxDepth {
		return nil, &ferr.ExpansionError{
			Origin:        call.Pos,
			TemplateName:  call.TemplateName,
			DepthExceeded: true,
			MaxDepth:      ns.MaxDepth,
		}
	}

	tmpl, ok := ns.templates[call.TemplateName]
	if !ok {
		return nil, &ferr.ExpansionError{
			Origin:         call.Pos,
			TemplateName:   call.TemplateName,
			KnownTemplates: ns.knownTemplateNames(),
		}
	}

	merged := mergeDefaults(tmpl.Defaults, call.Data)

	if err := validateSchema(tmpl.Schema, merged); err != nil {
		return nil, &ferr.ValidationError{Origin: call.Pos, FieldPath: call.TemplateName, Cause: err}
	}

	rendered, err := ns.Renderer.Render(tmpl, merged)
	if err != nil {
		return nil, err
	}

	docs, err := document.LoadStream(bytes.NewReader(rendered), tmpl.Pos.File)
	if err != nil {
		return nil, &ferr.TemplateOutputError{TemplateName: tmpl.Name, Origin: call.Pos, Cause: err}
	}
	return docs, nil
}

// ExpandCallForTest renders a one-off call against an already-ingested
// template without installing or dispatching the result, for the suite
// assertion runner (spec §9 supplement).
func (ns *Namespace) ExpandCallForTest(templateName string, data map[string]any) ([]document.Raw, error) {
	call := &object.TemplateCall{TemplateName: templateName, Data: data, Pos: ns.templateOrg[templateName]}
	return ns.renderCall(call)
}

func (ns *Namespace) knownTemplateNames() []string {
	names := make([]string, 0, len(ns.templates))
	for n := range ns.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// mergeDefaults returns a fresh map holding tmpl.Defaults overlaid by
// callData; callData wins on key collision (spec §4.1).
func mergeDefaults(defaults, callData map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(callData))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range callData {
		merged[k] = v
	}
	return merged
}

func stringField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func mapField(data map[string]any, key string) map[string]any {
	m, _ := data[key].(map[string]any)
	return m
}
