// Package object defines the (kind, name) entity model: the registry of
// kinds, the Entity contract every kind must satisfy, and the concrete
// structs for each core kind.
package object

import (
	"strconv"
	"strings"
)

// TraceEntry records one template call frame in expansion order, outermost
// first.
type TraceEntry struct {
	TemplateName string
	File         string
	Line         int
}

// Origin is the position metadata every entity carries from load time
// through every transform: where it was declared, and (for expanded
// entities) the chain of template calls that produced it.
type Origin struct {
	File  string
	Line  int
	Trace []TraceEntry
}

// WithTraceFrame returns a copy of o with a new trace frame appended,
// representing one more level of template expansion.
func (o Origin) WithTraceFrame(templateName, file string, line int) Origin {
	trace := make([]TraceEntry, len(o.Trace), len(o.Trace)+1)
	copy(trace, o.Trace)
	trace = append(trace, TraceEntry{TemplateName: templateName, File: file, Line: line})
	return Origin{File: o.File, Line: o.Line, Trace: trace}
}

// Depth is the current expansion call-stack depth, used to enforce the
// configured maximum expansion depth (I4).
func (o Origin) Depth() int {
	return len(o.Trace)
}

// String renders a short human-readable position, e.g. "tags.yaml:12" or
// "tags.yaml:12 (via build-tag-template@templates.yaml:3)".
func (o Origin) String() string {
	var b strings.Builder
	b.WriteString(o.File)
	if o.Line > 0 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(o.Line))
	}
	for _, t := range o.Trace {
		b.WriteString(" (via ")
		b.WriteString(t.TemplateName)
		b.WriteString("@")
		b.WriteString(t.File)
		b.WriteString(":")
		b.WriteString(strconv.Itoa(t.Line))
		b.WriteString(")")
	}
	return b.String()
}
