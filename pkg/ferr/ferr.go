// Package ferr defines the error taxonomy raised across loading, expansion,
// solving, and reconciliation, each carrying the origin metadata that
// produced it and wrapping an underlying cause where one exists.
package ferr

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/forgehub/forgehub/pkg/object"
)

// DocumentParseError reports a malformed configuration document.
type DocumentParseError struct {
	File  string
	Line  int
	Cause error
}

func (e *DocumentParseError) Error() string {
	return fmt.Sprintf("%s:%d: parse error: %v", e.File, e.Line, e.Cause)
}

func (e *DocumentParseError) Unwrap() error { return e.Cause }

// ValidationError reports a document or template-call payload that failed
// its declared schema.
type ValidationError struct {
	Origin    object.Origin
	FieldPath string
	Cause     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed at %s: %v", e.Origin, e.FieldPath, e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// TemplateSyntaxError reports a template body that failed to parse.
type TemplateSyntaxError struct {
	TemplateName string
	Origin       object.Origin
	Cause        error
}

func (e *TemplateSyntaxError) Error() string {
	return fmt.Sprintf("%s: template %q failed to parse: %v", e.Origin, e.TemplateName, e.Cause)
}

func (e *TemplateSyntaxError) Unwrap() error { return e.Cause }

// TemplateRenderError reports a template that failed during rendering
// (undefined variable, type mismatch in the data payload, etc.).
type TemplateRenderError struct {
	TemplateName string
	Origin       object.Origin
	Cause        error
}

func (e *TemplateRenderError) Error() string {
	return fmt.Sprintf("%s: template %q failed to render: %v", e.Origin, e.TemplateName, e.Cause)
}

func (e *TemplateRenderError) Unwrap() error { return e.Cause }

// TemplateOutputError reports a template whose rendered output could not be
// parsed back into a document sequence.
type TemplateOutputError struct {
	TemplateName string
	Origin       object.Origin
	Cause        error
}

func (e *TemplateOutputError) Error() string {
	return fmt.Sprintf("%s: template %q produced invalid output: %v", e.Origin, e.TemplateName, e.Cause)
}

func (e *TemplateOutputError) Unwrap() error { return e.Cause }

// ExpansionError reports a template-call naming an unknown template, or an
// expansion whose trace length exceeded the configured maximum depth.
type ExpansionError struct {
	Origin         object.Origin
	TemplateName   string
	KnownTemplates []string
	DepthExceeded  bool
	MaxDepth       int
}

func (e *ExpansionError) Error() string {
	if e.DepthExceeded {
		return fmt.Sprintf("%s: expansion depth exceeded (max %d) expanding %q", e.Origin, e.MaxDepth, e.TemplateName)
	}
	return fmt.Sprintf("%s: unknown template %q (known: %v)", e.Origin, e.TemplateName, e.KnownTemplates)
}

// RedefineError reports a second declaration of K under the "error" policy.
type RedefineError struct {
	Key        object.K
	FirstSeen  object.Origin
	SecondSeen object.Origin
}

func (e *RedefineError) Error() string {
	return fmt.Sprintf("%s redefined at %s (first declared at %s)", e.Key, e.SecondSeen, e.FirstSeen)
}

// ChangeReadError reports a remote read failure for a specific entity.
type ChangeReadError struct {
	Key   object.K
	Cause error
}

func (e *ChangeReadError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Key, e.Cause)
}

func (e *ChangeReadError) Unwrap() error { return e.Cause }

// ChangeApplyError reports a remote write failure for a specific change.
type ChangeApplyError struct {
	Key         object.K
	Description string
	Cause       error
}

func (e *ChangeApplyError) Error() string {
	return fmt.Sprintf("applying %q on %s: %v", e.Description, e.Key, e.Cause)
}

func (e *ChangeApplyError) Unwrap() error { return e.Cause }

// PhantomError reports a phantom presence reaching a tier under apply mode
// without the skip-phantoms policy set.
type PhantomError struct {
	Key          object.K
	ReferencedBy object.K
	Origin       object.Origin
}

func (e *PhantomError) Error() string {
	return fmt.Sprintf("%s: %s references undeclared %s", e.Origin, e.ReferencedBy, e.Key)
}

// Wrap attaches a message to cause using the same cause-chain convention as
// the rest of the taxonomy, for call sites that don't need a dedicated type.
func Wrap(cause error, format string, args ...any) error {
	return errors.Wrapf(cause, format, args...)
}
