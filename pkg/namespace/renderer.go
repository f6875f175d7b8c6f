package namespace

import (
	"bytes"
	"text/template"

	"github.com/forgehub/forgehub/pkg/ferr"
	"github.com/forgehub/forgehub/pkg/object"
)

// Renderer turns a template body plus merged call data into a rendered
// document stream (the same `---`-separated YAML shape the loader accepts).
// The rendering engine itself is an external collaborator (spec §1); this
// package depends only on the Renderer contract.
type Renderer interface {
	Render(tmpl object.Template, data map[string]any) ([]byte, error)
}

// TextTemplateRenderer is the default Renderer, built on the standard
// library's text/template: templates render structured output, never side
// effects (spec §1 non-goals), which is exactly what a plain text/template
// execution against a data map provides.
type TextTemplateRenderer struct{}

func (TextTemplateRenderer) Render(tmpl object.Template, data map[string]any) ([]byte, error) {
	t, err := template.New(tmpl.Name).Option("missingkey=error").Parse(tmpl.Body)
	if err != nil {
		return nil, &ferr.TemplateSyntaxError{TemplateName: tmpl.Name, Origin: tmpl.Pos, Cause: err}
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return nil, &ferr.TemplateRenderError{TemplateName: tmpl.Name, Origin: tmpl.Pos, Cause: err}
	}
	return buf.Bytes(), nil
}
