package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgehub/forgehub/pkg/document"
	"github.com/forgehub/forgehub/pkg/namespace"
	"github.com/forgehub/forgehub/pkg/object"
)

func ingestTemplate(t *testing.T, ns *namespace.Namespace, name, body string) {
	t.Helper()
	require.NoError(t, ns.Ingest(document.Raw{
		Type: "template",
		Data: map[string]any{
			"name": name,
			"body": body,
		},
		Origin: object.Origin{File: "templates.yaml", Line: 1},
	}))
}

func TestRunDetectsMissingExpectedDoc(t *testing.T) {
	ns := namespace.New(object.NewRegistry())
	ingestTemplate(t, ns, "one-tag", "type: tag\nname: {{.Name}}\n")

	s := &Suite{
		Name: "tags",
		Cases: []Case{
			{
				Name:     "produces the named tag",
				Template: "one-tag",
				Data:     map[string]any{"Name": "f40-build"},
				Expect:   []ExpectedDoc{{Type: "tag", Name: "f40-build"}},
			},
			{
				Name:     "wrong expectation",
				Template: "one-tag",
				Data:     map[string]any{"Name": "f40-build"},
				Expect:   []ExpectedDoc{{Type: "tag", Name: "does-not-exist"}},
			},
		},
	}

	results := Run(ns, s)
	require.Len(t, results, 2)
	require.True(t, results[0].Passed())
	require.False(t, results[1].Passed())
	require.Equal(t, []ExpectedDoc{{Type: "tag", Name: "does-not-exist"}}, results[1].Missing)
}

func TestRunSkipsSkippedCases(t *testing.T) {
	ns := namespace.New(object.NewRegistry())
	s := &Suite{Cases: []Case{{Name: "skip me", Skip: true}}}
	results := Run(ns, s)
	require.True(t, results[0].Skipped)
}

func TestLoadParsesSuiteFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "suite.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
name: example
cases:
  - name: one
    template: one-tag
    data:
      Name: f40-build
    expect:
      - type: tag
        name: f40-build
`), 0o600))

	s, err := Load(p)
	require.NoError(t, err)
	require.Equal(t, "example", s.Name)
	require.Len(t, s.Cases, 1)
	require.Equal(t, "one-tag", s.Cases[0].Template)
}
