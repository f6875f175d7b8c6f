// Package suite implements a thin assertion runner for template authors,
// letting a suite file assert that a named template called with given data
// expands to an expected set of documents (spec §9 supplement). Grounded on
// the teacher's pkg/gator Suite/Test/Case and Runner shapes, reduced to the
// one assertion this domain needs: expansion output, not admission review.
package suite

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/forgehub/forgehub/pkg/document"
	"github.com/forgehub/forgehub/pkg/namespace"
)

// ExpectedDoc names one document a case expects its template call to
// produce, identified by (type, name).
type ExpectedDoc struct {
	Type string `yaml:"type"`
	Name string `yaml:"name"`
}

// Case is one template call to assert against.
type Case struct {
	Name     string         `yaml:"name"`
	Template string         `yaml:"template"`
	Data     map[string]any `yaml:"data"`
	Expect   []ExpectedDoc  `yaml:"expect"`
	Skip     bool           `yaml:"skip"`
}

// Suite is a named list of Cases loaded from one file.
type Suite struct {
	Name  string `yaml:"name"`
	Cases []Case `yaml:"cases"`
	Path  string `yaml:"-"`
}

// Load reads a Suite from a YAML file.
func Load(path string) (*Suite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("suite: reading %q: %w", path, err)
	}
	var s Suite
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("suite: parsing %q: %w", path, err)
	}
	s.Path = path
	return &s, nil
}

// CaseResult reports one case's outcome.
type CaseResult struct {
	Name    string
	Skipped bool
	Err     error
	Missing []ExpectedDoc
	Extra   []document.Raw
}

func (r CaseResult) Passed() bool {
	return r.Err == nil && len(r.Missing) == 0
}

// Run expands every non-skipped case's template call against ns's
// registered templates and compares the produced documents to Expect.
// ns must already hold every template the suite calls; Run does not mutate
// ns's installed entities, only its template map is read.
func Run(ns *namespace.Namespace, s *Suite) []CaseResult {
	return RunFiltered(ns, s, acceptAll{})
}

// RunFiltered behaves like Run but only runs cases filter selects; cases it
// excludes are omitted from the result entirely, the same way a suite file
// that never declared them would behave.
func RunFiltered(ns *namespace.Namespace, s *Suite, filter Filter) []CaseResult {
	if !filter.MatchesSuite(s) {
		return nil
	}
	results := make([]CaseResult, 0, len(s.Cases))
	for _, c := range s.Cases {
		if !filter.MatchesCase(s.Name, c.Name) {
			continue
		}
		if c.Skip {
			results = append(results, CaseResult{Name: c.Name, Skipped: true})
			continue
		}
		results = append(results, runCase(ns, c))
	}
	return results
}

func runCase(ns *namespace.Namespace, c Case) CaseResult {
	docs, err := ns.ExpandCallForTest(c.Template, c.Data)
	if err != nil {
		return CaseResult{Name: c.Name, Err: err}
	}

	want := make(map[ExpectedDoc]bool, len(c.Expect))
	for _, e := range c.Expect {
		want[e] = true
	}

	got := make(map[ExpectedDoc]bool, len(docs))
	for _, d := range docs {
		name, _ := d.Data["name"].(string)
		got[ExpectedDoc{Type: d.Type, Name: name}] = true
	}

	var missing []ExpectedDoc
	for e := range want {
		if !got[e] {
			missing = append(missing, e)
		}
	}
	sort.Slice(missing, func(i, j int) bool {
		if missing[i].Type != missing[j].Type {
			return missing[i].Type < missing[j].Type
		}
		return missing[i].Name < missing[j].Name
	})

	var extra []document.Raw
	for _, d := range docs {
		name, _ := d.Data["name"].(string)
		if !want[ExpectedDoc{Type: d.Type, Name: name}] {
			extra = append(extra, d)
		}
	}

	return CaseResult{Name: c.Name, Missing: missing, Extra: extra}
}
