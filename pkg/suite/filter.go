package suite

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidFilter indicates that Filter construction failed.
var ErrInvalidFilter = errors.New("invalid case filter")

// Filter selects which suites and cases Run should exercise.
type Filter interface {
	// MatchesSuite returns true if any case in s could be selected.
	MatchesSuite(s *Suite) bool
	// MatchesCase returns true if caseName in suiteName should run.
	MatchesCase(suiteName, caseName string) bool
}

// NewFilter parses expr into a Filter for selecting suites and individual
// cases to run.
//
// Empty string returns a Filter matching everything.
//
// "suite-regex//case-regex" matches cases named by case-regex within suites
// named by suite-regex, each independently. A bare "regex" (no "//") casts a
// wider net: it matches a suite by name, a case by name, or a suite
// containing a matching case.
func NewFilter(expr string) (Filter, error) {
	if expr == "" {
		return acceptAll{}, nil
	}
	if strings.Count(expr, "//") > 1 {
		return nil, fmt.Errorf(`%w: a filter may include at most one "//"`, ErrInvalidFilter)
	}

	suitePart, casePart, scoped := strings.Cut(expr, "//")
	suiteRE, err := regexp.Compile(suitePart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if !scoped {
		return &anyMatch{pattern: suiteRE}, nil
	}
	caseRE, err := regexp.Compile(casePart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return &scopedMatch{suiteRE: suiteRE, caseRE: caseRE}, nil
}

// acceptAll matches every suite and case.
type acceptAll struct{}

func (acceptAll) MatchesSuite(*Suite) bool        { return true }
func (acceptAll) MatchesCase(string, string) bool { return true }

// anyMatch applies a single pattern loosely: a suite qualifies if its own
// name matches, or if any of its cases' names do.
type anyMatch struct {
	pattern *regexp.Regexp
}

func (f *anyMatch) MatchesSuite(s *Suite) bool {
	if f.pattern.MatchString(s.Name) {
		return true
	}
	for _, c := range s.Cases {
		if f.pattern.MatchString(c.Name) {
			return true
		}
	}
	return false
}

func (f *anyMatch) MatchesCase(suiteName, caseName string) bool {
	return f.pattern.MatchString(suiteName) || f.pattern.MatchString(caseName)
}

// scopedMatch requires the suite name to satisfy suiteRE and, independently,
// the case name to satisfy caseRE.
type scopedMatch struct {
	suiteRE *regexp.Regexp
	caseRE  *regexp.Regexp
}

func (f *scopedMatch) MatchesSuite(s *Suite) bool {
	return f.suiteRE.MatchString(s.Name)
}

func (f *scopedMatch) MatchesCase(suiteName, caseName string) bool {
	return f.suiteRE.MatchString(suiteName) && f.caseRE.MatchString(caseName)
}
