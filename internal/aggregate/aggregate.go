// Package aggregate merges partial snapshot reports into one.
package aggregate

import (
	"sort"
	"strings"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

const defaultReportName = "Snapshot Report"

// Merge combines reports in argument order. Suites are grouped by exact
// name with test lists concatenated in input order; metadata keys are
// last-writer-wins. The merged suite list is sorted by name,
// case-insensitive. The timestamp is always regenerated, never inherited.
func Merge(reports []snapshot.Report, nameOverride string) snapshot.Report {
	if len(reports) == 0 {
		name := nameOverride
		if name == "" {
			name = defaultReportName
		}

		return snapshot.Report{Name: name, GeneratedAt: snapshot.Now(), Suites: []snapshot.Suite{}}
	}

	merged := make(map[string]*snapshot.Suite)
	var order []string
	metadata := make(map[string]string)

	for _, report := range reports {
		for key, value := range report.Metadata {
			metadata[key] = value
		}

		for _, suite := range report.Suites {
			existing, ok := merged[suite.Name]
			if !ok {
				copied := snapshot.Suite{Name: suite.Name, Tests: append([]snapshot.TestCase(nil), suite.Tests...)}
				merged[suite.Name] = &copied
				order = append(order, suite.Name)
				continue
			}

			existing.Tests = append(existing.Tests, suite.Tests...)
		}
	}

	suites := make([]snapshot.Suite, 0, len(order))
	for _, name := range order {
		suites = append(suites, *merged[name])
	}

	sort.SliceStable(
		suites, func(i, j int) bool {
			return strings.ToLower(suites[i].Name) < strings.ToLower(suites[j].Name)
		},
	)

	name := nameOverride
	if name == "" {
		name = reports[0].Name
	}

	if len(metadata) == 0 {
		metadata = nil
	}

	return snapshot.Report{Name: name, GeneratedAt: snapshot.Now(), Suites: suites, Metadata: metadata}
}
