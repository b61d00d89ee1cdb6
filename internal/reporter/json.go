package reporter

import (
	"context"
	"path/filepath"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

// JSONReporter writes the report model verbatim as report.json.
type JSONReporter struct{}

func (JSONReporter) Format() Format { return FormatJSON }

func (JSONReporter) Write(_ context.Context, report snapshot.Report, opts Options) error {
	return snapshot.SaveReport(report, filepath.Join(opts.OutputDirectory, "report.json"))
}
