package reporter

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/snapreportkit/go-snapreport/internal/slice"
	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

// JUnitReporter writes report.junit.xml. The element and attribute names
// are a wire contract consumed by CI systems; do not rename them.
type JUnitReporter struct{}

func (JUnitReporter) Format() Format { return FormatJUnit }

func (JUnitReporter) Write(_ context.Context, report snapshot.Report, opts Options) error {
	doc := buildJUnitDocument(report)

	b, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("xml.MarshalIndent: %w", err)
	}

	content := append([]byte(xml.Header), b...)
	content = append(content, '\n')

	pth := filepath.Join(opts.OutputDirectory, "report.junit.xml")
	if err := os.WriteFile(pth, content, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}

	return nil
}

type junitTestSuites struct {
	XMLName   xml.Name `xml:"testsuites"`
	Name      string   `xml:"name,attr"`
	Tests     int      `xml:"tests,attr"`
	Failures  int      `xml:"failures,attr"`
	Skipped   int      `xml:"skipped,attr"`
	Time      string   `xml:"time,attr"`
	Timestamp string   `xml:"timestamp,attr"`
	Suites    []junitTestSuite
}

type junitTestSuite struct {
	XMLName   xml.Name `xml:"testsuite"`
	Name      string   `xml:"name,attr"`
	Tests     int      `xml:"tests,attr"`
	Failures  int      `xml:"failures,attr"`
	Skipped   int      `xml:"skipped,attr"`
	Time      string   `xml:"time,attr"`
	TestCases []junitTestCase
}

type junitTestCase struct {
	XMLName     xml.Name          `xml:"testcase"`
	ClassName   string            `xml:"classname,attr"`
	Name        string            `xml:"name,attr"`
	Time        string            `xml:"time,attr"`
	Skipped     *junitSkipped     `xml:"skipped,omitempty"`
	Failure     *junitFailure     `xml:"failure,omitempty"`
	Attachments *junitAttachments `xml:"attachments,omitempty"`
	SystemOut   string            `xml:"system-out,omitempty"`
}

type junitSkipped struct{}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Body    string `xml:",chardata"`
}

type junitAttachments struct {
	Items []junitAttachment `xml:"attachment"`
}

type junitAttachment struct {
	Name string `xml:"name,attr"`
	Path string `xml:"path,attr"`
	Type string `xml:"type,attr"`
}

func buildJUnitDocument(report snapshot.Report) junitTestSuites {
	summary := report.Summary()

	doc := junitTestSuites{
		Name:      report.Name,
		Tests:     summary.Total,
		Failures:  summary.Failed,
		Skipped:   summary.Skipped,
		Time:      formatSeconds(summary.Duration),
		Timestamp: report.GeneratedAt.UTC().Format(time.RFC3339),
		Suites:    make([]junitTestSuite, 0, len(report.Suites)),
	}

	for _, suite := range report.Suites {
		failures := slice.Count(suite.Tests, func(tc snapshot.TestCase) bool { return tc.Status == snapshot.StatusFailed })
		skipped := slice.Count(suite.Tests, func(tc snapshot.TestCase) bool { return tc.Status == snapshot.StatusSkipped })

		var total float64
		for _, tc := range suite.Tests {
			total += tc.Duration
		}

		doc.Suites = append(
			doc.Suites, junitTestSuite{
				Name:      suite.Name,
				Tests:     len(suite.Tests),
				Failures:  failures,
				Skipped:   skipped,
				Time:      formatSeconds(total),
				TestCases: slice.Map(suite.Tests, buildJUnitCase),
			},
		)
	}

	return doc
}

func buildJUnitCase(tc snapshot.TestCase) junitTestCase {
	out := junitTestCase{
		ClassName: tc.ClassName,
		Name:      tc.Name,
		Time:      formatSeconds(tc.Duration),
	}

	if tc.Status == snapshot.StatusSkipped {
		out.Skipped = &junitSkipped{}
	}

	if tc.Status == snapshot.StatusFailed {
		message := "Snapshot assertion failed"
		var diff string
		if tc.Failure != nil {
			if tc.Failure.Message != "" {
				message = tc.Failure.Message
			}
			diff = tc.Failure.Diff
		}

		out.Failure = &junitFailure{Message: message, Body: diff}
	}

	if len(tc.Attachments) > 0 {
		out.Attachments = &junitAttachments{
			Items: slice.Map(
				tc.Attachments, func(a snapshot.Attachment) junitAttachment {
					return junitAttachment{Name: a.Name, Path: a.Path, Type: a.Type.MimeType()}
				},
			),
		}

		lines := slice.Map(
			tc.Attachments, func(a snapshot.Attachment) string { return a.Name + ": " + a.Path },
		)
		out.SystemOut = strings.Join(lines, " | ")
	}

	return out
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
