package reporter

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

func junitFixtureReport() snapshot.Report {
	return snapshot.Report{
		Name:        "CI Run",
		GeneratedAt: snapshot.Now(),
		Suites: []snapshot.Suite{
			{
				Name: "HomeTests",
				Tests: []snapshot.TestCase{
					{
						ID:        "1",
						Name:      "testHome",
						ClassName: "HomeTests",
						Status:    snapshot.StatusFailed,
						Duration:  1.5,
						Failure:   &snapshot.Failure{Message: "Snapshot mismatch", Diff: "-a\n+b"},
						Attachments: []snapshot.Attachment{
							{Name: "Reference", Type: snapshot.TypePNG, Path: "/tmp/ref.png"},
							{Name: "Actual Snapshot", Type: snapshot.TypePNG, Path: "/tmp/act.png"},
						},
					},
					{
						ID:        "2",
						Name:      "testHomeDark",
						ClassName: "HomeTests",
						Status:    snapshot.StatusPassed,
						Duration:  0.25,
					},
					{
						ID:        "3",
						Name:      "testHomeSkipped",
						ClassName: "HomeTests",
						Status:    snapshot.StatusSkipped,
					},
				},
			},
		},
	}
}

func TestJUnitReporter_Write(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	var r JUnitReporter
	if err := r.Write(context.Background(), junitFixtureReport(), Options{OutputDirectory: dir}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "report.junit.xml"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}

	content := string(raw)
	for _, fragment := range []string{
		"<attachments>",
		`type="image/png"`,
		"<system-out>",
		`<failure message="Snapshot mismatch">`,
		"<skipped>",
	} {
		if !strings.Contains(content, fragment) {
			t.Errorf("output missing %q", fragment)
		}
	}

	var doc junitTestSuites
	if err := xml.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("output is not well-formed XML: %v", err)
	}

	if doc.Name != "CI Run" || doc.Tests != 3 || doc.Failures != 1 || doc.Skipped != 1 {
		t.Errorf("testsuites attributes: %+v", doc)
	}

	if doc.Time != "1.75" {
		t.Errorf("time: got %q, want shortest decimal form", doc.Time)
	}
}

func TestBuildJUnitCase(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		tc     snapshot.TestCase
		verify func(t *testing.T, out junitTestCase)
	}{
		{
			name: "test_failed_without_details",
			tc:   snapshot.TestCase{Name: "t", ClassName: "T", Status: snapshot.StatusFailed},
			verify: func(t *testing.T, out junitTestCase) {
				if out.Failure == nil || out.Failure.Message != "Snapshot assertion failed" {
					t.Errorf("failure: %+v", out.Failure)
				}
			},
		},
		{
			name: "test_failure_diff_in_body",
			tc: snapshot.TestCase{
				Name: "t", ClassName: "T", Status: snapshot.StatusFailed,
				Failure: &snapshot.Failure{Message: "boom", Diff: "-x\n+y"},
			},
			verify: func(t *testing.T, out junitTestCase) {
				if out.Failure == nil || out.Failure.Body != "-x\n+y" {
					t.Errorf("failure body: %+v", out.Failure)
				}
			},
		},
		{
			name: "test_passed_has_no_children",
			tc:   snapshot.TestCase{Name: "t", ClassName: "T", Status: snapshot.StatusPassed, Duration: 0.1},
			verify: func(t *testing.T, out junitTestCase) {
				if out.Failure != nil || out.Skipped != nil || out.Attachments != nil || out.SystemOut != "" {
					t.Errorf("unexpected children: %+v", out)
				}
			},
		},
		{
			name: "test_system_out_lists_attachments",
			tc: snapshot.TestCase{
				Name: "t", ClassName: "T", Status: snapshot.StatusPassed,
				Attachments: []snapshot.Attachment{
					{Name: "a", Type: snapshot.TypePNG, Path: "/p/a.png"},
					{Name: "b", Type: snapshot.TypeText, Path: "/p/b.txt"},
				},
			},
			verify: func(t *testing.T, out junitTestCase) {
				if out.SystemOut != "a: /p/a.png | b: /p/b.txt" {
					t.Errorf("system-out: %q", out.SystemOut)
				}
				if len(out.Attachments.Items) != 2 || out.Attachments.Items[1].Type != "text/plain" {
					t.Errorf("attachments: %+v", out.Attachments)
				}
			},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(
			tc.name, func(t *testing.T) {
				t.Parallel()

				tc.verify(t, buildJUnitCase(tc.tc))
			},
		)
	}
}

func TestFormatSeconds(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in       float64
		expected string
	}{
		{in: 0, expected: "0"},
		{in: 1.5, expected: "1.5"},
		{in: 0.30000000000000004, expected: "0.30000000000000004"},
	}

	for _, tc := range testCases {
		if got := formatSeconds(tc.in); got != tc.expected {
			t.Errorf("formatSeconds(%v): got %q, want %q", tc.in, got, tc.expected)
		}
	}
}
