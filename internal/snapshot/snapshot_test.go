package snapshot

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lineAt(n int) *int {
	return &n
}

func TestReport_Summary(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		report   Report
		expected Summary
	}{
		{
			name:     "test_empty",
			report:   Report{Name: "empty"},
			expected: Summary{},
		},
		{
			name: "test_mixed_statuses",
			report: Report{
				Suites: []Suite{
					{
						Name: "SuiteOne",
						Tests: []TestCase{
							{Name: "testPass", Status: StatusPassed, Duration: 0.1},
							{Name: "testFail", Status: StatusFailed, Duration: 0.2},
						},
					},
					{
						Name: "SuiteTwo",
						Tests: []TestCase{
							{Name: "testSkip", Status: StatusSkipped},
						},
					},
				},
			},
			expected: Summary{Total: 3, Passed: 1, Failed: 1, Skipped: 1, Duration: 0.30000000000000004},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(
			tc.name, func(t *testing.T) {
				t.Parallel()

				if diff := cmp.Diff(tc.expected, tc.report.Summary()); diff != "" {
					t.Errorf("summary mismatch (-want +got):\n%s", diff)
				}
			},
		)
	}
}

func TestAttachmentType_MimeType(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		typ      AttachmentType
		expected string
	}{
		{typ: TypePNG, expected: "image/png"},
		{typ: TypeText, expected: "text/plain"},
		{typ: TypeDump, expected: "text/plain"},
		{typ: TypeBinary, expected: "application/octet-stream"},
	}

	for _, tc := range testCases {
		if got := tc.typ.MimeType(); got == "" || got != tc.expected {
			t.Errorf("MimeType(%s): got %q, want %q", tc.typ, got, tc.expected)
		}
	}
}

func TestReport_RoundTrip(t *testing.T) {
	t.Parallel()

	report := Report{
		Name:        "Round Trip",
		GeneratedAt: Now(),
		Metadata:    map[string]string{"branch": "main", "scheme": "App"},
		Suites: []Suite{
			{
				Name: "HomeScreenTests",
				Tests: []TestCase{
					{
						ID:        "abc-123",
						Name:      "testHome",
						ClassName: "HomeScreenTests",
						Status:    StatusFailed,
						Duration:  1.25,
						Failure: &Failure{
							Message: "Snapshot mismatch",
							File:    "HomeScreenTests.swift",
							Line:    lineAt(42),
							Diff:    "-old\n+new",
						},
						Attachments: []Attachment{
							{Name: "Snapshot", Type: TypePNG, Path: "/tmp/ref.png"},
							{Name: "Actual Snapshot", Type: TypePNG, Path: "/tmp/act.png"},
						},
						ReferenceURL: "https://design.example.com/home",
					},
					{
						ID:        "def-456",
						Name:      "testHomeDark",
						ClassName: "HomeScreenTests",
						Status:    StatusPassed,
						Duration:  0.5,
					},
				},
			},
		},
	}

	pth := filepath.Join(t.TempDir(), "report.json")
	if err := SaveReport(report, pth); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	loaded, err := LoadReport(pth)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}

	if diff := cmp.Diff(report, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

// Recorded line numbers are zero-based, so line 0 is a real location and
// must survive serialization instead of collapsing into "no line".
func TestReport_RoundTrip_LineZero(t *testing.T) {
	t.Parallel()

	report := Report{
		Name:        "Line Zero",
		GeneratedAt: Now(),
		Suites: []Suite{
			{
				Name: "EdgeTests",
				Tests: []TestCase{
					{
						ID:        "edge-1",
						Name:      "testFirstLine",
						ClassName: "EdgeTests",
						Status:    StatusFailed,
						Failure:   &Failure{Message: "mismatch", File: "EdgeTests.swift", Line: lineAt(0)},
					},
				},
			},
		},
	}

	pth := filepath.Join(t.TempDir(), "report.json")
	if err := SaveReport(report, pth); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	loaded, err := LoadReport(pth)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}

	got := loaded.Suites[0].Tests[0].Failure.Line
	if got == nil || *got != 0 {
		t.Errorf("line after round trip: got %v, want pointer to 0", got)
	}
}

func TestLoadReport_NotFound(t *testing.T) {
	t.Parallel()

	if _, err := LoadReport(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
