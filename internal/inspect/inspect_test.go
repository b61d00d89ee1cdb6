package inspect

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const pbxprojFixture = `// !$*UTF8*$!
{
	objects = {
/* Begin PBXNativeTarget section */
		AAA111 /* AppTests */ = {
			isa = PBXNativeTarget;
			packageProductDependencies = (
				BBB222 /* SnapshotTesting */,
			);
		};
		CCC333 /* App */ = {
			isa = PBXNativeTarget;
			packageProductDependencies = (
			);
		};
		DDD444 /* UISnapshotTests */ = {
			isa = PBXNativeTarget;
			packageProductDependencies = (
				EEE555 /* SnapshotReportTesting */,
			);
		};
/* End PBXNativeTarget section */
	};
}
`

type fakeLister struct {
	schemes []string
	err     error
	calls   int
}

func (f *fakeLister) ListSchemes(_ context.Context, _ string) ([]string, error) {
	f.calls++
	return f.schemes, f.err
}

func writeProject(t *testing.T, pbxproj string) string {
	t.Helper()

	projectPath := filepath.Join(t.TempDir(), "MyApp.xcodeproj")
	if err := os.MkdirAll(projectPath, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(projectPath, "project.pbxproj"), []byte(pbxproj), 0o644); err != nil {
		t.Fatal(err)
	}

	return projectPath
}

func TestInspect(t *testing.T) {
	t.Parallel()

	projectPath := writeProject(t, pbxprojFixture)
	lister := &fakeLister{schemes: []string{"MyApp", "MyAppTests"}}

	result, err := New(WithSchemeLister(lister)).Inspect(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	want := Result{
		SnapshotTargets: []string{"AppTests", "UISnapshotTests"},
		Schemes:         []string{"MyApp", "MyAppTests"},
		ProjectPath:     projectPath,
	}
	if diff := cmp.Diff(want, result); diff != "" {
		t.Errorf("Inspect result mismatch (-want +got):\n%s", diff)
	}

	if lister.calls != 1 {
		t.Errorf("lister calls = %d, want 1", lister.calls)
	}
}

func TestInspect_MissingPbxproj(t *testing.T) {
	t.Parallel()

	projectPath := filepath.Join(t.TempDir(), "Ghost.xcodeproj")

	_, err := New(WithSchemeLister(&fakeLister{})).Inspect(context.Background(), projectPath)
	if err == nil {
		t.Fatal("Inspect on a missing project.pbxproj: expected error, got nil")
	}
}

func TestInspect_SchemeListingFailureDegrades(t *testing.T) {
	t.Parallel()

	projectPath := writeProject(t, pbxprojFixture)
	lister := &fakeLister{err: errors.New("xcodebuild not found")}

	result, err := New(WithSchemeLister(lister)).Inspect(context.Background(), projectPath)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}

	if len(result.Schemes) != 0 {
		t.Errorf("Schemes = %v, want empty after lister failure", result.Schemes)
	}

	if diff := cmp.Diff([]string{"AppTests", "UISnapshotTests"}, result.SnapshotTargets); diff != "" {
		t.Errorf("SnapshotTargets mismatch (-want +got):\n%s", diff)
	}
}

func TestDetectSnapshotTargets(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		pbxproj string
		want    []string
	}{
		{
			name:    "MarkedAndUnmarked",
			pbxproj: pbxprojFixture,
			want:    []string{"AppTests", "UISnapshotTests"},
		},
		{
			name:    "NoNativeTargetSection",
			pbxproj: "{\n\tobjects = {\n\t};\n}\n",
			want:    nil,
		},
		{
			name: "MarkerOutsideSectionIgnored",
			pbxproj: `XCRemoteSwiftPackageReference "swift-snapshot-testing"
/* Begin PBXNativeTarget section */
		AAA /* App */ = {
		};
/* End PBXNativeTarget section */
`,
			want: nil,
		},
		{
			name: "LastTargetFlushedAtSectionEnd",
			pbxproj: `/* Begin PBXNativeTarget section */
		AAA /* TailTests */ = {
			FFF /* swift-snapshot-testing */,
		};
/* End PBXNativeTarget section */
`,
			want: []string{"TailTests"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := detectSnapshotTargets(tc.pbxproj)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("detectSnapshotTargets mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFormattedReport(t *testing.T) {
	t.Parallel()

	result := Result{
		SnapshotTargets: []string{"AppTests", "UISnapshotTests"},
		Schemes:         []string{"MyApp", "MyAppTests"},
		ProjectPath:     "/work/MyApp.xcodeproj",
	}

	report := result.FormattedReport(false)

	for _, fragment := range []string{
		"=== Snapshot Report Inspection: MyApp.xcodeproj ===",
		"  - AppTests",
		"  - UISnapshotTests",
		"SNAPSHOT_REPORT_OUTPUT_DIR",
		"Schemes found: MyApp, MyAppTests",
	} {
		if !strings.Contains(report, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, report)
		}
	}

	if strings.Contains(report, "snapshot-tests:") {
		t.Error("report contains the CI snippet without --gitlab")
	}
}

func TestFormattedReport_NoTargets(t *testing.T) {
	t.Parallel()

	result := Result{ProjectPath: "/work/Clean.xcodeproj"}
	report := result.FormattedReport(false)

	if !strings.Contains(report, "No test targets referencing") {
		t.Errorf("report missing the no-targets notice:\n%s", report)
	}

	for _, marker := range snapshotMarkers {
		if !strings.Contains(report, "  - "+marker) {
			t.Errorf("report missing marker %q:\n%s", marker, report)
		}
	}
}

func TestFormattedReport_GitlabSnippet(t *testing.T) {
	t.Parallel()

	result := Result{
		SnapshotTargets: []string{"AppTests"},
		Schemes:         []string{"MyApp"},
		ProjectPath:     "/work/MyApp.xcodeproj",
	}

	report := result.FormattedReport(true)

	for _, fragment := range []string{
		"snapshot-tests:",
		"-scheme MyApp",
		"# AppTests",
		"snapreportctl",
		"--format json,junit,html",
		"junit: .artifacts/snapshot-report/report.junit.xml",
		"- schedules",
	} {
		if !strings.Contains(report, fragment) {
			t.Errorf("report missing %q:\n%s", fragment, report)
		}
	}
}

func TestGitlabSnippet_PlaceholdersWhenEmpty(t *testing.T) {
	t.Parallel()

	snippet := Result{ProjectPath: "/work/MyApp.xcodeproj"}.gitlabSnippet()

	if !strings.Contains(snippet, "-scheme <your-scheme>") {
		t.Errorf("snippet missing the scheme placeholder:\n%s", snippet)
	}

	if !strings.Contains(snippet, "# <your-snapshot-test-target>") {
		t.Errorf("snippet missing the target placeholder:\n%s", snippet)
	}
}

func TestExtractComment(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		line   string
		want   string
		wantOK bool
	}{
		{line: "\t\tAAA111 /* AppTests */ = {", want: "AppTests", wantOK: true},
		{line: "\t\tAAA111 = {", wantOK: false},
		{line: "\t\tAAA111 /* unterminated = {", wantOK: false},
	}

	for _, tc := range testCases {
		got, ok := extractComment(tc.line)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("extractComment(%q) = (%q, %v), want (%q, %v)", tc.line, got, ok, tc.want, tc.wantOK)
		}
	}
}
