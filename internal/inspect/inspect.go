// Package inspect scans an Xcode project for snapshot-testing test
// targets and suggests the scheme environment and CI wiring that feed
// their results into the report pipeline.
package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Package dependency names that mark a target as a snapshot-testing
// target when they appear inside its PBXNativeTarget block.
var snapshotMarkers = []string{
	"swift-snapshot-testing",
	"SnapshotReportTesting",
	"SnapshotReportSnapshotTesting",
	"SnapshotTesting",
}

// SchemeLister returns the shared schemes of an Xcode project.
type SchemeLister interface {
	ListSchemes(ctx context.Context, projectPath string) ([]string, error)
}

type Option func(*Inspector)

// WithSchemeLister replaces the xcodebuild-backed lister, used by tests.
func WithSchemeLister(l SchemeLister) Option {
	return func(i *Inspector) {
		i.lister = l
	}
}

func New(opts ...Option) *Inspector {
	i := &Inspector{lister: xcodebuildLister{xcodebuildPath: "/usr/bin/xcodebuild"}}
	for _, o := range opts {
		o(i)
	}

	return i
}

type Inspector struct {
	lister SchemeLister
}

// Result is what the inspector learned about one Xcode project.
type Result struct {
	SnapshotTargets []string
	Schemes         []string
	ProjectPath     string
}

// Inspect reads the project's pbxproj and scheme list. A missing or
// unreadable pbxproj is fatal; a failing scheme listing degrades to an
// empty scheme list, the target scan is still worth reporting.
func (i *Inspector) Inspect(ctx context.Context, projectPath string) (Result, error) {
	pbxprojPath := filepath.Join(projectPath, "project.pbxproj")
	content, err := os.ReadFile(pbxprojPath)
	if err != nil {
		return Result{}, fmt.Errorf("read %s: %w", pbxprojPath, err)
	}

	schemes, err := i.lister.ListSchemes(ctx, projectPath)
	if err != nil {
		schemes = nil
	}

	return Result{
		SnapshotTargets: detectSnapshotTargets(string(content)),
		Schemes:         schemes,
		ProjectPath:     projectPath,
	}, nil
}

// detectSnapshotTargets walks the PBXNativeTarget section line by line.
// A target block starts at `<ID> /* <Name> */ = {`; any marker seen
// before the next block starts flags the current target.
func detectSnapshotTargets(pbxproj string) []string {
	var (
		targets   []string
		inSection bool
		name      string
		marked    bool
	)

	flush := func() {
		if marked && name != "" {
			targets = append(targets, name)
		}
		name = ""
		marked = false
	}

	for _, line := range strings.Split(pbxproj, "\n") {
		switch {
		case strings.Contains(line, "/* Begin PBXNativeTarget section */"):
			inSection = true
			continue
		case strings.Contains(line, "/* End PBXNativeTarget section */"):
			flush()
			inSection = false
			continue
		}

		if !inSection {
			continue
		}

		if strings.Contains(line, "= {") {
			if comment, ok := extractComment(line); ok {
				flush()
				name = comment
			}
		}

		for _, marker := range snapshotMarkers {
			if strings.Contains(line, marker) {
				marked = true
				break
			}
		}
	}

	sort.Strings(targets)

	return targets
}

// extractComment returns the text of the first /* ... */ comment on the
// line, the way pbxproj annotates object ids with display names.
func extractComment(line string) (string, bool) {
	start := strings.Index(line, "/* ")
	if start < 0 {
		return "", false
	}

	rest := line[start+len("/* "):]
	end := strings.Index(rest, " */")
	if end < 0 {
		return "", false
	}

	return rest[:end], true
}

// FormattedReport renders the human-readable inspection summary, with an
// optional GitLab CI snippet for scheduled snapshot runs.
func (r Result) FormattedReport(gitlab bool) string {
	lines := []string{fmt.Sprintf("=== Snapshot Report Inspection: %s ===\n", filepath.Base(r.ProjectPath))}

	if len(r.SnapshotTargets) == 0 {
		lines = append(
			lines,
			"No test targets referencing swift-snapshot-testing or SnapshotReportTesting were detected.",
			"If your project uses snapshot testing, ensure the package dependency name matches one of:",
		)
		for _, marker := range snapshotMarkers {
			lines = append(lines, "  - "+marker)
		}
	} else {
		lines = append(lines, "Snapshot testing targets detected:")
		for _, target := range r.SnapshotTargets {
			lines = append(lines, "  - "+target)
		}
		lines = append(
			lines,
			"",
			"Recommended environment variables to set in each scheme's test action:",
			"  SNAPSHOT_REPORT_OUTPUT_DIR = $(SRCROOT)/.artifacts/snapshot-runs",
			"  SRCROOT                    = $(SRCROOT)",
			"  SCHEME_NAME                = <your scheme name>",
			"  GIT_BRANCH                 = $(GIT_BRANCH)  # or $CI_COMMIT_REF_NAME on GitLab",
			"  TEST_PLAN_NAME             = <your test plan name>",
			"",
			"Add this call at the start of each snapshot test suite's setUp():",
			"  configureSnapshotReport(reportName: \"<TargetName> Snapshots\")",
		)
	}

	if len(r.Schemes) > 0 {
		lines = append(lines, "", "Schemes found: "+strings.Join(r.Schemes, ", "))
	}

	if gitlab {
		lines = append(lines, "", r.gitlabSnippet())
	}

	return strings.Join(lines, "\n")
}

func (r Result) gitlabSnippet() string {
	scheme := "<your-scheme>"
	if len(r.Schemes) > 0 {
		scheme = r.Schemes[0]
	}

	targets := r.SnapshotTargets
	if len(targets) == 0 {
		targets = []string{"<your-snapshot-test-target>"}
	}

	comments := make([]string, 0, len(targets))
	for _, target := range targets {
		comments = append(comments, "# "+target)
	}

	return fmt.Sprintf(
		`# === Suggested .gitlab-ci.yml snippet for scheduled snapshot runs ===

snapshot-tests:
  stage: test
  script:
    - xcodebuild test
        -project %[1]s
        -scheme %[2]s
        -destination 'platform=iOS Simulator,name=iPhone 15,OS=latest'
        SNAPSHOT_REPORT_OUTPUT_DIR=$CI_PROJECT_DIR/.artifacts/snapshot-runs
        SRCROOT=$CI_PROJECT_DIR
        GIT_BRANCH=$CI_COMMIT_REF_NAME
        SCHEME_NAME=%[2]s
    # Targets with snapshot tests:
    %[3]s
    - snapreportctl
        --input-dir .artifacts/snapshot-runs
        --output .artifacts/snapshot-report
        --format json,junit,html
  artifacts:
    paths:
      - .artifacts/snapshot-runs/
      - .artifacts/snapshot-report/
    reports:
      junit: .artifacts/snapshot-report/report.junit.xml
  only:
    - schedules`,
		filepath.Base(r.ProjectPath), scheme, strings.Join(comments, "\n        "),
	)
}

type xcodebuildLister struct {
	xcodebuildPath string
}

func (l xcodebuildLister) ListSchemes(ctx context.Context, projectPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, l.xcodebuildPath, "-list", "-json", "-project", projectPath)
	cmd.Stderr = nil

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("xcodebuild -list: %w", err)
	}

	var payload struct {
		Project struct {
			Schemes []string `json:"schemes"`
		} `json:"project"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return nil, fmt.Errorf("parse xcodebuild -list output: %w", err)
	}

	return payload.Project.Schemes, nil
}
