// Package xcresult converts an .xcresult bundle produced by
// `xcodebuild test` into a snapshot report by shelling out to
// `xcrun xcresulttool`.
package xcresult

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

type Option func(*Reader)

// WithTool replaces the xcrun-backed tool, used by tests.
func WithTool(tool Tool) Option {
	return func(r *Reader) {
		r.tool = tool
	}
}

// WithParallelism bounds the attachment export fan-out. Zero means one
// worker per CPU.
func WithParallelism(limit int) Option {
	return func(r *Reader) {
		r.limit = limit
	}
}

func NewReader(opts ...Option) *Reader {
	r := &Reader{tool: NewXcrunTool()}
	for _, o := range opts {
		o(r)
	}

	return r
}

type Reader struct {
	tool  Tool
	limit int
}

// Read parses the bundle at bundlePath into a report. A bundle without
// actions yields an empty report; a failing top-level fetch is fatal.
func (r *Reader) Read(ctx context.Context, bundlePath string) (snapshot.Report, error) {
	invocation, err := r.tool.GetObject(ctx, bundlePath, "")
	if err != nil {
		return snapshot.Report{}, fmt.Errorf("fetch invocation record: %w", err)
	}

	suites, err := r.parseSuites(ctx, invocation, bundlePath)
	if err != nil {
		return snapshot.Report{}, err
	}

	name := strings.TrimSuffix(filepath.Base(bundlePath), filepath.Ext(bundlePath))

	return snapshot.Report{Name: name, GeneratedAt: snapshot.Now(), Suites: suites}, nil
}

func (r *Reader) parseSuites(ctx context.Context, invocation map[string]any, bundlePath string) ([]snapshot.Suite, error) {
	actions := arrayField(invocation, "actions")
	if len(actions) == 0 {
		return []snapshot.Suite{}, nil
	}

	var suites []snapshot.Suite

	for _, action := range actions {
		actionResult, ok := objectField(action, "actionResult")
		if !ok {
			continue
		}

		testsRef, ok := objectField(actionResult, "testsRef")
		if !ok {
			continue
		}

		refID, ok := stringField(testsRef, "id")
		if !ok {
			continue
		}

		summaries, err := r.tool.GetObject(ctx, bundlePath, refID)
		if err != nil {
			return nil, fmt.Errorf("fetch tests summary %s: %w", refID, err)
		}

		extracted, err := r.extractSuites(ctx, summaries, bundlePath)
		if err != nil {
			return nil, err
		}

		suites = append(suites, extracted...)
	}

	// Some bundle shapes never populate the detailed test tree; recover
	// failures from the flat issue list instead of reporting nothing.
	if len(suites) == 0 {
		suites = parseIssueFallback(actions)
	}

	if suites == nil {
		suites = []snapshot.Suite{}
	}

	return suites, nil
}

func (r *Reader) extractSuites(ctx context.Context, summariesJSON map[string]any, bundlePath string) ([]snapshot.Suite, error) {
	var result []snapshot.Suite

	for _, summary := range arrayField(summariesJSON, "summaries") {
		for _, testableSummary := range arrayField(summary, "testableSummaries") {
			suiteName, ok := stringField(testableSummary, "name")
			if !ok {
				suiteName = "Unknown Suite"
			}

			tests := arrayField(testableSummary, "tests")
			if len(tests) == 0 {
				continue
			}

			testCases, err := r.extractTestCases(ctx, tests, bundlePath)
			if err != nil {
				return nil, err
			}

			if len(testCases) > 0 {
				result = append(result, snapshot.Suite{Name: suiteName, Tests: testCases})
			}
		}
	}

	return result, nil
}

func (r *Reader) extractTestCases(ctx context.Context, nodes []map[string]any, bundlePath string) ([]snapshot.TestCase, error) {
	var cases []snapshot.TestCase

	for _, node := range nodes {
		if subtests := arrayField(node, "subtests"); len(subtests) > 0 {
			children, err := r.extractTestCases(ctx, subtests, bundlePath)
			if err != nil {
				return nil, err
			}

			cases = append(cases, children...)
			continue
		}

		name, ok := stringField(node, "name")
		if !ok {
			name = "Unknown Test"
		}
		name = strings.ReplaceAll(name, "()", "")

		identifier, ok := stringField(node, "identifier")
		if !ok {
			identifier = name
		}

		className := identifier
		if idx := strings.Index(identifier, "/"); idx >= 0 {
			className = identifier[:idx]
		}

		statusString, ok := stringField(node, "testStatus")
		if !ok {
			statusString = "Failure"
		}

		duration, _ := doubleField(node, "duration")

		// ActionTestMetadata nodes keep activity summaries behind a
		// summaryRef that must be dereferenced separately. A failed
		// dereference degrades to the bare node.
		detailsNode := node
		if summaryRef, ok := objectField(node, "summaryRef"); ok {
			if summaryID, ok := stringField(summaryRef, "id"); ok {
				if details, err := r.tool.GetObject(ctx, bundlePath, summaryID); err == nil {
					detailsNode = details
				}
			}
		}

		var attachments []snapshot.Attachment
		var manifests []manifestRecord

		if activitySummaries := arrayField(detailsNode, "activitySummaries"); len(activitySummaries) > 0 {
			exported := r.exportAttachments(ctx, activitySummaries, bundlePath)
			for _, payload := range exported {
				if payload.attachment != nil {
					attachments = append(attachments, *payload.attachment)
				}
				if payload.manifest != nil {
					manifests = append(manifests, *payload.manifest)
				}
			}
		}

		attachments = relabelFromManifests(attachments, manifests)

		status := mapStatus(statusString)

		if status == snapshot.StatusPassed && len(attachments) == 0 {
			attachments = inferReferenceAttachments(name, className, bundlePath)
		}

		var failure *snapshot.Failure
		if status == snapshot.StatusFailed {
			failure = extractFailure(detailsNode)
		}

		cases = append(
			cases, snapshot.TestCase{
				ID:          uuid.New().String(),
				Name:        name,
				ClassName:   className,
				Status:      status,
				Duration:    duration,
				Failure:     failure,
				Attachments: attachments,
			},
		)
	}

	return cases, nil
}

// relabelFromManifests qualifies the standard PNG attachment names with
// the snapshot name recovered from the manifest sidecar of the same
// assertion.
func relabelFromManifests(attachments []snapshot.Attachment, manifests []manifestRecord) []snapshot.Attachment {
	var snapshotName string
	for _, manifest := range manifests {
		if manifest.SnapshotName != "" {
			snapshotName = manifest.SnapshotName
			break
		}
	}

	if snapshotName == "" {
		return attachments
	}

	for idx := range attachments {
		switch attachments[idx].Name {
		case "Snapshot":
			attachments[idx].Name = "Snapshot-" + snapshotName
		case "Diff":
			attachments[idx].Name = "Diff-" + snapshotName
		case "Failure", "Actual Snapshot":
			attachments[idx].Name = "Failure-" + snapshotName
		}
	}

	return attachments
}

func extractFailure(detailsNode map[string]any) *snapshot.Failure {
	summaries := arrayField(detailsNode, "failureSummaries")
	if len(summaries) == 0 {
		return nil
	}

	first := summaries[0]

	message, ok := stringField(first, "message")
	if !ok || message == "" {
		message = "Test failed"
	}

	failure := &snapshot.Failure{Message: message}
	if file, ok := stringField(first, "fileName"); ok {
		failure.File = file
	}
	if line, ok := intField(first, "lineNumber"); ok {
		failure.Line = &line
	}

	return failure
}

// parseLocation decodes documentLocationInCreatingWorkspace, a file URL
// whose fragment carries a StartingLineNumber key.
func parseLocation(summary map[string]any) (string, int, bool) {
	location, ok := objectField(summary, "documentLocationInCreatingWorkspace")
	if !ok {
		return "", 0, false
	}

	rawURL, ok := stringField(location, "url")
	if !ok {
		return "", 0, false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Fragment == "" {
		return "", 0, false
	}

	for _, pair := range strings.Split(parsed.Fragment, "&") {
		if value, found := strings.CutPrefix(pair, "StartingLineNumber="); found {
			var line int
			if _, err := fmt.Sscanf(value, "%d", &line); err == nil {
				return parsed.Path, line, true
			}
		}
	}

	return "", 0, false
}

func parseIssueFallback(actions []map[string]any) []snapshot.Suite {
	grouped := make(map[string][]snapshot.TestCase)

	for _, action := range actions {
		actionResult, ok := objectField(action, "actionResult")
		if !ok {
			continue
		}

		issues, ok := objectField(actionResult, "issues")
		if !ok {
			continue
		}

		for _, summary := range arrayField(issues, "testFailureSummaries") {
			fullName, ok := stringField(summary, "testCaseName")
			if !ok {
				fullName = "UnknownTest.test"
			}
			fullName = strings.ReplaceAll(fullName, "()", "")

			className, testName, found := strings.Cut(fullName, ".")
			if !found {
				className, testName = fullName, fullName
			}

			message, ok := stringField(summary, "message")
			if !ok {
				message = "Test failed"
			}

			failure := &snapshot.Failure{Message: message}
			if file, line, ok := parseLocation(summary); ok {
				failure.File = file
				failure.Line = &line
			}

			grouped[className] = append(
				grouped[className], snapshot.TestCase{
					ID:        uuid.New().String(),
					Name:      testName,
					ClassName: className,
					Status:    snapshot.StatusFailed,
					Failure:   failure,
				},
			)
		}
	}

	classNames := make([]string, 0, len(grouped))
	for className := range grouped {
		classNames = append(classNames, className)
	}
	sort.Strings(classNames)

	suites := make([]snapshot.Suite, 0, len(classNames))
	for _, className := range classNames {
		suites = append(suites, snapshot.Suite{Name: className, Tests: grouped[className]})
	}

	return suites
}

func mapStatus(xcStatus string) string {
	switch strings.ToLower(xcStatus) {
	case "success":
		return snapshot.StatusPassed
	case "failure":
		return snapshot.StatusFailed
	case "skipped":
		return snapshot.StatusSkipped
	default:
		return snapshot.StatusFailed
	}
}
