package reporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

// Template context types. Field names and semantics are a contract with
// custom templates; the bundled markup is swappable, the data is not.

type templateContext struct {
	Report reportContext
	Suites []suiteContext
}

type reportContext struct {
	Name        string
	GeneratedAt string
	Summary     summaryContext
}

type summaryContext struct {
	Total    int
	Passed   int
	Failed   int
	Skipped  int
	Duration string
}

type suiteContext struct {
	Name  string
	Tests []testContext
}

type testContext struct {
	ID           string
	Name         string
	ClassName    string
	Status       string
	Duration     string
	Failure      failureContext
	ReferenceURL string
	Attachments  []attachmentContext
	FailedGroups []failedGroupContext
	PassedGroups []passedGroupContext
}

type failureContext struct {
	Message string
	File    string
	Line    string
	Diff    string
}

type attachmentContext struct {
	Name         string
	Type         string
	Path         string
	Content      string
	VariantOrder int
	Exists       bool
	IsEmpty      bool
	SizeBytes    int64
}

type failedGroupContext struct {
	GroupName string
	Snapshot  attachmentContext
	Diff      attachmentContext
	Failure   attachmentContext
}

type passedGroupContext struct {
	GroupName   string
	Attachments []attachmentContext
}

func makeContext(report snapshot.Report, outputDir string) templateContext {
	summary := report.Summary()

	suites := make([]suiteContext, 0, len(report.Suites))
	for _, suite := range report.Suites {
		tests := make([]testContext, 0, len(suite.Tests))
		for _, tc := range suite.Tests {
			tests = append(tests, makeTestContext(tc, outputDir))
		}

		suites = append(suites, suiteContext{Name: suite.Name, Tests: tests})
	}

	return templateContext{
		Report: reportContext{
			Name:        report.Name,
			GeneratedAt: report.GeneratedAt.UTC().Format(time.RFC3339),
			Summary: summaryContext{
				Total:    summary.Total,
				Passed:   summary.Passed,
				Failed:   summary.Failed,
				Skipped:  summary.Skipped,
				Duration: fmt.Sprintf("%.3f", summary.Duration),
			},
		},
		Suites: suites,
	}
}

func makeTestContext(tc snapshot.TestCase, outputDir string) testContext {
	ordered := sortForVariantDisplay(tc.Attachments)
	attachments := make([]attachmentContext, 0, len(ordered))
	for _, att := range ordered {
		attachments = append(attachments, makeAttachmentContext(att, att.Name, outputDir))
	}

	var failure failureContext
	if tc.Failure != nil {
		failure = failureContext{
			Message: tc.Failure.Message,
			File:    tc.Failure.File,
			Diff:    tc.Failure.Diff,
		}
		if tc.Failure.Line != nil {
			failure.Line = strconv.Itoa(*tc.Failure.Line)
		}
	}

	return testContext{
		ID:           tc.ID,
		Name:         tc.Name,
		ClassName:    tc.ClassName,
		Status:       tc.Status,
		Duration:     fmt.Sprintf("%.3f", tc.Duration),
		Failure:      failure,
		ReferenceURL: tc.ReferenceURL,
		Attachments:  attachments,
		FailedGroups: makeFailedGroups(tc, outputDir),
		PassedGroups: makePassedGroups(tc, outputDir),
	}
}

// makeFailedGroups pairs the reference, diff and failing captures of each
// assertion of a failed test so they render adjacent.
func makeFailedGroups(tc snapshot.TestCase, outputDir string) []failedGroupContext {
	if tc.Status != snapshot.StatusFailed {
		return nil
	}

	type group struct {
		snapshot *snapshot.Attachment
		diff     *snapshot.Attachment
		failure  *snapshot.Attachment
	}

	groups := make(map[string]*group)
	var orderedKeys []string
	var ungroupedIdx int

	for _, att := range tc.Attachments {
		att := att

		kind, ok := classifyFailedAttachment(att)
		if !ok {
			continue
		}

		key, grouped := failedGroupKey(att)
		if !grouped {
			key = "ungrouped-" + strconv.Itoa(ungroupedIdx)
			ungroupedIdx++
		}

		g, ok := groups[key]
		if !ok {
			g = &group{}
			groups[key] = g
			orderedKeys = append(orderedKeys, key)
		}

		switch kind {
		case kindSnapshot:
			g.snapshot = &att
		case kindDiff:
			g.diff = &att
		case kindFailure:
			g.failure = &att
		}
	}

	out := make([]failedGroupContext, 0, len(orderedKeys))
	for _, key := range orderedKeys {
		g := groups[key]

		out = append(
			out, failedGroupContext{
				GroupName: failedGroupName(key, g.snapshot, g.failure),
				Snapshot:  makeOptionalAttachmentContext(g.snapshot, "Snapshot", outputDir),
				Diff:      makeOptionalAttachmentContext(g.diff, "Diff", outputDir),
				Failure:   makeOptionalAttachmentContext(g.failure, "Failure", outputDir),
			},
		)
	}

	return out
}

// makePassedGroups presents the appearance variants of each passed
// assertion side by side in variant order.
func makePassedGroups(tc snapshot.TestCase, outputDir string) []passedGroupContext {
	if tc.Status != snapshot.StatusPassed || len(tc.Attachments) == 0 {
		return nil
	}

	grouped := make(map[string][]snapshot.Attachment)
	var order []string

	for _, att := range sortForVariantDisplay(tc.Attachments) {
		key := passedGroupName(att)
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}

		grouped[key] = append(grouped[key], att)
	}

	out := make([]passedGroupContext, 0, len(order))
	for _, key := range order {
		items := make([]attachmentContext, 0, len(grouped[key]))
		for _, att := range grouped[key] {
			items = append(items, makeAttachmentContext(att, att.Name, outputDir))
		}

		out = append(out, passedGroupContext{GroupName: key, Attachments: items})
	}

	return out
}

func failedGroupName(key string, snapshotAtt, failureAtt *snapshot.Attachment) string {
	for _, att := range []*snapshot.Attachment{snapshotAtt, failureAtt} {
		if att == nil {
			continue
		}

		base := filepath.Base(att.Path)
		base = base[:len(base)-len(filepath.Ext(base))]
		if name, ok := extractNamedSegment(base); ok {
			return name
		}
	}

	if idx, found := cutUngroupedIndex(key); found {
		return "assert-" + strconv.Itoa(idx+1)
	}

	return key
}

func cutUngroupedIndex(key string) (int, bool) {
	const prefix = "ungrouped-"
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return 0, false
	}

	idx, err := strconv.Atoi(key[len(prefix):])
	if err != nil {
		return 0, false
	}

	return idx, true
}

func makeOptionalAttachmentContext(att *snapshot.Attachment, label string, outputDir string) attachmentContext {
	if att == nil {
		return attachmentContext{Name: label, IsEmpty: true}
	}

	return makeAttachmentContext(*att, label, outputDir)
}

// makeAttachmentContext resolves an attachment against its copied file so
// templates can render missing or empty panels instead of broken links.
func makeAttachmentContext(att snapshot.Attachment, name string, outputDir string) attachmentContext {
	fullPath := filepath.Join(outputDir, att.Path)

	exists, sizeBytes := fileMetadata(fullPath)

	var content string
	if att.Type == snapshot.TypeText || att.Type == snapshot.TypeDump {
		if b, err := os.ReadFile(fullPath); err == nil {
			content = string(b)
		}
	}

	return attachmentContext{
		Name:         name,
		Type:         string(att.Type),
		Path:         att.Path,
		Content:      content,
		VariantOrder: variantOrder(att.Path),
		Exists:       exists,
		IsEmpty:      sizeBytes == 0,
		SizeBytes:    sizeBytes,
	}
}

func fileMetadata(fullPath string) (bool, int64) {
	info, err := os.Stat(fullPath)
	if err != nil {
		return false, 0
	}

	return true, info.Size()
}
