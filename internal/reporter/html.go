package reporter

import (
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/snapreportkit/go-snapreport/internal/parallel"
	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

const maxFilenameBytes = 240

// HTMLReporter writes a browsable report under <output>/html: index.html
// plus every referenced attachment copied into html/attachments/.
type HTMLReporter struct{}

func (HTMLReporter) Format() Format { return FormatHTML }

func (HTMLReporter) Write(ctx context.Context, report snapshot.Report, opts Options) error {
	outputDir := filepath.Join(opts.OutputDirectory, "html")
	attachmentDir := filepath.Join(outputDir, "attachments")
	if err := os.MkdirAll(attachmentDir, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}

	copied, err := copyAttachments(ctx, report, attachmentDir, opts.Parallelism)
	if err != nil {
		return err
	}

	html, err := renderTemplate(copied, outputDir, opts.HTMLTemplatePath)
	if err != nil {
		return err
	}

	if err := os.WriteFile(filepath.Join(outputDir, "index.html"), html, 0o644); err != nil {
		return fmt.Errorf("os.WriteFile index.html: %w", err)
	}

	return nil
}

type copyJob struct {
	suiteIdx      int
	testIdx       int
	attachmentIdx int
	testID        string
	attachment    snapshot.Attachment
}

type copyResult struct {
	attachment snapshot.Attachment
	warning    string
}

// copyAttachments copies every attachment into attachmentDir, renaming to
// <testID>-<sanitized original filename> and rewriting the attachment
// path to its new report-relative location. Copies fan out over a bounded
// pool; each job owns a distinct index, so the rewritten report is
// assembled correctly regardless of completion order. Any I/O error
// aborts the render after all workers drain.
func copyAttachments(ctx context.Context, report snapshot.Report, attachmentDir string, limit int) (snapshot.Report, error) {
	suites := make([]snapshot.Suite, len(report.Suites))
	copy(suites, report.Suites)

	var jobs []copyJob
	for suiteIdx := range suites {
		tests := make([]snapshot.TestCase, len(suites[suiteIdx].Tests))
		copy(tests, suites[suiteIdx].Tests)
		suites[suiteIdx].Tests = tests

		for testIdx := range tests {
			attachments := make([]snapshot.Attachment, len(tests[testIdx].Attachments))
			copy(attachments, tests[testIdx].Attachments)
			tests[testIdx].Attachments = attachments

			for attachmentIdx := range attachments {
				jobs = append(
					jobs, copyJob{
						suiteIdx:      suiteIdx,
						testIdx:       testIdx,
						attachmentIdx: attachmentIdx,
						testID:        tests[testIdx].ID,
						attachment:    attachments[attachmentIdx],
					},
				)
			}
		}
	}

	results, err := parallel.Map(
		ctx, jobs, limit, func(_ context.Context, job copyJob) (copyResult, error) {
			return copyAttachment(job, attachmentDir)
		},
	)
	if err != nil {
		return snapshot.Report{}, err
	}

	seen := make(map[string]struct{})
	var warnings []string
	for _, result := range results {
		if result.warning == "" {
			continue
		}
		if _, ok := seen[result.warning]; ok {
			continue
		}

		seen[result.warning] = struct{}{}
		warnings = append(warnings, result.warning)
	}

	sort.Strings(warnings)
	for _, warning := range warnings {
		warnf("%s", warning)
	}

	for idx, job := range jobs {
		suites[job.suiteIdx].Tests[job.testIdx].Attachments[job.attachmentIdx] = results[idx].attachment
	}

	report.Suites = suites

	return report, nil
}

func copyAttachment(job copyJob, attachmentDir string) (copyResult, error) {
	source, err := os.Open(job.attachment.Path)
	if err != nil {
		if os.IsNotExist(err) {
			// Keep the original path; the HTML panel will show it missing.
			return copyResult{attachment: job.attachment}, nil
		}

		return copyResult{}, fmt.Errorf("os.Open %s: %w", job.attachment.Path, err)
	}
	defer source.Close()

	filename := sanitizeFilename(job.testID + "-" + filepath.Base(job.attachment.Path))
	filename, warning := shortenFilename(filename, job.testID+"|"+job.attachment.Path)

	destination, err := os.Create(filepath.Join(attachmentDir, filename))
	if err != nil {
		return copyResult{}, fmt.Errorf("os.Create %s: %w", filename, err)
	}
	defer destination.Close()

	if _, err := io.Copy(destination, source); err != nil {
		return copyResult{}, fmt.Errorf("copy attachment %s: %w", job.attachment.Path, err)
	}

	copied := job.attachment
	copied.Path = "attachments/" + filename

	return copyResult{attachment: copied, warning: warning}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeFilename(value string) string {
	return unsafeFilenameChars.ReplaceAllString(value, "-")
}

// shortenFilename keeps copied names under the byte budget by truncating
// the base and appending a deterministic hash of the seed before the
// extension, so two distinct long names never collide.
func shortenFilename(filename, hashSeed string) (string, string) {
	if len(filename) <= maxFilenameBytes {
		return filename, ""
	}

	ext := filepath.Ext(filename)
	base := filename[:len(filename)-len(ext)]

	suffix := "-" + shortHash(hashSeed) + ext

	available := maxFilenameBytes - len(suffix)
	if available < 1 {
		available = 1
	}
	if available > len(base) {
		available = len(base)
	}

	shortened := base[:available] + suffix
	warning := fmt.Sprintf(
		"Attachment filename exceeded %d bytes and was shortened: %s -> %s", maxFilenameBytes, filename, shortened,
	)

	return shortened, warning
}

func shortHash(value string) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(value))

	return fmt.Sprintf("%016x", h.Sum64())
}

var warnMu sync.Mutex

func warnf(format string, args ...any) {
	warnMu.Lock()
	defer warnMu.Unlock()

	fmt.Fprintf(os.Stderr, "[snapreport] warning: "+format+"\n", args...)
}
