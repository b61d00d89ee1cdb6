// Package odiff appends pixel-diff images to failed test cases by shelling
// out to the odiff binary.
package odiff

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/snapreportkit/go-snapreport/internal/slice"
	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

const (
	referenceAttachmentName = "Snapshot"
	actualAttachmentName    = "Actual Snapshot"
	diffAttachmentName      = "odiff"
)

// Runner invokes the diff binary with (reference, actual, output) paths.
// odiff exits 0 when the images are identical and writes no file, 1 when a
// diff image was written, 2 and above on error. The processor never
// branches on the exit code; it only checks whether output exists after.
type Runner interface {
	Run(ctx context.Context, reference, actual, output string) error
}

type Option func(*Processor)

// WithRunner replaces the exec-based runner, used by tests.
func WithRunner(r Runner) Option {
	return func(p *Processor) {
		p.runner = r
	}
}

func New(binaryPath string, opts ...Option) *Processor {
	if binaryPath == "" {
		binaryPath = "odiff"
	}

	p := &Processor{runner: execRunner{binaryPath: binaryPath}}
	for _, o := range opts {
		o(p)
	}

	return p
}

type Processor struct {
	runner Runner
}

// Process returns a copy of report where every failed test case holding
// both a "Snapshot" and an "Actual Snapshot" attachment gains an "odiff"
// PNG attachment, appended last, when the tool produced a diff image.
// Tests without the attachment pair, and any tool failure, leave the test
// case unchanged.
func (p *Processor) Process(ctx context.Context, report snapshot.Report) snapshot.Report {
	suites := make([]snapshot.Suite, len(report.Suites))
	copy(suites, report.Suites)

	for suiteIdx := range suites {
		tests := make([]snapshot.TestCase, len(suites[suiteIdx].Tests))
		copy(tests, suites[suiteIdx].Tests)

		for caseIdx := range tests {
			if tests[caseIdx].Status != snapshot.StatusFailed {
				continue
			}

			tests[caseIdx] = p.processTest(ctx, tests[caseIdx])
		}

		suites[suiteIdx].Tests = tests
	}

	report.Suites = suites

	return report
}

func (p *Processor) processTest(ctx context.Context, tc snapshot.TestCase) snapshot.TestCase {
	reference, refOK := slice.Find(
		tc.Attachments, func(a snapshot.Attachment) bool { return a.Name == referenceAttachmentName },
	)
	actual, actOK := slice.Find(
		tc.Attachments, func(a snapshot.Attachment) bool { return a.Name == actualAttachmentName },
	)
	if !refOK || !actOK {
		return tc
	}

	output := filepath.Join(os.TempDir(), "odiff-"+tc.ID+"-"+uuid.New().String()+".png")

	// Failure here is silent: the tool may be missing entirely.
	_ = p.runner.Run(ctx, reference.Path, actual.Path, output)

	if _, err := os.Stat(output); err != nil {
		return tc
	}

	attachments := make([]snapshot.Attachment, len(tc.Attachments), len(tc.Attachments)+1)
	copy(attachments, tc.Attachments)
	tc.Attachments = append(
		attachments, snapshot.Attachment{Name: diffAttachmentName, Type: snapshot.TypePNG, Path: output},
	)

	return tc
}

type execRunner struct {
	binaryPath string
}

func (r execRunner) Run(ctx context.Context, reference, actual, output string) error {
	cmd := exec.CommandContext(ctx, r.binaryPath, reference, actual, output)
	cmd.Stdout = nil
	cmd.Stderr = nil

	return cmd.Run()
}
