package snapshot

import (
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Collector accumulates test case results for the lifetime of a test
// process and turns them into a Report. Safe for concurrent use.
type Collector struct {
	mu         sync.Mutex
	reportName string
	suites     map[string][]TestCase
	order      []string
}

func NewCollector(reportName string) *Collector {
	if reportName == "" {
		reportName = "Snapshot Tests"
	}

	return &Collector{reportName: reportName, suites: make(map[string][]TestCase)}
}

// RecordSuccess records a passed snapshot assertion.
func (c *Collector) RecordSuccess(suite, test, className string, duration float64, attachments ...Attachment) {
	c.append(
		suite, TestCase{
			ID:          uuid.New().String(),
			Name:        test,
			ClassName:   className,
			Status:      StatusPassed,
			Duration:    duration,
			Attachments: attachments,
		},
	)
}

// RecordFailure records a failed snapshot assertion.
func (c *Collector) RecordFailure(
	suite, test, className string, duration float64, failure Failure, attachments ...Attachment,
) {
	if failure.Message == "" {
		failure.Message = "Snapshot assertion failed"
	}

	c.append(
		suite, TestCase{
			ID:          uuid.New().String(),
			Name:        test,
			ClassName:   className,
			Status:      StatusFailed,
			Duration:    duration,
			Failure:     &failure,
			Attachments: attachments,
		},
	)
}

// RecordSkipped records a skipped test.
func (c *Collector) RecordSkipped(suite, test, className string, duration float64) {
	c.append(
		suite, TestCase{
			ID:        uuid.New().String(),
			Name:      test,
			ClassName: className,
			Status:    StatusSkipped,
			Duration:  duration,
		},
	)
}

// BuildReport snapshots the recorded results into an immutable report.
// Suites are sorted by name, case-insensitive; test order within a suite
// is recording order.
func (c *Collector) BuildReport(metadata map[string]string) Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	suites := make([]Suite, 0, len(c.order))
	for _, name := range c.order {
		tests := make([]TestCase, len(c.suites[name]))
		copy(tests, c.suites[name])
		suites = append(suites, Suite{Name: name, Tests: tests})
	}

	sort.SliceStable(
		suites, func(i, j int) bool {
			return strings.ToLower(suites[i].Name) < strings.ToLower(suites[j].Name)
		},
	)

	return Report{Name: c.reportName, GeneratedAt: Now(), Suites: suites, Metadata: metadata}
}

// WriteJSON flushes the current report to disk.
func (c *Collector) WriteJSON(pth string, metadata map[string]string) error {
	return SaveReport(c.BuildReport(metadata), pth)
}

func (c *Collector) append(suite string, tc TestCase) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.suites[suite]; !ok {
		c.order = append(c.order, suite)
	}

	c.suites[suite] = append(c.suites[suite], tc)
}
