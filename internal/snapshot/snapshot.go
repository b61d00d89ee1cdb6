package snapshot

import "time"

const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// AttachmentType is the media category of an attachment. Every value maps
// to exactly one MIME type via MimeType.
type AttachmentType string

const (
	TypePNG    AttachmentType = "png"
	TypeText   AttachmentType = "text"
	TypeDump   AttachmentType = "dump"
	TypeBinary AttachmentType = "binary"
)

// MimeType returns the MIME type used when the attachment is referenced
// from XML or HTML output.
func (t AttachmentType) MimeType() string {
	switch t {
	case TypePNG:
		return "image/png"
	case TypeText, TypeDump:
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

// Report is a full snapshot test run, or the merge of several runs.
type Report struct {
	Name        string            `json:"name"`
	GeneratedAt time.Time         `json:"generatedAt"`
	Suites      []Suite           `json:"suites"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Summary is recomputed from Suites on every call so it can never drift
// from the test data.
func (r Report) Summary() Summary {
	var s Summary
	for _, suite := range r.Suites {
		for _, tc := range suite.Tests {
			s.Total++
			switch tc.Status {
			case StatusPassed:
				s.Passed++
			case StatusFailed:
				s.Failed++
			case StatusSkipped:
				s.Skipped++
			}
			s.Duration += tc.Duration
		}
	}

	return s
}

type Summary struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	Skipped  int     `json:"skipped"`
	Duration float64 `json:"duration"`
}

// Suite groups the test cases of one test class. Name is the merge key and
// is case sensitive; test order is recording order.
type Suite struct {
	Name  string     `json:"name"`
	Tests []TestCase `json:"tests"`
}

// TestCase is one recorded snapshot assertion result.
type TestCase struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	ClassName    string       `json:"className"`
	Status       string       `json:"status"`
	Duration     float64      `json:"duration"`
	Failure      *Failure     `json:"failure,omitempty"`
	Attachments  []Attachment `json:"attachments,omitempty"`
	ReferenceURL string       `json:"referenceURL,omitempty"`
}

// Failure carries the details of a failed assertion. Message is never
// empty; producers default it when the source omitted one. Line is a
// pointer because recorded line numbers are zero-based and line 0 is a
// valid location, distinct from "no location".
type Failure struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    *int   `json:"line,omitempty"`
	Diff    string `json:"diff,omitempty"`
}

// Attachment is a file tied to a test case. Name carries semantic meaning
// by convention: "Snapshot" is the reference image, "Actual Snapshot" the
// failing capture and "Diff"/"odiff" a pixel diff. Renderers pattern-match
// on it.
type Attachment struct {
	Name string         `json:"name"`
	Type AttachmentType `json:"type"`
	Path string         `json:"path"`
}

// Now returns the current time the way report timestamps are stored: UTC,
// second precision, so reports survive a JSON round trip unchanged.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
