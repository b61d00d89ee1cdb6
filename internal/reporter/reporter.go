// Package reporter renders a merged snapshot report into its output
// formats. Each reporter is independent and they may run in any order or
// subset.
package reporter

import (
	"context"
	"fmt"
	"strings"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatJUnit Format = "junit"
	FormatHTML  Format = "html"
)

// AllFormats is the default output selection.
var AllFormats = []Format{FormatJSON, FormatJUnit, FormatHTML}

// ParseFormats parses a comma-separated format list.
func ParseFormats(raw string) ([]Format, error) {
	var formats []Format
	for _, token := range strings.Split(raw, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		switch Format(token) {
		case FormatJSON, FormatJUnit, FormatHTML:
			formats = append(formats, Format(token))
		default:
			return nil, fmt.Errorf("unknown format: %s", token)
		}
	}

	if len(formats) == 0 {
		return nil, fmt.Errorf("no output formats selected")
	}

	return formats, nil
}

// Options are shared by all reporters.
type Options struct {
	// OutputDirectory is the base directory; each format writes its own
	// file or subtree beneath it, so concurrent writers never collide.
	OutputDirectory string
	// HTMLTemplatePath overrides the embedded HTML template.
	HTMLTemplatePath string
	// Parallelism bounds the HTML attachment copy fan-out; zero means one
	// worker per CPU.
	Parallelism int
}

type Reporter interface {
	Format() Format
	Write(ctx context.Context, report snapshot.Report, opts Options) error
}

// New returns the built-in reporter for the format.
func New(format Format) (Reporter, error) {
	switch format {
	case FormatJSON:
		return JSONReporter{}, nil
	case FormatJUnit:
		return JUnitReporter{}, nil
	case FormatHTML:
		return HTMLReporter{}, nil
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}
}

// Write renders the report in the given format.
func Write(ctx context.Context, report snapshot.Report, format Format, opts Options) error {
	r, err := New(format)
	if err != nil {
		return err
	}

	return r.Write(ctx, report, opts)
}
