// Package pipeline drives the full run: load inputs, merge, post-process
// diffs and render every requested output format.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/snapreportkit/go-snapreport/internal/aggregate"
	"github.com/snapreportkit/go-snapreport/internal/odiff"
	"github.com/snapreportkit/go-snapreport/internal/parallel"
	"github.com/snapreportkit/go-snapreport/internal/reporter"
	"github.com/snapreportkit/go-snapreport/internal/snapshot"
	"github.com/snapreportkit/go-snapreport/internal/xcresult"
)

const bundleExt = ".xcresult"

// Config is the resolved CLI input for one run.
type Config struct {
	// Inputs are report JSON files or .xcresult bundle paths.
	Inputs []string
	// InputDirs are scanned non-recursively for *.json and *.xcresult.
	InputDirs []string
	Formats   []reporter.Format
	// OutputDirectory receives report.json, report.junit.xml and html/.
	OutputDirectory  string
	HTMLTemplatePath string
	// NameOverride names the merged report; empty keeps the first
	// input's name.
	NameOverride string
	// Parallelism bounds every fan-out stage; zero means one worker per
	// CPU.
	Parallelism int
	// DiffToolPath locates the odiff binary; empty skips the diff pass.
	DiffToolPath string
	// Out receives human progress output.
	Out io.Writer

	bundleReader *xcresult.Reader
}

// Option tweaks a run, used by tests.
type Option func(*Config)

// WithBundleReader replaces the xcresulttool-backed bundle reader.
func WithBundleReader(r *xcresult.Reader) Option {
	return func(cfg *Config) {
		cfg.bundleReader = r
	}
}

// Run executes the pipeline. Either every requested format is written or
// an error is returned before any format claims success.
func Run(ctx context.Context, cfg Config, opts ...Option) error {
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.Out == nil {
		cfg.Out = io.Discard
	}

	if len(cfg.Formats) == 0 {
		cfg.Formats = reporter.AllFormats
	}

	if cfg.bundleReader == nil {
		cfg.bundleReader = xcresult.NewReader(xcresult.WithParallelism(cfg.Parallelism))
	}

	inputs, err := collectInputs(cfg)
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		return fmt.Errorf("no input reports or xcresult bundles found")
	}

	reports, err := parallel.Map(
		ctx, inputs, cfg.Parallelism, func(ctx context.Context, pth string) (snapshot.Report, error) {
			return loadInput(ctx, cfg, pth)
		},
	)
	if err != nil {
		return err
	}

	merged := aggregate.Merge(reports, cfg.NameOverride)

	if cfg.DiffToolPath != "" {
		merged = odiff.New(cfg.DiffToolPath).Process(ctx, merged)
	}

	if err := os.MkdirAll(cfg.OutputDirectory, 0o755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}

	writeOpts := reporter.Options{
		OutputDirectory:  cfg.OutputDirectory,
		HTMLTemplatePath: cfg.HTMLTemplatePath,
		Parallelism:      cfg.Parallelism,
	}

	if err := parallel.ForEach(
		ctx, cfg.Formats, cfg.Parallelism, func(ctx context.Context, format reporter.Format) error {
			return reporter.Write(ctx, merged, format, writeOpts)
		},
	); err != nil {
		return err
	}

	names := make([]string, 0, len(cfg.Formats))
	for _, format := range cfg.Formats {
		names = append(names, string(format))
	}

	_, _ = fmt.Fprintf(cfg.Out, "Generated report %s at %s\n", strings.Join(names, ", "), cfg.OutputDirectory)

	return nil
}

func collectInputs(cfg Config) ([]string, error) {
	inputs := make([]string, 0, len(cfg.Inputs))
	inputs = append(inputs, cfg.Inputs...)

	for _, dir := range cfg.InputDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("os.ReadDir %s: %w", dir, err)
		}

		for _, entry := range entries {
			name := entry.Name()
			switch {
			case entry.IsDir() && strings.HasSuffix(name, bundleExt):
				inputs = append(inputs, filepath.Join(dir, name))
			case !entry.IsDir() && strings.HasSuffix(name, ".json"):
				inputs = append(inputs, filepath.Join(dir, name))
			}
		}
	}

	return inputs, nil
}

func loadInput(ctx context.Context, cfg Config, pth string) (snapshot.Report, error) {
	if strings.HasSuffix(pth, bundleExt) {
		report, err := cfg.bundleReader.Read(ctx, pth)
		if err != nil {
			return snapshot.Report{}, fmt.Errorf("read bundle %s: %w", pth, err)
		}

		return report, nil
	}

	report, err := snapshot.LoadReport(pth)
	if err != nil {
		return snapshot.Report{}, fmt.Errorf("load report %s: %w", pth, err)
	}

	return report, nil
}
