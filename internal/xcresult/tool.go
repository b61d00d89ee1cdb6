package xcresult

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Tool is the xcresulttool surface the reader depends on. GetObject
// fetches an object of the bundle as typed JSON (the root invocation
// record when objectID is empty); ExportFile writes a referenced payload
// to destPath.
type Tool interface {
	GetObject(ctx context.Context, bundlePath, objectID string) (map[string]any, error)
	ExportFile(ctx context.Context, bundlePath, objectID, destPath string) error
}

// ToolError reports a failed xcresulttool invocation with enough context
// to rerun it by hand.
type ToolError struct {
	Args     []string
	ExitCode int
	Err      error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("xcrun %s failed with exit code %d", strings.Join(e.Args, " "), e.ExitCode)
}

func (e *ToolError) Unwrap() error { return e.Err }

// ErrUnparseableOutput marks xcresulttool output that was not a JSON
// object.
var ErrUnparseableOutput = errors.New("could not parse xcresulttool JSON output")

// NewXcrunTool returns the production Tool backed by `xcrun xcresulttool`.
func NewXcrunTool() Tool {
	return xcrunTool{xcrunPath: "/usr/bin/xcrun"}
}

type xcrunTool struct {
	xcrunPath string
}

func (t xcrunTool) GetObject(ctx context.Context, bundlePath, objectID string) (map[string]any, error) {
	args := []string{"xcresulttool", "get", "object", "--legacy", "--format", "json"}
	if objectID != "" {
		args = append(args, "--id", objectID)
	}
	args = append(args, "--path", bundlePath)

	out, err := t.run(ctx, args)
	if err != nil {
		return nil, err
	}

	var object map[string]any
	if err := json.Unmarshal(out, &object); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnparseableOutput, err)
	}

	return object, nil
}

func (t xcrunTool) ExportFile(ctx context.Context, bundlePath, objectID, destPath string) error {
	args := []string{
		"xcresulttool", "export", "object", "--legacy",
		"--type", "file",
		"--id", objectID,
		"--output-path", destPath,
		"--path", bundlePath,
	}

	if _, err := t.run(ctx, args); err != nil {
		return err
	}

	return nil
}

func (t xcrunTool) run(ctx context.Context, args []string) ([]byte, error) {
	const bufSize = 1 << 16

	b := bytes.NewBuffer(make([]byte, 0, bufSize))
	cmd := exec.CommandContext(ctx, t.xcrunPath, args...)
	cmd.Stdout = b
	cmd.Stderr = nil

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		code := -1
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}

		return nil, &ToolError{Args: args, ExitCode: code, Err: err}
	}

	return b.Bytes(), nil
}
