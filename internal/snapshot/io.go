package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadReport reads a report previously written by SaveReport or by the
// in-process collector.
func LoadReport(pth string) (Report, error) {
	b, err := os.ReadFile(pth)
	if err != nil {
		return Report{}, fmt.Errorf("os.ReadFile: %w", err)
	}

	var report Report
	if err := json.Unmarshal(b, &report); err != nil {
		return Report{}, fmt.Errorf("json.Unmarshal %s: %w", pth, err)
	}

	return report, nil
}

// SaveReport writes the report as pretty-printed JSON. Timestamps are
// stored in RFC 3339 form, so load(save(r)) == r.
func SaveReport(report Report, pth string) error {
	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	if err := os.WriteFile(pth, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}

	return nil
}
