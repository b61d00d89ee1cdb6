package reporter

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

// Attachment classification for failed tests. Names carry semantics by
// convention; unmatched attachments are ignored for grouping purposes.
const (
	kindSnapshot = "snapshot"
	kindDiff     = "diff"
	kindFailure  = "failure"
)

var appearanceSuffixes = []string{
	"-high-contrast-light",
	"-high-contrast-dark",
	"-light",
	"-dark",
}

// The assertion runtime records raw snapshot-testing artifacts as
// reference_<n>_<UUID>.png / failure_<n>_<UUID>.png /
// difference_<n>_<UUID>.png; the shared token pairs them.
var groupKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:reference|failure|difference)_\d+_([A-F0-9-]+)\.(?:png|jpg|jpeg)$`),
	regexp.MustCompile(`(?i)(?:reference|failure|difference)-([A-F0-9-]+)\.(?:png|jpg|jpeg)$`),
}

// classifyFailedAttachment buckets an attachment of a failed test into
// snapshot, diff or failure by its display name.
func classifyFailedAttachment(att snapshot.Attachment) (string, bool) {
	name := strings.ToLower(att.Name)
	switch {
	case name == "snapshot" || strings.Contains(name, "reference"):
		return kindSnapshot, true
	case name == "diff" || name == "odiff" || strings.Contains(name, "difference"):
		return kindDiff, true
	case name == "actual snapshot" || strings.Contains(name, "failure") ||
		strings.Contains(name, "actual") || strings.Contains(name, "current"):
		return kindFailure, true
	default:
		return "", false
	}
}

// failedGroupKey pairs the reference/diff/failure attachments of one
// assertion. The standardized name prefix wins; otherwise a shared
// UUID-like filename token is extracted. Neither matching is guaranteed:
// ungrouped attachments end up in singleton groups, which is accepted.
func failedGroupKey(att snapshot.Attachment) (string, bool) {
	rawName := strings.TrimSpace(att.Name)
	for _, prefix := range []string{"Snapshot-", "Diff-", "Failure-", "Actual Snapshot-"} {
		if strings.HasPrefix(rawName, prefix) {
			return strings.TrimPrefix(rawName, prefix), true
		}
	}

	filename := filepath.Base(att.Path)
	for _, pattern := range groupKeyPatterns {
		if m := pattern.FindStringSubmatch(filename); len(m) > 1 {
			return m[1], true
		}
	}

	return "", false
}

// passedGroupName derives the grouping key that presents the appearance
// variants of one passed assertion side by side.
func passedGroupName(att snapshot.Attachment) string {
	candidate := strings.TrimSpace(att.Name)
	candidate = strings.TrimPrefix(candidate, "Snapshot-")

	for _, suffix := range appearanceSuffixes {
		if strings.HasSuffix(strings.ToLower(candidate), suffix) {
			return candidate[:len(candidate)-len(suffix)]
		}
	}

	return candidate
}

// extractNamedSegment recovers the human-readable assertion name from a
// snapshot fixture filename of the form <test>.<name>[-variant].png.
func extractNamedSegment(filename string) (string, bool) {
	_, rest, found := strings.Cut(filename, ".")
	if !found || rest == "" {
		return "", false
	}

	for _, ext := range []string{".png", ".jpg", ".jpeg"} {
		if strings.HasSuffix(strings.ToLower(rest), ext) {
			rest = rest[:len(rest)-len(ext)]
			break
		}
	}

	for _, suffix := range appearanceSuffixes {
		if strings.HasSuffix(strings.ToLower(rest), suffix) {
			return rest[:len(rest)-len(suffix)], true
		}
	}

	return rest, true
}

// variantOrder is the fixed display priority of appearance variants.
// Anything unmatched sorts last.
func variantOrder(pth string) int {
	value := strings.ToLower(pth)

	switch {
	case strings.Contains(value, "high-contrast-light"):
		return 0
	case strings.Contains(value, "light") && !strings.Contains(value, "high-contrast"):
		return 1
	case strings.Contains(value, "dark") && !strings.Contains(value, "high-contrast"):
		return 2
	case strings.Contains(value, "high-contrast-dark"):
		return 3
	default:
		return 999
	}
}

// sortForVariantDisplay orders attachments by variant priority, ties
// broken by case-insensitive name. The input is left untouched.
func sortForVariantDisplay(attachments []snapshot.Attachment) []snapshot.Attachment {
	sorted := make([]snapshot.Attachment, len(attachments))
	copy(sorted, attachments)

	sort.SliceStable(
		sorted, func(i, j int) bool {
			left, right := variantOrder(sorted[i].Path), variantOrder(sorted[j].Path)
			if left == right {
				return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
			}

			return left < right
		},
	)

	return sorted
}
