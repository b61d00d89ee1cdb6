package xcresult

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

// inferReferenceAttachments recovers reference images for a passed test
// that produced no attachments of its own: the recorded snapshot fixtures
// still live in the project's __Snapshots__ directories. Matches are named
// by their variant suffix and sorted lexicographically.
func inferReferenceAttachments(testName, className, bundlePath string) []snapshot.Attachment {
	root, ok := findProjectRoot(bundlePath)
	if !ok {
		return nil
	}

	candidateRoots := []string{
		filepath.Join(root, "examples", "lib", "Tests"),
		filepath.Join(root, "Tests"),
	}

	prefix := testName + "."
	marker := string(filepath.Separator) + "__Snapshots__" + string(filepath.Separator) + className + string(filepath.Separator)

	var matches []string
	for _, candidate := range candidateRoots {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}

		_ = filepath.WalkDir(
			candidate, func(pth string, entry fs.DirEntry, err error) error {
				if err != nil {
					return nil
				}

				if entry.IsDir() {
					if strings.HasPrefix(entry.Name(), ".") {
						return fs.SkipDir
					}

					return nil
				}

				if !strings.Contains(pth, marker) {
					return nil
				}

				if !strings.EqualFold(filepath.Ext(pth), ".png") {
					return nil
				}

				if !strings.HasPrefix(filepath.Base(pth), prefix) {
					return nil
				}

				matches = append(matches, pth)

				return nil
			},
		)
	}

	sort.Slice(
		matches, func(i, j int) bool {
			return filepath.Base(matches[i]) < filepath.Base(matches[j])
		},
	)

	attachments := make([]snapshot.Attachment, 0, len(matches))
	for _, pth := range matches {
		base := strings.TrimSuffix(filepath.Base(pth), filepath.Ext(pth))
		label := strings.TrimPrefix(base, prefix)
		attachments = append(attachments, snapshot.Attachment{Name: label, Type: snapshot.TypePNG, Path: pth})
	}

	return attachments
}

// findProjectRoot climbs from the bundle location looking for a package
// manifest. Bundles usually sit a few levels below the project root.
func findProjectRoot(bundlePath string) (string, bool) {
	current := filepath.Dir(bundlePath)

	for i := 0; i < 8; i++ {
		if _, err := os.Stat(filepath.Join(current, "Package.swift")); err == nil {
			return current, true
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}

		current = parent
	}

	return "", false
}
