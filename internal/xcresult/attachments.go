package xcresult

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/snapreportkit/go-snapreport/internal/parallel"
	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

const (
	uniformTypePNG  = "public.png"
	uniformTypeJSON = "public.json"

	// Attachment names produced by the assertion runtime follow
	// "SnapshotReport|<assertID>|<kind>|<label>".
	standardizedNamePrefix = "SnapshotReport"
)

// manifestRecord is the JSON sidecar the assertion runtime attaches next
// to the snapshot PNGs of one assertion.
type manifestRecord struct {
	SchemaVersion    int    `json:"schemaVersion"`
	AssertID         string `json:"assertID"`
	SnapshotName     string `json:"snapshotName"`
	Device           string `json:"device"`
	RuntimeOSVersion string `json:"runtimeOSVersion"`
	Appearance       string `json:"appearance"`
	HighContrast     bool   `json:"highContrast"`
}

type exportedPayload struct {
	attachment *snapshot.Attachment
	manifest   *manifestRecord
}

type preparedAttachment struct {
	uniformTypeID string
	payloadID     string
	baseFilename  string
	rawName       string
}

type standardizedName struct {
	assertID string
	kind     string
	label    string
}

// exportAttachments exports every attachment payload referenced by the
// activity summaries of one leaf node. Exports fan out over a bounded
// worker pool; result order follows descriptor order regardless of
// completion order, because downstream grouping is order-sensitive. A
// failed export drops that attachment and nothing else.
func (r *Reader) exportAttachments(ctx context.Context, activitySummaries []map[string]any, bundlePath string) []exportedPayload {
	var raw []map[string]any
	for _, activity := range activitySummaries {
		raw = append(raw, arrayField(activity, "attachments")...)
	}

	var prepared []preparedAttachment
	for _, att := range raw {
		uniformTypeID, ok := stringField(att, "uniformTypeIdentifier")
		if !ok {
			continue
		}

		payloadRef, ok := objectField(att, "payloadRef")
		if !ok {
			continue
		}

		payloadID, ok := stringField(payloadRef, "id")
		if !ok {
			continue
		}

		baseFilename, ok := stringField(att, "filename")
		if !ok {
			baseFilename = payloadID + ".png"
		}

		rawName, ok := stringField(att, "name")
		if !ok {
			rawName = "Attachment"
		}

		prepared = append(
			prepared, preparedAttachment{
				uniformTypeID: uniformTypeID,
				payloadID:     payloadID,
				baseFilename:  baseFilename,
				rawName:       rawName,
			},
		)
	}

	if len(prepared) == 0 {
		return nil
	}

	payloads, _ := parallel.Map(
		ctx, prepared, r.limit, func(ctx context.Context, att preparedAttachment) (exportedPayload, error) {
			return r.exportOne(ctx, att, bundlePath), nil
		},
	)

	return payloads
}

func (r *Reader) exportOne(ctx context.Context, att preparedAttachment, bundlePath string) exportedPayload {
	destPath := filepath.Join(os.TempDir(), "xcresult-"+uuid.New().String()+"-"+att.baseFilename)

	if err := r.tool.ExportFile(ctx, bundlePath, att.payloadID, destPath); err != nil {
		return exportedPayload{}
	}

	standardized, hasStandardized := parseStandardizedName(att.rawName)

	if att.uniformTypeID == uniformTypeJSON && hasStandardized && standardized.kind == "manifest" {
		if data, err := os.ReadFile(destPath); err == nil {
			var manifest manifestRecord
			if err := json.Unmarshal(data, &manifest); err == nil {
				return exportedPayload{manifest: &manifest}
			}
		}

		return exportedPayload{}
	}

	if att.uniformTypeID != uniformTypePNG {
		return exportedPayload{}
	}

	var mappedName string
	if hasStandardized {
		switch standardized.kind {
		case "snapshot":
			mappedName = labeled("Snapshot", standardized.label)
		case "failure":
			mappedName = labeled("Failure", standardized.label)
		case "diff":
			mappedName = labeled("Diff", standardized.label)
		default:
			mappedName = att.rawName
		}
	} else {
		switch strings.ToLower(att.rawName) {
		case "reference":
			mappedName = "Snapshot"
		case "failure":
			mappedName = "Actual Snapshot"
		case "difference":
			mappedName = "Diff"
		default:
			mappedName = att.rawName
		}
	}

	return exportedPayload{
		attachment: &snapshot.Attachment{Name: mappedName, Type: snapshot.TypePNG, Path: destPath},
	}
}

func labeled(base, label string) string {
	if label == "" {
		return base
	}

	return base + "-" + label
}

func parseStandardizedName(raw string) (standardizedName, bool) {
	parts := strings.Split(raw, "|")
	if len(parts) != 4 || parts[0] != standardizedNamePrefix {
		return standardizedName{}, false
	}

	return standardizedName{assertID: parts[1], kind: parts[2], label: parts[3]}, true
}
