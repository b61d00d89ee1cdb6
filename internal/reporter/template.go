package reporter

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"os"

	"github.com/snapreportkit/go-snapreport/internal/snapshot"
)

//go:embed templates/default-report.html.tmpl
var defaultTemplate string

func renderTemplate(report snapshot.Report, outputDir, customTemplatePath string) ([]byte, error) {
	content := defaultTemplate
	if customTemplatePath != "" {
		b, err := os.ReadFile(customTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("read html template: %w", err)
		}

		content = string(b)
	}

	tmpl, err := template.New("report").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("template.Parse: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, makeContext(report, outputDir)); err != nil {
		return nil, fmt.Errorf("template.Execute: %w", err)
	}

	return buf.Bytes(), nil
}
