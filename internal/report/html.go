package report

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/Masterminds/sprig/v3"

	"testrig/internal/runner"
)

// WriteHTML renders the suite result as a standalone HTML page.
func WriteHTML(result runner.SuiteResult, path string) error {
	tmpl, err := template.New("report").Funcs(sprig.HtmlFuncMap()).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()

	if err := tmpl.Execute(f, result); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>testrig report {{ .RunID }}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1d1d1f; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; margin-top: 1rem; }
th, td { text-align: left; padding: 0.45rem 0.7rem; border-bottom: 1px solid #e0e0e0; }
th { background: #f5f5f7; }
.summary span { margin-right: 1.2rem; font-weight: 600; }
.PASSED { color: #1a7f37; }
.FAILED { color: #cf222e; }
.ERROR { color: #cf222e; }
.SKIPPED { color: #9a6700; }
.steps { font-size: 0.85rem; color: #57606a; }
.error { font-size: 0.85rem; color: #cf222e; }
</style>
</head>
<body>
<h1>testrig run {{ .RunID | trunc 8 }}</h1>
<p>{{ .StartTime.Format "2006-01-02 15:04:05" }} &middot; duration {{ .Duration }}</p>
<p class="summary">
<span class="PASSED">{{ .Passed }} passed</span>
{{- if gt .Failed 0 }}<span class="FAILED">{{ .Failed }} failed</span>{{ end }}
{{- if gt .Errors 0 }}<span class="ERROR">{{ .Errors }} errors</span>{{ end }}
{{- if gt .Skipped 0 }}<span class="SKIPPED">{{ .Skipped }} skipped</span>{{ end }}
<span>{{ .Total }} total</span>
</p>
<table>
<tr><th>Scenario</th><th>Suite</th><th>Kind</th><th>Status</th><th>Attempts</th><th>Duration</th></tr>
{{- range .Scenarios }}
<tr>
<td>{{ .Name }}</td>
<td>{{ .Suite }}</td>
<td>{{ .Kind }}</td>
<td class="{{ .Status }}">{{ .Status }}</td>
<td>{{ .Attempts }}</td>
<td>{{ .Duration }}</td>
</tr>
{{- if .Error }}
<tr><td colspan="6" class="error">{{ .Error }}</td></tr>
{{- end }}
{{- if .Steps }}
<tr><td colspan="6" class="steps">
{{- range .Steps }}{{ .Status }} {{ .Name }} ({{ .Duration }})<br>{{ end -}}
</td></tr>
{{- end }}
{{- end }}
</table>
</body>
</html>
`
