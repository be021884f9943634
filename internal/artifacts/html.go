package artifacts

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"gemscan/internal/domain"
)

var htmlTemplate = template.Must(template.New("scan").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Gem Scan: {{.Symbol}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.8rem; text-align: left; }
.flagged { color: #b00020; font-weight: bold; }
.clear { color: #1b5e20; font-weight: bold; }
</style>
</head>
<body>
<h1>Gem Scan: {{.Name}} ({{.Symbol}})</h1>
<p>Scan ID: <code>{{.ScanID}}</code><br>Completed: {{.Completed}}</p>
<h2 class="{{.VerdictClass}}">{{.Verdict}}</h2>
<p>GemScore: <strong>{{printf "%.2f" .Score}}</strong> / 100 (confidence {{printf "%.1f" .Confidence}})</p>
<h3>Flag Checks</h3>
<table>
<tr><th>Check</th><th>Threshold</th><th>Actual</th><th>Pass</th></tr>
{{range .Checks}}<tr><td>{{.Name}}</td><td>{{.Threshold}}</td><td>{{.Actual}}</td><td>{{.Pass}}</td></tr>
{{end}}</table>
{{if .Findings}}<h3>Safety Findings</h3>
<ul>{{range .Findings}}<li><strong>{{.Name}}</strong> ({{.Severity}}): {{.Detail}}</li>{{end}}</ul>
{{end}}</body>
</html>
`))

type htmlCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      string
}

type htmlView struct {
	Name         string
	Symbol       string
	ScanID       string
	Completed    string
	Verdict      string
	VerdictClass string
	Score        float64
	Confidence   float64
	Checks       []htmlCheck
	Findings     []domain.SafetyFinding
}

// RenderHTML renders the scan result as a standalone HTML page.
func (r *Renderer) RenderHTML(res *domain.ScanResult) (string, error) {
	view := htmlView{
		Name:         res.Token.Name,
		Symbol:       res.Token.Symbol,
		ScanID:       res.ScanID,
		Completed:    time.UnixMilli(res.CompletedAt).UTC().Format(time.RFC3339),
		Verdict:      "Not flagged",
		VerdictClass: "clear",
		Score:        res.GemScore.Score,
		Confidence:   res.GemScore.Confidence,
	}
	if res.Flagged {
		view.Verdict = "Flagged for review"
		view.VerdictClass = "flagged"
	}
	for _, name := range sortedKeys(res.FlagDebug) {
		c := res.FlagDebug[name]
		pass := "FAIL"
		if c.Pass {
			pass = "PASS"
		}
		view.Checks = append(view.Checks, htmlCheck{Name: name, Threshold: c.Threshold, Actual: c.Actual, Pass: pass})
	}
	if res.Safety != nil {
		view.Findings = res.Safety.Findings
	}

	var sb strings.Builder
	if err := htmlTemplate.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("render html artifact: %w", err)
	}
	return sb.String(), nil
}
