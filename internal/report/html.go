package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/peekknuf/sage/internal/engine"
)

// RenderHTML produces a self-contained HTML page: overall score circle,
// one card per metric, recommendations, and the data profile when present.
func RenderHTML(result *engine.GradeResult, opts Options) ([]byte, error) {
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}
	data := struct {
		Title                  string
		IncludeCharts          bool
		IncludeRecommendations bool
		R                      *engine.GradeResult
	}{opts.Title, opts.IncludeCharts, opts.IncludeRecommendations, result}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("report: html render: %w", err)
	}
	return buf.Bytes(), nil
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"percent": func(f float64) string {
		return fmt.Sprintf("%.1f%%", f*100)
	},
	"scoreClass": func(f float64) string {
		switch {
		case f > 0.9:
			return "score-high"
		case f > 0.7:
			return "score-medium"
		default:
			return "score-low"
		}
	},
	"title": func(v any) string {
		s := fmt.Sprint(v)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
	"join": strings.Join,
}).Parse(reportPage))

const reportPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
:root { --success: #34a853; --warning: #fbbc05; --error: #ea4335; --muted: #9aa0a6; }
* { box-sizing: border-box; }
body { font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; margin: 0; background: #f6f7f9; color: #202124; }
.container { max-width: 1100px; margin: 0 auto; padding: 24px; }
header { display: flex; justify-content: space-between; align-items: center; background: #fff; border-radius: 8px; padding: 24px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
h1 { margin: 0 0 4px; font-size: 1.5rem; }
h2 { font-size: 1.2rem; margin: 32px 0 12px; }
.source { color: #5f6368; margin: 0; }
.score-circle { width: 120px; height: 120px; border-radius: 50%; display: flex; flex-direction: column; align-items: center; justify-content: center; border: 8px solid var(--muted); }
.score-circle.score-high { border-color: var(--success); }
.score-circle.score-medium { border-color: var(--warning); }
.score-circle.score-low { border-color: var(--error); }
.score-value { font-size: 1.4rem; font-weight: 600; }
.score-status { font-size: .8rem; text-transform: uppercase; }
.status-passed { color: var(--success); }
.status-warning { color: var(--warning); }
.status-failed { color: var(--error); }
.status-skipped, .status-unknown { color: var(--muted); }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(320px, 1fr)); gap: 16px; }
.card { background: #fff; border-radius: 8px; padding: 16px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.card-header { display: flex; justify-content: space-between; align-items: baseline; }
.card-title { font-weight: 600; }
.status-tag { font-size: .75rem; text-transform: uppercase; font-weight: 600; }
.card-score { font-size: 1.6rem; font-weight: 600; margin: 8px 0; }
.card-score.score-high { color: var(--success); }
.card-score.score-medium { color: var(--warning); }
.card-score.score-low { color: var(--error); }
.card-message { color: #5f6368; font-size: .9rem; }
.bars { margin-top: 12px; }
.bar-row { display: flex; align-items: center; gap: 8px; margin: 4px 0; font-size: .8rem; }
.bar-label { flex: 0 0 110px; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
.bar { flex: 1; height: 8px; background: #e8eaed; border-radius: 4px; overflow: hidden; }
.bar-fill { height: 100%; border-radius: 4px; background: var(--muted); }
.bar-fill.score-high { background: var(--success); }
.bar-fill.score-medium { background: var(--warning); }
.bar-fill.score-low { background: var(--error); }
.bar-value { flex: 0 0 48px; text-align: right; color: #5f6368; }
.recommendation { background: #fff; border-left: 4px solid var(--muted); border-radius: 8px; padding: 16px; margin-bottom: 12px; box-shadow: 0 1px 3px rgba(0,0,0,.1); }
.recommendation h3 { margin: 0 0 8px; font-size: 1rem; }
.priority-tag { display: inline-block; font-size: .75rem; font-weight: 600; padding: 2px 10px; border-radius: 10px; }
.priority-high { background: #fce8e6; color: var(--error); }
.priority-medium { background: #fef7e0; color: #b06000; }
.priority-low { background: #e6f4ea; color: #137333; }
.recommendation-steps { margin: 8px 0 0; padding-left: 20px; }
.recommendation-steps li { margin: 2px 0; }
.affected { color: #5f6368; font-size: .85rem; }
table.profile { width: 100%; border-collapse: collapse; background: #fff; border-radius: 8px; box-shadow: 0 1px 3px rgba(0,0,0,.1); font-size: .85rem; }
table.profile th, table.profile td { text-align: left; padding: 8px 12px; border-bottom: 1px solid #e8eaed; }
table.profile th { background: #f1f3f4; }
footer { color: #5f6368; font-size: .8rem; margin-top: 32px; text-align: center; }
</style>
</head>
<body>
<div class="container">
<header>
<div>
<h1>{{.Title}}</h1>
<p class="source">{{.R.Metadata.Source}} &middot; {{.R.Metadata.RowCount}} rows &times; {{.R.Metadata.ColumnCount}} columns</p>
</div>
<div class="score-circle {{scoreClass .R.OverallScore}}">
<span class="score-value">{{percent .R.OverallScore}}</span>
<span class="score-status status-{{.R.OverallStatus}}">{{.R.OverallStatus}}</span>
</div>
</header>

<h2>Quality Metrics</h2>
<div class="grid">
{{range $name := .R.MetricOrder}}{{with $m := index $.R.Metrics $name}}
<div class="card">
<div class="card-header">
<span class="card-title">{{title $name}}</span>
<span class="status-tag status-{{$m.Status}}">{{$m.Status}}</span>
</div>
{{if $m.Status.Evaluated}}<div class="card-score {{scoreClass $m.Score}}">{{percent $m.Score}}</div>{{end}}
<div class="card-message">{{$m.Message}}</div>
{{if and $.IncludeCharts $m.Columns}}
<div class="bars">
{{range $col, $cs := $m.Columns}}
<div class="bar-row">
<span class="bar-label" title="{{$col}}">{{$col}}</span>
<div class="bar"><div class="bar-fill {{scoreClass $cs.Score}}" style="width: {{percent $cs.Score}}"></div></div>
<span class="bar-value">{{percent $cs.Score}}</span>
</div>
{{end}}
</div>
{{end}}
</div>
{{end}}{{end}}
</div>

{{if and .IncludeRecommendations .R.Recommendations}}
<h2>Recommendations</h2>
{{range .R.Recommendations}}
<div class="recommendation">
<h3>{{.Title}}</h3>
<span class="priority-tag priority-{{.Priority}}">{{title .Priority}} Priority</span>
<p>{{.Description}}</p>
<ul class="recommendation-steps">
{{range .Steps}}<li>{{.}}</li>
{{end}}</ul>
{{if .AffectedColumns}}<p class="affected">Affected columns: {{join .AffectedColumns ", "}}</p>{{end}}
</div>
{{end}}
{{end}}

{{with .R.DataProfile}}
<h2>Data Profile</h2>
<p class="source">{{.RowCount}} rows, {{.ColumnCount}} columns, {{percent .MissingRatio}} missing cells</p>
<table class="profile">
<tr><th>Column</th><th>Type</th><th>Complete</th><th>Distinct</th><th>Min</th><th>Max</th><th>Samples</th></tr>
{{range .Columns}}
<tr><td>{{.Name}}</td><td>{{.Type}}</td><td>{{percent .Completeness}}</td><td>{{.Distinct}}</td><td>{{.Min}}</td><td>{{.Max}}</td><td>{{join .Samples ", "}}</td></tr>
{{end}}
</table>
{{end}}

<footer>Generated by {{.R.Metadata.Grader}} &middot; {{.R.Metadata.Timestamp.Format "2006-01-02 15:04:05 MST"}} &middot; {{.R.Metadata.ElapsedMS}} ms</footer>
</div>
</body>
</html>
`
