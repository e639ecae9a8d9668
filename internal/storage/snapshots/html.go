package snapshots

import (
	"html/template"
	"io"

	"github.com/BearBump/vasptrack/internal/models"
)

var pageTmpl = template.Must(template.New("snapshot").Funcs(template.FuncMap{
	"v": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}).Parse(`<html><head>
<meta charset='utf-8'>
<title>Tracking {{.Number}}</title>
<style>
    body { font-family: Arial; margin: 20px; }
    table { border-collapse: collapse; width: 100%; }
    th, td { border: 1px solid #ccc; padding: 8px; }
    th { background: #1e3a8a; color: white; }
    tr:nth-child(even) { background: #f2f2f2; }
</style>
</head><body>
<h1>Tracking Snapshot - {{.Number}}</h1>
<table>
    <tr><th>Date</th><th>State</th><th>Location</th><th>Description</th></tr>
{{- range .Events}}
    <tr><td>{{v .Timestamp}}</td><td>{{v .State}}</td><td>{{v .Location}}</td><td>{{v .Description}}</td></tr>
{{- end}}
</table></body></html>
`))

func renderHTML(w io.Writer, number string, events []models.TrackingEvent) error {
	return pageTmpl.Execute(w, struct {
		Number string
		Events []models.TrackingEvent
	}{Number: number, Events: events})
}
