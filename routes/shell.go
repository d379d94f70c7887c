package routes

import (
	"bytes"
	"html/template"
	"net/http"

	"weddingplanner/config"
)

const shellTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>:root { --primary: {{.Primary}}; --secondary: {{.Secondary}}; }</style>
<link rel="stylesheet" href="/css/main.css">
</head>
<body>
<div id="app" data-wedding-date="{{.Date}}"></div>
<noscript>{{.Title}} needs JavaScript enabled.</noscript>
{{- if .FooterText}}
<footer>{{if .FooterLink}}<a href="{{.FooterLink}}">{{.FooterText}}</a>{{else}}{{.FooterText}}{{end}}</footer>
{{- end}}
<script src="/js/main.js" defer></script>
</body>
</html>
`

type shellData struct {
	Title      string
	Date       string
	Primary    template.CSS
	Secondary  template.CSS
	FooterText string
	FooterLink string
}

// NewShell renders the page shell once from cfg. The front end takes over
// routing from there.
func NewShell(cfg *config.Config) (http.Handler, error) {
	tmpl, err := template.New("shell").Parse(shellTemplate)
	if err != nil {
		return nil, err
	}
	data := shellData{
		Title:      cfg.Bride.Name + " & " + cfg.Groom.Name,
		Date:       cfg.Wedding.Date,
		Primary:    cssColor(cfg.Theme.Primary, "#4a6a5a"),
		Secondary:  cssColor(cfg.Theme.Secondary, "#f4efe6"),
		FooterText: cfg.Footer.Text,
		FooterLink: cfg.Footer.Link,
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	page := buf.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			_, _ = w.Write(page)
		}
	}), nil
}

// cssColor accepts #rgb or #rrggbb and falls back to def otherwise.
func cssColor(v, def string) template.CSS {
	if (len(v) != 4 && len(v) != 7) || v[0] != '#' {
		return template.CSS(def)
	}
	for _, c := range v[1:] {
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F') {
			return template.CSS(def)
		}
	}
	return template.CSS(v)
}
