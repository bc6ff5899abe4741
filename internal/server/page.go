package server

import (
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
{{.Body}}
{{- range .Scripts}}
<script src="{{.}}"></script>
{{- end}}
</body>
</html>
`))

var errorTemplate = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Status}} {{.StatusText}}</title>
</head>
<body>
<h1>{{.Status}} {{.StatusText}}</h1>
{{- if .Detail}}
<pre>{{.Detail}}</pre>
{{- end}}
</body>
</html>
`))

type pageData struct {
	Title   string
	Body    template.HTML
	Scripts []string
}

type errorData struct {
	Status     int
	StatusText string
	Detail     string
}

func writePage(w io.Writer, d pageData) error {
	return pageTemplate.Execute(w, d)
}

func writeError(w io.Writer, d errorData) error {
	return errorTemplate.Execute(w, d)
}
