package executor

import (
	"io"
	"text/template"
)

// scriptData feeds the job script template
type scriptData struct {
	Header   []string
	Prelim   []string
	Cmds     []string
	IndexVar string
}

// Array reports whether the script dispatches on the array index
func (d scriptData) Array() bool {
	return len(d.Cmds) > 1
}

var scriptTemplate = template.Must(template.New("job").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
}).Parse(`#!/bin/bash
{{range .Header}}{{.}}
{{end}}
{{range .Prelim}}{{.}}
{{end}}
{{if .Array}}case ${{.IndexVar}} in
{{range $i, $cmd := .Cmds}}{{inc $i}})
{{$cmd}}
;;
{{end}}*)
echo "unexpected array index ${{.IndexVar}}" >&2
exit 1
;;
esac
{{else}}{{index .Cmds 0}}
{{end}}`))

// writeScript renders a job script. Array jobs pick their command by 1-based task index.
func writeScript(w io.Writer, data scriptData) error {
	return scriptTemplate.Execute(w, data)
}
