package index

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// DefaultTemplate renders the index as a nested markdown list.
const DefaultTemplate = `# Directory context index

This file is generated by dirctx. Each directory below has a {{ .ArtifactFile }}
with its files, exported signatures and child summaries.

{{ range .Entries -}}
{{ indent .Depth }}- ` + "`{{ .ID }}`" + `{{ if .Missing }} (no context yet){{ else }}: {{ .Summary }}{{ end }}
{{ end -}}
`

// Entry is one directory in the rendered index.
type Entry struct {
	ID      string
	Depth   int
	Summary string
	Files   int
	Missing bool
}

// Data is the value the index template executes against.
type Data struct {
	Project      string
	ArtifactFile string
	Entries      []Entry
}

var funcs = template.FuncMap{
	"indent": func(depth int) string {
		return strings.Repeat("  ", depth)
	},
}

// Render executes text against data. Unknown fields fail rendering instead
// of producing "<no value>".
func Render(text string, data Data) ([]byte, error) {
	tmpl, err := template.New("index").Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template: %w", err)
	}
	return buf.Bytes(), nil
}
