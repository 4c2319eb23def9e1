package usagepagegen

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/iancoleman/strcase"
)

// Identifier returns a Go-constant-safe name for a usage, e.g.
// "System Power Down" -> "UsageSystemPowerDown".
func (u Usage) Identifier() string {
	return "Usage" + strcase.ToCamel(u.Name)
}

var tableTemplate = template.Must(template.New("usagepage").Parse(`// Code generated by cmd/usagepagegen from internal/usagepagegen/data. DO NOT EDIT.

package hidusage

{{- range .Pages }}
// Usage page {{ printf "0x%02X" .ID }}: {{ .Name }}.
const {{ .Identifier }} = {{ printf "0x%04X" .ID }}
{{- range .Usages }}
const {{ .Identifier }} = {{ printf "0x%04X" .ID }}
{{- end }}
{{- end }}

func init() {
{{- range .Pages }}
{{- $page := .Identifier }}
	pageNames[{{ $page }}] = {{ printf "%q" .Name }}
{{- range .Usages }}
	usageNames[pageUsage{ {{ $page }}, {{ .Identifier }} }] = {{ printf "%q" .Name }}
{{- end }}
{{- end }}
}
`))

// Identifier returns a Go-constant-safe name for a page, e.g.
// "Generic Desktop" -> "PageGenericDesktop".
func (p Page) Identifier() string {
	return "Page" + strcase.ToCamel(p.Name)
}

// Generate renders Go source defining every page's usages as named
// constants, plus an init() that registers them into hidusage's lookup
// tables (pkg/usbhid/hidusage/pages.go).
func Generate(pages []*Page) ([]byte, error) {
	sort.Slice(pages, func(i, j int) bool { return pages[i].ID < pages[j].ID })
	for _, p := range pages {
		sort.Slice(p.Usages, func(i, j int) bool { return p.Usages[i].ID < p.Usages[j].ID })
	}

	data := struct {
		Pages []*Page
	}{Pages: pages}

	var buf bytes.Buffer
	if err := tableTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render usage page table: %w", err)
	}
	return buf.Bytes(), nil
}
