// Package render formats a repository index as Markdown for a README.
package render

import (
	_ "embed"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/modhub/repoindex/internal/catalog"
)

//go:embed modules.md.tmpl
var modulesTemplate string

var tmpl = template.Must(template.New("modules").Funcs(template.FuncMap{
	"cell": cell,
}).Parse(modulesTemplate))

// Options controls the optional parts of the Markdown section.
type Options struct {
	// BugTrackerTitle heads the bug tracker section; "Bug Tracker" when empty.
	BugTrackerTitle string
	// BugTrackerURL adds a bug tracker section linking here when set.
	BugTrackerURL string
	// LogoWidth is the width of logo images in pixels; 80 when zero.
	LogoWidth int
}

type row struct {
	Name        string
	Logo        string
	Description string
	CodeURL     string
}

type view struct {
	Options
	Rows []row
}

// Markdown writes the "Available Modules" table for modules, in order.
func Markdown(w io.Writer, modules []catalog.Module, opts Options) error {
	if opts.BugTrackerTitle == "" {
		opts.BugTrackerTitle = "Bug Tracker"
	}
	if opts.LogoWidth <= 0 {
		opts.LogoWidth = 80
	}

	v := view{Options: opts, Rows: make([]row, 0, len(modules))}
	for _, m := range modules {
		if m.Descriptor == nil {
			continue
		}
		r := row{
			Name:        m.Name,
			Description: m.DisplayDescription(),
			CodeURL:     m.Docs.CodeURL,
		}
		if m.Logo != nil {
			r.Logo = *m.Logo
		}
		v.Rows = append(v.Rows, r)
	}

	if err := tmpl.Execute(w, v); err != nil {
		return fmt.Errorf("rendering markdown: %w", err)
	}
	return nil
}

var cellReplacer = strings.NewReplacer(
	"|", `\|`,
	"\r\n", "<br>",
	"\n", "<br>",
	"\r", "<br>",
)

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	return cellReplacer.Replace(strings.TrimSpace(s))
}
