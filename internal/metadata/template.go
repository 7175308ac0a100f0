package metadata

import (
	_ "embed"
	"fmt"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Template is the immutable default record. It is built once per run and
// hands out independent copies through For.
type Template struct {
	base Descriptor
}

// DefaultTemplate returns the built-in defaults.
func DefaultTemplate() *Template {
	t, err := ParseTemplate(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded defaults.yaml is invalid: %v", err))
	}
	return t
}

// ParseTemplate decodes a defaults document. YAML is accepted, and since
// YAML is a superset of JSON so is a JSON object.
func ParseTemplate(data []byte) (*Template, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parsing defaults: %w", err)
	}
	if d.Screenshots == nil {
		d.Screenshots = []string{}
	}
	return &Template{base: *d.Clone()}, nil
}

// For returns a fresh default record for the module id. The name and the
// English description are derived from the id.
func (t *Template) For(id string) *Descriptor {
	d := t.base.Clone()
	d.ID = id
	if d.Name == "" {
		d.Name = capitalize(id)
	}
	if d.Description == nil {
		d.Description = make(map[string]string, 1)
	}
	d.Description["en"] = "Auto-generated description for " + id
	return d
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}
