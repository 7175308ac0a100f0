package metadata

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Descriptor is the catalog record for one module directory.
type Descriptor struct {
	ID          string            `json:"id" yaml:"-"`
	Name        string            `json:"name" yaml:"name"`
	Description map[string]string `json:"description" yaml:"description"`
	Logo        *string           `json:"logo" yaml:"logo"`
	Screenshots []string          `json:"screenshots" yaml:"screenshots"`
	Categories  []string          `json:"categories" yaml:"categories"`
	Authors     []Author          `json:"authors" yaml:"authors"`
	Docs        Docs              `json:"docs" yaml:"docs"`
	Source      string            `json:"source,omitempty" yaml:"source"`

	// Extra holds top-level metadata.json keys the catalog does not model.
	// They are carried through to the index untouched.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

// Author identifies a module maintainer.
type Author struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email,omitempty" yaml:"email"`

	// Extra holds author keys other than name and email.
	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

var authorKeys = map[string]bool{"name": true, "email": true}

// MarshalJSON encodes the author with its extra keys.
func (a Author) MarshalJSON() ([]byte, error) {
	type plain Author
	return marshalWithExtra(plain(a), a.Extra)
}

// UnmarshalJSON decodes an author, keeping unknown keys in Extra.
func (a *Author) UnmarshalJSON(data []byte) error {
	type plain Author
	var p plain
	extra, err := unmarshalWithExtra(data, &p, authorKeys)
	if err != nil {
		return err
	}
	*a = Author(p)
	a.Extra = extra
	return nil
}

// Docs holds the documentation links. Links beyond the three known ones are
// kept in Extra.
type Docs struct {
	DocumentationURL string `json:"documentation_url,omitempty" yaml:"documentation_url"`
	BugURL           string `json:"bug_url,omitempty" yaml:"bug_url"`
	CodeURL          string `json:"code_url,omitempty" yaml:"code_url"`

	Extra map[string]json.RawMessage `json:"-" yaml:"-"`
}

var docsKeys = map[string]bool{"documentation_url": true, "bug_url": true, "code_url": true}

// MarshalJSON encodes the links with their extra keys.
func (d Docs) MarshalJSON() ([]byte, error) {
	type plain Docs
	return marshalWithExtra(plain(d), d.Extra)
}

// UnmarshalJSON decodes the links, keeping unknown keys in Extra.
func (d *Docs) UnmarshalJSON(data []byte) error {
	type plain Docs
	var p plain
	extra, err := unmarshalWithExtra(data, &p, docsKeys)
	if err != nil {
		return err
	}
	*d = Docs(p)
	d.Extra = extra
	return nil
}

// marshalWithExtra encodes v and adds the extra keys it does not set.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

// unmarshalWithExtra decodes data into v and returns the keys not in known.
func unmarshalWithExtra(data []byte, v any, known map[string]bool) (map[string]json.RawMessage, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	var extra map[string]json.RawMessage
	for k, raw := range fields {
		if known[k] {
			continue
		}
		if extra == nil {
			extra = make(map[string]json.RawMessage)
		}
		extra[k] = raw
	}
	return extra, nil
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	c := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		c[k] = slices.Clone(v)
	}
	return c
}

// Keys with a dedicated Descriptor field.
const (
	keyID          = "id"
	keyName        = "name"
	keyDescription = "description"
	keyLogo        = "logo"
	keyScreenshots = "screenshots"
	keyCategories  = "categories"
	keyAuthors     = "authors"
	keyDocs        = "docs"
	keySource      = "source"
)

// KeyVersions is filled by the version resolver and never read from
// metadata.json.
const KeyVersions = "versions"

var modeledKeys = map[string]bool{
	keyID: true, keyName: true, keyDescription: true, keyLogo: true,
	keyScreenshots: true, keyCategories: true, keyAuthors: true,
	keyDocs: true, keySource: true, KeyVersions: true,
}

// Clone returns a deep copy so callers can mutate it without touching d.
func (d *Descriptor) Clone() *Descriptor {
	c := *d
	c.Description = maps.Clone(d.Description)
	if d.Logo != nil {
		logo := *d.Logo
		c.Logo = &logo
	}
	c.Screenshots = slices.Clone(d.Screenshots)
	c.Categories = slices.Clone(d.Categories)
	c.Authors = slices.Clone(d.Authors)
	for i := range c.Authors {
		c.Authors[i].Extra = cloneRaw(d.Authors[i].Extra)
	}
	c.Docs.Extra = cloneRaw(d.Docs.Extra)
	c.Extra = cloneRaw(d.Extra)
	return &c
}

// DisplayDescription returns the English description, or any other
// language when no English entry exists.
func (d *Descriptor) DisplayDescription() string {
	if en, ok := d.Description["en"]; ok {
		return en
	}
	if langs := slices.Sorted(maps.Keys(d.Description)); len(langs) > 0 {
		return d.Description[langs[0]]
	}
	return ""
}

// Fields returns the descriptor as a map of top-level JSON values,
// including Extra keys. Encoding the map yields keys in sorted order.
func (d *Descriptor) Fields() (map[string]json.RawMessage, error) {
	type plain Descriptor
	data, err := json.Marshal((*plain)(d))
	if err != nil {
		return nil, fmt.Errorf("encoding module %s: %w", d.ID, err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("encoding module %s: %w", d.ID, err)
	}
	for k, v := range d.Extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return fields, nil
}

// MarshalJSON encodes modeled fields and Extra keys as one object.
func (d *Descriptor) MarshalJSON() ([]byte, error) {
	fields, err := d.Fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes a descriptor previously written by MarshalJSON.
// Unmodeled keys land in Extra; the reserved "versions" key is dropped.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	type plain Descriptor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*d = Descriptor(p)
	d.Extra = nil
	for k, v := range fields {
		if modeledKeys[k] {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]json.RawMessage)
		}
		d.Extra[k] = v
	}
	return nil
}
