// Package catalog assembles resolved modules into the repository index
// document and reads and writes that document.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/modhub/repoindex/internal/metadata"
	"github.com/modhub/repoindex/internal/version"
)

// Module is one index entry: a descriptor plus its resolved versions.
type Module struct {
	*metadata.Descriptor
	Versions []version.Record
}

// MarshalJSON encodes the descriptor fields and "versions" as one object.
// A module without versions encodes "versions": [].
func (m Module) MarshalJSON() ([]byte, error) {
	if m.Descriptor == nil {
		return nil, errors.New("encoding module: nil descriptor")
	}
	fields, err := m.Fields()
	if err != nil {
		return nil, err
	}
	versions := m.Versions
	if versions == nil {
		versions = []version.Record{}
	}
	raw, err := json.Marshal(versions)
	if err != nil {
		return nil, fmt.Errorf("encoding versions of %s: %w", m.ID, err)
	}
	fields[metadata.KeyVersions] = raw
	return json.Marshal(fields)
}

// UnmarshalJSON decodes an entry written by MarshalJSON.
func (m *Module) UnmarshalJSON(data []byte) error {
	var d metadata.Descriptor
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	var v struct {
		Versions []version.Record `json:"versions"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.Descriptor = &d
	m.Versions = v.Versions
	if m.Versions == nil {
		m.Versions = []version.Record{}
	}
	return nil
}

// Index is the repository index document. It is immutable once assembled.
type Index struct {
	generatedAt time.Time
	modules     []Module
}

// Assemble builds an index stamped with now (in UTC) holding modules in the
// given order. Modules with no versions are kept.
func Assemble(now time.Time, modules []Module) *Index {
	return &Index{
		generatedAt: now.UTC().Truncate(time.Second),
		modules:     slices.Clone(modules),
	}
}

// GeneratedAt returns the index timestamp.
func (idx *Index) GeneratedAt() time.Time {
	return idx.generatedAt
}

// Modules returns a copy of the index entries.
func (idx *Index) Modules() []Module {
	return slices.Clone(idx.modules)
}

// Len returns the number of modules.
func (idx *Index) Len() int {
	return len(idx.modules)
}

type document struct {
	Timestamp string   `json:"timestamp"`
	Modules   []Module `json:"modules"`
}

// MarshalJSON encodes the index as {"timestamp": ..., "modules": [...]}.
func (idx *Index) MarshalJSON() ([]byte, error) {
	modules := idx.modules
	if modules == nil {
		modules = []Module{}
	}
	return json.Marshal(document{
		Timestamp: idx.generatedAt.Format(time.RFC3339),
		Modules:   modules,
	})
}

// UnmarshalJSON decodes an index document.
func (idx *Index) UnmarshalJSON(data []byte) error {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	ts, err := time.Parse(time.RFC3339, doc.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing index timestamp: %w", err)
	}
	idx.generatedAt = ts.UTC()
	idx.modules = doc.Modules
	return nil
}
