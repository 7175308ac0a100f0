package version

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Record is one resolved release of a module.
type Record struct {
	// Tag is the raw registry tag.
	Tag string `json:"tag"`
	// Version is the parsed form of Tag.
	Version *semver.Version `json:"-"`
	// Testing is true for prerelease versions.
	Testing bool `json:"testing"`
	// Labels are the image labels of the tag, empty when unknown.
	Labels map[string]string `json:"labels"`
}

// MarshalJSON renders nil labels as an empty object.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	if p.Labels == nil {
		p.Labels = map[string]string{}
	}
	return json.Marshal(p)
}

// UnmarshalJSON decodes a record and re-parses its tag.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Record(p)
	if r.Labels == nil {
		r.Labels = map[string]string{}
	}
	if v, err := ParseTag(r.Tag); err == nil {
		r.Version = v
	}
	return nil
}

// NewRecord builds the record for a parsed tag.
func NewRecord(tag string, v *semver.Version, labels map[string]string) Record {
	if labels == nil {
		labels = map[string]string{}
	}
	return Record{
		Tag:     tag,
		Version: v,
		Testing: v.Prerelease() != "",
		Labels:  labels,
	}
}

// ParseTag parses tag as a strict SemVer 2.0.0 version: all three numeric
// components, no "v" prefix.
func ParseTag(tag string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(tag)
	if err != nil {
		return nil, fmt.Errorf("parsing tag %q: %w", tag, err)
	}
	return v, nil
}

// Compare orders a before b when a is the newer release. Equal precedence
// (versions differing only in build metadata) falls back to the raw tag.
func Compare(a, b Record) int {
	if c := b.Version.Compare(a.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Tag, b.Tag)
}

// Sort orders records newest first and removes duplicate tags. Records
// without a parsed version are dropped.
func Sort(records []Record) []Record {
	out := make([]Record, 0, len(records))
	seen := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Version == nil || seen[r.Tag] {
			continue
		}
		seen[r.Tag] = true
		out = append(out, r)
	}
	slices.SortStableFunc(out, Compare)
	return out
}
