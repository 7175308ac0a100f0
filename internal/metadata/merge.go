package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNotObject is returned when metadata.json is valid JSON but not an object.
var ErrNotObject = errors.New("metadata is not a JSON object")

// KeyError reports a metadata key whose value has the wrong type. Merge
// keeps the base value for such a key, except source, which is cleared.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("metadata key %q: %v", e.Key, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// Merge overlays the top-level keys of a metadata.json document onto a copy
// of base. Each present key replaces the base value wholesale; nested
// objects are never merged field by field. The id is never overridden and
// the reserved "versions" key is ignored.
//
// Only a document that is not a JSON object is an error. Keys of the wrong
// type are reported as KeyErrors and leave the rest of the merge intact.
func Merge(base *Descriptor, data []byte) (*Descriptor, []*KeyError, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil, fmt.Errorf("parsing metadata: %w", err)
	}
	if fields == nil {
		return nil, nil, ErrNotObject
	}

	d := base.Clone()
	var keyErrs []*KeyError
	for key, raw := range fields {
		var err error
		switch key {
		case keyID, KeyVersions:
			continue
		case keyName:
			err = overlay(&d.Name, raw)
		case keyDescription:
			err = overlay(&d.Description, raw)
		case keyLogo:
			err = overlay(&d.Logo, raw)
		case keyScreenshots:
			err = overlay(&d.Screenshots, raw)
		case keyCategories:
			err = overlay(&d.Categories, raw)
		case keyAuthors:
			err = overlay(&d.Authors, raw)
		case keyDocs:
			err = overlay(&d.Docs, raw)
		case keySource:
			if err = overlay(&d.Source, raw); err != nil {
				d.Source = ""
			}
		default:
			if d.Extra == nil {
				d.Extra = make(map[string]json.RawMessage)
			}
			d.Extra[key] = raw
		}
		if err != nil {
			keyErrs = append(keyErrs, &KeyError{Key: key, Err: err})
		}
	}
	slices.SortFunc(keyErrs, func(a, b *KeyError) int {
		return strings.Compare(a.Key, b.Key)
	})
	return d, keyErrs, nil
}

// Load builds the descriptor for module id from its metadata.json contents.
func (t *Template) Load(id string, data []byte) (*Descriptor, []*KeyError, error) {
	return Merge(t.For(id), data)
}

// overlay replaces *dst with raw decoded into a zero value, so nothing from
// the base survives. On error *dst is left unchanged.
func overlay[T any](dst *T, raw json.RawMessage) error {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	*dst = v
	return nil
}

