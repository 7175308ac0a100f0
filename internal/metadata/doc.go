// Package metadata models module descriptors. It owns the default record
// that every module starts from, the shallow top-level overlay of a module's
// metadata.json onto that record, and JSON Schema validation of the raw file.
//
// The overlay is shallow: a key present in metadata.json
// replaces the default value for that key wholesale. A partial "docs" object
// therefore drops the default documentation, bug and code URLs it does not
// mention.
package metadata
