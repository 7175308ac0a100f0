// Package version turns the tags of a registry image into an ordered list of
// version records.
//
// Tags are parsed as strict Semantic Versioning 2.0.0 strings. Anything else
// (latest, stable, v1.2.3, 1.2) is not a release and is dropped. The
// remaining versions are sorted newest first and carry the image labels of
// their tag.
package version
