// Package discovery finds module directories under a root and turns each one
// into a metadata.Descriptor. Every immediate, non-hidden subdirectory holding
// a readable metadata.json becomes a module; anything else is skipped, and a
// subdirectory whose metadata is missing or broken is reported and skipped
// without failing the run.
package discovery
