// Package pipeline runs a full catalog build: discover the modules under a
// root, resolve the versions of each one and assemble the index.
//
// Per-module problems never stop a build. A module whose metadata cannot be
// loaded is skipped, and a module whose image cannot be inspected is kept
// with an empty version list. Both are collected in the Report. Only an
// unreadable root or a canceled context fails the run.
package pipeline
