// Package cli defines the Cobra command tree for the repoindex CLI. Each file
// in this package registers one top-level command (build, list, versions,
// etc.) with the root command. Command implementations delegate to internal
// packages for the work and only handle flags, settings and output.
package cli
