// Package branding provides compile-time identity values for the CLI.
//
// The values live in branding.yaml next to this file and are baked into the
// binary with //go:embed, so a fork can rename the tool, its environment
// variable prefix and its default file names without touching Go code.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName      string `yaml:"cli_name"`
	DisplayName  string `yaml:"display_name"`
	Description  string `yaml:"description"`
	EnvPrefix    string `yaml:"env_prefix"`
	ConfigFile   string `yaml:"config_file"`
	IndexFile    string `yaml:"index_file"`
	MetadataFile string `yaml:"metadata_file"`
}

func load() {
	once.Do(func() {
		// Hard defaults in case the embedded file is missing or empty.
		defaults = brand{
			CLIName:      "repoindex",
			DisplayName:  "RepoIndex",
			Description:  "Build a version-resolved catalog of container-packaged modules",
			EnvPrefix:    "REPOINDEX",
			ConfigFile:   ".repoindex.yaml",
			IndexFile:    "repodata.json",
			MetadataFile: "metadata.json",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "repoindex").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// EnvPrefix returns the environment variable prefix (e.g., "REPOINDEX").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ConfigFile returns the config file name looked up in the working directory.
func ConfigFile() string { load(); return defaults.ConfigFile }

// IndexFile returns the default name of the generated index document.
func IndexFile() string { load(); return defaults.IndexFile }

// MetadataFile returns the per-module metadata file name.
func MetadataFile() string { load(); return defaults.MetadataFile }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("timeout") → "REPOINDEX_TIMEOUT".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(suffix, "-", "_"))
}
