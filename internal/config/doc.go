// Package config loads repoindex settings. Values come, in increasing order of
// precedence, from built-in defaults, a YAML config file (.repoindex.yaml in
// the working directory or an explicit --config path), REPOINDEX_* environment
// variables, and command-line flags bound through viper.
package config
