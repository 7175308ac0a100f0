package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modhub/repoindex/internal/branding"
	"github.com/modhub/repoindex/internal/inspect"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const fileType = "yaml"

// Settings is the effective configuration for one run.
type Settings struct {
	Root           string         `mapstructure:"root" yaml:"root"`
	Output         string         `mapstructure:"output" yaml:"output"`
	Inspector      string         `mapstructure:"inspector" yaml:"inspector"`
	Skopeo         SkopeoSettings `mapstructure:"skopeo" yaml:"skopeo"`
	TLSVerify      bool           `mapstructure:"tls-verify" yaml:"tls-verify"`
	PlainHTTP      bool           `mapstructure:"plain-http" yaml:"plain-http"`
	Timeout        time.Duration  `mapstructure:"timeout" yaml:"timeout"`
	Retries        int            `mapstructure:"retries" yaml:"retries"`
	Concurrency    int            `mapstructure:"concurrency" yaml:"concurrency"`
	TagConcurrency int            `mapstructure:"tag-concurrency" yaml:"tag-concurrency"`
	Assets         AssetSettings  `mapstructure:"assets" yaml:"assets"`
	DefaultsFile   string         `mapstructure:"defaults-file" yaml:"defaults-file"`
	Strict         bool           `mapstructure:"strict" yaml:"strict"`
	LogLevel       string         `mapstructure:"log-level" yaml:"log-level"`
	Indent         bool           `mapstructure:"indent" yaml:"indent"`
}

// SkopeoSettings configures the external skopeo inspector.
type SkopeoSettings struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// AssetSettings configures how logo and screenshot references are built.
type AssetSettings struct {
	BaseURL string `mapstructure:"base-url" yaml:"base-url"`
}

// flagKeys maps flag names that differ from their config key.
var flagKeys = map[string]string{
	"skopeo-path":    "skopeo.path",
	"asset-base-url": "assets.base-url",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", ".")
	v.SetDefault("output", "")
	v.SetDefault("inspector", inspect.KindSkopeo)
	v.SetDefault("skopeo.path", "skopeo")
	v.SetDefault("tls-verify", true)
	v.SetDefault("plain-http", false)
	v.SetDefault("timeout", 60*time.Second)
	v.SetDefault("retries", 2)
	v.SetDefault("concurrency", 1)
	v.SetDefault("tag-concurrency", 1)
	v.SetDefault("assets.base-url", "")
	v.SetDefault("defaults-file", "")
	v.SetDefault("strict", false)
	v.SetDefault("log-level", "info")
	v.SetDefault("indent", false)
}

// Options controls where Load reads from.
type Options struct {
	// File is an explicit config file path. When empty, the branding config
	// file in the working directory is read if it exists.
	File string
	// Flags are bound on top of file and environment values. Only flags
	// that map to a known key are bound.
	Flags *pflag.FlagSet
}

// Load builds the effective Settings from defaults, config file, environment
// and flags, then validates them.
func Load(opts Options) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(branding.EnvPrefix())
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, opts.File); err != nil {
		return nil, err
	}

	if opts.Flags != nil {
		var bindErr error
		opts.Flags.VisitAll(func(f *pflag.Flag) {
			key := f.Name
			if mapped, ok := flagKeys[key]; ok {
				key = mapped
			}
			if !isKnownKey(v, key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = fmt.Errorf("binding flag --%s: %w", f.Name, err)
			}
		})
		if bindErr != nil {
			return nil, bindErr
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func readConfigFile(v *viper.Viper, path string) error {
	v.SetConfigType(fileType)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
		return nil
	}

	local := branding.ConfigFile()
	if _, err := os.Stat(local); err != nil {
		return nil
	}
	v.SetConfigFile(local)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config file %s: %w", local, err)
	}
	return nil
}

func isKnownKey(v *viper.Viper, key string) bool {
	for _, k := range v.AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks value ranges and enumerations.
func (s *Settings) Validate() error {
	var errs []error
	switch s.Inspector {
	case inspect.KindSkopeo, inspect.KindOCI:
	default:
		errs = append(errs, fmt.Errorf("inspector must be %q or %q, got %q", inspect.KindSkopeo, inspect.KindOCI, s.Inspector))
	}
	if s.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", s.Timeout))
	}
	if s.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", s.Retries))
	}
	if s.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", s.Concurrency))
	}
	if s.TagConcurrency < 1 {
		errs = append(errs, fmt.Errorf("tag-concurrency must be at least 1, got %d", s.TagConcurrency))
	}
	switch strings.ToLower(s.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log-level must be one of debug, info, warn, error, got %q", s.LogLevel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// OutputPath returns the index document path, defaulting to the branding
// index file inside Root.
func (s *Settings) OutputPath() string {
	if s.Output != "" {
		return s.Output
	}
	return filepath.Join(s.Root, branding.IndexFile())
}

// YAML renders the settings for display.
func (s *Settings) YAML() ([]byte, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshaling settings: %w", err)
	}
	return out, nil
}
