package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modhub/repoindex/internal/branding"
	"github.com/modhub/repoindex/internal/config"
	"github.com/modhub/repoindex/internal/inspect"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configFile string

	// settings and logger are set before any command runs.
	settings *config.Settings
	logger   *log.Logger

	// fsys is the filesystem modules are read from and the index is
	// written to.
	fsys afero.Fs = afero.NewOsFs()
	// newInspector builds the registry inspector for a run.
	newInspector = inspect.New
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` builds the index of a module repository: it reads the
metadata of every module directory, lists the released versions of each
module image in its registry and writes the result as one JSON document.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		s, err := config.Load(config.Options{File: configFile, Flags: cmd.Flags()})
		if err != nil {
			return err
		}
		settings = s
		logger = newLogger(cmd, s.LogLevel)
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "Config file (default ./"+branding.ConfigFile()+" when present)")
	pf.String("log-level", "info", "Diagnostics level: debug, info, warn, error")
	pf.String("inspector", inspect.KindSkopeo, "Registry inspector: skopeo or oci")
	pf.String("skopeo-path", "skopeo", "Path of the skopeo binary")
	pf.Bool("tls-verify", true, "Verify registry TLS certificates")
	pf.Bool("plain-http", false, "Talk to the registry over plain HTTP (oci inspector)")
	pf.Duration("timeout", 60*time.Second, "Deadline of each registry inspection")
	pf.Int("retries", 2, "Retries of a failed registry inspection")
	pf.Int("tag-concurrency", 1, "Label fetches in flight per module")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		l := logger
		if l == nil {
			l = log.NewWithOptions(os.Stderr, log.Options{Prefix: branding.CLIName()})
		}
		l.Error(err)
	}
	return err
}

func newLogger(cmd *cobra.Command, level string) *log.Logger {
	l := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{Prefix: branding.CLIName()})
	if lvl, err := log.ParseLevel(strings.ToLower(level)); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

// inspector builds the configured inspector.
func inspector() inspect.Inspector {
	return newInspector(settings.Inspector, inspect.Options{
		SkopeoPath: settings.Skopeo.Path,
		TLSVerify:  settings.TLSVerify,
		PlainHTTP:  settings.PlainHTTP,
		Timeout:    settings.Timeout,
		Retries:    settings.Retries,
		Logger:     logger,
	})
}

// rootArg overrides the configured module root with the first argument.
func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return settings.Root
}
