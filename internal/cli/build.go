package cli

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/modhub/repoindex/internal/assets"
	"github.com/modhub/repoindex/internal/branding"
	"github.com/modhub/repoindex/internal/catalog"
	"github.com/modhub/repoindex/internal/discovery"
	"github.com/modhub/repoindex/internal/metadata"
	"github.com/modhub/repoindex/internal/pipeline"
	"github.com/modhub/repoindex/internal/render"
	"github.com/modhub/repoindex/internal/version"
)

var (
	buildReadme   string
	buildBugURL   string
	buildBugTitle string
)

var buildCmd = &cobra.Command{
	Use:   "build [root]",
	Short: "Build the repository index",
	Long: `Discover the modules under root (default: the configured root), resolve the
versions of each module image and write the index document. Modules without
metadata are skipped and modules whose image cannot be inspected are listed
without versions; neither fails the build.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringP("output", "o", "", "Index file (default <root>/"+branding.IndexFile()+")")
	f.Int("concurrency", 1, "Modules resolved in parallel")
	f.String("asset-base-url", "", "Base URL of logo and screenshot references")
	f.String("defaults-file", "", "YAML or JSON file replacing the built-in module defaults")
	f.Bool("strict", false, "Skip modules whose metadata violates the schema")
	f.Bool("indent", false, "Pretty-print the index")
	f.StringVar(&buildReadme, "readme", "", "Append the module table as Markdown to this file")
	f.StringVar(&buildBugURL, "bug-url", "", "Bug tracker link for the Markdown section")
	f.StringVar(&buildBugTitle, "bug-title", "", "Bug tracker heading for the Markdown section")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	settings.Root = rootArg(args)

	disc, err := newDiscoverer()
	if err != nil {
		return err
	}
	driver := &pipeline.Driver{
		FS:          fsys,
		Discoverer:  disc,
		Resolver:    newResolver(),
		Logger:      logger,
		Concurrency: settings.Concurrency,
	}

	output := settings.OutputPath()
	idx, report, err := driver.Build(cmd.Context(), settings.Root, output, settings.Indent)
	if err != nil {
		return err
	}

	if buildReadme != "" {
		if err := appendMarkdown(buildReadme, idx.Modules()); err != nil {
			return err
		}
		logger.Info("module table appended", "path", buildReadme)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d modules into %s (%d skipped, %d without versions)\n",
		idx.Len(), output, report.Count(pipeline.KindSkipped), report.Count(pipeline.KindInspectionFailed))
	return nil
}

// newDiscoverer builds a Discoverer from the settings.
func newDiscoverer() (*discovery.Discoverer, error) {
	tmpl := metadata.DefaultTemplate()
	if settings.DefaultsFile != "" {
		data, err := afero.ReadFile(fsys, settings.DefaultsFile)
		if err != nil {
			return nil, fmt.Errorf("reading defaults file: %w", err)
		}
		if tmpl, err = metadata.ParseTemplate(data); err != nil {
			return nil, fmt.Errorf("%s: %w", settings.DefaultsFile, err)
		}
	}
	return discovery.New(fsys,
		discovery.WithTemplate(tmpl),
		discovery.WithAssets(assets.NewResolver(fsys, settings.Assets.BaseURL)),
		discovery.WithLogger(logger),
		discovery.WithStrict(settings.Strict),
	), nil
}

func newResolver() *version.Resolver {
	return version.New(inspector(),
		version.WithLogger(logger),
		version.WithTagConcurrency(settings.TagConcurrency),
	)
}

func appendMarkdown(path string, modules []catalog.Module) error {
	f, err := fsys.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	opts := render.Options{BugTrackerTitle: buildBugTitle, BugTrackerURL: buildBugURL}
	if err := render.Markdown(f, modules, opts); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
