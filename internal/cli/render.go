package cli

import (
	"github.com/spf13/cobra"

	"github.com/modhub/repoindex/internal/catalog"
	"github.com/modhub/repoindex/internal/render"
)

var (
	renderBugURL   string
	renderBugTitle string
)

var renderCmd = &cobra.Command{
	Use:   "render [index-file]",
	Short: "Print the module table of an index as Markdown",
	Long:  `Read an index document (default: the configured output) and print its module table as Markdown.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := settings.OutputPath()
		if len(args) > 0 {
			path = args[0]
		}
		idx, err := catalog.Read(fsys, path)
		if err != nil {
			return err
		}
		return render.Markdown(cmd.OutOrStdout(), idx.Modules(), render.Options{
			BugTrackerTitle: renderBugTitle,
			BugTrackerURL:   renderBugURL,
		})
	},
}

func init() {
	renderCmd.Flags().String("output", "", "Index file used when no argument is given")
	renderCmd.Flags().StringVar(&renderBugURL, "bug-url", "", "Bug tracker link")
	renderCmd.Flags().StringVar(&renderBugTitle, "bug-title", "", "Bug tracker heading")
	rootCmd.AddCommand(renderCmd)
}
