package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/modhub/repoindex/internal/metadata"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list [root]",
	Short: "List the modules under root",
	Long:  `List the module directories that would be indexed, without contacting any registry.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runList,
}

func init() {
	f := listCmd.Flags()
	f.String("asset-base-url", "", "Base URL of logo and screenshot references")
	f.String("defaults-file", "", "YAML or JSON file replacing the built-in module defaults")
	f.Bool("strict", false, "Skip modules whose metadata violates the schema")
	f.BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	settings.Root = rootArg(args)

	disc, err := newDiscoverer()
	if err != nil {
		return err
	}
	descs, err := disc.DiscoverAll(settings.Root)
	if err != nil {
		return err
	}
	if descs == nil {
		descs = []*metadata.Descriptor{}
	}

	if listJSON {
		return printListJSON(cmd, descs)
	}
	if len(descs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No modules found.")
		return nil
	}
	return printListTable(cmd, descs)
}

func printListTable(cmd *cobra.Command, descs []*metadata.Descriptor) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSOURCE\tCATEGORIES")
	for _, d := range descs {
		source := d.Source
		if source == "" {
			source = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ID, d.Name, source, strings.Join(d.Categories, ","))
	}
	return w.Flush()
}

func printListJSON(cmd *cobra.Command, descs []*metadata.Descriptor) error {
	data, err := json.MarshalIndent(descs, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
