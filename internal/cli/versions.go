package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/modhub/repoindex/internal/version"
)

var versionsJSON bool

var versionsCmd = &cobra.Command{
	Use:   "versions <source>",
	Short: "Resolve the versions of one image",
	Long: `List the SemVer tags of an image reference, newest first, with the labels of
each tag. Tags that are not SemVer versions are left out.`,
	Args: cobra.ExactArgs(1),
	RunE: runVersions,
}

func init() {
	versionsCmd.Flags().BoolVar(&versionsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(cmd *cobra.Command, args []string) error {
	records, err := newResolver().Resolve(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if records == nil {
		records = []version.Record{}
	}

	if versionsJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No versions found for %s\n", args[0])
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TAG\tTESTING\tLABELS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%t\t%s\n", r.Tag, r.Testing, labelKeys(r.Labels))
	}
	return w.Flush()
}

func labelKeys(labels map[string]string) string {
	if len(labels) == 0 {
		return "-"
	}
	return strings.Join(slices.Sorted(maps.Keys(labels)), ",")
}
