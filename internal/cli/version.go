package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/modhub/repoindex/internal/branding"
)

var (
	versionShort bool
	versionJSON  bool
)

// buildInfo describes the running binary.
type buildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func (b buildInfo) String() string {
	return fmt.Sprintf("%s version %s (commit: %s, built: %s)", branding.CLIName(), b.Version, b.Commit, b.Date)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the repoindex build",
	Long:  `Show the release, commit and build date stamped into this binary.`,
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Only the release number")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Build info as a JSON object")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := buildInfo{Version: buildVersion, Commit: buildCommit, Date: buildDate}

	var line any = info
	switch {
	case versionShort:
		line = info.Version
	case versionJSON:
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding build info: %w", err)
		}
		line = string(data)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), line)
	return err
}
