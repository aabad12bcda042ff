package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linearmcp/linear-mcp/internal/appid"
	"github.com/linearmcp/linear-mcp/internal/server/handlers"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information. Use --extended for build, Gofulmen, Crucible and runtime details.",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		extended, _ := cmd.Flags().GetBool("extended")
		if !extended {
			_, err := fmt.Fprintf(out, "%s %s\n", appid.Get().BinaryName, versionInfo.Version)
			return err
		}

		data, err := json.MarshalIndent(handlers.CurrentVersion(), "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolP("extended", "e", false, "show extended version information")
}
