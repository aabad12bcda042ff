package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/linearmcp/linear-mcp/internal/core/query"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/observability"
	"github.com/linearmcp/linear-mcp/internal/output"
	"github.com/linearmcp/linear-mcp/internal/tools"
)

var queryCmd = &cobra.Command{
	Use:   "query [search text]",
	Short: "Compile a search query and show the Linear filter it produces",
	Long: `Compile a search-issues query and print the tokens and the IssueFilter it
produces. With --run the query is also executed against Linear through the
rate governor and the shaped issues are printed.`,
	Example: `  linear-mcp query 'assignee:@me priority:high'
  linear-mcp query --output json 'state:"In Progress" team:Mobile crash'
  linear-mcp query --run label:bug`,
	RunE: runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	raw := strings.Join(args, " ")

	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(outputFlag)
	if err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}
	formatter := output.NewFormatter(format)

	run, _ := cmd.Flags().GetBool("run")
	if !run {
		rendered, err := formatter.FormatQuery(raw, query.Compile(raw))
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	}

	cfg, err := loadConfig(cmd, map[string]string{"limit": "search.limit"})
	if err != nil {
		return err
	}
	cfg.Cache.Enabled = false

	rt, err := newAppRuntime(cmd.Context(), cfg, observability.CLILogger)
	if err != nil {
		return err
	}
	defer rt.Close() // nolint:errcheck

	compiled, issues, err := tools.Search(cmd.Context(), rt.client, raw, cfg.Search.Limit)
	if err != nil {
		return apperrors.Classify(cmd.Context(), err)
	}
	observability.CLILogger.Debug("Query executed",
		zap.Bool("my_issues", compiled.IsMyIssues),
		zap.Int("results", len(issues)))

	rendered, err := formatter.FormatIssues(output.ShapeIssues(issues))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().StringP("output", "o", "table", "output format: table, json, yaml")
	queryCmd.Flags().Bool("run", false, "execute the query against Linear")
	queryCmd.Flags().Int("limit", 50, "maximum issues returned with --run")
}
