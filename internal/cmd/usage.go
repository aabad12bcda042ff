package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/linearmcp/linear-mcp/internal/core"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/output"
	"github.com/linearmcp/linear-mcp/internal/server/handlers"
)

var usageHTTPClient = &http.Client{Timeout: 5 * time.Second}

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show rate governor usage",
	Long: `Show rate governor usage.

With --url the snapshot is read from a running server's status endpoint
(GET /v1/usage). Without it the configured limit and window are shown for an
idle governor.`,
	RunE: runUsage,
}

func runUsage(cmd *cobra.Command, args []string) error {
	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(outputFlag)
	if err != nil {
		return apperrors.NewInvalidInputError(err.Error())
	}

	var snapshot core.UsageMetrics
	if url, _ := cmd.Flags().GetString("url"); strings.TrimSpace(url) != "" {
		snapshot, err = fetchUsage(cmd, url)
		if err != nil {
			return err
		}
	} else {
		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			return err
		}
		snapshot = newLimiter(cfg.RateLimit).Metrics()
	}

	rendered, err := output.NewFormatter(format).FormatUsage(snapshot)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

func fetchUsage(cmd *cobra.Command, base string) (core.UsageMetrics, error) {
	endpoint := strings.TrimRight(strings.TrimSpace(base), "/")
	if !strings.HasSuffix(endpoint, "/v1/usage") {
		endpoint += "/v1/usage"
	}

	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
	if err != nil {
		return core.UsageMetrics{}, apperrors.NewInvalidInputError(fmt.Sprintf("invalid status url %q: %v", base, err))
	}
	resp, err := usageHTTPClient.Do(req)
	if err != nil {
		return core.UsageMetrics{}, apperrors.WrapExternalService(cmd.Context(), err, "status server unreachable: "+endpoint)
	}
	defer resp.Body.Close() // nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return core.UsageMetrics{}, apperrors.NewExternalServiceError(fmt.Sprintf("status server returned HTTP %d", resp.StatusCode))
	}

	var body handlers.UsageResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return core.UsageMetrics{}, apperrors.WrapExternalService(cmd.Context(), err, "decode usage response")
	}
	return body.APIMetrics, nil
}

func init() {
	rootCmd.AddCommand(usageCmd)

	usageCmd.Flags().StringP("output", "o", "table", "output format: table, json, yaml")
	usageCmd.Flags().String("url", "", "status server base URL, e.g. http://127.0.0.1:8765")
}
