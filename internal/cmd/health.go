package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/observability"
	"github.com/linearmcp/linear-mcp/internal/server/handlers"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe a running server's status endpoint",
	Long: `Probe GET /health on a running server's status endpoint and exit non-zero
unless it reports healthy or degraded. Suitable for container health checks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		base, _ := cmd.Flags().GetString("url")
		endpoint := strings.TrimRight(strings.TrimSpace(base), "/") + "/health"

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, endpoint, nil)
		if err != nil {
			return apperrors.NewInvalidInputError(fmt.Sprintf("invalid status url %q: %v", base, err))
		}
		resp, err := usageHTTPClient.Do(req)
		if err != nil {
			return apperrors.WrapExternalService(cmd.Context(), err, "status server unreachable: "+endpoint)
		}
		defer resp.Body.Close() // nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			return apperrors.NewExternalServiceError(fmt.Sprintf("health check failed: HTTP %d", resp.StatusCode))
		}

		var body handlers.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return apperrors.WrapExternalService(cmd.Context(), err, "decode health response")
		}
		if observability.CLILogger != nil {
			observability.CLILogger.Debug("Health checks", zap.Any("checks", body.Checks))
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (version %s)\n", body.Status, body.Version)
		return err
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().String("url", "http://127.0.0.1:8765", "status server base URL")
}
