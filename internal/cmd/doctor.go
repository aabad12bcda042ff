package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/linearmcp/linear-mcp/internal/config"
	"github.com/linearmcp/linear-mcp/internal/core"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/observability"
)

const (
	checkPass = "ok"
	checkWarn = "warn"
	checkFail = "fail"
)

type doctorCheck struct {
	Name   string
	Status string
	Detail string
}

// doctorUpstream is the part of the Linear client doctor needs.
type doctorUpstream interface {
	Viewer(ctx context.Context) (*core.User, error)
	Organization(ctx context.Context) (*core.Organization, error)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks: configuration, credential, cache store and Linear
connectivity. Connectivity checks spend two requests of the rate budget.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		offline, _ := cmd.Flags().GetBool("offline")

		checks := []doctorCheck{
			{Name: "Go runtime", Status: checkPass, Detail: runtime.Version()},
		}
		if v := crucible.GetVersion(); v.Gofulmen != "" {
			checks = append(checks, doctorCheck{Name: "Gofulmen", Status: checkPass, Detail: v.Gofulmen})
		}

		cfg, err := loadConfig(cmd, nil)
		if err != nil {
			checks = append(checks, doctorCheck{Name: "Configuration", Status: checkFail, Detail: err.Error()})
			return finishDoctor(cmd, checks)
		}
		checks = append(checks, doctorCheck{Name: "Configuration", Status: checkPass, Detail: configSource()})

		rt, err := newAppRuntime(ctx, cfg, observability.CLILogger)
		if err != nil {
			checks = append(checks, doctorCheck{Name: "Linear API key", Status: checkFail, Detail: apperrors.ToolMessage(apperrors.Classify(ctx, err))})
			return finishDoctor(cmd, checks)
		}
		defer rt.Close() // nolint:errcheck

		checks = append(checks, doctorCheck{Name: "Linear API key", Status: checkPass, Detail: "set"})
		checks = append(checks, storeCheck(cfg, rt))

		if !offline {
			checks = append(checks, upstreamChecks(ctx, rt.client)...)
		}

		usage := rt.limiter.Metrics()
		checks = append(checks, doctorCheck{
			Name:   "Rate budget",
			Status: checkPass,
			Detail: fmt.Sprintf("%d of %d left this window", usage.RemainingRequests, usage.Limit),
		})

		return finishDoctor(cmd, checks)
	},
}

func configSource() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath() + " (if present)"
}

func storeCheck(cfg *config.Config, rt *appRuntime) doctorCheck {
	switch {
	case !cfg.Cache.Enabled:
		return doctorCheck{Name: "Resource cache", Status: checkPass, Detail: "disabled"}
	case rt.store == nil:
		return doctorCheck{Name: "Resource cache", Status: checkWarn, Detail: "store unavailable, serving uncached"}
	case cfg.Store.URL != "":
		return doctorCheck{Name: "Resource cache", Status: checkPass, Detail: "remote libsql"}
	default:
		return doctorCheck{Name: "Resource cache", Status: checkPass, Detail: cfg.Store.Path}
	}
}

func upstreamChecks(ctx context.Context, client doctorUpstream) []doctorCheck {
	var checks []doctorCheck

	viewer, err := client.Viewer(ctx)
	if err != nil {
		return append(checks, doctorCheck{Name: "Linear viewer", Status: checkFail, Detail: err.Error()})
	}
	name := viewer.Name
	if viewer.Email != "" {
		name = fmt.Sprintf("%s <%s>", viewer.Name, viewer.Email)
	}
	checks = append(checks, doctorCheck{Name: "Linear viewer", Status: checkPass, Detail: name})

	org, err := client.Organization(ctx)
	if err != nil {
		return append(checks, doctorCheck{Name: "Linear organization", Status: checkFail, Detail: err.Error()})
	}
	return append(checks, doctorCheck{Name: "Linear organization", Status: checkPass, Detail: fmt.Sprintf("%s (%s)", org.Name, org.URLKey)})
}

func renderDoctor(checks []doctorCheck) (string, bool) {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Check", "Status", "Detail"})

	healthy := true
	for _, check := range checks {
		if check.Status == checkFail {
			healthy = false
		}
		t.AppendRow(table.Row{check.Name, check.Status, check.Detail})
	}
	return t.Render(), healthy
}

func finishDoctor(cmd *cobra.Command, checks []doctorCheck) error {
	rendered, healthy := renderDoctor(checks)
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), rendered); err != nil {
		return err
	}
	if !healthy {
		return apperrors.NewExternalServiceError("one or more diagnostic checks failed")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().Bool("offline", false, "skip checks that call Linear")
}
