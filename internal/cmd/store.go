package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/linearmcp/linear-mcp/internal/core/store"
	apperrors "github.com/linearmcp/linear-mcp/internal/errors"
	"github.com/linearmcp/linear-mcp/internal/tools"
)

// cacheKeys are the resources the server caches.
var cacheKeys = []string{tools.ResourceOrganization, tools.ResourceTeams}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cmd.Context(), cfg.Store)
	if err != nil {
		return nil, apperrors.WrapDatabaseError(cmd.Context(), err, "open store")
	}
	if err := db.Migrate(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, apperrors.WrapDatabaseError(cmd.Context(), err, "migrate store")
	}
	return db, nil
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the organization/teams resource cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		purged, err := db.PurgeExpired(cmd.Context())
		if err != nil {
			return apperrors.WrapDatabaseError(cmd.Context(), err, "purge cache")
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired entries\n", purged)
		return err
	},
}

var cacheClearCmd = &cobra.Command{
	Use:       "clear [organization|teams]...",
	Short:     "Drop cached resources so the next read goes to Linear",
	ValidArgs: cacheKeys,
	Args:      cobra.OnlyValidArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck

		keys := args
		if len(keys) == 0 {
			keys = cacheKeys
		}
		if err := clearCache(cmd.Context(), db, keys); err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "cleared %d cache entries\n", len(keys))
		return err
	},
}

func clearCache(ctx context.Context, db *store.Store, keys []string) error {
	for _, key := range keys {
		if err := db.DeleteResource(ctx, key); err != nil {
			return apperrors.WrapDatabaseError(ctx, err, "clear cache entry "+key)
		}
	}
	return nil
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
