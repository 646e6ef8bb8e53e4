package cmd

import (
	"collsync/internal/logger"
	"collsync/internal/repository"
	"collsync/internal/syncer"
	"collsync/internal/vault"
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full sync pass and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		if err := cfg.Validate(); err != nil {
			return err
		}

		v, err := vault.New(cfg.VaultDir, cfg.IgnoreList)
		if err != nil {
			return err
		}

		store := buildStorage()
		repo := repository.NewHistoryRepository()
		engine := syncer.New(cfg, v, store, repo)

		logger.Log.Info("starting sync pass",
			zap.String("vault", v.Root()),
			zap.String("collective", cfg.CollectivePath))

		report, err := engine.RunOnce(context.Background())
		if err != nil {
			return err
		}

		fmt.Printf("done: %d uploaded, %d downloaded, %d unchanged, %d failed\n",
			report.Uploaded, report.Downloaded, report.Skipped, report.Failed)

		for _, path := range report.FailedPaths {
			fmt.Printf("  failed: %s\n", path)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
