package cmd

import (
	"collsync/internal/auth"
	"collsync/internal/daemon"
	"collsync/internal/logger"
	"collsync/internal/pipeline"
	"collsync/internal/remote"
	"collsync/internal/repository"
	"collsync/internal/syncer"
	"collsync/internal/vault"
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const saveDebounce = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sync daemon",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
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
	engine.Start()
	defer engine.Stop()

	var watcher *vault.Watcher
	if cfg.SyncOnSave {
		watcher, err = vault.NewWatcher(cfg.BufferSize)
		if err != nil {
			return err
		}

		if err := watcher.Watch(v.Root()); err != nil {
			return err
		}
		defer watcher.Stop()

		events := pipeline.Markdown(
			pipeline.Filter(
				pipeline.Debounce(watcher.Events(), saveDebounce),
				cfg.IgnoreList))

		go func() {
			for event := range events {
				if rel := v.Rel(event.Path); rel != "" {
					engine.OnFileChanged(rel)
				}
			}
		}()
	}

	srv := daemon.NewServer(engine, repo, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("collsync daemon started",
		zap.String("vault", v.Root()),
		zap.String("collective", cfg.CollectivePath),
		zap.Int("port", cfg.DaemonPort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

// buildStorage resolves credentials and constructs the remote handle.
// Missing credentials are not fatal here: the engine reports "not
// connected" until a login happens and the daemon restarts.
func buildStorage() remote.Storage {
	creds, err := auth.FromConfig(cfg)
	if err != nil {
		logger.Log.Warn("no usable credentials, sync disabled until login",
			zap.Error(err))
		return nil
	}

	store, err := remote.NewWebDAV(cfg.RemoteURL, creds)
	if err != nil {
		logger.Log.Warn("failed to build remote connection",
			zap.Error(err))
		return nil
	}

	return store
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
