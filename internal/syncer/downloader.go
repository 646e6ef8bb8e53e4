package syncer

import (
	"collsync/internal/logger"
	"collsync/internal/model"
	"collsync/internal/remote"
	"collsync/internal/vault"
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const markdownExt = ".md"

// Downloader reconciles the remote subtree against the vault: missing
// files are created, differing files overwritten, identical files left
// untouched so the save hook never sees a spurious modification.
type Downloader struct {
	store      remote.Storage
	vault      *vault.Vault
	localBase  string
	remoteRoot string
}

func NewDownloader(store remote.Storage, v *vault.Vault, localBase, remoteRoot string) *Downloader {
	return &Downloader{
		store:      store,
		vault:      v,
		localBase:  localBase,
		remoteRoot: NormalizeRoot(remoteRoot),
	}
}

// Run lists the full remote subtree and reconciles every markdown file.
// A missing collective root means the remote was never synced; that is
// zero files, not an error.
func (d *Downloader) Run(ctx context.Context) ([]model.SyncResult, error) {
	entries, err := d.store.List(ctx, d.remoteRoot)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			logger.Log.Info("collective root not found on remote, nothing to download",
				zap.String("root", d.remoteRoot))
			return nil, nil
		}

		return nil, fmt.Errorf("failed to list remote tree: %w", err)
	}

	var results []model.SyncResult
	for _, entry := range entries {
		if entry.Dir || !strings.HasSuffix(entry.Name, markdownExt) {
			continue
		}

		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := d.downloadOne(ctx, entry)
		if result.Err != nil {
			logger.Log.Error("download failed",
				zap.String("remote", entry.Path),
				zap.Error(result.Err))
		} else if result.Written {
			logger.Log.Debug("downloaded",
				zap.String("remote", entry.Path),
				zap.String("path", result.LocalPath))
		}

		results = append(results, result)
	}

	return results, nil
}

func (d *Downloader) downloadOne(ctx context.Context, entry model.RemoteEntry) model.SyncResult {
	result := model.SyncResult{
		Op:         model.OpDownload,
		RemotePath: entry.Path,
	}

	rel, err := RemoteToLocal(entry.Path, d.remoteRoot, d.localBase)
	if err != nil {
		result.Err = err
		return result
	}
	result.LocalPath = rel

	data, err := d.store.Read(ctx, entry.Path)
	if err != nil {
		result.Err = err
		return result
	}

	written, err := d.vault.WriteIfChanged(rel, data)
	if err != nil {
		result.Err = err
		return result
	}

	result.Written = written
	return result
}
