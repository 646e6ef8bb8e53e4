package syncer

import (
	"bytes"
	"collsync/internal/logger"
	"collsync/internal/model"
	"collsync/internal/remote"
	"collsync/internal/vault"
	"context"
	"fmt"
	"path"

	"go.uber.org/zap"
)

// Uploader pushes local markdown files to their mapped remote paths.
// Overwrites are unconditional when content differs: last writer wins,
// no etag or mtime checks. Identical content is skipped so a pass with
// no changes performs no remote writes.
type Uploader struct {
	store      remote.Storage
	vault      *vault.Vault
	localBase  string
	remoteRoot string
	ensurer    *DirEnsurer
}

func NewUploader(store remote.Storage, v *vault.Vault, localBase, remoteRoot string) *Uploader {
	return &Uploader{
		store:      store,
		vault:      v,
		localBase:  localBase,
		remoteRoot: NormalizeRoot(remoteRoot),
		ensurer:    NewDirEnsurer(store),
	}
}

// Run uploads every tracked local markdown file sequentially. Per-file
// failures land in the results; only a failed local enumeration or a
// cancelled context aborts the phase.
func (u *Uploader) Run(ctx context.Context) ([]model.SyncResult, error) {
	files, err := u.vault.ListMarkdown(u.localBase)
	if err != nil {
		return nil, fmt.Errorf("failed to list local files: %w", err)
	}

	var results []model.SyncResult
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result := u.uploadOne(ctx, rel)
		if result.Err != nil {
			logger.Log.Error("upload failed",
				zap.String("path", rel),
				zap.Error(result.Err))
		} else if result.Written {
			logger.Log.Debug("uploaded",
				zap.String("path", rel),
				zap.String("remote", result.RemotePath))
		}

		results = append(results, result)
	}

	return results, nil
}

func (u *Uploader) uploadOne(ctx context.Context, rel string) model.SyncResult {
	remotePath := LocalToRemote(rel, u.localBase, u.remoteRoot)
	result := model.SyncResult{
		Op:         model.OpUpload,
		LocalPath:  rel,
		RemotePath: remotePath,
	}

	data, err := u.vault.Read(rel)
	if err != nil {
		result.Err = err
		return result
	}

	if existing, err := u.store.Read(ctx, remotePath); err == nil {
		if bytes.Equal(existing, data) {
			return result
		}
	}

	if err := u.ensurer.Ensure(ctx, path.Dir(remotePath)); err != nil {
		result.Err = err
		return result
	}

	if err := u.store.Write(ctx, remotePath, data); err != nil {
		result.Err = err
		return result
	}

	result.Written = true
	return result
}
