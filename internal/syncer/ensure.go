package syncer

import (
	"collsync/internal/remote"
	"context"
	"errors"
	"fmt"
)

// DirEnsurer guarantees that every ancestor of a remote directory path
// exists, creating missing levels root-to-leaf. Already-ensured paths
// are cached for the lifetime of one pass, so repeated calls for
// siblings cost nothing.
type DirEnsurer struct {
	store   remote.Storage
	ensured map[string]bool
}

func NewDirEnsurer(store remote.Storage) *DirEnsurer {
	return &DirEnsurer{
		store:   store,
		ensured: make(map[string]bool),
	}
}

func (d *DirEnsurer) Ensure(ctx context.Context, dir string) error {
	cur := ""
	for _, part := range splitPath(dir) {
		cur = cur + "/" + part

		if d.ensured[cur] {
			continue
		}

		if err := d.ensureLevel(ctx, cur); err != nil {
			return err
		}

		d.ensured[cur] = true
	}

	return nil
}

func (d *DirEnsurer) ensureLevel(ctx context.Context, dir string) error {
	_, err := d.store.Stat(ctx, dir)
	if err == nil {
		return nil
	}

	if !errors.Is(err, remote.ErrNotFound) {
		return fmt.Errorf("failed to stat remote dir %s: %w", dir, err)
	}

	if err := d.store.Mkdir(ctx, dir); err != nil {
		// Another actor may create the directory between the stat and
		// the create; that is success, not failure.
		if errors.Is(err, remote.ErrExists) {
			return nil
		}

		return fmt.Errorf("failed to create remote dir %s: %w", dir, err)
	}

	return nil
}
