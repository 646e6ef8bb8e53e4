package syncer

import (
	"collsync/internal/model"
	"collsync/internal/vault"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDownloader(t *testing.T, fake *fakeRemote) (*Downloader, string) {
	t.Helper()

	dir := t.TempDir()
	v, err := vault.New(dir, nil)
	require.NoError(t, err)

	return NewDownloader(fake, v, "", "/Collectives"), dir
}

func TestDownloader(t *testing.T) {
	ctx := context.Background()

	t.Run("only markdown files are reconciled", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addFile("/Collectives/a.md", "A")
		fake.addFile("/Collectives/image.png", "binary")

		d, dir := newTestDownloader(t, fake)
		results, err := d.Run(ctx)
		require.NoError(t, err)

		require.Len(t, results, 1)
		assert.Equal(t, "A", readLocal(t, dir, "a.md"))
	})

	t.Run("directories are skipped", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addFile("/Collectives/sub/a.md", "A")

		d, _ := newTestDownloader(t, fake)
		results, err := d.Run(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "sub/a.md", results[0].LocalPath)
	})

	t.Run("identical content is a filesystem no-op", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addFile("/Collectives/a.md", "same")

		d, dir := newTestDownloader(t, fake)
		writeLocal(t, dir, "a.md", "same")

		results, err := d.Run(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Written)
	})

	t.Run("differing content is overwritten", func(t *testing.T) {
		fake := newFakeRemote()
		fake.addFile("/Collectives/a.md", "remote")

		d, dir := newTestDownloader(t, fake)
		writeLocal(t, dir, "a.md", "local")

		results, err := d.Run(ctx)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Written)
		assert.Equal(t, "remote", readLocal(t, dir, "a.md"))
	})

	t.Run("unmappable entry is a per-file failure", func(t *testing.T) {
		fake := newFakeRemote()
		d, _ := newTestDownloader(t, fake)

		result := d.downloadOne(ctx, model.RemoteEntry{
			Path: "/Elsewhere/x.md",
			Name: "x.md",
		})

		require.ErrorIs(t, result.Err, ErrOutsideRoot)
	})
}
