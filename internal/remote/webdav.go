package remote

import (
	"bytes"
	"collsync/internal/auth"
	"collsync/internal/model"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/studio-b12/gowebdav"
)

// WebDAV adapts a gowebdav client to the Storage capability. Instances
// are immutable; credential changes build a new adapter instead of
// mutating this one.
type WebDAV struct {
	client *gowebdav.Client
}

func NewWebDAV(baseURL string, creds auth.Credentials) (*WebDAV, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("remote url is empty")
	}

	client := gowebdav.NewClient(strings.TrimRight(baseURL, "/"), creds.Username, creds.Password)
	if creds.BearerToken != "" {
		client.SetHeader("Authorization", "Bearer "+creds.BearerToken)
	}

	return &WebDAV{client: client}, nil
}

func (w *WebDAV) Stat(ctx context.Context, remotePath string) (model.RemoteEntry, error) {
	info, err := w.client.Stat(remotePath)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return model.RemoteEntry{}, fmt.Errorf("%w: %s", ErrNotFound, remotePath)
		}

		return model.RemoteEntry{}, fmt.Errorf("failed to stat %s: %w", remotePath, err)
	}

	return toEntry(remotePath, info), nil
}

func (w *WebDAV) Mkdir(ctx context.Context, remotePath string) error {
	if err := w.client.Mkdir(remotePath, 0755); err != nil {
		// MKCOL on an existing collection answers 405.
		if gowebdav.IsErrCode(err, http.StatusMethodNotAllowed) {
			return fmt.Errorf("%w: %s", ErrExists, remotePath)
		}

		return fmt.Errorf("failed to create remote dir %s: %w", remotePath, err)
	}

	return nil
}

func (w *WebDAV) List(ctx context.Context, root string) ([]model.RemoteEntry, error) {
	var entries []model.RemoteEntry
	if err := w.walk(ctx, root, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

func (w *WebDAV) walk(ctx context.Context, dir string, entries *[]model.RemoteEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	infos, err := w.client.ReadDir(dir)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, dir)
		}

		return fmt.Errorf("failed to list remote dir %s: %w", dir, err)
	}

	for _, info := range infos {
		entry := toEntry(path.Join(dir, info.Name()), info)
		*entries = append(*entries, entry)

		if entry.Dir {
			if err := w.walk(ctx, entry.Path, entries); err != nil {
				// A subdirectory deleted mid-walk is not a missing root.
				if errors.Is(err, ErrNotFound) {
					continue
				}

				return err
			}
		}
	}

	return nil
}

func (w *WebDAV) Read(ctx context.Context, remotePath string) ([]byte, error) {
	r, err := w.client.ReadStream(remotePath)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, remotePath)
		}

		return nil, fmt.Errorf("failed to read %s: %w", remotePath, err)
	}

	defer func(r io.ReadCloser) {
		_ = r.Close()
	}(r)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", remotePath, err)
	}

	return data, nil
}

func (w *WebDAV) Write(ctx context.Context, remotePath string, data []byte) error {
	if err := w.client.WriteStream(remotePath, bytes.NewReader(data), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", remotePath, err)
	}

	return nil
}

func toEntry(remotePath string, info os.FileInfo) model.RemoteEntry {
	entry := model.RemoteEntry{
		Path:    remotePath,
		Name:    info.Name(),
		Dir:     info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}

	if f, ok := info.(gowebdav.File); ok {
		entry.ETag = f.ETag()
	}

	return entry
}
