package remote

import (
	"collsync/internal/model"
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Stat, List and Read when the remote
	// path does not exist.
	ErrNotFound = errors.New("remote path not found")

	// ErrExists is returned by Mkdir when the directory already exists.
	// Callers treat it as success; another actor creating the directory
	// between a stat and the create is a benign race.
	ErrExists = errors.New("remote directory already exists")
)

// Storage is the remote-storage capability the sync engine consumes.
// The transport behind it (WebDAV verbs, auth headers, XML parsing) is
// an implementation detail of the adapter.
type Storage interface {
	Stat(ctx context.Context, path string) (model.RemoteEntry, error)
	Mkdir(ctx context.Context, path string) error

	// List enumerates the full subtree under root, directories included.
	List(ctx context.Context, root string) ([]model.RemoteEntry, error)

	Read(ctx context.Context, path string) ([]byte, error)

	// Write stores content at path, creating or replacing the file.
	Write(ctx context.Context, path string, data []byte) error
}
