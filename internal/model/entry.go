package model

import "time"

// RemoteEntry describes one node of the remote tree as returned by a
// listing or stat call. Entries are read-only; the engine only compares
// them, it never mutates them.
type RemoteEntry struct {
	Path    string
	Name    string
	Dir     bool
	Size    int64
	ModTime time.Time
	ETag    string
}
