package syncer

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrOutsideRoot is returned when a remote path does not live under the
// configured collective root. Such entries are skipped instead of being
// mapped to a corrupt local path.
var ErrOutsideRoot = errors.New("remote path outside collective root")

// NormalizeRoot canonicalizes a collective path: leading slash, no
// trailing slash except for the root itself.
func NormalizeRoot(root string) string {
	root = strings.Trim(strings.TrimSpace(root), "/")
	if root == "" {
		return "/"
	}

	return "/" + root
}

// LocalToRemote maps a vault-relative local path onto the remote tree.
// localBase is the configured local folder ("" for the vault root); its
// prefix is stripped before the remainder is joined onto the collective
// root.
func LocalToRemote(localPath, localBase, remoteRoot string) string {
	rel := localPath
	if localBase != "" {
		rel = strings.TrimPrefix(rel, localBase)
	}
	rel = strings.TrimPrefix(rel, "/")

	root := NormalizeRoot(remoteRoot)
	if root == "/" {
		return "/" + rel
	}

	return root + "/" + rel
}

// RemoteToLocal maps an absolute remote path back to a vault-relative
// local path. The collective root must be an exact prefix of the remote
// path; anything else fails loudly rather than producing a malformed
// path.
func RemoteToLocal(remotePath, remoteRoot, localBase string) (string, error) {
	root := NormalizeRoot(remoteRoot)

	prefix := root
	if root != "/" {
		prefix = root + "/"
	}

	if !strings.HasPrefix(remotePath, prefix) {
		return "", fmt.Errorf("%w: %s is not under %s", ErrOutsideRoot, remotePath, root)
	}

	rel := strings.TrimPrefix(remotePath, prefix)
	if localBase == "" {
		return rel, nil
	}

	return path.Join(localBase, rel), nil
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}

	return strings.Split(p, "/")
}
