package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const markdownExt = ".md"

// Vault is the local storage side of the sync: a directory tree of
// markdown files addressed by vault-relative slash paths.
type Vault struct {
	root   string
	ignore []string
}

func New(dir string, ignore []string) (*Vault, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid vault path: %w", err)
	}

	if _, err := os.Stat(absDir); err != nil {
		return nil, fmt.Errorf("vault directory not found: %w", err)
	}

	return &Vault{root: absDir, ignore: ignore}, nil
}

func (v *Vault) Root() string {
	return v.root
}

// Rel converts an absolute disk path to a vault-relative slash path, or
// "" when the path lies outside the vault.
func (v *Vault) Rel(absPath string) string {
	rel, err := filepath.Rel(v.root, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}

	return filepath.ToSlash(rel)
}

// ListMarkdown enumerates all markdown files under folder, given as a
// vault-relative path or "" for the whole vault, skipping ignored names.
func (v *Vault) ListMarkdown(folder string) ([]string, error) {
	start := v.root
	if folder != "" {
		start = filepath.Join(v.root, filepath.FromSlash(folder))
	}

	if _, err := os.Stat(start); os.IsNotExist(err) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(start, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if v.ignored(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), markdownExt) {
			return nil
		}

		files = append(files, v.Rel(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk vault: %w", err)
	}

	return files, nil
}

func (v *Vault) ignored(name string) bool {
	for _, pattern := range v.ignore {
		if matched, err := filepath.Match(pattern, name); err == nil && matched {
			return true
		}
	}

	return false
}

func (v *Vault) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(v.abs(rel))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	return data, nil
}

// WriteIfChanged writes content at rel only when it differs from what
// is already on disk, creating parent directories as needed. It reports
// whether a write happened so callers can suppress change notifications
// for their own writes.
func (v *Vault) WriteIfChanged(rel string, data []byte) (bool, error) {
	abs := v.abs(rel)

	if existing, err := os.ReadFile(abs); err == nil {
		if bytes.Equal(existing, data) {
			return false, nil
		}
	}

	if err := atomicWrite(abs, data); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", rel, err)
	}

	return true, nil
}

func (v *Vault) abs(rel string) string {
	return filepath.Join(v.root, filepath.FromSlash(rel))
}

func atomicWrite(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create parent dir: %w", err)
	}

	tmp := dst + ".collsync.tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to rename: %w", err)
	}

	return nil
}
