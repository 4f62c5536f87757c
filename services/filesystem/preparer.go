// Package filesystem prepares and purges the host directory tree that the
// service containers bind-mount.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrUnsafeRoot = errors.New("refusing to use config root")

const dirPerm = 0o755

// Preparer owns one config root and the relative directories beneath it.
type Preparer struct {
	Root string
	Dirs []string
}

func NewPreparer(root string, dirs []string) *Preparer {
	return &Preparer{Root: root, Dirs: dirs}
}

// Prepare creates the root and every directory beneath it. Existing
// directories are kept; a non-directory in the way is an error.
func (p *Preparer) Prepare() error {
	if err := checkRoot(p.Root); err != nil {
		return err
	}
	if err := ensureDir(p.Root); err != nil {
		return err
	}
	for _, d := range p.Dirs {
		if err := ensureDir(filepath.Join(p.Root, filepath.FromSlash(d))); err != nil {
			return err
		}
	}
	return nil
}

// Purge removes everything under the root but keeps the root itself. A
// missing root is not an error.
func (p *Preparer) Purge() error {
	if err := checkRoot(p.Root); err != nil {
		return err
	}
	entries, err := os.ReadDir(p.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config root %q: %w", p.Root, err)
	}
	for _, e := range entries {
		path := filepath.Join(p.Root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("purge %q: %w", path, err)
		}
	}
	return nil
}

// Paths returns the absolute directories Prepare creates, root excluded.
func (p *Preparer) Paths() []string {
	out := make([]string, 0, len(p.Dirs))
	for _, d := range p.Dirs {
		out = append(out, filepath.Join(p.Root, filepath.FromSlash(d)))
	}
	return out
}

func ensureDir(path string) error {
	fi, err := os.Stat(path)
	switch {
	case err == nil && fi.IsDir():
		return nil
	case err == nil:
		return fmt.Errorf("prepare %q: exists and is not a directory", path)
	case !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("stat %q: %w", path, err)
	}
	if err := os.MkdirAll(path, dirPerm); err != nil {
		return fmt.Errorf("create directory %q: %w", path, err)
	}
	return nil
}

// checkRoot rejects roots whose purge would wipe something unrelated.
func checkRoot(root string) error {
	if root == "" || !filepath.IsAbs(root) {
		return fmt.Errorf("%w %q: must be an absolute path", ErrUnsafeRoot, root)
	}
	clean := filepath.Clean(root)
	if clean == filepath.Dir(clean) {
		return fmt.Errorf("%w %q: filesystem root", ErrUnsafeRoot, root)
	}
	if home, err := os.UserHomeDir(); err == nil && clean == filepath.Clean(home) {
		return fmt.Errorf("%w %q: home directory", ErrUnsafeRoot, root)
	}
	return nil
}
