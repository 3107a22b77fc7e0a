package classpath

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// DirLocator loads classes from a directory tree laid out by package.
type DirLocator struct {
	fs billy.Filesystem
	// root is the host directory for locators created by NewOSDirLocator.
	root string
}

// NewDirLocator creates a locator over any billy filesystem, such as a
// memfs in tests.
func NewDirLocator(fsys billy.Filesystem) *DirLocator {
	return &DirLocator{fs: fsys}
}

// NewOSDirLocator creates a locator over a host directory.
func NewOSDirLocator(root string) *DirLocator {
	return &DirLocator{fs: osfs.New(root), root: root}
}

func (d *DirLocator) Open() error {
	if d.root == "" {
		return nil
	}
	info, err := os.Stat(d.root)
	if err != nil {
		return fmt.Errorf("dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("dir: %s is not a directory", d.root)
	}
	return nil
}

func (d *DirLocator) Close() error { return nil }

func (d *DirLocator) OpenResource(_, resourceName string) (io.ReadCloser, error) {
	f, err := d.fs.Open(resourceName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, notFound(d, resourceName)
		}
		return nil, fmt.Errorf("dir: opening %s: %w", resourceName, err)
	}
	return f, nil
}

func (d *DirLocator) String() string {
	if d.root != "" {
		return "dir:" + d.root
	}
	return "dir:" + d.fs.Root()
}
