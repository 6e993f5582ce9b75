package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/youruser/profileart/internal/util"
)

// Dir is a Bucket rooted at a local directory. A root that does not exist yet
// lists as empty.
type Dir struct {
	root string
}

// NewDir returns a Dir bucket rooted at root.
func NewDir(root string) *Dir {
	return &Dir{root: root}
}

func (d *Dir) Driver() Driver { return DriverFilesystem }

// Root returns the directory the bucket reads from.
func (d *Dir) Root() string { return d.root }

func (d *Dir) pathFor(key string) (string, error) {
	k, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(d.root, filepath.FromSlash(k)), nil
}

func (d *Dir) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (d *Dir) Read(ctx context.Context, key string) ([]byte, error) {
	p, err := d.pathFor(key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (d *Dir) Exists(ctx context.Context, key string) (bool, error) {
	p, err := d.pathFor(key)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (d *Dir) Write(ctx context.Context, key string, data []byte) error {
	p, err := d.pathFor(key)
	if err != nil {
		return err
	}
	return util.WriteFileAtomic(p, data)
}
