// Package storage abstracts where decoration assets and configs live. Keys are
// slash-separated paths relative to the bucket root, e.g. "default/mask.png".
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
)

// Driver identifies a Bucket backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
)

// Bucket is the minimal read/list/write surface the decoration engine needs.
// Read returns an error wrapping fs.ErrNotExist for missing keys.
type Bucket interface {
	// List returns the names of top-level directory-like entries.
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
	Write(ctx context.Context, key string, data []byte) error
	Driver() Driver
}

// Key joins path elements into a bucket key.
func Key(elem ...string) string {
	return path.Join(elem...)
}

// sanitizeKey rejects keys that would escape the bucket root.
func sanitizeKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("invalid absolute key %q", key)
	}
	clean := path.Clean(key)
	if clean == ".." || strings.HasPrefix(clean, "../") || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid key %q contains '..'", key)
	}
	return clean, nil
}
