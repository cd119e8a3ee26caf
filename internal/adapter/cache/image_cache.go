package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"florify/internal/port"
)

// ErrNotCached marks a filename with no cached raster. The request was
// valid; the artifact just does not exist on disk.
var ErrNotCached = errors.New("image not cached")

// DirCache serves pre-rendered floorplan rasters from two flat directories,
// one per variant, keyed by filename.
type DirCache struct {
	root    string
	pattern string
}

// NewDirCache creates a cache accessor over root, which must contain the
// empty/ and filled/ variant directories.
func NewDirCache(root string) *DirCache {
	return &DirCache{root: root, pattern: "*.png"}
}

// Get returns the cached bytes and content type for a filename.
func (c *DirCache) Get(variant port.Variant, filename string) ([]byte, string, error) {
	// Filenames come from corpus records; keep path traversal out anyway.
	if filepath.Base(filename) != filename {
		return nil, "", fmt.Errorf("invalid cache filename: %s", filename)
	}

	path := filepath.Join(c.root, string(variant), filename)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrNotCached, filename)
		}
		return nil, "", fmt.Errorf("failed to read cached image %s: %w", filename, err)
	}

	return data, contentType(filename), nil
}

// List returns the cached filenames for a variant, sorted. A missing variant
// directory yields an empty list.
func (c *DirCache) List(variant port.Variant) ([]string, error) {
	dir := filepath.Join(c.root, string(variant))
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(dir, c.pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to list cache dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	sort.Strings(names)
	return names, nil
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
