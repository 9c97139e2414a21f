package storage

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Mirror copies cached wallpapers to object storage. Evictions are not
// propagated: the bucket keeps every image ever downloaded.
type Mirror struct {
	storage ObjectStorage
	prefix  string
}

// NewMirror creates a mirror writing under prefix.
func NewMirror(storage ObjectStorage, prefix string) *Mirror {
	return &Mirror{
		storage: storage,
		prefix:  strings.Trim(prefix, "/"),
	}
}

// Key returns the object key for a cached file.
func (m *Mirror) Key(localPath string) string {
	return path.Join(m.prefix, filepath.Base(localPath))
}

// Copy uploads the file at localPath unless an object with the same key
// already exists. It returns the object URL.
func (m *Mirror) Copy(ctx context.Context, localPath string) (string, error) {
	key := m.Key(localPath)

	exists, err := m.storage.Exists(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to check mirror: %w", err)
	}
	if exists {
		return m.storage.GetURL(key), nil
	}

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open wallpaper: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat wallpaper: %w", err)
	}

	if err := m.storage.Upload(ctx, key, f, info.Size(), contentType(localPath)); err != nil {
		return "", err
	}
	return m.storage.GetURL(key), nil
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
