package store

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	encodedPrefix = "b64_"
	hashedPrefix  = "sha_"
	fileExt       = ".jpg"

	// Most filesystems cap a name at 255 bytes.
	maxNameLen = 200
)

// Filename maps a source URL to its cache file name. The mapping is
// deterministic and path-safe. Short URLs are stored as URL-safe base64 and
// can be decoded back; longer ones fall back to a SHA-256 digest. The two
// forms carry distinct prefixes so they can never collide with each other.
func Filename(sourceURL string) string {
	name := encodedPrefix + base64.RawURLEncoding.EncodeToString([]byte(sourceURL)) + fileExt
	if len(name) <= maxNameLen {
		return name
	}
	sum := sha256.Sum256([]byte(sourceURL))
	return hashedPrefix + hex.EncodeToString(sum[:]) + fileExt
}

// DecodeFilename recovers the source URL from a name produced by Filename.
// It reports false for hashed names and for names it did not produce.
func DecodeFilename(name string) (string, bool) {
	if !strings.HasPrefix(name, encodedPrefix) || !strings.HasSuffix(name, fileExt) {
		return "", false
	}
	encoded := strings.TrimSuffix(strings.TrimPrefix(name, encodedPrefix), fileExt)
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// isEntryName reports whether a directory entry name belongs to the cache.
// Hidden files (including in-flight temp files) are never entries.
func isEntryName(name string) bool {
	return !strings.HasPrefix(name, ".")
}
