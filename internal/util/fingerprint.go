package util

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
)

// Fingerprint returns a SHA-256 hex digest of arbitrary bytes.
func Fingerprint(data []byte) string {
	s := sha256.Sum256(data)
	return hex.EncodeToString(s[:])
}

// FingerprintFile hashes a file's current content. A missing file hashes to
// the empty string so "file absent" never collides with any real content.
func FingerprintFile(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return Fingerprint(b)
}
