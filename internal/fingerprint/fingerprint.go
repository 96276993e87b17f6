// Package fingerprint provides the stable content hashes and deterministic
// names every other stage of the packaging pipeline relies on.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// Bytes returns the lowercase hex SHA256 digest of data.
func Bytes(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// String hashes the UTF-8 bytes of s.
func String(s string) string {
	return Bytes([]byte(s))
}

// File streams the file at path through SHA256 and returns the digest and the
// number of bytes read.
func File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

var sanitizer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	".", "_",
	" ", "_",
)

// Sanitize lower-cases name and replaces path separators, dots and spaces
// with underscores. The result is safe as a bundle name on every platform.
func Sanitize(name string) string {
	return sanitizer.Replace(strings.ToLower(name))
}
