package ioutils

import (
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
)

// SHA1Bytes returns the lowercase hex SHA-1 digest of data.
//
// Game metadata addresses every downloadable file by SHA-1, so this is
// the integrity check for assets, libraries, and the client jar.
func SHA1Bytes(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// SHA1File returns the lowercase hex SHA-1 digest of the file at path.
//
// The file is streamed, not loaded into memory, so it is safe for the
// multi-hundred-megabyte client jar.
func SHA1File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// FileMatchesSHA1 reports whether the file at path exists and hashes to
// want.
//
// A missing file is simply a non-match, not an error; any other read
// failure is surfaced so callers can distinguish "needs download" from
// "disk is broken".
func FileMatchesSHA1(path, want string) (bool, error) {
	digest, err := SHA1File(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return digest == want, nil
}

// ValidSHA1 reports whether s is a well-formed hex SHA-1 digest.
//
// Remote metadata supplies the hashes that address every downloadable
// file; callers must reject malformed ones instead of slicing them.
func ValidSHA1(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

// WriteFile writes data to a file, creating parent directories as needed.
//
// The file is created with mode 0644 and truncated if it already exists.
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EnsureDir creates a directory and all parent directories if they don't
// exist.
//
// Directories are created with mode 0755 (rwxr-xr-x). If the directory
// already exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
