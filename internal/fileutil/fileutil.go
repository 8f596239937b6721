package fileutil

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
)

const hashChunkSize = 64 * 1024

// ErrSameFile is returned by CopyFile when src and dst resolve to the same file.
var ErrSameFile = errors.New("source and destination are the same file")

// NewHash returns a hash for the named algorithm ("sha1" or "sha256").
func NewHash(algorithm string) (hash.Hash, error) {
	switch strings.ToLower(strings.TrimSpace(algorithm)) {
	case "sha1", "":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// HashFile returns the hex digest of the file at path.
func HashFile(path, algorithm string) (string, error) {
	h, err := NewHash(algorithm)
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Digest is HashFile with failures collapsed to the empty digest, which
// never matches another digest.
func Digest(path, algorithm string) string {
	sum, err := HashFile(path, algorithm)
	if err != nil {
		return ""
	}
	return sum
}

// CopyFile streams src to dst, truncating any existing dst. A dst that is
// the same file as src (hardlink or symlinked directory) is refused before
// it is opened. With preserveMetadata the source permission bits and
// modification time are applied to dst on a best-effort basis.
func CopyFile(src, dst string, preserveMetadata bool) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	if existing, err := os.Stat(dst); err == nil && os.SameFile(info, existing) {
		return fmt.Errorf("%w: %s", ErrSameFile, dst)
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if preserveMetadata {
		_ = os.Chmod(dst, info.Mode().Perm())
		_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
	return nil
}
