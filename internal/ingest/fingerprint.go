package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// hashBlockSize matches the streaming read size used when fingerprinting.
const hashBlockSize = 4096

// Fingerprint computes the hex SHA-256 of r, reading in fixed-size blocks so
// large documents never load fully into memory.
func Fingerprint(r io.Reader) (string, int64, error) {
	h := sha256.New()
	buf := make([]byte, hashBlockSize)
	var size int64
	for {
		n, err := r.Read(buf)
		if n > 0 {
			size += int64(n)
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", 0, fmt.Errorf("hash: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// FingerprintFile hashes the file at path.
func FingerprintFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	return Fingerprint(f)
}
