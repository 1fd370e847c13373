package checksum

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
)

const bufferSize = 64 * 1024 // 64KB buffer

// CalculateFileSHA256 calculates SHA-256 checksum of a file and returns base64 encoded string
func CalculateFileSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return CalculateSHA256(file)
}

// CalculateSHA256 calculates SHA-256 checksum from reader and returns base64 encoded string
func CalculateSHA256(r io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.CopyBuffer(hash, r, make([]byte, bufferSize)); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return base64.StdEncoding.EncodeToString(hash.Sum(nil)), nil
}

// SameContent reports whether two files hash to the same checksum
func SameContent(path1, path2 string) (bool, error) {
	checksum1, err := CalculateFileSHA256(path1)
	if err != nil {
		return false, err
	}
	checksum2, err := CalculateFileSHA256(path2)
	if err != nil {
		return false, err
	}
	return checksum1 == checksum2, nil
}
