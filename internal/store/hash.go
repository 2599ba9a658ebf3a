package store

import (
	"crypto/sha256"
	"encoding/hex"
)

const hashPrefix = "sha256:"

// HashContent computes the SHA-256 hash of data in "sha256:<hex>" form.
func HashContent(data []byte) string {
	h := sha256.Sum256(data)
	return hashPrefix + hex.EncodeToString(h[:])
}

// ShortHash returns the first n characters of the hex portion of a hash
// reference, for display.
func ShortHash(ref string, n int) string {
	if len(ref) <= len(hashPrefix) {
		return ref
	}
	hexStr := ref[len(hashPrefix):]
	if n > len(hexStr) {
		n = len(hexStr)
	}
	return hexStr[:n]
}
