package crawler

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashContent returns the hex-encoded SHA3-256 digest of content.
// Run history stores it to tell whether a case page changed between runs.
func HashContent(content []byte) string {
	sum := sha3.Sum256(content)
	return hex.EncodeToString(sum[:])
}
