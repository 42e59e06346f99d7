package audit

import (
	"crypto/sha256"
	"encoding/hex"
)

// clientHashLen is the number of hex characters kept from the digest.
const clientHashLen = 16

// HashClient returns a short SHA-256 prefix of a client identifier, so
// records from one client can be correlated without storing its address.
func HashClient(identifier string) string {
	if identifier == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(identifier))
	return hex.EncodeToString(sum[:])[:clientHashLen]
}
