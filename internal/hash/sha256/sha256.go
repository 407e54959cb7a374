// Package sha256 provides salted SHA-256 digests used to pseudonymize visitor
// IP addresses before they are stored.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher produces hex SHA-256 digests, optionally salted.
type Hasher struct {
	salt []byte
}

// New returns an unsalted SHA-256 hasher.
func New() *Hasher {
	return &Hasher{}
}

// NewSalted returns a hasher that prefixes every input with salt.
func NewSalted(salt string) *Hasher {
	return &Hasher{salt: []byte(salt)}
}

// Hash hashes the input and returns a hex digest.
func (h *Hasher) Hash(data []byte) (string, error) {
	sum := sha256.New()
	sum.Write(h.salt)
	sum.Write(data)
	return hex.EncodeToString(sum.Sum(nil)), nil
}

// HashString hashes s. Empty input yields an empty digest so unknown
// addresses are stored as unknown.
func (h *Hasher) HashString(s string) string {
	if s == "" {
		return ""
	}
	out, _ := h.Hash([]byte(s))
	return out
}
