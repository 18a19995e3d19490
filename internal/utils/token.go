package utils // package utils provides helper functions for credentials and identifiers

import (
	"strings"

	"github.com/google/uuid"
)

// tokenKeyRounds controls how many 128-bit random values are concatenated
// into one opaque key. Two rounds yield 64 hex characters, which is enough
// to make guessing infeasible while keeping the key a single opaque blob
// with no separators that could leak word boundaries.
const tokenKeyRounds = 2

// NewTokenKey returns a fresh opaque bearer key. The key carries no
// decodable structure: it is random UUIDv4 material rendered as hex with
// the dashes stripped. Uniqueness is ultimately enforced by the database's
// unique index, not here.
func NewTokenKey() string {
	var b strings.Builder
	for i := 0; i < tokenKeyRounds; i++ {
		b.WriteString(strings.ReplaceAll(uuid.NewString(), "-", ""))
	}
	return b.String()
}
