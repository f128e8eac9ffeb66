package idhash

import (
	"crypto/sha256"

	"signal-arena/internal/domain"
)

// Commitment computes the one-way digest binding a prediction payload.
// Formula: SHA256(payload bytes)
func Commitment(data string) [domain.HashLen]byte {
	return sha256.Sum256([]byte(data))
}
