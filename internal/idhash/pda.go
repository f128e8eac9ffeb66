package idhash

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"signal-arena/internal/domain"
)

// pdaMarker is appended to every program-derived address preimage.
const pdaMarker = "ProgramDerivedAddress"

// Limits on seed material, matching the Solana runtime.
const (
	MaxSeeds   = 16
	MaxSeedLen = 32
)

var (
	// ErrMaxSeedLengthExceeded is returned for too many or too long seeds.
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	// ErrNoViableBump is returned when every bump lands on the curve.
	ErrNoViableBump = errors.New("unable to find a viable program address bump seed")

	errOnCurve = errors.New("invalid seeds, address must fall off the curve")
)

// CreateProgramAddress hashes seeds||programID||marker and rejects digests that
// decode to a valid ed25519 point, so no private key can sign for the result.
func CreateProgramAddress(seeds [][]byte, programID domain.Address) (domain.Address, error) {
	if len(seeds) > MaxSeeds {
		return domain.Address{}, ErrMaxSeedLengthExceeded
	}
	for _, s := range seeds {
		if len(s) > MaxSeedLen {
			return domain.Address{}, ErrMaxSeedLengthExceeded
		}
	}

	h := sha256.New()
	for _, s := range seeds {
		h.Write(s)
	}
	h.Write(programID[:])
	h.Write([]byte(pdaMarker))

	var addr domain.Address
	copy(addr[:], h.Sum(nil))

	if IsOnCurve(addr[:]) {
		return domain.Address{}, errOnCurve
	}
	return addr, nil
}

// FindProgramAddress searches bumps from 255 down and returns the first
// off-curve address with its bump.
func FindProgramAddress(seeds [][]byte, programID domain.Address) (domain.Address, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return domain.Address{}, 0, ErrMaxSeedLengthExceeded
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{byte(bump)}
		addr, err := CreateProgramAddress(withBump, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, errOnCurve) {
			return domain.Address{}, 0, fmt.Errorf("create program address: %w", err)
		}
	}
	return domain.Address{}, 0, ErrNoViableBump
}

// IsOnCurve reports whether b is a valid compressed ed25519 point.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}
