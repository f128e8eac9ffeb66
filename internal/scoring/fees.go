package scoring

import (
	"errors"
	"fmt"

	"signal-arena/internal/domain"
)

// ErrInvalidBps is returned for basis points above 10000.
var ErrInvalidBps = errors.New("basis points above 10000")

// SplitEntryFee splits an entry fee into the platform fee and the prize
// contribution. Formula: platform = fee * (10000 - bps) / 10000 (truncating),
// prize = fee - platform, so the two always sum to the fee exactly.
func SplitEntryFee(entryFee uint64, prizePoolBps uint16) (platformFee, prizeContribution uint64, err error) {
	if prizePoolBps > domain.MaxBps {
		return 0, 0, fmt.Errorf("%w: %d", ErrInvalidBps, prizePoolBps)
	}

	platformFee, err = MulDiv(entryFee, uint64(domain.MaxBps-prizePoolBps), domain.MaxBps)
	if err != nil {
		return 0, 0, err
	}
	prizeContribution, err = Sub(entryFee, platformFee)
	if err != nil {
		return 0, 0, err
	}
	return platformFee, prizeContribution, nil
}
