package engine

import (
	"errors"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/scoring"
	"signal-arena/internal/storage"
)

// Precondition errors. Every operation fails with one of these before any
// state write or fund movement, and they are returned verbatim to callers.
var (
	ErrNameTooLong             = errors.New("agent name too long")
	ErrEndpointTooLong         = errors.New("agent endpoint too long")
	ErrInvalidPrizeSplit       = errors.New("prize pool bps above 10000")
	ErrSeasonNotActive         = errors.New("season not active")
	ErrSeasonEnded             = errors.New("season ended")
	ErrSeasonNotEnded          = errors.New("season not ended")
	ErrInvalidSeasonStatus     = errors.New("invalid season status")
	ErrInvalidPredictionStatus = errors.New("invalid prediction status")
	ErrHashMismatch            = errors.New("revealed data does not match commitment")
	ErrInsufficientFunds       = errors.New("insufficient funds")

	ErrUnauthorized          = errors.New("unauthorized")
	ErrAlreadyInitialized    = errors.New("arena already initialized")
	ErrNotInitialized        = errors.New("arena not initialized")
	ErrInvalidAddress        = domain.ErrInvalidAddress
	ErrAgentExists           = errors.New("agent already registered for owner")
	ErrAgentNotFound         = errors.New("agent not found")
	ErrSeasonNotFound        = errors.New("season not found")
	ErrPredictionNotFound    = errors.New("prediction not found")
	ErrAlreadyEntered        = errors.New("agent already entered season")
	ErrNotEntered            = errors.New("agent has not entered season")
	ErrPredictionDataTooLong = errors.New("prediction data too long")
	ErrInvalidAchievement    = errors.New("unknown achievement type")
	ErrArithmeticOverflow    = errors.New("arithmetic overflow")
	ErrInvalidPolicy         = errors.New("invalid settlement policy")
	ErrInvalidQuery          = errors.New("invalid agent query")
)

// rejections are the errors that mean "caller's request was refused", as
// opposed to a substrate or internal failure.
var rejections = []error{
	ErrNameTooLong, ErrEndpointTooLong, ErrInvalidPrizeSplit, ErrSeasonNotActive,
	ErrSeasonEnded, ErrSeasonNotEnded, ErrInvalidSeasonStatus, ErrInvalidPredictionStatus,
	ErrHashMismatch, ErrInsufficientFunds, ErrUnauthorized, ErrAlreadyInitialized,
	ErrNotInitialized, ErrInvalidAddress, ErrAgentExists, ErrAgentNotFound, ErrSeasonNotFound,
	ErrPredictionNotFound, ErrAlreadyEntered, ErrNotEntered, ErrPredictionDataTooLong,
	ErrInvalidAchievement, ErrArithmeticOverflow, ErrInvalidQuery,
}

// IsRejection reports whether err is a precondition failure rather than an
// internal one.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}

// overflow wraps a scoring error so callers can match ErrArithmeticOverflow.
func overflow(what string, err error) error {
	if errors.Is(err, scoring.ErrOverflow) {
		return fmt.Errorf("%w: %s", ErrArithmeticOverflow, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// notFound maps storage.ErrNotFound to the engine's sentinel for the record kind.
func notFound(err, sentinel error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return sentinel
	}
	return err
}
