package engine

import (
	"context"
	"errors"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/storage"
)

// vault is an escrow account whose address is derived from the record it
// backs. Only the engine holds vault values, so only settlement code can
// release funds from one.
type vault struct {
	addr domain.Address
}

func (e *Engine) seasonVault(season domain.Address) vault {
	return vault{addr: e.ids.SeasonVault(season)}
}

func (e *Engine) predictionVault(prediction domain.Address) vault {
	return vault{addr: e.ids.PredictionVault(prediction)}
}

// deposit moves amount from a principal into the vault.
func (v vault) deposit(ctx context.Context, tx storage.BalanceTx, from domain.Address, amount uint64) error {
	return transfer(ctx, tx, from, v.addr, amount)
}

// release moves amount out of the vault to a recipient.
func (v vault) release(ctx context.Context, tx storage.BalanceTx, to domain.Address, amount uint64) error {
	return transfer(ctx, tx, v.addr, to, amount)
}

func (v vault) balance(ctx context.Context, tx storage.BalanceTx) (uint64, error) {
	return tx.Balance(ctx, v.addr)
}

// transfer moves funds and maps a short balance to ErrInsufficientFunds.
func transfer(ctx context.Context, tx storage.BalanceTx, from, to domain.Address, amount uint64) error {
	err := tx.Transfer(ctx, from, to, amount)
	if errors.Is(err, storage.ErrInsufficientBalance) {
		return fmt.Errorf("%w: %s holds less than %d", ErrInsufficientFunds, from, amount)
	}
	return err
}
