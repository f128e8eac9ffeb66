package engine

import (
	"context"
	"fmt"

	"signal-arena/internal/domain"
	"signal-arena/internal/events"
	"signal-arena/internal/observability"
	"signal-arena/internal/storage"
)

// WithdrawTreasury moves amount from the treasury to the authority and
// returns the treasury balance left behind.
func (e *Engine) WithdrawTreasury(ctx context.Context, authority domain.Address, amount uint64) (uint64, error) {
	var remaining uint64
	err := e.atomic(ctx, "withdraw_treasury", func(ctx context.Context, tx storage.Tx, o *op) error {
		arena, err := e.authorize(ctx, tx, authority)
		if err != nil {
			return err
		}
		balance, err := tx.Balance(ctx, arena.Treasury)
		if err != nil {
			return fmt.Errorf("treasury balance: %w", err)
		}
		if amount > balance {
			return fmt.Errorf("%w: treasury holds %d, requested %d", ErrInsufficientFunds, balance, amount)
		}
		if err := transfer(ctx, tx, arena.Treasury, authority, amount); err != nil {
			return fmt.Errorf("withdraw: %w", err)
		}
		remaining = balance - amount

		o.onCommit(func() { observability.RecordTreasuryWithdrawal(amount) })
		o.emit(events.KindTreasuryWithdrawn, events.TreasuryWithdrawn{
			Authority: authority,
			Amount:    amount,
			Remaining: remaining,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	return remaining, nil
}
