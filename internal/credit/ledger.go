package credit

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/store"
)

// Ledger manages the per-wallet incentive-credit sub-ledger. Consume is the
// only flow that decreases a credit balance; awards come from fee
// distribution and loyalty refunds.
type Ledger struct{}

// NewLedger creates an incentive-credit ledger.
func NewLedger() Ledger {
	return Ledger{}
}

// Consume offsets fee with the wallet's credits and returns the remaining
// cash fee. Credits are debited by the offset amount; a zero balance leaves
// the fee unchanged.
func (Ledger) Consume(ctx context.Context, st store.Store, wallet common.Address, fee *uint256.Int, now time.Time) (*uint256.Int, error) {
	if fee.IsZero() {
		return fee.Clone(), nil
	}

	credits, err := st.Credits(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if credits == nil || credits.Amount.IsZero() {
		return fee.Clone(), nil
	}

	remaining := uint256.NewInt(0)
	if credits.Amount.Lt(fee) {
		remaining.Sub(fee, credits.Amount)
		credits.Amount = uint256.NewInt(0)
	} else {
		credits.Amount.Sub(credits.Amount, fee)
	}
	credits.LastUpdated = now

	if err := st.PutCredits(ctx, credits); err != nil {
		return nil, err
	}
	return remaining, nil
}

// Award adds amount to the wallet's credit balance, creating the record on
// first award.
func (Ledger) Award(ctx context.Context, st store.Store, wallet common.Address, amount *uint256.Int, now time.Time) error {
	if amount.IsZero() {
		return nil
	}

	credits, err := st.Credits(ctx, wallet)
	if err != nil {
		return err
	}
	if credits == nil {
		credits = &domain.IncentiveCredits{
			Wallet: wallet,
			Amount: uint256.NewInt(0),
		}
	}

	credits.Amount, err = domain.CheckedAdd(credits.Amount, amount)
	if err != nil {
		return err
	}
	credits.LastUpdated = now

	return st.PutCredits(ctx, credits)
}

// Available returns the wallet's current spendable credit balance.
func (Ledger) Available(ctx context.Context, st store.Store, wallet common.Address) (*uint256.Int, error) {
	credits, err := st.Credits(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if credits == nil {
		return uint256.NewInt(0), nil
	}
	return credits.Amount.Clone(), nil
}
