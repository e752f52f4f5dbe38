package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/store"
)

// Ledger is the base fungible-balance ledger: debit/credit primitives, the
// treasury mint, and the total-supply bookkeeping the conservation invariant
// is checked against. Higher-level pipeline semantics live in the transfer
// package.
type Ledger struct {
	treasury common.Address
}

// New creates a base ledger minting treasury shares to the given address.
func New(treasury common.Address) *Ledger {
	return &Ledger{treasury: treasury}
}

// Treasury returns the treasury address.
func (l *Ledger) Treasury() common.Address {
	return l.treasury
}

// BalanceOf returns a wallet's spendable balance.
func (l *Ledger) BalanceOf(ctx context.Context, st store.Store, wallet common.Address) (*uint256.Int, error) {
	return st.Balance(ctx, wallet)
}

// TotalSupply returns the total issued supply.
func (l *Ledger) TotalSupply(ctx context.Context, st store.Store) (*uint256.Int, error) {
	return st.TotalSupply(ctx)
}

// Move transfers amount from one wallet to another. It rejects a zero
// destination and fails with ErrInsufficientFunds when the source balance
// cannot cover the amount.
func (l *Ledger) Move(ctx context.Context, st store.Store, from, to common.Address, amount *uint256.Int) error {
	if to == domain.ZeroAddress {
		return domain.ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}

	fromBal, err := st.Balance(ctx, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return domain.ErrInsufficientFunds
	}

	toBal, err := st.Balance(ctx, to)
	if err != nil {
		return err
	}
	newToBal, err := domain.CheckedAdd(toBal, amount)
	if err != nil {
		return err
	}

	if err := st.SetBalance(ctx, from, fromBal.Sub(fromBal, amount)); err != nil {
		return err
	}
	return st.SetBalance(ctx, to, newToBal)
}

// Mint issues amount to a wallet and grows the total supply accordingly.
func (l *Ledger) Mint(ctx context.Context, st store.Store, to common.Address, amount *uint256.Int) error {
	if to == domain.ZeroAddress {
		return domain.ErrZeroAddress
	}
	if amount.IsZero() {
		return nil
	}

	supply, err := st.TotalSupply(ctx)
	if err != nil {
		return err
	}
	newSupply, err := domain.CheckedAdd(supply, amount)
	if err != nil {
		return err
	}

	bal, err := st.Balance(ctx, to)
	if err != nil {
		return err
	}
	newBal, err := domain.CheckedAdd(bal, amount)
	if err != nil {
		return err
	}

	if err := st.SetTotalSupply(ctx, newSupply); err != nil {
		return err
	}
	return st.SetBalance(ctx, to, newBal)
}

// MintTreasury issues amount directly to the treasury.
func (l *Ledger) MintTreasury(ctx context.Context, st store.Store, amount *uint256.Int) error {
	return l.Mint(ctx, st, l.treasury, amount)
}
