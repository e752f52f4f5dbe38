package store

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
)

// Store defines the interface for ledger persistence. Record getters return
// (nil, nil) when no record exists; balance-style getters return zero.
//
//go:generate mockgen -source=store.go -destination=../mocks/store.go -package=mocks -mock_names=Store=MockStore
type Store interface {
	// Transact runs fn against a transactional view of the store. If fn
	// returns an error, none of its writes are applied.
	Transact(ctx context.Context, fn func(Store) error) error

	// Balance retrieves a wallet's spendable balance (zero if absent)
	Balance(ctx context.Context, wallet common.Address) (*uint256.Int, error)
	// SetBalance stores a wallet's spendable balance
	SetBalance(ctx context.Context, wallet common.Address, amount *uint256.Int) error
	// TotalSupply retrieves the total issued supply
	TotalSupply(ctx context.Context) (*uint256.Int, error)
	// SetTotalSupply stores the total issued supply
	SetTotalSupply(ctx context.Context, supply *uint256.Int) error

	// Paused retrieves the pause switch state
	Paused(ctx context.Context) (bool, error)
	// SetPaused stores the pause switch state
	SetPaused(ctx context.Context, paused bool) error

	// TransferMetadata retrieves a wallet's reversal-window record
	TransferMetadata(ctx context.Context, wallet common.Address) (*domain.TransferMetadata, error)
	// PutTransferMetadata creates or overwrites a wallet's reversal-window record
	PutTransferMetadata(ctx context.Context, meta *domain.TransferMetadata) error
	// DeleteTransferMetadata removes a wallet's reversal-window record
	DeleteTransferMetadata(ctx context.Context, wallet common.Address) error
	// ListExpiredWindows returns wallets whose non-reversed window has elapsed
	ListExpiredWindows(ctx context.Context, now time.Time, limit int) ([]common.Address, error)

	// RiskProfile retrieves a wallet's risk profile
	RiskProfile(ctx context.Context, wallet common.Address) (*domain.RiskProfile, error)
	// PutRiskProfile creates or updates a wallet's risk profile
	PutRiskProfile(ctx context.Context, profile *domain.RiskProfile) error

	// Credits retrieves a wallet's incentive-credit balance
	Credits(ctx context.Context, wallet common.Address) (*domain.IncentiveCredits, error)
	// PutCredits creates or updates a wallet's incentive-credit balance
	PutCredits(ctx context.Context, credits *domain.IncentiveCredits) error

	// RollingAverage retrieves a wallet's inbound rolling average
	RollingAverage(ctx context.Context, wallet common.Address) (*domain.RollingAverage, error)
	// PutRollingAverage creates or updates a wallet's inbound rolling average
	PutRollingAverage(ctx context.Context, avg *domain.RollingAverage) error

	// PairCount retrieves the sender→recipient transfer counter
	PairCount(ctx context.Context, sender, recipient common.Address) (uint64, error)
	// SetPairCount stores the sender→recipient transfer counter
	SetPairCount(ctx context.Context, sender, recipient common.Address, count uint64) error

	// Liability retrieves the outstanding debtor→creditor liability (zero if absent)
	Liability(ctx context.Context, debtor, creditor common.Address) (*uint256.Int, error)
	// SetLiability stores the outstanding debtor→creditor liability
	SetLiability(ctx context.Context, debtor, creditor common.Address, amount *uint256.Int) error
}
