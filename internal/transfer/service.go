package transfer

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/jessedh/t3-ledger/internal/adapter"
	"github.com/jessedh/t3-ledger/internal/credit"
	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/fee"
	"github.com/jessedh/t3-ledger/internal/ledger"
	"github.com/jessedh/t3-ledger/internal/logger"
	"github.com/jessedh/t3-ledger/internal/messaging"
	"github.com/jessedh/t3-ledger/internal/risk"
	"github.com/jessedh/t3-ledger/internal/store"
	"github.com/jessedh/t3-ledger/internal/window"
)

// Service is the transfer pipeline and its reversal/expiry state machine.
// Every mutating operation is serialized behind a single mutex and runs
// inside Store.Transact, so each call is applied atomically and in full
// before the next is admitted. Read-only probes take no lock.
type Service struct {
	mu sync.Mutex

	store     store.Store
	ledger    *ledger.Ledger
	fees      fee.Calculator
	scorer    *risk.Scorer
	credits   credit.Ledger
	windows   *window.Engine
	publisher messaging.Publisher
	clock     adapter.Clock
	params    domain.Params
}

// NewService creates the transfer service. Params are normalized, so zero
// values fall back to defaults.
func NewService(st store.Store, publisher messaging.Publisher, clock adapter.Clock, params domain.Params) *Service {
	params = params.Normalize()
	return &Service{
		store:     st,
		ledger:    ledger.New(params.Treasury),
		fees:      fee.NewCalculator(),
		scorer:    risk.NewScorer(params),
		credits:   credit.NewLedger(),
		windows:   window.NewEngine(params),
		publisher: publisher,
		clock:     clock,
		params:    params,
	}
}

// Params returns the normalized operational parameters.
func (s *Service) Params() domain.Params {
	return s.params
}

// TieredFee exposes the tiered fee calculator as a read-only probe. The
// returned value is the base fee before risk scaling, credit offset and
// clamping.
func (s *Service) TieredFee(amount *uint256.Int) (*uint256.Int, error) {
	return s.fees.Fee(amount)
}

// RiskFactor exposes a wallet's current risk factor as a read-only probe.
// A wallet without a profile scores baseline; the probe never creates one.
func (s *Service) RiskFactor(ctx context.Context, wallet common.Address) (uint64, error) {
	profile, err := s.store.RiskProfile(ctx, wallet)
	if err != nil {
		return 0, err
	}
	return s.scorer.Factor(profile, s.clock.Now()), nil
}

// AvailableCredits returns a wallet's current incentive-credit balance.
func (s *Service) AvailableCredits(ctx context.Context, wallet common.Address) (*uint256.Int, error) {
	return s.credits.Available(ctx, s.store, wallet)
}

// BalanceOf returns a wallet's spendable balance.
func (s *Service) BalanceOf(ctx context.Context, wallet common.Address) (*uint256.Int, error) {
	return s.ledger.BalanceOf(ctx, s.store, wallet)
}

// TotalSupply returns the total issued supply.
func (s *Service) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	return s.ledger.TotalSupply(ctx, s.store)
}

// FlagAbnormal increments a wallet's abnormal-transaction counter and
// returns the recomputed risk factor. Admin-gated at the API layer.
func (s *Service) FlagAbnormal(ctx context.Context, wallet common.Address) (uint64, error) {
	if wallet == domain.ZeroAddress {
		return 0, domain.ErrZeroAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var factor uint64
	err := s.store.Transact(ctx, func(st store.Store) error {
		profile, err := risk.EnsureProfile(ctx, st, wallet, now)
		if err != nil {
			return err
		}
		profile.AbnormalTxCount++
		if err := st.PutRiskProfile(ctx, profile); err != nil {
			return err
		}
		factor = s.scorer.Factor(profile, now)
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.publish(ctx, &domain.LedgerEvent{
		ID:         uuid.New(),
		Type:       domain.EventTypeRiskFactorUpdated,
		Timestamp:  now,
		Wallet:     &wallet,
		RiskFactor: factor,
	})
	return factor, nil
}

// Pause stops the ledger from accepting transfers.
func (s *Service) Pause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SetPaused(ctx, true)
}

// Unpause re-enables transfers.
func (s *Service) Unpause(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.SetPaused(ctx, false)
}

// Paused reports the pause switch state.
func (s *Service) Paused(ctx context.Context) (bool, error) {
	return s.store.Paused(ctx)
}

// Mint issues new supply to a wallet. Admin-gated at the API layer; used to
// seed balances.
func (s *Service) Mint(ctx context.Context, to common.Address, amount *uint256.Int) error {
	if to == domain.ZeroAddress {
		return domain.ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return domain.ErrZeroAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Transact(ctx, func(st store.Store) error {
		return s.ledger.Mint(ctx, st, to, amount)
	})
}

// publish sends an audit event. Events never affect the operation that
// produced them; a failed publish is logged and swallowed.
func (s *Service) publish(ctx context.Context, events ...*domain.LedgerEvent) {
	for _, event := range events {
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			logger.ErrorCtx(ctx, err, zap.String("event_type", string(event.Type)))
		}
	}
}
