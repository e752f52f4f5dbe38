package transfer

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/risk"
	"github.com/jessedh/t3-ledger/internal/store"
)

// FinalizeExpiry processes a wallet's elapsed reversal window: one eighth of
// the fee charged is refunded as incentive credits to each of the originator
// and the wallet, both risk profiles get a successful-completion bump, and
// the record is deleted. Callable by anyone once the window has elapsed;
// reversed transfers forfeit the refund.
func (s *Service) FinalizeExpiry(ctx context.Context, wallet common.Address) error {
	if wallet == domain.ZeroAddress {
		return domain.ErrZeroAddress
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var (
		originator common.Address
		refund     *uint256.Int
	)
	err := s.store.Transact(ctx, func(st store.Store) error {
		meta, err := st.TransferMetadata(ctx, wallet)
		if err != nil {
			return err
		}
		if meta == nil {
			return domain.ErrNoActiveWindow
		}
		if meta.Reversed {
			return domain.ErrAlreadyReversed
		}
		if now.Before(meta.CommitWindowEnd) {
			return domain.ErrWindowNotExpired
		}

		originator = meta.Originator
		refund = new(uint256.Int).Div(meta.FeeCharged, uint256.NewInt(8))

		if !refund.IsZero() {
			if err := s.credits.Award(ctx, st, originator, refund, now); err != nil {
				return err
			}
			if err := s.credits.Award(ctx, st, wallet, refund, now); err != nil {
				return err
			}
		}

		if err := bumpCompletionProfiles(ctx, st, originator, wallet, now); err != nil {
			return err
		}

		return st.DeleteTransferMetadata(ctx, wallet)
	})
	if err != nil {
		return err
	}

	origCopy := originator
	walletCopy := wallet
	s.publish(ctx,
		&domain.LedgerEvent{
			ID:        uuid.New(),
			Type:      domain.EventTypeWindowExpired,
			Timestamp: now,
			Wallet:    &walletCopy,
		},
		&domain.LedgerEvent{
			ID:        uuid.New(),
			Type:      domain.EventTypeLoyaltyRefundProcessed,
			Timestamp: now,
			Wallet:    &origCopy,
			Refund:    domain.FormatAmount(refund),
		},
		&domain.LedgerEvent{
			ID:        uuid.New(),
			Type:      domain.EventTypeLoyaltyRefundProcessed,
			Timestamp: now,
			Wallet:    &walletCopy,
			Refund:    domain.FormatAmount(refund),
		},
	)
	return nil
}

// bumpCompletionProfiles rewards a non-reversed completion by working off
// one abnormal-transaction flag from each party, when any is outstanding.
func bumpCompletionProfiles(ctx context.Context, st store.Store, originator, wallet common.Address, now time.Time) error {
	for _, w := range []common.Address{originator, wallet} {
		profile, err := risk.EnsureProfile(ctx, st, w, now)
		if err != nil {
			return err
		}
		if profile.AbnormalTxCount == 0 {
			continue
		}
		profile.AbnormalTxCount--
		if err := st.PutRiskProfile(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}
