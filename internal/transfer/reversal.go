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

// Reverse returns funds from their current holder back to the originator of
// the holder's live reversal window. The caller-identity check (only `from`
// itself may reverse) is enforced at the API layer; everything else is
// checked here: a live non-reversed record, an unexpired window, the exact
// originator as destination, and an integrity tag that binds the reversal to
// the transfer it undoes. The reversal moves exactly the net amount that was
// received; no new fee is computed.
func (s *Service) Reverse(ctx context.Context, from, to common.Address, amount *uint256.Int) error {
	if from == domain.ZeroAddress || to == domain.ZeroAddress {
		return domain.ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return domain.ErrZeroAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	err := s.store.Transact(ctx, func(st store.Store) error {
		meta, err := st.TransferMetadata(ctx, from)
		if err != nil {
			return err
		}
		if meta == nil {
			return domain.ErrNoActiveWindow
		}
		if meta.Reversed {
			return domain.ErrAlreadyReversed
		}
		if !now.Before(meta.CommitWindowEnd) {
			return domain.ErrWindowExpired
		}
		if to != meta.Originator {
			return domain.ErrWrongOriginator
		}

		// The stored tag commits to (originator, holder, gross). Recomputing
		// it from amount+feeCharged means only the exact net amount that was
		// received verifies.
		gross, err := domain.CheckedAdd(amount, meta.FeeCharged)
		if err != nil {
			return err
		}
		if domain.ComputeIntegrityTag(to, from, gross) != meta.IntegrityTag {
			return domain.ErrIntegrityTag
		}

		if err := s.ledger.Move(ctx, st, from, to, amount); err != nil {
			return err
		}

		if err := bumpReversalProfiles(ctx, st, from, to, now); err != nil {
			return err
		}

		// Terminal: a second reversal attempt must find no record.
		return st.DeleteTransferMetadata(ctx, from)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, &domain.LedgerEvent{
		ID:        uuid.New(),
		Type:      domain.EventTypeTransferReversed,
		Timestamp: now,
		From:      &from,
		To:        &to,
		Amount:    domain.FormatAmount(amount),
	})
	return nil
}

// bumpReversalProfiles records the reversal against both parties' risk
// profiles: lifetime counter plus the recent-reversal timestamp.
func bumpReversalProfiles(ctx context.Context, st store.Store, from, to common.Address, now time.Time) error {
	for _, wallet := range []common.Address{from, to} {
		profile, err := risk.EnsureProfile(ctx, st, wallet, now)
		if err != nil {
			return err
		}
		profile.ReversalCount++
		ts := now
		profile.LastReversalTime = &ts
		if err := st.PutRiskProfile(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}
