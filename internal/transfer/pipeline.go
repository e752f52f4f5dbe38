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

// Transfer moves amount from sender to recipient through the full fee
// pipeline: tiered fee, risk scaling, credit offset, bounds clamping, fee
// distribution, pair-counter update, adaptive window sizing and metadata
// overwrite. The net amount (gross minus final fee) is what actually moves.
func (s *Service) Transfer(ctx context.Context, from, to common.Address, amount *uint256.Int) (*domain.TransferReceipt, error) {
	if from == domain.ZeroAddress || to == domain.ZeroAddress {
		return nil, domain.ErrZeroAddress
	}
	if amount == nil || amount.IsZero() {
		return nil, domain.ErrZeroAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var receipt *domain.TransferReceipt
	err := s.store.Transact(ctx, func(st store.Store) error {
		paused, err := st.Paused(ctx)
		if err != nil {
			return err
		}
		if paused {
			return domain.ErrPaused
		}

		senderProfile, err := risk.EnsureProfile(ctx, st, from, now)
		if err != nil {
			return err
		}
		recipientProfile, err := risk.EnsureProfile(ctx, st, to, now)
		if err != nil {
			return err
		}

		// Funds still inside the sender's own reversal window may only go
		// back to the party that sent them, not onward to a third party.
		senderMeta, err := st.TransferMetadata(ctx, from)
		if err != nil {
			return err
		}
		if senderMeta.Live(now) && senderMeta.Originator != to {
			return domain.ErrOutboundLocked
		}

		finalFee, err := s.computeFee(ctx, st, from, amount, senderProfile, recipientProfile, now)
		if err != nil {
			return err
		}

		net := new(uint256.Int).Sub(amount, finalFee)
		if err := s.ledger.Move(ctx, st, from, to, net); err != nil {
			return err
		}

		if !finalFee.IsZero() {
			if err := s.distribute(ctx, st, from, to, finalFee, now); err != nil {
				return err
			}
		}

		priorPairCount, err := st.PairCount(ctx, from, to)
		if err != nil {
			return err
		}
		if err := st.SetPairCount(ctx, from, to, priorPairCount+1); err != nil {
			return err
		}

		// The current transfer does not count toward its own familiarity
		// discount, so the window uses the pre-increment counter.
		duration, err := s.windows.Duration(ctx, st, from, priorPairCount, amount, now)
		if err != nil {
			return err
		}

		prevMeta, err := st.TransferMetadata(ctx, to)
		if err != nil {
			return err
		}
		var priorReceived uint64
		if prevMeta != nil {
			priorReceived = prevMeta.TransferCount
		}

		meta := &domain.TransferMetadata{
			Wallet:          to,
			CommitWindowEnd: now.Add(duration),
			WindowDuration:  duration,
			Originator:      from,
			TransferCount:   priorReceived + 1,
			IntegrityTag:    domain.ComputeIntegrityTag(from, to, amount),
			FeeCharged:      finalFee.Clone(),
			Reversed:        false,
		}
		if err := st.PutTransferMetadata(ctx, meta); err != nil {
			return err
		}

		if err := s.windows.RecordInbound(ctx, st, to, amount, now); err != nil {
			return err
		}

		receipt = &domain.TransferReceipt{
			From:           from,
			To:             to,
			GrossAmount:    amount.Clone(),
			NetAmount:      net,
			Fee:            finalFee,
			WindowDuration: duration,
			WindowEnd:      meta.CommitWindowEnd,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	windowEnd := receipt.WindowEnd
	s.publish(ctx, &domain.LedgerEvent{
		ID:        uuid.New(),
		Type:      domain.EventTypeTransferWithFee,
		Timestamp: now,
		From:      &from,
		To:        &to,
		Amount:    domain.FormatAmount(receipt.NetAmount),
		Fee:       domain.FormatAmount(receipt.Fee),
		WindowEnd: &windowEnd,
	})
	return receipt, nil
}

// computeFee runs the fee pipeline for a gross amount: tiered base fee,
// risk scaling by the higher-risk party, credit offset from the sender's
// incentive balance, then bounds clamping.
func (s *Service) computeFee(ctx context.Context, st store.Store, sender common.Address, amount *uint256.Int, senderProfile, recipientProfile *domain.RiskProfile, now time.Time) (*uint256.Int, error) {
	baseFee, err := s.fees.Fee(amount)
	if err != nil {
		return nil, err
	}

	riskedFee, err := s.scorer.Apply(baseFee, s.scorer.Factor(senderProfile, now), s.scorer.Factor(recipientProfile, now))
	if err != nil {
		return nil, err
	}

	remaining, err := s.credits.Consume(ctx, st, sender, riskedFee, now)
	if err != nil {
		return nil, err
	}

	return s.clampFee(amount, remaining)
}

// clampFee applies the fee bounds in order: cap at maxFeePercent of the
// gross amount, raise to the floor when the amount can carry it, and never
// exceed the amount itself.
func (s *Service) clampFee(amount, f *uint256.Int) (*uint256.Int, error) {
	feeCap, err := domain.CheckedMul(amount, uint256.NewInt(s.params.MaxFeePercentBP))
	if err != nil {
		return nil, err
	}
	feeCap.Div(feeCap, uint256.NewInt(domain.BasisPoints))

	clamped := f.Clone()
	if clamped.Gt(feeCap) {
		clamped.Set(feeCap)
	}
	if clamped.Lt(s.params.MinFeeFloor) && amount.Gt(s.params.MinFeeFloor) {
		clamped.Set(s.params.MinFeeFloor)
	}
	if clamped.Gt(amount) {
		clamped.Set(amount)
	}
	return clamped, nil
}

// distribute splits a collected fee: half is minted to the treasury, a
// quarter is credited to the sender, and the exact remainder goes to the
// recipient so no unit is lost to rounding.
func (s *Service) distribute(ctx context.Context, st store.Store, sender, recipient common.Address, f *uint256.Int, now time.Time) error {
	treasuryShare := new(uint256.Int).Div(f, uint256.NewInt(2))
	senderShare := new(uint256.Int).Div(f, uint256.NewInt(4))
	recipientShare := new(uint256.Int).Sub(f, treasuryShare)
	recipientShare.Sub(recipientShare, senderShare)

	if err := s.ledger.MintTreasury(ctx, st, treasuryShare); err != nil {
		return err
	}
	if err := s.credits.Award(ctx, st, sender, senderShare, now); err != nil {
		return err
	}
	return s.credits.Award(ctx, st, recipient, recipientShare, now)
}
