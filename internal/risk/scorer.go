package risk

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/store"
)

// Premiums added on top of the baseline factor (all in basis points).
const (
	newWalletPremium      = 5_000
	recentReversalPremium = 10_000
	perReversalPremium    = 1_000
	perAbnormalPremium    = 500
)

// Scorer derives a wallet's risk factor from its profile. The baseline is
// 10,000 basis points (100%); history adds premiums on top.
type Scorer struct {
	params domain.Params
}

// NewScorer creates a risk scorer with the given parameters.
func NewScorer(params domain.Params) *Scorer {
	return &Scorer{params: params}
}

// Factor computes the risk factor for a profile at now. A wallet without a
// profile scores baseline; the pipeline creates profiles lazily before
// scoring so new-wallet premiums apply from the very first transfer.
func (s *Scorer) Factor(profile *domain.RiskProfile, now time.Time) uint64 {
	factor := uint64(domain.BasisPoints)
	if profile == nil {
		return factor
	}
	if now.Sub(profile.CreationTime) < s.params.NewWalletAge {
		factor += newWalletPremium
	}
	if profile.LastReversalTime != nil && now.Sub(*profile.LastReversalTime) < s.params.RecentReversalWindow {
		factor += recentReversalPremium
	}
	factor += perReversalPremium * profile.ReversalCount
	factor += perAbnormalPremium * profile.AbnormalTxCount
	return factor
}

// Apply scales a base fee by the higher of the two parties' risk factors:
// fee * max(senderFactor, recipientFactor) / 10,000, truncating.
func (s *Scorer) Apply(baseFee *uint256.Int, senderFactor, recipientFactor uint64) (*uint256.Int, error) {
	factor := senderFactor
	if recipientFactor > factor {
		factor = recipientFactor
	}
	scaled, err := domain.CheckedMul(baseFee, uint256.NewInt(factor))
	if err != nil {
		return nil, err
	}
	return scaled.Div(scaled, uint256.NewInt(domain.BasisPoints)), nil
}

// EnsureProfile returns the wallet's risk profile, creating it with now as
// the immutable first-interaction timestamp when absent.
func EnsureProfile(ctx context.Context, st store.Store, wallet common.Address, now time.Time) (*domain.RiskProfile, error) {
	profile, err := st.RiskProfile(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	profile = &domain.RiskProfile{
		Wallet:       wallet,
		CreationTime: now,
	}
	if err := st.PutRiskProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
