package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// BasisPoints is the denominator used for all percentage-style math
// (risk factors, fee caps). 10,000 basis points = 100%.
const BasisPoints = 10_000

// Decimals is the number of fractional digits in the ledger's smallest unit.
const Decimals = 18

// ZeroAddress is the null wallet address. Transfers to it are rejected.
var ZeroAddress = common.Address{}

// OneToken returns one whole token expressed in the smallest unit (10^18).
func OneToken() *uint256.Int {
	one := uint256.NewInt(10)
	return one.Exp(one, uint256.NewInt(Decimals))
}

// Params holds the tunable parameters of the transfer pipeline.
// Zero values are replaced with defaults by Normalize.
type Params struct {
	// MaxFeePercentBP caps the final fee at this fraction of the gross amount.
	MaxFeePercentBP uint64
	// MinFeeFloor raises the fee to this value when the amount is large
	// enough to carry it (amount > MinFeeFloor).
	MinFeeFloor *uint256.Int
	// DefaultWindow seeds the adaptive reversal-window computation.
	DefaultWindow time.Duration
	// MinWindow / MaxWindow clamp the adaptive window duration.
	MinWindow time.Duration
	MaxWindow time.Duration
	// NewWalletAge is the age below which a wallet carries the new-wallet
	// risk premium.
	NewWalletAge time.Duration
	// RecentReversalWindow is the lookback for the recent-reversal premium.
	RecentReversalWindow time.Duration
	// AvgInactivityReset resets a wallet's rolling average after this much
	// inactivity.
	AvgInactivityReset time.Duration
	// Treasury receives the minted treasury share of every fee.
	Treasury common.Address
}

// DefaultTreasury is the treasury address used when none is configured.
var DefaultTreasury = common.HexToAddress("0x0000000000000000000000000000000000000Fee")

// Normalize fills in defaults for unset parameters and returns the receiver.
func (p Params) Normalize() Params {
	if p.MaxFeePercentBP == 0 {
		p.MaxFeePercentBP = 500 // 5%
	}
	if p.MinFeeFloor == nil || p.MinFeeFloor.IsZero() {
		p.MinFeeFloor = uint256.NewInt(1_000_000_000_000_000) // 0.001 token
	}
	if p.DefaultWindow == 0 {
		p.DefaultWindow = 24 * time.Hour
	}
	if p.MinWindow == 0 {
		p.MinWindow = time.Hour
	}
	if p.MaxWindow == 0 {
		p.MaxWindow = 72 * time.Hour
	}
	if p.NewWalletAge == 0 {
		p.NewWalletAge = 7 * 24 * time.Hour
	}
	if p.RecentReversalWindow == 0 {
		p.RecentReversalWindow = 30 * 24 * time.Hour
	}
	if p.AvgInactivityReset == 0 {
		p.AvgInactivityReset = 30 * 24 * time.Hour
	}
	if p.Treasury == ZeroAddress {
		p.Treasury = DefaultTreasury
	}
	return p
}

// TransferMetadata is the single live reversal-window record kept per
// recipient wallet. A new inbound transfer overwrites the previous record,
// so a wallet's reversal right always refers to its most recent incoming
// transfer only.
type TransferMetadata struct {
	// Wallet is the recipient the record belongs to.
	Wallet common.Address
	// CommitWindowEnd is the absolute time the reversal right expires.
	CommitWindowEnd time.Time
	// WindowDuration is the adaptive duration used for this transfer.
	WindowDuration time.Duration
	// Originator sent the funds that created this record; it is the only
	// valid reversal destination.
	Originator common.Address
	// TransferCount counts transfers received by this wallet.
	TransferCount uint64
	// IntegrityTag commits to (sender, recipient, gross amount); recomputed
	// on write, checked on reversal.
	IntegrityTag common.Hash
	// FeeCharged is the final fee paid on the transfer that created this
	// record.
	FeeCharged *uint256.Int
	// Reversed marks the record terminal.
	Reversed bool
}

// Live reports whether the record still grants a reversal right at now.
func (m *TransferMetadata) Live(now time.Time) bool {
	return m != nil && !m.Reversed && now.Before(m.CommitWindowEnd)
}

// RiskProfile tracks the per-wallet inputs to risk scoring. Created lazily
// on first interaction, never deleted.
type RiskProfile struct {
	Wallet           common.Address
	ReversalCount    uint64
	LastReversalTime *time.Time
	// CreationTime is the first-interaction timestamp, immutable once set.
	CreationTime    time.Time
	AbnormalTxCount uint64
}

// IncentiveCredits is the per-wallet prepaid balance that offsets future
// fees before any cash fee is charged.
type IncentiveCredits struct {
	Wallet      common.Address
	Amount      *uint256.Int
	LastUpdated time.Time
}

// RollingAverage accumulates a wallet's inbound transfer amounts. It resets
// to zero whenever the gap since LastUpdated exceeds the configured
// inactivity-reset period.
type RollingAverage struct {
	Wallet      common.Address
	TotalAmount *uint256.Int
	Count       uint64
	LastUpdated time.Time
}

// Average returns the mean inbound amount, or nil when no history exists.
func (r *RollingAverage) Average() *uint256.Int {
	if r == nil || r.Count == 0 || r.TotalAmount == nil {
		return nil
	}
	return new(uint256.Int).Div(r.TotalAmount, uint256.NewInt(r.Count))
}

// Stale reports whether the average should be treated as reset at now.
func (r *RollingAverage) Stale(now time.Time, resetAfter time.Duration) bool {
	return r == nil || now.Sub(r.LastUpdated) > resetAfter
}

// TransferReceipt summarizes a completed transfer for the caller.
type TransferReceipt struct {
	From           common.Address
	To             common.Address
	GrossAmount    *uint256.Int
	NetAmount      *uint256.Int
	Fee            *uint256.Int
	WindowDuration time.Duration
	WindowEnd      time.Time
}
