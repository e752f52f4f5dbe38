package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

// EventType identifies a ledger notification.
type EventType string

const (
	EventTypeTransferWithFee        EventType = "transfer_with_fee"
	EventTypeTransferReversed       EventType = "transfer_reversed"
	EventTypeWindowExpired          EventType = "window_expired"
	EventTypeLoyaltyRefundProcessed EventType = "loyalty_refund_processed"
	EventTypeRiskFactorUpdated      EventType = "risk_factor_updated"
	EventTypeLiabilityRecorded      EventType = "liability_recorded"
	EventTypeLiabilityCleared       EventType = "liability_cleared"
)

// LedgerEvent is the normalized notification published for external
// indexing. Events are append-only audit signals, not control inputs: a
// failed publish never affects the operation that produced it.
type LedgerEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// From/To are set for transfer, reversal and liability events.
	From *common.Address `json:"from,omitempty"`
	To   *common.Address `json:"to,omitempty"`
	// Wallet is set for single-wallet events (expiry, risk update).
	Wallet *common.Address `json:"wallet,omitempty"`

	// Amount is the moved or recorded amount in smallest units, base 10.
	Amount string `json:"amount,omitempty"`
	// Fee is the fee charged on a transfer, smallest units, base 10.
	Fee string `json:"fee,omitempty"`
	// Refund is the per-party loyalty refund, smallest units, base 10.
	Refund string `json:"refund,omitempty"`
	// RiskFactor is the recomputed factor in basis points.
	RiskFactor uint64 `json:"risk_factor,omitempty"`
	// Outstanding is the liability balance after a record/clear.
	Outstanding string `json:"outstanding,omitempty"`
	// WindowEnd is the commit window end for transfer events.
	WindowEnd *time.Time `json:"window_end,omitempty"`
}

// Valid performs minimal shape validation before publishing.
func (e *LedgerEvent) Valid() bool {
	if e == nil || e.ID == uuid.Nil || e.Timestamp.IsZero() {
		return false
	}
	switch e.Type {
	case EventTypeTransferWithFee, EventTypeTransferReversed,
		EventTypeLiabilityRecorded, EventTypeLiabilityCleared:
		return e.From != nil && e.To != nil && e.Amount != ""
	case EventTypeWindowExpired, EventTypeLoyaltyRefundProcessed,
		EventTypeRiskFactorUpdated:
		return e.Wallet != nil
	default:
		return false
	}
}
