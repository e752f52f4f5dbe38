package schema

import "time"

// RiskProfile represents the risk_profiles table - per-wallet risk scoring inputs
type RiskProfile struct {
	// Wallet is the wallet address the profile belongs to
	Wallet string `gorm:"column:wallet;primaryKey;type:text"`
	// ReversalCount counts lifetime reversals this wallet participated in
	ReversalCount uint64 `gorm:"column:reversal_count;not null;default:0"`
	// LastReversalTime is the timestamp of the most recent reversal, if any
	LastReversalTime *time.Time `gorm:"column:last_reversal_time;type:timestamptz"`
	// CreationTime is the first-interaction timestamp, immutable once set
	CreationTime time.Time `gorm:"column:creation_time;not null;type:timestamptz"`
	// AbnormalTxCount counts administratively flagged abnormal transactions
	AbnormalTxCount uint64 `gorm:"column:abnormal_tx_count;not null;default:0"`
	// CreatedAt is the timestamp when this profile was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this profile was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the RiskProfile model
func (RiskProfile) TableName() string {
	return "risk_profiles"
}
