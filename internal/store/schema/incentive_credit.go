package schema

import "time"

// IncentiveCredit represents the incentive_credits table - the per-wallet
// prepaid fee-offset balance
type IncentiveCredit struct {
	// Wallet is the wallet address the credits belong to
	Wallet string `gorm:"column:wallet;primaryKey;type:text"`
	// Amount is the spendable credit balance in smallest units
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// LastUpdated is the timestamp of the last award or consumption
	LastUpdated time.Time `gorm:"column:last_updated;not null;type:timestamptz"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the IncentiveCredit model
func (IncentiveCredit) TableName() string {
	return "incentive_credits"
}
