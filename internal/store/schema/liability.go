package schema

import "time"

// Liability represents the interbank_liabilities table - outstanding debt per
// ordered debtor→creditor pair
type Liability struct {
	// Debtor is the debtor custodian address
	Debtor string `gorm:"column:debtor;primaryKey;type:text"`
	// Creditor is the creditor custodian address
	Creditor string `gorm:"column:creditor;primaryKey;type:text"`
	// Amount is the outstanding liability in smallest units, never negative
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// UpdatedAt is the timestamp when this liability was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Liability model
func (Liability) TableName() string {
	return "interbank_liabilities"
}
