package schema

import "time"

// Balance represents the balances table - one row per wallet holding funds
type Balance struct {
	// Address is the wallet address (EIP-55 hex)
	Address string `gorm:"column:address;primaryKey;type:text"`
	// Amount is the balance in smallest units (stored as string to support up to 78 digits)
	Amount string `gorm:"column:amount;not null;type:numeric(78,0)"`
	// CreatedAt is the timestamp when this balance was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this balance was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Balance model
func (Balance) TableName() string {
	return "balances"
}
