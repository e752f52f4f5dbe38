package schema

import "time"

// RollingAverage represents the rolling_averages table - per-wallet inbound
// amount accumulator feeding adaptive window sizing
type RollingAverage struct {
	// Wallet is the wallet address the average belongs to
	Wallet string `gorm:"column:wallet;primaryKey;type:text"`
	// TotalAmount is the accumulated inbound amount in smallest units
	TotalAmount string `gorm:"column:total_amount;not null;type:numeric(78,0)"`
	// Count is the number of accumulated transfers
	Count uint64 `gorm:"column:count;not null;default:0"`
	// LastUpdated is the timestamp of the last accumulation
	LastUpdated time.Time `gorm:"column:last_updated;not null;type:timestamptz"`
}

// TableName specifies the table name for the RollingAverage model
func (RollingAverage) TableName() string {
	return "rolling_averages"
}
