package schema

// PairCounter represents the pair_counters table - monotonic transfer counter
// per ordered sender→recipient pair, never reset
type PairCounter struct {
	// Sender is the sending wallet address
	Sender string `gorm:"column:sender;primaryKey;type:text"`
	// Recipient is the receiving wallet address
	Recipient string `gorm:"column:recipient;primaryKey;type:text"`
	// Count is the number of transfers ever made from Sender to Recipient
	Count uint64 `gorm:"column:count;not null;default:0"`
}

// TableName specifies the table name for the PairCounter model
func (PairCounter) TableName() string {
	return "pair_counters"
}
