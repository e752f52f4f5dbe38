package schema

import "time"

// TransferMetadata represents the transfer_metadata table - the single live
// reversal-window record per recipient wallet
type TransferMetadata struct {
	// Wallet is the recipient wallet address the record belongs to
	Wallet string `gorm:"column:wallet;primaryKey;type:text"`
	// CommitWindowEnd is the absolute time the reversal right expires
	CommitWindowEnd time.Time `gorm:"column:commit_window_end;not null;type:timestamptz;index:idx_transfer_metadata_window_end"`
	// WindowDurationNS is the adaptive window duration in nanoseconds
	WindowDurationNS int64 `gorm:"column:window_duration_ns;not null"`
	// Originator is the wallet that sent the funds creating this record
	Originator string `gorm:"column:originator;not null;type:text"`
	// TransferCount counts transfers ever received by this wallet
	TransferCount uint64 `gorm:"column:transfer_count;not null;default:0"`
	// IntegrityTag is the keccak commitment over (sender, recipient, gross amount), hex encoded
	IntegrityTag string `gorm:"column:integrity_tag;not null;type:text"`
	// FeeCharged is the final fee paid on the transfer that created this record
	FeeCharged string `gorm:"column:fee_charged;not null;type:numeric(78,0)"`
	// Reversed marks the record terminal
	Reversed bool `gorm:"column:reversed;not null;default:false"`
	// CreatedAt is the timestamp when this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp when this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the TransferMetadata model
func (TransferMetadata) TableName() string {
	return "transfer_metadata"
}
