package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/store/schema"
)

const (
	kvKeyPaused      = "ledger:paused"
	kvKeyTotalSupply = "ledger:total_supply"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// AutoMigrate creates or updates the ledger tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Balance{},
		&schema.TransferMetadata{},
		&schema.RiskProfile{},
		&schema.IncentiveCredit{},
		&schema.RollingAverage{},
		&schema.PairCounter{},
		&schema.Liability{},
		&schema.KeyValueStore{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// Transact runs fn inside a database transaction. Serializable isolation is
// provided by the single-writer discipline of the services on top; the DB
// transaction guarantees all-or-nothing application.
func (s *pgStore) Transact(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

func parseStoredAmount(field, value string) (*uint256.Int, error) {
	v, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored %s %q: %w", field, value, err)
	}
	return v, nil
}

func (s *pgStore) Balance(ctx context.Context, wallet common.Address) (*uint256.Int, error) {
	var row schema.Balance
	err := s.db.WithContext(ctx).Where("address = ?", wallet.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uint256.NewInt(0), nil
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	return parseStoredAmount("balance", row.Amount)
}

func (s *pgStore) SetBalance(ctx context.Context, wallet common.Address, amount *uint256.Int) error {
	row := schema.Balance{
		Address:   wallet.Hex(),
		Amount:    domain.FormatAmount(amount),
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set balance: %w", err)
	}
	return nil
}

func (s *pgStore) TotalSupply(ctx context.Context) (*uint256.Int, error) {
	value, err := s.getKV(ctx, kvKeyTotalSupply)
	if err != nil {
		return nil, err
	}
	if value == "" {
		return uint256.NewInt(0), nil
	}
	return parseStoredAmount("total supply", value)
}

func (s *pgStore) SetTotalSupply(ctx context.Context, supply *uint256.Int) error {
	return s.setKV(ctx, kvKeyTotalSupply, domain.FormatAmount(supply))
}

func (s *pgStore) Paused(ctx context.Context) (bool, error) {
	value, err := s.getKV(ctx, kvKeyPaused)
	if err != nil {
		return false, err
	}
	if value == "" {
		return false, nil
	}
	paused, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("failed to parse stored pause flag %q: %w", value, err)
	}
	return paused, nil
}

func (s *pgStore) SetPaused(ctx context.Context, paused bool) error {
	return s.setKV(ctx, kvKeyPaused, strconv.FormatBool(paused))
}

func (s *pgStore) getKV(ctx context.Context, key string) (string, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", key).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return kv.Value, nil
}

func (s *pgStore) setKV(ctx context.Context, key, value string) error {
	kv := schema.KeyValueStore{Key: key, Value: value}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&kv).Error
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (s *pgStore) TransferMetadata(ctx context.Context, wallet common.Address) (*domain.TransferMetadata, error) {
	var row schema.TransferMetadata
	err := s.db.WithContext(ctx).Where("wallet = ?", wallet.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transfer metadata: %w", err)
	}
	return metadataFromRow(&row)
}

func metadataFromRow(row *schema.TransferMetadata) (*domain.TransferMetadata, error) {
	fee, err := parseStoredAmount("fee", row.FeeCharged)
	if err != nil {
		return nil, err
	}
	return &domain.TransferMetadata{
		Wallet:          common.HexToAddress(row.Wallet),
		CommitWindowEnd: row.CommitWindowEnd,
		WindowDuration:  time.Duration(row.WindowDurationNS),
		Originator:      common.HexToAddress(row.Originator),
		TransferCount:   row.TransferCount,
		IntegrityTag:    common.HexToHash(row.IntegrityTag),
		FeeCharged:      fee,
		Reversed:        row.Reversed,
	}, nil
}

func (s *pgStore) PutTransferMetadata(ctx context.Context, meta *domain.TransferMetadata) error {
	row := schema.TransferMetadata{
		Wallet:           meta.Wallet.Hex(),
		CommitWindowEnd:  meta.CommitWindowEnd,
		WindowDurationNS: int64(meta.WindowDuration),
		Originator:       meta.Originator.Hex(),
		TransferCount:    meta.TransferCount,
		IntegrityTag:     meta.IntegrityTag.Hex(),
		FeeCharged:       domain.FormatAmount(meta.FeeCharged),
		Reversed:         meta.Reversed,
		UpdatedAt:        time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wallet"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"commit_window_end", "window_duration_ns", "originator",
				"transfer_count", "integrity_tag", "fee_charged", "reversed", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to put transfer metadata: %w", err)
	}
	return nil
}

func (s *pgStore) DeleteTransferMetadata(ctx context.Context, wallet common.Address) error {
	err := s.db.WithContext(ctx).
		Where("wallet = ?", wallet.Hex()).
		Delete(&schema.TransferMetadata{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete transfer metadata: %w", err)
	}
	return nil
}

func (s *pgStore) ListExpiredWindows(ctx context.Context, now time.Time, limit int) ([]common.Address, error) {
	var rows []schema.TransferMetadata
	err := s.db.WithContext(ctx).
		Where("reversed = ? AND commit_window_end <= ?", false, now).
		Order("commit_window_end ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired windows: %w", err)
	}

	wallets := make([]common.Address, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, common.HexToAddress(row.Wallet))
	}
	return wallets, nil
}

func (s *pgStore) RiskProfile(ctx context.Context, wallet common.Address) (*domain.RiskProfile, error) {
	var row schema.RiskProfile
	err := s.db.WithContext(ctx).Where("wallet = ?", wallet.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get risk profile: %w", err)
	}
	return &domain.RiskProfile{
		Wallet:           common.HexToAddress(row.Wallet),
		ReversalCount:    row.ReversalCount,
		LastReversalTime: row.LastReversalTime,
		CreationTime:     row.CreationTime,
		AbnormalTxCount:  row.AbnormalTxCount,
	}, nil
}

func (s *pgStore) PutRiskProfile(ctx context.Context, profile *domain.RiskProfile) error {
	row := schema.RiskProfile{
		Wallet:           profile.Wallet.Hex(),
		ReversalCount:    profile.ReversalCount,
		LastReversalTime: profile.LastReversalTime,
		CreationTime:     profile.CreationTime,
		AbnormalTxCount:  profile.AbnormalTxCount,
		UpdatedAt:        time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "wallet"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"reversal_count", "last_reversal_time", "abnormal_tx_count", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to put risk profile: %w", err)
	}
	return nil
}

func (s *pgStore) Credits(ctx context.Context, wallet common.Address) (*domain.IncentiveCredits, error) {
	var row schema.IncentiveCredit
	err := s.db.WithContext(ctx).Where("wallet = ?", wallet.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get credits: %w", err)
	}
	amount, err := parseStoredAmount("credits", row.Amount)
	if err != nil {
		return nil, err
	}
	return &domain.IncentiveCredits{
		Wallet:      common.HexToAddress(row.Wallet),
		Amount:      amount,
		LastUpdated: row.LastUpdated,
	}, nil
}

func (s *pgStore) PutCredits(ctx context.Context, credits *domain.IncentiveCredits) error {
	row := schema.IncentiveCredit{
		Wallet:      credits.Wallet.Hex(),
		Amount:      domain.FormatAmount(credits.Amount),
		LastUpdated: credits.LastUpdated,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "last_updated"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to put credits: %w", err)
	}
	return nil
}

func (s *pgStore) RollingAverage(ctx context.Context, wallet common.Address) (*domain.RollingAverage, error) {
	var row schema.RollingAverage
	err := s.db.WithContext(ctx).Where("wallet = ?", wallet.Hex()).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get rolling average: %w", err)
	}
	total, err := parseStoredAmount("rolling average", row.TotalAmount)
	if err != nil {
		return nil, err
	}
	return &domain.RollingAverage{
		Wallet:      common.HexToAddress(row.Wallet),
		TotalAmount: total,
		Count:       row.Count,
		LastUpdated: row.LastUpdated,
	}, nil
}

func (s *pgStore) PutRollingAverage(ctx context.Context, avg *domain.RollingAverage) error {
	row := schema.RollingAverage{
		Wallet:      avg.Wallet.Hex(),
		TotalAmount: domain.FormatAmount(avg.TotalAmount),
		Count:       avg.Count,
		LastUpdated: avg.LastUpdated,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_amount", "count", "last_updated"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to put rolling average: %w", err)
	}
	return nil
}

func (s *pgStore) PairCount(ctx context.Context, sender, recipient common.Address) (uint64, error) {
	var row schema.PairCounter
	err := s.db.WithContext(ctx).
		Where("sender = ? AND recipient = ?", sender.Hex(), recipient.Hex()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get pair count: %w", err)
	}
	return row.Count, nil
}

func (s *pgStore) SetPairCount(ctx context.Context, sender, recipient common.Address, count uint64) error {
	row := schema.PairCounter{
		Sender:    sender.Hex(),
		Recipient: recipient.Hex(),
		Count:     count,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sender"}, {Name: "recipient"}},
			DoUpdates: clause.AssignmentColumns([]string{"count"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set pair count: %w", err)
	}
	return nil
}

func (s *pgStore) Liability(ctx context.Context, debtor, creditor common.Address) (*uint256.Int, error) {
	var row schema.Liability
	err := s.db.WithContext(ctx).
		Where("debtor = ? AND creditor = ?", debtor.Hex(), creditor.Hex()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uint256.NewInt(0), nil
		}
		return nil, fmt.Errorf("failed to get liability: %w", err)
	}
	return parseStoredAmount("liability", row.Amount)
}

func (s *pgStore) SetLiability(ctx context.Context, debtor, creditor common.Address, amount *uint256.Int) error {
	row := schema.Liability{
		Debtor:    debtor.Hex(),
		Creditor:  creditor.Hex(),
		Amount:    domain.FormatAmount(amount),
		UpdatedAt: time.Now(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "debtor"}, {Name: "creditor"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to set liability: %w", err)
	}
	return nil
}
