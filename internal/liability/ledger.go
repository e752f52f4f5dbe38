package liability

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/jessedh/t3-ledger/internal/adapter"
	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/logger"
	"github.com/jessedh/t3-ledger/internal/messaging"
	"github.com/jessedh/t3-ledger/internal/store"
)

// Ledger tracks outstanding interbank liabilities between institution pairs.
// The pair ledger is directional: (debtor, creditor) and (creditor, debtor)
// are independent balances. It never touches wallet balances; settlement
// happens off-ledger and is reflected here through Clear.
type Ledger struct {
	mu        sync.Mutex
	store     store.Store
	publisher messaging.Publisher
	clock     adapter.Clock
}

// NewLedger creates an interbank liability ledger.
func NewLedger(st store.Store, publisher messaging.Publisher, clock adapter.Clock) *Ledger {
	return &Ledger{
		store:     st,
		publisher: publisher,
		clock:     clock,
	}
}

// Record adds amount to the outstanding debtor→creditor liability and
// returns the new outstanding balance.
func (l *Ledger) Record(ctx context.Context, debtor, creditor common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if err := validatePair(debtor, creditor, amount); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var outstanding *uint256.Int
	err := l.store.Transact(ctx, func(st store.Store) error {
		current, err := st.Liability(ctx, debtor, creditor)
		if err != nil {
			return err
		}
		outstanding, err = domain.CheckedAdd(current, amount)
		if err != nil {
			return err
		}
		return st.SetLiability(ctx, debtor, creditor, outstanding)
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, domain.EventTypeLiabilityRecorded, debtor, creditor, amount, outstanding)
	return outstanding, nil
}

// Clear reduces the outstanding debtor→creditor liability by amount and
// returns the new outstanding balance. Clearing more than is outstanding
// fails with ErrLiabilityBounds.
func (l *Ledger) Clear(ctx context.Context, debtor, creditor common.Address, amount *uint256.Int) (*uint256.Int, error) {
	if err := validatePair(debtor, creditor, amount); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var outstanding *uint256.Int
	err := l.store.Transact(ctx, func(st store.Store) error {
		current, err := st.Liability(ctx, debtor, creditor)
		if err != nil {
			return err
		}
		if current.Lt(amount) {
			return domain.ErrLiabilityBounds
		}
		outstanding = new(uint256.Int).Sub(current, amount)
		return st.SetLiability(ctx, debtor, creditor, outstanding)
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, domain.EventTypeLiabilityCleared, debtor, creditor, amount, outstanding)
	return outstanding, nil
}

// Outstanding returns the current debtor→creditor liability balance.
func (l *Ledger) Outstanding(ctx context.Context, debtor, creditor common.Address) (*uint256.Int, error) {
	return l.store.Liability(ctx, debtor, creditor)
}

func validatePair(debtor, creditor common.Address, amount *uint256.Int) error {
	if debtor == domain.ZeroAddress || creditor == domain.ZeroAddress {
		return domain.ErrZeroAddress
	}
	if debtor == creditor {
		return domain.ErrSelfReference
	}
	if amount == nil || amount.IsZero() {
		return domain.ErrZeroAmount
	}
	return nil
}

func (l *Ledger) publish(ctx context.Context, typ domain.EventType, debtor, creditor common.Address, amount, outstanding *uint256.Int) {
	event := &domain.LedgerEvent{
		ID:          uuid.New(),
		Type:        typ,
		Timestamp:   l.clock.Now(),
		From:        &debtor,
		To:          &creditor,
		Amount:      domain.FormatAmount(amount),
		Outstanding: domain.FormatAmount(outstanding),
	}
	if err := l.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("event_type", string(typ)))
	}
}
