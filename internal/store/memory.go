package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
)

type pairKey struct {
	a common.Address
	b common.Address
}

type memoryState struct {
	balances    map[common.Address]*uint256.Int
	supply      *uint256.Int
	paused      bool
	metadata    map[common.Address]*domain.TransferMetadata
	profiles    map[common.Address]*domain.RiskProfile
	credits     map[common.Address]*domain.IncentiveCredits
	averages    map[common.Address]*domain.RollingAverage
	pairs       map[pairKey]uint64
	liabilities map[pairKey]*uint256.Int
}

func newMemoryState() memoryState {
	return memoryState{
		balances:    make(map[common.Address]*uint256.Int),
		supply:      uint256.NewInt(0),
		metadata:    make(map[common.Address]*domain.TransferMetadata),
		profiles:    make(map[common.Address]*domain.RiskProfile),
		credits:     make(map[common.Address]*domain.IncentiveCredits),
		averages:    make(map[common.Address]*domain.RollingAverage),
		pairs:       make(map[pairKey]uint64),
		liabilities: make(map[pairKey]*uint256.Int),
	}
}

func (s memoryState) clone() memoryState {
	out := newMemoryState()
	out.supply = s.supply.Clone()
	out.paused = s.paused
	for k, v := range s.balances {
		out.balances[k] = v.Clone()
	}
	for k, v := range s.metadata {
		out.metadata[k] = cloneMetadata(v)
	}
	for k, v := range s.profiles {
		out.profiles[k] = cloneProfile(v)
	}
	for k, v := range s.credits {
		out.credits[k] = cloneCredits(v)
	}
	for k, v := range s.averages {
		out.averages[k] = cloneAverage(v)
	}
	for k, v := range s.pairs {
		out.pairs[k] = v
	}
	for k, v := range s.liabilities {
		out.liabilities[k] = v.Clone()
	}
	return out
}

func cloneMetadata(m *domain.TransferMetadata) *domain.TransferMetadata {
	if m == nil {
		return nil
	}
	out := *m
	out.FeeCharged = m.FeeCharged.Clone()
	return &out
}

func cloneProfile(p *domain.RiskProfile) *domain.RiskProfile {
	if p == nil {
		return nil
	}
	out := *p
	if p.LastReversalTime != nil {
		t := *p.LastReversalTime
		out.LastReversalTime = &t
	}
	return &out
}

func cloneCredits(c *domain.IncentiveCredits) *domain.IncentiveCredits {
	if c == nil {
		return nil
	}
	out := *c
	out.Amount = c.Amount.Clone()
	return &out
}

func cloneAverage(a *domain.RollingAverage) *domain.RollingAverage {
	if a == nil {
		return nil
	}
	out := *a
	out.TotalAmount = a.TotalAmount.Clone()
	return &out
}

// Memory is a thread-safe in-memory implementation of Store. It backs tests
// and single-node development deployments.
type Memory struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	state memoryState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *Memory {
	return &Memory{state: newMemoryState()}
}

// Transact serializes transactions and restores a snapshot when fn fails,
// giving the same all-or-nothing behavior as the database-backed store.
func (m *Memory) Transact(_ context.Context, fn func(Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Memory) Balance(_ context.Context, wallet common.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.state.balances[wallet]; ok {
		return b.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (m *Memory) SetBalance(_ context.Context, wallet common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.balances[wallet] = amount.Clone()
	return nil
}

func (m *Memory) TotalSupply(_ context.Context) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.supply.Clone(), nil
}

func (m *Memory) SetTotalSupply(_ context.Context, supply *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.supply = supply.Clone()
	return nil
}

func (m *Memory) Paused(_ context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.paused, nil
}

func (m *Memory) SetPaused(_ context.Context, paused bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.paused = paused
	return nil
}

func (m *Memory) TransferMetadata(_ context.Context, wallet common.Address) (*domain.TransferMetadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneMetadata(m.state.metadata[wallet]), nil
}

func (m *Memory) PutTransferMetadata(_ context.Context, meta *domain.TransferMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.metadata[meta.Wallet] = cloneMetadata(meta)
	return nil
}

func (m *Memory) DeleteTransferMetadata(_ context.Context, wallet common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.metadata, wallet)
	return nil
}

func (m *Memory) ListExpiredWindows(_ context.Context, now time.Time, limit int) ([]common.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var expired []*domain.TransferMetadata
	for _, meta := range m.state.metadata {
		if !meta.Reversed && !now.Before(meta.CommitWindowEnd) {
			expired = append(expired, meta)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].CommitWindowEnd.Before(expired[j].CommitWindowEnd)
	})

	wallets := make([]common.Address, 0, len(expired))
	for _, meta := range expired {
		if limit > 0 && len(wallets) >= limit {
			break
		}
		wallets = append(wallets, meta.Wallet)
	}
	return wallets, nil
}

func (m *Memory) RiskProfile(_ context.Context, wallet common.Address) (*domain.RiskProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneProfile(m.state.profiles[wallet]), nil
}

func (m *Memory) PutRiskProfile(_ context.Context, profile *domain.RiskProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.profiles[profile.Wallet] = cloneProfile(profile)
	return nil
}

func (m *Memory) Credits(_ context.Context, wallet common.Address) (*domain.IncentiveCredits, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneCredits(m.state.credits[wallet]), nil
}

func (m *Memory) PutCredits(_ context.Context, credits *domain.IncentiveCredits) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.credits[credits.Wallet] = cloneCredits(credits)
	return nil
}

func (m *Memory) RollingAverage(_ context.Context, wallet common.Address) (*domain.RollingAverage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return cloneAverage(m.state.averages[wallet]), nil
}

func (m *Memory) PutRollingAverage(_ context.Context, avg *domain.RollingAverage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.averages[avg.Wallet] = cloneAverage(avg)
	return nil
}

func (m *Memory) PairCount(_ context.Context, sender, recipient common.Address) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.pairs[pairKey{sender, recipient}], nil
}

func (m *Memory) SetPairCount(_ context.Context, sender, recipient common.Address, count uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.pairs[pairKey{sender, recipient}] = count
	return nil
}

func (m *Memory) Liability(_ context.Context, debtor, creditor common.Address) (*uint256.Int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.state.liabilities[pairKey{debtor, creditor}]; ok {
		return l.Clone(), nil
	}
	return uint256.NewInt(0), nil
}

func (m *Memory) SetLiability(_ context.Context, debtor, creditor common.Address, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.liabilities[pairKey{debtor, creditor}] = amount.Clone()
	return nil
}
