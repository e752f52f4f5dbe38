package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessedh/t3-ledger/internal/domain"
)

var (
	testWalletA = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testWalletB = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testWalletC = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func testTime() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// =============================================================================
// Test: Balances and supply
// =============================================================================

func testBalances(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("absent balance reads as zero", func(t *testing.T) {
		balance, err := store.Balance(ctx, testWalletA)
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
	})

	t.Run("set and get round-trip", func(t *testing.T) {
		amount, _ := uint256.FromDecimal("123456789000000000000000000")
		require.NoError(t, store.SetBalance(ctx, testWalletA, amount))

		balance, err := store.Balance(ctx, testWalletA)
		require.NoError(t, err)
		assert.Equal(t, amount.Dec(), balance.Dec())
	})

	t.Run("set overwrites", func(t *testing.T) {
		require.NoError(t, store.SetBalance(ctx, testWalletA, uint256.NewInt(10)))
		require.NoError(t, store.SetBalance(ctx, testWalletA, uint256.NewInt(20)))

		balance, err := store.Balance(ctx, testWalletA)
		require.NoError(t, err)
		assert.Equal(t, uint64(20), balance.Uint64())
	})

	t.Run("total supply defaults to zero and persists", func(t *testing.T) {
		supply, err := store.TotalSupply(ctx)
		require.NoError(t, err)
		assert.True(t, supply.IsZero())

		require.NoError(t, store.SetTotalSupply(ctx, uint256.NewInt(1_000)))
		supply, err = store.TotalSupply(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000), supply.Uint64())
	})
}

// =============================================================================
// Test: Pause switch
// =============================================================================

func testPauseSwitch(t *testing.T, store Store) {
	ctx := context.Background()

	paused, err := store.Paused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)

	require.NoError(t, store.SetPaused(ctx, true))
	paused, err = store.Paused(ctx)
	require.NoError(t, err)
	assert.True(t, paused)

	require.NoError(t, store.SetPaused(ctx, false))
	paused, err = store.Paused(ctx)
	require.NoError(t, err)
	assert.False(t, paused)
}

// =============================================================================
// Test: Transfer metadata
// =============================================================================

func testTransferMetadata(t *testing.T, store Store) {
	ctx := context.Background()
	now := testTime()

	t.Run("absent record reads as nil", func(t *testing.T) {
		meta, err := store.TransferMetadata(ctx, testWalletA)
		require.NoError(t, err)
		assert.Nil(t, meta)
	})

	t.Run("put and get round-trip", func(t *testing.T) {
		meta := &domain.TransferMetadata{
			Wallet:          testWalletB,
			CommitWindowEnd: now.Add(24 * time.Hour),
			WindowDuration:  24 * time.Hour,
			Originator:      testWalletA,
			TransferCount:   3,
			IntegrityTag:    domain.ComputeIntegrityTag(testWalletA, testWalletB, uint256.NewInt(100)),
			FeeCharged:      uint256.NewInt(5),
			Reversed:        false,
		}
		require.NoError(t, store.PutTransferMetadata(ctx, meta))

		got, err := store.TransferMetadata(ctx, testWalletB)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, meta.Wallet, got.Wallet)
		assert.True(t, got.CommitWindowEnd.Equal(meta.CommitWindowEnd))
		assert.Equal(t, meta.WindowDuration, got.WindowDuration)
		assert.Equal(t, meta.Originator, got.Originator)
		assert.Equal(t, meta.TransferCount, got.TransferCount)
		assert.Equal(t, meta.IntegrityTag, got.IntegrityTag)
		assert.Equal(t, meta.FeeCharged.Dec(), got.FeeCharged.Dec())
		assert.False(t, got.Reversed)
	})

	t.Run("put overwrites the wallet's record", func(t *testing.T) {
		meta := &domain.TransferMetadata{
			Wallet:          testWalletB,
			CommitWindowEnd: now.Add(2 * time.Hour),
			WindowDuration:  2 * time.Hour,
			Originator:      testWalletC,
			TransferCount:   4,
			IntegrityTag:    domain.ComputeIntegrityTag(testWalletC, testWalletB, uint256.NewInt(50)),
			FeeCharged:      uint256.NewInt(2),
			Reversed:        true,
		}
		require.NoError(t, store.PutTransferMetadata(ctx, meta))

		got, err := store.TransferMetadata(ctx, testWalletB)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, testWalletC, got.Originator)
		assert.Equal(t, uint64(4), got.TransferCount)
		assert.True(t, got.Reversed)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		require.NoError(t, store.DeleteTransferMetadata(ctx, testWalletB))
		got, err := store.TransferMetadata(ctx, testWalletB)
		require.NoError(t, err)
		assert.Nil(t, got)

		// Deleting an absent record is not an error.
		require.NoError(t, store.DeleteTransferMetadata(ctx, testWalletB))
	})
}

// =============================================================================
// Test: ListExpiredWindows
// =============================================================================

func testListExpiredWindows(t *testing.T, store Store) {
	ctx := context.Background()
	now := testTime()

	put := func(wallet common.Address, end time.Time, reversed bool) {
		require.NoError(t, store.PutTransferMetadata(ctx, &domain.TransferMetadata{
			Wallet:          wallet,
			CommitWindowEnd: end,
			WindowDuration:  time.Hour,
			Originator:      testWalletA,
			TransferCount:   1,
			FeeCharged:      uint256.NewInt(1),
			Reversed:        reversed,
		}))
	}

	put(testWalletA, now.Add(-2*time.Hour), false)
	put(testWalletB, now.Add(-time.Hour), false)
	put(testWalletC, now.Add(time.Hour), false)
	reversedWallet := common.HexToAddress("0x4444444444444444444444444444444444444444")
	put(reversedWallet, now.Add(-3*time.Hour), true)

	t.Run("returns elapsed non-reversed windows oldest first", func(t *testing.T) {
		wallets, err := store.ListExpiredWindows(ctx, now, 10)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{testWalletA, testWalletB}, wallets)
	})

	t.Run("limit caps the batch", func(t *testing.T) {
		wallets, err := store.ListExpiredWindows(ctx, now, 1)
		require.NoError(t, err)
		assert.Equal(t, []common.Address{testWalletA}, wallets)
	})

	t.Run("boundary instant counts as expired", func(t *testing.T) {
		wallets, err := store.ListExpiredWindows(ctx, now.Add(time.Hour), 10)
		require.NoError(t, err)
		assert.Contains(t, wallets, testWalletC)
	})
}

// =============================================================================
// Test: Risk profiles
// =============================================================================

func testRiskProfiles(t *testing.T, store Store) {
	ctx := context.Background()
	now := testTime()

	t.Run("absent profile reads as nil", func(t *testing.T) {
		profile, err := store.RiskProfile(ctx, testWalletA)
		require.NoError(t, err)
		assert.Nil(t, profile)
	})

	t.Run("round-trip without reversal time", func(t *testing.T) {
		require.NoError(t, store.PutRiskProfile(ctx, &domain.RiskProfile{
			Wallet:          testWalletA,
			CreationTime:    now,
			AbnormalTxCount: 2,
		}))

		got, err := store.RiskProfile(ctx, testWalletA)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, testWalletA, got.Wallet)
		assert.True(t, got.CreationTime.Equal(now))
		assert.Equal(t, uint64(2), got.AbnormalTxCount)
		assert.Nil(t, got.LastReversalTime)
	})

	t.Run("update round-trips counters and reversal time", func(t *testing.T) {
		reversalTime := now.Add(time.Hour)
		require.NoError(t, store.PutRiskProfile(ctx, &domain.RiskProfile{
			Wallet:           testWalletA,
			CreationTime:     now,
			ReversalCount:    1,
			LastReversalTime: &reversalTime,
			AbnormalTxCount:  1,
		}))

		got, err := store.RiskProfile(ctx, testWalletA)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, uint64(1), got.ReversalCount)
		assert.Equal(t, uint64(1), got.AbnormalTxCount)
		require.NotNil(t, got.LastReversalTime)
		assert.True(t, got.LastReversalTime.Equal(reversalTime))
	})
}

// =============================================================================
// Test: Incentive credits
// =============================================================================

func testCredits(t *testing.T, store Store) {
	ctx := context.Background()
	now := testTime()

	credits, err := store.Credits(ctx, testWalletA)
	require.NoError(t, err)
	assert.Nil(t, credits)

	require.NoError(t, store.PutCredits(ctx, &domain.IncentiveCredits{
		Wallet:      testWalletA,
		Amount:      uint256.NewInt(500),
		LastUpdated: now,
	}))

	credits, err = store.Credits(ctx, testWalletA)
	require.NoError(t, err)
	require.NotNil(t, credits)
	assert.Equal(t, uint64(500), credits.Amount.Uint64())
	assert.True(t, credits.LastUpdated.Equal(now))

	require.NoError(t, store.PutCredits(ctx, &domain.IncentiveCredits{
		Wallet:      testWalletA,
		Amount:      uint256.NewInt(750),
		LastUpdated: now.Add(time.Minute),
	}))

	credits, err = store.Credits(ctx, testWalletA)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), credits.Amount.Uint64())
}

// =============================================================================
// Test: Rolling averages
// =============================================================================

func testRollingAverages(t *testing.T, store Store) {
	ctx := context.Background()
	now := testTime()

	avg, err := store.RollingAverage(ctx, testWalletA)
	require.NoError(t, err)
	assert.Nil(t, avg)

	require.NoError(t, store.PutRollingAverage(ctx, &domain.RollingAverage{
		Wallet:      testWalletA,
		TotalAmount: uint256.NewInt(300),
		Count:       3,
		LastUpdated: now,
	}))

	avg, err = store.RollingAverage(ctx, testWalletA)
	require.NoError(t, err)
	require.NotNil(t, avg)
	assert.Equal(t, uint64(300), avg.TotalAmount.Uint64())
	assert.Equal(t, uint64(3), avg.Count)
	assert.Equal(t, uint64(100), avg.Average().Uint64())
	assert.True(t, avg.LastUpdated.Equal(now))
}

// =============================================================================
// Test: Pair counters
// =============================================================================

func testPairCounters(t *testing.T, store Store) {
	ctx := context.Background()

	count, err := store.PairCount(ctx, testWalletA, testWalletB)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, store.SetPairCount(ctx, testWalletA, testWalletB, 3))

	count, err = store.PairCount(ctx, testWalletA, testWalletB)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)

	// The counter is directional.
	count, err = store.PairCount(ctx, testWalletB, testWalletA)
	require.NoError(t, err)
	assert.Zero(t, count)
}

// =============================================================================
// Test: Liabilities
// =============================================================================

func testLiabilities(t *testing.T, store Store) {
	ctx := context.Background()

	liability, err := store.Liability(ctx, testWalletA, testWalletB)
	require.NoError(t, err)
	assert.True(t, liability.IsZero())

	require.NoError(t, store.SetLiability(ctx, testWalletA, testWalletB, uint256.NewInt(100)))
	require.NoError(t, store.SetLiability(ctx, testWalletB, testWalletA, uint256.NewInt(40)))

	ab, err := store.Liability(ctx, testWalletA, testWalletB)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), ab.Uint64())

	ba, err := store.Liability(ctx, testWalletB, testWalletA)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), ba.Uint64())
}

// =============================================================================
// Test: Transact
// =============================================================================

func testTransact(t *testing.T, store Store) {
	ctx := context.Background()
	errBoom := errors.New("boom")

	t.Run("commits on success", func(t *testing.T) {
		err := store.Transact(ctx, func(st Store) error {
			if err := st.SetBalance(ctx, testWalletA, uint256.NewInt(100)); err != nil {
				return err
			}
			return st.SetPairCount(ctx, testWalletA, testWalletB, 1)
		})
		require.NoError(t, err)

		balance, err := store.Balance(ctx, testWalletA)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), balance.Uint64())
	})

	t.Run("rolls back every write on failure", func(t *testing.T) {
		err := store.Transact(ctx, func(st Store) error {
			if err := st.SetBalance(ctx, testWalletA, uint256.NewInt(999)); err != nil {
				return err
			}
			if err := st.SetLiability(ctx, testWalletA, testWalletB, uint256.NewInt(999)); err != nil {
				return err
			}
			return errBoom
		})
		assert.ErrorIs(t, err, errBoom)

		balance, err := store.Balance(ctx, testWalletA)
		require.NoError(t, err)
		assert.Equal(t, uint64(100), balance.Uint64())

		liability, err := store.Liability(ctx, testWalletA, testWalletB)
		require.NoError(t, err)
		assert.True(t, liability.IsZero())
	})
}

// RunStoreTests runs the full store suite against a backend.
func RunStoreTests(t *testing.T, initDB func(t *testing.T) Store, cleanupDB func(t *testing.T)) {
	tests := []struct {
		name string
		fn   func(*testing.T, Store)
	}{
		{"Balances", testBalances},
		{"PauseSwitch", testPauseSwitch},
		{"TransferMetadata", testTransferMetadata},
		{"ListExpiredWindows", testListExpiredWindows},
		{"RiskProfiles", testRiskProfiles},
		{"Credits", testCredits},
		{"RollingAverages", testRollingAverages},
		{"PairCounters", testPairCounters},
		{"Liabilities", testLiabilities},
		{"Transact", testTransact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := initDB(t)
			defer cleanupDB(t)
			tt.fn(t, store)
		})
	}
}
