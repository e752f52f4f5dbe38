package store

import (
	"context"
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initMemoryTestDB(t *testing.T) Store {
	return NewMemoryStore()
}

func cleanupMemoryTestDB(t *testing.T) {
	// Each test gets a fresh store; nothing to clean up.
}

// TestMemoryStore runs all store tests against the in-memory backend.
func TestMemoryStore(t *testing.T) {
	RunStoreTests(t, initMemoryTestDB, cleanupMemoryTestDB)
}

// TestMemoryStore_SnapshotIsolation checks that a failed transaction restores
// state written before it started, including writes from earlier transactions.
func TestMemoryStore_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	errBoom := errors.New("boom")

	require.NoError(t, store.Transact(ctx, func(st Store) error {
		return st.SetBalance(ctx, testWalletA, uint256.NewInt(50))
	}))

	err := store.Transact(ctx, func(st Store) error {
		if err := st.SetBalance(ctx, testWalletA, uint256.NewInt(75)); err != nil {
			return err
		}
		// Reads inside the transaction see the uncommitted write.
		balance, err := st.Balance(ctx, testWalletA)
		if err != nil {
			return err
		}
		assert.Equal(t, uint64(75), balance.Uint64())
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	balance, err := store.Balance(ctx, testWalletA)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), balance.Uint64())
}
