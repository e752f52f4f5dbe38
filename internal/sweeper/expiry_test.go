package sweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang/mock/gomock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/logger"
	"github.com/jessedh/t3-ledger/internal/mocks"
	"github.com/jessedh/t3-ledger/internal/store"
	"github.com/jessedh/t3-ledger/internal/sweeper"
)

var (
	sweepWalletA = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	sweepWalletB = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

// testSweeperMocks contains everything needed to exercise the sweeper
type testSweeperMocks struct {
	ctrl      *gomock.Controller
	store     store.Store
	finalizer *mocks.MockFinalizer
	clock     *mocks.MockClock
	sweeper   sweeper.Sweeper
}

// setupTestSweeper creates the mocks and sweeper for testing
func setupTestSweeper(t *testing.T) *testSweeperMocks {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: true,
	})
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	ctrl := gomock.NewController(t)

	tm := &testSweeperMocks{
		ctrl:      ctrl,
		store:     store.NewMemoryStore(),
		finalizer: mocks.NewMockFinalizer(ctrl),
		clock:     mocks.NewMockClock(ctrl),
	}

	config := &sweeper.ExpirySweeperConfig{
		Interval:       time.Minute,
		BatchSize:      10,
		WorkerPoolSize: 2,
	}

	tm.sweeper = sweeper.NewExpirySweeper(config, tm.store, tm.finalizer, tm.clock)

	return tm
}

// tearDownTestSweeper cleans up the test mocks
func tearDownTestSweeper(mocks *testSweeperMocks) {
	mocks.ctrl.Finish()
}

// expectSweepClock wires the standard clock expectations for a sweep run.
// After returns a channel that fires after a brief delay so Stop gets a
// chance to execute between cycles.
func expectSweepClock(tm *testSweeperMocks, now time.Time) {
	tm.clock.EXPECT().Now().Return(now).AnyTimes()
	tm.clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()
	tm.clock.EXPECT().After(gomock.Any()).DoAndReturn(func(d time.Duration) <-chan time.Time {
		ch := make(chan time.Time, 1)
		go func() {
			time.Sleep(50 * time.Millisecond)
			ch <- time.Now()
		}()
		return ch
	}).AnyTimes()
}

// seedExpiredWindow writes a non-reversed metadata record whose window
// elapsed before now.
func seedExpiredWindow(t *testing.T, st store.Store, wallet common.Address, now time.Time) {
	t.Helper()
	require.NoError(t, st.PutTransferMetadata(context.Background(), &domain.TransferMetadata{
		Wallet:          wallet,
		CommitWindowEnd: now.Add(-time.Minute),
		WindowDuration:  24 * time.Hour,
		Originator:      sweepWalletB,
		TransferCount:   1,
		FeeCharged:      uint256.NewInt(1000),
	}))
}

func TestExpirySweeper_Name(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	assert.Equal(t, "window-expiry-sweeper", mocks.sweeper.Name())
}

func TestExpirySweeper_FinalizesExpiredWindows(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()
	now := time.Now()
	expectSweepClock(mocks, now)

	seedExpiredWindow(t, mocks.store, sweepWalletA, now)
	seedExpiredWindow(t, mocks.store, sweepWalletB, now)

	// Finalization deletes the record, so the next cycle finds nothing.
	finalize := func(ctx context.Context, wallet common.Address) error {
		return mocks.store.DeleteTransferMetadata(ctx, wallet)
	}
	mocks.finalizer.EXPECT().
		FinalizeExpiry(gomock.Any(), sweepWalletA).
		DoAndReturn(finalize).
		Times(1)
	mocks.finalizer.EXPECT().
		FinalizeExpiry(gomock.Any(), sweepWalletB).
		DoAndReturn(finalize).
		Times(1)

	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = mocks.sweeper.Stop(ctx)
	}()

	err := mocks.sweeper.Start(ctx)
	require.NoError(t, err)

	meta, err := mocks.store.TransferMetadata(ctx, sweepWalletA)
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestExpirySweeper_SkipsRacedWindows(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()
	now := time.Now()
	expectSweepClock(mocks, now)

	seedExpiredWindow(t, mocks.store, sweepWalletA, now)

	// A manual expiry call beat the sweeper to this wallet. The sweeper
	// counts it as skipped and keeps running.
	mocks.finalizer.EXPECT().
		FinalizeExpiry(gomock.Any(), sweepWalletA).
		DoAndReturn(func(ctx context.Context, wallet common.Address) error {
			if err := mocks.store.DeleteTransferMetadata(ctx, wallet); err != nil {
				return err
			}
			return domain.ErrNoActiveWindow
		}).
		Times(1)

	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = mocks.sweeper.Stop(ctx)
	}()

	err := mocks.sweeper.Start(ctx)
	require.NoError(t, err)
}

func TestExpirySweeper_FinalizerFailure_HandledGracefully(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()
	now := time.Now()
	expectSweepClock(mocks, now)

	seedExpiredWindow(t, mocks.store, sweepWalletA, now)

	mocks.finalizer.EXPECT().
		FinalizeExpiry(gomock.Any(), sweepWalletA).
		DoAndReturn(func(ctx context.Context, wallet common.Address) error {
			if err := mocks.store.DeleteTransferMetadata(ctx, wallet); err != nil {
				return err
			}
			return errors.New("store connection lost")
		}).
		Times(1)

	go func() {
		time.Sleep(200 * time.Millisecond)
		_ = mocks.sweeper.Stop(ctx)
	}()

	// Sweeper continues despite finalization errors.
	err := mocks.sweeper.Start(ctx)
	require.NoError(t, err)
}

func TestExpirySweeper_NoExpiredWindows(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()
	expectSweepClock(mocks, time.Now())

	// Empty store, no finalizer calls expected.

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = mocks.sweeper.Stop(ctx)
	}()

	err := mocks.sweeper.Start(ctx)
	require.NoError(t, err)
}

func TestExpirySweeper_LiveWindowNotSwept(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()
	now := time.Now()
	expectSweepClock(mocks, now)

	// Window still open, must not reach the finalizer.
	require.NoError(t, mocks.store.PutTransferMetadata(ctx, &domain.TransferMetadata{
		Wallet:          sweepWalletA,
		CommitWindowEnd: now.Add(time.Hour),
		WindowDuration:  24 * time.Hour,
		Originator:      sweepWalletB,
		TransferCount:   1,
		FeeCharged:      uint256.NewInt(1000),
	}))

	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = mocks.sweeper.Stop(ctx)
	}()

	err := mocks.sweeper.Start(ctx)
	require.NoError(t, err)
}

func TestExpirySweeper_StopBeforeStart(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	// Stop before starting should not error
	err := mocks.sweeper.Stop(context.Background())
	require.NoError(t, err)
}

func TestExpirySweeper_DoubleStart(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	ctx := context.Background()
	expectSweepClock(mocks, time.Now())

	errChan := make(chan error, 1)
	go func() {
		errChan <- mocks.sweeper.Start(ctx)
	}()

	// Give first start time to begin
	time.Sleep(50 * time.Millisecond)

	// Try to start again, should fail
	err := mocks.sweeper.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	_ = mocks.sweeper.Stop(ctx)
	<-errChan
}

func TestExpirySweeper_ContextCancellation(t *testing.T) {
	mocks := setupTestSweeper(t)
	defer tearDownTestSweeper(mocks)

	ctx, cancel := context.WithCancel(context.Background())
	expectSweepClock(mocks, time.Now())

	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := mocks.sweeper.Start(ctx)
	require.NoError(t, err)
}
