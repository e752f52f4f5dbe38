package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/jessedh/t3-ledger/internal/adapter"
	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/logger"
	"github.com/jessedh/t3-ledger/internal/store"
)

// Finalizer processes a single elapsed reversal window.
//
//go:generate mockgen -source=expiry.go -destination=../mocks/finalizer.go -package=mocks -mock_names=Finalizer=MockFinalizer
type Finalizer interface {
	FinalizeExpiry(ctx context.Context, wallet common.Address) error
}

// ExpirySweeperConfig holds configuration for the window-expiry sweeper
type ExpirySweeperConfig struct {
	Interval       time.Duration // Time to sleep between sweep cycles
	BatchSize      int           // Wallets to process per cycle
	WorkerPoolSize int           // Concurrent workers
}

// expirySweeper scans for elapsed reversal windows and runs loyalty
// finalization on each. Finalization itself is serialized by the transfer
// service; the pool only fans out the calls.
type expirySweeper struct {
	config    *ExpirySweeperConfig
	store     store.Store
	finalizer Finalizer
	pool      pond.Pool
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewExpirySweeper creates a new window-expiry sweeper
func NewExpirySweeper(
	config *ExpirySweeperConfig,
	st store.Store,
	finalizer Finalizer,
	clock adapter.Clock,
) Sweeper {
	return &expirySweeper{
		config:    config,
		store:     st,
		finalizer: finalizer,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *expirySweeper) Name() string {
	return "window-expiry-sweeper"
}

// Start begins the sweeper's main loop
func (s *expirySweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting window-expiry sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
	)

	// Create worker pool
	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Window-expiry sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			s.cleanup()
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Window-expiry sweeper stop requested")
			s.cleanup()
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
		}
	}
}

// cleanup stops the worker pool and waits for tasks to complete
func (s *expirySweeper) cleanup() {
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *expirySweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping window-expiry sweeper")

	// Signal stop to the main loop
	close(s.stopChan)

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Window-expiry sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Window-expiry sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle runs a single sweep cycle
func (s *expirySweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()

	wallets, err := s.listExpiredWithRetry(ctx, startTime)
	if err != nil {
		return fmt.Errorf("failed to list expired windows: %w", err)
	}

	if len(wallets) == 0 {
		if !s.sleep(ctx, s.config.Interval) {
			return ctx.Err() // Context canceled during sleep
		}
		return nil
	}

	logger.InfoCtx(ctx, "Found expired windows", zap.Int("count", len(wallets)))

	var finalized, skipped, failed atomic.Int32
	for _, wallet := range wallets {
		s.pool.Submit(func() {
			err := s.finalizer.FinalizeExpiry(ctx, wallet)
			switch {
			case err == nil:
				finalized.Add(1)
			case errors.Is(err, domain.ErrNoActiveWindow), errors.Is(err, domain.ErrWindowNotExpired):
				// Raced by a manual expiry call or a fresh inbound transfer.
				skipped.Add(1)
			default:
				failed.Add(1)
				logger.ErrorCtx(ctx, err, zap.String("wallet", wallet.Hex()))
			}
		})
	}

	// Wait for all finalizations to complete
	s.pool.StopAndWait()

	// Recreate pool for next cycle
	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("found", len(wallets)),
		zap.Int32("finalized", finalized.Load()),
		zap.Int32("skipped", skipped.Load()),
		zap.Int32("failed", failed.Load()),
	)

	if !s.sleep(ctx, s.config.Interval) {
		return ctx.Err() // Context canceled during sleep
	}
	return nil
}

// listExpiredWithRetry queries for elapsed windows with exponential backoff
// so a transient store error does not kill the cycle.
func (s *expirySweeper) listExpiredWithRetry(ctx context.Context, now time.Time) ([]common.Address, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 2 * time.Minute
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5 // Add jitter to prevent thundering herd

	var wallets []common.Address
	operation := func() error {
		var err error
		wallets, err = s.store.ListExpiredWindows(ctx, now, s.config.BatchSize)
		return err
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Expired-window query failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notifyOnError); err != nil {
		return nil, fmt.Errorf("failed after %d attempts: %w", attemptCount, err)
	}
	return wallets, nil
}

// sleep sleeps for the given duration but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted by context
func (s *expirySweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true // Sleep completed
	case <-ctx.Done():
		return false // Interrupted by context cancellation
	}
}
