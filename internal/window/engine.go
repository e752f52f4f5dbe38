package window

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/store"
)

const (
	// familiarityDiscountPct is the window reduction per prior transfer
	// between the same ordered pair, in percent.
	familiarityDiscountPct = 10
	// maxFamiliarityPct caps the total familiarity reduction.
	maxFamiliarityPct = 90
	// anomalyMultiple is how far above the sender's rolling average an
	// amount must be to trigger the anomaly doubling.
	anomalyMultiple = 10
)

// Engine computes the adaptive reversal-window duration for a transfer:
// shortened by sender→recipient familiarity, doubled when the amount is
// anomalously large against the sender's rolling average, then clamped.
type Engine struct {
	params domain.Params
}

// NewEngine creates an adaptive window engine.
func NewEngine(params domain.Params) *Engine {
	return &Engine{params: params}
}

// Duration computes the window for a transfer of amount from sender.
// priorTransfers must be the pair counter value from before this transfer:
// the current transfer does not count toward its own discount.
func (e *Engine) Duration(ctx context.Context, st store.Store, sender common.Address, priorTransfers uint64, amount *uint256.Int, now time.Time) (time.Duration, error) {
	d := e.params.DefaultWindow

	reduction := priorTransfers * familiarityDiscountPct
	if reduction > maxFamiliarityPct {
		reduction = maxFamiliarityPct
	}
	d = d * time.Duration(100-reduction) / 100

	anomalous, err := e.isAnomalous(ctx, st, sender, amount, now)
	if err != nil {
		return 0, err
	}
	if anomalous {
		d *= 2
	}

	if d < e.params.MinWindow {
		d = e.params.MinWindow
	}
	if d > e.params.MaxWindow {
		d = e.params.MaxWindow
	}
	return d, nil
}

// isAnomalous reports whether amount exceeds anomalyMultiple times the
// sender's live rolling average. A stale or empty average carries no signal.
func (e *Engine) isAnomalous(ctx context.Context, st store.Store, sender common.Address, amount *uint256.Int, now time.Time) (bool, error) {
	avg, err := st.RollingAverage(ctx, sender)
	if err != nil {
		return false, err
	}
	if avg.Stale(now, e.params.AvgInactivityReset) {
		return false, nil
	}
	mean := avg.Average()
	if mean == nil {
		return false, nil
	}
	threshold, err := domain.CheckedMul(mean, uint256.NewInt(anomalyMultiple))
	if err != nil {
		return false, err
	}
	return amount.Gt(threshold), nil
}

// RecordInbound folds a received gross amount into the wallet's rolling
// average, resetting first when the inactivity gap has elapsed.
func (e *Engine) RecordInbound(ctx context.Context, st store.Store, wallet common.Address, amount *uint256.Int, now time.Time) error {
	avg, err := st.RollingAverage(ctx, wallet)
	if err != nil {
		return err
	}
	if avg.Stale(now, e.params.AvgInactivityReset) {
		avg = &domain.RollingAverage{
			Wallet:      wallet,
			TotalAmount: uint256.NewInt(0),
		}
	}

	avg.TotalAmount, err = domain.CheckedAdd(avg.TotalAmount, amount)
	if err != nil {
		return err
	}
	avg.Count++
	avg.LastUpdated = now

	return st.PutRollingAverage(ctx, avg)
}
