package fee

import (
	"github.com/holiman/uint256"

	"github.com/jessedh/t3-ledger/internal/domain"
)

// initialRateMultiplier is the fee multiplier of the first bracket [0,1):
// 1000x the amount, i.e. 100,000% in basis-point terms. Each subsequent
// order-of-magnitude bracket carries one tenth of the previous rate.
const initialRateMultiplier = 1000

// Calculator computes the tiered transfer fee. The amount is partitioned
// into consecutive brackets at each order of magnitude of one whole token;
// the bracket contributions are summed. Effective fee percentage falls
// steeply as the amount grows while the absolute fee keeps climbing slowly.
//
// The calculator is pure: no state, no side effects.
type Calculator struct{}

// NewCalculator creates a tiered fee calculator.
func NewCalculator() Calculator {
	return Calculator{}
}

// Fee returns the tiered fee for a gross amount in smallest units. An
// amount of zero yields a zero fee. The rate is carried at 10^18 fixed-point
// resolution so sub-unit rates (brackets past 1000 tokens) keep contributing
// until truncating division drives the rate to zero.
func (Calculator) Fee(amount *uint256.Int) (*uint256.Int, error) {
	total := uint256.NewInt(0)
	if amount == nil || amount.IsZero() {
		return total, nil
	}

	wad := domain.OneToken()
	ten := uint256.NewInt(10)

	// rate is wad-scaled: contribution = portion * rate / wad.
	rate := new(uint256.Int).Mul(uint256.NewInt(initialRateMultiplier), wad)

	remaining := amount.Clone()
	low := uint256.NewInt(0)
	high := domain.OneToken()

	for !remaining.IsZero() && !rate.IsZero() {
		span := new(uint256.Int).Sub(high, low)
		portion := remaining.Clone()
		if portion.Gt(span) {
			portion.Set(span)
		}

		contrib, err := bracketContribution(portion, rate, wad)
		if err != nil {
			return nil, err
		}
		total, err = domain.CheckedAdd(total, contrib)
		if err != nil {
			return nil, err
		}

		remaining.Sub(remaining, portion)
		if remaining.IsZero() {
			break
		}

		low.Set(high)
		rate.Div(rate, ten)

		next, overflow := new(uint256.Int).MulOverflow(high, ten)
		if overflow {
			// The next bracket ceiling does not fit in 256 bits: charge the
			// remainder as a single final bracket at the advanced rate.
			contrib, err := bracketContribution(remaining, rate, wad)
			if err != nil {
				return nil, err
			}
			total, err = domain.CheckedAdd(total, contrib)
			if err != nil {
				return nil, err
			}
			break
		}
		high.Set(next)
	}

	return total, nil
}

func bracketContribution(portion, rate, wad *uint256.Int) (*uint256.Int, error) {
	scaled, err := domain.CheckedMul(portion, rate)
	if err != nil {
		return nil, err
	}
	return scaled.Div(scaled, wad), nil
}
