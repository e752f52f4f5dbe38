package fee_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessedh/t3-ledger/internal/domain"
	"github.com/jessedh/t3-ledger/internal/fee"
)

// tokens converts a whole-token count into smallest units.
func tokens(n uint64) *uint256.Int {
	v := uint256.NewInt(n)
	return v.Mul(v, domain.OneToken())
}

// centiTokens converts hundredths of a token into smallest units.
func centiTokens(n uint64) *uint256.Int {
	v := uint256.NewInt(n)
	v.Mul(v, domain.OneToken())
	return v.Div(v, uint256.NewInt(100))
}

func TestFee_TieredSchedule(t *testing.T) {
	calc := fee.NewCalculator()

	tests := []struct {
		name   string
		amount *uint256.Int
		want   *uint256.Int
	}{
		{"0.01 tokens", centiTokens(1), tokens(10)},
		{"0.10 tokens", centiTokens(10), tokens(100)},
		{"1.00 tokens", tokens(1), tokens(1_000)},
		{"10.00 tokens", tokens(10), tokens(1_900)},
		{"100.00 tokens", tokens(100), tokens(2_800)},
		{"1000.00 tokens", tokens(1_000), tokens(3_700)},
		{"10000.00 tokens", tokens(10_000), tokens(4_600)},
		{"100000.00 tokens", tokens(100_000), tokens(5_500)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Fee(tt.amount)
			require.NoError(t, err)
			assert.Equal(t, tt.want.Dec(), got.Dec())
		})
	}
}

func TestFee_ZeroAmount(t *testing.T) {
	calc := fee.NewCalculator()

	got, err := calc.Fee(uint256.NewInt(0))
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	got, err = calc.Fee(nil)
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestFee_OneSmallestUnit(t *testing.T) {
	calc := fee.NewCalculator()

	// 1 unit in the first bracket at 1000x yields 1000 units.
	got, err := calc.Fee(uint256.NewInt(1))
	require.NoError(t, err)
	assert.Equal(t, uint256.NewInt(1_000).Dec(), got.Dec())
}

func TestFee_MonotoneInAmount(t *testing.T) {
	calc := fee.NewCalculator()

	smaller, err := calc.Fee(tokens(5))
	require.NoError(t, err)
	larger, err := calc.Fee(tokens(50))
	require.NoError(t, err)
	assert.True(t, smaller.Lt(larger))
}

func TestFee_HugeAmountDoesNotError(t *testing.T) {
	calc := fee.NewCalculator()

	// Near the top of the 256-bit range the bracket-ceiling multiplication
	// overflows; the remainder is charged as a single final bracket.
	huge := new(uint256.Int).Sub(
		new(uint256.Int).Lsh(uint256.NewInt(1), 255),
		uint256.NewInt(1),
	)
	got, err := calc.Fee(huge)
	require.NoError(t, err)
	assert.False(t, got.IsZero())
}

func TestFee_EffectivePercentageRegresses(t *testing.T) {
	calc := fee.NewCalculator()

	// fee(100k) / 100k is far below fee(1) / 1 even though the absolute
	// fee keeps climbing.
	feeSmall, err := calc.Fee(tokens(1))
	require.NoError(t, err)
	feeLarge, err := calc.Fee(tokens(100_000))
	require.NoError(t, err)

	// 1000x vs 0.055x effective.
	ratioSmall := new(uint256.Int).Div(feeSmall, tokens(1))
	assert.Equal(t, uint64(1_000), ratioSmall.Uint64())
	assert.True(t, feeLarge.Lt(tokens(100_000)))
}
