package domain_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jessedh/t3-ledger/internal/domain"
)

func TestParseAmount(t *testing.T) {
	v, err := domain.ParseAmount("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, domain.OneToken().Dec(), v.Dec())

	_, err = domain.ParseAmount("")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = domain.ParseAmount("12x4")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = domain.ParseAmount("-5")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	// 2^256 does not fit.
	_, err = domain.ParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", domain.FormatAmount(nil))
	assert.Equal(t, "0", domain.FormatAmount(uint256.NewInt(0)))
	assert.Equal(t, "42", domain.FormatAmount(uint256.NewInt(42)))
}

func TestCheckedArithmetic(t *testing.T) {
	maxUint256 := new(uint256.Int).Not(uint256.NewInt(0))

	sum, err := domain.CheckedAdd(uint256.NewInt(2), uint256.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), sum.Uint64())

	_, err = domain.CheckedAdd(maxUint256, uint256.NewInt(1))
	assert.ErrorIs(t, err, domain.ErrArithmetic)

	_, err = domain.CheckedMul(maxUint256, uint256.NewInt(2))
	assert.ErrorIs(t, err, domain.ErrArithmetic)

	_, err = domain.CheckedSub(uint256.NewInt(1), uint256.NewInt(2))
	assert.ErrorIs(t, err, domain.ErrArithmetic)
}

func TestComputeIntegrityTag(t *testing.T) {
	sender := common.HexToAddress("0x0000000000000000000000000000000000000001")
	recipient := common.HexToAddress("0x0000000000000000000000000000000000000002")

	tag := domain.ComputeIntegrityTag(sender, recipient, uint256.NewInt(100))
	assert.Equal(t, tag, domain.ComputeIntegrityTag(sender, recipient, uint256.NewInt(100)))

	// Any change to a component produces a different commitment.
	assert.NotEqual(t, tag, domain.ComputeIntegrityTag(recipient, sender, uint256.NewInt(100)))
	assert.NotEqual(t, tag, domain.ComputeIntegrityTag(sender, recipient, uint256.NewInt(101)))
}

func TestParamsNormalize(t *testing.T) {
	p := domain.Params{}.Normalize()
	assert.Equal(t, uint64(500), p.MaxFeePercentBP)
	assert.Equal(t, "1000000000000000", p.MinFeeFloor.Dec())
	assert.Equal(t, 24*time.Hour, p.DefaultWindow)
	assert.Equal(t, time.Hour, p.MinWindow)
	assert.Equal(t, 72*time.Hour, p.MaxWindow)
	assert.Equal(t, domain.DefaultTreasury, p.Treasury)

	// Explicit values survive.
	custom := domain.Params{MaxFeePercentBP: 100, DefaultWindow: time.Hour}.Normalize()
	assert.Equal(t, uint64(100), custom.MaxFeePercentBP)
	assert.Equal(t, time.Hour, custom.DefaultWindow)
}

func TestTransferMetadataLive(t *testing.T) {
	now := time.Now()

	var missing *domain.TransferMetadata
	assert.False(t, missing.Live(now))

	meta := &domain.TransferMetadata{CommitWindowEnd: now.Add(time.Hour)}
	assert.True(t, meta.Live(now))
	assert.False(t, meta.Live(now.Add(time.Hour)))
	assert.False(t, meta.Live(now.Add(2*time.Hour)))

	meta.Reversed = true
	assert.False(t, meta.Live(now))
}

func TestRollingAverage(t *testing.T) {
	now := time.Now()

	var missing *domain.RollingAverage
	assert.Nil(t, missing.Average())
	assert.True(t, missing.Stale(now, time.Hour))

	avg := &domain.RollingAverage{
		TotalAmount: uint256.NewInt(30),
		Count:       3,
		LastUpdated: now,
	}
	assert.Equal(t, uint64(10), avg.Average().Uint64())
	assert.False(t, avg.Stale(now.Add(time.Hour), 2*time.Hour))
	assert.True(t, avg.Stale(now.Add(3*time.Hour), 2*time.Hour))
}

func TestLedgerEventValid(t *testing.T) {
	from := common.HexToAddress("0x0000000000000000000000000000000000000001")
	to := common.HexToAddress("0x0000000000000000000000000000000000000002")
	now := time.Now()

	transferEvent := &domain.LedgerEvent{
		ID:        uuid.New(),
		Type:      domain.EventTypeTransferWithFee,
		Timestamp: now,
		From:      &from,
		To:        &to,
		Amount:    "100",
	}
	assert.True(t, transferEvent.Valid())

	transferEvent.Amount = ""
	assert.False(t, transferEvent.Valid())

	walletEvent := &domain.LedgerEvent{
		ID:        uuid.New(),
		Type:      domain.EventTypeWindowExpired,
		Timestamp: now,
		Wallet:    &from,
	}
	assert.True(t, walletEvent.Valid())

	walletEvent.Wallet = nil
	assert.False(t, walletEvent.Valid())

	assert.False(t, (&domain.LedgerEvent{Type: domain.EventTypeWindowExpired}).Valid())
	assert.False(t, (&domain.LedgerEvent{ID: uuid.New(), Timestamp: now, Type: "unknown"}).Valid())
}
