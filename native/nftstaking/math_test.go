package nftstaking

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccumulatorValueAt(t *testing.T) {
	v, err := AccumulatorValueAt(100, 50, 3, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(220), v)

	v, err = AccumulatorValueAt(7, 10, 3, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(7), v)

	_, err = AccumulatorValueAt(0, 9, 3, 10)
	require.ErrorIs(t, err, ErrInvalidTimeDiff)

	_, err = AccumulatorValueAt(0, math.MaxInt64, math.MaxUint64, 0)
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = AccumulatorValueAt(math.MaxUint64, 1, 1, 0)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestAccumulatorMonotonic(t *testing.T) {
	prev := uint64(0)
	for ts := int64(0); ts <= 1000; ts += 37 {
		v, err := AccumulatorValueAt(5, ts, 11, 0)
		require.NoError(t, err)
		require.GreaterOrEqual(t, v, prev)
		prev = v
	}
}

func TestEligibilityIsStrict(t *testing.T) {
	pos := &Position{LockedAt: 100}

	eligible, end, err := EligibilityAndEffectiveEnd(160, 1000, 60, pos)
	require.NoError(t, err)
	require.False(t, eligible)
	require.Equal(t, int64(160), end)

	eligible, end, err = EligibilityAndEffectiveEnd(161, 1000, 60, pos)
	require.NoError(t, err)
	require.True(t, eligible)
	require.Equal(t, int64(161), end)

	eligible, end, err = EligibilityAndEffectiveEnd(5000, 1000, 60, pos)
	require.NoError(t, err)
	require.True(t, eligible)
	require.Equal(t, int64(1000), end)

	eligible, _, err = EligibilityAndEffectiveEnd(5000, 150, 60, pos)
	require.NoError(t, err)
	require.False(t, eligible)

	_, _, err = EligibilityAndEffectiveEnd(0, 0, math.MaxInt64, &Position{LockedAt: 1})
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, _, err = EligibilityAndEffectiveEnd(0, 0, 0, nil)
	require.ErrorIs(t, err, ErrPositionNotFound)
}

func TestDeltaOwed(t *testing.T) {
	delta, value, err := DeltaOwed(1000, 200, 1500, 10, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(2000), value)
	require.Equal(t, uint64(500), delta)

	_, _, err = DeltaOwed(1000, 100, 1500, 10, 100)
	require.ErrorIs(t, err, ErrArithmeticUnderflow)
}

func TestRequiredFundingToExtend(t *testing.T) {
	cfg := &Config{MaxCapacity: 2, LockedCount: 1, TotalSnapshotSum: 0}
	// Folded at 5000, rate 20 until 1000 from 500.
	required, err := RequiredFundingToExtend(20, 500, 1000, 5000, cfg)
	require.NoError(t, err)
	require.Equal(t, uint64(25000), required)

	cfg = &Config{MaxCapacity: 3, LockedCount: 2, TotalSnapshotSum: 300}
	required, err = RequiredFundingToExtend(1, 0, 100, 200, cfg)
	require.NoError(t, err)
	require.Equal(t, uint64(100*3+200*2-300), required)

	_, err = RequiredFundingToExtend(1, 0, 100, 0, &Config{MaxCapacity: 1, TotalSnapshotSum: 500})
	require.ErrorIs(t, err, ErrArithmeticUnderflow)
}

func TestRefundableOnCloseExample(t *testing.T) {
	cfg := &Config{
		RatePerSecond: 10,
		RateSetAt:     0,
		HorizonEnd:    1000,
		MaxCapacity:   5,
		LockedCount:   2,
	}
	refund, err := RefundableOnClose(500, 50000, 0, cfg)
	require.NoError(t, err)
	require.Equal(t, uint64(40000), refund)

	refund, err = RefundableOnClose(500, 5_000_000, 2, cfg)
	require.NoError(t, err)
	require.Equal(t, uint64(4_000_000), refund)

	_, err = RefundableOnClose(500, 9999, 0, cfg)
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestTotalEmissionAndScale(t *testing.T) {
	total, err := TotalEmission(10, 0, 1000, 5)
	require.NoError(t, err)
	require.Equal(t, uint64(50000), total)

	_, err = TotalEmission(10, 10, 0, 5)
	require.ErrorIs(t, err, ErrInvalidTimeDiff)

	scaled, err := Scale(50000, 6)
	require.NoError(t, err)
	require.Equal(t, uint64(50_000_000_000), scaled)

	_, err = Scale(1, 20)
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	_, err = Scale(math.MaxUint64/10+1, 1)
	require.ErrorIs(t, err, ErrArithmeticOverflow)
}

func TestCheckedChainKeepsFirstError(t *testing.T) {
	_, err := u64(1).sub(2).add(5).result()
	require.ErrorIs(t, err, ErrArithmeticUnderflow)

	_, err = u64(math.MaxUint64).add(1).sub(10).result()
	require.ErrorIs(t, err, ErrArithmeticOverflow)

	v, err := u64(6).mul(7).sub(2).add(10).result()
	require.NoError(t, err)
	require.Equal(t, uint64(50), v)
}

func TestCheckConservation(t *testing.T) {
	cfg := &Config{RatePerSecond: 1, MaxCapacity: 3, LockedCount: 2, TotalSnapshotSum: 30}
	positions := []*Position{{EntrySnapshot: 10}, {EntrySnapshot: 20}}
	require.NoError(t, CheckConservation(cfg, positions, 50))

	cfg.TotalSnapshotSum = 31
	require.ErrorIs(t, CheckConservation(cfg, positions, 50), ErrInvariantViolated)

	cfg.TotalSnapshotSum = 30
	require.ErrorIs(t, CheckConservation(cfg, positions[:1], 50), ErrInvariantViolated)

	// value(10) * 2 < 30 means a snapshot lies in the future.
	require.ErrorIs(t, CheckConservation(cfg, positions, 10), ErrInvariantViolated)
}
