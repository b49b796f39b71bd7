package nftstaking

import "fmt"

// AccumulatorValueAt returns the per-unit reward accrued since the pool was
// opened, evaluated at evalTime: checkpoint + (evalTime-rateSetAt)*rate.
func AccumulatorValueAt(checkpoint uint64, evalTime int64, rate uint64, rateSetAt int64) (uint64, error) {
	secs, err := elapsed(rateSetAt, evalTime)
	if err != nil {
		return 0, err
	}
	return u64(secs).mul(rate).add(checkpoint).result()
}

// EligibilityAndEffectiveEnd clamps now to the horizon and reports whether the
// position has been locked strictly longer than the minimum period.
func EligibilityAndEffectiveEnd(now, horizonEnd, minPeriod int64, position *Position) (bool, int64, error) {
	if position == nil {
		return false, 0, ErrPositionNotFound
	}
	effectiveEnd := now
	if horizonEnd < effectiveEnd {
		effectiveEnd = horizonEnd
	}
	threshold, err := addSeconds(position.LockedAt, minPeriod)
	if err != nil {
		return false, 0, err
	}
	return effectiveEnd > threshold, effectiveEnd, nil
}

// DeltaOwed returns the reward owed to a position at effectiveEnd together
// with the accumulator value used as the next snapshot.
func DeltaOwed(checkpoint uint64, effectiveEnd int64, entrySnapshot, rate uint64, rateSetAt int64) (uint64, uint64, error) {
	value, err := AccumulatorValueAt(checkpoint, effectiveEnd, rate, rateSetAt)
	if err != nil {
		return 0, 0, err
	}
	delta, err := u64(value).sub(entrySnapshot).result()
	if err != nil {
		return 0, 0, err
	}
	return delta, value, nil
}

// RequiredFundingToExtend returns the unscaled balance the reward vault must
// hold for the pool to honour every obligation until horizonEnd, assuming each
// free slot is filled at rateSetAt:
//
//	(value(horizonEnd) - checkpoint) * MaxCapacity + checkpoint * LockedCount - TotalSnapshotSum
//
// rate, rateSetAt, horizonEnd and checkpoint describe the era being funded;
// capacity and the open positions come from cfg.
func RequiredFundingToExtend(rate uint64, rateSetAt, horizonEnd int64, checkpoint uint64, cfg *Config) (uint64, error) {
	if cfg == nil {
		return 0, ErrConfigNotFound
	}
	final, err := AccumulatorValueAt(checkpoint, horizonEnd, rate, rateSetAt)
	if err != nil {
		return 0, err
	}
	future, err := u64(final).sub(checkpoint).mul(cfg.MaxCapacity).result()
	if err != nil {
		return 0, err
	}
	return u64(checkpoint).mul(cfg.LockedCount).add(future).sub(cfg.TotalSnapshotSum).result()
}

// ObligationAt returns the unscaled reward owed to every open position of cfg
// if all of them were settled at t: value(t)*LockedCount - TotalSnapshotSum.
func ObligationAt(cfg *Config, t int64) (uint64, error) {
	if cfg == nil {
		return 0, ErrConfigNotFound
	}
	value, err := AccumulatorValueAt(cfg.AccumulatorCheckpoint, t, cfg.RatePerSecond, cfg.RateSetAt)
	if err != nil {
		return 0, err
	}
	return u64(value).mul(cfg.LockedCount).sub(cfg.TotalSnapshotSum).result()
}

// RefundableOnClose returns the scaled amount the admin recovers when the pool
// is closed at closingTime: everything in the vault beyond the scaled
// outstanding obligation.
func RefundableOnClose(closingTime int64, vaultBalance uint64, decimals uint8, cfg *Config) (uint64, error) {
	owed, err := ObligationAt(cfg, closingTime)
	if err != nil {
		return 0, err
	}
	scaled, err := Scale(owed, decimals)
	if err != nil {
		return 0, err
	}
	if scaled > vaultBalance {
		return 0, fmt.Errorf("%w: owe %d, vault holds %d", ErrInsufficientFunds, scaled, vaultBalance)
	}
	return vaultBalance - scaled, nil
}

// TotalEmission is the unscaled funding of a pool that stays at full capacity
// from start to end.
func TotalEmission(rate uint64, start, end int64, capacity uint64) (uint64, error) {
	secs, err := elapsed(start, end)
	if err != nil {
		return 0, err
	}
	return u64(rate).mul(secs).mul(capacity).result()
}

// Scale converts an internal amount into base units of an asset with the
// given decimals.
func Scale(amount uint64, decimals uint8) (uint64, error) {
	factor, err := pow10(decimals)
	if err != nil {
		return 0, err
	}
	return u64(amount).mul(factor).result()
}

// CheckConservation verifies the ledger invariants of cfg against its open
// positions at time t.
func CheckConservation(cfg *Config, positions []*Position, t int64) error {
	if cfg == nil {
		return ErrConfigNotFound
	}
	if uint64(len(positions)) != cfg.LockedCount {
		return fmt.Errorf("%w: %d positions, locked count %d", ErrInvariantViolated, len(positions), cfg.LockedCount)
	}
	if cfg.LockedCount > cfg.MaxCapacity {
		return fmt.Errorf("%w: locked count %d above capacity %d", ErrInvariantViolated, cfg.LockedCount, cfg.MaxCapacity)
	}
	sum := u64(0)
	for _, pos := range positions {
		if pos == nil {
			continue
		}
		sum = sum.add(pos.EntrySnapshot)
	}
	total, err := sum.result()
	if err != nil {
		return err
	}
	if total != cfg.TotalSnapshotSum {
		return fmt.Errorf("%w: snapshot sum %d, recorded %d", ErrInvariantViolated, total, cfg.TotalSnapshotSum)
	}
	if _, err := ObligationAt(cfg, t); err != nil {
		return fmt.Errorf("%w: obligation: %v", ErrInvariantViolated, err)
	}
	return nil
}
