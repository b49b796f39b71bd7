package nftstaking

import (
	"fmt"
	"math"

	"github.com/holiman/uint256"
)

// checked carries an unsigned value through a chain of operations and keeps
// the first failure. All results must fit into 64 bits.
type checked struct {
	v   uint256.Int
	err error
}

func u64(x uint64) checked {
	var c checked
	c.v.SetUint64(x)
	return c
}

func (c checked) add(x uint64) checked {
	if c.err != nil {
		return c
	}
	if _, overflow := c.v.AddOverflow(&c.v, uint256.NewInt(x)); overflow || !c.v.IsUint64() {
		c.err = fmt.Errorf("%w: add %d", ErrArithmeticOverflow, x)
	}
	return c
}

func (c checked) sub(x uint64) checked {
	if c.err != nil {
		return c
	}
	if _, underflow := c.v.SubOverflow(&c.v, uint256.NewInt(x)); underflow {
		c.err = fmt.Errorf("%w: sub %d", ErrArithmeticUnderflow, x)
	}
	return c
}

func (c checked) mul(x uint64) checked {
	if c.err != nil {
		return c
	}
	if _, overflow := c.v.MulOverflow(&c.v, uint256.NewInt(x)); overflow || !c.v.IsUint64() {
		c.err = fmt.Errorf("%w: mul %d", ErrArithmeticOverflow, x)
	}
	return c
}

func (c checked) result() (uint64, error) {
	if c.err != nil {
		return 0, c.err
	}
	return c.v.Uint64(), nil
}

// elapsed returns to-from in seconds, failing when time runs backwards.
func elapsed(from, to int64) (uint64, error) {
	if to < from {
		return 0, fmt.Errorf("%w: %d before %d", ErrInvalidTimeDiff, to, from)
	}
	return uint64(to) - uint64(from), nil
}

func addSeconds(ts, period int64) (int64, error) {
	if period > 0 && ts > math.MaxInt64-period {
		return 0, fmt.Errorf("%w: %d + %d", ErrArithmeticOverflow, ts, period)
	}
	if period < 0 && ts < math.MinInt64-period {
		return 0, fmt.Errorf("%w: %d + %d", ErrArithmeticUnderflow, ts, period)
	}
	return ts + period, nil
}

func pow10(decimals uint8) (uint64, error) {
	c := u64(1)
	for i := uint8(0); i < decimals; i++ {
		c = c.mul(10)
	}
	return c.result()
}
