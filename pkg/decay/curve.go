package decay

import (
	"errors"
	"fmt"
	"math/big"
)

// MaxCurvePoints is the number of knots a curve can carry on-chain, where the
// relative blocks are packed as uint16 values into a single word.
const MaxCurvePoints = 16

// MaxRelativeBlock is the largest offset a packed curve can express.
const MaxRelativeBlock = 1<<16 - 1

var ErrInvalidCurve = errors.New("invalid decay curve")

// Curve is a piecewise-linear decay expressed relative to a base coordinate and
// a base amount. RelativeAmounts may be negative.
type Curve struct {
	RelativeBlocks  []uint64
	RelativeAmounts []*big.Int
}

// Validate checks that the curve has matching lengths and strictly ascending
// offsets.
func (c Curve) Validate() error {
	if len(c.RelativeBlocks) != len(c.RelativeAmounts) {
		return fmt.Errorf("%w: %d blocks, %d amounts", ErrInvalidCurve, len(c.RelativeBlocks), len(c.RelativeAmounts))
	}
	if len(c.RelativeBlocks) > MaxCurvePoints {
		return fmt.Errorf("%w: %d points exceeds %d", ErrInvalidCurve, len(c.RelativeBlocks), MaxCurvePoints)
	}
	for i, block := range c.RelativeBlocks {
		if block > MaxRelativeBlock {
			return fmt.Errorf("%w: relative block %d out of range", ErrInvalidCurve, block)
		}
		if i > 0 && block <= c.RelativeBlocks[i-1] {
			return fmt.Errorf("%w: relative blocks not strictly ascending at index %d", ErrInvalidCurve, i)
		}
		if c.RelativeAmounts[i] == nil {
			return fmt.Errorf("%w: missing relative amount at index %d", ErrInvalidCurve, i)
		}
	}
	return nil
}

// CurveAt evaluates c at coordinate now. The curve starts at (base, baseAmount)
// and passes through (base+RelativeBlocks[i], baseAmount+RelativeAmounts[i]).
// Before base the base amount is returned, after the last knot its amount.
//
// The result may be negative; callers resolving non-negative quantities must
// reject it.
func CurveAt(c Curve, baseAmount *big.Int, base, now uint64) (*big.Int, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if now <= base || len(c.RelativeBlocks) == 0 {
		return clone(baseAmount), nil
	}

	elapsed := now - base
	prev := Window{Start: base, StartAmount: orZero(baseAmount)}
	for i, offset := range c.RelativeBlocks {
		knot := new(big.Int).Add(orZero(baseAmount), c.RelativeAmounts[i])
		if elapsed <= offset {
			prev.End = base + offset
			prev.EndAmount = knot
			return Linear(prev, now), nil
		}
		prev = Window{Start: base + offset, StartAmount: knot}
	}

	return prev.StartAmount, nil
}
