// Package decay interpolates token amounts over a monotonic coordinate
// (unix time or block number).
package decay

import "math/big"

// Window describes a linear decay between two coordinates.
// Start must not exceed End.
type Window struct {
	Start       uint64
	End         uint64
	StartAmount *big.Int
	EndAmount   *big.Int
}

// Linear returns the amount of w at coordinate now.
//
// Before (or at) Start the start amount is returned, at or after End the end
// amount. In between the amount moves linearly; the decayed delta is truncated
// toward zero, matching the reactor contracts. A zero-length window resolves
// to the end amount once it has started.
func Linear(w Window, now uint64) *big.Int {
	// End is checked first so that Start == End resolves to the end amount.
	if now >= w.End {
		return clone(w.EndAmount)
	}
	if now <= w.Start {
		return clone(w.StartAmount)
	}

	startAmount := orZero(w.StartAmount)
	delta := new(big.Int).Sub(orZero(w.EndAmount), startAmount)
	delta.Mul(delta, new(big.Int).SetUint64(now-w.Start))
	delta.Quo(delta, new(big.Int).SetUint64(w.End-w.Start))

	return delta.Add(delta, startAmount)
}

func clone(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}
