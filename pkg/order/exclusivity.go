package order

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
)

// BasisPoints is the denominator of exclusivity override rates.
const BasisPoints = 10_000

var bpsDenominator = big.NewInt(BasisPoints)

// exclusive reports whether filler is locked out of an exclusive window held
// by exclusiveFiller. An unset caller never matches.
func exclusive(exclusiveFiller, filler common.Address) bool {
	if exclusiveFiller == (common.Address{}) {
		return false
	}
	return filler != exclusiveFiller
}

// applyExclusivity raises every output for a non-exclusive filler. A zero rate
// makes the order unfillable by raising outputs to the uint256 maximum.
func applyExclusivity(outputs []ResolvedOutput, overrideBps uint64) {
	for i := range outputs {
		if overrideBps == 0 {
			outputs[i].Amount = new(big.Int).Set(math.MaxBig256)
			continue
		}
		scaled := new(big.Int).Mul(outputs[i].Amount, new(big.Int).SetUint64(BasisPoints+overrideBps))
		outputs[i].Amount = scaled.Quo(scaled, bpsDenominator)
	}
}
