package order

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CosignerData is appended to a CosignedOrder by its cosigner after the
// swapper has signed. Zero overrides fall back to the base order.
type CosignerData struct {
	DecayStartTime         uint64
	DecayEndTime           uint64
	ExclusiveFiller        common.Address
	ExclusivityOverrideBps uint64
	InputOverride          *big.Int
	OutputOverrides        []*big.Int
}

// CosignedOrder is a time-decay order whose window, exclusivity and start
// amounts are set by a cosigner.
type CosignedOrder struct {
	OrderInfo

	Cosigner     common.Address
	Input        DutchInput
	Outputs      []DutchOutput
	CosignerData CosignerData
	Cosignature  []byte
}

func (o *CosignedOrder) Info() OrderInfo { return o.OrderInfo }

func (*CosignedOrder) isOrder() {}

func (o *CosignedOrder) cosigner() common.Address { return o.Cosigner }

func (o *CosignedOrder) cosignature() []byte { return o.Cosignature }

// Resolve returns the amounts owed at opts.Timestamp for opts.Filler. It can
// be used before the order is cosigned to preview the base amounts.
func (o *CosignedOrder) Resolve(opts ResolveOptions) (*ResolvedOrder, error) {
	cd := o.CosignerData
	if cd.DecayStartTime > cd.DecayEndTime {
		return nil, fmt.Errorf("%w: decay ends at %d before it starts at %d", ErrInvalidOrder, cd.DecayEndTime, cd.DecayStartTime)
	}

	inputStart, err := inputOverride(cd.InputOverride, o.Input.StartAmount)
	if err != nil {
		return nil, err
	}
	baseStarts := make([]*big.Int, len(o.Outputs))
	for i, output := range o.Outputs {
		baseStarts[i] = output.StartAmount
	}
	outputStarts, err := outputOverrides(cd.OutputOverrides, baseStarts)
	if err != nil {
		return nil, err
	}

	resolved := resolveDutch(cd.DecayStartTime, cd.DecayEndTime, opts.Timestamp,
		o.Input, inputStart, o.Outputs, outputStarts)

	if exclusive(cd.ExclusiveFiller, opts.Filler) && opts.Timestamp <= cd.DecayStartTime {
		applyExclusivity(resolved.Outputs, cd.ExclusivityOverrideBps)
	}
	return resolved, nil
}

// inputOverride applies a cosigner input override, which may only improve the
// swapper's position by lowering the input.
func inputOverride(override, base *big.Int) (*big.Int, error) {
	start := overrideOr(override, base)
	if start != base && base != nil && start.Cmp(base) > 0 {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrInvalidCosignerInput, start, base)
	}
	return start, nil
}

// outputOverrides applies cosigner output overrides, which may only raise
// outputs. An empty override list means the order has not been cosigned.
func outputOverrides(overrides, bases []*big.Int) ([]*big.Int, error) {
	if len(overrides) == 0 {
		return bases, nil
	}
	if len(overrides) != len(bases) {
		return nil, fmt.Errorf("%w: %d overrides for %d outputs", ErrInvalidCosignerOutput, len(overrides), len(bases))
	}

	starts := make([]*big.Int, len(bases))
	for i, base := range bases {
		starts[i] = overrideOr(overrides[i], base)
		if starts[i] != base && base != nil && starts[i].Cmp(base) < 0 {
			return nil, fmt.Errorf("%w: output %d override %s below %s", ErrInvalidCosignerOutput, i, starts[i], base)
		}
	}
	return starts, nil
}
