package order

import (
	"fmt"
	"math/big"

	"github.com/dantezy/reactor-sdk/pkg/decay"
	"github.com/ethereum/go-ethereum/common"
)

// NonlinearInput decays along a block curve and never exceeds MaxAmount.
type NonlinearInput struct {
	Token       common.Address
	StartAmount *big.Int
	Curve       decay.Curve
	MaxAmount   *big.Int

	// AdjustmentPerGweiBaseFee is enforced by the reactor against the base fee
	// at execution. It is carried for encoding and not applied when resolving.
	AdjustmentPerGweiBaseFee *big.Int
}

// NonlinearOutput decays along a block curve and never drops below MinAmount.
type NonlinearOutput struct {
	Token       common.Address
	StartAmount *big.Int
	Curve       decay.Curve
	Recipient   common.Address
	MinAmount   *big.Int

	AdjustmentPerGweiBaseFee *big.Int
}

// NonlinearCosignerData anchors the curves at a block and sets exclusivity.
type NonlinearCosignerData struct {
	DecayStartBlock        uint64
	ExclusiveFiller        common.Address
	ExclusivityOverrideBps uint64
	InputOverride          *big.Int
	OutputOverrides        []*big.Int
}

// NonlinearOrder decays over block height along piecewise-linear curves.
type NonlinearOrder struct {
	OrderInfo

	Cosigner        common.Address
	StartingBaseFee *big.Int
	Input           NonlinearInput
	Outputs         []NonlinearOutput
	CosignerData    NonlinearCosignerData
	Cosignature     []byte
}

func (o *NonlinearOrder) Info() OrderInfo { return o.OrderInfo }

func (*NonlinearOrder) isOrder() {}

func (o *NonlinearOrder) cosigner() common.Address { return o.Cosigner }

func (o *NonlinearOrder) cosignature() []byte { return o.Cosignature }

// Resolve returns the amounts owed at opts.CurrentBlock for opts.Filler.
func (o *NonlinearOrder) Resolve(opts ResolveOptions) (*ResolvedOrder, error) {
	if opts.CurrentBlock == nil {
		return nil, ErrMissingBlock
	}
	block := *opts.CurrentBlock
	cd := o.CosignerData

	inputStart, err := inputOverride(cd.InputOverride, o.Input.StartAmount)
	if err != nil {
		return nil, err
	}
	inputAmount, err := decay.CurveAt(o.Input.Curve, inputStart, cd.DecayStartBlock, block)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	if o.Input.MaxAmount != nil && inputAmount.Cmp(o.Input.MaxAmount) > 0 {
		inputAmount = new(big.Int).Set(o.Input.MaxAmount)
	}
	if inputAmount.Sign() < 0 {
		return nil, fmt.Errorf("%w: input %s", ErrNegativeAmount, inputAmount)
	}

	baseStarts := make([]*big.Int, len(o.Outputs))
	for i, output := range o.Outputs {
		baseStarts[i] = output.StartAmount
	}
	outputStarts, err := outputOverrides(cd.OutputOverrides, baseStarts)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedOrder{
		Input:   TokenAmount{Token: o.Input.Token, Amount: inputAmount},
		Outputs: make([]ResolvedOutput, len(o.Outputs)),
	}
	for i, output := range o.Outputs {
		amount, err := decay.CurveAt(output.Curve, outputStarts[i], cd.DecayStartBlock, block)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		if output.MinAmount != nil && amount.Cmp(output.MinAmount) < 0 {
			amount = new(big.Int).Set(output.MinAmount)
		}
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("%w: output %d %s", ErrNegativeAmount, i, amount)
		}
		resolved.Outputs[i] = ResolvedOutput{Token: output.Token, Amount: amount, Recipient: output.Recipient}
	}

	if exclusive(cd.ExclusiveFiller, opts.Filler) && block <= cd.DecayStartBlock {
		applyExclusivity(resolved.Outputs, cd.ExclusivityOverrideBps)
	}
	return resolved, nil
}
