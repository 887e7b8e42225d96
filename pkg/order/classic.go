package order

import (
	"fmt"
	"math/big"

	"github.com/dantezy/reactor-sdk/pkg/decay"
	"github.com/ethereum/go-ethereum/common"
)

// DutchInput is an input decaying linearly between two amounts.
type DutchInput struct {
	Token       common.Address
	StartAmount *big.Int
	EndAmount   *big.Int
}

// DutchOutput is an output decaying linearly between two amounts.
type DutchOutput struct {
	Token       common.Address
	StartAmount *big.Int
	EndAmount   *big.Int
	Recipient   common.Address
}

// ClassicOrder decays over time with a single exclusivity window that ends
// when the decay starts.
type ClassicOrder struct {
	OrderInfo

	DecayStartTime         uint64
	DecayEndTime           uint64
	ExclusiveFiller        common.Address
	ExclusivityOverrideBps uint64
	Input                  DutchInput
	Outputs                []DutchOutput
}

func (o *ClassicOrder) Info() OrderInfo { return o.OrderInfo }

func (*ClassicOrder) isOrder() {}

// Resolve returns the amounts owed at opts.Timestamp for opts.Filler.
func (o *ClassicOrder) Resolve(opts ResolveOptions) (*ResolvedOrder, error) {
	if o.DecayStartTime > o.DecayEndTime {
		return nil, fmt.Errorf("%w: decay ends at %d before it starts at %d", ErrInvalidOrder, o.DecayEndTime, o.DecayStartTime)
	}

	resolved := resolveDutch(o.DecayStartTime, o.DecayEndTime, opts.Timestamp,
		o.Input, o.Input.StartAmount, o.Outputs, nil)

	if exclusive(o.ExclusiveFiller, opts.Filler) && opts.Timestamp <= o.DecayStartTime {
		applyExclusivity(resolved.Outputs, o.ExclusivityOverrideBps)
	}
	return resolved, nil
}

// resolveDutch decays input and outputs over [start, end] using the given
// start amounts. End amounts always come from the signed order.
func resolveDutch(start, end, now uint64, input DutchInput, inputStart *big.Int, outputs []DutchOutput, outputStarts []*big.Int) *ResolvedOrder {
	resolved := &ResolvedOrder{
		Input: TokenAmount{
			Token: input.Token,
			Amount: decay.Linear(decay.Window{
				Start:       start,
				End:         end,
				StartAmount: inputStart,
				EndAmount:   input.EndAmount,
			}, now),
		},
		Outputs: make([]ResolvedOutput, len(outputs)),
	}

	for i, output := range outputs {
		startAmount := output.StartAmount
		if outputStarts != nil {
			startAmount = outputStarts[i]
		}
		resolved.Outputs[i] = ResolvedOutput{
			Token: output.Token,
			Amount: decay.Linear(decay.Window{
				Start:       start,
				End:         end,
				StartAmount: startAmount,
				EndAmount:   output.EndAmount,
			}, now),
			Recipient: output.Recipient,
		}
	}
	return resolved
}
