package order

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MPS is the denominator of priority fee scaling (milli-bips).
const MPS = 10_000_000

var mps = big.NewInt(MPS)

// PriorityInput shrinks as the priority fee rises.
type PriorityInput struct {
	Token                common.Address
	Amount               *big.Int
	MpsPerPriorityFeeWei *big.Int
}

// PriorityOutput grows as the priority fee rises.
type PriorityOutput struct {
	Token                common.Address
	Amount               *big.Int
	MpsPerPriorityFeeWei *big.Int
	Recipient            common.Address
}

// PriorityCosignerData optionally moves the auction to a later block.
type PriorityCosignerData struct {
	AuctionTargetBlock uint64
}

// PriorityOrder scales its amounts with the priority fee paid by the filler
// transaction rather than decaying over time.
type PriorityOrder struct {
	OrderInfo

	Cosigner               common.Address
	AuctionStartBlock      uint64
	BaselinePriorityFeeWei *big.Int
	Input                  PriorityInput
	Outputs                []PriorityOutput
	CosignerData           PriorityCosignerData
	Cosignature            []byte
}

func (o *PriorityOrder) Info() OrderInfo { return o.OrderInfo }

func (*PriorityOrder) isOrder() {}

func (o *PriorityOrder) cosigner() common.Address { return o.Cosigner }

func (o *PriorityOrder) cosignature() []byte { return o.Cosignature }

// TargetBlock is the first block the order can be filled in.
func (o *PriorityOrder) TargetBlock() uint64 {
	if o.CosignerData.AuctionTargetBlock != 0 {
		return o.CosignerData.AuctionTargetBlock
	}
	return o.AuctionStartBlock
}

// Resolve returns the amounts owed at opts.PriorityFee. When opts.CurrentBlock
// is set and precedes TargetBlock, ErrOrderNotFillableYet is returned.
func (o *PriorityOrder) Resolve(opts ResolveOptions) (*ResolvedOrder, error) {
	if opts.CurrentBlock != nil && *opts.CurrentBlock < o.TargetBlock() {
		return nil, fmt.Errorf("%w: block %d before target block %d", ErrOrderNotFillableYet, *opts.CurrentBlock, o.TargetBlock())
	}
	if opts.PriorityFee == nil || opts.PriorityFee.Sign() < 0 {
		return nil, ErrMissingPriorityFee
	}

	fee := new(big.Int).Set(opts.PriorityFee)
	if o.BaselinePriorityFeeWei != nil {
		fee.Sub(fee, o.BaselinePriorityFeeWei)
		if fee.Sign() < 0 {
			fee.SetInt64(0)
		}
	}

	resolved := &ResolvedOrder{
		Input: TokenAmount{
			Token:  o.Input.Token,
			Amount: scaleInput(o.Input.Amount, o.Input.MpsPerPriorityFeeWei, fee),
		},
		Outputs: make([]ResolvedOutput, len(o.Outputs)),
	}
	for i, output := range o.Outputs {
		resolved.Outputs[i] = ResolvedOutput{
			Token:     output.Token,
			Amount:    scaleOutput(output.Amount, output.MpsPerPriorityFeeWei, fee),
			Recipient: output.Recipient,
		}
	}
	return resolved, nil
}

// scaleInput returns amount * (MPS - fee*rate) / MPS rounded down, or zero
// once the discount reaches MPS.
func scaleInput(amount, rate, fee *big.Int) *big.Int {
	discount := new(big.Int).Mul(fee, amountOf(rate))
	if discount.Cmp(mps) >= 0 {
		return new(big.Int)
	}
	scaled := new(big.Int).Sub(mps, discount)
	scaled.Mul(scaled, amountOf(amount))
	return scaled.Quo(scaled, mps)
}

// scaleOutput returns amount * (MPS + fee*rate) / MPS rounded up.
func scaleOutput(amount, rate, fee *big.Int) *big.Int {
	scaled := new(big.Int).Mul(fee, amountOf(rate))
	scaled.Add(scaled, mps)
	scaled.Mul(scaled, amountOf(amount))

	quo, rem := new(big.Int).QuoRem(scaled, mps, new(big.Int))
	if rem.Sign() != 0 {
		quo.Add(quo, big.NewInt(1))
	}
	return quo
}
