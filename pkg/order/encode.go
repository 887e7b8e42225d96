package order

import (
	"fmt"
	"math/big"

	"github.com/dantezy/reactor-sdk/pkg/decay"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ABIEncoder encodes orders into the abi.encode layout accepted by the
// reactors and the order quoter.
type ABIEncoder struct{}

// Encode returns abi.encode(order) including cosigner data and cosignature.
func (ABIEncoder) Encode(o Order) ([]byte, error) {
	return encode(o, true)
}

func component(name, typ string, components ...abi.ArgumentMarshaling) abi.ArgumentMarshaling {
	return abi.ArgumentMarshaling{Name: name, Type: typ, Components: components}
}

func mustTuple(components ...abi.ArgumentMarshaling) abi.Arguments {
	t, err := abi.NewType("tuple", "", components)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{{Type: t}}
}

var (
	orderInfoComponents = []abi.ArgumentMarshaling{
		component("reactor", "address"),
		component("swapper", "address"),
		component("nonce", "uint256"),
		component("deadline", "uint256"),
		component("additionalValidationContract", "address"),
		component("additionalValidationData", "bytes"),
	}
	dutchInputComponents = []abi.ArgumentMarshaling{
		component("token", "address"),
		component("startAmount", "uint256"),
		component("endAmount", "uint256"),
	}
	dutchOutputComponents = []abi.ArgumentMarshaling{
		component("token", "address"),
		component("startAmount", "uint256"),
		component("endAmount", "uint256"),
		component("recipient", "address"),
	}
	curveComponents = []abi.ArgumentMarshaling{
		component("relativeBlocks", "uint256"),
		component("relativeAmounts", "int256[]"),
	}
	cosignerDataComponents = []abi.ArgumentMarshaling{
		component("decayStartTime", "uint256"),
		component("decayEndTime", "uint256"),
		component("exclusiveFiller", "address"),
		component("exclusivityOverrideBps", "uint256"),
		component("inputOverride", "uint256"),
		component("outputOverrides", "uint256[]"),
	}
	nonlinearCosignerDataComponents = []abi.ArgumentMarshaling{
		component("decayStartBlock", "uint256"),
		component("exclusiveFiller", "address"),
		component("exclusivityOverrideBps", "uint256"),
		component("inputOverride", "uint256"),
		component("outputOverrides", "uint256[]"),
	}
	priorityCosignerDataComponents = []abi.ArgumentMarshaling{
		component("auctionTargetBlock", "uint256"),
	}

	classicArgs = mustTuple(
		component("info", "tuple", orderInfoComponents...),
		component("decayStartTime", "uint256"),
		component("decayEndTime", "uint256"),
		component("exclusiveFiller", "address"),
		component("exclusivityOverrideBps", "uint256"),
		component("input", "tuple", dutchInputComponents...),
		component("outputs", "tuple[]", dutchOutputComponents...),
	)
	cosignedArgs = mustTuple(
		component("info", "tuple", orderInfoComponents...),
		component("cosigner", "address"),
		component("baseInput", "tuple", dutchInputComponents...),
		component("baseOutputs", "tuple[]", dutchOutputComponents...),
		component("cosignerData", "tuple", cosignerDataComponents...),
		component("cosignature", "bytes"),
	)
	nonlinearArgs = mustTuple(
		component("info", "tuple", orderInfoComponents...),
		component("cosigner", "address"),
		component("startingBaseFee", "uint256"),
		component("baseInput", "tuple",
			component("token", "address"),
			component("startAmount", "uint256"),
			component("curve", "tuple", curveComponents...),
			component("maxAmount", "uint256"),
			component("adjustmentPerGweiBaseFee", "uint256"),
		),
		component("baseOutputs", "tuple[]",
			component("token", "address"),
			component("startAmount", "uint256"),
			component("curve", "tuple", curveComponents...),
			component("recipient", "address"),
			component("minAmount", "uint256"),
			component("adjustmentPerGweiBaseFee", "uint256"),
		),
		component("cosignerData", "tuple", nonlinearCosignerDataComponents...),
		component("cosignature", "bytes"),
	)
	priorityArgs = mustTuple(
		component("info", "tuple", orderInfoComponents...),
		component("cosigner", "address"),
		component("auctionStartBlock", "uint256"),
		component("baselinePriorityFeeWei", "uint256"),
		component("input", "tuple",
			component("token", "address"),
			component("amount", "uint256"),
			component("mpsPerPriorityFeeWei", "uint256"),
		),
		component("outputs", "tuple[]",
			component("token", "address"),
			component("amount", "uint256"),
			component("mpsPerPriorityFeeWei", "uint256"),
			component("recipient", "address"),
		),
		component("cosignerData", "tuple", priorityCosignerDataComponents...),
		component("cosignature", "bytes"),
	)

	cosignerDataArgs          = mustTuple(cosignerDataComponents...)
	nonlinearCosignerDataArgs = mustTuple(nonlinearCosignerDataComponents...)
	priorityCosignerDataArgs  = mustTuple(priorityCosignerDataComponents...)
)

// Wire structs mirror the tuples above; field names must match the component
// names for the abi package to pack them.

type wireInfo struct {
	Reactor                      common.Address
	Swapper                      common.Address
	Nonce                        *big.Int
	Deadline                     *big.Int
	AdditionalValidationContract common.Address
	AdditionalValidationData     []byte
}

type wireDutchInput struct {
	Token       common.Address
	StartAmount *big.Int
	EndAmount   *big.Int
}

type wireDutchOutput struct {
	Token       common.Address
	StartAmount *big.Int
	EndAmount   *big.Int
	Recipient   common.Address
}

type wireClassic struct {
	Info                   wireInfo
	DecayStartTime         *big.Int
	DecayEndTime           *big.Int
	ExclusiveFiller        common.Address
	ExclusivityOverrideBps *big.Int
	Input                  wireDutchInput
	Outputs                []wireDutchOutput
}

type wireCosignerData struct {
	DecayStartTime         *big.Int
	DecayEndTime           *big.Int
	ExclusiveFiller        common.Address
	ExclusivityOverrideBps *big.Int
	InputOverride          *big.Int
	OutputOverrides        []*big.Int
}

type wireCosigned struct {
	Info         wireInfo
	Cosigner     common.Address
	BaseInput    wireDutchInput
	BaseOutputs  []wireDutchOutput
	CosignerData wireCosignerData
	Cosignature  []byte
}

type wireCurve struct {
	RelativeBlocks  *big.Int
	RelativeAmounts []*big.Int
}

type wireNonlinearInput struct {
	Token                    common.Address
	StartAmount              *big.Int
	Curve                    wireCurve
	MaxAmount                *big.Int
	AdjustmentPerGweiBaseFee *big.Int
}

type wireNonlinearOutput struct {
	Token                    common.Address
	StartAmount              *big.Int
	Curve                    wireCurve
	Recipient                common.Address
	MinAmount                *big.Int
	AdjustmentPerGweiBaseFee *big.Int
}

type wireNonlinearCosignerData struct {
	DecayStartBlock        *big.Int
	ExclusiveFiller        common.Address
	ExclusivityOverrideBps *big.Int
	InputOverride          *big.Int
	OutputOverrides        []*big.Int
}

type wireNonlinear struct {
	Info            wireInfo
	Cosigner        common.Address
	StartingBaseFee *big.Int
	BaseInput       wireNonlinearInput
	BaseOutputs     []wireNonlinearOutput
	CosignerData    wireNonlinearCosignerData
	Cosignature     []byte
}

type wirePriorityInput struct {
	Token                common.Address
	Amount               *big.Int
	MpsPerPriorityFeeWei *big.Int
}

type wirePriorityOutput struct {
	Token                common.Address
	Amount               *big.Int
	MpsPerPriorityFeeWei *big.Int
	Recipient            common.Address
}

type wirePriorityCosignerData struct {
	AuctionTargetBlock *big.Int
}

type wirePriority struct {
	Info                   wireInfo
	Cosigner               common.Address
	AuctionStartBlock      *big.Int
	BaselinePriorityFeeWei *big.Int
	Input                  wirePriorityInput
	Outputs                []wirePriorityOutput
	CosignerData           wirePriorityCosignerData
	Cosignature            []byte
}

// encode packs o. Without cosigned, the cosigner data and cosignature are
// zeroed so the encoding only covers what the swapper signed.
func encode(o Order, cosigned bool) ([]byte, error) {
	switch o := o.(type) {
	case *ClassicOrder:
		return classicArgs.Pack(wireClassicOf(o))
	case *CosignedOrder:
		w := wireCosigned{
			Info:        wireInfoOf(o.OrderInfo),
			Cosigner:    o.Cosigner,
			BaseInput:   wireDutchInput{Token: o.Input.Token, StartAmount: u256(o.Input.StartAmount), EndAmount: u256(o.Input.EndAmount)},
			BaseOutputs: wireDutchOutputsOf(o.Outputs),
			CosignerData: wireCosignerData{
				DecayStartTime: new(big.Int), DecayEndTime: new(big.Int),
				ExclusivityOverrideBps: new(big.Int), InputOverride: new(big.Int),
				OutputOverrides: []*big.Int{},
			},
			Cosignature: []byte{},
		}
		if cosigned {
			w.CosignerData = wireCosignerDataOf(o.CosignerData)
			w.Cosignature = o.Cosignature
		}
		return cosignedArgs.Pack(w)
	case *NonlinearOrder:
		w, err := wireNonlinearOf(o)
		if err != nil {
			return nil, err
		}
		if !cosigned {
			w.CosignerData = wireNonlinearCosignerData{
				DecayStartBlock: new(big.Int), ExclusivityOverrideBps: new(big.Int),
				InputOverride: new(big.Int), OutputOverrides: []*big.Int{},
			}
			w.Cosignature = []byte{}
		}
		return nonlinearArgs.Pack(w)
	case *PriorityOrder:
		w := wirePriorityOf(o)
		if !cosigned {
			w.CosignerData = wirePriorityCosignerData{AuctionTargetBlock: new(big.Int)}
			w.Cosignature = []byte{}
		}
		return priorityArgs.Pack(w)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOrderType, o)
	}
}

// encodeCosignerData returns abi.encode(cosignerData) for a cosigned order.
func encodeCosignerData(o Cosigned) ([]byte, error) {
	switch o := o.(type) {
	case *CosignedOrder:
		return cosignerDataArgs.Pack(wireCosignerDataOf(o.CosignerData))
	case *NonlinearOrder:
		return nonlinearCosignerDataArgs.Pack(wireNonlinearCosignerDataOf(o.CosignerData))
	case *PriorityOrder:
		return priorityCosignerDataArgs.Pack(wirePriorityCosignerData{
			AuctionTargetBlock: new(big.Int).SetUint64(o.CosignerData.AuctionTargetBlock),
		})
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOrderType, o)
	}
}

func wireInfoOf(info OrderInfo) wireInfo {
	data := info.AdditionalValidationData
	if data == nil {
		data = []byte{}
	}
	return wireInfo{
		Reactor:                      info.Reactor,
		Swapper:                      info.Swapper,
		Nonce:                        u256(info.Nonce),
		Deadline:                     new(big.Int).SetUint64(info.Deadline),
		AdditionalValidationContract: info.AdditionalValidationContract,
		AdditionalValidationData:     data,
	}
}

func wireClassicOf(o *ClassicOrder) wireClassic {
	return wireClassic{
		Info:                   wireInfoOf(o.OrderInfo),
		DecayStartTime:         new(big.Int).SetUint64(o.DecayStartTime),
		DecayEndTime:           new(big.Int).SetUint64(o.DecayEndTime),
		ExclusiveFiller:        o.ExclusiveFiller,
		ExclusivityOverrideBps: new(big.Int).SetUint64(o.ExclusivityOverrideBps),
		Input:                  wireDutchInput{Token: o.Input.Token, StartAmount: u256(o.Input.StartAmount), EndAmount: u256(o.Input.EndAmount)},
		Outputs:                wireDutchOutputsOf(o.Outputs),
	}
}

func wireDutchOutputsOf(outputs []DutchOutput) []wireDutchOutput {
	w := make([]wireDutchOutput, len(outputs))
	for i, output := range outputs {
		w[i] = wireDutchOutput{
			Token:       output.Token,
			StartAmount: u256(output.StartAmount),
			EndAmount:   u256(output.EndAmount),
			Recipient:   output.Recipient,
		}
	}
	return w
}

func wireCosignerDataOf(cd CosignerData) wireCosignerData {
	return wireCosignerData{
		DecayStartTime:         new(big.Int).SetUint64(cd.DecayStartTime),
		DecayEndTime:           new(big.Int).SetUint64(cd.DecayEndTime),
		ExclusiveFiller:        cd.ExclusiveFiller,
		ExclusivityOverrideBps: new(big.Int).SetUint64(cd.ExclusivityOverrideBps),
		InputOverride:          u256(cd.InputOverride),
		OutputOverrides:        u256s(cd.OutputOverrides),
	}
}

func wireNonlinearCosignerDataOf(cd NonlinearCosignerData) wireNonlinearCosignerData {
	return wireNonlinearCosignerData{
		DecayStartBlock:        new(big.Int).SetUint64(cd.DecayStartBlock),
		ExclusiveFiller:        cd.ExclusiveFiller,
		ExclusivityOverrideBps: new(big.Int).SetUint64(cd.ExclusivityOverrideBps),
		InputOverride:          u256(cd.InputOverride),
		OutputOverrides:        u256s(cd.OutputOverrides),
	}
}

func wireNonlinearOf(o *NonlinearOrder) (wireNonlinear, error) {
	inputCurve, err := wireCurveOf(o.Input.Curve)
	if err != nil {
		return wireNonlinear{}, fmt.Errorf("input: %w", err)
	}
	w := wireNonlinear{
		Info:            wireInfoOf(o.OrderInfo),
		Cosigner:        o.Cosigner,
		StartingBaseFee: u256(o.StartingBaseFee),
		BaseInput: wireNonlinearInput{
			Token:                    o.Input.Token,
			StartAmount:              u256(o.Input.StartAmount),
			Curve:                    inputCurve,
			MaxAmount:                u256(o.Input.MaxAmount),
			AdjustmentPerGweiBaseFee: u256(o.Input.AdjustmentPerGweiBaseFee),
		},
		BaseOutputs:  make([]wireNonlinearOutput, len(o.Outputs)),
		CosignerData: wireNonlinearCosignerDataOf(o.CosignerData),
		Cosignature:  o.Cosignature,
	}
	for i, output := range o.Outputs {
		curve, err := wireCurveOf(output.Curve)
		if err != nil {
			return wireNonlinear{}, fmt.Errorf("output %d: %w", i, err)
		}
		w.BaseOutputs[i] = wireNonlinearOutput{
			Token:                    output.Token,
			StartAmount:              u256(output.StartAmount),
			Curve:                    curve,
			Recipient:                output.Recipient,
			MinAmount:                u256(output.MinAmount),
			AdjustmentPerGweiBaseFee: u256(output.AdjustmentPerGweiBaseFee),
		}
	}
	if w.Cosignature == nil {
		w.Cosignature = []byte{}
	}
	return w, nil
}

// wireCurveOf packs the relative blocks as uint16 values, the first in the
// lowest bits.
func wireCurveOf(c decay.Curve) (wireCurve, error) {
	if err := c.Validate(); err != nil {
		return wireCurve{}, err
	}
	packed := new(big.Int)
	for i, block := range c.RelativeBlocks {
		packed.Or(packed, new(big.Int).Lsh(new(big.Int).SetUint64(block), uint(16*i)))
	}
	return wireCurve{RelativeBlocks: packed, RelativeAmounts: u256s(c.RelativeAmounts)}, nil
}

func wirePriorityOf(o *PriorityOrder) wirePriority {
	w := wirePriority{
		Info:                   wireInfoOf(o.OrderInfo),
		Cosigner:               o.Cosigner,
		AuctionStartBlock:      new(big.Int).SetUint64(o.AuctionStartBlock),
		BaselinePriorityFeeWei: u256(o.BaselinePriorityFeeWei),
		Input: wirePriorityInput{
			Token:                o.Input.Token,
			Amount:               u256(o.Input.Amount),
			MpsPerPriorityFeeWei: u256(o.Input.MpsPerPriorityFeeWei),
		},
		Outputs: make([]wirePriorityOutput, len(o.Outputs)),
		CosignerData: wirePriorityCosignerData{
			AuctionTargetBlock: new(big.Int).SetUint64(o.CosignerData.AuctionTargetBlock),
		},
		Cosignature: o.Cosignature,
	}
	for i, output := range o.Outputs {
		w.Outputs[i] = wirePriorityOutput{
			Token:                output.Token,
			Amount:               u256(output.Amount),
			MpsPerPriorityFeeWei: u256(output.MpsPerPriorityFeeWei),
			Recipient:            output.Recipient,
		}
	}
	if w.Cosignature == nil {
		w.Cosignature = []byte{}
	}
	return w
}

// u256 replaces nil with zero; the abi package cannot pack nil integers.
func u256(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func u256s(vs []*big.Int) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = u256(v)
	}
	return out
}
