// Package order models signed reactor orders and resolves the amounts they
// owe at a given instant.
package order

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrInvalidOrder          = errors.New("invalid order")
	ErrUnknownOrderType      = errors.New("unknown order type")
	ErrOrderNotFillableYet   = errors.New("order not fillable yet")
	ErrMissingBlock          = errors.New("current block required")
	ErrMissingPriorityFee    = errors.New("priority fee required")
	ErrNegativeAmount        = errors.New("resolved amount is negative")
	ErrInvalidCosignerInput  = errors.New("invalid cosigner input override")
	ErrInvalidCosignerOutput = errors.New("invalid cosigner output override")
	ErrInvalidCosignature    = errors.New("invalid cosignature")
)

// OrderInfo holds the fields shared by every order variant.
type OrderInfo struct {
	Reactor  common.Address
	Swapper  common.Address
	Nonce    *big.Int
	Deadline uint64 // unix seconds

	// AdditionalValidationContract is called by the reactor before a fill.
	// A non-zero contract marks the order as carrying exclusive-filler
	// validation when a generic validation failure is classified.
	AdditionalValidationContract common.Address
	AdditionalValidationData     []byte
}

// Order is one of *ClassicOrder, *CosignedOrder, *NonlinearOrder or
// *PriorityOrder.
type Order interface {
	Info() OrderInfo
	isOrder()
}

// ResolveOptions carries the execution context an order is resolved against.
// Which fields are consulted depends on the order variant.
type ResolveOptions struct {
	Timestamp    uint64
	CurrentBlock *uint64
	Filler       common.Address
	PriorityFee  *big.Int
}

// AtBlock returns a pointer suitable for ResolveOptions.CurrentBlock.
func AtBlock(n uint64) *uint64 {
	return &n
}

// TokenAmount is a token and an amount of it.
type TokenAmount struct {
	Token  common.Address
	Amount *big.Int
}

// ResolvedOutput is an amount owed to a recipient.
type ResolvedOutput struct {
	Token     common.Address
	Amount    *big.Int
	Recipient common.Address
}

// ResolvedOrder is the concrete input and outputs of an order at the instant
// it was resolved. It is never cached.
type ResolvedOrder struct {
	Input   TokenAmount
	Outputs []ResolvedOutput
}

// Resolve computes the amounts owed by o under opts.
func Resolve(o Order, opts ResolveOptions) (*ResolvedOrder, error) {
	switch o := o.(type) {
	case *ClassicOrder:
		return o.Resolve(opts)
	case *CosignedOrder:
		return o.Resolve(opts)
	case *NonlinearOrder:
		return o.Resolve(opts)
	case *PriorityOrder:
		return o.Resolve(opts)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOrderType, o)
	}
}

// PinnedBlock reports the block a simulation of o must run at, if any.
func PinnedBlock(o Order) (uint64, bool) {
	if p, ok := o.(*PriorityOrder); ok {
		return p.TargetBlock(), true
	}
	return 0, false
}

// overrideOr returns base unless override is set to a non-zero value.
// A zero override cannot be told apart from an absent one.
func overrideOr(override, base *big.Int) *big.Int {
	if override == nil || override.Sign() == 0 {
		return base
	}
	return override
}

func amountOf(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v)
}
