package quoter

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/dantezy/reactor-sdk/pkg/order"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// OrderQuoter ABI JSON for quote
const orderQuoterABIJSON = `[
	{
		"inputs": [
			{"name": "order", "type": "bytes"},
			{"name": "sig", "type": "bytes"}
		],
		"name": "quote",
		"outputs": [
			{
				"name": "result",
				"type": "tuple",
				"components": [
					{
						"name": "info",
						"type": "tuple",
						"components": [
							{"name": "reactor", "type": "address"},
							{"name": "swapper", "type": "address"},
							{"name": "nonce", "type": "uint256"},
							{"name": "deadline", "type": "uint256"},
							{"name": "additionalValidationContract", "type": "address"},
							{"name": "additionalValidationData", "type": "bytes"}
						]
					},
					{
						"name": "input",
						"type": "tuple",
						"components": [
							{"name": "token", "type": "address"},
							{"name": "amount", "type": "uint256"},
							{"name": "maxAmount", "type": "uint256"}
						]
					},
					{
						"name": "outputs",
						"type": "tuple[]",
						"components": [
							{"name": "token", "type": "address"},
							{"name": "amount", "type": "uint256"},
							{"name": "recipient", "type": "address"}
						]
					},
					{"name": "sig", "type": "bytes"},
					{"name": "hash", "type": "bytes32"}
				]
			}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var orderQuoterABI = mustParseABI(orderQuoterABIJSON)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic("failed to parse OrderQuoter ABI: " + err.Error())
	}
	return parsed
}

// resolvedOrder mirrors the ResolvedOrder struct returned by quote.
type resolvedOrder struct {
	Info    orderInfo
	Input   inputToken
	Outputs []outputToken
	Sig     []byte
	Hash    [32]byte
}

type orderInfo struct {
	Reactor                      common.Address
	Swapper                      common.Address
	Nonce                        *big.Int
	Deadline                     *big.Int
	AdditionalValidationContract common.Address
	AdditionalValidationData     []byte
}

type inputToken struct {
	Token     common.Address
	Amount    *big.Int
	MaxAmount *big.Int
}

type outputToken struct {
	Token     common.Address
	Amount    *big.Int
	Recipient common.Address
}

func packQuote(encodedOrder, sig []byte) ([]byte, error) {
	return orderQuoterABI.Pack("quote", encodedOrder, sig)
}

// unpackQuote decodes the return data of a successful quote call.
func unpackQuote(data []byte) (resolved *order.ResolvedOrder, err error) {
	values, err := orderQuoterABI.Unpack("quote", data)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("quote returned %d values", len(values))
	}

	// ConvertType panics on a shape mismatch.
	defer func() {
		if r := recover(); r != nil {
			resolved, err = nil, fmt.Errorf("unexpected quote result: %v", r)
		}
	}()
	wire := *abi.ConvertType(values[0], new(resolvedOrder)).(*resolvedOrder)

	resolved = &order.ResolvedOrder{
		Input: order.TokenAmount{
			Token:  wire.Input.Token,
			Amount: wire.Input.Amount,
		},
		Outputs: make([]order.ResolvedOutput, len(wire.Outputs)),
	}
	for i, out := range wire.Outputs {
		resolved.Outputs[i] = order.ResolvedOutput{
			Token:     out.Token,
			Amount:    out.Amount,
			Recipient: out.Recipient,
		}
	}
	return resolved, nil
}
