// Package chain simulates calls and reads Permit2 nonces over JSON-RPC.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/dantezy/reactor-sdk/pkg/validation"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/vm"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

var ErrNilNonce = errors.New("nonce is nil")

// Permit2 ABI JSON for nonceBitmap
const permit2ABIJSON = `[
	{
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "wordPos", "type": "uint256"}
		],
		"name": "nonceBitmap",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

var permit2ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(permit2ABIJSON))
	if err != nil {
		panic("failed to parse Permit2 ABI: " + err.Error())
	}
	return parsed
}()

// Client is a JSON-RPC backed call simulator and nonce checker.
type Client struct {
	rpc     *rpc.Client
	eth     *ethclient.Client
	permit2 common.Address
	logger  *zap.Logger
}

// Dial connects to an http(s) or ws(s) endpoint.
func Dial(ctx context.Context, rawURL string, permit2 common.Address, logger *zap.Logger) (*Client, error) {
	c, err := rpc.DialContext(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}
	return NewClient(c, permit2, logger), nil
}

// NewClient wraps an existing RPC connection.
func NewClient(c *rpc.Client, permit2 common.Address, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		rpc:     c,
		eth:     ethclient.NewClient(c),
		permit2: permit2,
		logger:  logger.Named("chain"),
	}
}

func (c *Client) Close() {
	c.rpc.Close()
}

type callArgs struct {
	To   common.Address `json:"to"`
	Data hexutil.Bytes  `json:"data"`
}

type blockOverrides struct {
	Number *hexutil.Big `json:"number"`
}

// BatchCall sends one eth_call per calldata entry in a single JSON-RPC batch.
// Reverts are returned as unsuccessful results carrying the revert data.
func (c *Client) BatchCall(ctx context.Context, target common.Address, calldata [][]byte, pin *uint64) ([]validation.SimulationResult, error) {
	if len(calldata) == 0 {
		return nil, nil
	}

	returned := make([]hexutil.Bytes, len(calldata))
	batch := make([]rpc.BatchElem, len(calldata))
	for i, data := range calldata {
		args := []interface{}{callArgs{To: target, Data: data}, "latest"}
		if pin != nil {
			number := new(big.Int).SetUint64(*pin)
			args = append(args, nil, blockOverrides{Number: (*hexutil.Big)(number)})
		}
		batch[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   args,
			Result: &returned[i],
		}
	}

	if err := c.rpc.BatchCallContext(ctx, batch); err != nil {
		return nil, fmt.Errorf("eth_call batch failed: %w", err)
	}

	results := make([]validation.SimulationResult, len(batch))
	for i, elem := range batch {
		if elem.Error == nil {
			results[i] = validation.SimulationResult{Success: true, ReturnData: returned[i]}
			continue
		}
		data, reverted := revertOf(elem.Error)
		if !reverted {
			return nil, fmt.Errorf("eth_call %d failed: %w", i, elem.Error)
		}
		results[i] = validation.SimulationResult{ReturnData: data}
		c.logger.Debug("call reverted",
			zap.Int("index", i),
			zap.String("message", elem.Error.Error()),
		)
	}
	return results, nil
}

// revertCode is the JSON-RPC error code nodes use for reverts with data.
const revertCode = 3

// revertOf reports whether err is an execution revert and extracts its
// payload. Nodes return the payload as a hex string in the error data. A
// revert without data comes back as a plain "execution reverted" error.
func revertOf(err error) ([]byte, bool) {
	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if s, ok := dataErr.ErrorData().(string); ok {
			if raw, decodeErr := hexutil.Decode(s); decodeErr == nil {
				return raw, true
			}
		}
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == revertCode {
		return nil, true
	}
	if strings.HasPrefix(err.Error(), vm.ErrExecutionReverted.Error()) {
		return nil, true
	}
	return nil, false
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// IsNonceUsed reads the swapper's Permit2 nonce bitmap. The high 248 bits of
// the nonce select the word and the low 8 bits the bit within it.
func (c *Client) IsNonceUsed(ctx context.Context, maker common.Address, nonce *big.Int) (bool, error) {
	if nonce == nil {
		return false, ErrNilNonce
	}
	wordPos := new(big.Int).Rsh(nonce, 8)
	bitPos := int(new(big.Int).And(nonce, big.NewInt(0xff)).Int64())

	data, err := permit2ABI.Pack("nonceBitmap", maker, wordPos)
	if err != nil {
		return false, err
	}

	result, err := c.eth.CallContract(ctx, ethereum.CallMsg{
		To:   &c.permit2,
		Data: data,
	}, nil)
	if err != nil {
		return false, fmt.Errorf("failed to read nonce bitmap: %w", err)
	}

	var bitmap *big.Int
	if err := permit2ABI.UnpackIntoInterface(&bitmap, "nonceBitmap", result); err != nil {
		return false, fmt.Errorf("failed to decode nonce bitmap: %w", err)
	}
	return bitmap.Bit(bitPos) == 1, nil
}
