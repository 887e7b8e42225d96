package chain

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	permit2Addr = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")
	quoterAddr  = common.HexToAddress("0x54539967a06Fc0E3C3ED0ee320Eb67362D13C5fF")
	swapperAddr = common.HexToAddress("0x0000000000000000000000000000000000000abc")
)

// Calldata prefixes understood by fakeEth when called on the quoter.
const (
	callOK     = 0x01
	callRevert = 0x02
	callEmpty  = 0x03
	callFail   = 0x04
	callBare   = 0x05
)

type revertError struct{ data string }

func (e *revertError) Error() string          { return "execution reverted" }
func (e *revertError) ErrorCode() int         { return 3 }
func (e *revertError) ErrorData() interface{} { return e.data }

type fakeCallArgs struct {
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Input hexutil.Bytes  `json:"input"`
}

// fakeEth serves the eth namespace over an in-process RPC server.
type fakeEth struct {
	mu      sync.Mutex
	block   uint64
	bitmaps map[string]*big.Int // keyed by word position
	pins    []uint64
}

func (f *fakeEth) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(f.block)
}

func (f *fakeEth) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(1))
}

func (f *fakeEth) Call(args fakeCallArgs, block string, state *json.RawMessage, overrides *blockOverrides) (hexutil.Bytes, error) {
	data := args.Data
	if len(data) == 0 {
		data = args.Input
	}

	if overrides != nil && overrides.Number != nil {
		f.mu.Lock()
		f.pins = append(f.pins, overrides.Number.ToInt().Uint64())
		f.mu.Unlock()
	}

	if args.To == permit2Addr {
		method := permit2ABI.Methods["nonceBitmap"]
		values, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			return nil, err
		}
		bitmap, ok := f.bitmaps[values[1].(*big.Int).String()]
		if !ok {
			bitmap = new(big.Int)
		}
		return method.Outputs.Pack(bitmap)
	}

	switch data[0] {
	case callRevert:
		return nil, &revertError{data: hexutil.Encode(data[1:])}
	case callEmpty:
		return nil, &revertError{}
	case callFail:
		return nil, errors.New("header not found")
	case callBare:
		// What geth returns for revert() with no reason.
		return nil, errors.New("execution reverted")
	default:
		return hexutil.Bytes(data[1:]), nil
	}
}

func newTestClient(t *testing.T, eth *fakeEth) *Client {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", eth))
	t.Cleanup(server.Stop)

	c := NewClient(rpc.DialInProc(server), permit2Addr, nil)
	t.Cleanup(c.Close)
	return c
}

func TestBatchCall(t *testing.T) {
	c := newTestClient(t, &fakeEth{})

	results, err := c.BatchCall(context.Background(), quoterAddr, [][]byte{
		{callOK, 0xaa, 0xbb},
		{callRevert, 0x75, 0x66, 0x88, 0xfe},
		{callEmpty},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Success)
	assert.Equal(t, []byte{0xaa, 0xbb}, results[0].ReturnData)

	assert.False(t, results[1].Success)
	assert.Equal(t, []byte{0x75, 0x66, 0x88, 0xfe}, results[1].ReturnData)

	assert.False(t, results[2].Success)
	assert.Empty(t, results[2].ReturnData)
}

func TestBatchCall_RevertWithoutData(t *testing.T) {
	c := newTestClient(t, &fakeEth{})

	results, err := c.BatchCall(context.Background(), quoterAddr, [][]byte{{callOK, 0x01}, {callBare}}, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Empty(t, results[1].ReturnData)
}

func TestBatchCall_PinnedBlock(t *testing.T) {
	eth := &fakeEth{}
	c := newTestClient(t, eth)

	pin := uint64(1234)
	results, err := c.BatchCall(context.Background(), quoterAddr, [][]byte{{callOK}}, &pin)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, []uint64{1234}, eth.pins)
}

func TestBatchCall_TransportError(t *testing.T) {
	c := newTestClient(t, &fakeEth{})

	_, err := c.BatchCall(context.Background(), quoterAddr, [][]byte{{callOK}, {callFail}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header not found")
}

func TestBlockNumber(t *testing.T) {
	c := newTestClient(t, &fakeEth{block: 19_000_000})

	n, err := c.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(19_000_000), n)
}

func TestIsNonceUsed(t *testing.T) {
	word0 := new(big.Int).SetBit(new(big.Int), 5, 1)
	word1 := new(big.Int).SetBit(new(big.Int), 255, 1)
	c := newTestClient(t, &fakeEth{bitmaps: map[string]*big.Int{"0": word0, "1": word1}})

	tests := []struct {
		name  string
		nonce *big.Int
		want  bool
	}{
		{"used bit in first word", big.NewInt(5), true},
		{"unused bit in first word", big.NewInt(6), false},
		{"used bit in second word", big.NewInt(256 + 255), true},
		{"same bit in second word", big.NewInt(256 + 5), false},
		{"empty word", big.NewInt(1 << 20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			used, err := c.IsNonceUsed(context.Background(), swapperAddr, tt.nonce)
			require.NoError(t, err)
			assert.Equal(t, tt.want, used)
		})
	}
}

func TestIsNonceUsed_NilNonce(t *testing.T) {
	c := newTestClient(t, &fakeEth{})

	_, err := c.IsNonceUsed(context.Background(), swapperAddr, nil)
	assert.ErrorIs(t, err, ErrNilNonce)
}
