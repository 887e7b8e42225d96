package quoter

import (
	"context"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var permit2Addr = common.HexToAddress("0x000000000022D473030F116dDEE9F6B43aC78BA3")

// chainNode answers the eth methods Dial and Quoter use.
type chainNode struct {
	chainID int64
	block   uint64
}

func (n *chainNode) ChainId() *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(n.chainID))
}

func (n *chainNode) BlockNumber() hexutil.Uint64 {
	return hexutil.Uint64(n.block)
}

func newTestNode(t *testing.T, node *chainNode) string {
	t.Helper()
	server := rpc.NewServer()
	require.NoError(t, server.RegisterName("eth", node))
	t.Cleanup(server.Stop)

	httpServer := httptest.NewServer(server)
	t.Cleanup(httpServer.Close)
	return httpServer.URL
}

func TestDial(t *testing.T) {
	url := newTestNode(t, &chainNode{chainID: 1, block: 19_000_000})

	q, err := Dial(context.Background(), Settings{
		RPCURL:      url,
		ChainID:     1,
		OrderQuoter: quoterAddr,
		Permit2:     permit2Addr,
	})
	require.NoError(t, err)
	defer q.Close()

	n, err := q.caller.BlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(19_000_000), n)
	assert.NotNil(t, q.nonces)
}

func TestDial_ChainMismatch(t *testing.T) {
	url := newTestNode(t, &chainNode{chainID: 137})

	_, err := Dial(context.Background(), Settings{
		RPCURL:      url,
		ChainID:     1,
		OrderQuoter: quoterAddr,
		Permit2:     permit2Addr,
	})
	assert.ErrorContains(t, err, "rpc reports chain 137")
}

func TestDial_InvalidSettings(t *testing.T) {
	valid := Settings{RPCURL: "http://localhost:8545", ChainID: 1, OrderQuoter: quoterAddr, Permit2: permit2Addr}

	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"no rpc", func(s *Settings) { s.RPCURL = "" }},
		{"zero chain", func(s *Settings) { s.ChainID = 0 }},
		{"no quoter", func(s *Settings) { s.OrderQuoter = common.Address{} }},
		{"no permit2", func(s *Settings) { s.Permit2 = common.Address{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			_, err := Dial(context.Background(), s)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}
