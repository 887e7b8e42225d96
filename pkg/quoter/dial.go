package quoter

import (
	"context"
	"errors"
	"fmt"

	"github.com/dantezy/reactor-sdk/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

var ErrInvalidSettings = errors.New("invalid quoter settings")

// Settings locates the node and contracts a dialed Quoter talks to.
type Settings struct {
	RPCURL      string // http(s) or ws(s) endpoint
	ChainID     int64
	OrderQuoter common.Address
	Permit2     common.Address
}

func (s Settings) validate() error {
	switch {
	case s.RPCURL == "":
		return fmt.Errorf("%w: rpc url is empty", ErrInvalidSettings)
	case s.ChainID <= 0:
		return fmt.Errorf("%w: chain id %d", ErrInvalidSettings, s.ChainID)
	case s.OrderQuoter == (common.Address{}):
		return fmt.Errorf("%w: order quoter address is zero", ErrInvalidSettings)
	case s.Permit2 == (common.Address{}):
		return fmt.Errorf("%w: permit2 address is zero", ErrInvalidSettings)
	}
	return nil
}

// Dial connects to s.RPCURL and returns a Quoter backed by that node. The
// node must report s.ChainID. Call Close when done.
func Dial(ctx context.Context, s Settings, opts ...Option) (*Quoter, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	q := New(nil, nil, s.OrderQuoter, opts...)

	client, err := chain.Dial(ctx, s.RPCURL, s.Permit2, q.logger)
	if err != nil {
		return nil, err
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain id: %w", err)
	}
	if !chainID.IsInt64() || chainID.Int64() != s.ChainID {
		client.Close()
		return nil, fmt.Errorf("rpc reports chain %s, configured for %d", chainID, s.ChainID)
	}

	q.caller, q.nonces, q.close = client, client, client.Close
	q.logger.Info("quoter connected",
		zap.Int64("chain_id", s.ChainID),
		zap.String("quoter", s.OrderQuoter.Hex()),
	)
	return q, nil
}
