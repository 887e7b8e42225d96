// Package quoter validates signed orders by simulating fills through an
// on-chain order quoter and reports what each order would resolve to.
package quoter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dantezy/reactor-sdk/pkg/order"
	"github.com/dantezy/reactor-sdk/pkg/validation"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrUnexpectedResults = errors.New("caller returned an unexpected number of results")

// Caller simulates calls against chain state.
type Caller interface {
	// BatchCall simulates one call to target per calldata entry. A non-nil
	// pin runs every call as if at that block number.
	BatchCall(ctx context.Context, target common.Address, calldata [][]byte, pin *uint64) ([]validation.SimulationResult, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Encoder produces the byte payload the quoter contract expects for an order.
type Encoder interface {
	Encode(o order.Order) ([]byte, error)
}

// SignedOrder is an order and the swapper's signature over it.
type SignedOrder struct {
	Order     order.Order
	Signature []byte
}

// Quote is the validation outcome of one order. ResolvedOrder is set only
// when the outcome is OK.
type Quote struct {
	Validation    validation.Outcome
	ResolvedOrder *order.ResolvedOrder
}

// Quoter runs the simulate, classify and decode pipeline.
type Quoter struct {
	caller     Caller
	nonces     validation.NonceChecker
	address    common.Address
	encoder    Encoder
	classifier *validation.Classifier
	logger     *zap.Logger
	now        func() time.Time
	close      func()
}

// Option configures a Quoter.
type Option func(*Quoter)

func WithLogger(logger *zap.Logger) Option {
	return func(q *Quoter) {
		q.logger = logger
	}
}

func WithClassifier(c *validation.Classifier) Option {
	return func(q *Quoter) {
		q.classifier = c
	}
}

func WithEncoder(e Encoder) Option {
	return func(q *Quoter) {
		q.encoder = e
	}
}

// WithClock overrides the wall clock used for deadline checks.
func WithClock(now func() time.Time) Option {
	return func(q *Quoter) {
		q.now = now
	}
}

// New creates a Quoter simulating through the quoter contract at address.
// A nil nonces skips nonce reconciliation of expired orders.
func New(caller Caller, nonces validation.NonceChecker, address common.Address, opts ...Option) *Quoter {
	q := &Quoter{
		caller:  caller,
		nonces:  nonces,
		address: address,
		encoder: order.ABIEncoder{},
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.classifier == nil {
		q.classifier = validation.NewClassifier(validation.DefaultKnownErrors(), validation.WithLogger(q.logger))
	}
	return q
}

// Close releases the connection opened by Dial. It is a no-op otherwise.
func (q *Quoter) Close() {
	if q.close != nil {
		q.close()
	}
}

// Quote validates a single order.
func (q *Quoter) Quote(ctx context.Context, so SignedOrder) (Quote, error) {
	quotes, err := q.QuoteBatch(ctx, []SignedOrder{so})
	if err != nil {
		return Quote{}, err
	}
	return quotes[0], nil
}

// Validate returns only the outcome of a single order.
func (q *Quoter) Validate(ctx context.Context, so SignedOrder) (validation.Outcome, error) {
	quote, err := q.Quote(ctx, so)
	if err != nil {
		return validation.UnknownError, err
	}
	return quote.Validation, nil
}

// ValidateBatch returns the outcome of each order, in input order.
func (q *Quoter) ValidateBatch(ctx context.Context, orders []SignedOrder) ([]validation.Outcome, error) {
	quotes, err := q.QuoteBatch(ctx, orders)
	if err != nil {
		return nil, err
	}
	outcomes := make([]validation.Outcome, len(quotes))
	for i, quote := range quotes {
		outcomes[i] = quote.Validation
	}
	return outcomes, nil
}

// QuoteBatch validates orders and returns one Quote per order, in input order.
//
// Orders that must be simulated at a specific block are sent one call each
// with that block pinned. All other orders share a single batch. The current
// block number is read alongside. Any transport failure fails the batch.
func (q *Quoter) QuoteBatch(ctx context.Context, orders []SignedOrder) ([]Quote, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	calldata := make([][]byte, len(orders))
	plain := make([]int, 0, len(orders))
	for i, so := range orders {
		encoded, err := q.encoder.Encode(so.Order)
		if err != nil {
			return nil, fmt.Errorf("failed to encode order %d: %w", i, err)
		}
		calldata[i], err = packQuote(encoded, so.Signature)
		if err != nil {
			return nil, fmt.Errorf("failed to pack quote for order %d: %w", i, err)
		}
		if _, pinned := order.PinnedBlock(so.Order); !pinned {
			plain = append(plain, i)
		}
	}

	results := make([]validation.SimulationResult, len(orders))
	var blockNumber uint64

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := q.caller.BlockNumber(gctx)
		if err != nil {
			return fmt.Errorf("failed to get block number: %w", err)
		}
		blockNumber = n
		return nil
	})

	if len(plain) > 0 {
		g.Go(func() error {
			batch := make([][]byte, len(plain))
			for j, i := range plain {
				batch[j] = calldata[i]
			}
			simulated, err := q.caller.BatchCall(gctx, q.address, batch, nil)
			if err != nil {
				return fmt.Errorf("failed to simulate batch: %w", err)
			}
			if len(simulated) != len(plain) {
				return fmt.Errorf("%w: got %d, want %d", ErrUnexpectedResults, len(simulated), len(plain))
			}
			for j, i := range plain {
				results[i] = simulated[j]
			}
			return nil
		})
	}

	for i, so := range orders {
		block, pinned := order.PinnedBlock(so.Order)
		if !pinned {
			continue
		}
		i := i
		g.Go(func() error {
			simulated, err := q.caller.BatchCall(gctx, q.address, calldata[i:i+1], &block)
			if err != nil {
				return fmt.Errorf("failed to simulate order %d at block %d: %w", i, block, err)
			}
			if len(simulated) != 1 {
				return fmt.Errorf("%w: got %d, want 1", ErrUnexpectedResults, len(simulated))
			}
			results[i] = simulated[0]
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	plainOrders := make([]order.Order, len(orders))
	for i, so := range orders {
		plainOrders[i] = so.Order
	}
	snap := validation.Snapshot{Now: q.now(), BlockNumber: blockNumber}
	outcomes, err := q.classifier.ClassifyBatch(ctx, results, plainOrders, snap, q.nonces)
	if err != nil {
		return nil, err
	}

	quotes := make([]Quote, len(orders))
	for i, outcome := range outcomes {
		quotes[i].Validation = outcome
		if outcome != validation.OK {
			continue
		}
		resolved, err := unpackQuote(results[i].ReturnData)
		if err != nil {
			q.logger.Warn("failed to decode quote result",
				zap.Int("index", i),
				zap.Int("length", len(results[i].ReturnData)),
				zap.Error(err),
			)
			quotes[i].Validation = validation.UnknownError
			continue
		}
		quotes[i].ResolvedOrder = resolved
	}

	q.logger.Debug("quoted batch",
		zap.Int("orders", len(orders)),
		zap.Int("pinned", len(orders)-len(plain)),
		zap.Uint64("block", blockNumber),
	)
	return quotes, nil
}
