package validation

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/dantezy/reactor-sdk/pkg/order"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrLengthMismatch = errors.New("results and orders differ in length")

// errorStringSelector is the selector of Error(string), used by require/revert
// with a reason string.
var errorStringSelector = Selector{0x08, 0xc3, 0x79, 0xa0}

// NonceChecker reports whether a swapper's nonce has been consumed.
type NonceChecker interface {
	IsNonceUsed(ctx context.Context, maker common.Address, nonce *big.Int) (bool, error)
}

// Snapshot is the chain state a batch is classified against.
type Snapshot struct {
	Now         time.Time
	BlockNumber uint64
}

// Classifier maps simulation results to outcomes.
type Classifier struct {
	known      KnownErrors
	substrings []SubstringRule
	logger     *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSubstringRules replaces the reason-string fallback rules.
func WithSubstringRules(rules []SubstringRule) Option {
	return func(c *Classifier) {
		c.substrings = append([]SubstringRule(nil), rules...)
	}
}

// WithLogger sets the logger used for unrecognized reverts.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Classifier) {
		c.logger = logger
	}
}

// NewClassifier creates a Classifier over a copy of known.
func NewClassifier(known KnownErrors, opts ...Option) *Classifier {
	c := &Classifier{
		known:      make(KnownErrors, len(known)),
		substrings: DefaultSubstringRules(),
		logger:     zap.NewNop(),
	}
	for selector, outcome := range known {
		c.known[selector] = outcome
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify returns the outcome of one simulated fill of o.
func (c *Classifier) Classify(result SimulationResult, o order.Order) Outcome {
	if result.Success {
		return OK
	}

	outcome := c.decode(result.ReturnData)
	// Exclusive filler validation reverts with the generic error, so only the
	// order itself tells the two apart.
	if outcome == ValidationFailed && o != nil && o.Info().AdditionalValidationContract != (common.Address{}) {
		return ExclusivityPeriod
	}
	return outcome
}

func (c *Classifier) decode(data []byte) Outcome {
	if len(data) < 4 {
		c.logger.Debug("empty revert data", zap.Int("length", len(data)))
		return UnknownError
	}

	var selector Selector
	copy(selector[:], data[:4])
	if outcome, ok := c.known.Lookup(selector); ok {
		return outcome
	}

	if selector == errorStringSelector {
		if reason, err := abi.UnpackRevert(data); err == nil {
			if outcome, ok := matchSubstring(c.substrings, reason); ok {
				return outcome
			}
			if outcome, ok := c.hexReason(reason); ok {
				return outcome
			}
			c.logger.Debug("unrecognized revert reason", zap.String("reason", reason))
			return UnknownError
		}
	}

	// Errors re-raised by wrapping contracts carry the original revert data
	// at a word boundary.
	for offset := 4; offset+4 <= len(data); offset += 32 {
		copy(selector[:], data[offset:offset+4])
		if outcome, ok := c.known.Lookup(selector); ok {
			return outcome
		}
	}

	c.logger.Debug("unrecognized revert",
		zap.String("selector", hex.EncodeToString(data[:4])),
		zap.Int("length", len(data)),
	)
	return UnknownError
}

// hexReason handles reason strings that hold hex encoded revert data.
func (c *Classifier) hexReason(reason string) (Outcome, bool) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(reason), "0x"))
	if err != nil || len(raw) < 4 {
		return UnknownError, false
	}
	var selector Selector
	copy(selector[:], raw[:4])
	return c.known.Lookup(selector)
}

// ClassifyBatch classifies results[i] against orders[i], then reconciles
// terminal states:
//
//   - an order reported Expired, or past its deadline, whose nonce has been
//     consumed was filled before it expired and becomes NonceUsed;
//   - an OK order pinned to a block later than snap.BlockNumber becomes
//     OrderNotFillableYet.
//
// Nonce lookups run concurrently. A lookup failure fails the batch. A nil
// checker skips nonce reconciliation, as does a nil order.
func (c *Classifier) ClassifyBatch(ctx context.Context, results []SimulationResult, orders []order.Order, snap Snapshot, nonces NonceChecker) ([]Outcome, error) {
	if len(results) != len(orders) {
		return nil, fmt.Errorf("%w: %d results, %d orders", ErrLengthMismatch, len(results), len(orders))
	}

	outcomes := make([]Outcome, len(results))
	for i := range results {
		outcomes[i] = c.Classify(results[i], orders[i])
	}

	if nonces != nil {
		if err := c.reconcileNonces(ctx, outcomes, orders, snap.Now, nonces); err != nil {
			return nil, err
		}
	}

	for i, outcome := range outcomes {
		if outcome != OK {
			continue
		}
		if block, pinned := order.PinnedBlock(orders[i]); pinned && snap.BlockNumber < block {
			outcomes[i] = OrderNotFillableYet
		}
	}
	return outcomes, nil
}

func (c *Classifier) reconcileNonces(ctx context.Context, outcomes []Outcome, orders []order.Order, now time.Time, nonces NonceChecker) error {
	g, gctx := errgroup.WithContext(ctx)

	for i := range outcomes {
		if outcomes[i] == NonceUsed || orders[i] == nil {
			continue
		}
		info := orders[i].Info()
		if outcomes[i] != Expired && !deadlinePassed(info.Deadline, now) {
			continue
		}

		i := i
		g.Go(func() error {
			used, err := nonces.IsNonceUsed(gctx, info.Swapper, info.Nonce)
			if err != nil {
				return fmt.Errorf("failed to check nonce of order %d: %w", i, err)
			}
			if used {
				c.logger.Debug("expired order already filled",
					zap.Int("index", i),
					zap.String("swapper", info.Swapper.Hex()),
					zap.Stringer("nonce", info.Nonce),
				)
				outcomes[i] = NonceUsed
			}
			return nil
		})
	}

	return g.Wait()
}

func deadlinePassed(deadline uint64, now time.Time) bool {
	unix := now.Unix()
	return unix > 0 && uint64(unix) > deadline
}
