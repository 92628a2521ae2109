package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/sync/errgroup"

	"github.com/lightlink-network/ll-bridge-validator/database/models"
	"github.com/lightlink-network/ll-bridge-validator/metrics"
	"github.com/lightlink-network/ll-bridge-validator/types"
)

// EthereumClient submits signed bridge contract calls on Chain A. Every call
// fetches the account nonce right before it signs.
type EthereumClient interface {
	ApproveTransfer(ctx context.Context, mid types.MessageID, from common.Address, to types.SubAddress, amount *uint256.Int) (common.Hash, error)
	WithdrawTransfer(ctx context.Context, mid types.MessageID, from types.SubAddress, to common.Address, amount *uint256.Int) (common.Hash, error)
	ConfirmTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error)
}

// SubstrateClient submits the validator's votes on the ledger chain.
type SubstrateClient interface {
	MultiSignedMint(ctx context.Context, mid types.MessageID, from common.Address, to types.SubAddress, amount *uint256.Int) (common.Hash, error)
	ApproveTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error)
	ConfirmTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error)
	CancelTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error)
}

// Recorder stores the outcome of every dispatch.
type Recorder interface {
	CreateDispatch(ctx context.Context, dispatch models.Dispatch) error
}

type Executor struct {
	ethereum    EthereumClient
	substrate   SubstrateClient
	recorder    Recorder
	metrics     *metrics.Metrics
	concurrency int
	maxAttempts int
	retryDelay  time.Duration
	logger      *slog.Logger
}

type ExecutorOpts struct {
	Ethereum  EthereumClient
	Substrate SubstrateClient
	Recorder  Recorder // optional
	Metrics   *metrics.Metrics
	// Concurrency caps in-flight dispatches. Zero or negative is unbounded.
	Concurrency int
	// MaxAttempts is how many times a failed call is submitted. Zero means once.
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *slog.Logger
}

func NewExecutor(opts ExecutorOpts) *Executor {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = -1
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	return &Executor{
		ethereum:    opts.Ethereum,
		substrate:   opts.Substrate,
		recorder:    opts.Recorder,
		metrics:     opts.Metrics,
		concurrency: opts.Concurrency,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		logger:      opts.Logger.With("component", "executor"),
	}
}

// Run dispatches every event received from in, each in its own goroutine,
// until in is closed or ctx is done. It waits for in-flight dispatches.
func (e *Executor) Run(ctx context.Context, in <-chan types.Event) error {
	var g errgroup.Group
	g.SetLimit(e.concurrency)

	e.logger.Info("executor starting", "concurrency", e.concurrency, "maxAttempts", e.maxAttempts)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev, ok := <-in:
			if !ok {
				break loop
			}
			g.Go(func() error {
				// failures are logged and recorded by Dispatch
				_ = e.Dispatch(ctx, ev)
				return nil
			})
		}
	}

	e.logger.Info("shutting down executor, waiting for in-flight dispatches")
	return g.Wait()
}

// Dispatch issues the one outbound call ev maps to.
func (e *Executor) Dispatch(ctx context.Context, ev types.Event) error {
	record := models.Dispatch{
		MessageID:   ev.MessageID().Hex(),
		Kind:        ev.Kind(),
		Source:      string(ev.Source()),
		BlockNumber: ev.BlockNumber(),
	}

	c, err := e.route(ev)
	if err != nil {
		record.Status = string(types.DispatchFailed)
		record.Error = err.Error()
		e.logger.Error("failed to route event", "event", types.Describe(ev), "error", err)
		e.record(ctx, record)
		return err
	}
	if c == nil {
		record.Status = string(types.DispatchSkipped)
		e.logger.Info("event needs no outbound call", "event", types.Describe(ev))
		e.metrics.Dispatched("none", "skipped")
		e.record(ctx, record)
		return nil
	}

	record.Chain = string(c.chain)
	record.Call = c.name

	hash, attempts, err := e.submit(ctx, ev, c)
	record.Attempts = attempts
	if err != nil {
		record.Status = string(types.DispatchFailed)
		record.Error = err.Error()
		e.metrics.Dispatched(c.name, "failed")
		e.logger.Error("failed to dispatch event",
			"messageId", ev.MessageID(),
			"kind", ev.Kind(),
			"call", c.name,
			"chain", c.chain,
			"attempts", attempts,
			"error", err)
		e.record(ctx, record)
		return fmt.Errorf("failed to %s for %s: %w", c.name, ev.MessageID(), err)
	}

	record.Status = string(types.DispatchSubmitted)
	record.TxHash = hash.Hex()
	e.metrics.Dispatched(c.name, "submitted")
	e.logger.Info("dispatched event",
		"messageId", ev.MessageID(),
		"kind", ev.Kind(),
		"call", c.name,
		"chain", c.chain,
		"txHash", hash)
	e.record(ctx, record)

	return nil
}

// submit runs the call up to maxAttempts times. Clients fetch a fresh nonce
// on every attempt.
func (e *Executor) submit(ctx context.Context, ev types.Event, c *call) (common.Hash, int, error) {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		hash, err := c.submit(ctx)
		if err == nil {
			return hash, attempt, nil
		}
		lastErr = err

		if attempt < e.maxAttempts {
			e.logger.Warn("dispatch attempt failed, retrying",
				"messageId", ev.MessageID(),
				"call", c.name,
				"attempt", attempt,
				"error", err)

			select {
			case <-ctx.Done():
				return common.Hash{}, attempt, ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}
	}

	return common.Hash{}, e.maxAttempts, lastErr
}

func (e *Executor) record(ctx context.Context, dispatch models.Dispatch) {
	if e.recorder == nil {
		return
	}
	// the audit record is written even when the dispatch was cancelled
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := e.recorder.CreateDispatch(ctx, dispatch); err != nil {
		e.logger.Warn("failed to record dispatch", "messageId", dispatch.MessageID, "error", err)
	}
}
