package ethereum

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

const (
	DefaultGasPrice = 24_000_000_000
	DefaultGasLimit = 5_000_000

	maxRetries = 5
)

// Backend is the subset of ethclient.Client the bridge client needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q geth.FilterQuery) ([]gethtypes.Log, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *gethtypes.Transaction) error
}

var _ Backend = &ethclient.Client{}

type Client struct {
	backend Backend
	chainId *big.Int
	abi     abi.ABI
	key     *ecdsa.PrivateKey
	from    common.Address
	events  map[common.Hash]abi.Event

	// held from nonce fetch until the transaction is accepted
	nonceMu sync.Mutex

	logger *slog.Logger
	Opts   *ClientOpts
}

type ClientOpts struct {
	Endpoint      string
	BridgeAddress common.Address
	// PrivateKey is the hex encoded validator key. Without it the client
	// can read events but not send.
	PrivateKey string
	GasPrice   *big.Int
	GasLimit   uint64
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// NewClient dials the Chain A node over RPC.
func NewClient(opts ClientOpts) (*Client, error) {
	client, err := ethclient.Dial(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum: %w", err)
	}

	return NewClientWithBackend(client, opts)
}

func NewClientWithBackend(backend Backend, opts ClientOpts) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.GasPrice == nil {
		opts.GasPrice = big.NewInt(DefaultGasPrice)
	}
	if opts.GasLimit == 0 {
		opts.GasLimit = DefaultGasLimit
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	bridgeABI, err := abi.JSON(strings.NewReader(BridgeABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse bridge abi: %w", err)
	}

	c := &Client{
		backend: backend,
		abi:     bridgeABI,
		events:  make(map[common.Hash]abi.Event),
		logger:  opts.Logger.With("component", "ethereum"),
		Opts:    &opts,
	}
	for _, name := range []string{eventRelayMessage, eventApprovedRelayMessage, eventRevertMessage, eventWithdrawMessage} {
		ev := bridgeABI.Events[name]
		c.events[ev.ID] = ev
	}

	if opts.PrivateKey != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(opts.PrivateKey, "0x"))
		if err != nil {
			return nil, fmt.Errorf("failed to parse validator key: %w", err)
		}
		c.key = key
		c.from = crypto.PubkeyToAddress(key.PublicKey)
	}

	chainId, err := retry(context.Background(), c, "get chainId", func(ctx context.Context) (*big.Int, error) {
		return backend.ChainID(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.chainId = chainId

	c.logger.Info("Connected to Ethereum", "chainId", chainId, "bridge", opts.BridgeAddress.Hex(), "validator", c.from.Hex())

	return c, nil
}

func (c *Client) Chain() types.Chain {
	return types.Ethereum
}

// Address is the validator account transactions are sent from.
func (c *Client) Address() common.Address {
	return c.from
}

func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	return retry(ctx, c, "get block number", func(ctx context.Context) (uint64, error) {
		return c.backend.BlockNumber(ctx)
	})
}

// retry runs fn up to maxRetries times, sleeping RetryDelay between attempts.
func retry[T any](ctx context.Context, c *Client, what string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if v, err := fn(ctx); err == nil {
			return v, nil
		} else {
			lastErr = err
		}

		if attempt < maxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(c.Opts.RetryDelay):
			}
		}
	}

	return zero, fmt.Errorf("failed to %s after %d attempts: %w", what, maxRetries, lastErr)
}
