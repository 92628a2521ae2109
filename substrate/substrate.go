package substrate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gsrpc "github.com/centrifuge/go-substrate-rpc-client/v4"
	"github.com/centrifuge/go-substrate-rpc-client/v4/signature"
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	bridgetypes "github.com/lightlink-network/ll-bridge-validator/types"
)

const (
	// DefaultNetwork is the generic substrate SS58 prefix.
	DefaultNetwork = 42

	maxRetries = 5
)

var ErrNoSigner = errors.New("no validator seed configured")

type Client struct {
	api       *gsrpc.SubstrateAPI
	meta      *types.Metadata
	genesis   types.Hash
	eventsKey types.StorageKey
	pair      *signature.KeyringPair

	// held from nonce allocation until the node accepts or rejects the
	// extrinsic
	nonceMu sync.Mutex
	nonces  nonceTracker

	logger *slog.Logger
	Opts   *ClientOpts
}

type ClientOpts struct {
	Endpoint string
	// Seed is the validator's secret seed or mnemonic. Without it the client
	// can read events but not submit.
	Seed       string
	Network    uint16
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// NewClient connects to the ledger node and loads the runtime metadata.
func NewClient(opts ClientOpts) (*Client, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Network == 0 {
		opts.Network = DefaultNetwork
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}

	api, err := gsrpc.NewSubstrateAPI(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ledger node: %w", err)
	}

	c := &Client{
		api:    api,
		logger: opts.Logger.With("component", "substrate"),
		Opts:   &opts,
	}

	c.meta, err = retry(context.Background(), c, "get metadata", func() (*types.Metadata, error) {
		return api.RPC.State.GetMetadataLatest()
	})
	if err != nil {
		return nil, err
	}

	c.genesis, err = retry(context.Background(), c, "get genesis hash", func() (types.Hash, error) {
		return api.RPC.Chain.GetBlockHash(0)
	})
	if err != nil {
		return nil, err
	}

	c.eventsKey, err = types.CreateStorageKey(c.meta, "System", "Events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create events storage key: %w", err)
	}

	if opts.Seed != "" {
		pair, err := signature.KeyringPairFromSecret(opts.Seed, uint8(opts.Network))
		if err != nil {
			return nil, fmt.Errorf("failed to load validator seed: %w", err)
		}
		c.pair = &pair
	}

	c.logger.Info("Connected to ledger", "genesis", c.genesis.Hex(), "validator", c.Account().Hex())

	return c, nil
}

func (c *Client) Chain() bridgetypes.Chain {
	return bridgetypes.Substrate
}

// Account is the validator account extrinsics are signed with. It is zero
// for a read-only client.
func (c *Client) Account() bridgetypes.SubAddress {
	var account bridgetypes.SubAddress
	if c.pair != nil {
		copy(account[:], c.pair.PublicKey)
	}
	return account
}

func (c *Client) LatestBlock(ctx context.Context) (uint64, error) {
	header, err := retry(ctx, c, "get latest header", func() (*types.Header, error) {
		return c.api.RPC.Chain.GetHeaderLatest()
	})
	if err != nil {
		return 0, err
	}
	return uint64(header.Number), nil
}

// FilterEvents returns the Bridge pallet events in blocks from through to.
// A block whose event records cannot be decoded is logged and skipped.
func (c *Client) FilterEvents(ctx context.Context, from, to uint64) ([]bridgetypes.Event, error) {
	var out []bridgetypes.Event

	for n := from; n <= to; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hash, err := retry(ctx, c, "get block hash", func() (types.Hash, error) {
			return c.api.RPC.Chain.GetBlockHash(n)
		})
		if err != nil {
			return nil, err
		}

		raw, err := retry(ctx, c, "get events", func() (*types.StorageDataRaw, error) {
			return c.api.RPC.State.GetStorageRaw(c.eventsKey, hash)
		})
		if err != nil {
			return nil, err
		}
		if raw == nil || len(*raw) == 0 {
			continue
		}

		events := Events{}
		if err := types.EventRecordsRaw(*raw).DecodeEventRecords(c.meta, &events); err != nil {
			c.logger.Warn("skipping undecodable block", "block", n, "hash", hash.Hex(), "error", err)
			continue
		}

		out = append(out, bridgeEvents(&events, n)...)
	}

	return out, nil
}

// retry runs fn up to maxRetries times, sleeping RetryDelay between attempts.
func retry[T any](ctx context.Context, c *Client, what string, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		v, err := fn()
		if err == nil {
			return v, nil
		}
		lastErr = err

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
