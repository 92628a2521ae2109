package substrate

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	bridgetypes "github.com/lightlink-network/ll-bridge-validator/types"
)

// Bridge pallet dispatchables.
const (
	callMultiSignedMint     = "Bridge.multi_signed_mint"
	callApproveTransfer     = "Bridge.approve_transfer"
	callConfirmTransfer     = "Bridge.confirm_transfer"
	callCancelTransfer      = "Bridge.cancel_transfer"
	callSetTransfer         = "Bridge.set_transfer"
	callAddValidator        = "Bridge.add_validator"
	callRemoveValidator     = "Bridge.remove_validator"
	callPauseBridge         = "Bridge.pause_bridge"
	callResumeBridge        = "Bridge.resume_bridge"
	callChangeMinLimit      = "Bridge.change_min_limit"
	callChangeMaxLimit      = "Bridge.change_max_limit"
	callSetPendingBurnLimit = "Bridge.set_pending_burn_limit"
	callSetPendingMintLimit = "Bridge.set_pending_mint_limit"
)

func (c *Client) MultiSignedMint(ctx context.Context, mid bridgetypes.MessageID, from common.Address, to bridgetypes.SubAddress, amount *uint256.Int) (common.Hash, error) {
	balance, err := toBalance(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return c.submit(ctx, callMultiSignedMint, types.Hash(mid), types.H160(from), types.H256(to), balance)
}

func (c *Client) ApproveTransfer(ctx context.Context, mid bridgetypes.MessageID) (common.Hash, error) {
	return c.submit(ctx, callApproveTransfer, types.Hash(mid))
}

func (c *Client) ConfirmTransfer(ctx context.Context, mid bridgetypes.MessageID) (common.Hash, error) {
	return c.submit(ctx, callConfirmTransfer, types.Hash(mid))
}

func (c *Client) CancelTransfer(ctx context.Context, mid bridgetypes.MessageID) (common.Hash, error) {
	return c.submit(ctx, callCancelTransfer, types.Hash(mid))
}

// SetTransfer starts a withdrawal of amount from the validator account to an
// Ethereum address.
func (c *Client) SetTransfer(ctx context.Context, to common.Address, amount *uint256.Int) (common.Hash, error) {
	balance, err := toBalance(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return c.submit(ctx, callSetTransfer, types.H160(to), balance)
}

func (c *Client) AddValidator(ctx context.Context, address bridgetypes.SubAddress) (common.Hash, error) {
	return c.submit(ctx, callAddValidator, types.H256(address))
}

func (c *Client) RemoveValidator(ctx context.Context, address bridgetypes.SubAddress) (common.Hash, error) {
	return c.submit(ctx, callRemoveValidator, types.H256(address))
}

func (c *Client) PauseBridge(ctx context.Context) (common.Hash, error) {
	return c.submit(ctx, callPauseBridge)
}

func (c *Client) ResumeBridge(ctx context.Context) (common.Hash, error) {
	return c.submit(ctx, callResumeBridge)
}

func (c *Client) ChangeMinLimit(ctx context.Context, mid bridgetypes.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, callChangeMinLimit, mid, amount)
}

func (c *Client) ChangeMaxLimit(ctx context.Context, mid bridgetypes.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, callChangeMaxLimit, mid, amount)
}

func (c *Client) SetPendingBurnLimit(ctx context.Context, mid bridgetypes.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, callSetPendingBurnLimit, mid, amount)
}

func (c *Client) SetPendingMintLimit(ctx context.Context, mid bridgetypes.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, callSetPendingMintLimit, mid, amount)
}

func (c *Client) limit(ctx context.Context, call string, mid bridgetypes.MessageID, amount *uint256.Int) (common.Hash, error) {
	balance, err := toBalance(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return c.submit(ctx, call, types.Hash(mid), balance)
}

// submit signs call with the validator seed and submits it. Nonces are
// allocated under nonceMu from the node's pending-aware next index, never
// below one this client already used, so concurrent dispatches from this
// validator never carry the same nonce.
func (c *Client) submit(ctx context.Context, call string, args ...interface{}) (common.Hash, error) {
	if c.pair == nil {
		return common.Hash{}, ErrNoSigner
	}
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}

	cl, err := types.NewCall(c.meta, call, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to build %s: %w", call, err)
	}
	ext := types.NewExtrinsic(cl)

	runtime, err := c.api.RPC.State.GetRuntimeVersionLatest()
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get runtime version: %w", err)
	}

	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	var next uint64
	if err := c.api.Client.Call(&next, "system_accountNextIndex", c.pair.Address); err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}
	nonce := c.nonces.allocate(next)

	err = ext.Sign(*c.pair, types.SignatureOptions{
		BlockHash:          c.genesis,
		Era:                types.ExtrinsicEra{IsMortalEra: false},
		GenesisHash:        c.genesis,
		Nonce:              types.NewUCompactFromUInt(nonce),
		SpecVersion:        runtime.SpecVersion,
		Tip:                types.NewUCompactFromUInt(0),
		TransactionVersion: runtime.TransactionVersion,
	})
	if err != nil {
		c.nonces.release(nonce)
		return common.Hash{}, fmt.Errorf("failed to sign %s: %w", call, err)
	}

	hash, err := c.api.RPC.Author.SubmitExtrinsic(ext)
	if err != nil {
		c.nonces.release(nonce)
		return common.Hash{}, fmt.Errorf("failed to submit %s with nonce %d: %w", call, nonce, err)
	}

	c.logger.Debug("submitted extrinsic", "call", call, "nonce", nonce, "hash", hash.Hex())

	return common.Hash(hash), nil
}

// toBalance encodes amount as the runtime's compact token balance, which is
// 64 bits wide.
func toBalance(amount *uint256.Int) (types.UCompact, error) {
	if amount == nil || !amount.IsUint64() {
		return types.UCompact{}, fmt.Errorf("amount %v does not fit a ledger balance", amount)
	}
	return types.NewUCompactFromUInt(amount.Uint64()), nil
}
