package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

var ErrNoSigner = errors.New("no validator key configured")

type Bridge interface {
	ApproveTransfer(ctx context.Context, mid types.MessageID, from common.Address, to types.SubAddress, amount *uint256.Int) (common.Hash, error)
	WithdrawTransfer(ctx context.Context, mid types.MessageID, from types.SubAddress, to common.Address, amount *uint256.Int) (common.Hash, error)
	ConfirmTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error)
}

var _ Bridge = &Client{}

func (c *Client) ApproveTransfer(ctx context.Context, mid types.MessageID, from common.Address, to types.SubAddress, amount *uint256.Int) (common.Hash, error) {
	return c.send(ctx, methodApproveTransfer, [32]byte(mid), from, [32]byte(to), amount.ToBig())
}

func (c *Client) WithdrawTransfer(ctx context.Context, mid types.MessageID, from types.SubAddress, to common.Address, amount *uint256.Int) (common.Hash, error) {
	return c.send(ctx, methodWithdrawTransfer, [32]byte(mid), [32]byte(from), to, amount.ToBig())
}

func (c *Client) ConfirmTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error) {
	return c.send(ctx, methodConfirmTransfer, [32]byte(mid))
}

// send packs a bridge call into a legacy transaction with the configured gas
// price and limit, signs it and submits it. The nonce is read and used under
// nonceMu so concurrent sends from this account never share one.
func (c *Client) send(ctx context.Context, method string, args ...interface{}) (common.Hash, error) {
	if c.key == nil {
		return common.Hash{}, ErrNoSigner
	}

	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	c.nonceMu.Lock()
	defer c.nonceMu.Unlock()

	nonce, err := c.backend.PendingNonceAt(ctx, c.from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &c.Opts.BridgeAddress,
		Value:    new(big.Int),
		Gas:      c.Opts.GasLimit,
		GasPrice: c.Opts.GasPrice,
		Data:     data,
	})

	signed, err := gethtypes.SignTx(tx, gethtypes.NewEIP155Signer(c.chainId), c.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to sign %s: %w", method, err)
	}

	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send %s with nonce %d: %w", method, nonce, err)
	}

	c.logger.Debug("sent transaction", "method", method, "nonce", nonce, "txHash", signed.Hash().Hex())

	return signed.Hash(), nil
}
