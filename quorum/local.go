package quorum

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

// LocalChain is an in-process ledger client signing as one account against
// a shared Machine. It serves as both the event source and the call target
// for the ledger chain when no node is configured.
type LocalChain struct {
	machine *Machine
	account types.SubAddress
	calls   atomic.Uint64
}

func NewLocalChain(machine *Machine, account types.SubAddress) *LocalChain {
	return &LocalChain{machine: machine, account: account}
}

func (c *LocalChain) Chain() types.Chain {
	return types.Substrate
}

func (c *LocalChain) Account() types.SubAddress {
	return c.account
}

func (c *LocalChain) Machine() *Machine {
	return c.machine
}

// LatestBlock is the last sealed block.
func (c *LocalChain) LatestBlock(ctx context.Context) (uint64, error) {
	return c.machine.Height() - 1, nil
}

func (c *LocalChain) FilterEvents(ctx context.Context, from, to uint64) ([]types.Event, error) {
	return c.machine.Events(from, to), nil
}

// Produce advances the ledger one empty block per interval and expires
// stale proposals, standing in for block production when no node runs the
// bridge program. It returns when ctx is done.
func (m *Machine) Produce(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Advance(m.Height() + 1)
			m.ExpireProposals()
		}
	}
}

func (c *LocalChain) MultiSignedMint(ctx context.Context, mid types.MessageID, from common.Address, to types.SubAddress, amount *uint256.Int) (common.Hash, error) {
	value, err := toBalance(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return c.submit(ctx, "multi_signed_mint", func() error {
		return c.machine.MultiSignedMint(c.account, mid, from, to, value)
	})
}

func (c *LocalChain) ApproveTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error) {
	return c.submit(ctx, "approve_transfer", func() error {
		return c.machine.ApproveTransfer(c.account, mid)
	})
}

func (c *LocalChain) ConfirmTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error) {
	return c.submit(ctx, "confirm_transfer", func() error {
		return c.machine.ConfirmTransfer(c.account, mid)
	})
}

func (c *LocalChain) CancelTransfer(ctx context.Context, mid types.MessageID) (common.Hash, error) {
	return c.submit(ctx, "cancel_transfer", func() error {
		return c.machine.CancelTransfer(c.account, mid)
	})
}

func (c *LocalChain) SetTransfer(ctx context.Context, to common.Address, amount *uint256.Int) (common.Hash, error) {
	value, err := toBalance(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return c.submit(ctx, "set_transfer", func() error {
		_, err := c.machine.SetTransfer(c.account, to, value)
		return err
	})
}

func (c *LocalChain) AddValidator(ctx context.Context, address types.SubAddress) (common.Hash, error) {
	return c.submit(ctx, "add_validator", func() error {
		return c.machine.AddValidator(c.account, address)
	})
}

func (c *LocalChain) RemoveValidator(ctx context.Context, address types.SubAddress) (common.Hash, error) {
	return c.submit(ctx, "remove_validator", func() error {
		return c.machine.RemoveValidator(c.account, address)
	})
}

func (c *LocalChain) PauseBridge(ctx context.Context) (common.Hash, error) {
	return c.submit(ctx, "pause_bridge", func() error {
		return c.machine.PauseBridge(c.account)
	})
}

func (c *LocalChain) ResumeBridge(ctx context.Context) (common.Hash, error) {
	return c.submit(ctx, "resume_bridge", func() error {
		return c.machine.ResumeBridge(c.account)
	})
}

func (c *LocalChain) ChangeMinLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, "change_min_limit", mid, amount, c.machine.ChangeMinLimit)
}

func (c *LocalChain) ChangeMaxLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, "change_max_limit", mid, amount, c.machine.ChangeMaxLimit)
}

func (c *LocalChain) SetPendingBurnLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, "set_pending_burn_limit", mid, amount, c.machine.SetPendingBurnLimit)
}

func (c *LocalChain) SetPendingMintLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error) {
	return c.limit(ctx, "set_pending_mint_limit", mid, amount, c.machine.SetPendingMintLimit)
}

func (c *LocalChain) limit(ctx context.Context, call string, mid types.MessageID, amount *uint256.Int, vote func(types.SubAddress, types.MessageID, uint64) error) (common.Hash, error) {
	value, err := toBalance(amount)
	if err != nil {
		return common.Hash{}, err
	}
	return c.submit(ctx, call, func() error {
		return vote(c.account, mid, value)
	})
}

// submit applies one call and returns a hash identifying it, the way a node
// returns an extrinsic hash.
func (c *LocalChain) submit(ctx context.Context, call string, apply func() error) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	if err := apply(); err != nil {
		return common.Hash{}, fmt.Errorf("failed to submit %s: %w", call, err)
	}

	n := c.calls.Add(1)
	return crypto.Keccak256Hash(c.account[:], []byte(call), uint64Bytes(n)), nil
}

// toBalance converts a Chain A amount to the ledger's 64 bit balance.
func toBalance(amount *uint256.Int) (uint64, error) {
	if amount == nil {
		return 0, ErrInvalidAmount
	}
	if !amount.IsUint64() {
		return 0, fmt.Errorf("amount %s does not fit a ledger balance: %w", amount.Dec(), ErrOverflow)
	}
	return amount.Uint64(), nil
}
