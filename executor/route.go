package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

var ErrNoClient = errors.New("no client configured for target chain")

// Outbound call names, as they appear in logs, metrics and dispatch records.
const (
	CallEthApproveTransfer  = "approveTransfer"
	CallEthWithdrawTransfer = "withdrawTransfer"
	CallEthConfirmTransfer  = "confirmTransfer"
	CallMultiSignedMint     = "multi_signed_mint"
	CallSubApproveTransfer  = "approve_transfer"
	CallSubConfirmTransfer  = "confirm_transfer"
	CallSubCancelTransfer   = "cancel_transfer"
)

type call struct {
	chain  types.Chain
	name   string
	submit func(ctx context.Context) (common.Hash, error)
}

// route maps an event to its outbound call. A nil call means the event is
// terminal.
func (e *Executor) route(ev types.Event) (*call, error) {
	switch ev := ev.(type) {
	case types.EthRelayMessage:
		amount := ev.Amount
		return e.eth(CallEthApproveTransfer, func(ctx context.Context) (common.Hash, error) {
			return e.ethereum.ApproveTransfer(ctx, ev.ID, ev.From, ev.To, &amount)
		})
	case types.EthApprovedRelayMessage:
		amount := ev.Amount
		return e.sub(CallMultiSignedMint, func(ctx context.Context) (common.Hash, error) {
			return e.substrate.MultiSignedMint(ctx, ev.ID, ev.From, ev.To, &amount)
		})
	case types.EthRevertMessage:
		return e.sub(CallSubCancelTransfer, func(ctx context.Context) (common.Hash, error) {
			return e.substrate.CancelTransfer(ctx, ev.ID)
		})
	case types.EthWithdrawMessage:
		return e.sub(CallSubConfirmTransfer, func(ctx context.Context) (common.Hash, error) {
			return e.substrate.ConfirmTransfer(ctx, ev.ID)
		})
	case types.SubRelayMessage:
		return e.sub(CallSubApproveTransfer, func(ctx context.Context) (common.Hash, error) {
			return e.substrate.ApproveTransfer(ctx, ev.ID)
		})
	case types.SubApprovedRelayMessage:
		amount := ev.Amount
		return e.eth(CallEthWithdrawTransfer, func(ctx context.Context) (common.Hash, error) {
			return e.ethereum.WithdrawTransfer(ctx, ev.ID, ev.From, ev.To, &amount)
		})
	case types.SubBurnedMessage:
		return nil, nil
	case types.SubMintedMessage:
		return e.eth(CallEthConfirmTransfer, func(ctx context.Context) (common.Hash, error) {
			return e.ethereum.ConfirmTransfer(ctx, ev.ID)
		})
	default:
		return nil, fmt.Errorf("unknown event %T", ev)
	}
}

func (e *Executor) eth(name string, submit func(context.Context) (common.Hash, error)) (*call, error) {
	if e.ethereum == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoClient)
	}
	return &call{chain: types.Ethereum, name: name, submit: submit}, nil
}

func (e *Executor) sub(name string, submit func(context.Context) (common.Hash, error)) (*call, error) {
	if e.substrate == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoClient)
	}
	return &call{chain: types.Substrate, name: name, submit: submit}, nil
}
