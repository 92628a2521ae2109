package quorum

import (
	"errors"
	"fmt"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

var ErrUnsupportedTransition = errors.New("unsupported status transition")

// Kind selects the payload and the execution routine of a proposal.
type Kind uint8

const (
	KindTransfer Kind = iota
	KindLimits
	KindValidator
	KindBridge
)

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "Transfer"
	case KindLimits:
		return "Limits"
	case KindValidator:
		return "Validator"
	case KindBridge:
		return "Bridge"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

type Status uint8

const (
	StatusPending Status = iota
	StatusDeposit
	StatusWithdraw
	StatusApproved
	StatusCanceled
	StatusConfirmed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusDeposit:
		return "Deposit"
	case StatusWithdraw:
		return "Withdraw"
	case StatusApproved:
		return "Approved"
	case StatusCanceled:
		return "Canceled"
	case StatusConfirmed:
		return "Confirmed"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Action is the intent a message was created with. It never changes.
type Action uint8

const (
	ActionDeposit Action = iota
	ActionWithdraw
	ActionAddValidator
	ActionRemoveValidator
	ActionPauseBridge
	ActionResumeBridge
	ActionChangeMinTx
	ActionChangeMaxTx
	ActionChangePendingBurnLimit
	ActionChangePendingMintLimit
)

func (a Action) String() string {
	switch a {
	case ActionDeposit:
		return "Deposit"
	case ActionWithdraw:
		return "Withdraw"
	case ActionAddValidator:
		return "AddValidator"
	case ActionRemoveValidator:
		return "RemoveValidator"
	case ActionPauseBridge:
		return "PauseBridge"
	case ActionResumeBridge:
		return "ResumeBridge"
	case ActionChangeMinTx:
		return "ChangeMinTx"
	case ActionChangeMaxTx:
		return "ChangeMaxTx"
	case ActionChangePendingBurnLimit:
		return "ChangePendingBurnLimit"
	case ActionChangePendingMintLimit:
		return "ChangePendingMintLimit"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// Kind returns the proposal kind an action belongs to.
func (a Action) Kind() Kind {
	switch a {
	case ActionDeposit, ActionWithdraw:
		return KindTransfer
	case ActionAddValidator, ActionRemoveValidator:
		return KindValidator
	case ActionPauseBridge, ActionResumeBridge:
		return KindBridge
	default:
		return KindLimits
	}
}

// kindHandler is the per-kind part of the quorum routine. execute runs once
// quorum is reached, on a copy of the message; it either applies its whole
// side effect and returns the ledger events to emit, or fails without
// touching the machine.
type kindHandler interface {
	checkTransition(status Status, action Action) error
	execute(m *Machine, msg *Message) ([]types.Event, error)
}

var handlers = map[Kind]kindHandler{
	KindTransfer:  transferKind{},
	KindLimits:    limitsKind{},
	KindValidator: validatorKind{},
	KindBridge:    bridgeKind{},
}

func unsupported(kind Kind, status Status, action Action) error {
	return fmt.Errorf("%w: %s %s with status %s", ErrUnsupportedTransition, kind, action, status)
}

type transferKind struct{}

func (transferKind) checkTransition(status Status, action Action) error {
	switch {
	case action == ActionDeposit && status == StatusApproved:
		return nil
	case action == ActionWithdraw && (status == StatusApproved || status == StatusConfirmed):
		return nil
	default:
		return unsupported(KindTransfer, status, action)
	}
}

func (transferKind) execute(m *Machine, msg *Message) ([]types.Event, error) {
	switch {
	case msg.Action == ActionDeposit && msg.Status == StatusApproved:
		if err := m.ledger.mint(msg.SubAddress, msg.Amount); err != nil {
			return nil, err
		}
		m.pendingMint = saturatingSub(m.pendingMint, msg.Amount)
		msg.Status = StatusConfirmed
		msg.Settled = true
		return []types.Event{types.SubMintedMessage{ID: msg.ID, Block: m.height}}, nil

	case msg.Action == ActionWithdraw && msg.Status == StatusApproved:
		if err := m.ledger.lock(msg.SubAddress, msg.Amount); err != nil {
			return nil, err
		}
		msg.Locked = true
		return []types.Event{types.SubApprovedRelayMessage{
			ID:     msg.ID,
			From:   msg.SubAddress,
			To:     msg.EthAddress,
			Amount: amountOf(msg.Amount),
			Block:  m.height,
		}}, nil

	case msg.Action == ActionWithdraw && msg.Status == StatusConfirmed:
		if err := m.ledger.unlockAndBurn(msg.SubAddress, msg.Amount); err != nil {
			return nil, err
		}
		m.pendingBurn = saturatingSub(m.pendingBurn, msg.Amount)
		msg.Locked = false
		msg.Settled = true
		return []types.Event{types.SubBurnedMessage{
			ID:     msg.ID,
			From:   msg.SubAddress,
			To:     msg.EthAddress,
			Amount: amountOf(msg.Amount),
			Block:  m.height,
		}}, nil
	}

	return nil, unsupported(KindTransfer, msg.Status, msg.Action)
}

type limitsKind struct{}

func (limitsKind) checkTransition(status Status, action Action) error {
	if status != StatusApproved || action.Kind() != KindLimits {
		return unsupported(KindLimits, status, action)
	}
	return nil
}

func (limitsKind) execute(m *Machine, msg *Message) ([]types.Event, error) {
	next := m.limits
	switch msg.Action {
	case ActionChangeMinTx:
		next.MinTx = msg.Amount
	case ActionChangeMaxTx:
		next.MaxTx = msg.Amount
	case ActionChangePendingBurnLimit:
		next.PendingBurn = msg.Amount
	case ActionChangePendingMintLimit:
		next.PendingMint = msg.Amount
	default:
		return nil, unsupported(KindLimits, msg.Status, msg.Action)
	}
	if err := next.validate(); err != nil {
		return nil, err
	}

	m.limits = next
	msg.Status = StatusConfirmed
	msg.Settled = true
	return nil, nil
}

type validatorKind struct{}

func (validatorKind) checkTransition(status Status, action Action) error {
	if status != StatusApproved || action.Kind() != KindValidator {
		return unsupported(KindValidator, status, action)
	}
	return nil
}

func (validatorKind) execute(m *Machine, msg *Message) ([]types.Event, error) {
	switch msg.Action {
	case ActionAddValidator:
		if _, ok := m.validators[msg.Validator]; ok {
			return nil, fmt.Errorf("failed to add %s: %w", msg.Validator, ErrAlreadyValidator)
		}
		m.validators[msg.Validator] = struct{}{}
	case ActionRemoveValidator:
		if _, ok := m.validators[msg.Validator]; !ok {
			return nil, fmt.Errorf("failed to remove %s: %w", msg.Validator, ErrNotValidator)
		}
		if len(m.validators) == 1 {
			return nil, ErrLastValidator
		}
		delete(m.validators, msg.Validator)
	default:
		return nil, unsupported(KindValidator, msg.Status, msg.Action)
	}

	msg.Status = StatusConfirmed
	msg.Settled = true
	return nil, nil
}

type bridgeKind struct{}

func (bridgeKind) checkTransition(status Status, action Action) error {
	if status != StatusApproved || action.Kind() != KindBridge {
		return unsupported(KindBridge, status, action)
	}
	return nil
}

func (bridgeKind) execute(m *Machine, msg *Message) ([]types.Event, error) {
	switch msg.Action {
	case ActionPauseBridge:
		m.paused = true
	case ActionResumeBridge:
		m.paused = false
	default:
		return nil, unsupported(KindBridge, msg.Status, msg.Action)
	}

	msg.Status = StatusConfirmed
	msg.Settled = true
	return nil, nil
}

func saturatingSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}
