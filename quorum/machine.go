package quorum

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

var (
	ErrAlreadyVoted     = errors.New("validator already voted")
	ErrNotOpen          = errors.New("proposal is not open")
	ErrNotValidator     = errors.New("not a validator")
	ErrAlreadyValidator = errors.New("already a validator")
	ErrLastValidator    = errors.New("cannot remove the last validator")
	ErrUnknownMessage   = errors.New("unknown message")
	ErrUnknownProposal  = errors.New("unknown proposal")
	ErrMessageMismatch  = errors.New("message id already used with a different payload")
	ErrNotApproved      = errors.New("transfer must be approved first")
	ErrNotCancelable    = errors.New("transfer cannot be canceled")
	ErrBridgePaused     = errors.New("bridge is paused")
	ErrLimitExceeded    = errors.New("transfer limit exceeded")
	ErrInvalidLimits    = errors.New("invalid limits")
)

// Quorum is a simple majority of at least 51% of the validator set.
const (
	quorumNumerator   = 51
	quorumDenominator = 100
)

// Limits bound new transfers. A zero value disables that limit.
type Limits struct {
	MinTx       uint64 `json:"minTx"`
	MaxTx       uint64 `json:"maxTx"`
	PendingBurn uint64 `json:"pendingBurn"`
	PendingMint uint64 `json:"pendingMint"`
}

func (l Limits) validate() error {
	if l.MinTx != 0 && l.MaxTx != 0 && l.MinTx > l.MaxTx {
		return fmt.Errorf("%w: min %d above max %d", ErrInvalidLimits, l.MinTx, l.MaxTx)
	}
	return nil
}

func (l Limits) checkAmount(amount uint64) error {
	if amount == 0 {
		return ErrInvalidAmount
	}
	if l.MinTx != 0 && amount < l.MinTx {
		return fmt.Errorf("%w: %d below minimum %d", ErrLimitExceeded, amount, l.MinTx)
	}
	if l.MaxTx != 0 && amount > l.MaxTx {
		return fmt.Errorf("%w: %d above maximum %d", ErrLimitExceeded, amount, l.MaxTx)
	}
	return nil
}

func checkPending(pending, amount, limit uint64, what string) error {
	if limit == 0 {
		return nil
	}
	if pending+amount < pending || pending+amount > limit {
		return fmt.Errorf("%w: pending %s %d + %d above %d", ErrLimitExceeded, what, pending, amount, limit)
	}
	return nil
}

// Message is the payload a proposal votes on. Transfer messages use the
// address and amount fields; Validator messages use Validator; Limits
// messages use Amount.
type Message struct {
	ID         types.MessageID
	Kind       Kind
	Action     Action
	Status     Status
	EthAddress common.Address
	SubAddress types.SubAddress
	Amount     uint64
	Validator  types.SubAddress

	// Locked is set while the transfer amount is held by the bridge.
	Locked bool
	// Settled is set once the message reached a final outcome. A settled
	// proposal is never reopened.
	Settled bool
}

func (m Message) samePayload(o Message) bool {
	return m.Kind == o.Kind &&
		m.Action == o.Action &&
		m.EthAddress == o.EthAddress &&
		m.SubAddress == o.SubAddress &&
		m.Amount == o.Amount &&
		m.Validator == o.Validator
}

// Proposal is the voting round for one message.
type Proposal struct {
	TransferID uint64
	MessageID  types.MessageID
	Kind       Kind
	Open       bool
	Votes      uint32
	Round      uint32
	OpenedAt   uint64
}

type MachineOpts struct {
	Validators []types.SubAddress
	Limits     Limits
	// ProposalTTL is the number of blocks an unfinished proposal stays open.
	// Zero keeps proposals open until they reach quorum.
	ProposalTTL uint64
	Logger      *slog.Logger
}

// Machine is the ledger-side bridge program: token balances, the validator
// set and every quorum proposal. All methods are safe for concurrent use;
// calls are applied one at a time, and each successful state change seals
// a block.
type Machine struct {
	mu sync.Mutex

	ledger      *ledger
	validators  map[types.SubAddress]struct{}
	messages    map[types.MessageID]*Message
	proposals   []*Proposal
	transferIDs map[types.MessageID]uint64
	votes       map[uint64]map[types.SubAddress]struct{}
	cancels     map[types.MessageID]map[types.SubAddress]struct{}
	adminRounds map[common.Hash]uint64
	nonces      map[types.SubAddress]uint64

	limits      Limits
	paused      bool
	pendingMint uint64
	pendingBurn uint64

	height uint64
	ttl    uint64
	events []types.Event

	logger *slog.Logger
}

func NewMachine(opts MachineOpts) (*Machine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if len(opts.Validators) == 0 {
		return nil, fmt.Errorf("failed to create machine: %w", ErrLastValidator)
	}
	if err := opts.Limits.validate(); err != nil {
		return nil, fmt.Errorf("failed to create machine: %w", err)
	}

	m := &Machine{
		ledger:      newLedger(),
		validators:  make(map[types.SubAddress]struct{}, len(opts.Validators)),
		messages:    make(map[types.MessageID]*Message),
		transferIDs: make(map[types.MessageID]uint64),
		votes:       make(map[uint64]map[types.SubAddress]struct{}),
		cancels:     make(map[types.MessageID]map[types.SubAddress]struct{}),
		adminRounds: make(map[common.Hash]uint64),
		nonces:      make(map[types.SubAddress]uint64),
		limits:      opts.Limits,
		ttl:         opts.ProposalTTL,
		height:      1,
		logger:      opts.Logger.With("component", "quorum"),
	}
	for _, v := range opts.Validators {
		m.validators[v] = struct{}{}
	}

	return m, nil
}

// SetTransfer starts a ledger to Chain A withdrawal from the caller's free
// balance and emits a RelayMessage for it. It needs no validator.
func (m *Machine) SetTransfer(from types.SubAddress, to common.Address, amount uint64) (types.MessageID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.paused {
		return types.MessageID{}, ErrBridgePaused
	}
	if err := m.limits.checkAmount(amount); err != nil {
		return types.MessageID{}, err
	}
	if err := checkPending(m.pendingBurn, amount, m.limits.PendingBurn, "burn"); err != nil {
		return types.MessageID{}, err
	}
	if m.ledger.free(from) < amount {
		return types.MessageID{}, fmt.Errorf("failed to set transfer of %d from %s: %w", amount, from, ErrInsufficientBalance)
	}

	mid := crypto.Keccak256Hash(from[:], to[:], uint64Bytes(amount), uint64Bytes(m.nonces[from]))
	if _, ok := m.messages[mid]; ok {
		return types.MessageID{}, fmt.Errorf("failed to set transfer %s: %w", mid, ErrMessageMismatch)
	}
	m.nonces[from]++

	m.create(&Message{
		ID:         mid,
		Kind:       KindTransfer,
		Action:     ActionWithdraw,
		Status:     StatusWithdraw,
		EthAddress: to,
		SubAddress: from,
		Amount:     amount,
	})
	m.pendingBurn += amount
	m.seal(types.SubRelayMessage{ID: mid, Block: m.height})

	m.logger.Info("transfer set", "messageId", mid, "from", from, "to", to, "amount", amount)
	return mid, nil
}

// MultiSignedMint is a validator's vote to mint a Chain A deposit. The first
// call for a message id creates it; later calls must carry the same payload.
func (m *Machine) MultiSignedMint(validator types.SubAddress, mid types.MessageID, from common.Address, to types.SubAddress, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}

	msg := Message{
		ID:         mid,
		Kind:       KindTransfer,
		Action:     ActionDeposit,
		Status:     StatusDeposit,
		EthAddress: from,
		SubAddress: to,
		Amount:     amount,
	}

	if existing, ok := m.messages[mid]; ok {
		if !existing.samePayload(msg) {
			return fmt.Errorf("failed to mint %s: %w", mid, ErrMessageMismatch)
		}
		return m.castVote(validator, m.transferIDs[mid])
	}

	if m.paused {
		return ErrBridgePaused
	}
	if err := m.limits.checkAmount(amount); err != nil {
		return err
	}
	if err := checkPending(m.pendingMint, amount, m.limits.PendingMint, "mint"); err != nil {
		return err
	}

	id := m.create(&msg)
	m.pendingMint += amount
	if err := m.castVote(validator, id); err != nil {
		m.pendingMint -= amount
		m.uncreate(mid)
		return err
	}

	return nil
}

// ApproveTransfer is a validator's vote on a transfer message. A confirmed
// withdrawal only takes confirm votes, so a late approval cannot count
// toward its burn.
func (m *Machine) ApproveTransfer(validator types.SubAddress, mid types.MessageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	msg, err := m.message(mid, KindTransfer)
	if err != nil {
		return err
	}
	if msg.Status == StatusConfirmed {
		return fmt.Errorf("failed to approve %s: %w", mid, unsupported(KindTransfer, msg.Status, msg.Action))
	}

	return m.castVote(validator, m.transferIDs[msg.ID])
}

// ConfirmTransfer is a validator's vote to burn the locked funds of an
// approved withdrawal once Chain A has released them. The first confirm
// after approval marks the message Confirmed and reopens its closed
// proposal so the burn needs a second, independent quorum.
func (m *Machine) ConfirmTransfer(validator types.SubAddress, mid types.MessageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	msg, err := m.message(mid, KindTransfer)
	if err != nil {
		return err
	}
	if msg.Action != ActionWithdraw {
		return fmt.Errorf("failed to confirm %s: %w", mid, unsupported(KindTransfer, msg.Status, msg.Action))
	}
	if msg.Status != StatusApproved && msg.Status != StatusConfirmed {
		return fmt.Errorf("failed to confirm %s with status %s: %w", mid, msg.Status, ErrNotApproved)
	}

	id := m.transferIDs[mid]
	p := m.proposals[id]
	savedMsg, savedProposal, savedVotes := *msg, *p, m.votes[id]

	msg.Status = StatusConfirmed
	m.reopen(msg, p)

	if err := m.castVote(validator, id); err != nil {
		*msg, *p = savedMsg, savedProposal
		m.votes[id] = savedVotes
		return err
	}

	return nil
}

// CancelTransfer is a validator's vote to cancel a withdrawal that Chain A
// reverted. On quorum the message is Canceled and any locked funds are
// released. A withdrawal that has been confirmed can no longer be canceled.
func (m *Machine) CancelTransfer(validator types.SubAddress, mid types.MessageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	msg, err := m.message(mid, KindTransfer)
	if err != nil {
		return err
	}
	if msg.Action != ActionWithdraw || msg.Settled || msg.Status == StatusConfirmed || msg.Status == StatusCanceled {
		return fmt.Errorf("failed to cancel %s with status %s: %w", mid, msg.Status, ErrNotCancelable)
	}

	tally := m.cancels[mid]
	if _, ok := tally[validator]; ok {
		return fmt.Errorf("failed to cancel %s: %w", mid, ErrAlreadyVoted)
	}
	if !m.quorumReached(uint32(len(tally) + 1)) {
		if tally == nil {
			tally = make(map[types.SubAddress]struct{})
			m.cancels[mid] = tally
		}
		tally[validator] = struct{}{}
		m.seal()
		m.logger.Debug("cancel vote recorded", "messageId", mid, "validator", validator, "votes", len(tally))
		return nil
	}

	if msg.Locked {
		if err := m.ledger.unlock(msg.SubAddress, msg.Amount); err != nil {
			return err
		}
	}
	msg.Locked = false
	msg.Status = StatusCanceled
	msg.Settled = true
	m.pendingBurn = saturatingSub(m.pendingBurn, msg.Amount)
	m.proposals[m.transferIDs[mid]].Open = false
	delete(m.cancels, mid)
	m.seal()

	m.logger.Info("transfer canceled", "messageId", mid, "amount", msg.Amount)
	return nil
}

func (m *Machine) AddValidator(validator, address types.SubAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	if _, ok := m.validators[address]; ok {
		return fmt.Errorf("failed to add %s: %w", address, ErrAlreadyValidator)
	}

	return m.adminVote(validator, Message{Kind: KindValidator, Action: ActionAddValidator, Validator: address})
}

func (m *Machine) RemoveValidator(validator, address types.SubAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	if _, ok := m.validators[address]; !ok {
		return fmt.Errorf("failed to remove %s: %w", address, ErrNotValidator)
	}

	return m.adminVote(validator, Message{Kind: KindValidator, Action: ActionRemoveValidator, Validator: address})
}

func (m *Machine) PauseBridge(validator types.SubAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	return m.adminVote(validator, Message{Kind: KindBridge, Action: ActionPauseBridge})
}

func (m *Machine) ResumeBridge(validator types.SubAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	return m.adminVote(validator, Message{Kind: KindBridge, Action: ActionResumeBridge})
}

func (m *Machine) ChangeMinLimit(validator types.SubAddress, mid types.MessageID, amount uint64) error {
	return m.limitVote(validator, mid, ActionChangeMinTx, amount)
}

func (m *Machine) ChangeMaxLimit(validator types.SubAddress, mid types.MessageID, amount uint64) error {
	return m.limitVote(validator, mid, ActionChangeMaxTx, amount)
}

func (m *Machine) SetPendingBurnLimit(validator types.SubAddress, mid types.MessageID, amount uint64) error {
	return m.limitVote(validator, mid, ActionChangePendingBurnLimit, amount)
}

func (m *Machine) SetPendingMintLimit(validator types.SubAddress, mid types.MessageID, amount uint64) error {
	return m.limitVote(validator, mid, ActionChangePendingMintLimit, amount)
}

func (m *Machine) limitVote(validator types.SubAddress, mid types.MessageID, action Action, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	msg := Message{ID: mid, Kind: KindLimits, Action: action, Status: StatusPending, Amount: amount}
	if existing, ok := m.messages[mid]; ok {
		if !existing.samePayload(msg) {
			return fmt.Errorf("failed to vote on %s: %w", mid, ErrMessageMismatch)
		}
		return m.castVote(validator, m.transferIDs[mid])
	}

	id := m.create(&msg)
	if err := m.castVote(validator, id); err != nil {
		m.uncreate(mid)
		return err
	}
	return nil
}

// adminVote votes on a validator or bridge change. Its message id is derived
// from the action, the target and how many proposals for that same change
// have already closed, so every validator voting on the same change meets in
// the same proposal.
func (m *Machine) adminVote(validator types.SubAddress, msg Message) error {
	key := adminKey(msg.Action, msg.Validator)
	msg.ID = crypto.Keccak256Hash(key[:], uint64Bytes(m.adminRounds[key]))
	msg.Status = StatusPending

	if _, ok := m.messages[msg.ID]; ok {
		return m.castVote(validator, m.transferIDs[msg.ID])
	}

	id := m.create(&msg)
	if err := m.castVote(validator, id); err != nil {
		m.uncreate(msg.ID)
		return err
	}
	return nil
}

// CastVote records validator's vote on the proposal with the given transfer
// id and, on the vote that first reaches quorum, executes it.
func (m *Machine) CastVote(validator types.SubAddress, transferID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.guard(validator); err != nil {
		return err
	}
	return m.castVote(validator, transferID)
}

func (m *Machine) castVote(validator types.SubAddress, transferID uint64) error {
	if transferID >= uint64(len(m.proposals)) {
		return fmt.Errorf("failed to vote on transfer %d: %w", transferID, ErrUnknownProposal)
	}
	p := m.proposals[transferID]

	if _, ok := m.votes[transferID][validator]; ok {
		return fmt.Errorf("failed to vote on %s: %w", p.MessageID, ErrAlreadyVoted)
	}
	if !p.Open {
		return fmt.Errorf("failed to vote on %s: %w", p.MessageID, ErrNotOpen)
	}

	msg := m.messages[p.MessageID]
	next := *msg
	votes := p.Votes + 1
	reached := m.quorumReached(votes)

	var emitted []types.Event
	if reached {
		if next.Status != StatusConfirmed {
			next.Status = StatusApproved
		}
		h, ok := handlers[next.Kind]
		if !ok {
			return unsupported(next.Kind, next.Status, next.Action)
		}
		if err := h.checkTransition(next.Status, next.Action); err != nil {
			return fmt.Errorf("failed to execute %s: %w", p.MessageID, err)
		}
		ev, err := h.execute(m, &next)
		if err != nil {
			return fmt.Errorf("failed to execute %s: %w", p.MessageID, err)
		}
		emitted = ev
	} else if next.Status != StatusConfirmed {
		next.Status = StatusPending
	}

	*msg = next
	p.Votes = votes
	if m.votes[transferID] == nil {
		m.votes[transferID] = make(map[types.SubAddress]struct{})
	}
	m.votes[transferID][validator] = struct{}{}

	if reached {
		p.Open = false
		if msg.Kind == KindValidator || msg.Kind == KindBridge {
			m.adminRounds[adminKey(msg.Action, msg.Validator)]++
		}
		m.logger.Info("proposal executed", "messageId", p.MessageID, "kind", p.Kind, "action", msg.Action, "status", msg.Status, "votes", votes)
	} else {
		m.logger.Debug("vote recorded", "messageId", p.MessageID, "validator", validator, "votes", votes, "status", msg.Status)
	}
	m.seal(emitted...)

	return nil
}

func (m *Machine) quorumReached(votes uint32) bool {
	return uint64(votes)*quorumDenominator >= uint64(len(m.validators))*quorumNumerator
}

// reopen starts a fresh voting round on a closed, unsettled proposal.
func (m *Machine) reopen(msg *Message, p *Proposal) {
	if p.Open || msg.Settled {
		return
	}
	p.Open = true
	p.Votes = 0
	p.Round++
	p.OpenedAt = m.height
	delete(m.votes, p.TransferID)

	m.logger.Info("proposal reopened", "messageId", p.MessageID, "round", p.Round)
}

func (m *Machine) guard(validator types.SubAddress) error {
	if _, ok := m.validators[validator]; !ok {
		return fmt.Errorf("%w: %s", ErrNotValidator, validator)
	}
	return nil
}

func (m *Machine) message(mid types.MessageID, kind Kind) (*Message, error) {
	msg, ok := m.messages[mid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMessage, mid)
	}
	if msg.Kind != kind {
		return nil, fmt.Errorf("%s is a %s message: %w", mid, msg.Kind, ErrMessageMismatch)
	}
	return msg, nil
}

func (m *Machine) create(msg *Message) uint64 {
	id := uint64(len(m.proposals))
	m.messages[msg.ID] = msg
	m.transferIDs[msg.ID] = id
	m.proposals = append(m.proposals, &Proposal{
		TransferID: id,
		MessageID:  msg.ID,
		Kind:       msg.Kind,
		Open:       true,
		OpenedAt:   m.height,
	})
	return id
}

// uncreate removes a message created by the current call. Only valid while
// its proposal is still the last one.
func (m *Machine) uncreate(mid types.MessageID) {
	id := m.transferIDs[mid]
	delete(m.messages, mid)
	delete(m.transferIDs, mid)
	delete(m.votes, id)
	m.proposals = m.proposals[:id]
}

// seal appends the events of the current call to the event log and closes
// the block.
func (m *Machine) seal(events ...types.Event) {
	m.events = append(m.events, events...)
	m.height++
}

// Advance moves the ledger height forward to at least height.
func (m *Machine) Advance(height uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if height > m.height {
		m.height = height
	}
}

// ExpireProposals closes every open proposal older than the configured TTL
// and cancels its message. Reopened confirmation rounds are left open: their
// funds were already released on Chain A.
func (m *Machine) ExpireProposals() []types.MessageID {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ttl == 0 {
		return nil
	}

	var expired []types.MessageID
	for _, p := range m.proposals {
		if !p.Open || p.OpenedAt+m.ttl > m.height {
			continue
		}
		msg := m.messages[p.MessageID]
		if msg.Status == StatusConfirmed {
			continue
		}

		p.Open = false
		msg.Status = StatusCanceled
		msg.Settled = true
		switch msg.Action {
		case ActionDeposit:
			m.pendingMint = saturatingSub(m.pendingMint, msg.Amount)
		case ActionWithdraw:
			m.pendingBurn = saturatingSub(m.pendingBurn, msg.Amount)
		}
		if msg.Kind == KindValidator || msg.Kind == KindBridge {
			m.adminRounds[adminKey(msg.Action, msg.Validator)]++
		}
		delete(m.votes, p.TransferID)
		delete(m.cancels, p.MessageID)
		expired = append(expired, p.MessageID)
	}

	if len(expired) > 0 {
		m.seal()
		m.logger.Info("expired proposals", "count", len(expired), "height", m.height)
	}
	return expired
}

// Transfer moves free tokens between ledger accounts.
func (m *Machine) Transfer(from, to types.SubAddress, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ledger.transfer(from, to, amount); err != nil {
		return err
	}
	m.seal()
	return nil
}

func (m *Machine) BalanceOf(acc types.SubAddress) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.balances[acc]
}

func (m *Machine) Locked(acc types.SubAddress) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.locked[acc]
}

func (m *Machine) TotalSupply() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ledger.totalSupply
}

func (m *Machine) Message(mid types.MessageID) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg, ok := m.messages[mid]
	if !ok {
		return Message{}, false
	}
	return *msg, true
}

func (m *Machine) Proposal(mid types.MessageID) (Proposal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.transferIDs[mid]
	if !ok {
		return Proposal{}, false
	}
	return *m.proposals[id], true
}

func (m *Machine) HasVoted(mid types.MessageID, validator types.SubAddress) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.transferIDs[mid]
	if !ok {
		return false
	}
	_, voted := m.votes[id][validator]
	return voted
}

func (m *Machine) Validators() []types.SubAddress {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.SubAddress, 0, len(m.validators))
	for v := range m.validators {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hex() < out[j].Hex() })
	return out
}

func (m *Machine) IsValidator(acc types.SubAddress) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.validators[acc]
	return ok
}

func (m *Machine) Limits() Limits {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limits
}

func (m *Machine) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

// Height is the block the next state change will be sealed in.
func (m *Machine) Height() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.height
}

// Events returns the events sealed in blocks from through to, inclusive.
func (m *Machine) Events(from, to uint64) []types.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []types.Event
	for _, ev := range m.events {
		if b := ev.BlockNumber(); b >= from && b <= to {
			out = append(out, ev)
		}
	}
	return out
}

func adminKey(action Action, target types.SubAddress) common.Hash {
	return crypto.Keccak256Hash([]byte{byte(action)}, target[:])
}

func uint64Bytes(v uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, v)
}

func amountOf(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}
