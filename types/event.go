package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Event is a normalized chain occurrence. Every implementation is a comparable
// value type, so two events are the same logical occurrence iff they are ==.
type Event interface {
	MessageID() MessageID
	BlockNumber() uint64
	Source() Chain
	Kind() string
}

// Event kinds as they appear in logs, metrics and stored records.
const (
	KindEthRelayMessage         = "EthRelayMessage"
	KindEthApprovedRelayMessage = "EthApprovedRelayMessage"
	KindEthRevertMessage        = "EthRevertMessage"
	KindEthWithdrawMessage      = "EthWithdrawMessage"
	KindSubRelayMessage         = "SubRelayMessage"
	KindSubApprovedRelayMessage = "SubApprovedRelayMessage"
	KindSubBurnedMessage        = "SubBurnedMessage"
	KindSubMintedMessage        = "SubMintedMessage"
)

// EthRelayMessage is a deposit initiated on Ethereum towards the ledger.
type EthRelayMessage struct {
	ID     MessageID
	From   common.Address
	To     SubAddress
	Amount uint256.Int
	Block  uint64
}

// EthApprovedRelayMessage is emitted once the Ethereum contract approved a deposit.
type EthApprovedRelayMessage struct {
	ID     MessageID
	From   common.Address
	To     SubAddress
	Amount uint256.Int
	Block  uint64
}

// EthRevertMessage is emitted when Ethereum reverted a ledger withdrawal instead of paying it out.
type EthRevertMessage struct {
	ID     MessageID
	From   common.Address
	Amount uint256.Int
	Block  uint64
}

// EthWithdrawMessage confirms on Ethereum that a ledger withdrawal was paid out.
type EthWithdrawMessage struct {
	ID    MessageID
	Block uint64
}

// SubRelayMessage is a withdrawal initiated on the ledger.
type SubRelayMessage struct {
	ID    MessageID
	Block uint64
}

// SubApprovedRelayMessage is emitted when the ledger locked funds for a withdrawal.
type SubApprovedRelayMessage struct {
	ID     MessageID
	From   SubAddress
	To     common.Address
	Amount uint256.Int
	Block  uint64
}

// SubBurnedMessage is emitted when the ledger burned the locked funds of a withdrawal.
type SubBurnedMessage struct {
	ID     MessageID
	From   SubAddress
	To     common.Address
	Amount uint256.Int
	Block  uint64
}

// SubMintedMessage is emitted when the ledger minted a deposit.
type SubMintedMessage struct {
	ID    MessageID
	Block uint64
}

func (e EthRelayMessage) MessageID() MessageID         { return e.ID }
func (e EthApprovedRelayMessage) MessageID() MessageID { return e.ID }
func (e EthRevertMessage) MessageID() MessageID        { return e.ID }
func (e EthWithdrawMessage) MessageID() MessageID      { return e.ID }
func (e SubRelayMessage) MessageID() MessageID         { return e.ID }
func (e SubApprovedRelayMessage) MessageID() MessageID { return e.ID }
func (e SubBurnedMessage) MessageID() MessageID        { return e.ID }
func (e SubMintedMessage) MessageID() MessageID        { return e.ID }

func (e EthRelayMessage) BlockNumber() uint64         { return e.Block }
func (e EthApprovedRelayMessage) BlockNumber() uint64 { return e.Block }
func (e EthRevertMessage) BlockNumber() uint64        { return e.Block }
func (e EthWithdrawMessage) BlockNumber() uint64      { return e.Block }
func (e SubRelayMessage) BlockNumber() uint64         { return e.Block }
func (e SubApprovedRelayMessage) BlockNumber() uint64 { return e.Block }
func (e SubBurnedMessage) BlockNumber() uint64        { return e.Block }
func (e SubMintedMessage) BlockNumber() uint64        { return e.Block }

func (EthRelayMessage) Source() Chain         { return Ethereum }
func (EthApprovedRelayMessage) Source() Chain { return Ethereum }
func (EthRevertMessage) Source() Chain        { return Ethereum }
func (EthWithdrawMessage) Source() Chain      { return Ethereum }
func (SubRelayMessage) Source() Chain         { return Substrate }
func (SubApprovedRelayMessage) Source() Chain { return Substrate }
func (SubBurnedMessage) Source() Chain        { return Substrate }
func (SubMintedMessage) Source() Chain        { return Substrate }

func (EthRelayMessage) Kind() string         { return KindEthRelayMessage }
func (EthApprovedRelayMessage) Kind() string { return KindEthApprovedRelayMessage }
func (EthRevertMessage) Kind() string        { return KindEthRevertMessage }
func (EthWithdrawMessage) Kind() string      { return KindEthWithdrawMessage }
func (SubRelayMessage) Kind() string         { return KindSubRelayMessage }
func (SubApprovedRelayMessage) Kind() string { return KindSubApprovedRelayMessage }
func (SubBurnedMessage) Kind() string        { return KindSubBurnedMessage }
func (SubMintedMessage) Kind() string        { return KindSubMintedMessage }

// Describe renders an event for log lines.
func Describe(e Event) string {
	return fmt.Sprintf("%s(%s)@%d", e.Kind(), e.MessageID().Hex(), e.BlockNumber())
}
