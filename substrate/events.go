package substrate

import (
	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	bridgetypes "github.com/lightlink-network/ll-bridge-validator/types"
)

type EventBridgeRelayMessage struct {
	Phase     types.Phase
	MessageID types.Hash
	Topics    []types.Hash
}

type EventBridgeApprovedRelayMessage struct {
	Phase     types.Phase
	MessageID types.Hash
	From      types.H256
	To        types.H160
	Amount    types.U64
	Topics    []types.Hash
}

type EventBridgeMinted struct {
	Phase     types.Phase
	MessageID types.Hash
	Topics    []types.Hash
}

type EventBridgeBurned struct {
	Phase     types.Phase
	MessageID types.Hash
	From      types.H256
	To        types.H160
	Amount    types.U64
	Topics    []types.Hash
}

type EventTokenTransfer struct {
	Phase  types.Phase
	From   types.H256
	To     types.H256
	Amount types.U64
	Topics []types.Hash
}

type EventTokenApproval struct {
	Phase   types.Phase
	Owner   types.H256
	Spender types.H256
	Amount  types.U64
	Topics  []types.Hash
}

type EventTokenMint struct {
	Phase   types.Phase
	Account types.H256
	Amount  types.U64
	Topics  []types.Hash
}

type EventTokenBurn struct {
	Phase   types.Phase
	Account types.H256
	Amount  types.U64
	Topics  []types.Hash
}

// Events is the System.Events layout of the ledger runtime: the standard
// pallets plus the Bridge and Token pallets.
type Events struct {
	types.EventRecords
	Bridge_RelayMessage         []EventBridgeRelayMessage         //nolint:stylecheck,golint
	Bridge_ApprovedRelayMessage []EventBridgeApprovedRelayMessage //nolint:stylecheck,golint
	Bridge_Minted               []EventBridgeMinted               //nolint:stylecheck,golint
	Bridge_Burned               []EventBridgeBurned               //nolint:stylecheck,golint
	Token_Transfer              []EventTokenTransfer              //nolint:stylecheck,golint
	Token_Approval              []EventTokenApproval              //nolint:stylecheck,golint
	Token_Mint                  []EventTokenMint                  //nolint:stylecheck,golint
	Token_Burn                  []EventTokenBurn                  //nolint:stylecheck,golint
}

// bridgeEvents converts the decoded Bridge pallet events of one block.
// Records are grouped by event type, so the order is RelayMessage,
// ApprovedRelayMessage, Minted then Burned; every message id appears at most
// once per type in a block.
func bridgeEvents(events *Events, block uint64) []bridgetypes.Event {
	out := make([]bridgetypes.Event, 0,
		len(events.Bridge_RelayMessage)+len(events.Bridge_ApprovedRelayMessage)+len(events.Bridge_Minted)+len(events.Bridge_Burned))

	for _, e := range events.Bridge_RelayMessage {
		out = append(out, bridgetypes.SubRelayMessage{
			ID:    common.Hash(e.MessageID),
			Block: block,
		})
	}
	for _, e := range events.Bridge_ApprovedRelayMessage {
		out = append(out, bridgetypes.SubApprovedRelayMessage{
			ID:     common.Hash(e.MessageID),
			From:   bridgetypes.SubAddress(e.From),
			To:     common.Address(e.To),
			Amount: *uint256.NewInt(uint64(e.Amount)),
			Block:  block,
		})
	}
	for _, e := range events.Bridge_Minted {
		out = append(out, bridgetypes.SubMintedMessage{
			ID:    common.Hash(e.MessageID),
			Block: block,
		})
	}
	for _, e := range events.Bridge_Burned {
		out = append(out, bridgetypes.SubBurnedMessage{
			ID:     common.Hash(e.MessageID),
			From:   bridgetypes.SubAddress(e.From),
			To:     common.Address(e.To),
			Amount: *uint256.NewInt(uint64(e.Amount)),
			Block:  block,
		})
	}

	return out
}
