package substrate

import (
	"context"
	"testing"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	bridgetypes "github.com/lightlink-network/ll-bridge-validator/types"
)

func TestBridgeEvents(t *testing.T) {
	require := require.New(t)

	mid := common.HexToHash("0xaa")
	from := bridgetypes.HexToSubAddress("0x51")
	to := common.HexToAddress("0xe1")

	events := &Events{
		Bridge_RelayMessage: []EventBridgeRelayMessage{{MessageID: types.Hash(mid)}},
		Bridge_ApprovedRelayMessage: []EventBridgeApprovedRelayMessage{{
			MessageID: types.Hash(mid),
			From:      types.H256(from),
			To:        types.H160(to),
			Amount:    types.U64(400),
		}},
		Bridge_Minted: []EventBridgeMinted{{MessageID: types.Hash(common.HexToHash("0xbb"))}},
		Bridge_Burned: []EventBridgeBurned{{
			MessageID: types.Hash(mid),
			From:      types.H256(from),
			To:        types.H160(to),
			Amount:    types.U64(400),
		}},
		Token_Transfer: []EventTokenTransfer{{Amount: 9}},
	}

	amount := *uint256.NewInt(400)
	require.Equal([]bridgetypes.Event{
		bridgetypes.SubRelayMessage{ID: mid, Block: 7},
		bridgetypes.SubApprovedRelayMessage{ID: mid, From: from, To: to, Amount: amount, Block: 7},
		bridgetypes.SubMintedMessage{ID: common.HexToHash("0xbb"), Block: 7},
		bridgetypes.SubBurnedMessage{ID: mid, From: from, To: to, Amount: amount, Block: 7},
	}, bridgeEvents(events, 7))
}

func TestBridgeEventsEmptyBlock(t *testing.T) {
	require.Empty(t, bridgeEvents(&Events{}, 1))
}

func TestToBalance(t *testing.T) {
	require := require.New(t)

	balance, err := toBalance(uint256.NewInt(12345))
	require.NoError(err)
	require.Equal(types.NewUCompactFromUInt(12345), balance)

	wide := new(uint256.Int).Lsh(uint256.NewInt(1), 64)
	_, err = toBalance(wide)
	require.ErrorContains(err, "does not fit")

	_, err = toBalance(nil)
	require.Error(err)
}

func TestReadOnlyClientCannotSubmit(t *testing.T) {
	c := &Client{Opts: &ClientOpts{}}
	require.Equal(t, bridgetypes.SubAddress{}, c.Account())

	_, err := c.PauseBridge(context.Background())
	require.ErrorIs(t, err, ErrNoSigner)
}
