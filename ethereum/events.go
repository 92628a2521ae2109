package ethereum

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	geth "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

var ErrMalformedLog = errors.New("malformed bridge log")

type relayMessageLog struct {
	MessageID [32]byte
	Sender    common.Address
	Recipient [32]byte
	Amount    *big.Int
}

type revertMessageLog struct {
	MessageID [32]byte
	Sender    common.Address
	Amount    *big.Int
}

type withdrawMessageLog struct {
	MessageID [32]byte
}

// FilterEvents returns the bridge events in blocks from through to, in log
// order. Logs that cannot be decoded are logged and skipped.
func (c *Client) FilterEvents(ctx context.Context, from, to uint64) ([]types.Event, error) {
	topics := make([]common.Hash, 0, len(c.events))
	for id := range c.events {
		topics = append(topics, id)
	}

	query := geth.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.Opts.BridgeAddress},
		Topics:    [][]common.Hash{topics},
	}

	logs, err := retry(ctx, c, "filter bridge logs", func(ctx context.Context) ([]gethtypes.Log, error) {
		return c.backend.FilterLogs(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	events := make([]types.Event, 0, len(logs))
	for _, log := range logs {
		if log.Removed {
			continue
		}
		ev, err := c.decodeLog(log)
		if err != nil {
			c.logger.Warn("skipping bridge log", "txHash", log.TxHash.Hex(), "index", log.Index, "block", log.BlockNumber, "error", err)
			continue
		}
		events = append(events, ev)
	}

	return events, nil
}

func (c *Client) decodeLog(log gethtypes.Log) (types.Event, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", ErrMalformedLog)
	}
	event, ok := c.events[log.Topics[0]]
	if !ok {
		return nil, fmt.Errorf("%w: unknown topic %s", ErrMalformedLog, log.Topics[0].Hex())
	}

	switch event.Name {
	case eventRelayMessage, eventApprovedRelayMessage:
		var out relayMessageLog
		if err := c.abi.UnpackIntoInterface(&out, event.Name, log.Data); err != nil {
			return nil, fmt.Errorf("%w: failed to unpack %s: %v", ErrMalformedLog, event.Name, err)
		}
		amount, err := toAmount(out.Amount)
		if err != nil {
			return nil, err
		}
		if event.Name == eventRelayMessage {
			return types.EthRelayMessage{
				ID:     out.MessageID,
				From:   out.Sender,
				To:     types.SubAddress(out.Recipient),
				Amount: amount,
				Block:  log.BlockNumber,
			}, nil
		}
		return types.EthApprovedRelayMessage{
			ID:     out.MessageID,
			From:   out.Sender,
			To:     types.SubAddress(out.Recipient),
			Amount: amount,
			Block:  log.BlockNumber,
		}, nil

	case eventRevertMessage:
		var out revertMessageLog
		if err := c.abi.UnpackIntoInterface(&out, event.Name, log.Data); err != nil {
			return nil, fmt.Errorf("%w: failed to unpack %s: %v", ErrMalformedLog, event.Name, err)
		}
		amount, err := toAmount(out.Amount)
		if err != nil {
			return nil, err
		}
		return types.EthRevertMessage{
			ID:     out.MessageID,
			From:   out.Sender,
			Amount: amount,
			Block:  log.BlockNumber,
		}, nil

	case eventWithdrawMessage:
		var out withdrawMessageLog
		if err := c.abi.UnpackIntoInterface(&out, event.Name, log.Data); err != nil {
			return nil, fmt.Errorf("%w: failed to unpack %s: %v", ErrMalformedLog, event.Name, err)
		}
		return types.EthWithdrawMessage{
			ID:    out.MessageID,
			Block: log.BlockNumber,
		}, nil
	}

	return nil, fmt.Errorf("%w: unhandled event %s", ErrMalformedLog, event.Name)
}

func toAmount(v *big.Int) (uint256.Int, error) {
	if v == nil {
		return uint256.Int{}, fmt.Errorf("%w: missing amount", ErrMalformedLog)
	}
	amount, overflow := uint256.FromBig(v)
	if overflow {
		return uint256.Int{}, fmt.Errorf("%w: amount %s overflows uint256", ErrMalformedLog, v)
	}
	return *amount, nil
}
