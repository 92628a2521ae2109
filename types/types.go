package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// MessageID correlates one logical cross-chain transfer or administrative
// action across both chains and all validators.
type MessageID = common.Hash

// SubAddress is a 32 byte account on the ledger chain.
type SubAddress [32]byte

func (a SubAddress) Hex() string {
	return hexutil.Encode(a[:])
}

func (a SubAddress) String() string {
	return a.Hex()
}

// HexToSubAddress parses a hex encoded ledger account, ignoring an optional 0x prefix.
// Short input is left padded like common.HexToHash.
func HexToSubAddress(s string) SubAddress {
	return SubAddress(common.HexToHash(s))
}

// Chain identifies which ledger an event or call belongs to.
type Chain string

const (
	// Ethereum is the smart-contract chain (Chain A)
	Ethereum Chain = "ethereum"

	// Substrate is the account-based ledger chain (Chain B)
	Substrate Chain = "substrate"
)

// DispatchStatus represents the outcome of an outbound call issued for an event
type DispatchStatus string

const (
	// DispatchSubmitted - the target chain accepted the transaction
	DispatchSubmitted DispatchStatus = "SUBMITTED"

	// DispatchFailed - every attempt to submit the transaction failed
	DispatchFailed DispatchStatus = "FAILED"

	// DispatchSkipped - the event is terminal and needs no outbound call
	DispatchSkipped DispatchStatus = "SKIPPED"
)
