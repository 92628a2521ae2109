package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

// Ledger is the set of bridge program calls an operator can submit on the
// ledger chain as this validator.
type Ledger interface {
	SetTransfer(ctx context.Context, to common.Address, amount *uint256.Int) (common.Hash, error)
	AddValidator(ctx context.Context, address types.SubAddress) (common.Hash, error)
	RemoveValidator(ctx context.Context, address types.SubAddress) (common.Hash, error)
	PauseBridge(ctx context.Context) (common.Hash, error)
	ResumeBridge(ctx context.Context) (common.Hash, error)
	ChangeMinLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error)
	ChangeMaxLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error)
	SetPendingBurnLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error)
	SetPendingMintLimit(ctx context.Context, mid types.MessageID, amount *uint256.Int) (common.Hash, error)
}

type transferRequest struct {
	To     common.Address `json:"to"`
	Amount string         `json:"amount"`
}

type limitRequest struct {
	MessageID types.MessageID `json:"messageId"`
	Amount    string          `json:"amount"`
}

type txResponse struct {
	TxHash common.Hash `json:"tx_hash"`
}

func (s *Server) handleTransferPost(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	s.submit(w, "set_transfer", func() (common.Hash, error) {
		return s.ledger.SetTransfer(r.Context(), req.To, amount)
	})
}

func (s *Server) handleValidatorPost(w http.ResponseWriter, r *http.Request) {
	address, err := parseSubAddress(chi.URLParam(r, "address"))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	s.submit(w, "add_validator", func() (common.Hash, error) {
		return s.ledger.AddValidator(r.Context(), address)
	})
}

func (s *Server) handleValidatorDelete(w http.ResponseWriter, r *http.Request) {
	address, err := parseSubAddress(chi.URLParam(r, "address"))
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}
	s.submit(w, "remove_validator", func() (common.Hash, error) {
		return s.ledger.RemoveValidator(r.Context(), address)
	})
}

func (s *Server) handleBridgePost(w http.ResponseWriter, r *http.Request) {
	switch action := chi.URLParam(r, "action"); action {
	case "pause":
		s.submit(w, "pause_bridge", func() (common.Hash, error) {
			return s.ledger.PauseBridge(r.Context())
		})
	case "resume":
		s.submit(w, "resume_bridge", func() (common.Hash, error) {
			return s.ledger.ResumeBridge(r.Context())
		})
	default:
		ERROR(w, http.StatusNotFound, fmt.Errorf("unknown bridge action %q", action))
	}
}

func (s *Server) handleLimitPost(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "limit")

	var call func(context.Context, types.MessageID, *uint256.Int) (common.Hash, error)
	switch name {
	case "min":
		call = s.ledger.ChangeMinLimit
	case "max":
		call = s.ledger.ChangeMaxLimit
	case "pending-burn":
		call = s.ledger.SetPendingBurnLimit
	case "pending-mint":
		call = s.ledger.SetPendingMintLimit
	default:
		ERROR(w, http.StatusNotFound, fmt.Errorf("unknown limit %q", name))
		return
	}

	var req limitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ERROR(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if req.MessageID == (types.MessageID{}) {
		ERROR(w, http.StatusBadRequest, errors.New("messageId is required"))
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		ERROR(w, http.StatusBadRequest, err)
		return
	}

	s.submit(w, name+"_limit", func() (common.Hash, error) {
		return call(r.Context(), req.MessageID, amount)
	})
}

func (s *Server) submit(w http.ResponseWriter, call string, fn func() (common.Hash, error)) {
	hash, err := fn()
	if err != nil {
		s.log.Warn("ledger call failed", "call", call, "error", err)
		ERROR(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.log.Info("ledger call submitted by operator", "call", call, "txHash", hash)
	JSON(w, http.StatusAccepted, txResponse{TxHash: hash})
}

func parseAmount(s string) (*uint256.Int, error) {
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if amount.IsZero() {
		return nil, errors.New("amount must be positive")
	}
	return amount, nil
}

func parseSubAddress(s string) (types.SubAddress, error) {
	b := common.FromHex(s)
	if len(b) != len(types.SubAddress{}) {
		return types.SubAddress{}, fmt.Errorf("%q is not a 32 byte hex account", s)
	}
	return types.SubAddress(b), nil
}
