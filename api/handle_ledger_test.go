package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/lightlink-network/ll-bridge-validator/quorum"
	"github.com/lightlink-network/ll-bridge-validator/types"
)

var (
	operator = types.HexToSubAddress("0x0a01")
	joiner   = types.HexToSubAddress("0x0a02")
)

func newLedgerServer(t *testing.T) (*Server, *quorum.Machine) {
	t.Helper()
	m, err := quorum.NewMachine(quorum.MachineOpts{Validators: []types.SubAddress{operator}})
	require.NoError(t, err)

	s, err := NewServer(ServerOpts{
		Controller: &fakeController{},
		Ledger:     quorum.NewLocalChain(m, operator),
	})
	require.NoError(t, err)
	return s, m
}

func post(s *Server, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(method, target, strings.NewReader(body)))
	return w
}

func TestLedgerTransfer(t *testing.T) {
	require := require.New(t)
	s, m := newLedgerServer(t)

	w := post(s, http.MethodPost, "/v1/ledger/transfers", `{"to":"0x00000000000000000000000000000000000000e1","amount":"40"}`)
	require.Equal(http.StatusUnprocessableEntity, w.Code)
	require.Contains(w.Body.String(), "insufficient")

	require.NoError(m.MultiSignedMint(operator, common.HexToHash("0xaa"), common.HexToAddress("0xe1"), operator, 100))

	w = post(s, http.MethodPost, "/v1/ledger/transfers", `{"to":"0x00000000000000000000000000000000000000e1","amount":"40"}`)
	require.Equal(http.StatusAccepted, w.Code)

	var resp map[string]string
	require.NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(resp["tx_hash"])
	require.Equal(uint64(100), m.BalanceOf(operator))
	require.Equal(uint64(0), m.Locked(operator))

	w = post(s, http.MethodPost, "/v1/ledger/transfers", `{"to":"0xe1","amount":"-3"}`)
	require.Equal(http.StatusBadRequest, w.Code)

	w = post(s, http.MethodPost, "/v1/ledger/transfers", `not json`)
	require.Equal(http.StatusBadRequest, w.Code)
}

func TestLedgerValidatorsAndPause(t *testing.T) {
	require := require.New(t)
	s, m := newLedgerServer(t)

	w := post(s, http.MethodPost, "/v1/ledger/validators/"+joiner.Hex(), "")
	require.Equal(http.StatusAccepted, w.Code)
	require.True(m.IsValidator(joiner))

	w = post(s, http.MethodPost, "/v1/ledger/validators/0x12", "")
	require.Equal(http.StatusBadRequest, w.Code)

	// two validators now, so one vote is not a quorum
	w = post(s, http.MethodPost, "/v1/ledger/bridge/pause", "")
	require.Equal(http.StatusAccepted, w.Code)
	require.False(m.IsPaused())
	require.NoError(m.PauseBridge(joiner))
	require.True(m.IsPaused())

	w = post(s, http.MethodPost, "/v1/ledger/bridge/halt", "")
	require.Equal(http.StatusNotFound, w.Code)

	w = post(s, http.MethodDelete, "/v1/ledger/validators/"+joiner.Hex(), "")
	require.Equal(http.StatusAccepted, w.Code)
}

func TestLedgerLimits(t *testing.T) {
	require := require.New(t)
	s, m := newLedgerServer(t)

	w := post(s, http.MethodPost, "/v1/ledger/limits/max", `{"messageId":"0x00000000000000000000000000000000000000000000000000000000000000b1","amount":"500"}`)
	require.Equal(http.StatusAccepted, w.Code)
	require.Equal(uint64(500), m.Limits().MaxTx)

	w = post(s, http.MethodPost, "/v1/ledger/limits/pending-mint", `{"messageId":"0x00000000000000000000000000000000000000000000000000000000000000b2","amount":"900"}`)
	require.Equal(http.StatusAccepted, w.Code)
	require.Equal(uint64(900), m.Limits().PendingMint)

	w = post(s, http.MethodPost, "/v1/ledger/limits/min", `{"amount":"5"}`)
	require.Equal(http.StatusBadRequest, w.Code)

	w = post(s, http.MethodPost, "/v1/ledger/limits/fee", `{}`)
	require.Equal(http.StatusNotFound, w.Code)
}

func TestLedgerRoutesNeedLedger(t *testing.T) {
	s, err := NewServer(ServerOpts{Controller: &fakeController{}})
	require.NoError(t, err)

	w := post(s, http.MethodPost, "/v1/ledger/bridge/pause", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	_, err = NewServer(ServerOpts{})
	require.Error(t, err)
}
