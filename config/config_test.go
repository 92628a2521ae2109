package config

import (
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

const (
	validatorA = "0x0000000000000000000000000000000000000000000000000000000000000a01"
	validatorB = "0x0000000000000000000000000000000000000000000000000000000000000a02"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URI":       "mongodb://localhost:27017",
		"ETHEREUM_RPC_URL":   "http://localhost:8545",
		"ETH_BRIDGE_ADDRESS": "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		"SUBSTRATE_RPC_URL":  "ws://localhost:9944",
	}
}

func TestDefaults(t *testing.T) {
	require := require.New(t)

	c, err := FromEnv(env(baseEnv()))
	require.NoError(err)

	require.Equal(slog.LevelInfo, c.LogLevel)
	require.Equal("8080", c.APIPort)
	require.Equal("ll-bridge-validator", c.DatabaseName)
	require.Equal(common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), c.BridgeAddress)
	require.Equal(big.NewInt(24_000_000_000), c.GasPrice)
	require.Equal(uint64(5_000_000), c.GasLimit)
	require.Equal(LedgerSubstrate, c.LedgerMode)
	require.Equal(uint16(42), c.SubstrateNetwork)
	require.Equal(Chain{MinBatchSize: 1, MaxBatchSize: 1000, FetchInterval: 12 * time.Second}, c.EthereumIndexing)
	require.Equal(Chain{MinBatchSize: 1, MaxBatchSize: 100, FetchInterval: 6 * time.Second}, c.SubstrateIndexing)
	require.Equal(1, c.ExecutorMaxAttempts)
	require.Equal(0, c.ExecutorConcurrency)
	require.Equal(2*time.Second, c.RetryDelay)
}

func TestOverrides(t *testing.T) {
	require := require.New(t)

	vars := baseEnv()
	vars["LOG_LEVEL"] = "debug"
	vars["ETH_GAS_PRICE"] = "1000000000"
	vars["ETH_DEFAULT_START_BLOCK"] = "19000000"
	vars["ETH_FETCH_INTERVAL"] = "3"
	vars["EXECUTOR_MAX_ATTEMPTS"] = "3"
	vars["EXECUTOR_CONCURRENCY"] = "8"

	c, err := FromEnv(env(vars))
	require.NoError(err)
	require.Equal(slog.LevelDebug, c.LogLevel)
	require.Equal(big.NewInt(1_000_000_000), c.GasPrice)
	require.Equal(uint64(19_000_000), c.EthereumIndexing.DefaultStartBlock)
	require.Equal(3*time.Second, c.EthereumIndexing.FetchInterval)
	require.Equal(3, c.ExecutorMaxAttempts)
	require.Equal(8, c.ExecutorConcurrency)
}

func TestLocalLedger(t *testing.T) {
	require := require.New(t)

	vars := baseEnv()
	delete(vars, "SUBSTRATE_RPC_URL")
	vars["LEDGER_MODE"] = "LOCAL"
	vars["LOCAL_VALIDATORS"] = validatorA + ", " + validatorB
	vars["LOCAL_VALIDATOR_ACCOUNT"] = validatorB
	vars["LOCAL_PROPOSAL_TTL"] = "50"

	c, err := FromEnv(env(vars))
	require.NoError(err)
	require.Equal(LedgerLocal, c.LedgerMode)
	require.Equal([]types.SubAddress{types.HexToSubAddress(validatorA), types.HexToSubAddress(validatorB)}, c.LocalValidators)
	require.Equal(types.HexToSubAddress(validatorB), c.LocalAccount)
	require.Equal(uint64(50), c.LocalProposalTTL)

	delete(vars, "LOCAL_VALIDATOR_ACCOUNT")
	_, err = FromEnv(env(vars))
	require.ErrorContains(err, "LOCAL_VALIDATOR_ACCOUNT is required")
}

func TestValidationErrorsAreCollected(t *testing.T) {
	require := require.New(t)

	_, err := FromEnv(env(map[string]string{
		"ETH_GAS_LIMIT":      "lots",
		"ETH_BRIDGE_ADDRESS": "0x1234",
		"LOCAL_VALIDATORS":   "0xabc",
	}))
	require.Error(err)
	require.ErrorContains(err, "ETH_GAS_LIMIT")
	require.ErrorContains(err, "ETH_BRIDGE_ADDRESS")
	require.ErrorContains(err, "LOCAL_VALIDATORS")

	vars := baseEnv()
	vars["LEDGER_MODE"] = "remote"
	vars["SUB_MIN_BATCH_SIZE"] = "500"
	_, err = FromEnv(env(vars))
	require.ErrorContains(err, `unknown LEDGER_MODE "remote"`)
	require.ErrorContains(err, "SUB_MIN_BATCH_SIZE 500 exceeds SUB_MAX_BATCH_SIZE 100")
}

func TestLoadReadsDotEnv(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(err)
	require.NoError(os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	for k, v := range baseEnv() {
		t.Setenv(k, v)
	}
	t.Setenv("API_PORT", "")
	os.Unsetenv("API_PORT")

	// no .env file is fine
	_, err = Load()
	require.NoError(err)

	require.NoError(os.WriteFile(filepath.Join(dir, ".env"), []byte("API_PORT=9090\n"), 0o600))
	c, err := Load()
	require.NoError(err)
	require.Equal("9090", c.APIPort)
}
