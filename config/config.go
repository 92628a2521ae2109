package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"

	"github.com/lightlink-network/ll-bridge-validator/types"
)

// LedgerMode selects how the validator reaches Chain B.
type LedgerMode string

const (
	// LedgerSubstrate talks to a substrate node over RPC.
	LedgerSubstrate LedgerMode = "substrate"
	// LedgerLocal runs the bridge program in process, for development.
	LedgerLocal LedgerMode = "local"
)

const (
	DefaultGasPrice = 24_000_000_000
	DefaultGasLimit = 5_000_000
)

type Chain struct {
	DefaultStartBlock uint64
	MinBatchSize      uint64
	MaxBatchSize      uint64
	FetchInterval     time.Duration
}

type Config struct {
	LogLevel slog.Level
	APIPort  string

	DatabaseURI  string
	DatabaseName string

	EthereumRPCURL   string
	BridgeAddress    common.Address
	EthereumKey      string
	GasPrice         *big.Int
	GasLimit         uint64
	EthereumIndexing Chain

	LedgerMode        LedgerMode
	SubstrateRPCURL   string
	SubstrateSeed     string
	SubstrateNetwork  uint16
	SubstrateIndexing Chain

	// local ledger only
	LocalValidators  []types.SubAddress
	LocalAccount     types.SubAddress
	LocalProposalTTL uint64

	ExecutorConcurrency int
	ExecutorMaxAttempts int
	RetryDelay          time.Duration
}

// Load reads a .env file if one exists, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it.
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	c := &Config{
		LogLevel: p.level("LOG_LEVEL", slog.LevelInfo),
		APIPort:  p.str("API_PORT", "8080"),

		DatabaseURI:  p.str("DATABASE_URI", ""),
		DatabaseName: p.str("DATABASE_NAME", "ll-bridge-validator"),

		EthereumRPCURL: p.str("ETHEREUM_RPC_URL", ""),
		BridgeAddress:  p.address("ETH_BRIDGE_ADDRESS"),
		EthereumKey:    p.str("ETH_VALIDATOR_KEY", ""),
		GasPrice:       p.bigInt("ETH_GAS_PRICE", DefaultGasPrice),
		GasLimit:       p.uint64("ETH_GAS_LIMIT", DefaultGasLimit),
		EthereumIndexing: Chain{
			DefaultStartBlock: p.uint64("ETH_DEFAULT_START_BLOCK", 0),
			MinBatchSize:      p.uint64("ETH_MIN_BATCH_SIZE", 1),
			MaxBatchSize:      p.uint64("ETH_MAX_BATCH_SIZE", 1000),
			FetchInterval:     p.seconds("ETH_FETCH_INTERVAL", 12),
		},

		LedgerMode:       LedgerMode(strings.ToLower(p.str("LEDGER_MODE", string(LedgerSubstrate)))),
		SubstrateRPCURL:  p.str("SUBSTRATE_RPC_URL", ""),
		SubstrateSeed:    p.str("SUBSTRATE_VALIDATOR_SEED", ""),
		SubstrateNetwork: uint16(p.uint64("SUBSTRATE_SS58_PREFIX", 42)),
		SubstrateIndexing: Chain{
			DefaultStartBlock: p.uint64("SUB_DEFAULT_START_BLOCK", 0),
			MinBatchSize:      p.uint64("SUB_MIN_BATCH_SIZE", 1),
			MaxBatchSize:      p.uint64("SUB_MAX_BATCH_SIZE", 100),
			FetchInterval:     p.seconds("SUB_FETCH_INTERVAL", 6),
		},

		LocalValidators:  p.subAddresses("LOCAL_VALIDATORS"),
		LocalAccount:     p.subAddress("LOCAL_VALIDATOR_ACCOUNT"),
		LocalProposalTTL: p.uint64("LOCAL_PROPOSAL_TTL", 0),

		ExecutorConcurrency: int(p.uint64("EXECUTOR_CONCURRENCY", 0)),
		ExecutorMaxAttempts: int(p.uint64("EXECUTOR_MAX_ATTEMPTS", 1)),
		RetryDelay:          p.seconds("RETRY_DELAY", 2),
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.DatabaseURI == "" {
		errs = append(errs, errors.New("DATABASE_URI is required"))
	}
	if c.EthereumRPCURL == "" {
		errs = append(errs, errors.New("ETHEREUM_RPC_URL is required"))
	}
	if c.BridgeAddress == (common.Address{}) {
		errs = append(errs, errors.New("ETH_BRIDGE_ADDRESS is required"))
	}

	for name, chain := range map[string]Chain{"ETH": c.EthereumIndexing, "SUB": c.SubstrateIndexing} {
		if chain.MaxBatchSize == 0 {
			errs = append(errs, fmt.Errorf("%s_MAX_BATCH_SIZE must be positive", name))
		}
		if chain.MinBatchSize > chain.MaxBatchSize {
			errs = append(errs, fmt.Errorf("%s_MIN_BATCH_SIZE %d exceeds %s_MAX_BATCH_SIZE %d", name, chain.MinBatchSize, name, chain.MaxBatchSize))
		}
	}

	switch c.LedgerMode {
	case LedgerSubstrate:
		if c.SubstrateRPCURL == "" {
			errs = append(errs, errors.New("SUBSTRATE_RPC_URL is required"))
		}
	case LedgerLocal:
		if len(c.LocalValidators) == 0 {
			errs = append(errs, errors.New("LOCAL_VALIDATORS is required in local ledger mode"))
		}
		if c.LocalAccount == (types.SubAddress{}) {
			errs = append(errs, errors.New("LOCAL_VALIDATOR_ACCOUNT is required in local ledger mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LEDGER_MODE %q", c.LedgerMode))
	}

	return errors.Join(errs...)
}

// parser collects every malformed variable instead of stopping at the first.
type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) str(key, def string) string {
	if v := strings.TrimSpace(p.getenv(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) uint64(key string, def uint64) uint64 {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
		return def
	}
	return n
}

func (p *parser) seconds(key string, def uint64) time.Duration {
	return time.Duration(p.uint64(key, def)) * time.Second
}

func (p *parser) bigInt(key string, def int64) *big.Int {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return big.NewInt(def)
	}
	n, ok := new(big.Int).SetString(v, 10)
	if !ok || n.Sign() < 0 {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %q is not a non-negative integer", key, v))
		return big.NewInt(def)
	}
	return n
}

func (p *parser) address(key string) common.Address {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return common.Address{}
	}
	if !common.IsHexAddress(v) {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %q is not an address", key, v))
		return common.Address{}
	}
	return common.HexToAddress(v)
}

func (p *parser) subAddress(key string) types.SubAddress {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return types.SubAddress{}
	}
	addr, err := parseSubAddress(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
	}
	return addr
}

func (p *parser) subAddresses(key string) []types.SubAddress {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return nil
	}

	var out []types.SubAddress
	for _, part := range strings.Split(v, ",") {
		addr, err := parseSubAddress(strings.TrimSpace(part))
		if err != nil {
			p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
			return nil
		}
		out = append(out, addr)
	}
	return out
}

func (p *parser) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(p.getenv(key))
	if v == "" {
		return def
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.errs = append(p.errs, fmt.Errorf("failed to parse %s: %w", key, err))
		return def
	}
	return l
}

func parseSubAddress(s string) (types.SubAddress, error) {
	b := common.FromHex(s)
	if len(b) != len(types.SubAddress{}) {
		return types.SubAddress{}, fmt.Errorf("%q is not a 32 byte hex account", s)
	}
	return types.SubAddress(b), nil
}
