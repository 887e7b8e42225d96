package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/dantezy/reactor-sdk/pkg/quoter"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
)

// Canonical deployments, identical on every supported chain.
const (
	DefaultOrderQuoterAddress = "0x54539967a06Fc0E3C3ED0ee320Eb67362D13C5fF"
	DefaultPermit2Address     = "0x000000000022D473030F116dDEE9F6B43aC78BA3"
)

type Config struct {
	// Node
	RPCURL  string // http(s) or ws(s) endpoint
	ChainID int64

	// Contracts
	OrderQuoterAddress string
	Permit2Address     string

	LogLevel string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional if env vars are set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	cfg := &Config{
		ChainID:            getEnvInt64("CHAIN_ID", 1),
		OrderQuoterAddress: getEnvString("ORDER_QUOTER_ADDRESS", DefaultOrderQuoterAddress),
		Permit2Address:     getEnvString("PERMIT2_ADDRESS", DefaultPermit2Address),
		LogLevel:           getEnvString("LOG_LEVEL", "info"),
	}

	cfg.RPCURL = os.Getenv("RPC_URL")
	if cfg.RPCURL == "" {
		return nil, errors.New("missing required config: RPC_URL")
	}

	return cfg, nil
}

// Validate performs runtime validation of config values
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return errors.New("RPC_URL must be set")
	}
	if c.ChainID <= 0 {
		return errors.New("CHAIN_ID must be greater than 0")
	}
	if !common.IsHexAddress(c.OrderQuoterAddress) {
		return fmt.Errorf("ORDER_QUOTER_ADDRESS is not an address: %q", c.OrderQuoterAddress)
	}
	if !common.IsHexAddress(c.Permit2Address) {
		return fmt.Errorf("PERMIT2_ADDRESS is not an address: %q", c.Permit2Address)
	}
	return nil
}

// QuoterSettings converts a validated config into the settings quoter.Dial takes.
func (c *Config) QuoterSettings() quoter.Settings {
	return quoter.Settings{
		RPCURL:      c.RPCURL,
		ChainID:     c.ChainID,
		OrderQuoter: common.HexToAddress(c.OrderQuoterAddress),
		Permit2:     common.HexToAddress(c.Permit2Address),
	}
}

func getEnvInt64(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvString(key string, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}
