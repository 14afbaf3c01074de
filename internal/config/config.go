package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"

	"github.com/core-coin/go-core/v2/common"
	"github.com/joho/godotenv"
)

type Config struct {
	Development bool

	// Postgres configuration
	PostgresUser     string
	PostgresPassword string
	PostgresHost     string
	PostgresPort     int
	PostgresDB       string

	// Network configuration — shared by both deployed programs' PDA
	// derivation, since address format depends on it.
	NetworkID *big.Int

	// MailerProgramID and MailServiceProgramID are the deterministic
	// addresses this deployment derives singleton and per-account state
	// under (spec section 6.3).
	MailerProgramID      string
	MailServiceProgramID string

	// OwnerAddress is the principal authorized to call owner-only
	// operations on both programs at Initialize time.
	OwnerAddress string

	// UnitMintAddress identifies the UNIT stablecoin mint both programs
	// collect fees in.
	UnitMintAddress string

	// ClaimSweepIntervalSeconds is how often the background job checks for
	// lapsed RecipientClaim windows, in seconds.
	ClaimSweepIntervalSeconds int
}

// GetNetworkName mirrors the original network-name convention: NetworkID
// 1 is mainnet, 3 is the Devin testnet.
func (c *Config) GetNetworkName() string {
	if c.NetworkID.Cmp(big.NewInt(1)) == 0 {
		return "xcb"
	}
	if c.NetworkID.Cmp(big.NewInt(3)) == 0 {
		return "xab"
	}
	return "xab"
}

// LoadConfig loads configuration from environment variables, falling
// back to a .env file if present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Development:               getEnvAsBool("DEVELOPMENT", false),
		PostgresUser:              getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:          getEnv("POSTGRES_PASSWORD", "password"),
		PostgresHost:              getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:              getEnvAsInt("POSTGRES_PORT", 5432),
		PostgresDB:                getEnv("POSTGRES_DB", "mailnet"),
		NetworkID:                 getEnvAsBigInt("NETWORK_ID", big.NewInt(1)),
		MailerProgramID:           getEnv("MAILER_PROGRAM_ID", ""),
		MailServiceProgramID:      getEnv("MAIL_SERVICE_PROGRAM_ID", ""),
		OwnerAddress:              getEnv("OWNER_ADDRESS", ""),
		UnitMintAddress:           getEnv("UNIT_MINT_ADDRESS", ""),
		ClaimSweepIntervalSeconds: getEnvAsInt("CLAIM_SWEEP_INTERVAL_SECONDS", 3600),
	}

	common.DefaultNetworkID = common.NetworkID(cfg.NetworkID.Int64())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly
// set and well-formed.
func (c *Config) Validate() error {
	if c.PostgresDB == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}

	if c.MailerProgramID == "" {
		return fmt.Errorf("MAILER_PROGRAM_ID is required")
	}
	if _, err := common.HexToAddress(c.MailerProgramID); err != nil {
		return fmt.Errorf("invalid MAILER_PROGRAM_ID format: %w", err)
	}

	if c.MailServiceProgramID == "" {
		return fmt.Errorf("MAIL_SERVICE_PROGRAM_ID is required")
	}
	if _, err := common.HexToAddress(c.MailServiceProgramID); err != nil {
		return fmt.Errorf("invalid MAIL_SERVICE_PROGRAM_ID format: %w", err)
	}

	if c.OwnerAddress == "" {
		return fmt.Errorf("OWNER_ADDRESS is required")
	}
	if _, err := common.HexToAddress(c.OwnerAddress); err != nil {
		return fmt.Errorf("invalid OWNER_ADDRESS format: %w", err)
	}

	if c.UnitMintAddress == "" {
		return fmt.Errorf("UNIT_MINT_ADDRESS is required")
	}
	if _, err := common.HexToAddress(c.UnitMintAddress); err != nil {
		return fmt.Errorf("invalid UNIT_MINT_ADDRESS format: %w", err)
	}

	if c.ClaimSweepIntervalSeconds <= 0 {
		return fmt.Errorf("CLAIM_SWEEP_INTERVAL_SECONDS must be positive")
	}

	return nil
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(name string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(name string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBigInt(name string, defaultValue *big.Int) *big.Int {
	if valueStr, exists := os.LookupEnv(name); exists {
		if value, ok := new(big.Int).SetString(valueStr, 10); ok {
			return value
		}
	}
	return defaultValue
}
