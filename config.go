package main

import (
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Mode string

const (
	ModeProduction Mode = "production"
	ModeTest       Mode = "test"
)

const (
	configDirPathEnv     = "LEDGERD_CONFIG_DIR_PATH"
	defaultConfigDirPath = "."
	defaultListenAddr    = ":8000"
)

// ReversalDatePolicy controls which date the reversal record of a voided
// voucher carries when the caller does not supply one explicitly.
type ReversalDatePolicy string

const (
	// ReversalDateOriginal dates the reversal on the voided voucher's own date.
	ReversalDateOriginal ReversalDatePolicy = "original"
	// ReversalDateVoid dates the reversal on the day the void was requested.
	ReversalDateVoid ReversalDatePolicy = "void"
)

// Config represents the overall application configuration
type Config struct {
	mode           Mode
	listenAddr     string
	dbConf         DatabaseConfig
	reversalPolicy ReversalDatePolicy
}

// LoadConfig builds configuration from environment variables
func LoadConfig(logger Logger) (*Config, error) {
	logger = logger.NewSystem("config")

	configDirPath := os.Getenv(configDirPathEnv)
	if configDirPath == "" {
		configDirPath = defaultConfigDirPath
	}

	configDotEnvPath := filepath.Join(configDirPath, ".env")
	if err := godotenv.Load(configDotEnvPath); err != nil {
		logger.Warn(".env file not found", "path", configDotEnvPath)
	}

	mode := Mode(os.Getenv("LEDGERD_MODE"))
	if mode == "" {
		mode = ModeProduction
	} else if mode != ModeProduction && mode != ModeTest {
		logger.Fatal("invalid LEDGERD_MODE value", "value", mode)
	}
	logger.Info("set mode", "value", mode)

	var dbConf DatabaseConfig
	dbURL := os.Getenv("LEDGERD_DATABASE_URL")

	// If LEDGERD_DATABASE_URL is not empty, parse the connection string.
	// Otherwise, read the envs in the usual way.
	if dbURL != "" {
		var err error
		dbConf, err = ParseConnectionString(dbURL)
		if err != nil {
			logger.Error("failed to parse connection string", "err", err)
			return nil, err
		}
	} else {
		if err := cleanenv.ReadEnv(&dbConf); err != nil {
			logger.Error("failed to read env", "err", err)
			return nil, err
		}
	}

	listenAddr := os.Getenv("LEDGERD_LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}

	reversalPolicy := ReversalDatePolicy(os.Getenv("LEDGERD_REVERSAL_DATE_POLICY"))
	switch reversalPolicy {
	case "":
		reversalPolicy = ReversalDateOriginal
	case ReversalDateOriginal, ReversalDateVoid:
	default:
		logger.Fatal("invalid LEDGERD_REVERSAL_DATE_POLICY value", "value", reversalPolicy)
	}
	logger.Info("set reversal date policy", "value", reversalPolicy)

	config := Config{
		mode:           mode,
		listenAddr:     listenAddr,
		dbConf:         dbConf,
		reversalPolicy: reversalPolicy,
	}

	return &config, nil
}
