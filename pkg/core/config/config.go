// Package config loads runtime settings for the tax API and CLI.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config is the merged file + environment configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Engine  EngineConfig  `yaml:"engine" json:"engine"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type StorageConfig struct {
	Type        string `yaml:"type" json:"type"`
	DatabaseURL string `yaml:"database_url" json:"-"`
	SQLitePath  string `yaml:"sqlite_path" json:"sqlite_path"`
}

type EngineConfig struct {
	PrescribedRate      float64 `yaml:"prescribed_rate" json:"prescribed_rate"`
	PrescribedRatesFile string  `yaml:"prescribed_rates_file" json:"prescribed_rates_file,omitempty"` // saved CRA rate page
	BorrowingThreshold  float64 `yaml:"borrowing_threshold" json:"borrowing_threshold"`
	DataMaxAgeDays      int     `yaml:"data_max_age_days" json:"data_max_age_days"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Storage: StorageConfig{Type: StorageSQLite, SQLitePath: ".cache/cantax.db"},
		Engine: EngineConfig{
			PrescribedRate:     0.10,
			BorrowingThreshold: 100_000,
			DataMaxAgeDays:     365,
		},
	}
}

// Load reads .env (if any), then the YAML file at path (if it exists), then
// applies environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TAX_API_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
	}
	if v := os.Getenv("DATABASE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}
	if v := os.Getenv("TAX_PRESCRIBED_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TAX_PRESCRIBED_RATE: %w", err)
		}
		cfg.Engine.PrescribedRate = f
	}
	if v := os.Getenv("TAX_PRESCRIBED_RATES_FILE"); v != "" {
		cfg.Engine.PrescribedRatesFile = v
	}
	if v := os.Getenv("TAX_BORROWING_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TAX_BORROWING_THRESHOLD: %w", err)
		}
		cfg.Engine.BorrowingThreshold = f
	}
	if v := os.Getenv("TAX_DATA_MAX_AGE_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TAX_DATA_MAX_AGE_DAYS: %w", err)
		}
		cfg.Engine.DataMaxAgeDays = n
	}
	return nil
}

// Validate rejects settings the API cannot start with.
func (c Config) Validate() error {
	switch c.Storage.Type {
	case StoragePostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("storage type postgres requires DATABASE_URL")
		}
	case StorageSQLite:
		if c.Storage.SQLitePath == "" {
			return fmt.Errorf("storage type sqlite requires sqlite_path")
		}
	default:
		return fmt.Errorf("unknown storage type %q (want postgres or sqlite)", c.Storage.Type)
	}
	if c.Engine.PrescribedRate < 0 || c.Engine.PrescribedRate > 1 {
		return fmt.Errorf("prescribed_rate %.4f out of range [0, 1]", c.Engine.PrescribedRate)
	}
	if c.Engine.DataMaxAgeDays <= 0 {
		return fmt.Errorf("data_max_age_days must be positive")
	}
	return nil
}
