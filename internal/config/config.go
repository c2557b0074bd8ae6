package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvConfigPath names the config file to load.
	EnvConfigPath = "ONBOARDGO_CONFIG"
	// EnvDatabase selects the database driver (sqlite3, mysql, postgres).
	EnvDatabase = "ONBOARDGO_DB"
	// EnvServerAddress overrides basic_config.server_address.
	EnvServerAddress = "ONBOARDGO_ADDR"

	defaultConfigFile = "config.json"
)

// Config represents runtime configuration for the service.
type Config struct {
	BasicConfig BasicConfig               `json:"basic_config" yaml:"basic_config"`
	Databases   map[string]DatabaseConfig `json:"databases" yaml:"databases"`
	Redis       RedisConfig               `json:"redis" yaml:"redis"`
	Insights    InsightsConfig            `json:"insights" yaml:"insights"`
	Logging     LoggingConfig             `json:"logging" yaml:"logging"`
}

type BasicConfig struct {
	ServerAddress string `json:"server_address" yaml:"server_address"`
	StaticDir     string `json:"static_dir" yaml:"static_dir"`
	BackupPath    string `json:"backup_path" yaml:"backup_path"`
	// BackupFatal makes a failed CSV backup fail the whole submission.
	BackupFatal bool `json:"backup_fatal" yaml:"backup_fatal"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn" yaml:"dsn"`
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"db_name" yaml:"db_name"`
	Params   string `json:"params" yaml:"params"`
}

type RedisConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	Host       string `json:"host" yaml:"host"`
	Port       int    `json:"port" yaml:"port"`
	Username   string `json:"username" yaml:"username"`
	Password   string `json:"password" yaml:"password"`
	DB         int    `json:"db" yaml:"db"`
	TTLSeconds int    `json:"ttl_seconds" yaml:"ttl_seconds"`
}

// InsightsConfig selects the insight generator. An empty provider means the
// built-in rules.
type InsightsConfig struct {
	Provider       string `json:"provider" yaml:"provider"`
	BaseURL        string `json:"base_url" yaml:"base_url"`
	Model          string `json:"model" yaml:"model"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
	// APIKeyEnv is the name of the environment variable holding the provider key.
	// Keys are never read from the config file itself.
	APIKeyEnv string `json:"api_key_env" yaml:"api_key_env"`
}

type LoggingConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		BasicConfig: BasicConfig{
			ServerAddress: ":5000",
			StaticDir:     "web",
			BackupPath:    "onboarding_data.csv",
		},
		Databases: map[string]DatabaseConfig{
			"sqlite3": {DSN: "onboarding.db"},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads configuration from the provided path (defaults to config.json).
// A .env file in the working directory is loaded first when present. When no
// path is given and config.json does not exist, Default is used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	explicit := path != ""
	if path == "" {
		path = defaultConfigFile
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	cfg := Default()
	switch strings.ToLower(filepath.Ext(absPath)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	default:
		if err := json.NewDecoder(file).Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	}
	cfg.applyEnv()

	if len(cfg.Databases) == 0 {
		return nil, fmt.Errorf("databases must be configured")
	}
	if cfg.BasicConfig.BackupPath == "" {
		return nil, fmt.Errorf("backup_path must be configured")
	}

	base := filepath.Dir(absPath)
	cfg.BasicConfig.BackupPath = resolve(base, cfg.BasicConfig.BackupPath)
	cfg.BasicConfig.StaticDir = resolve(base, cfg.BasicConfig.StaticDir)
	if sqlite, ok := cfg.Databases["sqlite3"]; ok && sqlite.DSN != "" && !strings.HasPrefix(sqlite.DSN, ":memory:") && !strings.HasPrefix(sqlite.DSN, "file:") {
		sqlite.DSN = resolve(base, sqlite.DSN)
		cfg.Databases["sqlite3"] = sqlite
	}

	return cfg, nil
}

// DatabaseDriver returns the driver chosen through ONBOARDGO_DB, sqlite3 by default.
func DatabaseDriver() string {
	if v := strings.TrimSpace(os.Getenv(EnvDatabase)); v != "" {
		return v
	}
	return "sqlite3"
}

func (c *Config) applyEnv() {
	if addr := strings.TrimSpace(os.Getenv(EnvServerAddress)); addr != "" {
		c.BasicConfig.ServerAddress = addr
	}
}

func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}
