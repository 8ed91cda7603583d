package config

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	ConfigFileName = ".oasyspark.json"
	LogFileName    = ".oasyspark.log"

	// EnvAPIKey holds the concierge credential.
	EnvAPIKey   = "API_KEY"
	EnvLogLevel = "OASYSPARK_LOG_LEVEL"

	DefaultExplorerURL = "https://explorer.oasys.games/api"
	DefaultRPCURL      = "https://rpc.mainnet.oasys.games"
	DefaultChainID     = 248
)

// SocialConfig is a host identity handed to the process by its embedder.
type SocialConfig struct {
	FID            int64  `json:"fid"`
	Username       string `json:"username,omitempty"`
	DisplayName    string `json:"display_name,omitempty"`
	CustodyAddress string `json:"custody_address,omitempty"`
}

// Config holds application-wide settings.
type Config struct {
	ExplorerURL        string        `json:"explorer_url"`
	RPCURL             string        `json:"rpc_url"`
	ChainID            int64         `json:"chain_id"`
	WalletRPCURL       string        `json:"wallet_rpc_url,omitempty"`
	Social             *SocialConfig `json:"social,omitempty"`
	SocialDelayMS      int           `json:"social_delay_ms"`
	HTTPTimeoutSeconds int           `json:"http_timeout_seconds"`
	AssistantModel     string        `json:"assistant_model,omitempty"`
	StalePolicy        string        `json:"stale_policy"`
	LogLevel           string        `json:"log_level"`
	Port               int           `json:"port"`

	APIKey string `json:"-"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ExplorerURL:   DefaultExplorerURL,
		RPCURL:        DefaultRPCURL,
		ChainID:       DefaultChainID,
		SocialDelayMS: 1500,
		StalePolicy:   "discard",
		LogLevel:      "info",
		Port:          8080,
	}
}

func (c Config) SocialDelay() time.Duration {
	return time.Duration(c.SocialDelayMS) * time.Millisecond
}

func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

func GetConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ConfigFileName), nil
}

func GetLogPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, LogFileName), nil
}

// LoadConfigFromFile loads path, falling back to defaults when it does not
// exist. Environment overrides are applied in both cases.
func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		cfg := Default()
		applyEnv(&cfg)
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	cfg, err := LoadConfig(f)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// LoadConfig decodes a configuration; missing fields keep their defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var raw struct {
		ExplorerURL        *string       `json:"explorer_url"`
		RPCURL             *string       `json:"rpc_url"`
		ChainID            *int64        `json:"chain_id"`
		WalletRPCURL       string        `json:"wallet_rpc_url"`
		Social             *SocialConfig `json:"social"`
		SocialDelayMS      *int          `json:"social_delay_ms"`
		HTTPTimeoutSeconds *int          `json:"http_timeout_seconds"`
		AssistantModel     string        `json:"assistant_model"`
		StalePolicy        *string       `json:"stale_policy"`
		LogLevel           *string       `json:"log_level"`
		Port               *int          `json:"port"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return Config{}, err
	}

	cfg := Default()
	if raw.ExplorerURL != nil {
		cfg.ExplorerURL = *raw.ExplorerURL
	}
	if raw.RPCURL != nil {
		cfg.RPCURL = *raw.RPCURL
	}
	if raw.ChainID != nil {
		cfg.ChainID = *raw.ChainID
	}
	if raw.SocialDelayMS != nil {
		cfg.SocialDelayMS = *raw.SocialDelayMS
	}
	if raw.HTTPTimeoutSeconds != nil {
		cfg.HTTPTimeoutSeconds = *raw.HTTPTimeoutSeconds
	}
	if raw.StalePolicy != nil {
		cfg.StalePolicy = *raw.StalePolicy
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.Port != nil {
		cfg.Port = *raw.Port
	}
	cfg.WalletRPCURL = raw.WalletRPCURL
	cfg.Social = raw.Social
	cfg.AssistantModel = raw.AssistantModel
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.APIKey = os.Getenv(EnvAPIKey)
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.LogLevel = lvl
	}
}

// Validate reports every structural problem in cfg.
func Validate(cfg Config) []string {
	var errs []string
	if _, err := url.ParseRequestURI(strings.TrimSpace(cfg.ExplorerURL)); err != nil {
		errs = append(errs, fmt.Sprintf("explorer_url %q is not a valid URL", cfg.ExplorerURL))
	}
	if cfg.RPCURL != "" {
		if _, err := url.ParseRequestURI(cfg.RPCURL); err != nil {
			errs = append(errs, fmt.Sprintf("rpc_url %q is not a valid URL", cfg.RPCURL))
		}
	}
	if cfg.ChainID < 0 {
		errs = append(errs, "chain_id must not be negative")
	}
	if cfg.SocialDelayMS < 0 {
		errs = append(errs, "social_delay_ms must not be negative")
	}
	if cfg.HTTPTimeoutSeconds < 0 {
		errs = append(errs, "http_timeout_seconds must not be negative")
	}
	switch cfg.StalePolicy {
	case "discard", "last_writer_wins":
	default:
		errs = append(errs, fmt.Sprintf("stale_policy %q must be discard or last_writer_wins", cfg.StalePolicy))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port %d out of range", cfg.Port))
	}
	return errs
}

func SaveConfig(cfg Config, path string) error {
	if errs := Validate(cfg); len(errs) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(errs, "; "))
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return fmt.Errorf("validation failed: encoded configuration is empty")
	}

	// Create a backup of the existing file
	if _, err := os.Stat(path); err == nil {
		backupPath := fmt.Sprintf("%s.%s.bak", path, time.Now().Format("20060102-150405"))
		input, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read existing config for backup: %w", err)
		}
		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to write backup config: %w", err)
		}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

func RestoreLastBackup(configPath string) (string, error) {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return "", err
	}
	return lastBackup, os.WriteFile(configPath, data, 0600)
}
