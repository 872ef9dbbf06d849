package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ConfigFileName = ".defiprice.json"

const (
	DefaultAPIBaseURL             = "https://api.coingecko.com/api/v3"
	DefaultRefreshIntervalSeconds = 30
	DefaultRequestTimeoutSeconds  = 10
	DefaultConnectTimeoutSeconds  = 120
)

// Environment variables that override file settings.
const (
	EnvAPIBaseURL      = "DEFIPRICE_API_URL"
	EnvAPIKey          = "DEFIPRICE_API_KEY"
	EnvEVMRPCURL       = "DEFIPRICE_EVM_RPC_URL"
	EnvSolanaKeypair   = "DEFIPRICE_SOLANA_KEYPAIR"
	EnvSubstrateWSURL  = "DEFIPRICE_SUBSTRATE_WS_URL"
	EnvRefreshInterval = "DEFIPRICE_REFRESH_SECONDS"
)

// WalletConfig describes the wallet providers available in the host environment.
type WalletConfig struct {
	EVMRPCURL         string `json:"evm_rpc_url,omitempty" yaml:"evm_rpc_url,omitempty"`
	EVMLabel          string `json:"evm_label,omitempty" yaml:"evm_label,omitempty"`
	SolanaKeypairPath string `json:"solana_keypair_path,omitempty" yaml:"solana_keypair_path,omitempty"`
	SolanaLabel       string `json:"solana_label,omitempty" yaml:"solana_label,omitempty"`
	SubstrateWSURL    string `json:"substrate_ws_url,omitempty" yaml:"substrate_ws_url,omitempty"`
	SubstrateLabel    string `json:"substrate_label,omitempty" yaml:"substrate_label,omitempty"`
}

// Config holds application-wide settings.
type Config struct {
	APIBaseURL             string       `json:"api_base_url" yaml:"api_base_url"`
	APIKey                 string       `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	RefreshIntervalSeconds int          `json:"refresh_interval_seconds" yaml:"refresh_interval_seconds"`
	RequestTimeoutSeconds  int          `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	ConnectTimeoutSeconds  int          `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds"`
	Wallets                WalletConfig `json:"wallets" yaml:"wallets"`
}

// fileConfig mirrors Config with optional fields so unset values keep their defaults.
type fileConfig struct {
	APIBaseURL             *string      `json:"api_base_url" yaml:"api_base_url"`
	APIKey                 *string      `json:"api_key" yaml:"api_key"`
	RefreshIntervalSeconds *int         `json:"refresh_interval_seconds" yaml:"refresh_interval_seconds"`
	RequestTimeoutSeconds  *int         `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
	ConnectTimeoutSeconds  *int         `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds"`
	Wallets                WalletConfig `json:"wallets" yaml:"wallets"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		APIBaseURL:             DefaultAPIBaseURL,
		RefreshIntervalSeconds: DefaultRefreshIntervalSeconds,
		RequestTimeoutSeconds:  DefaultRequestTimeoutSeconds,
		ConnectTimeoutSeconds:  DefaultConnectTimeoutSeconds,
	}
}

func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// Validate reports every structural problem with the configuration.
func (c Config) Validate() []string {
	var problems []string
	if strings.TrimSpace(c.APIBaseURL) == "" {
		problems = append(problems, "api_base_url is empty")
	} else if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		problems = append(problems, fmt.Sprintf("api_base_url %q is not an http(s) URL", c.APIBaseURL))
	}
	if c.RefreshIntervalSeconds <= 0 {
		problems = append(problems, "refresh_interval_seconds must be positive")
	}
	if c.RequestTimeoutSeconds <= 0 {
		problems = append(problems, "request_timeout_seconds must be positive")
	}
	if c.ConnectTimeoutSeconds <= 0 {
		problems = append(problems, "connect_timeout_seconds must be positive")
	}
	if u := c.Wallets.SubstrateWSURL; u != "" && !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		problems = append(problems, fmt.Sprintf("wallets.substrate_ws_url %q is not a ws(s) URL", u))
	}
	return problems
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

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// LoadConfigFromFile reads the config at path. A missing file yields the defaults.
func LoadConfigFromFile(path string) (Config, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	if isYAML(path) {
		return LoadYAMLConfig(f)
	}
	return LoadConfig(f)
}

// LoadConfig decodes a JSON configuration, filling unset fields with defaults.
func LoadConfig(r io.Reader) (Config, error) {
	var fc fileConfig
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return Config{}, err
	}
	return fc.merge(), nil
}

// LoadYAMLConfig decodes a YAML configuration, filling unset fields with defaults.
func LoadYAMLConfig(r io.Reader) (Config, error) {
	var fc fileConfig
	if err := yaml.NewDecoder(r).Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return fc.merge(), nil
}

func (fc fileConfig) merge() Config {
	cfg := Default()
	if fc.APIBaseURL != nil {
		cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(*fc.APIBaseURL), "/")
	}
	if fc.APIKey != nil {
		cfg.APIKey = *fc.APIKey
	}
	if fc.RefreshIntervalSeconds != nil {
		cfg.RefreshIntervalSeconds = *fc.RefreshIntervalSeconds
	}
	if fc.RequestTimeoutSeconds != nil {
		cfg.RequestTimeoutSeconds = *fc.RequestTimeoutSeconds
	}
	if fc.ConnectTimeoutSeconds != nil {
		cfg.ConnectTimeoutSeconds = *fc.ConnectTimeoutSeconds
	}
	cfg.Wallets = fc.Wallets
	return cfg
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables on cfg. lookup is usually os.LookupEnv.
func ApplyEnv(cfg Config, lookup func(string) (string, bool)) Config {
	if v, ok := lookup(EnvAPIBaseURL); ok && v != "" {
		cfg.APIBaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := lookup(EnvAPIKey); ok {
		cfg.APIKey = v
	}
	if v, ok := lookup(EnvEVMRPCURL); ok {
		cfg.Wallets.EVMRPCURL = v
	}
	if v, ok := lookup(EnvSolanaKeypair); ok {
		cfg.Wallets.SolanaKeypairPath = v
	}
	if v, ok := lookup(EnvSubstrateWSURL); ok {
		cfg.Wallets.SubstrateWSURL = v
	}
	if v, ok := lookup(EnvRefreshInterval); ok {
		if secs, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && secs > 0 {
			cfg.RefreshIntervalSeconds = secs
		}
	}
	return cfg
}

func SaveConfig(cfg Config, path string) error {
	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("validation failed: %s", strings.Join(problems, "; "))
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
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

func RestoreLastBackup(configPath string) error {
	matches, err := filepath.Glob(configPath + ".*.bak")
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return fmt.Errorf("no backup files found")
	}
	sort.Strings(matches)
	lastBackup := matches[len(matches)-1]

	data, err := os.ReadFile(lastBackup)
	if err != nil {
		return err
	}
	return os.WriteFile(configPath, data, 0600)
}
