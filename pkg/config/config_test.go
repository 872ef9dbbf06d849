package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfig_Malformed(t *testing.T) {
	reader := strings.NewReader(`{ "wallets": {`)
	_, err := LoadConfig(reader)
	if err == nil {
		t.Error("Expected error loading malformed config, got nil")
	}
}

func TestSaveConfig(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "config.json")

	cfg := Default()
	cfg.RefreshIntervalSeconds = 45
	cfg.Wallets.EVMRPCURL = "http://localhost:1248"

	if err := SaveConfig(cfg, tmpPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfigFromFile(tmpPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.RefreshIntervalSeconds != 45 {
		t.Errorf("Refresh interval mismatch: %d", loaded.RefreshIntervalSeconds)
	}
	if loaded.Wallets.EVMRPCURL != "http://localhost:1248" {
		t.Errorf("Wallet config mismatch: %q", loaded.Wallets.EVMRPCURL)
	}
	if loaded.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("API base URL mismatch: %q", loaded.APIBaseURL)
	}
}

func TestSaveConfig_BackupAndRestore(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "config.json")

	first := Default()
	first.RefreshIntervalSeconds = 10
	if err := SaveConfig(first, tmpPath); err != nil {
		t.Fatal(err)
	}

	second := Default()
	second.RefreshIntervalSeconds = 20
	if err := SaveConfig(second, tmpPath); err != nil {
		t.Fatal(err)
	}

	matches, _ := filepath.Glob(tmpPath + ".*.bak")
	if len(matches) != 1 {
		t.Fatalf("Expected 1 backup, got %d", len(matches))
	}

	if err := RestoreLastBackup(tmpPath); err != nil {
		t.Fatalf("RestoreLastBackup failed: %v", err)
	}
	restored, err := LoadConfigFromFile(tmpPath)
	if err != nil {
		t.Fatal(err)
	}
	if restored.RefreshIntervalSeconds != 10 {
		t.Errorf("Expected restored interval 10, got %d", restored.RefreshIntervalSeconds)
	}
}

func TestSaveConfig_YAML(t *testing.T) {
	tmpPath := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Wallets.SubstrateWSURL = "ws://127.0.0.1:9944"
	cfg.Wallets.SubstrateLabel = "Signer"
	if err := SaveConfig(cfg, tmpPath); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "substrate_ws_url:") {
		t.Errorf("Expected YAML output, got:\n%s", data)
	}

	loaded, err := LoadConfigFromFile(tmpPath)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Wallets.SubstrateLabel != "Signer" {
		t.Errorf("Label mismatch: %q", loaded.Wallets.SubstrateLabel)
	}
}

func TestLoadConfigFromFile_Missing(t *testing.T) {
	cfg, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg != Default() {
		t.Errorf("Expected defaults for a missing file, got %+v", cfg)
	}
}

func TestLoadConfig_TableDriven(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name        string
		jsonContent string
		expectError bool
		validate    func(*testing.T, Config)
	}{
		{
			name: "Full Config",
			jsonContent: `{
				"api_base_url": "https://pro-api.coingecko.com/api/v3/",
				"api_key": "k",
				"refresh_interval_seconds": 60,
				"request_timeout_seconds": 5,
				"wallets": {"evm_rpc_url": "http://localhost:8545", "evm_label": "Frame"}
			}`,
			validate: func(t *testing.T, c Config) {
				if c.APIBaseURL != "https://pro-api.coingecko.com/api/v3" {
					t.Errorf("Expected trailing slash trimmed, got %q", c.APIBaseURL)
				}
				if c.RefreshIntervalSeconds != 60 || c.RequestTimeoutSeconds != 5 {
					t.Errorf("Interval mismatch: %+v", c)
				}
				if c.Wallets.EVMLabel != "Frame" {
					t.Errorf("Label mismatch: %q", c.Wallets.EVMLabel)
				}
			},
		},
		{
			name:        "Malformed JSON",
			jsonContent: `{ "wallets": [ unclosed_array`,
			expectError: true,
		},
		{
			name:        "Partial Config (Defaults)",
			jsonContent: `{"api_key": "abc"}`,
			validate: func(t *testing.T, c Config) {
				if c.RefreshIntervalSeconds != 30 {
					t.Errorf("Expected default refresh interval 30, got %d", c.RefreshIntervalSeconds)
				}
				if c.ConnectTimeoutSeconds != 120 {
					t.Errorf("Expected default connect timeout 120, got %d", c.ConnectTimeoutSeconds)
				}
				if c.APIBaseURL != DefaultAPIBaseURL {
					t.Errorf("Expected default base URL, got %q", c.APIBaseURL)
				}
			},
		},
		{
			name:        "Explicit zero is kept",
			jsonContent: `{"refresh_interval_seconds": 0}`,
			validate: func(t *testing.T, c Config) {
				if c.RefreshIntervalSeconds != 0 {
					t.Errorf("Expected 0, got %d", c.RefreshIntervalSeconds)
				}
				if len(c.Validate()) == 0 {
					t.Errorf("Expected validation problems for zero interval")
				}
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := LoadConfig(strings.NewReader(tt.jsonContent))

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if problems := cfg.Validate(); len(problems) != 0 {
		t.Errorf("Default config should be valid, got %v", problems)
	}

	cfg.APIBaseURL = "ftp://example"
	cfg.Wallets.SubstrateWSURL = "http://not-a-socket"
	if problems := cfg.Validate(); len(problems) != 2 {
		t.Errorf("Expected 2 problems, got %v", problems)
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAPIBaseURL:      "http://localhost:9000/",
		EnvEVMRPCURL:       "http://localhost:8545",
		EnvSolanaKeypair:   "/tmp/id.json",
		EnvSubstrateWSURL:  "ws://localhost:9944",
		EnvRefreshInterval: "15",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := ApplyEnv(Default(), lookup)
	if cfg.APIBaseURL != "http://localhost:9000" {
		t.Errorf("API URL mismatch: %q", cfg.APIBaseURL)
	}
	if cfg.Wallets.EVMRPCURL != "http://localhost:8545" || cfg.Wallets.SolanaKeypairPath != "/tmp/id.json" || cfg.Wallets.SubstrateWSURL != "ws://localhost:9944" {
		t.Errorf("Wallet override mismatch: %+v", cfg.Wallets)
	}
	if cfg.RefreshIntervalSeconds != 15 {
		t.Errorf("Refresh override mismatch: %d", cfg.RefreshIntervalSeconds)
	}

	env[EnvRefreshInterval] = "soon"
	cfg = ApplyEnv(Default(), lookup)
	if cfg.RefreshIntervalSeconds != DefaultRefreshIntervalSeconds {
		t.Errorf("Invalid override should be ignored, got %d", cfg.RefreshIntervalSeconds)
	}
}

func TestApplyEnv_RefreshIntervalMustBeWholeNumber(t *testing.T) {
	for _, v := range []string{"30abc", "1.5", "-5", "0", ""} {
		lookup := func(k string) (string, bool) {
			if k == EnvRefreshInterval {
				return v, true
			}
			return "", false
		}
		cfg := ApplyEnv(Default(), lookup)
		if cfg.RefreshIntervalSeconds != DefaultRefreshIntervalSeconds {
			t.Errorf("%s=%q should be ignored, got %d", EnvRefreshInterval, v, cfg.RefreshIntervalSeconds)
		}
	}

	cfg := ApplyEnv(Default(), func(k string) (string, bool) { return " 45 ", k == EnvRefreshInterval })
	if cfg.RefreshIntervalSeconds != 45 {
		t.Errorf("Refresh override mismatch: %d", cfg.RefreshIntervalSeconds)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("DEFIPRICE_TEST_DOTENV=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("DEFIPRICE_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), envPath); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}
	if got := os.Getenv("DEFIPRICE_TEST_DOTENV"); got != "loaded" {
		t.Errorf("Expected variable from .env, got %q", got)
	}
}

func TestSaveConfig_PermissionError(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced for root")
	}
	tmpDir := t.TempDir()

	if err := os.Chmod(tmpDir, 0500); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chmod(tmpDir, 0700) }()

	configPath := filepath.Join(tmpDir, "config.json")

	err := SaveConfig(Default(), configPath)
	if err == nil {
		t.Error("Expected permission error, got nil")
	}
}
