package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port default = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Storage.Backend default = %q, want badger", cfg.Storage.Backend)
	}
	if len(cfg.Clients.Gemini.Models) == 0 {
		t.Error("expected at least one default inference model")
	}
	if len(cfg.Scan.CoreTickers) == 0 {
		t.Error("expected a non-empty default core ticker list")
	}
	if cfg.Scan.MarketProxy != "SPY" {
		t.Errorf("Scan.MarketProxy default = %q, want SPY", cfg.Scan.MarketProxy)
	}
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("SIFT_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d after env override, want %d", cfg.Server.Port, 9090)
	}
}

func TestConfig_StorageEnvOverride(t *testing.T) {
	t.Setenv("SIFT_STORAGE_BACKEND", "surreal")
	t.Setenv("SIFT_SURREAL_ADDRESS", "ws://surreal:8000/rpc")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	if cfg.Storage.Backend != "surreal" {
		t.Errorf("Storage.Backend = %q, want surreal", cfg.Storage.Backend)
	}
	if cfg.Storage.Address != "ws://surreal:8000/rpc" {
		t.Errorf("Storage.Address = %q, want ws://surreal:8000/rpc", cfg.Storage.Address)
	}
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sift.toml")
	content := `
[server]
port = 9999

[scan]
core_tickers = ["AAPL", "MSFT"]
market_proxy = "QQQ"

[clients.gemini]
models = ["gemini-2.5-flash"]
api_keys = ["k1", "k2"]
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if len(cfg.Scan.CoreTickers) != 2 {
		t.Errorf("CoreTickers = %v, want 2 entries", cfg.Scan.CoreTickers)
	}
	if cfg.Scan.MarketProxy != "QQQ" {
		t.Errorf("MarketProxy = %q, want QQQ", cfg.Scan.MarketProxy)
	}
	if len(cfg.Clients.Gemini.APIKeys) != 2 {
		t.Errorf("APIKeys = %v, want 2 entries", cfg.Clients.Gemini.APIKeys)
	}
	// Untouched sections keep defaults.
	if cfg.Storage.Backend != "badger" {
		t.Errorf("Storage.Backend = %q, want badger default", cfg.Storage.Backend)
	}
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadConfig with missing file should not error: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected defaults when file missing, port = %d", cfg.Server.Port)
	}
}

func TestResolveGeminiKeys_CommaList(t *testing.T) {
	t.Setenv("SIFT_GEMINI_API_KEYS", "key-a, key-b ,,key-c")

	keys := ResolveGeminiKeys()
	if len(keys) != 3 {
		t.Fatalf("keys = %v, want 3 entries", keys)
	}
	if keys[0] != "key-a" || keys[1] != "key-b" || keys[2] != "key-c" {
		t.Errorf("keys = %v, want trimmed entries", keys)
	}
}

func TestResolveGeminiKeys_SingleKeyFallback(t *testing.T) {
	t.Setenv("SIFT_GEMINI_API_KEYS", "")
	t.Setenv("GEMINI_API_KEY", "solo-key")

	keys := ResolveGeminiKeys()
	if len(keys) != 1 || keys[0] != "solo-key" {
		t.Errorf("keys = %v, want [solo-key]", keys)
	}
}

func TestGeminiConfig_GetTimeout(t *testing.T) {
	c := &GeminiConfig{Timeout: "20s"}
	if got := c.GetTimeout(); got != 20*time.Second {
		t.Errorf("GetTimeout = %v, want 20s", got)
	}

	c.Timeout = "bogus"
	if got := c.GetTimeout(); got != 45*time.Second {
		t.Errorf("GetTimeout fallback = %v, want 45s", got)
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Environment: "Production"}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction for 'Production'")
	}
	cfg.Environment = "development"
	if cfg.IsProduction() {
		t.Error("did not expect IsProduction for 'development'")
	}
}
