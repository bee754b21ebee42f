package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupHome points the config dir at a throwaway home and clears the env
// overrides each getter consults.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, k := range []string{
		"INVO_SERVER_URL", "INVO_COMPANY_ID", "INVO_API_KEY",
		"INVO_SYNC_AUTO", "INVO_SYNC_INTERVAL", "INVO_PROBE_INTERVAL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func TestLoadMissingConfigIsEmpty(t *testing.T) {
	setupHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "" || cfg.CompanyID != "" {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	setupHome(t)

	if err := Save(&Config{ServerURL: "https://api.example.com", CompanyID: "T1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServerURL != "https://api.example.com" || cfg.CompanyID != "T1" {
		t.Fatalf("got %+v", cfg)
	}
}

func TestGetServerURLPriority(t *testing.T) {
	setupHome(t)

	if got := GetServerURL(); got != "http://localhost:8080" {
		t.Errorf("default: got %q", got)
	}

	Save(&Config{ServerURL: "https://cfg.example.com"})
	if got := GetServerURL(); got != "https://cfg.example.com" {
		t.Errorf("config: got %q", got)
	}

	t.Setenv("INVO_SERVER_URL", "https://env.example.com")
	if got := GetServerURL(); got != "https://env.example.com" {
		t.Errorf("env should win: got %q", got)
	}
}

func TestGetCompanyIDEnvOverride(t *testing.T) {
	setupHome(t)

	Save(&Config{CompanyID: "from-config"})
	if got := GetCompanyID(); got != "from-config" {
		t.Errorf("config: got %q", got)
	}
	t.Setenv("INVO_COMPANY_ID", "from-env")
	if got := GetCompanyID(); got != "from-env" {
		t.Errorf("env should win: got %q", got)
	}
}

func TestGetAPIKeyFromAuthFile(t *testing.T) {
	setupHome(t)

	if got := GetAPIKey(); got != "" {
		t.Errorf("no credentials: got %q", got)
	}
	if err := SaveAuth(&AuthCredentials{APIKey: "stored-key"}); err != nil {
		t.Fatalf("save auth: %v", err)
	}
	if got := GetAPIKey(); got != "stored-key" {
		t.Errorf("auth file: got %q", got)
	}
	t.Setenv("INVO_API_KEY", "env-key")
	if got := GetAPIKey(); got != "env-key" {
		t.Errorf("env should win: got %q", got)
	}
}

func TestAuthFilePermissions(t *testing.T) {
	home := setupHome(t)

	if err := SaveAuth(&AuthCredentials{APIKey: "k"}); err != nil {
		t.Fatalf("save auth: %v", err)
	}
	info, err := os.Stat(filepath.Join(home, ".config", "invo", "auth.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("auth.json permissions: got %o, want 600", perm)
	}
}

func TestGetDeviceIDGeneratesAndPersists(t *testing.T) {
	setupHome(t)

	first, err := GetDeviceID()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(first) != 32 {
		t.Fatalf("expected 32 hex chars, got %q", first)
	}

	second, err := GetDeviceID()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if second != first {
		t.Errorf("device id not stable: %q vs %q", first, second)
	}
}

func TestGetDeviceIDKeepsExistingAPIKey(t *testing.T) {
	setupHome(t)

	if err := SaveAuth(&AuthCredentials{APIKey: "keep-me"}); err != nil {
		t.Fatalf("save auth: %v", err)
	}
	if _, err := GetDeviceID(); err != nil {
		t.Fatalf("device id: %v", err)
	}
	creds, err := LoadAuth()
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}
	if creds.APIKey != "keep-me" {
		t.Errorf("api key lost: got %q", creds.APIKey)
	}
	if creds.DeviceID == "" {
		t.Error("device id not stored")
	}
}

func TestGetSyncEnabled(t *testing.T) {
	setupHome(t)

	if !GetSyncEnabled() {
		t.Error("default should be enabled")
	}

	off := false
	Save(&Config{Sync: SyncSettings{Enabled: &off}})
	if GetSyncEnabled() {
		t.Error("config disable not honored")
	}

	t.Setenv("INVO_SYNC_AUTO", "true")
	if !GetSyncEnabled() {
		t.Error("env should override config")
	}
	t.Setenv("INVO_SYNC_AUTO", "0")
	if GetSyncEnabled() {
		t.Error("INVO_SYNC_AUTO=0 should disable")
	}
	t.Setenv("INVO_SYNC_AUTO", "garbage")
	if GetSyncEnabled() {
		t.Error("unparseable env should fall back to config")
	}
}

func TestIntervalSettings(t *testing.T) {
	setupHome(t)

	if got := GetSyncInterval(); got != 5*time.Minute {
		t.Errorf("sync default: got %v", got)
	}
	if got := GetProbeInterval(); got != 30*time.Second {
		t.Errorf("probe default: got %v", got)
	}

	Save(&Config{Sync: SyncSettings{Interval: "2m", ProbeInterval: "10s"}})
	if got := GetSyncInterval(); got != 2*time.Minute {
		t.Errorf("sync from config: got %v", got)
	}
	if got := GetProbeInterval(); got != 10*time.Second {
		t.Errorf("probe from config: got %v", got)
	}

	t.Setenv("INVO_SYNC_INTERVAL", "90s")
	if got := GetSyncInterval(); got != 90*time.Second {
		t.Errorf("sync from env: got %v", got)
	}

	t.Setenv("INVO_SYNC_INTERVAL", "not-a-duration")
	if got := GetSyncInterval(); got != 2*time.Minute {
		t.Errorf("bad env should fall back to config: got %v", got)
	}
}
