// Package config persists global settings under ~/.config/invo and layers
// environment overrides on top. Credentials live in a separate 0600 file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SyncSettings holds sync tuning knobs.
type SyncSettings struct {
	Enabled       *bool  `json:"enabled,omitempty"`        // nil = default true
	Interval      string `json:"interval,omitempty"`       // duration string, default "5m"
	ProbeInterval string `json:"probe_interval,omitempty"` // duration string, default "30s"
}

// Config is the global config stored at ~/.config/invo/config.json.
type Config struct {
	ServerURL string       `json:"server_url"`
	CompanyID string       `json:"company_id"`
	Sync      SyncSettings `json:"sync"`
}

// AuthCredentials stores API credentials at ~/.config/invo/auth.json.
type AuthCredentials struct {
	APIKey   string `json:"api_key"`
	DeviceID string `json:"device_id"`
}

const defaultServerURL = "http://localhost:8080"

// ConfigDir returns ~/.config/invo, creating it if necessary.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "invo")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the global config, returning an empty config if none exists.
func Load() (*Config, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the global config.
func Save(cfg *Config) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// LoadAuth reads credentials, returning nil if none are stored.
func LoadAuth() (*AuthCredentials, error) {
	dir, err := ConfigDir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "auth.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var creds AuthCredentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// SaveAuth writes credentials with owner-only permissions.
func SaveAuth(creds *AuthCredentials) error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "auth.json"), data, 0600)
}

// GetServerURL returns the backend URL.
// Priority: INVO_SERVER_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("INVO_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// GetCompanyID returns the active tenant.
// Priority: INVO_COMPANY_ID env > config.json.
func GetCompanyID() string {
	if v := os.Getenv("INVO_COMPANY_ID"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil {
		return cfg.CompanyID
	}
	return ""
}

// GetAPIKey returns the API key.
// Priority: INVO_API_KEY env > auth.json.
func GetAPIKey() string {
	if v := os.Getenv("INVO_API_KEY"); v != "" {
		return v
	}
	creds, err := LoadAuth()
	if err == nil && creds != nil {
		return creds.APIKey
	}
	return ""
}

// GetDeviceID returns the device id from auth.json, generating and storing
// one if needed.
func GetDeviceID() (string, error) {
	creds, err := LoadAuth()
	if err != nil {
		return "", err
	}
	if creds != nil && creds.DeviceID != "" {
		return creds.DeviceID, nil
	}

	id, err := GenerateDeviceID()
	if err != nil {
		return "", err
	}
	if creds == nil {
		creds = &AuthCredentials{}
	}
	creds.DeviceID = id
	if err := SaveAuth(creds); err != nil {
		return "", err
	}
	return id, nil
}

// GenerateDeviceID creates a new random device id (16 bytes hex).
func GenerateDeviceID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := strings.ToLower(os.Getenv(envKey))
	if v == "" {
		return nil
	}
	if v == "1" || v == "true" {
		b := true
		return &b
	}
	if v == "0" || v == "false" {
		b := false
		return &b
	}
	return nil
}

// GetSyncEnabled returns whether background sync is enabled.
// Priority: INVO_SYNC_AUTO env > config.json sync.enabled > true.
func GetSyncEnabled() bool {
	if v := parseBoolEnv("INVO_SYNC_AUTO"); v != nil {
		return *v
	}
	cfg, err := Load()
	if err == nil && cfg.Sync.Enabled != nil {
		return *cfg.Sync.Enabled
	}
	return true
}

// GetSyncInterval returns the periodic sync interval.
// Priority: INVO_SYNC_INTERVAL env > config.json sync.interval > 5m.
func GetSyncInterval() time.Duration {
	return durationSetting("INVO_SYNC_INTERVAL", func(c *Config) string { return c.Sync.Interval }, 5*time.Minute)
}

// GetProbeInterval returns the connectivity probe interval.
// Priority: INVO_PROBE_INTERVAL env > config.json sync.probe_interval > 30s.
func GetProbeInterval() time.Duration {
	return durationSetting("INVO_PROBE_INTERVAL", func(c *Config) string { return c.Sync.ProbeInterval }, 30*time.Second)
}

func durationSetting(envKey string, field func(*Config) string, fallback time.Duration) time.Duration {
	if v := os.Getenv(envKey); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := Load()
	if err == nil && field(cfg) != "" {
		if d, err := time.ParseDuration(field(cfg)); err == nil {
			return d
		}
	}
	return fallback
}
