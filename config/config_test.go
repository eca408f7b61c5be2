package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-site"
tunnel:
  enabled: true
  gateway: "192.168.1.10:3671"
api:
  host: "0.0.0.0"
  port: 8080
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-site" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-site")
	}
	if cfg.Tunnel.Gateway != "192.168.1.10:3671" {
		t.Errorf("Tunnel.Gateway = %q, want %q", cfg.Tunnel.Gateway, "192.168.1.10:3671")
	}
	// Defaults not present in the YAML should still be applied.
	if cfg.Routing.MulticastAddr != "224.0.23.12" {
		t.Errorf("Routing.MulticastAddr = %q, want default %q", cfg.Routing.MulticastAddr, "224.0.23.12")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestValidate_RejectsBothTransportsEnabled(t *testing.T) {
	content := `
site:
  id: "test-site"
tunnel:
  enabled: true
  gateway: "192.168.1.10:3671"
routing:
  enabled: true
security:
  jwt:
    secret: "test-secret-key-at-least-32-chars!"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error when both tunnel and routing are enabled, got nil")
	}
}

func TestValidate_RejectsShortJWTSecret(t *testing.T) {
	content := `
site:
  id: "test-site"
security:
  jwt:
    secret: "too-short"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for short JWT secret, got nil")
	}
}
