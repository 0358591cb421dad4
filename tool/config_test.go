package tool

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServiceURL != "http://127.0.0.1:8000" {
		t.Errorf("unexpected default serviceUrl: %q", cfg.ServiceURL)
	}
	if cfg.MaxUploadBytes != 1024*1024*1024 {
		t.Errorf("unexpected default maxUploadBytes: %d", cfg.MaxUploadBytes)
	}
	if cfg.PollIntervalMs != 1000 {
		t.Errorf("unexpected default pollIntervalMs: %d", cfg.PollIntervalMs)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
}

func TestLoadConfigParsesAndNormalizes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "serviceUrl: http://10.0.0.5:9000/\nmaxUploadBytes: 1048576\npollIntervalMs: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ServiceURL != "http://10.0.0.5:9000" {
		t.Errorf("trailing slash not trimmed: %q", cfg.ServiceURL)
	}
	if cfg.MaxUploadBytes != 1048576 {
		t.Errorf("maxUploadBytes not applied: %d", cfg.MaxUploadBytes)
	}
	if cfg.PollIntervalMs != 1000 {
		t.Errorf("zero pollIntervalMs must fall back to default, got %d", cfg.PollIntervalMs)
	}
}

func TestLoadConfigRejectsBadServiceURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("serviceUrl: ftp://nope\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("expected error for non-http serviceUrl")
	}
}
