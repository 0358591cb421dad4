package tool

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/datadoctor/uploader-go/types"
)

var (
	ConfigPath    = "config.yaml" // be aware that it can be changed, default to ./config.yaml
	CurrentConfig types.AppConfig
)

func defaultConfig() types.AppConfig {
	return types.AppConfig{
		ServiceURL:        "http://127.0.0.1:8000",
		MaxUploadBytes:    1024 * 1024 * 1024, // 1GB ceiling, checked before any network activity
		PollIntervalMs:    1000,
		ListenPort:        8765,
		NotifySocket:      "/tmp/datadoctor-notify.sock",
		HistoryTTLSeconds: 3600,
	}
}

func LoadConfig(path string) (types.AppConfig, error) {
	if path == "" {
		path = ConfigPath
	}
	ConfigPath = path

	cfg := defaultConfig()

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file doesn't exist, create with default values
			if writeErr := writeConfig(path, cfg); writeErr != nil {
				return cfg, fmt.Errorf("config file not found, and failed to generate default config: %v", writeErr)
			}
			DefaultLogger.Infof("Created new config file at %s", path)
			CurrentConfig = cfg
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if info.IsDir() {
		return cfg, fmt.Errorf("config file path is a directory: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %v", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %v", err)
	}

	if err := normalizeConfig(&cfg); err != nil {
		return cfg, err
	}

	CurrentConfig = cfg
	return cfg, nil
}

// normalizeConfig fills zero values with defaults and rejects nonsense.
func normalizeConfig(cfg *types.AppConfig) error {
	def := defaultConfig()
	if cfg.ServiceURL == "" {
		cfg.ServiceURL = def.ServiceURL
	}
	cfg.ServiceURL = strings.TrimRight(cfg.ServiceURL, "/")
	if !strings.HasPrefix(cfg.ServiceURL, "http://") && !strings.HasPrefix(cfg.ServiceURL, "https://") {
		return fmt.Errorf("serviceUrl must start with http:// or https://, got %q", cfg.ServiceURL)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = def.MaxUploadBytes
	}
	if cfg.PollIntervalMs <= 0 {
		cfg.PollIntervalMs = def.PollIntervalMs
	}
	if cfg.ListenPort <= 0 || cfg.ListenPort > 65535 {
		cfg.ListenPort = def.ListenPort
	}
	if cfg.NotifySocket == "" {
		cfg.NotifySocket = def.NotifySocket
	}
	if cfg.HistoryTTLSeconds <= 0 {
		cfg.HistoryTTLSeconds = def.HistoryTTLSeconds
	}
	return nil
}

func writeConfig(path string, cfg types.AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func GetCurrentConfig() *types.AppConfig {
	return &CurrentConfig
}
