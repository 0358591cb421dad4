package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	ServiceURL        string `yaml:"serviceUrl"`        // base URL of the upload-processing service
	MaxUploadBytes    int64  `yaml:"maxUploadBytes"`    // local size ceiling checked before any network activity
	PollIntervalMs    int    `yaml:"pollIntervalMs"`    // status poll cadence
	ListenPort        int    `yaml:"listenPort"`        // local control API port (localhost only)
	NotifySocket      string `yaml:"notifySocket"`      // Unix socket path for the notification sink
	HistoryTTLSeconds int    `yaml:"historyTTLSeconds"` // how long finished uploads stay listed
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log               string
	UseConfigPath     string
	UseServiceURL     string
	UseListenPort     int
	UseMaxUploadBytes int64
	UsePollIntervalMs int
	SkipNotify        bool // if true, skip the Unix socket notification sink.
	SkipProbe         bool // if true, skip the startup service reachability probe.
}
