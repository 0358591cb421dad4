package tool

import (
	"flag"

	"github.com/datadoctor/uploader-go/types"
)

// SetFlags parses CLI flags and returns the override config.
func SetFlags() types.Config {
	var cfg types.Config
	flag.StringVar(&cfg.Log, "log", "", "log mode: dev|prod")
	flag.StringVar(&cfg.UseConfigPath, "useConfigPath", "", "override config file path")
	flag.StringVar(&cfg.UseServiceURL, "useServiceURL", "", "override upload service base URL")
	flag.IntVar(&cfg.UseListenPort, "useListenPort", 0, "override local control API port")
	flag.Int64Var(&cfg.UseMaxUploadBytes, "useMaxUploadBytes", 0, "override max upload size in bytes")
	flag.IntVar(&cfg.UsePollIntervalMs, "usePollIntervalMs", 0, "override status poll interval in milliseconds")
	flag.BoolVar(&cfg.SkipNotify, "skipNotify", false, "if true, do not send Unix socket notifications")
	flag.BoolVar(&cfg.SkipProbe, "skipProbe", false, "if true, skip the startup service reachability probe")
	flag.Parse()
	return cfg
}
