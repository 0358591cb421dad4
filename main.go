package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/datadoctor/uploader-go/api"
	"github.com/datadoctor/uploader-go/api/notifyhub"
	"github.com/datadoctor/uploader-go/notify"
	"github.com/datadoctor/uploader-go/share"
	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/types"
	"github.com/datadoctor/uploader-go/upload"
)

func main() {
	cfg := tool.SetFlags()
	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}

	// CLI flags override the config file
	if cfg.UseServiceURL != "" {
		appCfg.ServiceURL = cfg.UseServiceURL
	}
	if cfg.UseListenPort > 0 {
		appCfg.ListenPort = cfg.UseListenPort
	}
	if cfg.UseMaxUploadBytes > 0 {
		appCfg.MaxUploadBytes = cfg.UseMaxUploadBytes
	}
	if cfg.UsePollIntervalMs > 0 {
		appCfg.PollIntervalMs = cfg.UsePollIntervalMs
	}
	tool.CurrentConfig = appCfg

	// initialize logger
	tool.InitLogger()
	if cfg.Log == "dev" {
		tool.DefaultLogger.SetLevel(log.DebugLevel)
	} else {
		tool.DefaultLogger.SetLevel(log.InfoLevel)
	}

	if cfg.SkipNotify {
		notify.SetUseNotify(false)
	}
	notify.SetSocketPath(appCfg.NotifySocket)
	share.Init(time.Duration(appCfg.HistoryTTLSeconds) * time.Second)

	hub := notifyhub.New()
	orch := upload.New(upload.Config{
		ServiceURL:   appCfg.ServiceURL,
		LimitBytes:   appCfg.MaxUploadBytes,
		PollInterval: time.Duration(appCfg.PollIntervalMs) * time.Millisecond,
	})

	orch.OnStateChange(func(snap types.SessionSnapshot) {
		hub.Publish(types.NotifyTypeStateChange, snap)
		switch snap.State {
		case types.StateTransferring:
			go sendEvent(types.NotifyTypeUploadStart, snap.JobID, map[string]any{
				"fileName": snap.FileName,
				"size":     snap.FileSize,
			})
		case types.StateFailed:
			recordOutcome(snap)
			data := map[string]any{"fileName": snap.FileName}
			if snap.LastError != nil {
				data["kind"] = string(snap.LastError.Kind)
				data["message"] = snap.LastError.Message
			}
			go sendEvent(types.NotifyTypeUploadFailed, snap.JobID, data)
		case types.StateCancelled:
			recordOutcome(snap)
			go sendEvent(types.NotifyTypeUploadCancelled, snap.JobID, nil)
		}
	})
	orch.OnComplete(func(desc types.UploadDescriptor) {
		share.RecordUpload(desc)
		go sendEvent(types.NotifyTypeUploadComplete, desc.JobID, map[string]any{
			"fileName": desc.Filename,
			"size":     desc.SizeBytes,
		})
	})

	if !cfg.SkipProbe {
		go func() {
			if tool.ServiceReachable(appCfg.ServiceURL) {
				tool.DefaultLogger.Infof("Upload service reachable at %s", appCfg.ServiceURL)
			} else {
				tool.DefaultLogger.Warnf("Upload service not reachable at %s, uploads will fail until it is up", appCfg.ServiceURL)
			}
		}()
	}

	srv := api.NewServer(appCfg.ListenPort, orch, hub)

	// On shutdown, discard any in-flight upload so no remote job is orphaned.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		tool.DefaultLogger.Infof("Shutting down")
		orch.Cancel()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			tool.DefaultLogger.Errorf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		tool.DefaultLogger.Fatalf("%v", err)
	}
}

// sendEvent pushes a lifecycle notification; failures are logged only.
func sendEvent(eventType, jobID string, data map[string]any) {
	if err := notify.SendUploadEvent(eventType, jobID, data); err != nil {
		tool.DefaultLogger.Debugf("[Notify] Failed to send %s notification: %v", eventType, err)
	}
}

// recordOutcome stores failed/cancelled sessions in the recent-upload list.
// Completed sessions arrive through the completion callback instead.
func recordOutcome(snap types.SessionSnapshot) {
	jobID := snap.JobID
	if jobID == "" {
		// failed before the service assigned an id
		jobID = "local-" + uuid.NewString()
	}
	share.RecordUpload(types.UploadDescriptor{
		JobID:      jobID,
		Filename:   snap.FileName,
		SizeBytes:  snap.FileSize,
		FinishedAt: time.Now(),
		Outcome:    snap.State,
		Error:      snap.LastError,
	})
}
