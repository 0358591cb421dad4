package upload

import (
	"context"
	"sync"
	"time"

	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/transfer"
	"github.com/datadoctor/uploader-go/types"
)

// Config holds the orchestrator's operating parameters.
type Config struct {
	ServiceURL   string
	LimitBytes   int64
	PollInterval time.Duration
}

// Orchestrator owns one upload session at a time and is its only mutator.
// Consumers observe it through Snapshot and the state-change callback.
type Orchestrator struct {
	mu   sync.Mutex
	cfg  Config
	sess session

	onChange   func(types.SessionSnapshot)
	onComplete func(types.UploadDescriptor)
}

// New creates an orchestrator with an idle session.
func New(cfg Config) *Orchestrator {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	o := &Orchestrator{cfg: cfg}
	o.sess.state = types.StateIdle
	return o
}

// OnStateChange registers the state subscription callback. It is invoked
// without the session lock held and must not block; set it before first use.
func (o *Orchestrator) OnStateChange(fn func(types.SessionSnapshot)) {
	o.onChange = fn
}

// OnComplete registers the completion callback, invoked once per session
// that reaches Completed. Set it before first use.
func (o *Orchestrator) OnComplete(fn func(types.UploadDescriptor)) {
	o.onComplete = fn
}

// Snapshot returns a read-only copy of the current session state.
func (o *Orchestrator) Snapshot() types.SessionSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sess.snapshot()
}

// Start begins a fresh upload of file. Any live previous job is cancelled
// first so at most one remote job exists per session. The returned error is
// already reflected in the session state; callers surface it, never retry it.
func (o *Orchestrator) Start(ctx context.Context, file types.FileRef) error {
	o.mu.Lock()
	if prev := o.sess.jobID; prev != "" &&
		(o.sess.state == types.StateTransferring || o.sess.state == types.StatePolling) {
		go o.remoteCancel(prev)
	}
	o.sess.releasePoll()
	o.sess.reset(file)
	o.sess.state = types.StateValidating

	if err := ValidateSize(file.Size, o.cfg.LimitBytes); err != nil {
		uerr := Classify(err)
		o.sess.fail(uerr)
		snap := o.sess.snapshot()
		o.mu.Unlock()
		o.emit(snap)
		return uerr
	}

	o.sess.state = types.StateTransferring
	gen := o.sess.gen
	snap := o.sess.snapshot()
	o.mu.Unlock()
	o.emit(snap)

	accepted, err := transfer.StartUpload(ctx, o.cfg.ServiceURL, file)
	return o.finishInitiation(gen, accepted, err)
}

// Replace swaps the session's file for a new one. When a previous job id
// exists (live or terminal, both are discarded) the service's replace
// endpoint is used so the remote slot is reused atomically; otherwise this
// is a plain Start.
func (o *Orchestrator) Replace(ctx context.Context, file types.FileRef) error {
	o.mu.Lock()
	prev := o.sess.jobID
	if prev == "" {
		o.mu.Unlock()
		return o.Start(ctx, file)
	}

	o.sess.releasePoll()
	o.sess.reset(file)
	o.sess.state = types.StateValidating

	if err := ValidateSize(file.Size, o.cfg.LimitBytes); err != nil {
		uerr := Classify(err)
		o.sess.fail(uerr)
		snap := o.sess.snapshot()
		o.mu.Unlock()
		// The new file never made it out, so the old remote job is still
		// there; discard it per the one-live-job rule.
		go o.remoteCancel(prev)
		o.emit(snap)
		return uerr
	}

	o.sess.state = types.StateTransferring
	gen := o.sess.gen
	snap := o.sess.snapshot()
	o.mu.Unlock()
	o.emit(snap)

	accepted, err := transfer.ReplaceUpload(ctx, o.cfg.ServiceURL, prev, file)
	return o.finishInitiation(gen, accepted, err)
}

// finishInitiation resolves a Start/Replace once the initiation request
// returns. A bumped gen means the attempt was superseded while the request
// was in flight; its result is discarded and an accepted job is cancelled
// remotely so it does not leak.
func (o *Orchestrator) finishInitiation(gen uint64, accepted *types.UploadAcceptedResponse, err error) error {
	o.mu.Lock()
	if o.sess.gen != gen {
		o.mu.Unlock()
		if err == nil && accepted != nil {
			tool.DefaultLogger.Debugf("Discarding superseded initiation result for upload %s", accepted.UploadID)
			go o.remoteCancel(accepted.UploadID)
		}
		return nil
	}

	if err != nil {
		uerr := Classify(err)
		o.sess.fail(uerr)
		snap := o.sess.snapshot()
		o.mu.Unlock()
		o.emit(snap)
		return uerr
	}

	o.sess.jobID = accepted.UploadID
	o.sess.acceptedAt = time.Now()
	o.sess.state = types.StatePolling
	o.armPoll(accepted.UploadID)
	snap := o.sess.snapshot()
	o.mu.Unlock()
	o.emit(snap)
	return nil
}

// Cancel stops the current upload. Local cancellation is authoritative: the
// poll timer is cleared and the state set synchronously, then the remote
// cancel goes out best-effort. No-op unless a transfer or poll is active.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	switch o.sess.state {
	case types.StateTransferring, types.StatePolling:
	default:
		o.mu.Unlock()
		return
	}

	job := o.sess.jobID
	o.sess.releasePoll()
	o.sess.gen++
	o.sess.jobID = ""
	o.sess.state = types.StateCancelled
	o.sess.lastErr = nil
	snap := o.sess.snapshot()
	o.mu.Unlock()

	if job != "" {
		go o.remoteCancel(job)
	}
	o.emit(snap)
}

// Reset discards the session entirely (e.g. the owning workflow went away)
// and returns to Idle. Any live remote job is cancelled best-effort.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	job := ""
	if o.sess.state == types.StateTransferring || o.sess.state == types.StatePolling {
		job = o.sess.jobID
	}
	o.sess.releasePoll()
	o.sess.reset(types.FileRef{})
	snap := o.sess.snapshot()
	o.mu.Unlock()

	if job != "" {
		go o.remoteCancel(job)
	}
	o.emit(snap)
}

// remoteCancel is fire-and-forget; a failure never reverts local state.
func (o *Orchestrator) remoteCancel(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), tool.DefaultTimeout)
	defer cancel()
	if err := transfer.CancelUpload(ctx, o.cfg.ServiceURL, jobID); err != nil {
		tool.DefaultLogger.Warnf("Remote cancel for upload %s failed: %v", jobID, err)
	}
}

func (o *Orchestrator) emit(snap types.SessionSnapshot) {
	if o.onChange != nil {
		o.onChange(snap)
	}
}

func (o *Orchestrator) complete(desc types.UploadDescriptor) {
	if o.onComplete != nil {
		o.onComplete(desc)
	}
}
