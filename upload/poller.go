package upload

import (
	"context"
	"time"

	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/transfer"
	"github.com/datadoctor/uploader-go/types"
)

// armPoll starts the poll loop for jobID. Caller holds the lock and has
// already released any previous poll handle.
func (o *Orchestrator) armPoll(jobID string) {
	ctx, cancel := context.WithCancel(context.Background())
	o.sess.pollCancel = cancel
	go o.pollLoop(ctx, jobID)
}

// pollLoop queries the remote job on a fixed cadence until a terminal state
// is reached or the handle is released. Exactly one status request is
// outstanding at a time: the next tick is armed only after the previous
// response was processed.
func (o *Orchestrator) pollLoop(ctx context.Context, jobID string) {
	timer := time.NewTimer(o.cfg.PollInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		status, err := transfer.FetchStatus(ctx, o.cfg.ServiceURL, jobID)
		if ctx.Err() != nil {
			// Superseded while the request was in flight; drop the result.
			return
		}
		if !o.applyPoll(jobID, status, err) {
			return
		}
		timer.Reset(o.cfg.PollInterval)
	}
}

// applyPoll folds one poll result into the session. Returns false when the
// loop must stop (terminal state, failure, or staleness). A result whose
// jobID no longer matches the session's current job is discarded so a
// response from a cancelled or replaced job cannot corrupt the new one.
func (o *Orchestrator) applyPoll(jobID string, status *types.UploadStatusResponse, err error) bool {
	o.mu.Lock()
	if jobID != o.sess.jobID || o.sess.state != types.StatePolling {
		o.mu.Unlock()
		tool.DefaultLogger.Debugf("Discarding stale poll result for upload %s", jobID)
		return false
	}

	if err != nil {
		// Fail fast: one failed status check ends the loop. The user retries
		// explicitly instead of this looping against a possibly-down service.
		o.sess.fail(statusCheckError(err))
		snap := o.sess.snapshot()
		o.mu.Unlock()
		o.emit(snap)
		return false
	}

	switch status.Status {
	case types.RemoteStatusUploaded:
		o.sess.releasePoll()
		o.sess.state = types.StateCompleted
		o.sess.progress = 100
		o.sess.lastErr = nil
		desc := types.UploadDescriptor{
			JobID:      o.sess.jobID,
			Filename:   o.sess.file.Name,
			SizeBytes:  o.sess.file.Size,
			AcceptedAt: o.sess.acceptedAt,
			FinishedAt: time.Now(),
			Outcome:    types.StateCompleted,
		}
		if status.Filename != "" {
			desc.Filename = status.Filename
		}
		snap := o.sess.snapshot()
		o.mu.Unlock()
		o.emit(snap)
		o.complete(desc)
		return false

	case types.RemoteStatusError:
		o.sess.fail(remoteProcessingError(status.Error))
		snap := o.sess.snapshot()
		o.mu.Unlock()
		o.emit(snap)
		return false

	case types.RemoteStatusCancelled:
		// Cancelled out from under us on the service side.
		o.sess.releasePoll()
		o.sess.state = types.StateCancelled
		o.sess.lastErr = nil
		snap := o.sess.snapshot()
		o.mu.Unlock()
		o.emit(snap)
		return false

	default: // uploading / pending
		// Progress is monotonically non-decreasing while polling.
		if p := status.Progress; p > o.sess.progress {
			if p > 100 {
				p = 100
			}
			o.sess.progress = p
		}
		snap := o.sess.snapshot()
		o.mu.Unlock()
		o.emit(snap)
		return true
	}
}
