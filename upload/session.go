package upload

import (
	"context"
	"time"

	"github.com/datadoctor/uploader-go/types"
)

// session is the in-memory record tracking one logical upload. It is only
// ever touched while holding the orchestrator lock; everything handed to
// the outside world is a copy.
type session struct {
	// gen increments every time the current attempt is superseded (cancel,
	// replace, new start). In-flight work captures the gen it was started
	// under and discards its result when the session has moved on.
	gen uint64

	jobID      string
	state      types.SessionState
	progress   float64
	file       types.FileRef
	lastErr    *types.UploadError
	acceptedAt time.Time

	// pollCancel releases the poll handle. At most one exists at a time;
	// arming a new poll always releases the previous one first.
	pollCancel context.CancelFunc
}

func (s *session) snapshot() types.SessionSnapshot {
	return types.SessionSnapshot{
		JobID:     s.jobID,
		State:     s.state,
		Progress:  s.progress,
		FileName:  s.file.Name,
		FileSize:  s.file.Size,
		LastError: s.lastErr,
	}
}

// reset returns the session to a blank slate for a new attempt. The poll
// handle must already be released by the caller.
func (s *session) reset(file types.FileRef) {
	s.gen++
	s.jobID = ""
	s.state = types.StateIdle
	s.progress = 0
	s.file = file
	s.lastErr = nil
	s.acceptedAt = time.Time{}
}

// releasePoll stops the poll timer synchronously. Safe to call when no
// poll is armed.
func (s *session) releasePoll() {
	if s.pollCancel != nil {
		s.pollCancel()
		s.pollCancel = nil
	}
}

func (s *session) fail(uerr *types.UploadError) {
	s.releasePoll()
	s.state = types.StateFailed
	s.lastErr = uerr
}
