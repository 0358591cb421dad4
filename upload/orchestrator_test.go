package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/datadoctor/uploader-go/types"
)

// statusReply is one scripted answer for GET /upload/{id}/status.
type statusReply struct {
	code     int // defaults to 200
	status   string
	progress float64
	errMsg   string
}

// fakeService is a scripted stand-in for the upload-processing service.
type fakeService struct {
	t   *testing.T
	srv *httptest.Server

	mu          sync.Mutex
	uploads     int
	replaces    int
	cancels     int
	statusCalls int
	nextJob     int
	statuses    map[string][]statusReply
	statusGate  map[string]chan struct{} // blocks status responses for a job
}

func newFakeService(t *testing.T) *fakeService {
	f := &fakeService{
		t:          t,
		statuses:   make(map[string][]statusReply),
		statusGate: make(map[string]chan struct{}),
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeService) handle(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case r.Method == "POST" && r.URL.Path == "/upload":
		f.mu.Lock()
		f.uploads++
		f.nextJob++
		id := fmt.Sprintf("job-%d", f.nextJob)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"upload_id": id, "filename": "x", "file_size": 1, "status": "uploading",
		})

	case r.Method == "POST" && len(parts) == 3 && parts[2] == "replace":
		f.mu.Lock()
		f.replaces++
		f.nextJob++
		id := fmt.Sprintf("job-%d", f.nextJob)
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{
			"upload_id": id, "filename": "x", "file_size": 1, "status": "uploading",
		})

	case r.Method == "GET" && len(parts) == 3 && parts[2] == "status":
		job := parts[1]
		f.mu.Lock()
		f.statusCalls++
		gate := f.statusGate[job]
		var reply statusReply
		if q := f.statuses[job]; len(q) > 0 {
			reply = q[0]
			f.statuses[job] = q[1:]
		} else {
			reply = statusReply{status: "pending"}
		}
		f.mu.Unlock()
		if gate != nil {
			<-gate
		}
		if reply.code != 0 && reply.code != http.StatusOK {
			writeJSON(w, reply.code, map[string]any{"detail": "status unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"upload_id": job, "status": reply.status, "progress": reply.progress, "error": reply.errMsg,
		})

	case r.Method == "DELETE" && len(parts) == 2:
		f.mu.Lock()
		f.cancels++
		f.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"message": "cancelled", "upload_id": parts[1]})

	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "not found"})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeService) addStatuses(job string, replies ...statusReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[job] = append(f.statuses[job], replies...)
}

func (f *fakeService) counts() (uploads, replaces, cancels, statusCalls int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads, f.replaces, f.cancels, f.statusCalls
}

const testLimit = 1024 * 1024 * 1024 // 1GB

func newTestOrchestrator(f *fakeService) *Orchestrator {
	return New(Config{
		ServiceURL:   f.srv.URL,
		LimitBytes:   testLimit,
		PollInterval: 5 * time.Millisecond,
	})
}

// testFile stages a tiny real file but reports the given logical size, so
// oversize scenarios do not need multi-gigabyte fixtures.
func testFile(t *testing.T, name string, size int64) types.FileRef {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("col_a,col_b\n1,2\n"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}
	return types.FileRef{Name: name, Size: size, Path: path}
}

func waitFor(t *testing.T, o *Orchestrator, what string, cond func(types.SessionSnapshot) bool) types.SessionSnapshot {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		snap := o.Snapshot()
		if cond(snap) {
			return snap
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s, last snapshot: %+v", what, o.Snapshot())
	return types.SessionSnapshot{}
}

func TestUploadCompletes(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	var mu sync.Mutex
	var completed []types.UploadDescriptor
	o.OnComplete(func(d types.UploadDescriptor) {
		mu.Lock()
		completed = append(completed, d)
		mu.Unlock()
	})

	f.addStatuses("job-1",
		statusReply{status: "pending", progress: 10},
		statusReply{status: "pending", progress: 55},
		statusReply{status: "uploaded", progress: 100},
	)

	file := testFile(t, "data.csv", 50*1024*1024)
	if err := o.Start(context.Background(), file); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snap := waitFor(t, o, "completion", func(s types.SessionSnapshot) bool {
		return s.State == types.StateCompleted
	})
	if snap.JobID != "job-1" {
		t.Errorf("expected jobId job-1, got %q", snap.JobID)
	}
	if snap.Progress != 100 {
		t.Errorf("expected progress 100, got %v", snap.Progress)
	}
	if snap.LastError != nil {
		t.Errorf("completed session must have no error, got %+v", snap.LastError)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(completed) != 1 {
		t.Fatalf("expected exactly one completion callback, got %d", len(completed))
	}
	desc := completed[0]
	if desc.JobID != "job-1" || desc.Filename != "data.csv" || desc.SizeBytes != 50*1024*1024 {
		t.Errorf("unexpected descriptor: %+v", desc)
	}
	if desc.AcceptedAt.IsZero() {
		t.Errorf("descriptor missing acceptedAt")
	}
}

func TestValidatorRejectsOversizedFileWithoutNetwork(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	file := testFile(t, "huge.csv", 2*1024*1024*1024)
	err := o.Start(context.Background(), file)
	if err == nil {
		t.Fatal("expected oversize rejection")
	}

	uerr, ok := err.(*types.UploadError)
	if !ok {
		t.Fatalf("expected *types.UploadError, got %T", err)
	}
	if uerr.Kind != types.ErrFileTooLarge {
		t.Errorf("expected kind %s, got %s", types.ErrFileTooLarge, uerr.Kind)
	}
	if uerr.SizeBytes != 2*1024*1024*1024 || uerr.LimitBytes != testLimit {
		t.Errorf("rejection must carry both sizes, got %+v", uerr)
	}

	snap := o.Snapshot()
	if snap.State != types.StateFailed {
		t.Errorf("expected Failed, got %s", snap.State)
	}
	if snap.JobID != "" {
		t.Errorf("no jobId may be created on local rejection, got %q", snap.JobID)
	}

	// Give any stray request time to show up
	time.Sleep(50 * time.Millisecond)
	if uploads, replaces, cancels, statusCalls := fourCounts(f); uploads+replaces+cancels+statusCalls != 0 {
		t.Errorf("no network call may be issued, got uploads=%d replaces=%d cancels=%d status=%d",
			uploads, replaces, cancels, statusCalls)
	}
}

func fourCounts(f *fakeService) (int, int, int, int) {
	return f.counts()
}

func TestRemoteProcessingError(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	f.addStatuses("job-1", statusReply{status: "error", errMsg: "corrupt file"})

	if err := o.Start(context.Background(), testFile(t, "bad.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snap := waitFor(t, o, "failure", func(s types.SessionSnapshot) bool {
		return s.State == types.StateFailed
	})
	if snap.LastError == nil {
		t.Fatal("failed session must carry an error")
	}
	if snap.LastError.Kind != types.ErrRemoteProcessing {
		t.Errorf("expected kind %s, got %s", types.ErrRemoteProcessing, snap.LastError.Kind)
	}
	if snap.LastError.Message != "corrupt file" {
		t.Errorf("expected remote-provided message, got %q", snap.LastError.Message)
	}
}

func TestStatusCheckFailureEndsPolling(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	f.addStatuses("job-1", statusReply{code: http.StatusInternalServerError})

	if err := o.Start(context.Background(), testFile(t, "a.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	snap := waitFor(t, o, "failure", func(s types.SessionSnapshot) bool {
		return s.State == types.StateFailed
	})
	if snap.LastError == nil || snap.LastError.Kind != types.ErrStatusCheckFailed {
		t.Fatalf("expected StatusCheckFailed, got %+v", snap.LastError)
	}

	// fail-fast: no silent retries after the failed check
	_, _, _, before := f.counts()
	time.Sleep(100 * time.Millisecond)
	_, _, _, after := f.counts()
	if after != before {
		t.Errorf("polling must stop after a failed status check, calls went %d -> %d", before, after)
	}
	if before != 1 {
		t.Errorf("expected exactly one status call, got %d", before)
	}
}

func TestCancelMidPoll(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	f.addStatuses("job-1",
		statusReply{status: "uploading", progress: 20},
		statusReply{status: "uploading", progress: 30},
		statusReply{status: "uploading", progress: 40},
		statusReply{status: "uploading", progress: 50},
	)

	if err := o.Start(context.Background(), testFile(t, "a.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, o, "polling", func(s types.SessionSnapshot) bool {
		return s.State == types.StatePolling
	})

	o.Cancel()

	snap := o.Snapshot()
	if snap.State != types.StateCancelled {
		t.Fatalf("cancel must take effect synchronously, got %s", snap.State)
	}
	if snap.JobID != "" {
		t.Errorf("cancelled session must clear jobId, got %q", snap.JobID)
	}

	// remote cancel goes out best-effort in the background
	waitFor(t, o, "remote cancel", func(types.SessionSnapshot) bool {
		_, _, cancels, _ := f.counts()
		return cancels == 1
	})

	// no poll tied to the old job may mutate state afterwards
	_, _, _, before := f.counts()
	time.Sleep(100 * time.Millisecond)
	_, _, _, after := f.counts()
	if after != before {
		t.Errorf("poll timer must be cleared on cancel, calls went %d -> %d", before, after)
	}
	if got := o.Snapshot(); got.State != types.StateCancelled {
		t.Errorf("state mutated after cancel: %+v", got)
	}
}

func TestCancelIdempotent(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	if err := o.Start(context.Background(), testFile(t, "a.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, o, "polling", func(s types.SessionSnapshot) bool {
		return s.State == types.StatePolling
	})

	o.Cancel()
	first := o.Snapshot()
	o.Cancel()
	second := o.Snapshot()

	if first != second {
		t.Errorf("double cancel must be a no-op: %+v vs %+v", first, second)
	}

	waitFor(t, o, "remote cancel", func(types.SessionSnapshot) bool {
		_, _, cancels, _ := f.counts()
		return cancels >= 1
	})
	time.Sleep(50 * time.Millisecond)
	if _, _, cancels, _ := f.counts(); cancels != 1 {
		t.Errorf("second cancel must not hit the service again, got %d cancels", cancels)
	}
}

func TestCancelNoopWhenIdle(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	o.Cancel()
	if snap := o.Snapshot(); snap.State != types.StateIdle {
		t.Errorf("cancel on idle session must be a no-op, got %s", snap.State)
	}
}

func TestStaleResponseFromCancelledJobDiscarded(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	// job-1's status response hangs until we release it, simulating a reply
	// that lands after the job was superseded.
	gate := make(chan struct{})
	f.mu.Lock()
	f.statusGate["job-1"] = gate
	f.statuses["job-1"] = []statusReply{{status: "uploading", progress: 99}}
	f.mu.Unlock()

	if err := o.Start(context.Background(), testFile(t, "first.csv", 100)); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	first := waitFor(t, o, "first polling", func(s types.SessionSnapshot) bool {
		return s.State == types.StatePolling
	})
	if first.JobID != "job-1" {
		t.Fatalf("expected job-1, got %q", first.JobID)
	}

	o.Cancel()

	f.addStatuses("job-2", statusReply{status: "uploading", progress: 40})
	if err := o.Start(context.Background(), testFile(t, "second.csv", 100)); err != nil {
		t.Fatalf("second Start failed: %v", err)
	}

	snap := waitFor(t, o, "second job progress", func(s types.SessionSnapshot) bool {
		return s.JobID == "job-2" && s.Progress == 40
	})
	if snap.JobID == first.JobID {
		t.Fatalf("second start must get a distinct jobId")
	}

	// Release the stale job-1 reply and verify it cannot corrupt job-2.
	close(gate)
	time.Sleep(50 * time.Millisecond)

	got := o.Snapshot()
	if got.JobID != "job-2" {
		t.Errorf("stale reply overwrote the session job: %+v", got)
	}
	if got.Progress == 99 {
		t.Errorf("stale progress from cancelled job applied: %+v", got)
	}
}

func TestProgressMonotonicWhilePolling(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	var mu sync.Mutex
	var seen []float64
	o.OnStateChange(func(s types.SessionSnapshot) {
		if s.State == types.StatePolling || s.State == types.StateCompleted {
			mu.Lock()
			seen = append(seen, s.Progress)
			mu.Unlock()
		}
	})

	// The service reports a regression; the session must not.
	f.addStatuses("job-1",
		statusReply{status: "uploading", progress: 30},
		statusReply{status: "uploading", progress: 10},
		statusReply{status: "uploading", progress: 60},
		statusReply{status: "uploaded", progress: 100},
	)

	if err := o.Start(context.Background(), testFile(t, "a.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, o, "completion", func(s types.SessionSnapshot) bool {
		return s.State == types.StateCompleted
	})

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(seen); i++ {
		if seen[i] < seen[i-1] {
			t.Fatalf("progress regressed: %v", seen)
		}
	}
	if len(seen) == 0 || seen[len(seen)-1] != 100 {
		t.Errorf("expected final progress 100, got %v", seen)
	}
}

func TestReplaceUsesReplaceEndpoint(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	if err := o.Start(context.Background(), testFile(t, "old.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, o, "polling", func(s types.SessionSnapshot) bool {
		return s.State == types.StatePolling
	})

	f.addStatuses("job-2", statusReply{status: "uploaded", progress: 100})
	if err := o.Replace(context.Background(), testFile(t, "new.csv", 200)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	snap := waitFor(t, o, "replacement completion", func(s types.SessionSnapshot) bool {
		return s.State == types.StateCompleted
	})
	if snap.JobID != "job-2" {
		t.Errorf("expected job-2 after replace, got %q", snap.JobID)
	}
	if _, replaces, _, _ := f.counts(); replaces != 1 {
		t.Errorf("expected one replace call, got %d", replaces)
	}
}

func TestReplaceAfterCompletedDiscardsOldJob(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	f.addStatuses("job-1", statusReply{status: "uploaded", progress: 100})
	if err := o.Start(context.Background(), testFile(t, "old.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, o, "completion", func(s types.SessionSnapshot) bool {
		return s.State == types.StateCompleted
	})

	f.addStatuses("job-2", statusReply{status: "uploading", progress: 5})
	if err := o.Replace(context.Background(), testFile(t, "new.csv", 200)); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	snap := waitFor(t, o, "new job polling", func(s types.SessionSnapshot) bool {
		return s.JobID == "job-2"
	})
	if snap.State != types.StatePolling {
		t.Errorf("expected Polling for the new job, got %s", snap.State)
	}
	if _, replaces, _, _ := f.counts(); replaces != 1 {
		t.Errorf("expected the replace endpoint to be used, got %d calls", replaces)
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	if err := o.Start(context.Background(), testFile(t, "a.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, o, "polling", func(s types.SessionSnapshot) bool {
		return s.State == types.StatePolling
	})

	o.Reset()

	snap := o.Snapshot()
	if snap.State != types.StateIdle || snap.JobID != "" || snap.Progress != 0 {
		t.Errorf("expected blank idle session after reset, got %+v", snap)
	}

	waitFor(t, o, "remote cancel", func(types.SessionSnapshot) bool {
		_, _, cancels, _ := f.counts()
		return cancels == 1
	})
}

func TestReplaceWithOversizedFileCancelsOldJob(t *testing.T) {
	f := newFakeService(t)
	o := newTestOrchestrator(f)

	if err := o.Start(context.Background(), testFile(t, "old.csv", 100)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	waitFor(t, o, "polling", func(s types.SessionSnapshot) bool {
		return s.State == types.StatePolling
	})

	err := o.Replace(context.Background(), testFile(t, "huge.csv", 2*1024*1024*1024))
	if err == nil {
		t.Fatal("expected oversize rejection")
	}

	snap := o.Snapshot()
	if snap.State != types.StateFailed || snap.JobID != "" {
		t.Errorf("expected jobless Failed session, got %+v", snap)
	}

	// the discarded previous job must still be cancelled remotely
	waitFor(t, o, "remote cancel of old job", func(types.SessionSnapshot) bool {
		_, _, cancels, _ := f.counts()
		return cancels == 1
	})
}
