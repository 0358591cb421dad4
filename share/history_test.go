package share

import (
	"testing"
	"time"

	"github.com/datadoctor/uploader-go/types"
)

func TestRecordAndListUploads(t *testing.T) {
	Init(time.Minute)

	now := time.Now()
	RecordUpload(types.UploadDescriptor{
		JobID:      "job-old",
		Filename:   "first.csv",
		FinishedAt: now.Add(-time.Minute),
		Outcome:    types.StateCompleted,
	})
	RecordUpload(types.UploadDescriptor{
		JobID:      "job-new",
		Filename:   "second.csv",
		FinishedAt: now,
		Outcome:    types.StateFailed,
	})

	list := ListUploads()
	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	if list[0].JobID != "job-new" || list[1].JobID != "job-old" {
		t.Errorf("expected newest first, got %s then %s", list[0].JobID, list[1].JobID)
	}

	desc, ok := GetUpload("job-old")
	if !ok || desc.Filename != "first.csv" {
		t.Errorf("GetUpload(job-old) = %+v, %v", desc, ok)
	}
	if _, ok := GetUpload("job-missing"); ok {
		t.Error("GetUpload must report missing jobs")
	}
}

func TestRecordUploadIgnoresEmptyJobID(t *testing.T) {
	Init(time.Minute)

	RecordUpload(types.UploadDescriptor{Filename: "anon.csv", FinishedAt: time.Now()})
	if list := ListUploads(); len(list) != 0 {
		t.Errorf("descriptor without jobId must not be stored, got %+v", list)
	}
}

func TestHistoryEntriesExpire(t *testing.T) {
	Init(50 * time.Millisecond)

	RecordUpload(types.UploadDescriptor{
		JobID:      "job-ttl",
		Filename:   "short.csv",
		FinishedAt: time.Now(),
		Outcome:    types.StateCompleted,
	})
	if _, ok := GetUpload("job-ttl"); !ok {
		t.Fatal("entry must be visible before the TTL elapses")
	}

	time.Sleep(100 * time.Millisecond)
	if _, ok := GetUpload("job-ttl"); ok {
		t.Error("entry must expire after the TTL")
	}
}
