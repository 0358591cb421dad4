package share

import (
	"sort"
	"time"

	ttlworker "github.com/FloatTech/ttl"

	"github.com/datadoctor/uploader-go/tool"
	"github.com/datadoctor/uploader-go/types"
)

const (
	DefaultTTL = 3600 * time.Second // finished uploads stay listed for an hour.
)

var (
	recentUploads = ttlworker.NewCache[string, types.UploadDescriptor](DefaultTTL)
)

// Init replaces the cache with one using the configured TTL. Call once at
// startup before any uploads finish.
func Init(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	recentUploads = ttlworker.NewCache[string, types.UploadDescriptor](ttl)
}

// RecordUpload stores a terminal upload descriptor, keyed by job id.
func RecordUpload(desc types.UploadDescriptor) {
	if desc.JobID == "" {
		return
	}
	recentUploads.Set(desc.JobID, desc)
	tool.DefaultLogger.Debugf("Recorded upload outcome: %s -> %s", desc.JobID, desc.Outcome)
}

// GetUpload returns the descriptor for one recent upload.
func GetUpload(jobID string) (types.UploadDescriptor, bool) {
	desc := recentUploads.Get(jobID)
	return desc, desc.JobID != ""
}

// ListUploads returns recent upload outcomes, newest first.
func ListUploads() []types.UploadDescriptor {
	result := make([]types.UploadDescriptor, 0)
	err := recentUploads.Range(func(k string, v types.UploadDescriptor) error {
		result = append(result, v)
		return nil
	})
	if err != nil {
		return nil
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].FinishedAt.After(result[j].FinishedAt)
	})
	return result
}
