package database

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// StorageEstimate reports how much of the device the store occupies and
// how much room it has to grow. All fields are zero when the host cannot
// be queried.
type StorageEstimate struct {
	Used       uint64  `json:"used"`
	Quota      uint64  `json:"quota"`
	Percentage float64 `json:"percentage"`
}

// GetStorageEstimate sizes the sqlite file against its volume. Postgres
// deployments and in-memory databases have no local file to account, and
// any host error degrades to zeros; this never fails.
func (s *Store) GetStorageEstimate() StorageEstimate {
	if s.sqlitePath == "" || strings.Contains(s.sqlitePath, ":memory:") ||
		strings.Contains(s.sqlitePath, "mode=memory") {
		return StorageEstimate{}
	}
	info, err := os.Stat(s.sqlitePath)
	if err != nil {
		return StorageEstimate{}
	}
	used := uint64(info.Size())

	dir := filepath.Dir(s.sqlitePath)
	usage, err := disk.Usage(dir)
	if err != nil {
		return StorageEstimate{}
	}
	quota := used + usage.Free
	estimate := StorageEstimate{Used: used, Quota: quota}
	if quota > 0 {
		estimate.Percentage = float64(used) / float64(quota) * 100
	}
	return estimate
}
