package catalog

import (
	"fmt"
	"strings"
	"time"
)

// WriteStatus is the persisted outcome of the most recent write attempt.
type WriteStatus string

const (
	// StatusNone marks a record that was never attempted (NULL in the table).
	StatusNone    WriteStatus = ""
	StatusPending WriteStatus = "pending"
	StatusSuccess WriteStatus = "success"
	StatusPartial WriteStatus = "partial"
	StatusError   WriteStatus = "error"
	StatusSkipped WriteStatus = "skipped"
)

var writeStatuses = []WriteStatus{
	StatusPending,
	StatusSuccess,
	StatusPartial,
	StatusError,
	StatusSkipped,
}

// WriteStatuses lists every value accepted by the write_status column.
func WriteStatuses() []WriteStatus {
	return append([]WriteStatus(nil), writeStatuses...)
}

// ParseWriteStatus converts user input into a known status.
func ParseWriteStatus(value string) (WriteStatus, error) {
	normalized := WriteStatus(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range writeStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return StatusNone, fmt.Errorf("unknown write status %q", value)
}

// Label renders the status for operators; never-attempted rows read "new".
func (s WriteStatus) Label() string {
	if s == StatusNone {
		return "new"
	}
	return string(s)
}

// Record is one catalog entry.
type Record struct {
	ID           int64
	Path         string
	MetadataJSON string
	WriteStatus  WriteStatus
	WriteDetail  string
	WrittenAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
