package models

import (
	"encoding/json"
	"time"
)

// SyncOperation is the kind of change an outbound sync record describes.
type SyncOperation string

const (
	SyncInsert SyncOperation = "insert"
	SyncUpdate SyncOperation = "update"
	SyncDelete SyncOperation = "delete"
)

// SyncRecord is one outbound change-queue row. Payload is the complete
// post-mutation snapshot of the record, not a diff; the remote side is
// idempotent by (table_name, record_id).
type SyncRecord struct {
	ID          int64           `json:"id" db:"id"`
	TableName   string          `json:"table_name" db:"table_name"`
	RecordID    int64           `json:"record_id" db:"record_id"`
	Operation   SyncOperation   `json:"operation" db:"operation"`
	Payload     json.RawMessage `json:"payload,omitempty" db:"payload"`
	Attempts    int             `json:"attempts" db:"attempts"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	PublishedAt *time.Time      `json:"published_at,omitempty" db:"published_at"`
}
