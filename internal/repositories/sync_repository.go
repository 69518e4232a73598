package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"pos_terminal_backend/internal/models"

	"github.com/lib/pq"
)

// SyncRepository manages the outbound change queue. Enqueue runs inside
// the same transaction as the local write it mirrors; draining is done
// asynchronously by the publisher.
type SyncRepository interface {
	Enqueue(executor SQLExecutor, tableName string, recordID int64, op models.SyncOperation, payload interface{}) error
	FetchUnpublished(limit int) ([]models.SyncRecord, error)
	MarkPublished(ids []int64) error
	IncrementAttempts(id int64) error
	PurgeThrough(executor SQLExecutor, date string) (int64, error)
}

type syncRepository struct {
	db *sql.DB
}

// NewSyncRepository creates a new instance of SyncRepository.
func NewSyncRepository(db *sql.DB) SyncRepository {
	return &syncRepository{db: db}
}

func (r *syncRepository) Enqueue(executor SQLExecutor, tableName string, recordID int64, op models.SyncOperation, payload interface{}) error {
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("%w: marshaling sync payload for %s/%d: %v", ErrDatabaseError, tableName, recordID, err)
		}
	}
	query := `INSERT INTO sync_queue (table_name, record_id, operation, payload, created_at)
	          VALUES ($1, $2, $3, $4, $5)`
	if _, err := executor.Exec(query, tableName, recordID, op, raw, time.Now()); err != nil {
		return fmt.Errorf("%w: enqueueing sync record for %s/%d: %v", ErrDatabaseError, tableName, recordID, err)
	}
	return nil
}

func (r *syncRepository) FetchUnpublished(limit int) ([]models.SyncRecord, error) {
	query := `SELECT id, table_name, record_id, operation, payload, attempts, created_at, published_at
	          FROM sync_queue
	          WHERE published_at IS NULL
	          ORDER BY id
	          LIMIT $1`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching unpublished sync records: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	records := []models.SyncRecord{}
	for rows.Next() {
		var rec models.SyncRecord
		if err := rows.Scan(&rec.ID, &rec.TableName, &rec.RecordID, &rec.Operation, &rec.Payload, &rec.Attempts, &rec.CreatedAt, &rec.PublishedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning sync record: %v", ErrDatabaseError, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sync records: %v", ErrDatabaseError, err)
	}
	return records, nil
}

func (r *syncRepository) MarkPublished(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query := `UPDATE sync_queue SET published_at = $1 WHERE id = ANY($2)`
	if _, err := r.db.Exec(query, time.Now(), pq.Array(ids)); err != nil {
		return fmt.Errorf("%w: marking sync records published: %v", ErrDatabaseError, err)
	}
	return nil
}

func (r *syncRepository) IncrementAttempts(id int64) error {
	if _, err := r.db.Exec(`UPDATE sync_queue SET attempts = attempts + 1 WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: incrementing sync attempts for %d: %v", ErrDatabaseError, id, err)
	}
	return nil
}

func (r *syncRepository) PurgeThrough(executor SQLExecutor, date string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM sync_queue WHERE created_at::date <= $1::date`, date)
	if err != nil {
		return 0, fmt.Errorf("%w: purging sync queue: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
