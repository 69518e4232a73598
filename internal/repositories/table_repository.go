package repositories

import (
	"database/sql"
	"fmt"

	"pos_terminal_backend/internal/models"
)

// TableRepository covers the table/session state the end-of-day
// finalizer touches.
type TableRepository interface {
	ListOpenSessions(branchID string) ([]models.TableSession, error)
	PurgeSessionsThrough(executor SQLExecutor, date string) (int64, error)
	ResetTables(executor SQLExecutor, branchID string) (int64, error)
}

type tableRepository struct {
	db *sql.DB
}

// NewTableRepository creates a new instance of TableRepository.
func NewTableRepository(db *sql.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) ListOpenSessions(branchID string) ([]models.TableSession, error) {
	query := `SELECT ts.id, ts.table_id, ts.order_id, ts.status, ts.opened_at, ts.closed_at
	          FROM table_sessions ts
	          JOIN dining_tables t ON t.id = ts.table_id
	          WHERE t.branch_id = $1 AND ts.status = 'open'
	          ORDER BY ts.opened_at`
	rows, err := r.db.Query(query, branchID)
	if err != nil {
		return nil, fmt.Errorf("%w: listing open table sessions: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	sessions := []models.TableSession{}
	for rows.Next() {
		var s models.TableSession
		if err := rows.Scan(&s.ID, &s.TableID, &s.OrderID, &s.Status, &s.OpenedAt, &s.ClosedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning table session: %v", ErrDatabaseError, err)
		}
		sessions = append(sessions, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating table sessions: %v", ErrDatabaseError, err)
	}
	return sessions, nil
}

func (r *tableRepository) PurgeSessionsThrough(executor SQLExecutor, date string) (int64, error) {
	result, err := executor.Exec(`DELETE FROM table_sessions WHERE opened_at::date <= $1::date`, date)
	if err != nil {
		return 0, fmt.Errorf("%w: purging table sessions: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

// ResetTables returns every table at the branch to available.
func (r *tableRepository) ResetTables(executor SQLExecutor, branchID string) (int64, error) {
	result, err := executor.Exec(
		`UPDATE dining_tables SET status = $2 WHERE branch_id = $1 AND status <> $2`,
		branchID, models.TableAvailable,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: resetting tables: %v", ErrDatabaseError, err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
