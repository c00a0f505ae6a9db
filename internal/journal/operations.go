package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// OutcomePending marks an operation whose remote call has not resolved.
const OutcomePending = "pending"

// OutcomeAbandoned marks an operation that was pending when the daemon stopped.
const OutcomeAbandoned = "abandoned"

// Entry is one journaled operation.
type Entry struct {
	ID        string    `json:"id"`
	ProjectID int64     `json:"project_id"`
	Kind      string    `json:"kind"`
	Targets   []string  `json:"targets,omitempty"`
	Outcome   string    `json:"outcome"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrNotFound is returned when an operation id is unknown.
var ErrNotFound = errors.New("journal entry not found")

// RecordStart inserts a pending operation.
func (j *Journal) RecordStart(ctx context.Context, opID string, projectID int64, kind string, targets []string) error {
	if targets == nil {
		targets = []string{}
	}
	encoded, err := json.Marshal(targets)
	if err != nil {
		return fmt.Errorf("encode targets: %w", err)
	}
	now := formatTime(time.Now())
	_, err = j.exec(ctx,
		`INSERT INTO operations (id, project_id, kind, targets, outcome, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		opID, projectID, kind, string(encoded), OutcomePending, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

// RecordOutcome sets the final outcome of an operation.
func (j *Journal) RecordOutcome(ctx context.Context, opID, outcome, errMsg string) error {
	res, err := j.exec(ctx,
		`UPDATE operations SET outcome = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		outcome, nullableString(errMsg), formatTime(time.Now()), opID,
	)
	if err != nil {
		return fmt.Errorf("update operation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, opID)
	}
	return nil
}

// Get returns one operation.
func (j *Journal) Get(ctx context.Context, opID string) (Entry, error) {
	row := j.db.QueryRowContext(ensureContext(ctx),
		`SELECT id, project_id, kind, targets, outcome, error_message, created_at, updated_at
         FROM operations WHERE id = ?`, opID)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, opID)
	}
	return entry, err
}

// Recent returns the newest operations first. projectID 0 lists every
// project; limit <= 0 defaults to 50.
func (j *Journal) Recent(ctx context.Context, projectID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, project_id, kind, targets, outcome, error_message, created_at, updated_at FROM operations`
	args := []any{}
	if projectID != 0 {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := j.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats counts operations by outcome.
func (j *Journal) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := j.db.QueryContext(ensureContext(ctx), `SELECT outcome, COUNT(1) FROM operations GROUP BY outcome`)
	if err != nil {
		return nil, fmt.Errorf("journal stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		stats[outcome] = count
	}
	return stats, rows.Err()
}

// AbandonPending marks operations left pending by a previous daemon run. It
// returns how many were updated.
func (j *Journal) AbandonPending(ctx context.Context) (int64, error) {
	res, err := j.exec(ctx,
		`UPDATE operations SET outcome = ?, updated_at = ? WHERE outcome = ?`,
		OutcomeAbandoned, formatTime(time.Now()), OutcomePending,
	)
	if err != nil {
		return 0, fmt.Errorf("abandon pending operations: %w", err)
	}
	return res.RowsAffected()
}

// Prune deletes settled operations older than the cutoff and returns how many
// were removed.
func (j *Journal) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := j.exec(ctx,
		`DELETE FROM operations WHERE updated_at < ? AND outcome != ?`,
		formatTime(olderThan), OutcomePending,
	)
	if err != nil {
		return 0, fmt.Errorf("prune operations: %w", err)
	}
	return res.RowsAffected()
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry      Entry
		targetsRaw string
		errMsg     sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(&entry.ID, &entry.ProjectID, &entry.Kind, &targetsRaw, &entry.Outcome, &errMsg, &createdRaw, &updatedRaw); err != nil {
		return Entry{}, err
	}
	if targetsRaw != "" {
		if err := json.Unmarshal([]byte(targetsRaw), &entry.Targets); err != nil {
			return Entry{}, fmt.Errorf("decode targets for %s: %w", entry.ID, err)
		}
	}
	if errMsg.Valid {
		entry.Error = errMsg.String
	}
	if t, err := parseTimeString(createdRaw); err == nil {
		entry.CreatedAt = t
	}
	if t, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = t
	}
	return entry, nil
}
