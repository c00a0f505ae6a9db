package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const keyCurrentProject = "current_project"

// SetCurrentProject remembers the open project so the daemon can restore it
// on restart. An id of 0 forgets it.
func (j *Journal) SetCurrentProject(ctx context.Context, projectID int64) error {
	if projectID == 0 {
		if _, err := j.exec(ctx, `DELETE FROM session_state WHERE key = ?`, keyCurrentProject); err != nil {
			return fmt.Errorf("clear current project: %w", err)
		}
		return nil
	}
	_, err := j.exec(ctx,
		`INSERT INTO session_state (key, value, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		keyCurrentProject, strconv.FormatInt(projectID, 10), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("store current project: %w", err)
	}
	return nil
}

// CurrentProject returns the remembered project id.
func (j *Journal) CurrentProject(ctx context.Context) (int64, bool, error) {
	var raw string
	err := j.db.QueryRowContext(ensureContext(ctx),
		`SELECT value FROM session_state WHERE key = ?`, keyCurrentProject,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read current project: %w", err)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse current project %q: %w", raw, err)
	}
	return id, true, nil
}
