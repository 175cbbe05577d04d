package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

func scanPlayRecord(row interface{ Scan(...any) error }) (domain.PlayRecord, error) {
	var rec domain.PlayRecord
	var started, ended sql.NullString
	err := row.Scan(&rec.ID, &rec.SessionID, &rec.EpisodeID, &rec.SlotOrder, &started, &ended, &rec.Completed)
	if err != nil {
		return domain.PlayRecord{}, err
	}
	rec.StartedAt = nullTime(started)
	rec.EndedAt = nullTime(ended)
	return rec, nil
}

// LastCompletedPlays returns the most recent completed play per episode.
// The weight model derives both the cooldown filter and the freshness
// boost from this one query.
func (r *HistoryRepository) LastCompletedPlays(ctx context.Context) (map[int64]time.Time, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT episode_id, MAX(started_at)
		FROM play_history
		WHERE completed = 1 AND started_at IS NOT NULL
		GROUP BY episode_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64]time.Time{}
	for rows.Next() {
		var id int64
		var ts string
		if err := rows.Scan(&id, &ts); err != nil {
			return nil, err
		}
		out[id] = parseTime(ts)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.PlayRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, episode_id, slot_order, started_at, ended_at, completed
		FROM play_history
		WHERE session_id = ?
		ORDER BY slot_order ASC
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.PlayRecord, 0)
	for rows.Next() {
		rec, err := scanPlayRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *HistoryRepository) Get(ctx context.Context, id int64) (domain.PlayRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, session_id, episode_id, slot_order, started_at, ended_at, completed
		FROM play_history
		WHERE id = ?
	`, id)
	rec, err := scanPlayRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PlayRecord{}, ports.ErrNotFound
		}
		return domain.PlayRecord{}, err
	}
	return rec, nil
}

// RecordPlayback fills in playback facts on a stub row. Zero timestamps
// leave the stored value untouched.
func (r *HistoryRepository) RecordPlayback(ctx context.Context, id int64, startedAt, endedAt time.Time, completed bool) (domain.PlayRecord, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE play_history
		SET started_at = COALESCE(?, started_at),
			ended_at = COALESCE(?, ended_at),
			completed = ?
		WHERE id = ?
	`, timeOrNull(startedAt), timeOrNull(endedAt), completed, id)
	if err != nil {
		return domain.PlayRecord{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.PlayRecord{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}
