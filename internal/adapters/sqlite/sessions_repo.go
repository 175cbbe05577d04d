package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

type SessionsRepository struct {
	db *sql.DB
}

func NewSessionsRepository(db *sql.DB) *SessionsRepository {
	return &SessionsRepository{db: db}
}

// Create persists a session and its play_history stubs in one
// transaction. A live session already holding the date surfaces as
// ports.ErrConflict via the partial unique index on show_date.
func (r *SessionsRepository) Create(ctx context.Context, s domain.Session) (domain.Session, error) {
	return r.insert(ctx, s, false)
}

// Supersede retires any live session for s.ShowDate and inserts s, all
// in the same transaction. History rows of the old session survive.
func (r *SessionsRepository) Supersede(ctx context.Context, s domain.Session) (domain.Session, error) {
	return r.insert(ctx, s, true)
}

func (r *SessionsRepository) insert(ctx context.Context, s domain.Session, supersede bool) (domain.Session, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Session{}, err
	}

	if supersede {
		if _, err := tx.ExecContext(ctx, `
			UPDATE sessions SET superseded = 1
			WHERE show_date = ? AND superseded = 0
		`, fmtDate(s.ShowDate)); err != nil {
			_ = tx.Rollback()
			return domain.Session{}, err
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions(id, show_date, status, superseded, seed, generated_at, intro_path, outro_path, total_duration_seconds, relaxed)
		VALUES(?, ?, ?, 0, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, fmtDate(s.ShowDate), string(s.Status), s.Seed, fmtTime(s.GeneratedAt),
		s.IntroPath, s.OutroPath, s.TotalDurationSeconds, s.Relaxed,
	); err != nil {
		_ = tx.Rollback()
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique constraint failed") &&
			(strings.Contains(msg, "sessions.show_date") || strings.Contains(msg, "ux_sessions_active_date")) {
			return domain.Session{}, ports.ErrConflict
		}
		return domain.Session{}, err
	}

	for _, e := range s.Entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO play_history(session_id, episode_id, slot_order, completed)
			VALUES(?, ?, ?, 0)
		`, s.ID, e.EpisodeID, e.Slot); err != nil {
			_ = tx.Rollback()
			return domain.Session{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Session{}, err
	}
	return r.Get(ctx, s.ID)
}

const sessionColumns = `id, show_date, status, superseded, seed, generated_at, intro_path, outro_path, total_duration_seconds, relaxed`

func scanSession(row interface{ Scan(...any) error }) (domain.Session, error) {
	var s domain.Session
	var showDate, status, generated string
	err := row.Scan(&s.ID, &showDate, &status, &s.Superseded, &s.Seed, &generated, &s.IntroPath, &s.OutroPath, &s.TotalDurationSeconds, &s.Relaxed)
	if err != nil {
		return domain.Session{}, err
	}
	s.ShowDate = parseDate(showDate)
	s.Status = domain.SessionStatus(status)
	s.GeneratedAt = parseTime(generated)
	return s, nil
}

func (r *SessionsRepository) Get(ctx context.Context, id string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, ports.ErrNotFound
		}
		return domain.Session{}, err
	}
	if err := r.loadEntries(ctx, &s); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func (r *SessionsRepository) ActiveByDate(ctx context.Context, date time.Time) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions
		WHERE show_date = ? AND superseded = 0
	`, fmtDate(date))
	s, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Session{}, ports.ErrNotFound
		}
		return domain.Session{}, err
	}
	if err := r.loadEntries(ctx, &s); err != nil {
		return domain.Session{}, err
	}
	return s, nil
}

func (r *SessionsRepository) List(ctx context.Context, limit int) ([]domain.Session, error) {
	q := `SELECT id FROM sessions ORDER BY show_date DESC, generated_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(ids))
	for _, id := range ids {
		s, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SessionsRepository) SetStatus(ctx context.Context, id string, status domain.SessionStatus) (domain.Session, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return domain.Session{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Session{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *SessionsRepository) loadEntries(ctx context.Context, s *domain.Session) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT slot_order, episode_id FROM play_history
		WHERE session_id = ?
		ORDER BY slot_order ASC
	`, s.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.SessionEntry
		if err := rows.Scan(&e.Slot, &e.EpisodeID); err != nil {
			return err
		}
		s.Entries = append(s.Entries, e)
	}
	return rows.Err()
}
