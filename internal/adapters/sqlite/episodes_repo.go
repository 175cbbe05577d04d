package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

type EpisodesRepository struct {
	db *sql.DB
}

func NewEpisodesRepository(db *sql.DB) *EpisodesRepository {
	return &EpisodesRepository{db: db}
}

const episodeColumns = `id, series, season, episode_code, title, path, duration_seconds, added_at, disabled, never_override, file_hash`

func scanEpisode(row interface{ Scan(...any) error }) (domain.Episode, error) {
	var ep domain.Episode
	var added string
	err := row.Scan(
		&ep.ID, &ep.Series, &ep.Season, &ep.EpisodeCode, &ep.Title, &ep.Path,
		&ep.DurationSeconds, &added, &ep.Disabled, &ep.NeverOverride, &ep.FileHash,
	)
	if err != nil {
		return domain.Episode{}, err
	}
	ep.AddedAt = parseTime(added)
	return ep, nil
}

func (r *EpisodesRepository) Create(ctx context.Context, ep domain.Episode) (domain.Episode, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO episodes(series, season, episode_code, title, path, duration_seconds, added_at, disabled, never_override, file_hash)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ep.Series, ep.Season, ep.EpisodeCode, ep.Title, ep.Path,
		ep.DurationSeconds, fmtTime(ep.AddedAt), ep.Disabled, ep.NeverOverride, ep.FileHash,
	)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, "episodes.path") {
			return domain.Episode{}, ports.ErrConflict
		}
		return domain.Episode{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Episode{}, err
	}
	return r.Get(ctx, id)
}

func (r *EpisodesRepository) Get(ctx context.Context, id int64) (domain.Episode, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	ep, err := scanEpisode(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Episode{}, ports.ErrNotFound
		}
		return domain.Episode{}, err
	}
	return ep, nil
}

func (r *EpisodesRepository) List(ctx context.Context, includeDisabled bool) ([]domain.Episode, error) {
	q := `SELECT ` + episodeColumns + ` FROM episodes`
	if !includeDisabled {
		q += ` WHERE disabled = 0`
	}
	q += ` ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Episode, 0)
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (r *EpisodesRepository) Series(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT series FROM episodes ORDER BY series ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *EpisodesRepository) SetDisabled(ctx context.Context, id int64, disabled bool) (domain.Episode, error) {
	return r.setFlag(ctx, id, `disabled`, disabled)
}

func (r *EpisodesRepository) SetNeverOverride(ctx context.Context, id int64, override bool) (domain.Episode, error) {
	return r.setFlag(ctx, id, `never_override`, override)
}

func (r *EpisodesRepository) setFlag(ctx context.Context, id int64, column string, value bool) (domain.Episode, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE episodes SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return domain.Episode{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return domain.Episode{}, ports.ErrNotFound
	}
	return r.Get(ctx, id)
}
