package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

type RequestsRepository struct {
	db *sql.DB
}

func NewRequestsRepository(db *sql.DB) *RequestsRepository {
	return &RequestsRepository{db: db}
}

func (r *RequestsRepository) Create(ctx context.Context, req domain.Request) (domain.Request, error) {
	payload, err := json.Marshal(req.Items)
	if err != nil {
		return domain.Request{}, err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO requests(id, request_date, notes, payload, fulfilled, fulfilled_at, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`,
		req.ID, fmtDate(req.Date), req.Notes, string(payload),
		req.Fulfilled, timeOrNull(req.FulfilledAt), fmtTime(req.CreatedAt),
	)
	if err != nil {
		return domain.Request{}, err
	}
	return r.Get(ctx, req.ID)
}

func (r *RequestsRepository) Get(ctx context.Context, id string) (domain.Request, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, request_date, notes, payload, fulfilled, fulfilled_at, created_at
		FROM requests WHERE id = ?
	`, id)
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return domain.Request{}, ports.ErrNotFound
	}
	return req, err
}

func scanRequest(row interface{ Scan(...any) error }) (domain.Request, error) {
	var req domain.Request
	var date, payload, created string
	var fulfilledAt sql.NullString
	err := row.Scan(&req.ID, &date, &req.Notes, &payload, &req.Fulfilled, &fulfilledAt, &created)
	if err != nil {
		return domain.Request{}, err
	}
	req.Date = parseDate(date)
	req.FulfilledAt = nullTime(fulfilledAt)
	req.CreatedAt = parseTime(created)
	if err := json.Unmarshal([]byte(payload), &req.Items); err != nil {
		return domain.Request{}, err
	}
	return req, nil
}

func (r *RequestsRepository) ListForDate(ctx context.Context, date time.Time, includeFulfilled bool) ([]domain.Request, error) {
	q := `
		SELECT id, request_date, notes, payload, fulfilled, fulfilled_at, created_at
		FROM requests
		WHERE request_date = ?
	`
	if !includeFulfilled {
		q += ` AND fulfilled = 0`
	}
	q += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, q, fmtDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *RequestsRepository) MarkFulfilled(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE requests SET fulfilled = 1, fulfilled_at = ?
		WHERE id = ? AND fulfilled = 0
	`, fmtTime(at), id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}
