package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

func (r *FeedbackRepository) Create(ctx context.Context, playHistoryID int64, rating domain.Rating, submittedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO feedback(play_history_id, rating, submitted_at)
		VALUES(?, ?, ?)
	`, playHistoryID, string(rating), fmtTime(submittedAt))
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "unique constraint failed") && strings.Contains(msg, "feedback.play_history_id") {
			return ports.ErrConflict
		}
		if strings.Contains(msg, "foreign key constraint failed") {
			return ports.ErrNotFound
		}
		return err
	}
	return nil
}

// ByEpisode aggregates all ratings per episode, oldest first, the shape
// the weight model consumes.
func (r *FeedbackRepository) ByEpisode(ctx context.Context) (map[int64][]domain.FeedbackRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ph.episode_id, f.rating, f.submitted_at
		FROM feedback f
		JOIN play_history ph ON ph.id = f.play_history_id
		ORDER BY f.submitted_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[int64][]domain.FeedbackRecord{}
	for rows.Next() {
		var episodeID int64
		var rating, submitted string
		if err := rows.Scan(&episodeID, &rating, &submitted); err != nil {
			return nil, err
		}
		out[episodeID] = append(out[episodeID], domain.FeedbackRecord{
			Rating:      domain.Rating(rating),
			SubmittedAt: parseTime(submitted),
		})
	}
	return out, rows.Err()
}
