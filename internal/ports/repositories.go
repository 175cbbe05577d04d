package ports

import (
	"context"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
)

// EpisodeRepository is the engine's read (and admin-flag write) view of
// the library collaborator's catalog.
type EpisodeRepository interface {
	Create(ctx context.Context, ep domain.Episode) (domain.Episode, error)
	Get(ctx context.Context, id int64) (domain.Episode, error)
	// List returns the catalog ordered by ID. includeDisabled keeps
	// disabled rows in, for diagnostics.
	List(ctx context.Context, includeDisabled bool) ([]domain.Episode, error)
	Series(ctx context.Context) ([]string, error)
	SetDisabled(ctx context.Context, id int64, disabled bool) (domain.Episode, error)
	SetNeverOverride(ctx context.Context, id int64, override bool) (domain.Episode, error)
}

// HistoryRepository reads and updates play_history rows. The engine only
// reads; RecordPlayback exists for the playback collaborator.
type HistoryRepository interface {
	// LastCompletedPlays returns, per episode, the most recent completed
	// play timestamp.
	LastCompletedPlays(ctx context.Context) (map[int64]time.Time, error)
	ListBySession(ctx context.Context, sessionID string) ([]domain.PlayRecord, error)
	Get(ctx context.Context, id int64) (domain.PlayRecord, error)
	RecordPlayback(ctx context.Context, id int64, startedAt, endedAt time.Time, completed bool) (domain.PlayRecord, error)
}

type FeedbackRepository interface {
	Create(ctx context.Context, playHistoryID int64, rating domain.Rating, submittedAt time.Time) error
	// ByEpisode returns every rating grouped by episode, oldest first.
	ByEpisode(ctx context.Context) (map[int64][]domain.FeedbackRecord, error)
}

// SessionRepository persists generation output. Create and Supersede are
// atomic over the session row and its play_history stubs; the partial
// unique index on the active show date is the duplicate-generation guard.
type SessionRepository interface {
	Create(ctx context.Context, s domain.Session) (domain.Session, error)
	// Supersede marks any active session for s.ShowDate superseded and
	// inserts s, in one transaction.
	Supersede(ctx context.Context, s domain.Session) (domain.Session, error)
	Get(ctx context.Context, id string) (domain.Session, error)
	ActiveByDate(ctx context.Context, date time.Time) (domain.Session, error)
	List(ctx context.Context, limit int) ([]domain.Session, error)
	SetStatus(ctx context.Context, id string, status domain.SessionStatus) (domain.Session, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req domain.Request) (domain.Request, error)
	ListForDate(ctx context.Context, date time.Time, includeFulfilled bool) ([]domain.Request, error)
	MarkFulfilled(ctx context.Context, id string, at time.Time) error
}
