package app

import (
	"context"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

// PlaybackService is the write surface for the playback collaborator:
// filling in start/end times on the engine's stub rows and closing out a
// session. The engine never calls these during generation.
type PlaybackService struct {
	history  ports.HistoryRepository
	sessions ports.SessionRepository
}

func NewPlaybackService(history ports.HistoryRepository, sessions ports.SessionRepository) *PlaybackService {
	return &PlaybackService{history: history, sessions: sessions}
}

type PlayRecordDTO struct {
	ID        int64      `json:"id"`
	SessionID string     `json:"sessionId"`
	EpisodeID int64      `json:"episodeId"`
	SlotOrder int        `json:"slotOrder"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Completed bool       `json:"completed"`
}

func toPlayRecordDTO(r domain.PlayRecord) PlayRecordDTO {
	dto := PlayRecordDTO{
		ID:        r.ID,
		SessionID: r.SessionID,
		EpisodeID: r.EpisodeID,
		SlotOrder: r.SlotOrder,
		Completed: r.Completed,
	}
	if !r.StartedAt.IsZero() {
		t := r.StartedAt
		dto.StartedAt = &t
	}
	if !r.EndedAt.IsZero() {
		t := r.EndedAt
		dto.EndedAt = &t
	}
	return dto
}

type RecordPlaybackInput struct {
	StartedAt *time.Time `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt"`
	Completed bool       `json:"completed"`
}

func (s *PlaybackService) Record(ctx context.Context, id int64, in RecordPlaybackInput) (PlayRecordDTO, error) {
	var started, ended time.Time
	if in.StartedAt != nil {
		started = in.StartedAt.UTC()
	}
	if in.EndedAt != nil {
		ended = in.EndedAt.UTC()
	}
	rec, err := s.history.RecordPlayback(ctx, id, started, ended, in.Completed)
	if err != nil {
		return PlayRecordDTO{}, err
	}
	return toPlayRecordDTO(rec), nil
}

func (s *PlaybackService) ListBySession(ctx context.Context, sessionID string) ([]PlayRecordDTO, error) {
	recs, err := s.history.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]PlayRecordDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, toPlayRecordDTO(r))
	}
	return out, nil
}

func (s *PlaybackService) CompleteSession(ctx context.Context, sessionID string) error {
	_, err := s.sessions.SetStatus(ctx, sessionID, domain.SessionCompleted)
	return err
}
