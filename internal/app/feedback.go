package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

// FeedbackService records ratings on played slots. Ratings are
// append-only and feed the weight model on the next generation run.
type FeedbackService struct {
	feedback ports.FeedbackRepository
	history  ports.HistoryRepository
	bus      ports.EventBus
}

func NewFeedbackService(feedback ports.FeedbackRepository, history ports.HistoryRepository, bus ports.EventBus) *FeedbackService {
	return &FeedbackService{feedback: feedback, history: history, bus: bus}
}

func (s *FeedbackService) Record(ctx context.Context, playHistoryID int64, rating domain.Rating) error {
	if !rating.Valid() {
		return fmt.Errorf("invalid rating %q", rating)
	}
	// The slot must exist; a rating on a phantom play is a caller bug.
	rec, err := s.history.Get(ctx, playHistoryID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if err := s.feedback.Create(ctx, playHistoryID, rating, now); err != nil {
		return err
	}
	if s.bus != nil {
		b, _ := json.Marshal(map[string]any{
			"playHistoryId": playHistoryID,
			"episodeId":     rec.EpisodeID,
			"rating":        rating,
		})
		s.bus.Publish("feedback.recorded", b)
	}
	return nil
}
