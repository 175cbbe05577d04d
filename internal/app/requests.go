package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
	"github.com/rs/xid"
)

// RequestService stores explicit asks for future generation runs, either
// structured or parsed from free text.
type RequestService struct {
	repo       ports.RequestRepository
	episodes   ports.EpisodeRepository
	bus        ports.EventBus
	keywordMap map[string]string
	// now is swappable for tests.
	now func() time.Time
}

func NewRequestService(repo ports.RequestRepository, episodes ports.EpisodeRepository, bus ports.EventBus, keywordMap map[string]string) *RequestService {
	return &RequestService{
		repo:       repo,
		episodes:   episodes,
		bus:        bus,
		keywordMap: keywordMap,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

type RequestDTO struct {
	ID          string               `json:"id"`
	Date        string               `json:"date"`
	Notes       string               `json:"notes,omitempty"`
	Items       []domain.RequestItem `json:"items"`
	Fulfilled   bool                 `json:"fulfilled"`
	FulfilledAt *time.Time           `json:"fulfilledAt,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
}

func toRequestDTO(r domain.Request) RequestDTO {
	dto := RequestDTO{
		ID:        r.ID,
		Date:      r.Date.Format("2006-01-02"),
		Notes:     r.Notes,
		Items:     r.Items,
		Fulfilled: r.Fulfilled,
		CreatedAt: r.CreatedAt,
	}
	if !r.FulfilledAt.IsZero() {
		t := r.FulfilledAt
		dto.FulfilledAt = &t
	}
	return dto
}

type CreateRequestInput struct {
	// Text is parsed ("tomorrow two bluey"); alternatively Date+Items
	// give the structured form directly.
	Text  string               `json:"text"`
	Date  string               `json:"date"`
	Items []domain.RequestItem `json:"items"`
	Notes string               `json:"notes"`
}

func (s *RequestService) Create(ctx context.Context, in CreateRequestInput) (RequestDTO, error) {
	now := s.now()
	date := Midnight(now)
	items := in.Items

	if in.Text != "" {
		series, err := s.episodes.Series(ctx)
		if err != nil {
			return RequestDTO{}, err
		}
		parsed, err := ParseRequestText(in.Text, series, s.keywordMap)
		if err != nil {
			return RequestDTO{}, err
		}
		date = date.AddDate(0, 0, parsed.DaysOffset)
		items = append(items, parsed.Items...)
	}
	if in.Date != "" {
		d, err := time.Parse("2006-01-02", in.Date)
		if err != nil {
			return RequestDTO{}, errors.New("invalid date, want YYYY-MM-DD")
		}
		date = Midnight(d)
	}
	if len(items) == 0 {
		return RequestDTO{}, errors.New("request has no items")
	}

	req := domain.Request{
		ID:        xid.New().String(),
		Date:      date,
		Notes:     in.Notes,
		Items:     items,
		CreatedAt: now,
	}
	created, err := s.repo.Create(ctx, req)
	if err != nil {
		return RequestDTO{}, err
	}
	s.publish("request.created", toRequestDTO(created))
	return toRequestDTO(created), nil
}

func (s *RequestService) ListForDate(ctx context.Context, date time.Time, includeFulfilled bool) ([]RequestDTO, error) {
	reqs, err := s.repo.ListForDate(ctx, Midnight(date), includeFulfilled)
	if err != nil {
		return nil, err
	}
	out := make([]RequestDTO, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, toRequestDTO(r))
	}
	return out, nil
}

func (s *RequestService) publish(topic string, v any) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}
