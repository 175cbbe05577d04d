package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// SchedulerService runs the whole generation pipeline for one date:
// catalog + history + feedback + requests -> weights -> pool -> lineup,
// then one atomic persistence step.
type SchedulerService struct {
	logger   zerolog.Logger
	episodes ports.EpisodeRepository
	history  ports.HistoryRepository
	feedback ports.FeedbackRepository
	sessions ports.SessionRepository
	requests ports.RequestRepository
	bus      ports.EventBus

	params    Params
	introPath string
	outroPath string
	// relaxOnShortfall enables one retry with the cooldown dropped when
	// the pool or runtime window cannot be satisfied. The resulting
	// session is flagged relaxed.
	relaxOnShortfall bool
}

func NewSchedulerService(
	logger zerolog.Logger,
	episodes ports.EpisodeRepository,
	history ports.HistoryRepository,
	feedback ports.FeedbackRepository,
	sessions ports.SessionRepository,
	requests ports.RequestRepository,
	bus ports.EventBus,
	params Params,
	introPath, outroPath string,
	relaxOnShortfall bool,
) *SchedulerService {
	return &SchedulerService{
		logger:           logger,
		episodes:         episodes,
		history:          history,
		feedback:         feedback,
		sessions:         sessions,
		requests:         requests,
		bus:              bus,
		params:           params,
		introPath:        introPath,
		outroPath:        outroPath,
		relaxOnShortfall: relaxOnShortfall,
	}
}

type GenerateOptions struct {
	// Seed overrides the date-derived default.
	Seed *int64
	// Regenerate supersedes an existing session for the date instead of
	// failing with ErrDuplicateSession.
	Regenerate bool
	// Items are ad-hoc request items for this run only, merged with the
	// date's stored pending requests.
	Items []domain.RequestItem
}

type SessionDTO struct {
	ID                   string            `json:"id"`
	ShowDate             string            `json:"showDate"`
	Status               string            `json:"status"`
	Superseded           bool              `json:"superseded"`
	Seed                 int64             `json:"seed"`
	GeneratedAt          time.Time         `json:"generatedAt"`
	IntroPath            string            `json:"introPath,omitempty"`
	OutroPath            string            `json:"outroPath,omitempty"`
	TotalDurationSeconds int               `json:"totalDurationSeconds"`
	Relaxed              bool              `json:"relaxed"`
	Entries              []SessionEntryDTO `json:"entries"`
}

type SessionEntryDTO struct {
	Slot      int   `json:"slot"`
	EpisodeID int64 `json:"episodeId"`
}

func toSessionDTO(s domain.Session) SessionDTO {
	dto := SessionDTO{
		ID:                   s.ID,
		ShowDate:             s.ShowDate.Format("2006-01-02"),
		Status:               string(s.Status),
		Superseded:           s.Superseded,
		Seed:                 s.Seed,
		GeneratedAt:          s.GeneratedAt,
		IntroPath:            s.IntroPath,
		OutroPath:            s.OutroPath,
		TotalDurationSeconds: s.TotalDurationSeconds,
		Relaxed:              s.Relaxed,
		Entries:              make([]SessionEntryDTO, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		dto.Entries = append(dto.Entries, SessionEntryDTO{Slot: e.Slot, EpisodeID: e.EpisodeID})
	}
	return dto
}

// Midnight normalizes a timestamp to its UTC calendar date.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GenerateForDate produces and persists exactly one session for the date.
// Failure outcomes are the domain sentinels; persistence errors other
// than the duplicate guard are wrapped in domain.ErrPersistenceFailure
// and never retried here.
func (s *SchedulerService) GenerateForDate(ctx context.Context, date time.Time, opts GenerateOptions) (SessionDTO, error) {
	date = Midnight(date)

	if !opts.Regenerate {
		if existing, err := s.sessions.ActiveByDate(ctx, date); err == nil {
			return SessionDTO{}, fmt.Errorf("%w: %s already has session %s", domain.ErrDuplicateSession, date.Format("2006-01-02"), existing.ID)
		} else if !errors.Is(err, ports.ErrNotFound) {
			return SessionDTO{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
		}
	}

	items, pendingIDs, err := s.collectRequests(ctx, date, opts.Items)
	if err != nil {
		return SessionDTO{}, err
	}

	seed := DefaultSeed(date)
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	_, lineup, relaxed, err := s.plan(ctx, date, items, seed)
	if err != nil {
		return SessionDTO{}, err
	}

	session := domain.Session{
		ID:                   xid.New().String(),
		ShowDate:             date,
		Status:               domain.SessionPlanned,
		Seed:                 seed,
		GeneratedAt:          time.Now().UTC(),
		IntroPath:            s.introPath,
		OutroPath:            s.outroPath,
		TotalDurationSeconds: lineup.TotalDurationSeconds,
		Relaxed:              relaxed,
	}
	for i, ep := range lineup.Episodes {
		session.Entries = append(session.Entries, domain.SessionEntry{Slot: i + 1, EpisodeID: ep.ID})
	}

	var created domain.Session
	if opts.Regenerate {
		created, err = s.sessions.Supersede(ctx, session)
	} else {
		created, err = s.sessions.Create(ctx, session)
	}
	if err != nil {
		if errors.Is(err, ports.ErrConflict) {
			return SessionDTO{}, fmt.Errorf("%w: %s", domain.ErrDuplicateSession, date.Format("2006-01-02"))
		}
		return SessionDTO{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	now := time.Now().UTC()
	for _, id := range pendingIDs {
		if err := s.requests.MarkFulfilled(ctx, id, now); err != nil {
			s.logger.Warn().Err(err).Str("request_id", id).Msg("mark request fulfilled failed")
		}
	}

	s.logger.Info().
		Str("session_id", created.ID).
		Str("date", date.Format("2006-01-02")).
		Int("episodes", len(created.Entries)).
		Int("duration_s", created.TotalDurationSeconds).
		Int64("seed", seed).
		Bool("relaxed", relaxed).
		Msg("session generated")

	if opts.Regenerate {
		s.publish("session.superseded", map[string]string{"date": date.Format("2006-01-02")})
	}
	s.publish("session.generated", toSessionDTO(created))
	return toSessionDTO(created), nil
}

// PreviewDTO is the dry-run output: the would-be lineup plus the weight
// diagnostics behind it. Nothing is persisted.
type PreviewDTO struct {
	Date       string         `json:"date"`
	Seed       int64          `json:"seed"`
	Candidates []CandidateDTO `json:"candidates"`
	Excluded   []Exclusion    `json:"excluded"`
	Lineup     []EpisodeDTO   `json:"lineup,omitempty"`
	TotalSecs  int            `json:"totalDurationSeconds,omitempty"`
	Relaxed    bool           `json:"relaxed,omitempty"`
	Error      string         `json:"error,omitempty"`
}

type CandidateDTO struct {
	Episode EpisodeDTO `json:"episode"`
	Weight  float64    `json:"weight"`
}

// Preview runs the full pipeline without persisting. Planning failures
// are reported inline so the pool diagnostics still come back.
func (s *SchedulerService) Preview(ctx context.Context, date time.Time, opts GenerateOptions) (PreviewDTO, error) {
	date = Midnight(date)

	items, _, err := s.collectRequests(ctx, date, opts.Items)
	if err != nil {
		return PreviewDTO{}, err
	}

	seed := DefaultSeed(date)
	if opts.Seed != nil {
		seed = *opts.Seed
	}

	pool, lineup, relaxed, planErr := s.plan(ctx, date, items, seed)

	out := PreviewDTO{
		Date:     date.Format("2006-01-02"),
		Seed:     seed,
		Excluded: pool.Excluded,
	}
	for _, c := range pool.Candidates {
		out.Candidates = append(out.Candidates, CandidateDTO{Episode: toEpisodeDTO(c.Episode), Weight: c.Weight})
	}
	if planErr != nil {
		out.Error = planErr.Error()
		return out, nil
	}
	for _, ep := range lineup.Episodes {
		out.Lineup = append(out.Lineup, toEpisodeDTO(ep))
	}
	out.TotalSecs = lineup.TotalDurationSeconds
	out.Relaxed = relaxed
	return out, nil
}

// plan is the pure part: load inputs, build the pool, generate a lineup,
// with at most one cooldown-relaxed retry.
func (s *SchedulerService) plan(ctx context.Context, date time.Time, items []domain.RequestItem, seed int64) (Pool, Lineup, bool, error) {
	catalog, err := s.episodes.List(ctx, true)
	if err != nil {
		return Pool{}, Lineup{}, false, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	lastPlays, err := s.history.LastCompletedPlays(ctx)
	if err != nil {
		return Pool{}, Lineup{}, false, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	feedback, err := s.feedback.ByEpisode(ctx)
	if err != nil {
		return Pool{}, Lineup{}, false, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}

	pool, lineup, err := planOnce(date, catalog, lastPlays, feedback, items, seed, s.params)
	if err == nil {
		return pool, lineup, false, nil
	}
	if !s.relaxOnShortfall || !(errors.Is(err, domain.ErrInsufficientPool) || errors.Is(err, domain.ErrRuntimeUnsatisfiable)) {
		return pool, Lineup{}, false, err
	}

	s.logger.Warn().Err(err).Str("date", date.Format("2006-01-02")).Msg("relaxing cooldown after shortfall")
	relaxedParams := s.params
	relaxedParams.CooldownDays = 0
	pool, lineup, err = planOnce(date, catalog, lastPlays, feedback, items, seed, relaxedParams)
	if err != nil {
		return pool, Lineup{}, false, err
	}
	return pool, lineup, true, nil
}

func planOnce(
	date time.Time,
	catalog []domain.Episode,
	lastPlays map[int64]time.Time,
	feedback map[int64][]domain.FeedbackRecord,
	items []domain.RequestItem,
	seed int64,
	p Params,
) (Pool, Lineup, error) {
	pool, err := BuildPool(date, catalog, lastPlays, feedback, items, p)
	if err != nil {
		return pool, Lineup{}, err
	}
	lineup, err := GenerateLineup(pool, items, seed, p)
	if err != nil {
		return pool, Lineup{}, err
	}
	return pool, lineup, nil
}

// collectRequests merges the date's stored pending requests with ad-hoc
// items, returning the IDs to mark fulfilled after a successful commit.
func (s *SchedulerService) collectRequests(ctx context.Context, date time.Time, extra []domain.RequestItem) ([]domain.RequestItem, []string, error) {
	pending, err := s.requests.ListForDate(ctx, date, false)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err)
	}
	items := make([]domain.RequestItem, 0, len(extra)+len(pending))
	ids := make([]string, 0, len(pending))
	for _, req := range pending {
		items = append(items, req.Items...)
		ids = append(ids, req.ID)
	}
	items = append(items, extra...)
	return items, ids, nil
}

// SessionByDate returns the active session for a date.
func (s *SchedulerService) SessionByDate(ctx context.Context, date time.Time) (SessionDTO, error) {
	sess, err := s.sessions.ActiveByDate(ctx, Midnight(date))
	if err != nil {
		return SessionDTO{}, err
	}
	return toSessionDTO(sess), nil
}

// Sessions lists recent sessions, superseded ones included.
func (s *SchedulerService) Sessions(ctx context.Context, limit int) ([]SessionDTO, error) {
	sessions, err := s.sessions.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, toSessionDTO(sess))
	}
	return out, nil
}

func (s *SchedulerService) publish(topic string, v any) {
	if s.bus == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	s.bus.Publish(topic, b)
}
