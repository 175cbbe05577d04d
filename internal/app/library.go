package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

// LibraryService is the thin catalog surface the engine exposes: listing,
// registering episodes on behalf of the library collaborator, and the two
// admin flags (disabled, never-override).
type LibraryService struct {
	repo ports.EpisodeRepository
}

func NewLibraryService(repo ports.EpisodeRepository) *LibraryService {
	return &LibraryService{repo: repo}
}

type EpisodeDTO struct {
	ID              int64     `json:"id"`
	Series          string    `json:"series"`
	Season          int       `json:"season"`
	EpisodeCode     string    `json:"episodeCode"`
	Title           string    `json:"title,omitempty"`
	Path            string    `json:"path"`
	DurationSeconds int       `json:"durationSeconds"`
	AddedAt         time.Time `json:"addedAt"`
	Disabled        bool      `json:"disabled"`
	NeverOverride   bool      `json:"neverOverride"`
	FileHash        string    `json:"fileHash,omitempty"`
}

func toEpisodeDTO(ep domain.Episode) EpisodeDTO {
	return EpisodeDTO{
		ID:              ep.ID,
		Series:          ep.Series,
		Season:          ep.Season,
		EpisodeCode:     ep.EpisodeCode,
		Title:           ep.Title,
		Path:            ep.Path,
		DurationSeconds: ep.DurationSeconds,
		AddedAt:         ep.AddedAt,
		Disabled:        ep.Disabled,
		NeverOverride:   ep.NeverOverride,
		FileHash:        ep.FileHash,
	}
}

type CreateEpisodeRequest struct {
	Series          string `json:"series"`
	Season          int    `json:"season"`
	EpisodeCode     string `json:"episodeCode"`
	Title           string `json:"title"`
	Path            string `json:"path"`
	DurationSeconds int    `json:"durationSeconds"`
	FileHash        string `json:"fileHash"`
}

func (s *LibraryService) Create(ctx context.Context, req CreateEpisodeRequest) (EpisodeDTO, error) {
	req.Series = strings.TrimSpace(req.Series)
	req.EpisodeCode = strings.TrimSpace(req.EpisodeCode)
	req.Path = strings.TrimSpace(req.Path)
	if req.Series == "" {
		return EpisodeDTO{}, errors.New("missing series")
	}
	if req.EpisodeCode == "" {
		return EpisodeDTO{}, errors.New("missing episodeCode")
	}
	if req.Path == "" {
		return EpisodeDTO{}, errors.New("missing path")
	}
	if req.DurationSeconds <= 0 {
		return EpisodeDTO{}, errors.New("durationSeconds must be positive")
	}

	ep, err := s.repo.Create(ctx, domain.Episode{
		Series:          req.Series,
		Season:          req.Season,
		EpisodeCode:     req.EpisodeCode,
		Title:           strings.TrimSpace(req.Title),
		Path:            req.Path,
		DurationSeconds: req.DurationSeconds,
		AddedAt:         time.Now().UTC(),
		FileHash:        req.FileHash,
	})
	if err != nil {
		return EpisodeDTO{}, err
	}
	return toEpisodeDTO(ep), nil
}

func (s *LibraryService) Get(ctx context.Context, id int64) (EpisodeDTO, error) {
	ep, err := s.repo.Get(ctx, id)
	if err != nil {
		return EpisodeDTO{}, err
	}
	return toEpisodeDTO(ep), nil
}

func (s *LibraryService) List(ctx context.Context, includeDisabled bool) ([]EpisodeDTO, error) {
	eps, err := s.repo.List(ctx, includeDisabled)
	if err != nil {
		return nil, err
	}
	out := make([]EpisodeDTO, 0, len(eps))
	for _, ep := range eps {
		out = append(out, toEpisodeDTO(ep))
	}
	return out, nil
}

func (s *LibraryService) Series(ctx context.Context) ([]string, error) {
	return s.repo.Series(ctx)
}

type PatchEpisodeRequest struct {
	Disabled      *bool `json:"disabled"`
	NeverOverride *bool `json:"neverOverride"`
}

func (s *LibraryService) Patch(ctx context.Context, id int64, req PatchEpisodeRequest) (EpisodeDTO, error) {
	ep, err := s.repo.Get(ctx, id)
	if err != nil {
		return EpisodeDTO{}, err
	}
	if req.Disabled != nil {
		ep, err = s.repo.SetDisabled(ctx, id, *req.Disabled)
		if err != nil {
			return EpisodeDTO{}, err
		}
	}
	if req.NeverOverride != nil {
		ep, err = s.repo.SetNeverOverride(ctx, id, *req.NeverOverride)
		if err != nil {
			return EpisodeDTO{}, err
		}
	}
	return toEpisodeDTO(ep), nil
}
