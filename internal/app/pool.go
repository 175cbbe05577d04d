package app

import (
	"fmt"
	"sort"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
)

// Exclusion reasons reported in pool diagnostics.
const (
	ExcludeDisabled = "disabled"
	ExcludeCooldown = "cooldown"
	ExcludeNever    = "never"
)

type Candidate struct {
	Episode domain.Episode
	Weight  float64
}

type Exclusion struct {
	EpisodeID   int64  `json:"episodeId"`
	Series      string `json:"series"`
	EpisodeCode string `json:"episodeCode"`
	Reason      string `json:"reason"`
}

// Pool is the eligible, weight-annotated candidate set for one date,
// plus diagnostics about what was filtered out and why.
type Pool struct {
	Date       time.Time
	Candidates []Candidate
	Excluded   []Exclusion
}

// BuildPool filters the catalog down to the eligible pool for a date.
// Filtering order: disabled, then cooldown, then zero weight. An
// explicitly requested episode or series bypasses the cooldown when the
// policy allows it; an explicit-episode request with Override also
// bypasses a never-exclusion, at baseline weight. Candidates are ordered
// by episode ID so sampling stays deterministic.
//
// Returns domain.ErrInsufficientPool when fewer than p.MinEpisodes
// candidates survive; the (diagnostic) pool is still returned.
func BuildPool(
	date time.Time,
	catalog []domain.Episode,
	lastPlays map[int64]time.Time,
	feedback map[int64][]domain.FeedbackRecord,
	items []domain.RequestItem,
	p Params,
) (Pool, error) {
	requestedSeries := map[string]bool{}
	requestedEpisodes := map[int64]bool{}
	overrideEpisodes := map[int64]bool{}
	for _, it := range items {
		if it.Series != "" {
			requestedSeries[it.Series] = true
		}
		for _, id := range it.EpisodeIDs {
			requestedEpisodes[id] = true
			if it.Override {
				overrideEpisodes[id] = true
			}
		}
	}

	episodes := make([]domain.Episode, len(catalog))
	copy(episodes, catalog)
	sort.Slice(episodes, func(i, j int) bool { return episodes[i].ID < episodes[j].ID })

	cooldown := time.Duration(p.CooldownDays) * 24 * time.Hour
	pool := Pool{Date: date}

	for _, ep := range episodes {
		if ep.Disabled {
			pool.Excluded = append(pool.Excluded, exclusion(ep, ExcludeDisabled))
			continue
		}

		requested := requestedEpisodes[ep.ID] || requestedSeries[ep.Series]
		bypassCooldown := overrideEpisodes[ep.ID] || (requested && p.RequestsBypassCooldown)

		if last, ok := lastPlays[ep.ID]; ok && !bypassCooldown {
			if date.Sub(last) < cooldown {
				pool.Excluded = append(pool.Excluded, exclusion(ep, ExcludeCooldown))
				continue
			}
		}

		w := EpisodeWeight(ep, WeightInput{
			Feedback:          feedback[ep.ID],
			LastCompletedPlay: lastPlays[ep.ID],
		}, date, p)

		if w == 0 {
			if !overrideEpisodes[ep.ID] {
				pool.Excluded = append(pool.Excluded, exclusion(ep, ExcludeNever))
				continue
			}
			w = p.BaselineWeight
		}

		if requestedSeries[ep.Series] {
			w *= p.RequestMultiplier
		}

		pool.Candidates = append(pool.Candidates, Candidate{Episode: ep, Weight: w})
	}

	if len(pool.Candidates) < p.MinEpisodes {
		return pool, fmt.Errorf("%w: %d eligible of %d required", domain.ErrInsufficientPool, len(pool.Candidates), p.MinEpisodes)
	}
	return pool, nil
}

func exclusion(ep domain.Episode, reason string) Exclusion {
	return Exclusion{EpisodeID: ep.ID, Series: ep.Series, EpisodeCode: ep.EpisodeCode, Reason: reason}
}
