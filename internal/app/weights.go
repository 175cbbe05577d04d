package app

import (
	"math"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
)

// WeightInput is everything the weight model reads for one episode.
type WeightInput struct {
	Feedback []domain.FeedbackRecord
	// LastCompletedPlay is the most recent completed play, zero if the
	// episode has never been played to completion.
	LastCompletedPlay time.Time
}

// EpisodeWeight computes the selection weight of an episode as of a date.
//
// Baseline 1.0; each "liked" adds LikedBonus decayed geometrically by its
// age (50% per half-life); "okay" contributes nothing; any "never" zeroes
// the weight unless the episode carries a manual override. Episodes idle
// past the freshness threshold gain a small capped boost.
func EpisodeWeight(ep domain.Episode, in WeightInput, asOf time.Time, p Params) float64 {
	for _, f := range in.Feedback {
		if f.Rating == domain.RatingNever && !ep.NeverOverride {
			return 0
		}
	}

	w := p.BaselineWeight
	for _, f := range in.Feedback {
		if f.Rating != domain.RatingLiked {
			continue
		}
		days := asOf.Sub(f.SubmittedAt).Hours() / 24
		if days < 0 {
			days = 0
		}
		w += p.LikedBonus * math.Pow(0.5, days/p.HalfLifeDays)
	}

	if !in.LastCompletedPlay.IsZero() {
		days := asOf.Sub(in.LastCompletedPlay).Hours() / 24
		if days > float64(p.FreshnessAfterDays) {
			boost := (days - float64(p.FreshnessAfterDays)) / 100
			if boost > p.FreshnessCap {
				boost = p.FreshnessCap
			}
			w += boost
		}
	}

	return w
}
