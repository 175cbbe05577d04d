package app

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
)

// Lineup is the ordered output of one generation run, before persistence.
type Lineup struct {
	Date     time.Time
	Seed     int64
	Episodes []domain.Episode
	// TotalDurationSeconds covers the episodes only; intro/outro are
	// accounted for against the target inside the generator.
	TotalDurationSeconds int
}

// DefaultSeed derives a reproducible seed from the target date
// (2026-09-01 -> 20260901), so re-running a date without new data
// reproduces the same lineup.
func DefaultSeed(date time.Time) int64 {
	y, m, d := date.UTC().Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// sampler draws candidates without replacement. The cumulative weight
// array is rebuilt on every draw instead of mutating a shared list, so
// removals cannot alias an in-flight iteration.
type sampler struct {
	items []Candidate
}

func newSampler(cands []Candidate) *sampler {
	items := make([]Candidate, len(cands))
	copy(items, cands)
	return &sampler{items: items}
}

func (s *sampler) Len() int { return len(s.items) }

// Pick draws one candidate proportionally to weight and returns its
// current index. The candidate stays in the sampler until Remove.
func (s *sampler) Pick(rng *rand.Rand) (Candidate, int, bool) {
	return s.PickWhere(rng, nil)
}

// PickWhere draws among candidates matching the filter (nil = all).
func (s *sampler) PickWhere(rng *rand.Rand, match func(Candidate) bool) (Candidate, int, bool) {
	cum := make([]float64, 0, len(s.items))
	idx := make([]int, 0, len(s.items))
	total := 0.0
	for i, c := range s.items {
		if match != nil && !match(c) {
			continue
		}
		total += c.Weight
		cum = append(cum, total)
		idx = append(idx, i)
	}
	if total <= 0 {
		return Candidate{}, -1, false
	}
	r := rng.Float64() * total
	for j, edge := range cum {
		if r < edge || j == len(cum)-1 {
			return s.items[idx[j]], idx[j], true
		}
	}
	return Candidate{}, -1, false
}

func (s *sampler) Remove(i int) {
	s.items = append(s.items[:i], s.items[i+1:]...)
}

func (s *sampler) indexOf(episodeID int64) int {
	for i, c := range s.items {
		if c.Episode.ID == episodeID {
			return i
		}
	}
	return -1
}

// GenerateLineup assembles an ordered, duration-bounded lineup from the
// eligible pool. Requests are satisfied first; remaining slots are filled
// by weighted sampling without replacement, preferring a different series
// than the previous pick. Failure modes are domain.ErrUnsatisfiableRequest
// and domain.ErrRuntimeUnsatisfiable; a partial lineup is never returned.
func GenerateLineup(pool Pool, items []domain.RequestItem, seed int64, p Params) (Lineup, error) {
	rng := rand.New(rand.NewSource(seed))

	available := p.TargetSeconds - p.IntroSeconds - p.OutroSeconds
	lower := available - p.ToleranceSeconds
	upper := available + p.ToleranceSeconds

	s := newSampler(pool.Candidates)
	accepted := make([]domain.Episode, 0, p.MaxEpisodes)
	pinned := map[int64]int{} // episode ID -> requested slot
	total := 0

	take := func(c Candidate, idx int) {
		accepted = append(accepted, c.Episode)
		total += c.Episode.DurationSeconds
		s.Remove(idx)
	}

	// Requests come first; explicit beats implicit.
	for _, it := range items {
		for _, id := range it.EpisodeIDs {
			idx := s.indexOf(id)
			if idx < 0 {
				return Lineup{}, fmt.Errorf("%w: episode %d not in eligible pool", domain.ErrUnsatisfiableRequest, id)
			}
			if it.Slot > 0 {
				pinned[id] = it.Slot
			}
			take(s.items[idx], idx)
		}
		if it.Series == "" || it.Count <= 0 {
			continue
		}
		for n := 0; n < it.Count; n++ {
			c, idx, ok := s.PickWhere(rng, func(c Candidate) bool { return c.Episode.Series == it.Series })
			if !ok {
				return Lineup{}, fmt.Errorf("%w: series %q: %d requested, only %d could be drawn", domain.ErrUnsatisfiableRequest, it.Series, it.Count, n)
			}
			take(c, idx)
		}
	}
	if len(accepted) > p.MaxEpisodes {
		return Lineup{}, fmt.Errorf("%w: requests name %d episodes, lineup maximum is %d", domain.ErrUnsatisfiableRequest, len(accepted), p.MaxEpisodes)
	}

	// Fill the rest until the runtime window is hit.
	for len(accepted) < p.MaxEpisodes {
		if len(accepted) >= p.MinEpisodes && total >= lower && total <= upper {
			break
		}
		if s.Len() == 0 {
			break
		}
		var prevSeries string
		if len(accepted) > 0 {
			prevSeries = accepted[len(accepted)-1].Series
		}
		c, idx := pickDiverse(rng, s, prevSeries, p.DiversityRetries)
		if total+c.Episode.DurationSeconds > upper {
			// Too long to ever fit; drop it and try a shorter one.
			s.Remove(idx)
			continue
		}
		take(c, idx)
	}

	if len(accepted) < p.MinEpisodes || total < lower || total > upper {
		return Lineup{}, fmt.Errorf("%w: %d episodes, %ds of [%d,%d]s", domain.ErrRuntimeUnsatisfiable, len(accepted), total, lower, upper)
	}

	return Lineup{
		Date:                 pool.Date,
		Seed:                 seed,
		Episodes:             applyPins(accepted, pinned),
		TotalDurationSeconds: total,
	}, nil
}

// pickDiverse prefers a candidate from a different series than the
// previous pick, resampling a bounded number of times before accepting a
// repeat when the pool is too concentrated to avoid one.
func pickDiverse(rng *rand.Rand, s *sampler, prevSeries string, retries int) (Candidate, int) {
	c, idx, _ := s.Pick(rng)
	if prevSeries == "" {
		return c, idx
	}
	for i := 0; i < retries && c.Episode.Series == prevSeries; i++ {
		c2, idx2, ok := s.Pick(rng)
		if !ok {
			break
		}
		c, idx = c2, idx2
	}
	return c, idx
}

// applyPins keeps acceptance order except for episodes whose request
// named a slot; those land on their slot (clamped to the lineup length).
func applyPins(accepted []domain.Episode, pinned map[int64]int) []domain.Episode {
	if len(pinned) == 0 {
		return accepted
	}
	n := len(accepted)
	result := make([]domain.Episode, n)
	placed := make([]bool, n)
	floats := make([]domain.Episode, 0, n)
	for _, ep := range accepted {
		slot, ok := pinned[ep.ID]
		if !ok {
			floats = append(floats, ep)
			continue
		}
		i := slot - 1
		if i >= n {
			i = n - 1
		}
		for placed[i] {
			i = (i + 1) % n
		}
		result[i] = ep
		placed[i] = true
	}
	f := 0
	for i := range result {
		if !placed[i] {
			result[i] = floats[f]
			f++
		}
	}
	return result
}
