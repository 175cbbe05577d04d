package app

import (
	"errors"
	"testing"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
)

func testCatalog() []domain.Episode {
	return []domain.Episode{
		{ID: 1, Series: "Bluey", EpisodeCode: "S01E01", DurationSeconds: 600},
		{ID: 2, Series: "Bluey", EpisodeCode: "S01E02", DurationSeconds: 600},
		{ID: 3, Series: "Puffin Rock", EpisodeCode: "S01E01", DurationSeconds: 600},
		{ID: 4, Series: "Puffin Rock", EpisodeCode: "S01E02", DurationSeconds: 600, Disabled: true},
		{ID: 5, Series: "Hilda", EpisodeCode: "S01E01", DurationSeconds: 600},
		{ID: 6, Series: "Hilda", EpisodeCode: "S01E02", DurationSeconds: 600},
	}
}

func reasonsByID(pool Pool) map[int64]string {
	m := map[int64]string{}
	for _, ex := range pool.Excluded {
		m[ex.EpisodeID] = ex.Reason
	}
	return m
}

func TestBuildPoolFilters(t *testing.T) {
	p := DefaultParams()
	asOf := date(2026, 9, 1)
	lastPlays := map[int64]time.Time{
		1: asOf.AddDate(0, 0, -3),  // inside cooldown
		3: asOf.AddDate(0, 0, -30), // well outside
	}
	feedback := map[int64][]domain.FeedbackRecord{
		5: {{Rating: domain.RatingNever, SubmittedAt: asOf.AddDate(0, 0, -1)}},
	}

	pool, err := BuildPool(asOf, testCatalog(), lastPlays, feedback, nil, p)
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}

	if len(pool.Candidates) != 3 {
		t.Fatalf("candidates = %d, want 3", len(pool.Candidates))
	}
	for i, want := range []int64{2, 3, 6} {
		if pool.Candidates[i].Episode.ID != want {
			t.Fatalf("candidate[%d].ID = %d, want %d (ID order)", i, pool.Candidates[i].Episode.ID, want)
		}
	}

	reasons := reasonsByID(pool)
	if reasons[4] != ExcludeDisabled {
		t.Fatalf("episode 4 reason = %q, want %q", reasons[4], ExcludeDisabled)
	}
	if reasons[1] != ExcludeCooldown {
		t.Fatalf("episode 1 reason = %q, want %q", reasons[1], ExcludeCooldown)
	}
	if reasons[5] != ExcludeNever {
		t.Fatalf("episode 5 reason = %q, want %q", reasons[5], ExcludeNever)
	}
}

func TestBuildPoolInsufficient(t *testing.T) {
	p := DefaultParams()
	asOf := date(2026, 9, 1)
	catalog := testCatalog()[:2]

	pool, err := BuildPool(asOf, catalog, nil, nil, nil, p)
	if !errors.Is(err, domain.ErrInsufficientPool) {
		t.Fatalf("err = %v, want ErrInsufficientPool", err)
	}
	// Diagnostics still come back for the preview endpoint.
	if len(pool.Candidates) != 2 {
		t.Fatalf("diagnostic pool candidates = %d, want 2", len(pool.Candidates))
	}
}

func TestBuildPoolAllNeverInsufficient(t *testing.T) {
	p := DefaultParams()
	asOf := date(2026, 9, 1)
	catalog := testCatalog()
	feedback := map[int64][]domain.FeedbackRecord{}
	for _, ep := range catalog {
		feedback[ep.ID] = []domain.FeedbackRecord{{Rating: domain.RatingNever, SubmittedAt: asOf.AddDate(0, 0, -1)}}
	}

	pool, err := BuildPool(asOf, catalog, nil, feedback, nil, p)
	if !errors.Is(err, domain.ErrInsufficientPool) {
		t.Fatalf("err = %v, want ErrInsufficientPool", err)
	}
	if len(pool.Candidates) != 0 {
		t.Fatalf("candidates = %d, want 0", len(pool.Candidates))
	}
	reasons := reasonsByID(pool)
	for _, ep := range catalog {
		want := ExcludeNever
		if ep.Disabled {
			want = ExcludeDisabled
		}
		if reasons[ep.ID] != want {
			t.Fatalf("episode %d reason = %q, want %q", ep.ID, reasons[ep.ID], want)
		}
	}
}

func TestBuildPoolRequestBypassesCooldown(t *testing.T) {
	p := DefaultParams()
	asOf := date(2026, 9, 1)
	lastPlays := map[int64]time.Time{1: asOf.AddDate(0, 0, -2), 2: asOf.AddDate(0, 0, -2)}
	items := []domain.RequestItem{{Series: "Bluey", Count: 1}}

	pool, err := BuildPool(asOf, testCatalog(), lastPlays, nil, items, p)
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	reasons := reasonsByID(pool)
	if _, excluded := reasons[1]; excluded {
		t.Fatalf("requested series episode 1 was excluded: %q", reasons[1])
	}

	// With the policy off, the cooldown wins again.
	p.RequestsBypassCooldown = false
	pool, _ = BuildPool(asOf, testCatalog(), lastPlays, nil, items, p)
	if reasonsByID(pool)[1] != ExcludeCooldown {
		t.Fatalf("episode 1 should stay in cooldown when bypass is disabled")
	}
}

func TestBuildPoolRequestMultiplier(t *testing.T) {
	p := DefaultParams()
	asOf := date(2026, 9, 1)
	items := []domain.RequestItem{{Series: "Bluey", Count: 1}}

	pool, err := BuildPool(asOf, testCatalog(), nil, nil, items, p)
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	for _, c := range pool.Candidates {
		want := p.BaselineWeight
		if c.Episode.Series == "Bluey" {
			want *= p.RequestMultiplier
		}
		if c.Weight != want {
			t.Fatalf("episode %d weight = %v, want %v", c.Episode.ID, c.Weight, want)
		}
	}
}

func TestBuildPoolOverrideEpisode(t *testing.T) {
	p := DefaultParams()
	asOf := date(2026, 9, 1)
	feedback := map[int64][]domain.FeedbackRecord{
		5: {{Rating: domain.RatingNever, SubmittedAt: asOf.AddDate(0, 0, -1)}},
	}
	lastPlays := map[int64]time.Time{5: asOf.AddDate(0, 0, -2)}
	items := []domain.RequestItem{{EpisodeIDs: []int64{5}, Override: true}}

	pool, err := BuildPool(asOf, testCatalog(), lastPlays, feedback, items, p)
	if err != nil {
		t.Fatalf("BuildPool: %v", err)
	}
	var found *Candidate
	for i := range pool.Candidates {
		if pool.Candidates[i].Episode.ID == 5 {
			found = &pool.Candidates[i]
		}
	}
	if found == nil {
		t.Fatalf("override episode 5 missing from pool: excluded as %q", reasonsByID(pool)[5])
	}
	if found.Weight != p.BaselineWeight {
		t.Fatalf("override episode weight = %v, want baseline %v", found.Weight, p.BaselineWeight)
	}
}
