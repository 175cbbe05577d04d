package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedEpisodes(t *testing.T, db *DB, n int) []domain.Episode {
	t.Helper()
	repo := NewEpisodesRepository(db.SQL)
	out := make([]domain.Episode, 0, n)
	for i := 0; i < n; i++ {
		ep, err := repo.Create(context.Background(), domain.Episode{
			Series:          "Bluey",
			Season:          1,
			EpisodeCode:     fmt.Sprintf("S01E%02d", i+1),
			Path:            fmt.Sprintf("/media/bluey/e%02d.mkv", i+1),
			DurationSeconds: 600,
			AddedAt:         time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("create episode: %v", err)
		}
		out = append(out, ep)
	}
	return out
}

func testSession(id string, day time.Time, eps []domain.Episode) domain.Session {
	s := domain.Session{
		ID:          id,
		ShowDate:    day,
		Status:      domain.SessionPlanned,
		Seed:        20260901,
		GeneratedAt: time.Now().UTC(),
	}
	for i, ep := range eps {
		s.Entries = append(s.Entries, domain.SessionEntry{Slot: i + 1, EpisodeID: ep.ID})
	}
	return s
}

func TestSessionsCreateAndGet(t *testing.T) {
	db := openTestDB(t)
	eps := seedEpisodes(t, db, 3)
	repo := NewSessionsRepository(db.SQL)
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(context.Background(), testSession("sess-1", day, eps))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(created.Entries))
	}
	for i, e := range created.Entries {
		if e.Slot != i+1 || e.EpisodeID != eps[i].ID {
			t.Fatalf("entry %d = %+v, want slot %d episode %d", i, e, i+1, eps[i].ID)
		}
	}

	got, err := repo.ActiveByDate(context.Background(), day)
	if err != nil {
		t.Fatalf("ActiveByDate: %v", err)
	}
	if got.ID != "sess-1" {
		t.Fatalf("active ID = %q, want sess-1", got.ID)
	}
}

func TestSessionsDuplicateDateConflicts(t *testing.T) {
	db := openTestDB(t)
	eps := seedEpisodes(t, db, 3)
	repo := NewSessionsRepository(db.SQL)
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	if _, err := repo.Create(context.Background(), testSession("sess-1", day, eps)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := repo.Create(context.Background(), testSession("sess-2", day, eps)); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// The failed insert must not leave orphan history rows.
	history := NewHistoryRepository(db.SQL)
	plays, err := history.ListBySession(context.Background(), "sess-2")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(plays) != 0 {
		t.Fatalf("rolled-back session left %d play rows", len(plays))
	}
}

func TestSessionsSupersede(t *testing.T) {
	db := openTestDB(t)
	eps := seedEpisodes(t, db, 3)
	repo := NewSessionsRepository(db.SQL)
	ctx := context.Background()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	if _, err := repo.Create(ctx, testSession("sess-1", day, eps)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Supersede(ctx, testSession("sess-2", day, eps)); err != nil {
		t.Fatalf("supersede: %v", err)
	}

	active, err := repo.ActiveByDate(ctx, day)
	if err != nil {
		t.Fatalf("ActiveByDate: %v", err)
	}
	if active.ID != "sess-2" {
		t.Fatalf("active = %q, want sess-2", active.ID)
	}

	old, err := repo.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Get old: %v", err)
	}
	if !old.Superseded {
		t.Fatal("old session not flagged superseded")
	}
	// Its history rows stay for attribution.
	history := NewHistoryRepository(db.SQL)
	plays, err := history.ListBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(plays) != 3 {
		t.Fatalf("old session plays = %d, want 3", len(plays))
	}
}

func TestSessionsSetStatus(t *testing.T) {
	db := openTestDB(t)
	eps := seedEpisodes(t, db, 3)
	repo := NewSessionsRepository(db.SQL)
	ctx := context.Background()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	if _, err := repo.Create(ctx, testSession("sess-1", day, eps)); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := repo.SetStatus(ctx, "sess-1", domain.SessionCompleted)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != domain.SessionCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if _, err := repo.SetStatus(ctx, "missing", domain.SessionCancelled); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSessionsListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	eps := seedEpisodes(t, db, 3)
	repo := NewSessionsRepository(db.SQL)
	ctx := context.Background()

	for i, id := range []string{"sess-a", "sess-b", "sess-c"} {
		day := time.Date(2026, 9, 1+i, 0, 0, 0, 0, time.UTC)
		if _, err := repo.Create(ctx, testSession(id, day, eps)); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	got, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sessions = %d, want limit 2", len(got))
	}
	if got[0].ID != "sess-c" || got[1].ID != "sess-b" {
		t.Fatalf("order = [%s %s], want newest first", got[0].ID, got[1].ID)
	}
}

func TestPlaybackAndFeedbackRoundTrip(t *testing.T) {
	db := openTestDB(t)
	eps := seedEpisodes(t, db, 3)
	sessions := NewSessionsRepository(db.SQL)
	history := NewHistoryRepository(db.SQL)
	feedback := NewFeedbackRepository(db.SQL)
	ctx := context.Background()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	if _, err := sessions.Create(ctx, testSession("sess-1", day, eps)); err != nil {
		t.Fatalf("create session: %v", err)
	}
	plays, err := history.ListBySession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}

	start := day.Add(19 * time.Hour)
	rec, err := history.RecordPlayback(ctx, plays[0].ID, start, start.Add(10*time.Minute), true)
	if err != nil {
		t.Fatalf("RecordPlayback: %v", err)
	}
	if !rec.Completed || rec.StartedAt.IsZero() {
		t.Fatalf("record = %+v, want completed with timestamps", rec)
	}

	last, err := history.LastCompletedPlays(ctx)
	if err != nil {
		t.Fatalf("LastCompletedPlays: %v", err)
	}
	if got, ok := last[rec.EpisodeID]; !ok || !got.Equal(start) {
		t.Fatalf("last play for %d = %v, want %v", rec.EpisodeID, got, start)
	}
	// Incomplete plays never count.
	if len(last) != 1 {
		t.Fatalf("completed plays = %d, want 1", len(last))
	}

	if err := feedback.Create(ctx, plays[0].ID, domain.RatingLiked, start.Add(time.Hour)); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if err := feedback.Create(ctx, plays[0].ID, domain.RatingOkay, start.Add(time.Hour)); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on a second rating", err)
	}

	byEp, err := feedback.ByEpisode(ctx)
	if err != nil {
		t.Fatalf("ByEpisode: %v", err)
	}
	recs := byEp[rec.EpisodeID]
	if len(recs) != 1 || recs[0].Rating != domain.RatingLiked {
		t.Fatalf("feedback for %d = %+v, want one liked", rec.EpisodeID, recs)
	}
}

func TestRequestsLifecycle(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestsRepository(db.SQL)
	ctx := context.Background()
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	created, err := repo.Create(ctx, domain.Request{
		ID:        "req-1",
		Date:      day,
		Notes:     "two bluey",
		Items:     []domain.RequestItem{{Series: "Bluey", Count: 2}},
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created.Items) != 1 || created.Items[0].Series != "Bluey" {
		t.Fatalf("items round-trip = %+v", created.Items)
	}

	pending, err := repo.ListForDate(ctx, day, false)
	if err != nil {
		t.Fatalf("ListForDate: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	if err := repo.MarkFulfilled(ctx, "req-1", time.Now().UTC()); err != nil {
		t.Fatalf("MarkFulfilled: %v", err)
	}
	pending, err = repo.ListForDate(ctx, day, false)
	if err != nil {
		t.Fatalf("ListForDate: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("pending after fulfilment = %d, want 0", len(pending))
	}
	all, err := repo.ListForDate(ctx, day, true)
	if err != nil {
		t.Fatalf("ListForDate all: %v", err)
	}
	if len(all) != 1 || !all[0].Fulfilled {
		t.Fatalf("all = %+v, want one fulfilled request", all)
	}
}

func TestEpisodesFlags(t *testing.T) {
	db := openTestDB(t)
	eps := seedEpisodes(t, db, 2)
	repo := NewEpisodesRepository(db.SQL)
	ctx := context.Background()

	if _, err := repo.Create(ctx, domain.Episode{
		Series: "Bluey", EpisodeCode: "S01E01", Path: eps[0].Path,
		DurationSeconds: 600, AddedAt: time.Now().UTC(),
	}); !errors.Is(err, ports.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict on duplicate path", err)
	}

	got, err := repo.SetDisabled(ctx, eps[0].ID, true)
	if err != nil {
		t.Fatalf("SetDisabled: %v", err)
	}
	if !got.Disabled {
		t.Fatal("episode not disabled")
	}

	visible, err := repo.List(ctx, false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != eps[1].ID {
		t.Fatalf("visible = %+v, want only episode %d", visible, eps[1].ID)
	}

	got, err = repo.SetNeverOverride(ctx, eps[1].ID, true)
	if err != nil {
		t.Fatalf("SetNeverOverride: %v", err)
	}
	if !got.NeverOverride {
		t.Fatal("override flag not set")
	}
}
