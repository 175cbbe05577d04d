package domain

import "time"

// Episode is one row of the media library catalog. The library collaborator
// owns these rows; the engine only toggles Disabled and NeverOverride.
type Episode struct {
	ID              int64
	Series          string
	Season          int
	EpisodeCode     string
	Title           string
	Path            string
	DurationSeconds int
	AddedAt         time.Time
	Disabled        bool
	// NeverOverride clears a "never" rating for this episode, restoring
	// it to the baseline weight.
	NeverOverride bool
	FileHash      string
}

type Rating string

const (
	RatingLiked Rating = "liked"
	RatingOkay  Rating = "okay"
	RatingNever Rating = "never"
)

func (r Rating) Valid() bool {
	return r == RatingLiked || r == RatingOkay || r == RatingNever
}

// FeedbackRecord is one rating for an episode, as aggregated per episode
// by the feedback store. Append-only.
type FeedbackRecord struct {
	Rating      Rating
	SubmittedAt time.Time
}

// PlayRecord is one slot of a session's play history. The engine writes
// stub rows (no StartedAt/EndedAt); the playback collaborator fills the
// rest in later.
type PlayRecord struct {
	ID        int64
	SessionID string
	EpisodeID int64
	SlotOrder int
	StartedAt time.Time
	EndedAt   time.Time
	Completed bool
}
