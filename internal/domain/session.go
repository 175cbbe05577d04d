package domain

import "time"

type SessionStatus string

const (
	SessionPlanned   SessionStatus = "planned"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

type SessionEntry struct {
	Slot      int
	EpisodeID int64
}

// Session is the persisted output of one generation run for one date.
// At most one non-superseded session exists per ShowDate; regeneration
// marks the old one superseded instead of deleting it.
type Session struct {
	ID          string
	ShowDate    time.Time
	Status      SessionStatus
	Superseded  bool
	Seed        int64
	GeneratedAt time.Time
	IntroPath   string
	OutroPath   string
	// TotalDurationSeconds is the sum of the chosen episodes, excluding
	// intro and outro.
	TotalDurationSeconds int
	// Relaxed marks that the anti-repeat cooldown was weakened to fill
	// this session.
	Relaxed bool
	Entries []SessionEntry
}
