package domain

import "time"

// RequestItem is one ask inside a request: either a series with a count,
// or explicit episode IDs. Explicit IDs with Override set bypass a
// never-exclusion. Slot pins a single explicit episode to a lineup
// position (1-based, 0 = float).
type RequestItem struct {
	Series     string  `json:"series,omitempty"`
	Count      int     `json:"count,omitempty"`
	EpisodeIDs []int64 `json:"episodeIds,omitempty"`
	Slot       int     `json:"slot,omitempty"`
	Override   bool    `json:"override,omitempty"`
}

// Request is an explicit ask for a date. Consumed by one generation run,
// then marked fulfilled; never mutated otherwise.
type Request struct {
	ID          string
	Date        time.Time
	Notes       string
	Items       []RequestItem
	Fulfilled   bool
	FulfilledAt time.Time
	CreatedAt   time.Time
}
