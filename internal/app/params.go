package app

// Params carries every knob of one generation run. It is built once from
// config and passed by value so pool building and sampling stay pure
// functions of their inputs.
type Params struct {
	TargetSeconds    int
	ToleranceSeconds int
	MinEpisodes      int
	MaxEpisodes      int

	IntroSeconds int
	OutroSeconds int

	CooldownDays       int
	HalfLifeDays       float64
	BaselineWeight     float64
	LikedBonus         float64
	FreshnessAfterDays int
	FreshnessCap       float64
	RequestMultiplier  float64

	DiversityRetries int

	// RequestsBypassCooldown lets a requested series/episode ignore the
	// anti-repeat window. Explicit-episode requests with an override
	// always bypass it.
	RequestsBypassCooldown bool
}

func DefaultParams() Params {
	return Params{
		TargetSeconds:          30 * 60,
		ToleranceSeconds:       60,
		MinEpisodes:            3,
		MaxEpisodes:            5,
		CooldownDays:           14,
		HalfLifeDays:           7,
		BaselineWeight:         1.0,
		LikedBonus:             0.5,
		FreshnessAfterDays:     14,
		FreshnessCap:           0.5,
		RequestMultiplier:      3.0,
		DiversityRetries:       4,
		RequestsBypassCooldown: true,
	}
}
