package app

import (
	"context"
	"errors"
	"time"

	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/rs/zerolog"
)

// PlannerLoop is the daily trigger: once the configured start time has
// passed, it generates today's session if none exists yet. The engine
// itself stays trigger-agnostic; this loop is just one caller.
type PlannerLoop struct {
	logger    zerolog.Logger
	scheduler *SchedulerService

	StartHour    int
	StartMinute  int
	TickInterval time.Duration

	lastRun time.Time
}

func NewPlannerLoop(logger zerolog.Logger, scheduler *SchedulerService, startHour, startMinute int) *PlannerLoop {
	return &PlannerLoop{
		logger:       logger,
		scheduler:    scheduler,
		StartHour:    startHour,
		StartMinute:  startMinute,
		TickInterval: 30 * time.Second,
	}
}

func (l *PlannerLoop) Run(ctx context.Context) {
	interval := l.TickInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("planner loop stopped")
			return
		case now := <-ticker.C:
			l.tick(ctx, now)
		}
	}
}

func (l *PlannerLoop) tick(ctx context.Context, now time.Time) {
	if l.scheduler == nil {
		return
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), l.StartHour, l.StartMinute, 0, 0, now.Location())
	if now.Before(start) {
		return
	}
	today := Midnight(now)
	if l.lastRun.Equal(today) {
		return
	}
	// One attempt per day, success or not; a failed day is surfaced in
	// the logs and can be regenerated by hand.
	l.lastRun = today

	_, err := l.scheduler.GenerateForDate(ctx, today, GenerateOptions{})
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrDuplicateSession):
		l.logger.Debug().Str("date", today.Format("2006-01-02")).Msg("session already planned")
	default:
		l.logger.Error().Err(err).Str("date", today.Format("2006-01-02")).Msg("daily generation failed")
	}
}
