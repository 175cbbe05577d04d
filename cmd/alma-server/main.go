package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danieljelinko/alma-tv/internal/adapters/httpapi"
	"github.com/danieljelinko/alma-tv/internal/adapters/memorybus"
	"github.com/danieljelinko/alma-tv/internal/adapters/sqlite"
	"github.com/danieljelinko/alma-tv/internal/app"
	"github.com/danieljelinko/alma-tv/internal/buildinfo"
	"github.com/danieljelinko/alma-tv/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	addr := flag.String("addr", cfg.Server.Addr, "listen address (ex: 127.0.0.1:8080)")
	dbPath := flag.String("db", cfg.Database.Path, "SQLite path (ex: alma.db)")
	flag.Parse()

	level, err := zerolog.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Str("app", "alma-server").Logger()
	log.Logger = logger

	logger.Info().Interface("build", buildinfo.Current()).Str("db", *dbPath).Msg("starting")

	ctx := context.Background()
	db, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open db")
	}
	defer func() { _ = db.Close() }()

	bus := memorybus.New()
	defer bus.Close()

	episodesRepo := sqlite.NewEpisodesRepository(db.SQL)
	historyRepo := sqlite.NewHistoryRepository(db.SQL)
	feedbackRepo := sqlite.NewFeedbackRepository(db.SQL)
	sessionsRepo := sqlite.NewSessionsRepository(db.SQL)
	requestsRepo := sqlite.NewRequestsRepository(db.SQL)

	params := schedulerParams(cfg)
	scheduler := app.NewSchedulerService(
		logger.With().Str("component", "scheduler").Logger(),
		episodesRepo, historyRepo, feedbackRepo, sessionsRepo, requestsRepo,
		bus, params,
		cfg.Media.IntroPath, cfg.Media.OutroPath,
		cfg.Scheduler.RelaxCooldownOnShortfall,
	)
	library := app.NewLibraryService(episodesRepo)
	requests := app.NewRequestService(requestsRepo, episodesRepo, bus, cfg.Scheduler.KeywordMap)
	feedback := app.NewFeedbackService(feedbackRepo, historyRepo, bus)
	playback := app.NewPlaybackService(historyRepo, sessionsRepo)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Daily planner: generates the evening session once the start time
	// passes. An empty start_time disables it.
	if cfg.Scheduler.StartTime != "" {
		hour, minute, err := cfg.Scheduler.StartClock()
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid scheduler start time")
		}
		loop := app.NewPlannerLoop(logger.With().Str("component", "planner").Logger(), scheduler, hour, minute)
		go loop.Run(shutdownCtx)
		logger.Info().Str("start", cfg.Scheduler.StartTime).Msg("planner loop started")
	}

	srv := httpapi.NewServer(logger, scheduler, library, requests, feedback, playback, bus)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", *addr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server crashed")
			stop()
		}
	}()

	<-shutdownCtx.Done()
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctx)
	logger.Info().Msg("bye")
}

func schedulerParams(cfg *config.Config) app.Params {
	p := app.DefaultParams()
	s := cfg.Scheduler
	p.TargetSeconds = s.TargetMinutes * 60
	p.ToleranceSeconds = s.ToleranceSeconds
	p.MinEpisodes = s.MinEpisodes
	p.MaxEpisodes = s.MaxEpisodes
	p.IntroSeconds = cfg.Media.IntroSeconds
	p.OutroSeconds = cfg.Media.OutroSeconds
	p.CooldownDays = s.CooldownDays
	p.HalfLifeDays = s.HalfLifeDays
	p.LikedBonus = s.LikedBonus
	p.FreshnessAfterDays = s.FreshnessAfterDays
	p.FreshnessCap = s.FreshnessCap
	p.RequestMultiplier = s.RequestMultiplier
	p.DiversityRetries = s.DiversityRetries
	p.RequestsBypassCooldown = s.RequestsBypassCooldown
	return p
}
