package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/danieljelinko/alma-tv/internal/app"
	"github.com/danieljelinko/alma-tv/internal/ports"
)

type Server struct {
	logger    zerolog.Logger
	scheduler *app.SchedulerService
	library   *app.LibraryService
	requests  *app.RequestService
	feedback  *app.FeedbackService
	playback  *app.PlaybackService
	bus       ports.EventBus
}

func NewServer(
	logger zerolog.Logger,
	scheduler *app.SchedulerService,
	library *app.LibraryService,
	requests *app.RequestService,
	feedback *app.FeedbackService,
	playback *app.PlaybackService,
	bus ports.EventBus,
) *Server {
	return &Server{
		logger:    logger,
		scheduler: scheduler,
		library:   library,
		requests:  requests,
		feedback:  feedback,
		playback:  playback,
		bus:       bus,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/events", s.handleEvents)

		if s.scheduler != nil {
			NewSessionsHandler(s.scheduler).Routes(r)
		}
		if s.library != nil {
			NewEpisodesHandler(s.library).Routes(r)
		}
		if s.requests != nil {
			NewRequestsHandler(s.requests).Routes(r)
		}
		if s.feedback != nil && s.playback != nil {
			NewPlaybackHandler(s.feedback, s.playback).Routes(r)
		}
	})

	return r
}
