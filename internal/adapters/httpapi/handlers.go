package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/danieljelinko/alma-tv/internal/buildinfo"
	"github.com/danieljelinko/alma-tv/internal/httpjson"
	"github.com/danieljelinko/alma-tv/internal/ports"
	"github.com/rs/zerolog/hlog"
)

const defaultRequestTimeout = 30 * time.Second

type healthResponse struct {
	Status       string `json:"status"`
	Date         string `json:"date"`
	TodaySession string `json:"todaySession"`
}

// handleHealth reports liveness plus whether today already has a planned
// session, so a dashboard poll answers both questions in one request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	resp := healthResponse{
		Status:       "ok",
		Date:         now.Format("2006-01-02"),
		TodaySession: "none",
	}
	if s.scheduler != nil {
		session, err := s.scheduler.SessionByDate(r.Context(), now)
		switch {
		case err == nil:
			resp.TodaySession = session.Status
		case errors.Is(err, ports.ErrNotFound):
		default:
			resp.Status = "degraded"
		}
	}
	httpjson.Write(w, http.StatusOK, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	httpjson.Write(w, http.StatusOK, buildinfo.Current())
}

func accessLogFn(r *http.Request, status, size int, duration time.Duration) {
	logger := hlog.FromRequest(r)
	logger.Info().
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("http")
}
