package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danieljelinko/alma-tv/internal/app"
	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/httpjson"
	"github.com/danieljelinko/alma-tv/internal/ports"
	"github.com/go-chi/chi/v5"
)

type SessionsHandler struct {
	scheduler *app.SchedulerService
}

func NewSessionsHandler(scheduler *app.SchedulerService) *SessionsHandler {
	return &SessionsHandler{scheduler: scheduler}
}

func (h *SessionsHandler) Routes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/generate", h.generate)
		r.Get("/preview", h.preview)
		r.Get("/", h.list)
		r.Get("/{date}", h.byDate)
	})
}

type generateRequest struct {
	Date       string               `json:"date"`
	Seed       *int64               `json:"seed"`
	Regenerate bool                 `json:"regenerate"`
	Items      []domain.RequestItem `json:"items"`
}

func (h *SessionsHandler) generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	date, ok := parseDateParam(w, req.Date)
	if !ok {
		return
	}

	session, err := h.scheduler.GenerateForDate(r.Context(), date, app.GenerateOptions{
		Seed:       req.Seed,
		Regenerate: req.Regenerate,
		Items:      req.Items,
	})
	if err != nil {
		writeSchedulingError(w, err)
		return
	}
	httpjson.Write(w, http.StatusCreated, session)
}

func (h *SessionsHandler) preview(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDateParam(w, r.URL.Query().Get("date"))
	if !ok {
		return
	}
	var seed *int64
	if raw := r.URL.Query().Get("seed"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, "invalid seed")
			return
		}
		seed = &v
	}

	preview, err := h.scheduler.Preview(r.Context(), date, app.GenerateOptions{Seed: seed})
	if err != nil {
		writeSchedulingError(w, err)
		return
	}
	httpjson.Write(w, http.StatusOK, preview)
}

func (h *SessionsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	sessions, err := h.scheduler.Sessions(r.Context(), limit)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, sessions)
}

func (h *SessionsHandler) byDate(w http.ResponseWriter, r *http.Request) {
	date, ok := parseDateParam(w, chi.URLParam(r, "date"))
	if !ok {
		return
	}
	session, err := h.scheduler.SessionByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, session)
}

// parseDateParam accepts YYYY-MM-DD, or empty for today.
func parseDateParam(w http.ResponseWriter, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now().UTC(), true
	}
	d, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

// writeSchedulingError maps the generation outcome taxonomy onto HTTP
// status codes. Planning failures are 422: the request was understood,
// the constraints cannot be met.
func writeSchedulingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateSession):
		httpjson.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInsufficientPool),
		errors.Is(err, domain.ErrUnsatisfiableRequest),
		errors.Is(err, domain.ErrRuntimeUnsatisfiable):
		httpjson.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
	}
}
