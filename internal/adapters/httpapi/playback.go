package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/danieljelinko/alma-tv/internal/app"
	"github.com/danieljelinko/alma-tv/internal/domain"
	"github.com/danieljelinko/alma-tv/internal/httpjson"
	"github.com/danieljelinko/alma-tv/internal/ports"
	"github.com/go-chi/chi/v5"
)

// PlaybackHandler is the write surface for the playback and feedback
// collaborators: playback facts onto stub rows, ratings onto played
// slots, and session completion.
type PlaybackHandler struct {
	feedback *app.FeedbackService
	playback *app.PlaybackService
}

func NewPlaybackHandler(feedback *app.FeedbackService, playback *app.PlaybackService) *PlaybackHandler {
	return &PlaybackHandler{feedback: feedback, playback: playback}
}

func (h *PlaybackHandler) Routes(r chi.Router) {
	r.Post("/feedback", h.recordFeedback)
	r.Route("/playback", func(r chi.Router) {
		r.Post("/{id}", h.recordPlayback)
		r.Get("/sessions/{sessionId}", h.bySession)
		r.Post("/sessions/{sessionId}/complete", h.completeSession)
	})
}

type feedbackRequest struct {
	PlayHistoryID int64         `json:"playHistoryId"`
	Rating        domain.Rating `json:"rating"`
}

func (h *PlaybackHandler) recordFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.feedback.Record(r.Context(), req.PlayHistoryID, req.Rating); err != nil {
		switch {
		case errors.Is(err, ports.ErrNotFound):
			httpjson.WriteError(w, http.StatusNotFound, "play history row not found")
		case errors.Is(err, ports.ErrConflict):
			httpjson.WriteError(w, http.StatusConflict, "slot already rated")
		default:
			httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	httpjson.Write(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

func (h *PlaybackHandler) recordPlayback(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var in app.RecordPlaybackInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	rec, err := h.playback.Record(r.Context(), id, in)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, rec)
}

func (h *PlaybackHandler) bySession(w http.ResponseWriter, r *http.Request) {
	recs, err := h.playback.ListBySession(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, recs)
}

func (h *PlaybackHandler) completeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.playback.CompleteSession(r.Context(), chi.URLParam(r, "sessionId")); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, map[string]string{"status": "completed"})
}
