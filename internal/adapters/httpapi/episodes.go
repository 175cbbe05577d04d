package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/danieljelinko/alma-tv/internal/app"
	"github.com/danieljelinko/alma-tv/internal/httpjson"
	"github.com/danieljelinko/alma-tv/internal/ports"
	"github.com/go-chi/chi/v5"
)

type EpisodesHandler struct {
	library *app.LibraryService
}

func NewEpisodesHandler(library *app.LibraryService) *EpisodesHandler {
	return &EpisodesHandler{library: library}
}

func (h *EpisodesHandler) Routes(r chi.Router) {
	r.Route("/episodes", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/series", h.series)
		r.Get("/{id}", h.get)
		r.Patch("/{id}", h.patch)
	})
}

func (h *EpisodesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req app.CreateEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ep, err := h.library.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, ports.ErrConflict) {
			httpjson.WriteError(w, http.StatusConflict, "path already registered")
			return
		}
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Write(w, http.StatusCreated, ep)
}

func (h *EpisodesHandler) list(w http.ResponseWriter, r *http.Request) {
	includeDisabled := r.URL.Query().Get("all") == "true"
	eps, err := h.library.List(r.Context(), includeDisabled)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, eps)
}

func (h *EpisodesHandler) series(w http.ResponseWriter, r *http.Request) {
	series, err := h.library.Series(r.Context())
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, series)
}

func (h *EpisodesHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	ep, err := h.library.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, ep)
}

func (h *EpisodesHandler) patch(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req app.PatchEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ep, err := h.library.Patch(r.Context(), id, req)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			httpjson.WriteError(w, http.StatusNotFound, "not found")
			return
		}
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, ep)
}
