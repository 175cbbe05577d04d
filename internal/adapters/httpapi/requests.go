package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/danieljelinko/alma-tv/internal/app"
	"github.com/danieljelinko/alma-tv/internal/httpjson"
	"github.com/go-chi/chi/v5"
)

type RequestsHandler struct {
	requests *app.RequestService
}

func NewRequestsHandler(requests *app.RequestService) *RequestsHandler {
	return &RequestsHandler{requests: requests}
}

func (h *RequestsHandler) Routes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
	})
}

func (h *RequestsHandler) create(w http.ResponseWriter, r *http.Request) {
	var in app.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req, err := h.requests.Create(r.Context(), in)
	if err != nil {
		httpjson.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	httpjson.Write(w, http.StatusCreated, req)
}

func (h *RequestsHandler) list(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httpjson.WriteError(w, http.StatusBadRequest, "invalid date, want YYYY-MM-DD")
			return
		}
		date = d
	}
	includeFulfilled := r.URL.Query().Get("all") == "true"

	reqs, err := h.requests.ListForDate(r.Context(), date, includeFulfilled)
	if err != nil {
		httpjson.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httpjson.Write(w, http.StatusOK, reqs)
}
